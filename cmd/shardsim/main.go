// Command shardsim runs the sharded beacon chain / data-availability market
// simulator's HTTP surface.
//
// Usage:
//
//	shardsim [flags]
//
// Flags:
//
//	--auto           opt in to auto mode (default: false)
//	--slot-time      seconds per slot in auto mode (default: 12)
//	--failure-rate   fraction in [0,1] of auto-mode slots processed with
//	                 random fault injection (default: 0)
//	--port           HTTP listen port (default: 3030)
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eth2030/shardsim/httpapi"
	"github.com/eth2030/shardsim/log"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	cfg, port, exit, code := parseFlags(args)
	if exit {
		return code
	}

	log.Info("shardsim starting", "auto", cfg.Auto, "slot_time", cfg.SlotTime, "failure_rate", cfg.FailureRate, "port", port)

	server := httpapi.NewServer(cfg)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			return 1
		}
	case sig := <-sigCh:
		log.Info("received signal, shutting down", "signal", sig.String())
	}

	if err := httpServer.Close(); err != nil {
		log.Error("error during shutdown", "error", err)
		return 1
	}
	return 0
}

// parseFlags parses CLI arguments into a Config and listen port. Returns
// whether the caller should exit immediately and with what code.
func parseFlags(args []string) (cfg httpapi.Config, port int, exit bool, code int) {
	cfg = httpapi.DefaultConfig()
	port = 3030

	var slotTimeSeconds uint64 = uint64(cfg.SlotTime / time.Second)
	var failureRate float32

	fs := newCustomFlagSet("shardsim")
	fs.BoolVar(&cfg.Auto, "auto", cfg.Auto, "opt in to auto mode")
	fs.Uint64Var(&slotTimeSeconds, "slot-time", slotTimeSeconds, "seconds per slot in auto mode")
	fs.Float32Var(&failureRate, "failure-rate", failureRate, "fraction of auto-mode slots processed with random fault injection, in [0,1]")
	fs.IntVar(&port, "port", port, "HTTP listen port")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cfg, port, true, 2
	}

	if failureRate < 0 || failureRate > 1 {
		fmt.Fprintf(os.Stderr, "Error: --failure-rate must be in [0,1], got %v\n", failureRate)
		return cfg, port, true, 2
	}

	cfg.SlotTime = time.Duration(slotTimeSeconds) * time.Second
	cfg.FailureRate = failureRate
	return cfg, port, false, 0
}

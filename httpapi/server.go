// Package httpapi exposes the simulator's control and inspection surface
// over HTTP, on localhost, as the external collaborator described by the
// core's contract points. None of the routing, auto-mode timer, or request
// logging in this package is part of the deterministic core itself.
package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/eth2030/shardsim/log"
	"github.com/eth2030/shardsim/simerr"
	"github.com/eth2030/shardsim/simulator"
	"github.com/eth2030/shardsim/types"
	"github.com/eth2030/shardsim/xhash"
)

var logger = log.Default().Module("httpapi")

// Server wires the simulator core to the HTTP surface. It owns exactly two
// exclusive-access guards, per the concurrency model: one over the
// Simulator, one over the auto-mode configuration.
type Server struct {
	mu  sync.Mutex
	sim *simulator.Simulator

	cfgMu         sync.Mutex
	cfg           Config
	autoStartTime time.Time
	autoProcessed types.Slot

	logStore *LogStore
	mux      *http.ServeMux

	autoCancel context.CancelFunc
	autoRng    *rand.Rand
}

// NewServer constructs a server with a fresh genesis simulator and the
// given initial configuration.
func NewServer(cfg Config) *Server {
	s := &Server{
		sim:           simulator.New(rand.New(rand.NewSource(1))),
		cfg:           cfg,
		autoStartTime: time.Now(),
		logStore:      NewLogStore(),
		autoRng:       rand.New(rand.NewSource(2)),
	}
	if err := s.sim.ProcessSlotsHappy(0); err != nil {
		panic(fmt.Sprintf("httpapi: genesis bootstrap failed: %v", err))
	}
	s.mux = s.buildMux()
	if cfg.Auto {
		s.startAutoMode()
	}
	return s
}

// Handler returns the fully wrapped HTTP handler (routes + middleware).
func (s *Server) Handler() http.Handler {
	return MiddlewareChain(s.mux, LoggingMiddleware(s.logStore), CORSMiddleware())
}

func (s *Server) buildMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)

	mux.HandleFunc("GET /beacon/blocks", s.handleBeaconBlocks)
	mux.HandleFunc("GET /beacon/blocks/head", s.handleBeaconBlocksHead)
	mux.HandleFunc("GET /beacon/finalized_blocks", s.handleBeaconFinalizedBlocks)
	mux.HandleFunc("GET /beacon/states", s.handleBeaconStates)
	mux.HandleFunc("GET /beacon/finalized_checkpoint", s.handleBeaconFinalizedCheckpoint)

	mux.HandleFunc("POST /shards/{shard}/bid", s.handleShardBid)
	mux.HandleFunc("POST /shards/{shard}/bid_with_data", s.handleShardBidWithData)

	mux.HandleFunc("POST /simulator/init", s.handleSimulatorInit)
	mux.HandleFunc("POST /simulator/slot/process/{n}", s.variantHandler((*simulator.Simulator).ProcessSlotsHappy))
	mux.HandleFunc("POST /simulator/slot/process_without_shard_data_inclusion/{n}", s.variantHandler((*simulator.Simulator).ProcessSlotsWithoutShardDataInclusion))
	mux.HandleFunc("POST /simulator/slot/process_without_shard_blob_proposal/{n}", s.variantHandler((*simulator.Simulator).ProcessSlotsWithoutShardBlobProposal))
	mux.HandleFunc("POST /simulator/slot/process_without_shard_header_inclusion/{n}", s.variantHandler((*simulator.Simulator).ProcessSlotsWithoutShardHeaderInclusion))
	mux.HandleFunc("POST /simulator/slot/process_without_shard_header_confirmation/{n}", s.variantHandler((*simulator.Simulator).ProcessSlotsWithoutShardHeaderConfirmation))
	mux.HandleFunc("POST /simulator/slot/process_without_beacon_chain_finality/{n}", s.variantHandler((*simulator.Simulator).ProcessSlotsWithoutBeaconChainFinality))
	mux.HandleFunc("POST /simulator/slot/process_without_beacon_block_proposal/{n}", s.variantHandler((*simulator.Simulator).ProcessSlotsWithoutBeaconBlockProposal))
	mux.HandleFunc("POST /simulator/slot/process_random/{n}", s.variantHandler((*simulator.Simulator).ProcessSlotsRandom))

	mux.HandleFunc("GET /config", s.handleGetConfig)
	mux.HandleFunc("POST /config", s.handlePostConfig)

	mux.HandleFunc("GET /utils/current_status_for_polling", s.handleCurrentStatus)
	mux.HandleFunc("POST /utils/data_commitment", s.handleDataCommitment)
	mux.HandleFunc("GET /utils/request_logs", s.handleRequestLogs)

	return mux
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("root"))
}

// --- beacon read routes -----------------------------------------------------

func countAndPage(r *http.Request) (int, int) {
	count := 100
	page := 0
	if v := r.URL.Query().Get("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			count = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page = n
		}
	}
	return count, page
}

func (s *Server) handleBeaconBlocks(w http.ResponseWriter, r *http.Request) {
	count, page := countAndPage(r)
	s.mu.Lock()
	blocks := s.sim.Chain().Blocks()
	s.mu.Unlock()
	writeJSON(w, paginate(blocks, blockSlot, count, page))
}

func (s *Server) handleBeaconBlocksHead(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	blocks := s.sim.Chain().Blocks()
	s.mu.Unlock()
	if len(blocks) == 0 {
		writeJSON(w, nil)
		return
	}
	writeJSON(w, blocks[len(blocks)-1])
}

func (s *Server) handleBeaconFinalizedBlocks(w http.ResponseWriter, r *http.Request) {
	count, page := countAndPage(r)
	s.mu.Lock()
	blocks := s.sim.Chain().GetFinalizedBlocks()
	s.mu.Unlock()
	writeJSON(w, paginate(blocks, blockSlot, count, page))
}

func (s *Server) handleBeaconStates(w http.ResponseWriter, r *http.Request) {
	count, page := countAndPage(r)
	s.mu.Lock()
	states := s.sim.Chain().States()
	s.mu.Unlock()
	writeJSON(w, paginate(states, stateSlot, count, page))
}

func (s *Server) handleBeaconFinalizedCheckpoint(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cp := s.sim.Chain().FinalizedCheckpoint()
	s.mu.Unlock()
	writeJSON(w, cp)
}

// --- bid submission ----------------------------------------------------------

func parseShardParam(r *http.Request) (types.Shard, error) {
	raw := r.PathValue("shard")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("httpapi: invalid shard path parameter %q", raw)
	}
	return types.Shard(n), nil
}

func (s *Server) handleShardBid(w http.ResponseWriter, r *http.Request) {
	shard, err := parseShardParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var bid types.Bid
	if err := json.NewDecoder(r.Body).Decode(&bid); err != nil {
		http.Error(w, "invalid bid JSON", http.StatusBadRequest)
		return
	}

	if bid.Shard != shard {
		writeError(w, &simerr.BidInvalidShard{Expect: shard, Found: bid.Shard})
		return
	}

	s.mu.Lock()
	err = s.sim.PublishBid(bid)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type bidWithData struct {
	Bid  types.Bid `json:"bid"`
	Data string    `json:"data"`
}

func (s *Server) handleShardBidWithData(w http.ResponseWriter, r *http.Request) {
	shard, err := parseShardParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req bidWithData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request JSON", http.StatusBadRequest)
		return
	}

	if req.Bid.Shard != shard {
		writeError(w, &simerr.BidInvalidShard{Expect: shard, Found: req.Bid.Shard})
		return
	}

	if req.Data != "" {
		raw, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			http.Error(w, "invalid base64 data", http.StatusBadRequest)
			return
		}
		derived := xhash.CommitmentFromBytes(raw)
		if !derived.Equal(req.Bid.Commitment) {
			writeError(w, &simerr.BidInvalidCommitment{Expect: req.Bid.Commitment, Found: derived})
			return
		}
	}

	s.mu.Lock()
	err = s.sim.PublishBid(req.Bid)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// --- simulator control ---------------------------------------------------

func (s *Server) handleSimulatorInit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.sim = simulator.New(rand.New(rand.NewSource(1)))
	err := s.sim.ProcessSlotsHappy(0)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	s.cfgMu.Lock()
	s.cfg.Auto = false
	s.stopAutoModeLocked()
	s.cfgMu.Unlock()

	w.WriteHeader(http.StatusOK)
}

// variantHandler adapts one of the Simulator's ProcessSlots* methods into an
// HTTP handler parsing the {n} path parameter.
func (s *Server) variantHandler(process func(*simulator.Simulator, types.Slot) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.PathValue("n")
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid slot parameter %q", raw), http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		err = process(s.sim, types.Slot(n))
		s.mu.Unlock()
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// --- config ----------------------------------------------------------------

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.cfgMu.Lock()
	cfg := s.cfg
	s.cfgMu.Unlock()
	writeJSON(w, cfg.toJSON())
}

func (s *Server) handlePostConfig(w http.ResponseWriter, r *http.Request) {
	var upd configUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "invalid config JSON", http.StatusBadRequest)
		return
	}

	if upd.FailureRate != nil && (*upd.FailureRate < 0 || *upd.FailureRate > 1) {
		writeError(w, &simerr.ConfigInvalidFailureRate{Found: *upd.FailureRate})
		return
	}

	s.cfgMu.Lock()
	if upd.Auto != nil {
		s.cfg.Auto = *upd.Auto
	}
	if upd.SlotTime != nil {
		s.cfg.SlotTime = time.Duration(*upd.SlotTime) * time.Second
	}
	if upd.FailureRate != nil {
		s.cfg.FailureRate = *upd.FailureRate
	}
	s.autoStartTime = time.Now()
	s.autoProcessed = 0
	if s.cfg.Auto {
		s.startAutoModeLocked()
	} else {
		s.stopAutoModeLocked()
	}
	cfg := s.cfg
	s.cfgMu.Unlock()

	writeJSON(w, cfg.toJSON())
}

// --- utils -------------------------------------------------------------------

type statusResponse struct {
	Slot   *types.Slot `json:"slot"`
	Config configJSON  `json:"config"`
}

func (s *Server) handleCurrentStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	slot := s.sim.Slot()
	s.mu.Unlock()

	s.cfgMu.Lock()
	cfg := s.cfg
	s.cfgMu.Unlock()

	var last *types.Slot
	if slot > 0 {
		v := slot - 1
		last = &v
	}
	writeJSON(w, statusResponse{Slot: last, Config: cfg.toJSON()})
}

type dataCommitmentRequest struct {
	Data string `json:"data"`
}

func (s *Server) handleDataCommitment(w http.ResponseWriter, r *http.Request) {
	var req dataCommitmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request JSON", http.StatusBadRequest)
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		http.Error(w, "invalid base64 data", http.StatusBadRequest)
		return
	}
	writeJSON(w, xhash.CommitmentFromBytes(raw))
}

func (s *Server) handleRequestLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logStore.Entries())
}

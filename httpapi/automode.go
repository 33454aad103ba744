package httpapi

import (
	"context"
	"time"
)

// autoModeTick is the poll interval for the auto-mode background loop.
const autoModeTick = 10 * time.Millisecond

// startAutoMode begins the auto-mode loop if it isn't already running.
// Acquires cfgMu internally.
func (s *Server) startAutoMode() {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.startAutoModeLocked()
}

// startAutoModeLocked begins the loop; caller must hold cfgMu.
func (s *Server) startAutoModeLocked() {
	if s.autoCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.autoCancel = cancel
	go s.runAutoMode(ctx)
}

// stopAutoModeLocked stops the loop if running; caller must hold cfgMu.
func (s *Server) stopAutoModeLocked() {
	if s.autoCancel != nil {
		s.autoCancel()
		s.autoCancel = nil
	}
}

// runAutoMode ticks every 10ms, advancing the simulator by one slot once
// enough wall-clock time has elapsed since the last config change.
func (s *Server) runAutoMode(ctx context.Context) {
	ticker := time.NewTicker(autoModeTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.autoTick()
		}
	}
}

func (s *Server) autoTick() {
	s.cfgMu.Lock()
	if !s.cfg.Auto {
		s.cfgMu.Unlock()
		return
	}
	due := time.Now().After(s.autoStartTime.Add(s.cfg.SlotTime * time.Duration(s.autoProcessed)))
	if !due {
		s.cfgMu.Unlock()
		return
	}
	useRandom := s.autoRng.Float64() < float64(s.cfg.FailureRate)
	s.autoProcessed++
	s.cfgMu.Unlock()

	s.mu.Lock()
	// Process the simulator's next slot, so each due tick advances it by one.
	target := s.sim.Slot()
	var err error
	if useRandom {
		err = s.sim.ProcessSlotsRandom(target)
	} else {
		err = s.sim.ProcessSlotsHappy(target)
	}
	s.mu.Unlock()

	if err != nil {
		logger.Warn("auto mode slot processing failed", "target", target, "error", err)
	}
}

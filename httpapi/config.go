package httpapi

import "time"

// Config is the runtime-overlayable auto-mode configuration, guarded by its
// own mutex independent of the simulator's (spec: "a second [guard] over
// the auto-mode config").
type Config struct {
	Auto        bool          `json:"auto"`
	SlotTime    time.Duration `json:"-"`
	FailureRate float32       `json:"failure_rate"`
}

// configJSON is the wire representation: slot_time is seconds on the wire,
// time.Duration internally.
type configJSON struct {
	Auto        bool    `json:"auto"`
	SlotTime    uint64  `json:"slot_time"`
	FailureRate float32 `json:"failure_rate"`
}

func (c Config) toJSON() configJSON {
	return configJSON{
		Auto:        c.Auto,
		SlotTime:    uint64(c.SlotTime / time.Second),
		FailureRate: c.FailureRate,
	}
}

// configUpdate is the partial overlay accepted by POST /config; nil fields
// are left unchanged.
type configUpdate struct {
	Auto        *bool    `json:"auto"`
	SlotTime    *uint64  `json:"slot_time"`
	FailureRate *float32 `json:"failure_rate"`
}

// DefaultConfig returns the configuration a freshly started service uses
// before any /config overlay or CLI flag is applied.
func DefaultConfig() Config {
	return Config{
		Auto:        false,
		SlotTime:    12 * time.Second,
		FailureRate: 0,
	}
}

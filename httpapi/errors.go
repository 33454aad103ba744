package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eth2030/shardsim/simerr"
)

// errorResponse is the JSON body written for every non-2xx response the
// core's typed errors map to.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v as the response body with a 200 status.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps a core error to its HTTP status and JSON body. Errors not
// recognized by the taxonomy are unclassified bugs: logged and surfaced as
// 500.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error("unclassified error", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Code: code, Message: err.Error()})
}

func classify(err error) (int, string) {
	var slotPast *simerr.SlotPastSlot
	var bidPast *simerr.BidPastSlot
	var tooLarge *simerr.BidTooLargeData
	var invalidCommitment *simerr.BidInvalidCommitment
	var invalidShard *simerr.BidInvalidShard
	var invalidFailureRate *simerr.ConfigInvalidFailureRate

	switch {
	case errors.As(err, &slotPast):
		return http.StatusBadRequest, "past_slot"
	case errors.As(err, &bidPast):
		return http.StatusBadRequest, "past_slot"
	case errors.As(err, &tooLarge):
		return http.StatusBadRequest, "too_large_data"
	case errors.As(err, &invalidCommitment):
		return http.StatusBadRequest, "invalid_commitment"
	case errors.As(err, &invalidShard):
		return http.StatusBadRequest, "invalid_shard"
	case errors.As(err, &invalidFailureRate):
		return http.StatusBadRequest, "invalid_failure_rate"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

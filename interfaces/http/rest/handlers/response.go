package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"
	"github.com/mark-henry/mhnodalnetwork/pkg/utils"
)

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body into dst and runs its validate tags.
func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return pkgerrors.NewValidationError("Invalid request body").WithCause(err)
	}
	return utils.ValidateStruct(dst)
}

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// empty is the body of successful writes that return nothing.
var empty = struct{}{}

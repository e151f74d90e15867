package render

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/omni/pds-gateway/logging"
)

type ErrorResponse struct {
	ErrorMsg string `json:"error_msg"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, res interface{}) {
	var (
		blob []byte
		err  error
	)
	if pretty, _ := strconv.ParseBool(r.URL.Query().Get("pretty")); pretty {
		blob, err = json.MarshalIndent(res, "", "  ")
	} else {
		blob, err = json.Marshal(res)
	}
	if err != nil {
		Error(w, r, fmt.Errorf("failed to marshal JSON result: %w", err))
		return
	}
	RawJSON(w, status, blob)
}

// RawJSON writes an already encoded JSON body.
func RawJSON(w http.ResponseWriter, status int, blob []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(blob)
	_, _ = w.Write([]byte("\n"))
}

// ErrorMessage writes a {"error_msg": ...} body with the given status.
func ErrorMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	JSON(w, r, status, &ErrorResponse{ErrorMsg: msg})
}

func Error(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.LoggerFromContext(r.Context())
	logger.WithError(err).Error("request handling failed")
	blob, _ := json.Marshal(&ErrorResponse{ErrorMsg: err.Error()})
	RawJSON(w, http.StatusInternalServerError, blob)
}

// Package handlers holds the HTTP handlers of the analysis API.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// DefaultMaxBodyBytes caps JSON and upload bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 10 << 20

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeAppError renders err with the status mapped from its code. Errors
// without a code, and 5xx other than 501, are masked behind the default message.
func writeAppError(w http.ResponseWriter, log logging.Logger, err error) {
	var ae *errors.AppError
	if !errors.As(err, &ae) {
		log.Error("unhandled error", logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    string(errors.ErrCodeInternal),
			Message: errors.DefaultMessageForCode(errors.ErrCodeInternal),
		})
		return
	}

	status := errors.HTTPStatusForCode(ae.Code)
	resp := ErrorResponse{Code: string(ae.Code), Message: ae.Message, Detail: ae.Detail}
	if errors.MasksMessage(ae.Code) {
		log.Error("request failed", logging.String("code", string(ae.Code)), logging.Err(err))
		resp.Message = errors.DefaultMessageForCode(ae.Code)
		resp.Detail = ""
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads at most limit bytes of r's body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst interface{}) error {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.Newf(errors.ErrCodeBadRequest, "request body exceeds %d bytes", limit)
		}
		if err == io.EOF {
			return errors.InvalidParam("request body is empty")
		}
		return errors.Wrap(err, errors.ErrCodeSerialization, "malformed JSON body").WithDetail(err.Error())
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.InvalidParam(key + " must be an integer")
	}
	return n, nil
}

// queryFloat parses an optional float query parameter; absent yields nil.
func queryFloat(r *http.Request, key string) (*float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, errors.InvalidParam(key + " must be a number")
	}
	return &f, nil
}

//Personal.AI order the ending

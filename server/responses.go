package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/jrsteele09/ha-memory-server/internal/errors"
	"github.com/jrsteele09/ha-memory-server/oauthmodel"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var errTrailingData = errors.New("unexpected data after JSON object")

// decodeJSONBody reads exactly one JSON value from the request body.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errTrailingData
	}
	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

// writeOAuthError renders an oauthmodel.Error as-is. Anything else is a server error.
func writeOAuthError(w http.ResponseWriter, err error) {
	var oauthErr *oauthmodel.Error
	if !apperrors.As(err, &oauthErr) {
		writeAppError(w, err)
		return
	}
	if oauthErr.Status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("OAuth request failed")
	}
	writeJSONError(w, oauthErr.Code, oauthErr.Description, oauthErr.Status)
}

// writeAppError maps a domain error chain onto a status and error code. Details
// of internal failures stay in the log.
func writeAppError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	description := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
		description = "internal server error"
	}
	writeJSONError(w, apperrors.Code(err), description, status)
}

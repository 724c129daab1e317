package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"ev-route-service/internal/api/dto"
	"ev-route-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("encode response failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Code: code, Message: msg})
}

// StatusForCode maps a stable error code to its HTTP status.
func StatusForCode(code string) int {
	switch code {
	case domain.CodeInvalidInput:
		return http.StatusBadRequest
	case domain.CodeInfeasible, domain.CodeUnreachableOrigin, domain.CodeUnreachableDestination:
		return http.StatusUnprocessableEntity
	case domain.CodeProviderUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError renders err with its stable code. Internal failures are
// logged and returned with a generic message.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := StatusForCode(code)

	res := dto.ErrorResponse{Code: code, Message: err.Error()}

	var ie *domain.InfeasibleError
	if errors.As(err, &ie) {
		blocking, exhausted := ie.BlockingDistanceKm(), ie.ExhaustedAtKm()
		res.BlockingDistanceKm = &blocking
		res.ExhaustedAtKm = &exhausted
	}

	log := zerolog.Ctx(r.Context())
	switch {
	case code == domain.CodeInternal:
		log.Error().Err(err).Msg("request failed")
		res.Message = "internal server error"
	case status >= http.StatusInternalServerError:
		log.Error().Err(err).Str("code", code).Msg("request failed")
	default:
		log.Info().Err(err).Str("code", code).Msg("request rejected")
	}

	writeJSON(w, r, status, res)
}

// decodeJSON reads exactly one JSON object and rejects unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

// MethodNotAllowed answers requests whose path matched but method did not.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, domain.CodeInvalidInput, "method not allowed")
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "NOT_FOUND", "not found")
}

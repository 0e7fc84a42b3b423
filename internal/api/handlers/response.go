package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
	"github.com/zatekoja/erbedfinder/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/erbedfinder/backend/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an application error onto a status code
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, messageOf(err))
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, messageOf(err))
	case apperrors.ErrorTypeConflict:
		respondWithError(w, http.StatusConflict, messageOf(err))
	default:
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("Request failed")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func messageOf(err error) string {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.Message
	}
	return err.Error()
}

// parseCoordinate reads an optional lat/lon pair. Both or neither must be given.
func parseCoordinate(r *http.Request) (*entities.Coordinate, error) {
	latStr := strings.TrimSpace(r.URL.Query().Get("lat"))
	lonStr := strings.TrimSpace(r.URL.Query().Get("lon"))
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, apperrors.NewValidationError("lat and lon must be given together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || !(lat >= -90 && lat <= 90) {
		return nil, apperrors.NewValidationError("invalid lat parameter")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || !(lon >= -180 && lon <= 180) {
		return nil, apperrors.NewValidationError("invalid lon parameter")
	}
	return &entities.Coordinate{Latitude: lat, Longitude: lon}, nil
}

// clientIP returns the first forwarded address, falling back to the peer address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

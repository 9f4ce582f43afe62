package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"codeberg.org/mutker/trendalarm/internal/audit"
	"codeberg.org/mutker/trendalarm/internal/errors"
	"codeberg.org/mutker/trendalarm/internal/logger"
)

// ForecastPath is where ForecastHandler is mounted
const ForecastPath = "/forecast"

// Forecaster evaluates one device on demand
type Forecaster interface {
	Forecast(ctx context.Context, deviceID string, windowDays int) (audit.Result, error)
}

type forecastHandler struct {
	forecaster  Forecaster
	defaultDays int
	log         logger.Logger
}

// ForecastHandler serves GET /forecast?device=<id>&weeks=<n> and answers
// with the per-variable result as JSON. weeks defaults to defaultDays/7.
func ForecastHandler(f Forecaster, defaultDays int) http.Handler {
	return &forecastHandler{
		forecaster:  f,
		defaultDays: defaultDays,
		log:         logger.Default(),
	}
}

func (h *forecastHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query()
	deviceID := query.Get("device")
	if deviceID == "" {
		deviceID = query.Get("device_name")
	}
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, "device parameter is required")
		return
	}

	days := h.defaultDays
	if weeks := query.Get("weeks"); weeks != "" {
		n, err := strconv.Atoi(weeks)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "weeks must be a positive integer")
			return
		}
		days = n * 7
	}

	result, err := h.forecaster.Forecast(r.Context(), deviceID, days)
	if err != nil {
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			h.log.Warn().Err(err).Str("device", deviceID).Msg("On-demand forecast failed")
		}
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.log.Warn().Err(err).Str("device", deviceID).Msg("Failed to write forecast response")
	}
}

func statusOf(err error) int {
	switch {
	case errors.HasCode(err, errors.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.HasCode(err, errors.ErrDeviceNotFound):
		return http.StatusNotFound
	case errors.IsDataError(err):
		return http.StatusUnprocessableEntity
	case errors.HasCode(err, errors.ErrCatalogUnavailable), errors.HasCode(err, errors.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

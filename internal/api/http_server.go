package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"easydrive/internal/config"
	"easydrive/internal/domain"
	"easydrive/internal/events"
	"easydrive/internal/export"
	"easydrive/internal/metrics"
	"easydrive/internal/reservation"

	"github.com/rs/zerolog"
)

var errRateLimited = errors.New("rate limit exceeded")

// HTTPServer exposes the reservation API.
type HTTPServer struct {
	cfg      config.APIConfig
	svc      *reservation.Service
	cars     domain.CarStore
	accounts domain.AccountStore
	bus      *events.EventBus
	reports  *export.Service
	identity *Identity
	logger   *zerolog.Logger
	server   *http.Server
}

func NewHTTPServer(
	cfg config.APIConfig,
	svc *reservation.Service,
	cars domain.CarStore,
	accounts domain.AccountStore,
	bus *events.EventBus,
	reports *export.Service,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		svc:      svc,
		cars:     cars,
		accounts: accounts,
		bus:      bus,
		reports:  reports,
		identity: NewIdentity(cfg),
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/reservations", srv.handleReservations)
	mux.HandleFunc("/api/v1/reservations/", srv.handleReservation)
	mux.HandleFunc("/api/v1/accounts/events", srv.handleAccountEvent)
	mux.HandleFunc("/api/v1/cars", srv.handleCars)
	mux.HandleFunc("/api/v1/cars/", srv.handleCar)
	mux.HandleFunc("/api/v1/reports/reservations.xlsx", srv.handleReport)

	handler := srv.loggingMiddleware(srv.identity.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the fully wrapped handler, used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("dur", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain error kinds onto HTTP statuses. Authorization
// failures on a specific record deliberately do not reveal whether it exists.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reservation.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, reservation.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, reservation.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, reservation.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

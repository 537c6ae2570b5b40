// Package server exposes the partitioner over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/piwi3910/LotiSmart/internal/export"
	"github.com/piwi3910/LotiSmart/internal/importer"
	"github.com/piwi3910/LotiSmart/internal/logger"
	"github.com/piwi3910/LotiSmart/internal/metrics"
	"github.com/piwi3910/LotiSmart/internal/model"
	"github.com/piwi3910/LotiSmart/internal/service"
)

// maxBodyBytes caps the GeoJSON request body.
const maxBodyBytes = 16 << 20

// Server serves the partition API.
type Server struct {
	svc *service.Service
}

func New(svc *service.Service) *Server {
	return &Server{svc: svc}
}

type errorBody struct {
	Error    string   `json:"error"`
	Details  []string `json:"details,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Routes builds the mux: POST /api/partition, GET /api/history, GET /healthz
// and GET /metrics, wrapped in the access log middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/partition", s.handlePartition)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", metrics.Handler())
	return logger.AccessMiddleware(logger.L())(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("server_listen", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.L().Info("server_shutdown")
		return srv.Shutdown(shutdownCtx)
	}
}

// handlePartition reads a GeoJSON parcel and answers with a FeatureCollection
// of lots. Query parameters: min_area, containment, source.
func (s *Server) handlePartition(w http.ResponseWriter, r *http.Request) {
	settings := s.svc.Settings()
	q := r.URL.Query()

	if v := q.Get("min_area"); v != "" {
		area, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid min_area %q", v)})
			return
		}
		settings.MinArea = area
	}
	if v := q.Get("containment"); v != "" {
		policy, err := model.ParseContainmentPolicy(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		settings.Containment = policy
	}
	source := q.Get("source")
	if source == "" {
		source = "api"
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large"})
		return
	}

	imported := importer.DecodeGeoJSON(body)
	if !imported.OK() {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:    "could not read parcel geometry",
			Details:  imported.Errors,
			Warnings: imported.Warnings,
		})
		return
	}
	for i := range imported.Regions {
		if imported.Regions[i].CRS == "" {
			imported.Regions[i].CRS = imported.CRS
		}
	}

	res, err := s.svc.Partition(r.Context(), source, imported.Regions, settings)
	if err != nil && !errors.Is(err, service.ErrHistory) {
		writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
		return
	}

	data, encErr := export.EncodeGeoJSON(res.Lots)
	if encErr != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: encErr.Error()})
		return
	}

	h := w.Header()
	h.Set("content-type", "application/geo+json")
	h.Set("cache-control", "no-store")
	h.Set("X-Run-Id", res.Record.ID)
	h.Set("X-Lot-Count", strconv.Itoa(res.Lots.Len()))
	h.Set("X-Lot-Side", strconv.FormatFloat(res.Lots.Side, 'f', -1, 64))
	if err != nil {
		h.Set("X-History-Warning", err.Error())
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	runs, err := s.svc.Runs(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	if runs == nil {
		runs = []model.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidParameter), errors.Is(err, model.ErrInvalidGeometry), errors.Is(err, model.ErrCRSMismatch):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Package main implements a mock plant monitoring API for local development.
// It serves simulated zone, TMS and forecast data in the shapes the
// effluent-watch upstream client reads.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/donaldgifford/effluent-watch/internal/upstream"
)

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	seed := flag.Uint64("seed", 0, "random seed (0 picks one at startup)")
	zones := flag.Int("zones", 5, "number of treatment zones")
	noForecast := flag.Bool("no-forecast", false, "answer the forecast endpoint with 503")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	opts := []upstream.SimulatorOption{upstream.WithZoneCount(*zones)}
	if *seed != 0 {
		opts = append(opts, upstream.WithSeed(*seed))
	}
	sim := upstream.NewSimulator(opts...)

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock plant server", "addr", addr, "zones", *zones)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, newMux(logger, sim, *noForecast)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newMux(logger *slog.Logger, sim *upstream.Simulator, noForecast bool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+upstream.ProcessStatusPath, processStatusHandler(logger, sim))
	mux.HandleFunc("GET "+upstream.ZoneDataPath, zoneDataHandler(logger, sim))
	mux.HandleFunc("GET "+upstream.TMSPath, tmsHandler(logger, sim))
	if noForecast {
		mux.HandleFunc("GET "+upstream.ForecastPath, unavailableHandler(logger))
	} else {
		mux.HandleFunc("GET "+upstream.ForecastPath, forecastHandler(logger, sim))
	}
	return mux
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

func processStatusHandler(logger *slog.Logger, sim *upstream.Simulator) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := sim.ProcessStatus(time.Now())
		writeJSON(w, http.StatusOK, resp)
		logger.Info("process status", "inflow", resp.Inflow.Total, "effluent", resp.Effluent.Total)
	}
}

func zoneDataHandler(logger *slog.Logger, sim *upstream.Simulator) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := sim.ZoneData(time.Now())
		writeJSON(w, http.StatusOK, resp)
		logger.Info("zone data", "zones", len(resp.Zones))
	}
}

func tmsHandler(logger *slog.Logger, sim *upstream.Simulator) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := sim.TMS(time.Now())
		writeJSON(w, http.StatusOK, resp)
		logger.Info("tms", "parameters", len(resp.Parameters))
	}
}

func forecastHandler(logger *slog.Logger, sim *upstream.Simulator) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := sim.Forecast(time.Now())
		writeJSON(w, http.StatusOK, resp)
		logger.Info("forecast", "predictions", len(resp.Predictions), "forecast_time", resp.ForecastTime)
	}
}

func unavailableHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("forecast disabled", "path", r.URL.Path)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"detail": "prediction model offline",
		})
	}
}

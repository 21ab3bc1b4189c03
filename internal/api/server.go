// Package api exposes the engine over HTTP with gorilla/mux.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Veraticus/spice-forecast/internal/engine"
	"github.com/Veraticus/spice-forecast/internal/forecast"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/service"
	"github.com/Veraticus/spice-forecast/internal/simulation"
)

// Backend is the subset of *engine.Engine the handlers call.
type Backend interface {
	ProcessTransaction(ctx context.Context, txn model.Transaction) (*engine.ProcessResult, error)
	ProcessTransactions(ctx context.Context, txns []model.Transaction, progress func()) (engine.BatchSummary, error)
	GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error)
	RecategorizeTransaction(ctx context.Context, userID int64, id string) (*model.Transaction, error)
	GetBehaviorModel(ctx context.Context, userID int64) (*model.BehaviorModel, error)
	SimulateSpendingScenario(ctx context.Context, userID int64, req simulation.ScenarioRequest, refine bool) (*engine.ScenarioOutcome, error)
	CompareScenarios(ctx context.Context, userID int64, req simulation.CompareRequest, refine bool) (*engine.ComparisonOutcome, error)
	SimulateReallocation(ctx context.Context, userID int64, req simulation.ReallocationRequest) (*simulation.ReallocationResult, error)
	ProjectFutureSpending(ctx context.Context, userID int64, req simulation.ProjectionRequest) (*simulation.ProjectionResult, error)
	GetCompleteLeanAnalysis(ctx context.Context, userID int64, currentBalance float64) (*forecast.CompleteAnalysis, error)
	IncomeInsights(ctx context.Context, userID int64) (*engine.IncomeInsights, error)
}

// Server serves the JSON API.
type Server struct {
	backend Backend
	logger  *slog.Logger
	router  *mux.Router
}

// NewServer creates a Server and registers its routes.
func NewServer(backend Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		backend: backend,
		logger:  logger,
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.requestID, s.recoverPanic, s.logRequests)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	users := r.PathPrefix("/users/{id:[0-9]+}").Subrouter()
	users.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	users.HandleFunc("/transactions/bulk", s.handleBulkTransactions).Methods(http.MethodPost)
	users.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	users.HandleFunc("/transactions/{txn_id}/recategorize", s.handleRecategorize).Methods(http.MethodPost)
	users.HandleFunc("/behavior-model", s.handleBehaviorModel).Methods(http.MethodGet)
	users.HandleFunc("/simulations/scenario", s.handleScenario).Methods(http.MethodPost)
	users.HandleFunc("/simulations/compare", s.handleCompare).Methods(http.MethodPost)
	users.HandleFunc("/simulations/reallocate", s.handleReallocate).Methods(http.MethodPost)
	users.HandleFunc("/simulations/project", s.handleProject).Methods(http.MethodPost)
	users.HandleFunc("/lean-analysis", s.handleLeanAnalysis).Methods(http.MethodGet)
	users.HandleFunc("/income-insights", s.handleIncomeInsights).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer wraps the handler with the timeouts used in production.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := s.HTTPServer(addr)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

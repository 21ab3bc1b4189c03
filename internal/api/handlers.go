package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/engine"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/service"
	"github.com/Veraticus/spice-forecast/internal/simulation"
)

const maxBulkTransactions = 1000

// TransactionRequest is the body of a transaction ingestion call.
type TransactionRequest struct {
	Timestamp time.Time             `json:"timestamp"`
	Merchant  string                `json:"merchant"`
	Category  string                `json:"category,omitempty"`
	RawText   string                `json:"raw_text,omitempty"`
	AccountID string                `json:"account_id,omitempty"`
	Type      model.TransactionType `json:"type"`
	Amount    float64               `json:"amount"`
}

func (req TransactionRequest) toTransaction(userID int64) model.Transaction {
	return model.Transaction{
		UserID:    userID,
		Timestamp: req.Timestamp,
		Merchant:  req.Merchant,
		Category:  req.Category,
		RawText:   req.RawText,
		AccountID: req.AccountID,
		Type:      req.Type,
		Amount:    req.Amount,
	}
}

func userID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.Validationf("user id must be a positive integer, got %q", raw)
	}
	return id, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}

	res, err := s.backend.ProcessTransaction(r.Context(), req.toTransaction(uid))
	if err != nil {
		fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (s *Server) handleBulkTransactions(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var reqs []TransactionRequest
	if err := decodeJSON(w, r, &reqs); err != nil {
		fail(w, r, err)
		return
	}
	if len(reqs) == 0 || len(reqs) > maxBulkTransactions {
		fail(w, r, common.Validationf("bulk requests take 1 to %d transactions, got %d", maxBulkTransactions, len(reqs)))
		return
	}

	txns := make([]model.Transaction, len(reqs))
	for i, req := range reqs {
		txns[i] = req.toTransaction(uid)
	}
	summary, err := s.backend.ProcessTransactions(r.Context(), txns, nil)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleListTransactions accepts optional start and end (RFC 3339) plus
// limit and offset query parameters.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	filter := service.TransactionFilter{UserID: uid}
	q := r.URL.Query()
	for name, dst := range map[string]**time.Time{"start": &filter.StartDate, "end": &filter.EndDate} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fail(w, r, common.Validationf("%s must be an RFC 3339 timestamp, got %q", name, raw))
			return
		}
		*dst = &ts
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			fail(w, r, common.Validationf("%s must be an integer, got %q", name, raw))
			return
		}
		*dst = n
	}

	txns, err := s.backend.GetTransactions(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleRecategorize(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	txn, err := s.backend.RecategorizeTransaction(r.Context(), uid, mux.Vars(r)["txn_id"])
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (s *Server) handleBehaviorModel(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	m, err := s.backend.GetBehaviorModel(r.Context(), uid)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// simulationCall decodes a request body over defaults and runs fn with the
// user ID and the refine query flag. Fields the body omits keep their
// default; fields it sets explicitly, zero included, win.
func simulationCall[Req any, Resp any](w http.ResponseWriter, r *http.Request, defaults Req, fn func(uid int64, req Req, refine bool) (Resp, error)) {
	uid, err := userID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	refine, err := parseBool(r.URL.Query().Get("refine"))
	if err != nil {
		fail(w, r, err)
		return
	}
	req := defaults
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	resp, err := fn(uid, req, refine)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	simulationCall(w, r, simulation.DefaultScenarioRequest(), func(uid int64, req simulation.ScenarioRequest, refine bool) (*engine.ScenarioOutcome, error) {
		return s.backend.SimulateSpendingScenario(r.Context(), uid, req, refine)
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	simulationCall(w, r, simulation.DefaultCompareRequest(), func(uid int64, req simulation.CompareRequest, refine bool) (*engine.ComparisonOutcome, error) {
		return s.backend.CompareScenarios(r.Context(), uid, req, refine)
	})
}

func (s *Server) handleReallocate(w http.ResponseWriter, r *http.Request) {
	simulationCall(w, r, simulation.DefaultReallocationRequest(), func(uid int64, req simulation.ReallocationRequest, _ bool) (*simulation.ReallocationResult, error) {
		return s.backend.SimulateReallocation(r.Context(), uid, req)
	})
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	simulationCall(w, r, simulation.DefaultProjectionRequest(), func(uid int64, req simulation.ProjectionRequest, _ bool) (*simulation.ProjectionResult, error) {
		return s.backend.ProjectFutureSpending(r.Context(), uid, req)
	})
}

func (s *Server) handleLeanAnalysis(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	balance := 0.0
	if raw := r.URL.Query().Get("current_balance"); raw != "" {
		balance, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			fail(w, r, common.Validationf("current_balance must be a number, got %q", raw))
			return
		}
	}

	analysis, err := s.backend.GetCompleteLeanAnalysis(r.Context(), uid, balance)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleIncomeInsights(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	insights, err := s.backend.IncomeInsights(r.Context(), uid)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

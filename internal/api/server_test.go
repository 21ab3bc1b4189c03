package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-forecast/internal/behavior"
	"github.com/Veraticus/spice-forecast/internal/engine"
	"github.com/Veraticus/spice-forecast/internal/forecast"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/service"
	"github.com/Veraticus/spice-forecast/internal/simulation"
	"github.com/Veraticus/spice-forecast/internal/testutil"
)

var testNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *testutil.TestDB) {
	t.Helper()
	return newTestServerWithCategorizer(t, nil)
}

func newTestServerWithCategorizer(t *testing.T, categorizer service.Categorizer) (*Server, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	clock := func() time.Time { return testNow }
	updater := behavior.NewUpdater(categorizer, behavior.DefaultConfig(), behavior.WithClock(clock))
	eng := engine.New(db.Storage, updater, nil, nil, nil, engine.WithClock(clock))
	return NewServer(eng, nil), db
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func seed(t *testing.T, h http.Handler) {
	t.Helper()
	start := testNow.AddDate(0, -3, 0)
	var reqs []TransactionRequest
	for m := 0; m < 3; m++ {
		month := start.AddDate(0, m, 0)
		reqs = append(reqs,
			TransactionRequest{Timestamp: month, Merchant: "Landlord", Category: model.CategoryHousing, Type: model.TypeDebit, Amount: 1500},
			TransactionRequest{Timestamp: month.AddDate(0, 0, 3), Merchant: "Blue Door Bistro", Category: model.CategoryDining, Type: model.TypeDebit, Amount: float64(250 + 50*m)},
			TransactionRequest{Timestamp: month.AddDate(0, 0, 5), Merchant: "Trader Joe's", Category: model.CategoryGroceries, Type: model.TypeDebit, Amount: 400},
			TransactionRequest{Timestamp: month.AddDate(0, 0, 1), Merchant: "Acme Consulting", Type: model.TypeCredit, Amount: float64(3000 + 1000*m)},
		)
	}
	rec := do(t, h, http.MethodPost, "/users/1/transactions/bulk", reqs)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, engine.BatchSummary{Processed: 12}, decode[engine.BatchSummary](t, rec))
}

func TestServer_CreateTransaction(t *testing.T) {
	srv, db := newTestServer(t)

	body := TransactionRequest{
		Timestamp: testNow.Add(-time.Hour),
		Merchant:  "Corner Cafe",
		Category:  "dining",
		Type:      model.TypeDebit,
		Amount:    8.5,
	}
	rec := do(t, srv, http.MethodPost, "/users/7/transactions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	res := decode[engine.ProcessResult](t, rec)
	assert.False(t, res.Duplicate)
	assert.Equal(t, 1, res.TransactionCount)
	assert.Equal(t, int64(7), res.Transaction.UserID)
	assert.Equal(t, model.CategoryDining, res.Transaction.Category)
	assert.NotEmpty(t, res.Transaction.ID)

	// Replaying the same transaction is reported, not re-applied.
	rec = do(t, srv, http.MethodPost, "/users/7/transactions", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[engine.ProcessResult](t, rec).Duplicate)

	assert.Equal(t, 1, db.MustLoadModel(7).TransactionCount)
}

func TestServer_CreateTransactionErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
	}{
		{name: "negative amount", path: "/users/1/transactions", body: TransactionRequest{Merchant: "x", Type: model.TypeDebit, Amount: -4}, wantStatus: http.StatusBadRequest},
		{name: "bad type", path: "/users/1/transactions", body: TransactionRequest{Merchant: "x", Type: "refund", Amount: 4}, wantStatus: http.StatusBadRequest},
		{name: "zero user", path: "/users/0/transactions", body: TransactionRequest{Merchant: "x", Type: model.TypeDebit, Amount: 4}, wantStatus: http.StatusBadRequest},
		{name: "malformed JSON", path: "/users/1/transactions", body: "{", wantStatus: http.StatusBadRequest},
		{name: "empty body", path: "/users/1/transactions", body: nil, wantStatus: http.StatusBadRequest},
		{name: "unknown field", path: "/users/1/transactions", body: `{"merchant":"x","type":"debit","amount":1,"tip":2}`, wantStatus: http.StatusBadRequest},
		{name: "non-numeric user", path: "/users/abc/transactions", body: TransactionRequest{}, wantStatus: http.StatusNotFound},
		{name: "empty bulk", path: "/users/1/transactions/bulk", body: []TransactionRequest{}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestServer_RequestID(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	require.NoError(t, err, "a fresh UUID is assigned")

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/users/5/behavior-model", nil)
	req.Header.Set(RequestIDHeader, id)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, id, decode[ErrorResponse](t, rec).RequestID)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}

func TestServer_ListTransactions(t *testing.T) {
	srv, _ := newTestServer(t)
	seed(t, srv)

	rec := do(t, srv, http.MethodGet, "/users/1/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Transaction](t, rec), 12)

	rec = do(t, srv, http.MethodGet, "/users/1/transactions?limit=2&offset=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Transaction](t, rec), 2)

	start := testNow.AddDate(0, -1, 0).Format(time.RFC3339)
	rec = do(t, srv, http.MethodGet, "/users/1/transactions?start="+start, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, txn := range decode[[]model.Transaction](t, rec) {
		assert.False(t, txn.Timestamp.Before(testNow.AddDate(0, -1, 0)))
	}

	rec = do(t, srv, http.MethodGet, "/users/2/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	for _, q := range []string{"start=yesterday", "limit=ten", "limit=-1"} {
		rec = do(t, srv, http.MethodGet, "/users/1/transactions?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestServer_BehaviorModel(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/users/1/behavior-model", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	seed(t, srv)
	rec = do(t, srv, http.MethodGet, "/users/1/behavior-model", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode[model.BehaviorModel](t, rec)
	assert.Equal(t, 12, m.TransactionCount)
	assert.Contains(t, m.CategoryStats, model.CategoryDining)
	require.NotNil(t, m.IncomeStats)
}

func TestServer_Simulations(t *testing.T) {
	srv, _ := newTestServer(t)
	seed(t, srv)

	rec := do(t, srv, http.MethodPost, "/users/1/simulations/scenario", simulation.ScenarioRequest{
		Type: simulation.ScenarioReduction, TargetPercent: 15, PeriodDays: 90,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sim := decode[simulation.SimulationResult](t, rec)
	assert.Equal(t, simulation.ScenarioReduction, sim.ScenarioType)
	assert.Positive(t, sim.BaselineMonthly)

	rec = do(t, srv, http.MethodPost, "/users/1/simulations/compare", simulation.CompareRequest{
		Type: simulation.ScenarioReduction, PeriodDays: 90, NumScenarios: 3,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[simulation.ComparisonResult](t, rec).Scenarios, 3)

	rec = do(t, srv, http.MethodPost, "/users/1/simulations/reallocate", simulation.ReallocationRequest{
		Reallocations: map[string]float64{model.CategoryDining: -40, model.CategoryGroceries: 40},
		PeriodDays:    90,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[simulation.ReallocationResult](t, rec).IsBalanced)

	rec = do(t, srv, http.MethodPost, "/users/1/simulations/project", simulation.ProjectionRequest{
		BehavioralChanges: map[string]float64{model.CategoryDining: -20},
		Months:            4,
		PeriodDays:        90,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[simulation.ProjectionResult](t, rec).MonthlyProjections, 4)
}

func TestServer_SimulationDefaults(t *testing.T) {
	srv, _ := newTestServer(t)
	seed(t, srv)

	rec := do(t, srv, http.MethodPost, "/users/1/simulations/scenario", `{"target_percent":10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sim := decode[simulation.SimulationResult](t, rec)
	assert.Equal(t, simulation.ScenarioReduction, sim.ScenarioType)
	assert.Equal(t, simulation.DefaultPeriodDays, sim.PeriodDays)

	rec = do(t, srv, http.MethodPost, "/users/1/simulations/compare", `{}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cmp := decode[simulation.ComparisonResult](t, rec)
	assert.Len(t, cmp.Scenarios, simulation.DefaultNumScenarios)
	assert.Equal(t, simulation.ScenarioReduction, cmp.ScenarioType)
	assert.Equal(t, simulation.DefaultPeriodDays, cmp.PeriodDays)

	rec = do(t, srv, http.MethodPost, "/users/1/simulations/reallocate", `{"reallocations":{"DINING":-40,"GROCERIES":40}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/users/1/simulations/project", `{"projection_months":2,"behavioral_changes":{"PETS":10}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	proj := decode[simulation.ProjectionResult](t, rec)
	assert.Len(t, proj.MonthlyProjections, 2)
	assert.Equal(t, []string{"PETS"}, proj.IgnoredCategories)

	// projection_months has no default and explicit zeros are not replaced.
	for path, body := range map[string]string{
		"/users/1/simulations/project":  `{}`,
		"/users/1/simulations/scenario": `{"target_percent":10,"time_period_days":0}`,
		"/users/1/simulations/compare":  `{"num_scenarios":0}`,
	} {
		rec = do(t, srv, http.MethodPost, path, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path+" "+body)
	}
}

func TestServer_RecategorizeTransaction(t *testing.T) {
	var answer string
	categorizer := categorizerFunc(func(context.Context, string, float64, string, model.TransactionType) (string, float64, error) {
		if answer == "" {
			return "", 0, errors.New("llm down")
		}
		return answer, 0.9, nil
	})
	srv, db := newTestServerWithCategorizer(t, categorizer)

	answer = model.CategoryDining
	rec := do(t, srv, http.MethodPost, "/users/1/transactions", TransactionRequest{
		Timestamp: testNow.Add(-time.Hour), Merchant: "Trader Joe's", Type: model.TypeDebit, Amount: 84.10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[engine.ProcessResult](t, rec).Transaction.ID

	answer = model.CategoryGroceries
	rec = do(t, srv, http.MethodPost, "/users/1/transactions/"+id+"/recategorize", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	txn := decode[model.Transaction](t, rec)
	assert.Equal(t, id, txn.ID)
	assert.Equal(t, model.CategoryGroceries, txn.Category)

	m := db.MustLoadModel(1)
	assert.Equal(t, 1, m.TransactionCount)
	assert.Contains(t, m.CategoryStats, model.CategoryGroceries)
	assert.NotContains(t, m.CategoryStats, model.CategoryDining)

	rec = do(t, srv, http.MethodPost, "/users/2/transactions/"+id+"/recategorize", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "another user's transaction")
	rec = do(t, srv, http.MethodPost, "/users/1/transactions/missing/recategorize", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	answer = ""
	rec = do(t, srv, http.MethodPost, "/users/1/transactions/"+id+"/recategorize", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decode[ErrorResponse](t, rec).Error)
}

func TestServer_SimulationErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/users/1/simulations/scenario", simulation.ScenarioRequest{
		Type: simulation.ScenarioReduction, TargetPercent: 10, PeriodDays: 30,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code, "no model yet")

	seed(t, srv)

	tests := []struct {
		name string
		path string
		body any
	}{
		{name: "bad scenario type", path: "/users/1/simulations/scenario", body: simulation.ScenarioRequest{Type: "sideways", TargetPercent: 10, PeriodDays: 30}},
		{name: "too many scenarios", path: "/users/1/simulations/compare", body: simulation.CompareRequest{Type: simulation.ScenarioIncrease, PeriodDays: 30, NumScenarios: 9}},
		{name: "unbalanced reallocation", path: "/users/1/simulations/reallocate", body: simulation.ReallocationRequest{Reallocations: map[string]float64{model.CategoryDining: -40}, PeriodDays: 30}},
		{name: "projection too long", path: "/users/1/simulations/project", body: simulation.ProjectionRequest{Months: 1000, PeriodDays: 30}},
		{name: "bad refine flag", path: "/users/1/simulations/scenario?refine=maybe", body: simulation.ScenarioRequest{Type: simulation.ScenarioReduction, TargetPercent: 10, PeriodDays: 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestServer_LeanAnalysis(t *testing.T) {
	srv, _ := newTestServer(t)
	seed(t, srv)

	rec := do(t, srv, http.MethodGet, "/users/1/lean-analysis?current_balance=2500", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	analysis := decode[forecast.CompleteAnalysis](t, rec)
	assert.NotEmpty(t, analysis.Summary.RiskLevel)
	assert.NotEmpty(t, analysis.CashFlowForecast.Forecasts)

	rec = do(t, srv, http.MethodGet, "/users/1/lean-analysis", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "balance defaults to zero")

	rec = do(t, srv, http.MethodGet, "/users/2/lean-analysis?current_balance=100", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no transaction history")
	assert.Contains(t, decode[ErrorResponse](t, rec).Error, "no transaction history for user 2")

	for _, q := range []string{"current_balance=lots", "current_balance=NaN"} {
		rec = do(t, srv, http.MethodGet, "/users/1/lean-analysis?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestServer_IncomeInsights(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/users/1/income-insights", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	seed(t, srv)
	rec = do(t, srv, http.MethodGet, "/users/1/income-insights", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	insights := decode[engine.IncomeInsights](t, rec)
	assert.Equal(t, 1, insights.Patterns.IncomeSources)
	require.NotNil(t, insights.LastIncomeDate)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodDelete, "/users/1/behavior-model", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type categorizerFunc func(ctx context.Context, merchant string, amount float64, rawText string, txnType model.TransactionType) (string, float64, error)

func (f categorizerFunc) Categorize(ctx context.Context, merchant string, amount float64, rawText string, txnType model.TransactionType) (string, float64, error) {
	return f(ctx, merchant, amount, rawText, txnType)
}

// panicBackend fails every call the way a broken dependency would.
type panicBackend struct{ Backend }

func (panicBackend) GetBehaviorModel(context.Context, int64) (*model.BehaviorModel, error) {
	panic("boom")
}

func (panicBackend) IncomeInsights(context.Context, int64) (*engine.IncomeInsights, error) {
	return nil, fmt.Errorf("query failed: %w", errors.New("disk I/O error"))
}

func TestServer_InternalErrors(t *testing.T) {
	srv := NewServer(panicBackend{}, nil)

	rec := do(t, srv, http.MethodGet, "/users/1/behavior-model", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, srv, http.MethodGet, "/users/1/income-insights", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decode[ErrorResponse](t, rec).Error, "detail is not leaked")
}

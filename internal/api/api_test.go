package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/punchamoorthee/tenderops/internal/domain"
	"github.com/punchamoorthee/tenderops/internal/events"
	"github.com/punchamoorthee/tenderops/internal/funds"
	"github.com/punchamoorthee/tenderops/internal/service"
	"github.com/punchamoorthee/tenderops/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminIdentity = "admin"

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

type env struct {
	router *mux.Router
	clock  *testClock
}

func newEnv(t *testing.T) *env {
	t.Helper()
	s := store.NewMemoryStore()
	clock := &testClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	sink := events.NewLogSink(64)
	gate := service.NewGate(adminIdentity, s)
	var mu sync.Mutex
	registry := service.NewRegistry(&mu, s, gate, clock, sink)
	ledger := service.NewLedger(&mu, s, gate, clock, sink)
	settlement := service.NewSettlement(&mu, s, gate, funds.NewLedgerTransfer(s), sink)
	h := NewHandler(registry, ledger, settlement, sink)
	return &env{router: NewRouter(h), clock: clock}
}

func (e *env) do(t *testing.T, method, path, identity string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if identity != "" {
		req.Header.Set("X-Identity", identity)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContractorRegistrationFlow(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, "POST", "/api/v1/contractors", "alice", map[string]string{"display_name": "Alice Ltd"})
	require.Equal(t, http.StatusCreated, rec.Code)
	c := decode[domain.Contractor](t, rec)
	assert.Equal(t, domain.ContractorPending, c.Status)

	// Duplicate registration conflicts.
	rec = e.do(t, "POST", "/api/v1/contractors", "alice", map[string]string{"display_name": "Alice Ltd"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Non-admin approval is forbidden.
	rec = e.do(t, "POST", "/api/v1/contractors/alice/approve", "alice", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, "POST", "/api/v1/contractors/alice/approve", adminIdentity, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	c = decode[domain.Contractor](t, rec)
	assert.Equal(t, domain.ContractorApproved, c.Status)

	rec = e.do(t, "GET", "/api/v1/contractors/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, "POST", "/api/v1/contractors", "", map[string]string{"display_name": "X"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, "POST", "/api/v1/contractors", "alice", map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// Drives the whole lifecycle through HTTP: register, approve, publish, bid,
// close, award, escrow, start, complete, pay.
func TestFullTenderLifecycle(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, "POST", "/api/v1/contractors", "alice", map[string]string{"display_name": "Alice Ltd"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = e.do(t, "POST", "/api/v1/contractors/alice/approve", adminIdentity, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, "POST", "/api/v1/contracts", adminIdentity, map[string]interface{}{
		"description":                     "bridge painting",
		"bid_deadline":                    e.clock.t.Add(time.Hour),
		"daily_penalty_rate_per_thousand": 10,
		"max_penalty_percent":             20,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	contract := decode[domain.Contract](t, rec)

	rec = e.do(t, "POST", "/api/v1/bids", "alice", map[string]int64{
		"contract_id": contract.ID, "amount": 1000, "duration_days": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	bid := decode[domain.Bid](t, rec)

	// Too early to close.
	rec = e.do(t, "POST", fmt.Sprintf("/api/v1/contracts/%d/close", contract.ID), adminIdentity, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	e.clock.t = e.clock.t.Add(2 * time.Hour)
	rec = e.do(t, "POST", fmt.Sprintf("/api/v1/contracts/%d/close", contract.ID), adminIdentity, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, "POST", fmt.Sprintf("/api/v1/bids/%d/award", bid.ID), adminIdentity, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, "POST", fmt.Sprintf("/api/v1/contracts/%d/escrow", contract.ID), adminIdentity, map[string]int64{"amount": 1000})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, "POST", fmt.Sprintf("/api/v1/contracts/%d/start", contract.ID), adminIdentity, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	e.clock.t = e.clock.t.Add(13 * 24 * time.Hour)
	rec = e.do(t, "POST", fmt.Sprintf("/api/v1/contracts/%d/complete", contract.ID), adminIdentity, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, "GET", fmt.Sprintf("/api/v1/contracts/%d/payment", contract.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	calc := decode[map[string]int64](t, rec)
	assert.Equal(t, int64(970), calc["payment"])

	rec = e.do(t, "POST", fmt.Sprintf("/api/v1/contracts/%d/pay", contract.ID), adminIdentity, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Second payment conflicts.
	rec = e.do(t, "POST", fmt.Sprintf("/api/v1/contracts/%d/pay", contract.ID), adminIdentity, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, "GET", "/api/v1/accounts/alice", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	acc := decode[map[string]interface{}](t, rec)
	assert.Equal(t, float64(970), acc["balance"])
}

func TestSubmitBidValidation(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, "POST", "/api/v1/bids", "alice", map[string]int64{
		"contract_id": 1, "amount": 0, "duration_days": 10,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.do(t, "POST", "/api/v1/bids", "alice", map[string]int64{
		"contract_id": 1, "amount": 100, "duration_days": -1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEventsFeed(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, "POST", "/api/v1/contractors", "alice", map[string]string{"display_name": "Alice Ltd"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = e.do(t, "POST", "/api/v1/contractors/alice/approve", adminIdentity, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, "GET", "/api/v1/events?limit=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	evs := decode[[]domain.Event](t, rec)
	require.Len(t, evs, 2)
	assert.Equal(t, "contractor.approved", evs[0].Kind)
	assert.Equal(t, "contractor.registered", evs[1].Kind)
}

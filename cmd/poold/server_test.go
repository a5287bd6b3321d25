package main

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shieldedpool/internal/pool"
	"shieldedpool/internal/statements/deposit"
	"shieldedpool/internal/statements/withdraw"
)

// acceptAllVerifier lets the HTTP tests exercise routing, wire decoding and
// error mapping without Groth16 setup.
type acceptAllVerifier struct{}

func (acceptAllVerifier) VerifyDeposit(*deposit.Tx) error   { return nil }
func (acceptAllVerifier) VerifyWithdraw(*withdraw.Tx) error { return nil }

func newTestServer(t *testing.T, depth int) (*Server, *pool.Ledger) {
	t.Helper()
	ledger := pool.NewLedger(depth, acceptAllVerifier{})
	health := NewHealthChecker("test")
	health.RegisterComponent("ledger-storage", nil)
	limiter := NewClientRateLimiter(1000, 1000, time.Second)
	ledgerPath := filepath.Join(t.TempDir(), "ledger.json")
	return NewServer(ledger, ledgerPath, health, limiter), ledger
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.RemoteAddr = "192.0.2.1:4242"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, handler http.Handler, path string, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "192.0.2.1:4242"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec
}

func testDepositRequest(t *testing.T, tree *pool.Tree, id, r int64) depositRequest {
	t.Helper()
	sec := &pool.Secret{Id: big.NewInt(id), R: big.NewInt(r)}
	cm := sec.Commitment()
	before, err := tree.AppendPath()
	require.NoError(t, err)
	index, err := tree.Insert(cm)
	require.NoError(t, err)
	return depositRequest{
		OldRoot:    before.Root.String(),
		NewRoot:    tree.Root().String(),
		Commitment: cm.String(),
		LeafIndex:  index,
		Proof:      []byte("stub"),
	}
}

func TestServerRootEndpoint(t *testing.T) {
	srv, ledger := newTestServer(t, 4)
	handler := srv.Handler()

	var resp struct {
		Root      string `json:"root"`
		NextIndex uint64 `json:"next_index"`
		Depth     int    `json:"depth"`
	}
	rec := getJSON(t, handler, "/root", &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, ledger.Root().String(), resp.Root)
	require.Equal(t, uint64(0), resp.NextIndex)
	require.Equal(t, 4, resp.Depth)
}

func TestServerDepositFlow(t *testing.T) {
	srv, ledger := newTestServer(t, 4)
	handler := srv.Handler()
	tree := pool.NewTree(4)

	req := testDepositRequest(t, tree, 1, 2)
	rec := postJSON(t, handler, "/deposit", req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uint64(1), ledger.NextIndex())

	// Resubmission races on a stale root; the error body marks it
	// retryable.
	rec = postJSON(t, handler, "/deposit", req)
	require.Equal(t, http.StatusConflict, rec.Code)
	var errResp struct {
		Code      string `json:"code"`
		Retryable bool   `json:"retryable"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	require.Equal(t, "stale_root", errResp.Code)
	require.True(t, errResp.Retryable)
}

func TestServerWithdrawFlow(t *testing.T) {
	srv, ledger := newTestServer(t, 4)
	handler := srv.Handler()

	req := withdrawRequest{
		Root:      ledger.Root().String(),
		Nullifier: "77",
		Proof:     []byte("stub"),
	}
	rec := postJSON(t, handler, "/withdraw", req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ledger.IsSpent(big.NewInt(77)))

	rec = postJSON(t, handler, "/withdraw", req)
	require.Equal(t, http.StatusConflict, rec.Code)
	var errResp struct {
		Code      string `json:"code"`
		Retryable bool   `json:"retryable"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	require.Equal(t, "nullifier_reused", errResp.Code)
	require.False(t, errResp.Retryable)
}

func TestServerMalformedScalar(t *testing.T) {
	srv, _ := newTestServer(t, 4)
	handler := srv.Handler()

	rec := postJSON(t, handler, "/withdraw", withdrawRequest{
		Root:      "0xdeadbeef",
		Nullifier: "1",
		Proof:     []byte("stub"),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	require.Equal(t, "malformed_body", errResp.Code)
}

func TestServerHealthAndMetrics(t *testing.T) {
	srv, ledger := newTestServer(t, 4)
	handler := srv.Handler()
	tree := pool.NewTree(4)

	rec := postJSON(t, handler, "/deposit", testDepositRequest(t, tree, 1, 2))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uint64(1), ledger.NextIndex())

	var health HealthReport
	rec = getJSON(t, handler, "/health", &health)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, Healthy, health.Status)

	var metrics Snapshot
	rec = getJSON(t, handler, "/metrics", &metrics)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(1), metrics.Counters["deposits_accepted"])
	require.Equal(t, 1, metrics.Latencies["deposit_accept"].Count)
}

func TestServerRateLimit(t *testing.T) {
	ledger := pool.NewLedger(4, acceptAllVerifier{})
	health := NewHealthChecker("test")
	health.RegisterComponent("ledger-storage", nil)
	limiter := NewClientRateLimiter(1, 1, time.Hour)
	srv := NewServer(ledger, filepath.Join(t.TempDir(), "ledger.json"), health, limiter)
	handler := srv.Handler()

	req := withdrawRequest{Root: ledger.Root().String(), Nullifier: "1", Proof: []byte("stub")}
	rec := postJSON(t, handler, "/withdraw", req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, handler, "/withdraw", req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Read endpoints are not throttled.
	rec = getJSON(t, handler, "/root", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

// server.go - HTTP surface of the pool daemon.
//
// The daemon accepts fully-formed transactions: proving happens client-side
// with the published proving keys, the server only verifies and sequences.
// Scalars cross the wire as decimal strings; proofs as base64.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"

	"shieldedpool/internal/logging"
	"shieldedpool/internal/pool"
	"shieldedpool/internal/statements/deposit"
	"shieldedpool/internal/statements/withdraw"
)

type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func malformedBodyError(err error) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Code: "malformed_body", Message: err.Error()}
}

func unexpectedError(err error) *Error {
	return &Error{StatusCode: http.StatusInternalServerError, Code: "unexpected_error", Message: err.Error()}
}

// ledgerError maps the pool's rejection taxonomy onto HTTP. Conflicts with
// current ledger state are 409; a bad proof is the client's fault, 400.
func ledgerError(err error) *Error {
	switch {
	case errors.Is(err, pool.ErrStaleRoot):
		return &Error{StatusCode: http.StatusConflict, Code: "stale_root", Message: err.Error()}
	case errors.Is(err, pool.ErrNullifierReused):
		return &Error{StatusCode: http.StatusConflict, Code: "nullifier_reused", Message: err.Error()}
	case errors.Is(err, pool.ErrCapacityExceeded):
		return &Error{StatusCode: http.StatusConflict, Code: "capacity_exceeded", Message: err.Error()}
	case errors.Is(err, pool.ErrInvalidProof):
		return &Error{StatusCode: http.StatusBadRequest, Code: "invalid_proof", Message: err.Error()}
	default:
		return unexpectedError(err)
	}
}

func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"code":      e.Code,
		"message":   e.Message,
		"retryable": e.Code == "stale_root",
	})
}

func (e *Error) send(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	jsonBytes, err := e.MarshalJSON()
	if err != nil {
		jsonBytes = []byte(`{"code": "unexpected_error", "message": "failed to marshal error"}`)
	}
	if _, err := w.Write(jsonBytes); err != nil {
		logging.Logger().Error().Err(err).Msg("error writing response")
	}
}

// depositRequest is the wire form of a deposit transaction.
type depositRequest struct {
	OldRoot    string `json:"old_root"`
	NewRoot    string `json:"new_root"`
	Commitment string `json:"commitment"`
	LeafIndex  uint64 `json:"leaf_index"`
	Proof      []byte `json:"proof"`
}

// withdrawRequest is the wire form of a withdraw transaction.
type withdrawRequest struct {
	Root      string `json:"root"`
	Nullifier string `json:"nullifier"`
	Proof     []byte `json:"proof"`
}

func parseScalar(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.New("not a decimal scalar: " + s)
	}
	return v, nil
}

// Server sequences transactions onto the ledger and persists a snapshot
// after every accepted one.
type Server struct {
	ledger     *pool.Ledger
	ledgerPath string
	health     *HealthChecker
	metrics    *MetricsCollector
	limiter    *ClientRateLimiter
}

func NewServer(ledger *pool.Ledger, ledgerPath string, health *HealthChecker, limiter *ClientRateLimiter) *Server {
	return &Server{
		ledger:     ledger,
		ledgerPath: ledgerPath,
		health:     health,
		metrics:    NewMetricsCollector(),
		limiter:    limiter,
	}
}

// Handler builds the daemon's HTTP handler with panic recovery and request
// logging around the route mux. Submission endpoints sit behind the
// per-client rate limiter; read endpoints do not.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/root", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.Handle("/deposit", s.limiter.Middleware(http.HandlerFunc(s.handleDeposit)))
	mux.Handle("/withdraw", s.limiter.Middleware(http.HandlerFunc(s.handleWithdraw)))

	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.CombinedLoggingHandler(os.Stdout, mux))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.metrics.Snapshot())
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]interface{}{
		"root":       s.ledger.Root().String(),
		"next_index": s.ledger.NextIndex(),
		"depth":      s.ledger.Depth(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	report := s.health.CheckHealth()
	if report.Status != Healthy {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := json.NewEncoder(w).Encode(report); err != nil {
			logging.Logger().Error().Err(err).Msg("error writing response")
		}
		return
	}
	writeJSON(w, report)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		malformedBodyError(err).send(w)
		return
	}
	tx := &deposit.Tx{LeafIndex: req.LeafIndex, Proof: req.Proof}
	var err error
	if tx.OldRoot, err = parseScalar(req.OldRoot); err != nil {
		malformedBodyError(err).send(w)
		return
	}
	if tx.NewRoot, err = parseScalar(req.NewRoot); err != nil {
		malformedBodyError(err).send(w)
		return
	}
	if tx.Commitment, err = parseScalar(req.Commitment); err != nil {
		malformedBodyError(err).send(w)
		return
	}

	start := time.Now()
	if err := s.ledger.AcceptDeposit(tx); err != nil {
		logging.Logger().Warn().Err(err).Msg("deposit rejected")
		s.metrics.Increment("deposits_rejected")
		ledgerError(err).send(w)
		return
	}
	s.metrics.ObserveLatency("deposit_accept", time.Since(start))
	s.metrics.Increment("deposits_accepted")
	s.persist()
	writeJSON(w, map[string]interface{}{
		"status":     "accepted",
		"root":       s.ledger.Root().String(),
		"next_index": s.ledger.NextIndex(),
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		malformedBodyError(err).send(w)
		return
	}
	tx := &withdraw.Tx{Proof: req.Proof}
	var err error
	if tx.Root, err = parseScalar(req.Root); err != nil {
		malformedBodyError(err).send(w)
		return
	}
	if tx.Nullifier, err = parseScalar(req.Nullifier); err != nil {
		malformedBodyError(err).send(w)
		return
	}

	start := time.Now()
	if err := s.ledger.AcceptWithdraw(tx); err != nil {
		logging.Logger().Warn().Err(err).Msg("withdraw rejected")
		s.metrics.Increment("withdrawals_rejected")
		ledgerError(err).send(w)
		return
	}
	s.metrics.ObserveLatency("withdraw_accept", time.Since(start))
	s.metrics.Increment("withdrawals_accepted")
	s.persist()
	writeJSON(w, map[string]interface{}{
		"status": "accepted",
		"root":   s.ledger.Root().String(),
	})
}

// persist writes the ledger snapshot; a failed write degrades health but
// does not roll back the accepted transaction.
func (s *Server) persist() {
	if err := s.ledger.SaveToFile(s.ledgerPath); err != nil {
		logging.Logger().Error().Err(err).Str("path", s.ledgerPath).Msg("ledger snapshot failed")
		s.health.UpdateComponent("ledger-storage", Unhealthy, err.Error())
		return
	}
	s.health.UpdateComponent("ledger-storage", Healthy, "OK")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger().Error().Err(err).Msg("error writing response")
	}
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		logging.Logger().Info().Str("addr", addr).Msg("pool server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logging.Logger().Info().Msg("shutting down pool server")
		return srv.Shutdown(context.Background())
	}
}

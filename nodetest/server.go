// Package nodetest provides an in-process node that answers the command API
// from a fixed set of transactions, for testing clients.
package nodetest

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/tanglekit/iriapi/validate"
)

var logger = logging.Logger("nodetest")

// transactionTrytesSize is the length of the trytes of one transaction.
const transactionTrytesSize = 2673

// unknownTrytes is returned for hashes of unknown transactions.
var unknownTrytes = strings.Repeat("9", transactionTrytesSize)

type (
	// Store resolves the trytes of a transaction by its 81-tryte hash.
	Store interface {
		Trytes(hash string) (string, bool, error)
	}

	// MapStore is a Store backed by a map from hash to trytes.
	MapStore map[string]string

	Server struct {
		s        *http.Server
		store    Store
		requests atomic.Int64
	}

	commandRequest struct {
		Command string   `json:"command"`
		Hashes  []string `json:"hashes"`
	}
	getTrytesResponse struct {
		Duration int64    `json:"duration"`
		Trytes   []string `json:"trytes"`
	}
	errorResponse struct {
		Error    string `json:"error"`
		Duration int64  `json:"duration"`
	}
)

func (m MapStore) Trytes(hash string) (string, bool, error) {
	t, ok := m[hash]
	return t, ok, nil
}

func New(store Store, addr string) *Server {
	s := &Server{store: store}
	s.s = &http.Server{
		Addr:    addr,
		Handler: s.serveMux(),
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.s.Handler
}

// Requests returns the number of command requests received so far.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

func (s *Server) Start(_ context.Context) (net.Addr, error) {
	ln, err := net.Listen("tcp", s.s.Addr)
	if err != nil {
		return nil, err
	}
	go func() { _ = s.s.Serve(ln) }()

	logger.Infow("Server started", "addr", ln.Addr())
	return ln.Addr(), nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.s.Shutdown(ctx)
}

func (s *Server) serveMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleCommand)
	return mux
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer discardBody(r)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	s.requests.Add(1)
	if r.Header.Get("X-IOTA-API-Version") == "" {
		writeError(w, start, "Invalid API Version", http.StatusBadRequest)
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, start, "Invalid JSON syntax", http.StatusBadRequest)
		return
	}
	switch req.Command {
	case "getTrytes":
		s.handleGetTrytes(w, start, req.Hashes)
	case "":
		writeError(w, start, "COMMAND parameter has not been specified in the request.", http.StatusBadRequest)
	default:
		writeError(w, start, "Command ["+req.Command+"] is unknown", http.StatusBadRequest)
	}
}

func (s *Server) handleGetTrytes(w http.ResponseWriter, start time.Time, hashes []string) {
	if !validate.IsArrayOfHashes(hashes) {
		writeError(w, start, "Invalid hashes input", http.StatusBadRequest)
		return
	}
	trytes := make([]string, 0, len(hashes))
	for _, h := range hashes {
		t, found, err := s.store.Trytes(h[:validate.HashTrytesSize])
		if err != nil {
			s.handleError(w, start, err)
			return
		}
		if !found {
			t = unknownTrytes
		}
		trytes = append(trytes, t)
	}
	writeJSON(w, http.StatusOK, getTrytesResponse{
		Duration: time.Since(start).Milliseconds(),
		Trytes:   trytes,
	})
	logger.Debugw("Finished getting trytes", "count", len(trytes))
}

func (s *Server) handleError(w http.ResponseWriter, start time.Time, err error) {
	logger.Errorw("Failed to read trytes from store", "err", err)
	writeError(w, start, err.Error(), http.StatusInternalServerError)
}

func writeError(w http.ResponseWriter, start time.Time, msg string, status int) {
	writeJSON(w, status, errorResponse{
		Error:    msg,
		Duration: time.Since(start).Milliseconds(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorw("Failed to write response", "err", err)
	}
}

func discardBody(r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	_ = r.Body.Close()
}

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/wricardo/rps-game/account"
	"github.com/wricardo/rps-game/game/engine"
	"github.com/wricardo/rps-game/game/service"
	"github.com/wricardo/rps-game/game/session"
	"github.com/wricardo/rps-game/storage"
	"github.com/wricardo/rps-game/transport/websocket"
)

const (
	// SenderHeader carries the caller's account on every mutating request.
	SenderHeader = "X-Sender"
	// RequestIDHeader echoes the tx_id of an execute.
	RequestIDHeader = "X-Request-ID"

	maxBodySize = 64 << 10
)

// Server represents the REST API server
type Server struct {
	contract *service.Contract
	hub      *websocket.Hub
	router   *mux.Router
	limiter  *senderLimiter
	logger   zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger.With().Str("component", "api").Logger()
	}
}

// WithRateLimit allows each sender rpm mutating requests per minute with
// bursts of burst. A non-positive rpm disables the limit.
func WithRateLimit(rpm, burst int) Option {
	return func(s *Server) {
		s.limiter = newSenderLimiter(rpm, burst)
	}
}

// NewServer creates a new API server. hub may be nil, in which case /ws is
// not routed.
func NewServer(contract *service.Contract, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		contract: contract,
		hub:      hub,
		router:   mux.NewRouter(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Contract boundary
	api.HandleFunc("/execute", s.limited(s.handleExecute)).Methods("POST")
	api.HandleFunc("/query", s.handleQuery).Methods("POST")

	// Access control
	api.HandleFunc("/owner", s.handleGetOwner).Methods("GET")
	api.HandleFunc("/admin", s.handleGetAdmin).Methods("GET")
	api.HandleFunc("/admin", s.limited(s.handleUpdateAdmin)).Methods("PUT")
	api.HandleFunc("/blacklist", s.handleGetBlacklist).Methods("GET")
	api.HandleFunc("/blacklist/{address}", s.limited(s.handleAddToBlacklist)).Methods("PUT")
	api.HandleFunc("/blacklist/{address}", s.limited(s.handleRemoveFromBlacklist)).Methods("DELETE")

	// Games
	api.HandleFunc("/games", s.limited(s.handleStartGame)).Methods("POST")
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games/{host}/{opponent}", s.handleGetGame).Methods("GET")
	api.HandleFunc("/games/{host}/{opponent}/respond", s.limited(s.handleRespond)).Methods("POST")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	if s.hub != nil {
		s.router.HandleFunc("/ws", s.handleWebSocket)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps a contract error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, account.ErrInvalidAddress),
		errors.Is(err, service.ErrUnknownMessage),
		errors.Is(err, engine.ErrInvalidMove):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrHostAddressBlacklisted):
		return http.StatusForbidden
	case errors.Is(err, service.ErrOnlyOneGameAtATime),
		errors.Is(err, service.ErrAlreadyInstantiated):
		return http.StatusConflict
	case errors.Is(err, service.ErrGameNotFound),
		errors.Is(err, session.ErrNoGameFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotInstantiated):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		ev := s.logger.Error().Err(err)
		if storage.IsStorageError(err) {
			ev = ev.Bool("storage", true)
		}
		ev.Str("path", r.URL.Path).Msg("request failed")
	}
	respondError(w, status, err.Error())
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(r.Body, maxBodySize))
}

var errEmptyBody = errors.New("request body required")

// decodeBody decodes exactly one JSON value into v, rejecting unknown fields.
func decodeBody(r *http.Request, v interface{}) error {
	data, err := readBody(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return errEmptyBody
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: trailing data")
	}
	return nil
}

// executeResponse is an execute result plus the id of its transaction
type executeResponse struct {
	TxID string `json:"tx_id"`
	*service.Response
}

// execute runs msg for the X-Sender of r and writes the result.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, msg service.ExecuteMsg) {
	txID := uuid.NewString()
	w.Header().Set(RequestIDHeader, txID)

	ctx := service.WithTxID(r.Context(), txID)
	sender := r.Header.Get(SenderHeader)
	resp, err := s.contract.Execute(ctx, sender, msg)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Debug().
		Str("tx_id", txID).
		Str("sender", sender).
		Str("method", service.ExecuteMethod(msg)).
		Msg("executed")
	respondJSON(w, http.StatusOK, executeResponse{TxID: txID, Response: resp})
}

// query runs msg and writes its JSON result, optionally wrapped under key.
func (s *Server) query(w http.ResponseWriter, r *http.Request, msg service.QueryMsg, key string) {
	raw, err := s.contract.Query(r.Context(), msg)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if key != "" {
		respondJSON(w, http.StatusOK, map[string]json.RawMessage{key: raw})
		return
	}
	respondJSON(w, http.StatusOK, raw)
}

// Contract boundary handlers

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	msg, err := service.DecodeExecuteMsg(data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.execute(w, r, msg)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	msg, err := service.DecodeQueryMsg(data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.query(w, r, msg, "")
}

// Access control handlers

func (s *Server) handleGetOwner(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, service.GetOwner{}, "owner")
}

func (s *Server) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, service.GetAdmin{}, "admin")
}

// handleUpdateAdmin gives the role up only for an explicit {"admin": null}.
func (s *Server) handleUpdateAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Admin json.RawMessage `json:"admin"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Admin == nil {
		respondError(w, http.StatusBadRequest, `admin is required; send {"admin": null} to give the role up`)
		return
	}

	var msg service.UpdateAdmin
	if err := json.Unmarshal(req.Admin, &msg.Admin); err != nil {
		respondError(w, http.StatusBadRequest, "admin must be an account or null")
		return
	}
	s.execute(w, r, msg)
}

func (s *Server) handleGetBlacklist(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, service.GetBlacklist{}, "")
}

func (s *Server) handleAddToBlacklist(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, service.AddToBlacklist{Address: mux.Vars(r)["address"]})
}

func (s *Server) handleRemoveFromBlacklist(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, service.RemoveFromBlacklist{Address: mux.Vars(r)["address"]})
}

// Game handlers

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req service.StartGame
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.execute(w, r, req)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	host := r.URL.Query().Get("host")
	opponent := r.URL.Query().Get("opponent")

	switch {
	case host != "" && opponent == "":
		s.query(w, r, service.GetGamesByHost{Address: host}, "")
	case opponent != "" && host == "":
		s.query(w, r, service.GetGamesByOpponent{Opponent: opponent}, "")
	default:
		respondError(w, http.StatusBadRequest, "exactly one of host or opponent is required")
	}
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.query(w, r, service.GetGame{Host: vars["host"], Opponent: vars["opponent"]}, "")
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OppMove engine.Move `json:"opp_move"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	vars := mux.Vars(r)
	s.execute(w, r, service.Respond{Host: vars["host"], Opponent: vars["opponent"], OppMove: req.OppMove})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("account")
	if raw == "" {
		http.Error(w, "account parameter required", http.StatusBadRequest)
		return
	}
	id, err := s.contract.Validator().Validate(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.hub.ServeWS(w, r, id)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

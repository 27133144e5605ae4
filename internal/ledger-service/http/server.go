package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betting-ledger/internal/ledger"
	"github.com/radieske/betting-ledger/internal/ledger-service/auth"
	"github.com/radieske/betting-ledger/internal/ledger-service/dto"
	"github.com/radieske/betting-ledger/internal/ledger-service/session"
	"github.com/radieske/betting-ledger/internal/ledger-service/upload"
	"github.com/radieske/betting-ledger/internal/wager"
)

// Engine são as operações de escrita do ledger usadas pelos handlers
type Engine interface {
	CreateUser(ctx context.Context, in wager.NewUser) (ledger.User, error)
	AdjustBalance(ctx context.Context, userID int64, amount decimal.Decimal) (wager.Adjustment, error)
	PlaceSingleBet(ctx context.Context, userID, matchID int64, betType ledger.BetType, amount decimal.Decimal) (ledger.Bet, error)
	PlaceComboBet(ctx context.Context, userID int64, selections []wager.Selection, amount decimal.Decimal) (wager.ComboPlacement, error)
	AddTeam(ctx context.Context, name string) (ledger.Team, error)
	ScheduleMatch(ctx context.Context, homeTeamID, awayTeamID int64, kickoff time.Time) (ledger.Fixture, error)
	SettleMatch(ctx context.Context, matchID int64, homeScore, awayScore int) (wager.Settlement, error)
	CancelMatch(ctx context.Context, matchID int64) (wager.Settlement, error)
	ImportResults(ctx context.Context, rows []wager.ResultRow) (wager.ImportSummary, error)
}

// Ledger é o lado de leitura (perfil e consultas administrativas)
type Ledger interface {
	User(ctx context.Context, id int64) (ledger.User, error)
	UserByEmail(ctx context.Context, email string) (ledger.User, error)
	Users(ctx context.Context) ([]ledger.User, error)
	Teams(ctx context.Context) ([]ledger.Team, error)
	BetsByUser(ctx context.Context, userID int64) ([]ledger.BetView, error)
	CombosByUser(ctx context.Context, userID int64) ([]ledger.ComboView, error)
	TransactionsByUser(ctx context.Context, userID int64) ([]ledger.Transaction, error)
}

// tamanho máximo do CSV de resultados
const maxUpload = 10 << 20

type Server struct {
	log      *zap.Logger
	engine   Engine
	ledger   Ledger
	sessions session.Store
	ttl      time.Duration
}

func NewServer(log *zap.Logger, e Engine, l Ledger, s session.Store, ttl time.Duration) *Server {
	return &Server{log: log, engine: e, ledger: l, sessions: s, ttl: ttl}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/v1/users", s.register)
	r.Post("/v1/sessions", s.login)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticated)
		r.Delete("/v1/sessions", s.logout)
		r.Get("/v1/me", s.me)
		r.Get("/v1/me/bets", s.myBets)
		r.Get("/v1/me/transactions", s.myTransactions)
		r.Post("/v1/bets", s.placeBet)
		r.Post("/v1/combo-bets", s.placeCombo)

		r.Route("/v1/admin", func(r chi.Router) {
			r.Use(s.adminOnly)
			r.Get("/teams", s.listTeams)
			r.Post("/teams", s.addTeam)
			r.Post("/matches", s.scheduleMatch)
			r.Post("/matches/{id}/settle", s.settleMatch)
			r.Post("/matches/{id}/cancel", s.cancelMatch)
			r.Get("/users", s.listUsers)
			r.Post("/users/{id}/balance", s.adjustBalance)
			r.Post("/results", s.importResults)
		})
	})
	return r
}

type ctxKey struct{}

type caller struct {
	token string
	user  ledger.User
}

func from(ctx context.Context) caller {
	c, _ := ctx.Value(ctxKey{}).(caller)
	return c
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if t, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(t)
	}
	return r.Header.Get("X-Session-Token")
}

// authenticated resolve o token de sessão para o usuário
func (s *Server) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearer(r)
		id, err := s.sessions.Lookup(r.Context(), token)
		if errors.Is(err, session.ErrNoSession) {
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication required"})
			return
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}
		u, err := s.ledger.User(r.Context(), id)
		if errors.Is(err, ledger.ErrNotFound) {
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication required"})
			return
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, caller{token: token, user: u})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !from(r.Context()).user.IsAdmin {
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "admin only"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

// fail traduz os erros do ledger em status HTTP
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrConflict), errors.Is(err, ledger.ErrIntegrity):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	default:
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Password) < auth.MinPasswordLen {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "password must have at least " + strconv.Itoa(auth.MinPasswordLen) + " characters"})
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.engine.CreateUser(r.Context(), wager.NewUser{Username: req.Username, Email: req.Email, PasswordHash: hash})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := s.ledger.UserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err == nil {
		err = auth.CheckPassword(u.PasswordHash, req.Password)
	}
	if errors.Is(err, ledger.ErrNotFound) || errors.Is(err, auth.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid email or password"})
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	token, err := s.sessions.Create(r.Context(), u.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.SessionResponse{Token: token, ExpiresIn: int64(s.ttl / time.Second), User: u})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), from(r.Context()).token); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, from(r.Context()).user)
}

func (s *Server) myBets(w http.ResponseWriter, r *http.Request) {
	id := from(r.Context()).user.ID
	bets, err := s.ledger.BetsByUser(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	combos, err := s.ledger.CombosByUser(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if bets == nil {
		bets = []ledger.BetView{}
	}
	if combos == nil {
		combos = []ledger.ComboView{}
	}
	writeJSON(w, http.StatusOK, dto.BetsResponse{Bets: bets, ComboBets: combos})
}

func (s *Server) myTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.TransactionsByUser(r.Context(), from(r.Context()).user.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if txs == nil {
		txs = []ledger.Transaction{}
	}
	writeJSON(w, http.StatusOK, dto.TransactionsResponse{Transactions: txs})
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if !decode(w, r, &req) {
		return
	}
	bet, err := s.engine.PlaceSingleBet(r.Context(), from(r.Context()).user.ID, req.MatchID, ledger.BetType(strings.ToUpper(req.BetType)), req.Amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bet)
}

func (s *Server) placeCombo(w http.ResponseWriter, r *http.Request) {
	var req dto.ComboBetRequest
	if !decode(w, r, &req) {
		return
	}
	for i := range req.Selections {
		req.Selections[i].Type = ledger.BetType(strings.ToUpper(string(req.Selections[i].Type)))
	}
	out, err := s.engine.PlaceComboBet(r.Context(), from(r.Context()).user.ID, req.Selections, req.Amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.ledger.Teams(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if teams == nil {
		teams = []ledger.Team{}
	}
	writeJSON(w, http.StatusOK, teams)
}

func (s *Server) addTeam(w http.ResponseWriter, r *http.Request) {
	var req dto.TeamRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := s.engine.AddTeam(r.Context(), req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) scheduleMatch(w http.ResponseWriter, r *http.Request) {
	var req dto.MatchRequest
	if !decode(w, r, &req) {
		return
	}
	kickoff, err := upload.ParseKickoff(req.MatchDatetime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	fx, err := s.engine.ScheduleMatch(r.Context(), req.HomeTeamID, req.AwayTeamID, kickoff)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, fx)
}

func (s *Server) settleMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req dto.SettleRequest
	if !decode(w, r, &req) {
		return
	}
	if req.HomeScore == nil || req.AwayScore == nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "home_score and away_score are required"})
		return
	}
	sum, err := s.engine.SettleMatch(r.Context(), id, *req.HomeScore, *req.AwayScore)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) cancelMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sum, err := s.engine.CancelMatch(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.ledger.Users(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if users == nil {
		users = []ledger.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) adjustBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req dto.BalanceRequest
	if !decode(w, r, &req) {
		return
	}
	adj, err := s.engine.AdjustBalance(r.Context(), id, req.Amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adj)
}

// importResults aceita o CSV no corpo ou como multipart no campo "file"
func (s *Server) importResults(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "missing file field"})
			return
		}
		defer f.Close()
		body = f
	}

	rows, err := upload.ParseResults(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sum, err := s.engine.ImportResults(r.Context(), rows)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

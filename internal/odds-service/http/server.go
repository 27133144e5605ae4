package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/betting-ledger/internal/ledger"
	"github.com/radieske/betting-ledger/internal/odds-service/dto"
)

// Reader é o lado de leitura consumido pela API
type Reader interface {
	Board(ctx context.Context) ([]dto.MatchOdds, error)
	MatchOdds(ctx context.Context, matchID int64) (dto.MatchOdds, error)
	Teams(ctx context.Context) ([]dto.Team, error)
	Ratings(ctx context.Context) ([]dto.TeamRating, error)
}

// Cache guarda o quadro e as odds por partida; nil desliga o cache
type Cache interface {
	GetBoard(ctx context.Context, dst any) (bool, error)
	SetBoard(ctx context.Context, v any, ttl time.Duration) error
	GetOdds(ctx context.Context, matchID int64, dst any) (bool, error)
	SetOdds(ctx context.Context, matchID int64, v any, ttl time.Duration) error
}

// API expõe os endpoints REST de consulta de odds e ratings
// Utiliza o repositório de leitura do ledger e cache (Redis)
type API struct {
	ReadRepo Reader
	Cache    Cache
	TTL      time.Duration
	Log      *zap.Logger
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/matches", a.listMatches)       // Quadro de partidas agendadas
	r.Get("/v1/matches/{id}/odds", a.getOdds) // Odds de uma partida
	r.Get("/v1/teams", a.listTeams)           // Times cadastrados
	r.Get("/v1/ratings", a.listRatings)       // Elo atual
	return r
}

func (a *API) ttl() time.Duration {
	if a.TTL > 0 {
		return a.TTL
	}
	return 30 * time.Second
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, ledger.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if a.Log != nil {
		a.Log.Error("odds read failed", zap.Error(err))
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// listMatches retorna o quadro, preferencialmente do cache
func (a *API) listMatches(w http.ResponseWriter, r *http.Request) {
	if a.Cache != nil {
		var fromCache []dto.MatchOdds
		if ok, _ := a.Cache.GetBoard(r.Context(), &fromCache); ok {
			writeJSON(w, http.StatusOK, fromCache)
			return
		}
	}

	board, err := a.ReadRepo.Board(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	if a.Cache != nil {
		_ = a.Cache.SetBoard(r.Context(), board, a.ttl())
	}
	writeJSON(w, http.StatusOK, board)
}

// getOdds retorna as odds de uma partida, preferencialmente do cache
func (a *API) getOdds(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match id"})
		return
	}

	if a.Cache != nil {
		var fromCache dto.MatchOdds
		if ok, _ := a.Cache.GetOdds(r.Context(), id, &fromCache); ok {
			writeJSON(w, http.StatusOK, fromCache)
			return
		}
	}

	od, err := a.ReadRepo.MatchOdds(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}
	if a.Cache != nil {
		_ = a.Cache.SetOdds(r.Context(), id, od, a.ttl())
	}
	writeJSON(w, http.StatusOK, od)
}

func (a *API) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := a.ReadRepo.Teams(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (a *API) listRatings(w http.ResponseWriter, r *http.Request) {
	rt, err := a.ReadRepo.Ratings(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

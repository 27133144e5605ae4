package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/radieske/betting-ledger/internal/ledger/ledgertest"
	"github.com/radieske/betting-ledger/internal/odds-service/dto"
	"github.com/radieske/betting-ledger/internal/odds-service/repo"
	"github.com/radieske/betting-ledger/internal/wager"
)

// memCache imita o cache Redis guardando JSON em memória
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) load(key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) store(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	c.sets++
	return nil
}

func (c *memCache) GetBoard(_ context.Context, dst any) (bool, error) { return c.load("board", dst) }
func (c *memCache) SetBoard(_ context.Context, v any, _ time.Duration) error {
	return c.store("board", v)
}
func (c *memCache) GetOdds(_ context.Context, id int64, dst any) (bool, error) {
	return c.load(strconv.FormatInt(id, 10), dst)
}
func (c *memCache) SetOdds(_ context.Context, id int64, v any, _ time.Duration) error {
	return c.store(strconv.FormatInt(id, 10), v)
}

type env struct {
	api    *API
	cache  *memCache
	engine *wager.Engine
}

func setup(t *testing.T) env {
	t.Helper()
	store := ledgertest.NewStore(t)
	log := zaptest.NewLogger(t)
	c := newMemCache()
	return env{
		api:    &API{ReadRepo: &repo.ReadRepo{Store: store}, Cache: c, Log: log},
		cache:  c,
		engine: wager.NewEngine(store, log),
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestBoardIsCached(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	home, err := e.engine.AddTeam(ctx, "Lions")
	require.NoError(t, err)
	away, err := e.engine.AddTeam(ctx, "Tigers")
	require.NoError(t, err)
	_, err = e.engine.ScheduleMatch(ctx, home.ID, away.ID, time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	h := e.api.Router()
	rec := get(t, h, "/v1/matches")
	require.Equal(t, http.StatusOK, rec.Code)

	var board []dto.MatchOdds
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board, 1)
	assert.Equal(t, "Lions", board[0].HomeTeam)
	assert.Equal(t, "1.9839", board[0].HomeOdd.String())
	assert.True(t, board[0].Margin.GreaterThan(decimal.NewFromInt(1)))
	assert.Equal(t, 1, e.cache.sets)

	// segunda leitura vem do cache
	rec = get(t, h, "/v1/matches")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, e.cache.sets)
}

func TestMatchOdds(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	home, err := e.engine.AddTeam(ctx, "Lions")
	require.NoError(t, err)
	away, err := e.engine.AddTeam(ctx, "Tigers")
	require.NoError(t, err)
	fx, err := e.engine.ScheduleMatch(ctx, home.ID, away.ID, time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	h := e.api.Router()
	rec := get(t, h, "/v1/matches/"+strconv.FormatInt(fx.ID, 10)+"/odds")
	require.Equal(t, http.StatusOK, rec.Code)
	var got dto.MatchOdds
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "3.8095", got.DrawOdd.String())
	assert.Equal(t, "3.528", got.AwayOdd.String())

	assert.Equal(t, http.StatusNotFound, get(t, h, "/v1/matches/999/odds").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/v1/matches/abc/odds").Code)
}

func TestRatingsAndTeams(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	_, err := e.engine.ImportResults(ctx, []wager.ResultRow{
		{Line: 2, HomeTeam: "Lions", AwayTeam: "Tigers", Kickoff: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), HomeScore: 0, AwayScore: 2},
	})
	require.NoError(t, err)

	h := e.api.Router()
	rec := get(t, h, "/v1/ratings")
	require.Equal(t, http.StatusOK, rec.Code)
	var rt []dto.TeamRating
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rt))
	require.Len(t, rt, 2)
	assert.Equal(t, "Tigers", rt[0].Name)
	assert.Greater(t, rt[0].Rating, 1500.0)
	assert.InDelta(t, 3000.0, rt[0].Rating+rt[1].Rating, 0.02)

	rec = get(t, h, "/v1/teams")
	require.Equal(t, http.StatusOK, rec.Code)
	var teams []dto.Team
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &teams))
	assert.Len(t, teams, 2)
}

func TestWithoutCache(t *testing.T) {
	e := setup(t)
	e.api.Cache = nil
	rec := get(t, e.api.Router(), "/v1/matches")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

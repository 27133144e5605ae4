package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/radieske/betting-ledger/internal/ledger"
	"github.com/radieske/betting-ledger/internal/ledger-service/auth"
	"github.com/radieske/betting-ledger/internal/ledger-service/dto"
	"github.com/radieske/betting-ledger/internal/ledger-service/session"
	"github.com/radieske/betting-ledger/internal/ledger/ledgertest"
	"github.com/radieske/betting-ledger/internal/wager"
)

type harness struct {
	t     *testing.T
	h     http.Handler
	store *ledger.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := ledgertest.NewStore(t)
	log := zaptest.NewLogger(t)
	eng := wager.NewEngine(store, log)
	require.NoError(t, auth.EnsureAdmin(context.Background(), store, eng, log, "admin", "admin@example.com", "adminpass"))

	srv := NewServer(log, eng, store, session.NewMemory(time.Hour), time.Hour)
	return &harness{t: t, h: srv.Router(), store: store}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(h.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (h *harness) register(name string) {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/v1/users", "", dto.RegisterRequest{Username: name, Email: name + "@example.com", Password: "secret123"})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (h *harness) login(email, password string) string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/v1/sessions", "", dto.LoginRequest{Email: email, Password: password})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[dto.SessionResponse](h.t, rec).Token
}

// fixture cria dois times e uma partida agendada via API de admin
func (h *harness) fixture(admin string) ledger.Fixture {
	h.t.Helper()
	home := decodeBody[ledger.Team](h.t, h.do(http.MethodPost, "/v1/admin/teams", admin, dto.TeamRequest{Name: "Lions"}))
	away := decodeBody[ledger.Team](h.t, h.do(http.MethodPost, "/v1/admin/teams", admin, dto.TeamRequest{Name: "Tigers"}))
	rec := h.do(http.MethodPost, "/v1/admin/matches", admin, dto.MatchRequest{HomeTeamID: home.ID, AwayTeamID: away.ID, MatchDatetime: "2025-08-01 20:00"})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[ledger.Fixture](h.t, rec)
}

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)
	h.register("ana")

	rec := h.do(http.MethodPost, "/v1/users", "", dto.RegisterRequest{Username: "ana", Email: "ana@example.com", Password: "secret123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = h.do(http.MethodPost, "/v1/users", "", dto.RegisterRequest{Username: "bo", Email: "bo@example.com", Password: "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(http.MethodPost, "/v1/users", "", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/v1/sessions", "", dto.LoginRequest{Email: "ana@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = h.do(http.MethodPost, "/v1/sessions", "", dto.LoginRequest{Email: "ghost@example.com", Password: "secret123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := h.login("ANA@example.com", "secret123")
	me := decodeBody[ledger.User](t, h.do(http.MethodGet, "/v1/me", token, nil))
	assert.Equal(t, "ana", me.Username)
	assert.True(t, me.Balance.Equal(ledger.InitialBalance))
	assert.NotContains(t, h.do(http.MethodGet, "/v1/me", token, nil).Body.String(), "password")

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/v1/sessions", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/v1/me", token, nil).Code)
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/v1/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/v1/bets", "bogus", dto.PlaceBetRequest{}).Code)

	h.register("ana")
	token := h.login("ana@example.com", "secret123")
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/v1/admin/users", token, nil).Code)
}

func TestBetLifecycle(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@example.com", "adminpass")
	h.register("ana")
	ana := h.login("ana@example.com", "secret123")

	fx := h.fixture(admin)
	require.NotNil(t, fx.Odds)

	rec := h.do(http.MethodPost, "/v1/bets", ana, map[string]any{"match_id": fx.ID, "bet_type": "home_win", "amount": "100"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bet := decodeBody[ledger.Bet](t, rec)
	assert.True(t, bet.OddsAtPlacement.Equal(fx.Odds.Home))

	rec = h.do(http.MethodPost, "/v1/bets", ana, map[string]any{"match_id": fx.ID, "bet_type": "DRAW", "amount": 5000})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(http.MethodPost, "/v1/bets", ana, map[string]any{"match_id": 999, "bet_type": "DRAW", "amount": 5})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	path := "/v1/admin/matches/" + strconv.FormatInt(fx.ID, 10)
	rec = h.do(http.MethodPost, path+"/settle", admin, map[string]int{"home_score": 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(http.MethodPost, path+"/settle", admin, map[string]int{"home_score": 2, "away_score": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sum := decodeBody[wager.Settlement](t, rec)
	assert.Equal(t, 1, sum.Won)
	assert.True(t, sum.Paid.Equal(bet.PotentialPayout))

	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, path+"/settle", admin, map[string]int{"home_score": 0, "away_score": 0}).Code)
	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, path+"/cancel", admin, nil).Code)

	me := decodeBody[ledger.User](t, h.do(http.MethodGet, "/v1/me", ana, nil))
	want := ledger.InitialBalance.Sub(decimal.NewFromInt(100)).Add(bet.PotentialPayout)
	assert.True(t, me.Balance.Equal(want), me.Balance.String())

	bets := decodeBody[dto.BetsResponse](t, h.do(http.MethodGet, "/v1/me/bets", ana, nil))
	require.Len(t, bets.Bets, 1)
	assert.Equal(t, ledger.BetWon, bets.Bets[0].Status)
	assert.Equal(t, "Lions", bets.Bets[0].HomeTeam)
	assert.Empty(t, bets.ComboBets)

	txs := decodeBody[dto.TransactionsResponse](t, h.do(http.MethodGet, "/v1/me/transactions", ana, nil))
	require.Len(t, txs.Transactions, 3)
	assert.Equal(t, ledger.TxWinnings, txs.Transactions[0].Type)
}

func TestComboEndpoint(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@example.com", "adminpass")
	h.register("ana")
	ana := h.login("ana@example.com", "secret123")
	fx := h.fixture(admin)

	rec := h.do(http.MethodPost, "/v1/combo-bets", ana, map[string]any{
		"selections": []map[string]any{{"match_id": fx.ID, "bet_type": "HOME_WIN"}},
		"amount":     10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bears := decodeBody[ledger.Team](t, h.do(http.MethodPost, "/v1/admin/teams", admin, dto.TeamRequest{Name: "Bears"}))
	rec = h.do(http.MethodPost, "/v1/admin/matches", admin, dto.MatchRequest{HomeTeamID: bears.ID, AwayTeamID: fx.HomeTeamID, MatchDatetime: "2025-08-02T18:00:00Z"})
	require.Equal(t, http.StatusCreated, rec.Code)
	other := decodeBody[ledger.Fixture](t, rec)

	rec = h.do(http.MethodPost, "/v1/combo-bets", ana, map[string]any{
		"selections": []map[string]any{{"match_id": fx.ID, "bet_type": "home_win"}, {"match_id": other.ID, "bet_type": "draw"}},
		"amount":     "10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decodeBody[wager.ComboPlacement](t, rec)
	assert.True(t, out.TotalOdds.Equal(fx.Odds.Home.Mul(other.Odds.Draw)))
	assert.Len(t, out.Legs, 2)

	bets := decodeBody[dto.BetsResponse](t, h.do(http.MethodGet, "/v1/me/bets", ana, nil))
	assert.Empty(t, bets.Bets)
	require.Len(t, bets.ComboBets, 1)
	assert.Len(t, bets.ComboBets[0].Legs, 2)
}

func TestAdminBalanceAndUsers(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@example.com", "adminpass")
	h.register("ana")

	users := decodeBody[[]ledger.User](t, h.do(http.MethodGet, "/v1/admin/users", admin, nil))
	require.Len(t, users, 2)
	var anaID int64
	for _, u := range users {
		if u.Username == "ana" {
			anaID = u.ID
		}
	}
	require.NotZero(t, anaID)
	path := "/v1/admin/users/" + strconv.FormatInt(anaID, 10) + "/balance"

	rec := h.do(http.MethodPost, path, admin, map[string]any{"amount": "-1500"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, path, admin, map[string]any{"amount": 250.5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	adj := decodeBody[wager.Adjustment](t, rec)
	assert.True(t, adj.Balance.Equal(decimal.RequireFromString("1250.5")))

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/v1/admin/users/999/balance", admin, map[string]any{"amount": 1}).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/v1/admin/users/x/balance", admin, map[string]any{"amount": 1}).Code)
}

func TestImportResultsEndpoint(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@example.com", "adminpass")

	csv := "home_team,away_team,match_datetime,home_score,away_score\nLions,Tigers,2024-01-01,1,0\nLions,Tigers,2024-01-01,1,0\n"
	rec := h.do(http.MethodPost, "/v1/admin/results", admin, csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, wager.ImportSummary{Rows: 2, Inserted: 1, Skipped: 1}, decodeBody[wager.ImportSummary](t, rec))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "results.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("home_team,away_team,kickoff,home_score,away_score\nBears,Lions,2024-02-01 18:00,2,2\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/results", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+admin)
	out := httptest.NewRecorder()
	h.h.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code, out.Body.String())

	teams := decodeBody[[]ledger.Team](t, h.do(http.MethodGet, "/v1/admin/teams", admin, nil))
	assert.Len(t, teams, 3)

	rec = h.do(http.MethodPost, "/v1/admin/results", admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "empty"))
}

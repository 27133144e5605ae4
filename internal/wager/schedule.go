package wager

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/betting-ledger/internal/ledger"
	"github.com/radieske/betting-ledger/internal/odds"
	"github.com/radieske/betting-ledger/internal/rating"
	"github.com/radieske/betting-ledger/pkg/contracts/events"
)

// History é a fonte do histórico finalizado (Store ou Tx)
type History interface {
	TeamIDs(ctx context.Context) ([]int64, error)
	CompletedMatches(ctx context.Context) ([]ledger.Match, error)
}

// Ratings recalcula o Elo de todos os times a partir do histórico completo
func Ratings(ctx context.Context, h History) (rating.Ratings, error) {
	ids, err := h.TeamIDs(ctx)
	if err != nil {
		return nil, err
	}
	done, err := h.CompletedMatches(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]rating.Result, 0, len(done))
	for _, m := range done {
		if m.HomeScore == nil || m.AwayScore == nil {
			continue
		}
		results = append(results, rating.Result{
			HomeTeamID: m.HomeTeamID,
			AwayTeamID: m.AwayTeamID,
			HomeScore:  *m.HomeScore,
			AwayScore:  *m.AwayScore,
			Kickoff:    m.Kickoff,
		})
	}
	return rating.Compute(ids, results), nil
}

// normalizeKickoff guarda tudo em UTC com precisão de segundos,
// para que a chave (mandante, visitante, kickoff) compare igual nos dois bancos
func normalizeKickoff(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// AddTeam cadastra um time; nome repetido é conflito
func (e *Engine) AddTeam(ctx context.Context, name string) (ledger.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ledger.Team{}, e.finish("add_team", ledger.Validationf("team name is required"))
	}

	var team ledger.Team
	err := e.store.WithTx(ctx, func(tx *ledger.Tx) error {
		t, err := tx.InsertTeam(ctx, name)
		if errors.Is(err, ledger.ErrIntegrity) {
			return ledger.Conflictf("team %q already exists", name)
		}
		team = t
		return err
	})
	if err != nil {
		return ledger.Team{}, e.finish("add_team", err)
	}

	e.log.Info("team added", zap.Int64("team_id", team.ID), zap.String("name", team.Name))
	return team, e.finish("add_team", nil)
}

// ScheduleMatch cria a partida e suas odds na mesma transação;
// nunca existe partida agendada sem odds
func (e *Engine) ScheduleMatch(ctx context.Context, homeTeamID, awayTeamID int64, kickoff time.Time) (ledger.Fixture, error) {
	if homeTeamID == awayTeamID {
		return ledger.Fixture{}, e.finish("schedule_match", ledger.Conflictf("a team cannot play against itself"))
	}
	kickoff = normalizeKickoff(kickoff)

	var fx ledger.Fixture
	err := e.store.WithTx(ctx, func(tx *ledger.Tx) error {
		taken, err := tx.FixtureTaken(ctx, homeTeamID, awayTeamID, kickoff)
		if err != nil {
			return err
		}
		if taken {
			return ledger.Conflictf("match already exists for these teams at %s", kickoff.Format(time.RFC3339))
		}

		m, err := tx.InsertMatch(ctx, homeTeamID, awayTeamID, kickoff)
		if errors.Is(err, ledger.ErrIntegrity) {
			return ledger.Conflictf("match already exists for these teams at %s", kickoff.Format(time.RFC3339))
		}
		if err != nil {
			return err
		}

		ratings, err := Ratings(ctx, tx)
		if err != nil {
			return err
		}
		prices := odds.ForFixture(ratings, homeTeamID, awayTeamID)
		o := ledger.Odds{MatchID: m.ID, Home: prices.Home, Draw: prices.Draw, Away: prices.Away}
		if err := tx.InsertOdds(ctx, o); err != nil {
			return err
		}

		fx, err = tx.Fixture(ctx, m.ID)
		return err
	})
	if err != nil {
		return ledger.Fixture{}, e.finish("schedule_match", err)
	}

	e.log.Info("match scheduled",
		zap.Int64("match_id", fx.ID),
		zap.String("home", fx.HomeTeam),
		zap.String("away", fx.AwayTeam),
		zap.Time("kickoff", kickoff),
		zap.String("odds_home", fx.Odds.Home.String()),
		zap.String("odds_draw", fx.Odds.Draw.String()),
		zap.String("odds_away", fx.Odds.Away.String()))
	e.publish(ctx, events.LedgerEvent{Type: events.MatchScheduled, MatchID: fx.ID})
	return fx, e.finish("schedule_match", nil)
}

// ResultRow é uma linha de resultado histórico já parseada
type ResultRow struct {
	Line      int
	HomeTeam  string
	AwayTeam  string
	Kickoff   time.Time
	HomeScore int
	AwayScore int
}

type ImportSummary struct {
	Rows     int `json:"rows"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// ImportResults grava resultados históricos como partidas COMPLETED (sem odds).
// Times são criados sob demanda; confrontos repetidos são ignorados e contados.
func (e *Engine) ImportResults(ctx context.Context, rows []ResultRow) (ImportSummary, error) {
	if len(rows) == 0 {
		return ImportSummary{}, e.finish("import_results", ledger.Validationf("no result rows to import"))
	}
	for i := range rows {
		r := &rows[i]
		r.HomeTeam, r.AwayTeam = strings.TrimSpace(r.HomeTeam), strings.TrimSpace(r.AwayTeam)
		switch {
		case r.HomeTeam == "" || r.AwayTeam == "":
			return ImportSummary{}, e.finish("import_results", ledger.Validationf("line %d: team names are required", r.Line))
		case r.HomeTeam == r.AwayTeam:
			return ImportSummary{}, e.finish("import_results", ledger.Validationf("line %d: a team cannot play against itself", r.Line))
		case r.HomeScore < 0 || r.AwayScore < 0:
			return ImportSummary{}, e.finish("import_results", ledger.Validationf("line %d: scores must be non-negative", r.Line))
		}
		r.Kickoff = normalizeKickoff(r.Kickoff)
	}

	sum := ImportSummary{Rows: len(rows)}
	err := e.store.WithTx(ctx, func(tx *ledger.Tx) error {
		teams := map[string]int64{}
		teamID := func(name string) (int64, error) {
			if id, ok := teams[name]; ok {
				return id, nil
			}
			t, err := tx.EnsureTeam(ctx, name)
			if err != nil {
				return 0, err
			}
			teams[name] = t.ID
			return t.ID, nil
		}

		for _, r := range rows {
			home, err := teamID(r.HomeTeam)
			if err != nil {
				return err
			}
			away, err := teamID(r.AwayTeam)
			if err != nil {
				return err
			}
			ok, err := tx.InsertResult(ctx, home, away, r.Kickoff, r.HomeScore, r.AwayScore)
			if err != nil {
				return err
			}
			if ok {
				sum.Inserted++
			} else {
				sum.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return ImportSummary{}, e.finish("import_results", err)
	}

	e.log.Info("results imported", zap.Int("rows", sum.Rows), zap.Int("inserted", sum.Inserted), zap.Int("skipped", sum.Skipped))
	e.publish(ctx, events.LedgerEvent{Type: events.ResultsImported, Count: sum.Inserted})
	return sum, e.finish("import_results", nil)
}

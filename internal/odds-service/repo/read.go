package repo

import (
	"context"
	"math"
	"sort"

	"github.com/radieske/betting-ledger/internal/ledger"
	"github.com/radieske/betting-ledger/internal/odds"
	"github.com/radieske/betting-ledger/internal/odds-service/dto"
	"github.com/radieske/betting-ledger/internal/wager"
)

// ReadRepo é o lado de leitura do ledger usado pelo odds-service
type ReadRepo struct {
	Store *ledger.Store
}

func toMatchOdds(f ledger.Fixture) dto.MatchOdds {
	out := dto.MatchOdds{
		MatchID:  f.ID,
		HomeTeam: f.HomeTeam,
		AwayTeam: f.AwayTeam,
		Kickoff:  f.Kickoff,
		Status:   string(f.Status),
	}
	if f.Odds != nil {
		out.HomeOdd, out.DrawOdd, out.AwayOdd = f.Odds.Home, f.Odds.Draw, f.Odds.Away
		out.Margin = odds.Prices{Home: f.Odds.Home, Draw: f.Odds.Draw, Away: f.Odds.Away}.Overround().Round(odds.Precision)
	}
	return out
}

// Board lista as partidas agendadas com odds, por kickoff
func (r *ReadRepo) Board(ctx context.Context) ([]dto.MatchOdds, error) {
	fx, err := r.Store.ScheduledFixtures(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MatchOdds, 0, len(fx))
	for _, f := range fx {
		if f.Odds == nil {
			continue
		}
		out = append(out, toMatchOdds(f))
	}
	return out, nil
}

// MatchOdds retorna as odds de uma partida; ledger.ErrNotFound se não houver
func (r *ReadRepo) MatchOdds(ctx context.Context, matchID int64) (dto.MatchOdds, error) {
	f, err := r.Store.Fixture(ctx, matchID)
	if err != nil {
		return dto.MatchOdds{}, err
	}
	if f.Odds == nil {
		return dto.MatchOdds{}, ledger.NotFoundf("no odds for match %d", matchID)
	}
	return toMatchOdds(f), nil
}

func (r *ReadRepo) Teams(ctx context.Context) ([]dto.Team, error) {
	teams, err := r.Store.Teams(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Team, 0, len(teams))
	for _, t := range teams {
		out = append(out, dto.Team{ID: t.ID, Name: t.Name})
	}
	return out, nil
}

// Ratings recalcula o Elo do histórico e ordena do mais forte ao mais fraco
func (r *ReadRepo) Ratings(ctx context.Context) ([]dto.TeamRating, error) {
	teams, err := r.Store.Teams(ctx)
	if err != nil {
		return nil, err
	}
	rt, err := wager.Ratings(ctx, r.Store)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TeamRating, 0, len(teams))
	for _, t := range teams {
		out = append(out, dto.TeamRating{
			TeamID: t.ID,
			Name:   t.Name,
			Rating: math.Round(rt.Of(t.ID)*100) / 100,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out, nil
}

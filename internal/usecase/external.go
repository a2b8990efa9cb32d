package usecase

import (
	"context"

	"github.com/riskibarqy/fpl-oracle/internal/domain/fixture"
	"github.com/riskibarqy/fpl-oracle/internal/domain/player"
	"github.com/riskibarqy/fpl-oracle/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-oracle/internal/domain/team"
)

// FantasyProvider is the canonical source of players, clubs, fixtures and points.
// Names it returns are in the fantasy game's own spelling.
type FantasyProvider interface {
	ListPlayers(ctx context.Context) ([]player.Player, error)
	ListTeamsWithStanding(ctx context.Context) ([]team.Standing, error)
	NextGameweek(ctx context.Context) (int, error)
	ListFixtures(ctx context.Context, gameweek int) ([]fixture.Fixture, error)
	ListFinishedFixtures(ctx context.Context) ([]fixture.Fixture, error)
	PlayerHistory(ctx context.Context, playerID int64) ([]playerstats.RoundHistory, error)
}

// PlayerStatProvider publishes season-to-date player totals.
type PlayerStatProvider interface {
	Source() string
	PlayerSeasonStats(ctx context.Context, season string) (playerstats.SeasonStats, error)
}

// TeamStatProvider publishes per-club match history with expected goals.
type TeamStatProvider interface {
	Source() string
	ListTeams(ctx context.Context, season string) ([]string, error)
	TeamMatchHistory(ctx context.Context, teamName, season string) ([]team.Match, error)
}

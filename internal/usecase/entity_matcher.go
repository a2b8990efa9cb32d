package usecase

import (
	"github.com/riskibarqy/fpl-oracle/internal/domain/player"
	"github.com/riskibarqy/fpl-oracle/internal/platform/fuzzy"
)

const DefaultMatchThreshold = 92

const (
	unmatchedEmptyQuery     = "empty_query"
	unmatchedNoCandidates   = "no_candidates"
	unmatchedBelowThreshold = "below_threshold"
	unmatchedCollision      = "collision"
)

// MatchedEntity is the outcome of resolving one canonical name against a
// provider's candidate pool. Candidate is only set when Matched is true.
type MatchedEntity struct {
	Query     string
	Candidate string
	Score     int
	Matched   bool
	Reason    string
}

type EntityMatcher struct {
	threshold int
}

func NewEntityMatcher(threshold int) EntityMatcher {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultMatchThreshold
	}
	return EntityMatcher{threshold: threshold}
}

func (m EntityMatcher) Threshold() int { return m.threshold }

// Match picks the best candidate for query. Equal scores resolve to the
// candidate seen first; a best score under the threshold is unresolved.
func (m EntityMatcher) Match(query string, choices fuzzy.Choices) (MatchedEntity, int) {
	out := MatchedEntity{Query: query}
	if fuzzy.Process(query) == "" {
		out.Reason = unmatchedEmptyQuery
		return out, -1
	}
	if choices.Len() == 0 {
		out.Reason = unmatchedNoCandidates
		return out, -1
	}

	idx, score := choices.ExtractOne(query)
	out.Score = score
	if idx < 0 || score < m.threshold {
		out.Reason = unmatchedBelowThreshold
		return out, -1
	}
	out.Matched = true
	out.Candidate = choices.At(idx)
	return out, idx
}

// PlayerMatch pairs a canonical player with the stat record it resolved to.
type PlayerMatch struct {
	Player player.Player
	Stat   EligibleStat
	Match  MatchedEntity
}

type MatchResult struct {
	Matched           []PlayerMatch
	Unmatched         []MatchedEntity
	CollisionsDropped int
}

// MatchPlayers resolves every player's full name against the eligible stat
// pool. When several players land on the same stat record only the highest
// scoring pairing is kept, earlier players winning ties.
func (m EntityMatcher) MatchPlayers(players []player.Player, stats []EligibleStat) MatchResult {
	names := make([]string, len(stats))
	for i, s := range stats {
		names[i] = s.Name
	}
	choices := fuzzy.NewChoices(names)

	type candidate struct {
		playerIdx int
		match     MatchedEntity
	}
	winners := make(map[int]candidate, len(players))
	seenPlayers := make(map[int64]struct{}, len(players))

	var result MatchResult
	for i, p := range players {
		if _, dup := seenPlayers[p.ID]; dup {
			continue
		}
		seenPlayers[p.ID] = struct{}{}

		match, statIdx := m.Match(p.FullName(), choices)
		if statIdx < 0 {
			result.Unmatched = append(result.Unmatched, match)
			continue
		}

		current, taken := winners[statIdx]
		if !taken {
			winners[statIdx] = candidate{playerIdx: i, match: match}
			continue
		}
		loser := match
		if match.Score > current.match.Score {
			winners[statIdx] = candidate{playerIdx: i, match: match}
			loser = current.match
		}
		result.CollisionsDropped++
		result.Unmatched = append(result.Unmatched, MatchedEntity{
			Query:  loser.Query,
			Score:  loser.Score,
			Reason: unmatchedCollision,
		})
	}

	byPlayer := make(map[int]int, len(winners))
	for statIdx, w := range winners {
		byPlayer[w.playerIdx] = statIdx
	}
	for i, p := range players {
		statIdx, ok := byPlayer[i]
		if !ok {
			continue
		}
		result.Matched = append(result.Matched, PlayerMatch{
			Player: p,
			Stat:   stats[statIdx],
			Match:  winners[statIdx].match,
		})
	}
	return result
}

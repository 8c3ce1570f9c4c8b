package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/salto/internal/adapters/repository"
	"github.com/okian/salto/internal/domain/model"
	"github.com/okian/salto/pkg/metrics"
)

// Leaderboard returns the ranked projection for one event, optionally
// filtered to a single apparatus and truncated to limit entries.
//
// Performances with a final score rank first, ordered by final score
// descending. Performances awaiting calculation follow, in athlete order.
// Ties and the unscored tail order by surname, then first name, then athlete
// id, all ascending. Ranks are sequential positions, not competition ranks:
// equal final scores get distinct consecutive ranks.
func (s *Service) Leaderboard(ctx context.Context, eventID int64, apparatusID *int64, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := s.store.LeaderboardRows(ctx, eventID, apparatusID)
	if err != nil {
		return nil, fmt.Errorf("leaderboard for event %d: %w", eventID, err)
	}

	metrics.RecordLeaderboardQuery()

	sort.SliceStable(rows, func(i, j int) bool {
		return rowLess(rows[i], rows[j])
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	entries := make([]model.LeaderboardEntry, len(rows))
	for i, row := range rows {
		e := model.LeaderboardEntry{
			Rank:          i + 1,
			PerformanceID: row.Performance.ID,
			EventID:       row.Performance.EventID,
			Athlete:       row.Athlete,
			Apparatus:     row.Apparatus,
		}
		if row.Final != nil {
			d, ex, nd, fv := row.Final.DScore, row.Final.EScore, row.Final.NeutralDeductions, row.Final.FinalValue
			at := row.Final.CalculatedAt
			e.DScore = &d
			e.EScore = &ex
			e.NeutralDeductions = &nd
			e.FinalValue = &fv
			e.IsOfficial = row.Final.IsOfficial
			e.CalculatedAt = &at
		}
		entries[i] = e
	}

	return entries, nil
}

// rowLess orders calculated rows before uncalculated ones, higher final
// scores first, with a name tie-break.
func rowLess(a, b repository.Row) bool {
	switch {
	case a.Final != nil && b.Final == nil:
		return true
	case a.Final == nil && b.Final != nil:
		return false
	case a.Final != nil && b.Final != nil:
		if a.Final.FinalValue != b.Final.FinalValue {
			return a.Final.FinalValue > b.Final.FinalValue
		}
	}

	if c := strings.Compare(strings.ToLower(a.Athlete.LastName), strings.ToLower(b.Athlete.LastName)); c != 0 {
		return c < 0
	}
	if c := strings.Compare(strings.ToLower(a.Athlete.FirstName), strings.ToLower(b.Athlete.FirstName)); c != 0 {
		return c < 0
	}
	return a.Athlete.ID < b.Athlete.ID
}

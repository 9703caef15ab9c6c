// services/ranking.go
package services

import (
	"context"
	"sort"

	"holder-contest-system/models"
	"holder-contest-system/store"
)

// RankingEngine orders joined participants. Each call works on one consistent
// read of the store.
type RankingEngine struct {
	Store store.Store
}

func NewRankingEngine(st store.Store) *RankingEngine {
	return &RankingEngine{Store: st}
}

// SortStandings orders by points desc, then earlier join, then lower id, and
// assigns 1-based ranks in place.
func SortStandings(standings []models.Standing) []models.Standing {
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.ParticipantID < b.ParticipantID
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

// Standings returns the full ordered ranking.
func (r *RankingEngine) Standings(ctx context.Context) ([]models.Standing, error) {
	all, err := r.Store.JoinedStandings(ctx)
	if err != nil {
		return nil, err
	}
	return SortStandings(all), nil
}

// Top returns the first n standings, or fewer when fewer have joined.
func (r *RankingEngine) Top(ctx context.Context, n int) ([]models.Standing, error) {
	if n <= 0 {
		return []models.Standing{}, nil
	}
	all, err := r.Standings(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// Rank returns the standing of one participant, or ErrNotFound when it has not joined.
func (r *RankingEngine) Rank(ctx context.Context, id int64) (models.Standing, error) {
	all, err := r.Standings(ctx)
	if err != nil {
		return models.Standing{}, err
	}
	for _, s := range all {
		if s.ParticipantID == id {
			return s, nil
		}
	}
	return models.Standing{}, ErrNotFound
}

package brawler

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/kasuganosora/missionboard/model"
	"go.uber.org/zap"
)

const leaderboardKey = "leaderboard:points"

// RankEntry is one row of the leaderboard.
type RankEntry struct {
	Rank        int     `json:"rank"`
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	TotalPoints int     `json:"total_points"`
}

// Leaderboard returns the top brawlers by total points.
// The ranking comes from the cached sorted set when it is populated and
// from the database otherwise, in which case the cache is refilled.
func (s *Service) Leaderboard(ctx context.Context) ([]RankEntry, error) {
	members, err := s.cache.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(s.leaderboardSize-1))
	if err == nil && len(members) > 0 {
		ids := make([]int64, 0, len(members))
		for _, m := range members {
			id, err := strconv.ParseInt(m.Member, 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		brawlers, err := s.store.FindMany(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[int64]model.Brawler, len(brawlers))
		for _, b := range brawlers {
			byID[b.ID] = b
		}
		ranked := make([]model.Brawler, 0, len(ids))
		for _, id := range ids {
			if b, ok := byID[id]; ok {
				ranked = append(ranked, b)
			}
		}
		// Scores may lag the table; order by the rows just read.
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].TotalPoints != ranked[j].TotalPoints {
				return ranked[i].TotalPoints > ranked[j].TotalPoints
			}
			return ranked[i].ID < ranked[j].ID
		})
		entries := make([]RankEntry, len(ranked))
		for i, b := range ranked {
			entries[i] = rankEntry(i+1, b)
		}
		return entries, nil
	}
	if err != nil {
		s.logger.Warn("leaderboard cache read failed", zap.Error(err))
	}

	top, err := s.store.Top(ctx, s.leaderboardSize)
	if err != nil {
		return nil, err
	}
	entries := make([]RankEntry, len(top))
	for i, b := range top {
		entries[i] = rankEntry(i+1, b)
	}
	s.fill(ctx, top)
	return entries, nil
}

// RebuildLeaderboard replaces the cached ranking with the current top
// brawlers and returns how many were cached.
func (s *Service) RebuildLeaderboard(ctx context.Context) (int, error) {
	top, err := s.store.Top(ctx, s.leaderboardSize)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Del(ctx, leaderboardKey); err != nil {
		return 0, fmt.Errorf("brawler: clear leaderboard: %w", err)
	}
	s.fill(ctx, top)
	return len(top), nil
}

// InvalidateLeaderboard drops the cached ranking; the next read rebuilds it.
func (s *Service) InvalidateLeaderboard(ctx context.Context) error {
	return s.cache.Del(ctx, leaderboardKey)
}

func (s *Service) fill(ctx context.Context, top []model.Brawler) {
	for _, b := range top {
		if err := s.cache.ZAdd(ctx, leaderboardKey, float64(b.TotalPoints), strconv.FormatInt(b.ID, 10)); err != nil {
			s.logger.Warn("leaderboard cache write failed", zap.Error(err))
			return
		}
	}
}

func rankEntry(rank int, b model.Brawler) RankEntry {
	return RankEntry{
		Rank:        rank,
		ID:          b.ID,
		DisplayName: b.DisplayName,
		AvatarURL:   b.AvatarURL,
		TotalPoints: b.TotalPoints,
	}
}

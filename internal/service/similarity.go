package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/types"
	"go.uber.org/zap"
)

const (
	// RelevanceThreshold is the minimum similarity score a candidate needs
	RelevanceThreshold = 0.75
	minFetchK          = 20
	maxFetchK          = 100
	// maxReferenceRecipes caps how many candidates are quoted in a prompt
	maxReferenceRecipes = 3
)

// SimilarityRanker retrieves previously indexed recipes similar to a query,
// filters them by relevance and orders them by user affinity.
type SimilarityRanker struct {
	embedder Embedder
	index    VectorIndex
	profiles ProfileStore
	logger   *zap.Logger
}

var _ ISimilarityRanker = (*SimilarityRanker)(nil)

// NewSimilarityRanker creates a new SimilarityRanker
func NewSimilarityRanker(embedder Embedder, index VectorIndex, profiles ProfileStore, logger *zap.Logger) *SimilarityRanker {
	return &SimilarityRanker{
		embedder: embedder,
		index:    index,
		profiles: profiles,
		logger:   logger.Named("similarity"),
	}
}

// FetchK is the number of neighbours requested for a result cap of topK
func FetchK(topK int) int {
	return min(max(topK*4, minFetchK), maxFetchK)
}

// FindSimilar returns at most topK candidates for query. When userID is set
// the user's likes and saves re-order the results. Failures yield an empty
// result.
func (r *SimilarityRanker) FindSimilar(ctx context.Context, query string, topK int, userID *uuid.UUID) []types.SimilarityCandidate {
	var profile *types.UserPreferenceProfile
	if userID != nil && r.profiles != nil {
		p, err := r.profiles.GetUserProfile(ctx, *userID)
		if err != nil {
			r.logger.Warn("failed to load user affinities", zap.Stringer("user_id", userID), zap.Error(err))
		} else {
			profile = p
		}
	}
	return r.FindSimilarForProfile(ctx, query, topK, profile)
}

// FindSimilarForProfile is FindSimilar with an already loaded profile
func (r *SimilarityRanker) FindSimilarForProfile(ctx context.Context, query string, topK int, profile *types.UserPreferenceProfile) []types.SimilarityCandidate {
	if topK <= 0 {
		return []types.SimilarityCandidate{}
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Warn("failed to embed query, continuing without references", zap.Error(err))
		return []types.SimilarityCandidate{}
	}

	matches, err := r.index.Query(ctx, embedding, FetchK(topK))
	if err != nil {
		r.logger.Warn("similarity index unavailable, continuing without references", zap.Error(err))
		return []types.SimilarityCandidate{}
	}

	candidates := make([]types.SimilarityCandidate, 0, len(matches))
	for _, m := range matches {
		if m.ID == "" || m.Score < RelevanceThreshold {
			continue
		}
		c := candidateFromMetadata(m.ID, m.Metadata)
		c.SimilarityScore = m.Score
		c.IsUserSaved = profile.Saved(m.ID)
		c.IsUserLiked = profile.Liked(m.ID)
		candidates = append(candidates, c)
	}

	RankCandidates(candidates, profile.HasAffinity())

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	r.logger.Debug("similar recipes found",
		zap.Int("matches", len(matches)),
		zap.Int("returned", len(candidates)),
	)
	return candidates
}

// RankCandidates sorts candidates by score, descending. With byAffinity,
// saved recipes come first, then liked ones, then the rest.
func RankCandidates(candidates []types.SimilarityCandidate, byAffinity bool) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if byAffinity {
			ai, aj := affinityRank(candidates[i]), affinityRank(candidates[j])
			if ai != aj {
				return ai < aj
			}
		}
		return candidates[i].SimilarityScore > candidates[j].SimilarityScore
	})
}

func affinityRank(c types.SimilarityCandidate) int {
	switch {
	case c.IsUserSaved:
		return 0
	case c.IsUserLiked:
		return 1
	}
	return 2
}

func candidateFromMetadata(id string, meta map[string]any) types.SimilarityCandidate {
	return types.SimilarityCandidate{
		ID:          id,
		Title:       metaString(meta, "title"),
		Description: metaString(meta, "description"),
		Ingredients: metaStrings(meta, "ingredients"),
		Steps:       metaStrings(meta, "steps"),
		Tags:        metaStrings(meta, "tags"),
		MealType:    metaString(meta, "meal_type"),
	}
}

func metaString(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return s
}

func metaStrings(meta map[string]any, key string) []string {
	switch v := meta[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

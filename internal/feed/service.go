// Package feed builds the ranked post feed.
package feed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/emilythestrangee/cheffry/backend/internal/logging"
	"github.com/emilythestrangee/cheffry/backend/internal/metrics"
	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
)

// AffinityCache caches a user's ranked country list.
type AffinityCache interface {
	GetAffinity(ctx context.Context, userID string) ([]string, bool, error)
	SetAffinity(ctx context.Context, userID string, countries []string) error
	InvalidateAffinity(ctx context.Context, userID string) error
}

const (
	DefaultLimit = 100
	MaxLimit     = 100
)

type Service struct {
	store store.Store
	cache AffinityCache
	limit int
	log   zerolog.Logger
}

// NewService returns a feed service. cache may be nil.
func NewService(s store.Store, cache AffinityCache, limit int) *Service {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return &Service{
		store: s,
		cache: cache,
		limit: limit,
		log:   logging.Component("feed"),
	}
}

// Feed returns the newest posts ranked for the viewer. An empty
// homeCountry falls back to the viewer's profile country.
func (s *Service) Feed(ctx context.Context, viewerID, homeCountry string) ([]models.FeedPost, error) {
	posts, err := s.store.ListRecentPosts(ctx, s.limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	out, err := s.enrich(ctx, posts, viewerID)
	if err != nil {
		return nil, err
	}

	var affinity []string
	if viewerID != "" {
		if homeCountry == "" {
			if u, err := s.store.GetUser(ctx, viewerID); err == nil {
				homeCountry = u.Country
			}
		}
		affinity, err = s.Affinity(ctx, viewerID)
		if err != nil {
			return nil, err
		}
	}

	Rank(out, homeCountry, affinity)
	return out, nil
}

// UserPosts returns an author's posts, newest first, without ranking.
func (s *Service) UserPosts(ctx context.Context, viewerID, authorID string) ([]models.FeedPost, error) {
	posts, err := s.store.ListPostsByUser(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("list user posts: %w", err)
	}
	return s.enrich(ctx, posts, viewerID)
}

// Post returns a single enriched post.
func (s *Service) Post(ctx context.Context, viewerID, postID string) (*models.FeedPost, error) {
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	out, err := s.enrich(ctx, []models.Post{*p}, viewerID)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Affinity returns the viewer's country ranking, from cache when possible.
// Cache failures are logged and fall back to the store.
func (s *Service) Affinity(ctx context.Context, userID string) ([]string, error) {
	if s.cache != nil {
		countries, ok, err := s.cache.GetAffinity(ctx, userID)
		switch {
		case err != nil:
			metrics.RecordCacheLookup("error")
			s.log.Warn().Err(err).Str("user_id", userID).Msg("affinity cache read failed")
		case ok:
			metrics.RecordCacheLookup("hit")
			return countries, nil
		default:
			metrics.RecordCacheLookup("miss")
		}
	}

	counts, err := s.store.ListCountryInteractions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list country interactions: %w", err)
	}
	countries := AffinityOrder(counts)

	if s.cache != nil {
		if err := s.cache.SetAffinity(ctx, userID, countries); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("affinity cache write failed")
		}
	}
	return countries, nil
}

func (s *Service) enrich(ctx context.Context, posts []models.Post, viewerID string) ([]models.FeedPost, error) {
	if len(posts) == 0 {
		return []models.FeedPost{}, nil
	}

	ids := make([]string, 0, len(posts))
	authorIDs := make([]string, 0, len(posts))
	seen := make(map[string]bool, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
		if !seen[p.UserID] {
			seen[p.UserID] = true
			authorIDs = append(authorIDs, p.UserID)
		}
	}

	interactions, err := s.store.ListInteractionsForPosts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	comments, err := s.store.CountComments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	authors, err := s.store.GetUsers(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	return Enrich(posts, interactions, comments, authors, viewerID), nil
}

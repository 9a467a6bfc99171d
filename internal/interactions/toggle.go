// Package interactions applies like/dislike toggles to posts.
package interactions

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/emilythestrangee/cheffry/backend/internal/logging"
	"github.com/emilythestrangee/cheffry/backend/internal/metrics"
	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
)

var ErrInvalidType = errors.New("interaction type must be like or dislike")

// Action describes what a toggle did to the stored interaction.
type Action string

const (
	ActionCreated  Action = "created"
	ActionRemoved  Action = "removed"
	ActionSwitched Action = "switched"
)

// AffinityInvalidator drops a user's cached country ranking.
type AffinityInvalidator interface {
	InvalidateAffinity(ctx context.Context, userID string) error
}

type Toggler struct {
	store store.Store
	cache AffinityInvalidator
	log   zerolog.Logger
}

// NewToggler returns a Toggler. cache may be nil.
func NewToggler(s store.Store, cache AffinityInvalidator) *Toggler {
	return &Toggler{
		store: s,
		cache: cache,
		log:   logging.Component("interactions"),
	}
}

// Toggle applies typ to the user's interaction with the post: none creates
// it, the same type removes it, the other type replaces it. Every call then
// bumps the user's counter for the post's country, including removals.
func (t *Toggler) Toggle(ctx context.Context, userID, postID string, typ models.InteractionType) (*models.InteractionState, error) {
	if !typ.Valid() {
		return nil, ErrInvalidType
	}

	post, err := t.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	action, current, err := t.apply(ctx, userID, postID, typ)
	if err != nil {
		return nil, err
	}
	metrics.RecordToggle(string(typ), string(action))

	if post.Country != "" {
		if err := t.store.IncrementCountryInteraction(ctx, userID, post.Country); err != nil {
			return nil, fmt.Errorf("increment country interaction: %w", err)
		}
		if t.cache != nil {
			if err := t.cache.InvalidateAffinity(ctx, userID); err != nil {
				t.log.Warn().Err(err).Str("user_id", userID).Msg("affinity cache invalidation failed")
			}
		}
	}

	t.log.Debug().
		Str("user_id", userID).
		Str("post_id", postID).
		Str("type", string(typ)).
		Str("action", string(action)).
		Msg("interaction toggled")

	return t.state(ctx, postID, current)
}

func (t *Toggler) apply(ctx context.Context, userID, postID string, typ models.InteractionType) (Action, *models.InteractionType, error) {
	existing, err := t.store.GetInteraction(ctx, userID, postID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		i := &models.Interaction{UserID: userID, PostID: postID, Type: typ}
		if err := t.store.CreateInteraction(ctx, i); err != nil {
			return "", nil, fmt.Errorf("create interaction: %w", err)
		}
		return ActionCreated, &typ, nil
	case err != nil:
		return "", nil, fmt.Errorf("get interaction: %w", err)
	}

	if existing.Type == typ {
		if err := t.store.DeleteInteraction(ctx, existing.ID); err != nil {
			return "", nil, fmt.Errorf("delete interaction: %w", err)
		}
		return ActionRemoved, nil, nil
	}

	if err := t.store.UpdateInteractionType(ctx, existing.ID, typ); err != nil {
		return "", nil, fmt.Errorf("update interaction: %w", err)
	}
	return ActionSwitched, &typ, nil
}

func (t *Toggler) state(ctx context.Context, postID string, current *models.InteractionType) (*models.InteractionState, error) {
	list, err := t.store.ListInteractionsForPosts(ctx, []string{postID})
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	st := &models.InteractionState{PostID: postID, UserInteraction: current}
	for _, i := range list {
		switch i.Type {
		case models.InteractionLike:
			st.LikesCount++
		case models.InteractionDislike:
			st.DislikesCount++
		}
	}
	return st, nil
}

package interactions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
	"github.com/emilythestrangee/cheffry/backend/internal/store/docstore"
)

type recordingCache struct {
	invalidated []string
}

func (r *recordingCache) InvalidateAffinity(_ context.Context, userID string) error {
	r.invalidated = append(r.invalidated, userID)
	return nil
}

func setup(t *testing.T) (*Toggler, *docstore.Store, *recordingCache, *models.Post) {
	t.Helper()
	s, err := docstore.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	p := &models.Post{UserID: "author", Content: "jollof", Country: "Nigeria"}
	require.NoError(t, s.CreatePost(context.Background(), p))

	c := &recordingCache{}
	return NewToggler(s, c), s, c, p
}

func counter(t *testing.T, s store.Store, userID string) int64 {
	t.Helper()
	list, err := s.ListCountryInteractions(context.Background(), userID)
	require.NoError(t, err)
	if len(list) == 0 {
		return 0
	}
	return list[0].InteractionCount
}

func TestToggle_Sequence(t *testing.T) {
	tg, s, c, p := setup(t)
	ctx := context.Background()

	st, err := tg.Toggle(ctx, "u1", p.ID, models.InteractionLike)
	require.NoError(t, err)
	require.NotNil(t, st.UserInteraction)
	assert.Equal(t, models.InteractionLike, *st.UserInteraction)
	assert.Equal(t, 1, st.LikesCount)
	assert.Equal(t, 0, st.DislikesCount)

	st, err = tg.Toggle(ctx, "u1", p.ID, models.InteractionDislike)
	require.NoError(t, err)
	require.NotNil(t, st.UserInteraction)
	assert.Equal(t, models.InteractionDislike, *st.UserInteraction)
	assert.Equal(t, 0, st.LikesCount)
	assert.Equal(t, 1, st.DislikesCount)

	st, err = tg.Toggle(ctx, "u1", p.ID, models.InteractionDislike)
	require.NoError(t, err)
	assert.Nil(t, st.UserInteraction)
	assert.Equal(t, 0, st.DislikesCount)

	_, err = s.GetInteraction(ctx, "u1", p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// the counter never goes down, removals included
	assert.EqualValues(t, 3, counter(t, s, "u1"))
	assert.Equal(t, []string{"u1", "u1", "u1"}, c.invalidated)
}

func TestToggle_SameTypeTwiceClears(t *testing.T) {
	tg, s, _, p := setup(t)
	ctx := context.Background()

	_, err := tg.Toggle(ctx, "u1", p.ID, models.InteractionLike)
	require.NoError(t, err)
	st, err := tg.Toggle(ctx, "u1", p.ID, models.InteractionLike)
	require.NoError(t, err)
	assert.Nil(t, st.UserInteraction)
	assert.Equal(t, 0, st.LikesCount)

	list, err := s.ListInteractionsForPosts(ctx, []string{p.ID})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestToggle_CountsOtherUsers(t *testing.T) {
	tg, _, _, p := setup(t)
	ctx := context.Background()

	_, err := tg.Toggle(ctx, "u1", p.ID, models.InteractionLike)
	require.NoError(t, err)
	_, err = tg.Toggle(ctx, "u2", p.ID, models.InteractionLike)
	require.NoError(t, err)
	st, err := tg.Toggle(ctx, "u3", p.ID, models.InteractionDislike)
	require.NoError(t, err)

	assert.Equal(t, 2, st.LikesCount)
	assert.Equal(t, 1, st.DislikesCount)
	assert.Equal(t, models.InteractionDislike, *st.UserInteraction)
}

func TestToggle_InvalidType(t *testing.T) {
	tg, s, c, p := setup(t)

	_, err := tg.Toggle(context.Background(), "u1", p.ID, "love")
	assert.ErrorIs(t, err, ErrInvalidType)
	assert.EqualValues(t, 0, counter(t, s, "u1"))
	assert.Empty(t, c.invalidated)
}

func TestToggle_MissingPost(t *testing.T) {
	tg, s, _, _ := setup(t)

	_, err := tg.Toggle(context.Background(), "u1", "missing", models.InteractionLike)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.EqualValues(t, 0, counter(t, s, "u1"))
}

func TestToggle_NilCache(t *testing.T) {
	_, s, _, p := setup(t)
	tg := NewToggler(s, nil)

	_, err := tg.Toggle(context.Background(), "u1", p.ID, models.InteractionLike)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counter(t, s, "u1"))
}

package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/cheffry/backend/internal/cache"
	"github.com/emilythestrangee/cheffry/backend/internal/config"
	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
	"github.com/emilythestrangee/cheffry/backend/internal/store/docstore"
)

type fixture struct {
	store  *docstore.Store
	viewer *models.User
	posts  map[string]*models.Post
}

// seed builds a small world: the viewer lives in Ghana and has interacted
// most with Japan, then Italy.
func seed(t *testing.T) *fixture {
	t.Helper()
	s, err := docstore.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	viewer := &models.User{Name: "Viewer", Email: "viewer@example.com", Password: "x", Country: "Ghana"}
	author := &models.User{Name: "Author", Email: "author@example.com", Password: "x", Country: "Peru"}
	require.NoError(t, s.CreateUser(ctx, viewer))
	require.NoError(t, s.CreateUser(ctx, author))

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &fixture{store: s, viewer: viewer, posts: map[string]*models.Post{}}
	for i, c := range []string{"Italy", "Peru", "Ghana", "Japan", "Chile"} {
		p := &models.Post{UserID: author.ID, Content: c, Country: c, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, s.CreatePost(ctx, p))
		f.posts[c] = p
	}

	for range 3 {
		require.NoError(t, s.IncrementCountryInteraction(ctx, viewer.ID, "Japan"))
	}
	require.NoError(t, s.IncrementCountryInteraction(ctx, viewer.ID, "Italy"))

	require.NoError(t, s.CreateInteraction(ctx, &models.Interaction{UserID: viewer.ID, PostID: f.posts["Peru"].ID, Type: models.InteractionDislike}))
	require.NoError(t, s.CreateComment(ctx, &models.Comment{PostID: f.posts["Chile"].ID, UserID: viewer.ID, Content: "yum"}))
	return f
}

func countries(posts []models.FeedPost) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Country
	}
	return out
}

func TestFeed_RankedForViewer(t *testing.T) {
	f := seed(t)
	svc := NewService(f.store, nil, 0)

	posts, err := svc.Feed(context.Background(), f.viewer.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ghana", "Japan", "Italy", "Chile", "Peru"}, countries(posts))

	peru := posts[4]
	if assert.NotNil(t, peru.UserInteraction) {
		assert.Equal(t, models.InteractionDislike, *peru.UserInteraction)
	}
	assert.Equal(t, 1, peru.DislikesCount)
	assert.Equal(t, 1, posts[3].CommentsCount)
	assert.Equal(t, "Author", posts[0].Profile.Name)
}

func TestFeed_CountryOverride(t *testing.T) {
	f := seed(t)
	svc := NewService(f.store, nil, 0)

	posts, err := svc.Feed(context.Background(), f.viewer.ID, "Chile")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chile", "Japan", "Italy", "Ghana", "Peru"}, countries(posts))
}

func TestFeed_Anonymous(t *testing.T) {
	f := seed(t)
	svc := NewService(f.store, nil, 0)

	posts, err := svc.Feed(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chile", "Japan", "Ghana", "Peru", "Italy"}, countries(posts))
	for _, p := range posts {
		assert.Nil(t, p.UserInteraction)
	}
}

func TestFeed_Limit(t *testing.T) {
	f := seed(t)
	svc := NewService(f.store, nil, 2)

	posts, err := svc.Feed(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chile", "Japan"}, countries(posts))
}

func TestFeed_Empty(t *testing.T) {
	s, err := docstore.Open("")
	require.NoError(t, err)
	defer s.Close()

	posts, err := NewService(s, nil, 0).Feed(context.Background(), "", "")
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestUserPostsAndPost(t *testing.T) {
	f := seed(t)
	svc := NewService(f.store, nil, 0)
	ctx := context.Background()

	posts, err := svc.UserPosts(ctx, f.viewer.ID, f.posts["Peru"].UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Chile", "Japan", "Ghana", "Peru", "Italy"}, countries(posts))

	one, err := svc.Post(ctx, f.viewer.ID, f.posts["Peru"].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, one.DislikesCount)

	_, err = svc.Post(ctx, f.viewer.ID, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAffinity_UsesCache(t *testing.T) {
	f := seed(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	c := cache.NewWithClient(client, config.RedisConfig{AffinityTTL: time.Minute})

	svc := NewService(f.store, c, 0)
	ctx := context.Background()

	got, err := svc.Affinity(ctx, f.viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Japan", "Italy"}, got)
	assert.True(t, mr.Exists("affinity:"+f.viewer.ID))

	// the cached value wins until invalidated
	require.NoError(t, f.store.IncrementCountryInteraction(ctx, f.viewer.ID, "Peru"))
	for range 5 {
		require.NoError(t, f.store.IncrementCountryInteraction(ctx, f.viewer.ID, "Peru"))
	}
	got, err = svc.Affinity(ctx, f.viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Japan", "Italy"}, got)

	require.NoError(t, c.InvalidateAffinity(ctx, f.viewer.ID))
	got, err = svc.Affinity(ctx, f.viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Peru", "Japan", "Italy"}, got)
}

type brokenCache struct{}

func (brokenCache) GetAffinity(context.Context, string) ([]string, bool, error) {
	return nil, false, errors.New("redis down")
}
func (brokenCache) SetAffinity(context.Context, string, []string) error {
	return errors.New("redis down")
}
func (brokenCache) InvalidateAffinity(context.Context, string) error { return nil }

func TestAffinity_CacheFailureFallsBack(t *testing.T) {
	f := seed(t)
	svc := NewService(f.store, brokenCache{}, 0)

	got, err := svc.Affinity(context.Background(), f.viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Japan", "Italy"}, got)
}

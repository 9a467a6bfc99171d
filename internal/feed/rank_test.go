package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/emilythestrangee/cheffry/backend/internal/models"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func fp(id, country string, age time.Duration) models.FeedPost {
	return models.FeedPost{Post: models.Post{ID: id, Country: country, CreatedAt: t0.Add(-age)}}
}

func order(posts []models.FeedPost) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestRank(t *testing.T) {
	tests := []struct {
		name     string
		posts    []models.FeedPost
		home     string
		affinity []string
		want     []string
	}{
		{
			name: "home country first then newest",
			posts: []models.FeedPost{
				fp("a", "Peru", 1*time.Hour),
				fp("b", "Ghana", 3*time.Hour),
				fp("c", "Ghana", 2*time.Hour),
				fp("d", "Peru", 0),
			},
			home: "Ghana",
			want: []string{"c", "b", "d", "a"},
		},
		{
			name: "affinity rank before recency",
			posts: []models.FeedPost{
				fp("new-other", "Chile", 0),
				fp("jp", "Japan", 5*time.Hour),
				fp("it", "Italy", 4*time.Hour),
				fp("home", "Kenya", 9*time.Hour),
			},
			home:     "Kenya",
			affinity: []string{"Italy", "Japan"},
			want:     []string{"home", "it", "jp", "new-other"},
		},
		{
			name: "home beats affinity for the same country",
			posts: []models.FeedPost{
				fp("it", "Italy", 0),
				fp("mx", "Mexico", 1*time.Hour),
			},
			home:     "Mexico",
			affinity: []string{"Mexico", "Italy"},
			want:     []string{"mx", "it"},
		},
		{
			name: "no home and no affinity is newest first",
			posts: []models.FeedPost{
				fp("old", "Peru", 2*time.Hour),
				fp("new", "Chile", 0),
				fp("mid", "", time.Hour),
			},
			want: []string{"new", "mid", "old"},
		},
		{
			name: "exact ties keep input order",
			posts: []models.FeedPost{
				fp("first", "Peru", time.Hour),
				fp("second", "Peru", time.Hour),
				fp("third", "Peru", time.Hour),
			},
			home: "Peru",
			want: []string{"first", "second", "third"},
		},
		{
			name: "country match ignores case",
			posts: []models.FeedPost{
				fp("x", "france", time.Hour),
				fp("y", "Spain", 0),
			},
			home: "France",
			want: []string{"x", "y"},
		},
		{
			name: "posts without country never match an empty home",
			posts: []models.FeedPost{
				fp("blank", "", time.Hour),
				fp("aff", "Japan", 2*time.Hour),
			},
			affinity: []string{"Japan"},
			want:     []string{"aff", "blank"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Rank(tt.posts, tt.home, tt.affinity)
			assert.Equal(t, tt.want, order(tt.posts))
		})
	}
}

func TestAffinityOrder(t *testing.T) {
	got := AffinityOrder([]models.CountryInteraction{
		{Country: "Brazil", InteractionCount: 1},
		{Country: "Thailand", InteractionCount: 4},
		{Country: "Egypt", InteractionCount: 1},
		{Country: "", InteractionCount: 9},
	})
	assert.Equal(t, []string{"Thailand", "Brazil", "Egypt"}, got)
	assert.Empty(t, AffinityOrder(nil))
}

func TestEnrich(t *testing.T) {
	posts := []models.Post{
		{ID: "p1", UserID: "author"},
		{ID: "p2", UserID: "ghost"},
	}
	interactions := []models.Interaction{
		{PostID: "p1", UserID: "viewer", Type: models.InteractionLike},
		{PostID: "p1", UserID: "u2", Type: models.InteractionLike},
		{PostID: "p1", UserID: "u3", Type: models.InteractionDislike},
		{PostID: "p2", UserID: "u2", Type: models.InteractionDislike},
		{PostID: "other", UserID: "viewer", Type: models.InteractionLike},
	}
	authors := map[string]*models.User{"author": {ID: "author", Name: "Ada"}}

	out := Enrich(posts, interactions, map[string]int{"p1": 3}, authors, "viewer")
	assert.Len(t, out, 2)

	assert.Equal(t, 2, out[0].LikesCount)
	assert.Equal(t, 1, out[0].DislikesCount)
	assert.Equal(t, 3, out[0].CommentsCount)
	if assert.NotNil(t, out[0].UserInteraction) {
		assert.Equal(t, models.InteractionLike, *out[0].UserInteraction)
	}
	assert.Equal(t, "Ada", out[0].Profile.Name)

	assert.Equal(t, 0, out[1].LikesCount)
	assert.Equal(t, 1, out[1].DislikesCount)
	assert.Equal(t, 0, out[1].CommentsCount)
	assert.Nil(t, out[1].UserInteraction)
	assert.Nil(t, out[1].Profile)

	anon := Enrich(posts, interactions, nil, authors, "")
	assert.Nil(t, anon[0].UserInteraction)
	assert.Equal(t, 2, anon[0].LikesCount)
}

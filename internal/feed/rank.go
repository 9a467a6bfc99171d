package feed

import (
	"cmp"
	"slices"
	"strings"

	"github.com/emilythestrangee/cheffry/backend/internal/models"
)

// Enrich attaches derived counts, the author profile and the viewer's own
// reaction to each post. viewerID may be empty for anonymous viewers.
func Enrich(
	posts []models.Post,
	interactions []models.Interaction,
	commentCounts map[string]int,
	authors map[string]*models.User,
	viewerID string,
) []models.FeedPost {
	type tally struct {
		likes, dislikes int
		mine            *models.InteractionType
	}
	tallies := make(map[string]*tally, len(posts))
	for _, p := range posts {
		tallies[p.ID] = &tally{}
	}
	for _, i := range interactions {
		t, ok := tallies[i.PostID]
		if !ok {
			continue
		}
		switch i.Type {
		case models.InteractionLike:
			t.likes++
		case models.InteractionDislike:
			t.dislikes++
		}
		if viewerID != "" && i.UserID == viewerID {
			typ := i.Type
			t.mine = &typ
		}
	}

	out := make([]models.FeedPost, 0, len(posts))
	for _, p := range posts {
		t := tallies[p.ID]
		out = append(out, models.FeedPost{
			Post:            p,
			Profile:         authors[p.UserID].Profile(),
			LikesCount:      t.likes,
			DislikesCount:   t.dislikes,
			CommentsCount:   commentCounts[p.ID],
			UserInteraction: t.mine,
		})
	}
	return out
}

// AffinityOrder ranks countries by interaction count, highest first. Equal
// counts keep their input order.
func AffinityOrder(counts []models.CountryInteraction) []string {
	sorted := slices.Clone(counts)
	slices.SortStableFunc(sorted, func(a, b models.CountryInteraction) int {
		return cmp.Compare(b.InteractionCount, a.InteractionCount)
	})
	out := make([]string, 0, len(sorted))
	for _, c := range sorted {
		if c.Country != "" {
			out = append(out, c.Country)
		}
	}
	return out
}

// Rank orders posts in place: the viewer's home country first, then
// countries from the affinity list by rank, then everything else. Within
// each group newer posts come first; exact ties keep input order.
func Rank(posts []models.FeedPost, homeCountry string, affinity []string) {
	home := strings.ToLower(strings.TrimSpace(homeCountry))
	rank := make(map[string]int, len(affinity))
	for i, c := range affinity {
		key := strings.ToLower(c)
		if _, seen := rank[key]; !seen {
			rank[key] = i
		}
	}

	// bucket: 0 home, 1..n affinity rank, n+1 unranked
	unranked := len(affinity) + 1
	bucket := func(p *models.FeedPost) int {
		c := strings.ToLower(p.Country)
		if home != "" && c == home {
			return 0
		}
		if r, ok := rank[c]; ok {
			return r + 1
		}
		return unranked
	}

	slices.SortStableFunc(posts, func(a, b models.FeedPost) int {
		if c := cmp.Compare(bucket(&a), bucket(&b)); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

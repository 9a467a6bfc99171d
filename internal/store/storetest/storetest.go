// Package storetest holds the behavioural contract every store.Store
// implementation must satisfy.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run executes the whole contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Posts", func(t *testing.T) { testPosts(t, newStore(t)) })
	t.Run("Comments", func(t *testing.T) { testComments(t, newStore(t)) })
	t.Run("DeletePostCascades", func(t *testing.T) { testDeletePostCascades(t, newStore(t)) })
	t.Run("Interactions", func(t *testing.T) { testInteractions(t, newStore(t)) })
	t.Run("CountryInteractions", func(t *testing.T) { testCountryInteractions(t, newStore(t)) })
	t.Run("Chats", func(t *testing.T) { testChats(t, newStore(t)) })
	t.Run("DeleteUserCascades", func(t *testing.T) { testDeleteUserCascades(t, newStore(t)) })
}

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func mustUser(t *testing.T, s store.Store, email, country string) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, Password: "hash", Country: country}
	require.NoError(t, s.CreateUser(context.Background(), u))
	require.NotEmpty(t, u.ID)
	return u
}

func mustPost(t *testing.T, s store.Store, userID, country string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{UserID: userID, Content: "post from " + country, Country: country, CreatedAt: at}
	require.NoError(t, s.CreatePost(context.Background(), p))
	return p
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	u := mustUser(t, s, "Ada@Example.com", "Ghana")
	assert.Equal(t, "ada@example.com", u.Email)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ghana", got.Country)
	assert.Equal(t, "hash", got.Password)

	byEmail, err := s.GetUserByEmail(ctx, " ADA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	dup := &models.User{Email: "ada@example.com", Password: "x"}
	assert.ErrorIs(t, s.CreateUser(ctx, dup), store.ErrConflict)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	got.Country = "Kenya"
	got.AvatarURL = "https://cdn.example/a.png"
	require.NoError(t, s.UpdateUser(ctx, got))
	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kenya", got.Country)
	assert.Equal(t, "https://cdn.example/a.png", got.AvatarURL)

	assert.ErrorIs(t, s.UpdateUser(ctx, &models.User{ID: "missing", Email: "m@example.com"}), store.ErrNotFound)

	other := mustUser(t, s, "bo@example.com", "Peru")
	users, err := s.GetUsers(ctx, []string{u.ID, other.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "Peru", users[other.ID].Country)

	empty, err := s.GetUsers(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testPosts(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := mustUser(t, s, "a@example.com", "Italy")
	b := mustUser(t, s, "b@example.com", "Japan")

	p1 := mustPost(t, s, a.ID, "Italy", base)
	p2 := mustPost(t, s, b.ID, "Japan", base.Add(time.Minute))
	p3 := mustPost(t, s, a.ID, "Italy", base.Add(2*time.Minute))

	recent, err := s.ListRecentPosts(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{p3.ID, p2.ID}, ids(recent, func(p models.Post) string { return p.ID }))

	all, err := s.ListRecentPosts(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := s.ListPostsByUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p3.ID, p1.ID}, ids(mine, func(p models.Post) string { return p.ID }))

	withMedia := &models.Post{
		UserID:    b.ID,
		Content:   "ramen",
		Country:   "Japan",
		MediaURLs: []string{"https://cdn.example/1.jpg", "https://cdn.example/2,3.jpg"},
	}
	require.NoError(t, s.CreatePost(ctx, withMedia))
	got, err := s.GetPost(ctx, withMedia.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example/1.jpg", "https://cdn.example/2,3.jpg"}, []string(got.MediaURLs))
	assert.False(t, got.CreatedAt.IsZero())

	got.Content = "tonkotsu ramen"
	require.NoError(t, s.UpdatePost(ctx, got))
	got, err = s.GetPost(ctx, withMedia.ID)
	require.NoError(t, err)
	assert.Equal(t, "tonkotsu ramen", got.Content)

	_, err = s.GetPost(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.UpdatePost(ctx, &models.Post{ID: "missing"}), store.ErrNotFound)
}

func testComments(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "c@example.com", "France")
	p1 := mustPost(t, s, u.ID, "France", base)
	p2 := mustPost(t, s, u.ID, "France", base.Add(time.Minute))

	c1 := &models.Comment{PostID: p1.ID, UserID: u.ID, Content: "first", CreatedAt: base}
	c2 := &models.Comment{PostID: p1.ID, UserID: u.ID, Content: "second", CreatedAt: base.Add(time.Second)}
	c3 := &models.Comment{PostID: p2.ID, UserID: u.ID, Content: "other"}
	for _, c := range []*models.Comment{c1, c2, c3} {
		require.NoError(t, s.CreateComment(ctx, c))
	}

	list, err := s.ListComments(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c2.ID, c1.ID}, ids(list, func(c models.Comment) string { return c.ID }))

	counts, err := s.CountComments(ctx, []string{p1.ID, p2.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, counts[p1.ID])
	assert.Equal(t, 1, counts[p2.ID])
	assert.Equal(t, 0, counts["missing"])

	none, err := s.ListComments(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)

	orphan := &models.Comment{PostID: "missing", UserID: u.ID, Content: "lost"}
	assert.ErrorIs(t, s.CreateComment(ctx, orphan), store.ErrNotFound)
	counts, err = s.CountComments(ctx, []string{"missing"})
	require.NoError(t, err)
	assert.Equal(t, 0, counts["missing"])
}

func testDeletePostCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "d@example.com", "Spain")
	p := mustPost(t, s, u.ID, "Spain", base)
	keep := mustPost(t, s, u.ID, "Spain", base.Add(time.Minute))

	require.NoError(t, s.CreateComment(ctx, &models.Comment{PostID: p.ID, UserID: u.ID, Content: "bye"}))
	require.NoError(t, s.CreateComment(ctx, &models.Comment{PostID: keep.ID, UserID: u.ID, Content: "stay"}))
	require.NoError(t, s.CreateInteraction(ctx, &models.Interaction{UserID: u.ID, PostID: p.ID, Type: models.InteractionLike}))

	require.NoError(t, s.DeletePost(ctx, p.ID))

	_, err := s.GetPost(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	counts, err := s.CountComments(ctx, []string{p.ID, keep.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, counts[p.ID])
	assert.Equal(t, 1, counts[keep.ID])

	_, err = s.GetInteraction(ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.DeletePost(ctx, p.ID), store.ErrNotFound)
}

func testInteractions(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "e@example.com", "Mexico")
	v := mustUser(t, s, "f@example.com", "Peru")
	p := mustPost(t, s, u.ID, "Mexico", base)
	q := mustPost(t, s, u.ID, "Mexico", base.Add(time.Minute))

	_, err := s.GetInteraction(ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	i := &models.Interaction{UserID: u.ID, PostID: p.ID, Type: models.InteractionLike}
	require.NoError(t, s.CreateInteraction(ctx, i))

	dup := &models.Interaction{UserID: u.ID, PostID: p.ID, Type: models.InteractionDislike}
	assert.ErrorIs(t, s.CreateInteraction(ctx, dup), store.ErrConflict)

	require.NoError(t, s.UpdateInteractionType(ctx, i.ID, models.InteractionDislike))
	got, err := s.GetInteraction(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InteractionDislike, got.Type)

	require.NoError(t, s.CreateInteraction(ctx, &models.Interaction{UserID: v.ID, PostID: p.ID, Type: models.InteractionLike}))
	require.NoError(t, s.CreateInteraction(ctx, &models.Interaction{UserID: v.ID, PostID: q.ID, Type: models.InteractionLike}))

	list, err := s.ListInteractionsForPosts(ctx, []string{p.ID})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = s.ListInteractionsForPosts(ctx, []string{p.ID, q.ID})
	require.NoError(t, err)
	assert.Len(t, list, 3)

	require.NoError(t, s.DeleteInteraction(ctx, i.ID))
	_, err = s.GetInteraction(ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.DeleteInteraction(ctx, i.ID), store.ErrNotFound)
	assert.ErrorIs(t, s.UpdateInteractionType(ctx, "missing", models.InteractionLike), store.ErrNotFound)
}

func testCountryInteractions(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "g@example.com", "India")
	v := mustUser(t, s, "h@example.com", "India")

	for range 3 {
		require.NoError(t, s.IncrementCountryInteraction(ctx, u.ID, "Thailand"))
	}
	require.NoError(t, s.IncrementCountryInteraction(ctx, u.ID, "Brazil"))
	require.NoError(t, s.IncrementCountryInteraction(ctx, v.ID, "Brazil"))

	list, err := s.ListCountryInteractions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Thailand", list[0].Country)
	assert.EqualValues(t, 3, list[0].InteractionCount)
	assert.Equal(t, "Brazil", list[1].Country)
	assert.EqualValues(t, 1, list[1].InteractionCount)

	list, err = s.ListCountryInteractions(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.EqualValues(t, 1, list[0].InteractionCount)

	list, err = s.ListCountryInteractions(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testChats(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "i@example.com", "Greece")

	older := &models.ChefChat{UserID: u.ID, Title: "Moussaka", CreatedAt: base, UpdatedAt: base}
	newer := &models.ChefChat{UserID: u.ID, Title: "Souvlaki", CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Minute)}
	foreign := &models.ChefChat{UserID: "someone-else", Title: "Tacos"}
	for _, c := range []*models.ChefChat{older, newer, foreign} {
		require.NoError(t, s.CreateChat(ctx, c))
	}

	chats, err := s.ListChats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID, older.ID}, ids(chats, func(c models.ChefChat) string { return c.ID }))

	require.NoError(t, s.TouchChat(ctx, older.ID, base.Add(time.Hour)))
	chats, err = s.ListChats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{older.ID, newer.ID}, ids(chats, func(c models.ChefChat) string { return c.ID }))

	got, err := s.GetChat(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "Moussaka", got.Title)
	assert.True(t, got.UpdatedAt.Equal(base.Add(time.Hour)))

	m1 := &models.ChefMessage{ChatID: older.ID, Role: models.RoleUser, Content: "how?"}
	m2 := &models.ChefMessage{ChatID: older.ID, Role: models.RoleAssistant, Content: "like this"}
	m3 := &models.ChefMessage{ChatID: newer.ID, Role: models.RoleUser, Content: "other chat"}
	for _, m := range []*models.ChefMessage{m1, m2, m3} {
		require.NoError(t, s.AddMessage(ctx, m))
	}

	msgs, err := s.ListMessages(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{m1.ID, m2.ID}, ids(msgs, func(m models.ChefMessage) string { return m.ID }))
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)

	require.NoError(t, s.DeleteChat(ctx, older.ID))
	_, err = s.GetChat(ctx, older.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	msgs, err = s.ListMessages(ctx, older.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = s.ListMessages(ctx, newer.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	assert.ErrorIs(t, s.DeleteChat(ctx, older.ID), store.ErrNotFound)
	assert.ErrorIs(t, s.TouchChat(ctx, older.ID, time.Now()), store.ErrNotFound)

	late := &models.ChefMessage{ChatID: older.ID, Role: models.RoleAssistant, Content: "too late"}
	assert.ErrorIs(t, s.AddMessage(ctx, late), store.ErrNotFound)
	msgs, err = s.ListMessages(ctx, older.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func testDeleteUserCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	gone := mustUser(t, s, "gone@example.com", "Nepal")
	stay := mustUser(t, s, "stay@example.com", "Chile")

	ownPost := mustPost(t, s, gone.ID, "Nepal", base)
	otherPost := mustPost(t, s, stay.ID, "Chile", base.Add(time.Minute))

	// activity on the leaving user's post, by both users
	require.NoError(t, s.CreateComment(ctx, &models.Comment{PostID: ownPost.ID, UserID: stay.ID, Content: "nice"}))
	require.NoError(t, s.CreateInteraction(ctx, &models.Interaction{UserID: stay.ID, PostID: ownPost.ID, Type: models.InteractionLike}))
	// activity by the leaving user on someone else's post
	require.NoError(t, s.CreateComment(ctx, &models.Comment{PostID: otherPost.ID, UserID: gone.ID, Content: "yum"}))
	require.NoError(t, s.CreateComment(ctx, &models.Comment{PostID: otherPost.ID, UserID: stay.ID, Content: "thanks"}))
	require.NoError(t, s.CreateInteraction(ctx, &models.Interaction{UserID: gone.ID, PostID: otherPost.ID, Type: models.InteractionDislike}))
	require.NoError(t, s.CreateInteraction(ctx, &models.Interaction{UserID: stay.ID, PostID: otherPost.ID, Type: models.InteractionLike}))
	require.NoError(t, s.IncrementCountryInteraction(ctx, gone.ID, "Chile"))
	require.NoError(t, s.IncrementCountryInteraction(ctx, stay.ID, "Nepal"))

	chat := &models.ChefChat{UserID: gone.ID, Title: "Momo"}
	require.NoError(t, s.CreateChat(ctx, chat))
	require.NoError(t, s.AddMessage(ctx, &models.ChefMessage{ChatID: chat.ID, Role: models.RoleUser, Content: "fold?"}))
	keptChat := &models.ChefChat{UserID: stay.ID, Title: "Empanadas"}
	require.NoError(t, s.CreateChat(ctx, keptChat))

	require.NoError(t, s.DeleteUser(ctx, gone.ID))

	_, err := s.GetUser(ctx, gone.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "gone@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetPost(ctx, ownPost.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	mine, err := s.ListPostsByUser(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
	recent, err := s.ListRecentPosts(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{otherPost.ID}, ids(recent, func(p models.Post) string { return p.ID }))

	comments, err := s.ListComments(ctx, otherPost.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, stay.ID, comments[0].UserID)
	counts, err := s.CountComments(ctx, []string{ownPost.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, counts[ownPost.ID])

	list, err := s.ListInteractionsForPosts(ctx, []string{ownPost.ID, otherPost.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, stay.ID, list[0].UserID)
	assert.Equal(t, otherPost.ID, list[0].PostID)

	affinity, err := s.ListCountryInteractions(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, affinity)
	affinity, err = s.ListCountryInteractions(ctx, stay.ID)
	require.NoError(t, err)
	assert.Len(t, affinity, 1)

	_, err = s.GetChat(ctx, chat.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	msgs, err := s.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	chats, err := s.ListChats(ctx, stay.ID)
	require.NoError(t, err)
	assert.Len(t, chats, 1)

	// the address can be registered again
	mustUser(t, s, "gone@example.com", "Nepal")

	assert.ErrorIs(t, s.DeleteUser(ctx, gone.ID), store.ErrNotFound)
}

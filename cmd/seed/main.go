// Command seed fills the configured store with demo users, posts,
// comments and reactions.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/emilythestrangee/cheffry/backend/internal/auth"
	"github.com/emilythestrangee/cheffry/backend/internal/config"
	"github.com/emilythestrangee/cheffry/backend/internal/interactions"
	"github.com/emilythestrangee/cheffry/backend/internal/logging"
	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/server"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
)

const seedPassword = "cheffry123"

type seedUser struct {
	name, email, country string
	posts                []string
}

var users = []seedUser{
	{"Giulia Rossi", "giulia@example.com", "Italy", []string{
		"Fresh tagliatelle with a slow ragù, Sunday tradition.",
		"Lemon risotto with the last of the Amalfi lemons.",
	}},
	{"Mateo Quispe", "mateo@example.com", "Peru", []string{
		"Ceviche de corvina, leche de tigre on the side.",
		"Lomo saltado for a rainy evening.",
	}},
	{"Yuki Tanaka", "yuki@example.com", "Japan", []string{
		"Homemade tonkotsu ramen, 14 hours of broth.",
	}},
	{"Ama Mensah", "ama@example.com", "Ghana", []string{
		"Jollof rice, smoky party style.",
		"Kelewele with roasted peanuts.",
	}},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}
	logging.InitFromConfig(cfg)

	s, _, err := server.OpenStore(cfg)
	if err != nil {
		logging.Error().Err(err).Msg("failed to open store")
		os.Exit(1)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := seed(ctx, s); err != nil {
		logging.Error().Err(err).Msg("failed to seed")
		os.Exit(1)
	}
	logging.Info().Msg("seeding completed")
}

func seed(ctx context.Context, s store.Store) error {
	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		return err
	}

	var ids []string
	var posts []models.Post
	start := time.Now().UTC().Add(-48 * time.Hour)
	for i, su := range users {
		u, err := s.GetUserByEmail(ctx, su.email)
		if errors.Is(err, store.ErrNotFound) {
			u = &models.User{Name: su.name, Email: su.email, Password: hash, Country: su.country}
			if err := s.CreateUser(ctx, u); err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else {
			logging.Info().Str("email", su.email).Msg("user exists, skipping")
			ids = append(ids, u.ID)
			continue
		}
		ids = append(ids, u.ID)

		for j, content := range su.posts {
			p := models.Post{
				UserID:    u.ID,
				Content:   content,
				Country:   su.country,
				CreatedAt: start.Add(time.Duration(i*len(users)+j) * time.Hour),
			}
			if err := s.CreatePost(ctx, &p); err != nil {
				return err
			}
			posts = append(posts, p)
		}
	}

	toggler := interactions.NewToggler(s, nil)
	for i, p := range posts {
		for j, uid := range ids {
			if uid == p.UserID || (i+j)%3 == 0 {
				continue
			}
			typ := models.InteractionLike
			if (i+j)%4 == 0 {
				typ = models.InteractionDislike
			}
			if _, err := toggler.Toggle(ctx, uid, p.ID, typ); err != nil {
				return err
			}
		}
		if i%2 == 0 && len(ids) > 1 {
			c := models.Comment{PostID: p.ID, UserID: ids[(i+1)%len(ids)], Content: "Saving this one for the weekend!"}
			if err := s.CreateComment(ctx, &c); err != nil {
				return err
			}
		}
	}

	logging.Info().Int("users", len(ids)).Int("posts", len(posts)).Msg("seeded demo data")
	return nil
}

// Package store defines the persistence contract shared by the relational
// (sqlstore) and document (docstore) backends.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/emilythestrangee/cheffry/backend/internal/models"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUsers returns the users that exist among ids, keyed by id.
	GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	// DeleteUser removes the user with their posts, comments, interactions,
	// country counters and chef chats. Comments and interactions others left
	// on the user's posts are removed too.
	DeleteUser(ctx context.Context, id string) error
}

type PostStore interface {
	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	UpdatePost(ctx context.Context, p *models.Post) error
	// DeletePost removes the post together with its comments and interactions.
	DeletePost(ctx context.Context, id string) error
	// ListRecentPosts returns at most limit posts, newest first.
	ListRecentPosts(ctx context.Context, limit int) ([]models.Post, error)
	ListPostsByUser(ctx context.Context, userID string) ([]models.Post, error)

	// CreateComment fails with ErrNotFound when the post does not exist.
	CreateComment(ctx context.Context, c *models.Comment) error
	// ListComments returns a post's comments, newest first.
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
	CountComments(ctx context.Context, postIDs []string) (map[string]int, error)
}

type InteractionStore interface {
	GetInteraction(ctx context.Context, userID, postID string) (*models.Interaction, error)
	CreateInteraction(ctx context.Context, i *models.Interaction) error
	UpdateInteractionType(ctx context.Context, id string, t models.InteractionType) error
	DeleteInteraction(ctx context.Context, id string) error
	ListInteractionsForPosts(ctx context.Context, postIDs []string) ([]models.Interaction, error)

	// IncrementCountryInteraction adds one to the (user, country) counter,
	// creating it at 1 when absent.
	IncrementCountryInteraction(ctx context.Context, userID, country string) error
	// ListCountryInteractions returns the user's counters, highest count first.
	ListCountryInteractions(ctx context.Context, userID string) ([]models.CountryInteraction, error)
}

type ChefStore interface {
	CreateChat(ctx context.Context, c *models.ChefChat) error
	GetChat(ctx context.Context, id string) (*models.ChefChat, error)
	// ListChats returns the user's chats, most recently updated first.
	ListChats(ctx context.Context, userID string) ([]models.ChefChat, error)
	TouchChat(ctx context.Context, id string, at time.Time) error
	// DeleteChat removes the chat and all of its messages.
	DeleteChat(ctx context.Context, id string) error
	// AddMessage fails with ErrNotFound when the chat does not exist.
	AddMessage(ctx context.Context, m *models.ChefMessage) error
	// ListMessages returns a chat's messages, oldest first.
	ListMessages(ctx context.Context, chatID string) ([]models.ChefMessage, error)
}

// Store is the full persistence surface used by the services.
type Store interface {
	UserStore
	PostStore
	InteractionStore
	ChefStore

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

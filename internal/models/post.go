package models

import (
	"time"

	"github.com/lib/pq"
)

type Post struct {
	ID      string `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID  string `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Content string `gorm:"type:text;not null" json:"content"`
	// Stored as a Postgres array literal in a text column so the same schema
	// works on every supported dialect.
	MediaURLs pq.StringArray `gorm:"type:text" json:"media_urls"`
	Country   string         `gorm:"size:64;not null;index" json:"country"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// FeedPost is a post annotated with derived counts and the viewer's reaction.
// None of the extra fields are stored.
type FeedPost struct {
	Post
	Profile         *Profile         `json:"profiles"`
	LikesCount      int              `json:"likes_count"`
	DislikesCount   int              `json:"dislikes_count"`
	CommentsCount   int              `json:"comments_count"`
	UserInteraction *InteractionType `json:"user_interaction"`
}

type CreatePostRequest struct {
	Content   string   `json:"content" binding:"required,max=5000"`
	MediaURLs []string `json:"media_urls" binding:"omitempty,max=10,dive,url"`
	Country   string   `json:"country"`
}

type UpdatePostRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

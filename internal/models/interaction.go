package models

import "time"

// InteractionType is a user's reaction to a post.
type InteractionType string

const (
	InteractionLike    InteractionType = "like"
	InteractionDislike InteractionType = "dislike"
)

func (t InteractionType) Valid() bool {
	return t == InteractionLike || t == InteractionDislike
}

// Interaction is unique per (user, post). Re-applying the same type removes
// it; applying the other type replaces it.
type Interaction struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string          `gorm:"type:varchar(36);not null;uniqueIndex:ux_interaction_user_post,priority:1" json:"user_id"`
	PostID    string          `gorm:"type:varchar(36);not null;uniqueIndex:ux_interaction_user_post,priority:2;index" json:"post_id"`
	Type      InteractionType `gorm:"size:16;not null" json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CountryInteraction counts toggle calls per (user, country). It only ever
// grows; removals do not decrement it.
type CountryInteraction struct {
	UserID           string    `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	Country          string    `gorm:"size:64;primaryKey" json:"country"`
	InteractionCount int64     `gorm:"not null;default:0" json:"interaction_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (CountryInteraction) TableName() string { return "user_country_interactions" }

type ToggleInteractionRequest struct {
	Type InteractionType `json:"type" binding:"required,reaction"`
}

// InteractionState is returned after a toggle.
type InteractionState struct {
	PostID          string           `json:"post_id"`
	UserInteraction *InteractionType `json:"user_interaction"`
	LikesCount      int              `json:"likes_count"`
	DislikesCount   int              `json:"dislikes_count"`
}

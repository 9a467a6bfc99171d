package models

import "time"

type Comment struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PostID    string    `gorm:"type:varchar(36);not null;index" json:"post_id"`
	UserID    string    `gorm:"type:varchar(36);not null" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// CommentView is a comment with its author's profile.
type CommentView struct {
	Comment
	Profile *Profile `json:"profiles"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChefChat is one conversation thread with the chef assistant.
type ChefChat struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

type ChefMessage struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ChatID    string    `gorm:"type:varchar(36);not null;index:idx_chef_messages_chat,priority:1" json:"chat_id"`
	Role      Role      `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_chef_messages_chat,priority:2" json:"created_at"`
}

type CreateChatRequest struct {
	Title string `json:"title" binding:"required,max=255"`
}

type ChefRequest struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message" binding:"required,max=4000"`
	Country string `json:"userCountry"`
}

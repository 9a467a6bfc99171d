package handlers

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/emilythestrangee/cheffry/backend/internal/auth"
	"github.com/emilythestrangee/cheffry/backend/internal/chef"
	"github.com/emilythestrangee/cheffry/backend/internal/feed"
	"github.com/emilythestrangee/cheffry/backend/internal/interactions"
	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/notify"
	"github.com/emilythestrangee/cheffry/backend/internal/pikado"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
)

// ResetCodes stores one-time password reset codes.
type ResetCodes interface {
	SetResetCode(ctx context.Context, userID, code string) error
	ConsumeResetCode(ctx context.Context, userID, code string) (bool, error)
}

// Deps are the services shared by all handlers. ResetCodes may be nil,
// which disables password reset.
type Deps struct {
	Store      store.Store
	Feed       *feed.Service
	Toggler    *interactions.Toggler
	Chef       *chef.Manager
	Pikado     *pikado.Service
	Tokens     *auth.Issuer
	ResetCodes ResetCodes
	SMS        notify.Sender
}

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Post    *PostHandler
	Comment *CommentHandler
	User    *UserHandler
	Chef    *ChefHandler
	Pikado  *PikadoHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	registerValidators()
	if d.SMS == nil {
		d.SMS = notify.Disabled{}
	}
	return &Handler{
		Auth:    NewAuthHandler(d.Store, d.Tokens, d.ResetCodes, d.SMS),
		Post:    NewPostHandler(d.Store, d.Feed, d.Toggler),
		Comment: NewCommentHandler(d.Store),
		User:    NewUserHandler(d.Store, d.Feed),
		Chef:    NewChefHandler(d.Chef),
		Pikado:  NewPikadoHandler(d.Pikado),
	}
}

var validatorsOnce sync.Once

// registerValidators adds the custom binding tags to gin's validator.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("reaction", func(fl validator.FieldLevel) bool {
			return models.InteractionType(fl.Field().String()).Valid()
		})
	})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/cheffry/backend/internal/ai"
	"github.com/emilythestrangee/cheffry/backend/internal/chef"
	"github.com/emilythestrangee/cheffry/backend/internal/interactions"
	"github.com/emilythestrangee/cheffry/backend/internal/logging"
	"github.com/emilythestrangee/cheffry/backend/internal/pikado"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
)

var errForbidden = errors.New("forbidden")

// statusFor maps domain errors to an HTTP status and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, errForbidden), errors.Is(err, chef.ErrForbidden):
		return http.StatusForbidden, "You do not have access to this resource"
	case errors.Is(err, interactions.ErrInvalidType),
		errors.Is(err, chef.ErrEmptyMessage),
		errors.Is(err, pikado.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "Already exists"
	case errors.Is(err, chef.ErrStreamInProgress):
		return http.StatusConflict, "A reply is already being generated for this chat"
	case errors.Is(err, ai.ErrUnavailable), errors.Is(err, ai.ErrNotConfigured):
		return http.StatusServiceUnavailable, "The assistant is unavailable, please try again later"
	case errors.Is(err, pikado.ErrNoSuggestions), errors.Is(err, ai.ErrBadResponse):
		return http.StatusBadGateway, "The assistant returned no usable answer, please try again"
	}
	return http.StatusInternalServerError, "Internal server error"
}

func writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Msg("request failed")
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

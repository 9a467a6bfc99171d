package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/emilythestrangee/cheffry/backend/internal/auth"
	"github.com/emilythestrangee/cheffry/backend/internal/logging"
	"github.com/emilythestrangee/cheffry/backend/internal/middleware"
	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/notify"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
)

const resetSentMessage = "If an account with a phone number exists for this email, a reset code has been sent"

type AuthHandler struct {
	store  store.Store
	tokens *auth.Issuer
	resets ResetCodes
	sms    notify.Sender
	log    zerolog.Logger
}

func NewAuthHandler(s store.Store, tokens *auth.Issuer, resets ResetCodes, sms notify.Sender) *AuthHandler {
	return &AuthHandler{store: s, tokens: tokens, resets: resets, sms: sms, log: logging.Component("auth")}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		badRequest(c, "Name is required")
		return
	}
	country, ok := countryField(input.Country)
	if !ok {
		badRequest(c, "Unknown country")
		return
	}
	phone, err := phoneField(input.Phone)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	user := models.User{
		Name:     name,
		Email:    input.Email,
		Password: hashed,
		Phone:    phone,
		Country:  country,
	}
	if err := h.store.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		writeError(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.AuthResponse{
		Token:   token,
		User:    user,
		Message: "User registered successfully",
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), input.Email)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	if !auth.CheckPassword(user.Password, input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Token:   token,
		User:    *user,
		Message: "Login successful",
	})
}

// GetMe returns the authenticated user's account.
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, err := h.store.GetUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":      user,
		"has_phone": user.Phone != "",
	})
}

// ForgotPassword texts a reset code to the account's phone. The response
// does not reveal whether the account exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	if h.resets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Password reset is not available"})
		return
	}
	var input models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.GetUserByEmail(ctx, input.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusOK, gin.H{"message": resetSentMessage})
		return
	case err != nil:
		writeError(c, err)
		return
	}
	if user.Phone == "" {
		h.log.Info().Str("user_id", user.ID).Msg("password reset requested for account without phone")
		c.JSON(http.StatusOK, gin.H{"message": resetSentMessage})
		return
	}

	code, err := auth.NewResetCode()
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.resets.SetResetCode(ctx, user.ID, code); err != nil {
		writeError(c, err)
		return
	}
	if err := h.sms.Send(ctx, user.Phone, notify.ResetCodeMessage(code)); err != nil {
		h.log.Warn().Err(err).Str("user_id", user.ID).Msg("reset code sms failed")
	}
	c.JSON(http.StatusOK, gin.H{"message": resetSentMessage})
}

// ResetPassword sets a new password when the code matches.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	if h.resets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Password reset is not available"})
		return
	}
	var input models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.GetUserByEmail(ctx, input.Email)
	if errors.Is(err, store.ErrNotFound) {
		badRequest(c, "Invalid or expired code")
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	ok, err := h.resets.ConsumeResetCode(ctx, user.ID, input.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		badRequest(c, "Invalid or expired code")
		return
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	user.Password = hashed
	if err := h.store.UpdateUser(ctx, user); err != nil {
		writeError(c, err)
		return
	}
	h.log.Info().Str("user_id", user.ID).Msg("password reset")
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// countryField canonicalises an optional country. An empty value is valid.
func countryField(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	c, ok := models.LookupCountry(s)
	if !ok {
		return "", false
	}
	return c.Name, true
}

func phoneField(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return notify.NormalizePhone(s)
}

// ChangePassword replaces the signed-in user's password after checking the
// current one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var input models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.GetUser(ctx, middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if !auth.CheckPassword(user.Password, input.CurrentPassword) {
		badRequest(c, "Current password is incorrect")
		return
	}

	hashed, err := auth.HashPassword(input.NewPassword)
	if err != nil {
		writeError(c, err)
		return
	}
	user.Password = hashed
	if err := h.store.UpdateUser(ctx, user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// DeleteAccount removes the signed-in user and everything they own.
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID := middleware.UserID(c)
	if err := h.store.DeleteUser(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	h.log.Info().Str("user_id", userID).Msg("account deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/abeniben/CodeSight/internal/models"
	"github.com/abeniben/CodeSight/internal/store"
	"github.com/abeniben/CodeSight/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users store.UserStore
}

func NewAuthHandler(users store.UserStore) *AuthHandler {
	return &AuthHandler{users: users}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateEmailRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		Error(c, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 6 {
		Error(c, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		// Same default the signup form suggests
		username = parts[0]
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to create account")
		return
	}

	user, err := h.users.Create(c.Request.Context(), models.User{
		Username: username,
		Email:    email,
		Password: hash,
	})
	if err != nil {
		Error(c, http.StatusConflict, "email already registered")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil || !utils.CheckPasswordHash(req.Password, user.Password) {
		Error(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, MustCurrentUser(c))
}

// UpdateEmail changes the signed-in user's email, the one identity
// field the profile page edits.
func (h *AuthHandler) UpdateEmail(c *gin.Context) {
	user := MustCurrentUser(c)

	var req updateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || email == user.Email {
		c.JSON(http.StatusOK, user)
		return
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		Error(c, http.StatusBadRequest, "invalid email address")
		return
	}

	if err := h.users.UpdateEmail(c.Request.Context(), user.ID, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(c, http.StatusNotFound, "user not found")
			return
		}
		Error(c, http.StatusConflict, "email already in use")
		return
	}

	user.Email = email
	c.JSON(http.StatusOK, user)
}

package handlers

import (
	"github.com/abeniben/CodeSight/internal/middleware"
	"github.com/abeniben/CodeSight/internal/models"

	"github.com/gin-gonic/gin"
)

// CurrentUser returns the session user set by middleware.LoadUser.
func CurrentUser(c *gin.Context) *models.User {
	if user, exists := c.Get(middleware.CheckUserKey); exists {
		return user.(*models.User)
	}
	return nil
}

// MustCurrentUser is for routes behind AuthRequired.
func MustCurrentUser(c *gin.Context) *models.User {
	return c.MustGet(middleware.CheckUserKey).(*models.User)
}

// Error renders the JSON error envelope.
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

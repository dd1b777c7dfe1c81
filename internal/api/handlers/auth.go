package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/superbmd/superbmd/internal/auth"
)

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body auth.LoginRequest true "Login credentials"
// @Success 200 {object} auth.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func Login(authenticator auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.LoginRequest
		if !bindJSON(c, &req) {
			return
		}

		resp, err := authenticator.Login(req.Username, req.Password)
		if err != nil {
			handleServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// GetCurrentUser godoc
// @Summary Get current user
// @Description Get the currently authenticated user's information
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} auth.UserSummary
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func GetCurrentUser(authenticator auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authenticator.GetUserFromContext(c)
		if err != nil {
			handleServiceError(c, auth.ErrUnauthorized)
			return
		}

		c.JSON(http.StatusOK, auth.Summarize(user))
	}
}

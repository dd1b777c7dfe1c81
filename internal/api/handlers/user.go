package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/superbmd/superbmd/internal/query"
	"github.com/superbmd/superbmd/internal/service"
)

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty"`
}

// UpdateUserRequest is the body of PUT /users/{id}. Omitted fields are left unchanged.
type UpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=50"`
	Password *string `json:"password" binding:"omitempty,min=6"`
	Role     *string `json:"role" binding:"omitempty"`
}

type UserHandler struct {
	svc    *service.UserService
	limits query.Limits
}

func NewUserHandler(svc *service.UserService, limits query.Limits) *UserHandler {
	return &UserHandler{svc: svc, limits: limits}
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param search query string false "Substring of username"
// @Param role query string false "admin, responsible_party or viewer"
// @Success 200 {object} query.Result[models.User]
// @Failure 400 {object} ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	params := c.Request.URL.Query()
	page, err := query.ParsePage(params, h.limits)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	filter, err := query.ParseUserFilter(params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	res, err := h.svc.List(c.Request.Context(), user, filter, page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetUser godoc
// @Summary Get a user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	target, err := h.svc.Get(c.Request.Context(), user, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, target)
}

// CreateUser godoc
// @Summary Create a user (admin only)
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "User details"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	in := service.CreateUserRequest{Username: req.Username, Password: req.Password}
	if req.Role != "" {
		role, err := parseRole("role", req.Role)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		in.Role = role
	}

	created, err := h.svc.Create(c.Request.Context(), user, in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateUser godoc
// @Summary Update a user (admin only)
// @Description Partial update. Admins cannot change their own role.
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param user body UpdateUserRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	in := service.UpdateUserRequest{Username: req.Username, Password: req.Password}
	if req.Role != nil {
		role, err := parseRole("role", *req.Role)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		in.Role = &role
	}

	updated, err := h.svc.Update(c.Request.Context(), user, id, in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteUser godoc
// @Summary Delete a user (admin only)
// @Description Admins cannot delete their own account.
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), user, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

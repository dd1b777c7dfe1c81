package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/superbmd/superbmd/internal/query"
	"github.com/superbmd/superbmd/internal/service"
)

// CreateLocationRequest is the body of POST /lokasi
type CreateLocationRequest struct {
	KodeLokasi   string `json:"kode_lokasi" binding:"required,min=3,max=50"`
	NamaLokasi   string `json:"nama_lokasi" binding:"required,min=3,max=100"`
	AlamatLokasi string `json:"alamat_lokasi" binding:"required,min=5"`
}

// UpdateLocationRequest is the body of PUT /lokasi/{id}. Omitted fields are left unchanged.
type UpdateLocationRequest struct {
	KodeLokasi   *string `json:"kode_lokasi" binding:"omitempty,min=3,max=50"`
	NamaLokasi   *string `json:"nama_lokasi" binding:"omitempty,min=3,max=100"`
	AlamatLokasi *string `json:"alamat_lokasi" binding:"omitempty,min=5"`
}

type LocationHandler struct {
	svc    *service.LocationService
	limits query.Limits
}

func NewLocationHandler(svc *service.LocationService, limits query.Limits) *LocationHandler {
	return &LocationHandler{svc: svc, limits: limits}
}

// ListLocations godoc
// @Summary List locations
// @Description Paginated location listing; each item carries its asset count (jumlah_barang).
// @Tags lokasi
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param search query string false "Substring of kode_lokasi or nama_lokasi"
// @Success 200 {object} query.Result[service.LocationWithCount]
// @Failure 400 {object} ErrorResponse
// @Router /lokasi [get]
func (h *LocationHandler) ListLocations(c *gin.Context) {
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

	res, err := h.svc.List(c.Request.Context(), user, query.ParseLocationFilter(params), page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetLocation godoc
// @Summary Get a location
// @Tags lokasi
// @Security BearerAuth
// @Produce json
// @Param id path int true "Location ID"
// @Success 200 {object} service.LocationWithCount
// @Failure 404 {object} ErrorResponse
// @Router /lokasi/{id} [get]
func (h *LocationHandler) GetLocation(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	loc, err := h.svc.Get(c.Request.Context(), user, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// CreateLocation godoc
// @Summary Create a location (admin only)
// @Tags lokasi
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param location body CreateLocationRequest true "Location details"
// @Success 201 {object} service.LocationWithCount
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /lokasi [post]
func (h *LocationHandler) CreateLocation(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req CreateLocationRequest
	if !bindJSON(c, &req) {
		return
	}

	loc, err := h.svc.Create(c.Request.Context(), user, service.CreateLocationRequest{
		Code:    req.KodeLokasi,
		Name:    req.NamaLokasi,
		Address: req.AlamatLokasi,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loc)
}

// UpdateLocation godoc
// @Summary Update a location (admin only)
// @Tags lokasi
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Location ID"
// @Param location body UpdateLocationRequest true "Fields to change"
// @Success 200 {object} service.LocationWithCount
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /lokasi/{id} [put]
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateLocationRequest
	if !bindJSON(c, &req) {
		return
	}

	loc, err := h.svc.Update(c.Request.Context(), user, id, service.UpdateLocationRequest{
		Code:    req.KodeLokasi,
		Name:    req.NamaLokasi,
		Address: req.AlamatLokasi,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// DeleteLocation godoc
// @Summary Delete a location (admin only)
// @Description Fails with 409 while any asset still references the location.
// @Tags lokasi
// @Security BearerAuth
// @Param id path int true "Location ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /lokasi/{id} [delete]
func (h *LocationHandler) DeleteLocation(c *gin.Context) {
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

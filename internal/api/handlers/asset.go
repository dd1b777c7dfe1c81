package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/superbmd/superbmd/internal/models"
	"github.com/superbmd/superbmd/internal/query"
	"github.com/superbmd/superbmd/internal/service"
)

// CreateAssetRequest is the body of POST /barang
type CreateAssetRequest struct {
	KodeBarang      string  `json:"kode_barang" binding:"required,min=3,max=100"`
	NamaBarang      string  `json:"nama_barang" binding:"required,min=3,max=200"`
	Kondisi         string  `json:"kondisi" binding:"omitempty"`
	IDLokasi        uint    `json:"id_lokasi" binding:"required,gt=0"`
	PenanggungJawab string  `json:"penanggung_jawab" binding:"required,min=3,max=50"`
	TanggalMasuk    string  `json:"tanggal_masuk" binding:"required,datetime=2006-01-02"`
	GambarAset      *string `json:"gambar_aset" binding:"omitempty,max=2048"`
}

// UpdateAssetRequest is the body of PUT /barang/{id}. Omitted fields are left unchanged.
type UpdateAssetRequest struct {
	KodeBarang      *string `json:"kode_barang" binding:"omitempty,min=3,max=100"`
	NamaBarang      *string `json:"nama_barang" binding:"omitempty,min=3,max=200"`
	Kondisi         *string `json:"kondisi" binding:"omitempty"`
	IDLokasi        *uint   `json:"id_lokasi" binding:"omitempty,gt=0"`
	PenanggungJawab *string `json:"penanggung_jawab" binding:"omitempty,min=3,max=50"`
	TanggalMasuk    *string `json:"tanggal_masuk" binding:"omitempty,datetime=2006-01-02"`
	GambarAset      *string `json:"gambar_aset" binding:"omitempty,max=2048"`
}

// AssetResponse is an asset with its location name flattened alongside the embedded location
type AssetResponse struct {
	models.Asset
	NamaLokasi string `json:"nama_lokasi"`
}

func newAssetResponse(a models.Asset) AssetResponse {
	resp := AssetResponse{Asset: a}
	if a.Location != nil {
		resp.NamaLokasi = a.Location.Name
	}
	return resp
}

type AssetHandler struct {
	svc    *service.AssetService
	limits query.Limits
}

func NewAssetHandler(svc *service.AssetService, limits query.Limits) *AssetHandler {
	return &AssetHandler{svc: svc, limits: limits}
}

// ListAssets godoc
// @Summary List assets
// @Description Paginated, filtered asset listing. Responsible parties only see their own assets.
// @Tags barang
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param search query string false "Substring of kode_barang or nama_barang"
// @Param location_id query int false "Location ID"
// @Param condition query string false "good, light_damage or heavy_damage"
// @Param penanggung_jawab query string false "Substring of the responsible party"
// @Param start_date query string false "Intake date lower bound (YYYY-MM-DD)"
// @Param end_date query string false "Intake date upper bound, inclusive (YYYY-MM-DD)"
// @Success 200 {object} query.Result[AssetResponse]
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /barang [get]
func (h *AssetHandler) ListAssets(c *gin.Context) {
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
	filter, err := query.ParseAssetFilter(params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	res, err := h.svc.List(c.Request.Context(), user, filter, page)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]AssetResponse, len(res.Items))
	for i, a := range res.Items {
		items[i] = newAssetResponse(a)
	}
	c.JSON(http.StatusOK, query.Result[AssetResponse]{Items: items, Pagination: res.Pagination})
}

// GetAsset godoc
// @Summary Get an asset
// @Tags barang
// @Security BearerAuth
// @Produce json
// @Param id path int true "Asset ID"
// @Success 200 {object} AssetResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /barang/{id} [get]
func (h *AssetHandler) GetAsset(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	asset, err := h.svc.Get(c.Request.Context(), user, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAssetResponse(*asset))
}

// CreateAsset godoc
// @Summary Create an asset (admin only)
// @Tags barang
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param asset body CreateAssetRequest true "Asset details"
// @Success 201 {object} AssetResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /barang [post]
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req CreateAssetRequest
	if !bindJSON(c, &req) {
		return
	}

	in := service.CreateAssetRequest{
		Code:             req.KodeBarang,
		Name:             req.NamaBarang,
		LocationID:       req.IDLokasi,
		ResponsibleParty: req.PenanggungJawab,
		ImageURL:         req.GambarAset,
	}
	if req.Kondisi != "" {
		cond, err := parseCondition("kondisi", req.Kondisi)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		in.Condition = cond
	}
	entry, err := parseDate("tanggal_masuk", req.TanggalMasuk)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	in.EntryDate = entry

	asset, err := h.svc.Create(c.Request.Context(), user, in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAssetResponse(*asset))
}

// UpdateAsset godoc
// @Summary Update an asset (admin only)
// @Description Partial update; only supplied fields change and tanggal_pembaruan is refreshed.
// @Tags barang
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Asset ID"
// @Param asset body UpdateAssetRequest true "Fields to change"
// @Success 200 {object} AssetResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /barang/{id} [put]
func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateAssetRequest
	if !bindJSON(c, &req) {
		return
	}

	in := service.UpdateAssetRequest{
		Code:             req.KodeBarang,
		Name:             req.NamaBarang,
		LocationID:       req.IDLokasi,
		ResponsibleParty: req.PenanggungJawab,
		ImageURL:         req.GambarAset,
	}
	if req.Kondisi != nil {
		cond, err := parseCondition("kondisi", *req.Kondisi)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		in.Condition = &cond
	}
	if req.TanggalMasuk != nil {
		entry, err := parseDate("tanggal_masuk", *req.TanggalMasuk)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		in.EntryDate = &entry
	}

	asset, err := h.svc.Update(c.Request.Context(), user, id, in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAssetResponse(*asset))
}

// DeleteAsset godoc
// @Summary Delete an asset (admin only)
// @Tags barang
// @Security BearerAuth
// @Param id path int true "Asset ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /barang/{id} [delete]
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
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

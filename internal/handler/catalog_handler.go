package handler

import (
	"net/http"

	"tapandbuy/internal/model"
	"tapandbuy/internal/service"

	"github.com/rs/zerolog"
)

// CatalogHandler serves categories and banners.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// ListCategories handles GET /api/categories.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	h.listCategories(w, r, true)
}

// AdminListCategories handles GET /api/admin/categories.
func (h *CatalogHandler) AdminListCategories(w http.ResponseWriter, r *http.Request) {
	h.listCategories(w, r, false)
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	categories, err := h.service.ListCategories(r.Context(), activeOnly)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory handles POST /api/admin/categories.
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var c model.Category
	if !decodeJSON(w, r, &c, h.logger) {
		return
	}
	if err := h.service.CreateCategory(r.Context(), &c); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCategory handles PUT /api/admin/categories/{id}.
func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var c model.Category
	if !decodeJSON(w, r, &c, h.logger) {
		return
	}
	c.ID = id
	if err := h.service.UpdateCategory(r.Context(), &c); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCategory handles DELETE /api/admin/categories/{id}.
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBanners handles GET /api/banners.
func (h *CatalogHandler) ListBanners(w http.ResponseWriter, r *http.Request) {
	h.listBanners(w, r, true)
}

// AdminListBanners handles GET /api/admin/banners.
func (h *CatalogHandler) AdminListBanners(w http.ResponseWriter, r *http.Request) {
	h.listBanners(w, r, false)
}

func (h *CatalogHandler) listBanners(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	banners, err := h.service.ListBanners(r.Context(), activeOnly)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, banners)
}

// CreateBanner handles POST /api/admin/banners.
func (h *CatalogHandler) CreateBanner(w http.ResponseWriter, r *http.Request) {
	var b model.Banner
	if !decodeJSON(w, r, &b, h.logger) {
		return
	}
	if err := h.service.CreateBanner(r.Context(), &b); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// UpdateBanner handles PUT /api/admin/banners/{id}.
func (h *CatalogHandler) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var b model.Banner
	if !decodeJSON(w, r, &b, h.logger) {
		return
	}
	b.ID = id
	if err := h.service.UpdateBanner(r.Context(), &b); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DeleteBanner handles DELETE /api/admin/banners/{id}.
func (h *CatalogHandler) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.service.DeleteBanner(r.Context(), id); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadBannerImage handles POST /api/admin/banners/{id}/image.
func (h *CatalogHandler) UploadBannerImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	contentType, data, ok := readImage(w, r, h.logger)
	if !ok {
		return
	}

	banner, err := h.service.UploadBannerImage(r.Context(), id, contentType, data)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, banner)
}

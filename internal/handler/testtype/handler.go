package testtype

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/sahilrms/lab-master/pkg/errors"

	"github.com/sahilrms/lab-master/internal/handler"
	"github.com/sahilrms/lab-master/internal/middleware"
	"github.com/sahilrms/lab-master/internal/model"
	"github.com/sahilrms/lab-master/internal/service/access"
	"github.com/sahilrms/lab-master/internal/service/testtype"
)

// Handler exposes the test-type registry. Reads are open to any staff or
// patient role; writes and seeding are admin-only.
type Handler struct {
	types *testtype.Service
}

func NewHandler(types *testtype.Service) *Handler {
	return &Handler{types: types}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/test-types")
	{
		group.GET("", h.List)
		group.GET("/catalog", h.Catalog)
		group.GET("/code/:code", h.GetByCode)
		group.GET("/:id", h.Get)
		group.GET("/:id/parameters", h.GetParameters)
		group.POST("", h.Create)
		group.PUT("/:id", h.Update)
		group.DELETE("/:id", h.Delete)
		group.POST("/seed", h.Seed)
	}
}

func (h *Handler) List(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}
	if err := access.CanReadTestTypes(principal); err != nil {
		handler.RespondError(c, err)
		return
	}

	filters := &model.TestTypeFilters{}
	if raw := c.Query("category"); raw != "" {
		filters.Category = &raw
	}
	if raw := c.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			handler.RespondError(c, apperrors.Validation("invalid is_active filter", err))
			return
		}
		filters.IsActive = &active
	}

	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		handler.RespondError(c, apperrors.Validation("invalid pagination", err))
		return
	}

	configs, err := h.types.List(c.Request.Context(), filters, page)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(configs))
}

func (h *Handler) Get(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}
	if err := access.CanReadTestTypes(principal); err != nil {
		handler.RespondError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.Validation("invalid test type ID", err))
		return
	}

	config, err := h.types.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(config))
}

func (h *Handler) GetByCode(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}
	if err := access.CanReadTestTypes(principal); err != nil {
		handler.RespondError(c, err)
		return
	}

	config, err := h.types.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(config))
}

func (h *Handler) GetParameters(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}
	if err := access.CanReadTestTypes(principal); err != nil {
		handler.RespondError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.Validation("invalid test type ID", err))
		return
	}

	params, err := h.types.GetParameters(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(params))
}

// Catalog returns the built-in definitions without persisting them, so an
// operator can review what a seed run would create.
func (h *Handler) Catalog(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}
	if err := access.CanReadTestTypes(principal); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(testtype.DefaultCatalog()))
}

func (h *Handler) Create(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}
	if err := access.CanManageTestTypes(principal); err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.CreateTestTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.Validation(err.Error(), err))
		return
	}

	created, err := h.types.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) Update(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}
	if err := access.CanManageTestTypes(principal); err != nil {
		handler.RespondError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.Validation("invalid test type ID", err))
		return
	}

	var patch model.TestTypePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		handler.RespondError(c, apperrors.Validation(err.Error(), err))
		return
	}

	updated, err := h.types.Update(c.Request.Context(), id, &patch)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) Delete(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}
	if err := access.CanManageTestTypes(principal); err != nil {
		handler.RespondError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.Validation("invalid test type ID", err))
		return
	}

	if err := h.types.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"deleted": id}))
}

func (h *Handler) Seed(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}
	if err := access.CanManageTestTypes(principal); err != nil {
		handler.RespondError(c, err)
		return
	}

	seeded, err := h.types.SeedDefaults(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"seeded": len(seeded),
		"items":  seeded,
	}))
}

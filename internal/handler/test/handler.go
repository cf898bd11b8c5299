package test

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/sahilrms/lab-master/pkg/errors"

	"github.com/sahilrms/lab-master/internal/handler"
	"github.com/sahilrms/lab-master/internal/middleware"
	"github.com/sahilrms/lab-master/internal/model"
	"github.com/sahilrms/lab-master/internal/service/access"
	"github.com/sahilrms/lab-master/internal/service/sample"
	"github.com/sahilrms/lab-master/internal/service/test"
)

// Handler exposes the test lifecycle and sample tracking operations. Every
// route requires an authenticated principal; the access policy decides the
// rest.
type Handler struct {
	tests   *test.Service
	samples *sample.Service
}

func NewHandler(tests *test.Service, samples *sample.Service) *Handler {
	return &Handler{tests: tests, samples: samples}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	tests := r.Group("/tests")
	{
		tests.POST("", h.CreateTest)
		tests.GET("", h.ListTests)
		tests.GET("/:id", h.GetTest)
		tests.PATCH("/:id", h.UpdateTest)
		tests.POST("/:id/result", h.RecordResult)
		tests.GET("/:id/samples", h.ListSamples)
		tests.POST("/:id/samples", h.CreateSample)
	}
	samples := r.Group("/samples")
	{
		samples.GET("/:id", h.GetSample)
		samples.PATCH("/:id", h.UpdateSample)
	}
}

func (h *Handler) CreateTest(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}
	if err := access.CanCreateTest(principal); err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.CreateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.Validation(err.Error(), err))
		return
	}

	created, err := h.tests.CreateTest(c.Request.Context(), &req, principal.ID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) ListTests(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}

	filters, page, err := parseTestQuery(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	scoped, err := access.ScopeTestFilters(principal, filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	tests, err := h.tests.List(c.Request.Context(), scoped, page)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(tests))
}

func (h *Handler) GetTest(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.Validation("invalid test ID", err))
		return
	}

	found, err := h.tests.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if err := access.CanReadTest(principal, found.PatientID); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) UpdateTest(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}
	if err := access.CanUpdateTest(principal); err != nil {
		handler.RespondError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.Validation("invalid test ID", err))
		return
	}

	var patch model.TestPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		handler.RespondError(c, apperrors.Validation(err.Error(), err))
		return
	}

	updated, err := h.tests.UpdateStatusOrResult(c.Request.Context(), id, &patch)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) RecordResult(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}
	if err := access.CanUpdateTest(principal); err != nil {
		handler.RespondError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.Validation("invalid test ID", err))
		return
	}

	var req model.RecordResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.Validation(err.Error(), err))
		return
	}

	updated, err := h.tests.RecordResult(c.Request.Context(), id, req.Result, req.CompletedAt)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) ListSamples(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.Validation("invalid test ID", err))
		return
	}

	parent, err := h.tests.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if err := access.CanReadTest(principal, parent.PatientID); err != nil {
		handler.RespondError(c, err)
		return
	}

	samples, err := h.samples.ListByTest(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(samples))
}

func (h *Handler) CreateSample(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}
	if err := access.CanUpdateSample(principal); err != nil {
		handler.RespondError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.Validation("invalid test ID", err))
		return
	}

	var req struct {
		SampleType string `json:"sample_type" binding:"required"`
		Notes      string `json:"notes,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.Validation(err.Error(), err))
		return
	}

	created, err := h.samples.CreateSample(c.Request.Context(), id, req.SampleType, req.Notes)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) GetSample(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.Validation("invalid sample ID", err))
		return
	}

	found, err := h.samples.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	// Ownership follows the parent test.
	parent, err := h.tests.Get(c.Request.Context(), found.TestID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if err := access.CanReadSample(principal, parent.PatientID); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) UpdateSample(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		handler.RespondError(c, apperrors.Unauthenticated(nil))
		return
	}
	if err := access.CanUpdateSample(principal); err != nil {
		handler.RespondError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, apperrors.Validation("invalid sample ID", err))
		return
	}

	var patch model.SamplePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		handler.RespondError(c, apperrors.Validation(err.Error(), err))
		return
	}

	updated, err := h.samples.UpdateStatus(c.Request.Context(), id, &patch)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func parseTestQuery(c *gin.Context) (*model.TestFilters, model.Pagination, error) {
	filters := &model.TestFilters{}

	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, model.Pagination{}, apperrors.Validation("invalid patient_id filter", err)
		}
		filters.PatientID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := model.TestStatus(raw)
		if !status.Valid() {
			return nil, model.Pagination{}, apperrors.Validation("invalid status filter", nil)
		}
		filters.Status = &status
	}

	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		return nil, model.Pagination{}, apperrors.Validation("invalid pagination", err)
	}
	return filters, page, nil
}

// Package handlers provides HTTP handlers for API endpoints.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/janovincze/mnemosyne/internal/api/middleware"
	"github.com/janovincze/mnemosyne/internal/api/models"
	"github.com/janovincze/mnemosyne/internal/api/services"
)

// CheckpointHandler handles checkpoint-related HTTP requests.
type CheckpointHandler struct {
	service *services.ProgressService
}

// NewCheckpointHandler creates a new CheckpointHandler.
func NewCheckpointHandler(service *services.ProgressService) *CheckpointHandler {
	return &CheckpointHandler{service: service}
}

// Get retrieves the authenticated viewer's checkpoint for one piece of content.
// GET /api/v1/viewers/me/checkpoints/:content
func (h *CheckpointHandler) Get(c *gin.Context) {
	viewerID := middleware.GetViewerID(c)

	cp, err := h.service.Get(c.Request.Context(), viewerID, c.Param("content"))
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CheckpointResponse{Checkpoint: cp})
}

// Save upserts the authenticated viewer's checkpoint for one piece of content.
// PUT /api/v1/viewers/me/checkpoints/:content
func (h *CheckpointHandler) Save(c *gin.Context) {
	viewerID := middleware.GetViewerID(c)

	var req models.SaveCheckpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.RespondWithError(c, models.NewBadRequestError(
			c.Request.URL.Path,
			"invalid request body: "+err.Error(),
		))
		return
	}

	cp, err := h.service.Save(c.Request.Context(), viewerID, c.Param("content"), &req)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CheckpointResponse{Checkpoint: cp})
}

// List retrieves all of the authenticated viewer's checkpoints.
// GET /api/v1/viewers/me/checkpoints
func (h *CheckpointHandler) List(c *gin.Context) {
	viewerID := middleware.GetViewerID(c)

	checkpoints, err := h.service.List(c.Request.Context(), viewerID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CheckpointListResponse{
		Checkpoints: checkpoints,
		TotalCount:  len(checkpoints),
	})
}

// ContinueWatching retrieves the viewer's unfinished checkpoints.
// GET /api/v1/viewers/me/continue-watching
func (h *CheckpointHandler) ContinueWatching(c *gin.Context) {
	viewerID := middleware.GetViewerID(c)

	checkpoints, err := h.service.ContinueWatching(c.Request.Context(), viewerID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CheckpointListResponse{
		Checkpoints: checkpoints,
		TotalCount:  len(checkpoints),
	})
}

// respondWithServiceError converts service errors to HTTP responses.
func respondWithServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var notFoundErr *services.NotFoundError

	switch {
	case errors.As(err, &validationErr):
		models.RespondWithError(c, models.NewValidationError(
			c.Request.URL.Path,
			validationErr.Errors,
		))
	case errors.As(err, &notFoundErr):
		models.RespondWithError(c, models.NewNotFoundError(
			c.Request.URL.Path,
			notFoundErr.Error(),
		))
	default:
		models.RespondWithError(c, models.NewInternalError(
			c.Request.URL.Path,
			"an unexpected error occurred",
		))
	}
}

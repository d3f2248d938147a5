package remittance

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rcm/rcm/internal/platform/auth"
	"github.com/rcm/rcm/pkg/pagination"
)

// maxUploadBytes bounds a remittance file upload.
const maxUploadBytes = 10 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "billing"))
	g.GET("/era-queue", h.GetQueue)
	g.GET("/era/posting-stats", h.GetPostingStats)
	g.GET("/era/:id", h.GetBatch)
	g.POST("/era/upload", h.UploadFile)
	g.POST("/era/bulk-post", h.BulkPost)
	g.POST("/era/:id/auto-post", h.AutoPost)
	g.POST("/era/:id/requeue", h.Requeue)
	g.POST("/era/:id/fail", h.MarkFailed)
}

func (h *Handler) GetQueue(c echo.Context) error {
	providerID, err := uuid.Parse(c.QueryParam("provider_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid provider_id")
	}
	filter := QueueFilter{
		Status:        c.QueryParam("status"),
		PayerContains: c.QueryParam("payer"),
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Queue(c.Request().Context(), providerID, filter, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetBatch(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	batch, items, err := h.svc.GetBatch(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrBatchNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "batch not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"batch": batch,
		"items": items,
	})
}

// AutoPost runs the posting engine over one batch. A batch that partially
// posts is still a 200: exceptions are business outcomes the operator works
// through, not request failures.
func (h *Handler) AutoPost(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	summary, err := h.svc.ProcessBatch(c.Request().Context(), id, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		if errors.Is(err, ErrBatchNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "batch not found")
		}
		if errors.Is(err, ErrBatchNotPending) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}

type bulkPostRequest struct {
	ERAIDs []uuid.UUID `json:"era_ids"`
}

func (h *Handler) BulkPost(c echo.Context) error {
	var req bulkPostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.ERAIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "era_ids is required")
	}
	results := h.svc.BulkPost(c.Request().Context(), req.ERAIDs, auth.UserIDFromContext(c.Request().Context()))
	return c.JSON(http.StatusOK, map[string]interface{}{"results": results})
}

func (h *Handler) GetPostingStats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) UploadFile(c echo.Context) error {
	providerID, err := uuid.Parse(c.QueryParam("provider_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid provider_id")
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.IngestFile(c.Request().Context(), providerID, raw, fileHeader.Filename)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) Requeue(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	batch, err := h.svc.Requeue(c.Request().Context(), id, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		if errors.Is(err, ErrBatchNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "batch not found")
		}
		if errors.Is(err, ErrBatchNotPending) {
			return echo.NewHTTPError(http.StatusConflict, "batch is not in exception status")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, batch)
}

func (h *Handler) MarkFailed(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	batch, err := h.svc.MarkFailed(c.Request().Context(), id, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		if errors.Is(err, ErrBatchNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "batch not found")
		}
		if errors.Is(err, ErrBatchNotPending) {
			return echo.NewHTTPError(http.StatusConflict, "batch is not in exception status")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, batch)
}

package claims

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rcm/rcm/internal/platform/auth"
	"github.com/rcm/rcm/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "billing"))
	g.POST("/claims", h.CreateClaim)
	g.GET("/claims/aging", h.AgingReport)
	g.GET("/claims/:number", h.GetClaim)
	g.GET("/claims/:number/postings", h.ListPostings)
}

func (h *Handler) CreateClaim(c echo.Context) error {
	var req CreateClaimRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	claim, err := h.svc.CreateClaim(c.Request().Context(), req)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
				"is_valid": false,
				"errors":   verr.Errors,
			})
		}
		if errors.Is(err, ErrDuplicateClaimNumber) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, claim)
}

func (h *Handler) GetClaim(c echo.Context) error {
	claim, err := h.svc.LookupClaim(c.Request().Context(), c.Param("number"))
	if err != nil {
		if errors.Is(err, ErrClaimNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "claim not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, claim)
}

func (h *Handler) ListPostings(c echo.Context) error {
	claim, err := h.svc.LookupClaim(c.Request().Context(), c.Param("number"))
	if err != nil {
		if errors.Is(err, ErrClaimNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "claim not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPostings(c.Request().Context(), claim.ID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) AgingReport(c echo.Context) error {
	providerID, err := uuid.Parse(c.QueryParam("provider_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid provider_id")
	}
	report, err := h.svc.Aging(c.Request().Context(), providerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

package routing

import (
	"errors"
	"net/http"

	"agri-supply/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for route planning.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

// NewHandler creates a new routing handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the route planning endpoints open to any authenticated user.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/routes/plan", h.PlanRoute)
}

// RegisterAdminRoutes mounts the admin-only planning endpoints on a group already
// restricted to admins.
func (h *Handler) RegisterAdminRoutes(g *echo.Group) {
	g.POST("/routes/user-farms", h.PlanUserFarms)
	g.GET("/routes/pending-orders", h.PlanPendingOrders)
}

func (h *Handler) PlanRoute(c echo.Context) error {
	var req models.RoutePlanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	resp, err := h.svc.PlanRoute(c.Request().Context(), req)
	if err != nil {
		return h.planError(c, "Handler.PlanRoute", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) PlanUserFarms(c echo.Context) error {
	var req models.UserFarmsRouteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	resp, err := h.svc.PlanUserFarms(c.Request().Context(), req)
	if err != nil {
		return h.planError(c, "Handler.PlanUserFarms", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) PlanPendingOrders(c echo.Context) error {
	var start *string
	if s := c.QueryParam("startingFarmId"); s != "" {
		start = &s
	}

	resp, err := h.svc.PlanPendingOrders(c.Request().Context(), start)
	if err != nil {
		return h.planError(c, "Handler.PlanPendingOrders", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) planError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "No farms found for the request"})
	case errors.Is(err, models.ErrNoRoutablePoints):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "None of the farms have coordinates"})
	case errors.Is(err, models.ErrValidation):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
	}
	c.Logger().Error(op+": ", err)
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to plan route"})
}

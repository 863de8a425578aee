package autoorder

import (
	"errors"
	"net/http"

	"agri-supply/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for auto-orders.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

// NewHandler creates a new auto-order handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the auto-order endpoints. The group must already be admin-only.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/create", h.CreateAutoOrders)
	g.GET("/availability-report", h.AvailabilityReport)
	g.GET("/availability-details/:cropName", h.AvailabilityDetails)
}

func (h *Handler) CreateAutoOrders(c echo.Context) error {
	adminID, _ := c.Get("userID").(string)

	var req models.AutoOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	result, err := h.svc.CreateAutoOrders(c.Request().Context(), adminID, req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidUnit):
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
		case errors.Is(err, models.ErrTransactionFailure):
			c.Logger().Error("Handler.CreateAutoOrders: ", err)
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Auto-order batch failed and was rolled back"})
		}
		c.Logger().Error("Handler.CreateAutoOrders: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to create auto-orders"})
	}

	if len(result.OrdersCreated) == 0 {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"message":              "No stock available for any requested crop",
			"unfulfilled_requests": result.Unfulfilled,
		})
	}

	return c.JSON(http.StatusCreated, models.AutoOrderResponse{
		OrdersCreated: len(result.OrdersCreated),
		Orders:        result.OrdersCreated,
		Unfulfilled:   result.Unfulfilled,
	})
}

func (h *Handler) AvailabilityReport(c echo.Context) error {
	report, err := h.svc.AvailabilityReport(c.Request().Context())
	if err != nil {
		c.Logger().Error("Handler.AvailabilityReport: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to build availability report"})
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) AvailabilityDetails(c echo.Context) error {
	crop := c.Param("cropName")

	details, err := h.svc.AvailabilityDetails(c.Request().Context(), crop)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Crop name is required"})
		}
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "No farmers have stock of " + crop})
		}
		c.Logger().Error("Handler.AvailabilityDetails: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve availability details"})
	}
	return c.JSON(http.StatusOK, details)
}

package order

import (
	"errors"
	"net/http"
	"strconv"

	"agri-supply/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate // For request body validation
}

// NewHandler creates a new order handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the order endpoints on an authenticated group. Role-restricted
// routes take the guards as route middleware.
func (h *Handler) RegisterRoutes(g *echo.Group, adminOnly, farmerOnly echo.MiddlewareFunc) {
	g.GET("/orders", h.ListAllOrders, adminOnly)
	g.GET("/orders/:orderId", h.GetOrderDetails)
	g.PATCH("/orders/:orderId/status", h.UpdateStatus)
	g.GET("/farmer/orders", h.ListFarmerOrders, farmerOnly)
}

// RegisterAdminRoutes mounts the admin order endpoints on the admin group.
func (h *Handler) RegisterAdminRoutes(g *echo.Group) {
	g.PATCH("/orders/:orderId", h.AdminUpdate)
}

// pagination reads page and limit, falling back to 1 and 10.
func pagination(c echo.Context) (page, limit int) {
	page, limit = 1, 10
	if pageStr := c.QueryParam("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	return page, limit
}

func (h *Handler) ListFarmerOrders(c echo.Context) error {
	userID := c.Get("userID").(string)
	page, limit := pagination(c)

	list, err := h.svc.ListFarmerOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		c.Logger().Error("Handler.ListFarmerOrders: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve orders"})
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) ListAllOrders(c echo.Context) error {
	// Role check is done in middleware
	page, limit := pagination(c)

	list, err := h.svc.ListAllOrders(c.Request().Context(), page, limit)
	if err != nil {
		c.Logger().Error("Handler.ListAllOrders: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to list all orders"})
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) GetOrderDetails(c echo.Context) error {
	userID := c.Get("userID").(string)
	role := c.Get("userRole").(string)

	order, err := h.svc.GetOrderDetails(c.Request().Context(), c.Param("orderId"), userID, role)
	if err != nil {
		return h.orderError(c, "Handler.GetOrderDetails", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	userID := c.Get("userID").(string)
	role := c.Get("userRole").(string)

	var req models.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	order, err := h.svc.UpdateStatus(c.Request().Context(), c.Param("orderId"), userID, role, req.Status)
	if err != nil {
		return h.orderError(c, "Handler.UpdateStatus", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *Handler) AdminUpdate(c echo.Context) error {
	var req models.AdminUpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	order, err := h.svc.AdminUpdate(c.Request().Context(), c.Param("orderId"), req)
	if err != nil {
		return h.orderError(c, "Handler.AdminUpdate", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *Handler) orderError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Order not found"})
	case errors.Is(err, models.ErrForbidden):
		return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Access denied"})
	case errors.Is(err, models.ErrInvalidStatusTransition):
		return c.JSON(http.StatusConflict, models.ErrorResponse{Message: err.Error()})
	case errors.Is(err, models.ErrValidation):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
	}
	c.Logger().Error(op+": ", err)
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to process order"})
}

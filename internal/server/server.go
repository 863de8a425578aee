package server

import (
	"context"
	"net/http"
	"time"

	"agri-supply/internal/config"
	"agri-supply/internal/logging"
	"agri-supply/internal/metrics"
	"agri-supply/internal/middleware"
	"agri-supply/internal/models"
	"agri-supply/internal/modules/autoorder"
	"agri-supply/internal/modules/order"
	"agri-supply/internal/modules/routing"
	"agri-supply/internal/modules/units"
	"agri-supply/pkg/notify"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Deps are the process-level collaborators the HTTP surface is built from.
type Deps struct {
	Config   *config.Config
	Pool     *pgxpool.Pool
	Notifier notify.ServiceInterface
	Metrics  metrics.Recorder
}

// New assembles the echo instance with every route mounted.
func New(d Deps) *echo.Echo {
	log := logging.New("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{d.Config.ClientOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: d.Config.ClientOrigin != "*",
	}))
	e.Use(requestLogger(log))

	e.GET("/health", health(d.Pool))
	if d.Config.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	engine := autoorder.NewEngine(
		autoorder.NewRepository(d.Pool),
		units.NewDefaultConverter(),
		d.Notifier,
		d.Metrics,
		logging.New("autoorder"),
	)
	autoOrderHandler := autoorder.NewHandler(autoorder.NewService(autoorder.NewRepository(d.Pool), engine))
	routingHandler := routing.NewHandler(routing.NewService(routing.NewRepository(d.Pool), d.Metrics, logging.New("routing")))
	orderHandler := order.NewHandler(order.NewService(order.NewRepository(d.Pool), logging.New("order")))

	adminOnly := middleware.RequireRole(models.RoleAdmin)
	farmerOnly := middleware.RequireRole(models.RoleFarmer)

	api := e.Group("", middleware.JWT(d.Config.JWTSecret))
	autoOrderHandler.RegisterRoutes(api.Group("/auto-orders", adminOnly))
	routingHandler.RegisterRoutes(api)
	orderHandler.RegisterRoutes(api, adminOnly, farmerOnly)

	admin := api.Group("/admin", adminOnly)
	routingHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)

	return e
}

func health(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		if pool != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

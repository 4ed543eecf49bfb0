package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/coursehub/marketplace/internal/api/handler"
	"github.com/coursehub/marketplace/internal/api/middleware"
	"github.com/coursehub/marketplace/internal/core/auth"
	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

const metricsSubsystem = "marketplace"

// Dependencies is everything the router needs to mount the API.
type Dependencies struct {
	Auth        ports.AuthService
	Users       ports.UserService
	Courses     ports.CourseService
	Payments    ports.PaymentService
	Enrollments ports.EnrollmentService

	Tokens middleware.TokenValidator

	// Probes are checked by /health/ready, keyed by dependency name.
	Probes      map[string]handler.Pinger
	CORSOrigins []string
	Log         zerolog.Logger

	// Registry receives the HTTP metrics and backs /metrics. Nil means the
	// default prometheus registry, where the custom collectors live.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     deps.CORSOrigins,
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, "Idempotency-Key"},
		AllowCredentials: true,
	}))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: registerer,
	}))

	// --- Operations (no auth required) ---
	health := handler.NewHealthHandler(deps.Probes)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authn := middleware.Auth(deps.Tokens)
	anyRole := middleware.RBAC(domain.RoleAdmin, domain.RoleTeacher, domain.RoleUser)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	staff := middleware.RBAC(domain.RoleAdmin, domain.RoleTeacher)
	signedIn := middleware.Require(auth.AuthenticatedPolicy())

	// --- Users ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	userHandler := handler.NewUserHandler(deps.Users)

	e.POST("/user/create", authHandler.Register)
	e.POST("/user/token", authHandler.Login)

	users := e.Group("/user", authn)
	users.GET("/", userHandler.List, adminOnly)
	users.GET("/:id", userHandler.Get, anyRole)
	users.DELETE("/delete/:id", userHandler.Delete, adminOnly)
	users.PATCH("/change-password/:id", userHandler.ChangePassword, signedIn)
	users.PATCH("/change-email/:id", userHandler.ChangeEmail, signedIn)
	users.PATCH("/update/:id", userHandler.Update, adminOnly)

	// --- Courses ---
	courseHandler := handler.NewCourseHandler(deps.Courses)

	courses := e.Group("/course", authn)
	courses.GET("/", courseHandler.List, staff)
	courses.GET("/random-courses/", courseHandler.Random, anyRole)
	courses.GET("/my-courses/:user_id", courseHandler.MyCourses, anyRole)
	courses.GET("/:id", courseHandler.Get, anyRole)
	courses.POST("/create", courseHandler.Create, staff)
	courses.PATCH("/update/:id", courseHandler.Update, staff)
	courses.DELETE("/delete/:id", courseHandler.Delete, staff)

	// --- Payments ---
	paymentHandler := handler.NewPaymentHandler(deps.Payments)

	payments := e.Group("/payment", authn, anyRole)
	payments.POST("/create", paymentHandler.Create)
	payments.POST("/update/:id/status", paymentHandler.UpdateStatus, adminOnly)
	payments.POST("/:id/charge", paymentHandler.Charge)
	payments.POST("/:id/sync", paymentHandler.Sync)
	payments.GET("/:id", paymentHandler.Get)

	// --- Enrollments ---
	enrollmentHandler := handler.NewEnrollmentHandler(deps.Enrollments)

	enrollments := e.Group("/userCourse", authn, anyRole)
	enrollments.GET("/", enrollmentHandler.List)
	enrollments.GET("/my-courses/:user_id", enrollmentHandler.Count)
	enrollments.GET("/:user_id", enrollmentHandler.ListByUser)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}


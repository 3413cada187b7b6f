package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/coursesphere/coursesphere-api/docs"
	"github.com/coursesphere/coursesphere-api/internal/api/handler"
	"github.com/coursesphere/coursesphere-api/internal/api/middleware"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
	"github.com/coursesphere/coursesphere-api/internal/infrastructure/http/handlers"
)

// Deps carries everything the router needs. Zero-valued options fall back to
// defaults.
type Deps struct {
	Auth        ports.AuthService
	Users       ports.UserService
	Courses     ports.CourseService
	Lessons     ports.LessonService
	Invitations ports.InvitationService
	Verifier    ports.TokenVerifier

	// Checkers are probed by /health/ready, keyed by dependency name.
	Checkers map[string]handlers.Checker

	// Registry collects the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry

	Log            zerolog.Logger
	RequestTimeout time.Duration
	// LoginRate is requests per minute per client IP on /login and /register.
	LoginRate  float64
	LoginBurst int
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: func() string { return ulid.Make().String() },
	}))
	e.Use(echomiddleware.Recover())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders: []string{handler.HeaderTotalCount},
	}))
	e.Use(promMiddleware(d.Registry))
	if d.RequestTimeout > 0 {
		e.Use(echomiddleware.ContextTimeoutWithConfig(echomiddleware.ContextTimeoutConfig{
			Timeout: d.RequestTimeout,
		}))
	}

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewHealthDependenciesHandler(d.Checkers).Readiness)
	e.GET("/metrics", promHandler(d.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	limiter := loginLimiter(d.LoginRate, d.LoginBurst)
	e.POST("/register", authHandler.Register, limiter)
	e.POST("/login", authHandler.Login, limiter)

	auth := middleware.Auth(d.Verifier)
	e.POST("/logout", authHandler.Logout, auth)

	// --- Users ---
	userHandler := handler.NewUserHandler(d.Users)
	e.POST("/users", userHandler.Create)
	e.GET("/me", userHandler.Me, auth)
	e.GET("/users", userHandler.List, auth)
	e.GET("/users/:id", userHandler.Get, auth)

	// --- Courses ---
	courseHandler := handler.NewCourseHandler(d.Courses, d.Lessons)
	courses := e.Group("/courses", auth)
	courses.GET("", courseHandler.List)
	courses.POST("", courseHandler.Create)
	courses.GET("/:id", courseHandler.Get)
	courses.PATCH("/:id", courseHandler.Update)
	courses.PUT("/:id", courseHandler.Update)
	courses.DELETE("/:id", courseHandler.Delete)
	courses.GET("/:id/lessons", courseHandler.Lessons)
	courses.POST("/:id/instructors", courseHandler.AddInstructor)
	courses.DELETE("/:id/instructors/:userId", courseHandler.RemoveInstructor)

	// --- Lessons ---
	lessonHandler := handler.NewLessonHandler(d.Lessons)
	lessons := e.Group("/lessons", auth)
	lessons.GET("", lessonHandler.List)
	lessons.POST("", lessonHandler.Create)
	lessons.GET("/:id", lessonHandler.Get)
	lessons.PATCH("/:id", lessonHandler.Update)
	lessons.PUT("/:id", lessonHandler.Update)
	lessons.DELETE("/:id", lessonHandler.Delete)

	// --- Invitations ---
	invitationHandler := handler.NewInvitationHandler(d.Invitations)
	invitations := e.Group("/invitations", auth)
	invitations.GET("", invitationHandler.List)
	invitations.POST("", invitationHandler.Create)
	invitations.POST("/:id/accept", invitationHandler.Accept)
	invitations.POST("/:id/decline", invitationHandler.Decline)

	return e
}

func promMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	if reg == nil {
		return echoprometheus.NewMiddleware("coursesphere")
	}
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "coursesphere",
		Registerer: reg,
	})
}

func promHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

// loginLimiter throttles credential endpoints per client IP. A non-positive
// rate disables it.
func loginLimiter(perMinute float64, burst int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if burst < 1 {
		burst = 1
	}
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perMinute / 60),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
		},
	})
}

// requestLogger writes one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			switch {
			case v.Status >= http.StatusInternalServerError:
				event = log.Error().Err(v.Error)
			case v.Error != nil:
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

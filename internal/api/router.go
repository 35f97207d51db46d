package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nekogravitycat/mentor-booking-backend/internal/auth"
	"github.com/nekogravitycat/mentor-booking-backend/internal/availability"
	availabilityHttp "github.com/nekogravitycat/mentor-booking-backend/internal/availability/http"
	"github.com/nekogravitycat/mentor-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/mentor-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/mentor-booking-backend/internal/file"
	fileHttp "github.com/nekogravitycat/mentor-booking-backend/internal/file/http"
	"github.com/nekogravitycat/mentor-booking-backend/internal/logger"
	"github.com/nekogravitycat/mentor-booking-backend/internal/mentor"
	mentorHttp "github.com/nekogravitycat/mentor-booking-backend/internal/mentor/http"
	"github.com/nekogravitycat/mentor-booking-backend/internal/profile"
	profileHttp "github.com/nekogravitycat/mentor-booking-backend/internal/profile/http"
)

// Config carries the services the router exposes.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       logger.Logger
	JWTManager   *auth.JWTManager

	ProfileService profile.Service
	MentorService  mentor.Service
	BookingService booking.Service
	FileService    file.Service
	Availability   *availability.Generator

	MaxUploadBytes int64

	// HealthCheck reports whether backing stores are reachable. Optional.
	HealthCheck func(ctx context.Context) error
}

var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:8081", // Swagger
}

func allowedOrigins(cfg Config) []string {
	if !cfg.IsProduction {
		return devOrigins
	}
	var origins []string
	for _, o := range strings.Split(cfg.ProdOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// NewRouter assembles middleware and registers every module's routes.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(cfg.Logger), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins(cfg)
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", requestIDHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	if len(corsConfig.AllowOrigins) == 0 {
		// cors.New panics on an empty origin list
		corsConfig.AllowOrigins = nil
		corsConfig.AllowOriginFunc = func(string) bool { return false }
	}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", healthHandler(cfg.HealthCheck))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	profileHandler := profileHttp.NewHandler(cfg.ProfileService, cfg.Logger)
	mentorHandler := mentorHttp.NewHandler(cfg.MentorService, cfg.Logger)
	availabilityHandler := availabilityHttp.NewHandler(cfg.Availability, cfg.Logger)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.FileService, cfg.MaxUploadBytes, cfg.Logger)
	fileHandler := fileHttp.NewHandler(cfg.FileService, cfg.Logger)

	v1 := r.Group("/v1")
	{
		profileHttp.RegisterRoutes(v1, profileHandler, authMiddleware)
		availabilityHttp.RegisterRoutes(v1, availabilityHandler)
		mentorHttp.RegisterRoutes(v1, mentorHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware)
		fileHttp.RegisterRoutes(v1, fileHandler, authMiddleware)
	}

	return r
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/mentor-booking-backend/internal/api"
	"github.com/nekogravitycat/mentor-booking-backend/internal/auth"
	"github.com/nekogravitycat/mentor-booking-backend/internal/availability"
	"github.com/nekogravitycat/mentor-booking-backend/internal/booking"
	"github.com/nekogravitycat/mentor-booking-backend/internal/cache"
	"github.com/nekogravitycat/mentor-booking-backend/internal/config"
	"github.com/nekogravitycat/mentor-booking-backend/internal/file"
	"github.com/nekogravitycat/mentor-booking-backend/internal/logger"
	"github.com/nekogravitycat/mentor-booking-backend/internal/mentor"
	"github.com/nekogravitycat/mentor-booking-backend/internal/notification"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/storage"
	"github.com/nekogravitycat/mentor-booking-backend/internal/profile"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	JWTAudience  string
	Logger       logger.Logger

	// Cache is nil when Redis is not configured.
	Cache   *cache.Store
	Storage storage.Storage
	Sender  notification.Sender

	PublicBaseURL  string
	MaxUploadBytes int64

	Notify               notification.Options
	AvailabilityCacheTTL time.Duration
	Policy               config.Policy
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Dispatcher *notification.Dispatcher
}

// NewContainer initializes all modules and returns the container.
// The dispatcher is returned unstarted.
func NewContainer(cfg Config) *Container {
	var authOpts []auth.Option
	if cfg.JWTAudience != "" {
		authOpts = append(authOpts, auth.WithAudience(cfg.JWTAudience))
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL, authOpts...)

	// Profile Module
	profileRepo := profile.NewPgxRepository(cfg.DBPool)
	profileService := profile.NewService(profileRepo)

	// Mentor Module
	mentorRepo := mentor.NewPgxRepository(cfg.DBPool)
	mentorService := mentor.NewService(mentorRepo, mentor.Bounds{
		MinHourlyRate: cfg.Policy.Mentor.MinHourlyRate,
		MaxHourlyRate: cfg.Policy.Mentor.MaxHourlyRate,
		MinRating:     cfg.Policy.Mentor.MinRating,
		MaxRating:     cfg.Policy.Mentor.MaxRating,
	})

	// File Module
	fileRepo := file.NewRepository(cfg.DBPool)
	fileService := file.NewService(fileRepo, cfg.Storage, cfg.PublicBaseURL, cfg.Logger)

	// Notifications
	var deadLetters notification.DeadLetterStore
	if cfg.Cache != nil {
		deadLetters = cfg.Cache
	}
	notifyOpts := cfg.Notify
	if notifyOpts.Location == nil {
		notifyOpts.Location = cfg.Policy.Availability.Location
	}
	dispatcher := notification.NewDispatcher(cfg.Sender, profileService, deadLetters, cfg.Logger, notifyOpts)

	// Booking + Availability
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	generator := availability.NewGenerator(bookingRepo, mentorService, cfg.Cache, cfg.Logger, availability.Options{
		StartHour: cfg.Policy.Availability.StartHour,
		EndHour:   cfg.Policy.Availability.EndHour,
		Location:  cfg.Policy.Availability.Location,
		CacheTTL:  cfg.AvailabilityCacheTTL,
	})
	bookingService := booking.NewService(bookingRepo, mentorService, profileService, dispatcher, generator, cfg.Logger)

	routerParams := api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		Logger:         cfg.Logger,
		JWTManager:     jwtManager,
		ProfileService: profileService,
		MentorService:  mentorService,
		BookingService: bookingService,
		FileService:    fileService,
		Availability:   generator,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	if cfg.DBPool != nil {
		routerParams.HealthCheck = cfg.DBPool.Ping
	}

	router := api.NewRouter(routerParams)

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Dispatcher: dispatcher,
	}
}

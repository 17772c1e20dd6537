package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"gatherly/internal/config"
	"gatherly/internal/middleware"
	"gatherly/internal/models"
	"gatherly/internal/repository"
	"gatherly/internal/service"
	"gatherly/internal/storage"
)

type HandlerSet struct {
	log           zerolog.Logger
	cfg           *config.AppConfig
	authService   *service.AuthService
	eventService  *service.EventService
	notifyService *service.NotificationService
	mediaService  *service.MediaService
	db            *pgxpool.Pool
	cache         *redis.Client
	users         *repository.UserRepository
	sessions      *repository.SessionRepository
	events        *repository.EventRepository
	venues        *repository.VenueRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	eventRepo := repository.NewEventRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notify := service.NewNotificationService(notificationRepo, cache, log)
	auth := service.NewAuthService(userRepo, sessionRepo, cfg, log)
	events := service.NewEventService(eventRepo, venueRepo, notify, log)
	media := service.NewMediaService(userRepo, eventRepo, store, log)

	return HandlerSet{
		log:           log,
		cfg:           cfg,
		authService:   auth,
		eventService:  events,
		notifyService: notify,
		mediaService:  media,
		db:            db,
		cache:         cache,
		users:         userRepo,
		sessions:      sessionRepo,
		events:        eventRepo,
		venues:        venueRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.RegisterUser)
	auth.POST("/login", h.Login)

	authed := v1.Group("")
	authed.Use(middleware.Auth(h.authService, h.sessions))

	me := authed.Group("/auth")
	me.GET("/me", h.Me)
	me.POST("/logout", h.Logout)
	me.PATCH("/me", h.UpdateProfile)
	me.POST("/me/avatar", h.UploadAvatar)

	events := authed.Group("/events")
	events.GET("", h.ListEvents)
	events.POST("", h.CreateEvent)
	events.GET("/:id", h.GetEvent)
	events.PATCH("/:id", h.UpdateEvent)
	events.POST("/:id/cancel", h.CancelEvent)
	events.POST("/:id/join", h.JoinEvent)
	events.POST("/:id/leave", h.LeaveEvent)
	events.GET("/:id/attendees", h.ListAttendees)
	events.POST("/:id/attendees/:userId/decision", h.DecideAttendee)
	events.POST("/:id/cover", h.UploadEventCover)

	venues := authed.Group("/venues")
	venues.GET("", h.ListVenues)
	venues.GET("/:id", h.GetVenue)

	notifications := authed.Group("/notifications")
	notifications.GET("", h.ListNotifications)
	notifications.GET("/unread-count", h.UnreadCount)
	notifications.POST("/:id/read", h.MarkNotificationRead)
	notifications.DELETE("/:id", h.DeleteNotification)

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRoles(models.UserRoleAdmin))
	admin.GET("/users", h.AdminListUsers)
	admin.PATCH("/users/:id/status", h.AdminSetUserStatus)
	admin.DELETE("/events/:id", h.AdminDeleteEvent)
	admin.POST("/venues", h.AdminCreateVenue)
	admin.PUT("/venues/:id", h.AdminUpdateVenue)
	admin.DELETE("/venues/:id", h.AdminDeleteVenue)
}

// currentUser pulls the user the Auth middleware resolved; the bool is false
// only if a route was wired without that middleware.
func currentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get("current_user")
	if !exists {
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	return user, ok
}

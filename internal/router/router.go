package router

import (
	"log"
	"time"

	"coursemart/config"
	"coursemart/internal/cache"
	"coursemart/internal/domain"
	"coursemart/internal/events"
	"coursemart/internal/handler"
	"coursemart/internal/middleware"
	"coursemart/internal/repository"
	"coursemart/internal/service"
	"coursemart/internal/ws"
	"coursemart/pkg/cloudinary"
	"coursemart/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the collaborators built by the caller. Redis and Media may be nil.
type Deps struct {
	Gateway        payment.Gateway
	Publisher      events.Publisher
	Hub            *ws.Hub
	Redis          *redis.Client
	Media          cloudinary.Client
	WebhookSources map[string]handler.WebhookSource
}

// Services builds the payment orchestrator and course catalog shared by the router and the CLI.
func Services(cfg *config.Config, db *gorm.DB, deps Deps) (*service.PaymentService, *service.CourseService, error) {
	refs, err := service.NewReferenceGenerator(cfg.Payment.NodeID)
	if err != nil {
		return nil, nil, err
	}
	courseCache := cache.NewCourseCache(deps.Redis, cfg.Redis.TTL)
	notifier := service.NewNotificationService(deps.Publisher, deps.Hub)
	payments := service.NewPaymentService(db, deps.Gateway, refs, notifier, courseCache, cfg.Payment.CallbackURL)
	courses := service.NewCourseService(repository.NewCourseRepository(db), courseCache, deps.Media)
	return payments, courses, nil
}

func Setup(cfg *config.Config, db *gorm.DB, deps Deps) (*gin.Engine, error) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// Repositories
	userRepo := repository.NewUserRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)
	eventRepo := repository.NewWebhookEventRepository(db)

	// Services
	paymentSvc, courseSvc, err := Services(cfg, db, deps)
	if err != nil {
		return nil, err
	}
	if deps.Media == nil {
		log.Printf("[cloudinary] thumbnail uploads disabled: set COURSEMART_CLOUDINARY_* to enable")
	}

	// Handlers
	paymentHandler := handler.NewPaymentHandler(paymentSvc, txRepo)
	webhookHandler := handler.NewPaymentWebhookHandler(paymentSvc, eventRepo, deps.WebhookSources)
	courseHandler := handler.NewCourseHandler(courseSvc)
	wishlistHandler := handler.NewWishlistHandler(wishlistRepo, courseSvc)
	meHandler := handler.NewMeHandler(userRepo, enrollmentRepo)
	cronHandler := handler.NewCronHandler(paymentSvc, cfg.Payment.PendingTTL)

	authMw := middleware.AuthRequired(&cfg.JWT)
	instructors := middleware.RequireRole(domain.RoleInstructor, domain.RoleAdmin)
	clientLimit := middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second))
	initLimit := middleware.RateLimit(middleware.NewInMemoryRateLimiter(10, time.Minute))

	v1 := r.Group("/api/v1")
	// Provider deliveries are authenticated by signature and not rate limited.
	v1.POST("/payments/webhook/:provider", webhookHandler.Handle)

	api := v1.Group("", clientLimit)
	{
		api.GET("/courses", courseHandler.List)
		api.GET("/courses/:id", courseHandler.Get)
		api.POST("/courses", authMw, instructors, courseHandler.Create)
		api.PATCH("/courses/:id/publish", authMw, instructors, courseHandler.Publish)
		api.PATCH("/courses/:id/unpublish", authMw, instructors, courseHandler.Unpublish)
		api.POST("/courses/:id/thumbnail", authMw, instructors, courseHandler.UploadThumbnail)
		api.POST("/courses/:id/wishlist", authMw, wishlistHandler.Add)
		api.DELETE("/courses/:id/wishlist", authMw, wishlistHandler.Remove)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", meHandler.Profile)
			me.GET("/enrollments", meHandler.Enrollments)
			me.GET("/transactions", paymentHandler.ListMine)
			me.GET("/wishlist", wishlistHandler.List)
		}

		api.POST("/payments/initialize", authMw, initLimit, paymentHandler.Initialize)
		api.GET("/payments/verify/:reference", authMw, paymentHandler.Verify)

		api.POST("/internal/cron/sweep", middleware.CronKeyRequired(cfg.Cron.Key), cronHandler.Sweep)
	}
	if deps.Hub != nil {
		r.GET("/ws/payments", clientLimit, ws.UpgradePaymentsWS(&cfg.JWT, deps.Hub))
	}
	return r, nil
}

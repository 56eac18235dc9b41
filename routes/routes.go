package routes

import (
	"time"

	"meramarket/handlers"
	"meramarket/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers sign-in, sign-up and session endpoints.
func RegisterAuthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/auth")
	{
		api.POST("/login", hb.Auth.LoginHandler)
		api.POST("/login/token", hb.Auth.TokenLoginHandler)
		api.POST("/signup", hb.Auth.SignupHandler)

		// Protected routes (Require Authentication)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(hb.Registry, false))
		protected.GET("/me", hb.Auth.MeHandler)
		protected.POST("/logout", hb.Auth.LogoutHandler)
		protected.POST("/refresh", hb.Auth.RefreshTokenHandler)
		protected.POST("/otp/send", hb.Auth.SendOTPHandler)
		protected.POST("/otp/verify", hb.Auth.VerifyOTPHandler)
	}
}

// RegisterListingRoutes registers the catalogue, seller management,
// interests and questions.
func RegisterListingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/listings")
	{
		// GET endpoints with optional authentication (owners and pass holders see contacts)
		public := api.Group("")
		public.Use(middleware.AuthMiddleware(hb.Registry, true))
		public.GET("", hb.Listings.ListHandler)
		public.GET("/categories", hb.Listings.CategoriesHandler)
		public.GET("/:id", hb.Listings.GetHandler)
		public.GET("/:id/questions", hb.Interests.ListQuestionsHandler)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(hb.Registry, false))
		protected.GET("/mine", hb.Listings.MyListingsHandler)
		protected.POST("", hb.Listings.CreateHandler)
		protected.PATCH("/:id", hb.Listings.UpdateHandler)
		protected.DELETE("/:id", hb.Listings.DeleteHandler)
		protected.POST("/:id/publish", hb.Listings.PublishHandler)
		protected.POST("/:id/sold", hb.Listings.MarkSoldHandler)
		protected.POST("/:id/interests", hb.Interests.SendInterestHandler)
		protected.GET("/:id/interests", hb.Interests.ListInterestsHandler)
		protected.POST("/:id/questions", hb.Interests.AskQuestionHandler)
	}
}

// RegisterRequirementRoutes registers buyers' "wanted" posts.
func RegisterRequirementRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/requirements")
	{
		api.GET("", hb.Requirements.ListHandler)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(hb.Registry, false))
		protected.GET("/mine", hb.Requirements.MyRequirementsHandler)
		protected.POST("", hb.Requirements.CreateHandler)
		protected.PATCH("/:id", hb.Requirements.UpdateHandler)
		protected.DELETE("/:id", hb.Requirements.DeleteHandler)
		protected.POST("/:id/close", hb.Requirements.CloseHandler)

		api.GET("/:id", hb.Requirements.GetHandler)
	}
}

// RegisterPaymentRoutes registers the payment ledger and billing flows.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/billing/pricing", hb.Billing.PricingHandler)
	r.GET("/api/payments/methods", hb.Payments.MethodsHandler)

	payments := r.Group("/api/payments")
	{
		payments.Use(middleware.AuthMiddleware(hb.Registry, false))
		payments.GET("", hb.Payments.ListHandler)
		payments.GET("/:id", hb.Payments.GetHandler)
	}

	billing := r.Group("/api/billing")
	{
		billing.Use(middleware.AuthMiddleware(hb.Registry, false))
		billing.GET("/status", hb.Billing.StatusHandler)
		billing.POST("/checkout", hb.Billing.CheckoutHandler)
		billing.POST("/checkout/:id/complete", hb.Billing.CompleteHandler)
		billing.POST("/purchase", hb.Billing.PurchaseHandler)
	}
}

// RegisterStorageRoutes registers file uploads.
func RegisterStorageRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/storage")
	{
		api.Use(middleware.AuthMiddleware(hb.Registry, false))
		api.POST("/upload/:bucket", hb.Storage.UploadFileHandler)
		api.GET("/url", hb.Storage.GetDownloadURLHandler)
		api.DELETE("/object", hb.Storage.DeleteFileHandler)
	}
}

// RegisterGeoRoutes registers location helpers.
func RegisterGeoRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/geo")
	{
		api.GET("/locate", hb.Geo.LocateHandler)
		api.GET("/distance", hb.Geo.DistanceHandler)
		api.GET("/geohash", hb.Geo.GeohashHandler)
	}
}

// RegisterPolicyRoutes registers the published marketplace policies.
func RegisterPolicyRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/policies", middleware.AuthMiddleware(hb.Registry, true), hb.Policies.PoliciesHandler)
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.AuthMiddleware(hb.Registry, false), middleware.AdminMiddleware())
		adminGroup.GET("/stats", hb.Admin.StatsHandler)

		adminGroup.GET("/users", hb.Admin.UsersHandler)
		adminGroup.PUT("/users/:id/role", hb.Admin.UpdateRoleHandler)
		adminGroup.PUT("/users/:id/suspension", hb.Admin.SuspendHandler)

		adminGroup.GET("/moderation/listings", hb.Admin.ListingQueueHandler)
		adminGroup.POST("/moderation/listings/:id", hb.Admin.ModerateListingHandler)
		adminGroup.GET("/moderation/requirements", hb.Admin.RequirementQueueHandler)
		adminGroup.POST("/moderation/requirements/:id", hb.Admin.ModerateRequirementHandler)
		adminGroup.GET("/moderation/history", hb.Admin.HistoryHandler)

		adminGroup.GET("/pricing", hb.Admin.PricingAuditHandler)
		adminGroup.PUT("/pricing", hb.Admin.UpdatePricingHandler)
		adminGroup.POST("/payments/:id/refund", hb.Payments.RefundHandler)

		adminGroup.GET("/integrations", hb.Admin.IntegrationsHandler)
		adminGroup.PUT("/integrations/:category", hb.Admin.SetProviderHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterAuthRoutes(r, hb)
	RegisterListingRoutes(r, hb)
	RegisterRequirementRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterStorageRoutes(r, hb)
	RegisterGeoRoutes(r, hb)
	RegisterPolicyRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
}

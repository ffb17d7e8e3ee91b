package api

import (
	"github.com/kc-allan/at-insurance/internal/database"
	"github.com/kc-allan/at-insurance/internal/middleware"
	"github.com/kc-allan/at-insurance/internal/services"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine) {
	// Initialize token verification
	middleware.InitAuth()

	// One payment orchestrator for the process; per-checkout
	// serialization only works with a shared instance.
	SetPaymentService(services.NewPaymentService(
		services.NewGormTransactionStore(database.GetDB()),
		services.NewMpesaClient(),
		services.NewSubscriptionService(),
		services.NewPaymentNotifier(services.NewSMSService()),
	))

	// API route group
	api := r.Group("/api")
	{
		// Account routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", Register)
			auth.POST("/login", Login)
			auth.POST("/refresh", RefreshToken)
		}

		authed := api.Group("/auth")
		authed.Use(middleware.AuthMiddleware())
		{
			authed.GET("/profile", GetProfile)
			authed.PUT("/profile", UpdateProfile)
			authed.POST("/logout", Logout)
		}

		// Phone verification routes
		otp := api.Group("/otp")
		{
			otp.POST("/send", SendOTP)
			otp.POST("/verify", VerifyOTP)
		}

		// Policy catalog (public reads, admin writes)
		policies := api.Group("/policies")
		{
			policies.GET("", ListPolicies)
			policies.GET("/:id", GetPolicy)
		}

		policiesAdmin := api.Group("/policies")
		policiesAdmin.Use(middleware.AdminAuthMiddleware())
		{
			policiesAdmin.POST("", CreatePolicy)
			policiesAdmin.PUT("/:id", UpdatePolicy)
			policiesAdmin.DELETE("/:id", DeletePolicy)
		}

		// Subscription routes
		subscriptions := api.Group("/subscriptions")
		subscriptions.Use(middleware.AuthMiddleware())
		{
			subscriptions.POST("", CreateSubscription)
			subscriptions.GET("", ListMySubscriptions)
			subscriptions.GET("/:id", GetSubscription)
		}

		// Claim routes
		claims := api.Group("/claims")
		claims.Use(middleware.AuthMiddleware())
		{
			claims.POST("", CreateClaim)
			claims.GET("", ListMyClaims)
			claims.GET("/:id", GetClaim)
		}

		claimsAdmin := api.Group("/claims")
		claimsAdmin.Use(middleware.AdminAuthMiddleware())
		{
			claimsAdmin.PUT("/:id/status", UpdateClaimStatus)
		}

		// Document routes
		documents := api.Group("/documents")
		documents.Use(middleware.AuthMiddleware())
		{
			documents.POST("", UploadDocument)
			documents.GET("", ListMyDocuments)
		}

		// Payment routes
		payments := api.Group("/payments")
		{
			// The gateway calls this, no authentication
			payments.POST("/callback", PaymentCallback)
		}

		paymentsAuthed := api.Group("/payments")
		paymentsAuthed.Use(middleware.AuthMiddleware())
		{
			paymentsAuthed.POST("/initiate", InitiatePayment)
			paymentsAuthed.POST("/status", CheckPaymentStatus)
		}

		paymentsAdmin := api.Group("/payments")
		paymentsAdmin.Use(middleware.AdminAuthMiddleware())
		{
			paymentsAdmin.GET("/transactions", ListTransactions)
			paymentsAdmin.GET("/config", GetPaymentConfig)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "at-insurance",
		})
	})
}

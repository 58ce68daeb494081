package handler

import (
	"ledger-service/internal/adapter/http/middleware"
	"ledger-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	TransferSvc    ports.TransferService
	QuerySvc       ports.QueryService
	Accounts       ports.AccountStore                  // reported by /health, optional
	RateLimitStore ports.RateLimitStore                // nil = rate limiting disabled
	RateLimitRules map[string]middleware.RateLimitRule // nil = middleware.DefaultRateLimitRules
	AuditSvc       ports.AuditService                  // nil = audit logging disabled
	HealthCheckers []ports.HealthChecker
	CORSOrigins    []string
	OpenAPISpec    []byte
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS(deps.CORSOrigins))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.Accounts, deps.HealthCheckers...))

	swaggerHandler := NewSwaggerHandler(deps.OpenAPISpec)
	swagger := r.Group("/swagger")
	{
		swagger.GET("", swaggerHandler.UI)
		swagger.GET("/spec", swaggerHandler.Spec)
	}

	rules := deps.RateLimitRules
	if rules == nil {
		rules = middleware.DefaultRateLimitRules()
	}

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")
	sessionAuth := middleware.SessionAuth(deps.AuthSvc, deps.Logger)

	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
		auth.POST("/logout", sessionAuth, authHandler.Logout)
	}

	transferHandler := NewTransferHandler(deps.TransferSvc)
	v1.POST("/transfers", sessionAuth, rl("transfers"), transferHandler.Transfer)

	accountHandler := NewAccountHandler(deps.QuerySvc)
	accounts := v1.Group("/accounts/me", sessionAuth, rl("accounts"))
	{
		accounts.GET("", accountHandler.GetProfile)
		accounts.GET("/balance", accountHandler.GetBalance)
		accounts.GET("/transactions", accountHandler.GetTransactions)
	}

	return r
}

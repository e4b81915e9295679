package router

import (
	"github.com/gin-gonic/gin"

	"github.com/CollabraChain/escrow-backend/internal/config"
	"github.com/CollabraChain/escrow-backend/internal/http/handlers"
	"github.com/CollabraChain/escrow-backend/internal/http/middleware"
	"github.com/CollabraChain/escrow-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	usersHandler *handlers.UsersHandler,
	projectHandler *handlers.ProjectHandler,
	ledgerHandler *handlers.LedgerHandler,
	reputationHandler *handlers.ReputationHandler,
	artifactHandler *handlers.ArtifactHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.GET("/sessions", authHandler.ListSessions)
		protectedAuth.DELETE("/sessions/:id", authHandler.DeleteSession)
		protectedAuth.DELETE("/sessions", authHandler.DeleteAllSessionsExcept)
	}

	// Публичные маршруты: websocket проверяет токен сам,
	// артефакты адресуются неугадываемой контент-ссылкой
	api.GET("/ws", wsHandler.Handle)
	api.GET("/artifacts/:ref", artifactHandler.Download)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/users/:id", middleware.UUIDValidator("id"), usersHandler.GetUser)

		// Расчётный актив
		protected.GET("/ledger/balance", ledgerHandler.GetBalance)
		protected.POST("/ledger/approve", ledgerHandler.Approve)
		protected.GET("/ledger/allowance", ledgerHandler.GetAllowance)
		protected.POST("/ledger/transfer", ledgerHandler.Transfer)
		protected.POST("/ledger/faucet", ledgerHandler.Faucet)

		// Проекты эскроу
		protected.POST("/projects", projectHandler.CreateProject)
		protected.GET("/projects", projectHandler.ListProjects)
		protected.GET("/projects/:id", middleware.UUIDValidator("id"), projectHandler.GetProject)
		protected.POST("/projects/:id/apply", middleware.UUIDValidator("id"), projectHandler.Apply)
		protected.GET("/projects/:id/applicants", middleware.UUIDValidator("id"), projectHandler.ListApplicants)
		protected.POST("/projects/:id/invite", middleware.UUIDValidator("id"), projectHandler.Invite)
		protected.POST("/projects/:id/approve", middleware.UUIDValidator("id"), projectHandler.ApproveFreelancer)
		protected.POST("/projects/:id/cancel", middleware.UUIDValidator("id"), projectHandler.CancelProject)

		// Вехи
		protected.POST("/projects/:id/milestones", middleware.UUIDValidator("id"), projectHandler.AddMilestone)
		protected.GET("/projects/:id/milestones", middleware.UUIDValidator("id"), projectHandler.ListMilestones)
		protected.POST("/projects/:id/milestones/:index/fund", middleware.UUIDValidator("id"), projectHandler.FundMilestone)
		protected.POST("/projects/:id/milestones/:index/submit", middleware.UUIDValidator("id"), projectHandler.SubmitWork)
		protected.POST("/projects/:id/milestones/:index/release", middleware.UUIDValidator("id"), projectHandler.ReleasePayment)
		protected.POST("/projects/:id/milestones/:index/dispute", middleware.UUIDValidator("id"), projectHandler.RaiseDispute)
		protected.POST("/projects/:id/milestones/:index/resolve", middleware.UUIDValidator("id"), projectHandler.ResolveDispute)

		// Делегирование ролей
		protected.POST("/projects/:id/delegates", middleware.UUIDValidator("id"), projectHandler.GrantRole)
		protected.DELETE("/projects/:id/delegates", middleware.UUIDValidator("id"), projectHandler.RevokeRole)
		protected.GET("/projects/:id/delegates", middleware.UUIDValidator("id"), projectHandler.ListDelegations)

		// Журнал, кастодия, индекс комнат
		protected.GET("/projects/:id/events", middleware.UUIDValidator("id"), projectHandler.ListEvents)
		protected.GET("/projects/:id/escrow", middleware.UUIDValidator("id"), projectHandler.GetEscrow)
		protected.GET("/rooms/:token/projects", projectHandler.RoomProjects)

		// Репутация
		protected.GET("/users/:id/credentials", middleware.UUIDValidator("id"), reputationHandler.ListUserCredentials)
		protected.GET("/credentials/:id", middleware.UUIDValidator("id"), reputationHandler.GetCredential)

		// Артефакты
		protected.POST("/artifacts", artifactHandler.Upload)
	}

	return r
}

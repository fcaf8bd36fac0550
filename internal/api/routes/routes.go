package routes

import (
	"time"

	"chat-backend/internal/api/handlers"
	"chat-backend/internal/api/middleware"
	"chat-backend/internal/auth"
	"chat-backend/internal/websocket"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies are the services the HTTP surface is built on
type Dependencies struct {
	Hub            *websocket.Hub
	Tokens         *auth.TokenManager
	Users          handlers.UserService
	Chats          handlers.ChatService
	Messages       handlers.MessageService
	Polls          handlers.PollVoter
	Communities    handlers.CommunityService
	Online         handlers.OnlineUsers
	Revocations    TokenStore
	Limiter        middleware.RateLimiter
	Health         map[string]handlers.Pinger
	Dispatcher     handlers.DispatchMetrics
	AllowedOrigins []string
}

// TokenStore revokes tokens on logout and reports them on every authenticated request
type TokenStore interface {
	handlers.TokenRevoker
	middleware.TokenRevocations
}

type Router struct {
	engine           *gin.Engine
	wsHandler        *handlers.WSHandler
	chatHandler      *handlers.ChatHandler
	messageHandler   *handlers.MessageHandler
	userHandler      *handlers.UserHandler
	communityHandler *handlers.CommunityHandler
	authHandler      *handlers.AuthHandler
	healthHandler    *handlers.HealthHandler
	statsHandler     *handlers.StatsHandler
	rateLimitMW      *middleware.RateLimitMiddleware
	authMW           *middleware.AuthMiddleware
}

func NewRouter(deps Dependencies) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(deps.AllowedOrigins))
	engine.Use(middleware.LogApi())

	return &Router{
		engine:           engine,
		wsHandler:        handlers.NewWSHandler(deps.Hub, deps.Tokens),
		chatHandler:      handlers.NewChatHandler(deps.Chats),
		messageHandler:   handlers.NewMessageHandler(deps.Messages, deps.Polls),
		userHandler:      handlers.NewUserHandler(deps.Users, deps.Online),
		communityHandler: handlers.NewCommunityHandler(deps.Communities),
		authHandler:      handlers.NewAuthHandler(deps.Users, deps.Revocations),
		healthHandler:    handlers.NewHealthHandler(deps.Health),
		statsHandler:     handlers.NewStatsHandler(deps.Hub, deps.Dispatcher),
		rateLimitMW:      middleware.NewRateLimitMiddleware(deps.Limiter),
		authMW:           middleware.NewAuthMiddleware(deps.Tokens, deps.Revocations),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", r.healthHandler.Health)
	r.engine.GET("/stats", r.statsHandler.Stats)
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.engine.Group("/api/v1")

	// Identity comes from the userId or token query parameter, not the Authorization header
	api.GET("/ws", r.wsHandler.HandleWebSocket)

	// Public routes
	authRoutes := api.Group("/auth")
	{
		public := authRoutes.Group("")
		public.Use(r.rateLimitMW.RateLimitIP(50, time.Minute)) // 50 requests per minute per IP
		public.POST("/signup", r.authHandler.Signup)
		public.POST("/login", r.authHandler.Login)

		authRoutes.POST("/logout", r.authMW.RequireAuth(), r.authHandler.Logout)
	}

	// Authenticated routes
	authed := api.Group("")
	authed.Use(r.authMW.RequireAuth())
	{
		users := authed.Group("/users")
		users.Use(r.rateLimitMW.RateLimit(100, time.Minute)) // 100 requests per minute
		{
			users.GET("", r.userHandler.ListUsers)
			users.GET("/forchat", r.userHandler.UsersForChat)
			users.GET("/me", r.userHandler.GetProfile)
			users.PATCH("/me", r.userHandler.UpdateProfile)
			users.PATCH("/me/avatar", r.userHandler.UpdateAvatar)
			users.GET("/online", r.userHandler.OnlineUsers)
			users.GET("/:id", r.userHandler.GetUser)
		}

		community := authed.Group("/community")
		community.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			community.GET("", r.communityHandler.ListCommunities)
			community.POST("/add", r.communityHandler.CreateCommunity)
			community.POST("/alladd", r.communityHandler.BulkCreateCommunities)
		}

		chats := authed.Group("/chats")
		chats.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			chats.GET("", r.chatHandler.ListChats)
			chats.POST("/access", r.chatHandler.AccessChat)
			chats.POST("/group", r.chatHandler.CreateGroup)
			chats.PATCH("/group/rename", r.chatHandler.RenameGroup)
			chats.PUT("/add", r.chatHandler.AddMember)
			chats.PUT("/remove", r.chatHandler.RemoveMember)
			chats.GET("/:chatId", r.chatHandler.GetChat)
			chats.DELETE("/:chatId", r.chatHandler.DeleteChat)
		}

		messages := authed.Group("/messages")
		messages.Use(r.rateLimitMW.RateLimit(200, time.Minute)) // 200 requests per minute
		{
			messages.POST("/send/:chatId", r.messageHandler.SendMessage)
			messages.POST("/send-poll/:chatId", r.messageHandler.SendPoll)
			messages.POST("/vote", r.messageHandler.Vote)
			messages.GET("/:chatId", r.messageHandler.GetMessages)
			messages.PATCH("/read/:chatId", r.messageHandler.MarkRead)
			messages.DELETE("/delete/:messageId", r.messageHandler.DeleteMessage)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

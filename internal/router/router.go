package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"veryus/internal/handlers"
	"veryus/internal/middleware"
	"veryus/internal/utils"
)

const (
	sessionName = "veryus_session"

	// Password reset mails per address.
	resetRequestLimit  = 5
	resetRequestWindow = time.Hour
)

// NewRouter wires middleware and every route onto a fresh engine.
func NewRouter(deps *handlers.Deps) *gin.Engine {
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.ResetLimiter == nil {
		deps.ResetLimiter = middleware.NewRateLimiter(resetRequestLimit, resetRequestWindow, 10000)
	}

	r := gin.New()
	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.Logger(deps.Log))
	r.Use(middleware.CORS(deps.Config.Server.AllowedOrigins))

	store := cookie.NewStore([]byte(deps.Config.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		Secure:   !deps.Config.Development(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(middleware.LoadUser(deps.DB, deps.Log))

	RegisterRoutes(r, deps)
	return r
}

// RegisterRoutes mounts the handlers.
func RegisterRoutes(r *gin.Engine, deps *handlers.Deps) {
	authHandler := handlers.NewAuthHandler(deps)
	userHandler := handlers.NewUserHandler(deps)
	postHandler := handlers.NewPostHandler(deps)
	commentHandler := handlers.NewCommentHandler(deps)
	notificationHandler := handlers.NewNotificationHandler(deps)
	messageHandler := handlers.NewMessageHandler(deps)
	contestHandler := handlers.NewContestHandler(deps)
	roomHandler := handlers.NewRoomHandler(deps)
	fileHandler := handlers.NewFileHandler(deps)
	momentHandler := handlers.NewMomentHandler(deps)
	fortuneHandler := handlers.NewFortuneHandler(deps)
	realtimeHandler := handlers.NewRealtimeHandler(deps)
	adminHandler := handlers.NewAdminHandler(deps)
	seoHandler := handlers.NewSEOHandler(deps)

	r.GET("/health", func(c *gin.Context) {
		connections := 0
		if deps.Hub != nil {
			connections = deps.Hub.Connections()
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": connections})
	})
	r.GET("/robots.txt", seoHandler.RobotsTxt)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)
	r.GET("/files/*path", fileHandler.Serve)
	r.GET("/ws", realtimeHandler.Connect)

	api := r.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.POST("/auth/reset", authHandler.RequestReset)
	api.POST("/auth/reset/confirm", authHandler.ConfirmReset)

	api.GET("/posts", postHandler.List)
	api.GET("/posts/:id", postHandler.Detail)
	api.GET("/posts/:id/comments", commentHandler.List)
	api.GET("/users/:id", userHandler.Profile)
	api.GET("/contests", contestHandler.List)
	api.GET("/contests/:id", contestHandler.Detail)
	api.GET("/contests/:id/results", contestHandler.Results)
	api.GET("/rooms", roomHandler.Day)
	api.GET("/moments", momentHandler.List)

	// Members
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/me", userHandler.Me)
		authorized.PUT("/me", userHandler.UpdateProfile)
		authorized.PUT("/me/theme", userHandler.Theme)
		authorized.DELETE("/me", authHandler.DeleteAccount)
		authorized.GET("/members", userHandler.Members)
		authorized.GET("/users/:id/grades", userHandler.GradeHistory)
		authorized.GET("/fortune", fortuneHandler.Today)
		authorized.GET("/realtime/token", realtimeHandler.Token)

		authorized.POST("/posts", postHandler.Create)
		authorized.PUT("/posts/:id", postHandler.Update)
		authorized.DELETE("/posts/:id", postHandler.Delete)
		authorized.POST("/posts/:id/like", postHandler.Like)
		authorized.POST("/posts/:id/close", postHandler.Close)

		authorized.POST("/posts/:id/comments", commentHandler.Create)
		authorized.PUT("/comments/:id", commentHandler.Update)
		authorized.DELETE("/comments/:id", commentHandler.Delete)
		authorized.POST("/comments/:id/like", commentHandler.Like)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.GET("/notifications/unread", notificationHandler.UnreadCount)
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)
		authorized.POST("/notifications/:id/read", notificationHandler.Read)
		authorized.DELETE("/notifications/:id", notificationHandler.Delete)

		authorized.POST("/messages", messageHandler.Send)
		authorized.GET("/messages/inbox", messageHandler.Inbox)
		authorized.GET("/messages/sent", messageHandler.Sent)
		authorized.GET("/messages/with/:uid", messageHandler.Conversation)
		authorized.POST("/messages/:id/read", messageHandler.Read)
		authorized.DELETE("/messages/:id", messageHandler.Delete)

		authorized.POST("/contests/:id/grades", contestHandler.SubmitGrade)

		authorized.POST("/rooms/bookings", roomHandler.Book)
		authorized.DELETE("/rooms/bookings/:id", roomHandler.Cancel)

		authorized.POST("/uploads", fileHandler.Upload)
		authorized.POST("/reports", adminHandler.Report)
	}

	// Staff
	staff := api.Group("")
	staff.Use(middleware.RoleRequired(utils.RoleViceAdmin))
	{
		staff.PUT("/users/:id/grade", userHandler.ChangeGrade)

		staff.POST("/contests", contestHandler.Create)
		staff.POST("/contests/:id/start", contestHandler.Start)
		staff.POST("/contests/:id/end", contestHandler.End)
		staff.GET("/contests/:id/results/privileged", contestHandler.PrivilegedResults)

		staff.POST("/rooms/blocks", roomHandler.Block)
		staff.DELETE("/rooms/blocks/:id", roomHandler.Unblock)

		staff.POST("/moments", momentHandler.Create)
		staff.DELETE("/moments/:id", momentHandler.Delete)

		staff.GET("/admin/reports", adminHandler.ListReports)
		staff.POST("/admin/reports/:id/resolve", adminHandler.ResolveReport)
	}
}

package router

import (
	"net/http"

	"agora/internal/handlers"
	"agora/internal/middleware"
	"agora/internal/svc"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// New builds the engine with middleware and every API route.
func New(sc *svc.ServiceContext) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(sc.Log))

	store := cookie.NewStore([]byte(sc.Config.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode, MaxAge: 30 * 24 * 3600})
	r.Use(sessions.Sessions("agora_session", store))
	r.Use(middleware.LoadUser(sc.Verifier))

	RegisterRoutes(r, sc)
	return r
}

func RegisterRoutes(r *gin.Engine, sc *svc.ServiceContext) {
	storyHandler := handlers.NewStoryHandler(sc.Content)
	voteHandler := handlers.NewVoteHandler(sc.Votes)
	userHandler := handlers.NewUserHandler(sc.Accounts)
	communityHandler := handlers.NewCommunityHandler(sc.Content)
	notificationHandler := handlers.NewNotificationHandler(sc.Accounts)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")

	// 公共路由
	api.GET("/communities", communityHandler.List)
	api.GET("/posts/:id", storyHandler.Detail)
	api.GET("/posts/:id/comments", storyHandler.ListComments)
	api.GET("/users/:id", userHandler.Profile)

	// 受保护路由
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/me", userHandler.Me)

		authorized.POST("/posts", storyHandler.Create)
		authorized.DELETE("/posts/:id", storyHandler.Delete)
		authorized.POST("/posts/:id/comments", storyHandler.CreateComment)
		authorized.DELETE("/comments/:id", storyHandler.DeleteComment)

		authorized.POST("/vote/:type/:id", voteHandler.Vote)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)
		authorized.POST("/notifications/:id/read", notificationHandler.Read)
		authorized.DELETE("/notifications/:id", notificationHandler.Delete)
	}
}

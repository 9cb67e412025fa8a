package api

import (
	"github.com/karansks78/RiseUp-App/pkg/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter creates and configures the Gin router.
func NewRouter(h *SocialHandler) *gin.Engine {
	r := gin.Default()

	// Middleware
	r.Use(middleware.CorrelationID())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Users
	r.POST("/users", h.CreateUser)
	r.PUT("/users/:id", h.UpdateUser)
	r.GET("/users/:id", h.GetUser)
	r.POST("/users/:id/follow", h.Follow)
	r.DELETE("/users/:id/follow", h.Unfollow)

	// Posts
	r.POST("/posts", h.CreatePost)
	r.GET("/posts", h.ListPosts)
	r.POST("/posts/:id/likes", h.LikePost)

	// Chats
	r.POST("/chats", h.CreateChat)
	r.POST("/chats/:id/messages", h.SendMessage)

	// Moderation
	r.POST("/reports", h.CreateReport)

	// Derived output
	r.GET("/notifications", h.ListNotifications)

	return r
}

package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"nearbuy-api/config"
	"nearbuy-api/controllers"
	"nearbuy-api/middleware"
	"nearbuy-api/repositories"
	"nearbuy-api/services"
)

func SetupCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, uploader services.ImageUploader) {
	store := repositories.NewStore(db)
	queries := repositories.NewPostRepository(db)
	chatService := services.NewChatService()
	postService := services.NewPostService(store, queries, uploader, chatService, cfg.DefaultPostImageURL)

	authController := controllers.NewAuthController(db, cfg.JWTSecret)
	userController := controllers.NewUserController(db)
	postController := controllers.NewPostController(db, postService)
	categoryController := controllers.NewCategoryController(store)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// API version 1
	v1 := r.Group("/api/v1")

	// Auth routes (public)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
	}

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		users := protected.Group("/users")
		{
			users.GET("/profile", userController.GetProfile)
			users.PUT("/locals", userController.UpdateLocals)
			users.GET("/:id/posts", postController.GetUserPosts)
		}

		protected.GET("/locals", userController.GetLocals)
		protected.GET("/categories", categoryController.GetCategories)

		posts := protected.Group("/posts")
		{
			posts.GET("/", postController.GetPosts)
			posts.GET("/search", postController.SearchPosts)
			posts.GET("/me", postController.GetMyPosts)
			posts.GET("/joined", postController.GetJoinedPosts)
			posts.GET("/:id", postController.GetPost)
			posts.POST("/", postController.CreatePost)
			posts.PUT("/:id", postController.UpdatePost)
			posts.DELETE("/:id", postController.DeletePost)
		}
	}
}

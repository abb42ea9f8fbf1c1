package routes

import (
	"civicstick-be/controllers"
	"civicstick-be/middlewares"

	"github.com/gin-gonic/gin"
)

// PostRoutes sets up the post submission routes
func PostRoutes(r *gin.Engine) {
	post := r.Group("/api/post")
	{
		post.POST("/create", middlewares.AuthMiddleware(), middlewares.PostRateLimiter(10), controllers.CreatePost)
		post.GET("/mine", middlewares.AuthMiddleware(), controllers.GetMyPosts)
		post.GET("/recent", controllers.RecentPosts)
	}
}

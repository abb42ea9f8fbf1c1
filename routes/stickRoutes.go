package routes

import (
	"civicstick-be/controllers"
	"civicstick-be/middlewares"

	"github.com/gin-gonic/gin"
)

// StickRoutes sets up the gamification routes
func StickRoutes(r *gin.Engine) {
	stick := r.Group("/api/stick")
	{
		stick.GET("/me", middlewares.AuthMiddleware(), controllers.GetMySticks)
		stick.GET("/leaderboard", controllers.GetLeaderboard)
		stick.GET("/user/:uid", controllers.GetUserSticks)
	}
}

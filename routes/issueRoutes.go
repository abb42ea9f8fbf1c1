package routes

import (
	"civicstick-be/controllers"
	"civicstick-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine) {
	issue := r.Group("/api/issue")
	{
		issue.GET("", controllers.GetAllIssues)
		issue.GET("/analytics", controllers.GetIssueAnalytics)
		issue.GET("/recent", controllers.RecentIssues)
		issue.GET("/:id", controllers.GetIssue)
		issue.PATCH("/:id/status", middlewares.AuthMiddleware(), controllers.UpdateIssueStatus)
	}
}

package controllers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"civicstick-be/config"
	"civicstick-be/models"
	"civicstick-be/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetAllIssues handles retrieving all issues with filtering, pagination, and sorting
func GetAllIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Parse query parameters
	department := c.Query("department")
	status := c.Query("status")
	search := c.Query("search")
	sortParam := c.DefaultQuery("sort", "newest")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	// Build query filter
	filter := bson.M{}

	if department != "" && department != "all" {
		if !models.IsValidDepartment(department) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid department"})
			return
		}
		filter["department"] = department
	}

	if status != "" && status != "all" {
		filter["status"] = status
	}

	if search != "" {
		filter["summary"] = bson.M{"$regex": search, "$options": "i"}
	}

	// Calculate pagination
	skip := (page - 1) * limit

	// Sort options
	var sortOptions bson.D
	switch sortParam {
	case "oldest":
		sortOptions = bson.D{{Key: "reportedAt", Value: 1}}
	case "mostReported":
		sortOptions = bson.D{{Key: "reportCount", Value: -1}}
	case "newest":
		fallthrough
	default:
		sortOptions = bson.D{{Key: "reportedAt", Value: -1}}
	}

	issueCollection := config.GetCollection("issues")

	totalCount, err := issueCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count issues"})
		return
	}

	findOptions := options.Find().
		SetSort(sortOptions).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := issueCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode issues"})
		return
	}

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, gin.H{
		"issues":      issues,
		"totalIssues": totalCount,
		"totalPages":  totalPages,
		"currentPage": page,
	})
}

// GetIssue retrieves an issue by its ID
func GetIssue(c *gin.Context) {
	idParam := c.Param("id")
	issueID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var issue models.Issue
	err = config.GetCollection("issues").FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	c.JSON(http.StatusOK, issue)
}

// UpdateIssueStatus moves an issue along its lifecycle. Illegal transitions
// are rejected and the issue left untouched.
func UpdateIssueStatus(c *gin.Context) {
	idParam := c.Param("id")
	issueID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Status            string                    `json:"status" binding:"required"`
		AssignedPersonnel *models.AssignedPersonnel `json:"assignedPersonnel,omitempty"`
		ETA               *time.Time                `json:"eta,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newStatus := models.IssueStatus(input.Status)
	switch newStatus {
	case models.StatusAssign, models.StatusAtProgress, models.StatusResolved, models.StatusEscalated:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	actor := "System"
	if input.AssignedPersonnel != nil && input.AssignedPersonnel.Name != "" {
		actor = input.AssignedPersonnel.Name
	} else if uid, ok := userID.(string); ok && uid != "" {
		actor = uid
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = services.TransitionStatus(ctx, config.GetCollection("issues"), issueID, newStatus, actor, &services.TransitionExtra{
		AssignedPersonnel: input.AssignedPersonnel,
		ETA:               input.ETA,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrIssueNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		case errors.Is(err, services.ErrIllegalTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue status"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue status updated successfully"})
}

// GetIssueAnalytics returns analytical data about issues: per-department
// totals, a deterministic resolution-rate ranking, and 7-day volume.
func GetIssueAnalytics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := config.GetCollection("issues")

	// Per-department status counts using aggregation
	pipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$department",
				"total": bson.M{"$sum": 1},
				"resolved": bson.M{"$sum": bson.M{
					"$cond": []interface{}{bson.M{"$eq": []interface{}{"$status", models.StatusResolved}}, 1, 0},
				}},
				"escalated": bson.M{"$sum": bson.M{
					"$cond": []interface{}{bson.M{"$eq": []interface{}{"$status", models.StatusEscalated}}, 1, 0},
				}},
			},
		},
	}

	cursor, err := issueCollection.Aggregate(ctx, pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get department analytics"})
		return
	}
	defer cursor.Close(ctx)

	type DepartmentStats struct {
		Department     string  `bson:"_id" json:"department"`
		Total          int64   `bson:"total" json:"total"`
		Resolved       int64   `bson:"resolved" json:"resolved"`
		Escalated      int64   `bson:"escalated" json:"escalated"`
		ResolutionRate float64 `bson:"-" json:"resolutionRate"`
		Rank           int     `bson:"-" json:"rank"`
	}

	var stats []DepartmentStats
	if err := cursor.All(ctx, &stats); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode department analytics"})
		return
	}

	// Rank departments by resolution rate, issue volume as the tie-break.
	for i := range stats {
		if stats[i].Total > 0 {
			stats[i].ResolutionRate = float64(stats[i].Resolved) / float64(stats[i].Total)
		}
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].ResolutionRate != stats[j].ResolutionRate {
			return stats[i].ResolutionRate > stats[j].ResolutionRate
		}
		if stats[i].Total != stats[j].Total {
			return stats[i].Total > stats[j].Total
		}
		return stats[i].Department < stats[j].Department
	})
	for i := range stats {
		stats[i].Rank = i + 1
	}

	// Get last 7 days data
	var last7Days []gin.H
	for i := 6; i >= 0; i-- {
		date := time.Now().UTC().AddDate(0, 0, -i)
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

		nextDate := date.AddDate(0, 0, 1)

		count, err := issueCollection.CountDocuments(ctx, bson.M{
			"reportedAt": bson.M{
				"$gte": date,
				"$lt":  nextDate,
			},
		})
		if err != nil {
			count = 0
		}

		last7Days = append(last7Days, gin.H{
			"date":  date.Format("2006-01-02"),
			"count": count,
		})
	}

	totalIssues, err := issueCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		totalIssues = 0
	}

	openIssues, err := issueCollection.CountDocuments(ctx, bson.M{
		"status": bson.M{"$nin": []models.IssueStatus{models.StatusResolved, models.StatusEscalated}},
	})
	if err != nil {
		openIssues = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"departments": stats,
		"last7Days":   last7Days,
		"totalIssues": totalIssues,
		"openIssues":  openIssues,
	})
}

// RecentIssues returns the most recent issues that carry a location
func RecentIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	limit := 19

	filter := bson.M{
		"geoData": bson.M{"$exists": true, "$ne": nil},
	}

	projection := bson.M{
		"_id":         1,
		"summary":     1,
		"department":  1,
		"category":    1,
		"status":      1,
		"geoData":     1,
		"reportCount": 1,
		"reportedAt":  1,
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "reportedAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(projection)

	cursor, err := config.GetCollection("issues").Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recent issues"})
		return
	}
	defer cursor.Close(ctx)

	type IssuePin struct {
		ID          primitive.ObjectID `bson:"_id" json:"id"`
		Summary     string             `bson:"summary" json:"summary"`
		Department  string             `bson:"department" json:"department"`
		Category    string             `bson:"category" json:"category"`
		Status      models.IssueStatus `bson:"status" json:"status"`
		GeoData     *models.GeoData    `bson:"geoData" json:"geoData"`
		ReportCount int                `bson:"reportCount" json:"reportCount"`
		ReportedAt  time.Time          `bson:"reportedAt" json:"reportedAt"`
	}

	var pins []IssuePin
	if err := cursor.All(ctx, &pins); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode recent issues"})
		return
	}

	c.JSON(http.StatusOK, pins)
}

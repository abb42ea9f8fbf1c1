package controllers

import (
	"context"
	"log"
	"net/http"
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

// CreatePost runs the full submission pipeline: classify the report, scan
// the department's open issues for a duplicate, persist post + issue
// atomically, then update the author's stick record.
func CreatePost(c *gin.Context) {
	// Extract user ID from context (set by auth middleware)
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	uid, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input struct {
		Description string  `json:"description" binding:"required,max=1000"`
		ImageData   *string `json:"imageData,omitempty"`
		ImageURL    *string `json:"imageUrl,omitempty"`
		GeoData     *struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
			City      string   `json:"city"`
			Region    string   `json:"region"`
			Country   string   `json:"country"`
			Address   string   `json:"address"`
		} `json:"geoData,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Partial coordinates count as no location at all: the post is kept but
	// never deduplicated.
	var geo *models.GeoData
	if input.GeoData != nil && input.GeoData.Latitude != nil && input.GeoData.Longitude != nil {
		geo = &models.GeoData{
			Latitude:  *input.GeoData.Latitude,
			Longitude: *input.GeoData.Longitude,
			City:      input.GeoData.City,
			Region:    input.GeoData.Region,
			Country:   input.GeoData.Country,
			Address:   input.GeoData.Address,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	imageData := ""
	if input.ImageData != nil {
		imageData = *input.ImageData
	}
	cls := services.NewClassifier().Classify(ctx, input.Description, imageData)

	now := time.Now()
	post := models.Post{
		ID:          primitive.NewObjectID(),
		UID:         uid,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		GeoData:     geo,
		Status:      models.PostWorking,
		AICategory:  cls.Category,
		AIPriority:  string(cls.Priority),
		AISummary:   cls.Summary,
		CreatedAt:   now,
	}
	if cls.Rejected {
		post.Status = models.PostRejected
	}

	var duplicateOf primitive.ObjectID
	hasDuplicate := false
	if !cls.Rejected {
		open, err := services.OpenIssuesByDepartment(ctx, config.GetCollection("issues"), cls.Department)
		if err != nil {
			log.Println("Duplicate scan failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan for duplicate issues"})
			return
		}
		duplicateOf, hasDuplicate = services.FindDuplicateIssue(services.DuplicateCandidate{
			Description: input.Description,
			GeoData:     geo,
			Department:  cls.Department,
		}, open)
	}

	issueID, merged, err := services.PersistSubmission(ctx, config.MongoClient(), config.ConnectDB(), &post, cls, duplicateOf, hasDuplicate, now)
	if err != nil {
		log.Println("Submission persist failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	// Rejected posts award no points and touch no streak state.
	if !cls.Rejected {
		if err := applyStickUpdate(ctx, uid.Hex(), now); err != nil {
			log.Println("Failed to update user sticks:", err)
		}
	}

	response := gin.H{
		"post":        post,
		"categorized": !cls.Rejected,
	}
	if !cls.Rejected {
		response["issueId"] = issueID.Hex()
		response["merged"] = merged
	}

	c.JSON(http.StatusCreated, response)
}

// applyStickUpdate runs the streak engine over the author's current record
// and writes the result back. Read-modify-write: concurrent posts by the
// same user can lose an update, which is accepted for this workload.
func applyStickUpdate(ctx context.Context, uid string, now time.Time) error {
	sticks := config.GetCollection("userSticks")

	var current *models.UserStickRecord
	var rec models.UserStickRecord
	err := sticks.FindOne(ctx, bson.M{"uid": uid}).Decode(&rec)
	switch err {
	case nil:
		current = &rec
	case mongo.ErrNoDocuments:
		current = nil
	default:
		return err
	}

	updated := services.ApplyPost(uid, now, current)
	opts := options.Replace().SetUpsert(true)
	_, err = sticks.ReplaceOne(ctx, bson.M{"uid": uid}, updated, opts)
	return err
}

// GetMyPosts retrieves all posts created by the authenticated user
func GetMyPosts(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	uid, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := config.GetCollection("posts").Find(ctx, bson.M{"uid": uid}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve posts"})
		return
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode posts"})
		return
	}

	c.JSON(http.StatusOK, posts)
}

// RecentPosts returns the most recent geotagged posts for the map view
func RecentPosts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	limit := 19

	filter := bson.M{
		"geoData": bson.M{"$exists": true, "$ne": nil},
		"status":  models.PostWorking,
	}

	projection := bson.M{
		"_id":         1,
		"description": 1,
		"geoData":     1,
		"aiCategory":  1,
		"createdAt":   1,
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(projection)

	cursor, err := config.GetCollection("posts").Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recent posts"})
		return
	}
	defer cursor.Close(ctx)

	type PostPin struct {
		ID          primitive.ObjectID `bson:"_id" json:"id"`
		Description string             `bson:"description" json:"description"`
		GeoData     *models.GeoData    `bson:"geoData" json:"geoData"`
		AICategory  string             `bson:"aiCategory" json:"category"`
		CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	}

	var pins []PostPin
	if err := cursor.All(ctx, &pins); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode recent posts"})
		return
	}

	c.JSON(http.StatusOK, pins)
}

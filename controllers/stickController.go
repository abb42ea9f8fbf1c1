package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"civicstick-be/config"
	"civicstick-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const leaderboardCacheKey = "leaderboard:top"
const leaderboardCacheTTL = 60 * time.Second

// GetMySticks retrieves the authenticated user's stick record
func GetMySticks(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	fetchSticks(c, userID.(string))
}

// GetUserSticks retrieves any user's stick record by uid (public profiles)
func GetUserSticks(c *gin.Context) {
	fetchSticks(c, c.Param("uid"))
}

func fetchSticks(c *gin.Context, uid string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var record models.UserStickRecord
	err := config.GetCollection("userSticks").FindOne(ctx, bson.M{"uid": uid}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// No accepted post yet: no record, not an error
			c.JSON(http.StatusOK, gin.H{"sticks": nil})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sticks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sticks": record})
}

// LeaderboardEntry is one row of the points leaderboard
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UID           string `json:"uid"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
	Level         int    `json:"level"`
	Badge         string `json:"badge"`
	CurrentStreak int    `json:"currentStreak"`
}

// GetLeaderboard returns the top users by points, descending. The result is
// cached in Redis for a minute to keep the hot path off Mongo.
func GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 100 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cacheKey := leaderboardCacheKey + ":" + strconv.Itoa(limit)
	if config.RedisClient != nil {
		if cached, err := config.RedisClient.Get(ctx, cacheKey).Result(); err == nil {
			var entries []LeaderboardEntry
			if json.Unmarshal([]byte(cached), &entries) == nil {
				c.JSON(http.StatusOK, gin.H{"leaderboard": entries, "cached": true})
				return
			}
		}
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "points", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := config.GetCollection("userSticks").Find(ctx, bson.M{}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve leaderboard"})
		return
	}
	defer cursor.Close(ctx)

	var records []models.UserStickRecord
	if err := cursor.All(ctx, &records); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode leaderboard"})
		return
	}

	userCollection := config.GetCollection("users")
	entries := make([]LeaderboardEntry, 0, len(records))
	for i, rec := range records {
		entry := LeaderboardEntry{
			Rank:          i + 1,
			UID:           rec.UID,
			Points:        rec.Points,
			Level:         rec.Level,
			Badge:         rec.Badge,
			CurrentStreak: rec.CurrentStreak,
		}

		if objID, err := primitive.ObjectIDFromHex(rec.UID); err == nil {
			var user models.User
			if err := userCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&user); err == nil {
				entry.Name = user.Name
			}
		}

		entries = append(entries, entry)
	}

	if config.RedisClient != nil {
		if payload, err := json.Marshal(entries); err == nil {
			if err := config.RedisClient.Set(ctx, cacheKey, payload, leaderboardCacheTTL).Err(); err != nil {
				log.Println("Failed to cache leaderboard:", err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries, "cached": false})
}

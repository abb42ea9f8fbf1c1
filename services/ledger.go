package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civicstick-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrIllegalTransition = errors.New("illegal issue status transition")
	ErrIssueNotFound     = errors.New("issue not found")
)

// NewIssue builds the issue document founded by post. Summary, priority and
// geoData are copied once from the founding post and never change afterwards.
func NewIssue(post *models.Post, cls Classification, now time.Time) models.Issue {
	return models.Issue{
		Department:   cls.Department,
		Category:     cls.Category,
		Priority:     cls.Priority,
		Summary:      cls.Summary,
		Status:       models.StatusWorking,
		GeoData:      post.GeoData,
		RelatedPosts: []primitive.ObjectID{post.ID},
		ReportCount:  1,
		UpdateHistory: []models.UpdateEntry{{
			Status:    models.StatusWorking,
			Timestamp: now,
			UpdatedBy: "System",
		}},
		ReportedAt:   now,
		LastReported: now,
	}
}

// MergeUpdate is the Mongo update applied when a post duplicates an existing
// issue: append the post, bump the counter, log the duplicate report.
// Summary, priority, geoData and status are never touched by a merge.
func MergeUpdate(postID primitive.ObjectID, now time.Time) bson.M {
	return bson.M{
		"$push": bson.M{
			"relatedPosts": postID,
			"updateHistory": models.UpdateEntry{
				Status:    models.StatusDuplicateReport,
				Timestamp: now,
				UpdatedBy: "System",
				PostID:    &postID,
			},
		},
		"$inc": bson.M{"reportCount": 1},
		"$set": bson.M{"lastReported": now},
	}
}

// OpenIssuesByDepartment loads the unresolved issues of one department,
// earliest reportedAt first, so duplicate scans resolve deterministically to
// the oldest qualifying issue.
func OpenIssuesByDepartment(ctx context.Context, issues *mongo.Collection, dept models.Department) ([]models.Issue, error) {
	filter := bson.M{
		"department": dept,
		"status":     bson.M{"$ne": models.StatusResolved},
	}
	opts := options.Find().SetSort(bson.D{{Key: "reportedAt", Value: 1}})

	cursor, err := issues.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("scan open issues: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Issue
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode open issues: %w", err)
	}
	return out, nil
}

// PersistSubmission commits the post, the author's post counter, and the
// issue create-or-merge in one session transaction: either everything
// persists or nothing does. Rejected posts skip the issue step entirely.
// Returns the issue id the post ended up on and whether it was a merge.
func PersistSubmission(ctx context.Context, client *mongo.Client, db *mongo.Database, post *models.Post, cls Classification, duplicateOf primitive.ObjectID, hasDuplicate bool, now time.Time) (primitive.ObjectID, bool, error) {
	session, err := client.StartSession()
	if err != nil {
		return primitive.NilObjectID, false, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	issueID := primitive.NilObjectID
	merged := false

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := db.Collection("posts").InsertOne(sc, post); err != nil {
			return nil, fmt.Errorf("insert post: %w", err)
		}

		if _, err := db.Collection("users").UpdateOne(sc,
			bson.M{"_id": post.UID},
			bson.M{"$inc": bson.M{"postCount": 1}},
		); err != nil {
			return nil, fmt.Errorf("bump post count: %w", err)
		}

		if post.Status == models.PostRejected {
			return nil, nil
		}

		if hasDuplicate {
			res, err := db.Collection("issues").UpdateOne(sc, bson.M{"_id": duplicateOf}, MergeUpdate(post.ID, now))
			if err != nil {
				return nil, fmt.Errorf("merge into issue: %w", err)
			}
			if res.MatchedCount == 0 {
				return nil, ErrIssueNotFound
			}
			issueID = duplicateOf
			merged = true
			return nil, nil
		}

		issue := NewIssue(post, cls, now)
		issue.ID = primitive.NewObjectID()
		if _, err := db.Collection("issues").InsertOne(sc, issue); err != nil {
			return nil, fmt.Errorf("create issue: %w", err)
		}
		issueID = issue.ID
		return nil, nil
	})
	if err != nil {
		return primitive.NilObjectID, false, err
	}

	return issueID, merged, nil
}

// TransitionExtra carries the assignment details for moves into "assign".
type TransitionExtra struct {
	AssignedPersonnel *models.AssignedPersonnel
	ETA               *time.Time
}

// TransitionStatus moves an issue through its lifecycle. Illegal moves are
// rejected with ErrIllegalTransition and the stored issue is left unchanged;
// the status is never coerced. The update filter re-checks the status read
// earlier, so a concurrent transition loses cleanly instead of overwriting.
func TransitionStatus(ctx context.Context, issues *mongo.Collection, issueID primitive.ObjectID, newStatus models.IssueStatus, actor string, extra *TransitionExtra) error {
	var issue models.Issue
	if err := issues.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrIssueNotFound
		}
		return fmt.Errorf("load issue: %w", err)
	}

	if !models.CanTransition(issue.Status, newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, issue.Status, newStatus)
	}

	now := time.Now()
	set := bson.M{"status": newStatus}
	if newStatus == models.StatusAssign {
		set["assignedAt"] = now
		if extra != nil && extra.AssignedPersonnel != nil {
			set["assignedPersonnel"] = extra.AssignedPersonnel
		}
		if extra != nil && extra.ETA != nil {
			set["eta"] = extra.ETA
		}
	}

	update := bson.M{
		"$set": set,
		"$push": bson.M{"updateHistory": models.UpdateEntry{
			Status:    newStatus,
			Timestamp: now,
			UpdatedBy: actor,
		}},
	}

	res, err := issues.UpdateOne(ctx, bson.M{"_id": issueID, "status": issue.Status}, update)
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: issue changed concurrently", ErrIllegalTransition)
	}
	return nil
}

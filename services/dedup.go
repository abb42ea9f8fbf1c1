package services

import (
	"math"
	"strings"

	"civicstick-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// metersPerDegree converts degree deltas to meters on a flat-earth
// approximation. Longitude is deliberately not scaled by latitude: match
// distances are a few meters, where the error does not move the verdict.
const metersPerDegree = 111000.0

// A report merges into an open issue only when it is within
// duplicateDistanceMeters of it and shares strictly more than
// duplicateSimilarityFloor of its tokens with the issue summary.
const (
	duplicateDistanceMeters  = 5.0
	duplicateSimilarityFloor = 0.3
)

// DuplicateCandidate is a freshly classified report being checked against
// the open issues of its department.
type DuplicateCandidate struct {
	Description string
	GeoData     *models.GeoData
	Department  models.Department
}

// GeoDistanceMeters returns the planar distance between two points.
func GeoDistanceMeters(a, b models.GeoData) float64 {
	dLat := (a.Latitude - b.Latitude) * metersPerDegree
	dLng := (a.Longitude - b.Longitude) * metersPerDegree
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// TextSimilarity compares two strings over lowercase whitespace tokens:
// |common| / max(|a|,|b|). Repeated tokens in a count once per occurrence.
// Empty input on either side scores 0, never a division by zero.
func TextSimilarity(a, b string) float64 {
	wordsA := strings.Fields(strings.ToLower(a))
	wordsB := strings.Fields(strings.ToLower(b))
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	inB := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		inB[w] = true
	}

	common := 0
	for _, w := range wordsA {
		if inB[w] {
			common++
		}
	}

	return float64(common) / math.Max(float64(len(wordsA)), float64(len(wordsB)))
}

// FindDuplicateIssue decides whether the candidate report duplicates one of
// the given issues. Candidates without a location never match: no geo, no
// dedup. Issues that are resolved, belong to another department, or carry no
// geo/summary to compare against are skipped. The caller supplies openIssues
// sorted earliest-reportedAt-first, so the first hit is the oldest
// qualifying issue.
func FindDuplicateIssue(candidate DuplicateCandidate, openIssues []models.Issue) (primitive.ObjectID, bool) {
	if candidate.GeoData == nil {
		return primitive.NilObjectID, false
	}

	for _, issue := range openIssues {
		if issue.Status == models.StatusResolved || issue.Department != candidate.Department {
			continue
		}
		if issue.GeoData == nil || issue.Summary == "" {
			continue
		}

		distance := GeoDistanceMeters(*candidate.GeoData, *issue.GeoData)
		similarity := TextSimilarity(candidate.Description, issue.Summary)

		if distance <= duplicateDistanceMeters && similarity > duplicateSimilarityFloor {
			return issue.ID, true
		}
	}

	return primitive.NilObjectID, false
}

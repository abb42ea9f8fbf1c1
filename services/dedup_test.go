package services

import (
	"testing"

	"civicstick-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	baseLat = 12.9716
	baseLng = 77.5946
)

func openIssue(id primitive.ObjectID, dept models.Department, summary string, lat, lng float64) models.Issue {
	return models.Issue{
		ID:         id,
		Department: dept,
		Summary:    summary,
		Status:     models.StatusWorking,
		GeoData:    &models.GeoData{Latitude: lat, Longitude: lng},
	}
}

func TestGeoDistanceMeters(t *testing.T) {
	t.Run("ZeroDistance", func(t *testing.T) {
		p := models.GeoData{Latitude: baseLat, Longitude: baseLng}
		assert.Equal(t, 0.0, GeoDistanceMeters(p, p))
	})

	t.Run("PythagoreanTriangle", func(t *testing.T) {
		// 3m north, 4m east -> 5m
		a := models.GeoData{Latitude: baseLat, Longitude: baseLng}
		b := models.GeoData{Latitude: baseLat + 3.0/111000.0, Longitude: baseLng + 4.0/111000.0}
		assert.InDelta(t, 5.0, GeoDistanceMeters(a, b), 1e-9)
	})
}

func TestTextSimilarity(t *testing.T) {
	t.Run("Identical", func(t *testing.T) {
		assert.Equal(t, 1.0, TextSimilarity("pothole on main street", "pothole on main street"))
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		assert.Equal(t, 1.0, TextSimilarity("Pothole On Main", "pothole on main"))
	})

	t.Run("MaxDenominator", func(t *testing.T) {
		// 2 common tokens over max(4, 2) = 0.5, not the union
		assert.Equal(t, 0.5, TextSimilarity("big pothole main street", "pothole street"))
	})

	t.Run("RepeatedTokensCountPerOccurrence", func(t *testing.T) {
		// "a" matches three times from the candidate side: 3 / max(4, 2)
		assert.Equal(t, 0.75, TextSimilarity("a a a b", "a c"))
	})

	t.Run("EmptyEitherSideIsZero", func(t *testing.T) {
		assert.Equal(t, 0.0, TextSimilarity("", "pothole"))
		assert.Equal(t, 0.0, TextSimilarity("pothole", ""))
		assert.Equal(t, 0.0, TextSimilarity("", ""))
		assert.Equal(t, 0.0, TextSimilarity("   ", "\t"))
	})
}

func TestFindDuplicateIssue_DistanceBoundary(t *testing.T) {
	summary := "large pothole near the bus stop on main street causing trouble"
	candidate := DuplicateCandidate{
		Description: summary,
		GeoData:     &models.GeoData{Latitude: baseLat, Longitude: baseLng},
		Department:  models.PWD,
	}

	t.Run("ExactlyFiveMetersMerges", func(t *testing.T) {
		// Anchored at the origin so the latitude delta survives the
		// coordinate subtraction exactly: adding 5.0/111000 to a city-sized
		// latitude loses low bits and the round-trip lands a hair above 5m.
		origin := models.GeoData{Latitude: 0, Longitude: 0}
		atBoundary := models.GeoData{Latitude: 5.0 / 111000.0, Longitude: 0}

		d := GeoDistanceMeters(origin, atBoundary)
		require.InDelta(t, 5.0, d, 1e-12)
		require.LessOrEqual(t, d, 5.0, "boundary point must not round above the threshold")

		id := primitive.NewObjectID()
		issues := []models.Issue{openIssue(id, models.PWD, summary, atBoundary.Latitude, atBoundary.Longitude)}

		got, ok := FindDuplicateIssue(DuplicateCandidate{
			Description: summary,
			GeoData:     &origin,
			Department:  models.PWD,
		}, issues)
		require.True(t, ok)
		assert.Equal(t, id, got)
	})

	t.Run("WellInsideMergesAtCityCoordinates", func(t *testing.T) {
		id := primitive.NewObjectID()
		issues := []models.Issue{openIssue(id, models.PWD, summary, baseLat+4.9/111000.0, baseLng)}

		got, ok := FindDuplicateIssue(candidate, issues)
		require.True(t, ok)
		assert.Equal(t, id, got)
	})

	t.Run("JustBeyondFiveMetersCreatesNew", func(t *testing.T) {
		id := primitive.NewObjectID()
		issues := []models.Issue{openIssue(id, models.PWD, summary, baseLat+5.01/111000.0, baseLng)}

		_, ok := FindDuplicateIssue(candidate, issues)
		assert.False(t, ok)
	})
}

func TestFindDuplicateIssue_SimilarityBoundary(t *testing.T) {
	geo := &models.GeoData{Latitude: baseLat, Longitude: baseLng}
	candidate := DuplicateCandidate{
		Description: "a b c d e f g h i j",
		GeoData:     geo,
		Department:  models.Water,
	}

	t.Run("ExactlyThirtyPercentDoesNotMerge", func(t *testing.T) {
		// 3 of 10 tokens in common: similarity is 0.3, the floor is strict
		issues := []models.Issue{openIssue(primitive.NewObjectID(), models.Water,
			"a b c n1 n2 n3 n4 n5 n6 n7", baseLat, baseLng)}

		_, ok := FindDuplicateIssue(candidate, issues)
		assert.False(t, ok)
	})

	t.Run("AboveThirtyPercentMerges", func(t *testing.T) {
		id := primitive.NewObjectID()
		issues := []models.Issue{openIssue(id, models.Water,
			"a b c d n1 n2 n3 n4 n5 n6", baseLat, baseLng)}

		got, ok := FindDuplicateIssue(candidate, issues)
		require.True(t, ok)
		assert.Equal(t, id, got)
	})
}

func TestFindDuplicateIssue_Filters(t *testing.T) {
	summary := "water pipe burst flooding the street"
	geo := &models.GeoData{Latitude: baseLat, Longitude: baseLng}
	candidate := DuplicateCandidate{Description: summary, GeoData: geo, Department: models.Water}

	t.Run("CrossDepartmentNeverMerges", func(t *testing.T) {
		issues := []models.Issue{openIssue(primitive.NewObjectID(), models.PWD, summary, baseLat, baseLng)}

		_, ok := FindDuplicateIssue(candidate, issues)
		assert.False(t, ok)
	})

	t.Run("ResolvedIssuesExcluded", func(t *testing.T) {
		issue := openIssue(primitive.NewObjectID(), models.Water, summary, baseLat, baseLng)
		issue.Status = models.StatusResolved

		_, ok := FindDuplicateIssue(candidate, []models.Issue{issue})
		assert.False(t, ok)
	})

	t.Run("EscalatedIssuesStillMatch", func(t *testing.T) {
		issue := openIssue(primitive.NewObjectID(), models.Water, summary, baseLat, baseLng)
		issue.Status = models.StatusEscalated

		_, ok := FindDuplicateIssue(candidate, []models.Issue{issue})
		assert.True(t, ok)
	})

	t.Run("NoCandidateGeoNoDedup", func(t *testing.T) {
		issues := []models.Issue{openIssue(primitive.NewObjectID(), models.Water, summary, baseLat, baseLng)}

		_, ok := FindDuplicateIssue(DuplicateCandidate{Description: summary, Department: models.Water}, issues)
		assert.False(t, ok)
	})

	t.Run("IssueWithoutGeoSkipped", func(t *testing.T) {
		issue := openIssue(primitive.NewObjectID(), models.Water, summary, baseLat, baseLng)
		issue.GeoData = nil

		_, ok := FindDuplicateIssue(candidate, []models.Issue{issue})
		assert.False(t, ok)
	})

	t.Run("IssueWithoutSummarySkipped", func(t *testing.T) {
		issue := openIssue(primitive.NewObjectID(), models.Water, "", baseLat, baseLng)

		_, ok := FindDuplicateIssue(candidate, []models.Issue{issue})
		assert.False(t, ok)
	})

	t.Run("EmptyDescriptionNeverMatches", func(t *testing.T) {
		issues := []models.Issue{openIssue(primitive.NewObjectID(), models.Water, summary, baseLat, baseLng)}

		_, ok := FindDuplicateIssue(DuplicateCandidate{GeoData: geo, Department: models.Water}, issues)
		assert.False(t, ok)
	})
}

func TestFindDuplicateIssue_TieBreak(t *testing.T) {
	summary := "garbage pile not collected for a week"
	geo := &models.GeoData{Latitude: baseLat, Longitude: baseLng}
	candidate := DuplicateCandidate{Description: summary, GeoData: geo, Department: models.SWM}

	oldest := primitive.NewObjectID()
	newer := primitive.NewObjectID()

	// Caller supplies issues earliest-reportedAt-first; the scan returns the
	// first qualifying one, so the oldest issue absorbs the report.
	issues := []models.Issue{
		openIssue(oldest, models.SWM, summary, baseLat, baseLng),
		openIssue(newer, models.SWM, summary, baseLat, baseLng),
	}

	got, ok := FindDuplicateIssue(candidate, issues)
	require.True(t, ok)
	assert.Equal(t, oldest, got)
}

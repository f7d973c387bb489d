package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"veryus/internal/models"
)

func TestAggregateGradesAverages(t *testing.T) {
	grades := []models.ContestGrade{
		{Target: "A", Score: 80, Comment: "good pitch"},
		{Target: "A", Score: 60},
		{Target: "B", Score: 100, Comment: "perfect"},
	}

	agg := AggregateGrades(grades)

	assert.Equal(t, []TargetScore{
		{Target: "A", Average: 70, Comments: []string{"good pitch"}, Count: 2},
		{Target: "B", Average: 100, Comments: []string{"perfect"}, Count: 1},
	}, agg.Targets)
	assert.Equal(t, []models.RankEntry{
		{Rank: 1, Name: "B", Score: 100},
		{Rank: 2, Name: "A", Score: 70},
	}, agg.Top)
}

func TestAggregateGradesEmpty(t *testing.T) {
	agg := AggregateGrades(nil)

	assert.NotNil(t, agg.Targets)
	assert.Empty(t, agg.Targets)
	assert.NotNil(t, agg.Top)
	assert.Empty(t, agg.Top)
}

func TestAggregateGradesTopThreeStableTies(t *testing.T) {
	grades := []models.ContestGrade{
		{Target: "solo", Score: 70},
		{Target: "duo", Score: 90},
		{Target: "band", Score: 70},
		{Target: "trio", Score: 90},
		{Target: "choir", Score: 10},
	}

	agg := AggregateGrades(grades)

	assert.Len(t, agg.Targets, 5)
	assert.Equal(t, []models.RankEntry{
		{Rank: 1, Name: "duo", Score: 90},
		{Rank: 2, Name: "trio", Score: 90},
		{Rank: 3, Name: "solo", Score: 70},
	}, agg.Top)
}

func TestAggregateByRole(t *testing.T) {
	grades := []models.ContestGrade{
		{Target: "A", Score: 50, EvaluatorRole: "member"},
		{Target: "A", Score: 90, EvaluatorRole: "admin"},
		{Target: "B", Score: 80, EvaluatorRole: "admin"},
		{Target: "C", Score: 100, EvaluatorRole: "member"},
	}

	agg := AggregateByRole(grades, "admin")

	assert.Equal(t, []models.RankEntry{
		{Rank: 1, Name: "A", Score: 90},
		{Rank: 2, Name: "B", Score: 80},
	}, agg.Top)

	assert.Empty(t, AggregateByRole(grades, "leader").Top)
}

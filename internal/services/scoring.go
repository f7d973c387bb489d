package services

import (
	"sort"

	"veryus/internal/models"
)

// TopN is the size of a contest ranking.
const TopN = 3

// TargetScore is the aggregate of every grade given to one target.
type TargetScore struct {
	Target   string   `json:"target"`
	Average  float64  `json:"average"`
	Comments []string `json:"comments"`
	Count    int      `json:"count"`
}

// Aggregation lists targets in first-seen order and the ranking derived from them.
type Aggregation struct {
	Targets []TargetScore      `json:"targets"`
	Top     []models.RankEntry `json:"top"`
}

// AggregateGrades groups grades by target and ranks the best TopN averages.
// Equal averages keep the order in which their targets first appeared.
func AggregateGrades(grades []models.ContestGrade) Aggregation {
	index := make(map[string]int)
	sums := make([]float64, 0)
	targets := make([]TargetScore, 0)

	for _, g := range grades {
		i, ok := index[g.Target]
		if !ok {
			i = len(targets)
			index[g.Target] = i
			targets = append(targets, TargetScore{Target: g.Target, Comments: []string{}})
			sums = append(sums, 0)
		}
		sums[i] += g.Score
		targets[i].Count++
		if g.Comment != "" {
			targets[i].Comments = append(targets[i].Comments, g.Comment)
		}
	}
	for i := range targets {
		if targets[i].Count > 0 {
			targets[i].Average = sums[i] / float64(targets[i].Count)
		}
	}

	ranked := make([]TargetScore, len(targets))
	copy(ranked, targets)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Average > ranked[j].Average })
	if len(ranked) > TopN {
		ranked = ranked[:TopN]
	}
	top := make([]models.RankEntry, 0, len(ranked))
	for i, t := range ranked {
		top = append(top, models.RankEntry{Rank: i + 1, Name: t.Target, Score: t.Average})
	}

	return Aggregation{Targets: targets, Top: top}
}

// AggregateByRole aggregates only the grades submitted by evaluators holding role.
func AggregateByRole(grades []models.ContestGrade, role string) Aggregation {
	subset := make([]models.ContestGrade, 0, len(grades))
	for _, g := range grades {
		if g.EvaluatorRole == role {
			subset = append(subset, g)
		}
	}
	return AggregateGrades(subset)
}

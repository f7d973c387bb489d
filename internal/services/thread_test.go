package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"veryus/internal/models"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func comment(id string, parent string, minute int) models.Comment {
	c := models.Comment{ID: id, PostID: "p1", WriterUID: "u-" + id, CreatedAt: base.Add(time.Duration(minute) * time.Minute)}
	if parent != "" {
		p := parent
		c.ParentID = &p
	}
	return c
}

func ids(entries []ThreadEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func depths(entries []ThreadEntry) map[string]int {
	out := make(map[string]int, len(entries))
	for _, e := range entries {
		out[e.ID] = e.Depth
	}
	return out
}

func TestFlattenThreadOrdersRootsAndDescendants(t *testing.T) {
	comments := []models.Comment{
		comment("r2", "", 10),
		comment("a2", "a1", 7),
		comment("r1", "", 0),
		comment("b1", "r2", 11),
		comment("a1", "r1", 5),
		comment("a3", "r1", 6),
	}

	res := FlattenThread(comments)

	// Descendants of r1 are ordered by time even though a2 hangs below a1.
	assert.Equal(t, []string{"r1", "a1", "a3", "a2", "r2", "b1"}, ids(res.Entries))
	assert.Equal(t, map[string]int{"r1": 0, "a1": 1, "a3": 1, "a2": 2, "r2": 0, "b1": 1}, depths(res.Entries))
	assert.Empty(t, res.Cycles)
}

func TestFlattenThreadDropsOrphans(t *testing.T) {
	comments := []models.Comment{
		comment("r1", "", 0),
		comment("x1", "gone", 1),
		comment("x2", "x1", 2),
		comment("a1", "r1", 3),
	}

	res := FlattenThread(comments)

	assert.Equal(t, []string{"r1", "a1"}, ids(res.Entries))
	assert.Empty(t, res.Cycles)
}

func TestFlattenThreadTerminatesOnCycles(t *testing.T) {
	comments := []models.Comment{
		comment("r1", "", 0),
		comment("c1", "c2", 1),
		comment("c2", "c1", 2),
		comment("self", "self", 3),
		comment("tail", "c1", 4),
	}

	res := FlattenThread(comments)

	assert.Equal(t, []string{"r1"}, ids(res.Entries))
	assert.Equal(t, []string{"c1", "c2", "self", "tail"}, res.Cycles)
}

func TestFlattenThreadEmitsEachCommentOnce(t *testing.T) {
	comments := []models.Comment{
		comment("r1", "", 0),
		comment("a1", "r1", 1),
		comment("a1", "r1", 1),
		comment("r1", "", 0),
	}

	res := FlattenThread(comments)

	assert.Equal(t, []string{"r1", "a1"}, ids(res.Entries))
}

func TestFlattenThreadTiesBreakByID(t *testing.T) {
	comments := []models.Comment{
		comment("r-b", "", 0),
		comment("r-a", "", 0),
	}

	res := FlattenThread(comments)

	assert.Equal(t, []string{"r-a", "r-b"}, ids(res.Entries))
}

func TestFlattenThreadEmpty(t *testing.T) {
	res := FlattenThread(nil)
	assert.NotNil(t, res.Entries)
	assert.Empty(t, res.Entries)
}

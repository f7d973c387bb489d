package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"veryus/internal/models"
)

func TestIsVisiblePublicComment(t *testing.T) {
	c := models.Comment{ID: "c1", WriterUID: "writer"}

	assert.True(t, IsVisible(c, nil, "author"))
	assert.True(t, IsVisible(c, &models.Session{UserID: "stranger"}, "author"))
}

func TestIsVisibleSecretComment(t *testing.T) {
	c := models.Comment{ID: "c1", WriterUID: "writer", IsSecret: true}

	tests := []struct {
		name   string
		viewer *models.Session
		want   bool
	}{
		{"anonymous", nil, false},
		{"stranger", &models.Session{UserID: "stranger"}, false},
		{"admin is not special", &models.Session{UserID: "boss", Role: "admin"}, false},
		{"comment writer", &models.Session{UserID: "writer"}, true},
		{"post author", &models.Session{UserID: "author"}, true},
		{"empty session", &models.Session{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsVisible(c, tt.viewer, "author"))
		})
	}
}

func TestRedactHiddenKeepsPosition(t *testing.T) {
	entries := []ThreadEntry{
		{Comment: models.Comment{ID: "r1", WriterUID: "a", Content: "hello"}},
		{Comment: models.Comment{ID: "s1", WriterUID: "b", WriterNickname: "bee", Content: "psst", IsSecret: true, LikedBy: []string{"a"}, LikesCount: 1}, Depth: 1},
		{Comment: models.Comment{ID: "s2", WriterUID: "c", Content: "mine", IsSecret: true}, Depth: 2},
	}

	out := RedactHidden(entries, &models.Session{UserID: "c"}, "author")

	assert.Len(t, out, 3)
	assert.False(t, out[0].Hidden)
	assert.Equal(t, "hello", out[0].Content)

	assert.True(t, out[1].Hidden)
	assert.Equal(t, "s1", out[1].ID)
	assert.Equal(t, 1, out[1].Depth)
	assert.Empty(t, out[1].Content)
	assert.Empty(t, out[1].WriterUID)
	assert.Empty(t, out[1].WriterNickname)
	assert.Nil(t, out[1].LikedBy)
	assert.Zero(t, out[1].LikesCount)

	assert.False(t, out[2].Hidden)
	assert.Equal(t, "mine", out[2].Content)
}

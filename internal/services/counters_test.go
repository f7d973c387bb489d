package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"veryus/internal/models"
)

func commentCount(t *testing.T, conn *gorm.DB, postID string) int {
	t.Helper()
	var post models.Post
	require.NoError(t, conn.First(&post, "id = ?", postID).Error)
	return post.CommentCount
}

func TestReconcileRepairsDrift(t *testing.T) {
	conn := newTestDB(t)
	post := models.Post{Type: models.BoardFree, Title: "t", WriterUID: "u1", CommentCount: 7}
	require.NoError(t, conn.Create(&post).Error)
	require.NoError(t, conn.Create(&models.Comment{PostID: post.ID, Content: "a", WriterUID: "u2"}).Error)
	require.NoError(t, conn.Create(&models.Comment{PostID: post.ID, Content: "b", WriterUID: "u2"}).Error)
	require.NoError(t, conn.Create(&models.Comment{PostID: post.ID, Content: models.DeletedCommentContent, WriterUID: "u2", Deleted: true}).Error)

	svc := NewCounterService(conn, zerolog.Nop())
	require.NoError(t, svc.Reconcile(context.Background(), post.ID))
	assert.Equal(t, 2, commentCount(t, conn, post.ID))

	// Idempotent.
	require.NoError(t, svc.Reconcile(context.Background(), post.ID))
	assert.Equal(t, 2, commentCount(t, conn, post.ID))
}

func TestAdjustCommentCount(t *testing.T) {
	conn := newTestDB(t)
	post := models.Post{Type: models.BoardFree, Title: "t", WriterUID: "u1"}
	require.NoError(t, conn.Create(&post).Error)

	require.NoError(t, AdjustCommentCount(context.Background(), conn, post.ID, 1))
	require.NoError(t, AdjustCommentCount(context.Background(), conn, post.ID, 1))
	require.NoError(t, AdjustCommentCount(context.Background(), conn, post.ID, -1))
	assert.Equal(t, 1, commentCount(t, conn, post.ID))
}

func TestCounterWorkerProcessesScheduledPosts(t *testing.T) {
	conn := newTestDB(t)
	post := models.Post{Type: models.BoardFree, Title: "t", WriterUID: "u1", CommentCount: 3}
	require.NoError(t, conn.Create(&post).Error)

	svc := NewCounterService(conn, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	svc.Schedule(post.ID)
	svc.Schedule(post.ID)

	assert.Eventually(t, func() bool { return commentCount(t, conn, post.ID) == 0 }, 3*time.Second, 50*time.Millisecond)
}

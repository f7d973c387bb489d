package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"veryus/internal/models"
)

const (
	counterBatchSize     = 50
	counterFlushInterval = 500 * time.Millisecond
)

// CounterService repairs Post.CommentCount in the background. Comment writes and counter
// updates are separate statements, so the stored count can drift; a recount fixes it.
type CounterService struct {
	db      *gorm.DB
	log     zerolog.Logger
	queue   chan string
	pending map[string]bool
	mu      sync.Mutex
}

func NewCounterService(db *gorm.DB, log zerolog.Logger) *CounterService {
	return &CounterService{
		db:      db,
		log:     log.With().Str("component", "counters").Logger(),
		queue:   make(chan string, 1000),
		pending: make(map[string]bool),
	}
}

// Schedule queues postID for a recount. Repeated requests for a queued post are merged.
func (s *CounterService) Schedule(postID string) {
	s.mu.Lock()
	if s.pending[postID] {
		s.mu.Unlock()
		return
	}
	s.pending[postID] = true
	s.mu.Unlock()

	select {
	case s.queue <- postID:
	default:
		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
		s.log.Warn().Str("post", postID).Msg("counter queue full, recount skipped")
	}
}

// Run drains the queue in batches until ctx is cancelled.
func (s *CounterService) Run(ctx context.Context) {
	batch := make([]string, 0, counterBatchSize)
	ticker := time.NewTicker(counterFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				s.processBatch(context.WithoutCancel(ctx), batch)
			}
			return
		case postID := <-s.queue:
			batch = append(batch, postID)
			if len(batch) >= counterBatchSize {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *CounterService) processBatch(ctx context.Context, postIDs []string) {
	for _, postID := range postIDs {
		if err := s.Reconcile(ctx, postID); err != nil {
			s.log.Error().Err(err).Str("post", postID).Msg("recount failed")
		}
		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
	}
}

// Reconcile sets the post's comment count to its number of live comments.
func (s *CounterService) Reconcile(ctx context.Context, postID string) error {
	var live int64
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ? AND deleted = ?", postID, false).
		Count(&live).Error
	if err != nil {
		return fmt.Errorf("count comments: %w", err)
	}

	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND comment_count <> ?", postID, live).
		UpdateColumn("comment_count", live)
	if res.Error != nil {
		return fmt.Errorf("update comment_count: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.Info().Str("post", postID).Int64("count", live).Msg("comment count repaired")
	}
	return nil
}

// AdjustCommentCount applies delta atomically in the store.
func AdjustCommentCount(ctx context.Context, db *gorm.DB, postID string, delta int) error {
	return db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("comment_count", gorm.Expr("comment_count + ?", delta)).Error
}

package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"veryus/internal/models"
	"veryus/internal/websocket"
)

// Publisher pushes refresh events to websocket subscribers.
type Publisher interface {
	Publish(topic string)
}

// NotificationService writes notification rows and tells the recipient's open sessions.
type NotificationService struct {
	db  *gorm.DB
	pub Publisher
	log zerolog.Logger
}

func NewNotificationService(db *gorm.DB, pub Publisher, log zerolog.Logger) *NotificationService {
	return &NotificationService{db: db, pub: pub, log: log.With().Str("component", "notifications").Logger()}
}

func (s *NotificationService) CreateCommentNotification(ctx context.Context, recipientID, actorName, postID, postTitle string, boardType models.BoardType) error {
	return s.create(ctx, &models.Notification{
		RecipientUID: recipientID,
		ActorName:    actorName,
		Type:         models.NotificationTypeComment,
		PostID:       postID,
		PostTitle:    postTitle,
		BoardType:    boardType,
	})
}

func (s *NotificationService) CreateReplyNotification(ctx context.Context, recipientID, actorName, postID, postTitle, parentCommentID string, boardType models.BoardType) error {
	return s.create(ctx, &models.Notification{
		RecipientUID:    recipientID,
		ActorName:       actorName,
		Type:            models.NotificationTypeReply,
		PostID:          postID,
		PostTitle:       postTitle,
		ParentCommentID: parentCommentID,
		BoardType:       boardType,
	})
}

// CreateMessageNotification announces a new private message.
func (s *NotificationService) CreateMessageNotification(ctx context.Context, recipientID, actorName string) error {
	return s.create(ctx, &models.Notification{
		RecipientUID: recipientID,
		ActorName:    actorName,
		Type:         models.NotificationTypeMessage,
	})
}

// CreateSystemNotification sends a staff or system notice such as a grade change.
func (s *NotificationService) CreateSystemNotification(ctx context.Context, recipientID, reason string) error {
	return s.create(ctx, &models.Notification{
		RecipientUID: recipientID,
		ActorName:    "VERYUS",
		Type:         models.NotificationTypeSystem,
		Reason:       reason,
	})
}

func (s *NotificationService) create(ctx context.Context, n *models.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create %s notification for %s: %w", n.Type, n.RecipientUID, err)
	}
	if s.pub != nil {
		s.pub.Publish(websocket.UserTopic(n.RecipientUID))
	}
	return nil
}

// Notifier is the part of NotificationService the dispatcher needs.
type Notifier interface {
	CreateCommentNotification(ctx context.Context, recipientID, actorName, postID, postTitle string, boardType models.BoardType) error
	CreateReplyNotification(ctx context.Context, recipientID, actorName, postID, postTitle, parentCommentID string, boardType models.BoardType) error
}

// CommentEvent describes a comment that has already been stored.
type CommentEvent struct {
	Comment models.Comment
	Post    models.Post
	// ParentAuthorUID is the writer of the comment being answered, empty for top-level comments.
	ParentAuthorUID string
}

// Dispatcher fans a stored comment out to the author it concerns.
type Dispatcher struct {
	notifier Notifier
	log      zerolog.Logger
}

func NewDispatcher(notifier Notifier, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, log: log.With().Str("component", "dispatcher").Logger()}
}

// Dispatch notifies in the background. The returned channel yields the outcome once and is
// closed; callers are free to ignore it. Failures are logged here and never reach the comment write.
func (d *Dispatcher) Dispatch(ctx context.Context, ev CommentEvent) <-chan error {
	done := make(chan error, 1)
	// The request may finish before the notification is written.
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		err := d.notify(ctx, ev)
		if err != nil {
			d.log.Error().Err(err).
				Str("comment", ev.Comment.ID).
				Str("post", ev.Post.ID).
				Msg("notification dispatch failed")
		}
		done <- err
	}()
	return done
}

func (d *Dispatcher) notify(ctx context.Context, ev CommentEvent) error {
	c := ev.Comment
	if c.IsReply() {
		if ev.ParentAuthorUID == "" || ev.ParentAuthorUID == c.WriterUID {
			return nil
		}
		return d.notifier.CreateReplyNotification(ctx, ev.ParentAuthorUID, c.WriterNickname,
			ev.Post.ID, ev.Post.Title, *c.ParentID, ev.Post.Type)
	}
	if ev.Post.WriterUID == "" || ev.Post.WriterUID == c.WriterUID {
		return nil
	}
	return d.notifier.CreateCommentNotification(ctx, ev.Post.WriterUID, c.WriterNickname,
		ev.Post.ID, ev.Post.Title, ev.Post.Type)
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"veryus/internal/models"
	"veryus/internal/utils"
)

// SystemNotifier sends staff notices.
type SystemNotifier interface {
	CreateSystemNotification(ctx context.Context, recipientID, reason string) error
}

// GradeService changes member grades and roles and keeps an audit trail.
type GradeService struct {
	db       *gorm.DB
	notifier SystemNotifier
	log      zerolog.Logger
}

func NewGradeService(db *gorm.DB, notifier SystemNotifier, log zerolog.Logger) *GradeService {
	return &GradeService{db: db, notifier: notifier, log: log.With().Str("component", "grades").Logger()}
}

// GradeChange carries the new values; empty fields are left untouched.
type GradeChange struct {
	Grade string `json:"grade"`
	Role  string `json:"role"`
}

// Change applies c to the member targetUID on behalf of actor. Grades may be set by vice admins
// and above, roles only by admins. Staff cannot act on members ranked at or above themselves.
func (s *GradeService) Change(ctx context.Context, actor *models.Session, targetUID string, c GradeChange) (*models.User, error) {
	if actor == nil {
		return nil, utils.NewAppError(utils.ErrUnauthorized, "login required", nil)
	}
	if c.Grade == "" && c.Role == "" {
		return nil, utils.InvalidInput("nothing to change")
	}
	if c.Grade != "" && !utils.ValidGrade(c.Grade) {
		return nil, utils.InvalidInput("unknown grade %q", c.Grade)
	}
	if c.Role != "" && !utils.ValidRole(c.Role) {
		return nil, utils.InvalidInput("unknown role %q", c.Role)
	}
	if !utils.IsPrivileged(actor.Role) {
		return nil, utils.Forbidden("only staff can change grades")
	}
	if c.Role != "" && actor.Role != utils.RoleAdmin {
		return nil, utils.Forbidden("only admins can change roles")
	}
	if actor.Is(targetUID) {
		return nil, utils.Forbidden("cannot change your own grade or role")
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", targetUID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFound("member not found")
			}
			return err
		}
		if actor.Role != utils.RoleAdmin && utils.RoleRank(user.Role) >= utils.RoleRank(actor.Role) {
			return utils.Forbidden("cannot change a member ranked at or above you")
		}

		entry := models.GradeLog{
			UserID:    user.ID,
			ActorUID:  actor.UserID,
			FromGrade: user.Grade,
			ToGrade:   user.Grade,
			FromRole:  user.Role,
			ToRole:    user.Role,
		}
		updates := map[string]any{}
		if c.Grade != "" {
			entry.ToGrade = c.Grade
			updates["grade"] = c.Grade
		}
		if c.Role != "" {
			entry.ToRole = c.Role
			updates["role"] = c.Role
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return err
		}
		user.Grade, user.Role = entry.ToGrade, entry.ToRole
		return nil
	})
	if err != nil {
		return nil, StoreError(err, "grade change failed")
	}

	name, icon := utils.GradeLabel(user.Grade)
	reason := fmt.Sprintf("Your grade is now %s %s", icon, name)
	if c.Role != "" {
		reason = fmt.Sprintf("%s, role %s", reason, user.Role)
	}
	if err := s.notifier.CreateSystemNotification(ctx, user.ID, reason); err != nil {
		s.log.Error().Err(err).Str("user", user.ID).Msg("grade change notification failed")
	}
	s.log.Info().Str("actor", actor.UserID).Str("user", user.ID).Str("grade", user.Grade).Str("role", user.Role).Msg("grade changed")
	return &user, nil
}

// History returns the grade log of one member, newest first.
func (s *GradeService) History(ctx context.Context, uid string) ([]models.GradeLog, error) {
	var logs []models.GradeLog
	if err := s.db.WithContext(ctx).Where("user_id = ?", uid).Order("created_at desc").Find(&logs).Error; err != nil {
		return nil, utils.Unavailable("load grade history", err)
	}
	return logs, nil
}

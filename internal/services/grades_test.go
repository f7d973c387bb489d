package services

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"veryus/internal/models"
	"veryus/internal/utils"
)

type systemNotices struct {
	mu      sync.Mutex
	reasons map[string][]string
}

func (n *systemNotices) CreateSystemNotification(_ context.Context, recipientID, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.reasons == nil {
		n.reasons = make(map[string][]string)
	}
	n.reasons[recipientID] = append(n.reasons[recipientID], reason)
	return nil
}

func createUser(t *testing.T, conn *gorm.DB, nickname, role string) models.User {
	t.Helper()
	u := models.User{Email: nickname + "@veryus.kr", Password: "x", Nickname: nickname, Role: role, Grade: utils.DefaultGrade}
	require.NoError(t, conn.Create(&u).Error)
	return u
}

func TestGradeChangeByViceAdmin(t *testing.T) {
	conn := newTestDB(t)
	notices := &systemNotices{}
	svc := NewGradeService(conn, notices, zerolog.Nop())
	staff := createUser(t, conn, "staff", utils.RoleViceAdmin)
	member := createUser(t, conn, "member", utils.RoleMember)

	got, err := svc.Change(context.Background(), staff.Session(), member.ID, GradeChange{Grade: "kiwi"})
	require.NoError(t, err)
	assert.Equal(t, "kiwi", got.Grade)

	var stored models.User
	require.NoError(t, conn.First(&stored, "id = ?", member.ID).Error)
	assert.Equal(t, "kiwi", stored.Grade)
	assert.Equal(t, utils.RoleMember, stored.Role)

	logs, err := svc.History(context.Background(), member.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "cherry", logs[0].FromGrade)
	assert.Equal(t, "kiwi", logs[0].ToGrade)
	assert.Equal(t, staff.ID, logs[0].ActorUID)

	assert.Len(t, notices.reasons[member.ID], 1)
}

func TestGradeChangePermissions(t *testing.T) {
	conn := newTestDB(t)
	svc := NewGradeService(conn, &systemNotices{}, zerolog.Nop())
	admin := createUser(t, conn, "admin", utils.RoleAdmin)
	vice := createUser(t, conn, "vice", utils.RoleViceAdmin)
	vice2 := createUser(t, conn, "vice2", utils.RoleViceAdmin)
	leader := createUser(t, conn, "leader", utils.RoleLeader)
	member := createUser(t, conn, "member", utils.RoleMember)
	ctx := context.Background()

	tests := []struct {
		name   string
		actor  *models.Session
		target string
		change GradeChange
		code   utils.Code
	}{
		{"anonymous", nil, member.ID, GradeChange{Grade: "kiwi"}, utils.ErrUnauthorized},
		{"leader cannot grade", leader.Session(), member.ID, GradeChange{Grade: "kiwi"}, utils.ErrForbidden},
		{"vice admin cannot set roles", vice.Session(), member.ID, GradeChange{Role: utils.RoleLeader}, utils.ErrForbidden},
		{"vice admin cannot grade peers", vice.Session(), vice2.ID, GradeChange{Grade: "kiwi"}, utils.ErrForbidden},
		{"no self promotion", admin.Session(), admin.ID, GradeChange{Role: utils.RoleMember}, utils.ErrForbidden},
		{"unknown grade", admin.Session(), member.ID, GradeChange{Grade: "banana"}, utils.ErrInvalidInput},
		{"empty change", admin.Session(), member.ID, GradeChange{}, utils.ErrInvalidInput},
		{"missing member", admin.Session(), "nope", GradeChange{Grade: "kiwi"}, utils.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Change(ctx, tt.actor, tt.target, tt.change)
			assert.Equal(t, tt.code, utils.CodeOf(err))
		})
	}

	got, err := svc.Change(ctx, admin.Session(), member.ID, GradeChange{Role: utils.RoleLeader, Grade: "apple"})
	require.NoError(t, err)
	assert.Equal(t, utils.RoleLeader, got.Role)
	assert.Equal(t, "apple", got.Grade)
}

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"veryus/internal/config"
	"veryus/internal/db"
	"veryus/internal/handlers"
	"veryus/internal/middleware"
	"veryus/internal/models"
	"veryus/internal/router"
	"veryus/internal/services"
	"veryus/internal/utils"
	"veryus/internal/websocket"
)

const testPassword = "secret123"

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	deps   *handlers.Deps
	engine *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.OpenMemory(t.Name())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	log := zerolog.Nop()
	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	store, err := services.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	cache, err := utils.NewCache(64)
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{
			SessionSecret:  "test-session-secret",
			SiteURL:        "http://veryus.test",
			AllowedOrigins: []string{"*"},
		},
		Log: config.LogConfig{Env: "development"},
	}
	notifications := services.NewNotificationService(conn, hub, log)
	deps := &handlers.Deps{
		DB:            conn,
		Log:           log,
		Config:        cfg,
		Cache:         cache,
		Hub:           hub,
		Store:         store,
		Mail:          services.NewMailService(config.MailConfig{}, log),
		Tokens:        middleware.NewTokenIssuer("test-realtime-secret", time.Minute),
		Notifications: notifications,
		Dispatcher:    services.NewDispatcher(notifications, log),
		Counters:      services.NewCounterService(conn, log),
		Grades:        services.NewGradeService(conn, notifications, log),
		Contests:      services.NewContestService(conn, log),
		Rooms:         services.NewRoomService(conn, time.UTC, log),
		Location:      time.UTC,
	}

	t.Cleanup(func() {
		cancel()
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return &testEnv{t: t, db: conn, deps: deps, engine: router.NewRouter(deps)}
}

// member creates an account with role and returns it with a logged in session cookie.
func (e *testEnv) member(nickname, role string) (*models.User, []*http.Cookie) {
	e.t.Helper()
	hash, err := utils.HashPassword(testPassword)
	require.NoError(e.t, err)
	user := &models.User{
		Email:    strings.ToLower(nickname) + "@veryus.test",
		Password: hash,
		Nickname: nickname,
		Grade:    utils.DefaultGrade,
		Role:     role,
	}
	require.NoError(e.t, e.db.Create(user).Error)

	rec := e.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": user.Email, "password": testPassword,
	}, nil)
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	return user, rec.Result().Cookies()
}

func (e *testEnv) do(method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorBody struct {
	Error   utils.Code `json:"error"`
	Message string     `json:"message"`
}

func (e *testEnv) createPost(cookies []*http.Cookie, board models.BoardType, title string) models.Post {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/posts", map[string]any{
		"type": board, "title": title, "content": "hello **world**",
	}, cookies)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Post](e.t, rec)
}

func (e *testEnv) notificationsFor(uid string) []models.Notification {
	var out []models.Notification
	require.NoError(e.t, e.db.Where("recipient_uid = ?", uid).Order("created_at").Find(&out).Error)
	return out
}

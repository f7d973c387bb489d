package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veryus/internal/utils"
	"veryus/internal/websocket"
)

func TestRealtimeTokenRequiresLogin(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/realtime/token", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/ws?token=garbage", nil, nil).Code)
}

func TestRealtimeDeliversUserRefresh(t *testing.T) {
	env := newTestEnv(t)
	bob, bobCookies := env.member("Bob", utils.RoleMember)
	_, aliceCookies := env.member("Alice", utils.RoleMember)

	rec := env.do(http.MethodGet, "/api/realtime/token", nil, bobCookies)
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[struct {
		Token string `json:"token"`
	}](t, rec).Token
	require.NotEmpty(t, token)

	srv := httptest.NewServer(env.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.deps.Hub.Connections() == 1 }, 2*time.Second, 10*time.Millisecond)

	rec = env.do(http.MethodPost, "/api/messages", map[string]string{"toUid": bob.ID, "content": "ping"}, aliceCookies)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var event websocket.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, websocket.UserTopic(bob.ID), event.Topic)
	assert.Equal(t, websocket.EventRefresh, event.Type)
}

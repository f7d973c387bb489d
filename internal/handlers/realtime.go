package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	ws "github.com/gorilla/websocket"

	"veryus/internal/middleware"
	"veryus/internal/utils"
	"veryus/internal/websocket"
)

type RealtimeHandler struct {
	*Deps
	upgrader ws.Upgrader
}

func NewRealtimeHandler(d *Deps) *RealtimeHandler {
	h := &RealtimeHandler{Deps: d}
	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Token issues a short-lived token for opening /ws. Browsers cannot attach the
// session cookie cross-origin during the upgrade, so the token travels in the query.
func (h *RealtimeHandler) Token(c *gin.Context) {
	user := middleware.CurrentUser(c)
	token, expiresAt, err := h.Tokens.Issue(user.ID)
	if err != nil {
		respondError(c, utils.NewAppError(utils.ErrInternal, "issue token", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": expiresAt})
}

// Connect upgrades GET /ws?token=... and registers the connection with the hub.
func (h *RealtimeHandler) Connect(c *gin.Context) {
	claims, err := h.Tokens.Validate(c.Query("token"))
	if err != nil {
		respondError(c, utils.NewAppError(utils.ErrUnauthorized, "invalid realtime token", err))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader already answered the client.
		h.Log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.Hub, claims.UserID, conn)
	if !h.Hub.Add(client) {
		_ = conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

func (h *RealtimeHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	for _, allowed := range h.Config.Server.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

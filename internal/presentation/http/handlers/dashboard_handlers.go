// Package handlers provides the dashboard HTTP handlers.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/xolodev/xolo-go/internal/application/container"
	"github.com/xolodev/xolo-go/internal/infrastructure/messaging"
	"github.com/xolodev/xolo-go/internal/infrastructure/observability/logging"
	"github.com/xolodev/xolo-go/internal/infrastructure/security"
	"github.com/xolodev/xolo-go/pkg/config"
)

// DashboardHandlers serves authentication, state inspection, and the live
// event feed for the dashboard.
type DashboardHandlers struct {
	container *container.Container
	upgrader  websocket.Upgrader
}

func NewDashboardHandlers(container *container.Container) *DashboardHandlers {
	return &DashboardHandlers{
		container: container,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard runs on localhost next to the proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// AuthCheck reports whether a password is required and whether the caller
// already holds a valid token.
func (h *DashboardHandlers) AuthCheck(c *gin.Context) {
	response := gin.H{
		"passwordRequired": config.DashboardPassword != "",
		"authenticated":    config.DashboardPassword == "",
	}
	if config.DashboardPassword == "" {
		response["message"] = "Set XOLO_DASHBOARD_PASSWORD to protect the dashboard"
	}

	auth := c.GetHeader("Authorization")
	if config.DashboardPassword != "" && len(auth) > 7 && auth[:7] == "Bearer " {
		if _, err := security.ValidateDashboardToken(auth[7:], h.container.DashboardSecret); err == nil {
			response["authenticated"] = true
		}
	}

	c.JSON(http.StatusOK, response)
}

// Login exchanges the dashboard password for a signed token.
func (h *DashboardHandlers) Login(c *gin.Context) {
	var request struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if config.DashboardPassword == "" {
		c.JSON(http.StatusOK, gin.H{"success": true, "token": "no-auth-required"})
		return
	}
	if request.Password != config.DashboardPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	token, err := security.IssueDashboardToken(h.container.DashboardSecret, config.DashboardTokenTTL)
	if err != nil {
		h.container.Logger.Dashboard().Error("Token issue failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

// GetSummary returns the ledger and inventory overview.
func (h *DashboardHandlers) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.States.Summary())
}

// GetLedger returns the full purchase history by item.
func (h *DashboardHandlers) GetLedger(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.container.States.Ledger()})
}

// GetCaches returns the fill level of every correlation cache.
func (h *DashboardHandlers) GetCaches(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"caches": h.container.States.Caches()})
}

// ForceSave flushes the state snapshot immediately.
func (h *DashboardHandlers) ForceSave(c *gin.Context) {
	if err := h.container.States.ForceSave(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Save failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Reset clears the simulated ledger and inventory, keeping session
// credentials and the audit trail.
func (h *DashboardHandlers) Reset(c *gin.Context) {
	if err := h.container.States.Reset(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reset failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// LiveFeed upgrades to a websocket and streams engine events until the
// client disconnects.
func (h *DashboardHandlers) LiveFeed(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.container.Logger.Dashboard().Error("Websocket upgrade failed", "error", err.Error())
		return
	}

	client := messaging.NewClient(conn)
	h.container.Broadcaster.Register(client)
	go client.WritePump()

	// Drain reads until the peer closes, then drop the registration.
	defer h.container.Broadcaster.Unregister(client)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// GetLogLevels returns the current per-channel log levels.
func (h *DashboardHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.Logger.ChannelLevels())
}

// SetLogLevel changes the level of one log channel.
func (h *DashboardHandlers) SetLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	level, err := logging.ParseLevel(req.Level)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log level specified"})
		return
	}
	if err := h.container.Logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set log level", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, req.Level)})
}

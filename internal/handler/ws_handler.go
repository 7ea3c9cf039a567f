package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nikhil123421/theGlobalMixtape/internal/config"
	"github.com/nikhil123421/theGlobalMixtape/internal/domain"
	"github.com/nikhil123421/theGlobalMixtape/internal/hub"
	"github.com/nikhil123421/theGlobalMixtape/internal/service"
	"github.com/nikhil123421/theGlobalMixtape/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler handles the push transport.
type WSHandler struct {
	hub          *hub.Hub
	radioService service.RadioService
	wsCfg        config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.RadioService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:          h,
		radioService: svc,
		wsCfg:        wsCfg,
	}
}

// RegisterRoutes registers the websocket route.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}

// HandleWebSocket upgrades the connection, registers the client with
// the hub, and sends one snapshot immediately so a new listener has a
// baseline before the first state change.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	l := log.Ctx(c.Request.Context())

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)
	h.hub.Register(client)

	client.SendMessage(domain.NewSyncEvent(h.radioService.Snapshot()))

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	l := log.L().With().Str(log.FieldClientID, client.ID).Logger()
	ctx := log.WithLogger(context.Background(), l)

	var cmd domain.Command
	if err := json.Unmarshal(message, &cmd); err != nil {
		client.SendMessage(domain.NewErrorMessage("invalid message format"))
		return
	}

	switch cmd.Type {
	case domain.MsgTypeTrackEnded:
		if _, err := h.radioService.ReportEnded(ctx, cmd.TrackID); err != nil {
			client.SendMessage(domain.NewErrorMessage("track_id is required"))
		}

	case domain.MsgTypePlay:
		if _, err := h.radioService.StartPlayback(ctx); err != nil {
			l.Error().Err(err).Msg("start playback failed")
		}

	case domain.MsgTypePing:
		client.SendMessage(domain.Command{Type: domain.MsgTypePong})

	default:
		client.SendMessage(domain.NewErrorMessage("unknown message type"))
	}
}

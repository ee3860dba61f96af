package ws_room

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	http_common "github.com/avelichko/planpoker/internal/delivery/http/common"
	"github.com/avelichko/planpoker/internal/model"
	service_auth "github.com/avelichko/planpoker/internal/service/auth"
	usecase_session "github.com/avelichko/planpoker/internal/usecase/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Controller struct {
	hub      *Hub
	sessions *usecase_session.Service
	auth     *service_auth.Service
	logger   *slog.Logger
}

func NewController(hub *Hub, sessions *usecase_session.Service, auth *service_auth.Service) *Controller {
	return &Controller{
		hub:      hub,
		sessions: sessions,
		auth:     auth,
		logger:   slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/rooms/:room_id/ws", c.serve)
}

// serve authenticates, upgrades, joins the room and hands the socket to
// the hub. The token travels as a query parameter because browser
// websocket clients cannot set headers.
func (c *Controller) serve(ctx *gin.Context) {
	roomID := model.RoomID(ctx.Param("room_id"))

	identity, err := c.auth.Resolve(ctx.Query("token"))
	if err != nil {
		c.logger.Warn("websocket auth rejected", "room", roomID, "error", err)
		ctx.JSON(http.StatusUnauthorized, http_common.ErrorResponse{
			Message: "invalid token",
		})
		return
	}

	role := model.Role(ctx.DefaultQuery("role", string(model.RoleVoter)))
	if !role.Valid() {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "unknown role",
		})
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("websocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	session, err := c.sessions.Join(ctx.Request.Context(), roomID, usecase_session.Identity{
		Name:       identity.Name,
		IdentityID: identity.IdentityID,
		PhotoURL:   identity.PhotoURL,
	}, role)
	if err != nil {
		c.logger.Error("join failed", "room", roomID, "error", err)
		c.closeWithReason(conn, err)
		return
	}

	NewClient(c.hub, conn, session).Start()
}

func (c *Controller) closeWithReason(conn *websocket.Conn, err error) {
	code := websocket.CloseInternalServerErr
	if errors.Is(err, usecase_session.ErrInvalidRole) {
		code = websocket.ClosePolicyViolation
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, err.Error()))
	conn.Close()
}

package http_room

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	http_auth_middleware "github.com/avelichko/planpoker/internal/delivery/http/middleware/auth"
	ws_room "github.com/avelichko/planpoker/internal/delivery/ws/room"
	"github.com/avelichko/planpoker/internal/model"
)

type Controller struct {
	hub        *ws_room.Hub
	middleware *http_auth_middleware.Middleware
	logger     *slog.Logger
}

func New(hub *ws_room.Hub, middleware *http_auth_middleware.Middleware) *Controller {
	return &Controller{
		hub:        hub,
		middleware: middleware,
		logger:     slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/deck", c.deck)
	rooms := router.Group("/rooms")
	rooms.Use(c.middleware.AuthRequired())
	{
		rooms.POST("", c.create)
		rooms.GET("/:room_id", c.describe)
	}
}

type CreateRoomResponseDTO struct {
	RoomCode string `json:"room_code"`
}

// create hands out a fresh shareable room code. The room document
// itself materializes in the store on the first join.
func (c *Controller) create(ctx *gin.Context) {
	code := model.NewRoomID()

	c.logger.Info("room code issued", "room", code)
	ctx.JSON(http.StatusCreated, CreateRoomResponseDTO{
		RoomCode: string(code),
	})
}

type DescribeRoomResponseDTO struct {
	RoomCode          string `json:"room_code"`
	Active            bool   `json:"active"`
	ParticipantsCount int    `json:"participants_count"`
}

// describe reports whether anyone is currently in the room. Unknown
// codes are not an error: joining one simply starts a fresh room.
func (c *Controller) describe(ctx *gin.Context) {
	roomID := model.RoomID(ctx.Param("room_id"))

	count, active := c.hub.ParticipantsCount(roomID)
	ctx.JSON(http.StatusOK, DescribeRoomResponseDTO{
		RoomCode:          string(roomID),
		Active:            active,
		ParticipantsCount: count,
	})
}

type DeckResponseDTO struct {
	Cards     []string `json:"cards"`
	Reactions []string `json:"reactions"`
}

// deck exposes the fixed card set in display order plus the allowed
// reaction emojis, so clients render exactly what the protocol accepts.
func (c *Controller) deck(ctx *gin.Context) {
	cards := make([]string, 0, len(model.Deck))
	for _, card := range model.Deck {
		cards = append(cards, string(card))
	}

	ctx.JSON(http.StatusOK, DeckResponseDTO{
		Cards:     cards,
		Reactions: model.ReactionEmojis,
	})
}

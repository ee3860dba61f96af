package ws_room

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"

	"github.com/avelichko/planpoker/internal/model"
	usecase_session "github.com/avelichko/planpoker/internal/usecase/session"
)

const (
	ActionVote       = "vote"
	ActionReveal     = "reveal"
	ActionResetVotes = "reset_votes"
	ActionNewRound   = "new_round"
	ActionStory      = "story"
	ActionStartTimer = "start_timer"
	ActionStopTimer  = "stop_timer"
	ActionRole       = "role"
	ActionReaction   = "reaction"
	ActionNudge      = "nudge"
	ActionLeave      = "leave"
)

// Command is one client request over the socket. Fields beyond Action
// are read per action and ignored otherwise.
type Command struct {
	Action   string `json:"action"`
	Value    string `json:"value,omitempty"`
	Story    string `json:"story,omitempty"`
	Seconds  int    `json:"seconds,omitempty"`
	Role     string `json:"role,omitempty"`
	Emoji    string `json:"emoji,omitempty"`
	TargetID string `json:"target_id,omitempty"`
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan Event
	session *usecase_session.Session
	roomID  model.RoomID
}

func NewClient(hub *Hub, conn *websocket.Conn, session *usecase_session.Session) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan Event, 16),
		session: session,
		roomID:  session.RoomID(),
	}
}

// Start registers the client and runs both pumps. The initial JOINED
// event tells the participant which ephemeral id is theirs.
func (c *Client) Start() {
	c.hub.register <- c

	c.send <- Event{
		Type: EventJoined,
		Payload: map[string]any{
			"room_id": c.roomID,
			"user_id": c.session.UserID(),
		},
	}

	go c.writePump()
	go c.readPump()
}

// readPump exiting, for whatever reason, is the disconnect: the session
// fires the store-side removal registered at join.
func (c *Client) readPump() {
	defer func() {
		c.session.Disconnected()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.hub.logger.Warn("bad command payload", "room", c.roomID, "error", err)
			continue
		}
		if cmd.Action == ActionLeave {
			if err := c.session.Leave(context.Background()); err != nil {
				c.hub.logger.Error("leave failed", "room", c.roomID, "error", err)
			}
			return
		}
		if err := c.dispatch(cmd); err != nil {
			c.hub.sendError(c, cmd.Action, err)
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for event := range c.send {
		if err := c.conn.WriteJSON(event); err != nil {
			return
		}
	}
}

func (c *Client) dispatch(cmd Command) error {
	ctx := context.Background()

	switch cmd.Action {
	case ActionVote:
		return c.session.Vote(ctx, model.VoteValue(cmd.Value))
	case ActionReveal:
		return c.session.Reveal(ctx)
	case ActionResetVotes:
		return c.session.ResetVotes(ctx)
	case ActionNewRound:
		return c.session.NewRound(ctx)
	case ActionStory:
		return c.session.UpdateStory(ctx, cmd.Story)
	case ActionStartTimer:
		return c.session.StartTimer(ctx, cmd.Seconds)
	case ActionStopTimer:
		return c.session.StopTimer(ctx)
	case ActionRole:
		return c.session.ChangeRole(ctx, model.Role(cmd.Role))
	case ActionReaction:
		return c.session.SendReaction(ctx, cmd.Emoji)
	case ActionNudge:
		if err := c.nudgeAllowed(cmd.TargetID); err != nil {
			return err
		}
		return c.session.Nudge(ctx, cmd.TargetID)
	default:
		return ErrUnknownAction
	}
}

// nudgeAllowed is the delivery-layer rule the protocol leaves to its
// callers: only an idle voter other than yourself, before reveal.
func (c *Client) nudgeAllowed(targetID string) error {
	room := c.session.Current()
	target, ok := room.User(targetID)

	switch {
	case !ok:
		return ErrNudgeTarget
	case targetID == c.session.UserID():
		return ErrNudgeSelf
	case room.Revealed:
		return ErrNudgeRevealed
	case target.IsSpectator() || target.HasVoted():
		return ErrNudgeTarget
	}
	return nil
}

package model

import (
	"math/rand"
	"strings"
)

type RoomID string

const EmptyRoomID RoomID = ""

// NewRoomID builds a shareable room code. Collisions over 8 base-36
// characters are accepted as negligible.
func NewRoomID() RoomID {
	const codeLen = 8
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	var builder strings.Builder
	builder.Grow(len("game-") + codeLen)
	builder.WriteString("game-")
	for i := 0; i < codeLen; i++ {
		builder.WriteByte(alphabet[rand.Intn(len(alphabet))])
	}
	return RoomID(builder.String())
}

type Role string

const (
	RoleVoter     Role = "voter"
	RoleSpectator Role = "spectator"
)

func (r Role) Valid() bool {
	return r == RoleVoter || r == RoleSpectator
}

// RoomUser is one participant entry under rooms/{id}/users. The map key
// is an ephemeral store-generated id; IdentityID is the stable identity
// behind it and survives rejoins.
type RoomUser struct {
	Name       string
	IdentityID string
	Vote       VoteValue
	JoinedAt   int64
	PhotoURL   string
	Role       Role
	NudgedAt   int64
}

func (u RoomUser) HasVoted() bool {
	return u.Vote != NoVote
}

func (u RoomUser) IsSpectator() bool {
	return u.Role == RoleSpectator
}

// Reaction is a transient emoji signal. Entries older than the reaction
// TTL are treated as absent by readers regardless of physical deletion.
type Reaction struct {
	ID        string
	Emoji     string
	UserName  string
	Timestamp int64
}

// ReactionEmojis is the fixed set a participant may send.
var ReactionEmojis = []string{"👍", "🤔", "😱", "☕", "🎉"}

func ValidReactionEmoji(emoji string) bool {
	for _, e := range ReactionEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}

// Room is the shared document for one room code. It is a decoded mirror
// of the store subtree; holders never mutate it in place.
type Room struct {
	Users         map[string]RoomUser
	Revealed      bool
	Story         string
	TimerEndsAt   *int64
	TimerDuration *int
	Reactions     map[string]Reaction
}

func (r Room) User(id string) (RoomUser, bool) {
	u, ok := r.Users[id]
	return u, ok
}

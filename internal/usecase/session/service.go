// Package usecase_session implements the room protocol: one Session per
// joined participant, every mutation a small targeted write against the
// shared store, state observed back through the room subscription. The
// store merges concurrent writers last-write-wins per field; nothing
// here locks the room.
package usecase_session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avelichko/planpoker/internal/expiry"
	"github.com/avelichko/planpoker/internal/model"
	"github.com/avelichko/planpoker/internal/rtstore"
)

var (
	ErrNotJoined        = errors.New("no active room session")
	ErrAlreadyRevealed  = errors.New("votes already revealed")
	ErrInvalidVote      = errors.New("vote outside the deck")
	ErrInvalidDuration  = errors.New("timer duration out of range")
	ErrInvalidRole      = errors.New("unknown role")
	ErrInvalidEmoji     = errors.New("reaction emoji not allowed")
	ErrStoreUnavailable = errors.New("store unavailable")
)

const (
	// ReactionTTL is how long a reaction physically lives before its
	// sender deletes it.
	ReactionTTL = 5 * time.Second

	// NudgeTTL is how long a nudge timestamp stays set on its target.
	NudgeTTL = 2 * time.Second

	MinTimerSeconds = 1
	MaxTimerSeconds = 900
)

// Identity is the authenticated participant behind a session: resolved
// display name, the stable id that survives rejoins, optional avatar.
type Identity struct {
	Name       string
	IdentityID string
	PhotoURL   string
}

type Service struct {
	store     rtstore.Store
	scheduler *expiry.Scheduler
	logger    *slog.Logger

	reactionTTL time.Duration
	nudgeTTL    time.Duration
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithReactionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.reactionTTL = ttl
	}
}

func WithNudgeTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.nudgeTTL = ttl
	}
}

func New(store rtstore.Store, scheduler *expiry.Scheduler, opts ...ServiceOption) *Service {
	s := &Service{
		store:       store,
		scheduler:   scheduler,
		logger:      slog.Default(),
		reactionTTL: ReactionTTL,
		nudgeTTL:    NudgeTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) now() time.Time {
	return s.scheduler.Clock().Now()
}

// SubscribeRoom opens a session-less subscription for observers that
// watch a room without participating in it.
func (s *Service) SubscribeRoom(roomID model.RoomID) *rtstore.Subscription {
	return s.store.Subscribe(roomPath(roomID))
}

func (s *Service) UnsubscribeRoom(sub *rtstore.Subscription) {
	s.store.Unsubscribe(sub)
}

// RevealRoom is the session-less reveal used by auto-reveal observers.
// Revealing an already revealed room rewrites the same state, so any
// number of racing observers is safe.
func (s *Service) RevealRoom(ctx context.Context, roomID model.RoomID) error {
	err := s.store.WriteMultiple(ctx, roomPath(roomID), map[string]any{
		model.FieldRevealed:      true,
		model.FieldTimerEndsAt:   nil,
		model.FieldTimerDuration: nil,
	})
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// PurgeReaction removes a reaction whose sender failed to clean it up.
func (s *Service) PurgeReaction(ctx context.Context, roomID model.RoomID, reactionID string) error {
	err := s.store.WriteField(ctx, join(reactionsPath(roomID), reactionID), nil)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteRoom drops the whole room subtree. Called when the last
// participant is gone; the store prunes most of the tree on its own,
// this removes what room-level fields remain.
func (s *Service) DeleteRoom(ctx context.Context, roomID model.RoomID) error {
	err := s.store.WriteField(ctx, roomPath(roomID), nil)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func roomPath(roomID model.RoomID) string {
	return "rooms/" + string(roomID)
}

func usersPath(roomID model.RoomID) string {
	return join(roomPath(roomID), model.FieldUsers)
}

func userPath(roomID model.RoomID, userID string) string {
	return join(usersPath(roomID), userID)
}

func reactionsPath(roomID model.RoomID) string {
	return join(roomPath(roomID), model.FieldReactions)
}

func join(base, rel string) string {
	return base + "/" + rel
}

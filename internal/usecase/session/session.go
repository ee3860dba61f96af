package usecase_session

import (
	"context"
	"errors"
	"sync"

	"github.com/avelichko/planpoker/internal/model"
	"github.com/avelichko/planpoker/internal/rtstore"
)

// State is the presence lifecycle of one participant connection.
type State int

const (
	StateDisconnected State = iota
	StateJoining
	StateJoined
	StateLeaving
)

// Session is one participant's live attachment to a room. All room
// context is carried here explicitly; there is no ambient current-room
// state anywhere in the package.
type Session struct {
	svc      *Service
	roomID   model.RoomID
	userID   string
	identity Identity

	sub       *rtstore.Subscription
	snapshots chan model.Room

	mu      sync.Mutex
	state   State
	current model.Room
}

// Join attaches a participant to a room: allocate a store-generated
// user key, write the entry with no vote, register disconnect removal
// for exactly that entry, open the room subscription. The session is
// Joined only once all four steps held.
func (s *Service) Join(ctx context.Context, roomID model.RoomID, identity Identity, role model.Role) (*Session, error) {
	if role == "" {
		role = model.RoleVoter
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	sess := &Session{
		svc:      s,
		roomID:   roomID,
		identity: identity,
		state:    StateJoining,
	}

	sess.userID = s.store.GenerateChildKey(usersPath(roomID))

	entry := map[string]any{
		model.FieldName:       identity.Name,
		model.FieldIdentityID: identity.IdentityID,
		model.FieldJoinedAt:   s.now().UnixMilli(),
		model.FieldRole:       string(role),
	}
	if identity.PhotoURL != "" {
		entry[model.FieldPhotoURL] = identity.PhotoURL
	}
	if err := s.store.WriteField(ctx, userPath(roomID, sess.userID), entry); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	s.store.RegisterOnDisconnectRemoval(sess.userID, userPath(roomID, sess.userID))

	sess.sub = s.store.Subscribe(roomPath(roomID))
	sess.snapshots = make(chan model.Room, 1)
	go sess.pump()

	sess.mu.Lock()
	sess.state = StateJoined
	sess.mu.Unlock()

	s.logger.Info("joined room",
		"room", roomID,
		"user_id", sess.userID,
		"name", identity.Name,
		"role", role)

	return sess, nil
}

// pump decodes raw subtree snapshots into the typed mirror. The local
// mirror changes only here, never from the mutating side.
func (sess *Session) pump() {
	for snapshot := range sess.sub.C {
		room := model.RoomFromTree(snapshot)

		sess.mu.Lock()
		sess.current = room
		sess.mu.Unlock()

		select {
		case sess.snapshots <- room:
		default:
			select {
			case <-sess.snapshots:
			default:
			}
			select {
			case sess.snapshots <- room:
			default:
			}
		}
	}
	close(sess.snapshots)
}

// Snapshots delivers the typed room state after every observed change,
// coalesced to the latest.
func (sess *Session) Snapshots() <-chan model.Room {
	return sess.snapshots
}

// Current returns the last observed room state.
func (sess *Session) Current() model.Room {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.current
}

func (sess *Session) RoomID() model.RoomID {
	return sess.roomID
}

func (sess *Session) UserID() string {
	return sess.userID
}

func (sess *Session) Name() string {
	return sess.identity.Name
}

func (sess *Session) joined() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state == StateJoined
}

// Leave tears the session down voluntarily: unsubscribe first so the
// session never observes its own absence as a spurious empty room, then
// delete the entry. Leaving twice is a no-op.
func (sess *Session) Leave(ctx context.Context) error {
	sess.mu.Lock()
	if sess.state != StateJoined {
		sess.mu.Unlock()
		return nil
	}
	sess.state = StateLeaving
	sess.mu.Unlock()

	sess.svc.store.Unsubscribe(sess.sub)
	sess.svc.store.CancelDisconnectRemovals(sess.userID)

	err := sess.svc.store.WriteField(ctx, userPath(sess.roomID, sess.userID), nil)

	sess.mu.Lock()
	sess.state = StateDisconnected
	sess.mu.Unlock()

	sess.svc.logger.Info("left room", "room", sess.roomID, "user_id", sess.userID)

	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Disconnected handles an ungraceful drop: the store executes the
// removal registered at join time. Harmless after a clean Leave.
func (sess *Session) Disconnected() {
	sess.mu.Lock()
	if sess.state == StateDisconnected {
		sess.mu.Unlock()
		return
	}
	sess.state = StateDisconnected
	sess.mu.Unlock()

	sess.svc.store.Unsubscribe(sess.sub)
	sess.svc.store.Disconnected(sess.userID)

	sess.svc.logger.Info("disconnected from room", "room", sess.roomID, "user_id", sess.userID)
}

// Vote casts or clears the caller's card. Rejected once the room is
// revealed; the original reference dropped such votes silently, here the
// caller gets told.
func (sess *Session) Vote(ctx context.Context, value model.VoteValue) error {
	if !sess.joined() {
		return ErrNotJoined
	}
	if value != model.NoVote && !value.Valid() {
		return ErrInvalidVote
	}
	if sess.Current().Revealed {
		return ErrAlreadyRevealed
	}

	var stored any
	if value != model.NoVote {
		stored = string(value)
	}
	if err := sess.svc.store.WriteField(ctx, join(sess.ownPath(), model.FieldVote), stored); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Reveal exposes all votes and stops any running countdown. Idempotent;
// any participant may reveal at any time, even with zero votes cast.
func (sess *Session) Reveal(ctx context.Context) error {
	if !sess.joined() {
		return ErrNotJoined
	}
	return sess.svc.RevealRoom(ctx, sess.roomID)
}

// ResetVotes hides the cards and clears every user's vote in one atomic
// write, so no observer sees a half-cleared room. The story stays.
func (sess *Session) ResetVotes(ctx context.Context) error {
	return sess.reset(ctx, false)
}

// NewRound is ResetVotes plus a cleared story.
func (sess *Session) NewRound(ctx context.Context) error {
	return sess.reset(ctx, true)
}

func (sess *Session) reset(ctx context.Context, clearStory bool) error {
	if !sess.joined() {
		return ErrNotJoined
	}

	updates := map[string]any{
		model.FieldRevealed:      false,
		model.FieldTimerEndsAt:   nil,
		model.FieldTimerDuration: nil,
	}
	if clearStory {
		updates[model.FieldStory] = ""
	}
	for userID := range sess.Current().Users {
		updates[model.FieldUsers+"/"+userID+"/"+model.FieldVote] = nil
	}

	if err := sess.svc.store.WriteMultiple(ctx, roomPath(sess.roomID), updates); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// UpdateStory overwrites the story text, last write wins.
func (sess *Session) UpdateStory(ctx context.Context, story string) error {
	if !sess.joined() {
		return ErrNotJoined
	}
	if err := sess.svc.store.WriteField(ctx, join(roomPath(sess.roomID), model.FieldStory), story); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// StartTimer writes an absolute deadline computed on this side of the
// wire; clock skew between participants is accepted.
func (sess *Session) StartTimer(ctx context.Context, durationSeconds int) error {
	if !sess.joined() {
		return ErrNotJoined
	}
	if durationSeconds < MinTimerSeconds || durationSeconds > MaxTimerSeconds {
		return ErrInvalidDuration
	}

	endsAt := sess.svc.now().UnixMilli() + int64(durationSeconds)*1000
	err := sess.svc.store.WriteMultiple(ctx, roomPath(sess.roomID), map[string]any{
		model.FieldTimerEndsAt:   endsAt,
		model.FieldTimerDuration: durationSeconds,
	})
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (sess *Session) StopTimer(ctx context.Context) error {
	if !sess.joined() {
		return ErrNotJoined
	}
	err := sess.svc.store.WriteMultiple(ctx, roomPath(sess.roomID), map[string]any{
		model.FieldTimerEndsAt:   nil,
		model.FieldTimerDuration: nil,
	})
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// ChangeRole switches the caller between voter and spectator. An
// existing vote is left in place; aggregates simply stop counting it.
func (sess *Session) ChangeRole(ctx context.Context, role model.Role) error {
	if !sess.joined() {
		return ErrNotJoined
	}
	if !role.Valid() {
		return ErrInvalidRole
	}
	if err := sess.svc.store.WriteField(ctx, join(sess.ownPath(), model.FieldRole), string(role)); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// SendReaction pushes a transient emoji visible to the whole room and
// schedules its own deletion after the TTL.
func (sess *Session) SendReaction(ctx context.Context, emoji string) error {
	if !sess.joined() {
		return ErrNotJoined
	}
	if !model.ValidReactionEmoji(emoji) {
		return ErrInvalidEmoji
	}

	path := join(reactionsPath(sess.roomID), sess.svc.store.GenerateChildKey(reactionsPath(sess.roomID)))
	entry := map[string]any{
		model.FieldEmoji:     emoji,
		model.FieldUserName:  sess.identity.Name,
		model.FieldTimestamp: sess.svc.now().UnixMilli(),
	}
	if err := sess.svc.store.WriteField(ctx, path, entry); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}

	sess.svc.scheduler.Schedule(sess.svc.reactionTTL, func() error {
		return sess.svc.store.WriteField(context.Background(), path, nil)
	})
	return nil
}

// Nudge flags another participant and schedules the flag to clear.
// Whether the target is a sensible one (has not voted, is not the
// caller, room not revealed) is the caller's rule to enforce; the
// protocol itself writes unconditionally.
func (sess *Session) Nudge(ctx context.Context, targetUserID string) error {
	if !sess.joined() {
		return ErrNotJoined
	}

	path := join(userPath(sess.roomID, targetUserID), model.FieldNudgedAt)
	if err := sess.svc.store.WriteField(ctx, path, sess.svc.now().UnixMilli()); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}

	sess.svc.scheduler.Schedule(sess.svc.nudgeTTL, func() error {
		return sess.svc.store.WriteField(context.Background(), path, nil)
	})
	return nil
}

func (sess *Session) ownPath() string {
	return userPath(sess.roomID, sess.userID)
}

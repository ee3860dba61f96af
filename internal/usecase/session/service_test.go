package usecase_session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avelichko/planpoker/internal/expiry"
	"github.com/avelichko/planpoker/internal/model"
	"github.com/avelichko/planpoker/internal/rtstore"
	"github.com/avelichko/planpoker/internal/rtstore/mocks"
)

var errStoreDown = errors.New("store down")

// closedSubscription satisfies the mock's Subscribe with a channel that
// is already closed, so the session pump exits right away.
func closedSubscription(path string) *rtstore.Subscription {
	ch := make(chan any)
	close(ch)
	return &rtstore.Subscription{Path: path, C: ch}
}

func joinedSession(t *testing.T, store *mocks.Store) (*Service, *Session) {
	t.Helper()

	clock := expiry.NewFakeClock(time.UnixMilli(1_700_000_000_000))
	svc := New(store, expiry.NewScheduler(clock))

	store.On("GenerateChildKey", "rooms/game-x/users").Return("u1").Once()
	store.On("WriteField", mock.Anything, "rooms/game-x/users/u1", mock.Anything).Return(nil).Once()
	store.On("RegisterOnDisconnectRemoval", "u1", "rooms/game-x/users/u1").Once()
	store.On("Subscribe", "rooms/game-x").Return(closedSubscription("rooms/game-x")).Once()

	sess, err := svc.Join(context.Background(), "game-x", Identity{Name: "ann", IdentityID: "id-ann"}, model.RoleVoter)
	require.NoError(t, err)
	return svc, sess
}

func TestJoinWritesEntryAndRegistersRemoval(t *testing.T) {
	store := mocks.NewStore(t)

	var entry map[string]any
	store.On("GenerateChildKey", "rooms/game-x/users").Return("u1").Once()
	store.On("WriteField", mock.Anything, "rooms/game-x/users/u1", mock.Anything).
		Run(func(args mock.Arguments) {
			entry = args.Get(2).(map[string]any)
		}).Return(nil).Once()
	store.On("RegisterOnDisconnectRemoval", "u1", "rooms/game-x/users/u1").Once()
	store.On("Subscribe", "rooms/game-x").Return(closedSubscription("rooms/game-x")).Once()

	clock := expiry.NewFakeClock(time.UnixMilli(1_700_000_000_000))
	svc := New(store, expiry.NewScheduler(clock))

	sess, err := svc.Join(context.Background(), "game-x", Identity{Name: "ann", IdentityID: "id-ann"}, model.RoleSpectator)
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID())

	assert.Equal(t, "ann", entry[model.FieldName])
	assert.Equal(t, "id-ann", entry[model.FieldIdentityID])
	assert.Equal(t, clock.Now().UnixMilli(), entry[model.FieldJoinedAt])
	assert.Equal(t, "spectator", entry[model.FieldRole])
	assert.NotContains(t, entry, model.FieldVote, "a joiner carries no vote")
	assert.NotContains(t, entry, model.FieldPhotoURL, "empty avatar is omitted")
}

func TestJoinEntryWriteFailure(t *testing.T) {
	store := mocks.NewStore(t)
	store.On("GenerateChildKey", mock.Anything).Return("u1").Once()
	store.On("WriteField", mock.Anything, mock.Anything, mock.Anything).Return(errStoreDown).Once()

	clock := expiry.NewFakeClock(time.UnixMilli(1_700_000_000_000))
	svc := New(store, expiry.NewScheduler(clock))

	_, err := svc.Join(context.Background(), "game-x", Identity{Name: "ann"}, model.RoleVoter)

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestVoteWritesOwnField(t *testing.T) {
	store := mocks.NewStore(t)
	_, sess := joinedSession(t, store)

	store.On("WriteField", mock.Anything, "rooms/game-x/users/u1/vote", "8").Return(nil).Once()
	require.NoError(t, sess.Vote(context.Background(), "8"))

	store.On("WriteField", mock.Anything, "rooms/game-x/users/u1/vote", nil).Return(nil).Once()
	require.NoError(t, sess.Vote(context.Background(), model.NoVote))
}

func TestInvalidInputNeverReachesTheStore(t *testing.T) {
	store := mocks.NewStore(t)
	_, sess := joinedSession(t, store)
	ctx := context.Background()

	assert.ErrorIs(t, sess.Vote(ctx, "4"), ErrInvalidVote)
	assert.ErrorIs(t, sess.StartTimer(ctx, 0), ErrInvalidDuration)
	assert.ErrorIs(t, sess.StartTimer(ctx, 901), ErrInvalidDuration)
	assert.ErrorIs(t, sess.ChangeRole(ctx, "referee"), ErrInvalidRole)
	assert.ErrorIs(t, sess.SendReaction(ctx, "🦄"), ErrInvalidEmoji)
	// No WriteField/WriteMultiple expectations were set; the mock would
	// fail the test on any store call.
}

func TestRevealWritesRoomFields(t *testing.T) {
	store := mocks.NewStore(t)
	_, sess := joinedSession(t, store)

	store.On("WriteMultiple", mock.Anything, "rooms/game-x", map[string]any{
		model.FieldRevealed:      true,
		model.FieldTimerEndsAt:   nil,
		model.FieldTimerDuration: nil,
	}).Return(nil).Once()

	require.NoError(t, sess.Reveal(context.Background()))
}

func TestStartTimerWritesDeadline(t *testing.T) {
	store := mocks.NewStore(t)
	_, sess := joinedSession(t, store)

	store.On("WriteMultiple", mock.Anything, "rooms/game-x", map[string]any{
		model.FieldTimerEndsAt:   int64(1_700_000_000_000 + 60_000),
		model.FieldTimerDuration: 60,
	}).Return(nil).Once()

	require.NoError(t, sess.StartTimer(context.Background(), 60))
}

func TestResetClearsEveryVoteAtomically(t *testing.T) {
	store := mocks.NewStore(t)
	_, sess := joinedSession(t, store)

	sess.mu.Lock()
	sess.current = model.Room{Users: map[string]model.RoomUser{
		"u1": {Name: "ann", Vote: "5"},
		"u2": {Name: "bob", Vote: "8"},
	}}
	sess.mu.Unlock()

	store.On("WriteMultiple", mock.Anything, "rooms/game-x", map[string]any{
		model.FieldRevealed:      false,
		model.FieldTimerEndsAt:   nil,
		model.FieldTimerDuration: nil,
		"users/u1/vote":          nil,
		"users/u2/vote":          nil,
	}).Return(nil).Once()

	require.NoError(t, sess.ResetVotes(context.Background()))
}

func TestReactionScheduledDeletion(t *testing.T) {
	store := mocks.NewStore(t)
	clock := expiry.NewFakeClock(time.UnixMilli(1_700_000_000_000))
	svc := New(store, expiry.NewScheduler(clock))

	store.On("GenerateChildKey", "rooms/game-x/users").Return("u1").Once()
	store.On("WriteField", mock.Anything, "rooms/game-x/users/u1", mock.Anything).Return(nil).Once()
	store.On("RegisterOnDisconnectRemoval", "u1", "rooms/game-x/users/u1").Once()
	store.On("Subscribe", "rooms/game-x").Return(closedSubscription("rooms/game-x")).Once()

	sess, err := svc.Join(context.Background(), "game-x", Identity{Name: "ann"}, model.RoleVoter)
	require.NoError(t, err)

	store.On("GenerateChildKey", "rooms/game-x/reactions").Return("r1").Once()
	store.On("WriteField", mock.Anything, "rooms/game-x/reactions/r1", map[string]any{
		model.FieldEmoji:     "🎉",
		model.FieldUserName:  "ann",
		model.FieldTimestamp: int64(1_700_000_000_000),
	}).Return(nil).Once()
	require.NoError(t, sess.SendReaction(context.Background(), "🎉"))

	store.On("WriteField", mock.Anything, "rooms/game-x/reactions/r1", nil).Return(nil).Once()
	clock.Advance(ReactionTTL)
}

func TestLeaveUnsubscribesBeforeDeleting(t *testing.T) {
	store := mocks.NewStore(t)
	_, sess := joinedSession(t, store)

	var order []string
	store.On("Unsubscribe", mock.Anything).Run(func(mock.Arguments) {
		order = append(order, "unsubscribe")
	}).Once()
	store.On("CancelDisconnectRemovals", "u1").Run(func(mock.Arguments) {
		order = append(order, "cancel")
	}).Once()
	store.On("WriteField", mock.Anything, "rooms/game-x/users/u1", nil).Run(func(mock.Arguments) {
		order = append(order, "delete")
	}).Return(nil).Once()

	require.NoError(t, sess.Leave(context.Background()))
	assert.Equal(t, []string{"unsubscribe", "cancel", "delete"}, order)

	// Second leave touches nothing.
	require.NoError(t, sess.Leave(context.Background()))
}

func TestDisconnectedDelegatesToStore(t *testing.T) {
	store := mocks.NewStore(t)
	_, sess := joinedSession(t, store)

	store.On("Unsubscribe", mock.Anything).Once()
	store.On("Disconnected", "u1").Once()

	sess.Disconnected()
	sess.Disconnected()
}

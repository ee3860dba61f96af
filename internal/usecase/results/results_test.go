package usecase_results

import (
	"testing"
	"time"

	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"

	"github.com/avelichko/planpoker/internal/model"
)

type ResultsSuite struct {
	suite.Suite
}

func roomWithVotes(votes ...model.VoteValue) model.Room {
	room := model.Room{Users: map[string]model.RoomUser{}}
	for i, vote := range votes {
		room.Users[userID(i)] = model.RoomUser{
			Name: "user-" + userID(i),
			Vote: vote,
			Role: model.RoleVoter,
		}
	}
	return room
}

func userID(i int) string {
	return string(rune('a' + i))
}

func (s *ResultsSuite) TestProgress(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		room     model.Room
		expected Progress
	}{
		{
			name:     "empty room has no progress",
			room:     roomWithVotes(),
			expected: Progress{},
		},
		{
			name:     "counts cast votes among voters",
			room:     roomWithVotes("5", model.NoVote, "8"),
			expected: Progress{Voted: 2, Total: 3},
		},
		{
			name:     "all voted",
			room:     roomWithVotes("5", "8"),
			expected: Progress{Voted: 2, Total: 2, AllVoted: true},
		},
		{
			name: "spectator vote never counts",
			room: model.Room{Users: map[string]model.RoomUser{
				"a": {Vote: "5", Role: model.RoleVoter},
				"b": {Vote: "8", Role: model.RoleSpectator},
			}},
			expected: Progress{Voted: 1, Total: 1, AllVoted: true},
		},
		{
			name: "spectators alone produce no quorum",
			room: model.Room{Users: map[string]model.RoomUser{
				"a": {Vote: "5", Role: model.RoleSpectator},
			}},
			expected: Progress{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			progress := ComputeProgress(tc.room)

			assert.Equal(t, tc.expected, progress)
			assert.LessOrEqual(t, progress.Voted, progress.Total)
		})
	}
}

func (s *ResultsSuite) TestAverage(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		room       model.Room
		expected   float64
		expectedOK bool
	}{
		{
			name:       "mean over numeric votes only",
			room:       roomWithVotes("3", "5", model.VoteQuestion),
			expected:   4.0,
			expectedOK: true,
		},
		{
			name:       "undefined without numeric votes",
			room:       roomWithVotes(model.VoteQuestion, model.VoteCoffee),
			expectedOK: false,
		},
		{
			name:       "undefined in an empty room",
			room:       roomWithVotes(),
			expectedOK: false,
		},
		{
			name: "spectator numeric vote excluded",
			room: model.Room{Users: map[string]model.RoomUser{
				"a": {Vote: "5", Role: model.RoleVoter},
				"b": {Vote: "21", Role: model.RoleSpectator},
			}},
			expected:   5.0,
			expectedOK: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			avg, ok := Average(tc.room)

			assert.Equal(t, tc.expectedOK, ok)
			if tc.expectedOK {
				assert.InDelta(t, tc.expected, avg, 1e-9)
			}
		})
	}
}

func (s *ResultsSuite) TestTally(t provider.T) {
	t.Parallel()

	t.Run("groups sorted by count then ascending value", func(t provider.T) {
		room := roomWithVotes("5", "8", "5", "8", "3")

		groups := Tally(room)

		values := make([]model.VoteValue, 0, len(groups))
		counts := make([]int, 0, len(groups))
		for _, g := range groups {
			values = append(values, g.Value)
			counts = append(counts, g.Count)
		}
		assert.Equal(t, []model.VoteValue{"5", "8", "3"}, values)
		assert.Equal(t, []int{2, 2, 1}, counts)
	})

	t.Run("non-numeric cards sort last on ties", func(t provider.T) {
		room := roomWithVotes(model.VoteQuestion, "13")

		groups := Tally(room)

		assert.Equal(t, model.VoteValue("13"), groups[0].Value)
		assert.Equal(t, model.VoteQuestion, groups[1].Value)
	})

	t.Run("skips absent votes and spectators", func(t provider.T) {
		room := model.Room{Users: map[string]model.RoomUser{
			"a": {Name: "ann", Vote: "5", Role: model.RoleVoter},
			"b": {Name: "bob", Vote: model.NoVote, Role: model.RoleVoter},
			"c": {Name: "cat", Vote: "5", Role: model.RoleSpectator},
		}}

		groups := Tally(room)

		assert.Len(t, groups, 1)
		assert.Equal(t, []string{"ann"}, groups[0].Voters)
	})
}

func (s *ResultsSuite) TestConsensus(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		room     model.Room
		expected bool
	}{
		{name: "unanimous trio", room: roomWithVotes("5", "5", "5"), expected: true},
		{name: "one dissenter", room: roomWithVotes("5", "5", "8"), expected: false},
		{name: "single voter is not consensus", room: roomWithVotes("5"), expected: false},
		{name: "empty room", room: roomWithVotes(), expected: false},
		{name: "non-numeric unanimity counts", room: roomWithVotes(model.VoteCoffee, model.VoteCoffee), expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, HasConsensus(tc.room))
		})
	}
}

func (s *ResultsSuite) TestShouldAutoReveal(t provider.T) {
	t.Parallel()

	t.Run("fires once every voter has voted", func(t provider.T) {
		room := roomWithVotes("5", "8")
		assert.True(t, ShouldAutoReveal(room))
	})

	t.Run("never fires on a revealed room", func(t provider.T) {
		room := roomWithVotes("5", "8")
		room.Revealed = true
		assert.False(t, ShouldAutoReveal(room))
	})

	t.Run("waits for missing votes", func(t provider.T) {
		room := roomWithVotes("5", model.NoVote)
		assert.False(t, ShouldAutoReveal(room))
	})

	t.Run("never fires on an empty room", func(t provider.T) {
		assert.False(t, ShouldAutoReveal(roomWithVotes()))
	})
}

func (s *ResultsSuite) TestTimer(t provider.T) {
	t.Parallel()

	now := time.UnixMilli(1_700_000_000_000)

	t.Run("remaining right after start", func(t provider.T) {
		endsAt := now.Add(60 * time.Second).UnixMilli()
		room := model.Room{TimerEndsAt: &endsAt}

		remaining, ok := TimerRemaining(room, now.Add(200*time.Millisecond))

		assert.True(t, ok)
		assert.Greater(t, remaining, 59*time.Second)
		assert.LessOrEqual(t, remaining, 60*time.Second)
		assert.False(t, TimerExpired(room, now))
	})

	t.Run("absent without a running timer", func(t provider.T) {
		_, ok := TimerRemaining(model.Room{}, now)

		assert.False(t, ok)
		assert.False(t, TimerExpired(model.Room{}, now))
	})

	t.Run("expired clamps to zero", func(t provider.T) {
		endsAt := now.Add(-time.Second).UnixMilli()
		room := model.Room{TimerEndsAt: &endsAt}

		remaining, ok := TimerRemaining(room, now)

		assert.True(t, ok)
		assert.Equal(t, time.Duration(0), remaining)
		assert.True(t, TimerExpired(room, now))
	})
}

func (s *ResultsSuite) TestEphemeralWindows(t provider.T) {
	t.Parallel()

	now := time.UnixMilli(1_700_000_000_000)

	t.Run("reactions older than the display window disappear", func(t provider.T) {
		room := model.Room{Reactions: map[string]model.Reaction{
			"fresh": {ID: "fresh", Emoji: "🎉", Timestamp: now.Add(-time.Second).UnixMilli()},
			"stale": {ID: "stale", Emoji: "👍", Timestamp: now.Add(-4 * time.Second).UnixMilli()},
		}}

		fresh := FreshReactions(room, now)

		assert.Len(t, fresh, 1)
		assert.Equal(t, "fresh", fresh[0].ID)
	})

	t.Run("nudge flash expires", func(t provider.T) {
		nudged := model.RoomUser{NudgedAt: now.Add(-time.Second).UnixMilli()}
		stale := model.RoomUser{NudgedAt: now.Add(-3 * time.Second).UnixMilli()}
		never := model.RoomUser{}

		assert.True(t, IsNudged(nudged, now))
		assert.False(t, IsNudged(stale, now))
		assert.False(t, IsNudged(never, now))
	})
}

func TestResultsSuite(t *testing.T) {
	suite.RunSuite(t, new(ResultsSuite))
}

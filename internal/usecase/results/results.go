// Package usecase_results derives UI-ready aggregates from a room
// snapshot. Everything here is pure: same snapshot and clock reading in,
// same answer out, no state kept between calls.
package usecase_results

import (
	"sort"
	"time"

	"github.com/avelichko/planpoker/internal/model"
)

// ReactionDisplayWindow is the presentation cutoff for reactions. It is
// deliberately shorter than the physical TTL so an entry whose sender
// crashed before cleanup still stops rendering.
const ReactionDisplayWindow = 3 * time.Second

// NudgeWindow is how long a nudge flash stays active on its target.
const NudgeWindow = 2 * time.Second

type Progress struct {
	Voted    int
	Total    int
	AllVoted bool
}

// ComputeProgress counts votes among non-spectators only.
func ComputeProgress(room model.Room) Progress {
	var p Progress
	for _, user := range room.Users {
		if user.IsSpectator() {
			continue
		}
		p.Total++
		if user.HasVoted() {
			p.Voted++
		}
	}
	p.AllVoted = p.Total > 0 && p.Voted == p.Total
	return p
}

// Average is the arithmetic mean of the voters' numeric votes. ok is
// false when no numeric vote exists.
func Average(room model.Room) (float64, bool) {
	var sum float64
	var count int
	for _, user := range room.Users {
		if user.IsSpectator() {
			continue
		}
		if n, numeric := user.Vote.Numeric(); numeric {
			sum += n
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

type VoteGroup struct {
	Value  model.VoteValue
	Voters []string
	Count  int
}

// Tally groups voters by vote value, largest group first, equal sizes
// tie-broken by ascending numeric value with non-numeric cards last.
func Tally(room model.Room) []VoteGroup {
	byValue := make(map[model.VoteValue][]string)
	for _, user := range room.Users {
		if user.IsSpectator() || !user.HasVoted() {
			continue
		}
		byValue[user.Vote] = append(byValue[user.Vote], user.Name)
	}

	groups := make([]VoteGroup, 0, len(byValue))
	for value, voters := range byValue {
		sort.Strings(voters)
		groups = append(groups, VoteGroup{Value: value, Voters: voters, Count: len(voters)})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Value.SortKey() < groups[j].Value.SortKey()
	})
	return groups
}

// HasConsensus reports whether at least two voters voted and every one
// of them picked the same card.
func HasConsensus(room model.Room) bool {
	var voted int
	var distinct model.VoteValue
	for _, user := range room.Users {
		if user.IsSpectator() || !user.HasVoted() {
			continue
		}
		voted++
		if distinct == model.NoVote {
			distinct = user.Vote
		} else if distinct != user.Vote {
			return false
		}
	}
	return voted >= 2
}

// ShouldAutoReveal reports the transition every observer watches for:
// all voters in, room still hidden. The reveal it triggers must be
// idempotent because any number of observers may act on it at once.
func ShouldAutoReveal(room model.Room) bool {
	return !room.Revealed && ComputeProgress(room).AllVoted
}

// TimerRemaining reads the countdown against the given now. ok is false
// when no timer is running.
func TimerRemaining(room model.Room, now time.Time) (time.Duration, bool) {
	if room.TimerEndsAt == nil {
		return 0, false
	}
	remaining := time.UnixMilli(*room.TimerEndsAt).Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// TimerExpired reports a running timer whose deadline has passed.
func TimerExpired(room model.Room, now time.Time) bool {
	remaining, ok := TimerRemaining(room, now)
	return ok && remaining == 0
}

// FreshReactions filters out reactions older than the display window,
// newest last.
func FreshReactions(room model.Room, now time.Time) []model.Reaction {
	fresh := make([]model.Reaction, 0, len(room.Reactions))
	for _, reaction := range room.Reactions {
		if now.Sub(time.UnixMilli(reaction.Timestamp)) < ReactionDisplayWindow {
			fresh = append(fresh, reaction)
		}
	}
	sort.Slice(fresh, func(i, j int) bool {
		if fresh[i].Timestamp != fresh[j].Timestamp {
			return fresh[i].Timestamp < fresh[j].Timestamp
		}
		return fresh[i].ID < fresh[j].ID
	})
	return fresh
}

// IsNudged reports whether the user's nudge flash is still active.
func IsNudged(user model.RoomUser, now time.Time) bool {
	return user.NudgedAt > 0 && now.Sub(time.UnixMilli(user.NudgedAt)) < NudgeWindow
}

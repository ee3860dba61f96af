package ws_room

import (
	"sort"
	"time"

	"github.com/avelichko/planpoker/internal/model"
	usecase_results "github.com/avelichko/planpoker/internal/usecase/results"
)

type UserDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	PhotoURL string `json:"photo_url,omitempty"`
	HasVoted bool   `json:"has_voted"`
	Vote     string `json:"vote,omitempty"`
	IsNudged bool   `json:"is_nudged"`
	JoinedAt int64  `json:"joined_at"`
}

type ReactionDTO struct {
	ID        string `json:"id"`
	Emoji     string `json:"emoji"`
	UserName  string `json:"user_name"`
	Timestamp int64  `json:"timestamp"`
}

type VoteGroupDTO struct {
	Value  string   `json:"value"`
	Count  int      `json:"count"`
	Voters []string `json:"voters"`
}

type ResultsDTO struct {
	Average      *float64       `json:"average,omitempty"`
	Groups       []VoteGroupDTO `json:"groups"`
	HasConsensus bool           `json:"has_consensus"`
}

type TimerDTO struct {
	EndsAt           int64 `json:"ends_at"`
	Duration         int   `json:"duration"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

type RoomStateDTO struct {
	Revealed   bool          `json:"revealed"`
	Story      string        `json:"story"`
	Users      []UserDTO     `json:"users"`
	VotedCount int           `json:"voted_count"`
	TotalCount int           `json:"total_count"`
	AllVoted   bool          `json:"all_voted"`
	Timer      *TimerDTO     `json:"timer,omitempty"`
	Reactions  []ReactionDTO `json:"reactions"`
	Results    *ResultsDTO   `json:"results,omitempty"`
}

// BuildRoomState renders one snapshot for one viewer. Until the room is
// revealed every card but the viewer's own stays face down; results are
// attached only after reveal.
func BuildRoomState(room model.Room, now time.Time, viewerID string) RoomStateDTO {
	progress := usecase_results.ComputeProgress(room)

	dto := RoomStateDTO{
		Revealed:   room.Revealed,
		Story:      room.Story,
		VotedCount: progress.Voted,
		TotalCount: progress.Total,
		AllVoted:   progress.AllVoted,
		Users:      make([]UserDTO, 0, len(room.Users)),
		Reactions:  make([]ReactionDTO, 0, len(room.Reactions)),
	}

	for id, user := range room.Users {
		entry := UserDTO{
			ID:       id,
			Name:     user.Name,
			Role:     string(user.Role),
			PhotoURL: user.PhotoURL,
			HasVoted: user.HasVoted(),
			IsNudged: usecase_results.IsNudged(user, now),
			JoinedAt: user.JoinedAt,
		}
		if room.Revealed || id == viewerID {
			entry.Vote = string(user.Vote)
		}
		dto.Users = append(dto.Users, entry)
	}
	sort.Slice(dto.Users, func(i, j int) bool {
		if dto.Users[i].JoinedAt != dto.Users[j].JoinedAt {
			return dto.Users[i].JoinedAt < dto.Users[j].JoinedAt
		}
		return dto.Users[i].ID < dto.Users[j].ID
	})

	if room.TimerEndsAt != nil {
		timer := &TimerDTO{EndsAt: *room.TimerEndsAt}
		if room.TimerDuration != nil {
			timer.Duration = *room.TimerDuration
		}
		if remaining, ok := usecase_results.TimerRemaining(room, now); ok {
			timer.RemainingSeconds = int(remaining.Round(time.Second) / time.Second)
		}
		dto.Timer = timer
	}

	for _, reaction := range usecase_results.FreshReactions(room, now) {
		dto.Reactions = append(dto.Reactions, ReactionDTO{
			ID:        reaction.ID,
			Emoji:     reaction.Emoji,
			UserName:  reaction.UserName,
			Timestamp: reaction.Timestamp,
		})
	}

	if room.Revealed {
		results := &ResultsDTO{
			HasConsensus: usecase_results.HasConsensus(room),
			Groups:       make([]VoteGroupDTO, 0),
		}
		if avg, ok := usecase_results.Average(room); ok {
			results.Average = &avg
		}
		for _, group := range usecase_results.Tally(room) {
			results.Groups = append(results.Groups, VoteGroupDTO{
				Value:  string(group.Value),
				Count:  group.Count,
				Voters: group.Voters,
			})
		}
		dto.Results = results
	}

	return dto
}

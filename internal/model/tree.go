package model

// Field names of the room document inside the store tree. Mutations
// address individual fields by these names; the decoder reads them back
// from full-subtree snapshots.
const (
	FieldUsers         = "users"
	FieldRevealed      = "revealed"
	FieldStory         = "story"
	FieldTimerEndsAt   = "timerEndsAt"
	FieldTimerDuration = "timerDuration"
	FieldReactions     = "reactions"

	FieldName       = "name"
	FieldIdentityID = "identityId"
	FieldVote       = "vote"
	FieldJoinedAt   = "joinedAt"
	FieldPhotoURL   = "photoURL"
	FieldRole       = "role"
	FieldNudgedAt   = "nudgedAt"

	FieldEmoji     = "emoji"
	FieldUserName  = "userName"
	FieldTimestamp = "timestamp"
)

// RoomFromTree decodes a full room subtree snapshot. A nil snapshot or
// any missing branch decodes to the corresponding zero state, matching
// how an empty or partially written room must read.
func RoomFromTree(v any) Room {
	room := Room{
		Users:     map[string]RoomUser{},
		Reactions: map[string]Reaction{},
	}

	tree, ok := v.(map[string]any)
	if !ok {
		return room
	}

	room.Revealed = asBool(tree[FieldRevealed])
	room.Story = asString(tree[FieldStory])
	if ends, ok := asInt64(tree[FieldTimerEndsAt]); ok {
		room.TimerEndsAt = &ends
	}
	if dur, ok := asInt64(tree[FieldTimerDuration]); ok {
		d := int(dur)
		room.TimerDuration = &d
	}

	if users, ok := tree[FieldUsers].(map[string]any); ok {
		for id, entry := range users {
			fields, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			user := RoomUser{
				Name:       asString(fields[FieldName]),
				IdentityID: asString(fields[FieldIdentityID]),
				Vote:       VoteValue(asString(fields[FieldVote])),
				PhotoURL:   asString(fields[FieldPhotoURL]),
				Role:       Role(asString(fields[FieldRole])),
			}
			if user.Role == "" {
				user.Role = RoleVoter
			}
			user.JoinedAt, _ = asInt64(fields[FieldJoinedAt])
			user.NudgedAt, _ = asInt64(fields[FieldNudgedAt])
			room.Users[id] = user
		}
	}

	if reactions, ok := tree[FieldReactions].(map[string]any); ok {
		for id, entry := range reactions {
			fields, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			reaction := Reaction{
				ID:       id,
				Emoji:    asString(fields[FieldEmoji]),
				UserName: asString(fields[FieldUserName]),
			}
			reaction.Timestamp, _ = asInt64(fields[FieldTimestamp])
			room.Reactions[id] = reaction
		}
	}

	return room
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

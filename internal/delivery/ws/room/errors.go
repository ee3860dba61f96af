package ws_room

import "errors"

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrNudgeTarget   = errors.New("target cannot be nudged")
	ErrNudgeSelf     = errors.New("cannot nudge yourself")
	ErrNudgeRevealed = errors.New("votes are already revealed")
)

package model

import "strconv"

// VoteValue is one card from the fixed deck. The empty string means
// "no vote cast" and is never written to the store.
type VoteValue string

const NoVote VoteValue = ""

const (
	VoteQuestion VoteValue = "?"
	VoteCoffee   VoteValue = "☕"
)

// Deck is the full card set in display order. The order also defines
// the tie-break order when grouping revealed votes.
var Deck = []VoteValue{"0", "1", "2", "3", "5", "8", "13", "21", VoteQuestion, VoteCoffee}

// nonNumericSortKey pushes '?' and '☕' behind every numeric card
// when tallies are tie-broken by value.
const nonNumericSortKey = 999

func (v VoteValue) Valid() bool {
	for _, c := range Deck {
		if v == c {
			return true
		}
	}
	return false
}

// Numeric returns the card's numeric value. ok is false for '?', '☕'
// and for an absent vote.
func (v VoteValue) Numeric() (float64, bool) {
	if v == NoVote || v == VoteQuestion || v == VoteCoffee {
		return 0, false
	}
	n, err := strconv.ParseFloat(string(v), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortKey is the tie-break key used when two vote groups have equal size.
func (v VoteValue) SortKey() float64 {
	if n, ok := v.Numeric(); ok {
		return n
	}
	return nonNumericSortKey
}

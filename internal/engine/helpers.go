package engine

import "github.com/mighty/server/internal/card"

func indexOfCard(hand []card.Card, c card.Card) int {
	for i, h := range hand {
		if h == c {
			return i
		}
	}
	return -1
}

func containsCard(hand []card.Card, c card.Card) bool {
	return indexOfCard(hand, c) >= 0
}

func removeAt(hand []card.Card, idx int) []card.Card {
	out := make([]card.Card, 0, len(hand)-1)
	out = append(out, hand[:idx]...)
	out = append(out, hand[idx+1:]...)
	return out
}

func deepCopyHands(hands [][]card.Card) [][]card.Card {
	out := make([][]card.Card, len(hands))
	for i, h := range hands {
		out[i] = append([]card.Card(nil), h...)
	}
	return out
}

func intPtr(v int) *int { return &v }

func patternPtr(p card.Pattern) *card.Pattern { return &p }

func samePattern(a, b *card.Pattern) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// chooseMultiple picks n distinct cards from hand at random, used when a
// player submits CmdRandom in place of an explicit drop_cards selection.
func chooseMultiple(rng RNG, hand []card.Card, n int) []card.Card {
	if n >= len(hand) {
		return append([]card.Card(nil), hand...)
	}
	pool := append([]card.Card(nil), hand...)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return append([]card.Card(nil), pool[:n]...)
}

// isCompatibleRush reports whether rushType is a non-empty subset of the
// two suits belonging to color; a joker lead must declare one or both of
// its own color's suits as its rush.
func isCompatibleRush(color card.Color, rushType card.Rush) bool {
	allowed := card.RushOfColor(color)
	return rushType != card.RushNone && rushType&^allowed == 0
}

// patternFromRush picks a representative suit out of a rush mask, used to
// set State.CurrentPattern when a joker leads a trick.
func patternFromRush(r card.Rush) card.Pattern {
	switch {
	case r&card.RushSpade != 0:
		return card.Spade
	case r&card.RushDiamond != 0:
		return card.Diamond
	case r&card.RushHeart != 0:
		return card.Heart
	default:
		return card.Clover
	}
}

package rule

import "github.com/mighty/server/internal/card"

// Preset names one of the nine historical named rule books, carried forward
// from the game's original rule module as a SPEC_FULL-supplemented feature.
type Preset int

const (
	Default5 Preset = iota
	DDSHS5
	DHSH5
	KMLA5
	GSA5
	GSHS5
	SKU5
	SSHS5
	YU5
)

// Build constructs the Rule for a named preset by applying its overlay
// chain to the 5-player baseline.
func Build(p Preset) Rule {
	base := NewRule()
	switch p {
	case Default5:
		return base
	case DDSHS5:
		return base.With(
			func(r Rule) Rule {
				r.Election = r.Election &^ NoGirudaExist
				return r
			},
			func(r Rule) Rule {
				r.Pledge.ChangeCost = 1
				return r
			},
			func(r Rule) Rule {
				r.Friend = FriendCard | FriendFake
				return r
			},
			func(r Rule) Rule {
				r.JokerCall = JokerCall{
					Pairs: []JokerCallPair{
						{Calling: card.NewNormal(card.Clover, 2), Called: card.NewJoker(card.Black)},
					},
					HasPower:      true,
					MightyDefense: true,
				}
				return r
			},
		)
	case DHSH5:
		return base.With(
			func(r Rule) Rule {
				r.Pledge.NoGirudaOffset = 2
				return r
			},
			func(r Rule) Rule {
				r.Friend = FriendCard | FriendUser
				return r
			},
		)
	case KMLA5:
		return base.With(
			func(r Rule) Rule {
				r.Election = Ordered | NoGirudaExist
				return r
			},
			func(r Rule) Rule {
				r.Pledge.Min = 14
				return r
			},
		)
	case GSA5:
		return base.With(
			func(r Rule) Rule {
				r.Friend = FriendCard | FriendUser | FriendWinning | FriendPick
				return r
			},
		)
	case GSHS5:
		return base.With(
			func(r Rule) Rule {
				r.Deck = card.Cards(card.FullDeck)
				return r
			},
			func(r Rule) Rule {
				r.Election = 0
				return r
			},
			func(r Rule) Rule {
				r.Pledge.Min = 14
				return r
			},
			func(r Rule) Rule {
				w := cloneWeights(r.MissedDeal.Weights)
				w[card.NewNormal(card.Spade, 0)] = -1
				r.MissedDeal.Weights = w
				return r
			},
			func(r Rule) Rule {
				r.JokerCall = JokerCall{
					Pairs: []JokerCallPair{
						{Calling: card.NewNormal(card.Clover, 2), Called: card.NewJoker(card.Black)},
						{Calling: card.NewNormal(card.Spade, 1), Called: card.NewJoker(card.Red)},
					},
					HasPower:      true,
					MightyDefense: true,
				}
				return r
			},
		)
	case SKU5:
		return base.With(
			func(r Rule) Rule {
				r.Pledge.FirstOffset = 1
				return r
			},
		)
	case SSHS5:
		return base.With(
			func(r Rule) Rule {
				r.Election = r.Election &^ PassFirst
				return r
			},
			func(r Rule) Rule {
				r.Friend = FriendUser | FriendWinning
				return r
			},
		)
	case YU5:
		return base.With(
			func(r Rule) Rule {
				r.Election = Increasing | Ordered
				return r
			},
			func(r Rule) Rule {
				r.Pledge.Min = 14
				r.Pledge.Max = 23
				return r
			},
		)
	default:
		return base
	}
}

func cloneWeights(w map[card.Card]int) map[card.Card]int {
	out := make(map[card.Card]int, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

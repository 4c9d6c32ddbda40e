package engine

import (
	"github.com/mighty/server/internal/card"
	"github.com/mighty/server/internal/rule"
)

// NewState deals a fresh hand and returns the initial Election state.
// A missed deal (a hand too weak to play) forces a reshuffle, up to
// rule.MissedDeal.Limit attempts; past that the last deal stands regardless.
func NewState(r rule.Rule, rng RNG) State {
	hands, left := dealUntilValid(r, rng)
	return State{
		Phase:    PhaseElection,
		Pledge:   make([]*PledgeBid, r.UserCnt),
		Done:     make([]bool, r.UserCnt),
		CurrUser: 0,
		Hand:     hands,
		Left:     left,
	}
}

func dealUntilValid(r rule.Rule, rng RNG) ([][]card.Card, []card.Card) {
	dealt := int(r.UserCnt) * int(r.CardCntPerUser)
	var hands [][]card.Card
	var left []card.Card
	for attempt := 0; ; attempt++ {
		deck := append([]card.Card(nil), r.Deck...)
		rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

		hands = make([][]card.Card, r.UserCnt)
		for i := 0; i < int(r.UserCnt); i++ {
			hand := make([]card.Card, r.CardCntPerUser)
			copy(hand, deck[i*int(r.CardCntPerUser):(i+1)*int(r.CardCntPerUser)])
			hands[i] = hand
		}
		left = append([]card.Card(nil), deck[dealt:]...)

		anyMissed := false
		for _, h := range hands {
			if r.MissedDeal.IsMissedDeal(h) {
				anyMissed = true
				break
			}
		}
		if !anyMissed || attempt >= r.MissedDeal.Limit {
			return hands, left
		}
	}
}

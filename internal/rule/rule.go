// Package rule defines the Mighty rule parameter bundle: election/friend
// flags, pledge bounds, the missed-deal table, the card-policy grid,
// joker-call configuration, and the named historical rule presets.
package rule

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/mighty/server/internal/card"
)

// ElectionFlag is a bit set of election-phase behaviors.
type ElectionFlag uint8

const (
	Ordered ElectionFlag = 1 << iota
	Increasing
	PassFirst
	NoGirudaExist
)

func (f ElectionFlag) Has(bit ElectionFlag) bool { return f&bit != 0 }

// FriendFlag is a bit set of which FriendFunc variants a rule permits.
type FriendFlag uint8

const (
	FriendNone FriendFlag = 1 << iota
	FriendCard
	FriendUser
	FriendWinning
	FriendPick
	FriendFake
)

func (f FriendFlag) Has(bit FriendFlag) bool { return f&bit != 0 }

// Pledge bounds the election bidding.
type Pledge struct {
	Min            uint8
	Max            uint8
	FirstOffset    int8
	NoGirudaOffset int8
	ChangeCost     uint8
}

// Valid reports whether the pledge bounds are internally consistent.
func (p Pledge) Valid() bool {
	return p.Min <= p.Max
}

// MissedDeal determines which freshly dealt hands trigger a redeal.
type MissedDeal struct {
	// Weights maps a card's (pattern, rank) to its weight contribution.
	// Absent entries weigh zero.
	Weights map[card.Card]int
	// JokerWeight is applied for any joker held.
	JokerWeight int
	// Threshold: a hand is a missed deal when its total weight is <= Threshold.
	Threshold int
	// Limit bounds how many times a deal is retried before the last deal stands.
	Limit int
}

// IsMissedDeal reports whether hand is weak enough to force a redeal.
func (m MissedDeal) IsMissedDeal(hand []card.Card) bool {
	total := 0
	for _, c := range hand {
		if c.IsJoker() {
			total += m.JokerWeight
			continue
		}
		total += m.Weights[c]
	}
	return total <= m.Threshold
}

// CardClass names a class of cards that carries special trick-play policy.
type CardClass int

const (
	ClassMighty CardClass = iota
	ClassJoker
	ClassGiruda
	ClassJokerCall
)

// Policy is the legality of a card class in a given trick position.
type Policy int

const (
	PolicyValid Policy = iota
	PolicyInvalidForLead
	PolicyInvalidForFollow
	PolicyNoEffect
)

// CardPolicy is a (class, position) -> Policy lookup table. It is carried,
// hashed and serialized with the Rule; internal/engine does not read it.
type CardPolicy map[CardClass][2]Policy // index 0 = lead, 1 = follow

// Lead returns the lead-position policy for a class (Valid if unset).
func (cp CardPolicy) Lead(c CardClass) Policy {
	if v, ok := cp[c]; ok {
		return v[0]
	}
	return PolicyValid
}

// Follow returns the follow-position policy for a class (Valid if unset).
func (cp CardPolicy) Follow(c CardClass) Policy {
	if v, ok := cp[c]; ok {
		return v[1]
	}
	return PolicyValid
}

func defaultCardPolicy() CardPolicy {
	return CardPolicy{
		ClassMighty:    [2]Policy{PolicyValid, PolicyValid},
		ClassJoker:     [2]Policy{PolicyValid, PolicyValid},
		ClassGiruda:    [2]Policy{PolicyValid, PolicyValid},
		ClassJokerCall: [2]Policy{PolicyValid, PolicyInvalidForFollow},
	}
}

// JokerCallPair is one (calling card, called card) joker-call binding.
type JokerCallPair struct {
	Calling card.Card
	Called  card.Card
}

// JokerCall configures the joker-call mechanic.
type JokerCall struct {
	Pairs         []JokerCallPair
	HasPower      bool
	MightyDefense bool
}

// Len returns the number of configured joker-call pairs.
func (j JokerCall) Len() int { return len(j.Pairs) }

// CallingCard reports whether c is configured as a calling card, and if so
// returns the card it calls.
func (j JokerCall) CallingCard(c card.Card) (card.Card, bool) {
	for _, p := range j.Pairs {
		if p.Calling == c {
			return p.Called, true
		}
	}
	return card.Card{}, false
}

// NextDealer selects who deals the following hand.
type NextDealer int

const (
	NextDealerWinner NextDealer = iota
	NextDealerLoser
	NextDealerPresident
	NextDealerFriend
)

// Visibility is a bit set of facts revealed mid-game.
type Visibility uint8

const (
	VisibilityFriendIdentity Visibility = 1 << iota
)

// Rule is the complete, immutable Mighty parameter bundle.
type Rule struct {
	UserCnt        uint8
	CardCntPerUser uint8
	FriendCnt      uint8
	Deck           []card.Card
	MissedDeal     MissedDeal
	Election       ElectionFlag
	Pledge         Pledge
	Friend         FriendFlag
	CardPolicy     CardPolicy
	JokerCall      JokerCall
	PatternOrder   [4]card.Pattern
	Visibility     Visibility
	NextDealer     NextDealer
}

// NewRule returns the 5-player baseline rule (the Default5 preset's base,
// before preset-specific overlays are applied).
func NewRule() Rule {
	deck := card.Cards(card.SingleJoker)
	weights := make(map[card.Card]int, 52)
	for _, c := range deck {
		if c.IsJoker() {
			continue
		}
		switch {
		case c.Rank == 0 || c.Rank >= 10:
			weights[c] = 3
		case c.Rank >= 7:
			weights[c] = 2
		default:
			weights[c] = 1
		}
	}
	return Rule{
		UserCnt:        5,
		CardCntPerUser: 10,
		FriendCnt:      1,
		Deck:           deck,
		MissedDeal: MissedDeal{
			Weights:     weights,
			JokerWeight: 0,
			Threshold:   12,
			Limit:       5,
		},
		Election: Ordered | PassFirst | NoGirudaExist,
		Pledge: Pledge{
			Min:            13,
			Max:            20,
			FirstOffset:    0,
			NoGirudaOffset: 1,
			ChangeCost:     2,
		},
		Friend:     FriendCard | FriendUser | FriendWinning,
		CardPolicy: defaultCardPolicy(),
		JokerCall: JokerCall{
			Pairs: []JokerCallPair{
				{Calling: card.NewNormal(card.Clover, 2), Called: card.NewJoker(card.Black)},
			},
			HasPower:      true,
			MightyDefense: true,
		},
		PatternOrder: [4]card.Pattern{card.Spade, card.Diamond, card.Heart, card.Clover},
		Visibility:   VisibilityFriendIdentity,
		NextDealer:   NextDealerPresident,
	}
}

// With applies a sequence of overlay functions to a copy of the receiver,
// returning a new Rule without mutating r. Overlays compose left to right.
func (r Rule) With(overlays ...func(Rule) Rule) Rule {
	out := r
	for _, overlay := range overlays {
		out = overlay(out)
	}
	return out
}

// Valid reports whether the rule is internally consistent, per the data
// model invariants: user counts fit the deck, pledge bounds are ordered,
// joker count matches joker-call entries, and pattern order is a permutation.
func (r Rule) Valid() bool {
	if r.UserCnt < 2 || r.UserCnt > 8 {
		return false
	}
	if r.CardCntPerUser == 0 {
		return false
	}
	if int(r.UserCnt)*int(r.CardCntPerUser) > len(r.Deck) {
		return false
	}
	if !r.Pledge.Valid() {
		return false
	}
	jokerCount := 0
	for _, c := range r.Deck {
		if c.IsJoker() {
			jokerCount++
		}
	}
	if jokerCount != r.JokerCall.Len() {
		return false
	}
	seen := map[card.Pattern]bool{}
	for _, p := range r.PatternOrder {
		if seen[p] {
			return false
		}
		seen[p] = true
	}
	return len(seen) == 4
}

// Hash returns the canonical-serialization hash used by the Store to
// deduplicate identical rules.
func (r Rule) Hash() [32]byte {
	b, err := json.Marshal(newCanonicalRule(r))
	if err != nil {
		panic(fmt.Sprintf("rule: canonical marshal failed: %v", err))
	}
	return sha256.Sum256(b)
}

// canonicalRule re-renders Rule's maps as sorted slices so that two equal
// Rule values always marshal to byte-identical JSON regardless of Go's
// randomized map iteration order.
type canonicalRule struct {
	UserCnt        uint8
	CardCntPerUser uint8
	FriendCnt      uint8
	Deck           []card.Card
	MissedDealKV   []missedDealEntry
	JokerWeight    int
	Threshold      int
	Limit          int
	Election       ElectionFlag
	Pledge         Pledge
	Friend         FriendFlag
	CardPolicyKV   []cardPolicyEntry
	JokerCall      JokerCall
	PatternOrder   [4]card.Pattern
	Visibility     Visibility
	NextDealer     NextDealer
}

type missedDealEntry struct {
	Card   card.Card
	Weight int
}

type cardPolicyEntry struct {
	Class  CardClass
	Policy [2]Policy
}

// newCanonicalRule builds the canonicalRule form that both Hash and
// MarshalJSON serialize.
func newCanonicalRule(r Rule) canonicalRule {
	kv := make([]missedDealEntry, 0, len(r.MissedDeal.Weights))
	for c, w := range r.MissedDeal.Weights {
		kv = append(kv, missedDealEntry{Card: c, Weight: w})
	}
	sortMissedDeal(kv)

	pv := make([]cardPolicyEntry, 0, len(r.CardPolicy))
	for class, policy := range r.CardPolicy {
		pv = append(pv, cardPolicyEntry{Class: class, Policy: policy})
	}
	sortCardPolicy(pv)

	return canonicalRule{
		UserCnt:        r.UserCnt,
		CardCntPerUser: r.CardCntPerUser,
		FriendCnt:      r.FriendCnt,
		Deck:           r.Deck,
		MissedDealKV:   kv,
		JokerWeight:    r.MissedDeal.JokerWeight,
		Threshold:      r.MissedDeal.Threshold,
		Limit:          r.MissedDeal.Limit,
		Election:       r.Election,
		Pledge:         r.Pledge,
		Friend:         r.Friend,
		CardPolicyKV:   pv,
		JokerCall:      r.JokerCall,
		PatternOrder:   r.PatternOrder,
		Visibility:     r.Visibility,
		NextDealer:     r.NextDealer,
	}
}

// MarshalJSON renders Rule as its canonical flattened form (maps become
// sorted key/value slices) so a Rule survives a round trip through a
// transport frame (see internal/session's change_rule handling) the same
// way it survives Hash's canonicalization.
func (r Rule) MarshalJSON() ([]byte, error) {
	return json.Marshal(newCanonicalRule(r))
}

// UnmarshalJSON reconstructs a Rule from its canonical flattened form.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var c canonicalRule
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	weights := make(map[card.Card]int, len(c.MissedDealKV))
	for _, e := range c.MissedDealKV {
		weights[e.Card] = e.Weight
	}
	policy := make(CardPolicy, len(c.CardPolicyKV))
	for _, e := range c.CardPolicyKV {
		policy[e.Class] = e.Policy
	}
	*r = Rule{
		UserCnt:        c.UserCnt,
		CardCntPerUser: c.CardCntPerUser,
		FriendCnt:      c.FriendCnt,
		Deck:           c.Deck,
		MissedDeal: MissedDeal{
			Weights:     weights,
			JokerWeight: c.JokerWeight,
			Threshold:   c.Threshold,
			Limit:       c.Limit,
		},
		Election:     c.Election,
		Pledge:       c.Pledge,
		Friend:       c.Friend,
		CardPolicy:   policy,
		JokerCall:    c.JokerCall,
		PatternOrder: c.PatternOrder,
		Visibility:   c.Visibility,
		NextDealer:   c.NextDealer,
	}
	return nil
}

func sortMissedDeal(kv []missedDealEntry) {
	for i := 1; i < len(kv); i++ {
		for j := i; j > 0 && lessCard(kv[j].Card, kv[j-1].Card); j-- {
			kv[j], kv[j-1] = kv[j-1], kv[j]
		}
	}
}

func sortCardPolicy(pv []cardPolicyEntry) {
	for i := 1; i < len(pv); i++ {
		for j := i; j > 0 && pv[j].Class < pv[j-1].Class; j-- {
			pv[j], pv[j-1] = pv[j-1], pv[j]
		}
	}
}

func lessCard(a, b card.Card) bool {
	if a.Joker != b.Joker {
		return !a.Joker
	}
	if a.Joker {
		return a.Color < b.Color
	}
	if a.Pattern != b.Pattern {
		return a.Pattern < b.Pattern
	}
	return a.Rank < b.Rank
}

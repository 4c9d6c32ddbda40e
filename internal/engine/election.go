package engine

import (
	"github.com/mighty/server/internal/card"
	"github.com/mighty/server/internal/rule"
)

func handleElection(s State, userID int, cmd Command, r rule.Rule, rng RNG) (State, error) {
	if userID < 0 || userID >= int(r.UserCnt) {
		return s, &Error{Kind: KindInvalidUser}
	}

	switch cmd.Kind {
	case CmdRandom:
		return handleElection(s, userID, NewPass(), r, rng)
	case CmdPledge:
		if cmd.PledgePass {
			return electionPass(s, userID, r, rng)
		}
		return electionBid(s, userID, cmd, r)
	default:
		return s, &Error{Kind: KindInvalidCommand, Expected: "Pledge"}
	}
}

func electionPass(s State, userID int, r rule.Rule, rng RNG) (State, error) {
	if r.Election.Has(rule.Ordered) && userID != s.CurrUser {
		return s, &Error{Kind: KindInvalidUser}
	}
	if !r.Election.Has(rule.PassFirst) && s.StartUser == nil {
		return s, &Error{Kind: KindPassFirst}
	}

	done := append([]bool(nil), s.Done...)
	done[userID] = true

	var notDone []int
	for i, d := range done {
		if !d {
			notDone = append(notDone, i)
		}
	}

	isOrdered := r.Election.Has(rule.Ordered)
	var candidates []int
	var bestAmount uint8
	electionDone := false

	switch {
	case isOrdered && len(notDone) == 1:
		electionDone = true
		last := notDone[0]
		if s.Pledge[last] != nil {
			candidates = []int{last}
			bestAmount = s.Pledge[last].Amount
		} else {
			for i := 0; i < int(r.UserCnt); i++ {
				candidates = append(candidates, i)
			}
		}
	case !isOrdered && len(notDone) == 0:
		electionDone = true
		for i, p := range s.Pledge {
			if p == nil {
				continue
			}
			switch {
			case p.Amount > bestAmount:
				bestAmount = p.Amount
				candidates = []int{i}
			case p.Amount == bestAmount:
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			for i := 0; i < int(r.UserCnt); i++ {
				candidates = append(candidates, i)
			}
		}
	}

	if !electionDone {
		return State{
			Phase:     PhaseElection,
			Pledge:    s.Pledge,
			Done:      done,
			CurrUser:  (userID + 1) % int(r.UserCnt),
			StartUser: s.StartUser,
			Hand:      s.Hand,
			Left:      s.Left,
		}, nil
	}

	president := candidates[rng.Intn(len(candidates))]
	var winning PledgeBid
	if bestAmount == 0 {
		winning = randomOpenPledge(r, rng)
	} else {
		winning = *s.Pledge[president]
	}

	hand := deepCopyHands(s.Hand)
	hand[president] = append(hand[president], s.Left...)

	return State{
		Phase:       PhaseSelectFriend,
		President:   president,
		Giruda:      winning.Giruda,
		PledgeValue: winning.Amount,
		Hand:        hand,
		Left:        s.Left,
	}, nil
}

// randomOpenPledge picks a random giruda (and, if allowed, a no-giruda
// option) at the rule's minimum pledge when nobody made a bid.
func randomOpenPledge(r rule.Rule, rng RNG) PledgeBid {
	options := make([]PledgeBid, 0, 5)
	for _, p := range []card.Pattern{card.Spade, card.Diamond, card.Heart, card.Clover} {
		options = append(options, PledgeBid{Giruda: patternPtr(p), Amount: r.Pledge.Min})
	}
	if r.Election.Has(rule.NoGirudaExist) {
		options = append(options, PledgeBid{
			Giruda: nil,
			Amount: uint8(int8(r.Pledge.Min) + r.Pledge.NoGirudaOffset),
		})
	}
	return options[rng.Intn(len(options))]
}

func electionBid(s State, userID int, cmd Command, r rule.Rule) (State, error) {
	if r.Election.Has(rule.Ordered) && userID != s.CurrUser {
		return s, &Error{Kind: KindInvalidUser}
	}
	if s.Done[userID] {
		return s, &Error{Kind: KindInvalidUser}
	}
	if cmd.PledgeGiruda == nil && !r.Election.Has(rule.NoGirudaExist) {
		return s, &Error{Kind: KindInvalidPledge, TooHigh: true, Bound: r.Pledge.Max}
	}
	if cmd.PledgeAmount > r.Pledge.Max {
		return s, &Error{Kind: KindInvalidPledge, TooHigh: true, Bound: r.Pledge.Max}
	}

	startUser := userID
	if s.StartUser != nil {
		startUser = *s.StartUser
	}

	maxPledge := r.Pledge.Min
	for _, p := range s.Pledge {
		if p != nil && p.Amount > maxPledge {
			maxPledge = p.Amount
		}
	}

	offset := int8(0)
	if cmd.PledgeGiruda == nil {
		offset = r.Pledge.NoGirudaOffset
	}
	floor := int8(maxPledge) + offset
	if startUser == userID {
		floor += r.Pledge.FirstOffset
	}
	if floor < 0 {
		floor = 0
	}

	if cmd.PledgeAmount < uint8(floor) {
		return s, &Error{Kind: KindInvalidPledge, TooHigh: false, Bound: uint8(floor)}
	}
	if cmd.PledgeAmount == uint8(floor) && r.Election.Has(rule.Increasing) {
		return s, &Error{Kind: KindInvalidPledge, TooHigh: false, Bound: uint8(floor)}
	}

	pledge := append([]*PledgeBid(nil), s.Pledge...)
	pledge[userID] = &PledgeBid{Giruda: cmd.PledgeGiruda, Amount: cmd.PledgeAmount}
	done := append([]bool(nil), s.Done...)
	done[userID] = false

	su := startUser
	return State{
		Phase:     PhaseElection,
		Pledge:    pledge,
		Done:      done,
		CurrUser:  (userID + 1) % int(r.UserCnt),
		StartUser: &su,
		Hand:      s.Hand,
		Left:      s.Left,
	}, nil
}

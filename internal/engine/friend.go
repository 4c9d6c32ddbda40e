package engine

import (
	"github.com/mighty/server/internal/card"
	"github.com/mighty/server/internal/rule"
)

func handleSelectFriend(s State, userID int, cmd Command, r rule.Rule, rng RNG) (State, error) {
	switch cmd.Kind {
	case CmdRandom:
		hand := s.Hand[userID]
		dropCount := len(s.Left)
		dropped := chooseMultiple(rng, hand, dropCount)
		return handleSelectFriend(s, userID, NewSelectFriend(dropped, FriendFunc{Kind: FriendFuncNone}), r, rng)
	case CmdSelectFriend:
		return selectFriend(s, userID, cmd, r)
	case CmdChangePledge:
		return changePledge(s, userID, cmd, r)
	default:
		return s, &Error{Kind: KindInvalidCommand, Expected: "SelectFriend or ChangePledge"}
	}
}

func selectFriend(s State, userID int, cmd Command, r rule.Rule) (State, error) {
	if userID != s.President {
		return s, &Error{Kind: KindNotPresident}
	}
	if len(cmd.DropCards) != len(s.Left) {
		return s, &Error{Kind: KindInvalidCommand, Expected: "drop_cards matching the undealt pile size"}
	}

	hand := deepCopyHands(s.Hand)
	for _, c := range cmd.DropCards {
		idx := indexOfCard(hand[userID], c)
		if idx < 0 {
			return s, &Error{Kind: KindNotInDeck}
		}
		hand[userID] = removeAt(hand[userID], idx)
	}

	var friend *int
	switch cmd.FriendFunc.Kind {
	case FriendFuncNone:
		if !r.Friend.Has(rule.FriendNone) {
			return s, &Error{Kind: KindInvalidFriendFunc}
		}
	case FriendFuncByCard:
		if !r.Friend.Has(rule.FriendCard) {
			return s, &Error{Kind: KindInvalidFriendFunc}
		}
		holder := -1
		for i, h := range hand {
			if containsCard(h, cmd.FriendFunc.Card) {
				holder = i
				break
			}
		}
		if holder == -1 {
			return s, &Error{Kind: KindInvalidFriendFunc}
		}
		if holder == s.President && !r.Friend.Has(rule.FriendFake) {
			return s, &Error{Kind: KindInvalidFriendFunc}
		}
		if holder != s.President {
			friend = intPtr(holder)
		}
	case FriendFuncByUser:
		if !r.Friend.Has(rule.FriendUser) {
			return s, &Error{Kind: KindInvalidFriendFunc}
		}
		if cmd.FriendFunc.User < 0 || cmd.FriendFunc.User >= int(r.UserCnt) {
			return s, &Error{Kind: KindInvalidFriendFunc}
		}
		if cmd.FriendFunc.User != s.President {
			friend = intPtr(cmd.FriendFunc.User)
		}
	case FriendFuncByWinning:
		if !r.Friend.Has(rule.FriendWinning) {
			return s, &Error{Kind: KindInvalidFriendFunc}
		}
		if cmd.FriendFunc.Winning < 0 || cmd.FriendFunc.Winning >= int(r.CardCntPerUser) {
			return s, &Error{Kind: KindInvalidFriendFunc}
		}
		// friend is not yet known; it resolves when that trick is won.
	default:
		return s, &Error{Kind: KindInvalidFriendFunc}
	}

	isFriendKnown := cmd.FriendFunc.Kind == FriendFuncNone || cmd.FriendFunc.Kind == FriendFuncByUser

	return State{
		Phase:         PhaseInGame,
		President:     s.President,
		Giruda:        s.Giruda,
		PledgeValue:   s.PledgeValue,
		FriendFunc:    cmd.FriendFunc,
		Friend:        friend,
		IsFriendKnown: isFriendKnown,
		Hand:          hand,
		ScoreDeck:     make([][]card.Card, r.UserCnt),
		TurnCount:     0,
		PlacedCards:   make([]card.Card, r.UserCnt),
		StartUser:     intPtr(s.President),
		CurrentUser:   s.President,
		CurrentPattern: card.Spade,
		CurrentRush:   card.RushAny(),
		IsJokerCalled: false,
	}, nil
}

func changePledge(s State, userID int, cmd Command, r rule.Rule) (State, error) {
	if userID != s.President {
		return s, &Error{Kind: KindNotPresident}
	}
	if samePattern(s.Giruda, cmd.NewGiruda) {
		return s, &Error{Kind: KindSameGiruda}
	}

	newPledge := int(s.PledgeValue)
	switch {
	case s.Giruda == nil:
		newPledge += int(r.Pledge.ChangeCost) - int(r.Pledge.FirstOffset)
	case cmd.NewGiruda == nil:
		newPledge += int(r.Pledge.ChangeCost) - int(r.Pledge.FirstOffset)
	default:
		newPledge += int(r.Pledge.ChangeCost)
	}

	if newPledge < int(r.Pledge.Min) {
		return s, &Error{Kind: KindInvalidPledge, TooHigh: false, Bound: r.Pledge.Min}
	}
	if newPledge > int(r.Pledge.Max) {
		return s, &Error{Kind: KindInvalidPledge, TooHigh: true, Bound: r.Pledge.Max}
	}

	return State{
		Phase:       PhaseSelectFriend,
		President:   s.President,
		Giruda:      cmd.NewGiruda,
		PledgeValue: uint8(newPledge),
		Hand:        s.Hand,
		Left:        s.Left,
	}, nil
}

package engine

import (
	"errors"
	"testing"

	"github.com/mighty/server/internal/card"
	"github.com/mighty/server/internal/rule"
)

func TestNewStateStart(t *testing.T) {
	r := rule.NewRule()
	s := NewState(r, NewRand(1))

	if s.Phase != PhaseElection {
		t.Fatalf("Phase = %v, want Election", s.Phase)
	}
	if len(s.Hand) != int(r.UserCnt) {
		t.Fatalf("dealt %d hands, want %d", len(s.Hand), r.UserCnt)
	}
	for i, h := range s.Hand {
		if len(h) != int(r.CardCntPerUser) {
			t.Errorf("hand %d size = %d, want %d", i, len(h), r.CardCntPerUser)
		}
		if r.MissedDeal.IsMissedDeal(h) {
			t.Errorf("hand %d is a missed deal under default weights", i)
		}
	}
	if len(s.Left) != 3 {
		t.Fatalf("left pile size = %d, want 3", len(s.Left))
	}
}

func TestUnanimousPass(t *testing.T) {
	r := rule.NewRule()
	s := NewState(r, NewRand(2))

	var err error
	for i := 0; i < int(r.UserCnt) && s.Phase == PhaseElection; i++ {
		s, err = Next(s, i, NewPass(), r, NewRand(3))
		if err != nil {
			t.Fatalf("pass from seat %d: %v", i, err)
		}
	}

	if s.Phase != PhaseSelectFriend {
		t.Fatalf("Phase = %v, want SelectFriend", s.Phase)
	}
	if s.PledgeValue != r.Pledge.Min {
		t.Fatalf("PledgeValue = %d, want rule minimum %d", s.PledgeValue, r.Pledge.Min)
	}
}

func TestFriendByCardRevealsOnPlay(t *testing.T) {
	r := rule.NewRule()
	s := NewState(r, NewRand(4))
	for i := 0; i < int(r.UserCnt) && s.Phase == PhaseElection; i++ {
		var err error
		s, err = Next(s, i, NewPass(), r, NewRand(5))
		if err != nil {
			t.Fatalf("pass from seat %d: %v", i, err)
		}
	}

	president := s.President
	diamondZero := card.NewNormal(card.Diamond, 0)

	drop := chooseMultiple(NewRand(6), s.Hand[president], len(s.Left))
	s, err := Next(s, president, NewSelectFriend(drop, FriendFunc{Kind: FriendFuncByCard, Card: diamondZero}), r, NewRand(7))
	if err != nil {
		t.Fatalf("SelectFriend: %v", err)
	}
	if s.Phase != PhaseInGame {
		t.Fatalf("Phase = %v, want InGame", s.Phase)
	}
	if s.IsFriendKnown {
		t.Fatal("friend should not be known before Diamond-0 is played")
	}

	holder := -1
	for i, h := range s.Hand {
		if containsCard(h, diamondZero) {
			holder = i
		}
	}
	if holder == -1 {
		t.Fatal("Diamond-0 must be held by someone")
	}

	for !s.IsFriendKnown && s.Phase == PhaseInGame {
		actor := s.CurrentUser
		s, err = Next(s, actor, randomLegalGo(s, actor, NewRand(int64(actor+8))), r, NewRand(9))
		if err != nil {
			t.Fatalf("Go from seat %d: %v", actor, err)
		}
	}
	if s.Phase != PhaseInGame && s.Phase != PhaseGameEnded {
		t.Fatalf("unexpected phase %v", s.Phase)
	}
	if !s.IsFriendKnown {
		t.Fatal("is_friend_known must flip true once Diamond-0 is played")
	}
}

func TestMightyCardWinsRegardlessOfLead(t *testing.T) {
	giruda := card.Spade
	s := State{
		Phase:          PhaseInGame,
		Giruda:         &giruda,
		President:      0,
		StartUser:      intPtr(0),
		TurnCount:      5,
		CurrentPattern: card.Clover,
		CurrentRush:    card.RushOfPattern(card.Clover),
	}
	placed := []card.Card{
		card.NewNormal(card.Clover, 12),
		card.NewNormal(card.Diamond, 0), // the mighty when giruda is Spade
		card.NewNormal(card.Clover, 3),
		card.NewNormal(card.Clover, 7),
		card.NewNormal(card.Clover, 9),
	}
	r := rule.NewRule()
	winner, err := resolveTrick(placed, s, 0, card.Clover, s.CurrentRush, false, r)
	if err != nil {
		t.Fatalf("resolveTrick: %v", err)
	}
	if winner != 1 {
		t.Fatalf("winner = %d, want seat 1 (holds the mighty)", winner)
	}
}

func TestJokerCallForcesHolderToSurrender(t *testing.T) {
	r := rule.NewRule()
	calling := card.NewNormal(card.Clover, 2)
	called := card.NewJoker(card.Black)

	s := State{
		Phase:          PhaseInGame,
		President:      0,
		StartUser:      intPtr(0),
		CurrentUser:    1,
		TurnCount:      5,
		CurrentPattern: card.Clover,
		CurrentRush:    card.RushOfPattern(card.Heart),
		IsJokerCalled:  true,
		PlacedCards:    []card.Card{calling, {}, {}, {}, {}},
		Hand: [][]card.Card{
			{},
			{called, card.NewNormal(card.Heart, 5)},
			{},
			{},
			{},
		},
		ScoreDeck:   make([][]card.Card, r.UserCnt),
		PledgeValue: r.Pledge.Min,
	}

	if _, err := handleGo(s, 1, NewGo(card.NewNormal(card.Heart, 5), card.RushNone, false), r, NewRand(10)); err == nil {
		t.Fatal("expected the joker-call to force surrender of the called joker")
	} else if !errors.As(err, new(*Error)) {
		t.Fatalf("unexpected error type: %v", err)
	}

	if _, err := handleGo(s, 1, NewGo(called, card.RushNone, false), r, NewRand(10)); err != nil {
		t.Fatalf("surrendering the called joker should be legal: %v", err)
	}
}

func TestEndOfHandScoring(t *testing.T) {
	r := rule.NewRule()
	giruda := card.Spade
	friendSeat := 2

	scoreDeck := make([][]card.Card, r.UserCnt)
	scoreDeck[0] = make([]card.Card, 9) // president
	scoreDeck[friendSeat] = make([]card.Card, 5)

	s := State{
		Phase:       PhaseInGame,
		President:   0,
		Giruda:      &giruda,
		PledgeValue: 14,
	}
	friend := friendSeat
	end := endHand(s, scoreDeck, &friend, r)

	if end.Phase != PhaseGameEnded {
		t.Fatalf("Phase = %v, want GameEnded", end.Phase)
	}
	if end.Score != 4 {
		t.Fatalf("Score = %d, want 4", end.Score)
	}
	wantMask := uint8(1<<0 | 1<<friendSeat)
	if end.WinnerMask != wantMask {
		t.Fatalf("WinnerMask = %b, want %b", end.WinnerMask, wantMask)
	}
}

func TestElectionRejectsOutOfTurnBid(t *testing.T) {
	r := rule.NewRule()
	s := NewState(r, NewRand(11))
	_, err := Next(s, 1, NewBid(nil, r.Pledge.Min), r, NewRand(12))
	if !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("err = %v, want ErrInvalidUser", err)
	}
}

func TestElectionRejectsBidBelowFloor(t *testing.T) {
	r := rule.NewRule()
	s := NewState(r, NewRand(13))
	giruda := card.Spade
	if _, err := Next(s, 0, NewBid(&giruda, r.Pledge.Min-1), r, NewRand(14)); !errors.Is(err, ErrInvalidPledge) {
		t.Fatalf("err = %v, want ErrInvalidPledge", err)
	}
}

func TestGameEndedRejectsFurtherCommands(t *testing.T) {
	r := rule.NewRule()
	s := State{Phase: PhaseGameEnded}
	if _, err := Next(s, 0, NewRandom(), r, NewRand(15)); !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("err = %v, want ErrInvalidCommand", err)
	}
}

func TestValidUsersOrderedElectionIsSingleSeat(t *testing.T) {
	r := rule.NewRule()
	s := NewState(r, NewRand(16))
	mask := s.ValidUsers(r)
	if mask != 1<<0 {
		t.Fatalf("ValidUsers = %b, want only seat 0", mask)
	}
}

func TestIsFinished(t *testing.T) {
	if (State{Phase: PhaseInGame}).IsFinished() {
		t.Fatal("InGame must not be finished")
	}
	if !(State{Phase: PhaseGameEnded}).IsFinished() {
		t.Fatal("GameEnded must be finished")
	}
}

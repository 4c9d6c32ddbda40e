package engine

import (
	"github.com/mighty/server/internal/card"
	"github.com/mighty/server/internal/rule"
)

func handleGo(s State, userID int, cmd Command, r rule.Rule, rng RNG) (State, error) {
	if userID != s.CurrentUser {
		return s, &Error{Kind: KindInvalidUser}
	}

	hand := s.Hand[userID]
	idx := indexOfCard(hand, cmd.Card)
	if idx < 0 {
		return s, &Error{Kind: KindNotInDeck}
	}

	isLead := userID == *s.StartUser
	currentPattern := s.CurrentPattern
	currentRush := s.CurrentRush
	isJokerCalled := s.IsJokerCalled

	if isLead {
		rush := cmd.Card.RushOf()
		if cmd.Card.IsJoker() {
			if !isCompatibleRush(cmd.Card.Color, cmd.RushType) {
				return s, &Error{Kind: KindInvalidCommand, Expected: "rush_type compatible with the led joker's color"}
			}
			rush = cmd.RushType
		}
		currentPattern = patternFromRush(rush)
		currentRush = rush
		if _, ok := r.JokerCall.CallingCard(cmd.Card); ok {
			isJokerCalled = cmd.JokerCallFlag
		} else {
			isJokerCalled = false
		}
	} else {
		if err := validateFollow(s, hand, cmd.Card, r); err != nil {
			return s, err
		}
	}

	placed := append([]card.Card(nil), s.PlacedCards...)
	placed[userID] = cmd.Card
	handsCopy := deepCopyHands(s.Hand)
	handsCopy[userID] = removeAt(hand, idx)

	nextUser := (userID + 1) % int(r.UserCnt)
	startUser := *s.StartUser

	if nextUser != startUser {
		return State{
			Phase:          PhaseInGame,
			President:      s.President,
			Giruda:         s.Giruda,
			PledgeValue:    s.PledgeValue,
			FriendFunc:     s.FriendFunc,
			Friend:         s.Friend,
			IsFriendKnown:  s.IsFriendKnown,
			Hand:           handsCopy,
			ScoreDeck:      s.ScoreDeck,
			TurnCount:      s.TurnCount,
			PlacedCards:    placed,
			StartUser:      s.StartUser,
			CurrentUser:    nextUser,
			CurrentPattern: currentPattern,
			CurrentRush:    currentRush,
			IsJokerCalled:  isJokerCalled,
		}, nil
	}

	winner, err := resolveTrick(placed, s, startUser, currentPattern, currentRush, isJokerCalled, r)
	if err != nil {
		return s, err
	}

	scoreDeck := deepCopyHands(s.ScoreDeck)
	for _, c := range placed {
		if c.IsScore() {
			scoreDeck[winner] = append(scoreDeck[winner], c)
		}
	}

	friend := s.Friend
	isFriendKnown := s.IsFriendKnown
	if s.FriendFunc.Kind == FriendFuncByWinning && !isFriendKnown &&
		s.FriendFunc.Winning == int(s.TurnCount) && winner != s.President {
		friend = intPtr(winner)
		isFriendKnown = true
	}
	if s.FriendFunc.Kind == FriendFuncByCard && !isFriendKnown {
		for _, c := range placed {
			if c == s.FriendFunc.Card {
				isFriendKnown = true
				break
			}
		}
	}

	turnCount := s.TurnCount + 1
	if turnCount == r.CardCntPerUser {
		return endHand(s, scoreDeck, friend, r), nil
	}

	return State{
		Phase:          PhaseInGame,
		President:      s.President,
		Giruda:         s.Giruda,
		PledgeValue:    s.PledgeValue,
		FriendFunc:     s.FriendFunc,
		Friend:         friend,
		IsFriendKnown:  isFriendKnown,
		Hand:           handsCopy,
		ScoreDeck:      scoreDeck,
		TurnCount:      turnCount,
		PlacedCards:    make([]card.Card, r.UserCnt),
		StartUser:      intPtr(winner),
		CurrentUser:    winner,
		CurrentPattern: card.Spade,
		CurrentRush:    card.RushAny(),
		IsJokerCalled:  false,
	}, nil
}

// validateFollow enforces rush satisfaction and joker-call surrender when a
// legal alternative is held; the mighty card always escapes both.
func validateFollow(s State, hand []card.Card, played card.Card, r rule.Rule) error {
	if isMighty(played, s.Giruda) {
		return nil
	}

	hasLegalRush := false
	for _, c := range hand {
		if s.CurrentRush.IsValid(c) {
			hasLegalRush = true
			break
		}
	}
	if hasLegalRush && !s.CurrentRush.IsValid(played) {
		return &Error{Kind: KindInvalidCommand, Expected: "a card satisfying the led rush"}
	}

	if !s.IsJokerCalled {
		return nil
	}
	leadCard := s.PlacedCards[*s.StartUser]
	called, ok := r.JokerCall.CallingCard(leadCard)
	if !ok {
		return nil
	}
	if !containsCard(hand, called) {
		return nil
	}
	if played != called {
		return &Error{Kind: KindInvalidCommand, Expected: "the called joker must be surrendered"}
	}
	return nil
}

func isMighty(c card.Card, giruda *card.Pattern) bool {
	return c == mightyCard(giruda)
}

func mightyCard(giruda *card.Pattern) card.Card {
	if giruda != nil && *giruda == card.Spade {
		return card.NewNormal(card.Diamond, 0)
	}
	return card.NewNormal(card.Spade, 0)
}

type trickCtx struct {
	giruda         *card.Pattern
	currentPattern card.Pattern
	currentRush    card.Rush
	firstOrLast    bool
	hasCall        bool
	calledCard     card.Card
}

// beats reports whether x outranks y under the trick's resolution order:
// the mighty card always wins; an eligible joker beats any normal card; a
// joker called under joker-call, or any joker on the first or last trick,
// loses to every other card; giruda beats off-suit, and the led suit beats
// unrelated off-suit, ties broken by rank.
func (ctx trickCtx) beats(x, y card.Card) bool {
	xm := isMighty(x, ctx.giruda)
	ym := isMighty(y, ctx.giruda)
	if xm != ym {
		return xm
	}
	if xm && ym {
		return false
	}

	xStrong := ctx.isStrongJoker(x)
	yStrong := ctx.isStrongJoker(y)
	if xStrong != yStrong {
		return xStrong
	}
	if xStrong && yStrong {
		return ctx.jokerMatchesRush(x) && !ctx.jokerMatchesRush(y)
	}

	xc, xr := ctx.classAndRank(x)
	yc, yr := ctx.classAndRank(y)
	if xc != yc {
		return xc > yc
	}
	return xr > yr
}

func (ctx trickCtx) isStrongJoker(c card.Card) bool {
	if !c.IsJoker() || ctx.firstOrLast {
		return false
	}
	if ctx.hasCall && c == ctx.calledCard {
		return false
	}
	return true
}

func (ctx trickCtx) jokerMatchesRush(c card.Card) bool {
	return ctx.currentRush&card.RushOfColor(c.Color) != 0
}

// classAndRank ranks non-mighty, non-strong-joker cards: a weak/demoted
// joker always loses (class 0); giruda beats the led suit, which beats
// everything else, ties broken by rank.
func (ctx trickCtx) classAndRank(c card.Card) (int, int) {
	if c.IsJoker() {
		return 0, 0
	}
	if ctx.giruda != nil && c.Pattern == *ctx.giruda {
		return 3, int(c.Rank)
	}
	if c.Pattern == ctx.currentPattern {
		return 2, int(c.Rank)
	}
	return 1, int(c.Rank)
}

func resolveTrick(placed []card.Card, s State, startUser int, currentPattern card.Pattern, currentRush card.Rush, isJokerCalled bool, r rule.Rule) (int, error) {
	if len(placed) != int(r.UserCnt) {
		return 0, &Error{Kind: KindInternalError, Msg: "trick resolution saw an incomplete placed set"}
	}

	ctx := trickCtx{
		giruda:         s.Giruda,
		currentPattern: currentPattern,
		currentRush:    currentRush,
		firstOrLast:    s.TurnCount == 0 || s.TurnCount == r.CardCntPerUser-1,
	}
	if isJokerCalled {
		if called, ok := r.JokerCall.CallingCard(placed[startUser]); ok {
			ctx.hasCall = true
			ctx.calledCard = called
		}
	}

	winner := 0
	for i := 1; i < len(placed); i++ {
		if ctx.beats(placed[i], placed[winner]) {
			winner = i
		}
	}
	return winner, nil
}

// endHand resolves the hand's outcome once all tricks are played: the
// ruling side wins when its collected score meets the pledge, doubled for
// no-giruda and/or a hidden (fake or unresolved) friend.
func endHand(s State, scoreDeck [][]card.Card, friend *int, r rule.Rule) State {
	mul := 1
	if s.Giruda == nil {
		mul *= 2
	}
	if friend == nil {
		mul *= 2
	}

	score := len(scoreDeck[s.President])
	if friend != nil {
		score += len(scoreDeck[*friend])
	}

	baseline := int(r.CardCntPerUser)
	var rulingMask uint8 = 1 << uint(s.President)
	if friend != nil {
		rulingMask |= 1 << uint(*friend)
	}

	var finalScore int
	var winnerMask uint8
	if score >= int(s.PledgeValue) {
		finalScore = mul * (score - baseline)
		winnerMask = rulingMask
	} else {
		finalScore = int(s.PledgeValue) + score - 2*baseline
		allMask := uint8((1 << uint(r.UserCnt)) - 1)
		winnerMask = allMask &^ rulingMask
	}

	return State{
		Phase:       PhaseGameEnded,
		President:   s.President,
		Giruda:      s.Giruda,
		PledgeValue: s.PledgeValue,
		Friend:      friend,
		WinnerMask:  winnerMask,
		Score:       finalScore,
	}
}

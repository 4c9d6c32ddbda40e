// Package engine implements the pure, deterministic Mighty rule engine: a
// single Next function that folds a State, a user's Command, and a Rule into
// the next State (or an error), with all randomness supplied through RNG.
package engine

import (
	"github.com/mighty/server/internal/card"
	"github.com/mighty/server/internal/rule"
)

// Phase tags which arm of State is meaningful.
type Phase int

const (
	PhaseElection Phase = iota
	PhaseSelectFriend
	PhaseInGame
	PhaseGameEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseElection:
		return "Election"
	case PhaseSelectFriend:
		return "SelectFriend"
	case PhaseInGame:
		return "InGame"
	case PhaseGameEnded:
		return "GameEnded"
	default:
		return "Unknown"
	}
}

// PledgeBid is one player's standing bid in the election.
type PledgeBid struct {
	Giruda *card.Pattern // nil means a no-giruda bid
	Amount uint8
}

// FriendFuncKind tags which friend-selection rule the president invoked.
type FriendFuncKind int

const (
	FriendFuncNone FriendFuncKind = iota
	FriendFuncByCard
	FriendFuncByUser
	FriendFuncByWinning
)

// FriendFunc is the president's friend-selection choice. ByWinning(0) and
// ByWinning(card_cnt_per_user-1) express the "first trick" / "last trick"
// variants without a separate tag.
type FriendFunc struct {
	Kind    FriendFuncKind
	Card    card.Card // ByCard
	User    int       // ByUser
	Winning int       // ByWinning: trick index (0-based) that reveals the friend
}

// State is a tagged union over the four game phases. Only the fields
// relevant to State.Phase are meaningful; the rest carry their zero value.
type State struct {
	Phase Phase

	// Election
	Pledge    []*PledgeBid
	Done      []bool
	CurrUser  int
	StartUser *int // nil until the first bid opens the auction

	// Election -> SelectFriend -> InGame: per-seat hands, and the undealt pile.
	Hand [][]card.Card
	Left []card.Card

	// SelectFriend, InGame, GameEnded
	President   int
	Giruda      *card.Pattern
	PledgeValue uint8

	// InGame
	FriendFunc    FriendFunc
	Friend        *int
	IsFriendKnown bool
	ScoreDeck     [][]card.Card
	TurnCount     uint8
	PlacedCards   []card.Card
	CurrentUser   int
	CurrentPattern card.Pattern
	CurrentRush   card.Rush
	IsJokerCalled bool

	// GameEnded
	WinnerMask uint8
	Score      int
}

// CommandKind tags which operation a Command performs.
type CommandKind int

const (
	CmdPledge CommandKind = iota
	CmdSelectFriend
	CmdChangePledge
	CmdGo
	CmdRandom
)

// Command is the tagged union of player actions Next accepts.
type Command struct {
	Kind CommandKind

	// CmdPledge
	PledgePass   bool
	PledgeGiruda *card.Pattern
	PledgeAmount uint8

	// CmdSelectFriend
	DropCards  []card.Card
	FriendFunc FriendFunc

	// CmdChangePledge
	NewGiruda *card.Pattern

	// CmdGo
	Card          card.Card
	RushType      card.Rush
	JokerCallFlag bool
}

// NewBid constructs a CmdPledge bid command.
func NewBid(giruda *card.Pattern, amount uint8) Command {
	return Command{Kind: CmdPledge, PledgeGiruda: giruda, PledgeAmount: amount}
}

// NewPass constructs a CmdPledge pass command.
func NewPass() Command {
	return Command{Kind: CmdPledge, PledgePass: true}
}

// NewSelectFriend constructs a CmdSelectFriend command.
func NewSelectFriend(dropCards []card.Card, ff FriendFunc) Command {
	return Command{Kind: CmdSelectFriend, DropCards: dropCards, FriendFunc: ff}
}

// NewChangePledge constructs a CmdChangePledge command.
func NewChangePledge(giruda *card.Pattern) Command {
	return Command{Kind: CmdChangePledge, NewGiruda: giruda}
}

// NewGo constructs a CmdGo command.
func NewGo(c card.Card, rushType card.Rush, jokerCall bool) Command {
	return Command{Kind: CmdGo, Card: c, RushType: rushType, JokerCallFlag: jokerCall}
}

// NewRandom constructs a CmdRandom command, asking the engine to choose a
// legal action on the caller's behalf.
func NewRandom() Command {
	return Command{Kind: CmdRandom}
}

// IsFinished reports whether the hand has concluded.
func (s State) IsFinished() bool {
	return s.Phase == PhaseGameEnded
}

// ValidUsers returns a bitmask over seats naming who may submit the next
// command. More than one bit set means any of those seats may act (e.g. an
// unordered election accepting bids from every undecided player at once).
func (s State) ValidUsers(r rule.Rule) uint8 {
	switch s.Phase {
	case PhaseElection:
		if r.Election.Has(rule.Ordered) {
			return 1 << uint(s.CurrUser)
		}
		var mask uint8
		for i, done := range s.Done {
			if !done {
				mask |= 1 << uint(i)
			}
		}
		return mask
	case PhaseSelectFriend:
		return 1 << uint(s.President)
	case PhaseInGame:
		return 1 << uint(s.CurrentUser)
	default:
		return 0
	}
}

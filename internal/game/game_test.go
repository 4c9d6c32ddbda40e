package game

import (
	"testing"

	"github.com/mighty/server/internal/engine"
	"github.com/mighty/server/internal/rule"
	"github.com/mighty/server/internal/statemachine"
)

func TestNewDealsElection(t *testing.T) {
	r := rule.NewRule()
	g := New(r, engine.NewRand(1), nil)
	if g.GetState().Phase != engine.PhaseElection {
		t.Fatalf("Phase = %v, want Election", g.GetState().Phase)
	}
	if g.HistoryNumber() != 0 {
		t.Fatalf("HistoryNumber = %d, want 0", g.HistoryNumber())
	}
}

func TestNextAdvancesHistoryAndNotifiesOnPhaseChange(t *testing.T) {
	r := rule.NewRule()
	var events []string
	obs := func(name string, ev statemachine.PhaseEvent) {
		kind := "entered"
		if ev == statemachine.PhaseExited {
			kind = "exited"
		}
		events = append(events, kind+":"+name)
	}
	g := New(r, engine.NewRand(2), obs)

	for i := 0; i < int(r.UserCnt) && g.GetState().Phase == engine.PhaseElection; i++ {
		if _, err := g.Next(i, engine.NewPass()); err != nil {
			t.Fatalf("Next(%d): %v", i, err)
		}
	}

	if g.GetState().Phase != engine.PhaseSelectFriend {
		t.Fatalf("Phase = %v, want SelectFriend", g.GetState().Phase)
	}
	if g.HistoryNumber() == 0 {
		t.Fatal("HistoryNumber should have advanced")
	}

	foundExit := false
	foundEnter := false
	for _, e := range events {
		if e == "exited:Election" {
			foundExit = true
		}
		if e == "entered:SelectFriend" {
			foundEnter = true
		}
	}
	if !foundExit || !foundEnter {
		t.Fatalf("expected Election exit and SelectFriend entry notifications, got %v", events)
	}
}

func TestNextLeavesStateUntouchedOnError(t *testing.T) {
	r := rule.NewRule()
	g := New(r, engine.NewRand(3), nil)
	before := g.GetState()

	_, err := g.Next(1, engine.NewBid(nil, r.Pledge.Min))
	if err == nil {
		t.Fatal("expected an error for an out-of-turn bid")
	}
	if g.GetState().CurrUser != before.CurrUser {
		t.Fatal("state must be unchanged after a rejected command")
	}
}

func TestRestorePreservesHistoryNumber(t *testing.T) {
	r := rule.NewRule()
	g := New(r, engine.NewRand(4), nil)
	state := g.GetState()

	restored := Restore(r, state, 7, engine.NewRand(5), nil)
	if restored.HistoryNumber() != 7 {
		t.Fatalf("HistoryNumber = %d, want 7", restored.HistoryNumber())
	}
	if restored.GetState().Phase != state.Phase {
		t.Fatal("Restore must preserve the persisted phase")
	}
}

package card

import "testing"

func TestColorOf(t *testing.T) {
	cases := []struct {
		p    Pattern
		want Color
	}{
		{Spade, Black},
		{Diamond, Red},
		{Heart, Red},
		{Clover, Black},
	}
	for _, c := range cases {
		if got := ColorOf(c.p); got != c.want {
			t.Errorf("ColorOf(%s) = %s, want %s", c.p, got, c.want)
		}
	}
}

func TestColorIsColorOf(t *testing.T) {
	if !Black.IsColorOf(Spade) {
		t.Error("Black should be the color of Spade")
	}
	if !Red.IsColorOf(Diamond) {
		t.Error("Red should be the color of Diamond")
	}
	if Black.IsColorOf(Heart) {
		t.Error("Black should not be the color of Heart")
	}
}

func TestCardIsScore(t *testing.T) {
	cases := []struct {
		c    Card
		want bool
	}{
		{NewNormal(Spade, 9), true},
		{NewNormal(Spade, 0), true},
		{NewNormal(Diamond, 8), false},
		{NewNormal(Clover, 12), true},
		{NewJoker(Red), false},
	}
	for _, c := range cases {
		if got := c.c.IsScore(); got != c.want {
			t.Errorf("%v.IsScore() = %v, want %v", c.c, got, c.want)
		}
	}
}

func TestCardIsJoker(t *testing.T) {
	if !NewJoker(Red).IsJoker() {
		t.Error("expected joker")
	}
	if NewNormal(Spade, 5).IsJoker() {
		t.Error("expected non-joker")
	}
}

func TestRushContainsAndIsValid(t *testing.T) {
	r := RushOfColor(Black)
	if !r.Contains(Spade) || !r.Contains(Clover) {
		t.Error("black rush should contain spade and clover")
	}
	if r.Contains(Diamond) || r.Contains(Heart) {
		t.Error("black rush should not contain red suits")
	}
	if !r.IsValid(NewJoker(Red)) {
		t.Error("jokers satisfy any rush")
	}
	if !r.IsValid(NewNormal(Spade, 3)) {
		t.Error("spade should satisfy black rush")
	}
	if r.IsValid(NewNormal(Diamond, 3)) {
		t.Error("diamond should not satisfy black rush")
	}
}

func TestDeckSizes(t *testing.T) {
	if got := len(Cards(SingleJoker)); got != 53 {
		t.Errorf("SingleJoker deck size = %d, want 53", got)
	}
	if got := len(Cards(FullDeck)); got != 54 {
		t.Errorf("FullDeck deck size = %d, want 54", got)
	}
}

package session

import (
	"encoding/json"
	"fmt"

	"github.com/mighty/server/internal/card"
	"github.com/mighty/server/internal/engine"
)

// decodeCommand parses a Player→Room "command" frame payload into an
// engine.Command, per the tagged-variant wire shapes:
//
//	{"Pledge": [giruda_or_null, amount]} or {"Pledge": null}  (pass)
//	{"SelectFriend": [drop_cards, friend_func]}
//	{"ChangePledge": giruda_or_null}
//	{"Go": [card, rush_mask, joker_call_bool]}
//	"Random"
func decodeCommand(payload []byte) (engine.Command, error) {
	var bare string
	if err := json.Unmarshal(payload, &bare); err == nil {
		if bare == "Random" {
			return engine.NewRandom(), nil
		}
		return engine.Command{}, fmt.Errorf("session: unknown bare command %q", bare)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return engine.Command{}, fmt.Errorf("session: command frame is neither a string nor an object: %w", err)
	}

	if raw, ok := obj["Pledge"]; ok {
		return decodePledge(raw)
	}
	if raw, ok := obj["SelectFriend"]; ok {
		return decodeSelectFriend(raw)
	}
	if raw, ok := obj["ChangePledge"]; ok {
		giruda, err := decodePattern(raw)
		if err != nil {
			return engine.Command{}, err
		}
		return engine.NewChangePledge(giruda), nil
	}
	if raw, ok := obj["Go"]; ok {
		return decodeGo(raw)
	}
	return engine.Command{}, fmt.Errorf("session: unrecognized command frame")
}

func decodePledge(raw json.RawMessage) (engine.Command, error) {
	if string(raw) == "null" {
		return engine.NewPass(), nil
	}
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return engine.Command{}, fmt.Errorf("session: Pledge needs [giruda_or_null, amount]")
	}
	giruda, err := decodePattern(pair[0])
	if err != nil {
		return engine.Command{}, err
	}
	var amount uint8
	if err := json.Unmarshal(pair[1], &amount); err != nil {
		return engine.Command{}, fmt.Errorf("session: Pledge amount: %w", err)
	}
	return engine.NewBid(giruda, amount), nil
}

func decodeSelectFriend(raw json.RawMessage) (engine.Command, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return engine.Command{}, fmt.Errorf("session: SelectFriend needs [drop_cards, friend_func]")
	}
	var drop []wireCard
	if err := json.Unmarshal(pair[0], &drop); err != nil {
		return engine.Command{}, fmt.Errorf("session: SelectFriend drop_cards: %w", err)
	}
	ff, err := decodeFriendFunc(pair[1])
	if err != nil {
		return engine.Command{}, err
	}
	cards := make([]card.Card, len(drop))
	for i, c := range drop {
		cards[i] = c.toCard()
	}
	return engine.NewSelectFriend(cards, ff), nil
}

func decodeGo(raw json.RawMessage) (engine.Command, error) {
	var triple []json.RawMessage
	if err := json.Unmarshal(raw, &triple); err != nil || len(triple) != 3 {
		return engine.Command{}, fmt.Errorf("session: Go needs [card, rush_mask, joker_call_bool]")
	}
	var wc wireCard
	if err := json.Unmarshal(triple[0], &wc); err != nil {
		return engine.Command{}, fmt.Errorf("session: Go card: %w", err)
	}
	var rushMask uint8
	if err := json.Unmarshal(triple[1], &rushMask); err != nil {
		return engine.Command{}, fmt.Errorf("session: Go rush_mask: %w", err)
	}
	var jokerCall bool
	if err := json.Unmarshal(triple[2], &jokerCall); err != nil {
		return engine.Command{}, fmt.Errorf("session: Go joker_call: %w", err)
	}
	return engine.NewGo(wc.toCard(), card.Rush(rushMask), jokerCall), nil
}

// wireCard is card.Card's JSON shape: {"joker":bool,"pattern":"spade","rank":0}.
// Pattern is omitted (and ignored on decode) for joker cards.
type wireCard struct {
	Joker   bool    `json:"joker"`
	Pattern *string `json:"pattern,omitempty"`
	Color   *string `json:"color,omitempty"`
	Rank    uint8   `json:"rank,omitempty"`
}

func (c wireCard) toCard() card.Card {
	if c.Joker {
		clr := card.Black
		if c.Color != nil && *c.Color == "red" {
			clr = card.Red
		}
		return card.NewJoker(clr)
	}
	var p card.Pattern
	if c.Pattern != nil {
		p, _ = parsePattern(*c.Pattern)
	}
	return card.NewNormal(p, c.Rank)
}

func fromCard(c card.Card) wireCard {
	if c.Joker {
		clr := colorName(c.Color)
		return wireCard{Joker: true, Color: &clr}
	}
	p := patternName(c.Pattern)
	return wireCard{Pattern: &p, Rank: c.Rank}
}

func decodePattern(raw json.RawMessage) (*card.Pattern, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return nil, fmt.Errorf("session: giruda: %w", err)
	}
	p, err := parsePattern(name)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func parsePattern(name string) (card.Pattern, error) {
	switch name {
	case "spade", "Spade":
		return card.Spade, nil
	case "diamond", "Diamond":
		return card.Diamond, nil
	case "heart", "Heart":
		return card.Heart, nil
	case "clover", "Clover":
		return card.Clover, nil
	default:
		return 0, fmt.Errorf("session: unknown pattern %q", name)
	}
}

func patternName(p card.Pattern) string {
	switch p {
	case card.Spade:
		return "spade"
	case card.Diamond:
		return "diamond"
	case card.Heart:
		return "heart"
	case card.Clover:
		return "clover"
	default:
		return "spade"
	}
}

func colorName(c card.Color) string {
	if c == card.Red {
		return "red"
	}
	return "black"
}

// wireFriendFunc mirrors engine.FriendFunc's tagged-variant shape.
type wireFriendFunc struct {
	Kind    string    `json:"kind"`
	Card    *wireCard `json:"card,omitempty"`
	User    *int      `json:"user,omitempty"`
	Winning *int      `json:"winning,omitempty"`
}

func decodeFriendFunc(raw json.RawMessage) (engine.FriendFunc, error) {
	var w wireFriendFunc
	if err := json.Unmarshal(raw, &w); err != nil {
		return engine.FriendFunc{}, fmt.Errorf("session: friend_func: %w", err)
	}
	switch w.Kind {
	case "none", "":
		return engine.FriendFunc{Kind: engine.FriendFuncNone}, nil
	case "by_card":
		if w.Card == nil {
			return engine.FriendFunc{}, fmt.Errorf("session: by_card friend_func missing card")
		}
		return engine.FriendFunc{Kind: engine.FriendFuncByCard, Card: w.Card.toCard()}, nil
	case "by_user":
		if w.User == nil {
			return engine.FriendFunc{}, fmt.Errorf("session: by_user friend_func missing user")
		}
		return engine.FriendFunc{Kind: engine.FriendFuncByUser, User: *w.User}, nil
	case "by_winning":
		if w.Winning == nil {
			return engine.FriendFunc{}, fmt.Errorf("session: by_winning friend_func missing winning")
		}
		return engine.FriendFunc{Kind: engine.FriendFuncByWinning, Winning: *w.Winning}, nil
	default:
		return engine.FriendFunc{}, fmt.Errorf("session: unknown friend_func kind %q", w.Kind)
	}
}

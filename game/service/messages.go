package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/wricardo/rps-game/game/engine"
)

// ExecuteMsg is one of StartGame, Respond, UpdateAdmin, AddToBlacklist or
// RemoveFromBlacklist. On the wire it is an object with a single snake_case
// key naming the variant, e.g. {"start_game":{"opponent":"p1","host_move":"Rock"}}.
type ExecuteMsg interface {
	executeTag() string
}

// StartGame opens a game hosted by the sender.
type StartGame struct {
	Opponent string      `json:"opponent"`
	HostMove engine.Move `json:"host_move"`
}

// Respond plays the sender's move in the game (Host, Opponent).
type Respond struct {
	Host     string      `json:"host"`
	Opponent string      `json:"opponent"`
	OppMove  engine.Move `json:"opp_move"`
}

// UpdateAdmin hands the admin role to Admin, or gives it up when Admin is nil.
type UpdateAdmin struct {
	Admin *string `json:"admin"`
}

// AddToBlacklist bars Address from hosting games.
type AddToBlacklist struct {
	Address string `json:"address"`
}

// RemoveFromBlacklist lifts the bar on Address.
type RemoveFromBlacklist struct {
	Address string `json:"address"`
}

func (StartGame) executeTag() string           { return "start_game" }
func (Respond) executeTag() string             { return "respond" }
func (UpdateAdmin) executeTag() string         { return "update_admin" }
func (AddToBlacklist) executeTag() string      { return "add_to_blacklist" }
func (RemoveFromBlacklist) executeTag() string { return "remove_from_blacklist" }

// QueryMsg is one of GetOwner, GetAdmin, GetGame, GetGamesByHost,
// GetGamesByOpponent or GetBlacklist, tagged the same way as ExecuteMsg.
type QueryMsg interface {
	queryTag() string
}

type GetOwner struct{}

type GetAdmin struct{}

type GetGame struct {
	Host     string `json:"host"`
	Opponent string `json:"opponent"`
}

type GetGamesByHost struct {
	Address string `json:"address"`
}

type GetGamesByOpponent struct {
	Opponent string `json:"opponent"`
}

type GetBlacklist struct{}

func (GetOwner) queryTag() string           { return "get_owner" }
func (GetAdmin) queryTag() string           { return "get_admin" }
func (GetGame) queryTag() string            { return "get_game" }
func (GetGamesByHost) queryTag() string     { return "get_games_by_host" }
func (GetGamesByOpponent) queryTag() string { return "get_games_by_opponent" }
func (GetBlacklist) queryTag() string       { return "get_blacklist" }

// ExecuteMethod is the wire tag of msg.
func ExecuteMethod(msg ExecuteMsg) string { return msg.executeTag() }

// QueryKind is the wire tag of msg.
func QueryKind(msg QueryMsg) string { return msg.queryTag() }

// DecodeExecuteMsg parses a tagged execute message.
func DecodeExecuteMsg(data []byte) (ExecuteMsg, error) {
	tag, body, err := splitTagged(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case "start_game":
		return decodeExecute[StartGame](tag, body)
	case "respond":
		return decodeExecute[Respond](tag, body)
	case "update_admin":
		return decodeExecute[UpdateAdmin](tag, body)
	case "add_to_blacklist":
		return decodeExecute[AddToBlacklist](tag, body)
	case "remove_from_blacklist":
		return decodeExecute[RemoveFromBlacklist](tag, body)
	}
	return nil, fmt.Errorf("%w: execute %q", ErrUnknownMessage, tag)
}

// DecodeQueryMsg parses a tagged query message.
func DecodeQueryMsg(data []byte) (QueryMsg, error) {
	tag, body, err := splitTagged(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case "get_owner":
		return decodeQuery[GetOwner](tag, body)
	case "get_admin":
		return decodeQuery[GetAdmin](tag, body)
	case "get_game":
		return decodeQuery[GetGame](tag, body)
	case "get_games_by_host":
		return decodeQuery[GetGamesByHost](tag, body)
	case "get_games_by_opponent":
		return decodeQuery[GetGamesByOpponent](tag, body)
	case "get_blacklist":
		return decodeQuery[GetBlacklist](tag, body)
	}
	return nil, fmt.Errorf("%w: query %q", ErrUnknownMessage, tag)
}

// EncodeExecuteMsg renders msg in its tagged wire form.
func EncodeExecuteMsg(msg ExecuteMsg) ([]byte, error) {
	return json.Marshal(map[string]ExecuteMsg{msg.executeTag(): msg})
}

// EncodeQueryMsg renders msg in its tagged wire form.
func EncodeQueryMsg(msg QueryMsg) ([]byte, error) {
	return json.Marshal(map[string]QueryMsg{msg.queryTag(): msg})
}

func splitTagged(data []byte) (string, json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnknownMessage, err)
	}
	if len(envelope) != 1 {
		tags := make([]string, 0, len(envelope))
		for tag := range envelope {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		return "", nil, fmt.Errorf("%w: expected exactly one variant, got %v", ErrUnknownMessage, tags)
	}
	for tag, body := range envelope {
		return tag, body, nil
	}
	return "", nil, nil
}

func decodeExecute[T ExecuteMsg](tag string, body json.RawMessage) (ExecuteMsg, error) {
	var m T
	if err := decodeBody(tag, body, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeQuery[T QueryMsg](tag string, body json.RawMessage) (QueryMsg, error) {
	var m T
	if err := decodeBody(tag, body, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeBody(tag string, body json.RawMessage, v any) error {
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		body = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnknownMessage, tag, err)
	}
	return nil
}

package service

import (
	"github.com/wricardo/rps-game/account"
	"github.com/wricardo/rps-game/game/engine"
	"github.com/wricardo/rps-game/game/session"
)

// Attribute is one audit key/value pair of an execute result
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response is the result of Instantiate or Execute
type Response struct {
	Attributes []Attribute `json:"attributes"`
	// Outcome is set when the call resolved a game
	Outcome *engine.Outcome `json:"outcome,omitempty"`
}

// Attr returns the value of the first attribute named key.
func (r *Response) Attr(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

func newResponse(kv ...string) *Response {
	resp := &Response{Attributes: make([]Attribute, 0, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		resp.Attributes = append(resp.Attributes, Attribute{Key: kv[i], Value: kv[i+1]})
	}
	return resp
}

// GamesListResponse is the result of the games-by-host and games-by-opponent queries
type GamesListResponse struct {
	Games []session.Session `json:"games"`
}

// BlacklistResponse is the result of the blacklist query
type BlacklistResponse struct {
	Blacklist []account.ID `json:"blacklist"`
}

// EventType names a state change pushed to subscribers
type EventType string

const (
	EventGameStarted  EventType = "game_started"
	EventGameResolved EventType = "game_resolved"
)

// Event describes a committed change to one game
type Event struct {
	Type     EventType       `json:"type"`
	Game     session.Session `json:"game"`
	Outcome  engine.Outcome  `json:"outcome,omitempty"`
	Label    string          `json:"label,omitempty"`
	TxID     string          `json:"tx_id,omitempty"`
	Accounts []account.ID    `json:"-"`
}

// Notifier receives events after their transaction commits.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

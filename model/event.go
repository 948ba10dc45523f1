package model

import "time"

type Phase string

const (
	P_DAY   Phase = "DAY"
	P_NIGHT Phase = "NIGHT"
)

type EventKind string

const (
	E_START    EventKind = "start"
	E_STATUS   EventKind = "status"
	E_TALK     EventKind = "talk"
	E_WHISPER  EventKind = "whisper"
	E_VOTE     EventKind = "vote"
	E_EXECUTE  EventKind = "execute"
	E_LAST     EventKind = "lastWords"
	E_ATTACK_V EventKind = "attackVote"
	E_ATTACK   EventKind = "attack"
	E_DIVINE   EventKind = "divine"
	E_GUARD    EventKind = "guard"
	E_SAVE     EventKind = "save"
	E_POISON   EventKind = "poison"
	E_DEATH    EventKind = "death"
	E_RESULT   EventKind = "result"
)

// Event is a single observable thing that happened in a game. Private events
// (whispers, night actions) carry the audience that may see them.
type Event struct {
	GameID    string    `json:"gameID"`
	Idx       int       `json:"idx"`
	Day       int       `json:"day"`
	Phase     Phase     `json:"phase"`
	Kind      EventKind `json:"kind"`
	From      *Agent    `json:"from,omitempty"`
	To        *Agent    `json:"to,omitempty"`
	Text      string    `json:"text,omitempty"`
	Private   bool      `json:"private"`
	Timestamp time.Time `json:"timestamp"`
}

func (e Event) FromIdx() int {
	if e.From == nil {
		return -1
	}
	return e.From.Idx
}

func (e Event) ToIdx() int {
	if e.To == nil {
		return -1
	}
	return e.To.Idx
}

package model

type Request struct {
	Type string
}

var (
	R_TALK         = Request{Type: "TALK"}
	R_WHISPER      = Request{Type: "WHISPER"}
	R_VOTE         = Request{Type: "VOTE"}
	R_ATTACK       = Request{Type: "ATTACK"}
	R_DIVINE       = Request{Type: "DIVINE"}
	R_GUARD        = Request{Type: "GUARD"}
	R_WITCH_SAVE   = Request{Type: "WITCH_SAVE"}
	R_WITCH_POISON = Request{Type: "WITCH_POISON"}
	R_LAST_WORDS   = Request{Type: "LAST_WORDS"}
)

func (r Request) String() string {
	return r.Type
}

func (r Request) IsTalk() bool {
	return r == R_TALK || r == R_WHISPER || r == R_LAST_WORDS
}

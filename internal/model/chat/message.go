package chat

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrorKind marks an assistant turn that carries a failure description instead of a reply.
type ErrorKind string

const (
	ErrorKindNone       ErrorKind = ""
	ErrorKindProvider   ErrorKind = "provider"
	ErrorKindUnexpected ErrorKind = "unexpected"
)

// Turn is one message unit of a transcript.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	IsIntro   bool      `json:"isIntro,omitempty"`
	ErrorKind ErrorKind `json:"errorKind,omitempty"`
}

// Failed reports whether the turn records a failed model call.
func (t Turn) Failed() bool {
	return t.ErrorKind != ErrorKindNone
}

// UserTurn builds a user turn.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text}
}

// AssistantTurn builds a regular assistant turn.
func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Text: text}
}

// IntroTurn builds the synthetic greeting shown at session start.
func IntroTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Text: text, IsIntro: true}
}

package agent

import "github.com/google/uuid"

// Responder members plus the terminal route. The supervisor must answer with
// exactly one of these.
const (
	MemberLawResearcher    = "LawResearcher"
	MemberPersonalAnalyst  = "PersonalAnalyst"
	MemberVisionAnalyst    = "VisionAnalyst"
	MemberGeneralResponder = "GeneralResponder"
	RouteFinish            = "FINISH"
)

// Members lists the responder nodes in routing-priority order.
func Members() []string {
	return []string{
		MemberLawResearcher,
		MemberPersonalAnalyst,
		MemberVisionAnalyst,
		MemberGeneralResponder,
	}
}

// Message is one role-tagged entry in a turn's working transcript.
type Message struct {
	Role    string // "user" or "model"
	Name    string // responder name, empty for user messages
	Content string
}

// State is the per-turn working state threaded through the routing graph.
// It lives for exactly one turn, persistence is the caller's concern.
type State struct {
	Messages      []Message
	UserContext   string
	ImagePath     string
	UserId        uuid.UUID
	ChatSessionId uuid.UUID

	// Next holds the supervisor's latest routing decision. Transient,
	// overwritten each hop.
	Next string
}

// LastUserMessage returns the most recent user entry, or the zero Message.
func (s *State) LastUserMessage() Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == "user" {
			return s.Messages[i]
		}
	}
	return Message{}
}

// AppendReply records a responder's single reply message.
func (s *State) AppendReply(name string, content string) {
	s.Messages = append(s.Messages, Message{
		Role:    "model",
		Name:    name,
		Content: content,
	})
}

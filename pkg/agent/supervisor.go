package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"docuchat-be/pkg/llm"
)

// ErrContractViolation signals that the supervisor completion produced a
// value outside the enumerated member set. This is an integration fault, not
// a user-facing error.
var ErrContractViolation = errors.New("supervisor routing contract violation")

const supervisorSystemPrompt = `You are the Supervisor of an internal document assistant. Your only job is accurate routing.

Workers: %s.

ROUTING RULES (STRICT):
1. 'VisionAnalyst': MUST be chosen when the turn carries an image or the user asks to analyze one.
2. 'LawResearcher': for questions about regulations, policies, procedures, or legal documents.
3. 'PersonalAnalyst': for questions about the user's own uploaded files or this chat's history.
4. 'GeneralResponder': ONLY for social greetings ('Hello', 'Thanks', 'Bye') or bot identity questions ('Who are you').
   - WARNING: if the user asks for outside knowledge (e.g. 'Capital of France?', 'How to cook?', 'Write Python code'), choose 'LawResearcher' so the system searches internal documents and reports when nothing is found.
   - NEVER use GeneralResponder to answer unrelated knowledge questions.

Choose 'FINISH' when nothing remains to do.`

// Supervisor picks the next responder via a closed-set completion.
type Supervisor struct {
	llm llm.LLMProvider
}

func NewSupervisor(provider llm.LLMProvider) *Supervisor {
	return &Supervisor{llm: provider}
}

type routeDecision struct {
	Next string `json:"next"`
}

// Route returns one member name or RouteFinish. Any other completion value is
// rejected with ErrContractViolation.
func (s *Supervisor) Route(ctx context.Context, state *State) (string, error) {
	options := append([]string{RouteFinish}, Members()...)

	history := []llm.Message{
		{Role: "user", Content: fmt.Sprintf(supervisorSystemPrompt, strings.Join(Members(), ", "))},
	}
	for _, msg := range state.Messages {
		history = append(history, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	imageNote := "no image attached"
	if state.ImagePath != "" {
		imageNote = "an image IS attached to this turn"
	}
	history = append(history, llm.Message{
		Role: "user",
		Content: fmt.Sprintf(
			`Based on the conversation above (%s), who should act next? Respond with ONLY this JSON: {"next": "<option>"} where <option> is ONE of: %s`,
			imageNote,
			strings.Join(options, ", "),
		),
	})

	completion, err := s.llm.Chat(ctx, history, llm.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("supervisor completion: %w", err)
	}

	decision, err := decodeRoute(completion)
	if err != nil {
		return "", err
	}

	for _, option := range options {
		if decision == option {
			return decision, nil
		}
	}
	return "", fmt.Errorf("%w: got %q, want one of %s", ErrContractViolation, decision, strings.Join(options, ", "))
}

func decodeRoute(completion string) (string, error) {
	s := strings.TrimSpace(completion)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var decision routeDecision
	if err := json.Unmarshal([]byte(s), &decision); err != nil {
		return "", fmt.Errorf("%w: unparseable completion %q", ErrContractViolation, completion)
	}
	return strings.TrimSpace(decision.Next), nil
}

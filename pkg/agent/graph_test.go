package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat-be/pkg/llm"
)

type scriptedLLM struct {
	completions []string
	calls       int
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.next(), nil
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.next(), nil
}

func (s *scriptedLLM) next() string {
	if s.calls >= len(s.completions) {
		return s.completions[len(s.completions)-1]
	}
	out := s.completions[s.calls]
	s.calls++
	return out
}

type echoResponder struct {
	name string
}

func (e *echoResponder) Name() string { return e.name }

func (e *echoResponder) Respond(ctx context.Context, state *State) error {
	state.AppendReply(e.name, "handled by "+e.name)
	return nil
}

func userState(question string) *State {
	return &State{Messages: []Message{{Role: "user", Content: question}}}
}

func TestGraphRoutesToResponder(t *testing.T) {
	supervisor := NewSupervisor(&scriptedLLM{completions: []string{`{"next": "LawResearcher"}`}})
	graph := NewGraph(supervisor, &echoResponder{name: MemberLawResearcher})

	state := userState("What does the lease law say?")
	trace, err := graph.Run(context.Background(), state)

	require.NoError(t, err)
	assert.Equal(t, []string{MemberLawResearcher}, trace)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "model", state.Messages[1].Role)
	assert.Equal(t, MemberLawResearcher, state.Messages[1].Name)
}

func TestGraphFinishLeavesStateUnchanged(t *testing.T) {
	supervisor := NewSupervisor(&scriptedLLM{completions: []string{`{"next": "FINISH"}`}})
	graph := NewGraph(supervisor, &echoResponder{name: MemberLawResearcher})

	state := userState("thanks, that is all")
	before := len(state.Messages)

	trace, err := graph.Run(context.Background(), state)

	require.NoError(t, err)
	assert.Equal(t, []string{RouteFinish}, trace)
	assert.Len(t, state.Messages, before)
}

func TestSupervisorRejectsOutOfEnumDecision(t *testing.T) {
	supervisor := NewSupervisor(&scriptedLLM{completions: []string{`{"next": "DatabaseAdmin"}`}})
	graph := NewGraph(supervisor, &echoResponder{name: MemberLawResearcher})

	_, err := graph.Run(context.Background(), userState("hello"))

	assert.ErrorIs(t, err, ErrContractViolation)
}

func TestSupervisorRejectsUnparseableCompletion(t *testing.T) {
	supervisor := NewSupervisor(&scriptedLLM{completions: []string{"I think LawResearcher should go next."}})

	_, err := supervisor.Route(context.Background(), userState("hello"))

	assert.ErrorIs(t, err, ErrContractViolation)
}

func TestSupervisorAcceptsFencedJSON(t *testing.T) {
	supervisor := NewSupervisor(&scriptedLLM{completions: []string{"```json\n{\"next\": \"VisionAnalyst\"}\n```"}})

	decision, err := supervisor.Route(context.Background(), userState("what is in this picture?"))

	require.NoError(t, err)
	assert.Equal(t, MemberVisionAnalyst, decision)
}

func TestGraphRejectsUnregisteredResponder(t *testing.T) {
	supervisor := NewSupervisor(&scriptedLLM{completions: []string{`{"next": "VisionAnalyst"}`}})
	// VisionAnalyst is a valid member but no node is wired for it here.
	graph := NewGraph(supervisor, &echoResponder{name: MemberLawResearcher})

	trace, err := graph.Run(context.Background(), userState("describe the image"))

	assert.ErrorIs(t, err, ErrContractViolation)
	assert.Equal(t, []string{MemberVisionAnalyst}, trace)
}

package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string, calls *[]string) Tool {
	return Tool{
		Name:        name,
		Description: "test tool",
		Run: func(ctx context.Context, query string) string {
			*calls = append(*calls, query)
			return "observation for " + query
		},
	}
}

func TestReactResponderUsesToolThenAnswers(t *testing.T) {
	var calls []string
	provider := &scriptedLLM{completions: []string{
		"Thought: check the corpus\nAction: search_law\nAction Input: {\"query\": \"lease law\"}",
		"Final Answer: leases terminate after notice.",
	}}
	responder := NewReactResponder(MemberLawResearcher, provider, []Tool{echoTool("search_law", &calls)})

	state := userState("what does lease law say?")
	require.NoError(t, responder.Respond(context.Background(), state))

	assert.Equal(t, []string{"lease law"}, calls)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "leases terminate after notice.", state.Messages[1].Content)
	assert.Equal(t, MemberLawResearcher, state.Messages[1].Name)
}

func TestReactResponderUnknownToolBecomesObservation(t *testing.T) {
	provider := &scriptedLLM{completions: []string{
		"Action: fetch_weather\nAction Input: {\"query\": \"today\"}",
		"Final Answer: I cannot help with that.",
	}}
	responder := NewReactResponder(MemberLawResearcher, provider, []Tool{
		{Name: "search_law", Description: "d", Run: func(ctx context.Context, q string) string { return "" }},
	})

	state := userState("weather?")
	require.NoError(t, responder.Respond(context.Background(), state))

	// The loop kept going after the unknown tool, no error escaped.
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "I cannot help with that.", state.Messages[1].Content)
}

func TestReactResponderStepExhaustionFallsBackToLastObservation(t *testing.T) {
	var calls []string
	// The model never reaches a final answer.
	provider := &scriptedLLM{completions: []string{
		"Action: search_law\nAction Input: {\"query\": \"again\"}",
	}}
	responder := NewReactResponder(MemberLawResearcher, provider, []Tool{echoTool("search_law", &calls)})

	state := userState("endless question")
	require.NoError(t, responder.Respond(context.Background(), state))

	assert.Len(t, calls, reactMaxSteps)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "observation for again", state.Messages[1].Content)
}

func TestReactResponderFreeTextInputIsPassedRaw(t *testing.T) {
	var calls []string
	provider := &scriptedLLM{completions: []string{
		"Action: search_law\nAction Input: lease termination rules",
		"Final Answer: done",
	}}
	responder := NewReactResponder(MemberLawResearcher, provider, []Tool{echoTool("search_law", &calls)})

	require.NoError(t, responder.Respond(context.Background(), userState("q")))
	assert.Equal(t, []string{"lease termination rules"}, calls)
}

func TestVisionResponderWithoutImage(t *testing.T) {
	responder := NewVisionResponder(nil)

	state := userState("what is in the picture?")
	require.NoError(t, responder.Respond(context.Background(), state))

	require.Len(t, state.Messages, 2)
	assert.Equal(t, "No image was attached to this message.", state.Messages[1].Content)
}

func TestVisionResponderUnreadableImage(t *testing.T) {
	responder := NewVisionResponder(nil)

	state := userState("describe")
	state.ImagePath = "/nonexistent/image.png"
	require.NoError(t, responder.Respond(context.Background(), state))

	require.Len(t, state.Messages, 2)
	assert.Equal(t, "The attached image could not be read.", state.Messages[1].Content)
}

func TestMimeTypeFor(t *testing.T) {
	assert.Equal(t, "image/png", mimeTypeFor("/tmp/a.PNG"))
	assert.Equal(t, "image/webp", mimeTypeFor("x.webp"))
	assert.Equal(t, "image/jpeg", mimeTypeFor("photo.jpg"))
	assert.Equal(t, "image/jpeg", mimeTypeFor("unknown.bin"))
}

package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docuchat-be/pkg/agent/parser"
	"docuchat-be/pkg/llm"
)

// Responder is a terminal node of the routing graph. Respond appends exactly
// one reply message tagged with the responder's name.
type Responder interface {
	Name() string
	Respond(ctx context.Context, state *State) error
}

const reactMaxSteps = 5

const reactPromptTemplate = `You are a document research assistant reasoning with the ReAct method.

You can use the following tools:
%s

RULES:
- When the question concerns the user's uploaded files, you MUST use tool_search_uploaded_file. Never claim you cannot access files.
- Use exactly this format when calling a tool:

Thought: short reasoning
Action: tool_name
Action Input: {"query": "..."}
Observation: tool result

- When you have the answer, finish with:

Final Answer: the complete answer for the user.

User context:
%s

Question:
%s

%s`

// ReactResponder runs a bounded tool-use loop before producing its reply.
type ReactResponder struct {
	name  string
	llm   llm.LLMProvider
	tools []Tool
}

func NewReactResponder(name string, provider llm.LLMProvider, tools []Tool) *ReactResponder {
	return &ReactResponder{
		name:  name,
		llm:   provider,
		tools: tools,
	}
}

func (r *ReactResponder) Name() string {
	return r.name
}

func (r *ReactResponder) Respond(ctx context.Context, state *State) error {
	question := state.LastUserMessage().Content

	var toolList strings.Builder
	for _, tool := range r.tools {
		toolList.WriteString(fmt.Sprintf("- %s: %s\n", tool.Name, tool.Description))
	}

	scratchpad := ""
	lastObservation := ""

	for step := 0; step < reactMaxSteps; step++ {
		prompt := fmt.Sprintf(reactPromptTemplate, toolList.String(), state.UserContext, question, scratchpad)

		completion, err := r.llm.Generate(ctx, prompt, llm.WithTemperature(0.2))
		if err != nil {
			return fmt.Errorf("responder %s completion: %w", r.name, err)
		}

		result := parser.Parse(completion)
		if result.IsFinal() {
			state.AppendReply(r.name, result.FinalAnswer)
			return nil
		}

		observation := r.dispatch(ctx, result.Action)
		lastObservation = observation
		scratchpad += fmt.Sprintf(
			"Action: %s\nAction Input: %s\nObservation: %s\n\n",
			result.Action.Name,
			result.Action.RawInput,
			observation,
		)
	}

	// Step budget exhausted, answer with what we gathered.
	if lastObservation != "" {
		state.AppendReply(r.name, lastObservation)
	} else {
		state.AppendReply(r.name, "I could not find an answer to that question in the available documents.")
	}
	return nil
}

func (r *ReactResponder) dispatch(ctx context.Context, action *parser.Action) string {
	query := action.RawInput
	if action.Input != nil {
		if q, ok := action.Input["query"].(string); ok && q != "" {
			query = q
		}
	}

	for _, tool := range r.tools {
		if tool.Name == action.Name {
			return tool.Run(ctx, query)
		}
	}
	return fmt.Sprintf("Unknown tool %q. Available tools: %s", action.Name, toolNames(r.tools))
}

func toolNames(tools []Tool) string {
	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	return strings.Join(names, ", ")
}

const generalSystemPrompt = `You are the assistant of an internal document lookup system.
Your only tasks: respond to social greetings and introduce yourself.
RULES:
1. If the user greets you, greet back briefly and invite them to ask about regulations or their documents.
2. If the user asks for outside knowledge (code, weather, history...), politely decline and say you only support lookups in internal regulations and uploaded documents.
3. NEVER invent knowledge that is not in context.`

// GeneralResponder handles greetings and identity questions without tools.
type GeneralResponder struct {
	llm llm.LLMProvider
}

func NewGeneralResponder(provider llm.LLMProvider) *GeneralResponder {
	return &GeneralResponder{llm: provider}
}

func (g *GeneralResponder) Name() string {
	return MemberGeneralResponder
}

func (g *GeneralResponder) Respond(ctx context.Context, state *State) error {
	reply, err := g.llm.Chat(ctx, []llm.Message{
		{Role: "user", Content: generalSystemPrompt},
		{Role: "user", Content: state.LastUserMessage().Content},
	})
	if err != nil {
		return fmt.Errorf("responder %s completion: %w", MemberGeneralResponder, err)
	}

	state.AppendReply(MemberGeneralResponder, reply)
	return nil
}

// VisionResponder answers questions about an attached image.
type VisionResponder struct {
	vision llm.VisionProvider
}

func NewVisionResponder(vision llm.VisionProvider) *VisionResponder {
	return &VisionResponder{vision: vision}
}

func (v *VisionResponder) Name() string {
	return MemberVisionAnalyst
}

func (v *VisionResponder) Respond(ctx context.Context, state *State) error {
	if state.ImagePath == "" {
		state.AppendReply(MemberVisionAnalyst, "No image was attached to this message.")
		return nil
	}

	imageData, err := os.ReadFile(state.ImagePath)
	if err != nil {
		state.AppendReply(MemberVisionAnalyst, "The attached image could not be read.")
		return nil
	}

	prompt := state.LastUserMessage().Content
	if strings.TrimSpace(prompt) == "" {
		prompt = "Describe this image in detail."
	}

	reply, err := v.vision.Describe(ctx, prompt, imageData, mimeTypeFor(state.ImagePath))
	if err != nil {
		return fmt.Errorf("responder %s completion: %w", MemberVisionAnalyst, err)
	}

	state.AppendReply(MemberVisionAnalyst, reply)
	return nil
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

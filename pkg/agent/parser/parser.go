package parser

import (
	"encoding/json"
	"strings"
)

const (
	finalAnswerMarker = "Final Answer:"
	actionMarker      = "Action:"
	actionInputMarker = "Action Input:"
	observationMarker = "Observation:"
)

// Action is a structured tool call extracted from a reasoning step.
type Action struct {
	Name string
	// Input holds the parsed key-value form of the action input when it was
	// valid JSON, nil otherwise.
	Input map[string]interface{}
	// RawInput always holds the trimmed input text.
	RawInput string
}

// Result is either a terminal answer or a tool action, never both.
type Result struct {
	FinalAnswer string
	Action      *Action
}

func (r Result) IsFinal() bool {
	return r.Action == nil
}

// Parse interprets one model completion. It never fails: completions without
// any recognizable marker degrade to a direct answer.
func Parse(text string) Result {
	text = strings.TrimSpace(text)

	// A final answer wins over everything else in the completion.
	if idx := strings.Index(text, finalAnswerMarker); idx >= 0 {
		return Result{FinalAnswer: strings.TrimSpace(text[idx+len(finalAnswerMarker):])}
	}

	actionIdx := strings.Index(text, actionMarker)
	if actionIdx < 0 {
		return Result{FinalAnswer: text}
	}

	rest := text[actionIdx+len(actionMarker):]
	inputIdx := strings.Index(rest, actionInputMarker)
	if inputIdx < 0 {
		return Result{FinalAnswer: text}
	}

	name := strings.TrimSpace(rest[:inputIdx])
	input := rest[inputIdx+len(actionInputMarker):]

	// The input runs to the next marker or end of text, the model sometimes
	// hallucinates an Observation right after.
	if obsIdx := strings.Index(input, observationMarker); obsIdx >= 0 {
		input = input[:obsIdx]
	}
	input = strings.TrimSpace(input)

	return Result{Action: &Action{
		Name:     name,
		Input:    safeParseObject(input),
		RawInput: input,
	}}
}

// safeParseObject tries to decode the action input as a JSON object, fixing
// the common model mistakes first. Returns nil when nothing parses.
func safeParseObject(raw string) map[string]interface{} {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(s), &parsed); err == nil {
		return parsed
	}

	fixed := strings.ReplaceAll(s, "'", `"`)
	fixed = strings.ReplaceAll(fixed, ",}", "}")
	fixed = strings.ReplaceAll(fixed, ",]", "]")
	if err := json.Unmarshal([]byte(fixed), &parsed); err == nil {
		return parsed
	}

	return nil
}

package parser

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name            string
		text            string
		wantFinal       bool
		wantFinalAnswer string
		wantActionName  string
		wantRawInput    string
	}{
		{
			name:            "final answer only",
			text:            "Final Answer: 42",
			wantFinal:       true,
			wantFinalAnswer: "42",
		},
		{
			name:            "final answer wins over action",
			text:            "Action: search_law\nAction Input: {\"query\": \"x\"}\nFinal Answer: done",
			wantFinal:       true,
			wantFinalAnswer: "done",
		},
		{
			name:            "no markers degrades to direct answer",
			text:            "  The statute of limitations is three years.  ",
			wantFinal:       true,
			wantFinalAnswer: "The statute of limitations is three years.",
		},
		{
			name:           "structured action",
			text:           "Thought: I need the corpus.\nAction: search_law\nAction Input: {\"query\": \"lease termination\"}",
			wantFinal:      false,
			wantActionName: "search_law",
			wantRawInput:   `{"query": "lease termination"}`,
		},
		{
			name:            "action without input is a direct answer",
			text:            "Action: search_law",
			wantFinal:       true,
			wantFinalAnswer: "Action: search_law",
		},
		{
			name:           "hallucinated observation is cut off",
			text:           "Action: search_law\nAction Input: lease rules\nObservation: made up result",
			wantFinal:      false,
			wantActionName: "search_law",
			wantRawInput:   "lease rules",
		},
		{
			name:            "empty input",
			text:            "",
			wantFinal:       true,
			wantFinalAnswer: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.text)

			if result.IsFinal() != tt.wantFinal {
				t.Fatalf("IsFinal() = %v, want %v", result.IsFinal(), tt.wantFinal)
			}
			if tt.wantFinal {
				if result.FinalAnswer != tt.wantFinalAnswer {
					t.Errorf("FinalAnswer = %q, want %q", result.FinalAnswer, tt.wantFinalAnswer)
				}
				return
			}
			if result.Action.Name != tt.wantActionName {
				t.Errorf("Action.Name = %q, want %q", result.Action.Name, tt.wantActionName)
			}
			if result.Action.RawInput != tt.wantRawInput {
				t.Errorf("Action.RawInput = %q, want %q", result.Action.RawInput, tt.wantRawInput)
			}
		})
	}
}

func TestSafeParseObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantKey string
		wantVal string
		wantNil bool
	}{
		{
			name:    "plain json",
			raw:     `{"query": "tax law"}`,
			wantKey: "query",
			wantVal: "tax law",
		},
		{
			name:    "fenced json",
			raw:     "```json\n{\"query\": \"tax law\"}\n```",
			wantKey: "query",
			wantVal: "tax law",
		},
		{
			name:    "single quotes fixed",
			raw:     `{'query': 'tax law'}`,
			wantKey: "query",
			wantVal: "tax law",
		},
		{
			name:    "trailing comma fixed",
			raw:     `{"query": "tax law",}`,
			wantKey: "query",
			wantVal: "tax law",
		},
		{
			name:    "free text returns nil",
			raw:     "just look it up",
			wantNil: true,
		},
		{
			name:    "empty returns nil",
			raw:     "",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := safeParseObject(tt.raw)

			if tt.wantNil {
				if parsed != nil {
					t.Fatalf("expected nil, got %v", parsed)
				}
				return
			}
			if parsed == nil {
				t.Fatal("expected parsed object, got nil")
			}
			if got := parsed[tt.wantKey]; got != tt.wantVal {
				t.Errorf("parsed[%q] = %v, want %q", tt.wantKey, got, tt.wantVal)
			}
		})
	}
}

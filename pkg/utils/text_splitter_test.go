package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInputIsSingleChunk(t *testing.T) {
	chunks := SplitText("short text", 100, 20)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("chunks = %v, want the input unchanged", chunks)
	}
}

func TestSplitTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 100)

	chunks := SplitText(text, 200, 40)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if len([]rune(chunk)) > 200 {
			t.Errorf("chunk %d has %d runes, exceeds chunk size", i, len([]rune(chunk)))
		}
	}

	// The final chunk must reach the end of the input.
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(strings.TrimRight(text, " "), strings.TrimRight(last, " ")) {
		t.Error("last chunk does not end where the input ends")
	}
}

func TestSplitTextPrefersWordBoundaries(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 50)

	for _, chunk := range SplitText(text, 100, 20) {
		trimmed := strings.TrimSpace(chunk)
		for _, word := range strings.Fields(trimmed) {
			switch word {
			case "alpha", "beta", "gamma", "delta":
			default:
				t.Fatalf("word %q was cut mid-way in chunk %q", word, chunk)
			}
		}
	}
}

func TestSplitTextLargeOverlapStillTerminates(t *testing.T) {
	text := strings.Repeat("x", 500)

	chunks := SplitText(text, 100, 100)
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}

	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	if total < len(text) {
		t.Errorf("chunks cover %d runes, input has %d", total, len(text))
	}
}

package utils

import "strings"

// SplitText splits a long string into chunks of at most chunkSize runes with
// the given overlap between consecutive chunks. Chunk boundaries prefer the
// last whitespace inside the window so words are not cut mid-way.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		// Back off to the nearest whitespace, but never shrink the chunk by
		// more than half.
		cut := end
		for cut > start+chunkSize/2 && !isSpace(runes[cut-1]) {
			cut--
		}
		if cut == start+chunkSize/2 {
			cut = end
		}

		chunks = append(chunks, strings.TrimRight(string(runes[start:cut]), " \t\n"))

		next := cut - overlap
		if next <= start {
			next = cut // guarantee forward progress when overlap is large
		} else {
			// Snap forward to the next word start so no chunk begins
			// mid-word.
			for next < cut && !isSpace(runes[next-1]) {
				next++
			}
		}
		start = next
	}

	return chunks
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateTitleKeepsShortTitles(t *testing.T) {
	assert.Equal(t, "xin chào", truncateTitle("xin chào", 60))
}

func TestTruncateTitleCutsOnRuneBoundaries(t *testing.T) {
	title := strings.Repeat("Điều khoản hợp đồng ", 10)

	got := truncateTitle(title, 60)
	assert.Equal(t, 60, len([]rune(got)))
	assert.True(t, utf8.ValidString(got), "truncation must not split a multi-byte character")
	assert.Equal(t, string([]rune(title)[:60]), got)
}

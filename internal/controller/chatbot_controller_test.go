package controller

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat-be/internal/dto"
)

var pngPayload = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)

func TestSendChatRequestIgnoresClientSuppliedPath(t *testing.T) {
	body := `{"chat_session_id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","chat":"hi","image_path":"/etc/passwd"}`

	var request dto.SendChatRequest
	require.NoError(t, json.Unmarshal([]byte(body), &request))
	assert.Empty(t, request.ImagePath, "image paths must never come from the request body")
}

func TestSaveChatImageRejectsNonImagePayload(t *testing.T) {
	dir := t.TempDir()

	_, err := saveChatImage(dir, []byte("JWT_SECRET=super-secret"))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	if err == nil {
		assert.Empty(t, entries, "rejected payloads must not be stored")
	}
}

func TestSaveAndResolveChatImage(t *testing.T) {
	dir := t.TempDir()

	imageId, err := saveChatImage(dir, pngPayload)
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{32}\.png$`, imageId)

	path, err := resolveChatImage(dir, imageId)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pngPayload, data)
}

func TestResolveChatImageRejectsArbitraryFiles(t *testing.T) {
	dir := t.TempDir()

	secret := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(secret, []byte("JWT_SECRET=super-secret"), 0o600))

	for _, imageId := range []string{
		secret,
		".env",
		"../.env",
		"../../etc/passwd",
		"cafecafecafecafecafecafecafecafe.png/../.env",
		"deadbeef.png",
	} {
		_, err := resolveChatImage(dir, imageId)
		assert.Error(t, err, "id %q must not resolve to a file", imageId)
	}
}

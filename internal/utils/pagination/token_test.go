package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	createdAt := time.Date(2025, 6, 14, 10, 30, 0, 123456789, time.UTC)
	id := "c0ffee-1234"

	token := EncodeCursor(createdAt, id)
	gotTime, gotID, err := DecodeCursor(token)

	require.NoError(t, err)
	assert.True(t, createdAt.Equal(gotTime))
	assert.Equal(t, id, gotID)
}

func TestDecodeCursorInvalidBase64(t *testing.T) {
	_, _, err := DecodeCursor("not-base64!!!")
	assert.Error(t, err)
}

func TestDecodeCursorMissingSeparator(t *testing.T) {
	_, _, err := DecodeCursor("bm8tc2VwYXJhdG9y") // "no-separator"
	assert.Error(t, err)
}

func TestDecodeCursorBadTime(t *testing.T) {
	_, _, err := DecodeCursor("bm90LWEtdGltZXxpZA==") // "not-a-time|id"
	assert.Error(t, err)
}

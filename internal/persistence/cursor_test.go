package persistence

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/stravahook/internal/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	token := EncodeCursor(&domain.Cursor{ID: 4821})
	require.NotEmpty(t, token)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	require.Equal(t, int64(4821), cursor.ID)
}

func TestCursorEmpty(t *testing.T) {
	require.Empty(t, EncodeCursor(nil))

	cursor, err := DecodeCursor("  ")
	require.NoError(t, err)
	require.Nil(t, cursor)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{
		"%%%",
		base64.RawURLEncoding.EncodeToString([]byte("nope")),
		base64.RawURLEncoding.EncodeToString([]byte("xx|12")),
		base64.RawURLEncoding.EncodeToString([]byte("pa|-3")),
		base64.RawURLEncoding.EncodeToString([]byte("pa|abc")),
	} {
		_, err := DecodeCursor(token)
		require.Error(t, err, token)
	}
}

package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 45, 123456789, time.UTC)
	encoded := EncodeCursor("passage-42", ts)
	require.NotEmpty(t, encoded)

	cursor, err := DecodeCursor(encoded)

	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, "passage-42", cursor.LastID)
	assert.True(t, ts.Equal(cursor.Timestamp))
}

func TestDecodeCursor_Empty(t *testing.T) {
	cursor, err := DecodeCursor("")

	require.NoError(t, err)
	assert.Nil(t, cursor)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	_, err := DecodeCursor("not base64!!")
	assert.ErrorIs(t, err, ErrInvalidCursor)

	// Valid base64 but wrong payload shape.
	_, err = DecodeCursor("aGVsbG8=")
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

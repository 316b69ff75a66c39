package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PropertySearchSys/models"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{Sort: models.SortPriceAsc, Price: 15000, ID: "665f1f77bcf86cd799439011"}
	encoded := EncodeCursor(in)
	require.NotEmpty(t, encoded)

	out, ok := DecodeCursor(encoded)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestDecodeCursorFailsClosed(t *testing.T) {
	for _, tok := range []string{
		"",
		"not base64 at all!!",
		"aGVsbG8", // valid base64, not JSON
		"e30",     // empty JSON object, no id
	} {
		_, ok := DecodeCursor(tok)
		assert.False(t, ok, "token %q should fail closed", tok)
	}
}

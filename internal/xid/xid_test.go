package xid

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsUniqueAndPrefixed(t *testing.T) {
	a := New("REF")
	b := New("REF")

	require.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "REF-"))
	assert.Len(t, strings.TrimPrefix(a, "REF-"), 32)
}

func TestNewWithoutPrefixIsUUID(t *testing.T) {
	assert.Len(t, New(""), 36)
}

func TestTimestamped(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "ORD-1700000000123", Timestamped("ORD", at))
}

func TestTimeString(t *testing.T) {
	at := time.Unix(0, 42)
	assert.Equal(t, "42", TimeString(at))
}

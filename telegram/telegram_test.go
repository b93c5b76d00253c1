package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotifierWithoutTokenIsNop(t *testing.T) {
	n, err := NewNotifier("", 0)
	require.NoError(t, err)
	assert.IsType(t, NopNotifier{}, n)
	n.Alert("ignored", "nothing happens")
}

func TestFormatAlert(t *testing.T) {
	msg := FormatAlert("parse_failed extract", "```json\n{oops")
	assert.True(t, strings.HasPrefix(msg, "*parse\\_failed extract*"))
	assert.Equal(t, 2, strings.Count(msg, "```"))

	long := FormatAlert("x", strings.Repeat("a", 5000))
	assert.Less(t, len(long), 4096)
}

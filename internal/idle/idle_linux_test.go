package idle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMillis(t *testing.T) {
	d, err := parseMillis("1500\n")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	d, err = parseMillis("-3")
	require.NoError(t, err)
	assert.Zero(t, d)

	_, err = parseMillis("soon")
	assert.Error(t, err)
}

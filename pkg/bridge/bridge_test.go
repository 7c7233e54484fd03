package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackingIDRoundTrip(t *testing.T) {
	id := TrackingID("meson", "0xdeadbeef")
	assert.Equal(t, "meson_0xdeadbeef", id)

	provider, ref, err := SplitTrackingID(id)
	require.NoError(t, err)
	assert.Equal(t, "meson", provider)
	assert.Equal(t, "0xdeadbeef", ref)
}

func TestSplitTrackingIDKeepsUnderscoresInRef(t *testing.T) {
	// Only the first underscore separates; the ref may contain more.
	provider, ref, err := SplitTrackingID("intents_addr_with_underscores")
	require.NoError(t, err)
	assert.Equal(t, "intents", provider)
	assert.Equal(t, "addr_with_underscores", ref)
}

func TestSplitTrackingIDMalformed(t *testing.T) {
	for _, id := range []string{"", "noseparator", "_missingprovider", "missingref_"} {
		_, _, err := SplitTrackingID(id)
		assert.Error(t, err, "id %q", id)
	}
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainKeyMap(t *testing.T) {
	out, err := chainKeyMap(map[string]string{"1": "eth", "56": "bnb"})
	require.NoError(t, err)
	assert.Equal(t, map[uint64]string{1: "eth", 56: "bnb"}, out)

	_, err = chainKeyMap(map[string]string{"mainnet": "eth"})
	assert.Error(t, err)
}

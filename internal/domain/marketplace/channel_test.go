package marketplace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	t.Run("known channels are case-insensitive", func(t *testing.T) {
		for _, raw := range []string{"AMAZON", "amazon", " Amazon "} {
			ch, err := ParseChannel(raw, UnknownChannelReject)
			require.NoError(t, err)
			assert.Equal(t, ChannelAmazon, ch)
		}
		ch, err := ParseChannel("willhaben", UnknownChannelReject)
		require.NoError(t, err)
		assert.Equal(t, ChannelWillhaben, ch)
	})

	t.Run("unknown channel is rejected by default policy", func(t *testing.T) {
		_, err := ParseChannel("ETSY", UnknownChannelReject)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ETSY")
	})

	t.Run("unknown channel maps to OTHER when configured", func(t *testing.T) {
		ch, err := ParseChannel("ETSY", UnknownChannelAsOther)
		require.NoError(t, err)
		assert.Equal(t, ChannelOther, ch)
	})

	t.Run("empty channel always fails", func(t *testing.T) {
		_, err := ParseChannel("  ", UnknownChannelAsOther)
		assert.Error(t, err)
	})
}

func TestUnknownChannelPolicy_IsValid(t *testing.T) {
	assert.True(t, UnknownChannelReject.IsValid())
	assert.True(t, UnknownChannelAsOther.IsValid())
	assert.False(t, UnknownChannelPolicy("drop").IsValid())
}

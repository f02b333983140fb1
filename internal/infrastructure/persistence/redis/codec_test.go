package redis

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	small := []byte(`{"template_id":"x"}`)
	large := bytes.Repeat([]byte(`{"recipe_id":12,"count":3},`), 200)

	t.Run("SmallValue_StoredRaw", func(t *testing.T) {
		c := NewCodec(true, DefaultCompressionThreshold)
		enc, err := c.Encode(small)
		require.NoError(t, err)
		assert.Equal(t, formatRaw, enc[0])

		dec, err := c.Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, small, dec)
	})

	t.Run("LargeValue_Compressed", func(t *testing.T) {
		c := NewCodec(true, DefaultCompressionThreshold)
		enc, err := c.Encode(large)
		require.NoError(t, err)
		assert.Equal(t, formatBrotli, enc[0])
		assert.Less(t, len(enc), len(large))

		// a reader with compression disabled still decodes it
		dec, err := NewCodec(false, 0).Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, large, dec)
	})

	t.Run("CompressionDisabled_StoresRaw", func(t *testing.T) {
		enc, err := NewCodec(false, 0).Encode(large)
		require.NoError(t, err)
		assert.Equal(t, formatRaw, enc[0])
	})

	t.Run("CorruptFrame_ShouldFail", func(t *testing.T) {
		c := NewCodec(true, 0)
		_, err := c.Decode(nil)
		assert.Error(t, err)
		_, err = c.Decode([]byte{9, 1, 2})
		assert.Error(t, err)
	})
}

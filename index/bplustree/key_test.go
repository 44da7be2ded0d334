package bplustree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt32Codec_RoundTripAndOrder(t *testing.T) {
	var c Int32Codec
	buf := make([]byte, c.Size())

	c.Encode(-5, buf)
	assert.Equal(t, int32(-5), c.Decode(buf))

	assert.Equal(t, -1, c.Compare(1, 2))
	assert.Equal(t, 1, c.Compare(2, 1))
	assert.Equal(t, 0, c.Compare(7, 7))
}

func TestInt64Codec_RoundTripAndOrder(t *testing.T) {
	var c Int64Codec
	buf := make([]byte, c.Size())

	c.Encode(1<<40, buf)
	assert.Equal(t, int64(1<<40), c.Decode(buf))
	assert.Equal(t, -1, c.Compare(10, 20))
}

func TestKey16Codec_RoundTripAndLexicalOrder(t *testing.T) {
	var c Key16Codec
	var k Key16
	copy(k[:], "hello-world-key!")

	buf := make([]byte, c.Size())
	c.Encode(k, buf)
	assert.Equal(t, k, c.Decode(buf))

	var a, b Key16
	copy(a[:], "aaaa")
	copy(b[:], "bbbb")
	assert.Negative(t, c.Compare(a, b))
	assert.Positive(t, c.Compare(b, a))
	assert.Zero(t, c.Compare(a, a))
}

package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWipeByteArray(t *testing.T) {
	b := []byte("s3cret")
	WipeByteArray(b)
	assert.Equal(t, make([]byte, 6), b)

	WipeByteArray(nil)
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashAccountNormalizes(t *testing.T) {
	want := HashAccount("GB29NWBK60161331926819")
	assert.Len(t, want, 64)
	assert.Equal(t, want, HashAccount("gb29 nwbk 6016 1331 9268 19"))
	assert.Equal(t, want, HashAccount("\tGB29NWBK60161331926819\n"))
	assert.NotEqual(t, want, HashAccount("GB29NWBK60161331926818"))
}

func TestHashAccountEmpty(t *testing.T) {
	assert.Empty(t, HashAccount(""))
	assert.Empty(t, HashAccount("   "))
}

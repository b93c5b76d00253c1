package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupLLMModelName(t *testing.T) {
	model, ok := LookupLLMModelName(" Gemini-2.5-Pro ")
	assert.True(t, ok)
	assert.Equal(t, Pro25, model)

	model, ok = LookupLLMModelName("gemini-2.0-flash")
	assert.True(t, ok)
	assert.Equal(t, Flash20, model)

	_, ok = LookupLLMModelName("gemni-2.5-flash")
	assert.False(t, ok)
}

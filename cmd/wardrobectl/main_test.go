package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandReadsStdin(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader("Here you go:\n```json\n{\"name\":\"Sneakers\"}\n```"))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"parse", "-"})

	require.NoError(t, rootCmd.Execute())
	assert.JSONEq(t, `{"name":"Sneakers"}`, out.String())
}

func TestParseCommandRejectsProse(t *testing.T) {
	rootCmd.SetIn(strings.NewReader("no json at all"))
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"parse"})

	assert.Error(t, rootCmd.Execute())
}

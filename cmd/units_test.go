package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"0.015", "15000000000000000"},
		{".5", "500000000000000000"},
		{"2.", "2000000000000000000"},
		{"0.000000000000000001", "1"},
	}
	for _, tt := range tests {
		got, err := parseEther(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}
}

func TestParseEtherRejects(t *testing.T) {
	for _, in := range []string{"", ".", "-1", "+1", "+0.5", "1.+5", "abc", "1.2.3", "0.0000000000000000001"} {
		_, err := parseEther(in)
		assert.Error(t, err, in)
	}
}

func TestParseUint(t *testing.T) {
	n, err := parseUint("42", "batch id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n.Int64())

	_, err = parseUint("-1", "batch id")
	assert.ErrorContains(t, err, "batch id")
	_, err = parseUint("x", "quantity")
	assert.Error(t, err)
}

package gameid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsValid(t *testing.T) {
	t.Parallel()

	id := Generate()
	assert.Len(t, id, 26)
	assert.NoError(t, Validate(id))
}

func TestGenerateUnique(t *testing.T) {
	t.Parallel()

	ids := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Generate()
		require.False(t, ids[id], "duplicate ID %s", id)
		ids[id] = true
	}
}

func TestGenerateSortsByTime(t *testing.T) {
	t.Parallel()

	earlier := generateAt(time.Unix(1700000000, 0))
	later := generateAt(time.Unix(1700000060, 0))
	assert.Less(t, earlier, later, "IDs must sort by creation time")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "01h5n0et5q6mt3v7ms1234abcd", false},
		{"too short", "01h5n0et5q6mt3v7ms123", true},
		{"too long", "01h5n0et5q6mt3v7ms1234abcdef", true},
		{"first char too high", "81h5n0et5q6mt3v7ms1234abcd", true},
		{"bad character", "01h5n0et5q6mt3v7ms1234abcu", true},
		{"uppercase rejected", "01H5N0ET5Q6MT3V7MS1234ABCD", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tc.id)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

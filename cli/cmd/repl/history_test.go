package repl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_AddDedupe(t *testing.T) {
	h := NewHistory("")

	for _, line := range []string{"1 + 1", "  ", "2", "1 + 1", "1 + 1"} {
		require.NoError(t, h.Add(line, modeEval))
	}

	require.NoError(t, h.Add("list", modeCtrl))
	require.NoError(t, h.Add("2", modeCtrl))

	assert.Equal(t, []HistoryEntry{
		{Line: "2", Mode: modeEval},
		{Line: "1 + 1", Mode: modeEval},
		{Line: "list", Mode: modeCtrl},
		{Line: "2", Mode: modeCtrl},
	}, h.Entries())

	_, err := h.At(4)
	assert.True(t, errors.Is(err, ErrOutOfBounds))

	_, err = h.At(-1)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestHistory_Persist(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	require.NoError(t, h.Load())
	assert.Zero(t, h.Len())

	require.NoError(t, h.Add("a", modeEval))
	require.NoError(t, h.Add("help", modeCtrl))
	require.NoError(t, h.Add("b", modeEval))
	require.NoError(t, h.Add("a", modeEval))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "C:help\nE:b\nE:a\n", string(data))

	loaded := NewHistory(path)
	require.NoError(t, loaded.Load())
	assert.Equal(t, h.Entries(), loaded.Entries())
}

func TestHistory_Limit(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	h.limit = 3

	for _, line := range []string{"1", "2", "3", "4", "5"} {
		require.NoError(t, h.Add(line, modeEval))
	}

	entry, err := h.At(0)
	require.NoError(t, err)
	assert.Equal(t, "3", entry.Line)
	assert.Equal(t, 3, h.Len())

	loaded := NewHistory(path)
	loaded.limit = 3
	require.NoError(t, loaded.Load())
	assert.Equal(t, h.Entries(), loaded.Entries())
}

func TestHistoryEntry_Codec(t *testing.T) {
	tests := []struct {
		line string
		want HistoryEntry
	}{
		{"E:1 + 2", HistoryEntry{Line: "1 + 2", Mode: modeEval}},
		{"C:quit", HistoryEntry{Line: "quit", Mode: modeCtrl}},
		{"legacy", HistoryEntry{Line: "legacy", Mode: modeEval}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := decodeEntry(tt.line)
			assert.Equal(t, tt.want, got)

			if tt.line != "legacy" {
				assert.Equal(t, tt.line+"\n", got.encode())
			}
		})
	}
}

package transcript

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatadmision/admitchat/internal/api"
	"github.com/chatadmision/admitchat/internal/chat"
)

func TestRecordAndList(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "transcript.db"))
	defer store.Close()

	now := time.Now()
	store.Record("conv-1",
		chat.NewUserMessage("hola", now),
		chat.FromServerAnswer(api.ChatMessage{ID: "m1", Response: "respuesta", Timestamp: "2026-08-30T10:00:00Z"}),
	)
	store.Record("conv-2", chat.NewUserMessage("otra", now))

	entries := store.List("conv-1")
	require.Len(t, entries, 2)
	require.Equal(t, "user", entries[0].Role)
	require.Equal(t, "hola", entries[0].Content)
	require.Equal(t, "assistant", entries[1].Role)

	require.Len(t, store.List("conv-2"), 1)
	require.Empty(t, store.List("conv-3"))
}

func TestMemoryFallbackOnBadPath(t *testing.T) {
	// Parent directory does not exist, so table creation fails and the
	// store must keep working in memory.
	store := NewStore(filepath.Join(t.TempDir(), "missing", "deep", "transcript.db"))
	defer store.Close()

	store.Record("conv-1", chat.NewUserMessage("hola", time.Now()))
	entries := store.List("conv-1")
	require.Len(t, entries, 1)
	require.Equal(t, "hola", entries[0].Content)
}

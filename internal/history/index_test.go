package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatadmision/admitchat/internal/api"
)

type mockStore struct {
	convs   []api.Conversation
	deleted []string
	delErr  error
}

func (m *mockStore) Conversations(context.Context) ([]api.Conversation, error) {
	return m.convs, nil
}

func (m *mockStore) DeleteConversation(_ context.Context, id string) error {
	if m.delErr != nil {
		return m.delErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

// fixedNow keeps bucket math deterministic: a Wednesday mid-afternoon.
var fixedNow = time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC)

func newTestIndex(store *mockStore) *Index {
	ix := New(store)
	ix.now = func() time.Time { return fixedNow }
	return ix
}

func conv(id string, updated time.Time) api.Conversation {
	return api.Conversation{
		ID:        id,
		CreatedAt: updated.Format(time.RFC3339),
		UpdatedAt: updated.Format(time.RFC3339),
	}
}

func TestGroupByRecency_FixedBuckets(t *testing.T) {
	convs := []api.Conversation{
		conv("today", fixedNow.Add(-2*time.Hour)),
		conv("yesterday", fixedNow.AddDate(0, 0, -1)),
		conv("week", fixedNow.AddDate(0, 0, -3)),
		conv("month", fixedNow.AddDate(0, 0, -10)),
		conv("older", fixedNow.AddDate(0, 0, -40)),
	}
	ix := newTestIndex(&mockStore{})

	groups := ix.GroupByRecency(convs)
	require.Len(t, groups, 5)
	for i, want := range []string{"today", "yesterday", "week", "month", "older"} {
		bucket := Buckets[i]
		require.Len(t, groups[bucket], 1, bucket)
		require.Equal(t, want, groups[bucket][0].ID)
	}
}

func TestGroupByRecency_PrecedenceOverElapsedHours(t *testing.T) {
	// 20 hours ago but across midnight: previous calendar day wins over
	// the raw duration.
	ix := newTestIndex(&mockStore{})
	c := conv("late-night", time.Date(2026, 8, 25, 19, 0, 0, 0, time.UTC))
	groups := ix.GroupByRecency([]api.Conversation{c})
	require.Len(t, groups[Buckets[1]], 1)
}

func TestSearch_MatchesTitleCaseInsensitive(t *testing.T) {
	ix := newTestIndex(&mockStore{})
	convs := []api.Conversation{
		{ID: "a", Title: "Proceso de Becas", UpdatedAt: fixedNow.Format(time.RFC3339)},
		{ID: "b", Title: "Fechas de examen", UpdatedAt: fixedNow.Format(time.RFC3339)},
	}
	out := ix.Search(convs, "BECAS")
	require.Len(t, out, 1)
	require.Equal(t, "a", out[0].ID)
}

func TestSearch_MatchesRecencyLabel(t *testing.T) {
	// Searching "hoy" finds today's sessions through the date label, not
	// their content.
	ix := newTestIndex(&mockStore{})
	convs := []api.Conversation{
		conv("today", fixedNow.Add(-time.Hour)),
		conv("old", fixedNow.AddDate(0, 0, -40)),
	}
	convs[0].Title = "Becas"
	convs[1].Title = "Becas"

	out := ix.Search(convs, "hoy")
	require.Len(t, out, 1)
	require.Equal(t, "today", out[0].ID)

	require.Len(t, ix.Search(convs, ""), 2, "blank query filters nothing")
}

func TestDisplayTitle_DerivedWhenAbsent(t *testing.T) {
	ix := newTestIndex(&mockStore{})
	withTitle := api.Conversation{Title: "Becas"}
	require.Equal(t, "Becas", ix.DisplayTitle(withTitle))

	noTitle := conv("x", fixedNow.AddDate(0, 0, -1))
	require.Equal(t, "Conversación Ayer", ix.DisplayTitle(noTitle))
}

func TestDelete_NotifiesHook(t *testing.T) {
	store := &mockStore{}
	ix := newTestIndex(store)
	var notified []string
	ix.Deleted = func(id string) { notified = append(notified, id) }

	require.NoError(t, ix.Delete(context.Background(), "conv-1"))
	require.Equal(t, []string{"conv-1"}, store.deleted)
	require.Equal(t, []string{"conv-1"}, notified)
}

func TestDelete_ErrorSkipsHook(t *testing.T) {
	store := &mockStore{delErr: errors.New("boom")}
	ix := newTestIndex(store)
	hookCalled := false
	ix.Deleted = func(string) { hookCalled = true }

	require.Error(t, ix.Delete(context.Background(), "conv-1"))
	require.False(t, hookCalled)
}

func TestList(t *testing.T) {
	store := &mockStore{convs: []api.Conversation{{ID: "a"}, {ID: "b"}}}
	ix := newTestIndex(store)
	out, err := ix.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
}

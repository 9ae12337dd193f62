// Package history is the read-side projection of past sessions: the list,
// search and recency grouping behind the session picker. It never shares
// mutable state with the active session; refresh is pull-based.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chatadmision/admitchat/internal/api"
	"github.com/chatadmision/admitchat/internal/chat"
	"github.com/chatadmision/admitchat/internal/logger"
)

// Recency bucket labels, in display order.
var Buckets = []string{"Hoy", "Ayer", "Esta semana", "Este mes", "Más antiguas"}

// Store is the slice of the API client the index uses.
type Store interface {
	Conversations(ctx context.Context) ([]api.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
}

// Index lists, searches and groups session summaries.
type Index struct {
	api Store

	// Deleted, when set, is invoked after a successful delete so the session
	// state machine can react to its active session disappearing.
	Deleted func(id string)

	now func() time.Time
}

// New creates an Index.
func New(api Store) *Index {
	return &Index{api: api, now: time.Now}
}

// List fetches the current session summaries.
func (ix *Index) List(ctx context.Context) ([]api.Conversation, error) {
	convs, err := ix.api.Conversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// Delete removes a session server-side and notifies the Deleted hook.
func (ix *Index) Delete(ctx context.Context, id string) error {
	if err := ix.api.DeleteConversation(ctx, id); err != nil {
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}
	logger.L.Info("conversation deleted", "conversation_id", id)
	if ix.Deleted != nil {
		ix.Deleted(id)
	}
	return nil
}

// Search filters summaries case-insensitively against the display title or
// the formatted recency label. Matching on the label is deliberate: typing
// "hoy" finds today's sessions by date, not content.
func (ix *Index) Search(convs []api.Conversation, query string) []api.Conversation {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return convs
	}
	var out []api.Conversation
	for _, c := range convs {
		title := strings.ToLower(ix.DisplayTitle(c))
		label := strings.ToLower(ix.RecencyLabel(chat.ParseTime(c.UpdatedAt)))
		if strings.Contains(title, q) || strings.Contains(label, q) {
			out = append(out, c)
		}
	}
	return out
}

// GroupByRecency maps each summary to its bucket by updatedAt, evaluated in
// fixed precedence: same calendar day, previous calendar day, within 7 days,
// within 30 days, else older.
func (ix *Index) GroupByRecency(convs []api.Conversation) map[string][]api.Conversation {
	groups := make(map[string][]api.Conversation)
	now := ix.now()
	for _, c := range convs {
		bucket := bucketFor(chat.ParseTime(c.UpdatedAt), now)
		groups[bucket] = append(groups[bucket], c)
	}
	return groups
}

func bucketFor(t, now time.Time) string {
	day := func(x time.Time) time.Time {
		y, m, d := x.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, x.Location())
	}
	today := day(now)
	switch target := day(t.In(now.Location())); {
	case target.Equal(today):
		return Buckets[0]
	case target.Equal(today.AddDate(0, 0, -1)):
		return Buckets[1]
	case now.Sub(t) < 7*24*time.Hour:
		return Buckets[2]
	case now.Sub(t) < 30*24*time.Hour:
		return Buckets[3]
	default:
		return Buckets[4]
	}
}

// DisplayTitle returns the stored title, or a label derived from the
// creation date when none was saved.
func (ix *Index) DisplayTitle(c api.Conversation) string {
	if c.Title != "" {
		return c.Title
	}
	return "Conversación " + ix.RecencyLabel(chat.ParseTime(c.CreatedAt))
}

// RecencyLabel formats an instant relative to now: Hoy, Ayer, "N días", or a
// short date for anything older than a week.
func (ix *Index) RecencyLabel(t time.Time) string {
	now := ix.now()
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days == 0:
		return "Hoy"
	case days == 1:
		return "Ayer"
	case days < 7:
		return fmt.Sprintf("%d días", days)
	default:
		return t.Format("2 Jan")
	}
}

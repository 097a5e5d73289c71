package visits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendguard/spendguard/internal/storage"
)

func newTracker(t *testing.T) *Tracker {
	t.Helper()
	s, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s)
}

func TestRecordVisitUpdatesCurrent(t *testing.T) {
	tr := newTracker(t)

	require.NoError(t, tr.RecordVisit("https://www.amazon.com/dp/B0TEST", "Amazon", 3))

	cur, err := tr.Current()
	require.NoError(t, err)
	assert.Equal(t, "www.amazon.com", cur.Hostname)
	assert.Equal(t, "shopping", cur.Type)
	assert.Equal(t, "Amazon", cur.Title)
}

func TestRecordVisitAppendsHistory(t *testing.T) {
	tr := newTracker(t)

	require.NoError(t, tr.RecordVisit("https://example.com/a", "A", 1))
	require.NoError(t, tr.RecordVisit("https://netflix.com/browse", "Netflix", 1))

	hist, err := tr.History()
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "https://example.com/a", hist[0].URL)
	assert.Equal(t, "netflix.com", hist[1].Hostname)
}

func TestCurrentBeforeAnyVisit(t *testing.T) {
	tr := newTracker(t)
	_, err := tr.Current()
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTabsSnapshot(t *testing.T) {
	tr := newTracker(t)

	empty, err := tr.Tabs()
	require.NoError(t, err)
	assert.Empty(t, empty)

	tabs := []TabInfo{{ID: 1, URL: "https://a.example.com", Title: "A"}}
	require.NoError(t, tr.SetTabs(tabs))

	got, err := tr.Tabs()
	require.NoError(t, err)
	assert.Equal(t, tabs, got)
}

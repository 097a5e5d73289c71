// Package visits does the passive bookkeeping: which site is current,
// where the user has been, and what kind of sites those are. No decision
// logic lives here.
package visits

import (
	"errors"
	"net/url"
	"time"

	"github.com/spendguard/spendguard/internal/classify"
	"github.com/spendguard/spendguard/internal/shared/types"
	"github.com/spendguard/spendguard/internal/storage"
)

// CurrentSite is the snapshot of the active tab's location.
type CurrentSite struct {
	URL       string    `json:"url"`
	Hostname  string    `json:"hostname"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// TabInfo mirrors one open tab for the popup's overview.
type TabInfo struct {
	ID    int    `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Tracker records navigation into the store.
type Tracker struct {
	store *storage.Store
}

// New creates a tracker over the store.
func New(store *storage.Store) *Tracker {
	return &Tracker{store: store}
}

// RecordVisit classifies the destination, updates the current-site
// snapshot, and appends to the visit history.
func (t *Tracker) RecordVisit(rawURL, title string, tabID int) error {
	hostname := hostnameOf(rawURL)
	now := time.Now()

	current := CurrentSite{
		URL:       rawURL,
		Hostname:  hostname,
		Title:     title,
		Type:      string(classify.WebsiteType(hostname)),
		Timestamp: now,
	}
	if err := t.store.SetValue(storage.KeyCurrentSite, current); err != nil {
		return err
	}

	return t.store.AddVisit(types.WebsiteVisit{
		URL:       rawURL,
		Hostname:  hostname,
		Title:     title,
		Timestamp: now,
		TabID:     tabID,
	})
}

// Current returns the active-tab snapshot, or storage.ErrNotFound before
// the first visit.
func (t *Tracker) Current() (CurrentSite, error) {
	var cur CurrentSite
	err := t.store.GetValue(storage.KeyCurrentSite, &cur)
	return cur, err
}

// History returns the bounded visit log, oldest first.
func (t *Tracker) History() ([]types.WebsiteVisit, error) {
	return t.store.Visits()
}

// SetTabs replaces the open-tabs snapshot.
func (t *Tracker) SetTabs(tabs []TabInfo) error {
	return t.store.SetValue(storage.KeyTabsSnapshot, tabs)
}

// Tabs returns the open-tabs snapshot; empty before the first update.
func (t *Tracker) Tabs() ([]TabInfo, error) {
	var tabs []TabInfo
	err := t.store.GetValue(storage.KeyTabsSnapshot, &tabs)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return tabs, err
}

func hostnameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

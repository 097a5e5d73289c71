package extract

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spendguard/spendguard/internal/dom"
	"github.com/spendguard/spendguard/internal/infrastructure/logging"
	"github.com/spendguard/spendguard/internal/shared/types"
)

// Watcher re-runs product extraction over a page's lifetime: once after a
// settle delay for client-rendered content, then on every polled URL
// change. History mutations are not observable from page scope, hence the
// poll.
type Watcher struct {
	doc       *dom.Document
	settle    time.Duration
	interval  time.Duration
	onProduct func(types.ProductDescriptor)
	log       *logging.Logger

	lastURL string
}

// NewWatcher creates a watcher delivering descriptors to onProduct. The
// callback only fires for pages that look like product pages.
func NewWatcher(doc *dom.Document, settle, interval time.Duration, onProduct func(types.ProductDescriptor), log *logging.Logger) *Watcher {
	if log == nil {
		log = logging.NewNop()
	}
	return &Watcher{
		doc:       doc,
		settle:    settle,
		interval:  interval,
		onProduct: onProduct,
		log:       log,
		lastURL:   doc.URL().String(),
	}
}

// Run blocks until ctx is done, scanning on schedule.
func (w *Watcher) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(w.settle):
		w.Scan()
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if cur := w.doc.URL().String(); cur != w.lastURL {
				w.lastURL = cur
				w.Scan()
			}
		}
	}
}

// Scan runs one extraction pass immediately.
func (w *Watcher) Scan() {
	if !IsProductPage(w.doc) {
		return
	}
	product, ok := Product(w.doc)
	if !ok {
		w.log.Debug("product page without extractable name",
			zap.String("url", w.doc.URL().String()))
		return
	}
	w.onProduct(*product)
}

// Package overlay runs the decision window that opens when a checkout
// interaction is suppressed. One overlay per page, an explicit state
// machine, and a hard rule: the user's purchase is never blocked by our
// own failures — anything that goes wrong on the way to a verdict
// resolves as a normal, non-overspending purchase.
package overlay

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spendguard/spendguard/internal/dom"
	"github.com/spendguard/spendguard/internal/extract"
	"github.com/spendguard/spendguard/internal/infrastructure/logging"
	"github.com/spendguard/spendguard/internal/shared/id"
	"github.com/spendguard/spendguard/internal/shared/types"
)

// State names a position in the overlay lifecycle.
type State string

const (
	// StateClosed means no overlay is showing.
	StateClosed State = "closed"
	// StateChecking covers the window between opening and the spending
	// verdict.
	StateChecking State = "checking"
	// StateResolved means a verdict is displayed and the overlay waits for
	// Confirm or Abandon.
	StateResolved State = "resolved"
)

// ErrAlreadyOpen is returned by Open while a decision is still in flight.
// The caller drops the duplicate trigger; the existing overlay stands.
var ErrAlreadyOpen = errors.New("overlay already open")

// ErrNotResolved is returned by Confirm outside the resolved state.
var ErrNotResolved = errors.New("overlay not resolved")

// Checker evaluates a prospective purchase against the remote budget.
type Checker interface {
	CheckSpending(ctx context.Context, itemName string, price float64) (*types.SpendingCheck, error)
}

// Replayer re-fires a suppressed interaction. Satisfied by
// intercept.Controller.
type Replayer interface {
	Replay(el *dom.Element)
}

// EnqueueFunc records a confirmed purchase durably.
type EnqueueFunc func(ev types.PurchaseEvent) error

// ProductSource returns the last product the page watcher saw, if any.
type ProductSource func() (types.ProductDescriptor, bool)

// Overlay is the per-page decision state machine.
type Overlay struct {
	doc         *dom.Document
	checker     Checker
	replayer    Replayer
	enqueue     EnqueueFunc
	lastProduct ProductSource
	timeout     time.Duration
	log         *logging.Logger

	mu      sync.Mutex
	state   State
	element *dom.Element
	product types.ProductDescriptor
	check   *types.SpendingCheck
}

// New creates a closed overlay. timeout bounds the spending check.
func New(doc *dom.Document, checker Checker, replayer Replayer, enqueue EnqueueFunc,
	lastProduct ProductSource, timeout time.Duration, log *logging.Logger) *Overlay {
	if log == nil {
		log = logging.NewNop()
	}
	return &Overlay{
		doc:         doc,
		checker:     checker,
		replayer:    replayer,
		enqueue:     enqueue,
		lastProduct: lastProduct,
		timeout:     timeout,
		log:         log,
		state:       StateClosed,
	}
}

// State returns the current lifecycle position.
func (o *Overlay) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Check returns the spending verdict backing the resolved overlay, or nil
// when the check failed or never ran.
func (o *Overlay) Check() *types.SpendingCheck {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.check
}

// Product returns the descriptor the overlay resolved for this decision.
func (o *Overlay) Product() types.ProductDescriptor {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.product
}

// Overspending reports whether the resolved verdict flagged the purchase.
// False while closed, checking, or when no verdict exists.
func (o *Overlay) Overspending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state == StateResolved && o.check != nil && o.check.IsOverspending
}

// Open starts a decision for the suppressed element. Returns
// ErrAlreadyOpen if a decision is in flight; only one overlay exists per
// page. On return the overlay is resolved: the spending check has either
// produced a verdict or failed open to normal.
func (o *Overlay) Open(ctx context.Context, el *dom.Element) error {
	o.mu.Lock()
	if o.state != StateClosed {
		o.mu.Unlock()
		return ErrAlreadyOpen
	}
	o.state = StateChecking
	o.element = el
	o.check = nil
	o.product = o.resolveProduct()
	o.mu.Unlock()

	// A fallback descriptor with no price has nothing to check against
	// the budget; the decision resolves normal without a remote call.
	var check *types.SpendingCheck
	if o.product.Price > 0 {
		check = o.runCheck(ctx, o.product)
	}

	o.mu.Lock()
	o.check = check
	o.state = StateResolved
	o.mu.Unlock()
	return nil
}

// Confirm records the purchase, closes the overlay, and replays the
// suppressed interaction. Exactly one event per confirmation; recording
// failure is logged and reported but never blocks the replay.
func (o *Overlay) Confirm() error {
	o.mu.Lock()
	if o.state != StateResolved {
		o.mu.Unlock()
		return ErrNotResolved
	}
	el := o.element
	p := o.product
	o.state = StateClosed
	o.element = nil
	o.mu.Unlock()

	ev := types.PurchaseEvent{
		ID:        id.NewPurchaseID().String(),
		ItemName:  p.ItemName,
		Price:     p.Price,
		Currency:  p.Currency,
		Website:   p.Website,
		URL:       p.URL,
		Timestamp: time.Now(),
		Status:    types.StatusPending,
	}

	err := o.enqueue(ev)
	if err != nil {
		o.log.Error("recording confirmed purchase",
			zap.String("purchase_id", ev.ID),
			zap.Error(err))
	}

	if el != nil {
		o.replayer.Replay(el)
	}
	return err
}

// Abandon closes the overlay without side effects. The interaction stays
// suppressed and no event is recorded.
func (o *Overlay) Abandon() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateClosed
	o.element = nil
	o.check = nil
}

// resolveProduct picks what the user is about to buy: the watcher's
// last-viewed product, then a fresh extraction, then the page title with a
// zero price. The overlay always has something to show.
func (o *Overlay) resolveProduct() types.ProductDescriptor {
	if o.lastProduct != nil {
		if p, ok := o.lastProduct(); ok {
			return p
		}
	}
	if p, ok := extract.Product(o.doc); ok {
		return *p
	}
	return types.ProductDescriptor{
		URL:       o.doc.URL().String(),
		Website:   o.doc.Hostname(),
		ItemName:  o.doc.Title(),
		Currency:  "USD",
		Timestamp: time.Now(),
	}
}

// runCheck races the remote verdict against the deadline. Any failure
// resolves to nil, which the rest of the overlay treats as normal.
func (o *Overlay) runCheck(ctx context.Context, p types.ProductDescriptor) *types.SpendingCheck {
	if o.checker == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	check, err := o.checker.CheckSpending(ctx, p.ItemName, p.Price)
	if err != nil {
		o.log.Warn("spending check failed, treating as normal", zap.Error(err))
		return nil
	}
	return check
}

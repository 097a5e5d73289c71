package types

import "time"

// PurchaseStatus tracks a purchase event through sync reconciliation.
type PurchaseStatus string

const (
	// StatusPending marks an event recorded locally but not yet acknowledged
	// by the remote ledger.
	StatusPending PurchaseStatus = "pending"
	// StatusSynced marks an event acknowledged by the ledger. Transitions are
	// one-way: a synced event never returns to pending.
	StatusSynced PurchaseStatus = "synced"
)

// ProductDescriptor is a best-effort read of the product a page is selling.
type ProductDescriptor struct {
	URL         string    `json:"url"`
	Website     string    `json:"website"`
	ItemName    string    `json:"item_name"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// PurchaseEvent is the durable record created the instant a user confirms a
// purchase. It is owned by the queue until synced.
type PurchaseEvent struct {
	ID        string         `json:"id"`
	ItemName  string         `json:"item_name"`
	Price     float64        `json:"price"`
	Currency  string         `json:"currency"`
	Website   string         `json:"website"`
	URL       string         `json:"url,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Status    PurchaseStatus `json:"status"`
	RemoteID  string         `json:"remote_id,omitempty"`
}

// SpendingCheck is the ephemeral result of a remote budget evaluation,
// consumed inside the overlay's open window and never persisted.
type SpendingCheck struct {
	IsOverspending  bool    `json:"is_overspending"`
	RoastMessage    string  `json:"roast_message,omitempty"`
	SpentToday      float64 `json:"spent_today"`
	DailyLimit      float64 `json:"daily_limit"`
	NewTotal        float64 `json:"new_total"`
	OverspendAmount float64 `json:"overspend_amount,omitempty"`
}

// WebsiteVisit records a tab landing on a page. Pure bookkeeping, no
// decision logic attached.
type WebsiteVisit struct {
	URL       string    `json:"url"`
	Hostname  string    `json:"hostname"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	TabID     int       `json:"tab_id"`
}

// UserProfile is the identity object the sign-in bridge copies from the web
// application. Email is the only mandatory field.
type UserProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Name      string `json:"name,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

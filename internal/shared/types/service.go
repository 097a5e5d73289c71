package types

// Category represents provider categories
type Category string

const (
	CategoryPurchases Category = "purchases"
	CategoryAuth      Category = "auth"
	CategoryVisits    Category = "visits"
	CategoryProducts  Category = "products"
	CategorySites     Category = "sites"
)

// Service represents a provider definition
type Service struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	Capabilities []string `json:"capabilities"`
	Tools        []Tool   `json:"tools"`
}

// Tool represents a provider tool
type Tool struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Returns     string      `json:"returns"`
}

// Parameter represents a tool parameter
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Context provides execution context for router requests
type Context struct {
	PageID    *string `json:"page_id,omitempty"`
	TabID     *int    `json:"tab_id,omitempty"`
	RequestID *string `json:"request_id,omitempty"`
}

// Result represents a provider execution result
type Result struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *string                `json:"error,omitempty"`
}

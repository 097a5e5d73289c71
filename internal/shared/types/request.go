package types

// ExecuteRequest represents a router tool execution request
type ExecuteRequest struct {
	ToolID string                 `json:"tool_id" binding:"required"`
	Params map[string]interface{} `json:"params"`
	PageID *string                `json:"page_id,omitempty"`
}

// WSRequest is the envelope a page context sends over the WebSocket bridge.
// ID correlates the single response the router owes per request.
type WSRequest struct {
	ID     string                 `json:"id"`
	ToolID string                 `json:"tool_id"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// WSResponse is the envelope the router sends back. Fire-and-forget callers
// may never read it; that is not an error.
type WSResponse struct {
	ID      string                 `json:"id"`
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

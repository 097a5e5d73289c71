package router

import (
	"context"
	"errors"

	"github.com/spendguard/spendguard/internal/shared/types"
	"github.com/spendguard/spendguard/internal/storage"
	"github.com/spendguard/spendguard/internal/visits"
)

// VisitsProvider exposes navigation bookkeeping.
type VisitsProvider struct {
	tracker *visits.Tracker
}

// NewVisitsProvider creates the visits provider.
func NewVisitsProvider(tracker *visits.Tracker) *VisitsProvider {
	return &VisitsProvider{tracker: tracker}
}

// Definition returns service metadata.
func (p *VisitsProvider) Definition() types.Service {
	return types.Service{
		ID:           "visits",
		Name:         "Visit Tracker",
		Description:  "Tracks the current site, visit history, and open tabs",
		Category:     types.CategoryVisits,
		Capabilities: []string{"record", "history", "tabs"},
		Tools: []types.Tool{
			{
				ID:          "visits.record",
				Name:        "Record Visit",
				Description: "Record a tab landing on a page",
				Parameters: []types.Parameter{
					{Name: "url", Type: "string", Description: "Page URL", Required: true},
					{Name: "title", Type: "string", Description: "Page title", Required: false},
					{Name: "tab_id", Type: "number", Description: "Tab identifier", Required: false},
				},
				Returns: "boolean",
			},
			{
				ID:          "visits.current",
				Name:        "Current Site",
				Description: "Return the active-tab snapshot",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "visits.history",
				Name:        "Visit History",
				Description: "Return the bounded visit log, oldest first",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
			{
				ID:          "visits.updateTabs",
				Name:        "Update Tabs",
				Description: "Replace the open-tabs snapshot",
				Parameters: []types.Parameter{
					{Name: "tabs", Type: "array", Description: "Open tabs", Required: true},
				},
				Returns: "boolean",
			},
			{
				ID:          "visits.tabs",
				Name:        "List Tabs",
				Description: "Return the open-tabs snapshot",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
		},
	}
}

// Execute dispatches a visits tool.
func (p *VisitsProvider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "visits.record":
		return p.record(params, appCtx)
	case "visits.current":
		return p.current()
	case "visits.history":
		return p.history()
	case "visits.updateTabs":
		return p.updateTabs(params)
	case "visits.tabs":
		return p.tabs()
	default:
		return Failure("unknown tool: " + toolID)
	}
}

func (p *VisitsProvider) record(params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	rawURL, err := getString(params, "url", true)
	if err != nil {
		return Failure(err.Error())
	}
	title, _ := getString(params, "title", false)
	tabID, err := getInt(params, "tab_id", false)
	if err != nil {
		return Failure(err.Error())
	}
	if tabID == 0 && appCtx != nil && appCtx.TabID != nil {
		tabID = *appCtx.TabID
	}

	if err := p.tracker.RecordVisit(rawURL, title, tabID); err != nil {
		return Failure(err.Error())
	}
	return Success(nil)
}

func (p *VisitsProvider) current() (*types.Result, error) {
	cur, err := p.tracker.Current()
	if errors.Is(err, storage.ErrNotFound) {
		return Success(map[string]interface{}{"current": nil})
	}
	if err != nil {
		return Failure(err.Error())
	}
	return Success(map[string]interface{}{"current": cur})
}

func (p *VisitsProvider) history() (*types.Result, error) {
	hist, err := p.tracker.History()
	if err != nil {
		return Failure(err.Error())
	}
	return Success(map[string]interface{}{
		"visits": hist,
		"count":  len(hist),
	})
}

func (p *VisitsProvider) updateTabs(params map[string]interface{}) (*types.Result, error) {
	raw, ok := params["tabs"].([]interface{})
	if !ok {
		return Failure("parameter tabs must be an array")
	}

	tabs := make([]visits.TabInfo, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return Failure("each tab must be an object")
		}
		tabID, _ := getInt(m, "id", false)
		tabURL, _ := getString(m, "url", false)
		title, _ := getString(m, "title", false)
		tabs = append(tabs, visits.TabInfo{ID: tabID, URL: tabURL, Title: title})
	}

	if err := p.tracker.SetTabs(tabs); err != nil {
		return Failure(err.Error())
	}
	return Success(nil)
}

func (p *VisitsProvider) tabs() (*types.Result, error) {
	tabs, err := p.tracker.Tabs()
	if err != nil {
		return Failure(err.Error())
	}
	return Success(map[string]interface{}{"tabs": tabs})
}

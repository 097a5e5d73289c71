package router

import (
	"context"
	"errors"

	"github.com/spendguard/spendguard/internal/authbridge"
	"github.com/spendguard/spendguard/internal/shared/types"
	"github.com/spendguard/spendguard/internal/storage"
)

// AuthProvider exposes the sign-in bridge.
type AuthProvider struct {
	bridge *authbridge.Bridge
}

// NewAuthProvider creates the auth provider.
func NewAuthProvider(bridge *authbridge.Bridge) *AuthProvider {
	return &AuthProvider{bridge: bridge}
}

// Definition returns service metadata.
func (p *AuthProvider) Definition() types.Service {
	return types.Service{
		ID:           "auth",
		Name:         "Auth Bridge",
		Description:  "Copies the companion web application's signed-in identity into local state",
		Category:     types.CategoryAuth,
		Capabilities: []string{"sign_in", "sign_out", "status"},
		Tools: []types.Tool{
			{
				ID:          "auth.signIn",
				Name:        "Sign In",
				Description: "Store a signed-in user profile; email is mandatory",
				Parameters: []types.Parameter{
					{Name: "email", Type: "string", Description: "Account email", Required: true},
					{Name: "id", Type: "string", Description: "Account id", Required: false},
					{Name: "name", Type: "string", Description: "Display name", Required: false},
					{Name: "first_name", Type: "string", Description: "First name", Required: false},
					{Name: "last_name", Type: "string", Description: "Last name", Required: false},
				},
				Returns: "boolean",
			},
			{
				ID:          "auth.signOut",
				Name:        "Sign Out",
				Description: "Clear the stored identity; queued events stay",
				Parameters:  []types.Parameter{},
				Returns:     "boolean",
			},
			{
				ID:          "auth.status",
				Name:        "Auth Status",
				Description: "Report whether a signed-in user exists",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
		},
	}
}

// Execute dispatches an auth tool.
func (p *AuthProvider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "auth.signIn":
		return p.signIn(ctx, params)
	case "auth.signOut":
		return p.signOut()
	case "auth.status":
		return p.status()
	default:
		return Failure("unknown tool: " + toolID)
	}
}

func (p *AuthProvider) signIn(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	email, err := getString(params, "email", true)
	if err != nil {
		return Failure(err.Error())
	}
	accountID, _ := getString(params, "id", false)
	name, _ := getString(params, "name", false)
	firstName, _ := getString(params, "first_name", false)
	lastName, _ := getString(params, "last_name", false)

	profile := types.UserProfile{
		ID:        accountID,
		Email:     email,
		Name:      name,
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := p.bridge.SignIn(ctx, profile); err != nil {
		return Failure(err.Error())
	}
	return Success(nil)
}

func (p *AuthProvider) signOut() (*types.Result, error) {
	if err := p.bridge.SignOut(); err != nil {
		return Failure(err.Error())
	}
	return Success(nil)
}

func (p *AuthProvider) status() (*types.Result, error) {
	data := map[string]interface{}{
		"authenticated": p.bridge.Authenticated(),
	}
	profile, err := p.bridge.Profile()
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Failure(err.Error())
	}
	if err == nil {
		data["user"] = profile
	}
	return Success(data)
}

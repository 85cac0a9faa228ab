package fakes

import "sync"

// AuthorizationProvider is a switchable authorization state for components
// that gate markup on the current user. It starts unauthorized.
type AuthorizationProvider struct {
	mu         sync.Mutex
	authorized bool
	userName   string
	roles      map[string]bool
}

// NewAuthorizationProvider creates an unauthorized provider.
func NewAuthorizationProvider() *AuthorizationProvider {
	return &AuthorizationProvider{roles: make(map[string]bool)}
}

// SetAuthorized moves the provider to the authorized state for userName with
// the given roles, replacing any previous state.
func (p *AuthorizationProvider) SetAuthorized(userName string, roles ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authorized = true
	p.userName = userName
	p.roles = make(map[string]bool, len(roles))
	for _, r := range roles {
		p.roles[r] = true
	}
}

// SetNotAuthorized resets the provider to the unauthorized state.
func (p *AuthorizationProvider) SetNotAuthorized() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authorized = false
	p.userName = ""
	p.roles = make(map[string]bool)
}

// Authorized reports whether a user is signed in.
func (p *AuthorizationProvider) Authorized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.authorized
}

// UserName returns the signed-in user's name, empty when unauthorized.
func (p *AuthorizationProvider) UserName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userName
}

// InRole reports whether the signed-in user holds role.
func (p *AuthorizationProvider) InRole(role string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.authorized && p.roles[role]
}

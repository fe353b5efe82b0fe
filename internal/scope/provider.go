// Package scope computes the visibility scope for a caller: the domain and
// user ids the history views are restricted to.
package scope

import (
	"context"
	"fmt"

	directoryrepo "devicetrail/internal/directory/repository"
	"devicetrail/internal/history/domain"
)

// Identity is the caller identity the middleware establishes.
type Identity struct {
	UserID   string
	DomainID string
	Role     string
}

// RoleAdmin receives an organization-wide scope; every other role sees only
// its own domain and that domain's users.
const RoleAdmin = "admin"

// Provider resolves a caller identity to a visibility scope.
type Provider interface {
	ScopeFor(ctx context.Context, id Identity) (domain.VisibilityScope, error)
}

// DirectoryProvider derives scopes from the directory tables.
type DirectoryProvider struct {
	directory directoryrepo.Repository
}

// NewDirectoryProvider returns a Provider backed by the directory repository.
func NewDirectoryProvider(directory directoryrepo.Repository) *DirectoryProvider {
	return &DirectoryProvider{directory: directory}
}

// ScopeFor returns the caller's visibility scope. Admins see all domains and
// users; everyone else sees their own domain and its users. A caller with no
// domain gets an empty scope, which legally matches nothing.
func (p *DirectoryProvider) ScopeFor(ctx context.Context, id Identity) (domain.VisibilityScope, error) {
	if id.Role == RoleAdmin {
		domainIDs, err := p.directory.ListDomainIDs(ctx)
		if err != nil {
			return domain.VisibilityScope{}, fmt.Errorf("scope domains: %w", err)
		}
		userIDs, err := p.directory.ListUserIDs(ctx)
		if err != nil {
			return domain.VisibilityScope{}, fmt.Errorf("scope users: %w", err)
		}
		return domain.VisibilityScope{DomainIDs: domainIDs, UserIDs: userIDs}, nil
	}

	if id.DomainID == "" {
		return domain.VisibilityScope{}, nil
	}
	userIDs, err := p.directory.ListUserIDsByDomain(ctx, id.DomainID)
	if err != nil {
		return domain.VisibilityScope{}, fmt.Errorf("scope users: %w", err)
	}
	return domain.VisibilityScope{DomainIDs: []string{id.DomainID}, UserIDs: userIDs}, nil
}

package scope

import (
	"context"
	"errors"
	"testing"

	directorydomain "devicetrail/internal/directory/domain"
)

type memDirectory struct {
	domainIDs     []string
	userIDs       []string
	usersByDomain map[string][]string
	err           error
}

func (m *memDirectory) GetDomainNames(ctx context.Context, ids []string) ([]directorydomain.NamedEntity, error) {
	return nil, nil
}

func (m *memDirectory) GetUserNames(ctx context.Context, ids []string) ([]directorydomain.NamedEntity, error) {
	return nil, nil
}

func (m *memDirectory) ListDomainIDs(ctx context.Context) ([]string, error) {
	return m.domainIDs, m.err
}

func (m *memDirectory) ListUserIDs(ctx context.Context) ([]string, error) {
	return m.userIDs, m.err
}

func (m *memDirectory) ListUserIDsByDomain(ctx context.Context, domainID string) ([]string, error) {
	return m.usersByDomain[domainID], m.err
}

func TestScopeFor_AdminSeesEverything(t *testing.T) {
	dir := &memDirectory{
		domainIDs: []string{"dom-1", "dom-2"},
		userIDs:   []string{"user-1", "user-2", "user-3"},
	}
	p := NewDirectoryProvider(dir)

	s, err := p.ScopeFor(context.Background(), Identity{UserID: "user-1", DomainID: "dom-1", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("ScopeFor: %v", err)
	}
	if len(s.DomainIDs) != 2 || len(s.UserIDs) != 3 {
		t.Errorf("admin scope = %+v, want all domains and users", s)
	}
}

func TestScopeFor_MemberSeesOwnDomain(t *testing.T) {
	dir := &memDirectory{
		domainIDs:     []string{"dom-1", "dom-2"},
		usersByDomain: map[string][]string{"dom-1": {"user-1", "user-2"}},
	}
	p := NewDirectoryProvider(dir)

	s, err := p.ScopeFor(context.Background(), Identity{UserID: "user-1", DomainID: "dom-1", Role: "member"})
	if err != nil {
		t.Fatalf("ScopeFor: %v", err)
	}
	if len(s.DomainIDs) != 1 || s.DomainIDs[0] != "dom-1" {
		t.Errorf("DomainIDs = %v, want [dom-1]", s.DomainIDs)
	}
	if len(s.UserIDs) != 2 {
		t.Errorf("UserIDs = %v, want dom-1's users", s.UserIDs)
	}
}

func TestScopeFor_NoDomainYieldsEmptyScope(t *testing.T) {
	p := NewDirectoryProvider(&memDirectory{})
	s, err := p.ScopeFor(context.Background(), Identity{UserID: "user-1", Role: "member"})
	if err != nil {
		t.Fatalf("ScopeFor: %v", err)
	}
	if !s.IsEmpty() {
		t.Errorf("scope = %+v, want empty", s)
	}
}

func TestScopeFor_DirectoryErrorSurfaces(t *testing.T) {
	p := NewDirectoryProvider(&memDirectory{err: errors.New("down")})
	if _, err := p.ScopeFor(context.Background(), Identity{Role: RoleAdmin}); err == nil {
		t.Fatal("directory failure should surface")
	}
}

package repository

import (
	"context"

	"devicetrail/internal/directory/domain"
)

// Repository is the directory of domains and users: batch name resolution by id
// for the history pipelines and id enumeration for the scope provider.
// Lookups omit unknown ids rather than failing; callers treat omission as a
// missing display name.
type Repository interface {
	GetDomainNames(ctx context.Context, ids []string) ([]domain.NamedEntity, error)
	GetUserNames(ctx context.Context, ids []string) ([]domain.NamedEntity, error)
	ListDomainIDs(ctx context.Context) ([]string, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	ListUserIDsByDomain(ctx context.Context, domainID string) ([]string, error)
}

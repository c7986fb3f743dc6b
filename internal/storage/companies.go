package storage

import (
	"context"
	"fmt"

	"platsbanken-sync/pkg/models"
)

// UpsertCompany creates or refreshes a company and returns its id. Companies
// with an organization number dedup on it; companies without one always get
// a fresh row, since a shared display name does not prove a shared employer.
// Duplicate rows for the same nameless employer are accepted.
func (s *PostgresStore) UpsertCompany(ctx context.Context, company models.TransformedCompany) (string, error) {
	var id string

	if company.OrganizationNumber != nil {
		err := s.db.QueryRow(ctx, `
			INSERT INTO companies (name, organization_number, website, description, logo)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (organization_number) DO UPDATE SET
				name        = EXCLUDED.name,
				website     = COALESCE(EXCLUDED.website, companies.website),
				description = COALESCE(EXCLUDED.description, companies.description),
				logo        = COALESCE(EXCLUDED.logo, companies.logo),
				updated_at  = now()
			RETURNING id`,
			company.Name, company.OrganizationNumber, company.Website, company.Description, company.Logo,
		).Scan(&id)
		if err != nil {
			return "", fmt.Errorf("failed to upsert company %q: %w", company.Name, err)
		}
		return id, nil
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO companies (name, website, description, logo)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		company.Name, company.Website, company.Description, company.Logo,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert company %q: %w", company.Name, err)
	}

	return id, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"platsbanken-sync/pkg/models"
)

// FindJobIDBySource resolves a job by its dedup key (source, source_id).
func (s *PostgresStore) FindJobIDBySource(ctx context.Context, source, sourceID string) (string, bool, error) {
	var id string
	err := s.db.QueryRow(ctx, `
		SELECT job_id FROM job_source_links
		WHERE source = $1 AND source_id = $2`,
		source, sourceID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up job by source id %s: %w", sourceID, err)
	}
	return id, true, nil
}

// CreateJob inserts a job row plus its source link and returns the new id.
func (s *PostgresStore) CreateJob(ctx context.Context, companyID, source string, job *models.TransformedJob) (string, error) {
	var id string
	err := s.db.QueryRow(ctx, `
		INSERT INTO jobs (
			company_id, title, description, url,
			occupation, occupation_group, occupation_field,
			published_at, last_publication_date, expires_at,
			removed, removed_at, last_checked,
			employment_type, working_hours_type, duration,
			vacancies, start_date, workload_min, workload_max,
			salary_type, salary_description,
			experience_required, driving_license_required, access_to_own_car,
			application_deadline, application_instructions, application_url,
			application_email, application_reference, application_via_af, application_other,
			workplace, remote,
			street_address, city, municipality, municipality_code,
			region, region_code, postal_code, country, country_code,
			location_formatted
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10,
			$11, $12, now(),
			$13, $14, $15,
			$16, $17, $18, $19,
			$20, $21,
			$22, $23, $24,
			$25, $26, $27,
			$28, $29, $30, $31,
			$32, $33,
			$34, $35, $36, $37,
			$38, $39, $40, $41, $42,
			$43
		)
		RETURNING id`,
		companyID, job.Title, job.Description, job.SourceURL,
		job.Occupation, job.OccupationGroup, job.OccupationField,
		job.PublishedAt, job.LastPublicationDate, job.ExpiresAt,
		job.Removed, job.RemovedAt,
		job.EmploymentType, job.WorkingHoursType, job.Duration,
		job.Vacancies, job.StartDate, job.WorkloadMin, job.WorkloadMax,
		job.SalaryType, job.SalaryDescription,
		job.ExperienceRequired, job.DrivingLicenseRequired, job.AccessToOwnCar,
		job.ApplicationDeadline, job.ApplicationInstructions, job.ApplicationURL,
		job.ApplicationEmail, job.ApplicationReference, job.ApplicationViaAf, job.ApplicationOther,
		job.Workplace, job.Remote,
		job.StreetAddress, job.City, job.Municipality, job.MunicipalityCode,
		job.Region, job.RegionCode, job.PostalCode, job.Country, job.CountryCode,
		job.LocationFormatted(),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert job %q: %w", job.Title, err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO job_source_links (job_id, source, source_id, source_url)
		VALUES ($1, $2, $3, $4)`,
		id, source, job.SourceID, job.SourceURL,
	)
	if err != nil {
		return "", fmt.Errorf("failed to link job %s to source: %w", id, err)
	}

	return id, nil
}

// UpdateJob rewrites an existing job row with fresh ad data and bumps
// last_checked.
func (s *PostgresStore) UpdateJob(ctx context.Context, jobID, companyID string, job *models.TransformedJob) error {
	_, err := s.db.Exec(ctx, `
		UPDATE jobs SET
			company_id               = $2,
			title                    = $3,
			description              = $4,
			url                      = $5,
			occupation               = $6,
			occupation_group         = $7,
			occupation_field         = $8,
			published_at             = $9,
			last_publication_date    = $10,
			expires_at               = $11,
			removed                  = $12,
			removed_at               = $13,
			last_checked             = now(),
			employment_type          = $14,
			working_hours_type       = $15,
			duration                 = $16,
			vacancies                = $17,
			start_date               = $18,
			workload_min             = $19,
			workload_max             = $20,
			salary_type              = $21,
			salary_description       = $22,
			experience_required      = $23,
			driving_license_required = $24,
			access_to_own_car        = $25,
			application_deadline     = $26,
			application_instructions = $27,
			application_url          = $28,
			application_email        = $29,
			application_reference    = $30,
			application_via_af       = $31,
			application_other        = $32,
			workplace                = $33,
			remote                   = $34,
			street_address           = $35,
			city                     = $36,
			municipality             = $37,
			municipality_code        = $38,
			region                   = $39,
			region_code              = $40,
			postal_code              = $41,
			country                  = $42,
			country_code             = $43,
			location_formatted       = $44,
			updated_at               = now()
		WHERE id = $1`,
		jobID, companyID, job.Title, job.Description, job.SourceURL,
		job.Occupation, job.OccupationGroup, job.OccupationField,
		job.PublishedAt, job.LastPublicationDate, job.ExpiresAt,
		job.Removed, job.RemovedAt,
		job.EmploymentType, job.WorkingHoursType, job.Duration,
		job.Vacancies, job.StartDate, job.WorkloadMin, job.WorkloadMax,
		job.SalaryType, job.SalaryDescription,
		job.ExperienceRequired, job.DrivingLicenseRequired, job.AccessToOwnCar,
		job.ApplicationDeadline, job.ApplicationInstructions, job.ApplicationURL,
		job.ApplicationEmail, job.ApplicationReference, job.ApplicationViaAf, job.ApplicationOther,
		job.Workplace, job.Remote,
		job.StreetAddress, job.City, job.Municipality, job.MunicipalityCode,
		job.Region, job.RegionCode, job.PostalCode, job.Country, job.CountryCode,
		job.LocationFormatted(),
	)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", jobID, err)
	}
	return nil
}

// SetJobCoordinates writes the WGS84 point, or clears it when coords is nil.
// Geometry goes through WKT because pgx has no native geometry codec.
func (s *PostgresStore) SetJobCoordinates(ctx context.Context, jobID string, coords *models.Coordinates) error {
	if coords == nil {
		_, err := s.db.Exec(ctx, `UPDATE jobs SET coordinates = NULL WHERE id = $1`, jobID)
		if err != nil {
			return fmt.Errorf("failed to clear coordinates for job %s: %w", jobID, err)
		}
		return nil
	}

	wkt := fmt.Sprintf("POINT(%g %g)", coords.Lon, coords.Lat)
	_, err := s.db.Exec(ctx, `
		UPDATE jobs SET coordinates = ST_GeomFromText($2, 4326) WHERE id = $1`,
		jobID, wkt,
	)
	if err != nil {
		return fmt.Errorf("failed to set coordinates for job %s: %w", jobID, err)
	}
	return nil
}

// ReplaceJobRequirements deletes and recreates the job's requirement rows.
// Insertion order preserves the must-have-first ordering of the slice.
func (s *PostgresStore) ReplaceJobRequirements(ctx context.Context, jobID string, reqs []models.TransformedRequirement) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM job_requirements WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("failed to clear requirements for job %s: %w", jobID, err)
	}

	for _, r := range reqs {
		_, err := s.db.Exec(ctx, `
			INSERT INTO job_requirements (job_id, requirement_type, category, label, weight)
			VALUES ($1, $2, $3, $4, $5)`,
			jobID, string(r.RequirementType), r.Category, r.Label, r.Weight,
		)
		if err != nil {
			return fmt.Errorf("failed to insert requirement for job %s: %w", jobID, err)
		}
	}
	return nil
}

// ReplaceJobContacts deletes and recreates the job's contact rows.
func (s *PostgresStore) ReplaceJobContacts(ctx context.Context, jobID string, contacts []models.TransformedContact) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM job_contacts WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("failed to clear contacts for job %s: %w", jobID, err)
	}

	for _, c := range contacts {
		_, err := s.db.Exec(ctx, `
			INSERT INTO job_contacts (job_id, name, role, email, phone, description)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			jobID, c.Name, c.Role, c.Email, c.Phone, c.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to insert contact for job %s: %w", jobID, err)
		}
	}
	return nil
}

// MarkJobRemoved flags the job linked to (source, sourceID) as removed
// without touching any other column. Returns false when no such job exists.
func (s *PostgresStore) MarkJobRemoved(ctx context.Context, source, sourceID string, removedAt time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE jobs SET
			removed      = TRUE,
			removed_at   = $3,
			last_checked = now()
		FROM job_source_links l
		WHERE l.job_id = jobs.id AND l.source = $1 AND l.source_id = $2`,
		source, sourceID, removedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark job %s removed: %w", sourceID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// LatestCheckedAt returns the sync watermark: the newest last_checked over
// jobs linked to the source. Nil means the store has never seen this source.
func (s *PostgresStore) LatestCheckedAt(ctx context.Context, source string) (*time.Time, error) {
	var latest *time.Time
	err := s.db.QueryRow(ctx, `
		SELECT max(j.last_checked)
		FROM jobs j
		JOIN job_source_links l ON l.job_id = j.id
		WHERE l.source = $1`,
		source,
	).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watermark for source %s: %w", source, err)
	}
	return latest, nil
}

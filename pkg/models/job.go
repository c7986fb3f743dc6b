package models

import (
	"strings"
	"time"
)

// RequirementType distinguishes hard requirements from merits.
type RequirementType string

const (
	RequirementMustHave   RequirementType = "must_have"
	RequirementNiceToHave RequirementType = "nice_to_have"
)

// Coordinates is a WGS84 longitude/latitude pair.
type Coordinates struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// TransformedCompany is the employer extracted from a validated ad.
type TransformedCompany struct {
	Name               string  `json:"name" validate:"required"`
	OrganizationNumber *string `json:"organization_number,omitempty"`
	Website            *string `json:"website,omitempty"`
	Description        *string `json:"description,omitempty"`
	Logo               *string `json:"logo,omitempty"`
}

// TransformedRequirement is one skill/language/experience requirement row.
// Must-have entries always precede nice-to-have entries in a job's
// requirement list; the ordering carries display priority.
type TransformedRequirement struct {
	RequirementType RequirementType `json:"requirement_type" validate:"required,oneof=must_have nice_to_have"`
	Category        string          `json:"category" validate:"required"`
	Label           string          `json:"label" validate:"required"`
	Weight          *float64        `json:"weight,omitempty"`
}

// TransformedContact is one contact person attached to a job.
type TransformedContact struct {
	Name        *string `json:"name,omitempty"`
	Role        *string `json:"role,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Description *string `json:"description,omitempty"`
}

// TransformedJob is the canonical, fully validated representation of one ad.
// It only lives between the transformer and the importer and is never
// persisted directly.
type TransformedJob struct {
	SourceID  string `json:"source_id" validate:"required"`
	SourceURL string `json:"source_url" validate:"required"`

	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`

	PublishedAt         time.Time  `json:"published_at"`
	LastPublicationDate *time.Time `json:"last_publication_date,omitempty"`
	ExpiresAt           *time.Time `json:"expires_at,omitempty"`
	Removed             bool       `json:"removed"`
	RemovedAt           *time.Time `json:"removed_at,omitempty"`

	Company TransformedCompany `json:"company"`

	EmploymentType   *string `json:"employment_type,omitempty"`
	WorkingHoursType *string `json:"working_hours_type,omitempty"`
	Duration         *string `json:"duration,omitempty"`

	Vacancies   *int     `json:"vacancies,omitempty"`
	StartDate   *string  `json:"start_date,omitempty"`
	WorkloadMin *float64 `json:"workload_min,omitempty"`
	WorkloadMax *float64 `json:"workload_max,omitempty"`

	SalaryType        *string `json:"salary_type,omitempty"`
	SalaryDescription *string `json:"salary_description,omitempty"`

	Occupation      *string `json:"occupation,omitempty"`
	OccupationGroup *string `json:"occupation_group,omitempty"`
	OccupationField *string `json:"occupation_field,omitempty"`

	ExperienceRequired     bool `json:"experience_required"`
	DrivingLicenseRequired bool `json:"driving_license_required"`
	AccessToOwnCar         bool `json:"access_to_own_car"`

	ApplicationDeadline     *time.Time `json:"application_deadline,omitempty"`
	ApplicationInstructions *string    `json:"application_instructions,omitempty"`
	ApplicationURL          *string    `json:"application_url,omitempty"`
	ApplicationEmail        *string    `json:"application_email,omitempty"`
	ApplicationReference    *string    `json:"application_reference,omitempty"`
	ApplicationViaAf        bool       `json:"application_via_af"`
	ApplicationOther        *string    `json:"application_other,omitempty"`

	Workplace        *string      `json:"workplace,omitempty"`
	Remote           bool         `json:"remote"`
	StreetAddress    *string      `json:"street_address,omitempty"`
	City             *string      `json:"city,omitempty"`
	Municipality     *string      `json:"municipality,omitempty"`
	MunicipalityCode *string      `json:"municipality_code,omitempty"`
	Region           *string      `json:"region,omitempty"`
	RegionCode       *string      `json:"region_code,omitempty"`
	PostalCode       *string      `json:"postal_code,omitempty"`
	Country          string       `json:"country" validate:"required"`
	CountryCode      *string      `json:"country_code,omitempty"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`

	Requirements []TransformedRequirement `json:"requirements" validate:"dive"`
	Contacts     []TransformedContact     `json:"contacts"`
}

// LocationFormatted renders "city, municipality, region" skipping blanks.
func (j *TransformedJob) LocationFormatted() string {
	parts := make([]string, 0, 3)
	for _, p := range []*string{j.City, j.Municipality, j.Region} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	return strings.Join(parts, ", ")
}

package models

// Wire format of the JobStream API. Nearly every field is optional or
// nullable upstream, so everything except the ad id is a pointer or a
// nullable container. Fields the transformer never reads are still decoded
// so a full ad round-trips through logs and task results.

// TaxonomyItem is a free-text taxonomy label with its concept ids.
type TaxonomyItem struct {
	ConceptID           *string `json:"concept_id,omitempty"`
	Label               *string `json:"label,omitempty"`
	LegacyAmsTaxonomyID *string `json:"legacy_ams_taxonomy_id,omitempty"`
}

// WeightedTaxonomyItem is a taxonomy label carrying a relevance weight,
// used inside must_have/nice_to_have requirement lists.
type WeightedTaxonomyItem struct {
	ConceptID           *string  `json:"concept_id,omitempty"`
	Label               *string  `json:"label,omitempty"`
	LegacyAmsTaxonomyID *string  `json:"legacy_ams_taxonomy_id,omitempty"`
	Weight              *float64 `json:"weight,omitempty"`
}

// ScopeOfWork is the FTE workload range of an ad.
type ScopeOfWork struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// AdEmployer is the employer block of an ad.
type AdEmployer struct {
	PhoneNumber        *string `json:"phone_number,omitempty"`
	Email              *string `json:"email,omitempty"`
	URL                *string `json:"url,omitempty"`
	OrganizationNumber *string `json:"organization_number,omitempty"`
	Name               *string `json:"name,omitempty"`
	Workplace          *string `json:"workplace,omitempty"`
}

// AdApplicationDetails describes how to apply for an ad.
type AdApplicationDetails struct {
	Information *string `json:"information,omitempty"`
	Reference   *string `json:"reference,omitempty"`
	Email       *string `json:"email,omitempty"`
	ViaAf       *bool   `json:"via_af,omitempty"`
	URL         *string `json:"url,omitempty"`
	Other       *string `json:"other,omitempty"`
}

// AdWorkplaceAddress is the workplace location of an ad. Coordinates is a
// [lon, lat] pair where either element may be null.
type AdWorkplaceAddress struct {
	Municipality     *string    `json:"municipality,omitempty"`
	MunicipalityCode *string    `json:"municipality_code,omitempty"`
	Region           *string    `json:"region,omitempty"`
	RegionCode       *string    `json:"region_code,omitempty"`
	Country          *string    `json:"country,omitempty"`
	CountryCode      *string    `json:"country_code,omitempty"`
	StreetAddress    *string    `json:"street_address,omitempty"`
	Postcode         *string    `json:"postcode,omitempty"`
	City             *string    `json:"city,omitempty"`
	Coordinates      []*float64 `json:"coordinates,omitempty"`
}

// AdRequirements groups the weighted requirement lists of one priority level.
type AdRequirements struct {
	Skills          []WeightedTaxonomyItem `json:"skills,omitempty"`
	Languages       []WeightedTaxonomyItem `json:"languages,omitempty"`
	WorkExperiences []WeightedTaxonomyItem `json:"work_experiences,omitempty"`
	Education       []WeightedTaxonomyItem `json:"education,omitempty"`
	EducationLevel  []WeightedTaxonomyItem `json:"education_level,omitempty"`
}

// AdApplicationContact is one contact person listed on an ad.
type AdApplicationContact struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Email       *string `json:"email,omitempty"`
	Telephone   *string `json:"telephone,omitempty"`
	ContactType *string `json:"contact_type,omitempty"`
}

// AdDescription is the description block of an ad. TextFormatted carries
// rich text/HTML and is preferred over the plain Text field.
type AdDescription struct {
	Text               *string `json:"text,omitempty"`
	TextFormatted      *string `json:"text_formatted,omitempty"`
	CompanyInformation *string `json:"company_information,omitempty"`
	Needs              *string `json:"needs,omitempty"`
	Requirements       *string `json:"requirements,omitempty"`
	Conditions         *string `json:"conditions,omitempty"`
}

// JobAd is one raw ad as returned by the JobStream snapshot and stream
// endpoints. WebpageURL is typed loosely because the upstream emits either a
// string or an object there.
type JobAd struct {
	ID                     string                 `json:"id"`
	ExternalID             *string                `json:"external_id,omitempty"`
	OriginalID             *string                `json:"original_id,omitempty"`
	WebpageURL             any                    `json:"webpage_url,omitempty"`
	LogoURL                *string                `json:"logo_url,omitempty"`
	Headline               *string                `json:"headline,omitempty"`
	ApplicationDeadline    *string                `json:"application_deadline,omitempty"`
	NumberOfVacancies      *int                   `json:"number_of_vacancies,omitempty"`
	Description            *AdDescription         `json:"description,omitempty"`
	EmploymentType         *TaxonomyItem          `json:"employment_type,omitempty"`
	SalaryType             *TaxonomyItem          `json:"salary_type,omitempty"`
	SalaryDescription      *string                `json:"salary_description,omitempty"`
	Duration               *TaxonomyItem          `json:"duration,omitempty"`
	WorkingHoursType       *TaxonomyItem          `json:"working_hours_type,omitempty"`
	ScopeOfWork            *ScopeOfWork           `json:"scope_of_work,omitempty"`
	Access                 *string                `json:"access,omitempty"`
	Employer               *AdEmployer            `json:"employer,omitempty"`
	ApplicationDetails     *AdApplicationDetails  `json:"application_details,omitempty"`
	ExperienceRequired     *bool                  `json:"experience_required,omitempty"`
	AccessToOwnCar         *bool                  `json:"access_to_own_car,omitempty"`
	DrivingLicenseRequired *bool                  `json:"driving_license_required,omitempty"`
	DrivingLicense         []TaxonomyItem         `json:"driving_license,omitempty"`
	Occupation             *TaxonomyItem          `json:"occupation,omitempty"`
	OccupationGroup        *TaxonomyItem          `json:"occupation_group,omitempty"`
	OccupationField        *TaxonomyItem          `json:"occupation_field,omitempty"`
	WorkplaceAddress       *AdWorkplaceAddress    `json:"workplace_address,omitempty"`
	MustHave               *AdRequirements        `json:"must_have,omitempty"`
	NiceToHave             *AdRequirements        `json:"nice_to_have,omitempty"`
	ApplicationContacts    []AdApplicationContact `json:"application_contacts,omitempty"`
	PublicationDate        *string                `json:"publication_date,omitempty"`
	LastPublicationDate    *string                `json:"last_publication_date,omitempty"`
	Removed                *bool                  `json:"removed,omitempty"`
	RemovedDate            *string                `json:"removed_date,omitempty"`
	SourceType             *string                `json:"source_type,omitempty"`
	Timestamp              *int64                 `json:"timestamp,omitempty"`
}

// IsRemoved reports whether the upstream has flagged this ad as removed.
func (a *JobAd) IsRemoved() bool {
	return a.Removed != nil && *a.Removed
}

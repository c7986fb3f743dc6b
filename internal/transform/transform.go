package transform

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-playground/validator/v10"

	"platsbanken-sync/pkg/models"
)

const (
	// Fallback employer name when the ad names no employer.
	unknownEmployerName = "Okänd arbetsgivare"

	// Public ad page used when the upstream provides no usable webpage URL.
	adPageURLFormat = "https://arbetsformedlingen.se/platsbanken/annonser/%s"
)

// remoteTokens mark an ad as remote-friendly when any of them appears in the
// description text, case-insensitively.
var remoteTokens = []string{"distans", "remote", "hemarbete"}

// ValidationError marks an ad that cannot be turned into a job. These are
// skipped and counted, never retried.
type ValidationError struct {
	AdID   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("transform: ad %s rejected: %s", e.AdID, e.Reason)
}

// IsValidationError reports whether err marks a rejected ad.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Transformer converts raw ads into the canonical job representation. It is
// pure: no I/O, no store access, deterministic apart from the publish-time
// fallback.
type Transformer struct {
	homeCountry string
	validate    *validator.Validate
}

// NewTransformer creates a transformer. homeCountry is the country assumed
// when the workplace address names none.
func NewTransformer(homeCountry string) *Transformer {
	return &Transformer{
		homeCountry: homeCountry,
		validate:    validator.New(),
	}
}

// Transform validates and maps one raw ad. Ads without a title or employer
// block are rejected with a ValidationError.
func (t *Transformer) Transform(ad *models.JobAd) (*models.TransformedJob, error) {
	if ad.Headline == nil || strings.TrimSpace(*ad.Headline) == "" {
		return nil, &ValidationError{AdID: ad.ID, Reason: "no title"}
	}
	if ad.Employer == nil {
		return nil, &ValidationError{AdID: ad.ID, Reason: "missing employer"}
	}

	description := extractDescription(ad.Description)

	job := &models.TransformedJob{
		SourceID:    ad.ID,
		SourceURL:   sourceURL(ad),
		Title:       strings.TrimSpace(*ad.Headline),
		Description: description,
		PublishedAt: parseTimeOr(ad.PublicationDate, time.Now()),
		Company:     extractCompany(ad),

		EmploymentType:    taxonomyLabel(ad.EmploymentType),
		WorkingHoursType:  taxonomyLabel(ad.WorkingHoursType),
		Duration:          taxonomyLabel(ad.Duration),
		Vacancies:         ad.NumberOfVacancies,
		StartDate:         ad.Access,
		SalaryType:        taxonomyLabel(ad.SalaryType),
		SalaryDescription: ad.SalaryDescription,

		Occupation:      taxonomyLabel(ad.Occupation),
		OccupationGroup: taxonomyLabel(ad.OccupationGroup),
		OccupationField: taxonomyLabel(ad.OccupationField),

		ExperienceRequired:     boolValue(ad.ExperienceRequired),
		DrivingLicenseRequired: boolValue(ad.DrivingLicenseRequired),
		AccessToOwnCar:         boolValue(ad.AccessToOwnCar),

		Country: t.homeCountry,
		Remote:  isRemote(description),

		Requirements: extractRequirements(ad),
		Contacts:     extractContacts(ad.ApplicationContacts),
	}

	job.LastPublicationDate = parseTimePtr(ad.LastPublicationDate)
	job.ApplicationDeadline = parseTimePtr(ad.ApplicationDeadline)
	job.ExpiresAt = job.ApplicationDeadline

	if ad.IsRemoved() {
		job.Removed = true
		job.RemovedAt = parseTimePtr(ad.RemovedDate)
	}

	if ad.ScopeOfWork != nil {
		job.WorkloadMin = ad.ScopeOfWork.Min
		job.WorkloadMax = ad.ScopeOfWork.Max
	}

	applyApplicationDetails(job, ad.ApplicationDetails)
	t.applyWorkplace(job, ad)

	if err := t.validate.Struct(job); err != nil {
		return nil, &ValidationError{AdID: ad.ID, Reason: err.Error()}
	}

	return job, nil
}

// extractCompany builds the employer record. A nameless employer block falls
// back to the workplace name and finally to the unknown-employer placeholder.
func extractCompany(ad *models.JobAd) models.TransformedCompany {
	employer := ad.Employer

	name := stringValue(employer.Name)
	if name == "" {
		name = stringValue(employer.Workplace)
	}
	if name == "" {
		name = unknownEmployerName
	}

	company := models.TransformedCompany{
		Name:               name,
		OrganizationNumber: nonEmpty(employer.OrganizationNumber),
		Website:            nonEmpty(employer.URL),
		Logo:               nonEmpty(ad.LogoURL),
	}

	if ad.Description != nil {
		company.Description = nonEmpty(ad.Description.CompanyInformation)
	}

	return company
}

// sourceURL prefers the upstream webpage URL when it is a plain string; the
// feed sometimes carries an object there, in which case the public ad page
// URL is derived from the ad id.
func sourceURL(ad *models.JobAd) string {
	if s, ok := ad.WebpageURL.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fmt.Sprintf(adPageURLFormat, ad.ID)
}

// extractDescription prefers the formatted (HTML) description and renders it
// to plain text; the plain text field is the fallback.
func extractDescription(d *models.AdDescription) string {
	if d == nil {
		return ""
	}
	if d.TextFormatted != nil && strings.TrimSpace(*d.TextFormatted) != "" {
		return htmlToText(*d.TextFormatted)
	}
	return stringValue(d.Text)
}

// htmlToText strips markup so token scans and stored descriptions operate on
// visible text only. Unparsable input is returned as-is.
func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}

// isRemote scans the description for remote-work tokens.
func isRemote(description string) bool {
	lower := strings.ToLower(description)
	for _, token := range remoteTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// extractRequirements flattens the weighted requirement lists. Must-have
// entries always come before nice-to-have entries.
func extractRequirements(ad *models.JobAd) []models.TransformedRequirement {
	var out []models.TransformedRequirement
	out = appendRequirements(out, ad.MustHave, models.RequirementMustHave)
	out = appendRequirements(out, ad.NiceToHave, models.RequirementNiceToHave)
	return out
}

func appendRequirements(out []models.TransformedRequirement, reqs *models.AdRequirements, reqType models.RequirementType) []models.TransformedRequirement {
	if reqs == nil {
		return out
	}

	categories := []struct {
		name  string
		items []models.WeightedTaxonomyItem
	}{
		{"skill", reqs.Skills},
		{"language", reqs.Languages},
		{"work_experience", reqs.WorkExperiences},
		{"education", reqs.Education},
		{"education_level", reqs.EducationLevel},
	}

	for _, cat := range categories {
		for _, item := range cat.items {
			label := stringValue(item.Label)
			if label == "" {
				continue
			}
			out = append(out, models.TransformedRequirement{
				RequirementType: reqType,
				Category:        cat.name,
				Label:           label,
				Weight:          item.Weight,
			})
		}
	}

	return out
}

// extractContacts maps contact persons. A contact without a name uses its
// description as the display name; the contact type becomes the role.
func extractContacts(contacts []models.AdApplicationContact) []models.TransformedContact {
	out := make([]models.TransformedContact, 0, len(contacts))
	for _, c := range contacts {
		name := nonEmpty(c.Name)
		if name == nil {
			name = nonEmpty(c.Description)
		}
		out = append(out, models.TransformedContact{
			Name:        name,
			Role:        nonEmpty(c.ContactType),
			Email:       nonEmpty(c.Email),
			Phone:       nonEmpty(c.Telephone),
			Description: nonEmpty(c.Description),
		})
	}
	return out
}

func applyApplicationDetails(job *models.TransformedJob, details *models.AdApplicationDetails) {
	if details == nil {
		return
	}
	job.ApplicationInstructions = nonEmpty(details.Information)
	job.ApplicationURL = nonEmpty(details.URL)
	job.ApplicationEmail = nonEmpty(details.Email)
	job.ApplicationReference = nonEmpty(details.Reference)
	job.ApplicationViaAf = boolValue(details.ViaAf)
	job.ApplicationOther = nonEmpty(details.Other)
}

// applyWorkplace maps the workplace address. Coordinates are accepted only
// as an exact [lon, lat] pair with both elements present.
func (t *Transformer) applyWorkplace(job *models.TransformedJob, ad *models.JobAd) {
	job.Workplace = nonEmpty(workplaceName(ad.Employer))

	addr := ad.WorkplaceAddress
	if addr == nil {
		return
	}

	job.StreetAddress = nonEmpty(addr.StreetAddress)
	job.City = nonEmpty(addr.City)
	job.Municipality = nonEmpty(addr.Municipality)
	job.MunicipalityCode = nonEmpty(addr.MunicipalityCode)
	job.Region = nonEmpty(addr.Region)
	job.RegionCode = nonEmpty(addr.RegionCode)
	job.PostalCode = nonEmpty(addr.Postcode)
	job.CountryCode = nonEmpty(addr.CountryCode)

	if country := stringValue(addr.Country); country != "" {
		job.Country = country
	}

	if len(addr.Coordinates) == 2 && addr.Coordinates[0] != nil && addr.Coordinates[1] != nil {
		job.Coordinates = &models.Coordinates{
			Lon: *addr.Coordinates[0],
			Lat: *addr.Coordinates[1],
		}
	}
}

func workplaceName(employer *models.AdEmployer) *string {
	if employer == nil {
		return nil
	}
	return employer.Workplace
}

// timeLayouts covers the timestamp shapes the feed emits.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses a feed timestamp in any of the shapes the upstream
// emits: RFC3339, zoneless date-time, or date only.
func ParseTime(value string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseTimePtr(value *string) *time.Time {
	if value == nil {
		return nil
	}
	if t, ok := ParseTime(*value); ok {
		return &t
	}
	return nil
}

func parseTimeOr(value *string, fallback time.Time) time.Time {
	if t := parseTimePtr(value); t != nil {
		return *t
	}
	return fallback
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func boolValue(b *bool) bool {
	return b != nil && *b
}

func taxonomyLabel(item *models.TaxonomyItem) *string {
	if item == nil {
		return nil
	}
	return nonEmpty(item.Label)
}

package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platsbanken-sync/pkg/models"
)

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool { return &b }
func floatptr(f float64) *float64 { return &f }

func validAd() *models.JobAd {
	return &models.JobAd{
		ID:       "12345",
		Headline: strptr("Systemutvecklare"),
		Employer: &models.AdEmployer{
			Name:               strptr("Acme AB"),
			OrganizationNumber: strptr("556677-8899"),
		},
		Description: &models.AdDescription{
			Text: strptr("Vi söker en utvecklare."),
		},
		PublicationDate: strptr("2024-03-01T10:00:00"),
	}
}

func TestRejectsAdWithoutTitle(t *testing.T) {
	tr := NewTransformer("Sverige")

	for _, headline := range []*string{nil, strptr(""), strptr("   ")} {
		ad := validAd()
		ad.Headline = headline

		_, err := tr.Transform(ad)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Contains(t, err.Error(), "no title")
	}
}

func TestRejectsAdWithoutEmployer(t *testing.T) {
	tr := NewTransformer("Sverige")

	ad := validAd()
	ad.Employer = nil

	_, err := tr.Transform(ad)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "missing employer")
}

func TestNamelessEmployerFallsBackToPlaceholder(t *testing.T) {
	tr := NewTransformer("Sverige")

	ad := validAd()
	ad.Employer = &models.AdEmployer{}

	job, err := tr.Transform(ad)
	require.NoError(t, err)
	assert.Equal(t, "Okänd arbetsgivare", job.Company.Name)

	ad.Employer = &models.AdEmployer{Workplace: strptr("Kontoret i Luleå")}
	job, err = tr.Transform(ad)
	require.NoError(t, err)
	assert.Equal(t, "Kontoret i Luleå", job.Company.Name)
}

func TestSourceURLFallback(t *testing.T) {
	tr := NewTransformer("Sverige")

	ad := validAd()
	ad.WebpageURL = "https://example.com/jobs/12345"
	job, err := tr.Transform(ad)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/jobs/12345", job.SourceURL)

	// The feed sometimes emits an object instead of a string here.
	ad.WebpageURL = map[string]any{"url": "ignored"}
	job, err = tr.Transform(ad)
	require.NoError(t, err)
	assert.Equal(t, "https://arbetsformedlingen.se/platsbanken/annonser/12345", job.SourceURL)

	ad.WebpageURL = nil
	job, err = tr.Transform(ad)
	require.NoError(t, err)
	assert.Equal(t, "https://arbetsformedlingen.se/platsbanken/annonser/12345", job.SourceURL)
}

func TestMustHaveRequirementsPrecedeNiceToHave(t *testing.T) {
	tr := NewTransformer("Sverige")

	ad := validAd()
	ad.MustHave = &models.AdRequirements{
		Skills:    []models.WeightedTaxonomyItem{{Label: strptr("Go"), Weight: floatptr(10)}},
		Languages: []models.WeightedTaxonomyItem{{Label: strptr("Svenska")}},
	}
	ad.NiceToHave = &models.AdRequirements{
		Skills:         []models.WeightedTaxonomyItem{{Label: strptr("Kubernetes")}},
		EducationLevel: []models.WeightedTaxonomyItem{{Label: strptr("Högskola")}},
	}

	job, err := tr.Transform(ad)
	require.NoError(t, err)
	require.Len(t, job.Requirements, 4)

	assert.Equal(t, models.RequirementMustHave, job.Requirements[0].RequirementType)
	assert.Equal(t, "skill", job.Requirements[0].Category)
	assert.Equal(t, "Go", job.Requirements[0].Label)
	assert.Equal(t, models.RequirementMustHave, job.Requirements[1].RequirementType)
	assert.Equal(t, "language", job.Requirements[1].Category)
	assert.Equal(t, models.RequirementNiceToHave, job.Requirements[2].RequirementType)
	assert.Equal(t, "Kubernetes", job.Requirements[2].Label)
	assert.Equal(t, "education_level", job.Requirements[3].Category)
}

func TestUnlabeledRequirementsAreSkipped(t *testing.T) {
	tr := NewTransformer("Sverige")

	ad := validAd()
	ad.MustHave = &models.AdRequirements{
		Skills: []models.WeightedTaxonomyItem{{Weight: floatptr(5)}, {Label: strptr("")}},
	}

	job, err := tr.Transform(ad)
	require.NoError(t, err)
	assert.Empty(t, job.Requirements)
}

func TestRemoteHeuristic(t *testing.T) {
	tr := NewTransformer("Sverige")

	cases := []struct {
		text   string
		remote bool
	}{
		{"Arbete på distans möjligt.", true},
		{"Fully REMOTE position.", true},
		{"Hemarbete erbjuds vid behov.", true},
		{"Arbete på plats i Stockholm.", false},
	}

	for _, tc := range cases {
		ad := validAd()
		ad.Description = &models.AdDescription{Text: strptr(tc.text)}

		job, err := tr.Transform(ad)
		require.NoError(t, err)
		assert.Equal(t, tc.remote, job.Remote, tc.text)
	}
}

func TestFormattedDescriptionIsPreferredAndStripped(t *testing.T) {
	tr := NewTransformer("Sverige")

	ad := validAd()
	ad.Description = &models.AdDescription{
		Text:          strptr("plain fallback"),
		TextFormatted: strptr("<p>Jobba på <b>distans</b> hos oss</p>"),
	}

	job, err := tr.Transform(ad)
	require.NoError(t, err)
	assert.Equal(t, "Jobba på distans hos oss", job.Description)
	assert.True(t, job.Remote)
}

func TestCoordinateParsing(t *testing.T) {
	tr := NewTransformer("Sverige")

	lon, lat := 18.0686, 59.3293

	ad := validAd()
	ad.WorkplaceAddress = &models.AdWorkplaceAddress{
		Coordinates: []*float64{&lon, &lat},
	}
	job, err := tr.Transform(ad)
	require.NoError(t, err)
	require.NotNil(t, job.Coordinates)
	assert.Equal(t, lon, job.Coordinates.Lon)
	assert.Equal(t, lat, job.Coordinates.Lat)

	for _, coords := range [][]*float64{
		nil,
		{&lon},
		{&lon, nil},
		{nil, &lat},
		{&lon, &lat, &lat},
	} {
		ad.WorkplaceAddress = &models.AdWorkplaceAddress{Coordinates: coords}
		job, err := tr.Transform(ad)
		require.NoError(t, err)
		assert.Nil(t, job.Coordinates)
	}
}

func TestContactMapping(t *testing.T) {
	tr := NewTransformer("Sverige")

	ad := validAd()
	ad.ApplicationContacts = []models.AdApplicationContact{
		{
			Name:        strptr("Anna Svensson"),
			ContactType: strptr("Rekryterare"),
			Telephone:   strptr("+46 70 123 45 67"),
			Email:       strptr("anna@example.com"),
		},
		{
			Description: strptr("Facklig företrädare"),
		},
	}

	job, err := tr.Transform(ad)
	require.NoError(t, err)
	require.Len(t, job.Contacts, 2)

	first := job.Contacts[0]
	assert.Equal(t, "Anna Svensson", *first.Name)
	assert.Equal(t, "Rekryterare", *first.Role)
	assert.Equal(t, "+46 70 123 45 67", *first.Phone)

	second := job.Contacts[1]
	require.NotNil(t, second.Name)
	assert.Equal(t, "Facklig företrädare", *second.Name)
	assert.Nil(t, second.Role)
}

func TestDefaults(t *testing.T) {
	tr := NewTransformer("Sverige")

	ad := validAd()
	ad.PublicationDate = nil
	ad.Description = nil

	before := time.Now()
	job, err := tr.Transform(ad)
	require.NoError(t, err)

	assert.Equal(t, "Sverige", job.Country)
	assert.False(t, job.Removed)
	assert.False(t, job.Remote)
	assert.False(t, job.ExperienceRequired)
	assert.False(t, job.DrivingLicenseRequired)
	assert.False(t, job.AccessToOwnCar)
	assert.False(t, job.ApplicationViaAf)
	assert.Empty(t, job.Description)
	assert.False(t, job.PublishedAt.Before(before))
}

func TestCountryFromAddressOverridesDefault(t *testing.T) {
	tr := NewTransformer("Sverige")

	ad := validAd()
	ad.WorkplaceAddress = &models.AdWorkplaceAddress{
		Country: strptr("Norge"),
		City:    strptr("Oslo"),
	}

	job, err := tr.Transform(ad)
	require.NoError(t, err)
	assert.Equal(t, "Norge", job.Country)
}

func TestRemovedAdCarriesRemovalTimestamp(t *testing.T) {
	tr := NewTransformer("Sverige")

	ad := validAd()
	ad.Removed = boolptr(true)
	ad.RemovedDate = strptr("2024-03-02T08:00:00")

	job, err := tr.Transform(ad)
	require.NoError(t, err)
	assert.True(t, job.Removed)
	require.NotNil(t, job.RemovedAt)
	assert.Equal(t, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), job.RemovedAt.UTC())
}

func TestExpiresAtComesFromApplicationDeadline(t *testing.T) {
	tr := NewTransformer("Sverige")

	ad := validAd()
	ad.ApplicationDeadline = strptr("2024-04-30T23:59:59")
	ad.LastPublicationDate = strptr("2024-05-15T00:00:00")

	job, err := tr.Transform(ad)
	require.NoError(t, err)
	require.NotNil(t, job.ExpiresAt)
	assert.Equal(t, time.Date(2024, 4, 30, 23, 59, 59, 0, time.UTC), job.ExpiresAt.UTC())
	require.NotNil(t, job.LastPublicationDate)
	assert.Equal(t, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), job.LastPublicationDate.UTC())
}

func TestExpiresAtNilWithoutDeadline(t *testing.T) {
	tr := NewTransformer("Sverige")

	ad := validAd()
	ad.LastPublicationDate = strptr("2024-05-15T00:00:00")

	job, err := tr.Transform(ad)
	require.NoError(t, err)
	assert.Nil(t, job.ExpiresAt)
	require.NotNil(t, job.LastPublicationDate)
}

func TestParseTimeAcceptsFeedShapes(t *testing.T) {
	cases := map[string]time.Time{
		"2024-03-02T08:00:00Z": time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC),
		"2024-03-02T08:00:00":  time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC),
		"2024-01-01":           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := ParseTime(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got.UTC(), in)
	}

	_, ok := ParseTime("not-a-date")
	assert.False(t, ok)
}

func TestLocationFormatted(t *testing.T) {
	tr := NewTransformer("Sverige")

	ad := validAd()
	ad.WorkplaceAddress = &models.AdWorkplaceAddress{
		City:         strptr("Umeå"),
		Municipality: strptr("Umeå kommun"),
		Region:       strptr("Västerbottens län"),
	}

	job, err := tr.Transform(ad)
	require.NoError(t, err)
	assert.Equal(t, "Umeå, Umeå kommun, Västerbottens län", job.LocationFormatted())

	ad.WorkplaceAddress = &models.AdWorkplaceAddress{City: strptr("Umeå")}
	job, err = tr.Transform(ad)
	require.NoError(t, err)
	assert.Equal(t, "Umeå", job.LocationFormatted())
}

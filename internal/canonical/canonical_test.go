package canonical

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_NestedDialect(t *testing.T) {
	c := New(Options{})

	rec := c.Record(RawRecord{
		"companyId":          "123456",
		"organisationNumber": "556000-1234",
		"name":               "Acme AB",
		"displayName":        "Acme",
		"visitorAddress": map[string]any{
			"addressLine": "Storgatan 1",
			"zipCode":     "11122",
			"postPlace":   "Stockholm",
		},
		"postalAddress": map[string]any{
			"addressLine": "Box 99",
			"zipCode":     "10005",
			"postPlace":   "Stockholm",
		},
		"contact": map[string]any{
			"email":           "info@acme.se",
			"telephoneNumber": "081234567",
			"homePage":        "https://acme.se",
		},
		"location": map[string]any{
			"county":       "Stockholm",
			"municipality": "Stockholm",
		},
		"financials": map[string]any{
			"revenue":  float64(1500),
			"profit":   float64(-30),
			"currency": "NOK",
		},
		"info": map[string]any{
			"foundationYear":    "1998",
			"numberOfEmployees": "42",
			"status": map[string]any{
				"status":      "ACTIVE",
				"description": "Aktivt",
				"statusDate":  "2020-01-01",
			},
		},
		"marketingProtection": true,
		"stakeholders":        []any{map[string]any{"name": "Jane Doe"}},
	})

	assert.Equal(t, "123456", rec.CompanyID)
	assert.Equal(t, "556000-1234", rec.OrganisationNumber)
	assert.Equal(t, "Acme AB", rec.Name)
	assert.Equal(t, "Acme", rec.DisplayName)
	assert.Equal(t, "Storgatan 1", rec.VisitorAddress.AddressLine)
	assert.Equal(t, "Box 99", rec.PostalAddress.AddressLine)
	assert.Equal(t, "info@acme.se", rec.Contact.Email)
	assert.Equal(t, "081234567", rec.Contact.TelephoneNumber)
	assert.Equal(t, "Stockholm", rec.Location.County)
	require.NotNil(t, rec.Financials.Revenue)
	assert.InDelta(t, 1500, *rec.Financials.Revenue, 0.001)
	require.NotNil(t, rec.Financials.Profit)
	assert.InDelta(t, -30, *rec.Financials.Profit, 0.001)
	assert.Equal(t, "NOK", rec.Financials.Currency)
	assert.Equal(t, "ACTIVE", rec.Info.Status.Status)
	assert.Equal(t, "Aktivt", rec.Info.Status.Description)
	assert.True(t, rec.MarketingProtection)
	assert.Len(t, rec.Stakeholders, 1)
}

func TestRecord_FlattenedDialect(t *testing.T) {
	c := New(Options{CSV: true})

	rec := c.Record(RawRecord{
		"companyId":                  "987",
		"name":                       "Beta HB",
		"visitorAddress_addressLine": "Lillgatan 2",
		"postal_zipcode":             "22233",
		"contact_email":              "hello@beta.se",
		"financials_revenue":         "2500,75",
		"info_status":                "INACTIVE",
		"marketing_protection":       "true",
	})

	assert.Equal(t, "987", rec.CompanyID)
	assert.Equal(t, "Lillgatan 2", rec.VisitorAddress.AddressLine)
	assert.Equal(t, "22233", rec.PostalAddress.ZipCode)
	assert.Equal(t, "hello@beta.se", rec.Contact.Email)
	require.NotNil(t, rec.Financials.Revenue)
	assert.InDelta(t, 2500.75, *rec.Financials.Revenue, 0.001)
	assert.Equal(t, "INACTIVE", rec.Info.Status.Status)
	assert.True(t, rec.MarketingProtection)
}

func TestRecord_CurrencyDefaultByDialect(t *testing.T) {
	c := New(Options{})

	// Flattened records without a currency default to SEK.
	flat := c.Record(RawRecord{"companyId": "1", "name": "Flat"})
	assert.Equal(t, "SEK", flat.Financials.Currency)

	// Nested records keep the empty currency.
	nested := c.Record(RawRecord{
		"companyId":      "2",
		"name":           "Nested",
		"visitorAddress": map[string]any{"addressLine": "A"},
		"postalAddress":  map[string]any{"addressLine": "B"},
	})
	assert.Equal(t, "", nested.Financials.Currency)
}

func TestRecord_GeneratedCompanyID(t *testing.T) {
	c := New(Options{})

	rec := c.Record(RawRecord{"name": "No ID AB"})
	require.NotEmpty(t, rec.CompanyID)
	assert.Contains(t, rec.CompanyID, "-")

	other := c.Record(RawRecord{"name": "No ID AB"})
	assert.NotEqual(t, rec.CompanyID, other.CompanyID)
}

func TestRecord_DisplayNameFallsBackToName(t *testing.T) {
	c := New(Options{})

	rec := c.Record(RawRecord{"companyId": "1", "name": "Gamma AB"})
	assert.Equal(t, "Gamma AB", rec.DisplayName)
}

func TestRecord_StatusDefaultsToActive(t *testing.T) {
	c := New(Options{})

	rec := c.Record(RawRecord{"companyId": "1"})
	assert.Equal(t, "ACTIVE", rec.Info.Status.Status)
}

func TestRecord_UnparsableNumbersAreNil(t *testing.T) {
	c := New(Options{})

	rec := c.Record(RawRecord{
		"companyId": "1",
		"financials": map[string]any{
			"revenue": "not a number",
			"profit":  nil,
		},
	})
	assert.Nil(t, rec.Financials.Revenue)
	assert.Nil(t, rec.Financials.Profit)
}

func TestRecord_DecimalComma(t *testing.T) {
	c := New(Options{CSV: true})

	rec := c.Record(RawRecord{
		"companyId":          "1",
		"financials_revenue": "1,5",
	})
	require.NotNil(t, rec.Financials.Revenue)
	assert.InDelta(t, 1.5, *rec.Financials.Revenue, 0.0001)
}

func TestRecord_PhoneSpreadsheetArtifact(t *testing.T) {
	csv := New(Options{CSV: true})
	rec := csv.Record(RawRecord{
		"companyId":               "1",
		"contact_telephoneNumber": "081234567.0",
	})
	assert.Equal(t, "081234567", rec.Contact.TelephoneNumber)

	// Outside CSV input the value is preserved.
	js := New(Options{})
	rec = js.Record(RawRecord{
		"companyId": "1",
		"contact":   map[string]any{"telephoneNumber": "081234567.0"},
	})
	assert.Equal(t, "081234567.0", rec.Contact.TelephoneNumber)
}

func TestRecord_NumericStringCoercion(t *testing.T) {
	c := New(Options{})

	rec := c.Record(RawRecord{
		"companyId": float64(123456),
		"info":      map[string]any{"numberOfEmployees": float64(42)},
	})
	assert.Equal(t, "123456", rec.CompanyID)
	assert.Equal(t, "42", rec.Info.NumberOfEmployees)
}

func TestRecord_StakeholdersDefaultEmpty(t *testing.T) {
	c := New(Options{})

	rec := c.Record(RawRecord{"companyId": "1"})
	assert.NotNil(t, rec.Stakeholders)
	assert.Empty(t, rec.Stakeholders)
}

func TestRecord_AliasOverride(t *testing.T) {
	aliases := DefaultAliases()
	aliases["contact.email"] = []string{"epost"}
	c := New(Options{Aliases: aliases})

	rec := c.Record(RawRecord{"companyId": "1", "epost": "x@y.se"})
	assert.Equal(t, "x@y.se", rec.Contact.Email)
}

func TestGenerateCompanyID(t *testing.T) {
	id := GenerateCompanyID()
	parts := strings.SplitN(id, "-", 2)
	require.Len(t, parts, 2)
	assert.NotEmpty(t, parts[0])
	assert.Len(t, parts[1], 8)
}

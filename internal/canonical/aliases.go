package canonical

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// AliasTable maps canonical field paths (e.g. "visitorAddress.addressLine")
// to the flattened-dialect keys tried for them, in priority order.
type AliasTable map[string][]string

// DefaultAliases returns the built-in flattened-key table. Registry exports
// have used both camelCase underscore-joined headers and older snake_case
// ones; both generations are listed, newest first.
func DefaultAliases() AliasTable {
	return AliasTable{
		"companyId":          {"companyId", "company_id"},
		"organisationNumber": {"organisationNumber", "organisation_number", "orgnr"},
		"displayName":        {"displayName", "display_name"},
		"businessUnitId":     {"businessUnitId", "business_unit_id"},

		"visitorAddress.addressLine": {"visitorAddress_addressLine", "visitor_address"},
		"visitorAddress.zipCode":     {"visitorAddress_zipCode", "visitor_zipcode"},
		"visitorAddress.postPlace":   {"visitorAddress_postPlace", "visitor_postplace"},
		"postalAddress.addressLine":  {"postalAddress_addressLine", "postal_address"},
		"postalAddress.zipCode":      {"postalAddress_zipCode", "postal_zipcode"},
		"postalAddress.postPlace":    {"postalAddress_postPlace", "postal_postplace"},

		"contact.email":           {"contact_email", "email"},
		"contact.telephoneNumber": {"contact_telephoneNumber", "telephoneNumber", "telephone"},
		"contact.mobilePhone":     {"contact_mobilePhone", "mobilePhone", "mobile"},
		"contact.faxNumber":       {"contact_faxNumber", "faxNumber", "fax"},
		"contact.homePage":        {"contact_homePage", "homePage", "homepage"},

		"location.countryPart":  {"location_countryPart", "country_part"},
		"location.county":       {"location_county", "county"},
		"location.municipality": {"location_municipality", "municipality"},
		"location.coordinates":  {"location_coordinates", "coordinates"},

		"financials.revenue":  {"financials_revenue", "revenue"},
		"financials.profit":   {"financials_profit", "profit"},
		"financials.currency": {"financials_currency", "currency"},
		"financials.companyAccountsLastUpdatedDate": {
			"financials_companyAccountsLastUpdatedDate",
			"company_accounts_last_updated_date",
		},

		"info.foundationYear":    {"info_foundationYear", "foundation_year"},
		"info.foundationDate":    {"info_foundationDate", "foundation_date"},
		"info.numberOfEmployees": {"info_numberOfEmployees", "number_of_employees", "employees"},
		"info.status":            {"info_status", "status"},
		"info.naceCategories":    {"info_naceCategories", "nace_categories"},
		"info.proffIndustries":   {"info_proffIndustries", "proff_industries"},

		"roles.companyRoles": {"companyRoles", "company_roles"},
		"roles.personRoles":  {"personRoles", "person_roles"},

		"marketingProtection": {"marketingProtection", "marketing_protection"},
		"mainOffice":          {"mainOffice", "main_office"},
		"secretData":          {"secretData", "secret_data"},
	}
}

// LoadAliases reads field-alias overrides from a YAML file and merges them
// over the defaults. Fields not mentioned keep their built-in aliases.
func LoadAliases(path string) (AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "canonical: read alias file %s", path)
	}

	var wrapper struct {
		Aliases AliasTable `yaml:"aliases"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrapf(err, "canonical: parse alias file %s", path)
	}

	table := DefaultAliases()
	for field, keys := range wrapper.Aliases {
		table[field] = keys
	}
	return table, nil
}

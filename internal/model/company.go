// Package model defines the canonical company record and the import job
// records persisted by the pipeline.
package model

import "time"

// Address is a visitor or postal address on a canonical record.
type Address struct {
	AddressLine string `json:"addressLine"`
	ZipCode     string `json:"zipCode"`
	PostPlace   string `json:"postPlace"`
}

// Contact holds the contact channels of a company.
type Contact struct {
	Email           string `json:"email"`
	TelephoneNumber string `json:"telephoneNumber"`
	MobilePhone     string `json:"mobilePhone"`
	FaxNumber       string `json:"faxNumber"`
	HomePage        string `json:"homePage"`
}

// GeoLocation describes where a company operates.
type GeoLocation struct {
	CountryPart  string `json:"countryPart"`
	County       string `json:"county"`
	Municipality string `json:"municipality"`
	Coordinates  string `json:"coordinates"`
}

// Financials holds reported figures. Revenue and Profit are nil when the
// source value was missing or unparsable; they are never coerced to zero.
type Financials struct {
	Revenue                        *float64 `json:"revenue,omitempty"`
	Profit                         *float64 `json:"profit,omitempty"`
	Currency                       string   `json:"currency"`
	CompanyAccountsLastUpdatedDate string   `json:"companyAccountsLastUpdatedDate"`
}

// RegistrationStatus is the registry status of a company.
type RegistrationStatus struct {
	Status      string `json:"status"`
	Description string `json:"description"`
	StatusDate  string `json:"statusDate"`
}

// CompanyInfo groups registry metadata about a company.
type CompanyInfo struct {
	FoundationYear    string             `json:"foundationYear"`
	FoundationDate    string             `json:"foundationDate"`
	NumberOfEmployees string             `json:"numberOfEmployees"`
	Status            RegistrationStatus `json:"status"`
	NaceCategories    any                `json:"naceCategories"`
	ProffIndustries   any                `json:"proffIndustries"`
}

// Roles holds board and ownership role listings, carried through as-is.
type Roles struct {
	CompanyRoles any `json:"companyRoles"`
	PersonRoles  any `json:"personRoles"`
}

// CanonicalCompanyRecord is the normalized shape every imported record is
// converted into, regardless of the input dialect. CompanyID is the natural
// key: re-importing the same id overwrites the stored record.
type CanonicalCompanyRecord struct {
	CompanyID          string      `json:"companyId"`
	OrganisationNumber string      `json:"organisationNumber"`
	Name               string      `json:"name"`
	DisplayName        string      `json:"displayName"`
	BusinessUnitID     string      `json:"businessUnitId"`
	VisitorAddress     Address     `json:"visitorAddress"`
	PostalAddress      Address     `json:"postalAddress"`
	Contact            Contact     `json:"contact"`
	Location           GeoLocation `json:"location"`
	Financials         Financials  `json:"financials"`
	Info               CompanyInfo `json:"info"`
	Roles              Roles       `json:"roles"`

	MarketingProtection bool  `json:"marketingProtection"`
	MainOffice          any   `json:"mainOffice"`
	SecretData          any   `json:"secretData"`
	Stakeholders        []any `json:"stakeholders"`

	// Server-assigned at commit time; never read from input.
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
	ImportedAt *time.Time `json:"importedAt,omitempty"`
}

// Package canonical detects the format of uploaded company files and maps
// raw records, in either the nested or the flattened input dialect, into
// the canonical record shape.
package canonical

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/proffdata/import-cli/internal/model"
)

// RawRecord is one record as parsed from the input file, before
// canonicalization.
type RawRecord map[string]any

// Options configures a Canonicalizer.
type Options struct {
	// CSV enables spreadsheet-artifact cleanup (trailing ".0" on phone
	// numbers) for values that came from a CSV export.
	CSV bool

	// Aliases overrides the flattened-dialect key table. Nil uses
	// DefaultAliases.
	Aliases AliasTable
}

// Canonicalizer converts raw records into canonical company records.
// Conversion of a single record never fails: missing or malformed fields
// degrade into defaults.
type Canonicalizer struct {
	aliases AliasTable
	csv     bool
}

// New returns a Canonicalizer for the given options.
func New(opts Options) *Canonicalizer {
	aliases := opts.Aliases
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Canonicalizer{aliases: aliases, csv: opts.CSV}
}

// Record maps one raw record into the canonical shape.
func (c *Canonicalizer) Record(raw RawRecord) model.CanonicalCompanyRecord {
	rec := model.CanonicalCompanyRecord{
		CompanyID:          c.str(raw, "companyId"),
		OrganisationNumber: c.str(raw, "organisationNumber"),
		Name:               c.str(raw, "name"),
		DisplayName:        c.str(raw, "displayName"),
		BusinessUnitID:     c.str(raw, "businessUnitId"),
		VisitorAddress: model.Address{
			AddressLine: c.str(raw, "visitorAddress.addressLine"),
			ZipCode:     c.str(raw, "visitorAddress.zipCode"),
			PostPlace:   c.str(raw, "visitorAddress.postPlace"),
		},
		PostalAddress: model.Address{
			AddressLine: c.str(raw, "postalAddress.addressLine"),
			ZipCode:     c.str(raw, "postalAddress.zipCode"),
			PostPlace:   c.str(raw, "postalAddress.postPlace"),
		},
		Contact: model.Contact{
			Email:           c.str(raw, "contact.email"),
			TelephoneNumber: c.phone(raw, "contact.telephoneNumber"),
			MobilePhone:     c.phone(raw, "contact.mobilePhone"),
			FaxNumber:       c.phone(raw, "contact.faxNumber"),
			HomePage:        c.str(raw, "contact.homePage"),
		},
		Location: model.GeoLocation{
			CountryPart:  c.str(raw, "location.countryPart"),
			County:       c.str(raw, "location.county"),
			Municipality: c.str(raw, "location.municipality"),
			Coordinates:  c.str(raw, "location.coordinates"),
		},
		Financials: model.Financials{
			Revenue:                        c.num(raw, "financials.revenue"),
			Profit:                         c.num(raw, "financials.profit"),
			Currency:                       c.str(raw, "financials.currency"),
			CompanyAccountsLastUpdatedDate: c.str(raw, "financials.companyAccountsLastUpdatedDate"),
		},
		Info: model.CompanyInfo{
			FoundationYear:    c.str(raw, "info.foundationYear"),
			FoundationDate:    c.str(raw, "info.foundationDate"),
			NumberOfEmployees: c.str(raw, "info.numberOfEmployees"),
			Status:            c.status(raw),
			NaceCategories:    c.raw(raw, "info.naceCategories"),
			ProffIndustries:   c.raw(raw, "info.proffIndustries"),
		},
		Roles: model.Roles{
			CompanyRoles: c.raw(raw, "roles.companyRoles"),
			PersonRoles:  c.raw(raw, "roles.personRoles"),
		},
		MarketingProtection: c.boolean(raw, "marketingProtection"),
		MainOffice:          c.raw(raw, "mainOffice"),
		SecretData:          c.raw(raw, "secretData"),
		Stakeholders:        c.list(raw, "stakeholders"),
	}

	if rec.CompanyID == "" {
		rec.CompanyID = GenerateCompanyID()
	}
	if rec.DisplayName == "" {
		rec.DisplayName = rec.Name
	}
	// The flattened dialect defaults to SEK; the nested dialect leaves
	// currency empty.
	if rec.Financials.Currency == "" && !isNested(raw) {
		rec.Financials.Currency = "SEK"
	}
	if rec.Info.Status.Status == "" {
		rec.Info.Status.Status = "ACTIVE"
	}

	return rec
}

// isNested reports whether the record arrived in the nested dialect, i.e.
// both address blocks are present as sub-objects.
func isNested(raw RawRecord) bool {
	_, v := raw["visitorAddress"].(map[string]any)
	_, p := raw["postalAddress"].(map[string]any)
	return v && p
}

// lookup resolves a canonical field path against a raw record. The nested
// path is tried first, then each flattened alias in priority order.
func (c *Canonicalizer) lookup(raw RawRecord, field string) (any, bool) {
	outer, inner, dotted := strings.Cut(field, ".")
	if dotted {
		if sub, ok := raw[outer].(map[string]any); ok {
			if v, ok := sub[inner]; ok {
				return v, true
			}
		}
	} else if v, ok := raw[field]; ok {
		return v, true
	}
	for _, alias := range c.aliases[field] {
		if v, ok := raw[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

func (c *Canonicalizer) raw(raw RawRecord, field string) any {
	v, _ := c.lookup(raw, field)
	return v
}

func (c *Canonicalizer) str(raw RawRecord, field string) string {
	v, ok := c.lookup(raw, field)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// phone is str plus removal of the trailing ".0" spreadsheet-export
// artifact on CSV input.
func (c *Canonicalizer) phone(raw RawRecord, field string) string {
	s := c.str(raw, field)
	if c.csv {
		s = strings.TrimSuffix(s, ".0")
	}
	return s
}

// num parses a numeric field. Decimal commas are accepted; anything that
// does not parse to a finite number yields nil, never zero or NaN.
func (c *Canonicalizer) num(raw RawRecord, field string) *float64 {
	v, ok := c.lookup(raw, field)
	if !ok || v == nil {
		return nil
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(n, ",", "."), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func (c *Canonicalizer) boolean(raw RawRecord, field string) bool {
	v, ok := c.lookup(raw, field)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	default:
		return false
	}
}

func (c *Canonicalizer) list(raw RawRecord, field string) []any {
	if v, ok := c.lookup(raw, field); ok {
		if l, ok := v.([]any); ok {
			return l
		}
	}
	return []any{}
}

func (c *Canonicalizer) status(raw RawRecord) model.RegistrationStatus {
	if v, ok := c.lookup(raw, "info.status"); ok {
		if sub, ok := v.(map[string]any); ok {
			return model.RegistrationStatus{
				Status:      stringOr(sub["status"]),
				Description: stringOr(sub["description"]),
				StatusDate:  stringOr(sub["statusDate"]),
			}
		}
		// Flattened exports carry the status code alone.
		if s, ok := v.(string); ok {
			return model.RegistrationStatus{Status: s}
		}
	}
	return model.RegistrationStatus{}
}

func stringOr(v any) string {
	s, _ := v.(string)
	return s
}

// GenerateCompanyID mints an id for records imported without one, so every
// record is loadable. Time-based plus a random suffix; re-importing such a
// record produces a new identity.
func GenerateCompanyID() string {
	return fmt.Sprintf("%d-%s", time.Now().UTC().UnixMilli(), uuid.NewString()[:8])
}

package types

import "time"

// CompanyClass classifies a company's relationship to the organization.
type CompanyClass string

// Company classifications.
const (
	CompanyInternal CompanyClass = "internal"
	CompanyCustomer CompanyClass = "customer"
	CompanyPartner  CompanyClass = "partner"
	CompanyVendor   CompanyClass = "vendor"
	CompanyInvestor CompanyClass = "investor"
)

// Company is an organizational record. The email domain, when present, is the
// join key from attendee addresses and is unique across the store. Companies
// are created on the first encounter of an unrecognized non-personal domain
// and never auto-deleted.
type Company struct {
	ID   string `json:"id"`   // Unique identifier (format: com:<uuid>)
	Name string `json:"name"` // Display name

	// Domain is the primary email domain, lowercase. Empty for companies
	// entered manually without a known domain.
	Domain string `json:"domain,omitempty"`

	Industry string       `json:"industry,omitempty"`
	Size     string       `json:"size,omitempty"` // Size category, free-form ("1-10", "enterprise", ...)
	Class    CompanyClass `json:"class,omitempty"`

	// Facts are free-text notable facts about the company.
	Facts []string `json:"facts,omitempty"`

	// ParentID references a parent company, when known.
	ParentID string `json:"parent_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

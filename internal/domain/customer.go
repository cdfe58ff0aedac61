package domain

import "time"

// CustomerType segments customers for SLA policy selection.
type CustomerType string

const (
	CustomerTypeWholesale       CustomerType = "wholesale"
	CustomerTypeEnterprise      CustomerType = "enterprise"
	CustomerTypeLocalEnterprise CustomerType = "local_enterprise"
	CustomerTypeInternal        CustomerType = "internal"
	CustomerTypeUnknown         CustomerType = "unknown"
)

// Customer is the aggregate owning imported tickets.
type Customer struct {
	ID           string
	Name         string
	CustomerType CustomerType
	SLATier      string
	Geography    string
	ContactInfo  map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

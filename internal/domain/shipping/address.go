package shipping

import "strings"

// Address is a shipment origin or destination
type Address struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
}

// IsZero returns true when no meaningful field is set
func (a Address) IsZero() bool {
	return a.Name == "" && a.Line1 == "" && a.City == ""
}

// Redacted strips street-level and contact detail for public responses
func (a Address) Redacted() Address {
	return Address{
		City:     a.City,
		Province: a.Province,
		Country:  a.Country,
	}
}

// CityEquals compares the city case-insensitively
func (a Address) CityEquals(city string) bool {
	return strings.EqualFold(strings.TrimSpace(a.City), strings.TrimSpace(city))
}

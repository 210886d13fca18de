package model

// Address is the delivery address picked for checkout
type Address struct {
	AddressID  FlexibleID `json:"addressId"`
	Label      string     `json:"label,omitempty"`
	Recipient  string     `json:"recipient,omitempty"`
	Line1      string     `json:"line1"`
	Line2      string     `json:"line2,omitempty"`
	City       string     `json:"city"`
	PostalCode string     `json:"postalCode,omitempty"`
	Phone      string     `json:"phone,omitempty"`
}

package checkout

import "strings"

type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
}

// Zorunlu alanlar sabit sırayla denetlenir; ilk eksik alan döner,
// böylece hata mesajı deterministiktir.
var requiredAddressFields = []struct {
	name  string
	value func(a ShippingAddress) string
}{
	{"first_name", func(a ShippingAddress) string { return a.FirstName }},
	{"last_name", func(a ShippingAddress) string { return a.LastName }},
	{"address1", func(a ShippingAddress) string { return a.Address1 }},
	{"city", func(a ShippingAddress) string { return a.City }},
	{"country", func(a ShippingAddress) string { return a.Country }},
	{"zip", func(a ShippingAddress) string { return a.Zip }},
}

func (a ShippingAddress) Validate() error {
	for _, f := range requiredAddressFields {
		if strings.TrimSpace(f.value(a)) == "" {
			return &MissingFieldError{Field: f.name}
		}
	}
	return nil
}

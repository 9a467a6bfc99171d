package models

import "strings"

type Country struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Countries is the catalog offered in the settings form and the recipe wizard.
var Countries = []Country{
	{Name: "Argentina", Code: "AR"},
	{Name: "Australia", Code: "AU"},
	{Name: "Brazil", Code: "BR"},
	{Name: "Cameroon", Code: "CM"},
	{Name: "Canada", Code: "CA"},
	{Name: "China", Code: "CN"},
	{Name: "Colombia", Code: "CO"},
	{Name: "Egypt", Code: "EG"},
	{Name: "Ethiopia", Code: "ET"},
	{Name: "France", Code: "FR"},
	{Name: "Germany", Code: "DE"},
	{Name: "Ghana", Code: "GH"},
	{Name: "Greece", Code: "GR"},
	{Name: "India", Code: "IN"},
	{Name: "Indonesia", Code: "ID"},
	{Name: "Iran", Code: "IR"},
	{Name: "Italy", Code: "IT"},
	{Name: "Jamaica", Code: "JM"},
	{Name: "Japan", Code: "JP"},
	{Name: "Kenya", Code: "KE"},
	{Name: "Lebanon", Code: "LB"},
	{Name: "Malaysia", Code: "MY"},
	{Name: "Mexico", Code: "MX"},
	{Name: "Morocco", Code: "MA"},
	{Name: "Nigeria", Code: "NG"},
	{Name: "Pakistan", Code: "PK"},
	{Name: "Peru", Code: "PE"},
	{Name: "Philippines", Code: "PH"},
	{Name: "Poland", Code: "PL"},
	{Name: "Portugal", Code: "PT"},
	{Name: "Senegal", Code: "SN"},
	{Name: "South Africa", Code: "ZA"},
	{Name: "South Korea", Code: "KR"},
	{Name: "Spain", Code: "ES"},
	{Name: "Thailand", Code: "TH"},
	{Name: "Turkey", Code: "TR"},
	{Name: "United Kingdom", Code: "GB"},
	{Name: "United States", Code: "US"},
	{Name: "Vietnam", Code: "VN"},
}

// LookupCountry matches a catalog entry by name or ISO code, ignoring case.
func LookupCountry(s string) (Country, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Countries {
		if strings.EqualFold(c.Name, s) || strings.EqualFold(c.Code, s) {
			return c, true
		}
	}
	return Country{}, false
}

package plate

import "sort"

// regionCodes maps two-letter Indian state and union territory codes to names.
var regionCodes = map[string]string{
	"AP": "Andhra Pradesh",
	"AR": "Arunachal Pradesh",
	"AS": "Assam",
	"BR": "Bihar",
	"CG": "Chhattisgarh",
	"GA": "Goa",
	"GJ": "Gujarat",
	"HR": "Haryana",
	"HP": "Himachal Pradesh",
	"JK": "Jammu and Kashmir",
	"JH": "Jharkhand",
	"KA": "Karnataka",
	"KL": "Kerala",
	"MP": "Madhya Pradesh",
	"MH": "Maharashtra",
	"MN": "Manipur",
	"ML": "Meghalaya",
	"MZ": "Mizoram",
	"NL": "Nagaland",
	"OD": "Odisha",
	"PB": "Punjab",
	"RJ": "Rajasthan",
	"SK": "Sikkim",
	"TN": "Tamil Nadu",
	"TS": "Telangana",
	"TR": "Tripura",
	"UP": "Uttar Pradesh",
	"UK": "Uttarakhand",
	"WB": "West Bengal",
	"AN": "Andaman and Nicobar Islands",
	"CH": "Chandigarh",
	"DN": "Dadra and Nagar Haveli and Daman & Diu",
	"DL": "Delhi",
	"LD": "Lakshadweep",
	"PY": "Puducherry",
}

// RegionName looks up the full name for a two-letter region code.
func RegionName(code string) (string, bool) {
	name, ok := regionCodes[code]
	return name, ok
}

// RegionCode is one entry of the region table.
type RegionCode struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// RegionCodes returns a copy of the region table sorted by code.
func RegionCodes() []RegionCode {
	out := make([]RegionCode, 0, len(regionCodes))
	for code, name := range regionCodes {
		out = append(out, RegionCode{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Code < out[j].Code
	})
	return out
}

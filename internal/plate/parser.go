package plate

// MinParseLength is the shortest corrected text that is split into fields.
const MinParseLength = 10

// Details holds the structured fields of a plate reading. All fields are nil
// when the text was too short to parse, and all are set otherwise.
type Details struct {
	// RegionName is the full region name, or the raw two-letter code when the
	// code is not in the region table.
	RegionName *string `json:"region_name"`

	// OfficeCode is the two-character registering office code.
	OfficeCode *string `json:"office_code"`

	// Series is the two-character series.
	Series *string `json:"series"`

	// SerialNumber is everything after the series (at least four characters).
	SerialNumber *string `json:"serial_number"`
}

// Parsed reports whether the fields were populated.
func (d Details) Parsed() bool {
	return d.RegionName != nil
}

// Parse splits corrected plate text into its positional fields:
// [0,2) region code, [2,4) office code, [4,6) series, [6,end) serial number.
//
// Text shorter than MinParseLength yields a zero Details. An unknown region code
// is returned verbatim as the region name.
func Parse(text string) Details {
	runes := []rune(text)
	if len(runes) < MinParseLength {
		return Details{}
	}

	code := string(runes[0:2])
	name, ok := RegionName(code)
	if !ok {
		name = code
	}

	office := string(runes[2:4])
	series := string(runes[4:6])
	serial := string(runes[6:])

	return Details{
		RegionName:   &name,
		OfficeCode:   &office,
		Series:       &series,
		SerialNumber: &serial,
	}
}

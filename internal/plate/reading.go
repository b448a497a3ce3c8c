package plate

// Reading is the result of interpreting one region's OCR output.
type Reading struct {
	// Text is the corrected plate text.
	Text string `json:"plate_text"`

	// Confidence is the OCR confidence of the selected candidate.
	Confidence float64 `json:"confidence"`

	Details
}

// Interpret runs selection, correction and parsing over a region's candidates.
// It returns false when no candidate qualifies.
func Interpret(candidates []RawCandidate) (Reading, bool) {
	sel, ok := SelectCandidate(candidates)
	if !ok {
		return Reading{}, false
	}

	text := Correct(sel.Text)
	return Reading{
		Text:       text,
		Confidence: sel.Confidence,
		Details:    Parse(text),
	}, true
}

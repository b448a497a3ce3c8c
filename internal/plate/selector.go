package plate

import (
	"image"
	"strings"
)

// MinCandidateLength is the shortest cleaned text accepted as a plate reading.
const MinCandidateLength = 4

// RawCandidate is one text line reported by an OCR engine for a plate region.
type RawCandidate struct {
	// Text is the recognized text exactly as the engine returned it.
	Text string `json:"text"`

	// Confidence is the engine's recognition confidence (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds locates the text inside the image handed to the engine.
	// Engines that do not report geometry leave it empty.
	Bounds image.Rectangle `json:"-"`
}

// Selection is the candidate chosen for a region after cleaning.
type Selection struct {
	// Text is uppercase A-Z/0-9 only, at least MinCandidateLength long.
	Text string `json:"text"`

	// Confidence is carried over from the winning RawCandidate.
	Confidence float64 `json:"confidence"`
}

// SelectCandidate picks the plate text from an OCR result list.
//
// Each candidate is uppercased and reduced to its A-Z/0-9 characters; results
// shorter than MinCandidateLength are discarded. The longest survivor wins and
// ties go to the candidate the engine reported first. Confidence plays no part
// in the choice.
//
// The boolean is false when nothing survives, which means the region holds no
// usable text. That is an expected outcome, not an error.
func SelectCandidate(candidates []RawCandidate) (Selection, bool) {
	var best Selection
	found := false

	for _, c := range candidates {
		text := Clean(c.Text)
		if len(text) < MinCandidateLength {
			continue
		}
		if !found || len(text) > len(best.Text) {
			best = Selection{Text: text, Confidence: c.Confidence}
			found = true
		}
	}

	return best, found
}

// Clean uppercases s and keeps only the ASCII letters and digits.
func Clean(s string) string {
	upper := strings.ToUpper(s)

	var b strings.Builder
	b.Grow(len(upper))
	for i := 0; i < len(upper); i++ {
		c := upper[i]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

package plate

// substitutions maps a misread character to the character it stands for.
type substitutions map[rune]rune

// baseSubstitutions applies at every position.
var baseSubstitutions = substitutions{
	'N': 'M',
	'Z': '2',
	'O': '0',
	'I': '1',
	'S': '5',
	'B': '8',
}

// leadingOverrides is consulted before baseSubstitutions inside the leading
// segment, where the layout expects letters. A literal '0' there is a misread
// 'D'. Only one rule ever fires per character: an 'O' becomes '0' and stays '0'.
var leadingOverrides = substitutions{
	'0': 'D',
}

// LeadingSegmentLength is the number of leading positions corrected with the
// letter-segment rules.
const LeadingSegmentLength = 4

// segment is a run of positions sharing one rule set. Lookups try overrides
// first and fall back to base.
type segment struct {
	end       int // exclusive; -1 means "to the end of the text"
	overrides substitutions
	base      substitutions
}

var segments = []segment{
	{end: LeadingSegmentLength, overrides: leadingOverrides, base: baseSubstitutions},
	{end: -1, base: baseSubstitutions},
}

func (s segment) covers(pos int) bool {
	return s.end < 0 || pos < s.end
}

func (s segment) apply(c rune) rune {
	if r, ok := s.overrides[c]; ok {
		return r
	}
	if r, ok := s.base[c]; ok {
		return r
	}
	return c
}

// Correct repairs position-dependent OCR confusions in a plate reading.
//
// Every position gets the base table (N->M, Z->2, O->0, I->1, S->5, B->8).
// Positions 0-3 additionally map '0' to 'D'. Characters with no rule pass
// through, and the output always has as many characters as the input.
//
// Correct does not change case; callers pass text already normalized by
// SelectCandidate or Clean.
func Correct(text string) string {
	runes := []rune(text)
	seg := 0
	for i, c := range runes {
		for !segments[seg].covers(i) {
			seg++
		}
		runes[i] = segments[seg].apply(c)
	}
	return string(runes)
}

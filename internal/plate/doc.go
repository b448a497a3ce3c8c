// Package plate implements the text side of license plate recognition.
//
// It turns raw OCR candidates for a single plate region into a structured
// plate identifier in three steps:
//
//  1. SelectCandidate: reduce each candidate to uppercase A-Z/0-9, drop anything
//     shorter than MinCandidateLength and keep the longest survivor.
//  2. Correct: undo common OCR confusions one character at a time, with a
//     stricter rule set for the leading letter segment.
//  3. Parse: split the corrected text into region code, office code, series and
//     serial number, resolving the region code against a fixed table.
//
// # Plate Layout
//
// The target layout is the Indian registration format:
//
//	MH 12 AB 1234
//	|  |  |  +-- serial number (positions 6..end, variable length)
//	|  |  +----- series        (positions 4-5)
//	|  +-------- office code   (positions 2-3)
//	+----------- region code   (positions 0-1)
//
// Text shorter than MinParseLength is still a valid reading but is not split
// into fields; every field of the resulting Details is nil.
//
// # Thread Safety
//
// All functions are pure. The region code table and substitution tables are
// initialized once and never mutated, so everything in this package is safe for
// concurrent use.
package plate

/*

This file contains the CUSIP instrument-code validator. Reserve attestations
often disclose the exact instruments held; a disclosed, checksum-valid CUSIP
is a transparency signal the reserve score rewards.

*/

package cusip

// A CUSIP is exactly 9 characters: 8 identifier characters from the CUSIP
// alphabet (digits plus uppercase letters, excluding I and O) followed by a
// single check digit computed with the "double-add-double" checksum. Plain
// 9-character alphanumeric strings that fail the checksum must be rejected.

const cusipLength = 9

// Scan extracts every distinct validated CUSIP from free text, in
// first-appearance order. Candidates are maximal alphanumeric runs bounded
// by whitespace, punctuation, or the string edges; only runs of exactly 9
// characters are considered.
func Scan(text string) []string {
	var found []string
	seen := make(map[string]bool)

	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		token := text[start:end]
		start = -1
		if len(token) != cusipLength || seen[token] {
			return
		}
		if Valid(token) {
			seen[token] = true
			found = append(found, token)
		}
	}

	for i := 0; i < len(text); i++ {
		if isAlphanumeric(text[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))

	return found
}

// Appears reports whether the text contains at least one valid CUSIP.
func Appears(text string) bool {
	return len(Scan(text)) > 0
}

// Valid reports whether token is a well-formed, checksum-valid CUSIP.
func Valid(token string) bool {
	if len(token) != cusipLength {
		return false
	}
	sum := 0
	for i := 0; i < cusipLength-1; i++ {
		v, ok := charValue(token[i])
		if !ok {
			return false
		}
		// Positions are 1-indexed; every even position is doubled before
		// taking the digit sum.
		if (i+1)%2 == 0 {
			v *= 2
		}
		sum += v/10 + v%10
	}
	check := token[cusipLength-1]
	if check < '0' || check > '9' {
		return false
	}
	return int(check-'0') == (10-sum%10)%10
}

// charValue maps an identifier character to its checksum value: digits keep
// their face value, letters map to 10-35. I and O are excluded from the
// alphabet to avoid confusion with 1 and 0.
func charValue(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= 'Z':
		if c == 'I' || c == 'O' {
			return 0, false
		}
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}

func isAlphanumeric(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// Package natural implements numeric-aware, case-insensitive key
// comparison so that, e.g., "item2" sorts before "item10". Equal-length
// keys compare lexicographically; differing-length runs of digits
// compare by magnitude.
package natural

import "unicode"

// Less reports whether a sorts before b under the store's natural/lex
// comparator.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater
// than b, using case-insensitive comparison with digit runs compared
// as numeric magnitudes.
func Compare(a, b string) int {
	ar, br := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ar) && j < len(br) {
		ca, cb := ar[i], br[j]
		if unicode.IsDigit(ca) && unicode.IsDigit(cb) {
			ni, da := scanNumber(ar, i)
			nj, db := scanNumber(br, j)
			if da != db {
				if da < db {
					return -1
				}
				return 1
			}
			i, j = ni, nj
			continue
		}
		la, lb := unicode.ToLower(ca), unicode.ToLower(cb)
		if la != lb {
			if la < lb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case i < len(ar):
		return 1
	case j < len(br):
		return -1
	default:
		return 0
	}
}

// scanNumber reads a run of digits starting at i and returns the
// index just past it along with its numeric value. Runs longer than
// can fit a uint64 saturate rather than overflow, which preserves
// correct ordering for any length actually seen in practice (key
// segments are not expected to contain million-digit numbers).
func scanNumber(r []rune, i int) (next int, value uint64) {
	for i < len(r) && unicode.IsDigit(r[i]) {
		d := uint64(r[i] - '0')
		if value > (^uint64(0)-d)/10 {
			value = ^uint64(0)
		} else {
			value = value*10 + d
		}
		i++
	}
	return i, value
}

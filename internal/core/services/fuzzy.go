package services

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xrash/smetrics"
)

// Fuzzy scorers return a similarity in the range 0..100.
//
// Distances are indel distances (insertions and deletions cost 1, a
// substitution costs 2) computed with Wagner-Fischer over the UTF-8 bytes of
// the compared strings. Windows in PartialRatio are cut on rune boundaries.

// Ratio returns the normalised indel similarity of a and b.
// Two empty strings are identical; one empty string scores 0.
func Ratio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	dist := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return 100 * (1 - float64(dist)/float64(total))
}

// PartialRatio returns the best Ratio of the shorter string against every
// window of the same length in the longer one. Windows clipped at either
// end of the longer string are considered too.
//
// A window is only scored when its byte-histogram bound can beat the best
// score so far: the indel distance is at least the L1 distance between the
// byte counts of the two strings.
func PartialRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	short, long := a, b
	if utf8.RuneCountInString(short) > utf8.RuneCountInString(long) {
		short, long = long, short
	}
	if strings.Contains(long, short) {
		return 100
	}

	offs := runeOffsets(long)
	n := len(offs) - 1
	m := utf8.RuneCountInString(short)

	best := 0.0
	consider := func(h *byteHistogram, window string) bool {
		if h.bound(len(short)+len(window)) <= best {
			return false
		}
		if r := Ratio(short, window); r > best {
			best = r
		}
		return best == 100
	}

	full := newByteHistogram(short)
	full.add(long[:offs[m]])
	for start := 0; start+m <= n; start++ {
		if start > 0 {
			full.remove(long[offs[start-1]:offs[start]])
			full.add(long[offs[start+m-1]:offs[start+m]])
		}
		if consider(full, long[offs[start]:offs[start+m]]) {
			return best
		}
	}

	prefix, suffix := newByteHistogram(short), newByteHistogram(short)
	for i := 1; i < m && i <= n; i++ {
		prefix.add(long[offs[i-1]:offs[i]])
		suffix.add(long[offs[n-i]:offs[n-i+1]])
		if consider(prefix, long[:offs[i]]) || consider(suffix, long[offs[n-i]:]) {
			return best
		}
	}
	return best
}

// runeOffsets returns the byte offset of every rune in s followed by len(s).
func runeOffsets(s string) []int {
	offs := make([]int, 0, len(s)+1)
	for i := range s {
		offs = append(offs, i)
	}
	return append(offs, len(s))
}

// byteHistogram tracks the L1 distance between the byte counts of a fixed
// needle and a sliding window.
type byteHistogram struct {
	need, win [256]int
	diff      int
}

func newByteHistogram(needle string) *byteHistogram {
	h := &byteHistogram{diff: len(needle)}
	for i := 0; i < len(needle); i++ {
		h.need[needle[i]]++
	}
	return h
}

func (h *byteHistogram) add(s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if h.win[c] < h.need[c] {
			h.diff--
		} else {
			h.diff++
		}
		h.win[c]++
	}
}

func (h *byteHistogram) remove(s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if h.win[c] > h.need[c] {
			h.diff--
		} else {
			h.diff++
		}
		h.win[c]--
	}
}

// bound is the highest Ratio a window with this histogram can reach.
func (h *byteHistogram) bound(total int) float64 {
	return 100 * (1 - float64(h.diff)/float64(total))
}

// tokenSets splits both strings on whitespace and returns the sorted
// intersection and the sorted differences joined by single spaces.
func tokenSets(a, b string) (sect, diffAB, diffBA string, ok bool) {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return "", "", "", false
	}

	var common, onlyA, onlyB []string
	for tok := range ta {
		if tb[tok] {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	return strings.Join(common, " "), strings.Join(onlyA, " "), strings.Join(onlyB, " "), true
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(s)
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// TokenSetRatio compares the shared tokens of a and b with each side's
// remaining tokens, ignoring order and duplicates.
func TokenSetRatio(a, b string) float64 {
	sect, diffAB, diffBA, ok := tokenSets(a, b)
	if !ok {
		return 0
	}
	if sect != "" && (diffAB == "" || diffBA == "") {
		return 100
	}

	t1, t2 := diffAB, diffBA
	if sect != "" {
		t1 = sect + " " + diffAB
		t2 = sect + " " + diffBA
	}

	best := Ratio(t1, t2)
	if sect != "" {
		best = max(best, Ratio(sect, t1), Ratio(sect, t2))
	}
	return best
}

// PartialTokenSetRatio is 100 as soon as a and b share a token. Otherwise it
// is the PartialRatio of their sorted token differences.
func PartialTokenSetRatio(a, b string) float64 {
	sect, diffAB, diffBA, ok := tokenSets(a, b)
	if !ok {
		return 0
	}
	if sect != "" {
		return 100
	}
	return PartialRatio(diffAB, diffBA)
}

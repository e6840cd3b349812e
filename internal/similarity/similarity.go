// Package similarity computes orthographic similarity between answer strings.
package similarity

import (
	"strings"

	"github.com/sinavlab/grader/internal/normalize"
)

// wordMatchThreshold is the pairwise ratio above which two words count as the
// same word for the word-level score.
const wordMatchThreshold = 0.75

type match struct {
	a, b, size int
}

// longestMatch finds the longest matching block in a[alo:ahi] and b[blo:bhi],
// preferring the earliest occurrence in a, then in b.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) match {
	b2j := make(map[rune][]int)
	for j := blo; j < bhi; j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	best := match{a: alo, b: blo}
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > best.size {
				best = match{a: i - k + 1, b: j - k + 1, size: k}
			}
		}
		j2len = newj2len
	}
	return best
}

// matchedRunes sums the sizes of all matching blocks: the longest common
// block, then recursively the pieces to its left and right.
func matchedRunes(a, b []rune) int {
	type span struct {
		alo, ahi, blo, bhi int
	}

	total := 0
	stack := []span{{0, len(a), 0, len(b)}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		m := longestMatch(a, b, s.alo, s.ahi, s.blo, s.bhi)
		if m.size == 0 {
			continue
		}
		total += m.size
		stack = append(stack,
			span{s.alo, m.a, s.blo, m.b},
			span{m.a + m.size, s.ahi, m.b + m.size, s.bhi})
	}
	return total
}

// Ratio returns the Ratcliff/Obershelp similarity of two strings in [0,1]:
// twice the number of matching runes over the total length. Symmetric in the
// measure sense: Ratio(a,b) == Ratio(b,a).
func Ratio(s1, s2 string) float64 {
	a, b := []rune(s1), []rune(s2)
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchedRunes(a, b)) / float64(total)
}

// Score returns the 0-100 lexical similarity between a student answer and a
// reference alternative. Both inputs are normalized first; an input that
// normalizes to empty scores 0 and equal normalized forms score exactly 100.
// Otherwise the result blends the whole-string character ratio with a
// word-level match ratio.
func Score(student, reference string) float64 {
	sn := normalize.Text(student)
	rn := normalize.Text(reference)

	if sn == "" || rn == "" {
		return 0
	}
	if sn == rn {
		return 100
	}

	charSim := Ratio(sn, rn) * 100

	w1 := strings.Fields(sn)
	w2 := strings.Fields(rn)
	if len(w1) == 0 || len(w2) == 0 {
		return charSim
	}

	matching := 0
	for _, w := range w1 {
		for _, v := range w2 {
			if Ratio(w, v) > wordMatchThreshold {
				matching++
				break
			}
		}
	}
	wordSim := float64(matching) / float64(max(len(w1), len(w2))) * 100

	return (charSim + wordSim) / 2
}

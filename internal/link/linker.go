// Package link finds near-duplicate customer names by fuzzy string
// similarity. Every record is scored against the full candidate pool,
// which makes linkage O(n²) string comparisons; intended for batches up
// to a few thousand records.
package link

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Match is the linkage result for one record.
type Match struct {
	Index int    // index of the best candidate in the pool
	Name  string // candidate name
	Score int    // similarity score, 0-100
	OK    bool   // true when the score met the threshold
}

// Linker links records to their nearest fuzzy neighbor in the pool.
type Linker struct {
	threshold int
}

// NewLinker creates a linker with the given match threshold (0-100).
func NewLinker(threshold int) *Linker {
	if threshold <= 0 {
		threshold = 85
	}
	return &Linker{threshold: threshold}
}

// Threshold returns the configured match threshold.
func (l *Linker) Threshold() int {
	return l.threshold
}

// Link computes the best match for every name in the pool. The target
// record is excluded from its own candidate pool, so a match is always a
// genuine neighbor rather than the trivial self-match at 100. Ties break
// toward the lowest pool index, which is stable across runs because the
// pool keeps input order. The pool is never mutated.
func (l *Linker) Link(names []string) []Match {
	matches := make([]Match, len(names))
	for i, target := range names {
		best := Match{Index: -1, Score: -1}
		for j, candidate := range names {
			if j == i {
				continue
			}
			score := Similarity(target, candidate)
			if score > best.Score {
				best = Match{Index: j, Name: candidate, Score: score}
			}
		}
		if best.Index >= 0 && best.Score >= l.threshold {
			best.OK = true
		}
		matches[i] = best
	}
	return matches
}

// Similarity returns a fuzzy similarity score in [0,100]. It is the max
// of a plain Levenshtein ratio and a token-sort ratio, so both small
// typos and word reorderings score high. Symmetric and deterministic;
// identical strings score 100.
func Similarity(a, b string) int {
	plain := ratio(a, b)
	sorted := ratio(tokenSort(a), tokenSort(b))
	if sorted > plain {
		return sorted
	}
	return plain
}

// ratio converts edit distance to a 0-100 similarity score.
func ratio(a, b string) int {
	if a == b {
		return 100
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	score := 100 * (longest - dist) / longest
	if score < 0 {
		return 0
	}
	return score
}

// tokenSort rebuilds a string from its lowercased, sorted tokens.
func tokenSort(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

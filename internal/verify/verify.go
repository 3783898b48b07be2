// Package verify implements the fingerprint comparison predicate: exact
// match first, then a positional character-similarity ratio tolerant of
// minor environment drift (browser point-release, font cache change).
package verify

import "github.com/pollwatch/devicebind/internal/fingerprint"

// DefaultThreshold - доля совпадающих позиций, начиная с которой
// кандидат считается тем же устройством. Значение эвристическое и
// настраивается через конфиг; 0.95 выбрано щедрым на уровне символов,
// потому что у действительно чужого hex-дайджеста совпадает ~1/16
// позиций, а дрейф окружения не должен блокировать владельца.
const DefaultThreshold = 0.95

// Engine compares candidate fingerprints against stored bindings.
type Engine struct {
	threshold float64
}

// New creates an engine with the given similarity threshold. Values
// outside (0, 1] fall back to DefaultThreshold.
func New(threshold float64) *Engine {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Engine{threshold: threshold}
}

// Threshold returns the configured similarity threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Verify reports whether candidate matches bound. The predicate is total
// over all string lengths including empty and never panics:
//
//  1. either digest empty -> false (нет привязки или нет кандидата)
//  2. byte-identical -> true
//  3. positional similarity over the shorter length >= threshold -> true
func (e *Engine) Verify(candidate, bound fingerprint.Digest) bool {
	if candidate.Empty() || bound.Empty() {
		return false
	}
	if candidate == bound {
		return true
	}
	return Similarity(candidate.String(), bound.String()) >= e.threshold
}

// Similarity computes the positional character-overlap ratio of two
// strings: over the shorter length, the fraction of index positions
// holding identical bytes. Not an edit distance - alignment is strictly
// positional.
func Similarity(a, b string) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	matches := 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(n)
}

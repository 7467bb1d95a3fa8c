package filters

import (
	"iter"

	"neowatch/internal/models"
)

// Limit yields at most n elements from seq. A non-positive n leaves the
// sequence uncapped. The input is never pulled past its nth element, so
// Limit is safe over arbitrarily long producers.
func Limit(seq iter.Seq[*models.CloseApproach], n int) iter.Seq[*models.CloseApproach] {
	if n <= 0 {
		return seq
	}
	return func(yield func(*models.CloseApproach) bool) {
		count := 0
		for a := range seq {
			if !yield(a) {
				return
			}
			count++
			if count == n {
				return
			}
		}
	}
}

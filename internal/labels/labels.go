// Package labels turns stored category values into presentation labels.
package labels

import (
	"strings"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
)

const (
	NotSpecified          = "Not specified"
	UnspecifiedExperience = "Unspecified experience"
)

// ExperienceLevel maps blank and "Any" to NotSpecified and "Unknown" to UnspecifiedExperience
func ExperienceLevel(level string) string {
	v := strings.TrimSpace(level)
	switch strings.ToLower(v) {
	case "", "any":
		return NotSpecified
	case "unknown":
		return UnspecifiedExperience
	}
	return v
}

// EmploymentType maps blank and "Unknown" to NotSpecified
func EmploymentType(t string) string {
	return generic(t)
}

// WorkMode maps blank and "Unknown" to NotSpecified
func WorkMode(mode string) string {
	return generic(mode)
}

func generic(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "unknown") {
		return NotSpecified
	}
	return v
}

// Buckets relabels a distribution and merges buckets that end up with the same
// label. The first occurrence keeps its position.
func Buckets(buckets []domain.Bucket, label func(string) string) []domain.Bucket {
	out := make([]domain.Bucket, 0, len(buckets))
	index := make(map[string]int, len(buckets))

	for _, b := range buckets {
		key := label(b.Key)
		if i, ok := index[key]; ok {
			out[i].Count += b.Count
			continue
		}
		index[key] = len(out)
		out = append(out, domain.Bucket{Key: key, Count: b.Count})
	}
	return out
}

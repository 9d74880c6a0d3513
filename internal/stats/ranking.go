package stats

import (
	"sort"
	"strings"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
)

// counter counts keys and remembers the order they were first seen in
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// buckets returns the counts sorted by descending count, ties in encounter order.
// limit <= 0 means no limit.
func (c *counter) buckets(limit int) []domain.Bucket {
	out := make([]domain.Bucket, 0, len(c.order))
	for _, key := range c.order {
		if n := c.counts[key]; n > 0 {
			out = append(out, domain.Bucket{Key: key, Count: n})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// groups collects salary values per key in encounter order
type groups struct {
	order  []string
	values map[string][]int64
}

func newGroups() *groups {
	return &groups{values: make(map[string][]int64)}
}

func (g *groups) add(key string, v int64) {
	if _, seen := g.values[key]; !seen {
		g.order = append(g.order, key)
	}
	g.values[key] = append(g.values[key], v)
}

// breakdown averages each group with at least minSamples values; smaller groups are omitted
func (g *groups) breakdown(minSamples int) []domain.SalaryBucket {
	out := make([]domain.SalaryBucket, 0, len(g.order))
	for _, key := range g.order {
		vals := g.values[key]
		if len(vals) < minSamples {
			continue
		}
		out = append(out, domain.SalaryBucket{Key: key, Average: Mean(vals), Count: len(vals)})
	}
	return out
}

func distribution(records []domain.RawJobRecord, field func(*domain.RawJobRecord) string) []domain.Bucket {
	c := newCounter()
	for i := range records {
		c.add(domain.CategoryValue(field(&records[i])))
	}
	return c.buckets(0)
}

func topCompanies(records []domain.RawJobRecord, limit int) []domain.Bucket {
	c := newCounter()
	for i := range records {
		if name := strings.TrimSpace(records[i].Company); name != "" {
			c.add(name)
		}
	}
	return c.buckets(limit)
}

func topLocations(records []domain.RawJobRecord, limit int) []domain.Bucket {
	c := newCounter()
	for i := range records {
		if key, ok := records[i].Location.Key(); ok {
			c.add(key)
		}
	}
	return c.buckets(limit)
}

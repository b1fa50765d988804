package quantize

import (
	"sort"

	"github.com/BitPonyLLC/framehue/pkg/colorspace"
)

// Entry is a single bucket of a FrequencyMap along with how often it occurred.
type Entry struct {
	Color colorspace.RGB `json:"color" yaml:"color" toml:"color"`
	Count int            `json:"count" yaml:"count" toml:"count"`
}

// FrequencyMap counts occurrences of quantized colors. It remembers the order
// in which each color was first seen so that ranking ties are resolved by scan
// order.
type FrequencyMap struct {
	counts map[colorspace.RGB]int
	order  []colorspace.RGB
}

func NewFrequencyMap() *FrequencyMap {
	return &FrequencyMap{counts: map[colorspace.RGB]int{}}
}

// Add increments the count for c by n.
func (m *FrequencyMap) Add(c colorspace.RGB, n int) {
	if n <= 0 {
		return
	}

	if _, exists := m.counts[c]; !exists {
		m.order = append(m.order, c)
	}

	m.counts[c] += n
}

func (m *FrequencyMap) Count(c colorspace.RGB) int {
	return m.counts[c]
}

func (m *FrequencyMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Top returns at most n entries ordered by descending count.
func (m *FrequencyMap) Top(n int) []Entry {
	if m.Len() == 0 || n <= 0 {
		return nil
	}

	entries := make([]Entry, len(m.order))
	for i, c := range m.order {
		entries[i] = Entry{Color: c, Count: m.counts[c]}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	if len(entries) > n {
		entries = entries[:n]
	}

	return entries
}

package faq

// Set is an ordered collection of items unique by question. The first item
// inserted for a question wins; later ones are rejected.
type Set struct {
	items []Item
	seen  map[string]struct{}
}

func NewSet() *Set {
	return &Set{seen: map[string]struct{}{}}
}

// Add inserts item unless its question is already present and reports
// whether it was kept.
func (s *Set) Add(item Item) bool {
	if _, ok := s.seen[item.Question]; ok {
		return false
	}
	s.seen[item.Question] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// Items returns the kept items in insertion order.
func (s *Set) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Set) Len() int {
	return len(s.items)
}

// Aggregate flattens per-page results in the given order and keeps the first
// item for every question.
func Aggregate(pages [][]Item) []Item {
	set := NewSet()
	for _, page := range pages {
		for _, item := range page {
			set.Add(item)
		}
	}
	return set.Items()
}

package domain

import (
	"fmt"
	"sort"
)

// NormalizeOrder rewrites props.order so it equals each section's position.
func NormalizeOrder(sections []Section) {
	for i := range sections {
		if sections[i].Props != nil {
			sections[i].Props.Base().Order = i
		}
	}
}

// OrderConsistent reports whether sorting by props.order yields the current sequence.
func OrderConsistent(sections []Section) bool {
	for i := 1; i < len(sections); i++ {
		if sections[i-1].Order() >= sections[i].Order() {
			return false
		}
	}
	return len(sections) == 0 || sections[0].Order() >= 0
}

// SortByOrder sorts sections by props.order, keeping ties stable, then
// re-derives contiguous orders.
func SortByOrder(sections []Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Order() < sections[j].Order()
	})
	NormalizeOrder(sections)
}

// InsertSection places s at index (clamped to the list bounds) and re-derives orders.
func InsertSection(sections []Section, index int, s Section) []Section {
	if index < 0 || index > len(sections) {
		index = len(sections)
	}
	out := make([]Section, 0, len(sections)+1)
	out = append(out, sections[:index]...)
	out = append(out, s)
	out = append(out, sections[index:]...)
	NormalizeOrder(out)
	return out
}

// RemoveSection drops the section with id and re-derives orders.
func RemoveSection(sections []Section, id string) ([]Section, error) {
	idx := IndexOfSection(sections, id)
	if idx < 0 {
		return sections, fmt.Errorf("section %s: %w", id, ErrNotFound)
	}
	out := make([]Section, 0, len(sections)-1)
	out = append(out, sections[:idx]...)
	out = append(out, sections[idx+1:]...)
	NormalizeOrder(out)
	return out, nil
}

// MoveSection moves the section at from to position to and re-derives orders.
func MoveSection(sections []Section, from, to int) ([]Section, error) {
	if from < 0 || from >= len(sections) || to < 0 || to >= len(sections) {
		return sections, fmt.Errorf("move %d -> %d out of range for %d sections", from, to, len(sections))
	}
	out := make([]Section, 0, len(sections))
	out = append(out, sections[:from]...)
	out = append(out, sections[from+1:]...)
	moved := sections[from]

	tail := append([]Section{moved}, out[to:]...)
	out = append(out[:to], tail...)
	NormalizeOrder(out)
	return out, nil
}

func IndexOfSection(sections []Section, id string) int {
	for i, s := range sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

package qlearning

import (
	"cmp"
	"slices"
)

// StateAction is the value table key: a board key and the cell played on it.
type StateAction struct {
	State  string
	Action int
}

// Entry is one learned value, the exported form of a table row.
type Entry struct {
	State  string  `json:"state"`
	Action int     `json:"action"`
	Value  float64 `json:"value"`
}

// ValueTable maps (state, action) pairs to value estimates. Unseen pairs are worth 0.
// Entries are never removed.
type ValueTable struct {
	values map[StateAction]float64
}

func NewValueTable() *ValueTable {
	return &ValueTable{values: make(map[StateAction]float64)}
}

// NewValueTableFromEntries - rebuilds a table from a snapshot, later duplicates win.
func NewValueTableFromEntries(entries []Entry) *ValueTable {
	table := &ValueTable{values: make(map[StateAction]float64, len(entries))}
	for _, entry := range entries {
		table.Set(entry.State, entry.Action, entry.Value)
	}
	return table
}

func (that *ValueTable) Get(state string, action int) float64 {
	return that.values[StateAction{State: state, Action: action}]
}

func (that *ValueTable) Set(state string, action int, value float64) {
	that.values[StateAction{State: state, Action: action}] = value
}

func (that *ValueTable) Len() int {
	return len(that.values)
}

// Entries - every stored value, ordered by state then action.
func (that *ValueTable) Entries() []Entry {
	entries := make([]Entry, 0, len(that.values))
	for key, value := range that.values {
		entries = append(entries, Entry{State: key.State, Action: key.Action, Value: value})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(a.State, b.State); c != 0 {
			return c
		}
		return cmp.Compare(a.Action, b.Action)
	})

	return entries
}

// Package history keeps a linear undo/redo stack of geometry snapshots.
package history

import "github.com/example/cropmask/internal/geometry"

// Stack holds full snapshots. cursor always indexes the entry matching
// what is on screen.
type Stack struct {
	entries []geometry.Geometry
	cursor  int
}

// New returns a stack holding a single empty snapshot.
func New() *Stack {
	s := &Stack{}
	s.Reset(geometry.Geometry{})
	return s
}

// Reset discards all entries and starts again from g.
func (s *Stack) Reset(g geometry.Geometry) {
	s.entries = []geometry.Geometry{g.Clone()}
	s.cursor = 0
}

// Push records g as the newest state, dropping any redo entries.
func (s *Stack) Push(g geometry.Geometry) {
	s.entries = append(s.entries[:s.cursor+1], g.Clone())
	s.cursor = len(s.entries) - 1
}

// Undo steps back one entry. It returns false when already at the oldest.
func (s *Stack) Undo() (geometry.Geometry, bool) {
	if s.cursor <= 0 {
		return geometry.Geometry{}, false
	}
	s.cursor--
	return s.entries[s.cursor].Clone(), true
}

// Redo steps forward one entry. It returns false when nothing was undone.
func (s *Stack) Redo() (geometry.Geometry, bool) {
	if s.cursor >= len(s.entries)-1 {
		return geometry.Geometry{}, false
	}
	s.cursor++
	return s.entries[s.cursor].Clone(), true
}

func (s *Stack) CanUndo() bool { return s.cursor > 0 }

func (s *Stack) CanRedo() bool { return s.cursor < len(s.entries)-1 }

// Len is the number of live entries.
func (s *Stack) Len() int { return len(s.entries) }

// Cursor returns the index of the current entry.
func (s *Stack) Cursor() int { return s.cursor }

// Current returns a copy of the entry under the cursor.
func (s *Stack) Current() geometry.Geometry { return s.entries[s.cursor].Clone() }

// Rescale rewrites every entry, used when the display size changes.
func (s *Stack) Rescale(fn func(geometry.Point) geometry.Point, scale float64) {
	for i := range s.entries {
		s.entries[i] = s.entries[i].Map(fn, scale)
	}
}

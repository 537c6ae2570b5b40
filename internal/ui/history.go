package ui

import "github.com/piwi3910/LotiSmart/internal/model"

const defaultMaxDepth = 50

// Snapshot captures the run state of a project at a point in time. The
// parcel itself is not part of it: undo steps between runs on the same parcel.
type Snapshot struct {
	Settings model.Settings
	Result   *model.LotSet
	LastRun  *model.RunRecord
	Label    string // Human-readable description (e.g. "Generate 150 m²")
}

// History manages undo/redo stacks of run snapshots.
type History struct {
	undoStack []Snapshot
	redoStack []Snapshot
	maxDepth  int
}

// NewHistory creates a History with the default max depth of 50.
func NewHistory() *History {
	return &History{
		maxDepth: defaultMaxDepth,
	}
}

// Push saves a snapshot onto the undo stack and clears the redo stack.
// This should be called before the modification is applied.
func (h *History) Push(s Snapshot) {
	h.undoStack = append(h.undoStack, s)
	if len(h.undoStack) > h.maxDepth {
		h.undoStack = h.undoStack[len(h.undoStack)-h.maxDepth:]
	}
	h.redoStack = nil
}

// Undo pops the most recent snapshot from the undo stack and pushes
// the current state onto the redo stack. Returns the snapshot to restore
// and true, or an empty snapshot and false if nothing to undo.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.undoStack) == 0 {
		return Snapshot{}, false
	}
	last := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, current)
	return last, true
}

// Redo pops the most recent snapshot from the redo stack and pushes
// the current state onto the undo stack.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.redoStack) == 0 {
		return Snapshot{}, false
	}
	last := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, current)
	return last, true
}

// CanUndo returns true if there is at least one snapshot to undo.
func (h *History) CanUndo() bool {
	return len(h.undoStack) > 0
}

// CanRedo returns true if there is at least one snapshot to redo.
func (h *History) CanRedo() bool {
	return len(h.redoStack) > 0
}

// Clear removes all undo and redo history.
func (h *History) Clear() {
	h.undoStack = nil
	h.redoStack = nil
}

// copyLotSet returns a deep copy of a lot set, or nil.
func copyLotSet(ls *model.LotSet) *model.LotSet {
	if ls == nil {
		return nil
	}
	cp := *ls
	if ls.Lots != nil {
		cp.Lots = make([]model.Lot, len(ls.Lots))
		copy(cp.Lots, ls.Lots)
	}
	return &cp
}

// MakeSnapshot creates a snapshot from the current project state with a label.
func MakeSnapshot(proj model.Project, label string) Snapshot {
	s := Snapshot{
		Settings: proj.Settings,
		Result:   copyLotSet(proj.Result),
		Label:    label,
	}
	if proj.LastRun != nil {
		rec := *proj.LastRun
		s.LastRun = &rec
	}
	return s
}

// Apply restores the snapshot's run state into proj.
func (s Snapshot) Apply(proj *model.Project) {
	proj.Settings = s.Settings
	proj.Result = copyLotSet(s.Result)
	proj.LastRun = nil
	if s.LastRun != nil {
		rec := *s.LastRun
		proj.LastRun = &rec
	}
}

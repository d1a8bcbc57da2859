package reconcile

import (
	"fmt"
)

// RowStatus represents a row's unsaved-change state relative to the last
// known server state. It exists only between a user edit and a successful
// save; it is never persisted as field data.
type RowStatus string

const (
	// StatusClean indicates the row matches the server's canonical state
	StatusClean RowStatus = "Clean"
	// StatusAdded indicates a new row appended locally, not yet saved
	StatusAdded RowStatus = "Added"
	// StatusInserted indicates a new row spliced before an existing row,
	// holding a provisional order number until the server renumbers
	StatusInserted RowStatus = "Inserted"
	// StatusChanged indicates a saved row with unsaved sub-field edits
	StatusChanged RowStatus = "Changed"
	// StatusDeleted indicates a row removed locally but retained (hidden)
	// until the next successful save
	StatusDeleted RowStatus = "Deleted"
	// StatusReordered indicates a clean row whose displayed order changed
	StatusReordered RowStatus = "Reordered"
)

// RowAction represents a user action that can change row status
type RowAction string

const (
	// ActionEdit is any sub-field edit within the row
	ActionEdit RowAction = "Edit"
	// ActionRemove removes the row from view
	ActionRemove RowAction = "Remove"
	// ActionMove changes the row's displayed order
	ActionMove RowAction = "Move"
	// ActionSave is a confirmed successful save of the whole field
	ActionSave RowAction = "Save"
)

// StatusMachine enforces valid row status transitions. Invalid transitions
// return an error (fail-fast approach), which keeps contradictory states
// like Deleted+Inserted unrepresentable.
type StatusMachine struct {
	// transitions maps (current status, action) -> next status
	transitions map[statusTransitionKey]RowStatus
}

type statusTransitionKey struct {
	status RowStatus
	action RowAction
}

// NewStatusMachine creates the row lifecycle state machine.
// Status diagram:
//
//	[Clean] --Edit--> [Changed] --Edit--> [Changed]
//	[Clean] --Move--> [Reordered]
//	[Clean|Changed|Reordered] --Remove--> [Deleted]
//	[Added|Inserted] --Edit/Move--> (unchanged)
//	any --Save--> [Clean]
//
// New rows enter directly in Added or Inserted; removal of an unsaved new
// row discards it entirely and never passes through the machine.
func NewStatusMachine() *StatusMachine {
	sm := &StatusMachine{
		transitions: make(map[statusTransitionKey]RowStatus),
	}

	sm.addTransition(StatusClean, ActionEdit, StatusChanged)
	sm.addTransition(StatusClean, ActionMove, StatusReordered)
	sm.addTransition(StatusClean, ActionRemove, StatusDeleted)
	sm.addTransition(StatusClean, ActionSave, StatusClean)

	sm.addTransition(StatusChanged, ActionEdit, StatusChanged)
	sm.addTransition(StatusChanged, ActionMove, StatusChanged)
	sm.addTransition(StatusChanged, ActionRemove, StatusDeleted)
	sm.addTransition(StatusChanged, ActionSave, StatusClean)

	sm.addTransition(StatusReordered, ActionEdit, StatusChanged)
	sm.addTransition(StatusReordered, ActionMove, StatusReordered)
	sm.addTransition(StatusReordered, ActionRemove, StatusDeleted)
	sm.addTransition(StatusReordered, ActionSave, StatusClean)

	sm.addTransition(StatusAdded, ActionEdit, StatusAdded)
	sm.addTransition(StatusAdded, ActionMove, StatusAdded)
	sm.addTransition(StatusAdded, ActionSave, StatusClean)

	sm.addTransition(StatusInserted, ActionEdit, StatusInserted)
	sm.addTransition(StatusInserted, ActionMove, StatusInserted)
	sm.addTransition(StatusInserted, ActionSave, StatusClean)

	sm.addTransition(StatusDeleted, ActionSave, StatusClean)

	return sm
}

func (sm *StatusMachine) addTransition(from RowStatus, via RowAction, to RowStatus) {
	key := statusTransitionKey{status: from, action: via}
	sm.transitions[key] = to
}

// Transition attempts to transition from the current status using the given
// action. Returns the new status or an error if the transition is invalid.
func (sm *StatusMachine) Transition(current RowStatus, action RowAction) (RowStatus, error) {
	key := statusTransitionKey{status: current, action: action}
	next, ok := sm.transitions[key]
	if !ok {
		return current, fmt.Errorf("invalid row status transition: cannot %s from %s", action, current)
	}
	return next, nil
}

// CanTransition checks if a transition is valid without performing it.
func (sm *StatusMachine) CanTransition(current RowStatus, action RowAction) bool {
	key := statusTransitionKey{status: current, action: action}
	_, ok := sm.transitions[key]
	return ok
}

// IsDirty returns true if the status carries unsaved local changes the
// server must never overwrite.
func (sm *StatusMachine) IsDirty(status RowStatus) bool {
	return status != StatusClean
}

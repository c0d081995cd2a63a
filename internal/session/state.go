package session

import (
	"github.com/stwalsh4118/mppl/dashboard/internal/models"
)

// Mode names the variant of a State.
type Mode string

// View modes.
const (
	ModeListing Mode = "listing"
	ModeDetail  Mode = "detail"
	ModeEditing Mode = "editing"
)

// State is the grid page's view state: exactly one of Listing, Detail or
// Editing. Editing always carries the selection it was entered from.
type State interface {
	Mode() Mode
	isState()
}

// Listing shows the record table.
type Listing struct{}

// Detail shows every field of the record at Index in the canonical collection.
type Detail struct {
	Index int
	ID    int64
}

// Editing holds a draft copy of the selected record. The draft is owned by
// the session until it is committed or discarded.
type Editing struct {
	Index int
	ID    int64
	Draft models.ConnectionRecord
}

func (Listing) Mode() Mode { return ModeListing }
func (Detail) Mode() Mode  { return ModeDetail }
func (Editing) Mode() Mode { return ModeEditing }

func (Listing) isState() {}
func (Detail) isState()  {}
func (Editing) isState() {}

package sensor

import (
	"github.com/luki/hasensors/internal/hass"
)

// State tells the renderer what to draw.
type State int

const (
	StateLoading State = iota // no snapshot received yet
	StateError                // the last poll failed, or the config is invalid
	StateEmpty                // every row was skipped
	StateRows
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateEmpty:
		return "empty"
	case StateRows:
		return "rows"
	default:
		return "unknown"
	}
}

// EmptyMessage is shown when no row survives the skip rules.
const EmptyMessage = "No sensors to display."

// View is the output of one render pass.
type View struct {
	State State
	Rows  []Row
	Err   error
}

// Message returns the text to show for the non-row states.
func (v View) Message() string {
	switch v.State {
	case StateLoading:
		return "Loading..."
	case StateError:
		return v.Err.Error()
	case StateEmpty:
		return EmptyMessage
	default:
		return ""
	}
}

// Render runs the pipeline for one pass. An error always wins and clears
// the rows; a nil snapshot means nothing has been received yet.
func Render(snap *hass.Snapshot, lastErr error, cfgs []Config, s DisplaySettings) View {
	if lastErr != nil {
		return View{State: StateError, Err: lastErr}
	}
	if snap == nil {
		return View{State: StateLoading}
	}

	rows := BuildRows(snap.Entities, cfgs, s)
	if len(rows) == 0 {
		return View{State: StateEmpty}
	}
	return View{State: StateRows, Rows: rows}
}

package orchestrator

import "github.com/Th3phylosoph3r/aeon-fix/internal/extract"

// State names the phase of the orchestration loop. Runs start Idle and
// end Stopped or Completed; Proceeding and Inserting are the two
// transitions out of a consultation round.
type State string

const (
	StateIdle       State = "idle"
	StateRunning    State = "running"
	StateProceeding State = "proceeding"
	StateInserting  State = "inserting"
	StateStopped    State = "stopped"
	StateCompleted  State = "completed"
)

// Attempt records one step of the session, whether or not it ran.
type Attempt struct {
	Command   string `json:"command"`
	Confirmed bool   `json:"confirmed"`
	Executed  bool   `json:"executed"`
	Succeeded bool   `json:"succeeded"`
	ExitCode  int    `json:"exit_code"`
	Output    string `json:"output"`
	Error     string `json:"error"`
}

// SessionPlan is the mutable heart of a run: the ordered command items,
// the cursor into them, and everything attempted so far.
type SessionPlan struct {
	Items   []extract.ActionItem
	Cursor  int
	History []Attempt

	// attempted holds the literal command text of every step reached,
	// successful or not. The cycle guard checks it.
	attempted map[string]bool
}

// NewSessionPlan builds a plan from the command items of an extraction.
func NewSessionPlan(items []extract.ActionItem) *SessionPlan {
	return &SessionPlan{
		Items:     items,
		attempted: make(map[string]bool),
	}
}

// Current returns the item under the cursor.
func (p *SessionPlan) Current() extract.ActionItem {
	return p.Items[p.Cursor]
}

// Done reports whether the cursor has moved past the last item.
func (p *SessionPlan) Done() bool {
	return p.Cursor >= len(p.Items)
}

// AtLastStep reports whether the cursor is on the final planned item.
func (p *SessionPlan) AtLastStep() bool {
	return p.Cursor == len(p.Items)-1
}

// NextCommand returns the literal text of the step after the cursor,
// or "" when the current step is the last.
func (p *SessionPlan) NextCommand() string {
	if p.Cursor+1 < len(p.Items) {
		return p.Items[p.Cursor+1].Value
	}
	return ""
}

// Seen reports whether this exact command text was already attempted.
func (p *SessionPlan) Seen(command string) bool {
	return p.attempted[command]
}

// MarkAttempted records command text for the cycle guard and appends
// the attempt to history.
func (p *SessionPlan) MarkAttempted(a Attempt) {
	p.attempted[a.Command] = true
	p.History = append(p.History, a)
}

// InsertAfterCursor places a new command item directly after the
// current one, preserving the remainder of the plan, and moves the
// cursor onto it.
func (p *SessionPlan) InsertAfterCursor(item extract.ActionItem) {
	at := p.Cursor + 1
	p.Items = append(p.Items, extract.ActionItem{})
	copy(p.Items[at+1:], p.Items[at:])
	p.Items[at] = item
	p.Cursor = at
}

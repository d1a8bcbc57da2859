package reconcile

import (
	"sync"
	"time"

	"github.com/formcraft/backend/pkg/constants"
)

// Debouncer collapses rapid successive preview refreshes into one. Edits to
// cosmetic attributes wait longer than edits to content attributes, so a
// preview does not visibly thrash while the user is typing a label.
type Debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	content  time.Duration
	cosmetic time.Duration
}

// NewDebouncer creates a debouncer with the two delays.
func NewDebouncer(content, cosmetic time.Duration) *Debouncer {
	return &Debouncer{content: content, cosmetic: cosmetic}
}

// NewDefaultDebouncer creates a debouncer with the standard preview
// delays.
func NewDefaultDebouncer() *Debouncer {
	return NewDebouncer(constants.DebounceContent, constants.DebounceCosmetic)
}

// Trigger schedules fn after the delay matching the edit kind, replacing
// any previously scheduled call.
func (d *Debouncer) Trigger(cosmeticEdit bool, fn func()) {
	delay := d.content
	if cosmeticEdit {
		delay = d.cosmetic
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(delay, fn)
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

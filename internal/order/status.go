package order

import (
	"time"
)

// nearDeadlineWindow is the detail-view urgency window. The coarser list view
// in visual.go deliberately uses a wider window; the two are independent
// contracts and must not be unified.
const nearDeadlineWindow = 12 * time.Hour

// StatusView is the derived presentation status for an order detail view.
type StatusView struct {
	Status     Status `json:"status"`
	StatusText string `json:"status_text"`
	Urgent     bool   `json:"urgent"`
}

var statusTexts = map[Status]string{
	StatusUnpaid:         "Awaiting payment",
	StatusInProgress:     "In progress",
	StatusNearDeadline:   "Due soon",
	StatusOverdue:        "Overdue",
	StatusWaitingConfirm: "Awaiting buyer confirmation",
	StatusCompleted:      "Completed",
	StatusRefunded:       "Refunded",
	StatusCancelled:      "Cancelled",
}

// StatusText returns the human label for a status.
func StatusText(s Status) string {
	if text, ok := statusTexts[s]; ok {
		return text
	}
	return string(s)
}

// DeriveStatus computes the presentation status of an order at a point in
// time. Pure function, safe to call on every read.
//
// Completed and waiting-confirm are sticky: once the work is done, the passage
// of time never downgrades the order back to in-progress or overdue.
func DeriveStatus(o *Order, now time.Time) StatusView {
	switch o.Status {
	case StatusCompleted:
		return StatusView{Status: StatusCompleted, StatusText: StatusText(StatusCompleted)}
	case StatusRefunded:
		return StatusView{Status: StatusRefunded, StatusText: StatusText(StatusRefunded)}
	case StatusCancelled:
		return StatusView{Status: StatusCancelled, StatusText: StatusText(StatusCancelled)}
	}

	if o.WorkCompleted || o.Status == StatusWaitingConfirm {
		return StatusView{Status: StatusWaitingConfirm, StatusText: StatusText(StatusWaitingConfirm)}
	}

	if o.Status == StatusUnpaid {
		return StatusView{Status: StatusUnpaid, StatusText: StatusText(StatusUnpaid)}
	}

	timeLeft := o.Deadline.Sub(now)
	switch {
	case timeLeft < 0:
		return StatusView{Status: StatusOverdue, StatusText: StatusText(StatusOverdue), Urgent: true}
	case timeLeft <= nearDeadlineWindow:
		return StatusView{Status: StatusNearDeadline, StatusText: StatusText(StatusNearDeadline), Urgent: true}
	default:
		return StatusView{Status: StatusInProgress, StatusText: StatusText(StatusInProgress)}
	}
}

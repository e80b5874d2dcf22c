package order

import (
	"math"
	"time"
)

// visualNearWindow is the list-view urgency window. Wider than the 12h
// detail-view window on purpose: the list only needs a coarse signal.
const visualNearWindow = 48 * time.Hour

type VisualKey string

const (
	VisualNormal       VisualKey = "normal"
	VisualNearDeadline VisualKey = "nearDeadline"
	VisualOverdue      VisualKey = "overdue"
)

var visualColors = map[VisualKey]string{
	VisualNormal:       "#2ecc71", // green
	VisualNearDeadline: "#f39c12", // orange
	VisualOverdue:      "#e74c3c", // red
}

// VisualStatus is the coarse list-view classification plus a progress bar
// percentage. Consumers rely on the color mapping, so it is part of the
// contract.
type VisualStatus struct {
	StatusKey       VisualKey `json:"status_key"`
	StatusColor     string    `json:"status_color"`
	ProgressPercent int       `json:"progress_percent"`
}

// ComputeVisualStatus derives the list-view status and elapsed-time progress
// for an order. Progress is clamped to [0,100]; a malformed span
// (deadline <= start) counts as fully elapsed. Overdue always reports 100.
func ComputeVisualStatus(o *Order, now time.Time) VisualStatus {
	start := o.CreatedAt
	deadline := o.Deadline

	if now.After(deadline) {
		return VisualStatus{
			StatusKey:       VisualOverdue,
			StatusColor:     visualColors[VisualOverdue],
			ProgressPercent: 100,
		}
	}

	span := deadline.Sub(start)
	progress := 100
	if span > 0 {
		elapsed := now.Sub(start)
		progress = clampPercent(int(math.Round(float64(elapsed) / float64(span) * 100)))
	}

	key := VisualNormal
	if deadline.Sub(now) <= visualNearWindow {
		key = VisualNearDeadline
	}

	return VisualStatus{
		StatusKey:       key,
		StatusColor:     visualColors[key],
		ProgressPercent: progress,
	}
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

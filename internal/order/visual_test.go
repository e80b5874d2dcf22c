package order_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/artmarket/commission-service/internal/order"
)

func TestComputeVisualStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		start        time.Time
		deadline     time.Time
		wantKey      order.VisualKey
		wantProgress int
	}{
		{
			name:         "overdue_forces_100",
			start:        now.Add(-10 * 24 * time.Hour),
			deadline:     now.Add(-time.Hour),
			wantKey:      order.VisualOverdue,
			wantProgress: 100,
		},
		{
			name:         "far_past_deadline_still_100",
			start:        now.Add(-100 * 24 * time.Hour),
			deadline:     now.Add(-90 * 24 * time.Hour),
			wantKey:      order.VisualOverdue,
			wantProgress: 100,
		},
		{
			name:         "halfway_normal",
			start:        now.Add(-5 * 24 * time.Hour),
			deadline:     now.Add(5 * 24 * time.Hour),
			wantKey:      order.VisualNormal,
			wantProgress: 50,
		},
		{
			name:         "inside_two_day_window",
			start:        now.Add(-8 * 24 * time.Hour),
			deadline:     now.Add(24 * time.Hour),
			wantKey:      order.VisualNearDeadline,
			wantProgress: 89,
		},
		{
			name:         "at_deadline_is_100",
			start:        now.Add(-3 * 24 * time.Hour),
			deadline:     now,
			wantKey:      order.VisualNearDeadline,
			wantProgress: 100,
		},
		{
			name:         "zero_span_counts_as_elapsed",
			start:        now.Add(24 * time.Hour),
			deadline:     now.Add(24 * time.Hour),
			wantKey:      order.VisualNearDeadline,
			wantProgress: 100,
		},
		{
			name:         "inverted_span_counts_as_elapsed",
			start:        now.Add(48 * time.Hour),
			deadline:     now.Add(24 * time.Hour),
			wantKey:      order.VisualNearDeadline,
			wantProgress: 100,
		},
		{
			name:         "start_in_future_clamps_to_zero",
			start:        now.Add(24 * time.Hour),
			deadline:     now.Add(10 * 24 * time.Hour),
			wantKey:      order.VisualNormal,
			wantProgress: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := order.Order{CreatedAt: tt.start, Deadline: tt.deadline}
			vs := order.ComputeVisualStatus(&o, now)

			assert.Equal(t, tt.wantKey, vs.StatusKey)
			assert.Equal(t, tt.wantProgress, vs.ProgressPercent)
			assert.NotEmpty(t, vs.StatusColor)
			assert.GreaterOrEqual(t, vs.ProgressPercent, 0)
			assert.LessOrEqual(t, vs.ProgressPercent, 100)
		})
	}
}

func TestComputeVisualStatus_ColorContract(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	overdue := order.ComputeVisualStatus(&order.Order{CreatedAt: now.Add(-48 * time.Hour), Deadline: now.Add(-time.Hour)}, now)
	near := order.ComputeVisualStatus(&order.Order{CreatedAt: now.Add(-48 * time.Hour), Deadline: now.Add(12 * time.Hour)}, now)
	normal := order.ComputeVisualStatus(&order.Order{CreatedAt: now.Add(-48 * time.Hour), Deadline: now.Add(10 * 24 * time.Hour)}, now)

	assert.Equal(t, "#e74c3c", overdue.StatusColor)
	assert.Equal(t, "#f39c12", near.StatusColor)
	assert.Equal(t, "#2ecc71", normal.StatusColor)
}

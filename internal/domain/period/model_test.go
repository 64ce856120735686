package period

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"grootboek/internal/core/id"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusOpen, StatusReview, true},
		{StatusOpen, StatusFinalized, true},
		{StatusOpen, StatusLocked, false},
		{StatusReview, StatusFinalized, true},
		{StatusReview, StatusOpen, false},
		{StatusFinalized, StatusLocked, true},
		{StatusFinalized, StatusOpen, false},
		{StatusFinalized, StatusReview, false},
		{StatusLocked, StatusOpen, false},
		{StatusLocked, StatusFinalized, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestContains_HalfOpenRange(t *testing.T) {
	p := New(id.New(), "2026-03", "month",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))

	assert.True(t, p.Contains(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)))
}

func TestCanAcceptPostings(t *testing.T) {
	p := New(id.New(), "2026-03", "month",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))

	assert.True(t, p.CanAcceptPostings())

	p.Status = StatusReview
	assert.True(t, p.CanAcceptPostings())

	p.Status = StatusFinalized
	assert.False(t, p.CanAcceptPostings())

	p.Status = StatusLocked
	assert.False(t, p.CanAcceptPostings())
	assert.True(t, p.IsImmutable())
}

func TestValidate(t *testing.T) {
	t.Run("end before start", func(t *testing.T) {
		p := New(id.New(), "broken", "month",
			time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		assert.Error(t, p.Validate(context.Background()))
	})

	t.Run("valid month", func(t *testing.T) {
		p := New(id.New(), "2026-03", "month",
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
		assert.NoError(t, p.Validate(context.Background()))
	})
}

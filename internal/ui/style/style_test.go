package style_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/ui/style"
)

func TestOutcomeIcon(t *testing.T) {
	tests := []struct {
		outcome domain.BuildOutcome
		icon    string
		color   string
	}{
		{domain.OutcomeBuilt, style.Check, string(style.Green)},
		{domain.OutcomeCached, style.Tilde, string(style.Green)},
		{domain.OutcomeSkipped, style.Circle, string(style.Yellow)},
		{domain.OutcomeCancelled, style.Warning, string(style.Yellow)},
		{domain.OutcomeFailed, style.Cross, string(style.Red)},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			assert.Equal(t, tt.icon, style.OutcomeIcon(tt.outcome))
			assert.Equal(t, tt.color, string(style.OutcomeColor(tt.outcome)))
		})
	}
}

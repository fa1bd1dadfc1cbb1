package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeFees(t *testing.T) {
	fee, payout := ComputeFees(50.00, 0.03)
	assert.Equal(t, 1.50, fee)
	assert.Equal(t, 48.50, payout)
}

func TestComputeFeesRoundsToCents(t *testing.T) {
	fee, payout := ComputeFees(33.33, 0.03)
	assert.Equal(t, 1.00, fee)
	assert.Equal(t, 32.33, payout)
}

func TestComputeFeesDefaultsRate(t *testing.T) {
	fee, payout := ComputeFees(100.00, 0)
	assert.Equal(t, 3.00, fee)
	assert.Equal(t, 97.00, payout)
}

func TestComputeFeesIsDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		fee, payout := ComputeFees(75.25, 0.03)
		assert.Equal(t, 2.26, fee)
		assert.Equal(t, 72.99, payout)
	}
}

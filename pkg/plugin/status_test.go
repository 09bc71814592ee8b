package plugin

import (
	"testing"

	"github.com/mackerelio/checkers"
	"github.com/stretchr/testify/assert"
)

func TestEscalate(t *testing.T) {
	assert.Equal(t, checkers.OK, Escalate(checkers.OK, checkers.OK))
	assert.Equal(t, checkers.WARNING, Escalate(checkers.OK, checkers.WARNING))
	assert.Equal(t, checkers.CRITICAL, Escalate(checkers.OK, checkers.CRITICAL))
	assert.Equal(t, checkers.WARNING, Escalate(checkers.WARNING, checkers.OK))
	assert.Equal(t, checkers.CRITICAL, Escalate(checkers.WARNING, checkers.CRITICAL))
	assert.Equal(t, checkers.CRITICAL, Escalate(checkers.CRITICAL, checkers.OK))
	assert.Equal(t, checkers.CRITICAL, Escalate(checkers.CRITICAL, checkers.WARNING))
}

func TestEscalateOrderIndependent(t *testing.T) {
	states := []checkers.Status{checkers.OK, checkers.WARNING, checkers.CRITICAL, checkers.OK}

	permutations := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{2, 0, 3, 1},
		{1, 3, 0, 2},
	}
	for _, perm := range permutations {
		current := checkers.OK
		for _, idx := range perm {
			current = Escalate(current, states[idx])
		}
		assert.Equalf(t, checkers.CRITICAL, current, "fold order %v", perm)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "OK", StateString(checkers.OK))
	assert.Equal(t, "WARNING", StateString(checkers.WARNING))
	assert.Equal(t, "CRITICAL", StateString(checkers.CRITICAL))
	assert.Equal(t, "UNKNOWN", StateString(checkers.UNKNOWN))
	assert.Equal(t, "UNKNOWN", StateString(checkers.Status(42)))
}

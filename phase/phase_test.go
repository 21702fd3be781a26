package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllIsClosedAndOrdered(t *testing.T) {
	t.Parallel()

	phases := All()
	require.Len(t, phases, 6)
	assert.Equal(t, EnRouteToPickup, phases[0])
	assert.Equal(t, Completed, phases[len(phases)-1])

	for _, p := range phases {
		assert.True(t, p.Valid(), "phase %s should be valid", p)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()

	phases := All()
	phases[0] = Phase("mutated")

	assert.Equal(t, EnRouteToPickup, All()[0])
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, Completed.Terminal())

	for _, p := range All() {
		if p == Completed {
			continue
		}

		assert.False(t, p.Terminal(), "phase %s should not be terminal", p)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	p, err := Parse("picking_up")
	require.NoError(t, err)
	assert.Equal(t, PickingUp, p)

	_, err = Parse("teleporting")
	require.ErrorIs(t, err, ErrUnknownPhase)
}

func TestValidRejectsArbitraryStrings(t *testing.T) {
	t.Parallel()

	assert.False(t, Phase("").Valid())
	assert.False(t, Phase("COMPLETED").Valid())
}

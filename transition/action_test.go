package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindValid(t *testing.T) {
	t.Parallel()

	for _, k := range []Kind{
		ClearRoute, CalculateRoute, UpdateGeofences, UpdateCamera,
		RestartNavigation, ClearVoiceGuidance, AnnounceInstruction,
	} {
		assert.True(t, k.Valid(), k)
	}

	assert.False(t, Kind("teleport").Valid())
	assert.False(t, Kind("").Valid())
}

func TestSortByPriorityOrdersAscending(t *testing.T) {
	t.Parallel()

	actions := []Action{
		{Kind: AnnounceInstruction, Priority: Priority(7)},
		{Kind: ClearRoute, Priority: Priority(1)},
		{Kind: UpdateCamera, Priority: Priority(5)},
		{Kind: ClearVoiceGuidance, Priority: Priority(2)},
	}

	sorted := SortByPriority(actions)

	require.Len(t, sorted, 4)
	assert.Equal(t, ClearRoute, sorted[0].Kind)
	assert.Equal(t, ClearVoiceGuidance, sorted[1].Kind)
	assert.Equal(t, UpdateCamera, sorted[2].Kind)
	assert.Equal(t, AnnounceInstruction, sorted[3].Kind)
}

func TestSortByPriorityNilSortsLast(t *testing.T) {
	t.Parallel()

	actions := []Action{
		{Kind: RestartNavigation},
		{Kind: ClearRoute, Priority: Priority(3)},
		{Kind: UpdateGeofences},
	}

	sorted := SortByPriority(actions)

	assert.Equal(t, ClearRoute, sorted[0].Kind)
	assert.Equal(t, RestartNavigation, sorted[1].Kind)
	assert.Equal(t, UpdateGeofences, sorted[2].Kind)
}

func TestSortByPriorityStableOnTies(t *testing.T) {
	t.Parallel()

	actions := []Action{
		{Kind: UpdateCamera, Priority: Priority(1)},
		{Kind: UpdateGeofences, Priority: Priority(1)},
		{Kind: ClearRoute, Priority: Priority(1)},
	}

	sorted := SortByPriority(actions)

	assert.Equal(t, UpdateCamera, sorted[0].Kind)
	assert.Equal(t, UpdateGeofences, sorted[1].Kind)
	assert.Equal(t, ClearRoute, sorted[2].Kind)
}

func TestSortByPriorityDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	actions := []Action{
		{Kind: AnnounceInstruction, Priority: Priority(9)},
		{Kind: ClearRoute, Priority: Priority(1)},
	}

	_ = SortByPriority(actions)

	assert.Equal(t, AnnounceInstruction, actions[0].Kind)
	assert.Equal(t, ClearRoute, actions[1].Kind)
}

func TestSortByPriorityEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, SortByPriority(nil))
	assert.Empty(t, SortByPriority([]Action{}))
}

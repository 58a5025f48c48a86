package itinerary_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"transitsim/internal/itinerary"
)

func TestDispatcher_QueueAndPopDue(t *testing.T) {
	g := threeNodeChain(t)
	tpl, err := itinerary.Build("Loop", []string{"A", "B", "A"}, 0, 30, 120, g, "")
	require.NoError(t, err)

	d := itinerary.NewDispatcher(tpl)
	require.Equal(t, []int{0, 30, 60, 90, 120}, d.AllTimes())
	require.Equal(t, 5, d.Remaining())

	require.Empty(t, d.PopDue(-1))
	require.Equal(t, []int{0}, d.PopDue(0))
	require.Equal(t, 4, d.Remaining())
	require.Empty(t, d.PopDue(0), "pops are strictly from the head; no re-popping the same minute")
	require.Empty(t, d.PopDue(15))
	require.Equal(t, []int{30}, d.PopDue(30))
	require.Equal(t, 3, d.Remaining())
}

func TestDispatcher_SetHeadwayRebuildsFromCurrentHead(t *testing.T) {
	g := threeNodeChain(t)
	tpl, err := itinerary.Build("Loop", []string{"A", "B", "A"}, 0, 30, 90, g, "")
	require.NoError(t, err)

	d := itinerary.NewDispatcher(tpl)
	d.SetHeadway(15)
	require.Equal(t, []int{0, 15, 30, 45, 60, 75, 90}, d.AllTimes())
	require.Equal(t, 15, tpl.HeadwayMinutes)
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewProgressSnapshot(t *testing.T) {
	progress := NewProgressSnapshot(3)
	require.Len(t, progress, 3)
	for i, p := range progress {
		require.Equal(t, i, p.ExerciseIndex)
		require.False(t, p.Completed)
		require.Nil(t, p.CompletedAt)
	}

	require.Empty(t, NewProgressSnapshot(0))
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name     string
		progress []ExerciseProgress
		want     AssignmentStatus
	}{
		{"none completed", NewProgressSnapshot(3), StatusAssigned},
		{"some completed", []ExerciseProgress{{Completed: true}, {}, {}}, StatusInProgress},
		{"all but one", []ExerciseProgress{{Completed: true}, {Completed: true}, {}}, StatusInProgress},
		{"all completed", []ExerciseProgress{{Completed: true}, {Completed: true}}, StatusCompleted},
		{"single exercise done", []ExerciseProgress{{Completed: true}}, StatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DeriveStatus(tt.progress))
		})
	}
}

func TestRecomputeStatus(t *testing.T) {
	now := time.Now().UTC()

	a := WorkoutAssignment{
		Status:   StatusAssigned,
		Progress: []ExerciseProgress{{Completed: true}, {}},
	}
	require.True(t, a.RecomputeStatus(now))
	require.Equal(t, StatusInProgress, a.Status)
	require.Nil(t, a.CompletedAt)

	// No change when the derived status matches.
	require.False(t, a.RecomputeStatus(now))

	a.Progress[1].Completed = true
	require.True(t, a.RecomputeStatus(now))
	require.Equal(t, StatusCompleted, a.Status)
	require.NotNil(t, a.CompletedAt)
	require.Equal(t, now, *a.CompletedAt)

	// An existing completion timestamp is preserved.
	later := now.Add(time.Hour)
	a.Status = StatusInProgress
	require.True(t, a.RecomputeStatus(later))
	require.Equal(t, now, *a.CompletedAt)
}

func TestRecomputeStatusSkippedIsSticky(t *testing.T) {
	a := WorkoutAssignment{
		Status:   StatusSkipped,
		Progress: []ExerciseProgress{{Completed: true}, {Completed: true}},
	}
	require.False(t, a.RecomputeStatus(time.Now()))
	require.Equal(t, StatusSkipped, a.Status)
	require.Nil(t, a.CompletedAt)
}

func TestValidStatus(t *testing.T) {
	for _, s := range []AssignmentStatus{StatusAssigned, StatusInProgress, StatusCompleted, StatusSkipped} {
		require.True(t, ValidStatus(s))
	}
	require.False(t, ValidStatus("paused"))
	require.False(t, ValidStatus(""))
}

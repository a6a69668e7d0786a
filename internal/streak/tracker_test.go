package streak_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/streak"
)

var today = models.NewDate(2024, 6, 10)

func TestOnPractice(t *testing.T) {
	tests := []struct {
		name       string
		in         streak.State
		want       streak.State
		transition streak.Transition
	}{
		{
			name:       "already credited today",
			in:         streak.State{Streak: 3, LastPracticeDate: today, FreezeCount: 1},
			want:       streak.State{Streak: 3, LastPracticeDate: today, FreezeCount: 1},
			transition: streak.Unchanged,
		},
		{
			name:       "practiced yesterday extends",
			in:         streak.State{Streak: 4, LastPracticeDate: today.AddDays(-1)},
			want:       streak.State{Streak: 5, LastPracticeDate: today},
			transition: streak.Extended,
		},
		{
			name:       "gap with freeze keeps run",
			in:         streak.State{Streak: 7, LastPracticeDate: today.AddDays(-3), FreezeCount: 1},
			want:       streak.State{Streak: 7, LastPracticeDate: today, FreezeCount: 0},
			transition: streak.Frozen,
		},
		{
			name:       "gap without freeze restarts",
			in:         streak.State{Streak: 7, LastPracticeDate: today.AddDays(-3)},
			want:       streak.State{Streak: 1, LastPracticeDate: today},
			transition: streak.Restarted,
		},
		{
			name:       "first ever practice",
			in:         streak.State{},
			want:       streak.State{Streak: 1, LastPracticeDate: today},
			transition: streak.Restarted,
		},
		{
			name:       "broken run still spends freeze",
			in:         streak.State{Streak: 0, LastPracticeDate: today.AddDays(-3), FreezeCount: 1},
			want:       streak.State{Streak: 0, LastPracticeDate: today, FreezeCount: 0},
			transition: streak.Frozen,
		},
		{
			name:       "first ever practice with banked freeze",
			in:         streak.State{FreezeCount: 2},
			want:       streak.State{Streak: 0, LastPracticeDate: today, FreezeCount: 1},
			transition: streak.Frozen,
		},
		{
			name:       "clock behind last practice",
			in:         streak.State{Streak: 2, LastPracticeDate: today.AddDays(1)},
			want:       streak.State{Streak: 2, LastPracticeDate: today.AddDays(1)},
			transition: streak.Unchanged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, tr := streak.OnPractice(tt.in, today)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.transition, tr)
		})
	}
}

func TestOnPractice_SameDayTwice(t *testing.T) {
	s := streak.State{Streak: 1, LastPracticeDate: today.AddDays(-1)}

	first, _ := streak.OnPractice(s, today)
	second, tr := streak.OnPractice(first, today)
	assert.Equal(t, first, second)
	assert.Equal(t, streak.Unchanged, tr)
	assert.Equal(t, 2, second.Streak)
}

func TestDecay(t *testing.T) {
	tests := []struct {
		name       string
		in         streak.State
		want       streak.State
		transition streak.Transition
	}{
		{
			name:       "practiced today",
			in:         streak.State{Streak: 3, LastPracticeDate: today},
			want:       streak.State{Streak: 3, LastPracticeDate: today},
			transition: streak.Unchanged,
		},
		{
			name:       "practiced yesterday",
			in:         streak.State{Streak: 3, LastPracticeDate: today.AddDays(-1)},
			want:       streak.State{Streak: 3, LastPracticeDate: today.AddDays(-1)},
			transition: streak.Unchanged,
		},
		{
			name:       "missed day with freeze",
			in:         streak.State{Streak: 3, LastPracticeDate: today.AddDays(-2), FreezeCount: 2},
			want:       streak.State{Streak: 3, LastPracticeDate: today.AddDays(-1), FreezeCount: 1},
			transition: streak.Frozen,
		},
		{
			name:       "missed day without freeze",
			in:         streak.State{Streak: 3, LastPracticeDate: today.AddDays(-2)},
			want:       streak.State{Streak: 0, LastPracticeDate: today.AddDays(-2)},
			transition: streak.Reset,
		},
		{
			name:       "nothing to protect",
			in:         streak.State{Streak: 0, LastPracticeDate: today.AddDays(-9), FreezeCount: 1},
			want:       streak.State{Streak: 0, LastPracticeDate: today.AddDays(-9), FreezeCount: 1},
			transition: streak.Unchanged,
		},
		{
			name:       "never practiced",
			in:         streak.State{},
			want:       streak.State{},
			transition: streak.Unchanged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, tr := streak.Decay(tt.in, today)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.transition, tr)
		})
	}
}

func TestDecay_Idempotent(t *testing.T) {
	inputs := []streak.State{
		{Streak: 5, LastPracticeDate: today.AddDays(-2), FreezeCount: 1},
		{Streak: 5, LastPracticeDate: today.AddDays(-4)},
	}

	for _, in := range inputs {
		once, _ := streak.Decay(in, today)
		twice, tr := streak.Decay(once, today)
		assert.Equal(t, once, twice)
		assert.Equal(t, streak.Unchanged, tr)
	}
}

func TestDecay_OneFreezePerMissedDay(t *testing.T) {
	s := streak.State{Streak: 10, LastPracticeDate: today, FreezeCount: 2}

	// Three missed days: the sweeps on the mornings after each of them act.
	for night := 1; night <= 4; night++ {
		s, _ = streak.Decay(s, today.AddDays(night))
	}

	assert.Equal(t, 0, s.FreezeCount)
	assert.Equal(t, 0, s.Streak)
}

func TestDecay_ThenPracticeExtends(t *testing.T) {
	s := streak.State{Streak: 4, LastPracticeDate: today.AddDays(-2), FreezeCount: 1}

	s, _ = streak.Decay(s, today)
	s, tr := streak.OnPractice(s, today)

	assert.Equal(t, streak.Extended, tr)
	assert.Equal(t, 5, s.Streak)
	assert.Equal(t, today, s.LastPracticeDate)
}

func TestUseFreeze(t *testing.T) {
	s := streak.State{Streak: 3, LastPracticeDate: today.AddDays(-2), FreezeCount: 1}

	got, err := streak.UseFreeze(s, today)
	require.NoError(t, err)
	assert.Equal(t, 0, got.FreezeCount)
	assert.Equal(t, today, got.LastPracticeDate)
	assert.Equal(t, 3, got.Streak)

	_, err = streak.UseFreeze(got, today)
	assert.ErrorIs(t, err, streak.ErrNoFreezeAvailable)

	_, err = streak.UseFreeze(streak.State{FreezeCount: 1, LastPracticeDate: today}, today)
	assert.ErrorIs(t, err, streak.ErrAlreadyPracticed)
}

func TestBuyFreeze(t *testing.T) {
	xp, freezes, err := streak.BuyFreeze(250, 0, streak.FreezeCost)
	require.NoError(t, err)
	assert.Equal(t, 50, xp)
	assert.Equal(t, 1, freezes)

	xp, freezes, err = streak.BuyFreeze(199, 1, streak.FreezeCost)
	assert.ErrorIs(t, err, streak.ErrInsufficientXP)
	assert.Equal(t, 199, xp)
	assert.Equal(t, 1, freezes)

	xp, _, err = streak.BuyFreeze(200, 0, streak.FreezeCost)
	require.NoError(t, err)
	assert.Equal(t, 0, xp)
}

func TestStatus(t *testing.T) {
	st := streak.Status(streak.State{Streak: 2, LastPracticeDate: today}, today)
	assert.True(t, st.PracticedToday)
	assert.False(t, st.AtRisk)

	st = streak.Status(streak.State{Streak: 2, LastPracticeDate: today.AddDays(-1)}, today)
	assert.False(t, st.PracticedToday)
	assert.True(t, st.AtRisk)

	st = streak.Status(streak.State{}, today)
	assert.False(t, st.PracticedToday)
	assert.False(t, st.AtRisk)
}

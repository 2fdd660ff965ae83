package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingdaily/ping-server/internal/store"
)

// 2024-01-15 is a Monday.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, 1, day, hour, minute, 0, 0, time.UTC)
}

func settings(interval int, start, end string, days ...int) store.Settings {
	return store.Settings{
		UserID:     "u1",
		Enabled:    true,
		Interval:   interval,
		StartTime:  start,
		EndTime:    end,
		DaysOfWeek: days,
	}
}

func TestDue_IntervalGrid(t *testing.T) {
	for _, interval := range []int{1, 15, 30, 60} {
		for _, hour := range []int{0, 9, 10, 13, 23} {
			for minute := 0; minute < 60; minute++ {
				due, reason, err := Due(settings(interval, "", ""), at(15, hour, minute), time.UTC)
				require.NoError(t, err)
				want := minute%interval == 0
				assert.Equal(t, want, due, "interval=%d at %02d:%02d", interval, hour, minute)
				if !want {
					assert.Equal(t, ReasonOffInterval, reason)
				}
			}
		}
	}
}

func TestDue_TwoHourIntervalFiresOnEvenHours(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		for minute := 0; minute < 60; minute++ {
			due, _, err := Due(settings(120, "", ""), at(15, hour, minute), time.UTC)
			require.NoError(t, err)
			assert.Equal(t, hour%2 == 0 && minute == 0, due, "%02d:%02d", hour, minute)
		}
	}
}

func TestDue_Window(t *testing.T) {
	st := settings(60, "09:00", "17:00")
	tests := []struct {
		hour   int
		due    bool
		reason Reason
	}{
		{8, false, ReasonOutsideWindow},
		{9, true, ""},
		{12, true, ""},
		{17, true, ""},
		{18, false, ReasonOutsideWindow},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%02d:00", tt.hour), func(t *testing.T) {
			due, reason, err := Due(st, at(15, tt.hour, 0), time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tt.due, due)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestDue_MissingWindowBoundSkipsCheck(t *testing.T) {
	for _, st := range []store.Settings{
		settings(60, "", ""),
		settings(60, "09:00", ""),
		settings(60, "", "17:00"),
	} {
		due, _, err := Due(st, at(15, 3, 0), time.UTC)
		require.NoError(t, err)
		assert.True(t, due, "start=%q end=%q", st.StartTime, st.EndTime)
	}
}

func TestDue_Days(t *testing.T) {
	weekdays := settings(60, "", "", 1, 2, 3, 4, 5)

	due, _, err := Due(weekdays, at(15, 10, 0), time.UTC) // Monday
	require.NoError(t, err)
	assert.True(t, due)

	due, reason, err := Due(weekdays, at(20, 10, 0), time.UTC) // Saturday
	require.NoError(t, err)
	assert.False(t, due)
	assert.Equal(t, ReasonDayExcluded, reason)

	// Empty set means every day.
	for day := 14; day <= 20; day++ {
		due, _, err := Due(settings(60, "", ""), at(day, 10, 0), time.UTC)
		require.NoError(t, err)
		assert.True(t, due, "day %d", day)
	}
}

func TestDue_DuplicateGuard(t *testing.T) {
	st := settings(30, "", "")

	same := at(15, 10, 30).Add(20 * time.Second)
	st.LastPingTime = &same
	due, reason, err := Due(st, at(15, 10, 30), time.UTC)
	require.NoError(t, err)
	assert.False(t, due)
	assert.Equal(t, ReasonAlreadyPinged, reason)

	earlier := at(15, 10, 0)
	st.LastPingTime = &earlier
	due, _, err = Due(st, at(15, 10, 30), time.UTC)
	require.NoError(t, err)
	assert.True(t, due)

	// Only the clock time is compared: yesterday 10:30 also suppresses today 10:30.
	yesterday := at(14, 10, 30)
	st.LastPingTime = &yesterday
	due, reason, err = Due(st, at(15, 10, 30), time.UTC)
	require.NoError(t, err)
	assert.False(t, due)
	assert.Equal(t, ReasonAlreadyPinged, reason)
}

func TestDue_WorkdayScenario(t *testing.T) {
	tests := []struct {
		name   string
		st     store.Settings
		now    time.Time
		due    bool
		reason Reason
	}{
		{"hourly monday 10:00", settings(60, "09:00", "18:00", 1, 2, 3, 4, 5), at(15, 10, 0), true, ""},
		{"hourly monday 10:05", settings(60, "09:00", "18:00", 1, 2, 3, 4, 5), at(15, 10, 5), false, ReasonOffInterval},
		{"hourly saturday 10:00", settings(60, "09:00", "18:00", 1, 2, 3, 4, 5), at(20, 10, 0), false, ReasonDayExcluded},
		{"hourly monday 19:00", settings(60, "09:00", "18:00", 1, 2, 3, 4, 5), at(15, 19, 0), false, ReasonOutsideWindow},
		{"hourly monday 18:00", settings(60, "09:00", "18:00", 1, 2, 3, 4, 5), at(15, 18, 0), true, ""},
		{"half-hour monday 10:30", settings(30, "09:00", "17:00", 1, 2, 3, 4, 5), at(15, 10, 30), true, ""},
		{"half-hour monday 10:05", settings(30, "09:00", "17:00", 1, 2, 3, 4, 5), at(15, 10, 5), false, ReasonOffInterval},
		{"half-hour saturday 10:00", settings(30, "09:00", "17:00", 1, 2, 3, 4, 5), at(20, 10, 0), false, ReasonDayExcluded},
		{"half-hour monday 17:30", settings(30, "09:00", "17:00", 1, 2, 3, 4, 5), at(15, 17, 30), false, ReasonOutsideWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due, reason, err := Due(tt.st, tt.now, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tt.due, due)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestDue_EvaluatesInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	st := settings(60, "09:00", "17:00", 1)

	// 08:00 UTC is 10:00 in loc.
	due, _, err := Due(st, at(15, 8, 0), loc)
	require.NoError(t, err)
	assert.True(t, due)

	// 16:00 UTC is 18:00 in loc.
	due, reason, err := Due(st, at(15, 16, 0), loc)
	require.NoError(t, err)
	assert.False(t, due)
	assert.Equal(t, ReasonOutsideWindow, reason)
}

func TestDue_MalformedSettings(t *testing.T) {
	_, _, err := Due(settings(60, "9:00", "17:00"), at(15, 10, 0), time.UTC)
	assert.Error(t, err)

	_, _, err = Due(settings(60, "09:00", "25:00"), at(15, 10, 0), time.UTC)
	assert.Error(t, err)

	_, _, err = Due(settings(0, "", ""), at(15, 10, 0), time.UTC)
	assert.ErrorIs(t, err, errBadInterval)
}

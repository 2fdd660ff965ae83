package scheduler

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/pingdaily/ping-server/internal/store"
)

// Reason explains why a user was not pinged in a given minute.
type Reason string

const (
	ReasonOutsideWindow Reason = "outside_window"
	ReasonDayExcluded   Reason = "day_excluded"
	ReasonOffInterval   Reason = "off_interval"
	ReasonAlreadyPinged Reason = "already_pinged"

	// ReasonNoSubscriptions is set by the scheduler, not Due: the user was
	// due but has no devices to deliver to.
	ReasonNoSubscriptions Reason = "no_subscriptions"
)

var errBadInterval = errors.New("interval must be positive")

// Due reports whether st should fire at now, evaluated on the wall clock of
// loc. Checks run in order: active window, active days, interval, duplicate
// guard. A malformed settings record yields an error, never a fire.
//
// The interval is measured in minutes since local midnight, so a 30-minute
// interval fires at :00 and :30 and a 120-minute one only on even hours.
//
// The duplicate guard compares hour and minute only. A lastPingTime from an
// earlier day at the same clock time also suppresses the fire.
func Due(st store.Settings, now time.Time, loc *time.Location) (bool, Reason, error) {
	local := now.In(loc)
	minutes := local.Hour()*60 + local.Minute()

	if st.StartTime != "" && st.EndTime != "" {
		start, err := store.ParseClock(st.StartTime)
		if err != nil {
			return false, "", fmt.Errorf("start time: %w", err)
		}
		end, err := store.ParseClock(st.EndTime)
		if err != nil {
			return false, "", fmt.Errorf("end time: %w", err)
		}
		if minutes < start || minutes > end {
			return false, ReasonOutsideWindow, nil
		}
	}

	if len(st.DaysOfWeek) > 0 && !slices.Contains(st.DaysOfWeek, int(local.Weekday())) {
		return false, ReasonDayExcluded, nil
	}

	if st.Interval <= 0 {
		return false, "", fmt.Errorf("%w: %d", errBadInterval, st.Interval)
	}
	if minutes%st.Interval != 0 {
		return false, ReasonOffInterval, nil
	}

	if st.LastPingTime != nil {
		last := st.LastPingTime.In(loc)
		if last.Hour() == local.Hour() && last.Minute() == local.Minute() {
			return false, ReasonAlreadyPinged, nil
		}
	}

	return true, "", nil
}

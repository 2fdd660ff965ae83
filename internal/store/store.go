// Package store holds the data model of the ping server and its Postgres
// persistence: notification settings, push subscriptions, the notification
// ledger and hourly time entries.
//
// Every record is owned by exactly one user id. Queries that address a record
// by id are always scoped by user id as well.
package store

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidSettings = errors.New("invalid notification settings")
	ErrInvalidEntry    = errors.New("invalid time entry")
	ErrInvalidCategory = errors.New("invalid category")
)

// --------------------------------------------------------------------------
// Categories
// --------------------------------------------------------------------------

// Category is one of the fixed activity types a time slot can be logged as.
type Category string

const (
	CategoryWork     Category = "work"
	CategorySocial   Category = "social"
	CategoryExercise Category = "exercise"
	CategoryCommute  Category = "commute"
	CategoryMeals    Category = "meals"
	CategorySleep    Category = "sleep"
	CategoryLeisure  Category = "leisure"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryWork, CategorySocial, CategoryExercise, CategoryCommute,
	CategoryMeals, CategorySleep, CategoryLeisure,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// ParseCategory converts a wire value into a category. The empty string maps
// to nil (unassigned).
func ParseCategory(s string) (*Category, error) {
	if s == "" {
		return nil, nil
	}
	c := Category(s)
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return &c, nil
}

// Action is a quick-reply identifier sent back by a notification tap.
type Action struct {
	Category Category
	Label    string
}

// Actions maps notification action ids to the category they log.
var Actions = map[string]Action{
	"working": {Category: CategoryWork, Label: "Working"},
	"meeting": {Category: CategoryWork, Label: "Meeting"},
	"break":   {Category: CategoryLeisure, Label: "Break"},
}

// ResolveAction returns the logged category and label for a notification action.
func ResolveAction(action string) (Action, error) {
	a, ok := Actions[action]
	if !ok {
		return Action{}, fmt.Errorf("%w: unknown action %q", ErrInvalidCategory, action)
	}
	return a, nil
}

// --------------------------------------------------------------------------
// Notification settings
// --------------------------------------------------------------------------

// AllowedIntervals are the ping intervals, in minutes, a user may choose.
var AllowedIntervals = []int{1, 15, 30, 60, 120}

const (
	DefaultInterval  = 60
	DefaultStartTime = "09:00"
	DefaultEndTime   = "18:00"
)

// Settings is the per-user notification configuration.
type Settings struct {
	UserID       string     `json:"userId"`
	Enabled      bool       `json:"enabled"`
	Interval     int        `json:"interval"`
	StartTime    string     `json:"startTime"`
	EndTime      string     `json:"endTime"`
	DaysOfWeek   []int      `json:"daysOfWeek"`
	LastPingTime *time.Time `json:"lastPingTime,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// DefaultSettings returns the configuration a user starts with: disabled,
// hourly, 09:00 to 18:00, Monday to Friday.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:     userID,
		Enabled:    false,
		Interval:   DefaultInterval,
		StartTime:  DefaultStartTime,
		EndTime:    DefaultEndTime,
		DaysOfWeek: []int{1, 2, 3, 4, 5},
	}
}

// Validate checks the invariants of a settings record.
func (s Settings) Validate() error {
	if !slices.Contains(AllowedIntervals, s.Interval) {
		return fmt.Errorf("%w: interval %d not in %v", ErrInvalidSettings, s.Interval, AllowedIntervals)
	}
	for _, d := range s.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: day of week %d out of range", ErrInvalidSettings, d)
		}
	}
	if s.StartTime != "" {
		if _, err := ParseClock(s.StartTime); err != nil {
			return fmt.Errorf("%w: startTime: %v", ErrInvalidSettings, err)
		}
	}
	if s.EndTime != "" {
		if _, err := ParseClock(s.EndTime); err != nil {
			return fmt.Errorf("%w: endTime: %v", ErrInvalidSettings, err)
		}
	}
	// Lexical order on zero-padded HH:MM; windows crossing midnight are not supported.
	if s.StartTime != "" && s.EndTime != "" && s.StartTime > s.EndTime {
		return fmt.Errorf("%w: startTime %s after endTime %s", ErrInvalidSettings, s.StartTime, s.EndTime)
	}
	return nil
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// --------------------------------------------------------------------------
// Push subscriptions
// --------------------------------------------------------------------------

// Keys is the encryption material a browser hands out with a subscription.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is one registered push endpoint (device/browser) of a user.
type Subscription struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Endpoint  string    `json:"endpoint"`
	Keys      Keys      `json:"keys"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	LastUsed  time.Time `json:"lastUsed"`
}

// --------------------------------------------------------------------------
// Notification ledger
// --------------------------------------------------------------------------

// Ledger entry sources.
const (
	SourceScheduler = "scheduler"
	SourceManual    = "manual"
	SourceTest      = "test"
	SourceAPI       = "api"
)

// Metadata is the typed metadata block attached to a ledger entry.
type Metadata struct {
	Interval       *int      `json:"interval,omitempty"`
	Source         string    `json:"source,omitempty"`
	LoggedCategory *Category `json:"loggedCategory,omitempty"`
	CustomText     string    `json:"customText,omitempty"`
	Action         string    `json:"action,omitempty"`
}

// Notification is a ledger entry: one ping issued to a user.
type Notification struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Message        string     `json:"message"`
	Category       *Category  `json:"category"`
	ActivityLogged bool       `json:"activityLogged"`
	Read           bool       `json:"read"`
	Timestamp      time.Time  `json:"timestamp"`
	ScheduledFor   *time.Time `json:"scheduledFor,omitempty"`
	Metadata       Metadata   `json:"metadata"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ListFilter selects a page of ledger entries.
type ListFilter struct {
	Limit      int
	Skip       int
	UnreadOnly bool
}

// LedgerSummary holds the counters shown on the notifications page.
type LedgerSummary struct {
	Total        int     `json:"total"`
	Unread       int     `json:"unread"`
	Logged       int     `json:"logged"`
	ResponseRate float64 `json:"responseRate"`
}

// --------------------------------------------------------------------------
// Time entries
// --------------------------------------------------------------------------

// DateLayout is the wire format of TimeEntry.Date.
const DateLayout = "2006-01-02"

// TimeEntry records what a user did in one hourly slot of one day.
type TimeEntry struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"userId"`
	Hour           int       `json:"hour"`
	Date           string    `json:"date"`
	CategoryID     *Category `json:"categoryId"`
	CustomText     string    `json:"customText,omitempty"`
	Timestamp      int64     `json:"timestamp"`
	NotificationID *string   `json:"notificationId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Validate checks hour, date and category of a time entry.
func (e TimeEntry) Validate() error {
	if e.Hour < 0 || e.Hour > 23 {
		return fmt.Errorf("%w: hour must be between 0 and 23", ErrInvalidEntry)
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidEntry)
	}
	if e.CategoryID != nil && !e.CategoryID.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, *e.CategoryID)
	}
	return nil
}

// DateRange bounds a time entry query; empty bounds are open.
type DateRange struct {
	Start string `json:"startDate,omitempty"`
	End   string `json:"endDate,omitempty"`
}

// UnassignedKey is the summary bucket for entries without a category.
const UnassignedKey = "unassigned"

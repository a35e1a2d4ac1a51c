package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ActiveBookingStatuses are the non-terminal statuses the auto-completion
// sweep considers for promotion.
var ActiveBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
}

// IsTerminal reports whether no further transitions are permitted.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

type Booking struct {
	BaseUUIDModel
	UserID      uuid.UUID     `gorm:"type:uuid;not null;index"        json:"userId"`
	User        User          `gorm:"foreignKey:UserID"               json:"-"`
	CenterID    uuid.UUID     `gorm:"type:uuid;not null;index"        json:"centerId"`
	Center      Center        `gorm:"foreignKey:CenterID"             json:"-"`
	ChildID     uuid.UUID     `gorm:"type:uuid;not null"              json:"childId"`
	Child       Child         `gorm:"foreignKey:ChildID"              json:"-"`
	CenterName  string        `gorm:"type:text"                       json:"centerName"`
	ChildName   string        `gorm:"type:text"                       json:"childName"`
	StartDate   time.Time     `gorm:"not null"                        json:"startDate"`
	EndDate     time.Time     `gorm:"not null"                        json:"endDate"`
	Status      BookingStatus `gorm:"type:text;not null;default:pending" json:"status"`
	Rescheduled bool          `gorm:"type:bool;default:false"         json:"rescheduled"`
}

// Overdue reports whether the booking should be auto-completed: still in an
// active status with its end date already behind the given instant.
func (b *Booking) Overdue(now time.Time) bool {
	return b.Status.IsActive() && b.EndDate.Before(now)
}

// HasCompletedBooking reports whether any booking counts as a completed
// stay: explicitly completed, or past its end date. The elapsed-date clause
// keeps the answer honest when a stay ended between sweep runs. Shared by
// the booking status check and the review-eligibility gate.
func HasCompletedBooking(bookings []Booking, now time.Time) bool {
	for _, booking := range bookings {
		if booking.Status == BookingStatusCompleted {
			return true
		}
		if booking.EndDate.Before(now) {
			return true
		}
	}
	return false
}

// BookingBuckets is the categorized view returned by the list endpoint.
type BookingBuckets struct {
	Current   []Booking `json:"current"`
	Past      []Booking `json:"past"`
	Cancelled []Booking `json:"cancelled"`
}

// CategorizeBookings partitions bookings into current/past/cancelled views.
// Precedence per booking: cancelled status, completed status, elapsed end
// date (displayed as completed), everything else is current — including
// in-progress bookings whose start date has passed but whose end date has
// not. Each bucket is sorted by start date, most recent first.
func CategorizeBookings(bookings []Booking, now time.Time) BookingBuckets {
	buckets := BookingBuckets{
		Current:   []Booking{},
		Past:      []Booking{},
		Cancelled: []Booking{},
	}

	for _, booking := range bookings {
		switch {
		case booking.Status == BookingStatusCancelled:
			buckets.Cancelled = append(buckets.Cancelled, booking)
		case booking.Status == BookingStatusCompleted:
			buckets.Past = append(buckets.Past, booking)
		case booking.EndDate.Before(now):
			// Display safety net: the sweep persists this promotion, but the
			// view must agree with the clock even if it raced the sweep.
			booking.Status = BookingStatusCompleted
			buckets.Past = append(buckets.Past, booking)
		default:
			buckets.Current = append(buckets.Current, booking)
		}
	}

	sortByStartDateDesc(buckets.Current)
	sortByStartDateDesc(buckets.Past)
	sortByStartDateDesc(buckets.Cancelled)

	return buckets
}

func sortByStartDateDesc(bookings []Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].StartDate.After(bookings[j].StartDate)
	})
}

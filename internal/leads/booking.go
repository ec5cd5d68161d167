package leads

import (
	"slices"
	"strings"
	"time"
)

// DateLayout is the wire format of booking dates
const DateLayout = "2006-01-02"

// TimeSlots lists the bookable call times
var TimeSlots = []string{
	"09:00 AM", "10:00 AM", "11:00 AM", "12:00 PM",
	"02:00 PM", "03:00 PM", "04:00 PM", "05:00 PM",
}

// BookingRequest schedules a call with the sales team
type BookingRequest struct {
	Date  string `json:"date"`
	Slot  string `json:"slot"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Validate checks the request against today's date in loc. Missing fields
// are reported together; date rules are only checked once a date is given.
func (b BookingRequest) Validate(today time.Time, loc *time.Location) error {
	var errs fieldErrors

	if blank(b.Date) {
		errs.add("date", "Date is required")
	} else if date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(b.Date), loc); err != nil {
		errs.add("date", "Date must be YYYY-MM-DD")
	} else if !Bookable(date, today) {
		errs.add("date", "Date must be a weekday, today or later")
	}

	switch {
	case blank(b.Slot):
		errs.add("slot", "Time slot is required")
	case !slices.Contains(TimeSlots, b.Slot):
		errs.add("slot", "Unknown time slot")
	}
	if blank(b.Name) {
		errs.add("name", "Name is required")
	}
	switch {
	case blank(b.Email):
		errs.add("email", "Email is required")
	case !ValidEmail(strings.TrimSpace(b.Email)):
		errs.add("email", "Invalid email format")
	}
	if blank(b.Phone) {
		errs.add("phone", "Phone is required")
	}
	return errs.err()
}

// MissingFields reports whether any required field is empty
func (b BookingRequest) MissingFields() bool {
	return blank(b.Date) || blank(b.Slot) || blank(b.Name) || blank(b.Email) || blank(b.Phone)
}

// Bookable reports whether date is a weekday on or after today's calendar day
func Bookable(date, today time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !startOfDay(date).Before(startOfDay(today.In(date.Location())))
}

// AvailableDays returns the bookable days of the given month
func AvailableDays(year int, month time.Month, today time.Time, loc *time.Location) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	var days []time.Time
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		if Bookable(d, today) {
			days = append(days, d)
		}
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

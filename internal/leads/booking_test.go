package leads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Monday 2026-10-05
var monday = time.Date(2026, 10, 5, 15, 30, 0, 0, time.UTC)

func TestBookable(t *testing.T) {
	tests := []struct {
		date string
		want bool
	}{
		{"2026-10-05", true},  // today
		{"2026-10-02", false}, // past Friday
		{"2026-10-09", true},  // Friday
		{"2026-10-10", false}, // Saturday
		{"2026-10-11", false}, // Sunday
		{"2026-10-12", true},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, err := time.ParseInLocation(DateLayout, tt.date, time.UTC)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, Bookable(d, monday))
		})
	}
}

func TestAvailableDays(t *testing.T) {
	days := AvailableDays(2026, time.October, monday, time.UTC)

	var got []int
	for _, d := range days {
		got = append(got, d.Day())
	}
	assert.Equal(t, []int{5, 6, 7, 8, 9, 12, 13, 14, 15, 16, 19, 20, 21, 22, 23, 26, 27, 28, 29, 30}, got)

	assert.Empty(t, AvailableDays(2026, time.September, monday, time.UTC))
	assert.Len(t, AvailableDays(2026, time.November, monday, time.UTC), 21)
}

func TestBookingRequest_Validate(t *testing.T) {
	valid := BookingRequest{Date: "2026-10-07", Slot: "10:00 AM", Name: "Li Wei", Email: "li@hk.example", Phone: "+852 5555 0000"}
	assert.NoError(t, valid.Validate(monday, time.UTC))
	assert.False(t, valid.MissingFields())

	tests := []struct {
		name   string
		modify func(b *BookingRequest)
		field  string
	}{
		{"weekend", func(b *BookingRequest) { b.Date = "2026-10-10" }, "date"},
		{"past", func(b *BookingRequest) { b.Date = "2026-09-30" }, "date"},
		{"bad format", func(b *BookingRequest) { b.Date = "07/10/2026" }, "date"},
		{"unknown slot", func(b *BookingRequest) { b.Slot = "01:00 PM" }, "slot"},
		{"bad email", func(b *BookingRequest) { b.Email = "li" }, "email"},
		{"missing phone", func(b *BookingRequest) { b.Phone = "" }, "phone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.modify(&b)
			assert.Contains(t, fields(t, b.Validate(monday, time.UTC)), tt.field)
		})
	}

	assert.True(t, BookingRequest{}.MissingFields())
	assert.Len(t, fields(t, BookingRequest{}.Validate(monday, time.UTC)), 5)
}

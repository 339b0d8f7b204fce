package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name   string `json:"name" validate:"required,min=3" msg:"required=Name is required;min=Name must be at least 3 characters"`
	Mobile string `json:"mobile" validate:"required,mobile" msg:"*=Please enter a valid mobile number"`
	Digits string `json:"digits" validate:"omitempty,mindigits"`
	User   string `form:"username" validate:"omitempty,username"`
	Date   string `json:"date" validate:"omitempty,notpast" msg:"notpast=Event date cannot be in the past"`
}

func fixedClock() time.Time { return time.Date(2024, 1, 20, 15, 0, 0, 0, time.UTC) }

func TestStructValid(t *testing.T) {
	v := New(fixedClock)
	assert.Nil(t, v.Struct(sample{Name: "Green", Mobile: "+91 98765-43210", Digits: "12-34-56", User: "alice_1", Date: "2024-01-20"}))
}

func TestStructMessages(t *testing.T) {
	v := New(fixedClock)
	fields := v.Struct(&sample{Name: "ab", Mobile: "12345", Digits: "12a3", User: "bad name", Date: "2024-01-19"})

	assert.Equal(t, "Name must be at least 3 characters", fields["name"])
	assert.Equal(t, "Please enter a valid mobile number", fields["mobile"])
	assert.Equal(t, "digits is invalid", fields["digits"])
	assert.Equal(t, "username is invalid", fields["username"])
	assert.Equal(t, "Event date cannot be in the past", fields["date"])
}

func TestRequiredMessage(t *testing.T) {
	fields := New(fixedClock).Struct(sample{Mobile: "9876543210"})
	assert.Equal(t, "Name is required", fields["name"])
}

func TestMerge(t *testing.T) {
	assert.Nil(t, Merge(nil, nil))
	got := Merge(map[string]string{"a": "first"}, map[string]string{"a": "second", "b": "x"})
	assert.Equal(t, map[string]string{"a": "first", "b": "x"}, got)
}

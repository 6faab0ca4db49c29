package clock

import (
	"testing"
	"time"
)

func TestNow_ReturnsCurrentTime(t *testing.T) {
	before := time.Now()
	result := Now()
	after := time.Now()

	if result.Before(before) || result.After(after) {
		t.Errorf("Now() returned %v, expected between %v and %v", result, before, after)
	}
}

func TestMockClock_Now(t *testing.T) {
	mockTime := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	mock := NewMockClock(mockTime)

	if got := mock.Now(); !got.Equal(mockTime) {
		t.Errorf("MockClock.Now() returned %v, expected exactly %v", got, mockTime)
	}
}

func TestMockClock_Advance(t *testing.T) {
	mockTime := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	mock := NewMockClock(mockTime)

	mock.Advance(time.Hour)

	expected := mockTime.Add(time.Hour)
	if got := mock.Now(); !got.Equal(expected) {
		t.Errorf("After Advance, Now() = %v, expected %v", got, expected)
	}
}

func TestMockClock_Set(t *testing.T) {
	mock := NewMockClock(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))

	newTime := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	mock.Set(newTime)

	if got := mock.Now(); !got.Equal(newTime) {
		t.Errorf("After Set, Now() = %v, expected %v", got, newTime)
	}
}

func TestOrReal(t *testing.T) {
	if _, ok := OrReal(nil).(*RealClock); !ok {
		t.Error("OrReal(nil) should return a RealClock")
	}
	mock := NewMockClock(time.Now())
	if OrReal(mock) != Clock(mock) {
		t.Error("OrReal should return the given clock unchanged")
	}
}

func TestStamp(t *testing.T) {
	ts := time.Date(2026, 10, 15, 9, 4, 5, 0, time.UTC)
	if got := Stamp(ts); got != "20261015-090405" {
		t.Errorf("Stamp() = %q, want %q", got, "20261015-090405")
	}
}

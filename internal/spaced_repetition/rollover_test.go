package spaced_repetition

import (
	"reflect"
	"testing"

	"github.com/hentity/fretty/pkg/models"
)

func TestPushBack(t *testing.T) {
	c := NewCalendar(5)
	c.Schedule(key(0, 1), day0, 0)
	c.Schedule(key(0, 2), day0, 3)
	c.Schedule(key(0, 3), day0, 3)

	today := day0.AddDays(4)
	if shift := c.PushBack(today); shift != 4 {
		t.Fatalf("shift = %d, want 4", shift)
	}
	if got := c.DueOn(today); !reflect.DeepEqual(got, []models.SpotKey{key(0, 1)}) {
		t.Errorf("today = %v", got)
	}
	if got := c.DueOn(today.AddDays(3)); !reflect.DeepEqual(got, []models.SpotKey{key(0, 2), key(0, 3)}) {
		t.Errorf("today+3 = %v", got)
	}
	if d, _ := c.DateOf(key(0, 3)); d != today.AddDays(3) {
		t.Errorf("DateOf = %s", d)
	}
	if err := c.Validate(); err != nil {
		t.Error(err)
	}

	if shift := c.PushBack(today); shift != 0 {
		t.Errorf("second PushBack shifted by %d", shift)
	}
}

func TestPushBackNoOp(t *testing.T) {
	c := NewCalendar(5)
	if shift := c.PushBack(day0); shift != 0 {
		t.Errorf("empty calendar shifted by %d", shift)
	}

	c.Schedule(key(0, 1), day0, 2)
	before := c.Clone()
	if shift := c.PushBack(day0); shift != 0 {
		t.Errorf("future schedule shifted by %d", shift)
	}
	if !reflect.DeepEqual(c, before) {
		t.Error("calendar changed")
	}
}

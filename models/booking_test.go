package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlotKeyForNormalizesToUTC(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)
	local := time.Date(2026, 3, 14, 1, 30, 0, 0, nairobi) // 2026-03-13 22:30 UTC

	assert.Equal(t, "2026-03-13T22", SlotKeyFor(local))
	assert.Equal(t, SlotKeyFor(local), SlotKeyFor(local.UTC()))
}

func TestBookingResourcePrecedence(t *testing.T) {
	b := &Booking{BusinessID: "biz-1", CourtID: "court-2", EmployeeID: "emp-3"}
	assert.Equal(t, "emp-3", b.Resource())

	b.EmployeeID = ""
	assert.Equal(t, "court-2", b.Resource())

	b.CourtID = ""
	assert.Equal(t, "biz-1", b.Resource())
}

package leavetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLeaveType(t *testing.T) {
	lt := NewLeaveType(" form ", " Formation ", "", 3, false, true)

	assert.Equal(t, "FORM", lt.Code)
	assert.Equal(t, "Formation", lt.Name)
	assert.Equal(t, 3, lt.AnnualQuota)
	assert.True(t, lt.Active)
	assert.True(t, lt.MayOverflowToGeneral)
	assert.NotEqual(t, [16]byte{}, [16]byte(lt.ID))
}

func TestLeaveType_OverflowsTo(t *testing.T) {
	form := &LeaveType{Code: "FORM", MayOverflowToGeneral: true}
	cp := &LeaveType{Code: "CP", MayOverflowToGeneral: true}
	rtt := &LeaveType{Code: "RTT", MayOverflowToGeneral: false}

	assert.True(t, form.OverflowsTo("CP"))
	assert.False(t, cp.OverflowsTo("cp"), "the general type never overflows into itself")
	assert.False(t, rtt.OverflowsTo("CP"))
	assert.True(t, cp.IsGeneral(" cp "))
}

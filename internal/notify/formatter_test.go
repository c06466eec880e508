package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"BloodConnect/internal/model"
)

func TestFormatMessage(t *testing.T) {
	e := EmergencyEvent{
		BloodGroup:   model.BloodGroupBPos,
		District:     "Hyderabad",
		Urgency:      model.UrgencyCritical,
		ContactName:  "Asha",
		ContactPhone: "9876543210",
		PatientName:  "Ravi",
	}

	want := "🚨 *URGENT BLOOD REQUEST* 🚨\n\n" +
		"🔴 *Priority: CRITICAL*\n\n" +
		"*Blood Group Needed:* B+\n" +
		"*Location:* Hyderabad\n" +
		"*Patient Name:* Ravi\n" +
		"\n*Contact Information:*\n" +
		"Name: Asha\n" +
		"Phone: 9876543210\n" +
		"\n━━━━━━━━━━━━━━━━━━━━\n" +
		"If you can help, please contact the requester directly.\n" +
		"Thank you for being a lifesaver! ❤️\n" +
		"\n_NSS BloodConnect System_"

	got := FormatMessage(e)
	assert.Equal(t, want, got)
	assert.Equal(t, got, FormatMessage(e))
}

func TestFormatMessage_OptionalLines(t *testing.T) {
	e := EmergencyEvent{
		BloodGroup:    model.BloodGroupONeg,
		District:      "Warangal Urban",
		Urgency:       model.UrgencyLow,
		ContactName:   "Kiran",
		ContactPhone:  "+919000000000",
		HospitalName:  "MGM",
		RequiredUnits: "2",
		Description:   "Surgery tomorrow",
	}

	got := FormatMessage(e)
	assert.Contains(t, got, "🟢 *Priority: LOW*")
	assert.Contains(t, got, "*Hospital:* MGM\n*Required Units:* 2\n*Details:* Surgery tomorrow\n")
	assert.NotContains(t, got, "Patient Name")
}

func TestEmailSubject(t *testing.T) {
	e := EmergencyEvent{BloodGroup: model.BloodGroupAPos, District: "Hyderabad"}
	assert.Equal(t, "🚨 URGENT: Blood Donation Request - A+ needed in Hyderabad", EmailSubject(e))
}

func TestEmergencyEvent_Validate(t *testing.T) {
	valid := EmergencyEvent{
		BloodGroup:   model.BloodGroupBPos,
		District:     "Hyderabad",
		Urgency:      model.UrgencyHigh,
		ContactName:  "Asha",
		ContactPhone: "9876543210",
	}
	assert.NoError(t, valid.Validate())

	e := valid
	e.BloodGroup = "C+"
	assert.Error(t, e.Validate())

	e = valid
	e.District = "Atlantis"
	assert.Error(t, e.Validate())

	e = valid
	e.Urgency = "whenever"
	assert.Error(t, e.Validate())

	e = valid
	e.ContactPhone = "  "
	assert.Error(t, e.Validate())
}

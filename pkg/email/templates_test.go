package email

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminEmergencyHTML(t *testing.T) {
	d := AdminEmergency{
		RequestedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		RequestID:      "1234",
		Urgency:        "critical",
		PatientName:    "<b>Ravi</b>",
		BloodGroup:     "B+",
		District:       "Hyderabad",
		RequesterName:  "Asha",
		RequesterPhone: "9876543210",
		Volunteer: &Volunteer{
			Name:        "Kiran",
			RollNumber:  "21B01",
			IsAvailable: true,
		},
	}

	html, err := AdminEmergencyHTML(d)
	require.NoError(t, err)

	assert.Contains(t, html, "Priority: CRITICAL")
	assert.Contains(t, html, "&lt;b&gt;Ravi&lt;/b&gt;")
	assert.Contains(t, html, "Volunteer Information")
	assert.Contains(t, html, "✅ Available")
	assert.Contains(t, html, "Requested at: 02/01/2026, 08:34:05")
	assert.Contains(t, html, "<strong>Hospital:</strong> Not provided")
}

func TestAdminEmergencyHTML_WithoutVolunteer(t *testing.T) {
	html, err := AdminEmergencyHTML(AdminEmergency{Urgency: "low", BloodGroup: "O-", District: "Warangal"})
	require.NoError(t, err)
	assert.NotContains(t, html, "Volunteer Information")
}

func TestAdminEmergencySubject(t *testing.T) {
	s := AdminEmergencySubject(AdminEmergency{Urgency: "high", PatientName: "Ravi", BloodGroup: "A+", District: "Hyderabad"})
	assert.Equal(t, "🚨 donor EMERGENCY: HIGH Blood Request for Ravi - A+ in Hyderabad", s)
}

func TestVolunteerConfirmHTML(t *testing.T) {
	html, err := VolunteerConfirmHTML("Kiran", "B+", "", "Asha")
	require.NoError(t, err)
	assert.Contains(t, html, "Hello <strong>Kiran</strong>")
	assert.NotContains(t, html, "Patient:")
	assert.Equal(t, "NSS BloodConnect: Emergency Request Logged - B+", VolunteerConfirmSubject("B+"))
}

func TestBroadcastHTML(t *testing.T) {
	html, err := BroadcastHTML("Blood needed\nCall now", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, html, "Blood needed\nCall now")
	assert.Contains(t, html, "02/01/2026, 08:34:05")
}

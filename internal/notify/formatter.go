package notify

import (
	"fmt"
	"strings"

	"BloodConnect/internal/model"
)

var urgencyEmoji = map[model.Urgency]string{
	model.UrgencyLow:      "🟢",
	model.UrgencyMedium:   "🟡",
	model.UrgencyHigh:     "🟠",
	model.UrgencyCritical: "🔴",
}

// FormatMessage 纯函数，SMS、WhatsApp 与广播邮件正文共用同一份文本
func FormatMessage(e EmergencyEvent) string {
	var b strings.Builder

	b.WriteString("🚨 *URGENT BLOOD REQUEST* 🚨\n\n")
	fmt.Fprintf(&b, "%s *Priority: %s*\n\n", urgencyEmoji[e.Urgency], strings.ToUpper(string(e.Urgency)))

	fmt.Fprintf(&b, "*Blood Group Needed:* %s\n", e.BloodGroup)
	fmt.Fprintf(&b, "*Location:* %s\n", e.District)

	if e.PatientName != "" {
		fmt.Fprintf(&b, "*Patient Name:* %s\n", e.PatientName)
	}
	if e.HospitalName != "" {
		fmt.Fprintf(&b, "*Hospital:* %s\n", e.HospitalName)
	}
	if e.RequiredUnits != "" {
		fmt.Fprintf(&b, "*Required Units:* %s\n", e.RequiredUnits)
	}
	if e.Description != "" {
		fmt.Fprintf(&b, "*Details:* %s\n", e.Description)
	}

	b.WriteString("\n*Contact Information:*\n")
	fmt.Fprintf(&b, "Name: %s\n", e.ContactName)
	fmt.Fprintf(&b, "Phone: %s\n", e.ContactPhone)

	b.WriteString("\n━━━━━━━━━━━━━━━━━━━━\n")
	b.WriteString("If you can help, please contact the requester directly.\n")
	b.WriteString("Thank you for being a lifesaver! ❤️\n")
	b.WriteString("\n_NSS BloodConnect System_")

	return b.String()
}

// EmailSubject 广播邮件主题
func EmailSubject(e EmergencyEvent) string {
	return fmt.Sprintf("🚨 URGENT: Blood Donation Request - %s needed in %s", e.BloodGroup, e.District)
}

package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// 邮件时间统一按印度标准时间展示
var ist = time.FixedZone("IST", 5*3600+1800)

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
	"orDefault": func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	},
	"istTime": func(t time.Time) string {
		return t.In(ist).Format("02/01/2006, 15:04:05")
	},
}

var broadcastTmpl = template.Must(template.New("broadcast").Funcs(funcs).Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f8f9fa;">
  <div style="background-color: #dc3545; color: white; padding: 20px; border-radius: 8px 8px 0 0; text-align: center;">
    <h1 style="margin: 0; font-size: 24px;">🚨 EMERGENCY BLOOD REQUEST</h1>
  </div>
  <div style="background-color: white; padding: 30px; border-radius: 0 0 8px 8px;">
    <p style="white-space: pre-wrap; line-height: 1.5; margin: 0;">{{.Text}}</p>
    <div style="background-color: #e9ecef; padding: 20px; border-radius: 4px; margin-top: 30px;">
      <h3 style="color: #495057; margin-top: 0;">⚠️ Important Notes:</h3>
      <ul style="color: #495057; margin: 0; padding-left: 20px;">
        <li>Please contact the requester directly using the phone number provided</li>
        <li>Verify your blood group compatibility before donating</li>
        <li>Ensure you meet all donation requirements</li>
        <li>This is an urgent request - please respond promptly if you can help</li>
      </ul>
    </div>
    <p style="text-align: center; color: #6c757d; margin-top: 30px; font-size: 14px;">
      This email was sent from NSS BloodConnect Emergency System<br>
      <strong>Time:</strong> {{istTime .SentAt}}
    </p>
  </div>
</div>`))

// BroadcastHTML 把统一文本包成广播邮件的 HTML 部分
func BroadcastHTML(text string, sentAt time.Time) (string, error) {
	return render(broadcastTmpl, struct {
		SentAt time.Time
		Text   string
	}{SentAt: sentAt, Text: text})
}

// Volunteer 代为提交请求的已注册献血者
type Volunteer struct {
	Name           string
	RollNumber     string
	BloodGroup     string
	District       string
	Phone          string
	Email          string
	Department     string
	Year           string
	Section        string
	DonationStatus string
	IsAvailable    bool
}

// AdminEmergency 管理员紧急邮件的模板数据，RequestedAt 由调用方传入
type AdminEmergency struct {
	RequestedAt    time.Time
	Volunteer      *Volunteer
	RequestID      string
	Urgency        string
	PatientName    string
	BloodGroup     string
	District       string
	HospitalName   string
	RequiredUnits  string
	Description    string
	RequesterName  string
	RequesterPhone string
	RequesterEmail string
}

var adminEmergencyTmpl = template.Must(template.New("admin_emergency").Funcs(funcs).Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 2px solid #E63946; border-radius: 8px;">
  <div style="background: #E63946; color: white; padding: 15px; border-radius: 5px; margin-bottom: 20px;">
    <h1 style="margin: 0; font-size: 24px;">🚨 EMERGENCY BLOOD REQUEST</h1>
    <p style="margin: 5px 0 0 0; font-size: 16px;">Priority: {{upper .Urgency}}</p>
    <p style="margin: 5px 0 0 0; font-size: 12px; color: #ffeb3b;">Source: Registered Donor App</p>
    <p style="margin: 5px 0 0 0; font-size: 12px;">Request ID: {{.RequestID}}</p>
  </div>

  <div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin-bottom: 20px;">
    <h2 style="color: #E63946; margin-top: 0;">🏥 Patient Information</h2>
    <p><strong>Patient Name:</strong> {{orDefault .PatientName "Not specified"}}</p>
    <p><strong>Blood Group Needed:</strong> {{.BloodGroup}}</p>
    <p><strong>District:</strong> {{.District}}</p>
    <p><strong>Hospital:</strong> {{orDefault .HospitalName "Not provided"}}</p>
    <p><strong>Required Units:</strong> {{orDefault .RequiredUnits "Not specified"}}</p>
    <p><strong>Urgency:</strong> {{upper .Urgency}}</p>
    <p><strong>Additional Details:</strong> {{orDefault .Description "No additional details provided"}}</p>
  </div>

  <div style="background: #fff3cd; padding: 15px; border-radius: 5px; margin-bottom: 20px;">
    <h2 style="color: #E63946; margin-top: 0;">📞 Requester Information</h2>
    <p><strong>Requester Name:</strong> {{.RequesterName}}</p>
    <p><strong>Phone:</strong> {{.RequesterPhone}}</p>
    <p><strong>Email:</strong> {{orDefault .RequesterEmail "Not provided"}}</p>
  </div>
{{with .Volunteer}}
  <div style="background: #e8f4fd; padding: 15px; border-radius: 5px; margin-bottom: 20px;">
    <h2 style="color: #E63946; margin-top: 0;">👤 Volunteer Information</h2>
    <p><strong>Name:</strong> {{.Name}}</p>
    <p><strong>Roll Number:</strong> {{.RollNumber}}</p>
    <p><strong>Blood Group:</strong> {{.BloodGroup}}</p>
    <p><strong>District:</strong> {{.District}}</p>
    <p><strong>Phone:</strong> {{.Phone}}</p>
    <p><strong>Email:</strong> {{orDefault .Email "Not provided"}}</p>
    <p><strong>Department:</strong> {{.Department}}</p>
    <p><strong>Year:</strong> {{.Year}}</p>
    <p><strong>Section:</strong> {{.Section}}</p>
    <p><strong>Availability:</strong> {{if .IsAvailable}}✅ Available{{else}}❌ Unavailable{{end}}</p>
    <p><strong>Donation Status:</strong> {{.DonationStatus}}</p>
  </div>
{{end}}
  <div style="background: #fff3cd; padding: 15px; border-radius: 5px; border-left: 4px solid #ffc107;">
    <h3 style="color: #856404; margin-top: 0;">⚠️ Action Required</h3>
    <p style="margin: 0; color: #856404;">Please contact the requester ({{.RequesterName}}) immediately at {{.RequesterPhone}} and coordinate the blood donation process{{with .PatientName}} for patient {{.}}{{end}}.</p>
  </div>

  <div style="text-align: center; margin-top: 20px; padding-top: 15px; border-top: 1px solid #dee2e6;">
    <p style="color: #6c757d; font-size: 12px; margin: 0;">
      This notification was sent from NSS BloodConnect System<br>
      Requested at: {{istTime .RequestedAt}}
    </p>
  </div>
</div>`))

// AdminEmergencySubject 管理员邮件主题
func AdminEmergencySubject(d AdminEmergency) string {
	patient := d.PatientName
	if patient == "" {
		patient = "patient"
	}
	return fmt.Sprintf("🚨 donor EMERGENCY: %s Blood Request for %s - %s in %s",
		strings.ToUpper(d.Urgency), patient, d.BloodGroup, d.District)
}

func AdminEmergencyHTML(d AdminEmergency) (string, error) {
	return render(adminEmergencyTmpl, d)
}

var volunteerConfirmTmpl = template.Must(template.New("volunteer_confirm").Parse(`<div style="font-family: Arial, sans-serif; padding: 20px; border: 1px solid #dee2e6; border-radius: 8px;">
  <h2 style="color: #28a745;">✓ Emergency Request Logged</h2>
  <p>Hello <strong>{{.VolunteerName}}</strong>,</p>
  <p>Your emergency blood request for <strong>{{.BloodGroup}}</strong>{{with .PatientName}} (Patient: {{.}}){{end}} has been successfully logged in our system.</p>
  <p>The NSS Admin team has been notified and will coordinate with you and the requester ({{.RequesterName}}) shortly.</p>
  <hr>
  <p style="font-size: 12px; color: #6c757d;">Thank you for your life-saving contribution.</p>
</div>`))

// VolunteerConfirmSubject 志愿者确认邮件主题
func VolunteerConfirmSubject(bloodGroup string) string {
	return "NSS BloodConnect: Emergency Request Logged - " + bloodGroup
}

func VolunteerConfirmHTML(volunteerName, bloodGroup, patientName, requesterName string) (string, error) {
	return render(volunteerConfirmTmpl, struct {
		VolunteerName string
		BloodGroup    string
		PatientName   string
		RequesterName string
	}{volunteerName, bloodGroup, patientName, requesterName})
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

package dto

type AdminLoginRequest struct {
	Username string `json:"username" vd:"len($)>0"`
	Password string `json:"password" vd:"len($)>0"`
}

type AdminLoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" vd:"len($)>0"`
}

// WhatsAppSendRequest 单条发送
type WhatsAppSendRequest struct {
	PhoneNumber string `json:"phone_number" vd:"len($)>0"`
	Message     string `json:"message" vd:"len($)>0"`
}

// ChannelConfigResponse 只暴露是否配置，不暴露凭据
type ChannelConfigResponse struct {
	SMSProvider          string   `json:"sms_provider"`
	DispatchChannels     []string `json:"dispatch_channels"`
	TwilioAccountSID     bool     `json:"twilio_account_sid"`
	TwilioAuthToken      bool     `json:"twilio_auth_token"`
	TwilioPhoneNumber    bool     `json:"twilio_phone_number"`
	SMTPConfigured       bool     `json:"smtp_configured"`
	WhatsAppGateway      bool     `json:"whatsapp_gateway"`
	AdminEmailConfigured bool     `json:"admin_email_configured"`
}

// MetaResponse 表单参考数据
type MetaResponse struct {
	BloodGroups []string `json:"blood_groups"`
	Districts   []string `json:"districts"`
	Urgencies   []string `json:"urgencies"`
}

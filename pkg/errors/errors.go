package errors

import stderrors "errors"

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// WithMessage 保留错误码，替换展示信息（用于带上校验细节）
func (d Definition) WithMessage(msg string) Definition {
	return Definition{Code: d.Code, Message: msg}
}

// Is 只比较错误码，便于 errors.Is 匹配 WithMessage 派生出的错误
func (d Definition) Is(target error) bool {
	t, ok := target.(Definition)
	return ok && t.Code == d.Code
}

// 通用错误。
var (
	InvalidRequest  = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	Unauthorized    = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	Forbidden       = Definition{Code: "FORBIDDEN", Message: "Admin access required"}
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests, please try again later"}
	InternalError   = Definition{Code: "INTERNAL_ERROR", Message: "Internal server error"}
)

// 献血者模块错误。
var (
	DonorNotFound          = Definition{Code: "DONOR_NOT_FOUND", Message: "Donor not found"}
	DonorAlreadyRegistered = Definition{Code: "DONOR_ALREADY_REGISTERED", Message: "Donor already registered"}
	InvalidBloodGroup      = Definition{Code: "INVALID_BLOOD_GROUP", Message: "Invalid blood group"}
	InvalidDistrict        = Definition{Code: "INVALID_DISTRICT", Message: "Invalid district"}
	InvalidPhone           = Definition{Code: "INVALID_PHONE", Message: "Invalid phone number"}
	InvalidEmail           = Definition{Code: "INVALID_EMAIL", Message: "Invalid email address"}
	InvalidDonationStatus  = Definition{Code: "INVALID_DONATION_STATUS", Message: "Invalid donation status"}
)

// 紧急请求模块错误。
var (
	EmergencyNotFound      = Definition{Code: "EMERGENCY_NOT_FOUND", Message: "Emergency request not found"}
	InvalidUrgency         = Definition{Code: "INVALID_URGENCY", Message: "Invalid urgency"}
	InvalidRequestStatus   = Definition{Code: "INVALID_REQUEST_STATUS", Message: "Invalid request status"}
	DispatchPending        = Definition{Code: "DISPATCH_PENDING", Message: "Dispatch summary not available yet"}
	DispatchQueueFull      = Definition{Code: "DISPATCH_QUEUE_FULL", Message: "Notification queue is full"}
	DispatchSubmitFailed   = Definition{Code: "DISPATCH_SUBMIT_FAILED", Message: "Failed to schedule notifications"}
	DispatchChannelUnknown = Definition{Code: "DISPATCH_CHANNEL_UNKNOWN", Message: "Unknown notification channel"}
)

// 渠道错误。
var (
	WhatsAppNotReady = Definition{Code: "WHATSAPP_NOT_READY", Message: "WhatsApp client is not ready. Please ensure the admin WhatsApp account is connected by scanning the QR code."}
	WhatsAppFailed   = Definition{Code: "WHATSAPP_FAILED", Message: "WhatsApp gateway request failed"}
	SMSFailed        = Definition{Code: "SMS_FAILED", Message: "SMS send failed"}
	EmailFailed      = Definition{Code: "EMAIL_FAILED", Message: "Email send failed"}
)

// 管理员错误。
var (
	AdminCredentialsInvalid = Definition{Code: "ADMIN_CREDENTIALS_INVALID", Message: "Invalid username or password"}
)

// 基础设施错误。
var (
	ErrTokenGeneratorNotInitialized = stderrors.New("token generator not initialized")
	ErrUnexpectedSigningMethod      = stderrors.New("unexpected signing method")
	ErrInvalidToken                 = stderrors.New("invalid token")
	ErrInvalidTokenClaims           = stderrors.New("invalid token claims")
	ErrInvalidTokenType             = stderrors.New("invalid token type")
	ErrSubjectNotFound              = stderrors.New("subject not found in token")
)

// SkipMessageError 表示消息无需处理（重复投递等），消费者直接 ack
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return "skip message: " + e.Reason
}

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	InvalidRequest.Code:          InvalidRequest,
	Unauthorized.Code:            Unauthorized,
	Forbidden.Code:               Forbidden,
	TooManyRequests.Code:         TooManyRequests,
	InternalError.Code:           InternalError,
	DonorNotFound.Code:           DonorNotFound,
	DonorAlreadyRegistered.Code:  DonorAlreadyRegistered,
	InvalidBloodGroup.Code:       InvalidBloodGroup,
	InvalidDistrict.Code:         InvalidDistrict,
	InvalidPhone.Code:            InvalidPhone,
	InvalidEmail.Code:            InvalidEmail,
	InvalidDonationStatus.Code:   InvalidDonationStatus,
	EmergencyNotFound.Code:       EmergencyNotFound,
	InvalidUrgency.Code:          InvalidUrgency,
	InvalidRequestStatus.Code:    InvalidRequestStatus,
	DispatchPending.Code:         DispatchPending,
	DispatchQueueFull.Code:       DispatchQueueFull,
	DispatchSubmitFailed.Code:    DispatchSubmitFailed,
	DispatchChannelUnknown.Code:  DispatchChannelUnknown,
	WhatsAppNotReady.Code:        WhatsAppNotReady,
	WhatsAppFailed.Code:          WhatsAppFailed,
	SMSFailed.Code:               SMSFailed,
	EmailFailed.Code:             EmailFailed,
	AdminCredentialsInvalid.Code: AdminCredentialsInvalid,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

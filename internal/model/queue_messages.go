package model

// EmergencyDispatchMessage 紧急请求的后台通知任务，由 server 投递、worker 消费
type EmergencyDispatchMessage struct {
	MessageID   string `json:"message_id"`
	SubmittedAt string `json:"submitted_at"`
	RequestID   int64  `json:"request_id,string"`
}

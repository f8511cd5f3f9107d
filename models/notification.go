package models

// Types de tâches de notification
const (
	TaskReceipt       = "receipt"
	TaskResendReceipt = "resend_receipt"
	TaskFailureNotice = "failure_notice"
)

// NotificationTask est une tâche d'envoi d'email mise en file
type NotificationTask struct {
	Kind           string `json:"kind"`
	RegistrationID string `json:"registration_id"`
	Reason         string `json:"reason,omitempty"`
}

// Envelope est un email prêt à être envoyé
type Envelope struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

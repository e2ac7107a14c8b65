// internal/domain/compliance/entity.go
package compliance

type NotificationType string

const (
	TypeStatusUpdate         NotificationType = "status_update"
	TypeVerificationComplete NotificationType = "verification_complete"
	TypeTransfersUnlocked    NotificationType = "transfers_unlocked"
	TypeActionRequired       NotificationType = "action_required"
	TypeDeadlineReminder     NotificationType = "deadline_reminder"
)

// NotificationRequest is the body of the send-aml-notification function.
// Unknown types fall back to a generic compliance update.
type NotificationRequest struct {
	Email            string           `json:"email" binding:"required,email"`
	UserName         string           `json:"userName" binding:"required"`
	NotificationType NotificationType `json:"notificationType" binding:"required"`
	CaseID           string           `json:"caseId,omitempty"`
	StatusField      string           `json:"statusField,omitempty"`
	NewStatus        string           `json:"newStatus,omitempty"`
	DeadlineDate     string           `json:"deadlineDate,omitempty"`
	TransferAmount   string           `json:"transferAmount,omitempty"`
}

type NotificationResponse struct {
	Success bool   `json:"success"`
	EmailID string `json:"emailId,omitempty"`
	Error   string `json:"error,omitempty"`
}

package causeway

import "time"

type AuditLog struct {
	ID        int       `json:"id"`
	LogTime   time.Time `json:"log_time"`
	SystemLog bool      `json:"system_log"`
	Message   string    `json:"message"`
}

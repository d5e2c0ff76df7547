package model

type ErrorResponse struct {
	Error string `json:"error"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// AlertResult - 웹훅으로 수신한 알림 한 건의 처리 결과
type AlertResult struct {
	AlertID     string       `json:"alert_id"`
	Fingerprint string       `json:"fingerprint"`
	Severity    Severity     `json:"severity"`
	IsDuplicate bool         `json:"is_duplicate"`
	Context     AlertContext `json:"context"`
	Report      string       `json:"report"`
}

type AlertWebhookResponse struct {
	Status string        `json:"status"`
	Alerts []AlertResult `json:"alerts"`
}

type AlertHistoryResponse struct {
	Count   int           `json:"count"`
	Entries []LedgerEntry `json:"entries"`
}

// CommandRequest - POST /api/quick/command 요청
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

type ReportResponse struct {
	Report string `json:"report"`
}

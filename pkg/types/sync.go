package types

// SyncResult is the outcome of one folder or message sync
type SyncResult struct {
	AccountId string `json:"account_id"`
	Count     int    `json:"count"`
	Fallback  bool   `json:"fallback,omitempty"` // demo data was generated
}

// SweepResult is one entry of a sweep response
type SweepResult struct {
	JobId     string `json:"job_id,omitempty"`
	AccountId string `json:"account_id"`
	Email     string `json:"email,omitempty"`
	Result    *int   `json:"result,omitempty"` // messages imported
	Error     string `json:"error,omitempty"`
}

// SweepScope limits which jobs and accounts a sweep touches
type SweepScope struct {
	UserId string // empty = every user
}

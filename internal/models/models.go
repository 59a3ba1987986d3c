package models

const (
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Entry - запись журнала об одном обработанном запросе
type Entry struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Request   string `json:"request"`
	Status    string `json:"status"`
	Result    string `json:"result"`
	ElapsedMs int64  `json:"elapsed_ms"`
	CreatedAt string `json:"created_at"`
}

type EntryList struct {
	Entries []Entry `json:"entries"`
}

type EvaluateRequest struct {
	Request string `json:"request"`
}

type EvaluateResponse struct {
	Response string `json:"response"`
}

type StatsResponse struct {
	Requests        uint64           `json:"requests"`
	AvgTimeMs       float64          `json:"avg_time_ms"`
	MaxTimeMs       int64            `json:"max_time_ms"`
	ComputationPool map[string]int64 `json:"computation_pool"`
	StatPool        map[string]int64 `json:"stat_pool"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

package models

import "time"

// CorpusInfo describes the in-memory suggestion corpus.
type CorpusInfo struct {
	Loaded       bool      `json:"loaded"`
	Records      int       `json:"records"`
	Courses      int       `json:"courses"`
	Professors   int       `json:"professors"`
	LoadedAt     time.Time `json:"loaded_at,omitempty"`
	LoadDuration int64     `json:"load_duration_ms"`
}

// AnalyticsStats are cumulative search event recorder counters.
type AnalyticsStats struct {
	Recorded int64 `json:"recorded"`
	Dropped  int64 `json:"dropped"`
	Failed   int64 `json:"failed"`
	Pending  int   `json:"pending"`
}

// Status is the shape of GET /api/v1/status and `kurasu status`.
type Status struct {
	Corpus          CorpusInfo      `json:"corpus"`
	GradeRows       int64           `json:"grade_rows"`
	RatedProfessors int64           `json:"rated_professors"`
	SearchEvents    int64           `json:"search_events"`
	CacheItems      int             `json:"cache_items"`
	DiskUsageBytes  *int64          `json:"disk_usage_bytes,omitempty"`
	DatabasePath    string          `json:"database_path,omitempty"`
	Analytics       *AnalyticsStats `json:"analytics,omitempty"`
}

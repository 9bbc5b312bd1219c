// internal/models/admin.go
package models

import "time"

type SearchEntry struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// TrafficData is the admin dashboard snapshot.
type TrafficData struct {
	WorkerStatus      string        `json:"workerStatus"`
	IsQueuePaused     bool          `json:"isQueuePaused"`
	JobQueue          []string      `json:"jobQueue"`
	ActiveJobs        []string      `json:"activeJobs"`
	ImageCacheSize    int           `json:"imageCacheSize"`
	ResultCacheSize   int           `json:"resultCacheSize"`
	IsServiceDisabled bool          `json:"isServiceDisabled"`
	TotalSearches     int           `json:"totalSearches"`
	UniqueVisitors    int           `json:"uniqueVisitors"`
	OnlineUsers       int           `json:"onlineUsers"`
	SearchHistory     []SearchEntry `json:"searchHistory"`
	TopSearches       []TermCount   `json:"topSearches"`
	RulesetVersion    string        `json:"rulesetVersion"`
}

const (
	WorkerConnected    = "Connected"
	WorkerDisconnected = "Disconnected"
)

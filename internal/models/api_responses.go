package models

import "studyplan/internal/dataset"

// GenerateResponse is returned by POST /generate for JSON clients.
type GenerateResponse struct {
	ResourceURL string `json:"resource_url"`
	RoadmapURL  string `json:"roadmap_url,omitempty"`
	DocxURL     string `json:"docx_url,omitempty"`
}

// SearchStats describes how a dataset scan ended.
type SearchStats struct {
	RowsScanned int    `json:"rows_scanned"`
	Skipped     int    `json:"skipped"`
	Stop        string `json:"stop"`
	ElapsedMS   int64  `json:"elapsed_ms"`
	Cached      bool   `json:"cached"`
	Error       string `json:"error,omitempty"`
}

// SearchResponse is returned by GET /api/search.
type SearchResponse struct {
	Topic      string             `json:"topic"`
	Terms      []string           `json:"terms"`
	Strategy   string             `json:"strategy"`
	Rows       []dataset.Row      `json:"rows"`
	Stats      SearchStats        `json:"stats"`
	Assessment dataset.Assessment `json:"assessment"`
}

// NewSearchResponse flattens a search outcome for the API.
func NewSearchResponse(o dataset.Outcome, a dataset.Assessment) SearchResponse {
	terms := o.Terms.Values
	if terms == nil {
		terms = []string{}
	}
	rows := o.Rows()
	if rows == nil {
		rows = []dataset.Row{}
	}
	stats := SearchStats{
		RowsScanned: o.Scan.RowsScanned,
		Skipped:     o.Scan.Skipped,
		Stop:        string(o.Scan.Stop),
		ElapsedMS:   o.Scan.Elapsed.Milliseconds(),
		Cached:      o.Cached,
	}
	if o.Scan.Err != nil {
		stats.Error = o.Scan.Err.Error()
	}
	return SearchResponse{
		Topic:      o.Topic,
		Terms:      terms,
		Strategy:   string(o.Terms.Strategy),
		Rows:       rows,
		Stats:      stats,
		Assessment: a,
	}
}

// HealthResponse is returned by the readiness probe.
type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Database bool              `json:"database"`
	Dataset  string            `json:"dataset"`
}

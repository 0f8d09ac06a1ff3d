package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan source constants. Mobile clients skip the dataset scan.
const (
	SourceWeb    = "web"
	SourceMobile = "mobile"
)

// Plan records one generated study plan and the files produced for it.
type Plan struct {
	ID           uuid.UUID `json:"id"`
	Topic        string    `json:"topic"`
	Source       string    `json:"source"`
	Duration     string    `json:"duration,omitempty"`
	Strategy     string    `json:"strategy,omitempty"`
	Terms        []string  `json:"terms"`
	Matches      int       `json:"matches"`
	Tier         string    `json:"tier"`
	Steps        []string  `json:"steps"`
	ResourceFile string    `json:"resource_file"`
	RoadmapFile  string    `json:"roadmap_file,omitempty"`
	DocxFile     string    `json:"docx_file,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRoadmap reports whether a roadmap PDF was rendered.
func (p *Plan) HasRoadmap() bool {
	return p.RoadmapFile != ""
}

// IsMobile reports whether the plan was requested by the mobile client.
func (p *Plan) IsMobile() bool {
	return p.Source == SourceMobile
}

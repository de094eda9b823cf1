package model

import "time"

// ApplicationType classifies a planning application for fee and
// document-requirement purposes.
type ApplicationType string

const (
	AppTypeHouseholder   ApplicationType = "householder"
	AppTypeFull          ApplicationType = "full"
	AppTypeOutline       ApplicationType = "outline"
	AppTypeListed        ApplicationType = "listed_building"
	AppTypePriorApproval ApplicationType = "prior_approval"
)

// Application represents one planning application. Submissions hang off it
// as a version tree rooted at V0.
type Application struct {
	ID        string          `json:"id"`
	Reference string          `json:"reference"`
	Type      ApplicationType `json:"type"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

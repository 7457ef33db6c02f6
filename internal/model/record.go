// Package model defines the record types flowing through the import pipeline.
package model

// RawRecord is one spreadsheet row with its recognized source columns.
// Absent cells are empty strings; all values are kept in their original
// string form until formatting.
type RawRecord struct {
	EmailID              string
	MobileNo             string
	DateOfPermit         string
	SiteAddress          string
	ApplicantName        string
	NatureOfDevelopment  string
	DwellingUnitInfo     string
	AreaName             string
	LeadName             string
	Reference            string
	CompanyName          string
	ArchitectName        string
	PlanningPermissionNo string
	ApplicantAddress     string
	FutureProjects       string
	CreationTime         string
	WhichBrandLookingFor string
	HowMuchSquareFeet    string

	// Row is the 1-based row number in the source sheet, kept for
	// failure reporting and alert mails.
	Row int
}

// RecordFailure identifies one rejected record within a submission run.
type RecordFailure struct {
	Index  int    `json:"record_index"`
	Reason string `json:"reason"`
}

// SubmissionOutcome aggregates per-record results across all batches of one
// submission run. It is not mutated after the run completes.
type SubmissionOutcome struct {
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Failures  []RecordFailure `json:"failures,omitempty"`
}

// Result is the structured outcome of one pipeline run.
type Result struct {
	Message    string             `json:"message"`
	StatusCode int                `json:"statusCode"`
	Status     bool               `json:"status"`
	Outcome    *SubmissionOutcome `json:"data,omitempty"`
}

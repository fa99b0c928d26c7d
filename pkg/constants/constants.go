// Package constants provides shared constants used throughout the idmend codebase.
// This includes well-known column names, file names, defaults, and file permissions
// that should be consistent across the application.
package constants

import "time"

// Column names shared by every study table.
const (
	// ColumnParticipantID is the primary key identifying a participant across tables
	ColumnParticipantID = "participant_identifier"

	// ColumnVisit names the study timepoint a row was recorded at
	ColumnVisit = "visit_name"

	// ColumnCreatedAt is the row creation timestamp, never exchanged between identifiers
	ColumnCreatedAt = "created_at"

	// ColumnDiaryDate is the anchor column; merge comparison starts right after it
	ColumnDiaryDate = "diary_date"

	// ColumnSiteCode is inserted by the site annotator
	ColumnSiteCode = "SiteCode"

	// ColumnVisitCode is inserted by the visit annotator
	ColumnVisitCode = "VisitCode"

	// ColumnSite is the site column in the participant reference table
	ColumnSite = "Site"
)

// Defaults for the reconciliation engine
const (
	// DefaultDerivedColumns is the number of trailing calculated columns excluded from merge comparison
	DefaultDerivedColumns = 5

	// DefaultDelimiter separates fields in study tables and log tables
	DefaultDelimiter = ';'

	// UnknownVisit is logged for deletions in tables without a visit column
	UnknownVisit = "unknown"

	// DefaultWorkers runs operators sequentially
	DefaultWorkers = 1

	// MaxWorkers bounds table-level parallelism
	MaxWorkers = 64

	// RunTimeout is the default timeout for a CLI run
	RunTimeout = 30 * time.Minute
)

// File names
const (
	// TableExtension is the extension of study tables
	TableExtension = ".csv"

	// DeleteLogFile holds the delete log
	DeleteLogFile = "delete_log.csv"

	// MoveLogFile holds the move log
	MoveLogFile = "move_log.csv"

	// ExchangeLogFile holds the exchange log
	ExchangeLogFile = "exchange_log.csv"

	// MergeLogFile holds the merge log
	MergeLogFile = "merge_log.csv"

	// CoverageReportFile holds the coverage auditor report
	CoverageReportFile = "coverage_report.csv"

	// RunSummaryFile holds the run summary
	RunSummaryFile = "run_summary.yaml"

	// RememberedDir holds data evicted by moves
	RememberedDir = "remembered"

	// SiteReferenceFile maps participants to sites
	SiteReferenceFile = "Kind-of-participant.csv"
)

// ExcludedTables are export files that are not per-instrument study tables.
var ExcludedTables = []string{
	"participants.csv",
	"study-queries.csv",
	"study-participant-forms.csv",
}

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Format constants
const (
	// TimeFormatISO8601 is the ISO 8601 time format
	TimeFormatISO8601 = time.RFC3339

	// TimeFormatFilename is the format used in generated filenames
	TimeFormatFilename = "20060102-150405"
)

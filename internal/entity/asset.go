package entity

import "time"

// ChecksumRecord is the persisted baseline entry for one asset file. The
// relative path is the key of the surrounding Baseline map.
type ChecksumRecord struct {
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	Modified  time.Time `json:"modified"`
	Generated time.Time `json:"generated"`
}

// Baseline maps relative asset paths to their last-persisted checksum
// records. It is read at the start of a scan and overwritten wholesale at
// the end; concurrent writers need an external lock.
type Baseline map[string]ChecksumRecord

// Integrity issue types.
const (
	IssueChecksumMismatch = "checksum_mismatch"
	IssueMissingFile      = "missing_file"
	IssueOrphanedFile     = "orphaned_file"
	IssueCorruptFile      = "corrupt_file"
	IssueMetadataError    = "metadata_error"
	IssueFormatValidation = "format_validation_error"
	IssueFormatError      = "format_error"
	IssueBaselineError    = "baseline_error"

	AdvisoryFileSize        = "file_size"
	AdvisoryImageDimensions = "image_dimensions"
	AdvisoryAudioQuality    = "audio_quality"
	AdvisorySVGSecurity     = "svg_security"
)

// IntegrityIssue is one structured finding of an asset scan.
type IntegrityIssue struct {
	Type    string `json:"type"`
	File    string `json:"file"`
	Message string `json:"message"`
}

// IntegrityReport aggregates one full asset scan. Issues block approval,
// Warnings are advisories and never do.
type IntegrityReport struct {
	TotalFiles         int `json:"totalFiles"`
	ValidFiles         int `json:"validFiles"`
	CorruptFiles       int `json:"corruptFiles"`
	MissingFiles       int `json:"missingFiles"`
	OrphanedFiles      int `json:"orphanedFiles"`
	MetadataErrors     int `json:"metadataErrors"`
	ChecksumMismatches int `json:"checksumMismatches"`

	Issues   []IntegrityIssue `json:"issues"`
	Warnings []IntegrityIssue `json:"warnings"`

	CheckedAt time.Time `json:"checkedAt"`
}

// HasBlockingIssues reports whether the scan found anything beyond
// advisories.
func (r *IntegrityReport) HasBlockingIssues() bool {
	return len(r.Issues) > 0
}

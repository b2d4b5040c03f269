package integrity

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/eslsoft/hanguru/internal/entity"
)

var requiredSidecarKeys = []string{"creationDate", "creator", "description", "tags"}

// checkSidecar validates the <asset>.meta.json companion file. A missing
// sidecar is a soft skip; a present but malformed one is a metadata error.
func checkSidecar(sidecarPath, rel string) []entity.IntegrityIssue {
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return []entity.IntegrityIssue{{
			Type:    entity.IssueMetadataError,
			File:    rel,
			Message: fmt.Sprintf("metadata sidecar unreadable: %v", err),
		}}
	}

	var meta map[string]json.RawMessage
	if err := json.Unmarshal(data, &meta); err != nil {
		return []entity.IntegrityIssue{{
			Type:    entity.IssueMetadataError,
			File:    rel,
			Message: fmt.Sprintf("metadata sidecar is not valid JSON: %v", err),
		}}
	}

	var issues []entity.IntegrityIssue
	for _, key := range requiredSidecarKeys {
		if _, ok := meta[key]; !ok {
			issues = append(issues, entity.IntegrityIssue{
				Type:    entity.IssueMetadataError,
				File:    rel,
				Message: fmt.Sprintf("metadata sidecar missing required field '%s'", key),
			})
		}
	}
	if raw, ok := meta["creationDate"]; ok {
		var date string
		if err := json.Unmarshal(raw, &date); err != nil {
			issues = append(issues, entity.IntegrityIssue{
				Type:    entity.IssueMetadataError,
				File:    rel,
				Message: "metadata field 'creationDate' must be a string",
			})
		} else if _, err := time.Parse(time.RFC3339, date); err != nil {
			issues = append(issues, entity.IntegrityIssue{
				Type:    entity.IssueMetadataError,
				File:    rel,
				Message: fmt.Sprintf("metadata field 'creationDate' is not ISO-8601: '%s'", date),
			})
		}
	}
	return issues
}

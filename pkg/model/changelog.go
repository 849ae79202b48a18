// pkg/model/changelog.go
package model

// ChangeLogEntry records one field value copied into a target record
// during a fill pass. Entries are append-only; Row is the 1-based
// index of the target record in its source file.
type ChangeLogEntry struct {
	Row        int    `json:"row"`
	Field      string `json:"field"`
	OldValue   string `json:"old_value"`
	NewValue   string `json:"new_value"`
	SourceFile string `json:"source_file"`
	MatchedOn  string `json:"matched_on"`
}

// ChangeLog is the ordered sequence of entries produced by one or more
// fill passes within a run.
type ChangeLog []ChangeLogEntry

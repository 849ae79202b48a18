// pkg/model/record.go
package model

import "strings"

// Record is a single row of a tabular dataset. Field names keep the
// spelling of the dataset's header row; values are always raw text.
// Row is the 1-based index of the row in the source file and is kept
// for traceability in change logs and validation reports.
type Record struct {
	Row    int
	Fields map[string]string
}

// NewRecord creates an empty record for the given source row.
func NewRecord(row int) Record {
	return Record{
		Row:    row,
		Fields: make(map[string]string),
	}
}

// Get returns the raw value of a field, or "" when the field is not set.
func (r Record) Get(field string) string {
	return r.Fields[field]
}

// Set stores a raw value under a field name.
func (r Record) Set(field, value string) {
	r.Fields[field] = value
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Record{Row: r.Row, Fields: fields}
}

// IsBlank reports whether every field of the record is absent.
func (r Record) IsBlank() bool {
	for _, v := range r.Fields {
		if !IsAbsent(v) {
			return false
		}
	}
	return true
}

// Dataset is an ordered collection of records sharing one header row.
// Name identifies the source (usually the file name) for logging and
// change attribution.
type Dataset struct {
	Name    string
	Headers []string
	Records []Record
}

// NewDataset creates an empty dataset with the given headers.
func NewDataset(name string, headers []string) *Dataset {
	return &Dataset{
		Name:    name,
		Headers: append([]string(nil), headers...),
	}
}

// Len returns the number of records in the dataset.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Append adds a record to the dataset.
func (d *Dataset) Append(r Record) {
	d.Records = append(d.Records, r)
}

// HasHeader reports whether the dataset contains the given column,
// compared case-insensitively.
func (d *Dataset) HasHeader(name string) bool {
	for _, h := range d.Headers {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the dataset. Stages operate on copies
// so that a pipeline run never mutates its input in place.
func (d *Dataset) Clone() *Dataset {
	out := NewDataset(d.Name, d.Headers)
	out.Records = make([]Record, 0, len(d.Records))
	for _, r := range d.Records {
		out.Records = append(out.Records, r.Clone())
	}
	return out
}

package models

import "time"

// Batch is the converter state of one browser session: the form values, the
// last filtered source and the list of converted files awaiting download.
type Batch struct {
	ID               string          `json:"id"`
	ContactName      string          `json:"contactName"`
	SelectedFileName string          `json:"selectedFileName,omitempty"`
	SourceID         string          `json:"sourceId,omitempty"`
	Profile          string          `json:"profile,omitempty"`
	FilteredContent  string          `json:"-"`
	Sources          []string        `json:"-"`
	Files            []ConvertedFile `json:"files"`
	CreatedAt        time.Time       `json:"createdAt"`
	LastAccessed     time.Time       `json:"lastAccessed"`
}

// NewBatch creates an empty batch. An empty contact name falls back to
// DefaultContactName.
func NewBatch(id, contactName string) *Batch {
	if contactName == "" {
		contactName = DefaultContactName
	}
	now := time.Now()
	return &Batch{
		ID:           id,
		ContactName:  contactName,
		Files:        make([]ConvertedFile, 0),
		CreatedAt:    now,
		LastAccessed: now,
	}
}

// Snapshot returns a copy of the batch whose file list carries summaries only.
func (b *Batch) Snapshot() *Batch {
	cp := *b
	cp.Sources = append([]string(nil), b.Sources...)
	cp.Files = make([]ConvertedFile, len(b.Files))
	for i, f := range b.Files {
		cp.Files[i] = f.Summary()
	}
	return &cp
}

// Package models contains domain types for the vCard converter.
package models

import "time"

// DefaultContactName is used when no contact name has been entered.
const DefaultContactName = "contact"

// ConvertedFile is one generated .vcf file held in a batch until it is
// downloaded or deleted.
type ConvertedFile struct {
	Content     string    `json:"content,omitempty" msgpack:"content,omitempty"`
	FileName    string    `json:"fileName" msgpack:"fileName"`
	ContactName string    `json:"contactName" msgpack:"contactName"`
	Count       int       `json:"count" msgpack:"count"`
	SourceID    string    `json:"sourceId,omitempty" msgpack:"sourceId,omitempty"`
	Profile     string    `json:"profile,omitempty" msgpack:"profile,omitempty"`
	CreatedAt   time.Time `json:"createdAt" msgpack:"createdAt"`
}

// Summary returns a copy without the generated text, for listings.
func (f ConvertedFile) Summary() ConvertedFile {
	f.Content = ""
	return f
}

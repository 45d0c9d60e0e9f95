// Package converter turns plain-text phone lists into vCard files.
package converter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vcf-converter/backend/internal/models"
)

const (
	// DefaultProfileName is the built-in "only number" profile.
	DefaultProfileName = "onlynumber"

	// DefaultStripToken is removed from every line by the built-in profile.
	DefaultStripToken = "AAA"
)

// PhonePattern accepts an optional leading '+' followed by ASCII digits.
var PhonePattern = regexp.MustCompile(`^\+?\d+$`)

// Converter filters raw lines and formats the survivors as vCards.
type Converter struct {
	profile models.Profile
	pattern *regexp.Regexp
}

// DefaultProfile returns the built-in profile.
func DefaultProfile() models.Profile {
	return models.Profile{
		Name:               DefaultProfileName,
		Description:        "Only numbers, with AAA markers removed",
		Strip:              []string{DefaultStripToken},
		Pattern:            PhonePattern.String(),
		DefaultContactName: models.DefaultContactName,
	}
}

// New compiles a profile into a Converter.
func New(p models.Profile) (*Converter, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("profile has no name")
	}
	expr := p.Pattern
	if expr == "" {
		expr = PhonePattern.String()
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("profile %s: invalid pattern: %w", p.Name, err)
	}
	p.Pattern = expr
	return &Converter{profile: p, pattern: re}, nil
}

var defaultConverter, _ = New(DefaultProfile())

// Default returns the converter for the built-in profile.
func Default() *Converter {
	return defaultConverter
}

// Name returns the profile name.
func (c *Converter) Name() string {
	return c.profile.Name
}

// Profile returns a copy of the profile this converter was built from.
func (c *Converter) Profile() models.Profile {
	p := c.profile
	p.Strip = append([]string(nil), c.profile.Strip...)
	return p
}

// CleanLine removes every strip token from line and trims it. The second
// result reports whether the cleaned line is accepted.
func (c *Converter) CleanLine(line string) (string, bool) {
	for _, tok := range c.profile.Strip {
		if tok != "" {
			line = strings.ReplaceAll(line, tok, "")
		}
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	return line, c.pattern.MatchString(line)
}

// FilterLines splits content on '\n' and keeps the accepted cleaned lines in
// input order. Rejected lines are dropped without error.
func (c *Converter) FilterLines(content string) []string {
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if cleaned, ok := c.CleanLine(line); ok {
			kept = append(kept, cleaned)
		}
	}
	return kept
}

// Convert filters content and formats it as a ConvertedFile. An empty
// contact name falls back to the profile default.
func (c *Converter) Convert(content, fileName, contactName string) models.ConvertedFile {
	return c.ConvertLines(c.FilterLines(content), fileName, contactName)
}

// ConvertLines formats already filtered numbers.
func (c *Converter) ConvertLines(numbers []string, fileName, contactName string) models.ConvertedFile {
	if contactName == "" {
		contactName = c.profile.DefaultContactName
	}
	if contactName == "" {
		contactName = models.DefaultContactName
	}
	content, count := formatVCards(contactName, numbers)
	return models.ConvertedFile{
		Content:     content,
		FileName:    fileName,
		ContactName: contactName,
		Count:       count,
		Profile:     c.profile.Name,
		CreatedAt:   time.Now(),
	}
}

// FilterLines filters content with the built-in profile.
func FilterLines(content string) []string {
	return defaultConverter.FilterLines(content)
}

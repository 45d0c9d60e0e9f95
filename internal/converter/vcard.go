package converter

import (
	"strconv"
	"strings"
)

// FormatVCards renders one vCard 3.0 block per number. Cards are named
// "<contactName> <n>" with n counting from 1. Blank entries are skipped and
// do not consume a number.
func FormatVCards(contactName string, numbers []string) string {
	s, _ := formatVCards(contactName, numbers)
	return s
}

func formatVCards(contactName string, numbers []string) (string, int) {
	var b strings.Builder
	n := 0
	for _, num := range numbers {
		num = strings.TrimSpace(num)
		if num == "" {
			continue
		}
		n++
		b.WriteString("BEGIN:VCARD\n")
		b.WriteString("VERSION:3.0\n")
		b.WriteString("FN:")
		b.WriteString(contactName)
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(n))
		b.WriteByte('\n')
		b.WriteString("TEL:")
		b.WriteString(num)
		b.WriteByte('\n')
		b.WriteString("END:VCARD\n")
	}
	return b.String(), n
}

// CountVCards returns the number of BEGIN:VCARD markers in content.
func CountVCards(content string) int {
	return strings.Count(content, "BEGIN:VCARD\n")
}

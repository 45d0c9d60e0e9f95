package converter

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var extRegex = regexp.MustCompile(`\.[^/.]+$`)

// BaseName strips any directory part from a client supplied name. Both '/'
// and '\' count as separators. Names without a usable last element give "".
func BaseName(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	switch base {
	case ".", "..", "/":
		return ""
	}
	return base
}

// VCFName derives the output name from a source file name by replacing its
// last extension with ".vcf".
func VCFName(sourceName string) string {
	return extRegex.ReplaceAllString(BaseName(sourceName), "") + ".vcf"
}

// DownloadName normalizes a user-edited file name so that it is a plain base
// name ending in exactly one ".vcf".
func DownloadName(name string) string {
	name = BaseName(name)
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".vcf.vcf"):
		return name[:len(name)-4]
	case !strings.HasSuffix(lower, ".vcf"):
		return name + ".vcf"
	}
	return name
}

// UniqueName returns the download form of name, suffixed with " (n)" when
// seen already holds it. Comparison ignores case. seen is updated.
func UniqueName(name string, seen map[string]int) string {
	name = DownloadName(name)
	key := strings.ToLower(name)
	n := seen[key]
	seen[key] = n + 1
	if n == 0 {
		return name
	}
	base := name[:len(name)-len(".vcf")]
	return UniqueName(fmt.Sprintf("%s (%d).vcf", base, n+1), seen)
}

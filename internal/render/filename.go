package render

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxFilenameLen = 80

var dotless = strings.NewReplacer("ı", "i", "İ", "I")

// SanitizeFilename turns a free-text topic into a safe file stem:
// diacritics are dropped, letters lowercased and every run of other
// characters collapsed to a single underscore.
func SanitizeFilename(topic string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, dotless.Replace(topic))
	if err != nil {
		folded = topic
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
		if b.Len() >= maxFilenameLen {
			break
		}
	}

	out := b.String()
	if len(out) > maxFilenameLen {
		out = out[:maxFilenameLen]
	}
	out = strings.Trim(out, "_-")
	if out == "" {
		return "plan"
	}
	return out
}

// ValidName reports whether name is a bare file name that can be served
// from the output directory.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`+"\x00")
}

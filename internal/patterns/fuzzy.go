package patterns

import "strings"

// ocrSubstitutions maps digits to the letters OCR engines commonly read them
// as. Only lowercase targets are listed because matching always happens on
// normalized (lowercased) text.
var ocrSubstitutions = []struct {
	digit string
	subs  []string
}{
	{"0", []string{"o"}},
	{"1", []string{"l", "i"}},
	{"5", []string{"s"}},
	{"8", []string{"b"}},
}

// Variants derives OCR-substituted expressions from a pattern: for each digit
// class present, one variant per substitute letter with every occurrence of
// that digit replaced. Substitutions are applied one class at a time, never
// combined. Substitution can break the expression (a digit replaced inside a
// character-class range, for instance); callers compile each variant and drop
// the failures.
func Variants(expr string) []string {
	var out []string
	for _, sub := range ocrSubstitutions {
		if !strings.Contains(expr, sub.digit) {
			continue
		}
		for _, repl := range sub.subs {
			out = append(out, strings.ReplaceAll(expr, sub.digit, repl))
		}
	}
	return out
}

// ocrFold repairs character sequences OCR tends to mangle. Applied to text
// that is already normalized, so replacement targets are lowercase.
var ocrFold = strings.NewReplacer(
	"rn", "m",
	"|", "i",
	"!", "i",
)

// NormalizeOCR folds common OCR misreads in already-normalized text. Matching
// tries the plain text first, so exact content (including punctuation the
// fold would destroy) still wins when present.
func NormalizeOCR(text string) string {
	return ocrFold.Replace(text)
}

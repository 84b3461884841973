// Package bank recognizes account statements and statement delivery
// notifications from Czech and European banks.
package bank

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matej/doc-triage/internal/core"
	"github.com/matej/doc-triage/internal/textnorm"
	"go.uber.org/zap"
)

// Weighted statement signals. A statement marker alone is strong but not
// conclusive; an account number or balance line is what confirms it.
var signals = []struct {
	name   string
	points int
	re     *regexp.Regexp
}{
	{"statement_marker", 40, regexp.MustCompile(`(finsta|camt\.053|vypis z uctu|bankovni vypis|account statement|kontoauszug)`)},
	// Prefix form 35-1234567890/0100 or plain form with at least four digits
	// before the bank code, so bare dates like 12/2026 do not count.
	{"account_number", 25, regexp.MustCompile(`\b(\d{1,6}-\d{2,10}|\d{4,10})/\d{4}\b`)},
	{"iban", 20, regexp.MustCompile(`\b(cz|de|sk|at)\d{2}[0-9 ]{10,30}`)},
	{"balance", 20, regexp.MustCompile(`(pocatecni zustatek|konecny zustatek|zustatek|opening balance|closing balance|kontostand)`)},
	{"bank_name", 15, regexp.MustCompile(`(ceska sporitelna|komercni banka|csob|fio banka|moneta|raiffeisenbank|unicredit|airbank|air bank|revolut|n26|sparkasse|commerzbank)`)},
	{"statement_period", 10, regexp.MustCompile(`(za obdobi|obdobi od|vypis za|statement period|for the period)`)},
}

var accountRe = regexp.MustCompile(`\b(\d{1,6}-\d{2,10}|\d{4,10})/\d{4}\b`)

// Detector identifies bank statements.
type Detector struct {
	logger *zap.Logger
}

// New creates a bank statement detector.
func New(logger *zap.Logger) *Detector {
	return &Detector{logger: logger}
}

// Name implements core.Detector.
func (d *Detector) Name() string {
	return "bank_statement"
}

// Detect sums the weighted signals and clamps the score to 100.
func (d *Detector) Detect(email *core.Email) (*core.ClassificationResult, error) {
	text := textnorm.Normalize(email.Subject + "\n" + email.Body)

	score := 0
	matched := make([]string, 0, len(signals))
	metadata := make(map[string]string)
	for _, sig := range signals {
		if !sig.re.MatchString(text) {
			continue
		}
		score += sig.points
		matched = append(matched, sig.name)
		metadata[sig.name] = strconv.Itoa(sig.points)
	}
	if score > 100 {
		score = 100
	}

	result := &core.ClassificationResult{
		DocumentType: core.DocTypeBank,
		Detector:     d.Name(),
		Score:        score,
		MaxScore:     100,
		Percentage:   float64(score),
		Level:        core.LevelFromPercentage(float64(score)),
		Matched:      matched,
		Metadata:     metadata,
	}
	if score == 0 {
		return result, nil
	}

	if account := accountRe.FindString(text); account != "" {
		result.Metadata["account_number"] = account
	}
	if bank := bankName(text); bank != "" {
		result.Correspondent = bank
		result.Metadata["bank"] = bank
	}
	result.Tags = append(result.Tags, "bank_statement")
	result.Explanation = "bank statement signals: " + strings.Join(matched, ", ")

	d.logger.Debug("Bank statement analysis",
		zap.Int("score", score),
		zap.Strings("matched", matched))

	return result, nil
}

// Display names for the banks the detector knows about.
var bankNames = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`ceska sporitelna`), "Česká spořitelna"},
	{regexp.MustCompile(`komercni banka`), "Komerční banka"},
	{regexp.MustCompile(`\bcsob\b`), "ČSOB"},
	{regexp.MustCompile(`fio banka`), "Fio banka"},
	{regexp.MustCompile(`\bmoneta\b`), "Moneta"},
	{regexp.MustCompile(`raiffeisenbank`), "Raiffeisenbank"},
	{regexp.MustCompile(`unicredit`), "UniCredit"},
	{regexp.MustCompile(`air ?bank`), "Air Bank"},
	{regexp.MustCompile(`revolut`), "Revolut"},
	{regexp.MustCompile(`\bn26\b`), "N26"},
	{regexp.MustCompile(`sparkasse`), "Sparkasse"},
	{regexp.MustCompile(`commerzbank`), "Commerzbank"},
}

func bankName(text string) string {
	for _, b := range bankNames {
		if b.re.MatchString(text) {
			return b.name
		}
	}
	return ""
}

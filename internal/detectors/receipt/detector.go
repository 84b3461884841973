// Package receipt recognizes purchase receipts, including Czech EET fiscal
// receipts, and tags them with a merchant category.
package receipt

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matej/doc-triage/internal/core"
	"github.com/matej/doc-triage/internal/textnorm"
	"go.uber.org/zap"
)

var signals = []struct {
	name   string
	points int
	re     *regexp.Regexp
}{
	{"receipt_kind", 25, regexp.MustCompile(`(paragon|uctenka|danovy doklad|prodejka|zjednoduseny danovy doklad|receipt|kassenbon)`)},
	{"fiscal_codes", 30, regexp.MustCompile(`\b(fik|bkp|dic) ?:|\beet\b`)},
	{"merchant", 20, regexp.MustCompile(`(albert|lidl|kaufland|tesco|billa|penny|globus|benzina|orlen|shell|omv|mol|dm drogerie|rossmann|lekarna|benu|alza|datart|ikea|obi|hornbach)`)},
	{"totals", 15, regexp.MustCompile(`(celkem k uhrade|celkem|total|suma|gesamt) ?:? ?\d+`)},
	{"payment_method", 10, regexp.MustCompile(`\b(hotove|hotovost|kartou|visa|mastercard|cash|card)\b`)},
}

// Merchant categories, checked in order; the first match wins.
var categories = []struct {
	name string
	re   *regexp.Regexp
}{
	{"fuel", regexp.MustCompile(`(benzina|orlen|shell|omv|mol|cerpaci stanice|tankstelle)`)},
	{"groceries", regexp.MustCompile(`(albert|lidl|kaufland|tesco|billa|penny|globus|potraviny)`)},
	{"pharmacy", regexp.MustCompile(`(dm drogerie|rossmann|lekarna|benu|apotheke)`)},
	{"parking", regexp.MustCompile(`(parkovani|parkoviste|parking|parkhaus)`)},
	{"restaurant", regexp.MustCompile(`(restaurace|restaurant|bistro|kavarna|pizzeria)`)},
	{"electronics", regexp.MustCompile(`(alza|datart|elektro)`)},
}

// Display names for known merchants, used as the correspondent.
var merchants = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`\balbert\b`), "Albert"},
	{regexp.MustCompile(`\blidl\b`), "Lidl"},
	{regexp.MustCompile(`kaufland`), "Kaufland"},
	{regexp.MustCompile(`\btesco\b`), "Tesco"},
	{regexp.MustCompile(`\bbilla\b`), "Billa"},
	{regexp.MustCompile(`\bglobus\b`), "Globus"},
	{regexp.MustCompile(`benzina`), "Benzina"},
	{regexp.MustCompile(`\borlen\b`), "Orlen"},
	{regexp.MustCompile(`\bshell\b`), "Shell"},
	{regexp.MustCompile(`\bomv\b`), "OMV"},
	{regexp.MustCompile(`dm drogerie`), "dm drogerie"},
	{regexp.MustCompile(`rossmann`), "Rossmann"},
	{regexp.MustCompile(`\bbenu\b`), "BENU"},
	{regexp.MustCompile(`\balza\b`), "Alza"},
	{regexp.MustCompile(`\bdatart\b`), "Datart"},
	{regexp.MustCompile(`\bikea\b`), "IKEA"},
}

var totalAmountRe = regexp.MustCompile(`(celkem k uhrade|celkem|total|suma|gesamt) ?:? ?(\d+(?:[.,]\d{1,2})?)`)

// Detector identifies purchase receipts.
type Detector struct {
	logger *zap.Logger
}

// New creates a receipt detector.
func New(logger *zap.Logger) *Detector {
	return &Detector{logger: logger}
}

// Name implements core.Detector.
func (d *Detector) Name() string {
	return "receipt"
}

// Detect sums the weighted signals, clamps to 100 and annotates the result
// with the merchant category.
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
		DocumentType: core.DocTypeReceipt,
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

	result.Tags = append(result.Tags, "receipt")
	if cat := category(text); cat != "" {
		result.Tags = append(result.Tags, cat)
		result.Metadata["category"] = cat
	}
	if name := merchantName(text); name != "" {
		result.Correspondent = name
	}
	if m := totalAmountRe.FindStringSubmatch(text); m != nil {
		if amount, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", "."), 64); err == nil {
			result.Amount = amount
		}
	}
	result.Explanation = "receipt signals: " + strings.Join(matched, ", ")

	d.logger.Debug("Receipt analysis",
		zap.Int("score", score),
		zap.Strings("matched", matched),
		zap.String("category", result.Metadata["category"]))

	return result, nil
}

func category(text string) string {
	for _, c := range categories {
		if c.re.MatchString(text) {
			return c.name
		}
	}
	return ""
}

func merchantName(text string) string {
	for _, m := range merchants {
		if m.re.MatchString(text) {
			return m.name
		}
	}
	return ""
}

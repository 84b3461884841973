// Package subscription turns the composite score into a subscription
// verdict and extracts billing details from the message text.
package subscription

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matej/doc-triage/internal/core"
	"github.com/matej/doc-triage/internal/scoring"
	"github.com/matej/doc-triage/internal/sendertrust"
	"github.com/matej/doc-triage/internal/textnorm"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// $12.99 style, symbol before the amount.
	symbolFirstRe = regexp.MustCompile(`([$€£¥]) ?(\d+(?:[.,]\d{1,2})?)`)
	// 299 Kč style, amount before the currency.
	amountFirstRe = regexp.MustCompile(`(\d+(?:[.,]\d{1,2})?) ?(usd|eur|czk|gbp|kc)\b`)

	cadences = []struct {
		name string
		re   *regexp.Regexp
	}{
		{"monthly", regexp.MustCompile(`(monthly|/ ?month\b|per month|mesicne|mesicni|monatlich)`)},
		{"yearly", regexp.MustCompile(`(yearly|annually|/ ?year\b|per year|rocne|rocni|jahrlich)`)},
		{"quarterly", regexp.MustCompile(`(quarterly|ctvrtletne|vierteljahrlich)`)},
		{"weekly", regexp.MustCompile(`(weekly|tydne|tydenni|wochentlich)`)},
	}

	symbolCurrencies = map[string]string{
		"$":  "USD",
		"€":  "EUR",
		"£":  "GBP",
		"¥":  "JPY",
		"kc": "CZK",
	}

	titleCaser = cases.Title(language.English)
)

// Detector identifies subscription and recurring payment documents.
type Detector struct {
	scorer *scoring.Scorer
	logger *zap.Logger
}

// New creates a subscription detector on top of the composite scorer.
func New(scorer *scoring.Scorer, logger *zap.Logger) *Detector {
	return &Detector{scorer: scorer, logger: logger}
}

// Name implements core.Detector.
func (d *Detector) Name() string {
	return "subscription"
}

// Detect scores the message and, when anything matched, extracts the billed
// amount, the billing cadence and the service name.
func (d *Detector) Detect(email *core.Email) (*core.ClassificationResult, error) {
	sr := d.scorer.Score(email)

	result := &core.ClassificationResult{
		DocumentType: core.DocTypeSubscription,
		Detector:     d.Name(),
		Score:        sr.Total,
		MaxScore:     core.MaxPossibleScore,
		Percentage:   sr.Percentage,
		Level:        sr.Level,
		Breakdown:    &sr.Breakdown,
		Matched:      sr.Matched,
		Warnings:     sr.Warnings,
		Suggestions:  sr.Suggestions,
		Metadata:     make(map[string]string),
	}
	if sr.Total == 0 {
		return result, nil
	}

	text := textnorm.Normalize(email.Subject + "\n" + email.Body)
	result.Amount, result.Currency = extractAmount(text)
	result.SubscriptionType = cadence(text)
	result.ServiceName = serviceName(email.From)
	result.Correspondent = result.ServiceName

	result.Tags = append(result.Tags, "subscription")
	if result.SubscriptionType != "" {
		result.Tags = append(result.Tags, result.SubscriptionType)
		result.Metadata["cadence"] = result.SubscriptionType
	}
	if result.Amount > 0 {
		result.Metadata["amount"] = strconv.FormatFloat(result.Amount, 'f', 2, 64)
		result.Metadata["currency"] = result.Currency
	}
	result.Explanation = "matched: " + strings.Join(sr.Matched, ", ")

	d.logger.Debug("Subscription analysis",
		zap.Int("score", sr.Total),
		zap.Float64("amount", result.Amount),
		zap.String("cadence", result.SubscriptionType))

	return result, nil
}

// extractAmount prefers the symbol-first form; both forms normalize the
// decimal comma before parsing.
func extractAmount(text string) (float64, string) {
	if m := symbolFirstRe.FindStringSubmatch(text); m != nil {
		return parseAmount(m[2]), symbolCurrencies[m[1]]
	}
	if m := amountFirstRe.FindStringSubmatch(text); m != nil {
		currency := m[2]
		if iso, ok := symbolCurrencies[currency]; ok {
			currency = iso
		}
		return parseAmount(m[1]), strings.ToUpper(currency)
	}
	return 0, ""
}

func parseAmount(raw string) float64 {
	amount, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0
	}
	return amount
}

func cadence(text string) string {
	for _, c := range cadences {
		if c.re.MatchString(text) {
			return c.name
		}
	}
	return ""
}

// serviceName derives a display name from the sender domain, skipping
// registry labels that are too short to be a brand.
func serviceName(from string) string {
	domain := sendertrust.Domain(from)
	if domain == "" {
		return ""
	}
	labels := strings.Split(domain, ".")
	for i := len(labels) - 2; i >= 0; i-- {
		if len(labels[i]) > 2 {
			return titleCaser.String(labels[i])
		}
	}
	return ""
}

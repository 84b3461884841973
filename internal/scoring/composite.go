// Package scoring combines the category scores, penalties, bonus
// combinations and sender trust into one bounded composite score.
package scoring

import (
	"strings"

	"github.com/matej/doc-triage/internal/core"
	"github.com/matej/doc-triage/internal/patterns"
	"github.com/matej/doc-triage/internal/sendertrust"
	"github.com/matej/doc-triage/internal/textnorm"
	"go.uber.org/zap"
)

const senderTrustCap = 25

// Warnings attached per triggered penalty pattern.
var penaltyWarnings = map[string]string{
	"unsubscribe_link":   "Contains 'unsubscribe' link (-30 penalty)",
	"newsletter_keyword": "Newsletter keyword detected (-25 penalty)",
	"marketing_keyword":  "Marketing keywords detected (-20 penalty)",
	"promotional":        "Promotional content detected (-15 penalty)",
	"spam_indicators":    "Spam indicators detected (-40 penalty)",
}

// Scorer produces composite scores from the current pattern table generation
// and the sender trust resolver.
type Scorer struct {
	provider *patterns.Provider
	trust    *sendertrust.Resolver
	logger   *zap.Logger
}

// NewScorer creates a composite scorer.
func NewScorer(provider *patterns.Provider, trust *sendertrust.Resolver, logger *zap.Logger) *Scorer {
	return &Scorer{
		provider: provider,
		trust:    trust,
		logger:   logger,
	}
}

// Result is one composite scoring outcome.
type Result struct {
	Breakdown   core.ScoreBreakdown
	Total       int
	Percentage  float64
	Level       core.ConfidenceLevel
	Matched     []string
	Warnings    []string
	Suggestions []string
}

// Score evaluates the email against one snapshot of the pattern table. The
// same input and table generation always produce the same result.
func (s *Scorer) Score(email *core.Email) *Result {
	table := s.provider.Table()
	text := textnorm.Normalize(strings.Join([]string{email.Subject, email.Body, email.HTMLBody}, "\n"))
	in := patterns.NewInput(text, table.Fuzzy())

	res := &Result{}
	matchedSet := make(map[string]bool)
	add := func(names ...string) {
		for _, n := range names {
			if !matchedSet[n] {
				matchedSet[n] = true
				res.Matched = append(res.Matched, n)
			}
		}
	}

	sub := table.Category(patterns.CategorySubscription).Score(in)
	res.Breakdown.SubscriptionIndicators = sub.Points
	add(sub.Matched...)

	pay := table.Category(patterns.CategoryPayment).Score(in)
	res.Breakdown.PaymentIndicators = pay.Points
	add(pay.Matched...)

	temporal := table.Category(patterns.CategoryTemporal).Score(in)
	res.Breakdown.TemporalIndicators = temporal.Points
	add(temporal.Matched...)

	if sig := s.trust.TrustSignal(email.From); sig != nil {
		points := sig.Points
		if points > senderTrustCap {
			points = senderTrustCap
		}
		res.Breakdown.SenderTrust = points
		add(sig.Name)
	}

	content := table.Category(patterns.CategoryContent).Score(in)
	res.Breakdown.ContentStructure = content.Points
	add(content.Matched...)

	format := table.Category(patterns.CategoryFormat).Score(in)
	res.Breakdown.FormatQuality = format.Points
	add(format.Matched...)

	penalties, penaltyNames := table.Category(patterns.CategoryPenalties).Sum(in)
	res.Breakdown.Penalties = penalties
	add(penaltyNames...)
	for _, name := range penaltyNames {
		if w, ok := penaltyWarnings[name]; ok {
			res.Warnings = append(res.Warnings, w)
		} else {
			res.Warnings = append(res.Warnings, "Penalty pattern '"+name+"' triggered")
		}
	}

	grantedGroups := make(map[string]bool)
	for _, combo := range table.Combos() {
		if combo.Group != "" && grantedGroups[combo.Group] {
			continue
		}
		qualified := true
		for _, req := range combo.Requires {
			if !matchedSet[req] {
				qualified = false
				break
			}
		}
		if !qualified {
			continue
		}
		res.Breakdown.Bonuses += combo.Points
		add(combo.Name)
		if combo.Group != "" {
			grantedGroups[combo.Group] = true
		}
	}

	res.Total = res.Breakdown.Total()
	res.Percentage = res.Breakdown.Percentage()
	res.Level = core.LevelFromPercentage(res.Percentage)
	res.Suggestions = s.suggestions(res.Breakdown)

	s.logger.Debug("Composite score computed",
		zap.Int("total", res.Total),
		zap.Float64("percentage", res.Percentage),
		zap.String("level", string(res.Level)),
		zap.Strings("matched", res.Matched))

	return res
}

func (s *Scorer) suggestions(b core.ScoreBreakdown) []string {
	var out []string
	if b.SubscriptionIndicators == 0 {
		out = append(out, "No subscription keywords found - check if this is really a subscription")
	}
	if b.PaymentIndicators < 20 {
		out = append(out, "Missing payment information (amount, currency, method)")
	}
	if b.SenderTrust == 0 {
		out = append(out, "Unknown sender - verify sender domain")
	}
	if b.Penalties < -30 {
		out = append(out, "Multiple negative indicators - likely marketing/newsletter")
	}
	return out
}

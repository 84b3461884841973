// Package marketing scores how strongly a message looks like promotional
// mail. It runs first in the router because marketing content freely quotes
// courts, banks and receipts and would otherwise poison every downstream
// detector.
package marketing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/matej/doc-triage/internal/core"
	"github.com/matej/doc-triage/internal/patterns"
	"github.com/matej/doc-triage/internal/sendertrust"
	"github.com/matej/doc-triage/internal/textnorm"
	"go.uber.org/zap"
)

// Transactional notification shapes. Any of these firing argues strongly
// against a marketing verdict, so they are applied first and dominate.
var notificationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(subscription renewal|renewing your subscription|will renew)`),
	regexp.MustCompile(`payment (confirmed|received|processed|successful)`),
	regexp.MustCompile(`(invoice|receipt|order confirmation)`),
	regexp.MustCompile(`(your order|order #\d+)`),
	regexp.MustCompile(`(account notification|important (account )?update)`),
	regexp.MustCompile(`(security alert|password reset|verify your account)`),
	regexp.MustCompile(`(statement|transaction|billing summary)`),
	regexp.MustCompile(`(obnova predplatneho|potvrzeni platby|faktura)`),
	regexp.MustCompile(`(predplatne|subscription)`),
	regexp.MustCompile(`ukonceni predplatneho`),
	regexp.MustCompile(`(renewal order|order receipt)`),
}

var subjectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(sale|discount|offer|deal|save|free|limited|exclusive|special)\b`),
	regexp.MustCompile(`\b(today only|act now|don.?t miss|last chance|hurry)\b`),
	regexp.MustCompile(`(\d+% ?off|save \$|get \d+)`),
	regexp.MustCompile(`[🎁🎉💰🔥⚡🎯💎✨🌟⭐]`),
	regexp.MustCompile(`\b(sleva|akce|zdarma|vyprodej|nabidka)\b`),
	regexp.MustCompile(`\b(black friday|cyber monday|flash sale)\b`),
	regexp.MustCompile(`\b(angebot|rabatt|gratis|aktion)`),
}

// Matched against the bare sender address.
var senderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(no-?reply|do-not-reply)`),
	regexp.MustCompile(`^(newsletter|marketing|promo|promotions|offers)`),
	regexp.MustCompile(`^(news|info|hello|team|support)`),
	regexp.MustCompile(`@(mail\.|email\.|newsletter\.|promo\.)`),
}

var unsubscribePatterns = []*regexp.Regexp{
	regexp.MustCompile(`unsubscribe`),
	regexp.MustCompile(`opt[ -]?out`),
	regexp.MustCompile(`remove from (this )?list`),
	regexp.MustCompile(`odhlasit`),
	regexp.MustCompile(`zrusit odber`),
	regexp.MustCompile(`manage (your )?preferences`),
	regexp.MustCompile(`update (your )?preferences`),
	regexp.MustCompile(`(abmelden|abbestellen)`),
}

var bodyPhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`view (this email )?in (your )?browser`),
	regexp.MustCompile(`click here`),
	regexp.MustCompile(`shop now`),
	regexp.MustCompile(`buy now`),
	regexp.MustCompile(`learn more`),
	regexp.MustCompile(`get started`),
	regexp.MustCompile(`sign up`),
	regexp.MustCompile(`subscribe now`),
	regexp.MustCompile(`limited time`),
	regexp.MustCompile(`while supplies last`),
	regexp.MustCompile(`jetzt kaufen`),
	regexp.MustCompile(`mehr erfahren`),
}

var (
	trackingRe = regexp.MustCompile(`(utm_[a-z]+|mailchimp|sendgrid|mailerlite|list-unsubscribe)`)
	linkRe     = regexp.MustCompile(`<a[\s>]`)
	imageRe    = regexp.MustCompile(`<img[\s>/]`)
)

// Detector scores marketing likelihood on a 0-100 scale.
type Detector struct {
	trust  *sendertrust.Resolver
	logger *zap.Logger
}

// New creates a marketing detector.
func New(trust *sendertrust.Resolver, logger *zap.Logger) *Detector {
	return &Detector{trust: trust, logger: logger}
}

// Name implements core.Detector.
func (d *Detector) Name() string {
	return "marketing"
}

// Detect weighs promotional signals against transactional counter-signals.
// The counter-signals are deliberately heavy: a single renewal or payment
// notification shape outweighs most promotional decoration.
func (d *Detector) Detect(email *core.Email) (*core.ClassificationResult, error) {
	subject := textnorm.Normalize(email.Subject)
	full := subject + " " + textnorm.Normalize(email.Body+"\n"+email.HTMLBody)
	address := sendertrust.Address(email.From)

	score := 0
	breakdown := make(map[string]int)
	var reasons []string

	if n := countMatching(notificationPatterns, full); n > 0 {
		p := minInt(60, n*50)
		score -= p
		breakdown["notification_signals"] = -p
		reasons = append(reasons, fmt.Sprintf("%d transactional notification signals", n))
	}

	if domain, ok := d.trust.MarketingDomain(email.From); ok {
		score += 60
		breakdown["marketing_domain"] = 60
		reasons = append(reasons, "sender domain "+domain+" is a listed marketing source")
	} else if sig := d.trust.TrustSignal(email.From); sig != nil && sig.Name != patterns.SignalNoreplyBilling {
		score -= 20
		breakdown["whitelist_bonus"] = -20
		reasons = append(reasons, "trusted sender domain")
	}

	if n := countMatching(subjectPatterns, subject); n > 0 {
		p := minInt(25, n*8)
		score += p
		breakdown["subject_analysis"] = p
		reasons = append(reasons, fmt.Sprintf("%d promotional subject patterns", n))
	}

	if ratio := uppercaseRatio(email.Subject); ratio > 0.5 {
		score += 10
		breakdown["caps_ratio"] = 10
		reasons = append(reasons, fmt.Sprintf("subject is %.0f%% uppercase", ratio*100))
	}

	if address != "" && matchesAny(senderPatterns, address) {
		score += 20
		breakdown["sender_analysis"] = 20
		reasons = append(reasons, "bulk-mail sender address shape")
	}

	if matchesAny(unsubscribePatterns, full) {
		score += 30
		breakdown["unsubscribe_present"] = 30
		reasons = append(reasons, "unsubscribe mechanism present")
	}

	if n := countMatching(bodyPhrasePatterns, full); n > 0 {
		p := minInt(15, n*3)
		score += p
		breakdown["body_phrases"] = p
	}

	if email.HTMLBody != "" {
		html := strings.ToLower(email.HTMLBody)
		htmlPoints := 0
		if len(linkRe.FindAllStringIndex(html, -1)) > 5 {
			htmlPoints += 5
		}
		if len(imageRe.FindAllStringIndex(html, -1)) > 3 {
			htmlPoints += 5
		}
		if htmlPoints > 0 {
			score += htmlPoints
			breakdown["html_elements"] = htmlPoints
			reasons = append(reasons, "link/image heavy HTML")
		}
	}

	if trackingRe.MatchString(full) {
		score += 5
		breakdown["tracking"] = 5
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	d.logger.Debug("Marketing analysis",
		zap.String("sender", email.From),
		zap.Int("score", score))

	return &core.ClassificationResult{
		DocumentType: core.DocTypeMarketing,
		Detector:     d.Name(),
		Score:        score,
		MaxScore:     100,
		Percentage:   float64(score),
		Level:        core.LevelFromPercentage(float64(score)),
		Tags:         []string{"marketing"},
		Metadata:     signalMetadata(breakdown),
		Explanation:  strings.Join(reasons, "; "),
	}, nil
}

func countMatching(res []*regexp.Regexp, text string) int {
	n := 0
	for _, re := range res {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

func matchesAny(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// uppercaseRatio is computed on the raw subject: normalization lowercases
// everything, and SHOUTING is exactly the signal wanted here.
func uppercaseRatio(s string) float64 {
	letters, upper := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

func signalMetadata(breakdown map[string]int) map[string]string {
	if len(breakdown) == 0 {
		return nil
	}
	meta := make(map[string]string, len(breakdown))
	for k, v := range breakdown {
		meta[k] = strconv.Itoa(v)
	}
	return meta
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Package sendertrust resolves what is known about a sender's domain before
// any content scoring happens: marketing senders short-circuit the router,
// known services and payment processors earn trust points.
package sendertrust

import (
	"net/mail"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/matej/doc-triage/internal/patterns"
	"go.uber.org/zap"
)

// Default domain lists. The service list mirrors the subscription providers
// the scoring tables were tuned against; configuration replaces any of these
// wholesale.
var (
	DefaultMarketingDomains = []string{
		"autoscout24.de",
		"autoscout24.com",
		"mobile.de",
		"immowelt.de",
	}

	DefaultKnownServices = []string{
		"github.com", "netflix.com", "spotify.com", "adobe.com",
		"microsoft.com", "google.com", "apple.com", "dropbox.com",
		"slack.com", "zoom.us", "notion.so", "figma.com", "canva.com",
		"grammarly.com", "evernote.com", "stripe.com", "paypal.com",
		"braintree.com", "openai.com",
	}

	DefaultPaymentProcessors = []string{
		"stripe.com", "paypal.com", "braintree.com", "square.com", "gopay.cz",
	}
)

// Trust point values for the sender_trust scoring category.
const (
	knownServicePoints     = 25
	paymentProcessorPoints = 20
	noreplyBillingPoints   = 15
)

var noreplyBillingRe = regexp.MustCompile(`(noreply|no-reply|billing|subscriptions|payments)@`)

// Verdict is a short-circuit classification produced purely from the sender
// domain. The router must emit it without running any detector.
type Verdict struct {
	Domain string
}

// Signal is a trust contribution consumed by the composite scorer's
// sender_trust category and the marketing detector's discount.
type Signal struct {
	Name   string
	Points int
}

type lists struct {
	marketing  []string
	services   []string
	processors []string
}

// Resolver matches sender domains against the configured lists. List lookups
// are exact or dot-suffix: an entry "mobile.de" covers "news.mobile.de" but
// not "tmobile.de".
type Resolver struct {
	lists  atomic.Pointer[lists]
	logger *zap.Logger
}

// NewResolver creates a resolver over the given domain lists.
func NewResolver(marketingDomains, knownServices, paymentProcessors []string, logger *zap.Logger) *Resolver {
	r := &Resolver{logger: logger}
	r.Update(marketingDomains, knownServices, paymentProcessors)
	return r
}

// Update atomically replaces all three lists. Used by the pattern hot-reload
// path so trust lists travel with the tables.
func (r *Resolver) Update(marketingDomains, knownServices, paymentProcessors []string) {
	r.lists.Store(&lists{
		marketing:  normalizeDomains(marketingDomains),
		services:   normalizeDomains(knownServices),
		processors: normalizeDomains(paymentProcessors),
	})
}

// Resolve inspects the sender and returns a short-circuit verdict for
// marketing domains, nil otherwise.
func (r *Resolver) Resolve(sender string) *Verdict {
	if domain, ok := r.MarketingDomain(sender); ok {
		return &Verdict{Domain: domain}
	}
	return nil
}

// MarketingDomain reports whether the sender's domain is a listed marketing
// source, returning the matched list entry.
func (r *Resolver) MarketingDomain(sender string) (string, bool) {
	domain := Domain(sender)
	if domain == "" {
		return "", false
	}
	entry, ok := matchDomain(domain, r.lists.Load().marketing)
	if ok {
		r.logger.Debug("Sender domain is a known marketing source",
			zap.String("sender", sender),
			zap.String("domain", entry))
	}
	return entry, ok
}

// TrustSignal returns the strongest trust signal for the sender: known
// service over payment processor over a noreply/billing address shape. Nil
// when the sender earns no trust.
func (r *Resolver) TrustSignal(sender string) *Signal {
	address := Address(sender)
	if address == "" {
		return nil
	}
	domain := Domain(address)
	ls := r.lists.Load()
	if _, ok := matchDomain(domain, ls.services); ok {
		return &Signal{Name: patterns.SignalKnownService, Points: knownServicePoints}
	}
	if _, ok := matchDomain(domain, ls.processors); ok {
		return &Signal{Name: patterns.SignalPaymentProcessor, Points: paymentProcessorPoints}
	}
	if noreplyBillingRe.MatchString(address) {
		return &Signal{Name: patterns.SignalNoreplyBilling, Points: noreplyBillingPoints}
	}
	return nil
}

// Address extracts the bare lowercase address from a From value, tolerating
// the display-name form "Name <user@example.com>".
func Address(sender string) string {
	s := strings.TrimSpace(sender)
	if s == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(s); err == nil {
		s = addr.Address
	} else if start := strings.LastIndex(s, "<"); start >= 0 {
		if end := strings.Index(s[start:], ">"); end > 0 {
			s = s[start+1 : start+end]
		}
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// Domain extracts the lowercase domain part of a sender address; empty when
// the address carries no domain.
func Domain(sender string) string {
	address := Address(sender)
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return address[at+1:]
}

func matchDomain(domain string, entries []string) (string, bool) {
	for _, e := range entries {
		if domain == e || strings.HasSuffix(domain, "."+e) {
			return e, true
		}
	}
	return "", false
}

func normalizeDomains(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

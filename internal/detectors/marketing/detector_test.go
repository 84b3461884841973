package marketing

import (
	"strings"
	"testing"

	"github.com/matej/doc-triage/internal/core"
	"github.com/matej/doc-triage/internal/sendertrust"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDetector() *Detector {
	trust := sendertrust.NewResolver(
		sendertrust.DefaultMarketingDomains,
		sendertrust.DefaultKnownServices,
		sendertrust.DefaultPaymentProcessors,
		zap.NewNop())
	return New(trust, zap.NewNop())
}

func TestDetectCarDealerNewsletter(t *testing.T) {
	d := newTestDetector()
	res, err := d.Detect(&core.Email{
		From:    "AutoScout24 <newsletter@autoscout24.de>",
		Subject: "Top-Angebote: SLEVA 20% jen dnes",
		Body:    "Klikněte a prohlédněte si nabídku. Odhlásit se můžete kdykoliv.",
	})
	require.NoError(t, err)

	// marketing domain 60, subject patterns 2x8, sender shape 20,
	// unsubscribe 30: clamped to 100.
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, core.DocTypeMarketing, res.DocumentType)
	assert.Equal(t, core.ConfidenceVeryHigh, res.Level)
	assert.Equal(t, "60", res.Metadata["marketing_domain"])
	assert.Equal(t, "16", res.Metadata["subject_analysis"])
	assert.Equal(t, "20", res.Metadata["sender_analysis"])
	assert.Equal(t, "30", res.Metadata["unsubscribe_present"])
}

func TestDetectRenewalNotificationIsNotMarketing(t *testing.T) {
	d := newTestDetector()
	res, err := d.Detect(&core.Email{
		From:    "OpenAI <noreply@openai.com>",
		Subject: "Your subscription renewal",
		Body:    "Your subscription will renew on Dec 1. Payment confirmed: $20/month charged to card.",
	})
	require.NoError(t, err)

	// Three notification shapes (-60) plus the known-service discount (-20)
	// bury the noreply sender shape (+20).
	assert.Zero(t, res.Score)
	assert.Equal(t, core.ConfidenceLow, res.Level)
	assert.Equal(t, "-60", res.Metadata["notification_signals"])
	assert.Equal(t, "-20", res.Metadata["whitelist_bonus"])
	assert.Equal(t, "20", res.Metadata["sender_analysis"])
}

func TestDetectHTMLNewsletter(t *testing.T) {
	links := strings.Repeat(`<a href="https://shop.example/p?utm_campaign=x">now</a> `, 8)
	images := strings.Repeat(`<img src="https://cdn.example/banner.png"> `, 5)
	d := newTestDetector()
	res, err := d.Detect(&core.Email{
		From:    "news@mail.somestore.example",
		Subject: "Don't miss: 50% off EVERYTHING today only!",
		Body:    "",
		HTMLBody: `<html><body>View in browser. Shop now. Unsubscribe anytime.` +
			links + images + `</body></html>`,
	})
	require.NoError(t, err)

	// subject 2x8, sender 20, unsubscribe 30, body phrases 2x3,
	// html 5+5, tracking 5.
	assert.Equal(t, 87, res.Score)
	assert.Equal(t, core.ConfidenceHigh, res.Level)
	assert.Equal(t, "16", res.Metadata["subject_analysis"])
	assert.Equal(t, "20", res.Metadata["sender_analysis"])
	assert.Equal(t, "30", res.Metadata["unsubscribe_present"])
	assert.Equal(t, "6", res.Metadata["body_phrases"])
	assert.Equal(t, "10", res.Metadata["html_elements"])
	assert.Equal(t, "5", res.Metadata["tracking"])
}

func TestDetectUppercaseSubject(t *testing.T) {
	d := newTestDetector()
	res, err := d.Detect(&core.Email{
		From:    "someone@example.org",
		Subject: "MEGA VYPRODEJ VSEHO",
		Body:    "jen tento tyden",
	})
	require.NoError(t, err)
	assert.Equal(t, "10", res.Metadata["caps_ratio"])
}

func TestDetectPlainMessage(t *testing.T) {
	d := newTestDetector()
	res, err := d.Detect(&core.Email{
		From:    "colleague@example.org",
		Subject: "Meeting notes",
		Body:    "Attached are the notes from today.",
	})
	require.NoError(t, err)
	assert.Zero(t, res.Score)
	assert.Empty(t, res.Metadata)
}

package patterns

// Category names referenced by the composite scorer.
const (
	CategorySubscription = "subscription_indicators"
	CategoryPayment      = "payment_indicators"
	CategoryTemporal     = "temporal_indicators"
	CategoryContent      = "content_structure"
	CategoryFormat       = "format_quality"
	CategoryPenalties    = "penalties"
)

// Sender trust signal names. These are not regex patterns (the sender trust
// resolver produces them from its domain lists) but they participate in the
// matched set, so bonus combinations can require them.
const (
	SignalKnownService     = "known_service_domain"
	SignalPaymentProcessor = "payment_processor"
	SignalNoreplyBilling   = "noreply_billing"
)

// DefaultTable returns the built-in scoring table. Every expression is
// written against normalized text: lowercase, diacritics folded, whitespace
// collapsed to single spaces.
func DefaultTable() TableSpec {
	return TableSpec{
		Categories: []CategorySpec{
			{
				Name: CategorySubscription,
				Cap:  50,
				Patterns: []Spec{
					{Name: "subscription_keyword", Expr: `(subscription|predplatne|abonnement|clenstvi)`, Points: 50},
					{Name: "renewal_keyword", Expr: `(renewal|renew|obnoveni|renewed|obnovi)`, Points: 45},
					{Name: "payment_confirmed", Expr: `(payment confirmed|platba potvrzena|charge successful|successfully charged)`, Points: 40},
					{Name: "invoice_keyword", Expr: `(invoice|faktura|rechnung|bill|uctenka)`, Points: 35},
					{Name: "membership_keyword", Expr: `(membership|clenstvi|member|premium)`, Points: 30},
				},
			},
			{
				Name: CategoryPayment,
				Cap:  40,
				Patterns: []Spec{
					{Name: "price_with_currency", Expr: `([$€£¥] ?\d{1,3}([,.]\d{3})*([,.]\d{2})?|\d{1,3}([,. ]\d{3})*[,.]\d{2} ?(usd|eur|czk|\bkc\b|€|\$))`, Points: 40},
					{Name: "payment_method", Expr: `(charged to|payment method|card ending|paypal|stripe|credit card)`, Points: 35},
					{Name: "billing_date", Expr: `(billing date|next charge|next payment|charge on)`, Points: 30},
					{Name: "amount_total", Expr: `(total|amount|celkem|suma): ?[$€£¥]?\d+`, Points: 25},
				},
			},
			{
				Name: CategoryTemporal,
				Cap:  35,
				Patterns: []Spec{
					{Name: "monthly_yearly", Expr: `(monthly|yearly|mesicne|rocne|per month|per year|/month|/year)`, Points: 35},
					{Name: "renewal_date", Expr: `(renews on|expires|ends on|platnost do|expiry date)`, Points: 30},
					{Name: "trial_period", Expr: `(trial ends|trial period|zkusebni doba|free trial)`, Points: 25},
					{Name: "billing_cycle", Expr: `(billing cycle|payment cycle|cyklus platby)`, Points: 20},
				},
			},
			{
				Name: CategoryContent,
				Cap:  20,
				Patterns: []Spec{
					{Name: "html_table", Expr: `<table`, Points: 15},
					{Name: "receipt_structure", Expr: `(receipt|kvitance|potvrzeni)`, Points: 15},
				},
			},
			{
				Name: CategoryFormat,
				Cap:  15,
				Patterns: []Spec{
					{Name: "date_format", Expr: `\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`, Points: 15},
					{Name: "currency_symbol", Expr: `([$€£¥]|\bkc\b)`, Points: 10},
				},
			},
			{
				Name: CategoryPenalties,
				Patterns: []Spec{
					{Name: "unsubscribe_link", Expr: `(unsubscribe|opt-out|odhlasit|abbestellen)`, Points: -30},
					{Name: "newsletter_keyword", Expr: `(newsletter|bulletin|zpravodaj)`, Points: -25},
					{Name: "marketing_keyword", Expr: `(sale|discount|limited offer|akce|sleva|vyprodej)`, Points: -20},
					{Name: "promotional", Expr: `(promo|deal|special offer|save \d+%)`, Points: -15},
					{Name: "spam_indicators", Expr: `!{3,}`, Points: -40},
				},
			},
		},
		Combos: []ComboSpec{
			{Name: "perfect_subscription_combo", Points: 20, Group: "perfect",
				Requires: []string{"subscription_keyword", "price_with_currency", "monthly_yearly"}},
			{Name: "perfect_payment_combo", Points: 15, Group: "perfect",
				Requires: []string{"payment_confirmed", "amount_total", "payment_method"}},
			{Name: "perfect_renewal_combo", Points: 15, Group: "perfect",
				Requires: []string{"renewal_keyword", "renewal_date", "price_with_currency"}},
			{Name: "trusted_service_payment", Points: 10, Group: "trusted",
				Requires: []string{SignalKnownService, "payment_confirmed"}},
		},
	}
}

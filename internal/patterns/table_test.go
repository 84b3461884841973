package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func compileSpec(t *testing.T, spec TableSpec, fuzzy bool) *Table {
	t.Helper()
	return Compile(spec, fuzzy, zap.NewNop())
}

func TestCategoryBestMatchWins(t *testing.T) {
	table := compileSpec(t, TableSpec{
		Categories: []CategorySpec{{
			Name: "indicators",
			Cap:  50,
			Patterns: []Spec{
				{Name: "strong", Expr: `subscription`, Points: 50},
				{Name: "weaker", Expr: `renew`, Points: 45},
			},
		}},
	}, false)

	in := NewInput("your subscription will renew soon", false)
	res := table.Category("indicators").Score(in)

	// Both patterns match but points never sum within a category.
	assert.Equal(t, 50, res.Points)
	assert.Equal(t, "strong", res.Best)
	assert.Equal(t, []string{"strong", "weaker"}, res.Matched)
}

func TestCategoryTieBrokenByDeclarationOrder(t *testing.T) {
	table := compileSpec(t, TableSpec{
		Categories: []CategorySpec{{
			Name: "tied",
			Cap:  40,
			Patterns: []Spec{
				{Name: "first", Expr: `invoice`, Points: 40},
				{Name: "second", Expr: `faktura`, Points: 40},
			},
		}},
	}, false)

	res := table.Category("tied").Score(NewInput("invoice faktura", false))
	assert.Equal(t, 40, res.Points)
	assert.Equal(t, "first", res.Best)
}

func TestCategoryCapAppliedAfterMatch(t *testing.T) {
	table := compileSpec(t, TableSpec{
		Categories: []CategorySpec{{
			Name: "capped",
			Cap:  30,
			Patterns: []Spec{
				{Name: "big", Expr: `premium`, Points: 50},
			},
		}},
	}, false)

	res := table.Category("capped").Score(NewInput("premium plan", false))
	assert.Equal(t, 30, res.Points)
	assert.Equal(t, "big", res.Best)
}

func TestCategoryNoMatch(t *testing.T) {
	table := compileSpec(t, DefaultTable(), false)
	res := table.Category(CategorySubscription).Score(NewInput("nothing relevant here", false))
	assert.Zero(t, res.Points)
	assert.Empty(t, res.Best)
	assert.Nil(t, res.Matched)
}

func TestInvalidPatternSkipped(t *testing.T) {
	table := compileSpec(t, TableSpec{
		Categories: []CategorySpec{{
			Name: "mixed",
			Cap:  50,
			Patterns: []Spec{
				{Name: "broken", Expr: `([unclosed`, Points: 50},
				{Name: "valid", Expr: `renew`, Points: 45},
			},
		}},
	}, false)

	// The broken pattern never matches; the rest of the category still works.
	res := table.Category("mixed").Score(NewInput("renew now", false))
	assert.Equal(t, 45, res.Points)
	assert.Equal(t, "valid", res.Best)
	assert.Equal(t, []string{"valid"}, res.Matched)
}

func TestPenaltiesSum(t *testing.T) {
	table := compileSpec(t, DefaultTable(), false)
	total, matched := table.Category(CategoryPenalties).Sum(
		NewInput("unsubscribe from this newsletter", false))
	assert.Equal(t, -55, total)
	assert.Equal(t, []string{"unsubscribe_link", "newsletter_keyword"}, matched)
}

func TestDefaultTableFoldedPatterns(t *testing.T) {
	table := compileSpec(t, DefaultTable(), false)

	tests := []struct {
		category string
		text     string
		best     string
		points   int
	}{
		{CategorySubscription, "vase predplatne bylo obnoveno", "subscription_keyword", 50},
		{CategorySubscription, "potvrzeni: platba potvrzena", "payment_confirmed", 40},
		{CategoryPayment, "charged $12.99 to your card", "price_with_currency", 40},
		{CategoryPayment, "celkem: 256 kc", "amount_total", 25},
		{CategoryTemporal, "billed monthly", "monthly_yearly", 35},
		{CategoryFormat, "valid until 31/12/2026", "date_format", 15},
		{CategoryFormat, "price in kc today", "currency_symbol", 10},
	}
	for _, tt := range tests {
		res := table.Category(tt.category).Score(NewInput(tt.text, false))
		assert.Equal(t, tt.best, res.Best, "text %q", tt.text)
		assert.Equal(t, tt.points, res.Points, "text %q", tt.text)
	}

	// "akce" must not trip the currency symbol class.
	res := table.Category(CategoryFormat).Score(NewInput("velka akce jen dnes", false))
	assert.Zero(t, res.Points)
}

func TestUnknownCategoryIsNil(t *testing.T) {
	table := compileSpec(t, DefaultTable(), false)
	require.Nil(t, table.Category("no_such_category"))
	// Scoring a nil category is a no-op, not a panic.
	assert.Zero(t, table.Category("no_such_category").Score(NewInput("x", false)).Points)
}

package bank

import (
	"testing"

	"github.com/matej/doc-triage/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDetectCzechStatement(t *testing.T) {
	d := New(zap.NewNop())

	res, err := d.Detect(&core.Email{
		Subject: "Výpis z účtu za období 01/2026",
		Body: "Česká spořitelna\nVýpis z účtu 1234567890/0800\n" +
			"Počáteční zůstatek: 15 000,00 CZK\nKonečný zůstatek: 12 340,50 CZK",
	})

	require.NoError(t, err)
	assert.Equal(t, core.DocTypeBank, res.DocumentType)
	// statement marker 40 + account 25 + balance 20 + bank name 15 + period 10,
	// clamped to 100.
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, core.ConfidenceVeryHigh, res.Level)
	assert.Equal(t, "1234567890/0800", res.Metadata["account_number"])
	assert.Equal(t, "Česká spořitelna", res.Correspondent)
	assert.Contains(t, res.Matched, "statement_marker")
	assert.Contains(t, res.Matched, "balance")
}

func TestDetectStatementNotification(t *testing.T) {
	d := New(zap.NewNop())

	res, err := d.Detect(&core.Email{
		Subject: "Váš bankovní výpis je připraven",
		Body:    "Výpis z účtu 123456/0100 je ke stažení v internetovém bankovnictví. Zůstatek najdete v dokumentu.",
	})

	require.NoError(t, err)
	// statement marker 40 + account 25 + balance 20 = 85.
	assert.Equal(t, 85, res.Score)
	assert.Equal(t, core.ConfidenceHigh, res.Level)
	assert.Equal(t, "123456/0100", res.Metadata["account_number"])
}

func TestDetectGermanKontoauszug(t *testing.T) {
	d := New(zap.NewNop())

	res, err := d.Detect(&core.Email{
		Subject: "Ihr Kontoauszug",
		Body:    "Sparkasse\nKontoauszug für IBAN DE89 3704 0044 0532 0130 00\nKontostand: 1.234,56 EUR",
	})

	require.NoError(t, err)
	// statement marker 40 + iban 20 + balance 20 + bank name 15 = 95.
	assert.Equal(t, 95, res.Score)
	assert.Equal(t, "Sparkasse", res.Correspondent)
	assert.Contains(t, res.Matched, "iban")
}

func TestDetectDateIsNotAnAccountNumber(t *testing.T) {
	d := New(zap.NewNop())

	res, err := d.Detect(&core.Email{
		Subject: "Team offsite",
		Body:    "The offsite is planned for 12/2026, flights land on 15/01/2027.",
	})

	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
	assert.NotContains(t, res.Matched, "account_number")
}

func TestDetectBankNameAloneStaysBelowThreshold(t *testing.T) {
	d := New(zap.NewNop())

	res, err := d.Detect(&core.Email{
		Subject: "Nová pobočka",
		Body:    "Komerční banka otevírá novou pobočku ve vašem městě.",
	})

	require.NoError(t, err)
	assert.Equal(t, 15, res.Score)
	assert.Equal(t, core.ConfidenceLow, res.Level)
	assert.Equal(t, "Komerční banka", res.Correspondent)
}

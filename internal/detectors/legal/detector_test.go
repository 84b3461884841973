package legal

import (
	"testing"

	"github.com/matej/doc-triage/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDetector() *Detector {
	return New(zap.NewNop())
}

func TestDetectCzechPoliceWithStatutoryReference(t *testing.T) {
	d := newTestDetector()

	res, err := d.Detect(&core.Email{
		Subject: "Vyrozumění o zahájení úkonů",
		Body: "Policie České republiky, Krajské ředitelství policie hl. m. Prahy.\n" +
			"Podle § 158 odst. 3 trestního řádu vám sdělujeme, že byly zahájeny úkony trestního řízení.\n" +
			"Č. j. KRPA-123456-12/TC-2024-001122",
	})

	require.NoError(t, err)
	assert.Equal(t, core.DocTypeLegal, res.DocumentType)
	assert.Equal(t, 90, res.Score)
	assert.Equal(t, core.ConfidenceVeryHigh, res.Level)
	assert.Equal(t, "police_legal", res.Metadata["legal_type"])
	assert.Equal(t, "cz", res.Metadata["country"])
	assert.Equal(t, "KRPA-123456-12/TC-2024-001122", res.Metadata["case_number"])
	assert.Contains(t, res.Metadata["police_department"], "POLICIE CESKE REPUBLIKY")
	assert.Contains(t, res.Tags, "legal")
	assert.Contains(t, res.Tags, "police_legal")
}

func TestDetectPoliceWithoutEvidenceIsAdministrative(t *testing.T) {
	d := newTestDetector()

	res, err := d.Detect(&core.Email{
		Subject: "Dopravní omezení",
		Body:    "Krajské ředitelství policie vás informuje o uzavírce ulice z důvodu konání sportovní akce.",
	})

	require.NoError(t, err)
	assert.Equal(t, 70, res.Score)
	assert.Equal(t, core.ConfidenceMedium, res.Level)
	assert.Equal(t, "police_admin", res.Metadata["legal_type"])
	assert.Empty(t, res.Metadata["case_number"])
}

func TestDetectCourtSummons(t *testing.T) {
	d := newTestDetector()

	res, err := d.Detect(&core.Email{
		Subject: "Předvolání k hlavnímu líčení",
		Body: "Obvodní soud pro Prahu 4 vás předvolává k hlavnímu líčení ve věci " +
			"vedené pod sp. zn. 3 T 45/2023. Samosoudce JUDr. Novák.",
	})

	require.NoError(t, err)
	assert.Equal(t, 90, res.Score)
	assert.Equal(t, "court", res.Metadata["legal_type"])
	assert.Equal(t, "3 T 45/2023", res.Metadata["case_number"])
	assert.Equal(t, "OBVODNI SOUD PRO PRAHU 4", res.Metadata["court_name"])
	assert.Equal(t, "Předvolání", res.Metadata["document_subtype"])
}

func TestDetectProsecutorNotice(t *testing.T) {
	d := newTestDetector()

	res, err := d.Detect(&core.Email{
		Subject: "Vyrozumění",
		Body:    "Městské státní zastupitelství v Praze zasílá vyrozumění o postoupení věci.",
	})

	require.NoError(t, err)
	assert.Equal(t, 90, res.Score)
	assert.Equal(t, "prosecutor", res.Metadata["legal_type"])
	assert.Equal(t, "MESTSKE STATNI ZASTUPITELSTVI V PRAZE", res.Metadata["prosecutor_name"])
	assert.Equal(t, "Vyrozumění", res.Metadata["document_subtype"])
}

func TestDetectGermanCourtKeywordAloneStaysBelowConfidence(t *testing.T) {
	d := newTestDetector()

	res, err := d.Detect(&core.Email{
		Subject: "Neues vom Amtsgericht",
		Body:    "Unser Newsletter berichtet diese Woche über das Amtsgericht und seine Geschichte.",
	})

	require.NoError(t, err)
	assert.Equal(t, 50, res.Score)
	assert.Equal(t, core.ConfidenceMedium, res.Level)
	assert.Equal(t, "court", res.Metadata["legal_type"])
	assert.Equal(t, "de", res.Metadata["country"])
}

func TestDetectGermanCourtWithCaseNumber(t *testing.T) {
	d := newTestDetector()

	res, err := d.Detect(&core.Email{
		Subject: "Ladung",
		Body:    "Amtsgericht München, Aktenzeichen 12 C 345/2023. Erscheinen Sie zum Termin.",
	})

	require.NoError(t, err)
	assert.Equal(t, 90, res.Score)
	assert.Equal(t, "12 C 345/2023", res.Metadata["case_number"])
	assert.Equal(t, "AMTSGERICHT", res.Metadata["court_name"])
}

func TestDetectLoneCaseNumber(t *testing.T) {
	d := newTestDetector()

	res, err := d.Detect(&core.Email{
		Subject: "Dotaz",
		Body:    "Dobrý den, v příloze zasílám podklady ke spisu sp. zn. 3 T 45/2023.",
	})

	require.NoError(t, err)
	assert.Equal(t, 50, res.Score)
	assert.Equal(t, "legal_unknown", res.Metadata["legal_type"])
	assert.Equal(t, "3 T 45/2023", res.Metadata["case_number"])
	assert.NotContains(t, res.Metadata, "country")
}

func TestDetectNoLegalSignals(t *testing.T) {
	d := newTestDetector()

	res, err := d.Detect(&core.Email{
		Subject: "Team lunch",
		Body:    "Shall we meet at noon on Friday?",
	})

	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, core.ConfidenceLow, res.Level)
	assert.Empty(t, res.Metadata)
}

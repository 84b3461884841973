// Package legal recognizes Czech and German police, court and prosecutor
// documents. A bare institution keyword is never enough for a confident
// verdict; corroborating evidence (case number, statutory reference or a
// signature block) is what separates a summons from a newsletter quoting one.
package legal

import (
	"regexp"
	"strings"

	"github.com/matej/doc-triage/internal/core"
	"github.com/matej/doc-triage/internal/textnorm"
	"go.uber.org/zap"
)

var (
	czechPoliceRe     = regexp.MustCompile(`(policie ceske republiky|krajske reditelstvi policie)`)
	czechCourtRe      = regexp.MustCompile(`(obvodni|okresni|krajsky|vrchni|mestsky|ustavni) soud`)
	czechProsecutorRe = regexp.MustCompile(`((mestske|krajske|okresni) )?statni zastupitelstvi`)
	legalRefRe        = regexp.MustCompile(`(§ ?\d+( odst(avec|\.)? ?\d+)?|trestniho radu|trestni zakon)`)
	signatureRe       = regexp.MustCompile(`(judr\.|samosoudce|statni zastupce|statni zastupkyne)`)
	courtTypeRe       = regexp.MustCompile(`\b(predvolani|rozsudek|usneseni|odvolani)\b`)
	prosecutorTypeRe  = regexp.MustCompile(`\b(kzv|tz)\b|vyrozumeni|navrh na zastaveni`)
	germanCourtRe     = regexp.MustCompile(`\b(amtsgericht|landgericht|oberlandesgericht|staatsanwaltschaft)\b`)
	germanPoliceRe    = regexp.MustCompile(`\b(bundespolizei|polizei)\b`)

	labeledCaseRe = regexp.MustCompile(`(sp\. ?zn\.|spisova znacka) ?:? ?(\d+ ?[a-z]{1,4} ?\d+/\d{4})`)
	krpaCaseRe    = regexp.MustCompile(`krpa-\d+-\d+/[a-z]+-\d+-\d+`)
	genericCaseRe = regexp.MustCompile(`\b\d+ ?[a-z]{1,4} ?\d+/\d{4}\b`)

	courtNameRe      = regexp.MustCompile(`(obvodni|okresni|krajsky|vrchni|mestsky|ustavni) soud(( pro| v| ve) [a-z]+( \d+)?)?`)
	prosecutorNameRe = regexp.MustCompile(`((mestske|krajske|okresni) )?statni zastupitelstvi(( pro| v| ve) [a-z]+( \d+)?)?`)
)

// Display forms for the recognized document subtypes.
var subtypeNames = map[string]string{
	"predvolani":         "Předvolání",
	"rozsudek":           "Rozsudek",
	"usneseni":           "Usnesení",
	"odvolani":           "Odvolání",
	"kzv":                "Konečné zastavení věci",
	"tz":                 "Trestní zákon",
	"vyrozumeni":         "Vyrozumění",
	"navrh na zastaveni": "Návrh na zastavení",
}

// Detector identifies legal documents and extracts their filing metadata.
type Detector struct {
	logger *zap.Logger
}

// New creates a legal document detector.
func New(logger *zap.Logger) *Detector {
	return &Detector{logger: logger}
}

// Name implements core.Detector.
func (d *Detector) Name() string {
	return "legal"
}

type features struct {
	police         bool
	court          bool
	prosecutor     bool
	germanCourt    bool
	germanPolice   bool
	legalRefs      bool
	signature      bool
	caseNumber     string
	courtType      string
	prosecutorType string
}

func (f features) supporting() bool {
	return f.caseNumber != "" || f.legalRefs || f.signature
}

func (f features) any() bool {
	return f.police || f.court || f.prosecutor || f.germanCourt || f.germanPolice ||
		f.supporting() || f.courtType != "" || f.prosecutorType != ""
}

// Detect applies the corroboration ladder: institution headers set the base
// confidence, supporting evidence raises it to 90, lone signals bottom out at
// the ambiguous legal_unknown level.
func (d *Detector) Detect(email *core.Email) (*core.ClassificationResult, error) {
	text := textnorm.Normalize(email.Subject + "\n" + email.Body)

	f := features{
		police:         czechPoliceRe.MatchString(text),
		court:          czechCourtRe.MatchString(text),
		prosecutor:     czechProsecutorRe.MatchString(text),
		germanCourt:    germanCourtRe.MatchString(text),
		germanPolice:   germanPoliceRe.MatchString(text),
		legalRefs:      legalRefRe.MatchString(text),
		signature:      signatureRe.MatchString(text),
		caseNumber:     extractCaseNumber(text),
		courtType:      courtTypeRe.FindString(text),
		prosecutorType: prosecutorTypeRe.FindString(text),
	}

	legalType, confidence, country := classify(f)

	result := &core.ClassificationResult{
		DocumentType: core.DocTypeLegal,
		Detector:     d.Name(),
		Score:        confidence,
		MaxScore:     100,
		Percentage:   float64(confidence),
		Level:        core.LevelFromPercentage(float64(confidence)),
		Metadata:     make(map[string]string),
	}
	if confidence == 0 {
		return result, nil
	}

	result.Metadata["legal_type"] = legalType
	if country != "" {
		result.Metadata["country"] = country
	}
	if f.caseNumber != "" {
		result.Metadata["case_number"] = strings.ToUpper(f.caseNumber)
	}
	switch {
	case f.police:
		result.Metadata["police_department"] = strings.ToUpper(czechPoliceRe.FindString(text))
	case f.court:
		result.Metadata["court_name"] = strings.ToUpper(courtNameRe.FindString(text))
	case f.prosecutor:
		result.Metadata["prosecutor_name"] = strings.ToUpper(prosecutorNameRe.FindString(text))
	case f.germanCourt:
		result.Metadata["court_name"] = strings.ToUpper(germanCourtRe.FindString(text))
	}
	if subtype := subtypeNames[f.courtType]; subtype != "" {
		result.Metadata["document_subtype"] = subtype
	} else if subtype := subtypeNames[f.prosecutorType]; subtype != "" {
		result.Metadata["document_subtype"] = subtype
	}

	result.Tags = append(result.Tags, "legal", legalType)
	if country != "" {
		result.Tags = append(result.Tags, country)
	}
	result.Explanation = explain(f, legalType)

	d.logger.Debug("Legal analysis",
		zap.String("legal_type", legalType),
		zap.Int("confidence", confidence),
		zap.String("case_number", f.caseNumber))

	return result, nil
}

func classify(f features) (legalType string, confidence int, country string) {
	switch {
	case f.police && (f.legalRefs || f.caseNumber != ""):
		return "police_legal", 90, "cz"
	case f.police:
		return "police_admin", 70, "cz"
	case f.court:
		if f.supporting() || f.courtType != "" {
			return "court", 90, "cz"
		}
		return "court", 60, "cz"
	case f.prosecutor:
		if f.supporting() || f.prosecutorType != "" {
			return "prosecutor", 90, "cz"
		}
		return "prosecutor", 60, "cz"
	case f.germanCourt:
		if f.supporting() {
			return "court", 90, "de"
		}
		return "court", 50, "de"
	case f.germanPolice:
		if f.supporting() {
			return "police", 90, "de"
		}
		return "police", 50, "de"
	case f.any():
		return "legal_unknown", 50, ""
	default:
		return "", 0, ""
	}
}

func extractCaseNumber(text string) string {
	if m := labeledCaseRe.FindStringSubmatch(text); m != nil {
		return m[2]
	}
	if m := krpaCaseRe.FindString(text); m != "" {
		return m
	}
	return genericCaseRe.FindString(text)
}

func explain(f features, legalType string) string {
	var parts []string
	switch {
	case f.police:
		parts = append(parts, "czech police header")
	case f.court:
		parts = append(parts, "czech court header")
	case f.prosecutor:
		parts = append(parts, "czech prosecutor header")
	case f.germanCourt:
		parts = append(parts, "german court keyword")
	case f.germanPolice:
		parts = append(parts, "german police keyword")
	default:
		parts = append(parts, "isolated legal signal")
	}
	if f.caseNumber != "" {
		parts = append(parts, "case number present")
	}
	if f.legalRefs {
		parts = append(parts, "statutory reference present")
	}
	if f.signature {
		parts = append(parts, "signature block present")
	}
	if f.courtType != "" || f.prosecutorType != "" {
		parts = append(parts, "document type keyword present")
	}
	return legalType + ": " + strings.Join(parts, ", ")
}

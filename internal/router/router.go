// Package router runs the detector chain. Sender trust is consulted first and
// can short-circuit the chain entirely; after that, detectors run in their
// configured order and the first one to reach its confidence threshold wins.
package router

import (
	"strconv"

	"github.com/matej/doc-triage/internal/core"
	"github.com/matej/doc-triage/internal/sendertrust"
	"go.uber.org/zap"
)

// Stage is one detector slot in the chain, paired with the confidence
// percentage it has to reach for its verdict to be accepted.
type Stage struct {
	Detector  core.Detector
	Threshold float64
}

// Router implements core.Classifier over an ordered detector chain.
type Router struct {
	trust  *sendertrust.Resolver
	stages []Stage
	logger *zap.Logger
}

// New creates a router over the given stages. Stage order is significant:
// earlier detectors see the message first, and a confident earlier verdict
// hides everything after it.
func New(trust *sendertrust.Resolver, stages []Stage, logger *zap.Logger) *Router {
	return &Router{trust: trust, stages: stages, logger: logger}
}

// Classify routes the message through the chain. It never fails: a detector
// error demotes that detector to a logged skip, and a chain with no confident
// verdict produces an unclassified result carrying the nearest miss.
func (r *Router) Classify(email *core.Email) *core.ClassificationResult {
	if verdict := r.trust.Resolve(email.From); verdict != nil {
		r.logger.Debug("Marketing sender short-circuit",
			zap.String("from", email.From),
			zap.String("domain", verdict.Domain))
		return &core.ClassificationResult{
			DocumentType: core.DocTypeMarketing,
			Detector:     "sender_trust",
			Score:        100,
			MaxScore:     100,
			Percentage:   100,
			Level:        core.ConfidenceVeryHigh,
			Tags:         []string{"marketing"},
			Metadata:     map[string]string{"matched_domain": verdict.Domain},
			Explanation:  "sender domain is a listed marketing source",
		}
	}

	var nearMiss *core.ClassificationResult
	for _, stage := range r.stages {
		res, err := stage.Detector.Detect(email)
		if err != nil {
			r.logger.Warn("Detector failed, skipping",
				zap.String("detector", stage.Detector.Name()),
				zap.Error(err))
			continue
		}
		if res == nil {
			continue
		}
		if res.Percentage >= stage.Threshold {
			r.logger.Debug("Detector accepted",
				zap.String("detector", stage.Detector.Name()),
				zap.Float64("confidence", res.Percentage),
				zap.Float64("threshold", stage.Threshold))
			return res
		}
		if res.Percentage > 0 && (nearMiss == nil || res.Percentage > nearMiss.Percentage) {
			nearMiss = res
		}
	}

	return r.unclassified(nearMiss)
}

func (r *Router) unclassified(nearMiss *core.ClassificationResult) *core.ClassificationResult {
	res := &core.ClassificationResult{
		DocumentType: core.DocTypeUnclassified,
		Detector:     "router",
		MaxScore:     100,
		Level:        core.ConfidenceLow,
		Metadata:     make(map[string]string),
		Explanation:  "no detector reached its confidence threshold",
	}
	if nearMiss != nil {
		res.Metadata["near_miss_detector"] = nearMiss.Detector
		res.Metadata["near_miss_confidence"] = strconv.FormatFloat(nearMiss.Percentage, 'f', 1, 64)
		r.logger.Debug("No confident verdict",
			zap.String("near_miss_detector", nearMiss.Detector),
			zap.Float64("near_miss_confidence", nearMiss.Percentage))
	}
	return res
}

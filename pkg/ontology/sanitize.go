package ontology

import (
	"github.com/sirupsen/logrus"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// SanitationAction describes what happened to one input term.
type SanitationAction string

const (
	TermKept     SanitationAction = "KEPT"
	TermReplaced SanitationAction = "REPLACED"
	TermDropped  SanitationAction = "DROPPED"
	// TermDuplicate marks a term already present after resolution.
	TermDuplicate SanitationAction = "DUPLICATE"
)

// SanitationChange records a non-trivial outcome for one input term.
type SanitationChange struct {
	Input  domain.TermID    `json:"input"`
	Output domain.TermID    `json:"output,omitempty"`
	Action SanitationAction `json:"action"`
}

// Sanitize maps alternate and obsolete ids onto current primary ids and drops
// ids the ontology does not know. Order of first occurrence is preserved.
// Only replaced, dropped and duplicate terms are reported as changes.
func Sanitize(graph domain.OntologyGraph, ids []domain.TermID, logger *logrus.Logger) ([]domain.TermID, []SanitationChange) {
	out := make([]domain.TermID, 0, len(ids))
	seen := domain.NewTermSet()
	var changes []SanitationChange

	for _, id := range ids {
		primary, ok := graph.PrimaryTermID(id)
		switch {
		case !ok:
			changes = append(changes, SanitationChange{Input: id, Action: TermDropped})
			if logger != nil {
				logger.WithField("term_id", id).Warn("Dropping unknown or obsolete term")
			}
			continue
		case seen.Contains(primary):
			changes = append(changes, SanitationChange{Input: id, Output: primary, Action: TermDuplicate})
			continue
		case primary != id:
			changes = append(changes, SanitationChange{Input: id, Output: primary, Action: TermReplaced})
			if logger != nil {
				logger.WithFields(logrus.Fields{
					"term_id":    id,
					"primary_id": primary,
				}).Info("Replacing alternate term id")
			}
		}
		seen.Add(primary)
		out = append(out, primary)
	}
	return out, changes
}

// SanitizeEvidence sanitizes the observed and excluded terms of a patient and
// removes excluded terms that are also observed.
func SanitizeEvidence(graph domain.OntologyGraph, p *domain.PatientEvidence, logger *logrus.Logger) (*domain.PatientEvidence, []SanitationChange) {
	observed, changes := Sanitize(graph, p.Observed, logger)
	excluded, excludedChanges := Sanitize(graph, p.Excluded, logger)
	changes = append(changes, excludedChanges...)

	observedSet := domain.NewTermSet(observed...)
	kept := excluded[:0]
	for _, id := range excluded {
		if observedSet.Contains(id) {
			changes = append(changes, SanitationChange{Input: id, Action: TermDropped})
			if logger != nil {
				logger.WithField("term_id", id).Warn("Term is both observed and excluded; keeping the observation")
			}
			continue
		}
		kept = append(kept, id)
	}

	clean := *p
	clean.Observed = observed
	clean.Excluded = kept
	return &clean, changes
}

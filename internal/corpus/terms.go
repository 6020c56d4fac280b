package corpus

import (
	"math"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// Frequency terms of the HPO frequency subontology, mapped to the midpoint of
// the range each one stands for.
var frequencyTerms = map[domain.TermID]float64{
	"HP:0040280": 1.0,   // Obligate (100%)
	"HP:0040281": 0.895, // Very frequent (80-99%)
	"HP:0040282": 0.545, // Frequent (30-79%)
	"HP:0040283": 0.17,  // Occasional (5-29%)
	"HP:0040284": 0.025, // Very rare (1-4%)
	"HP:0040285": 0.0,   // Excluded (0%)
}

const (
	year = domain.DaysPerYear
	// Gestation is counted as negative postnatal days.
	gestation = 280.0
)

// onsetTerms maps HPO onset terms to age windows in days since birth.
var onsetTerms = map[domain.TermID]domain.Interval{
	"HP:0030674": {Start: -gestation, End: 0},               // Antenatal onset
	"HP:0011460": {Start: -gestation, End: -gestation + 56}, // Embryonal onset
	"HP:0011461": {Start: -gestation + 56, End: 0},          // Fetal onset
	"HP:0003577": {Start: 0, End: 1},                        // Congenital onset
	"HP:0003623": {Start: 0, End: 29},                       // Neonatal onset
	"HP:0410280": {Start: 0, End: 16 * year},                // Pediatric onset
	"HP:0003593": {Start: 29, End: year},                    // Infantile onset
	"HP:0011463": {Start: year, End: 5 * year},              // Childhood onset
	"HP:0003621": {Start: 5 * year, End: 16 * year},         // Juvenile onset
	"HP:0003581": {Start: 16 * year, End: math.Inf(1)},      // Adult onset
	"HP:0011462": {Start: 16 * year, End: 40 * year},        // Young adult onset
	"HP:0003596": {Start: 40 * year, End: 60 * year},        // Middle age onset
	"HP:0003584": {Start: 60 * year, End: math.Inf(1)},      // Late onset
}

// OnsetInterval returns the age window of an HPO onset term.
func OnsetInterval(id domain.TermID) (domain.Interval, bool) {
	i, ok := onsetTerms[id]
	return i, ok
}

// FrequencyOfTerm returns the frequency an HPO frequency term stands for.
func FrequencyOfTerm(id domain.TermID) (float64, bool) {
	f, ok := frequencyTerms[id]
	return f, ok
}

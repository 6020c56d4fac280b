package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// Column indexes of phenotype.hpoa.
const (
	colDatabaseID = iota
	colDiseaseName
	colQualifier
	colHpoID
	colReference
	colEvidence
	colOnset
	colFrequency
	colSex
	colModifier
	colAspect
	hpoaColumns
)

// defaultFrequency is used when an annotation states no frequency.
const defaultFrequency = 1.0

// Loader parses HPO annotation files.
type Loader struct {
	logger *logrus.Logger
}

// NewLoader creates a new Loader
func NewLoader(logger *logrus.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadFile reads a phenotype.hpoa file.
func (l *Loader) LoadFile(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotation file: %w", err)
	}
	defer f.Close()
	return l.Load(f)
}

// diseaseBuilder accumulates the rows of one disease.
type diseaseBuilder struct {
	profile    *domain.DiseaseProfile
	annotation map[domain.TermID]int
	negated    domain.TermSet
	modes      map[domain.InheritanceMode]struct{}
}

// Load parses phenotype.hpoa content. Rows of aspect P become phenotype
// annotations (negated when qualified NOT), rows of aspect I become modes of
// inheritance and onset terms of aspect C widen the disease onset window.
func (l *Loader) Load(r io.Reader) (*Corpus, error) {
	builders := make(map[domain.TermID]*diseaseBuilder)
	var order []domain.TermID
	skipped := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "database_id") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < hpoaColumns {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, hpoaColumns, len(fields))
		}

		diseaseID, err := domain.ParseTermID(fields[colDatabaseID])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		termID, err := domain.ParseTermID(fields[colHpoID])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		b, ok := builders[diseaseID]
		if !ok {
			b = &diseaseBuilder{
				profile:    &domain.DiseaseProfile{ID: diseaseID, Name: fields[colDiseaseName]},
				annotation: make(map[domain.TermID]int),
				negated:    domain.NewTermSet(),
				modes:      make(map[domain.InheritanceMode]struct{}),
			}
			builders[diseaseID] = b
			order = append(order, diseaseID)
		}

		negated := strings.EqualFold(strings.TrimSpace(fields[colQualifier]), "NOT")
		switch strings.TrimSpace(fields[colAspect]) {
		case "P":
			if negated {
				if !b.negated.Contains(termID) {
					b.negated.Add(termID)
					b.profile.NegatedAnnotations = append(b.profile.NegatedAnnotations, termID)
				}
				continue
			}
			freq, err := ParseFrequency(fields[colFrequency])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			b.addPhenotype(termID, freq, onsetOf(fields[colOnset]))
		case "I":
			mode := domain.InheritanceMode(termID)
			if negated || !mode.IsValid() {
				skipped++
				continue
			}
			if _, seen := b.modes[mode]; !seen {
				b.modes[mode] = struct{}{}
				b.profile.ModesOfInheritance = append(b.profile.ModesOfInheritance, mode)
			}
		case "C":
			if window, ok := OnsetInterval(termID); ok && !negated {
				b.widenOnset(window)
			}
		default:
			skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}

	diseases := make([]*domain.DiseaseProfile, 0, len(order))
	for _, id := range order {
		diseases = append(diseases, builders[id].profile)
	}
	if l.logger != nil {
		l.logger.WithFields(logrus.Fields{
			"diseases":     len(diseases),
			"skipped_rows": skipped,
		}).Info("Loaded disease annotations")
	}
	return New(diseases)
}

func (b *diseaseBuilder) addPhenotype(id domain.TermID, freq float64, onset *domain.Interval) {
	if i, ok := b.annotation[id]; ok {
		a := &b.profile.Annotations[i]
		if freq > a.Frequency {
			a.Frequency = freq
		}
		if onset != nil {
			if a.Onset == nil {
				a.Onset = onset
			} else {
				hull := a.Onset.Hull(*onset)
				a.Onset = &hull
			}
		}
		return
	}
	b.annotation[id] = len(b.profile.Annotations)
	b.profile.Annotations = append(b.profile.Annotations, domain.PhenotypeAnnotation{
		TermID:    id,
		Frequency: freq,
		Onset:     onset,
	})
}

func (b *diseaseBuilder) widenOnset(window domain.Interval) {
	if b.profile.OnsetWindow == nil {
		w := window
		b.profile.OnsetWindow = &w
		return
	}
	hull := b.profile.OnsetWindow.Hull(window)
	b.profile.OnsetWindow = &hull
}

func onsetOf(field string) *domain.Interval {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	if i, ok := OnsetInterval(domain.TermID(field)); ok {
		return &i
	}
	return nil
}

// ParseFrequency converts the frequency column of phenotype.hpoa: a ratio
// "n/m", a percentage "x%" or an HPO frequency term. Empty means 1.
func ParseFrequency(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return defaultFrequency, nil
	case strings.HasPrefix(s, "HP:"):
		if f, ok := FrequencyOfTerm(domain.TermID(s)); ok {
			return f, nil
		}
		return 0, fmt.Errorf("unknown frequency term %s", s)
	case strings.HasSuffix(s, "%"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil || v < 0 || v > 100 {
			return 0, fmt.Errorf("invalid percentage %q", s)
		}
		return v / 100, nil
	case strings.Contains(s, "/"):
		parts := strings.SplitN(s, "/", 2)
		n, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || m <= 0 || n < 0 || n > m {
			return 0, fmt.Errorf("invalid ratio %q", s)
		}
		return float64(n) / float64(m), nil
	}
	return 0, fmt.Errorf("unrecognised frequency %q", s)
}

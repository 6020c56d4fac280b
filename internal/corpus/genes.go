package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// GeneIndex maps genes to diseases and back. Insertion order is kept so
// that iteration over the genes of a disease is stable.
type GeneIndex struct {
	diseasesByGene map[domain.TermID][]domain.TermID
	genesByDisease map[domain.TermID][]domain.GeneIdentifier
}

var _ domain.GeneDiseaseIndex = (*GeneIndex)(nil)

// NewGeneIndex creates a new GeneIndex
func NewGeneIndex() *GeneIndex {
	return &GeneIndex{
		diseasesByGene: make(map[domain.TermID][]domain.TermID),
		genesByDisease: make(map[domain.TermID][]domain.GeneIdentifier),
	}
}

// Add records that gene is implicated in disease. Repeated pairs are ignored.
func (x *GeneIndex) Add(gene domain.GeneIdentifier, disease domain.TermID) {
	for _, g := range x.genesByDisease[disease] {
		if g.ID == gene.ID {
			return
		}
	}
	x.genesByDisease[disease] = append(x.genesByDisease[disease], gene)
	x.diseasesByGene[gene.ID] = append(x.diseasesByGene[gene.ID], disease)
}

// DiseasesForGene returns the diseases gene is implicated in.
func (x *GeneIndex) DiseasesForGene(gene domain.TermID) []domain.TermID {
	return x.diseasesByGene[gene]
}

// GenesForDisease returns the genes implicated in disease in insertion order.
func (x *GeneIndex) GenesForDisease(disease domain.TermID) []domain.GeneIdentifier {
	return x.genesByDisease[disease]
}

// Len returns the number of distinct genes.
func (x *GeneIndex) Len() int {
	return len(x.diseasesByGene)
}

// LoadGenesToDiseaseFile reads an HPO genes_to_disease.txt file.
func LoadGenesToDiseaseFile(path string) (*GeneIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gene to disease file: %w", err)
	}
	defer f.Close()
	return LoadGenesToDisease(f)
}

// LoadGenesToDisease parses the tab separated columns ncbi_gene_id,
// gene_symbol, association_type, disease_id and source. Lines starting with
// '#' and the header line are skipped.
func LoadGenesToDisease(r io.Reader) (*GeneIndex, error) {
	x := NewGeneIndex()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "ncbi_gene_id") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 4 {
			return nil, fmt.Errorf("line %d: expected at least 4 columns, got %d", line, len(fields))
		}
		geneID, err := domain.ParseTermID(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		diseaseID, err := domain.ParseTermID(fields[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		x.Add(domain.GeneIdentifier{ID: geneID, Symbol: strings.TrimSpace(fields[1])}, diseaseID)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gene to disease associations: %w", err)
	}
	return x, nil
}

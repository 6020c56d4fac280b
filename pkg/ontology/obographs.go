package ontology

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

const (
	oboPurlPrefix  = "http://purl.obolibrary.org/obo/"
	predAltID      = "http://www.geneontology.org/formats/oboInOwl#hasAlternativeId"
	predReplacedBy = "http://purl.obolibrary.org/obo/IAO_0100001"
	predIsA        = "is_a"
)

// obographs JSON document, as published in hp.json.
type graphDocument struct {
	Graphs []struct {
		Nodes []struct {
			ID   string `json:"id"`
			Lbl  string `json:"lbl"`
			Type string `json:"type"`
			Meta *struct {
				Deprecated bool `json:"deprecated"`
				BasicPropertyValues []struct {
					Pred string `json:"pred"`
					Val  string `json:"val"`
				} `json:"basicPropertyValues"`
			} `json:"meta"`
		} `json:"nodes"`
		Edges []struct {
			Sub  string `json:"sub"`
			Pred string `json:"pred"`
			Obj  string `json:"obj"`
		} `json:"edges"`
	} `json:"graphs"`
}

// LoadFile reads an obographs JSON file such as hp.json.
func LoadFile(path string, cacheSize int) (*Ontology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ontology: %w", err)
	}
	defer f.Close()

	o, err := Load(f, cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return o, nil
}

// Load parses an obographs JSON document. Only CLASS nodes and is_a edges
// between them are kept.
func Load(r io.Reader, cacheSize int) (*Ontology, error) {
	var doc graphDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode obographs JSON: %w", err)
	}
	if len(doc.Graphs) == 0 {
		return nil, fmt.Errorf("document contains no graphs")
	}

	b := NewBuilder()
	for _, g := range doc.Graphs {
		for _, n := range g.Nodes {
			if n.Type != "" && n.Type != "CLASS" {
				continue
			}
			id, ok := curie(n.ID)
			if !ok {
				continue
			}
			t := Term{ID: id, Label: n.Lbl}
			if n.Meta != nil {
				t.Obsolete = n.Meta.Deprecated
				for _, pv := range n.Meta.BasicPropertyValues {
					switch pv.Pred {
					case predAltID:
						if alt, ok := curie(pv.Val); ok {
							t.AltIDs = append(t.AltIDs, alt)
						}
					case predReplacedBy:
						if rep, ok := curie(pv.Val); ok {
							t.ReplacedBy = rep
						}
					}
				}
			}
			b.AddTerm(t)
		}
	}
	for _, g := range doc.Graphs {
		for _, e := range g.Edges {
			if e.Pred != predIsA {
				continue
			}
			sub, ok1 := curie(e.Sub)
			obj, ok2 := curie(e.Obj)
			if !ok1 || !ok2 {
				continue
			}
			if _, known := b.terms[sub]; !known {
				continue
			}
			if _, known := b.terms[obj]; !known {
				continue
			}
			b.AddIsA(sub, obj)
		}
	}
	return b.Build(cacheSize)
}

// curie converts an OBO PURL or a CURIE into PREFIX:LOCAL form.
func curie(s string) (domain.TermID, bool) {
	s = strings.TrimPrefix(s, oboPurlPrefix)
	if strings.Contains(s, "://") {
		return "", false
	}
	if i := strings.IndexByte(s, ':'); i > 0 && i < len(s)-1 {
		return domain.TermID(s), true
	}
	if i := strings.IndexByte(s, '_'); i > 0 && i < len(s)-1 {
		return domain.TermID(s[:i] + ":" + s[i+1:]), true
	}
	return "", false
}

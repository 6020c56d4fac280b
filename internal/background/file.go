package background

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// FileProvider reads background-<build>.tsv files from a directory and keeps
// each parsed table for the lifetime of the provider.
type FileProvider struct {
	dir    string
	logger *logrus.Logger

	mu    sync.Mutex
	cache map[domain.GenomeBuild]*Rates
}

var _ domain.BackgroundVariantRateProvider = (*FileProvider)(nil)

// NewFileProvider creates a new FileProvider rooted at dir.
func NewFileProvider(dir string, logger *logrus.Logger) *FileProvider {
	return &FileProvider{
		dir:    dir,
		logger: logger,
		cache:  make(map[domain.GenomeBuild]*Rates),
	}
}

// FileName returns the name of the table for a build.
func FileName(build domain.GenomeBuild) string {
	return fmt.Sprintf("background-%s.tsv", build)
}

// RatesFor implements domain.BackgroundVariantRateProvider. A missing file
// yields domain.ErrBackgroundRatesUnavailable.
func (p *FileProvider) RatesFor(ctx context.Context, build domain.GenomeBuild) (domain.BackgroundVariantRates, error) {
	if !build.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownGenomeBuild, build)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.cache[build]; ok {
		return r, nil
	}

	path := filepath.Join(p.dir, FileName(build))
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (%s not found)", domain.ErrBackgroundRatesUnavailable, build, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open background rates: %w", err)
	}
	defer f.Close()

	rates, err := ParseRates(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	r := NewRates(build, rates)
	p.cache[build] = r

	p.logger.WithFields(logrus.Fields{
		"genome_build": build,
		"genes":        r.Len(),
		"path":         path,
	}).Info("Loaded background variant rates")
	return r, nil
}

// ParseRates reads tab separated gene_id, symbol and rate columns. Lines
// starting with '#' are comments.
func ParseRates(r io.Reader) (map[domain.TermID]float64, error) {
	out := make(map[domain.TermID]float64)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 columns, got %d", line, len(fields))
		}
		gene, err := domain.ParseTermID(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rate, err := strconv.ParseFloat(fields[2], 64)
		if err != nil || rate < 0 {
			return nil, fmt.Errorf("line %d: invalid rate %q", line, fields[2])
		}
		out[gene] = rate
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"mandi/internal/dataset"
	"mandi/internal/domain/market"
	"mandi/pkg/errors"
	"mandi/pkg/logger"
)

// rawHeaderRows is the number of site-generated title rows above the real
// header in an Agmarknet CSV export
const rawHeaderRows = 2

// Preprocessor turns the newest raw scrape into the fixed-schema clean CSV
type Preprocessor struct {
	rawDir  string
	outPath string
	log     *logger.Logger
}

// NewPreprocessor creates a preprocessor reading from rawDir and writing to outPath
func NewPreprocessor(rawDir, outPath string, log *logger.Logger) *Preprocessor {
	return &Preprocessor{
		rawDir:  rawDir,
		outPath: outPath,
		log:     log.With("step", "preprocess"),
	}
}

// Name implements Step
func (p *Preprocessor) Name() string { return "preprocess" }

// Run cleans the newest raw CSV and overwrites the clean artifact
func (p *Preprocessor) Run(ctx context.Context) error {
	path, err := latestCSV(p.rawDir)
	if err != nil {
		return err
	}
	p.log.Infof("Processing latest raw file: %s", path)

	t, err := dataset.ReadCSV(path, rawHeaderRows)
	if err != nil {
		return errors.Wrap(err, "read raw csv")
	}

	t.KeepFirstColumns(len(market.CanonicalColumns()))
	outcome := t.Rename(market.CanonicalColumns())
	if outcome == dataset.RenameDegraded {
		p.log.Warnf("Raw schema mismatch: %d columns, applied %s", t.NumCols(), outcome)
	} else {
		p.log.Debugf("Schema rename: %s", outcome)
	}

	for _, col := range market.NumericColumns() {
		t.CoerceNumeric(col)
	}

	before := t.NumRows()
	t.DropRowsMissing(market.ColPriceToday)
	p.log.Infof("Kept %d of %d rows with a price today", t.NumRows(), before)

	if err := t.WriteCSV(p.outPath); err != nil {
		return errors.Wrap(err, "write clean csv")
	}
	p.log.Infof("Clean data saved to %s", p.outPath)
	return nil
}

// latestCSV returns the newest CSV file in dir by modification time
func latestCSV(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrapf(errors.ErrNoRawData, "read %s: %v", dir, err)
	}

	var newest string
	var newestMod int64
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().UnixNano() > newestMod {
			newest = filepath.Join(dir, e.Name())
			newestMod = info.ModTime().UnixNano()
		}
	}

	if newest == "" {
		return "", errors.Wrapf(errors.ErrNoRawData, "no csv files in %s", dir)
	}
	return newest, nil
}

package ml

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"sort"
	"time"

	"mandi/pkg/errors"
)

// LabelEncoder maps categorical string values to dense 0-based integer codes.
// Classes are sorted lexicographically, so codes are stable across fits on the
// same vocabulary but carry no domain meaning.
type LabelEncoder struct {
	Classes []string

	codes map[string]int
}

// FitLabelEncoder builds an encoder over the observed values
func FitLabelEncoder(values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}

	classes := make([]string, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Strings(classes)

	e := &LabelEncoder{Classes: classes}
	e.buildIndex()
	return e
}

func (e *LabelEncoder) buildIndex() {
	e.codes = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.codes[c] = i
	}
}

// Transform returns the code for a value. A value unseen at fit time maps to
// code 0, with ok=false so callers can log the degradation.
func (e *LabelEncoder) Transform(value string) (code int, ok bool) {
	if e.codes == nil {
		e.buildIndex()
	}
	c, found := e.codes[value]
	if !found {
		return 0, false
	}
	return c, true
}

// EncoderBundle holds the fitted encoders for all categorical columns, keyed
// by column name. It is the contract between feature building and serving.
type EncoderBundle struct {
	Encoders  map[string]*LabelEncoder
	CreatedAt time.Time
}

// NewEncoderBundle creates an empty bundle
func NewEncoderBundle() *EncoderBundle {
	return &EncoderBundle{
		Encoders:  make(map[string]*LabelEncoder),
		CreatedAt: time.Now().UTC(),
	}
}

// Save persists the bundle as a single gob artifact, overwriting any prior one
func (b *EncoderBundle) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() { _ = f.Close() }()

	if err := gob.NewEncoder(f).Encode(b); err != nil {
		return errors.Wrap(err, "encode encoder bundle")
	}
	return nil
}

// LoadEncoderBundle reads a bundle persisted by Save
func LoadEncoderBundle(path string) (*EncoderBundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var b EncoderBundle
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, errors.Wrap(err, "decode encoder bundle")
	}
	for _, e := range b.Encoders {
		e.buildIndex()
	}
	return &b, nil
}

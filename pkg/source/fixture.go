package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/younsl/costboard/internal/models"
)

// Document is the on-disk form of a fixture: the raw payloads each upstream
// source would have returned
type Document struct {
	Instances   []models.RawInstance                  `json:"instances" yaml:"instances"`
	Utilization map[string][]models.UtilizationSample `json:"utilization" yaml:"utilization"`
	Billing     []models.BillingDay                   `json:"billing" yaml:"billing"`
}

// ObjectReader reads a remote object by URI
type ObjectReader interface {
	ReadObject(ctx context.Context, uri string) ([]byte, error)
}

// Fixture serves a static Document through the Provider interface
type Fixture struct {
	doc Document
}

// NewFixture creates a Fixture provider from a Document
func NewFixture(doc Document) *Fixture {
	return &Fixture{doc: doc}
}

// LoadFixture reads a fixture from a local path or, when the path is an
// s3:// URI, through remote. Files ending in .json are decoded as JSON,
// anything else as YAML.
func LoadFixture(ctx context.Context, path string, remote ObjectReader) (*Fixture, error) {
	var data []byte
	var err error

	if strings.HasPrefix(path, "s3://") {
		if remote == nil {
			return nil, fmt.Errorf("no object reader configured for %s", path)
		}
		data, err = remote.ReadObject(ctx, path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading fixture %s: %w", path, err)
	}

	doc, err := DecodeDocument(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("error decoding fixture %s: %w", path, err)
	}

	return NewFixture(doc), nil
}

// DecodeDocument decodes a fixture body; ext selects JSON (".json") or YAML
func DecodeDocument(data []byte, ext string) (Document, error) {
	var doc Document
	if strings.EqualFold(ext, ".json") {
		err := json.Unmarshal(data, &doc)
		return doc, err
	}
	err := yaml.Unmarshal(data, &doc)
	return doc, err
}

// Kind implements Provider
func (f *Fixture) Kind() Kind {
	return KindFixture
}

// ListInstances implements InventoryLister
func (f *Fixture) ListInstances(_ context.Context) ([]models.RawInstance, error) {
	instances := make([]models.RawInstance, len(f.doc.Instances))
	copy(instances, f.doc.Instances)
	return instances, nil
}

// CPUSamples implements MetricsReader
func (f *Fixture) CPUSamples(_ context.Context, instanceID string) ([]models.UtilizationSample, error) {
	samples := make([]models.UtilizationSample, len(f.doc.Utilization[instanceID]))
	copy(samples, f.doc.Utilization[instanceID])

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.After(samples[j].Timestamp)
	})
	return samples, nil
}

// CPUSeries implements MetricsReader. Fixture samples are returned as
// stored, regardless of the requested window.
func (f *Fixture) CPUSeries(ctx context.Context, instanceID string, _, _ time.Duration) ([]models.UtilizationSample, error) {
	return f.CPUSamples(ctx, instanceID)
}

// DailyCost implements CostReader. Fixture billing days are returned as
// stored, regardless of the requested period.
func (f *Fixture) DailyCost(_ context.Context, _, _, _ string) ([]models.BillingDay, error) {
	days := make([]models.BillingDay, len(f.doc.Billing))
	copy(days, f.doc.Billing)
	return days, nil
}

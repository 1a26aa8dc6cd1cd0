package batch

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/openclaw/instantqr/generator"
	"github.com/openclaw/instantqr/qrgen"
)

// ManifestName is the archive member describing the batch.
const ManifestName = "manifest.json"

// Item is a generated value inside an archive.
type Item struct {
	Line   int
	Value  string
	Name   string // filename without extension, unique within the archive
	Result *generator.Result
}

// Filename returns the archive member name of the document in format f.
func (it Item) Filename(f qrgen.Format) string {
	return it.Name + f.Ext()
}

// Failure is a value that could not be generated.
type Failure struct {
	Line  int    `json:"line"`
	Value string `json:"value"`
	Error string `json:"error"`
}

// Archive collects the results of one batch run in input order.
type Archive struct {
	Name      string
	CreatedAt time.Time
	Items     []Item
	Failures  []Failure

	names map[string]bool
}

func newArchive(created time.Time) *Archive {
	return &Archive{
		Name:      "qr_batch_" + generator.Timestamp(created) + ".zip",
		CreatedAt: created,
		names:     make(map[string]bool),
	}
}

func (a *Archive) addItem(v Value, res *generator.Result) {
	base := res.FilenameBase + "_" + res.Timestamp
	name := base
	for n := 2; a.names[name]; n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	a.names[name] = true
	a.Items = append(a.Items, Item{Line: v.Line, Value: v.Text, Name: name, Result: res})
}

func (a *Archive) addFailure(v Value, err error) {
	a.Failures = append(a.Failures, Failure{Line: v.Line, Value: v.Text, Error: err.Error()})
}

// Size returns the total size of all generated documents in bytes.
func (a *Archive) Size() int {
	n := 0
	for _, it := range a.Items {
		for _, f := range qrgen.Formats {
			n += len(it.Result.Artifacts.Get(f))
		}
	}
	return n
}

// Manifest lists what the archive contains and which values failed.
type Manifest struct {
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"created_at"`
	Generated []ManifestEntry `json:"generated"`
	Failed    []Failure       `json:"failed"`
	Counts    map[string]int  `json:"counts"`
}

// ManifestEntry describes one generated value.
type ManifestEntry struct {
	Line    int      `json:"line"`
	Value   string   `json:"value"`
	Version int      `json:"version"`
	Level   string   `json:"level"`
	Files   []string `json:"files"`
	Notes   []string `json:"warnings,omitempty"`
}

// Manifest builds the manifest for a.
func (a *Archive) Manifest() Manifest {
	m := Manifest{
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
		Generated: make([]ManifestEntry, 0, len(a.Items)),
		Failed:    a.Failures,
		Counts: map[string]int{
			"generated": len(a.Items),
			"failed":    len(a.Failures),
		},
	}
	if m.Failed == nil {
		m.Failed = []Failure{}
	}
	for _, it := range a.Items {
		e := ManifestEntry{
			Line:    it.Line,
			Value:   it.Value,
			Version: it.Result.Version,
			Level:   it.Result.Level.String(),
			Notes:   it.Result.Warnings,
		}
		for _, f := range qrgen.Formats {
			e.Files = append(e.Files, it.Filename(f))
		}
		m.Generated = append(m.Generated, e)
	}
	return m
}

// WriteZip writes every document plus the manifest as a deflated ZIP.
func (a *Archive) WriteZip(w io.Writer) error {
	zw := zip.NewWriter(w)

	for _, it := range a.Items {
		for _, f := range qrgen.Formats {
			hdr := &zip.FileHeader{
				Name:     it.Filename(f),
				Method:   zip.Deflate,
				Modified: it.Result.CreatedAt,
			}
			fw, err := zw.CreateHeader(hdr)
			if err != nil {
				return fmt.Errorf("batch: add %s: %w", hdr.Name, err)
			}
			if _, err := fw.Write(it.Result.Artifacts.Get(f)); err != nil {
				return fmt.Errorf("batch: write %s: %w", hdr.Name, err)
			}
		}
	}

	manifest, err := json.MarshalIndent(a.Manifest(), "", "  ")
	if err != nil {
		return fmt.Errorf("batch: marshal manifest: %w", err)
	}
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     ManifestName,
		Method:   zip.Deflate,
		Modified: a.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("batch: add manifest: %w", err)
	}
	if _, err := fw.Write(manifest); err != nil {
		return fmt.Errorf("batch: write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("batch: close archive: %w", err)
	}
	return nil
}

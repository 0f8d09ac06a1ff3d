// Package render writes study plans to PDF and DOCX files.
package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

var (
	ErrNoSteps   = errors.New("render: roadmap has no steps")
	ErrEmptyPlan = errors.New("render: plan has no content")
)

// File name suffixes for generated documents.
const (
	ResourcesSuffix = "_resources.pdf"
	RoadmapSuffix   = "_roadmap.pdf"
	DocxSuffix      = "_plan.docx"
)

// Document is the content of a rendered study plan.
type Document struct {
	Topic    string
	Date     time.Time
	Blocks   []Block
	Guidance string
	Problems []string
}

// Renderer writes documents into an output directory.
type Renderer struct {
	dir  string
	font []byte
}

// New creates a Renderer, creating dir if needed. fontFile optionally names
// a TrueType font used for all PDF text; without it the core Helvetica font
// is used and letters outside Windows-1252 are folded to ASCII.
func New(dir, fontFile string) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	r := &Renderer{dir: dir}
	if fontFile != "" {
		font, err := os.ReadFile(fontFile)
		if err != nil {
			return nil, fmt.Errorf("reading pdf font: %w", err)
		}
		r.font = font
	}
	return r, nil
}

// Dir returns the output directory.
func (r *Renderer) Dir() string {
	return r.dir
}

// Path returns where name lives in the output directory.
func (r *Renderer) Path(name string) string {
	return filepath.Join(r.dir, name)
}

// Resources writes <stem>_resources.pdf and returns the file name.
func (r *Renderer) Resources(stem string, doc Document) (string, error) {
	name := stem + ResourcesSuffix
	err := r.writeAtomic(name, func(w io.Writer) error {
		return ResourcesPDF(w, doc, r.font)
	})
	return name, err
}

// Roadmap writes <stem>_roadmap.pdf and returns the file name.
func (r *Renderer) Roadmap(stem, topic string, steps []string) (string, error) {
	name := stem + RoadmapSuffix
	err := r.writeAtomic(name, func(w io.Writer) error {
		return RoadmapPDF(w, topic, steps, r.font)
	})
	return name, err
}

// Docx writes <stem>_plan.docx and returns the file name.
func (r *Renderer) Docx(stem string, doc Document) (string, error) {
	name := stem + DocxSuffix
	tmp, err := r.tempName(filepath.Ext(name))
	if err != nil {
		return name, err
	}
	if err := PlanDOCX(tmp, doc); err != nil {
		os.Remove(tmp)
		return name, fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, r.Path(name)); err != nil {
		os.Remove(tmp)
		return name, fmt.Errorf("writing %s: %w", name, err)
	}
	return name, nil
}

// writeAtomic renders into a temp file and renames it into place so a
// concurrent download never sees a half-written document.
func (r *Renderer) writeAtomic(name string, write func(io.Writer) error) error {
	f, err := os.CreateTemp(r.dir, ".tmp-*"+filepath.Ext(name))
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	tmp := f.Name()

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, r.Path(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (r *Renderer) tempName(ext string) (string, error) {
	f, err := os.CreateTemp(r.dir, ".tmp-*"+ext)
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	return name, nil
}

// typeface is the font family to use and the text encoder that goes with it.
type typeface struct {
	family string
	encode func(string) string
}

var latinFold = strings.NewReplacer(
	"ş", "s", "Ş", "S",
	"ğ", "g", "Ğ", "G",
	"ı", "i", "İ", "I",
)

func newPDF(orientation string, font []byte) (*fpdf.Fpdf, typeface) {
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	if len(font) > 0 {
		pdf.AddUTF8FontFromBytes("body", "", font)
		pdf.AddUTF8FontFromBytes("body", "B", font)
		return pdf, typeface{family: "body", encode: func(s string) string { return s }}
	}

	cp := pdf.UnicodeTranslatorFromDescriptor("")
	return pdf, typeface{
		family: "Helvetica",
		encode: func(s string) string { return cp(latinFold.Replace(s)) },
	}
}

func hexRGB(s string) (int, int, int) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

package render

import (
	"io"
	"math"
	"strconv"

	"github.com/go-pdf/fpdf"
)

// RoadmapColors cycle through the roadmap's step markers.
var RoadmapColors = []string{"#FF4B4B", "#1ABC9C", "#9B59B6", "#E67E22", "#3498DB"}

// ResourcesPDF writes the study plan document.
// font is an optional TrueType font; see New.
func ResourcesPDF(w io.Writer, doc Document, font []byte) error {
	if len(doc.Blocks) == 0 && doc.Guidance == "" {
		return ErrEmptyPlan
	}

	pdf, tf := newPDF("P", font)
	pdf.SetTitle("Öğrenme Planı: "+doc.Topic, true)
	pdf.SetCreator("studyplan", true)
	pdf.AddPage()

	pdf.SetFont(tf.family, "B", 20)
	pdf.SetTextColor(hexRGB("#2c3e50"))
	pdf.MultiCell(0, 10, tf.encode("Öğrenme Planı: "+doc.Topic), "", "L", false)
	pdf.Ln(2)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(tf.family, "B", 11)
	pdf.Write(6, tf.encode("Tarih: "))
	pdf.SetFont(tf.family, "", 11)
	pdf.Write(6, doc.Date.Format("2006-01-02"))
	pdf.Ln(10)

	if doc.Guidance != "" {
		heading(pdf, tf, 2, "Kişisel Analiz")
		paragraph(pdf, tf, doc.Guidance)
		if len(doc.Problems) > 0 {
			paragraph(pdf, tf, "Zorlandığın sorular:")
			for _, p := range doc.Problems {
				item(pdf, tf, p)
			}
		}
		pdf.Ln(4)
	}

	for _, b := range doc.Blocks {
		switch b.Kind {
		case BlockHeading:
			heading(pdf, tf, b.Level, b.Text)
		case BlockItem:
			item(pdf, tf, b.Text)
		default:
			paragraph(pdf, tf, b.Text)
		}
	}

	return pdf.Output(w)
}

func heading(pdf *fpdf.Fpdf, tf typeface, level int, text string) {
	size := 15.0
	if level >= 3 {
		size = 13
	}
	pdf.Ln(3)
	pdf.SetFont(tf.family, "B", size)
	pdf.SetTextColor(hexRGB("#34495e"))
	pdf.MultiCell(0, 8, tf.encode(text), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(1)
}

func paragraph(pdf *fpdf.Fpdf, tf typeface, text string) {
	pdf.SetFont(tf.family, "", 11)
	pdf.MultiCell(0, 6, tf.encode(text), "", "L", false)
	pdf.Ln(2)
}

func item(pdf *fpdf.Fpdf, tf typeface, text string) {
	left, _, _, _ := pdf.GetMargins()
	pdf.SetFont(tf.family, "", 11)
	pdf.SetX(left + 5)
	pdf.MultiCell(0, 6, tf.encode("• "+text), "", "L", false)
}

// RoadmapPDF draws the steps as numbered markers along a sine path on a
// landscape page, each captioned below its marker.
func RoadmapPDF(w io.Writer, topic string, steps []string, font []byte) error {
	if len(steps) == 0 {
		return ErrNoSteps
	}

	pdf, tf := newPDF("L", font)
	pdf.SetTitle("Yol Haritası: "+topic, true)
	pdf.SetCreator("studyplan", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()

	pdf.SetFont(tf.family, "B", 18)
	pdf.SetTextColor(hexRGB("#2c3e50"))
	pdf.MultiCell(0, 10, tf.encode("Yol Haritası: "+topic), "", "C", false)

	// The path spans x in [0, 10] with y = sin(x)/2, scaled uniformly to
	// the printable width.
	const span = 10.0
	scale := (pageW - left - right) / span
	midY := 100.0
	toPage := func(x, y float64) (float64, float64) {
		return left + x*scale, midY - y*scale
	}

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(1.4)
	pdf.SetLineCapStyle("round")
	const segments = 200
	px, py := toPage(0, 0)
	for i := 1; i <= segments; i++ {
		x := span * float64(i) / segments
		nx, ny := toPage(x, math.Sin(x)*0.5)
		pdf.Line(px, py, nx, ny)
		px, py = nx, ny
	}

	positions := stepPositions(len(steps))
	captionW := math.Min(50, (pageW-left-right)/float64(len(steps)))
	radius := 0.3 * scale

	for i, step := range steps {
		sx := positions[i]
		cx, cy := toPage(sx, math.Sin(sx)*0.5)

		pdf.SetFillColor(hexRGB(RoadmapColors[i%len(RoadmapColors)]))
		pdf.Circle(cx, cy, radius, "F")

		pdf.SetFont(tf.family, "B", 14)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetXY(cx-radius, cy-radius)
		pdf.CellFormat(2*radius, 2*radius, strconv.Itoa(i+1), "", 0, "CM", false, 0, "")

		pdf.SetFont(tf.family, "", 10)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(cx-captionW/2, cy+0.8*scale)
		pdf.MultiCell(captionW, 5, tf.encode(step), "", "C", false)
	}

	return pdf.Output(w)
}

// stepPositions spreads n markers evenly over [0.5, 9.5].
func stepPositions(n int) []float64 {
	if n == 1 {
		return []float64{0.5}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 + 9.0*float64(i)/float64(n-1)
	}
	return out
}

package render

import (
	"github.com/gingfrederik/docx"
)

// PlanDOCX writes the study plan as an editable Word document at path.
func PlanDOCX(path string, doc Document) error {
	if len(doc.Blocks) == 0 && doc.Guidance == "" {
		return ErrEmptyPlan
	}

	f := docx.NewFile()

	run := f.AddParagraph().AddText("Öğrenme Planı: " + doc.Topic)
	run.Size(20)
	run.Color("2C3E50")

	run = f.AddParagraph().AddText("Tarih: " + doc.Date.Format("2006-01-02"))
	run.Size(10)
	run.Color("808080")
	f.AddParagraph()

	if doc.Guidance != "" {
		run = f.AddParagraph().AddText("Kişisel Analiz")
		run.Size(16)
		run.Color("34495E")
		f.AddParagraph().AddText(doc.Guidance)
		if len(doc.Problems) > 0 {
			f.AddParagraph().AddText("Zorlandığın sorular:")
			for _, p := range doc.Problems {
				f.AddParagraph().AddText("• " + p)
			}
		}
		f.AddParagraph()
	}

	for _, b := range doc.Blocks {
		switch b.Kind {
		case BlockHeading:
			run = f.AddParagraph().AddText(b.Text)
			run.Color("34495E")
			if b.Level >= 3 {
				run.Size(13)
			} else {
				run.Size(16)
			}
		case BlockItem:
			f.AddParagraph().AddText("• " + b.Text)
		default:
			f.AddParagraph().AddText(b.Text)
		}
	}

	return f.Save(path)
}

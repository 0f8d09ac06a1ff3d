package planner

import (
	"fmt"
	"regexp"
	"strings"

	"studyplan/internal/dataset"
)

const (
	DefaultModel = "gpt-4o-mini"
	systemPrompt = "Sen deneyimli bir eğitim koçusun."
	planMarker   = "===PLAN==="
	stepsMarker  = "===STEPS==="
	none         = "Yok"
)

// Plan is the parsed model answer.
type Plan struct {
	HTML  string
	Steps []string
}

// BuildPrompt writes the coaching prompt for topic. The hardest problems
// and guidance are included only when the assessment has data.
func BuildPrompt(topic, duration string, a dataset.Assessment) string {
	problems, guidance := none, none
	if a.HasData() {
		problems = strings.Join(a.ProblemIDs(), ", ")
		guidance = a.Guidance
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Kullanıcı '%s' konusunda öğrenme planı istiyor.\n", topic)
	fmt.Fprintf(&b, "Zorlandığı sorular: %s.\n", problems)
	fmt.Fprintf(&b, "Çalışma tavsiyeleri: %s.\n", guidance)
	if d := strings.TrimSpace(duration); d != "" {
		fmt.Fprintf(&b, "Planı %s sürede tamamlanacak şekilde hazırla.\n", d)
	}
	b.WriteString("\n")
	b.WriteString(`1. HTML formatında "Konuya Giriş", "Nasıl Çalışmalı?", "Günlük Çalışma Rutini", "Kaynak Önerileri" başlıklarıyla detaylı bir öğrenme planı oluştur.` + "\n")
	b.WriteString(`2. Ayrıca 5 adımlık bir "Yol Haritası" listesi oluştur. Bu listede sadece adım başlıklarını ver, numara ekleme.` + "\n\n")
	b.WriteString("Cevabın şu formatta olsun:\n")
	b.WriteString(planMarker + "\n[HTML burada]\n")
	b.WriteString(stepsMarker + "\nAdım 1 başlığı\nAdım 2 başlığı\n...\nAdım 5 başlığı\n")
	return b.String()
}

var (
	codeFence  = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*$")
	stepPrefix = regexp.MustCompile(`^(?:\d+[.)]\s*|[-*•]\s+)`)
)

// ParseResponse splits a model answer into plan HTML and roadmap steps.
// A missing marker yields an empty part, never an error.
func ParseResponse(content string) Plan {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var plan Plan
	planAt := strings.Index(content, planMarker)
	stepsAt := strings.Index(content, stepsMarker)

	if planAt >= 0 && stepsAt > planAt {
		body := content[planAt+len(planMarker) : stepsAt]
		plan.HTML = strings.TrimSpace(codeFence.ReplaceAllString(body, ""))
	}

	if stepsAt >= 0 {
		for _, line := range strings.Split(content[stepsAt+len(stepsMarker):], "\n") {
			line = strings.TrimSpace(codeFence.ReplaceAllString(line, ""))
			line = strings.TrimSpace(stepPrefix.ReplaceAllString(line, ""))
			if line != "" {
				plan.Steps = append(plan.Steps, line)
			}
		}
	}
	return plan
}

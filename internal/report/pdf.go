package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/skillcompass/skillcompass/pkg/errors"
	"github.com/skillcompass/skillcompass/pkg/types"
)

// RenderPDF renders a career analysis report as an A4 PDF.
func RenderPDF(report *types.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Career Analysis Report")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 9)
	pdf.Cell(40, 6, fmt.Sprintf("Generated: %s", report.CreatedAt.Format(time.RFC1123)))
	pdf.Ln(6)
	if report.Source == types.SourceFallback {
		pdf.Cell(40, 6, "Note: generated from the standard content bank.")
		pdf.Ln(6)
	}
	pdf.Ln(6)

	section(pdf, "Summary")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, report.Content.Summary, "", "", false)
	pdf.Ln(6)

	section(pdf, "Strengths")
	pdf.SetFont("Arial", "", 10)
	for _, s := range report.Content.Strengths {
		pdf.MultiCell(0, 5, "- "+s, "", "", false)
	}
	pdf.Ln(6)

	section(pdf, "Career Matches")
	for _, m := range report.Content.CareerMatches {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(40, 6, fmt.Sprintf("%s (fit %d/100)", m.Title, m.FitScore))
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 4, m.Rationale, "", "", false)
		pdf.Ln(2)
		pageBreak(pdf)
	}
	pdf.Ln(4)

	section(pdf, "Skill Gaps")
	for _, g := range report.Content.SkillGaps {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(40, 6, fmt.Sprintf("%s (%s priority)", g.Skill, g.Priority))
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 4, g.Suggestion, "", "", false)
		pdf.Ln(2)
		pageBreak(pdf)
	}
	pdf.Ln(4)

	section(pdf, "Learning Path")
	for i, step := range report.Content.LearningPath {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(40, 6, fmt.Sprintf("%d. %s (%s)", i+1, step.Title, step.Duration))
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 4, step.Description, "", "", false)
		pdf.Ln(2)
		pageBreak(pdf)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.NewInternalError("failed to render report PDF").WithCause(err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 8, title)
	pdf.Ln(8)
}

func pageBreak(pdf *gofpdf.Fpdf) {
	if pdf.GetY() > 260 {
		pdf.AddPage()
	}
}

package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"opportunity-agent/internal/domain/entity"
)

// PDFMetadata carries the document header fields for the rendered report.
type PDFMetadata struct {
	OpportunityID   string
	OpportunityName string
	GeneratedAt     time.Time
}

const (
	pdfMaxTeams = 5
	pdfMaxRisks = 3
)

// AnalysisPDF renders the full analysis as a Letter-size PDF report. Unlike
// the card it does not truncate free text; the PDF is the long-form artifact.
// A panic inside fpdf is converted into an error so the caller can degrade.
func AnalysisPDF(title string, analysis *entity.Analysis, meta PDFMetadata) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("pdf render: %v", r)
		}
	}()

	if analysis == nil {
		analysis = &entity.Analysis{}
	}

	doc := fpdf.New("P", "mm", "Letter", "")
	doc.SetTitle(title, true)
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()

	writePDFHeader(doc, title, meta)
	writePDFSummary(doc, analysis)
	writePDFMetrics(doc, analysis)
	writePDFList(doc, "Key Requirements", analysis.KeyRequirements)
	writePDFTeams(doc, analysis.TeamRecommendations)
	writePDFRisks(doc, analysis.Risks)
	writePDFTimeline(doc, analysis.TimelineEstimate)
	writePDFList(doc, "Recommendations", analysis.Recommendations)
	writePDFList(doc, "Next Steps", analysis.NextSteps)
	writePDFList(doc, "Points to Clarify", analysis.ClarificationQuestions)
	writePDFFooter(doc)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

func writePDFHeader(doc *fpdf.Fpdf, title string, meta PDFMetadata) {
	doc.SetFillColor(31, 58, 95)
	doc.Rect(0, 0, 216, 28, "F")
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 16)
	doc.SetXY(15, 8)
	doc.CellFormat(186, 8, sanitizePDFText(title), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 9)
	doc.SetX(15)
	line := fmt.Sprintf("ID: %s  |  Generated: %s", meta.OpportunityID, meta.GeneratedAt.Format("02/01/2006 15:04"))
	doc.CellFormat(186, 6, sanitizePDFText(line), "", 1, "L", false, 0, "")
	doc.SetTextColor(0, 0, 0)
	doc.SetY(35)
}

func writePDFSummary(doc *fpdf.Fpdf, analysis *entity.Analysis) {
	if analysis.ExecutiveSummary == "" {
		return
	}
	pdfSectionTitle(doc, "Executive Summary")
	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(186, 5, sanitizePDFText(analysis.ExecutiveSummary), "", "L", false)
	doc.Ln(4)
}

func writePDFMetrics(doc *fpdf.Fpdf, analysis *entity.Analysis) {
	pdfSectionTitle(doc, "Overview")
	doc.SetFont("Helvetica", "", 10)

	risk := analysis.OverallRiskLevel
	if risk == "" {
		risk = "unknown"
	}
	rows := [][2]string{
		{"Overall risk level", strings.ToUpper(risk)},
		{"Confidence", fmt.Sprintf("%d%%", int(analysis.Confidence*100))},
	}
	if e := analysis.EffortEstimate; e != nil {
		if e.MinHours > 0 && e.MaxHours > 0 {
			rows = append(rows, [2]string{"Estimated effort", fmt.Sprintf("%d-%d hours", e.MinHours, e.MaxHours)})
		}
		if e.Complexity != "" {
			rows = append(rows, [2]string{"Complexity", e.Complexity})
		}
	}
	if t := analysis.TimelineEstimate; t != nil && t.TotalDuration != "" {
		rows = append(rows, [2]string{"Estimated duration", t.TotalDuration})
	}

	for _, row := range rows {
		doc.SetFont("Helvetica", "B", 10)
		doc.CellFormat(55, 6, sanitizePDFText(row[0]), "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		doc.CellFormat(131, 6, sanitizePDFText(row[1]), "", 1, "L", false, 0, "")
	}
	doc.Ln(4)
}

func writePDFTeams(doc *fpdf.Fpdf, recommendations []any) {
	var rows []map[string]any
	for _, raw := range recommendations {
		if len(rows) >= pdfMaxTeams {
			break
		}
		if rec, ok := raw.(map[string]any); ok {
			rows = append(rows, rec)
		}
	}
	if len(rows) == 0 {
		return
	}

	pdfSectionTitle(doc, "Recommended Teams")

	doc.SetFont("Helvetica", "B", 9)
	doc.SetFillColor(230, 235, 242)
	doc.CellFormat(50, 7, "Team", "1", 0, "L", true, 0, "")
	doc.CellFormat(40, 7, "Tower", "1", 0, "L", true, 0, "")
	doc.CellFormat(56, 7, "Lead", "1", 0, "L", true, 0, "")
	doc.CellFormat(40, 7, "Relevance", "1", 1, "C", true, 0, "")

	doc.SetFont("Helvetica", "", 9)
	for _, rec := range rows {
		name, _ := rec["team_name"].(string)
		tower, _ := rec["tower"].(string)
		lead, _ := rec["team_lead"].(string)
		score, _ := rec["relevance_score"].(float64)
		doc.CellFormat(50, 6, sanitizePDFText(name), "1", 0, "L", false, 0, "")
		doc.CellFormat(40, 6, sanitizePDFText(tower), "1", 0, "L", false, 0, "")
		doc.CellFormat(56, 6, sanitizePDFText(lead), "1", 0, "L", false, 0, "")
		doc.CellFormat(40, 6, fmt.Sprintf("%d%%", int(score*100)), "1", 1, "C", false, 0, "")
	}
	doc.Ln(2)

	for _, rec := range rows {
		justification, _ := rec["justification"].(string)
		if justification == "" {
			continue
		}
		name, _ := rec["team_name"].(string)
		doc.SetFont("Helvetica", "B", 9)
		doc.CellFormat(186, 5, sanitizePDFText(name+":"), "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "I", 9)
		doc.MultiCell(186, 4.5, sanitizePDFText(justification), "", "L", false)
		doc.Ln(1)
	}
	doc.Ln(3)
}

func writePDFRisks(doc *fpdf.Fpdf, risks []entity.Risk) {
	if len(risks) == 0 {
		return
	}
	pdfSectionTitle(doc, "Identified Risks")
	for i, risk := range risks {
		if i >= pdfMaxRisks {
			break
		}
		doc.SetFont("Helvetica", "B", 10)
		setRiskColor(doc, risk.Level)
		doc.CellFormat(22, 5, "["+riskBadge(risk.Level)+"]", "", 0, "L", false, 0, "")
		doc.SetTextColor(0, 0, 0)
		doc.SetFont("Helvetica", "", 10)
		doc.MultiCell(164, 5, sanitizePDFText(risk.Description), "", "L", false)
		if risk.Mitigation != "" {
			doc.SetFont("Helvetica", "I", 9)
			doc.SetX(37)
			doc.MultiCell(164, 4.5, sanitizePDFText("Mitigation: "+risk.Mitigation), "", "L", false)
		}
		doc.Ln(2)
	}
	doc.Ln(2)
}

func writePDFTimeline(doc *fpdf.Fpdf, timeline *entity.Timeline) {
	if timeline == nil || len(timeline.Phases) == 0 {
		return
	}
	pdfSectionTitle(doc, "Estimated Timeline")
	doc.SetFont("Helvetica", "", 10)
	for _, phase := range timeline.Phases {
		line := phase.PhaseName
		if phase.Duration != "" {
			line += " - " + phase.Duration
		}
		doc.CellFormat(186, 5, sanitizePDFText("- "+line), "", 1, "L", false, 0, "")
	}
	doc.Ln(4)
}

func writePDFList(doc *fpdf.Fpdf, title string, lines []string) {
	var kept []string
	for _, line := range lines {
		if line != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		return
	}
	pdfSectionTitle(doc, title)
	doc.SetFont("Helvetica", "", 10)
	for i, line := range kept {
		doc.MultiCell(186, 5, sanitizePDFText(fmt.Sprintf("%d. %s", i+1, line)), "", "L", false)
	}
	doc.Ln(4)
}

func writePDFFooter(doc *fpdf.Fpdf) {
	doc.Ln(4)
	doc.SetFont("Helvetica", "I", 8)
	doc.SetTextColor(120, 120, 120)
	doc.MultiCell(186, 4,
		"This report was generated automatically. Estimates and recommendations are suggestions based on the available information and should be validated before taking decisions.",
		"", "L", false)
	doc.SetTextColor(0, 0, 0)
}

func pdfSectionTitle(doc *fpdf.Fpdf, title string) {
	doc.SetFont("Helvetica", "B", 12)
	doc.SetTextColor(31, 58, 95)
	doc.CellFormat(186, 7, title, "", 1, "L", false, 0, "")
	doc.SetDrawColor(31, 58, 95)
	doc.Line(doc.GetX(), doc.GetY(), doc.GetX()+186, doc.GetY())
	doc.Ln(2)
	doc.SetTextColor(0, 0, 0)
}

func setRiskColor(doc *fpdf.Fpdf, level string) {
	switch strings.ToLower(level) {
	case "high", "critical":
		doc.SetTextColor(192, 57, 43)
	case "medium", "moderate":
		doc.SetTextColor(211, 134, 0)
	default:
		doc.SetTextColor(39, 134, 66)
	}
}

// sanitizePDFText maps characters outside the core fonts' cp1252 range to
// ASCII approximations so fpdf does not emit replacement glyphs.
func sanitizePDFText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < 128:
			b.WriteRune(r)
		case r == '‘' || r == '’':
			b.WriteByte('\'')
		case r == '“' || r == '”':
			b.WriteByte('"')
		case r == '–' || r == '—':
			b.WriteByte('-')
		case r == '•':
			b.WriteByte('*')
		case r < 256:
			b.WriteRune(r)
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

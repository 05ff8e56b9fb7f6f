package entity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Opportunity is a CRM opportunity record as delivered by the workflow
// automation trigger. Known fields keep their upstream wire names (including
// the cr807_ custom columns); anything unrecognized is preserved in Extra so
// upstream schema changes do not break us.
type Opportunity struct {
	OpportunityID string `json:"opportunityid"`
	Name          string `json:"name"`

	Description           string `json:"description,omitempty"`
	FunctionalRequirement string `json:"cr807_descripciondelrequerimientofuncional,omitempty"`
	TechnicalRequirement  string `json:"cr807_descripciondelrequerimientotecnico,omitempty"`

	EstimatedCloseDate string  `json:"estimatedclosedate,omitempty"`
	EstimatedValue     float64 `json:"estimatedvalue,omitempty"`
	BudgetAmount       float64 `json:"budgetamount,omitempty"`
	StateCode          int     `json:"statecode"`
	StatusCode         int     `json:"statuscode,omitempty"`

	CustomerID   string `json:"customerid,omitempty"`
	CustomerName string `json:"_customerid_value,omitempty"`
	OwnerID      string `json:"_ownerid_value,omitempty"`
	OwnerName    string `json:"ownername,omitempty"`

	SdkMessage string `json:"SdkMessage,omitempty"`
	CreatedOn  string `json:"createdon,omitempty"`
	ModifiedOn string `json:"modifiedon,omitempty"`

	TeamsID   string `json:"teams_id,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`

	// Extra holds every payload key we do not model explicitly.
	Extra map[string]any `json:"-"`
}

// FlattenPayload canonicalizes the two wire shapes the trigger sends: either
// {"body": {...}, "teams_id": ..., "channel_id": ...} or a flat legacy record
// with the routing ids at the top level. The routing ids are merged into the
// returned record in both cases. The input map is not modified.
func FlattenPayload(payload map[string]any) map[string]any {
	record := payload
	if body, ok := payload["body"].(map[string]any); ok {
		record = body
	}

	out := make(map[string]any, len(record)+2)
	for k, v := range record {
		out[k] = v
	}
	if id := firstString(payload, "teams_id", "teamsId"); id != "" {
		out["teams_id"] = id
	}
	if id := firstString(payload, "channel_id", "channelId"); id != "" {
		out["channel_id"] = id
	}
	return out
}

// ParseOpportunity validates a flattened payload and builds the typed record.
func ParseOpportunity(m map[string]any) (*Opportunity, error) {
	id := stringField(m, "opportunityid")
	if id == "" {
		return nil, ErrMissingOpportunityID
	}

	known := map[string]bool{
		"opportunityid": true, "name": true, "description": true,
		"cr807_descripciondelrequerimientofuncional": true,
		"cr807_descripciondelrequerimientotecnico":   true,
		"estimatedclosedate": true, "estimatedvalue": true, "budgetamount": true,
		"statecode": true, "statuscode": true,
		"customerid": true, "_customerid_value": true,
		"_ownerid_value": true, "ownername": true,
		"SdkMessage": true, "createdon": true, "modifiedon": true,
		"teams_id": true, "channel_id": true,
	}

	opp := &Opportunity{
		OpportunityID:         id,
		Name:                  stringField(m, "name"),
		Description:           stringField(m, "description"),
		FunctionalRequirement: stringField(m, "cr807_descripciondelrequerimientofuncional"),
		TechnicalRequirement:  stringField(m, "cr807_descripciondelrequerimientotecnico"),
		EstimatedCloseDate:    stringField(m, "estimatedclosedate"),
		EstimatedValue:        floatField(m, "estimatedvalue"),
		BudgetAmount:          floatField(m, "budgetamount"),
		StateCode:             int(floatField(m, "statecode")),
		StatusCode:            int(floatField(m, "statuscode")),
		CustomerID:            stringField(m, "customerid"),
		CustomerName:          stringField(m, "_customerid_value"),
		OwnerID:               stringField(m, "_ownerid_value"),
		OwnerName:             stringField(m, "ownername"),
		SdkMessage:            stringField(m, "SdkMessage"),
		CreatedOn:             stringField(m, "createdon"),
		ModifiedOn:            stringField(m, "modifiedon"),
		TeamsID:               stringField(m, "teams_id"),
		ChannelID:             stringField(m, "channel_id"),
	}

	for k, v := range m {
		if known[k] {
			continue
		}
		if opp.Extra == nil {
			opp.Extra = make(map[string]any)
		}
		opp.Extra[k] = v
	}

	return opp, nil
}

// StateName maps the CRM state code to a readable name.
func (o *Opportunity) StateName() string {
	switch o.StateCode {
	case 0:
		return "Open"
	case 1:
		return "Won"
	case 2:
		return "Lost"
	}
	return "Unknown"
}

// EventType is the trigger event that produced this payload.
func (o *Opportunity) EventType() string {
	if o.SdkMessage == "" {
		return "Unknown"
	}
	return o.SdkMessage
}

// CleanDescription returns the functional requirement (or the general
// description) with HTML removed, for use as a search query.
func (o *Opportunity) CleanDescription() string {
	text := o.FunctionalRequirement
	if text == "" {
		text = o.Description
	}
	return StripHTML(text)
}

// FormatForAnalysis renders the record as one structured text document for
// the reasoning model. Deterministic: the same record always produces the
// same bytes. Empty optional fields emit no section.
func (o *Opportunity) FormatForAnalysis() string {
	var sections []string

	sections = append(sections, "# Opportunity: "+o.Name)
	sections = append(sections, "**ID:** "+o.OpportunityID)
	sections = append(sections, "**Status:** "+o.StateName())

	if o.CustomerName != "" {
		sections = append(sections, "**Client:** "+o.CustomerName)
	}
	if o.EstimatedValue != 0 {
		sections = append(sections, "**Estimated value:** $"+formatAmount(o.EstimatedValue))
	}
	if o.BudgetAmount != 0 {
		sections = append(sections, "**Budget:** $"+formatAmount(o.BudgetAmount))
	}
	if o.EstimatedCloseDate != "" {
		sections = append(sections, "**Estimated close date:** "+o.EstimatedCloseDate)
	}
	sections = append(sections, "")

	if o.Description != "" {
		sections = append(sections, "## General Description", StripHTML(o.Description), "")
	}
	if o.FunctionalRequirement != "" {
		sections = append(sections, "## Functional Requirement", StripHTML(o.FunctionalRequirement), "")
	}
	if o.TechnicalRequirement != "" {
		sections = append(sections, "## Technical Requirement", StripHTML(o.TechnicalRequirement), "")
	}

	return strings.Join(sections, "\n")
}

// StripHTML removes tags and decodes entities, collapsing whitespace.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return normalizeSpace(html)
	}
	return normalizeSpace(doc.Text())
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// formatAmount renders a monetary value with thousands separators, e.g.
// 1234567.5 -> "1,234,567.50".
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]

	neg := false
	if strings.HasPrefix(intPart, "-") {
		neg = true
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func floatField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		// CRM exports sometimes send monetary fields as strings.
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

// Package advisor asks an LLM for tariff mitigation recommendations based on
// the business data profile.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tariff-impact/internal/model"
	"github.com/sells-group/tariff-impact/pkg/anthropic"
)

// Confidence attached to generated recommendations. It sits below the
// validator's external-data floor so every recommendation asks for review.
const Confidence = 0.6

const maxPromptProducts = 20

const systemPrompt = `You are a trade compliance advisor for small US importers.
Given a business profile, suggest concrete actions that reduce tariff exposure.
Respond with a JSON array only. Each element has "title", "detail" and
"priority" ("high", "medium" or "low"). Return at most 6 elements.`

// ProfileAccess is the part of the profile store the advisor uses.
type ProfileAccess interface {
	Snapshot() (*model.Profile, error)
	UpdateData(ctx context.Context, f model.Field, pt model.Point) error
}

// Advisor generates recommendations.
type Advisor struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// New creates an Advisor.
func New(client anthropic.Client, modelID string, maxTokens int64) *Advisor {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Advisor{client: client, model: modelID, maxTokens: maxTokens}
}

// Advise builds a prompt from the current profile, asks the model for
// recommendations and stores them in aiRecommendations.
func (a *Advisor) Advise(ctx context.Context, p ProfileAccess) ([]model.Recommendation, error) {
	snap, err := p.Snapshot()
	if err != nil {
		return nil, eris.Wrap(err, "advisor: snapshot")
	}
	if len(snap.ImportedProducts.Value) == 0 {
		return nil, eris.New("advisor: no imported products, upload a purchase order first")
	}

	temp := 0.2
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      systemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: BuildPrompt(snap)}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "advisor: request recommendations")
	}
	resp.Usage.LogCost(a.model, "recommendations")

	recs, err := ParseRecommendations(resp.Text())
	if err != nil {
		return nil, err
	}

	pt := model.NewExternalDataPoint(recs, Confidence, false, time.Now().UTC())
	if err := p.UpdateData(ctx, model.FieldAIRecommendations, &pt); err != nil {
		return nil, eris.Wrap(err, "advisor: write profile")
	}
	zap.L().Info("advisor: recommendations stored", zap.Int("count", len(recs)))
	return recs, nil
}

// BuildPrompt renders the profile facts the model needs. Placeholder values
// are labelled so the model does not treat them as the user's data.
func BuildPrompt(p *model.Profile) string {
	var sb strings.Builder
	line := func(label string, src model.Source, value string) {
		if value == "" {
			return
		}
		if src.IsTemplate() {
			value += " (placeholder, not confirmed by the user)"
		}
		fmt.Fprintf(&sb, "%s: %s\n", label, value)
	}

	line("Company", p.CompanyName.Source, p.CompanyName.Value)
	line("Industry", p.Industry.Source, p.Industry.Value)
	if p.AnnualRevenue.Value > 0 {
		line("Annual revenue (USD)", p.AnnualRevenue.Source, fmt.Sprintf("%.0f", p.AnnualRevenue.Value))
	}
	line("Risk tolerance", p.RiskTolerance.Source, p.RiskTolerance.Value)
	line("Business goals", p.BusinessGoals.Source, strings.Join(p.BusinessGoals.Value, "; "))
	if p.TotalImportValue.Value > 0 {
		line("Total import value (USD)", p.TotalImportValue.Source, fmt.Sprintf("%.2f", p.TotalImportValue.Value))
	}
	if p.TotalTariffCost.Value > 0 {
		line("Estimated tariff cost (USD)", p.TotalTariffCost.Source, fmt.Sprintf("%.2f", p.TotalTariffCost.Value))
	}
	line("Supplier countries", p.SupplierCountries.Source, strings.Join(p.SupplierCountries.Value, ", "))

	products := append([]model.Product(nil), p.ImportedProducts.Value...)
	sort.SliceStable(products, func(i, j int) bool { return products[i].ImportValue > products[j].ImportValue })
	if len(products) > maxPromptProducts {
		products = products[:maxPromptProducts]
	}
	impacts := make(map[string]model.ProductImpact, len(p.ProductImpacts.Value))
	for _, imp := range p.ProductImpacts.Value {
		impacts[imp.SKU] = imp
	}
	sb.WriteString("\nTop products by import value:\n")
	for _, prod := range products {
		fmt.Fprintf(&sb, "- %s (%s) HTS %s from %s: $%.2f", prod.SKU, prod.Description, prod.HTSCode, prod.OriginCountry, prod.ImportValue)
		if imp, ok := impacts[prod.SKU]; ok {
			fmt.Fprintf(&sb, ", tariff %.1f%% = $%.2f", imp.TariffRate*100, imp.TariffCost)
		}
		sb.WriteString("\n")
	}

	if len(p.TariffNotices.Value) > 0 {
		sb.WriteString("\nRecent Federal Register notices:\n")
		for i, n := range p.TariffNotices.Value {
			if i == 5 {
				break
			}
			fmt.Fprintf(&sb, "- %s (%s)\n", n.Title, n.PublicationDate)
		}
	}
	return sb.String()
}

// ParseRecommendations extracts the JSON array from a model reply.
func ParseRecommendations(text string) ([]model.Recommendation, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, eris.New("advisor: no JSON array in response")
	}

	var raw []model.Recommendation
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, eris.Wrap(err, "advisor: decode recommendations")
	}

	out := make([]model.Recommendation, 0, len(raw))
	for _, r := range raw {
		r.Title = strings.TrimSpace(r.Title)
		if r.Title == "" {
			continue
		}
		r.Detail = strings.TrimSpace(r.Detail)
		switch p := strings.ToLower(strings.TrimSpace(r.Priority)); p {
		case "high", "medium", "low":
			r.Priority = p
		default:
			r.Priority = "medium"
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, eris.New("advisor: response contained no recommendations")
	}
	return out, nil
}

// Package alerts turns tariff impact data into risk alerts and delivers them
// to a webhook.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/tariff-impact/internal/config"
	"github.com/sells-group/tariff-impact/internal/model"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertProductImpact    AlertType = "product_impact"
	AlertImpactShare      AlertType = "impact_share"
	AlertMonitoredMissing AlertType = "monitored_product_missing"
	AlertTemplateRates    AlertType = "template_rates"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a profile against its alert thresholds and sends alerts
// via webhook.
type Alerter struct {
	cfg     config.AlertsConfig
	client  *http.Client
	printer *message.Printer
}

// NewAlerter creates a new Alerter with the given config.
func NewAlerter(cfg config.AlertsConfig) *Alerter {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tag, err := language.Parse(cfg.CurrencyLocale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	return &Alerter{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		printer: message.NewPrinter(tag),
	}
}

func (a *Alerter) money(v float64) string {
	return a.printer.Sprintf("$%.2f", v)
}

// Evaluate checks the profile's product impacts against its alertConfig and
// returns any alerts. Disabled alerting yields none.
func (a *Alerter) Evaluate(p *model.Profile) []Alert {
	ac := p.AlertConfig.Value
	if !ac.Enabled {
		return nil
	}
	var alerts []Alert
	now := time.Now().UTC()

	if ac.ImpactThresholdUSD > 0 {
		for _, imp := range p.ProductImpacts.Value {
			if imp.TariffCost <= ac.ImpactThresholdUSD {
				continue
			}
			alerts = append(alerts, Alert{
				Type:     AlertProductImpact,
				Severity: "high",
				Message: a.printer.Sprintf("Tariff cost for %s is %s, above the %s threshold",
					imp.SKU, a.money(imp.TariffCost), a.money(ac.ImpactThresholdUSD)),
				Details: map[string]any{
					"sku":           imp.SKU,
					"tariff_cost":   imp.TariffCost,
					"tariff_rate":   imp.TariffRate,
					"threshold_usd": ac.ImpactThresholdUSD,
				},
				Timestamp: now,
			})
		}
	}

	importValue := p.TotalImportValue.Value
	tariffCost := p.TotalTariffCost.Value
	if ac.ImpactSharePct > 0 && importValue > 0 {
		share := tariffCost / importValue * 100
		if share > ac.ImpactSharePct {
			alerts = append(alerts, Alert{
				Type:     AlertImpactShare,
				Severity: "high",
				Message: a.printer.Sprintf("Tariffs add %.1f%% to import cost (%s of %s), above %.1f%%",
					share, a.money(tariffCost), a.money(importValue), ac.ImpactSharePct),
				Details: map[string]any{
					"share_pct":     share,
					"threshold_pct": ac.ImpactSharePct,
					"tariff_cost":   tariffCost,
					"import_value":  importValue,
				},
				Timestamp: now,
			})
		}
	}

	if len(p.ImportedProducts.Value) > 0 {
		imported := make(map[string]struct{}, len(p.ImportedProducts.Value))
		for _, prod := range p.ImportedProducts.Value {
			imported[prod.SKU] = struct{}{}
		}
		var missing []string
		for _, sku := range p.MonitoredProducts.Value {
			if _, ok := imported[sku]; !ok {
				missing = append(missing, sku)
			}
		}
		if len(missing) > 0 {
			alerts = append(alerts, Alert{
				Type:      AlertMonitoredMissing,
				Severity:  "medium",
				Message:   a.printer.Sprintf("%d monitored product(s) missing from the latest upload", len(missing)),
				Details:   map[string]any{"skus": missing},
				Timestamp: now,
			})
		}
	}

	if len(p.ProductImpacts.Value) > 0 && p.TariffRates.Source.IsTemplate() {
		alerts = append(alerts, Alert{
			Type:      AlertTemplateRates,
			Severity:  "medium",
			Message:   "Tariff impacts were calculated from placeholder rates; confirm your tariff rates",
			Timestamp: now,
		})
	}

	return alerts
}

// WebhookURL returns the profile's webhook when set, else the configured one.
func (a *Alerter) WebhookURL(p *model.Profile) string {
	if u := p.AlertConfig.Value.WebhookURL; u != "" {
		return u
	}
	return a.cfg.WebhookURL
}

// SendAlerts delivers alerts to url. Returns the number of alerts
// successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, url string, alerts []Alert) int {
	if url == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, url, alert); err != nil {
			zap.L().Error("alerts: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("alerts: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, url string, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "alerts: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "alerts: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "alerts: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("alerts: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

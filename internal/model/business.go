package model

import "time"

// Product is one imported SKU aggregated from purchase-order lines.
type Product struct {
	SKU           string  `json:"sku"`
	Description   string  `json:"description,omitempty"`
	HTSCode       string  `json:"htsCode,omitempty"`
	OriginCountry string  `json:"originCountry,omitempty"`
	Supplier      string  `json:"supplier,omitempty"`
	Quantity      float64 `json:"quantity"`
	UnitCost      float64 `json:"unitCost"`
	ImportValue   float64 `json:"importValue"`
}

// Processing states reported in FileMetadata.
const (
	ProcessingPending   = "pending"
	ProcessingCompleted = "completed"
	ProcessingFailed    = "failed"
)

// FileMetadata describes the most recent purchase-order upload.
type FileMetadata struct {
	UploadID         string    `json:"uploadId"`
	FileName         string    `json:"fileName"`
	Format           string    `json:"format"`
	RowCount         int       `json:"rowCount"`
	SkippedRows      int       `json:"skippedRows,omitempty"`
	UploadedAt       time.Time `json:"uploadedAt"`
	ProcessingStatus string    `json:"processingStatus"`
}

// ProductImpact is the estimated tariff cost for one product.
type ProductImpact struct {
	SKU           string  `json:"sku"`
	HTSCode       string  `json:"htsCode,omitempty"`
	OriginCountry string  `json:"originCountry,omitempty"`
	ImportValue   float64 `json:"importValue"`
	TariffRate    float64 `json:"tariffRate"`
	TariffCost    float64 `json:"tariffCost"`
	RateSource    string  `json:"rateSource"`
}

// Supplier summarizes purchases from one vendor.
type Supplier struct {
	Name         string  `json:"name"`
	Country      string  `json:"country,omitempty"`
	ProductCount int     `json:"productCount"`
	ImportValue  float64 `json:"importValue"`
}

// AlertConfig holds the user's risk alert thresholds.
type AlertConfig struct {
	Enabled            bool    `json:"enabled"`
	ImpactThresholdUSD float64 `json:"impactThresholdUsd"`
	ImpactSharePct     float64 `json:"impactSharePct"`
	WebhookURL         string  `json:"webhookUrl,omitempty"`
}

// TariffNotice is a Federal Register document relevant to tariffs.
type TariffNotice struct {
	DocumentNumber  string `json:"documentNumber"`
	Title           string `json:"title"`
	Type            string `json:"type,omitempty"`
	PublicationDate string `json:"publicationDate,omitempty"`
	HTMLURL         string `json:"htmlUrl,omitempty"`
	Term            string `json:"term,omitempty"`
}

// Recommendation is one AI-generated suggestion.
type Recommendation struct {
	Title    string `json:"title"`
	Detail   string `json:"detail"`
	Priority string `json:"priority"`
}

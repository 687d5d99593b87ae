package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category is one of the dataset domains the generator supports.
type Category string

const (
	CategoryMedical  Category = "Medical"
	CategoryFinance  Category = "Finance"
	CategoryBusiness Category = "Business"
	CategoryRetail   Category = "Retail"
	CategoryImage    Category = "Image"
)

// Categories lists every known category in display order.
var Categories = []Category{CategoryMedical, CategoryFinance, CategoryBusiness, CategoryRetail, CategoryImage}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Description is the short blurb shown next to the category picker.
func (c Category) Description() string {
	switch c {
	case CategoryMedical:
		return "Patient records, medical measurements, diagnoses"
	case CategoryFinance:
		return "Transactions, accounts, credit scores, payments"
	case CategoryBusiness:
		return "Employee data, performance metrics, departments"
	case CategoryRetail:
		return "Products, sales, inventory, customer data"
	case CategoryImage:
		return "32x32 pixel synthetic images with patterns"
	default:
		return ""
	}
}

// Dataset is the marketplace listing record (DatasetMetadata on the API).
type Dataset struct {
	CID          string   `json:"cid"`
	Title        string   `json:"title"`
	Category     Category `json:"category"`
	Uploader     string   `json:"uploader"`
	Timestamp    string   `json:"timestamp"`
	QualityScore float64  `json:"quality_score"` // 0-100
	Rows         *int     `json:"rows,omitempty"`
	Columns      *int     `json:"columns,omitempty"`
	FileSize     int64    `json:"file_size"` // bytes
	Price        float64  `json:"price"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	QualityColor string   `json:"quality_color,omitempty"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 as well as the naive ISO timestamps the
// backend emits. Naive values are treated as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// CreatedAt is the parsed listing timestamp, zero when unparseable.
func (d Dataset) CreatedAt() time.Time {
	t, _ := ParseTimestamp(d.Timestamp)
	return t
}

// QualityMetrics is the per-dimension breakdown returned with an upload.
type QualityMetrics struct {
	Completeness           float64 `json:"completeness"`
	StatisticalConsistency float64 `json:"statistical_consistency"`
	ClassBalance           float64 `json:"class_balance"`
	Duplicates             float64 `json:"duplicates"`
	Outliers               float64 `json:"outliers"`
	SchemaMatch            float64 `json:"schema_match"`
}

type QualityAssessment struct {
	OverallScore    float64        `json:"overall_score"`
	Metrics         QualityMetrics `json:"metrics"`
	Explanation     []string       `json:"explanation"`
	Recommendations []string       `json:"recommendations"`
}

// Row is one sample record with its column order preserved.
type Row struct {
	Columns []string
	Values  map[string]any
}

// Cells returns the row values in column order.
func (r Row) Cells() []any {
	cells := make([]any, len(r.Columns))
	for i, col := range r.Columns {
		cells[i] = r.Values[col]
	}
	return cells
}

func (r *Row) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("sample row: expected object, got %v", tok)
	}

	r.Columns = r.Columns[:0]
	r.Values = make(map[string]any)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if _, seen := r.Values[key]; !seen {
			r.Columns = append(r.Columns, key)
		}
		r.Values[key] = value
	}
	_, err = dec.Token()
	return err
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.Values[col])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DatasetPreview holds sample rows for tabular data or sample images for
// the Image category.
type DatasetPreview struct {
	SampleData   []Row   `json:"sample_data,omitempty"`
	TotalRows    int     `json:"total_rows"`
	TotalColumns int     `json:"total_columns"`
	FileSizeMB   float64 `json:"file_size_mb"`

	SampleImages    []string `json:"sample_images,omitempty"`
	TotalImages     int      `json:"total_images,omitempty"`
	ImageDimensions string   `json:"image_dimensions,omitempty"`
	Format          string   `json:"format,omitempty"`
}

// Header returns the column names of the first sample row.
func (p DatasetPreview) Header() []string {
	if len(p.SampleData) == 0 {
		return nil
	}
	return p.SampleData[0].Columns
}

func (p DatasetPreview) IsImage() bool {
	return len(p.SampleImages) > 0
}

type GenerationRequest struct {
	Category    Category `json:"category"`
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
}

type GenerationResult struct {
	CID        string          `json:"cid"`
	Preview    *DatasetPreview `json:"preview"`
	Metadata   *Dataset        `json:"metadata"`
	FileSizeMB float64         `json:"file_size_mb"`
}

// UploadRequest is sent as multipart form data; File is the dataset body.
type UploadRequest struct {
	Filename    string
	File        []byte
	Title       string
	Description string
	Category    Category
	Price       float64
	Uploader    string
	Tags        []string
}

type UploadResult struct {
	CID               string            `json:"cid"`
	QualityAssessment QualityAssessment `json:"quality_assessment"`
	Metadata          *Dataset          `json:"metadata"`
	FileSizeMB        float64           `json:"file_size_mb"`
	QualityColor      string            `json:"quality_color"`
}

// ListParams filters GET /api/datasets. Nil or empty fields are not sent.
type ListParams struct {
	Category   string
	MinQuality *float64
	MaxPrice   *float64
	Search     string
	Limit      int
	Offset     int
}

type DatasetList struct {
	Datasets   []Dataset `json:"datasets"`
	TotalCount int       `json:"total_count"`
	Limit      int       `json:"limit"`
	Offset     int       `json:"offset"`
	HasMore    bool      `json:"has_more"`
}

// SearchParams filters GET /api/search. Query is required.
type SearchParams struct {
	Query      string
	Category   string
	MinQuality *float64
	MaxPrice   *float64
	Limit      int
}

type SearchResult struct {
	Datasets   []Dataset `json:"datasets"`
	TotalCount int       `json:"total_count"`
}

type CategoryList struct {
	Categories []string `json:"categories"`
}

type FormatList struct {
	Formats []string `json:"formats"`
}

// DatasetStats is the free-form statistics document for one dataset.
type DatasetStats map[string]any

type MarketplaceStats struct {
	Datasets struct {
		TotalCount           int            `json:"total_count"`
		CategoryDistribution map[string]int `json:"category_distribution"`
		QualityDistribution  map[string]int `json:"quality_distribution"`
	} `json:"datasets"`
	Transactions struct {
		CompletedTransactions int     `json:"completed_transactions"`
		TotalTransactions     int     `json:"total_transactions"`
		TotalVolume           float64 `json:"total_volume"`
	} `json:"transactions"`
	Storage map[string]any `json:"storage"`
}

// EmptyMarketplaceStats is the zeroed document shown when the API is unavailable.
func EmptyMarketplaceStats() *MarketplaceStats {
	stats := &MarketplaceStats{Storage: map[string]any{}}
	stats.Datasets.CategoryDistribution = map[string]int{}
	stats.Datasets.QualityDistribution = map[string]int{}
	return stats
}

type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

package market_client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"frontend/internal/models"

	"go.uber.org/zap"
)

const DefaultDownloadFormat = "zip"

// Download is a streamed dataset file. The caller must close Body.
type Download struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	Filename      string
}

// GenerateDataset handles POST /api/generate.
func (c *Client) GenerateDataset(ctx context.Context, request models.GenerationRequest) (*models.GenerationResult, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/generate", request)
	if err != nil {
		return nil, err
	}
	result, err := getData[models.GenerationResult](c, req)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Generated dataset", zap.String("cid", result.CID), zap.String("category", string(request.Category)))
	return result, nil
}

// GetDatasetPreview handles GET /api/preview/{cid}.
func (c *Client) GetDatasetPreview(ctx context.Context, cid string) (*models.DatasetPreview, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/preview/"+segment(cid), nil, nil)
	if err != nil {
		return nil, err
	}
	return getData[models.DatasetPreview](c, req)
}

// DownloadDataset handles GET /api/download/{cid}. An empty format means zip.
func (c *Client) DownloadDataset(ctx context.Context, cid, format, buyer string) (*Download, error) {
	if format == "" {
		format = DefaultDownloadFormat
	}
	query := url.Values{"format": {format}}
	if buyer != "" {
		query.Set("buyer", buyer)
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/api/download/"+segment(cid), query, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Del("Accept")

	resp, err := c.sendWith(c.streamClient, req)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status != 0 {
			return nil, &APIError{Status: apiErr.Status, Message: "Download failed"}
		}
		return nil, err
	}

	download := &Download{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		download.Filename = params["filename"]
	}
	if download.ContentType == "" {
		download.ContentType = "application/octet-stream"
	}
	return download, nil
}

// GetDatasetFormats handles GET /api/formats/{cid}.
func (c *Client) GetDatasetFormats(ctx context.Context, cid string) (*models.FormatList, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/formats/"+segment(cid), nil, nil)
	if err != nil {
		return nil, err
	}
	return getData[models.FormatList](c, req)
}

// GetDatasetStats handles GET /api/stats/{cid}.
func (c *Client) GetDatasetStats(ctx context.Context, cid string) (models.DatasetStats, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/stats/"+segment(cid), nil, nil)
	if err != nil {
		return nil, err
	}
	stats, err := getData[models.DatasetStats](c, req)
	if err != nil {
		return nil, err
	}
	return *stats, nil
}

// UploadDataset handles POST /api/upload as a multipart form.
func (c *Client) UploadDataset(ctx context.Context, upload models.UploadRequest) (*models.UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", upload.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(upload.File); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}

	fields := [][2]string{
		{"title", upload.Title},
		{"description", upload.Description},
		{"category", string(upload.Category)},
		{"price", strconv.FormatFloat(upload.Price, 'f', -1, 64)},
		{"uploader", upload.Uploader},
		{"tags", strings.Join(upload.Tags, ",")},
	}
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", field[0], err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", nil, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	result, err := getData[models.UploadResult](c, req)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Uploaded dataset", zap.String("cid", result.CID), zap.String("uploader", upload.Uploader))
	return result, nil
}

// ListDatasets handles GET /api/datasets.
func (c *Client) ListDatasets(ctx context.Context, params models.ListParams) (*models.DatasetList, error) {
	query := url.Values{}
	setString(query, "category", params.Category)
	setFloat(query, "min_quality", params.MinQuality)
	setFloat(query, "max_price", params.MaxPrice)
	setString(query, "search", params.Search)
	setInt(query, "limit", params.Limit)
	setInt(query, "offset", params.Offset)

	req, err := c.newRequest(ctx, http.MethodGet, "/api/datasets", query, nil)
	if err != nil {
		return nil, err
	}
	return getData[models.DatasetList](c, req)
}

// GetDatasetMetadata handles GET /api/metadata/{cid}.
func (c *Client) GetDatasetMetadata(ctx context.Context, cid string) (*models.Dataset, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/metadata/"+segment(cid), nil, nil)
	if err != nil {
		return nil, err
	}
	return getData[models.Dataset](c, req)
}

// GetCategories handles GET /api/categories.
func (c *Client) GetCategories(ctx context.Context) (*models.CategoryList, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/categories", nil, nil)
	if err != nil {
		return nil, err
	}
	return getData[models.CategoryList](c, req)
}

// SearchDatasets handles GET /api/search.
func (c *Client) SearchDatasets(ctx context.Context, params models.SearchParams) (*models.SearchResult, error) {
	query := url.Values{"q": {params.Query}}
	setString(query, "category", params.Category)
	setFloat(query, "min_quality", params.MinQuality)
	setFloat(query, "max_price", params.MaxPrice)
	setInt(query, "limit", params.Limit)

	req, err := c.newRequest(ctx, http.MethodGet, "/api/search", query, nil)
	if err != nil {
		return nil, err
	}
	return getData[models.SearchResult](c, req)
}

// GetMarketplaceStats handles GET /api/stats. Failures are logged and
// reported as zeroed statistics so pages keep rendering.
func (c *Client) GetMarketplaceStats(ctx context.Context) *models.MarketplaceStats {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/stats", nil, nil)
	if err != nil {
		return models.EmptyMarketplaceStats()
	}
	stats, err := getDataOrBody[models.MarketplaceStats](c, req)
	if err != nil {
		c.logger.Warn("Falling back to empty marketplace stats", zap.Error(err))
		return models.EmptyMarketplaceStats()
	}
	return stats
}

func setString(query url.Values, key, value string) {
	if value != "" {
		query.Set(key, value)
	}
}

func setFloat(query url.Values, key string, value *float64) {
	if value != nil {
		query.Set(key, strconv.FormatFloat(*value, 'f', -1, 64))
	}
}

func setInt(query url.Values, key string, value int) {
	if value > 0 {
		query.Set(key, strconv.Itoa(value))
	}
}

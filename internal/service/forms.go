package service

import (
	"math"
	"strings"

	"frontend/internal/models"
)

const (
	MaxGenerateRows    = 100000
	MaxGenerateColumns = 1000
)

// GenerateForm is the dataset generation form.
type GenerateForm struct {
	Category    string
	Rows        int
	Columns     int
	Title       string
	Description string
}

// DefaultGenerateForm matches the initial form values.
func DefaultGenerateForm() GenerateForm {
	return GenerateForm{Category: string(models.CategoryMedical), Rows: 1000, Columns: 10}
}

// Validate checks the form and returns the request to send.
func (f GenerateForm) Validate() (models.GenerationRequest, error) {
	category, err := models.ParseCategory(f.Category)
	if err != nil {
		return models.GenerationRequest{}, &ValidationError{Field: "category", Message: "Please choose a dataset category", Err: err}
	}
	if f.Rows < 1 || f.Rows > MaxGenerateRows {
		return models.GenerationRequest{}, invalid("rows", "Number of rows must be between 1 and 100,000")
	}
	columns := f.Columns
	if category == models.CategoryImage {
		// images have a fixed shape; the column count is ignored
		if columns < 1 {
			columns = 1
		}
	} else if columns < 1 || columns > MaxGenerateColumns {
		return models.GenerationRequest{}, invalid("columns", "Number of columns must be between 1 and 1,000")
	}

	return models.GenerationRequest{
		Category:    category,
		Rows:        f.Rows,
		Columns:     columns,
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
	}, nil
}

// SellForm is the dataset listing form.
type SellForm struct {
	Filename    string
	File        []byte
	Title       string
	Description string
	Category    string
	Price       float64
	Uploader    string
	Tags        string
}

// Validate blocks submission on missing required fields; checks run in form order.
func (f SellForm) Validate() (models.UploadRequest, error) {
	if f.Filename == "" || len(f.File) == 0 {
		return models.UploadRequest{}, invalid("file", "Please select a file to upload")
	}
	if strings.TrimSpace(f.Title) == "" {
		return models.UploadRequest{}, invalid("title", "Please enter a dataset title")
	}
	if strings.TrimSpace(f.Uploader) == "" {
		return models.UploadRequest{}, invalid("uploader", "Please enter your name/address")
	}
	if math.IsNaN(f.Price) || math.IsInf(f.Price, 0) {
		return models.UploadRequest{}, invalid("price", "Please enter a valid price")
	}
	if !(f.Price >= 0) {
		return models.UploadRequest{}, invalid("price", "Price cannot be negative")
	}
	category, err := models.ParseCategory(f.Category)
	if err != nil {
		return models.UploadRequest{}, &ValidationError{Field: "category", Message: "Please choose a dataset category", Err: err}
	}

	return models.UploadRequest{
		Filename:    f.Filename,
		File:        f.File,
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Category:    category,
		Price:       f.Price,
		Uploader:    strings.TrimSpace(f.Uploader),
		Tags:        ParseTags(f.Tags),
	}, nil
}

// ParseTags splits a comma separated list, dropping blanks.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Package knowledge ingests reference documents and retrieves passages for questions.
package knowledge

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/bobmcallan/arthmitra/internal/models"
)

// SupportedExtensions lists the file types LoadFile understands.
var SupportedExtensions = []string{".pdf", ".csv", ".txt", ".md"}

// IsSupported reports whether path has a loadable extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LoadFile reads path into documents: one per PDF page, one per CSV row,
// or one for a whole text file.
func LoadFile(path string) ([]models.Document, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return loadPDF(path)
	case ".csv":
		return loadCSV(path)
	case ".txt", ".md":
		return loadText(path)
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedFileType, ext)
	}
}

func loadPDF(path string) ([]models.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var docs []models.Document
	totalPages := r.NumPage()

	for i := 1; i <= totalPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}

		pageIndex := i - 1
		docs = append(docs, models.Document{Source: path, Page: &pageIndex, Text: text})
	}

	return docs, nil
}

// loadCSV renders each row as "column: value" lines so the header travels with every row.
func loadCSV(path string) ([]models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var docs []models.Document
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		var sb strings.Builder
		for i, col := range header {
			if i > 0 {
				sb.WriteString("\n")
			}
			value := ""
			if i < len(row) {
				value = row[i]
			}
			sb.WriteString(strings.TrimSpace(col))
			sb.WriteString(": ")
			sb.WriteString(strings.TrimSpace(value))
		}
		docs = append(docs, models.Document{Source: path, Text: sb.String()})
	}

	return docs, nil
}

func loadText(path string) ([]models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	return []models.Document{{Source: path, Text: string(data)}}, nil
}

// Package goldprice holds the gold price series and answers date lookups.
package goldprice

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/arthmitra/internal/models"
)

// DateLayout is the day/month/year layout of the Date column.
const DateLayout = "2/1/2006"

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

var requiredColumns = []string{"date", "price", "open", "high", "low"}

// columnAliases maps alternative header spellings to canonical names.
var columnAliases = map[string]string{
	"vol.": "volume",
	"vol":  "volume",
}

// ParseStats counts what happened to the rows of a source.
type ParseStats struct {
	Rows    int
	Dropped int
}

// LoadCSV reads the price file at path.
func LoadCSV(path string) ([]models.PriceRecord, ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ParseStats{}, fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV reads a delimited price table. Columns are located by header name,
// the delimiter is detected from the header line, and rows whose date or prices
// cannot be parsed are dropped. Row order is preserved; NewSeries sorts.
func ParseCSV(r io.Reader) ([]models.PriceRecord, ParseStats, error) {
	var stats ParseStats

	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, stats, fmt.Errorf("failed to read price header: %w", err)
	}
	if len(bytes.TrimSpace(head)) == 0 {
		return nil, stats, fmt.Errorf("price file is empty")
	}

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(head)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read price header: %w", err)
	}
	cols := indexColumns(header)
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	var records []models.PriceRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read price row %d: %w", stats.Rows+1, err)
		}
		if isBlank(row) {
			continue
		}
		stats.Rows++

		rec, ok := parseRow(row, cols)
		if !ok {
			stats.Dropped++
			continue
		}
		records = append(records, rec)
	}

	return records, stats, nil
}

func parseRow(row []string, cols map[string]int) (models.PriceRecord, bool) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	display := field("date")
	date, err := time.Parse(DateLayout, display)
	if err != nil {
		return models.PriceRecord{}, false
	}

	var values [4]decimal.Decimal
	for i, name := range []string{"price", "open", "high", "low"} {
		v, err := parseNumber(field(name))
		if err != nil {
			return models.PriceRecord{}, false
		}
		values[i] = v
	}

	volume := field("volume")
	if volume == "" {
		volume = "N/A"
	}

	return models.PriceRecord{
		Date:        date,
		DisplayDate: display,
		Price:       values[0],
		Open:        values[1],
		High:        values[2],
		Low:         values[3],
		Volume:      volume,
	}, true
}

// parseNumber accepts thousands separators and a leading currency symbol.
func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty number")
	}
	return decimal.NewFromString(s)
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		name = strings.Trim(name, `"`)
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}
	return cols
}

// sniffDelimiter picks the candidate that occurs most often on the header line.
func sniffDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	best, bestCount := ',', 0
	for _, c := range []rune{',', ';', '\t', '|'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

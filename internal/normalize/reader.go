package normalize

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	pkgerrors "stocketl/internal/errors"
	"stocketl/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

// columnIndices maps the expected input header to column positions
type columnIndices struct {
	symbol, company, date          int
	open, high, low, close, volume int
}

// ReadTicks parses the extraction collaborator's delimited snapshot into raw
// ticks. Empty numeric cells map to absent values; a malformed row is an
// input error, fatal for the run, reported with file and line context.
func ReadTicks(path string) ([]domain.RawTick, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.NewInputError("read", "failed to open input file", err).
			WithContext("file", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.NewParsingError("read", "failed to read header", err).
			WithContext("file", path)
	}

	cols, err := findColumns(header)
	if err != nil {
		return nil, pkgerrors.NewParsingError("read", "unexpected header", err).
			WithContext("file", path)
	}

	var ticks []domain.RawTick
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, pkgerrors.NewParsingError("read", "failed to read row", err).
				WithContext("file", path).WithContext("line", line)
		}

		tick, err := parseTick(row, cols)
		if err != nil {
			return nil, pkgerrors.NewParsingError("read", "malformed row", err).
				WithContext("file", path).WithContext("line", line)
		}
		ticks = append(ticks, tick)
	}

	return ticks, nil
}

// findColumns locates the expected columns by header name, case-insensitive
func findColumns(header []string) (columnIndices, error) {
	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cols := columnIndices{}
	required := []struct {
		name string
		dst  *int
	}{
		{"symbol", &cols.symbol},
		{"companyname", &cols.company},
		{"date", &cols.date},
		{"openprice", &cols.open},
		{"high", &cols.high},
		{"low", &cols.low},
		{"closeprice", &cols.close},
		{"volume", &cols.volume},
	}

	for _, col := range required {
		i, ok := idx[col.name]
		if !ok {
			return cols, fmt.Errorf("missing column %q", col.name)
		}
		*col.dst = i
	}

	return cols, nil
}

// parseTick converts one CSV row into a RawTick
func parseTick(row []string, cols columnIndices) (domain.RawTick, error) {
	var tick domain.RawTick

	get := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	tick.Symbol = get(cols.symbol)
	tick.CompanyName = get(cols.company)
	if tick.Symbol == "" {
		return tick, fmt.Errorf("empty symbol")
	}

	date, err := time.Parse(dateLayout, get(cols.date))
	if err != nil {
		return tick, fmt.Errorf("invalid date %q: %w", get(cols.date), err)
	}
	tick.Date = date

	if tick.OpenPrice, err = parseNullFloat(get(cols.open)); err != nil {
		return tick, fmt.Errorf("invalid open price: %w", err)
	}
	if tick.High, err = parseNullFloat(get(cols.high)); err != nil {
		return tick, fmt.Errorf("invalid high: %w", err)
	}
	if tick.Low, err = parseNullFloat(get(cols.low)); err != nil {
		return tick, fmt.Errorf("invalid low: %w", err)
	}
	if tick.ClosePrice, err = parseNullFloat(get(cols.close)); err != nil {
		return tick, fmt.Errorf("invalid close price: %w", err)
	}
	if tick.Volume, err = parseNullInt(get(cols.volume)); err != nil {
		return tick, fmt.Errorf("invalid volume: %w", err)
	}

	return tick, nil
}

func parseNullFloat(s string) (null.Float, error) {
	if s == "" {
		return null.Float{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return null.Float{}, err
	}
	if v < 0 {
		return null.Float{}, fmt.Errorf("negative value %v", v)
	}
	return null.FloatFrom(v), nil
}

func parseNullInt(s string) (null.Int, error) {
	if s == "" {
		return null.Int{}, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return null.Int{}, err
	}
	if v < 0 {
		return null.Int{}, fmt.Errorf("negative value %v", v)
	}
	return null.IntFrom(v), nil
}

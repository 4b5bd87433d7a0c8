package exchange

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/luis-polezi/stock-control/internal/apierror"
	"github.com/luis-polezi/stock-control/internal/model"
)

type importProduct struct {
	ID      int             `json:"id"`
	Name    string          `json:"name"`
	Model   string          `json:"model"`
	Balance json.RawMessage `json:"balance"`
}

type importDocument struct {
	Products json.RawMessage `json:"products"`
	Logs     json.RawMessage `json:"logs"`
	Data     *struct {
		Products json.RawMessage `json:"products"`
		Logs     json.RawMessage `json:"logs"`
	} `json:"data"`
}

// ReadJSON parses an export document or a backup document. A document
// without a products array is InvalidFormat; a product with an empty name or
// model, or a non-integer balance, is a ValidationError naming its index.
func ReadJSON(r io.Reader) (model.Ledger, error) {
	var doc importDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return model.Ledger{}, fmt.Errorf("import: %v: %w", err, apierror.ErrInvalidFormat)
	}
	rawProducts, rawLogs := doc.Products, doc.Logs
	if !isArray(rawProducts) && doc.Data != nil {
		rawProducts, rawLogs = doc.Data.Products, doc.Data.Logs
	}
	if !isArray(rawProducts) {
		return model.Ledger{}, fmt.Errorf("import: no products array: %w", apierror.ErrInvalidFormat)
	}

	var items []importProduct
	if err := json.Unmarshal(rawProducts, &items); err != nil {
		return model.Ledger{}, fmt.Errorf("import products: %v: %w", err, apierror.ErrInvalidFormat)
	}
	out := model.Ledger{Products: make([]model.Product, 0, len(items)), Logs: []model.MovementLog{}}
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return model.Ledger{}, apierror.InvalidItem(i, "name", "is required")
		}
		if strings.TrimSpace(it.Model) == "" {
			return model.Ledger{}, apierror.InvalidItem(i, "model", "is required")
		}
		balance, err := strconv.Atoi(string(bytes.TrimSpace(it.Balance)))
		if err != nil {
			return model.Ledger{}, apierror.InvalidItem(i, "balance", "must be an integer")
		}
		out.Products = append(out.Products, model.Product{ID: it.ID, Name: it.Name, Model: it.Model, Balance: balance})
	}

	if isArray(rawLogs) {
		if err := json.Unmarshal(rawLogs, &out.Logs); err != nil {
			return model.Ledger{}, fmt.Errorf("import logs: %v: %w", err, apierror.ErrInvalidFormat)
		}
	}
	return out, nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// ReadCSV parses a product table as written by WriteProductsCSV. The header
// line is skipped, rows with fewer than three fields are ignored, ids are
// assigned 1..n in row order and a balance that is not a number counts as 0.
// Product tables carry no movements, so the result has no logs.
func ReadCSV(r io.Reader) (model.Ledger, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	out := model.Ledger{Products: []model.Product{}, Logs: []model.MovementLog{}}
	header := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Ledger{}, fmt.Errorf("import csv: %v: %w", err, apierror.ErrInvalidFormat)
		}
		if header {
			header = false
			continue
		}
		if len(rec) < 3 {
			continue
		}
		out.Products = append(out.Products, model.Product{
			ID:      len(out.Products) + 1,
			Name:    clean(rec[0]),
			Model:   clean(rec[1]),
			Balance: leadingInt(clean(rec[2])),
		})
	}
	return out, nil
}

// Read picks the parser from the file extension.
func Read(name string, r io.Reader) (model.Ledger, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return ReadJSON(r)
	case ".csv":
		return ReadCSV(r)
	}
	return model.Ledger{}, fmt.Errorf("unsupported file %q, use .json or .csv: %w", name, apierror.ErrInvalidFormat)
}

func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// leadingInt reads an optional sign and the digits that follow, ignoring
// the rest ("12 un" is 12). Anything else is 0.
func leadingInt(s string) int {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

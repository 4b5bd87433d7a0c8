// Package exchange reads and writes the ledger file formats: the JSON export
// document, the two CSV tables and the PDF balance report.
package exchange

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/luis-polezi/stock-control/internal/infra"
	"github.com/luis-polezi/stock-control/internal/model"
)

const (
	notFoundName  = "Product not found"
	notAvailable  = "N/A"
	fileTimestamp = "2006-01-02_15-04-05"
)

var (
	productsHeader = []string{"Product Name", "Model (Color)", "Current Balance"}
	logsHeader     = []string{"Date/Time", "Ficha", "User", "Product", "Model", "Movement", "Quantity"}
)

// Document is the JSON export file.
type Document struct {
	System        string              `json:"system"`
	Version       string              `json:"version"`
	ExportDate    string              `json:"exportDate"`
	ExportedBy    string              `json:"exportedBy"`
	Products      []model.Product     `json:"products"`
	Logs          []model.MovementLog `json:"logs"`
	TotalProducts int                 `json:"totalProducts"`
	TotalLogs     int                 `json:"totalLogs"`
}

// FileName names an export file taken at t, e.g. estoque_2024-03-09_14-05-07.json.
func FileName(t time.Time, ext string) string {
	return fmt.Sprintf("estoque_%s.%s", t.UTC().Format(fileTimestamp), ext)
}

// CSVFileNames returns the product and log table names for an export on t's date.
func CSVFileNames(t time.Time) (products, logs string) {
	day := t.UTC().Format("2006-01-02")
	return "estoque_produtos_" + day + ".csv", "estoque_logs_" + day + ".csv"
}

// WriteJSON writes the export document, indented.
func WriteJSON(w io.Writer, l model.Ledger, actor string, at time.Time) error {
	if l.Products == nil {
		l.Products = []model.Product{}
	}
	if l.Logs == nil {
		l.Logs = []model.MovementLog{}
	}
	doc := Document{
		System:        model.SystemName,
		Version:       model.SystemVersion,
		ExportDate:    at.UTC().Format(time.RFC3339Nano),
		ExportedBy:    actor,
		Products:      l.Products,
		Logs:          l.Logs,
		TotalProducts: len(l.Products),
		TotalLogs:     len(l.Logs),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteProductsCSV writes the product table.
func WriteProductsCSV(w io.Writer, products []model.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(productsHeader); err != nil {
		return err
	}
	for _, p := range products {
		if err := cw.Write([]string{p.Name, p.Model, strconv.Itoa(p.Balance)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLogsCSV writes the movement table, resolving each log's product.
func WriteLogsCSV(w io.Writer, l model.Ledger) error {
	byID := make(map[int]model.Product, len(l.Products))
	for _, p := range l.Products {
		byID[p.ID] = p
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(logsHeader); err != nil {
		return err
	}
	for _, lg := range l.Logs {
		name, productModel := notFoundName, notAvailable
		if p, ok := byID[lg.ProductID]; ok {
			name, productModel = p.Name, p.Model
		}
		ficha := lg.Ficha
		if ficha == "" {
			ficha = notAvailable
		}
		row := []string{lg.Date, ficha, lg.User, name, productModel, lg.Type.Label(), strconv.Itoa(lg.Quantity)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePDF renders the balance report.
func WritePDF(w io.Writer, products []model.Product, actor string, at time.Time) error {
	return infra.WriteBalanceReport(w, products, at, actor)
}

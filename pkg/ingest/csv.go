// Package ingest lit les transactions depuis un fichier CSV.
//
// Format attendu (jeu CDNOW) : colonne d'index optionnelle, puis customer_id,
// date et monetary_value (ou price, renommée en monetary_value).
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"clv-forecast/pkg/models"

	"github.com/shopspring/decimal"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"20060102",
}

// amountColumns sont les noms acceptés pour le montant, par priorité.
var amountColumns = []string{"monetary_value", "price", "amount"}

// LoadCSV ouvre path et lit ses transactions.
func LoadCSV(path string) ([]models.TransactionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.DataError{Msg: "ouverture " + path, Err: err}
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV lit les transactions de r. Toute ligne invalide renvoie une DataError.
func ReadCSV(r io.Reader) ([]models.TransactionRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &models.DataError{Msg: "fichier vide"}
	}
	if err != nil {
		return nil, &models.DataError{Line: 1, Msg: "en-tête illisible", Err: err}
	}
	idCol, dateCol, amountCol, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var out []models.TransactionRecord
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &models.DataError{Line: line, Msg: "ligne illisible", Err: err}
		}
		rec, err := parseRow(row, idCol, dateCol, amountCol)
		if err != nil {
			return nil, &models.DataError{Line: line, Msg: err.Error()}
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, &models.DataError{Msg: "aucune transaction"}
	}
	return out, nil
}

func locateColumns(header []string) (idCol, dateCol, amountCol int, err error) {
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var ok bool
	if idCol, ok = idx["customer_id"]; !ok {
		return 0, 0, 0, &models.DataError{Line: 1, Msg: "colonne customer_id absente"}
	}
	if dateCol, ok = idx["date"]; !ok {
		return 0, 0, 0, &models.DataError{Line: 1, Msg: "colonne date absente"}
	}
	for _, name := range amountColumns {
		if amountCol, ok = idx[name]; ok {
			return idCol, dateCol, amountCol, nil
		}
	}
	return 0, 0, 0, &models.DataError{Line: 1, Msg: "colonne monetary_value/price absente"}
}

func parseRow(row []string, idCol, dateCol, amountCol int) (models.TransactionRecord, error) {
	id := strings.TrimSpace(row[idCol])
	if id == "" {
		return models.TransactionRecord{}, fmt.Errorf("customer_id vide")
	}
	date, err := parseDate(strings.TrimSpace(row[dateCol]))
	if err != nil {
		return models.TransactionRecord{}, err
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(row[amountCol]))
	if err != nil {
		return models.TransactionRecord{}, fmt.Errorf("montant invalide %q", row[amountCol])
	}
	if amount.IsNegative() {
		return models.TransactionRecord{}, fmt.Errorf("montant négatif %s", amount)
	}
	return models.TransactionRecord{CustomerID: id, Date: date, Amount: amount}, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date invalide %q", s)
}

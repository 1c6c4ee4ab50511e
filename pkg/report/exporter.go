package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"clv-forecast/pkg/models"
)

// ExportJSON écrit data en JSON indenté dans filename, dossier compris.
func ExportJSON(filename string, data interface{}) (err error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("création du dossier: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("création du fichier: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("fermeture du fichier: %w", cerr)
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("écriture JSON: %w", err)
	}
	return nil
}

func TimestampedFilename(baseDir, name string, t time.Time) string {
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.json", name, t.Format("20060102_150405")))
}

// WriteSummary écrit le résumé texte du rapport :
// en-tête, segments, puis top clients "id ; CLV ; segment ; frequency ; recency ; monetary".
// La première erreur d'écriture interrompt le résumé.
func WriteSummary(w io.Writer, rep *models.Report) error {
	sw := &summaryWriter{w: w}
	sw.printf("run=%s ; observation_end=%s ; transactions=%d ; customers=%d ; skipped=%d\n",
		rep.RunID, rep.ObservationEnd.Format("2006-01-02"), rep.Transactions, len(rep.Customers), len(rep.Skipped))
	sw.printf("thresholds ; high(p80)=%.2f ; low(p40)=%.2f\n", rep.Thresholds.High, rep.Thresholds.Low)
	for _, seg := range []models.Segment{models.SegmentHigh, models.SegmentMedium, models.SegmentLow} {
		sw.printf("%s ; customers=%d ; %s\n", seg, rep.SegmentCounts[seg], seg.Recommendation())
	}
	for _, c := range rep.Top {
		sw.printf("%s ; %.2f ; %s ; frequency=%d ; recency=%.0f ; monetary=%.2f\n",
			c.CustomerID, c.PredictedValue, c.Segment, c.Frequency, c.Recency, c.MonetaryValue)
	}
	for _, s := range rep.Skipped {
		sw.printf("skipped ; %s ; %s\n", s.CustomerID, s.Reason)
	}
	return sw.err
}

// summaryWriter garde la première erreur et ignore les écritures suivantes.
type summaryWriter struct {
	w   io.Writer
	err error
}

func (s *summaryWriter) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}

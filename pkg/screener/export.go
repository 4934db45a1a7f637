package screener

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/service"
	"github.com/aishend/stoch-rsi-pair-filter-binance-api/pkg/util"
)

const (
	resultsFileName        = "stoch_rsi_results.json"
	databaseExportFileName = "database_export.json"
)

// Exporter writes screening results and database dumps as JSON files under
// Dir. Writes hold a file lock so concurrent runs do not interleave.
type Exporter struct {
	Dir            string
	ReadingService *service.ReadingService
}

// WriteResults writes the reports of one pass, keyed by timeframe. It
// returns the path of the written file.
func (e *Exporter) WriteResults(reports map[string][]*Report) (string, error) {
	p := filepath.Join(e.Dir, resultsFileName)
	if err := writeLocked(p, reports); err != nil {
		return "", err
	}

	return p, nil
}

// WriteDatabaseExport dumps every stored reading grouped by symbol and
// timeframe.
func (e *Exporter) WriteDatabaseExport(ctx context.Context) (string, error) {
	data, err := e.ReadingService.Export(ctx)
	if err != nil {
		return "", err
	}

	p := filepath.Join(e.Dir, databaseExportFileName)
	if err := writeLocked(p, data); err != nil {
		return "", err
	}

	return p, nil
}

func writeLocked(path string, obj interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "can not create the output directory of %s", path)
	}

	fileLock := flock.New(path)
	if err := fileLock.Lock(); err != nil {
		log.WithError(err).Errorf("result file lock error: %s", err)
		return err
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			log.WithError(err).Errorf("result file unlock error: %s", err)
		}
	}()

	return util.WriteJsonFile(path, obj)
}

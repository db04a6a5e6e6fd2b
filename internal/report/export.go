// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package report

import (
	"encoding/json"
	"fmt"

	"github.com/ManuGH/srtcheck/internal/log"
	"github.com/google/renameio/v2"
)

// Export writes rec as indented JSON. The file is replaced atomically, so a
// crash never leaves a truncated report behind.
func Export(path string, rec Record) error {
	logger := log.WithComponent("report")

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending report file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending report file")
		}
	}()

	if _, err := pendingFile.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write report data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace report file: %w", err)
	}

	logger.Info().Str(log.FieldEvent, "report.exported").Str(log.FieldReportID, rec.ReportID).Str(log.FieldPath, path).Msg("report exported")
	return nil
}

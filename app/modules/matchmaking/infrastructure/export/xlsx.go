// Package matchmakingexport renders league state as an audit workbook.
package matchmakingexport

import (
	"fmt"
	"io"
	"time"

	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/xuri/excelize/v2"
)

const (
	PairingsSheet = "Pairings"
	DisputesSheet = "Disputes"
)

var (
	pairingHeader = []any{"ID", "Competitor A", "Competitor B", "Weight Class", "Status", "Match Type", "Score", "Scheduled At", "Requested By", "Bracket Node"}
	disputeHeader = []any{"ID", "Pairing ID", "Raised By", "Reason", "Status", "Created At"}
)

// Snapshot is the data written to one workbook.
type Snapshot struct {
	GeneratedAt time.Time
	Pairings    []matchmakingdb.Pairing
	Disputes    []matchmakingdb.Dispute
}

// WriteWorkbook writes the snapshot as an xlsx workbook with one sheet per record type.
func WriteWorkbook(w io.Writer, snap Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; rename it rather than leave an empty sheet behind.
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), PairingsSheet); err != nil {
		return fmt.Errorf("failed to name pairings sheet: %w", err)
	}
	if _, err := f.NewSheet(DisputesSheet); err != nil {
		return fmt.Errorf("failed to create disputes sheet: %w", err)
	}

	pairingRows := make([][]any, 0, len(snap.Pairings)+1)
	pairingRows = append(pairingRows, pairingHeader)
	for _, p := range snap.Pairings {
		pairingRows = append(pairingRows, []any{
			p.ID.String(),
			p.CompetitorA,
			p.CompetitorB,
			p.WeightClass,
			string(p.Status),
			string(p.MatchType),
			p.CompatibilityScore,
			p.ScheduledAt.UTC().Format(time.RFC3339),
			deref(p.RequestedBy),
			deref(p.BracketNodeID),
		})
	}
	if err := writeRows(f, PairingsSheet, pairingRows); err != nil {
		return err
	}

	disputeRows := make([][]any, 0, len(snap.Disputes)+1)
	disputeRows = append(disputeRows, disputeHeader)
	for _, d := range snap.Disputes {
		disputeRows = append(disputeRows, []any{
			d.ID.String(),
			d.PairingID.String(),
			d.RaisedBy,
			d.Reason,
			string(d.Status),
			d.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeRows(f, DisputesSheet, disputeRows); err != nil {
		return err
	}

	if !snap.GeneratedAt.IsZero() {
		if err := f.SetDocProps(&excelize.DocProperties{
			Title:   "Pairing audit",
			Created: snap.GeneratedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return fmt.Errorf("failed to set workbook properties: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for idx, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			return fmt.Errorf("failed to resolve cell for row %d: %w", idx+1, err)
		}
		cells := row
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, idx+1, err)
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

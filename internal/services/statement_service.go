package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"rentledger/internal/common"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// StatementService renders a tenant's ledger as a downloadable PDF statement.
type StatementService interface {
	GenerateStatement(ctx context.Context, tenantID uuid.UUID) ([]byte, error)
}

type statementService struct {
	tenants TenantService
	ledger  LedgerServiceInterface
}

func NewStatementService(tenants TenantService, ledger LedgerServiceInterface) StatementService {
	return &statementService{tenants: tenants, ledger: ledger}
}

func (s *statementService) GenerateStatement(ctx context.Context, tenantID uuid.UUID) ([]byte, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledger.Ledger(ctx, tenantID, 200, 0)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.Balance(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	marginX := 20.0
	marginY := 20.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)

	pdf.SetXY(marginX, marginY)
	pdf.Cell(0, 10, "RENT LEDGER STATEMENT")
	pdf.Ln(15)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Tenant: %s", tenant.FullName))
	pdf.Ln(8)
	if tenant.UnitLabel != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Unit: %s", tenant.UnitLabel))
		pdf.Ln(8)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Statement Date: %s", time.Now().Format("02-Jan-2006")))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Current Balance: %s", common.FormatCents(balance)))
	pdf.Ln(12)

	// Ledger table header
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)

	headers := []string{"Date", "Type", "Description", "Status", "Amount"}
	colWidths := []float64{25, 22, 68, 20, 35}

	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(255, 255, 255)

	for _, e := range entries {
		status := ""
		amount := e.AmountCents
		kind := "Charge"
		if e.Kind == "payment" {
			kind = "Payment"
			amount = -amount
		} else if e.IsPaid != nil {
			if *e.IsPaid {
				status = "paid"
			} else {
				status = "unpaid"
			}
		}

		description := e.Description
		if len(description) > 45 {
			description = description[:42] + "..."
		}

		pdf.CellFormat(colWidths[0], 8, e.CreatedAt.Format("02-Jan-2006"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[1], 8, kind, "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[2], 8, description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[3], 8, status, "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[4], 8, common.FormatCents(amount), "1", 0, "R", false, 0, "")
		pdf.Ln(8)
	}

	pdf.Ln(5)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Balance Due: %s", common.FormatCents(max64(balance, 0))))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render statement: %w", err)
	}
	return buf.Bytes(), nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/xuri/excelize/v2"
)

var shipmentExportHeaders = []string{
	"Tracking No.", "RFQ", "Mode", "Origin", "Destination", "Company", "Client Email",
	"Status", "Incoterm", "Weight (kg)", "Volume (cbm)", "BL/AWB", "Container",
	"ETD", "ETA", "Last Update",
}

// ExportShipments 导出运单为xlsx
func (s *ShipmentService) ExportShipments(ctx context.Context, actor Actor, filters map[string]string) (*excelize.File, string, error) {
	if err := actor.requireRole("export shipments", entity.RoleOperations); err != nil {
		return nil, "", err
	}
	if filters == nil {
		filters = map[string]string{}
	}
	shipments, err := s.repo.FindForExport(ctx, filters)
	if err != nil {
		return nil, "", dependency("list shipments for export", err)
	}

	f := excelize.NewFile()
	sheet := "Shipments"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range shipmentExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for rowIdx, sh := range shipments {
		row := rowIdx + 2
		docNumber := sh.BLNumber
		if docNumber == "" {
			docNumber = sh.AWBNumber
		}
		lastUpdate := ""
		if last := sh.StatusHistory.Last(); last != nil {
			lastUpdate = last.Timestamp.Format(time.DateTime)
		}
		values := []interface{}{
			sh.TrackingNumber, sh.RFQReference, sh.Mode, sh.Origin, sh.Destination, sh.CompanyName, sh.ClientEmail,
			entity.StatusLabel(entity.EntityTypeShipment, sh.Status), sh.Incoterm, sh.WeightKG, sh.VolumeCBM,
			docNumber, sh.ContainerNumber, formatDate(sh.ETD), formatDate(sh.ETA), lastUpdate,
		}
		for i, v := range values {
			col, _ := excelize.ColumnNumberToName(i + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	colWidths := []float64{14, 16, 8, 20, 20, 24, 26, 20, 8, 12, 12, 16, 14, 12, 12, 18}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("shipments_%s.xlsx", time.Now().Format("20060102"))
	return f, filename, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

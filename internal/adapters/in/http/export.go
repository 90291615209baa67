package http

import (
	"fmt"
	"net/http"
	"time"

	"backoffice/internal/core/application/usecases/queries"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	summarySheet    = "Summary"
	agentsSheet     = "Agents"
)

var agentHeaders = []any{"Code", "Name", "Assigned", "Max orders", "Utilization %", "Online", "Last activity"}

// ExportAssignmentStats streams the stats snapshot as a workbook.
func (s *Server) ExportAssignmentStats(c echo.Context) error {
	stats, err := s.h.AssignmentStats.Handle(c.Request().Context(), queries.NewGetAssignmentStatsQuery())
	if err != nil {
		return err
	}

	f, err := StatsWorkbook(stats)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	name := fmt.Sprintf("assignment_stats_%s.xlsx", stats.GeneratedAt.UTC().Format("2006-01-02_1504"))
	c.Response().Header().Set(echo.HeaderContentType, xlsxContentType)
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+name)
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response().Writer)
}

// StatsWorkbook lays a snapshot out on a summary sheet and one row per agent.
func StatsWorkbook(stats queries.AssignmentStats) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	summary := [][]any{
		{"Generated at", stats.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Total agents", stats.TotalAgents},
		{"Online agents", stats.OnlineAgents},
		{"Unassigned orders", stats.UnassignedOrders},
		{"Assigned orders", stats.AssignedOrders},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err = f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 22); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(agentsSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(agentsSheet, "A1", &agentHeaders); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err = f.SetCellStyle(agentsSheet, "A1", "G1", bold); err != nil {
		return nil, err
	}

	for i, a := range stats.Agents {
		lastActivity := ""
		if a.LastActivityAt != nil {
			lastActivity = a.LastActivityAt.UTC().Format(time.RFC3339)
		}
		row := []any{a.Code, a.Name, a.Assigned, a.MaxOrders, a.UtilizationPercent, a.Online, lastActivity}

		cell, cellErr := excelize.CoordinatesToCellName(1, i+2)
		if cellErr != nil {
			return nil, cellErr
		}
		if err = f.SetSheetRow(agentsSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err = f.SetColWidth(agentsSheet, "B", "B", 25); err != nil {
		return nil, err
	}
	if err = f.SetColWidth(agentsSheet, "G", "G", 22); err != nil {
		return nil, err
	}

	return f, nil
}

package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/repository"
)

// ReadingsExportHeader 遥测导出表头
var ReadingsExportHeader = []string{
	"Device ID",
	"Timestamp",
	"Key",
	"Value",
	"Unit",
}

// ReadingsHandler 遥测查询 Handler（原始/聚合/导出）
type ReadingsHandler struct {
	readings repository.SensorReadingsRepository
	aggs     repository.AggregatedReadingsRepository
	logger   *zap.Logger
}

// NewReadingsHandler 创建遥测查询 Handler
func NewReadingsHandler(
	readings repository.SensorReadingsRepository,
	aggs repository.AggregatedReadingsRepository,
	logger *zap.Logger,
) *ReadingsHandler {
	return &ReadingsHandler{
		readings: readings,
		aggs:     aggs,
		logger:   logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *ReadingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/sim/api/v1/readings" && r.Method == http.MethodGet:
		h.ListReadings(w, r)
	case r.URL.Path == "/sim/api/v1/readings/aggregated" && r.Method == http.MethodGet:
		h.ListAggregated(w, r)
	case r.URL.Path == "/sim/api/v1/readings/export" && r.Method == http.MethodGet:
		h.ExportReadings(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ReadingsHandler) readingFilters(r *http.Request) repository.ReadingFilters {
	q := r.URL.Query()
	return repository.ReadingFilters{
		DeviceID: q.Get("device_id"),
		Key:      q.Get("key"),
		From:     parseTime(q.Get("from")),
		To:       parseTime(q.Get("to")),
		Limit:    parseInt(q.Get("limit"), 100),
	}
}

func (h *ReadingsHandler) ListReadings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	readings, err := h.readings.ListReadings(ctx, h.readingFilters(r))
	if err != nil {
		h.logger.Error("Failed to list readings", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list readings"))
		return
	}

	items := make([]map[string]any, 0, len(readings))
	for _, reading := range readings {
		items = append(items, reading.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *ReadingsHandler) ListAggregated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filters := repository.AggregatedFilters{
		EntityType:    q.Get("entity_type"),
		EntityID:      q.Get("entity_id"),
		Key:           q.Get("key"),
		PeriodSeconds: parseInt(q.Get("period"), 0),
		From:          parseTime(q.Get("from")),
		To:            parseTime(q.Get("to")),
		Limit:         parseInt(q.Get("limit"), 100),
	}

	aggs, err := h.aggs.ListAggregated(ctx, filters)
	if err != nil {
		h.logger.Error("Failed to list aggregated readings", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list aggregated readings"))
		return
	}

	items := make([]map[string]any, 0, len(aggs))
	for _, a := range aggs {
		items = append(items, a.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

// ExportReadings 导出原始遥测为 Excel 文件
func (h *ReadingsHandler) ExportReadings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filters := h.readingFilters(r)
	if filters.Limit <= 0 || filters.Limit > 1000 {
		filters.Limit = 1000
	}

	readings, err := h.readings.ListReadings(ctx, filters)
	if err != nil {
		h.logger.Error("Failed to load readings for export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export readings"))
		return
	}

	f := excelize.NewFile()
	sheetName := "Readings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		h.logger.Error("Failed to create export sheet", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export readings"))
		return
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for col, header := range ReadingsExportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	for i, reading := range readings {
		row := i + 2
		values := []any{
			reading.DeviceID,
			reading.Timestamp.UTC().Format(time.RFC3339),
			reading.Key,
			reading.Value,
			reading.Unit,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		h.logger.Error("Failed to write export file", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export readings"))
		return
	}
	f.Close()

	filename := fmt.Sprintf("readings_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	_, _ = w.Write(buf.Bytes())
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dining"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dto"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

const (
	summarySheet = "食堂排名"
	itemsSheet   = "推荐菜品"
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出内容与 GET /recommendations 完全一致（同一次推荐计算）
//   - 以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Sheet 1 为食堂排名汇总，Sheet 2 为逐食堂的推荐菜品
type ExportService interface {
	ExportRecommendations(ctx context.Context, userID string, q *dto.RecommendationQuery) (*bytes.Buffer, string, error)
}

type exportService struct {
	rec    RecommendationService
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(rec RecommendationService, logger *zap.Logger) ExportService {
	return &exportService{rec: rec, logger: logger}
}

func (s *exportService) ExportRecommendations(ctx context.Context, userID string, q *dto.RecommendationQuery) (*bytes.Buffer, string, error) {
	rec, err := s.rec.Recommend(ctx, userID, q)
	if err != nil {
		return nil, "", err
	}
	buf, err := renderRecommendation(rec)
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("smartdine_%s.xlsx", rec.Slot), nil
}

func renderRecommendation(rec *dining.Recommendation) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(summarySheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// ── Sheet 1：食堂排名 ──
	title := fmt.Sprintf("%s 推荐", rec.Slot)
	if rec.Weekend {
		title += "（周末）"
	}
	summaryHeader := []string{"排名", "食堂", "营业中", "得分", "可选菜品", "菜品总数", "匹配率(%)", "总热量"}
	f.SetCellValue(summarySheet, "A1", title)
	f.MergeCell(summarySheet, "A1", cell(colName(len(summaryHeader)-1), 1))
	f.SetCellStyle(summarySheet, "A1", "A1", headerStyle)
	for i, h := range summaryHeader {
		f.SetCellValue(summarySheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(summarySheet, "A2", cell(colName(len(summaryHeader)-1), 2), headerStyle)
	f.SetColWidth(summarySheet, "B", "B", 20)

	row := 3
	for i, h := range rec.Halls {
		values := []interface{}{
			i + 1,
			h.HallName,
			yesNo(h.IsOpen),
			h.Score,
			h.Stats.EligibleItems,
			h.Stats.TotalItems,
			h.Stats.MatchRate,
			h.Stats.TotalCalories,
		}
		for c, v := range values {
			f.SetCellValue(summarySheet, cell(colName(c), row), v)
		}
		row++
	}

	// ── Sheet 2：推荐菜品 ──
	itemHeader := []string{"食堂", "序号", "菜品", "得分", "热量", "饮食类别", "过敏原"}
	for i, h := range itemHeader {
		f.SetCellValue(itemsSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(itemsSheet, "A1", cell(colName(len(itemHeader)-1), 1), headerStyle)
	f.SetColWidth(itemsSheet, "A", "A", 20)
	f.SetColWidth(itemsSheet, "C", "C", 32)
	f.SetColWidth(itemsSheet, "F", "G", 28)

	row = 2
	for _, h := range rec.Halls {
		for i, it := range h.Items {
			values := []interface{}{
				h.HallName,
				i + 1,
				it.Item.Name,
				it.Score,
				caloriesText(it.Item.Calories),
				strings.Join(it.Item.DietCategories, ", "),
				strings.Join(it.Item.Allergens, ", "),
			}
			for c, v := range values {
				f.SetCellValue(itemsSheet, cell(colName(c), row), v)
			}
			row++
		}
	}
	if row == 2 {
		f.SetCellValue(itemsSheet, "A2", "暂无可推荐的菜品")
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

func caloriesText(c int) interface{} {
	if c <= 0 {
		return "-"
	}
	return c
}

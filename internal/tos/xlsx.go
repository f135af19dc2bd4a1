package tos

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cognify-app/cognify-backend/internal/bloom"
)

// ParseWorkbook reads a Table of Specification from an .xlsx spreadsheet,
// which is the format faculty actually author them in. The first sheet is
// expected to have a header row of `topic`, `weight`, then one column per
// Bloom level, and one topic per data row:
//
//	topic      weight  remembering  understanding  applying ...
//	Theories   0.40    8            5              2
//
// Header matching is case-insensitive. Rows with an empty topic cell are
// skipped. The returned TOS carries no ID or subject; callers fill those in
// before storing.
func ParseWorkbook(r io.Reader) (*TOS, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q has no topic rows", sheets[0])
	}

	topicCol, weightCol := -1, -1
	bloomCols := make(map[int]bloom.Level)
	for i, cell := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(cell))
		switch name {
		case "topic", "title":
			topicCol = i
		case "weight":
			weightCol = i
		default:
			if level, err := bloom.Parse(name); err == nil {
				bloomCols[i] = level
			}
		}
	}
	if topicCol < 0 {
		return nil, fmt.Errorf("sheet %q has no topic column", sheets[0])
	}

	var t TOS
	for rowNum, row := range rows[1:] {
		topic := Topic{BloomDist: make(map[bloom.Level]int)}
		if topicCol < len(row) {
			topic.Title = strings.TrimSpace(row[topicCol])
		}
		if topic.Title == "" {
			continue
		}
		if weightCol >= 0 && weightCol < len(row) && row[weightCol] != "" {
			w, err := strconv.ParseFloat(strings.TrimSpace(row[weightCol]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid weight %q: %w", rowNum+2, row[weightCol], err)
			}
			topic.Weight = w
		}
		for col, level := range bloomCols {
			if col >= len(row) || strings.TrimSpace(row[col]) == "" {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(row[col]))
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid %s count %q: %w", rowNum+2, level, row[col], err)
			}
			if n > 0 {
				topic.BloomDist[level] = n
			}
		}
		t.Topics = append(t.Topics, topic)
	}
	if len(t.Topics) == 0 {
		return nil, fmt.Errorf("sheet %q has no usable topic rows", sheets[0])
	}
	return &t, nil
}

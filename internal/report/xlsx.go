package report

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// WriteWorkbook saves the sheets, in order, as tabs of one workbook.
func WriteWorkbook(path string, sheets []Sheet) error {
	f := xlsx.NewFile()
	for _, s := range sheets {
		tab, err := f.AddSheet(s.Name)
		if err != nil {
			return eris.Wrapf(err, "report: add sheet %q", s.Name)
		}

		header := tab.AddRow()
		for _, c := range s.Columns {
			header.AddCell().SetString(c)
		}

		for _, row := range s.Rows {
			r := tab.AddRow()
			for _, v := range row {
				setCell(r.AddCell(), v)
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	zap.L().Info("report: workbook written", zap.String("path", path), zap.Int("sheets", len(sheets)))
	return nil
}

func setCell(cell *xlsx.Cell, v any) {
	switch val := v.(type) {
	case nil:
		cell.SetString("")
	case string:
		cell.SetString(val)
	case int:
		cell.SetInt(val)
	case float64:
		cell.SetFloat(val)
	case bool:
		cell.SetBool(val)
	default:
		cell.SetString(fmt.Sprint(val))
	}
}

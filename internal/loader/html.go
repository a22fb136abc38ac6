package loader

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/dipscan/internal/contracts"
)

// readHTML reads the first <table>. The first non-empty row is the header;
// every row keeps its th and td cells in document order.
func readHTML(data []byte) (table, error) {
	text, encoding, err := decodeText(data)
	if err != nil {
		return table{}, err
	}
	tbl := table{encoding: encoding}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(text))
	if err != nil {
		return tbl, newReadError(contracts.ReasonParseFailed, "parse html: %v", err)
	}

	first := doc.Find("table").First()
	if first.Length() == 0 {
		return tbl, newReadError(contracts.ReasonParseFailed, "no <table> element found")
	}

	first.Find("tr").Each(func(i int, row *goquery.Selection) {
		// 중첩 테이블 행은 제외
		if row.Closest("table").Get(0) != first.Get(0) {
			return
		}

		// th/td 순서 그대로 읽어야 열 위치가 맞음
		cells := row.ChildrenFiltered("th, td")
		if cells.Length() == 0 {
			return
		}
		if tbl.header == nil {
			tbl.header = cellTexts(cells)
			return
		}
		tbl.rows = append(tbl.rows, cellTexts(cells))
	})

	if tbl.header == nil {
		return tbl, newReadError(contracts.ReasonEmptyFile, "table has no rows")
	}
	return tbl, nil
}

func cellTexts(sel *goquery.Selection) []string {
	cells := make([]string, 0, sel.Length())
	sel.Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(cell.Text()))
	})
	return cells
}

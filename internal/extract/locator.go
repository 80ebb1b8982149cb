package extract

import (
	"github.com/PuerkitoBio/goquery"

	"weaponstats/internal/textnorm"
)

// Locator resolves class-name keys against a single weapon's HTML subtree.
//
// Every lookup treats "no matching element" as an ordinary outcome and
// reports it through the ok result; nothing here returns an error. The rule
// interpreter relies on that to turn missing sub-elements into omitted
// fields instead of failed weapons.
type Locator struct {
	root *goquery.Selection
}

// NewLocator scopes a Locator to the given subtree.
func NewLocator(root *goquery.Selection) *Locator {
	return &Locator{root: root}
}

// All returns every descendant carrying the class key, in document order.
func (l *Locator) All(key string) *goquery.Selection {
	return l.root.Find("." + key)
}

// First returns the first descendant carrying the class key. The returned
// selection may be empty; callers check Length.
func (l *Locator) First(key string) *goquery.Selection {
	return l.All(key).First()
}

// Text returns the normalized text of the first match for key.
// ok is false when no element matches.
func (l *Locator) Text(key string, opts textnorm.Options) (any, bool) {
	sel := l.First(key)
	if sel.Length() == 0 {
		return nil, false
	}
	return textnorm.Clean(sel.Text(), opts), true
}

// NextSiblingText returns the normalized text of the element immediately
// following the first match for key in sibling order.
func (l *Locator) NextSiblingText(key string, opts textnorm.Options) (any, bool) {
	sel := l.First(key)
	if sel.Length() == 0 {
		return nil, false
	}
	next := sel.Next()
	if next.Length() == 0 {
		return nil, false
	}
	return textnorm.Clean(next.Text(), opts), true
}

// ChildText returns the normalized text of the child element at the given
// zero-based index under the first match for key.
func (l *Locator) ChildText(key string, index int, opts textnorm.Options) (any, bool) {
	sel := l.First(key)
	if sel.Length() == 0 {
		return nil, false
	}
	child := sel.Children().Eq(index)
	if child.Length() == 0 {
		return nil, false
	}
	return textnorm.Clean(child.Text(), opts), true
}

// CellText reads one positional cell out of the first table matching
// tableKey and returns its normalized text.
//
// row and col are 1-indexed. Rows are the table's data rows: <tr> elements
// containing at least one <td>, so a <th>-only header row does not shift
// the numbering. col counts <td> cells only.
//
// The spread table is irregular: rows whose 1-indexed position is congruent
// to 1 mod 3 open a stance group and carry one extra leading cell (the
// group label spans the next two rows). With adjustCols set, the effective
// column for every other row is col-1 so one rule can address all six rows
// with a single column number. The regular increase/decrease table passes
// adjustCols=false.
func (l *Locator) CellText(tableKey string, row, col int, adjustCols bool, opts textnorm.Options) (any, bool) {
	cell, ok := l.cell(tableKey, row, effectiveColumn(row, col, adjustCols))
	if !ok {
		return nil, false
	}
	return textnorm.Clean(cell.Text(), opts), true
}

// effectiveColumn applies the irregular-table column adjustment.
func effectiveColumn(row, col int, adjustCols bool) int {
	if adjustCols && row%3 != 1 {
		return col - 1
	}
	return col
}

// cell resolves a 1-indexed (row, col) position inside the first table
// matching tableKey. ok is false when the table, row, or cell is absent.
func (l *Locator) cell(tableKey string, row, col int) (*goquery.Selection, bool) {
	if row < 1 || col < 1 {
		return nil, false
	}
	table := l.First(tableKey)
	if table.Length() == 0 {
		return nil, false
	}

	var target *goquery.Selection
	n := 0
	table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if tr.Find("td").Length() == 0 {
			return true // header row, keep scanning
		}
		n++
		if n == row {
			target = tr
			return false
		}
		return true
	})
	if target == nil {
		return nil, false
	}

	cell := target.Find("td").Eq(col - 1)
	if cell.Length() == 0 {
		return nil, false
	}
	return cell, true
}

// Package extract turns a saved weapon-stat HTML page into a
// stats.WeaponSet by interpreting an ordered table of extraction rules
// against each weapon block.
//
// Missing sub-elements are never errors; they simply leave the
// corresponding field out of the weapon's record. The only hard failure is
// HTML that cannot be parsed at all.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"weaponstats/internal/stats"
	"weaponstats/internal/textnorm"
)

// classSelector matches the container of one weapon class. The page flags
// these as sortable tables.
const classSelector = "table.sortable"

// weaponSelector matches one weapon block inside a class container.
const weaponSelector = ".weapon"

// Report summarizes one extraction run for logging and metrics.
type Report struct {
	// Weapons is the number of records in the resulting set.
	Weapons int

	// SkippedNoName counts weapon blocks dropped because the name
	// sub-element was missing or empty.
	SkippedNoName int

	// Overwritten counts records replaced by a later weapon block carrying
	// the same name (last write wins).
	Overwritten int

	// MissingFields counts rule applications that produced no value.
	MissingFields int
}

// Extract parses the page and extracts every weapon of every class, in
// document order.
//
// Returns an error only when the HTML cannot be parsed; everything past
// parsing degrades per-field instead of failing.
func Extract(html string) (*stats.WeaponSet, Report, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, Report{}, fmt.Errorf("parse html: %w", err)
	}
	set, rep := extractDocument(doc)
	return set, rep, nil
}

// extractDocument walks each weapon-class container and each weapon block
// within it, producing one record per weapon keyed by weapon name.
func extractDocument(doc *goquery.Document) (*stats.WeaponSet, Report) {
	set := stats.NewWeaponSet()
	var rep Report
	rules := Rules()

	doc.Find(classSelector).Each(func(_ int, class *goquery.Selection) {
		class.Find(weaponSelector).Each(func(_ int, weapon *goquery.Selection) {
			loc := NewLocator(weapon)

			name, ok := weaponName(loc)
			if !ok {
				rep.SkippedNoName++
				return
			}

			rec := stats.NewRecord()
			rep.MissingFields += applyRules(loc, rec, rules)

			if set.Put(name, rec) {
				rep.Overwritten++
			}
		})
	})

	rep.Weapons = set.Len()
	return set, rep
}

// weaponName extracts the record key for a weapon block. Spaces are kept
// and nothing is coerced: "Test Rifle" stays exactly that.
//
// A block without a usable name cannot be keyed, so the caller skips it.
func weaponName(loc *Locator) (string, bool) {
	v, ok := loc.Text(keyWeaponName, textnorm.Options{KeepSpaces: true})
	if !ok {
		return "", false
	}
	name := strings.TrimSpace(v.(string))
	if name == "" {
		return "", false
	}
	return name, true
}

// applyRules runs the ordered rule list once against rec and returns how
// many rules left their field unset.
//
// Every rule executes unconditionally; a rule whose target is absent just
// never populates its field, so weapons in the same run may end up with
// different attribute sets.
func applyRules(loc *Locator, rec *stats.Record, rules []Rule) (missing int) {
	for _, rule := range rules {
		if rule.Fn != nil {
			rule.Fn(loc, rec)
		} else if v, ok := loc.Text(rule.Key, numeric); ok {
			rec.Set(rule.Field, v)
		}
		if _, ok := rec.Get(rule.Field); !ok {
			missing++
		}
	}
	return missing
}

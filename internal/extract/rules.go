package extract

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"weaponstats/internal/stats"
	"weaponstats/internal/textnorm"
)

// Class-name vocabulary of the stat page. Each key addresses one kind of
// sub-element inside a weapon block.
const (
	keyWeaponName   = "weapon_name"
	keyMagSize      = "magsize"
	keyROF          = "rof"
	keyVelocity     = "velocity"
	keyDamageMax    = "dmg_max"
	keyDamageMin    = "dmg_min"
	keyFalloffStart = "falloff_start"
	keyFalloffEnd   = "falloff_end"
	keyReloadEmpty  = "reload_empty"
	keyReloadLeft   = "reload_left"
	keyDeploy       = "deploy"
	keyRecoilUp     = "recoil_up"
	keyRecoilDec    = "recoil_dec"
	keyStatLabel    = "label"
	keyRecoilHoriz  = "recoil_horiz"
	keyFirstShot    = "firstshot"
	keySpreadTable  = "spread_table"
	keyIncDecTable  = "spread_incdec"
)

// Rule describes how one output attribute is extracted from a weapon block.
//
// A Rule is one of two variants:
//   - simple: Fn is nil and the value is the normalized numeric text of the
//     first element matching Key; absent element, absent field.
//   - custom: Fn is non-nil and performs its own lookups against the
//     locator, writing zero or more values into the in-progress record.
type Rule struct {
	Field string
	Key   string
	Fn    func(l *Locator, rec *stats.Record)
}

var numeric = textnorm.Options{AsNumber: true}

// Rules returns the ordered extraction rule list.
//
// Order is a contract: the two first-spread-multiplier rules divide by
// adsStandSpreadInc / hipStandSpreadInc and therefore must come after the
// increase/decrease rules that store those fields.
func Rules() []Rule {
	rules := []Rule{
		{Field: "ammoCapacity", Key: keyMagSize},
		{Field: "rateOfFire", Key: keyROF},
		{Field: "bulletVelocity", Key: keyVelocity},
		{Field: "damageMax", Key: keyDamageMax},
		{Field: "damageMin", Key: keyDamageMin},
		{Field: "damageFalloffStart", Key: keyFalloffStart},
		{Field: "damageFalloffEnd", Key: keyFalloffEnd},
		{Field: "reloadEmpty", Key: keyReloadEmpty},
		{Field: "reloadPartial", Key: keyReloadLeft},
		{Field: "deployTime", Key: keyDeploy},
		{Field: "recoilUp", Key: keyRecoilUp},
		{Field: "recoilDecrease", Key: keyRecoilDec},

		{Field: "pellets", Fn: extractPellets},
		{Field: "recoilLeft", Fn: extractRecoilHoriz},
		{Field: "firstShotRecoilMul", Fn: extractFirstShotRecoil},
	}

	// Spread table: rows 1-3 are aimed fire (stand/crouch/prone), rows 4-6
	// hip fire. Min sits in column 2 and max in column 3 of a group-opening
	// row; the locator compensates for the missing label cell elsewhere.
	spread := []struct {
		prefix string
		row    int
	}{
		{"adsStand", 1}, {"adsCrouch", 2}, {"adsProne", 3},
		{"hipStand", 4}, {"hipCrouch", 5}, {"hipProne", 6},
	}
	for _, s := range spread {
		rules = append(rules,
			spreadCellRule(s.prefix+"SpreadMin", keySpreadTable, s.row, 2, true),
			spreadCellRule(s.prefix+"SpreadMax", keySpreadTable, s.row, 3, true),
		)
	}

	rules = append(rules,
		spreadCellRule("adsStandSpreadInc", keyIncDecTable, 2, 1, false),
		spreadCellRule("hipStandSpreadInc", keyIncDecTable, 2, 2, false),
		spreadCellRule("adsSpreadDec", keyIncDecTable, 3, 1, false),
		spreadCellRule("hipSpreadDec", keyIncDecTable, 3, 2, false),

		firstSpreadMulRule("adsStandFirstSpreadMul", "adsStandSpreadInc", 1),
		firstSpreadMulRule("hipStandFirstSpreadMul", "hipStandSpreadInc", 2),
	)

	return rules
}

// extractPellets stores the pellet count for shotgun-style weapons.
//
// The page has no dedicated class for it; it rides on a generic stat label
// whose text mentions "pellets". Stored as text, not forced numeric, since
// the fragment keeps its label form.
func extractPellets(l *Locator, rec *stats.Record) {
	l.All(keyStatLabel).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !strings.Contains(sel.Text(), "pellets") {
			return true
		}
		rec.Set("pellets", textnorm.Clean(sel.Text(), textnorm.Options{}))
		return false
	})
}

// extractRecoilHoriz splits horizontal recoil into left/right magnitudes.
//
// The page renders the left value in the matched element and the right
// value in its immediate sibling, both signed; output keeps absolute
// values under two separate fields.
func extractRecoilHoriz(l *Locator, rec *stats.Record) {
	if v, ok := l.Text(keyRecoilHoriz, numeric); ok {
		rec.Set("recoilLeft", math.Abs(v.(float64)))
	}
	if v, ok := l.NextSiblingText(keyRecoilHoriz, numeric); ok {
		rec.Set("recoilRight", math.Abs(v.(float64)))
	}
}

// extractFirstShotRecoil reads the first-shot recoil multiplier, which the
// page nests as the second child of its stat block.
func extractFirstShotRecoil(l *Locator, rec *stats.Record) {
	if v, ok := l.ChildText(keyFirstShot, 1, numeric); ok {
		rec.Set("firstShotRecoilMul", v)
	}
}

// spreadCellRule builds a rule reading one positional table cell.
func spreadCellRule(field, tableKey string, row, col int, adjustCols bool) Rule {
	return Rule{
		Field: field,
		Fn: func(l *Locator, rec *stats.Record) {
			if v, ok := l.CellText(tableKey, row, col, adjustCols, numeric); ok {
				rec.Set(field, v)
			}
		},
	}
}

// firstSpreadMulRule derives the first-shot spread multiplier: the "first
// shots in spread" value from row 1 of the increase/decrease table divided
// by the per-shot spread increase stored earlier in the same record.
//
// A zero divisor stores 0 instead of dividing. The same fallback covers a
// missing or non-numeric divisor and a non-finite quotient, so the field is
// always a finite number once the source cell exists.
func firstSpreadMulRule(field, incField string, col int) Rule {
	return Rule{
		Field: field,
		Fn: func(l *Locator, rec *stats.Record) {
			v, ok := l.CellText(keyIncDecTable, 1, col, false, numeric)
			if !ok {
				return
			}
			firstShots := v.(float64)

			inc, haveInc := rec.Number(incField)
			if !haveInc || inc == 0 || math.IsNaN(inc) || math.IsInf(inc, 0) {
				rec.Set(field, float64(0))
				return
			}
			q := firstShots / inc
			if math.IsNaN(q) || math.IsInf(q, 0) {
				rec.Set(field, float64(0))
				return
			}
			rec.Set(field, math.Round(q))
		},
	}
}

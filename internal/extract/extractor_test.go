package extract

import (
	"fmt"
	"math"
	"testing"
)

// weaponBlock renders one synthetic weapon block with the full class
// vocabulary. adsInc is the per-shot aimed spread increase; tests use it to
// drive the first-spread-multiplier derivation.
func weaponBlock(name string, adsInc float64) string {
	return fmt.Sprintf(`
	<tr class="weapon"><td>
		<span class="weapon_name">%s</span>
		<span class="magsize">30</span>
		<span class="rof">600</span>
		<span class="velocity">300 m/s</span>
		<span class="dmg_max">25</span>
		<span class="dmg_min">18</span>
		<span class="falloff_start">8</span>
		<span class="falloff_end">50</span>
		<span class="reload_empty">3.5</span>
		<span class="reload_left">2.9</span>
		<span class="deploy">0.85</span>
		<span class="recoil_up">0.28</span>
		<span class="recoil_dec">18</span>
		<span class="label">muzzle velocity</span>
		<span class="label">12 pellets</span>
		<span class="recoil_horiz">-0.2</span><span>0.3</span>
		<div class="firstshot"><span>first shot</span><span>2.5</span></div>
		<table class="spread_table">
			<tr><th>Mode</th><th>Stance</th><th>Min</th><th>Max</th></tr>
			<tr><td rowspan="3">Aimed</td><td>11</td><td>12</td></tr>
			<tr><td>21</td><td>22</td></tr>
			<tr><td>31</td><td>32</td></tr>
			<tr><td rowspan="3">Hip</td><td>41</td><td>42</td></tr>
			<tr><td>51</td><td>52</td></tr>
			<tr><td>61</td><td>62</td></tr>
		</table>
		<table class="spread_incdec">
			<tr><th></th><th>Aimed</th><th>Hip</th></tr>
			<tr><th>First shots</th><td>5</td><td>6</td></tr>
			<tr><th>Increase</th><td>%g</td><td>0.3</td></tr>
			<tr><th>Decrease</th><td>15</td><td>18</td></tr>
		</table>
	</td></tr>`, name, adsInc)
}

func classTable(blocks ...string) string {
	html := `<table class="sortable">`
	for _, b := range blocks {
		html += b
	}
	return html + `</table>`
}

// TestExtract_RoundTrip runs the full rule list against one synthetic
// weapon and checks every populated field, including the positional spread
// reads and both derivations.
func TestExtract_RoundTrip(t *testing.T) {
	t.Parallel()

	set, rep, err := Extract(classTable(weaponBlock("Test Rifle", 0.1)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rep.Weapons != 1 || rep.SkippedNoName != 0 || rep.Overwritten != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}

	rec, ok := set.Get("Test Rifle")
	if !ok {
		t.Fatalf("no record for Test Rifle; names=%v", set.Names())
	}

	wantNums := map[string]float64{
		"ammoCapacity":       30,
		"rateOfFire":         600,
		"bulletVelocity":     300,
		"damageMax":          25,
		"damageMin":          18,
		"damageFalloffStart": 8,
		"damageFalloffEnd":   50,
		"reloadEmpty":        3.5,
		"reloadPartial":      2.9,
		"deployTime":         0.85,
		"recoilUp":           0.28,
		"recoilDecrease":     18,
		"recoilLeft":         0.2,
		"recoilRight":        0.3,
		"firstShotRecoilMul": 2.5,

		"adsStandSpreadMin": 11, "adsStandSpreadMax": 12,
		"adsCrouchSpreadMin": 21, "adsCrouchSpreadMax": 22,
		"adsProneSpreadMin": 31, "adsProneSpreadMax": 32,
		"hipStandSpreadMin": 41, "hipStandSpreadMax": 42,
		"hipCrouchSpreadMin": 51, "hipCrouchSpreadMax": 52,
		"hipProneSpreadMin": 61, "hipProneSpreadMax": 62,

		"adsStandSpreadInc": 0.1,
		"hipStandSpreadInc": 0.3,
		"adsSpreadDec":      15,
		"hipSpreadDec":      18,

		// 5 / 0.1 and 6 / 0.3, rounded to integers.
		"adsStandFirstSpreadMul": 50,
		"hipStandFirstSpreadMul": 20,
	}
	for field, want := range wantNums {
		got, ok := rec.Number(field)
		if !ok {
			t.Errorf("field %s missing", field)
			continue
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("field %s=%v, want %v", field, got, want)
		}
	}

	if v, ok := rec.Get("pellets"); !ok || v != "12" {
		t.Errorf("pellets=(%v,%v), want (%q,true)", v, ok, "12")
	}
}

// TestExtract_OmitsMissingFields verifies a weapon missing targeted
// sub-elements produces a record without those keys, not null values.
func TestExtract_OmitsMissingFields(t *testing.T) {
	t.Parallel()

	html := classTable(`
	<tr class="weapon"><td>
		<span class="weapon_name">Bare Pistol</span>
		<span class="magsize">15</span>
	</td></tr>`)

	set, rep, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	rec, ok := set.Get("Bare Pistol")
	if !ok {
		t.Fatalf("no record for Bare Pistol")
	}
	if v, _ := rec.Number("ammoCapacity"); v != 15 {
		t.Fatalf("ammoCapacity=%v, want 15", v)
	}
	for _, field := range []string{"rateOfFire", "pellets", "adsStandSpreadMin", "adsStandFirstSpreadMul"} {
		if _, ok := rec.Get(field); ok {
			t.Errorf("field %s present, want omitted", field)
		}
	}
	if rep.MissingFields == 0 {
		t.Fatalf("MissingFields=0, want >0 for a near-empty block")
	}
}

// TestExtract_ZeroDivisorMultiplier verifies the derivation's guard: a
// spread increase of exactly 0 stores 0, never NaN or an error.
func TestExtract_ZeroDivisorMultiplier(t *testing.T) {
	t.Parallel()

	set, _, err := Extract(classTable(weaponBlock("Laser", 0)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	rec, _ := set.Get("Laser")
	got, ok := rec.Number("adsStandFirstSpreadMul")
	if !ok {
		t.Fatalf("adsStandFirstSpreadMul missing")
	}
	if got != 0 {
		t.Fatalf("adsStandFirstSpreadMul=%v, want 0", got)
	}
}

// TestExtract_NonNumericDivisorMultiplier verifies the derivation's guard
// against a spread-increase cell that exists but does not parse as a
// number: both multipliers store 0, never NaN.
func TestExtract_NonNumericDivisorMultiplier(t *testing.T) {
	t.Parallel()

	html := classTable(`
	<tr class="weapon"><td>
		<span class="weapon_name">Relic</span>
		<table class="spread_incdec">
			<tr><th></th><th>Aimed</th><th>Hip</th></tr>
			<tr><th>First shots</th><td>5</td><td>6</td></tr>
			<tr><th>Increase</th><td>n/a</td><td>n/a</td></tr>
			<tr><th>Decrease</th><td>15</td><td>18</td></tr>
		</table>
	</td></tr>`)

	set, _, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	rec, _ := set.Get("Relic")
	for _, field := range []string{"adsStandFirstSpreadMul", "hipStandFirstSpreadMul"} {
		got, ok := rec.Number(field)
		if !ok {
			t.Errorf("field %s missing", field)
			continue
		}
		if got != 0 {
			t.Errorf("field %s=%v, want 0", field, got)
		}
	}
}

// TestExtract_MissingDivisorRowMultiplier verifies an increase/decrease
// table carrying only the first-shots row: the increase fields stay
// omitted, and both multipliers fall back to 0.
func TestExtract_MissingDivisorRowMultiplier(t *testing.T) {
	t.Parallel()

	html := classTable(`
	<tr class="weapon"><td>
		<span class="weapon_name">Stub</span>
		<table class="spread_incdec">
			<tr><th></th><th>Aimed</th><th>Hip</th></tr>
			<tr><th>First shots</th><td>7</td><td>9</td></tr>
		</table>
	</td></tr>`)

	set, _, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	rec, _ := set.Get("Stub")
	if _, ok := rec.Get("adsStandSpreadInc"); ok {
		t.Fatalf("adsStandSpreadInc present, want omitted")
	}
	for _, field := range []string{"adsStandFirstSpreadMul", "hipStandFirstSpreadMul"} {
		got, ok := rec.Number(field)
		if !ok {
			t.Errorf("field %s missing", field)
			continue
		}
		if got != 0 {
			t.Errorf("field %s=%v, want 0", field, got)
		}
	}
}

// TestExtract_SkipsNamelessWeapons verifies blocks without a weapon name
// are dropped and counted rather than keyed under a junk name.
func TestExtract_SkipsNamelessWeapons(t *testing.T) {
	t.Parallel()

	html := classTable(
		`<tr class="weapon"><td><span class="magsize">30</span></td></tr>`,
		weaponBlock("Named", 0.1),
	)

	set, rep, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rep.SkippedNoName != 1 {
		t.Fatalf("SkippedNoName=%d, want 1", rep.SkippedNoName)
	}
	if set.Len() != 1 {
		t.Fatalf("Len=%d, want 1", set.Len())
	}
}

// TestExtract_DuplicateNamesLastWins verifies a later block with the same
// name replaces the earlier record, and the overwrite is reported.
func TestExtract_DuplicateNamesLastWins(t *testing.T) {
	t.Parallel()

	html := classTable(weaponBlock("Twin", 0.1)) + classTable(weaponBlock("Twin", 0.5))

	set, rep, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rep.Overwritten != 1 {
		t.Fatalf("Overwritten=%d, want 1", rep.Overwritten)
	}

	rec, _ := set.Get("Twin")
	if v, _ := rec.Number("adsStandSpreadInc"); v != 0.5 {
		t.Fatalf("adsStandSpreadInc=%v, want the later block's 0.5", v)
	}
}

// TestExtract_IgnoresNonSortableTables verifies only flagged class
// containers contribute weapons.
func TestExtract_IgnoresNonSortableTables(t *testing.T) {
	t.Parallel()

	html := `<table>` + weaponBlock("Ghost", 0.1) + `</table>` + classTable(weaponBlock("Real", 0.1))

	set, _, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if _, ok := set.Get("Ghost"); ok {
		t.Fatalf("weapon outside a sortable container was extracted")
	}
	if _, ok := set.Get("Real"); !ok {
		t.Fatalf("weapon inside a sortable container was not extracted")
	}
}

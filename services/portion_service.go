package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/clarktao-dev/nutrition-linebot/models"
)

// PortionResult is the outcome of normalizing one reference-table match
// against the quantity the user actually described.
type PortionResult struct {
	Nutrition models.Nutrition
	Note      string // human-readable portion annotation for the reply
	Assumed   bool   // true when no quantity marker was found
}

// Unit volumes in mL used to rescale drink rows calibrated to 330 mL.
var drinkUnitVolumes = map[string]float64{
	"cup": 250, "cups": 250, "杯": 250,
	"can": 330, "cans": 330, "罐": 330,
	"bottle": 600, "bottles": 600, "瓶": 600,
}

// Units that count whole servings for solid food.
var servingUnits = map[string]bool{
	"份": true, "serving": true, "servings": true,
	"碗": true, "bowl": true, "bowls": true,
	"盤": true, "plate": true, "plates": true,
	"片": true, "piece": true, "pieces": true,
	"包": true, "packet": true, "packets": true,
	"根": true, "strand": true, "strands": true,
	"個": true, "顆": true, "條": true,
}

var quantityPattern = regexp.MustCompile(
	`(?i)(\d+(?:\.\d+)?|[一二兩三四五六七八九十半])\s*` +
		`(毫升|cc|ml|杯|罐|瓶|碗|盤|片|份|包|根|個|顆|條|cups?|cans?|bottles?|bowls?|plates?|pieces?|servings?|packets?|strands?)`)

var cjkNumerals = map[string]float64{
	"一": 1, "二": 2, "兩": 2, "三": 3, "四": 4, "五": 5,
	"六": 6, "七": 7, "八": 8, "九": 9, "十": 10, "半": 0.5,
}

func parseQuantityValue(s string) float64 {
	if v, ok := cjkNumerals[s]; ok {
		return v
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 1
	}
	return v
}

// EstimatePortion decides the effective serving for one matched entry.
// Without a quantity marker the food-class default applies: 330 mL for
// drinks, one serving for solids. Explicit volumes rescale every nutrient
// linearly; plain water is always zero.
func EstimatePortion(text string, entry ReferenceEntry) PortionResult {
	if entry.IsDrink && IsPlainWater(text) {
		return PortionResult{
			Nutrition: models.Nutrition{},
			Note:      entry.Name + "（無熱量）",
		}
	}

	count, unit, found := findQuantity(text)
	if !found {
		return defaultServing(entry)
	}
	return scaledServing(entry, count, unit)
}

func defaultServing(entry ReferenceEntry) PortionResult {
	return PortionResult{
		Nutrition: entry.Nutrition,
		Note:      fmt.Sprintf("%s %s（預設份量）", entry.Name, entry.ServingLabel),
		Assumed:   true,
	}
}

func scaledServing(entry ReferenceEntry, count float64, unit string) PortionResult {
	if entry.IsDrink {
		volume := drinkVolume(count, unit)
		if volume <= 0 {
			return defaultServing(entry)
		}
		factor := volume / entry.DefaultVolumeML
		return PortionResult{
			Nutrition: entry.Nutrition.Scale(factor),
			Note:      fmt.Sprintf("%s 約 %.0f mL", entry.Name, volume),
		}
	}

	// Solid food: serving-style units multiply the per-serving row.
	if servingUnits[strings.ToLower(unit)] {
		return PortionResult{
			Nutrition: entry.Nutrition.Scale(count),
			Note:      fmt.Sprintf("%s x%.1g", entry.Name, count),
		}
	}

	// A volume unit on solid food is odd; fall back to the default serving.
	return defaultServing(entry)
}

func findQuantity(text string) (count float64, unit string, found bool) {
	m := quantityPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}
	return parseQuantityValue(m[1]), strings.ToLower(m[2]), true
}

type quantityMarker struct {
	count float64
	unit  string
	start int
	end   int
}

func findQuantityMarkers(text string) []quantityMarker {
	var out []quantityMarker
	for _, loc := range quantityPattern.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, quantityMarker{
			count: parseQuantityValue(text[loc[2]:loc[3]]),
			unit:  strings.ToLower(text[loc[4]:loc[5]]),
			start: loc[0],
			end:   loc[1],
		})
	}
	return out
}

// A quantity marker binds to a keyword at most this many bytes away.
const quantityBindWindow = 12

// estimatePortions resolves one portion per matched entry. Each quantity
// marker is attributed to the entry whose keyword sits next to it, with
// markers immediately before a keyword winning over trailing ones, so
// 白飯加三顆雞蛋 scales the eggs and leaves the rice at its default bowl.
// Entries with no adjacent marker get the food-class default.
func estimatePortions(text string, matches []referenceMatch) []PortionResult {
	markers := findQuantityMarkers(strings.ToLower(text))

	assigned := make([]int, len(matches))
	for i := range assigned {
		assigned[i] = -1
	}
	used := make([]bool, len(markers))

	bind := func(gap func(quantityMarker, referenceMatch) int) {
		for qi, q := range markers {
			if used[qi] {
				continue
			}
			best, bestGap := -1, quantityBindWindow+1
			for mi, m := range matches {
				if assigned[mi] != -1 {
					continue
				}
				if g := gap(q, m); g >= 0 && g < bestGap {
					best, bestGap = mi, g
				}
			}
			if best != -1 {
				assigned[best] = qi
				used[qi] = true
			}
		}
	}
	bind(func(q quantityMarker, m referenceMatch) int { return m.keyStart - q.end })
	bind(func(q quantityMarker, m referenceMatch) int { return q.start - m.keyEnd })

	out := make([]PortionResult, 0, len(matches))
	for mi, m := range matches {
		if m.entry.IsDrink && m.entry.Nutrition.IsZero() {
			out = append(out, PortionResult{Note: m.entry.Name + "（無熱量）"})
			continue
		}
		if assigned[mi] == -1 {
			out = append(out, defaultServing(m.entry))
			continue
		}
		q := markers[assigned[mi]]
		out = append(out, scaledServing(m.entry, q.count, q.unit))
	}
	return out
}

func drinkVolume(count float64, unit string) float64 {
	switch unit {
	case "ml", "cc", "毫升":
		// The numeral already is the volume, e.g. "250 ml".
		return count
	}
	if per, ok := drinkUnitVolumes[unit]; ok {
		return count * per
	}
	// Serving-ish unit on a drink ("一碗湯"): treat as one default serving
	// per unit counted.
	if servingUnits[unit] {
		return count * defaultDrinkVolumeML
	}
	return 0
}

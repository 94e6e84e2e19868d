package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/clarktao-dev/nutrition-linebot/models"
)

// ReferenceEntry is one row of the static food/drink lookup table. Nutrition
// values are calibrated to the default serving: 330 mL for drinks, one
// serving for solid food.
type ReferenceEntry struct {
	Name            string   // canonical zh-TW label used in replies
	Keywords        []string // lowercase match aliases, zh + en
	IsDrink         bool
	DefaultVolumeML float64 // drinks only
	ServingLabel    string
	Nutrition       models.Nutrition
}

const defaultDrinkVolumeML = 330

// Every non-water row keeps all six fields above zero so a reference match
// survives the floor stage untouched.
var referenceTable = []ReferenceEntry{
	// Drinks, per 330 mL.
	{
		Name: "白開水", Keywords: []string{"白開水", "開水", "喝水", "water"},
		IsDrink: true, DefaultVolumeML: defaultDrinkVolumeML, ServingLabel: "330 mL",
		Nutrition: models.Nutrition{},
	},
	{
		Name: "豆漿", Keywords: []string{"豆漿", "豆奶", "soy milk", "soymilk"},
		IsDrink: true, DefaultVolumeML: defaultDrinkVolumeML, ServingLabel: "330 mL",
		Nutrition: models.Nutrition{Calories: 148, Carbs: 11.9, Protein: 11.2, Fat: 6.3, Fiber: 2.1, Sugar: 7.6},
	},
	{
		Name: "黑咖啡", Keywords: []string{"黑咖啡", "咖啡", "coffee", "americano", "美式"},
		IsDrink: true, DefaultVolumeML: defaultDrinkVolumeML, ServingLabel: "330 mL",
		Nutrition: models.Nutrition{Calories: 7, Carbs: 1.1, Protein: 0.4, Fat: 0.1, Fiber: 0.1, Sugar: 0.2},
	},
	{
		Name: "牛奶", Keywords: []string{"牛奶", "鮮奶", "milk"},
		IsDrink: true, DefaultVolumeML: defaultDrinkVolumeML, ServingLabel: "330 mL",
		Nutrition: models.Nutrition{Calories: 208, Carbs: 15.8, Protein: 10.6, Fat: 11.9, Fiber: 0.1, Sugar: 15.8},
	},
	{
		Name: "奶茶", Keywords: []string{"奶茶", "milk tea"},
		IsDrink: true, DefaultVolumeML: defaultDrinkVolumeML, ServingLabel: "330 mL",
		Nutrition: models.Nutrition{Calories: 215, Carbs: 33, Protein: 2.6, Fat: 8.3, Fiber: 0.3, Sugar: 29},
	},
	{
		Name: "珍珠奶茶", Keywords: []string{"珍珠奶茶", "珍奶", "bubble tea", "boba"},
		IsDrink: true, DefaultVolumeML: defaultDrinkVolumeML, ServingLabel: "330 mL",
		Nutrition: models.Nutrition{Calories: 325, Carbs: 54, Protein: 2.8, Fat: 10.5, Fiber: 0.4, Sugar: 38},
	},
	{
		Name: "果汁", Keywords: []string{"果汁", "柳橙汁", "juice", "orange juice"},
		IsDrink: true, DefaultVolumeML: defaultDrinkVolumeML, ServingLabel: "330 mL",
		Nutrition: models.Nutrition{Calories: 155, Carbs: 36, Protein: 2.3, Fat: 0.7, Fiber: 0.7, Sugar: 28},
	},
	{
		Name: "可樂", Keywords: []string{"可樂", "汽水", "cola", "soda"},
		IsDrink: true, DefaultVolumeML: defaultDrinkVolumeML, ServingLabel: "330 mL",
		Nutrition: models.Nutrition{Calories: 139, Carbs: 35, Protein: 0.3, Fat: 0.1, Fiber: 0.1, Sugar: 35},
	},
	{
		Name: "綠茶", Keywords: []string{"綠茶", "無糖茶", "green tea"},
		IsDrink: true, DefaultVolumeML: defaultDrinkVolumeML, ServingLabel: "330 mL",
		Nutrition: models.Nutrition{Calories: 3, Carbs: 0.7, Protein: 0.2, Fat: 0.1, Fiber: 0.1, Sugar: 0.3},
	},

	// Solid food, per serving.
	{
		Name: "白飯", Keywords: []string{"白飯", "米飯", "飯", "rice"},
		ServingLabel: "1 碗",
		Nutrition: models.Nutrition{Calories: 280, Carbs: 62, Protein: 5.6, Fat: 0.6, Fiber: 1.2, Sugar: 0.3},
	},
	{
		Name: "炒飯", Keywords: []string{"炒飯", "fried rice"},
		ServingLabel: "1 盤",
		Nutrition: models.Nutrition{Calories: 520, Carbs: 68, Protein: 14, Fat: 20, Fiber: 2.3, Sugar: 2.5},
	},
	{
		Name: "滷肉飯", Keywords: []string{"滷肉飯", "魯肉飯", "braised pork rice"},
		ServingLabel: "1 碗",
		Nutrition: models.Nutrition{Calories: 510, Carbs: 62, Protein: 16, Fat: 21, Fiber: 1.6, Sugar: 3.2},
	},
	{
		Name: "牛肉麵", Keywords: []string{"牛肉麵", "beef noodle"},
		ServingLabel: "1 碗",
		Nutrition: models.Nutrition{Calories: 560, Carbs: 65, Protein: 30, Fat: 18, Fiber: 3.1, Sugar: 4.5},
	},
	{
		Name: "麵", Keywords: []string{"麵條", "拉麵", "義大利麵", "noodle", "noodles", "pasta", "ramen"},
		ServingLabel: "1 碗",
		Nutrition: models.Nutrition{Calories: 380, Carbs: 58, Protein: 12, Fat: 9, Fiber: 2.8, Sugar: 2.1},
	},
	{
		Name: "麵包", Keywords: []string{"麵包", "吐司", "bread", "toast"},
		ServingLabel: "1 份",
		Nutrition: models.Nutrition{Calories: 180, Carbs: 32, Protein: 5.5, Fat: 3.2, Fiber: 1.5, Sugar: 4.2},
	},
	{
		Name: "雞蛋", Keywords: []string{"雞蛋", "荷包蛋", "蛋", "egg", "eggs"},
		ServingLabel: "1 顆",
		Nutrition: models.Nutrition{Calories: 72, Carbs: 0.4, Protein: 6.3, Fat: 4.8, Fiber: 0.1, Sugar: 0.2},
	},
	{
		Name: "雞肉", Keywords: []string{"雞肉", "雞胸肉", "chicken"},
		ServingLabel: "1 份",
		Nutrition: models.Nutrition{Calories: 165, Carbs: 0.5, Protein: 31, Fat: 3.6, Fiber: 0.1, Sugar: 0.1},
	},
	{
		Name: "雞排", Keywords: []string{"雞排", "炸雞", "fried chicken"},
		ServingLabel: "1 份",
		Nutrition: models.Nutrition{Calories: 585, Carbs: 32, Protein: 38, Fat: 34, Fiber: 1.1, Sugar: 1.5},
	},
	{
		Name: "豬肉", Keywords: []string{"豬肉", "豬排", "pork"},
		ServingLabel: "1 份",
		Nutrition: models.Nutrition{Calories: 250, Carbs: 0.6, Protein: 26, Fat: 16, Fiber: 0.1, Sugar: 0.2},
	},
	{
		Name: "牛肉", Keywords: []string{"牛肉", "牛排", "beef", "steak"},
		ServingLabel: "1 份",
		Nutrition: models.Nutrition{Calories: 271, Carbs: 0.5, Protein: 26, Fat: 18, Fiber: 0.1, Sugar: 0.2},
	},
	{
		Name: "魚", Keywords: []string{"魚肉", "鮭魚", "鯖魚", "fish", "salmon"},
		ServingLabel: "1 份",
		Nutrition: models.Nutrition{Calories: 206, Carbs: 0.4, Protein: 22, Fat: 12, Fiber: 0.1, Sugar: 0.1},
	},
	{
		Name: "青菜", Keywords: []string{"青菜", "燙青菜", "蔬菜", "沙拉", "vegetable", "vegetables", "salad"},
		ServingLabel: "1 份",
		Nutrition: models.Nutrition{Calories: 45, Carbs: 7.5, Protein: 2.6, Fat: 1.2, Fiber: 3.4, Sugar: 2.3},
	},
	{
		Name: "水果", Keywords: []string{"水果", "蘋果", "香蕉", "芭樂", "fruit", "apple", "banana", "guava"},
		ServingLabel: "1 份",
		Nutrition: models.Nutrition{Calories: 95, Carbs: 24, Protein: 0.8, Fat: 0.3, Fiber: 3.6, Sugar: 18},
	},
	{
		Name: "三明治", Keywords: []string{"三明治", "sandwich"},
		ServingLabel: "1 份",
		Nutrition: models.Nutrition{Calories: 320, Carbs: 34, Protein: 14, Fat: 14, Fiber: 2.2, Sugar: 4.8},
	},
	{
		Name: "漢堡", Keywords: []string{"漢堡", "burger", "hamburger"},
		ServingLabel: "1 份",
		Nutrition: models.Nutrition{Calories: 480, Carbs: 42, Protein: 23, Fat: 25, Fiber: 2.1, Sugar: 7.5},
	},
	{
		Name: "薯條", Keywords: []string{"薯條", "fries", "french fries"},
		ServingLabel: "1 份",
		Nutrition: models.Nutrition{Calories: 340, Carbs: 44, Protein: 4.1, Fat: 16, Fiber: 3.9, Sugar: 0.5},
	},
	{
		Name: "披薩", Keywords: []string{"披薩", "pizza"},
		ServingLabel: "1 片",
		Nutrition: models.Nutrition{Calories: 285, Carbs: 36, Protein: 12, Fat: 10, Fiber: 2.5, Sugar: 3.8},
	},
	{
		Name: "蛋糕", Keywords: []string{"蛋糕", "cake"},
		ServingLabel: "1 片",
		Nutrition: models.Nutrition{Calories: 350, Carbs: 48, Protein: 4.5, Fat: 16, Fiber: 0.8, Sugar: 32},
	},
	{
		Name: "餅乾", Keywords: []string{"餅乾", "cookie", "cookies", "biscuit"},
		ServingLabel: "1 包",
		Nutrition: models.Nutrition{Calories: 240, Carbs: 32, Protein: 3.2, Fat: 11, Fiber: 1.1, Sugar: 14},
	},
	{
		Name: "優格", Keywords: []string{"優格", "優酪乳", "yogurt", "yoghurt"},
		ServingLabel: "1 份",
		Nutrition: models.Nutrition{Calories: 150, Carbs: 17, Protein: 8.5, Fat: 5.2, Fiber: 0.2, Sugar: 16},
	},
	{
		Name: "便當", Keywords: []string{"便當", "bento"},
		ServingLabel: "1 個",
		Nutrition: models.Nutrition{Calories: 750, Carbs: 85, Protein: 32, Fat: 30, Fiber: 4.2, Sugar: 5.5},
	},
}

// Boundary patterns for ASCII keywords, compiled once. Matching runs on
// every inbound message and again inside the commit transaction.
var asciiKeywordPatterns = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp)
	for _, entry := range referenceTable {
		for _, kw := range entry.Keywords {
			if kw != "" && kw[0] < 0x80 {
				out[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
			}
		}
	}
	return out
}()

// matchKeyword reports whether kw occurs in lowercased text. ASCII keywords
// need word boundaries ("tea" must not match "steak"); CJK keywords use
// plain substring matching.
func matchKeyword(text, kw string) bool {
	return keywordIndex(text, kw) >= 0
}

// keywordIndex returns the byte offset of the first occurrence of kw in
// lowercased text, or -1.
func keywordIndex(text, kw string) int {
	if kw == "" {
		return -1
	}
	if kw[0] < 0x80 {
		pat, ok := asciiKeywordPatterns[kw]
		if !ok {
			pat = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
		}
		if loc := pat.FindStringIndex(text); loc != nil {
			return loc[0]
		}
		return -1
	}
	return strings.Index(text, kw)
}

// referenceMatch pairs a matched entry with the byte span of the keyword
// that matched it, so quantity markers can be attributed to the right food.
type referenceMatch struct {
	entry    ReferenceEntry
	tableIdx int
	keyStart int
	keyEnd   int
}

// matchReferenceDetails scans free text against the table and returns every
// matched entry, at most once each, in table order. Longer keywords are
// tried first and consume their text, so "soy milk" does not additionally
// match the plain milk row, nor "牛肉麵" the 牛肉 and 麵 rows.
func matchReferenceDetails(text string) []referenceMatch {
	lower := strings.ToLower(text)

	type candidate struct {
		idx int
		kw  string
	}
	var candidates []candidate
	for i, entry := range referenceTable {
		for _, kw := range entry.Keywords {
			candidates = append(candidates, candidate{idx: i, kw: kw})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return len(candidates[a].kw) > len(candidates[b].kw)
	})

	seen := make(map[int]bool)
	var matched []referenceMatch
	for _, c := range candidates {
		if seen[c.idx] {
			continue
		}
		start := keywordIndex(lower, c.kw)
		if start < 0 {
			continue
		}
		seen[c.idx] = true
		end := start + len(c.kw)
		matched = append(matched, referenceMatch{
			entry:    referenceTable[c.idx],
			tableIdx: c.idx,
			keyStart: start,
			keyEnd:   end,
		})
		// Consume the matched span so shorter aliases cannot re-match it.
		lower = lower[:start] + strings.Repeat(" ", len(c.kw)) + lower[end:]
	}
	sort.Slice(matched, func(a, b int) bool {
		return matched[a].tableIdx < matched[b].tableIdx
	})
	return matched
}

// MatchReferenceEntries is matchReferenceDetails without the keyword spans.
func MatchReferenceEntries(text string) []ReferenceEntry {
	matches := matchReferenceDetails(text)
	out := make([]ReferenceEntry, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.entry)
	}
	return out
}

// LookupReferenceEntry returns the first entry matching the text, if any.
func LookupReferenceEntry(text string) (ReferenceEntry, bool) {
	matches := MatchReferenceEntries(text)
	if len(matches) == 0 {
		return ReferenceEntry{}, false
	}
	return matches[0], true
}

// IsPlainWater reports whether the text describes plain water rather than a
// flavored drink. Plain water always counts as zero nutrients.
func IsPlainWater(text string) bool {
	lower := strings.ToLower(text)
	water := false
	for _, kw := range []string{"白開水", "開水", "喝水", "water"} {
		if matchKeyword(lower, kw) {
			water = true
			break
		}
	}
	if !water {
		return false
	}
	for _, kw := range []string{"果汁", "juice", "糖", "汽水", "soda"} {
		if matchKeyword(lower, kw) {
			return false
		}
	}
	return true
}

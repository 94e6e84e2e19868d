package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/clarktao-dev/nutrition-linebot/models"
	"github.com/clarktao-dev/nutrition-linebot/utils"
)

// ExtractionInput carries everything the fallback chain may consume: the
// user's raw meal description and, when the generator answered in time, its
// analysis prose.
type ExtractionInput struct {
	Description string
	Analysis    string
}

// ExtractionResult is the pipeline output. Nutrition is always fully
// populated and positive after Extract returns.
type ExtractionResult struct {
	Nutrition models.Nutrition
	Source    string   // "analysis" | "keyword" | "heuristic"
	Notes     []string // portion annotations for the reply
}

type extractionStage struct {
	name string
	run  func(in ExtractionInput) (ExtractionResult, bool)
}

// ExtractionService turns free-text meal descriptions into macro estimates.
// Pure over its inputs plus the static reference table.
type ExtractionService struct {
	stages []extractionStage
}

func NewExtractionService() *ExtractionService {
	s := &ExtractionService{}
	// Ordered fallback: generator prose first, then the reference table,
	// then a complexity guess that always succeeds.
	s.stages = []extractionStage{
		{name: "analysis", run: s.fromAnalysis},
		{name: "keyword", run: s.fromKeywords},
		{name: "heuristic", run: s.fromComplexity},
	}
	return s
}

// Extract runs the chain until one stage yields a usable estimate, then
// substitutes floor values for any nutrient still at zero. Aside from plain
// water it never returns an empty or zero result.
func (s *ExtractionService) Extract(description, analysis string) ExtractionResult {
	in := ExtractionInput{Description: description, Analysis: analysis}
	for _, stage := range s.stages {
		res, ok := stage.run(in)
		if !ok {
			continue
		}
		res.Source = stage.name
		// Plain water is the one legitimate zero estimate.
		if !IsPlainWater(description) {
			res.Nutrition = res.Nutrition.ApplyFloors()
		}
		return res
	}
	// Unreachable: the heuristic stage is total. Kept as a hard backstop.
	return ExtractionResult{
		Nutrition: models.Nutrition{}.ApplyFloors(),
		Source:    "floor",
	}
}

// ---- Stage 1-3: regex extraction from generator prose ----

// Per nutrient, strict labeled pattern first, then a permissive
// "label ... number" pattern. First numeric hit wins.
var nutrientPatterns = map[string][]*regexp.Regexp{
	"calories": {
		regexp.MustCompile(`(?i)(?:熱量|卡路里|calories?)\s*[:：]\s*(?:約|大約|approximately|about)?\s*(\d+(?:\.\d+)?)\s*(?:大卡|千卡|卡|kcal)?`),
		regexp.MustCompile(`(?i)(?:熱量|卡路里|calories?)[^0-9]{0,12}(\d+(?:\.\d+)?)`),
	},
	"carbs": {
		regexp.MustCompile(`(?i)(?:碳水化合物|碳水|carbohydrates?|carbs?)\s*[:：]\s*(?:約)?\s*(\d+(?:\.\d+)?)\s*(?:公克|克|g)?`),
		regexp.MustCompile(`(?i)(?:碳水化合物|碳水|carbs?)[^0-9]{0,12}(\d+(?:\.\d+)?)`),
	},
	"protein": {
		regexp.MustCompile(`(?i)(?:蛋白質|protein)\s*[:：]\s*(?:約)?\s*(\d+(?:\.\d+)?)\s*(?:公克|克|g)?`),
		regexp.MustCompile(`(?i)(?:蛋白質|protein)[^0-9]{0,12}(\d+(?:\.\d+)?)`),
	},
	"fat": {
		regexp.MustCompile(`(?i)(?:脂肪|fat)\s*[:：]\s*(?:約)?\s*(\d+(?:\.\d+)?)\s*(?:公克|克|g)?`),
		regexp.MustCompile(`(?i)(?:脂肪|fat)[^0-9]{0,12}(\d+(?:\.\d+)?)`),
	},
	"fiber": {
		regexp.MustCompile(`(?i)(?:膳食纖維|纖維|fib(?:er|re))\s*[:：]\s*(?:約)?\s*(\d+(?:\.\d+)?)\s*(?:公克|克|g)?`),
		regexp.MustCompile(`(?i)(?:膳食纖維|纖維|fib(?:er|re))[^0-9]{0,12}(\d+(?:\.\d+)?)`),
	},
	"sugar": {
		regexp.MustCompile(`(?i)(?:糖分|糖|sugars?)\s*[:：]\s*(?:約)?\s*(\d+(?:\.\d+)?)\s*(?:公克|克|g)?`),
		regexp.MustCompile(`(?i)(?:糖分|糖|sugars?)[^0-9]{0,12}(\d+(?:\.\d+)?)`),
	},
}

// Maximally permissive: any bare number next to a big-calorie unit.
var forcedCaloriePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:大卡|千卡|kcal)`)

func (s *ExtractionService) fromAnalysis(in ExtractionInput) (ExtractionResult, bool) {
	if strings.TrimSpace(in.Analysis) == "" {
		return ExtractionResult{}, false
	}

	n, parsed := parseNutrients(in.Analysis)
	if parsed && !n.IsZero() {
		corrected, plausible := correctPlausibility(in.Description, n)
		if !plausible {
			// Implausible figure for what is evidently a single item:
			// abandon the prose entirely and let the table answer.
			utils.Log.Debugw("discarding implausible analysis figures",
				"calories", n.Calories, "description", in.Description)
			return ExtractionResult{}, false
		}
		return ExtractionResult{Nutrition: corrected, Notes: []string{"依營養分析估算"}}, true
	}

	// Forced retry: the labeled patterns found nothing usable, try a bare
	// calorie figure anywhere in the prose.
	if m := forcedCaloriePattern.FindStringSubmatch(in.Analysis); m != nil {
		cal, err := strconv.ParseFloat(m[1], 64)
		if err == nil && cal > 0 {
			forced := macrosFromCalories(cal)
			corrected, plausible := correctPlausibility(in.Description, forced)
			if plausible {
				return ExtractionResult{Nutrition: corrected, Notes: []string{"依營養分析粗估"}}, true
			}
		}
	}
	return ExtractionResult{}, false
}

func parseNutrients(analysis string) (models.Nutrition, bool) {
	var n models.Nutrition
	matched := false
	set := func(dst *float64, key string) {
		for _, pat := range nutrientPatterns[key] {
			if m := pat.FindStringSubmatch(analysis); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 0 {
					*dst = v
					matched = true
					return
				}
			}
		}
	}
	set(&n.Calories, "calories")
	set(&n.Carbs, "carbs")
	set(&n.Protein, "protein")
	set(&n.Fat, "fat")
	set(&n.Fiber, "fiber")
	set(&n.Sugar, "sugar")
	return n, matched
}

// correctPlausibility sanity-checks prose-derived figures against the
// reference table. A matched drink whose extracted calories blow past the
// default-serving ceiling is replaced by the table row; a huge calorie
// figure on an evidently simple description rejects the prose outright.
func correctPlausibility(description string, n models.Nutrition) (models.Nutrition, bool) {
	matches := MatchReferenceEntries(description)

	if len(matches) == 1 && matches[0].IsDrink {
		ceiling := matches[0].Nutrition.Calories*3 + 50
		if n.Calories > ceiling {
			return EstimatePortion(description, matches[0]).Nutrition, true
		}
	}

	if n.Calories > 1000 && looksLikeSingleComponent(description, len(matches)) {
		return models.Nutrition{}, false
	}
	return n, true
}

func looksLikeSingleComponent(description string, referenceMatches int) bool {
	if referenceMatches > 1 {
		return false
	}
	return countRunes(description) <= 12
}

// ---- Stage 4: reference-table lookup ----

func (s *ExtractionService) fromKeywords(in ExtractionInput) (ExtractionResult, bool) {
	matches := matchReferenceDetails(in.Description)
	if len(matches) == 0 {
		return ExtractionResult{}, false
	}
	var total models.Nutrition
	notes := make([]string, 0, len(matches))
	for _, portion := range estimatePortions(in.Description, matches) {
		total = total.Add(portion.Nutrition)
		notes = append(notes, portion.Note)
	}
	return ExtractionResult{Nutrition: total, Notes: notes}, true
}

// ---- Stage 5: complexity heuristic ----

const (
	heuristicMinCalories = 100
	heuristicMaxCalories = 800
)

var clauseSeparators = []string{"，", "、", ",", "。", ";", "；", "和", "跟", "加", " and ", " with ", "+"}

func (s *ExtractionService) fromComplexity(in ExtractionInput) (ExtractionResult, bool) {
	runes := countRunes(in.Description)
	clauses := 0
	for _, sep := range clauseSeparators {
		clauses += strings.Count(in.Description, sep)
	}

	cal := 150 + float64(runes)*10 + float64(clauses)*90
	if cal < heuristicMinCalories {
		cal = heuristicMinCalories
	}
	if cal > heuristicMaxCalories {
		cal = heuristicMaxCalories
	}

	n := macrosFromCalories(cal)
	n.Fiber = clampFloat(1+float64(runes)/10, 0.5, 8)
	n.Sugar = clampFloat(2+float64(runes)/8, 0.5, 20)
	return ExtractionResult{Nutrition: n, Notes: []string{"依描述內容粗估"}}, true
}

// macrosFromCalories derives carbs/protein/fat from a calorie figure using
// the fixed 50/20/30 caloric split (4/4/9 kcal per gram).
func macrosFromCalories(cal float64) models.Nutrition {
	return models.Nutrition{
		Calories: cal,
		Carbs:    cal * 0.5 / 4,
		Protein:  cal * 0.2 / 4,
		Fat:      cal * 0.3 / 9,
	}
}

func countRunes(s string) int {
	count := 0
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		count++
	}
	return count
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

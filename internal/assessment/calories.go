package assessment

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTimeframeWeeks = 12
	MinDailyCalories      = 1200
	MaxWeeklyWeightLoss   = 2.0
	caloriesPerUnitWeight = 3500.0
)

var activityMultipliers = map[string]float64{
	"sedentary":  1.2,
	"light":      1.375,
	"moderate":   1.55,
	"heavy":      1.725,
	"very_heavy": 1.9,
}

type CaloriePlanInput struct {
	Gender         Gender  `json:"gender"`
	Age            float64 `json:"age"`
	Height         float64 `json:"height"`        // cm
	CurrentWeight  float64 `json:"currentWeight"` // kg
	TargetWeight   float64 `json:"targetWeight"`  // kg
	ActivityLevel  string  `json:"activityLevel"`
	BodyFat        float64 `json:"bodyFat"` // percent, optional
	TimeframeWeeks float64 `json:"timeframe"`
}

type TimelinePoint struct {
	Week   int       `json:"week"`
	Weight float64   `json:"weight"`
	Date   time.Time `json:"date"`
}

type Macro struct {
	Grams      int `json:"grams"`
	Calories   int `json:"calories"`
	Percentage int `json:"percentage"`
}

type MacroBreakdown struct {
	Protein Macro `json:"protein"`
	Carbs   Macro `json:"carbs"`
	Fats    Macro `json:"fats"`
}

type CaloriePlan struct {
	Input               CaloriePlanInput `json:"input"`
	BMRFormula          string           `json:"bmrFormula"`
	BMR                 int              `json:"bmr"`
	TDEE                int              `json:"tdee"`
	ActivityMultiplier  float64          `json:"activityMultiplier"`
	WeightToLose        float64          `json:"weightToLose"`
	WeeksToGoal         float64          `json:"weeksToGoal"`
	WeeklyWeightLoss    float64          `json:"weeklyWeightLoss"`
	DailyCalorieDeficit int              `json:"dailyCalorieDeficit"`
	TargetDailyCalories int              `json:"targetDailyCalories"`
	Timeline            []TimelinePoint  `json:"timeline"`
	Macros              MacroBreakdown   `json:"macroBreakdown"`
	Recommendations     []string         `json:"recommendations"`
}

// MifflinStJeor returns the basal metabolic rate in kcal/day.
func MifflinStJeor(gender Gender, weightKg, heightCm, age float64) float64 {
	bmr := 10*weightKg + 6.25*heightCm - 5*age
	if gender == GenderFemale {
		return bmr - 161
	}
	return bmr + 5
}

// KatchMcArdle returns the basal metabolic rate in kcal/day from lean body mass.
func KatchMcArdle(weightKg, bodyFatPercent float64) float64 {
	leanBodyMass := weightKg * (1 - bodyFatPercent/100)
	return 370 + 21.6*leanBodyMass
}

// ActivityMultiplier accepts either the numeric factor or the level name.
// Unknown levels fall back to sedentary.
func ActivityMultiplier(level string) float64 {
	level = strings.ToLower(strings.TrimSpace(level))
	if m, ok := activityMultipliers[level]; ok {
		return m
	}
	if f, err := strconv.ParseFloat(level, 64); err == nil {
		for _, m := range activityMultipliers {
			if m == f {
				return m
			}
		}
	}
	return activityMultipliers["sedentary"]
}

// MacroSplit splits daily calories 30% protein, 40% carbs, 30% fats.
func MacroSplit(calories float64) MacroBreakdown {
	protein := calories * 0.30
	carbs := calories * 0.40
	fats := calories * 0.30
	return MacroBreakdown{
		Protein: Macro{Grams: int(math.Round(protein / 4)), Calories: int(math.Round(protein)), Percentage: 30},
		Carbs:   Macro{Grams: int(math.Round(carbs / 4)), Calories: int(math.Round(carbs)), Percentage: 40},
		Fats:    Macro{Grams: int(math.Round(fats / 9)), Calories: int(math.Round(fats)), Percentage: 30},
	}
}

// WeightTimeline lists the projected weight per week until the target is reached.
func WeightTimeline(start time.Time, current, target, weeklyLoss float64) []TimelinePoint {
	if weeklyLoss <= 0 || current <= target {
		return []TimelinePoint{{Week: 0, Weight: round(current, 1), Date: start}}
	}
	totalWeeks := int(math.Ceil((current - target) / weeklyLoss))
	timeline := make([]TimelinePoint, 0, totalWeeks+1)
	for week := 0; week <= totalWeeks; week++ {
		weight := math.Max(target, current-float64(week)*weeklyLoss)
		timeline = append(timeline, TimelinePoint{
			Week:   week,
			Weight: round(weight, 1),
			Date:   start.AddDate(0, 0, week*7),
		})
	}
	return timeline
}

func PlanCalories(in CaloriePlanInput, now time.Time) (*CaloriePlan, error) {
	if err := requirePositive("currentWeight", in.CurrentWeight); err != nil {
		return nil, err
	}
	if err := requirePositive("targetWeight", in.TargetWeight); err != nil {
		return nil, err
	}
	if err := requireNonNegative("bodyFat", in.BodyFat); err != nil {
		return nil, err
	}
	if in.BodyFat >= 100 {
		return nil, invalidInput("bodyFat", "must be below 100")
	}
	if in.CurrentWeight <= in.TargetWeight {
		return nil, ErrTargetNotBelowCurrent
	}
	if in.TimeframeWeeks == 0 {
		in.TimeframeWeeks = DefaultTimeframeWeeks
	}
	if err := requirePositive("timeframe", in.TimeframeWeeks); err != nil {
		return nil, err
	}

	plan := &CaloriePlan{Input: in}

	var bmr float64
	if in.BodyFat > 0 {
		bmr = KatchMcArdle(in.CurrentWeight, in.BodyFat)
		plan.BMRFormula = "Katch-McArdle"
	} else {
		if err := requirePositive("height", in.Height); err != nil {
			return nil, err
		}
		if err := requirePositive("age", in.Age); err != nil {
			return nil, err
		}
		bmr = MifflinStJeor(in.Gender, in.CurrentWeight, in.Height, in.Age)
		plan.BMRFormula = "Mifflin-St Jeor"
	}

	plan.ActivityMultiplier = ActivityMultiplier(in.ActivityLevel)
	tdee := bmr * plan.ActivityMultiplier

	weightToLose := in.CurrentWeight - in.TargetWeight
	requestedWeeklyLoss := weightToLose / in.TimeframeWeeks
	weeklyLoss := math.Min(MaxWeeklyWeightLoss, requestedWeeklyLoss)
	deficit := weeklyLoss * caloriesPerUnitWeight / 7
	uncappedTarget := tdee - deficit
	targetCalories := math.Max(MinDailyCalories, uncappedTarget)

	plan.BMR = int(math.Round(bmr))
	plan.TDEE = int(math.Round(tdee))
	plan.WeightToLose = round(weightToLose, 1)
	plan.WeeksToGoal = in.TimeframeWeeks
	plan.WeeklyWeightLoss = round(weeklyLoss, 1)
	plan.DailyCalorieDeficit = int(math.Round(deficit))
	plan.TargetDailyCalories = int(math.Round(targetCalories))
	plan.Timeline = WeightTimeline(now, in.CurrentWeight, in.TargetWeight, weeklyLoss)
	plan.Macros = MacroSplit(targetCalories)
	plan.Recommendations = calorieRecommendations(requestedWeeklyLoss, uncappedTarget)

	return plan, nil
}

func calorieRecommendations(requestedWeeklyLoss, uncappedTargetCalories float64) []string {
	var recs []string

	switch {
	case requestedWeeklyLoss > MaxWeeklyWeightLoss:
		recs = append(recs, "Your goal asks for more than 2 units of weight loss per week, so the plan is capped. Extending the timeframe gives more sustainable results.")
	case requestedWeeklyLoss < 0.5:
		recs = append(recs, "Your weight loss rate is gradual, which helps preserve muscle mass and metabolism.")
	default:
		recs = append(recs, "Your weight loss rate is within the healthy range of 0.5-2 per week.")
	}

	if uncappedTargetCalories < MinDailyCalories {
		recs = append(recs, "Your target calories were raised to the 1200 kcal floor. Consider talking to a healthcare provider and focus on nutrient-dense foods.")
	}

	return append(recs,
		"Drink at least 8 glasses of water per day to support metabolism and reduce hunger.",
		"Strength train 2-3 times per week to keep muscle mass while losing weight.",
		"Eat protein with every meal for satiety and muscle preservation.",
		"Choose whole, minimally processed foods.",
		"Track food intake and body weight consistently.",
	)
}

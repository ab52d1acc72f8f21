package assessment

import (
	"fmt"
	"math"
	"strings"

	"github.com/bitfitpro/bitfit/internal/assessment/benchmarks"
)

const (
	FormulaEpley    = "epley"
	FormulaBrzycki  = "brzycki"
	FormulaLombardi = "lombardi"

	TestMethodDirect     = "direct"
	TestMethodCalculated = "calculated"
)

type StrengthInput struct {
	Gender Gender  `json:"gender"`
	Age    float64 `json:"age"`
	Weight float64 `json:"weight"` // body weight, same unit as the lifted weight

	// bench press and leg press
	TestMethod   string  `json:"testMethod"`
	OneRepMax    float64 `json:"oneRepMax"`
	WeightLifted float64 `json:"weightLifted"`
	Reps         float64 `json:"reps"`
	Formula      string  `json:"formula"`

	// push-ups
	MaxPushUps int `json:"maxPushUps"`

	Notes string `json:"notes,omitempty"`
}

type StrengthAssessment struct {
	Test             string            `json:"test"`
	TestName         string            `json:"testName"`
	Input            StrengthInput     `json:"input"`
	OneRepMax        float64           `json:"oneRepMax,omitempty"`
	Ratio            float64           `json:"ratio,omitempty"`
	MaxReps          int               `json:"maxReps,omitempty"`
	AgeRange         string            `json:"ageRange"`
	FitnessCategory  string            `json:"fitnessCategory"`
	Percentile       string            `json:"percentile,omitempty"`
	Status           Status            `json:"status"`
	Description      string            `json:"description"`
	Recommendations  []string          `json:"recommendations"`
	TestSpecificData map[string]string `json:"testSpecificData"`
}

// OneRepMax estimates the one repetition maximum from a submaximal set.
// An empty formula means Epley.
func OneRepMax(weight, reps float64, formula string) (float64, error) {
	if err := requirePositive("weightLifted", weight); err != nil {
		return 0, err
	}
	if err := requirePositive("reps", reps); err != nil {
		return 0, err
	}

	switch strings.ToLower(formula) {
	case "", FormulaEpley:
		return weight * (1 + reps/30), nil
	case FormulaBrzycki:
		if reps >= 37 {
			return 0, invalidInput("reps", "must be below 37 for the Brzycki formula")
		}
		return weight * 36 / (37 - reps), nil
	case FormulaLombardi:
		return weight * math.Pow(reps, 0.1), nil
	default:
		return 0, invalidInput("formula", "must be epley, brzycki or lombardi")
	}
}

func liftStatus(category string) Status {
	switch category {
	case "Excellent":
		return StatusExcellent
	case "Good":
		return StatusGood
	case "Average", "Fair":
		return StatusFair
	default:
		return StatusPoor
	}
}

func pushUpStatus(category string) Status {
	switch category {
	case "Excellent":
		return StatusExcellent
	case "Above Average":
		return StatusGood
	case "Average", "Below Average":
		return StatusFair
	default:
		return StatusPoor
	}
}

func AssessStrength(table *benchmarks.Table, in StrengthInput) (*StrengthAssessment, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil table", benchmarks.ErrUnknownTest)
	}
	if err := requirePositive("age", in.Age); err != nil {
		return nil, err
	}

	a := &StrengthAssessment{
		Test:             table.Key,
		TestName:         table.Name,
		Input:            in,
		TestSpecificData: map[string]string{},
	}

	switch table.Key {
	case benchmarks.BenchPress, benchmarks.LegPress:
		if err := assessLift(table, in, a); err != nil {
			return nil, err
		}
	case benchmarks.PushUp:
		if in.MaxPushUps < 0 {
			return nil, invalidInput("maxPushUps", "must not be negative")
		}
		res, err := table.Classify(string(in.Gender), in.Age, float64(in.MaxPushUps))
		if err != nil {
			return nil, err
		}
		a.MaxReps = in.MaxPushUps
		a.AgeRange = res.AgeRange
		a.FitnessCategory = res.Band.Category
		a.Percentile = res.Band.Percentile
		a.Status = pushUpStatus(res.Band.Category)

		percentile := ""
		if a.Percentile != "" {
			percentile = fmt.Sprintf(" (%s percentile)", a.Percentile)
		}
		a.Description = fmt.Sprintf(
			"You completed %d push-ups, which falls in the %s range%s for your age and gender.",
			in.MaxPushUps, strings.ToLower(a.FitnessCategory), percentile,
		)
		a.TestSpecificData["maxPushUps"] = fmt.Sprintf("%d", in.MaxPushUps)
		if a.Percentile != "" {
			a.TestSpecificData["percentile"] = a.Percentile
		} else {
			a.TestSpecificData["percentile"] = "N/A"
		}
	default:
		return nil, fmt.Errorf("%w: %s", benchmarks.ErrUnknownTest, table.Key)
	}

	a.Recommendations = strengthRecommendations(a.Status, table.Key)
	return a, nil
}

func assessLift(table *benchmarks.Table, in StrengthInput, a *StrengthAssessment) error {
	if err := requirePositive("weight", in.Weight); err != nil {
		return err
	}

	var orm float64
	method := "Calculated from reps"
	if strings.EqualFold(in.TestMethod, TestMethodDirect) {
		if err := requirePositive("oneRepMax", in.OneRepMax); err != nil {
			return err
		}
		orm = in.OneRepMax
		method = "Direct 1RM Test"
	} else {
		var err error
		if orm, err = OneRepMax(in.WeightLifted, in.Reps, in.Formula); err != nil {
			return err
		}
	}

	ratio := orm / in.Weight
	res, err := table.Classify(string(in.Gender), in.Age, ratio)
	if err != nil {
		return err
	}

	lift := "bench press"
	if table.Key == benchmarks.LegPress {
		lift = "leg press"
	}

	a.OneRepMax = round(orm, 1)
	a.Ratio = round(ratio, 2)
	a.AgeRange = res.AgeRange
	a.FitnessCategory = res.Band.Category
	a.Status = liftStatus(res.Band.Category)
	a.Description = fmt.Sprintf(
		"Your %s strength ratio is %.2f, which falls in the %s range for your age and gender.",
		lift, ratio, strings.ToLower(a.FitnessCategory),
	)
	a.TestSpecificData["oneRepMax"] = fmt.Sprintf("%.1f", orm)
	a.TestSpecificData["ratio"] = fmt.Sprintf("%.2f", ratio)
	a.TestSpecificData["method"] = method
	return nil
}

func strengthRecommendations(status Status, test string) []string {
	var recs []string

	switch status {
	case StatusPoor, StatusFair:
		switch test {
		case benchmarks.BenchPress:
			recs = append(recs,
				"Build a base with bodyweight pressing such as push-ups.",
				"Practice bench press form with lighter loads before adding weight.",
				"Add accessory work like dumbbell presses and triceps exercises.",
			)
		case benchmarks.LegPress:
			recs = append(recs,
				"Build leg strength with bodyweight squats and lunges.",
				"Use a full range of motion and controlled form on the leg press.",
				"Include single leg exercises to even out imbalances.",
			)
		case benchmarks.PushUp:
			recs = append(recs,
				"Use knee push-ups until full push-ups feel manageable.",
				"Practice incline push-ups against a bench or wall.",
				"Strengthen your core to hold a solid plank position.",
			)
		}
		recs = append(recs, "Train 2-3 times per week with enough rest between sessions.")
	case StatusGood:
		recs = append(recs,
			"Keep training consistently to hold your current strength.",
			"Apply progressive overload by slowly adding weight or reps.",
			"Vary exercises and rep ranges to keep making progress.",
		)
	default:
		recs = append(recs,
			"Excellent strength. Focus on keeping your current level.",
			"Try structured periodization to keep progressing.",
			"Sport specific or performance oriented training may suit you now.",
		)
	}

	return append(recs,
		"Put proper form ahead of heavier weights.",
		"Give each muscle group 48-72 hours of rest between hard sessions.",
		"Retest every 8-12 weeks to track your progress.",
	)
}

package assessment

import (
	"fmt"
	"math"

	"github.com/bitfitpro/bitfit/internal/assessment/benchmarks"
)

const kgToLbs = 2.20462

type CardioInput struct {
	Gender Gender  `json:"gender"`
	Age    float64 `json:"age"`
	Weight float64 `json:"weight"` // kg, rockport only

	// rockport
	WalkTimeMinutes float64 `json:"walkTimeMinutes"`
	WalkTimeSeconds float64 `json:"walkTimeSeconds"`
	HeartRate       float64 `json:"heartRate"`

	// cooper12
	DistanceMiles float64 `json:"distanceMiles"`

	// mile15
	RunTimeMinutes float64 `json:"runTimeMinutes"`
	RunTimeSeconds float64 `json:"runTimeSeconds"`

	// stepTest
	RecoveryHeartRate float64 `json:"recoveryHeartRate"`

	Notes string `json:"notes,omitempty"`
}

type CardioAssessment struct {
	Test             string            `json:"test"`
	TestName         string            `json:"testName"`
	Input            CardioInput       `json:"input"`
	VO2Max           float64           `json:"vo2Max,omitempty"`
	FitnessScore     float64           `json:"fitnessScore,omitempty"`
	AgeRange         string            `json:"ageRange"`
	FitnessCategory  string            `json:"fitnessCategory"`
	Status           Status            `json:"status"`
	Description      string            `json:"description"`
	Recommendations  []string          `json:"recommendations"`
	TestSpecificData map[string]string `json:"testSpecificData"`
}

// RockportVO2Max estimates VO2 max from the one mile walk.
func RockportVO2Max(gender Gender, age, weightKg, minutes, seconds, heartRate float64) float64 {
	male := 0.0
	if gender != GenderFemale {
		male = 1
	}
	lbs := weightKg * kgToLbs
	t := minutes + seconds/60
	vo2 := 132.853 - 0.0769*lbs - 0.3877*age + 6.315*male - 3.2649*t - 0.1565*heartRate
	return round(vo2, 1)
}

func Cooper12VO2Max(distanceMiles float64) float64 {
	return round(35.97*distanceMiles-11.29, 1)
}

func Mile15VO2Max(minutes, seconds float64) float64 {
	return round(483/(minutes+seconds/60)+3.5, 1)
}

// StepTestScore is the fitness score of the 3 minute step test.
func StepTestScore(recoveryHeartRate float64) float64 {
	return round(18000/(recoveryHeartRate*5.6), 1)
}

var cardioStatuses = map[string]map[string]Status{
	benchmarks.Rockport: {
		"Excellent":     StatusExcellent,
		"Good":          StatusExcellent,
		"Above Average": StatusGood,
		"Average":       StatusFair,
		"Below Average": StatusFair,
	},
	benchmarks.Mile15: {
		"Excellent":     StatusExcellent,
		"Good":          StatusExcellent,
		"Above Average": StatusGood,
		"Average":       StatusFair,
		"Below Average": StatusFair,
	},
	benchmarks.Cooper12: {
		"Excellent":     StatusExcellent,
		"Good":          StatusGood,
		"Average":       StatusFair,
		"Below Average": StatusFair,
	},
	benchmarks.StepTest: {
		"Excellent":     StatusExcellent,
		"Good":          StatusGood,
		"Above Average": StatusGood,
		"Average":       StatusFair,
		"Below Average": StatusFair,
	},
}

var cardioDescriptions = map[string]map[string]string{
	benchmarks.Rockport: {
		"Excellent":     "Excellent cardiovascular fitness, well above what is typical for your age group.",
		"Good":          "Good cardiovascular fitness. Your heart and lungs are in very healthy shape.",
		"Above Average": "Above average cardiovascular fitness with good endurance capacity.",
		"Average":       "Average cardiovascular fitness for your age group.",
		"Below Average": "Below average cardiovascular fitness. Regular exercise will bring clear gains.",
		"Poor":          "Poor cardiovascular fitness. A regular exercise program is a good next step.",
		"Very Poor":     "Very poor cardiovascular fitness. Talk to a healthcare provider before starting to exercise.",
	},
	benchmarks.Cooper12: {
		"Excellent":     "Excellent endurance, well above what is typical for your age group.",
		"Good":          "Good endurance and above average performance.",
		"Average":       "Average endurance for your age group.",
		"Below Average": "Below average endurance. Regular training will improve your distance.",
		"Poor":          "Poor endurance. A structured exercise program is a good next step.",
	},
	benchmarks.Mile15: {
		"Excellent":     "Excellent running performance and outstanding cardiovascular fitness.",
		"Good":          "Good running performance with above average cardiovascular fitness.",
		"Above Average": "Above average running performance.",
		"Average":       "Average running performance for your age group.",
		"Below Average": "Below average running performance. Regular training will help.",
		"Poor":          "Poor running performance. Start with walking and build endurance gradually.",
		"Very Poor":     "Very poor running performance. Talk to a healthcare provider before starting to exercise.",
	},
	benchmarks.StepTest: {
		"Excellent":     "Excellent recovery. Your heart rate drops back very efficiently.",
		"Good":          "Good recovery and an above average fitness level.",
		"Above Average": "Above average recovery.",
		"Average":       "Average recovery for your age group.",
		"Below Average": "Below average recovery. Regular cardio will improve it.",
		"Poor":          "Poor recovery. Start a gradual exercise program.",
	},
}

// AssessCardio evaluates one of the cardio field tests against its benchmark table.
func AssessCardio(table *benchmarks.Table, in CardioInput) (*CardioAssessment, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil table", benchmarks.ErrUnknownTest)
	}
	if err := requirePositive("age", in.Age); err != nil {
		return nil, err
	}

	a := &CardioAssessment{
		Test:             table.Key,
		TestName:         table.Name,
		Input:            in,
		TestSpecificData: map[string]string{},
	}

	var classifyBy float64
	switch table.Key {
	case benchmarks.Rockport:
		if err := requirePositive("weight", in.Weight); err != nil {
			return nil, err
		}
		if err := requireNonNegative("walkTimeMinutes", in.WalkTimeMinutes); err != nil {
			return nil, err
		}
		if err := requireNonNegative("walkTimeSeconds", in.WalkTimeSeconds); err != nil {
			return nil, err
		}
		if in.WalkTimeMinutes+in.WalkTimeSeconds <= 0 {
			return nil, invalidInput("walkTime", "must be a positive duration")
		}
		if err := requirePositive("heartRate", in.HeartRate); err != nil {
			return nil, err
		}
		a.VO2Max = RockportVO2Max(in.Gender, in.Age, in.Weight, in.WalkTimeMinutes, in.WalkTimeSeconds, in.HeartRate)
		classifyBy = a.VO2Max
		a.TestSpecificData["walkTime"] = formatMinSec(in.WalkTimeMinutes, in.WalkTimeSeconds)
		a.TestSpecificData["heartRate"] = fmt.Sprintf("%g bpm", in.HeartRate)
	case benchmarks.Cooper12:
		if err := requirePositive("distanceMiles", in.DistanceMiles); err != nil {
			return nil, err
		}
		a.VO2Max = Cooper12VO2Max(in.DistanceMiles)
		classifyBy = in.DistanceMiles
		a.TestSpecificData["distance"] = fmt.Sprintf("%g miles", in.DistanceMiles)
	case benchmarks.Mile15:
		if err := requireNonNegative("runTimeMinutes", in.RunTimeMinutes); err != nil {
			return nil, err
		}
		if err := requireNonNegative("runTimeSeconds", in.RunTimeSeconds); err != nil {
			return nil, err
		}
		if in.RunTimeMinutes+in.RunTimeSeconds <= 0 {
			return nil, invalidInput("runTime", "must be a positive duration")
		}
		a.VO2Max = Mile15VO2Max(in.RunTimeMinutes, in.RunTimeSeconds)
		classifyBy = a.VO2Max
		a.TestSpecificData["runTime"] = formatMinSec(in.RunTimeMinutes, in.RunTimeSeconds)
	case benchmarks.StepTest:
		if err := requirePositive("recoveryHeartRate", in.RecoveryHeartRate); err != nil {
			return nil, err
		}
		a.FitnessScore = StepTestScore(in.RecoveryHeartRate)
		classifyBy = in.RecoveryHeartRate
		a.TestSpecificData["recoveryHeartRate"] = fmt.Sprintf("%g bpm", in.RecoveryHeartRate)
	default:
		return nil, fmt.Errorf("%w: %s", benchmarks.ErrUnknownTest, table.Key)
	}

	res, err := table.Classify(string(in.Gender), in.Age, classifyBy)
	if err != nil {
		return nil, err
	}

	a.AgeRange = res.AgeRange
	a.FitnessCategory = res.Band.Category
	a.Status = StatusPoor
	if s, ok := cardioStatuses[table.Key][res.Band.Category]; ok {
		a.Status = s
	}
	a.Description = cardioDescriptions[table.Key][res.Band.Category]
	a.Recommendations = cardioRecommendations(a.Status, table.Key)

	return a, nil
}

func formatMinSec(minutes, seconds float64) string {
	total := int(math.Round(minutes*60 + seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func cardioRecommendations(status Status, test string) []string {
	var recs []string

	switch status {
	case StatusPoor, StatusFair:
		if test == benchmarks.Rockport || test == benchmarks.StepTest {
			recs = append(recs,
				"Walk briskly for 20-30 minutes, 3-4 times per week.",
				"Increase walking pace and duration gradually over the next 4-6 weeks.",
			)
		} else {
			recs = append(recs,
				"Start a walk-run program that alternates walking with easy jogging.",
				"Build your aerobic base with steady, moderate intensity sessions.",
			)
		}
		recs = append(recs, "Add 2-3 days of strength training to support your overall fitness.")
	case StatusGood:
		recs = append(recs,
			"Keep up at least 150 minutes of moderate exercise every week.",
			"Add interval training once or twice per week to push your performance further.",
			"Mix in cross training like cycling, swimming or rowing.",
		)
	default:
		recs = append(recs,
			"Great result. Keep your fitness level with a varied routine.",
			"Challenge yourself with high intensity interval training.",
			"Consider training for an endurance event.",
		)
	}

	return append(recs,
		"Stay consistent with your routine for lasting heart health.",
		"Retest every 8-12 weeks to track your progress.",
	)
}

package assessment

import (
	"math"
)

type BodyFatInput struct {
	Gender Gender  `json:"gender"`
	Age    float64 `json:"age"`
	Height float64 `json:"height"` // cm
	Weight float64 `json:"weight"` // kg, optional
	Neck   float64 `json:"neck"`   // cm
	Waist  float64 `json:"waist"`  // cm
	Hip    float64 `json:"hip"`    // cm, required for women
}

type BodyFatAssessment struct {
	Input             BodyFatInput `json:"input"`
	BodyFat           Metric       `json:"bodyFat"`
	IdealBodyFat      float64      `json:"idealBodyFat"`
	DifferenceToIdeal float64      `json:"differenceToIdeal"`
	FatMass           float64      `json:"fatMass,omitempty"`
	LeanMass          float64      `json:"leanMass,omitempty"`
	Recommendations   []string     `json:"recommendations"`
}

type bodyFatBand struct {
	upTo     float64 // exclusive upper bound
	category string
	status   Status
}

var (
	maleBodyFatBands = []bodyFatBand{
		{upTo: 6, category: "Essential Fat", status: StatusFair},
		{upTo: 14, category: "Athletes", status: StatusExcellent},
		{upTo: 18, category: "Fitness", status: StatusGood},
		{upTo: 25, category: "Average", status: StatusFair},
		{upTo: math.Inf(1), category: "Obese", status: StatusPoor},
	}
	femaleBodyFatBands = []bodyFatBand{
		{upTo: 14, category: "Essential Fat", status: StatusFair},
		{upTo: 21, category: "Athletes", status: StatusExcellent},
		{upTo: 25, category: "Fitness", status: StatusGood},
		{upTo: 32, category: "Average", status: StatusFair},
		{upTo: math.Inf(1), category: "Obese", status: StatusPoor},
	}
)

// ideal body fat anchors, age -> percent
var (
	idealBodyFatAges   = []float64{20, 25, 30, 35, 40, 45, 50, 55}
	idealBodyFatMale   = []float64{8.5, 10.5, 12.7, 13.7, 15.3, 16.4, 18.9, 20.9}
	idealBodyFatFemale = []float64{17.7, 18.4, 19.3, 21.5, 22.2, 22.9, 25.2, 26.3}
)

// NavyBodyFat estimates body fat percent with the U.S. Navy circumference method.
// The result is clamped to [0, 50] and rounded to 1 decimal.
func NavyBodyFat(gender Gender, heightCm, neckCm, waistCm, hipCm float64) (float64, error) {
	if err := requirePositive("height", heightCm); err != nil {
		return 0, err
	}
	if err := requirePositive("neck", neckCm); err != nil {
		return 0, err
	}
	if err := requirePositive("waist", waistCm); err != nil {
		return 0, err
	}

	var density float64
	if gender == GenderFemale {
		if err := requirePositive("hip", hipCm); err != nil {
			return 0, err
		}
		girth := waistCm + hipCm - neckCm
		if girth <= 0 {
			return 0, invalidInput("waist", "plus hip must exceed neck")
		}
		density = 1.29579 - 0.35004*math.Log10(girth) + 0.22100*math.Log10(heightCm)
	} else {
		girth := waistCm - neckCm
		if girth <= 0 {
			return 0, invalidInput("waist", "must exceed neck")
		}
		density = 1.0324 - 0.19077*math.Log10(girth) + 0.15456*math.Log10(heightCm)
	}
	if density <= 0 {
		return 0, invalidInput("measurements", "are out of range")
	}

	bf := 495/density - 450
	bf = math.Max(0, math.Min(50, bf))
	return round(bf, 1), nil
}

// IdealBodyFat interpolates the ideal body fat percent for the given age.
// Ages outside the anchor range take the nearest anchor value.
func IdealBodyFat(gender Gender, age float64) float64 {
	values := idealBodyFatMale
	if gender == GenderFemale {
		values = idealBodyFatFemale
	}

	last := len(idealBodyFatAges) - 1
	if age <= idealBodyFatAges[0] {
		return values[0]
	}
	if age >= idealBodyFatAges[last] {
		return values[last]
	}

	for i := 1; i <= last; i++ {
		if age <= idealBodyFatAges[i] {
			a0, a1 := idealBodyFatAges[i-1], idealBodyFatAges[i]
			v0, v1 := values[i-1], values[i]
			return round(v0+(v1-v0)*(age-a0)/(a1-a0), 1)
		}
	}
	return values[last]
}

func classifyBodyFat(gender Gender, bf float64) Metric {
	bands := maleBodyFatBands
	if gender == GenderFemale {
		bands = femaleBodyFatBands
	}
	for _, b := range bands {
		if bf < b.upTo {
			return Metric{Value: bf, Category: b.category, Status: b.status, Description: bodyFatDescriptions[b.category]}
		}
	}
	b := bands[len(bands)-1]
	return Metric{Value: bf, Category: b.category, Status: b.status, Description: bodyFatDescriptions[b.category]}
}

var bodyFatDescriptions = map[string]string{
	"Essential Fat": "You are at or near essential fat levels. Going lower can affect your health.",
	"Athletes":      "Your body fat is in the range typical for athletes.",
	"Fitness":       "Your body fat is in the fitness range.",
	"Average":       "Your body fat is in the average range for the general population.",
	"Obese":         "Your body fat is above the healthy range.",
}

func AssessBodyFat(in BodyFatInput) (*BodyFatAssessment, error) {
	if err := requirePositive("age", in.Age); err != nil {
		return nil, err
	}
	if err := requireNonNegative("weight", in.Weight); err != nil {
		return nil, err
	}

	bf, err := NavyBodyFat(in.Gender, in.Height, in.Neck, in.Waist, in.Hip)
	if err != nil {
		return nil, err
	}

	ideal := IdealBodyFat(in.Gender, in.Age)
	a := &BodyFatAssessment{
		Input:             in,
		BodyFat:           classifyBodyFat(in.Gender, bf),
		IdealBodyFat:      ideal,
		DifferenceToIdeal: round(bf-ideal, 1),
	}
	if in.Weight > 0 {
		a.FatMass = round(in.Weight*bf/100, 1)
		a.LeanMass = round(in.Weight-a.FatMass, 1)
	}
	a.Recommendations = bodyFatRecommendations(a)

	return a, nil
}

func bodyFatRecommendations(a *BodyFatAssessment) []string {
	var recs []string
	switch a.BodyFat.Category {
	case "Essential Fat":
		recs = append(recs,
			"Increase your calorie intake with nutrient-dense foods.",
			"Focus on strength training to build lean mass.",
		)
	case "Athletes", "Fitness":
		recs = append(recs,
			"Maintain your current training and nutrition habits.",
			"Keep protein intake high to support lean mass.",
		)
	case "Average":
		recs = append(recs,
			"A moderate calorie deficit combined with strength training will lower body fat.",
			"Add 150 minutes of moderate cardio per week.",
		)
	default:
		recs = append(recs,
			"Start with a sustainable calorie deficit of 300-500 kcal per day.",
			"Combine daily walking with 2-3 strength sessions per week.",
			"Consider working with a healthcare provider or dietitian.",
		)
	}
	if a.DifferenceToIdeal > 0 {
		recs = append(recs, "Track your measurements every 2-4 weeks to follow your progress toward the ideal range.")
	}
	return recs
}

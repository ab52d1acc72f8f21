package assessment

import (
	"math"
)

// Metric is a single classified measurement.
type Metric struct {
	Value       float64 `json:"value"`
	Category    string  `json:"category"`
	Status      Status  `json:"status"`
	Description string  `json:"description"`
}

type BodyInput struct {
	Gender           Gender  `json:"gender"`
	Height           float64 `json:"height"` // cm
	Weight           float64 `json:"weight"` // kg
	Waist            float64 `json:"waist"`  // cm
	Hip              float64 `json:"hip"`    // cm
	Systolic         float64 `json:"systolicBP"`
	Diastolic        float64 `json:"diastolicBP"`
	RestingHeartRate float64 `json:"restingHeartRate"`
}

type BodyAssessment struct {
	Input            BodyInput `json:"input"`
	BMI              Metric    `json:"bmi"`
	WaistHipRatio    Metric    `json:"waistHipRatio"`
	BloodPressure    Metric    `json:"bloodPressure"`
	RestingHeartRate Metric    `json:"restingHeartRate"`
	OverallScore     int       `json:"overallScore"`
	Recommendations  []string  `json:"recommendations"`
}

// BMI computes the body mass index for height in cm and weight in kg.
func BMI(heightCm, weightKg float64) (Metric, error) {
	if err := requirePositive("height", heightCm); err != nil {
		return Metric{}, err
	}
	if err := requirePositive("weight", weightKg); err != nil {
		return Metric{}, err
	}

	heightM := heightCm / 100
	bmi := weightKg / (heightM * heightM)

	m := Metric{Value: round(bmi, 1)}
	switch {
	case bmi < 18.5:
		m.Category, m.Status = "Underweight", StatusPoor
		m.Description = "Your weight is below the healthy range. Consider talking to a healthcare provider."
	case bmi < 25:
		m.Category, m.Status = "Normal Weight", StatusExcellent
		m.Description = "Your weight is in the healthy range for your height."
	case bmi < 30:
		m.Category, m.Status = "Overweight", StatusFair
		m.Description = "Losing some weight through balanced eating and regular exercise may help."
	default:
		m.Category, m.Status = "Obese", StatusPoor
		m.Description = "A healthcare provider can help you set up a weight management plan."
	}
	return m, nil
}

// WaistHipRatio classifies the waist to hip ratio. Thresholds differ by gender.
func WaistHipRatio(waistCm, hipCm float64, gender Gender) (Metric, error) {
	if err := requirePositive("waist", waistCm); err != nil {
		return Metric{}, err
	}
	if err := requirePositive("hip", hipCm); err != nil {
		return Metric{}, err
	}

	ratio := waistCm / hipCm
	low, moderate, high := 0.90, 0.95, 1.0
	if gender == GenderFemale {
		low, moderate, high = 0.80, 0.85, 0.90
	}

	m := Metric{Value: round(ratio, 2)}
	switch {
	case ratio < low:
		m.Category, m.Status = "Low Risk", StatusExcellent
		m.Description = "Your waist to hip ratio points to a low health risk."
	case ratio < moderate:
		m.Category, m.Status = "Moderate Risk", StatusGood
		m.Description = "Your waist to hip ratio points to a moderate health risk."
	case ratio < high:
		m.Category, m.Status = "High Risk", StatusFair
		m.Description = "Your waist to hip ratio is elevated and points to a higher health risk."
	default:
		m.Category, m.Status = "Very High Risk", StatusPoor
		m.Description = "Your waist to hip ratio points to a significant health risk."
	}
	return m, nil
}

// BloodPressure classifies a systolic/diastolic reading in mmHg.
// The returned Value is the systolic pressure.
func BloodPressure(systolic, diastolic float64) (Metric, error) {
	if err := requirePositive("systolicBP", systolic); err != nil {
		return Metric{}, err
	}
	if err := requirePositive("diastolicBP", diastolic); err != nil {
		return Metric{}, err
	}

	m := Metric{Value: systolic}
	switch {
	case systolic < 120 && diastolic < 80:
		m.Category, m.Status = "Normal", StatusExcellent
		m.Description = "Your blood pressure is in the normal range."
	case systolic < 130 && diastolic < 80:
		m.Category, m.Status = "Elevated", StatusGood
		m.Description = "Your blood pressure is elevated. Lifestyle changes can help prevent hypertension."
	case systolic < 140 || diastolic < 90:
		m.Category, m.Status = "Stage 1 Hypertension", StatusFair
		m.Description = "Your reading falls in stage 1 hypertension. Consider seeing a healthcare provider."
	default:
		m.Category, m.Status = "Stage 2 Hypertension", StatusPoor
		m.Description = "Your reading falls in stage 2 hypertension. Please see a healthcare provider soon."
	}
	return m, nil
}

// RestingHeartRate classifies the resting heart rate in beats per minute.
func RestingHeartRate(bpm float64) (Metric, error) {
	if err := requirePositive("restingHeartRate", bpm); err != nil {
		return Metric{}, err
	}

	m := Metric{Value: bpm}
	switch {
	case bpm < 60:
		m.Category, m.Status = "Athlete/Excellent", StatusExcellent
		m.Description = "Your heart is very efficient at rest."
	case bpm < 70:
		m.Category, m.Status = "Good", StatusGood
		m.Description = "Your resting heart rate is healthy."
	case bpm < 80:
		m.Category, m.Status = "Average", StatusFair
		m.Description = "Average resting heart rate. Cardio training can bring it down."
	case bpm < 100:
		m.Category, m.Status = "Below Average", StatusFair
		m.Description = "Below average fitness level. Regular cardio exercise would help."
	default:
		m.Category, m.Status = "Poor", StatusPoor
		m.Description = "High resting heart rate. Consider seeing a healthcare provider."
	}
	return m, nil
}

// OverallScore maps the statuses of the four body metrics to a 0-100 score.
func OverallScore(statuses ...Status) int {
	if len(statuses) == 0 {
		return 0
	}
	total := 0
	for _, s := range statuses {
		total += s.Score()
	}
	maxScore := StatusExcellent.Score() * len(statuses)
	return int(math.Round(float64(total) / float64(maxScore) * 100))
}

func AssessBody(in BodyInput) (*BodyAssessment, error) {
	bmi, err := BMI(in.Height, in.Weight)
	if err != nil {
		return nil, err
	}
	whr, err := WaistHipRatio(in.Waist, in.Hip, in.Gender)
	if err != nil {
		return nil, err
	}
	bp, err := BloodPressure(in.Systolic, in.Diastolic)
	if err != nil {
		return nil, err
	}
	rhr, err := RestingHeartRate(in.RestingHeartRate)
	if err != nil {
		return nil, err
	}

	a := &BodyAssessment{
		Input:            in,
		BMI:              bmi,
		WaistHipRatio:    whr,
		BloodPressure:    bp,
		RestingHeartRate: rhr,
		OverallScore:     OverallScore(bmi.Status, whr.Status, bp.Status, rhr.Status),
	}
	a.Recommendations = bodyRecommendations(a)

	return a, nil
}

func bodyRecommendations(a *BodyAssessment) []string {
	var recs []string

	if a.BMI.Status.NeedsAttention() {
		if a.BMI.Value < 18.5 {
			recs = append(recs, "Eat a balanced diet with enough calories and add strength training to gain healthy weight.")
		} else {
			recs = append(recs, "Combine a calorie-controlled diet with regular cardio to manage your weight.")
		}
	}
	if a.WaistHipRatio.Status.NeedsAttention() {
		recs = append(recs, "Add core strengthening and reduce abdominal fat with cardio and diet.")
	}
	if a.BloodPressure.Status.NeedsAttention() {
		recs = append(recs, "Cut back on sodium, eat more potassium-rich foods and do regular aerobic exercise.")
	}
	if a.RestingHeartRate.Status.NeedsAttention() {
		recs = append(recs, "Build cardiovascular fitness with regular walking, cycling or swimming.")
	}

	if len(recs) == 0 {
		recs = append(recs, "Keep up your regular exercise and balanced nutrition to maintain your health.")
	}

	return append(recs,
		"Stay hydrated and get 7-9 hours of sleep.",
		"Schedule regular check-ups with your healthcare provider.",
	)
}

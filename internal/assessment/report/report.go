// Package report renders assessment results as downloadable plain-text reports.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/bitfitpro/bitfit/internal/assessment"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const dateLayout = "2006-01-02"

var templates = template.Must(
	template.New("reports").
		Funcs(template.FuncMap{
			"inc":       func(i int) int { return i + 1 },
			"underline": underline,
			"date":      func(t time.Time) string { return t.Format(dateLayout) },
			"datetime":  func(t time.Time) string { return t.Format("January 2, 2006 15:04 MST") },
			"orNA":      orNA,
			"kv":        sortedPairs,
		}).
		ParseFS(templatesFS, "templates/*.tmpl"),
)

// Report is a rendered text document ready to be sent as an attachment.
type Report struct {
	Filename string
	Content  []byte
}

type data struct {
	Title       string
	GeneratedAt time.Time
	Result      any
}

func render(name, title string, generatedAt time.Time, result any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data{
		Title:       title,
		GeneratedAt: generatedAt,
		Result:      result,
	}); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func Body(a *assessment.BodyAssessment, now time.Time) (*Report, error) {
	content, err := render("body", "BODY ASSESSMENT REPORT", now, a)
	if err != nil {
		return nil, err
	}
	return &Report{
		Filename: fmt.Sprintf("Body-Assessment-Report-%s.txt", now.Format(dateLayout)),
		Content:  content,
	}, nil
}

func BodyFat(a *assessment.BodyFatAssessment, now time.Time) (*Report, error) {
	content, err := render("bodyfat", "BODY FAT ASSESSMENT REPORT", now, a)
	if err != nil {
		return nil, err
	}
	return &Report{
		Filename: fmt.Sprintf("Body-Fat-Assessment-%s.txt", now.Format(dateLayout)),
		Content:  content,
	}, nil
}

func Cardio(a *assessment.CardioAssessment, now time.Time) (*Report, error) {
	content, err := render("cardio", "CARDIOVASCULAR ASSESSMENT REPORT", now, a)
	if err != nil {
		return nil, err
	}
	return &Report{
		Filename: fmt.Sprintf("Cardiovascular-Assessment-%s-%s.txt", dashed(a.TestName), now.Format(dateLayout)),
		Content:  content,
	}, nil
}

func Calories(p *assessment.CaloriePlan, now time.Time) (*Report, error) {
	content, err := render("calories", "WEIGHT LOSS PLAN", now, p)
	if err != nil {
		return nil, err
	}
	return &Report{
		Filename: fmt.Sprintf("Weight-Loss-Plan-%s.txt", now.Format(dateLayout)),
		Content:  content,
	}, nil
}

func Strength(a *assessment.StrengthAssessment, now time.Time) (*Report, error) {
	content, err := render("strength", "STRENGTH ASSESSMENT REPORT", now, a)
	if err != nil {
		return nil, err
	}
	return &Report{
		Filename: fmt.Sprintf("Strength-Assessment-%s-%s.txt", dashed(a.TestName), now.Format(dateLayout)),
		Content:  content,
	}, nil
}

// dashed turns a test name into a file name segment: "Rockport 1-Mile Walk Test" -> "Rockport-1-Mile-Walk-Test".
func dashed(name string) string {
	return strings.Join(strings.Fields(name), "-")
}

func underline(s string) string {
	return strings.Repeat("=", len(s))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

type pair struct {
	Key   string
	Value string
}

var testDataLabels = map[string]string{
	"walkTime":          "Walk Time",
	"heartRate":         "Heart Rate",
	"distance":          "Distance",
	"runTime":           "Run Time",
	"recoveryHeartRate": "Recovery Heart Rate",
	"oneRepMax":         "One Rep Max",
	"ratio":             "Strength Ratio",
	"method":            "Method",
	"maxPushUps":        "Max Push-Ups",
	"percentile":        "Percentile",
}

func sortedPairs(m map[string]string) []pair {
	pairs := make([]pair, 0, len(m))
	for k, v := range m {
		label, ok := testDataLabels[k]
		if !ok {
			label = k
		}
		pairs = append(pairs, pair{Key: label, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Key < pairs[j].Key
	})
	return pairs
}

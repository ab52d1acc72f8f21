package benchmarks

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

//go:embed cardio.json
var cardioJSON []byte

//go:embed strength.json
var strengthJSON []byte

var (
	ErrUnknownTest  = errors.New("unknown benchmark test")
	ErrInvalidRange = errors.New("invalid range")
)

// cardio test keys
const (
	Rockport = "rockport"
	Cooper12 = "cooper12"
	Mile15   = "mile15"
	StepTest = "stepTest"
)

// strength test keys
const (
	BenchPress = "benchPress"
	LegPress   = "legPress"
	PushUp     = "pushUp"
)

var strengthFileKeys = map[string]string{
	"benchPressBenchmarking": BenchPress,
	"legPressBenchmarking":   LegPress,
	"pushUpBenchmarking":     PushUp,
}

// Range is a parsed band boundary. Open ends are +/-Inf.
type Range struct {
	Min          float64
	Max          float64
	MinExclusive bool
	MaxExclusive bool
}

// ParseRange parses the textual band notation used in the tables:
//
//	"> 50"    (50, +Inf)
//	"< 30"    (-Inf, 30)
//	"1.26+"   [1.26, +Inf)
//	"30-40"   [30, 40]
//	"42"      [42, 42]
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, fmt.Errorf("%w: empty", ErrInvalidRange)
	}

	switch {
	case strings.HasPrefix(s, ">"):
		v, err := parseBound(s[1:])
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
		}
		return Range{Min: v, Max: math.Inf(1), MinExclusive: true}, nil
	case strings.HasPrefix(s, "<"):
		v, err := parseBound(s[1:])
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
		}
		return Range{Min: math.Inf(-1), Max: v, MaxExclusive: true}, nil
	case strings.HasSuffix(s, "+"):
		v, err := parseBound(strings.TrimSuffix(s, "+"))
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
		}
		return Range{Min: v, Max: math.Inf(1)}, nil
	}

	if lo, hi, found := strings.Cut(s, "-"); found && strings.TrimSpace(lo) != "" {
		minV, err := parseBound(lo)
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
		}
		maxV, err := parseBound(hi)
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
		}
		if minV > maxV {
			return Range{}, fmt.Errorf("%w: %q min above max", ErrInvalidRange, s)
		}
		return Range{Min: minV, Max: maxV}, nil
	}

	v, err := parseBound(s)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	return Range{Min: v, Max: v}, nil
}

func parseBound(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Reaches reports whether v satisfies the lower bound.
func (r Range) Reaches(v float64) bool {
	if r.MinExclusive {
		return v > r.Min
	}
	return v >= r.Min
}

// NotAbove reports whether v satisfies the upper bound.
func (r Range) NotAbove(v float64) bool {
	if r.MaxExclusive {
		return v < r.Max
	}
	return v <= r.Max
}

func (r Range) Contains(v float64) bool {
	return r.Reaches(v) && r.NotAbove(v)
}

type Band struct {
	Category   string `json:"category"`
	Percentile string `json:"percentile,omitempty"`
	Range      string `json:"range"`

	bounds Range
}

func (b Band) Bounds() Range {
	return b.bounds
}

// Table holds the bands of one test for both genders, keyed by age range.
// Bands are ordered best to worst.
type Table struct {
	Key             string            `json:"key"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Instructions    []string          `json:"instructions"`
	Formula         string            `json:"formula"`
	Metric          string            `json:"metric"`
	Unit            string            `json:"unit"`
	LowerIsBetter   bool              `json:"lowerIsBetter"`
	AgeRanges       []string          `json:"ageRanges"`
	DefaultAgeRange string            `json:"defaultAgeRange"`
	Male            map[string][]Band `json:"male"`
	Female          map[string][]Band `json:"female"`

	ageBounds []Range
}

type Result struct {
	AgeRange string `json:"ageRange"`
	Band     Band   `json:"band"`
}

// AgeRange picks the first age range containing the age. An age between two
// closed ranges (25.7 between 18-25 and 26-35) counts in whole years.
// Ages below every range fall back to the table default.
func (t *Table) AgeRange(age float64) string {
	for _, years := range []float64{age, math.Floor(age)} {
		for i, bounds := range t.ageBounds {
			if bounds.Contains(years) {
				return t.AgeRanges[i]
			}
		}
	}
	return t.DefaultAgeRange
}

func (t *Table) Bands(gender, ageRange string) ([]Band, error) {
	standards := t.Male
	if strings.EqualFold(gender, "female") {
		standards = t.Female
	}
	bands, ok := standards[ageRange]
	if !ok || len(bands) == 0 {
		return nil, fmt.Errorf("%s: no bands for age range %q", t.Key, ageRange)
	}
	return bands, nil
}

// Classify finds the band of value for the given gender and age.
// For higher-is-better tables the first band whose lower bound is reached wins,
// for lower-is-better tables the first band whose upper bound is not exceeded.
func (t *Table) Classify(gender string, age, value float64) (Result, error) {
	ageRange := t.AgeRange(age)
	bands, err := t.Bands(gender, ageRange)
	if err != nil {
		return Result{}, err
	}

	for _, b := range bands {
		if t.LowerIsBetter && b.bounds.NotAbove(value) || !t.LowerIsBetter && b.bounds.Reaches(value) {
			return Result{AgeRange: ageRange, Band: b}, nil
		}
	}

	return Result{AgeRange: ageRange, Band: bands[len(bands)-1]}, nil
}

func (t *Table) prepare() error {
	if len(t.AgeRanges) == 0 {
		return fmt.Errorf("%s: no age ranges", t.Key)
	}
	t.ageBounds = make([]Range, 0, len(t.AgeRanges))
	for _, ar := range t.AgeRanges {
		r, err := ParseRange(strings.TrimSuffix(ar, " years"))
		if err != nil {
			return fmt.Errorf("%s: age range: %w", t.Key, err)
		}
		t.ageBounds = append(t.ageBounds, r)
	}

	for _, standards := range []map[string][]Band{t.Male, t.Female} {
		for _, ar := range t.AgeRanges {
			bands, ok := standards[ar]
			if !ok {
				return fmt.Errorf("%s: missing standards for age range %q", t.Key, ar)
			}
			for i := range bands {
				r, err := ParseRange(bands[i].Range)
				if err != nil {
					return fmt.Errorf("%s [%s] %s: %w", t.Key, ar, bands[i].Category, err)
				}
				bands[i].bounds = r
			}
		}
	}
	return nil
}

// Catalog is the read-only set of benchmark tables shipped with the binary.
type Catalog struct {
	cardio   map[string]*Table
	strength map[string]*Table
}

func Load() (*Catalog, error) {
	cardio, err := parseCardio(cardioJSON)
	if err != nil {
		return nil, fmt.Errorf("cardio benchmarks: %w", err)
	}
	strength, err := parseStrength(strengthJSON)
	if err != nil {
		return nil, fmt.Errorf("strength benchmarks: %w", err)
	}
	return &Catalog{
		cardio:   cardio,
		strength: strength,
	}, nil
}

func (c *Catalog) Cardio(test string) (*Table, error) {
	t, ok := c.cardio[test]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTest, test)
	}
	return t, nil
}

func (c *Catalog) Strength(test string) (*Table, error) {
	t, ok := c.strength[test]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTest, test)
	}
	return t, nil
}

func (c *Catalog) CardioTables() []*Table {
	return sortedTables(c.cardio)
}

func (c *Catalog) StrengthTables() []*Table {
	return sortedTables(c.strength)
}

func sortedTables(m map[string]*Table) []*Table {
	tables := make([]*Table, 0, len(m))
	for _, t := range m {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Key < tables[j].Key
	})
	return tables
}

type tableInfo struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Instructions    []string `json:"instructions"`
	Formula         string   `json:"formula"`
	Metric          string   `json:"metric"`
	Unit            string   `json:"unit"`
	LowerIsBetter   bool     `json:"lowerIsBetter"`
	AgeRanges       []string `json:"ageRanges"`
	DefaultAgeRange string   `json:"defaultAgeRange"`
}

func (ti tableInfo) newTable(key string) *Table {
	return &Table{
		Key:             key,
		Name:            ti.Name,
		Description:     ti.Description,
		Instructions:    ti.Instructions,
		Formula:         ti.Formula,
		Metric:          ti.Metric,
		Unit:            ti.Unit,
		LowerIsBetter:   ti.LowerIsBetter,
		AgeRanges:       ti.AgeRanges,
		DefaultAgeRange: ti.DefaultAgeRange,
		Male:            map[string][]Band{},
		Female:          map[string][]Band{},
	}
}

type cardioRow struct {
	AgeRange string   `json:"ageRange"`
	Ranges   []string `json:"ranges"`
}

type cardioTest struct {
	tableInfo
	Categories      []string    `json:"categories"`
	MaleStandards   []cardioRow `json:"maleStandards"`
	FemaleStandards []cardioRow `json:"femaleStandards"`
}

func parseCardio(data []byte) (map[string]*Table, error) {
	var raw map[string]cardioTest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	tables := make(map[string]*Table, len(raw))
	for key, test := range raw {
		t := test.newTable(key)
		for _, std := range []struct {
			rows []cardioRow
			dst  map[string][]Band
		}{
			{test.MaleStandards, t.Male},
			{test.FemaleStandards, t.Female},
		} {
			for _, row := range std.rows {
				if len(row.Ranges) != len(test.Categories) {
					return nil, fmt.Errorf("%s [%s]: %d ranges for %d categories", key, row.AgeRange, len(row.Ranges), len(test.Categories))
				}
				bands := make([]Band, len(row.Ranges))
				for i, r := range row.Ranges {
					bands[i] = Band{Category: test.Categories[i], Range: r}
				}
				std.dst[row.AgeRange] = bands
			}
		}
		if err := t.prepare(); err != nil {
			return nil, err
		}
		tables[key] = t
	}
	return tables, nil
}

type strengthRow struct {
	Rating     string            `json:"rating"`
	Percentile string            `json:"percentile"`
	AgeRanges  map[string]string `json:"ageRanges"`
}

type strengthTest struct {
	tableInfo
	Standards struct {
		Men   []strengthRow `json:"men"`
		Women []strengthRow `json:"women"`
	} `json:"standards"`
}

func parseStrength(data []byte) (map[string]*Table, error) {
	var raw map[string]strengthTest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	tables := make(map[string]*Table, len(raw))
	for fileKey, test := range raw {
		key, ok := strengthFileKeys[fileKey]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTest, fileKey)
		}
		t := test.newTable(key)
		for _, std := range []struct {
			rows []strengthRow
			dst  map[string][]Band
		}{
			{test.Standards.Men, t.Male},
			{test.Standards.Women, t.Female},
		} {
			for _, ar := range test.AgeRanges {
				bands := make([]Band, 0, len(std.rows))
				for _, row := range std.rows {
					r, found := row.AgeRanges[ar]
					if !found {
						continue
					}
					bands = append(bands, Band{
						Category:   row.Rating,
						Percentile: row.Percentile,
						Range:      r,
					})
				}
				std.dst[ar] = bands
			}
		}
		if err := t.prepare(); err != nil {
			return nil, err
		}
		tables[key] = t
	}
	return tables, nil
}

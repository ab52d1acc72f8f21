// Package api exposes the assessment calculators, benchmark tables and
// downloadable reports over HTTP.
package api

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bitfitpro/bitfit/internal/assessment"
	"github.com/bitfitpro/bitfit/internal/assessment/benchmarks"
	"github.com/bitfitpro/bitfit/internal/assessment/report"
	"github.com/bitfitpro/bitfit/internal/profile"
	"github.com/bitfitpro/bitfit/internal/telemetry/metrics"
	"github.com/bitfitpro/bitfit/internal/telemetry/tracing"
	"github.com/bitfitpro/bitfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	formatText = "txt"
	// counter status for requests rejected before any result exists
	statusInvalid = "invalid"
	statusOK      = "ok"
)

type profileGetter interface {
	Get(ctx context.Context, identityID string) (*profile.Profile, error)
}

type Handler struct {
	catalog        *benchmarks.Catalog
	profiles       profileGetter
	metricsManager *metrics.Manager
}

func NewHandler(
	catalog *benchmarks.Catalog,
	profiles profileGetter,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		catalog:        catalog,
		profiles:       profiles,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/assess/body", handler.handleBody).Methods("POST", "OPTIONS").Name("assess-body")
	router.HandleFunc("/assess/bodyfat", handler.handleBodyFat).Methods("POST", "OPTIONS").Name("assess-bodyfat")
	router.HandleFunc("/assess/cardio/{test}", handler.handleCardio).Methods("POST", "OPTIONS").Name("assess-cardio")
	router.HandleFunc("/assess/strength/{test}", handler.handleStrength).Methods("POST", "OPTIONS").Name("assess-strength")
	router.HandleFunc("/calories/plan", handler.handleCaloriePlan).Methods("POST", "OPTIONS").Name("calorie-plan")
	router.HandleFunc("/benchmarks/cardio", handler.handleCardioBenchmarks).Methods("GET").Name("benchmarks-cardio")
	router.HandleFunc("/benchmarks/strength", handler.handleStrengthBenchmarks).Methods("GET").Name("benchmarks-strength")
}

func (handler *Handler) handleBody(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "assessmentHandler.body")
	defer span.End()

	var in assessment.BodyInput
	if !decodeInput(w, r, &in) {
		return
	}
	var err error
	if in.Gender, err = assessment.ParseGender(string(in.Gender)); err != nil {
		handler.writeAssessmentError(w, "body", err)
		return
	}
	handler.prefill(ctx, prefillFields{height: &in.Height, weight: &in.Weight})

	a, err := assessment.AssessBody(in)
	if err != nil {
		handler.writeAssessmentError(w, "body", err)
		return
	}
	handler.countAssessment("body", statusOK)

	handler.writeResult(w, r, "body", a, func(now time.Time) (*report.Report, error) {
		return report.Body(a, now)
	})
}

func (handler *Handler) handleBodyFat(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "assessmentHandler.bodyFat")
	defer span.End()

	var in assessment.BodyFatInput
	if !decodeInput(w, r, &in) {
		return
	}
	var err error
	if in.Gender, err = assessment.ParseGender(string(in.Gender)); err != nil {
		handler.writeAssessmentError(w, "bodyfat", err)
		return
	}
	handler.prefill(ctx, prefillFields{age: &in.Age, height: &in.Height, weight: &in.Weight})

	a, err := assessment.AssessBodyFat(in)
	if err != nil {
		handler.writeAssessmentError(w, "bodyfat", err)
		return
	}
	handler.countAssessment("bodyfat", statusOK)

	handler.writeResult(w, r, "bodyfat", a, func(now time.Time) (*report.Report, error) {
		return report.BodyFat(a, now)
	})
}

func (handler *Handler) handleCardio(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "assessmentHandler.cardio")
	defer span.End()

	test := mux.Vars(r)["test"]
	span.SetAttributes(attribute.String("assessment.test", test))
	kind := "cardio-" + test

	table, err := handler.catalog.Cardio(test)
	if err != nil {
		http.Error(w, "unknown cardio test", http.StatusNotFound)
		return
	}

	var in assessment.CardioInput
	if !decodeInput(w, r, &in) {
		return
	}
	if in.Gender, err = assessment.ParseGender(string(in.Gender)); err != nil {
		handler.writeAssessmentError(w, kind, err)
		return
	}
	handler.prefill(ctx, prefillFields{age: &in.Age, weight: &in.Weight})

	a, err := assessment.AssessCardio(table, in)
	if err != nil {
		handler.writeAssessmentError(w, kind, err)
		return
	}
	handler.countAssessment(kind, statusOK)

	handler.writeResult(w, r, kind, a, func(now time.Time) (*report.Report, error) {
		return report.Cardio(a, now)
	})
}

func (handler *Handler) handleStrength(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "assessmentHandler.strength")
	defer span.End()

	test := mux.Vars(r)["test"]
	span.SetAttributes(attribute.String("assessment.test", test))
	kind := "strength-" + test

	table, err := handler.catalog.Strength(test)
	if err != nil {
		http.Error(w, "unknown strength test", http.StatusNotFound)
		return
	}

	var in assessment.StrengthInput
	if !decodeInput(w, r, &in) {
		return
	}
	if in.Gender, err = assessment.ParseGender(string(in.Gender)); err != nil {
		handler.writeAssessmentError(w, kind, err)
		return
	}
	handler.prefill(ctx, prefillFields{age: &in.Age, weight: &in.Weight})

	a, err := assessment.AssessStrength(table, in)
	if err != nil {
		handler.writeAssessmentError(w, kind, err)
		return
	}
	handler.countAssessment(kind, statusOK)

	handler.writeResult(w, r, kind, a, func(now time.Time) (*report.Report, error) {
		return report.Strength(a, now)
	})
}

func (handler *Handler) handleCaloriePlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "assessmentHandler.caloriePlan")
	defer span.End()

	var in assessment.CaloriePlanInput
	if !decodeInput(w, r, &in) {
		return
	}
	var err error
	if in.Gender, err = assessment.ParseGender(string(in.Gender)); err != nil {
		handler.writeAssessmentError(w, "calories", err)
		return
	}
	handler.prefill(ctx, prefillFields{age: &in.Age, height: &in.Height, weight: &in.CurrentWeight})

	plan, err := assessment.PlanCalories(in, time.Now().UTC())
	if err != nil {
		handler.writeAssessmentError(w, "calories", err)
		return
	}
	handler.countAssessment("calories", statusOK)

	handler.writeResult(w, r, "calories", plan, func(now time.Time) (*report.Report, error) {
		return report.Calories(plan, now)
	})
}

func (handler *Handler) handleCardioBenchmarks(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "assessmentHandler.cardioBenchmarks")
	defer span.End()

	writeJSON(w, handler.catalog.CardioTables())
}

func (handler *Handler) handleStrengthBenchmarks(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "assessmentHandler.strengthBenchmarks")
	defer span.End()

	writeJSON(w, handler.catalog.StrengthTables())
}

// decodeInput answers OPTIONS and bad payloads itself and returns false for them.
func decodeInput(w http.ResponseWriter, r *http.Request, in any) bool {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return false
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return false
	}

	if err := json.NewDecoder(r.Body).Decode(in); err != nil {
		log.Errorf("assessment, unmarshal json params: %s", err)
		http.Error(w, "invalid assessment input", http.StatusBadRequest)
		return false
	}
	return true
}

func (handler *Handler) writeAssessmentError(w http.ResponseWriter, kind string, err error) {
	if errors.Is(err, assessment.ErrInvalidInput) || errors.Is(err, assessment.ErrTargetNotBelowCurrent) {
		handler.countAssessment(kind, statusInvalid)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if errors.Is(err, benchmarks.ErrUnknownTest) {
		http.Error(w, "unknown test", http.StatusNotFound)
		return
	}
	log.Errorf("assessment %s: %s", kind, err)
	http.Error(w, "assessment failed", http.StatusInternalServerError)
}

func (handler *Handler) countAssessment(kind, status string) {
	handler.metricsManager.CounterAssessments.WithLabelValues(kind, status).Inc()
}

// writeResult sends the result as JSON, or as a text report download with ?format=txt.
func (handler *Handler) writeResult(
	w http.ResponseWriter,
	r *http.Request,
	kind string,
	result any,
	renderReport func(now time.Time) (*report.Report, error),
) {
	if r.URL.Query().Get("format") != formatText {
		writeJSON(w, result)
		return
	}

	rep, err := renderReport(time.Now().UTC())
	if err != nil {
		log.Errorf("render %s report: %s", kind, err)
		http.Error(w, "failed to create report", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterReportDownloads.WithLabelValues(kind).Inc()
	pkg.WriteAttachment(w, rep.Filename, pkg.ContentType.Text, rep.Content)
}

func writeJSON(w http.ResponseWriter, v any) {
	resJson, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal assessment response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resJson)
}

package profile

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=profile_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bitfitpro/bitfit/internal/assessment"
	"github.com/bitfitpro/bitfit/internal/auth"
	"github.com/bitfitpro/bitfit/internal/telemetry/tracing"
	"github.com/bitfitpro/bitfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type profileService interface {
	Get(ctx context.Context, identityID string) (*Profile, error)
	Update(ctx context.Context, identityID string, attrs Attributes) (*Profile, error)
}

type bmiInfo struct {
	Value    float64 `json:"value"`
	Category string  `json:"category"`
}

type profileResponse struct {
	*Profile
	BMI *bmiInfo `json:"bmi,omitempty"`
}

type Handler struct {
	service profileService
}

func NewHandler(service profileService) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/profile", handler.handleGet).Methods("GET", "OPTIONS").Name("get-profile")
	router.HandleFunc("/profile", handler.handleUpdate).Methods("PUT").Name("update-profile")
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "profileHandler.get")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, PUT, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	span.SetAttributes(attribute.String("identity.id", session.IdentityID))

	p, err := handler.service.Get(ctx, session.IdentityID)
	if err != nil {
		log.Errorf("get profile %s: %s", session.IdentityID, err)
		http.Error(w, "failed to get profile", http.StatusInternalServerError)
		return
	}

	writeProfile(w, p)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "profileHandler.update")
	defer span.End()

	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	span.SetAttributes(attribute.String("identity.id", session.IdentityID))

	var attrs Attributes
	if err := json.NewDecoder(r.Body).Decode(&attrs); err != nil {
		log.Errorf("update profile, unmarshal json params: %s", err)
		http.Error(w, "update profile failed", http.StatusBadRequest)
		return
	}

	p, err := handler.service.Update(ctx, session.IdentityID, attrs)
	if err != nil {
		if errors.Is(err, ErrAttributeTooLong) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("update profile %s: %s", session.IdentityID, err)
		http.Error(w, "update profile failed", http.StatusInternalServerError)
		return
	}

	if !p.Synced {
		log.Warnf("profile %s saved locally only", session.IdentityID)
	}

	writeProfile(w, p)
}

func writeProfile(w http.ResponseWriter, p *Profile) {
	resp := profileResponse{
		Profile: p,
		BMI:     profileBMI(p.Attributes),
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal profile: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

// profileBMI is nil unless height (cm) and weight (kg) parse as positive numbers.
func profileBMI(attrs Attributes) *bmiInfo {
	height, err := strconv.ParseFloat(strings.TrimSpace(attrs.Height), 64)
	if err != nil {
		return nil
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(attrs.Weight), 64)
	if err != nil {
		return nil
	}
	bmi, err := assessment.BMI(height, weight)
	if err != nil {
		return nil
	}
	return &bmiInfo{
		Value:    bmi.Value,
		Category: bmi.Category,
	}
}

package guides

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bitfitpro/bitfit/internal/telemetry/metrics"
	"github.com/bitfitpro/bitfit/internal/telemetry/tracing"
	"github.com/bitfitpro/bitfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type Handler struct {
	library        *Library
	metricsManager *metrics.Manager
}

func NewHandler(library *Library, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		library:        library,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/guides", handler.handleList).Methods("GET", "OPTIONS").Name("guides")
	router.HandleFunc("/guides/{slug}", handler.handleGet).Methods("GET").Name("guide")
	router.HandleFunc("/guides/{slug}/download", handler.handleDownload).Methods("GET").Name("guide-download")
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "guidesHandler.list")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	listJson, err := json.Marshal(handler.library.List())
	if err != nil {
		log.Errorf("marshal guides list: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, listJson)
}

func (handler *Handler) guide(w http.ResponseWriter, r *http.Request) (Guide, bool) {
	slug := mux.Vars(r)["slug"]
	g, err := handler.library.Get(slug)
	if err != nil {
		if errors.Is(err, ErrGuideNotFound) {
			http.Error(w, "guide not found", http.StatusNotFound)
			return Guide{}, false
		}
		log.Errorf("get guide %s: %s", slug, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return Guide{}, false
	}
	return g, true
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "guidesHandler.get")
	defer span.End()

	g, ok := handler.guide(w, r)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("guide.slug", g.Slug))

	guideJson, err := json.Marshal(g)
	if err != nil {
		log.Errorf("marshal guide %s: %s", g.Slug, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, guideJson)
}

func (handler *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "guidesHandler.download")
	defer span.End()

	g, ok := handler.guide(w, r)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("guide.slug", g.Slug))

	handler.metricsManager.CounterReportDownloads.WithLabelValues("guide-" + g.Slug).Inc()
	pkg.WriteAttachment(w, g.Filename, pkg.ContentType.Text, []byte(g.Content))
}

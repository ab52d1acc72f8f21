package photos

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=photos_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bitfitpro/bitfit/internal/auth"
	"github.com/bitfitpro/bitfit/internal/telemetry/metrics"
	"github.com/bitfitpro/bitfit/internal/telemetry/tracing"
	"github.com/bitfitpro/bitfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	formFieldPhoto = "photo"
	// extra room for the multipart envelope around the file
	multipartOverhead = 1 << 16
)

type photoStore interface {
	Put(ctx context.Context, params PutParams) (*Object, error)
	Get(ctx context.Context, identityID, id string) (*Object, io.ReadSeekCloser, error)
	List(ctx context.Context, area, identityID string) ([]Object, error)
	Delete(ctx context.Context, area, identityID, id string) error
}

// ListedObject is an object together with the path it is served from.
type ListedObject struct {
	Object
	URL string `json:"url"`
}

func listed(o Object) ListedObject {
	return ListedObject{
		Object: o,
		URL:    "/photos/" + o.Area + "/" + o.ID,
	}
}

type Handler struct {
	store          photoStore
	maxUploadBytes int64
	metricsManager *metrics.Manager
}

func NewHandler(store photoStore, maxUploadBytes int64, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		store:          store,
		maxUploadBytes: maxUploadBytes,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/photos/{area}", handler.handleUpload).Methods("POST").Name("upload-photo")
	router.HandleFunc("/photos/{area}", handler.handleList).Methods("GET", "OPTIONS").Name("list-photos")
	router.HandleFunc("/photos/{area}/{id}", handler.handleGet).Methods("GET").Name("get-photo")
	router.HandleFunc("/photos/{area}/{id}", handler.handleDelete).Methods("DELETE").Name("delete-photo")
}

// sessionAndArea writes the error response itself when it returns false.
func sessionAndArea(w http.ResponseWriter, r *http.Request) (*auth.Session, string, bool) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return nil, "", false
	}
	area := mux.Vars(r)["area"]
	if !ValidArea(area) {
		http.Error(w, "unknown photo area", http.StatusNotFound)
		return nil, "", false
	}
	return session, area, true
}

func (handler *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "photosHandler.upload")
	defer span.End()

	session, area, ok := sessionAndArea(w, r)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("identity.id", session.IdentityID))
	span.SetAttributes(attribute.String("photo.area", area))

	r.Body = http.MaxBytesReader(w, r.Body, handler.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(handler.maxUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			http.Error(w, "photo too large", http.StatusRequestEntityTooLarge)
			return
		}
		log.Errorf("upload photo, parse form: %s", err)
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Errorf("remove multipart temp files: %s", err)
		}
	}()

	file, header, err := r.FormFile(formFieldPhoto)
	if err != nil {
		log.Errorf("upload photo, form file: %s", err)
		http.Error(w, "missing photo", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > handler.maxUploadBytes {
		http.Error(w, "photo too large", http.StatusRequestEntityTooLarge)
		return
	}

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		log.Errorf("upload photo, read: %s", err)
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}
	contentType := http.DetectContentType(sniff[:n])
	if !strings.HasPrefix(contentType, "image/") {
		http.Error(w, "only images are accepted", http.StatusUnsupportedMediaType)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		log.Errorf("upload photo, seek: %s", err)
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}

	object, err := handler.store.Put(ctx, PutParams{
		Area:        area,
		IdentityID:  session.IdentityID,
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidFilename) {
			http.Error(w, "invalid file name", http.StatusBadRequest)
			return
		}
		log.Errorf("store photo for %s: %s", session.IdentityID, err)
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterPhotoUploads.WithLabelValues(area).Inc()
	log.Debugf("photo %s uploaded by %s", object.Key, session.IdentityID)

	objJson, err := json.Marshal(listed(*object))
	if err != nil {
		log.Errorf("marshal photo object: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, objJson, http.StatusCreated)
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "photosHandler.list")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	session, area, ok := sessionAndArea(w, r)
	if !ok {
		return
	}

	objects, err := handler.store.List(ctx, area, session.IdentityID)
	if err != nil {
		log.Errorf("list photos for %s: %s", session.IdentityID, err)
		http.Error(w, "failed to list photos", http.StatusInternalServerError)
		return
	}
	list := make([]ListedObject, 0, len(objects))
	for _, o := range objects {
		list = append(list, listed(o))
	}

	listJson, err := json.Marshal(list)
	if err != nil {
		log.Errorf("marshal photos list: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, listJson)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "photosHandler.get")
	defer span.End()

	session, area, ok := sessionAndArea(w, r)
	if !ok {
		return
	}

	object, content, err := handler.store.Get(ctx, session.IdentityID, mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, "get", err)
		return
	}
	defer content.Close()

	if object.Area != area {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", object.ContentType)
	w.Header().Set("Content-Disposition", "inline; filename="+object.Filename)
	http.ServeContent(w, r, object.Filename, object.CreatedAt, content)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "photosHandler.delete")
	defer span.End()

	session, area, ok := sessionAndArea(w, r)
	if !ok {
		return
	}

	if err := handler.store.Delete(ctx, area, session.IdentityID, mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, "delete", err)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}

func writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrObjectNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		log.Errorf("%s photo: %s", op, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

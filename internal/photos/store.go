package photos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bitfitpro/bitfit/internal/telemetry/tracing"
	"github.com/bitfitpro/bitfit/pkg"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrObjectNotFound  = errors.New("object not found")
	ErrForbidden       = errors.New("object belongs to another identity")
	ErrInvalidArea     = errors.New("invalid photo area")
	ErrInvalidFilename = errors.New("invalid file name")
)

// DiskStore keeps blobs under <root>/<area>/<identityID>/<id>_<filename>.
// Objects are created on upload and never updated.
type DiskStore struct {
	rootPath string
	idx      *index
	mutex    sync.RWMutex
}

func NewDiskStore(rootPath string) (*DiskStore, error) {
	if rootPath == "" {
		return nil, errors.New("root path cannot be empty")
	}
	if err := pkg.EnsureDir(rootPath); err != nil {
		return nil, fmt.Errorf("ensure root path: %w", err)
	}
	idx, err := loadIndex(rootPath)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	return &DiskStore{
		rootPath: rootPath,
		idx:      idx,
	}, nil
}

type PutParams struct {
	Area        string
	IdentityID  string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func cleanFilename(name string) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "", ErrInvalidFilename
	}
	return strings.ReplaceAll(name, " ", "_"), nil
}

func (s *DiskStore) Put(ctx context.Context, params PutParams) (_ *Object, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "diskStore.put")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if !ValidArea(params.Area) {
		return nil, ErrInvalidArea
	}
	if params.IdentityID == "" || strings.ContainsAny(params.IdentityID, `/\.`) {
		return nil, fmt.Errorf("invalid identity id: %q", params.IdentityID)
	}
	filename, err := cleanFilename(params.Filename)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("photo.area", params.Area))
	span.SetAttributes(attribute.Int64("photo.size", params.Size))

	id := uuid.NewString()
	key := path.Join(params.Area, params.IdentityID, id+"_"+filename)
	objectPath := filepath.Join(s.rootPath, filepath.FromSlash(key))

	// write the blob without holding the lock
	if err := os.MkdirAll(filepath.Dir(objectPath), 0o755); err != nil {
		return nil, err
	}
	dst, err := os.Create(objectPath)
	if err != nil {
		return nil, err
	}
	written, err := io.Copy(dst, params.Body)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if removeErr := os.Remove(objectPath); removeErr != nil {
			log.Errorf("failed to remove partial object %s: %s", key, removeErr)
		}
		return nil, err
	}

	object := &Object{
		ID:          id,
		Key:         key,
		Area:        params.Area,
		IdentityID:  params.IdentityID,
		Filename:    filename,
		ContentType: params.ContentType,
		Size:        written,
		CreatedAt:   time.Now().UTC(),
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.idx.Objects[id] = object
	if err := saveIndex(s.rootPath, s.idx); err != nil {
		delete(s.idx.Objects, id)
		if removeErr := os.Remove(objectPath); removeErr != nil {
			log.Errorf("failed to remove object %s after index error: %s", key, removeErr)
		}
		return nil, fmt.Errorf("save index: %w", err)
	}

	log.Debugf("disk store: object [%s] stored", key)
	copied := *object
	return &copied, nil
}

func (s *DiskStore) lookup(identityID, id string) (*Object, error) {
	object, ok := s.idx.Objects[id]
	if !ok {
		return nil, ErrObjectNotFound
	}
	if object.IdentityID != identityID {
		return nil, ErrForbidden
	}
	return object, nil
}

// Get opens the blob of the object. The caller closes the returned file.
func (s *DiskStore) Get(ctx context.Context, identityID, id string) (*Object, io.ReadSeekCloser, error) {
	_, span := tracing.GlobalTracer.Start(ctx, "diskStore.get")
	defer span.End()

	s.mutex.RLock()
	object, err := s.lookup(identityID, id)
	if err != nil {
		s.mutex.RUnlock()
		return nil, nil, err
	}
	copied := *object
	s.mutex.RUnlock()

	f, err := os.Open(filepath.Join(s.rootPath, filepath.FromSlash(copied.Key)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, err
	}
	return &copied, f, nil
}

func (s *DiskStore) List(ctx context.Context, area, identityID string) ([]Object, error) {
	_, span := tracing.GlobalTracer.Start(ctx, "diskStore.list")
	defer span.End()

	if !ValidArea(area) {
		return nil, ErrInvalidArea
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	objects := s.idx.list(area, identityID)
	res := make([]Object, 0, len(objects))
	for _, o := range objects {
		res = append(res, *o)
	}
	return res, nil
}

// Delete removes the object if it belongs to the identity and lives in the area.
func (s *DiskStore) Delete(ctx context.Context, area, identityID, id string) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "diskStore.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	object, err := s.lookup(identityID, id)
	if err != nil {
		return err
	}
	if object.Area != area {
		return ErrObjectNotFound
	}

	if err := os.Remove(filepath.Join(s.rootPath, filepath.FromSlash(object.Key))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	delete(s.idx.Objects, id)
	if err := saveIndex(s.rootPath, s.idx); err != nil {
		return fmt.Errorf("object deleted, but failed to save index: %w", err)
	}

	log.Debugf("disk store: object [%s] deleted", object.Key)
	return nil
}

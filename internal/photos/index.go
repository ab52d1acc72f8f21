package photos

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bitfitpro/bitfit/pkg"

	log "github.com/sirupsen/logrus"
)

// json file with the object index, kept in the store root
const indexFileName = "photos-index.json"

const (
	AreaPosture = "posture-photos"
	AreaProfile = "profile-photos"
)

var areas = map[string]bool{
	AreaPosture: true,
	AreaProfile: true,
}

func ValidArea(area string) bool {
	return areas[area]
}

type Object struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Area        string    `json:"area"`
	IdentityID  string    `json:"identityId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

type index struct {
	Objects map[string]*Object `json:"objects"`
}

func newIndex() *index {
	return &index{Objects: make(map[string]*Object)}
}

func (idx *index) list(area, identityID string) []*Object {
	var objects []*Object
	for _, o := range idx.Objects {
		if o.Area == area && o.IdentityID == identityID {
			objects = append(objects, o)
		}
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].CreatedAt.After(objects[j].CreatedAt)
	})
	return objects
}

func loadIndex(rootPath string) (*index, error) {
	exists, err := pkg.PathExists(rootPath, true)
	if err != nil {
		return nil, fmt.Errorf("check root path %s: %w", rootPath, err)
	}
	if !exists {
		return nil, fmt.Errorf("root path [%s] does not exist", rootPath)
	}

	indexPath := filepath.Join(rootPath, indexFileName)
	indexExists, err := pkg.PathExists(indexPath, false)
	if err != nil {
		return nil, fmt.Errorf("check index [%s]: %w", indexPath, err)
	}

	if !indexExists {
		log.Debugln("photos index does not exist, creating a fresh one ...")
		idx := newIndex()
		if err := saveIndex(rootPath, idx); err != nil {
			return nil, fmt.Errorf("index created, but failed to save: %w", err)
		}
		return idx, nil
	}

	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, err
	}
	idx := newIndex()
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("unmarshal photos index: %w", err)
	}
	if idx.Objects == nil {
		idx.Objects = make(map[string]*Object)
	}
	return idx, nil
}

// saveIndex writes to a temp file and renames it over the old index.
func saveIndex(rootPath string, idx *index) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return err
	}

	indexPath := filepath.Join(rootPath, indexFileName)
	tmpPath := indexPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, indexPath); err != nil {
		return err
	}

	log.Debugf("photos index saved, %d objects", len(idx.Objects))
	return nil
}

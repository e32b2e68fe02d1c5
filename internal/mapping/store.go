package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
)

// BundleVersion is the export bundle format this build reads and writes.
const BundleVersion = "2.0"

// ExportBundle is a versioned snapshot of every entity type's mapping list,
// used for backup and restore.
type ExportBundle struct {
	Version    string                    `json:"version"`
	ExportDate time.Time                 `json:"export_date"`
	Mappings   map[string][]FieldMapping `json:"mappings"`
}

// VersionMismatchError rejects an import whose bundle version does not match
// BundleVersion. Operation-level: the import stops immediately.
type VersionMismatchError struct {
	Got  string
	Want string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("mapping bundle version %q does not match expected version %q", e.Got, e.Want)
}

// Store persists the per-entity-type mapping lists. The engine only borrows
// a mapping snapshot for the duration of one sync invocation.
type Store interface {
	Load(typ entity.Type) ([]FieldMapping, error)
	Save(typ entity.Type, mappings []FieldMapping) error
	ExportAll() (*ExportBundle, error)
	ImportAll(bundle *ExportBundle) error
}

// FileStore keeps all mapping lists in one JSON file keyed by entity type.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(typ entity.Type) ([]FieldMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}

	return all[typ.String()], nil
}

func (s *FileStore) Save(typ entity.Type, mappings []FieldMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}

	all[typ.String()] = mappings

	return s.write(all)
}

func (s *FileStore) ExportAll() (*ExportBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}

	return &ExportBundle{
		Version:    BundleVersion,
		ExportDate: time.Now().UTC(),
		Mappings:   all,
	}, nil
}

func (s *FileStore) ImportAll(bundle *ExportBundle) error {
	if bundle.Version != BundleVersion {
		return &VersionMismatchError{Got: bundle.Version, Want: BundleVersion}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := map[string][]FieldMapping{}
	for name, mappings := range bundle.Mappings {
		if _, err := entity.Parse(name); err != nil {
			return fmt.Errorf("mapping bundle: %s", err)
		}
		all[name] = mappings
	}

	return s.write(all)
}

func (s *FileStore) read() (map[string][]FieldMapping, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string][]FieldMapping{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading mapping store: %s", err)
	}

	all := map[string][]FieldMapping{}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parsing mapping store %s: %s", s.path, err)
	}

	return all, nil
}

func (s *FileStore) write(all map[string][]FieldMapping) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing mapping store: %s", err)
	}

	return nil
}

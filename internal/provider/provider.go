// Package provider defines the boundary contracts for both commerce
// platforms. The engine only ever talks to a Source and a Target; concrete
// implementations register themselves by type name and are selected through
// the source/target sections of the configuration.
package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
	"github.com/shopmigrate/sw5-shopify-sync/pkg/interop"
	"github.com/spf13/viper"
)

// Record is one semi-structured platform record as decoded from JSON:
// objects, arrays and scalars.
type Record = map[string]interface{}

// FieldDescriptor describes one addressable field path on a platform record,
// produced by introspecting sample records.
type FieldDescriptor struct {
	Path        string `json:"path"`
	Type        string `json:"type"`
	SampleValue string `json:"sample_value,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
}

// ConnectionInfo is the result of a connection test against either platform.
type ConnectionInfo struct {
	Success bool              `json:"success"`
	Info    map[string]string `json:"info,omitempty"`
}

// Page is one page of a source listing. Total is the full record count
// matching the listing, independent of the page size.
type Page struct {
	Records []Record
	Total   int
}

// Source is the platform records are migrated from.
type Source interface {
	TestConnection(ctx context.Context) (*ConnectionInfo, error)

	// List returns one page of records for the entity type. A limit of zero
	// is a counting call: no rows, but Total is populated.
	List(ctx context.Context, typ entity.Type, limit, offset int) (*Page, error)

	// GetByID fetches a single record by numeric id or by the platform's
	// human-facing number (article number, order number).
	GetByID(ctx context.Context, typ entity.Type, id string) (Record, error)

	// Fields introspects the available field paths, optionally from one
	// specific record named by identifier.
	Fields(ctx context.Context, typ entity.Type, identifier string) ([]FieldDescriptor, error)
}

// Target is the platform records are migrated to.
type Target interface {
	TestConnection(ctx context.Context) (*ConnectionInfo, error)

	Fields(ctx context.Context, typ entity.Type, identifier string) ([]FieldDescriptor, error)

	Create(ctx context.Context, typ entity.Type, record Record) (int64, error)

	Update(ctx context.Context, typ entity.Type, id int64, record Record) (int64, error)

	// FindByNaturalKey resolves an existing target record by its natural key
	// (SKU for products, email for customers). A miss is reported as a
	// *NotFoundError so callers can tell it apart from transport failure.
	FindByNaturalKey(ctx context.Context, typ entity.Type, key string) (Record, error)
}

type SourceInitFn func(*interop.Interop, *viper.Viper) (Source, error)
type TargetInitFn func(*interop.Interop, *viper.Viper) (Target, error)

var (
	sourceInitFns map[string]SourceInitFn
	targetInitFns map[string]TargetInitFn
	providerLock  sync.Mutex
)

func RegisterSource(t string, initFn SourceInitFn) {
	providerLock.Lock()
	defer providerLock.Unlock()

	if sourceInitFns == nil {
		sourceInitFns = make(map[string]SourceInitFn)
	}

	sourceInitFns[t] = initFn
}

func RegisterTarget(t string, initFn TargetInitFn) {
	providerLock.Lock()
	defer providerLock.Unlock()

	if targetInitFns == nil {
		targetInitFns = make(map[string]TargetInitFn)
	}

	targetInitFns[t] = initFn
}

// GetSource builds the source platform client named by the "source" section
// of the configuration.
func GetSource(i *interop.Interop) (Source, error) {
	if !viper.IsSet("source") {
		return nil, fmt.Errorf("missing source in config")
	}

	sourceType := viper.GetString("source.type")
	if sourceType == "" {
		return nil, fmt.Errorf("missing source type")
	}

	i.Logger.Debugf("getting source for type %s...", sourceType)

	providerLock.Lock()
	defer providerLock.Unlock()

	fn, ok := sourceInitFns[sourceType]
	if !ok {
		return nil, fmt.Errorf("invalid source: %s", sourceType)
	}

	i.Logger.Debugf("initializing source...")
	return fn(i, viper.Sub("source"))
}

// GetTarget builds the target platform client named by the "target" section
// of the configuration.
func GetTarget(i *interop.Interop) (Target, error) {
	if !viper.IsSet("target") {
		return nil, fmt.Errorf("missing target in config")
	}

	targetType := viper.GetString("target.type")
	if targetType == "" {
		return nil, fmt.Errorf("missing target type")
	}

	i.Logger.Debugf("getting target for type %s...", targetType)

	providerLock.Lock()
	defer providerLock.Unlock()

	fn, ok := targetInitFns[targetType]
	if !ok {
		return nil, fmt.Errorf("invalid target: %s", targetType)
	}

	i.Logger.Debugf("initializing target...")
	return fn(i, viper.Sub("target"))
}

package sync

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
	"github.com/shopmigrate/sw5-shopify-sync/internal/mapping"
	"github.com/shopmigrate/sw5-shopify-sync/internal/provider"
	"github.com/shopmigrate/sw5-shopify-sync/pkg/interop"
)

func testInterop() *interop.Interop {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)

	return &interop.Interop{Logger: logger}
}

func testMappings() []mapping.FieldMapping {
	return []mapping.FieldMapping{
		{SourceField: "name", TargetField: "title"},
		{SourceField: "mainDetail.number", TargetField: "variants[].sku"},
		{SourceField: "mainDetail.prices[0].price", TargetField: "variants[].price"},
	}
}

func testArticle(id int, number string) provider.Record {
	return provider.Record{
		"id":   id,
		"name": fmt.Sprintf("Article %d", id),
		"mainDetail": map[string]interface{}{
			"number": number,
			"prices": []interface{}{
				map[string]interface{}{"price": 9.99},
			},
		},
	}
}

// fakeSource serves records from memory, in insertion order, with the same
// limit/offset and counting-call contract as a real source.
type fakeSource struct {
	ids     []string
	records map[string]provider.Record

	// onGet, when set, runs before every GetByID. Used to cancel contexts
	// mid-run.
	onGet func(id string)

	listErr error
}

func newFakeSource(records ...provider.Record) *fakeSource {
	s := &fakeSource{records: map[string]provider.Record{}}
	for _, r := range records {
		id := fmt.Sprintf("%v", r["id"])
		s.ids = append(s.ids, id)
		s.records[id] = r
	}
	return s
}

func (s *fakeSource) TestConnection(ctx context.Context) (*provider.ConnectionInfo, error) {
	return &provider.ConnectionInfo{Success: true}, nil
}

func (s *fakeSource) List(ctx context.Context, typ entity.Type, limit, offset int) (*provider.Page, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}

	page := &provider.Page{Total: len(s.ids)}
	if limit <= 0 {
		return page, nil
	}

	for i := offset; i < len(s.ids) && i < offset+limit; i++ {
		page.Records = append(page.Records, s.records[s.ids[i]])
	}
	return page, nil
}

func (s *fakeSource) GetByID(ctx context.Context, typ entity.Type, id string) (provider.Record, error) {
	if s.onGet != nil {
		s.onGet(id)
	}

	record, ok := s.records[id]
	if !ok {
		return nil, &provider.NotFoundError{Entity: typ, Key: id}
	}
	return record, nil
}

func (s *fakeSource) Fields(ctx context.Context, typ entity.Type, identifier string) ([]provider.FieldDescriptor, error) {
	return nil, nil
}

// fakeTarget records writes and resolves natural-key lookups from a seeded
// map.
type fakeTarget struct {
	existing map[string]provider.Record

	nextID  int64
	created []provider.Record
	updated map[int64]provider.Record

	createErr error
	findErr   error

	metafieldTypes map[string]string
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{
		existing: map[string]provider.Record{},
		updated:  map[int64]provider.Record{},
		nextID:   1000,
	}
}

func (t *fakeTarget) TestConnection(ctx context.Context) (*provider.ConnectionInfo, error) {
	return &provider.ConnectionInfo{Success: true}, nil
}

func (t *fakeTarget) Fields(ctx context.Context, typ entity.Type, identifier string) ([]provider.FieldDescriptor, error) {
	return nil, nil
}

func (t *fakeTarget) Create(ctx context.Context, typ entity.Type, record provider.Record) (int64, error) {
	if t.createErr != nil {
		return 0, t.createErr
	}

	t.nextID++
	t.created = append(t.created, record)
	return t.nextID, nil
}

func (t *fakeTarget) Update(ctx context.Context, typ entity.Type, id int64, record provider.Record) (int64, error) {
	t.updated[id] = record
	return id, nil
}

func (t *fakeTarget) FindByNaturalKey(ctx context.Context, typ entity.Type, key string) (provider.Record, error) {
	if t.findErr != nil {
		return nil, t.findErr
	}

	record, ok := t.existing[key]
	if !ok {
		return nil, &provider.NotFoundError{Entity: typ, Key: key}
	}
	return record, nil
}

func (t *fakeTarget) MetafieldTypes(ctx context.Context) (map[string]string, error) {
	return t.metafieldTypes, nil
}

// Package sync drives the migration of records from the source platform to
// the target platform: per-record orchestration (fetch, project, match,
// write) and batched, cancellable whole-catalog runs with progress
// reporting.
package sync

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
	"github.com/shopmigrate/sw5-shopify-sync/internal/mapping"
	"github.com/shopmigrate/sw5-shopify-sync/internal/provider"
	"github.com/shopmigrate/sw5-shopify-sync/pkg/interop"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

const (
	StatusCreated = "created"
	StatusUpdated = "updated"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Result is the immutable outcome of one attempted source record.
type Result struct {
	SourceID string `json:"source_id"`
	Status   string `json:"status"`
	Success  bool   `json:"success"`
	TargetID int64  `json:"target_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Aggregate summarizes one sync invocation. Counts always add up so partial
// success is distinguishable from total failure.
type Aggregate struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

func (a *Aggregate) add(r Result) {
	a.Total += 1
	if r.Success {
		a.Successful += 1
	} else {
		a.Failed += 1
	}
	a.Results = append(a.Results, r)
}

// Syncer orchestrates one sync invocation: a borrowed mapping snapshot, one
// entity type and one mode, applied uniformly to every id it is given. It
// never mutates the mapping.
type Syncer struct {
	i       *interop.Interop
	source  provider.Source
	target  provider.Target
	typ     entity.Type
	mode    entity.Mode
	matcher *Matcher

	projector mapping.Projector

	runID        uuid.UUID
	eventsConfig eventsConfig
	log          *log.Logger
}

// metafieldTyper is the optional target capability of reporting metafield
// types, used to encode list-typed metafields during projection.
type metafieldTyper interface {
	MetafieldTypes(ctx context.Context) (map[string]string, error)
}

func New(
	ctx context.Context,
	i *interop.Interop,
	source provider.Source,
	target provider.Target,
	typ entity.Type,
	mappings []mapping.FieldMapping,
	mode entity.Mode,
) (*Syncer, error) {
	if !typ.SupportsMode(mode) {
		return nil, fmt.Errorf(
			"entity type %s does not support %s mode (%s)",
			typ,
			mode,
			typ.Describe().TargetLabel,
		)
	}

	if len(mappings) == 0 {
		return nil, fmt.Errorf("no field mappings configured for %s", typ)
	}

	issues := mapping.ValidateForSync(typ, mappings, mode)
	for _, issue := range issues {
		if !issue.Warning {
			return nil, fmt.Errorf("mapping validation failed: %s", issue.Message)
		}
		i.Logger.Warnf("mapping warning: %s", issue.Message)
	}

	runID, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	s := &Syncer{
		i:       i,
		source:  source,
		target:  target,
		typ:     typ,
		mode:    mode,
		matcher: &Matcher{Target: target, Type: typ, Log: i.Logger},
		projector: mapping.Projector{
			Mappings: mappings,
			Log:      i.Logger,
		},
		runID:        runID,
		eventsConfig: loadEventsConfig(),
		log:          i.Logger,
	}

	if typ == entity.Articles {
		if typer, ok := target.(metafieldTyper); ok {
			types, err := typer.MetafieldTypes(ctx)
			if err != nil {
				i.Logger.Warnf("failed to fetch metafield types, using defaults: %s", err)
			} else {
				s.projector.MetafieldTypes = types
			}
		}
	}

	return s, nil
}

// SyncOne migrates a single source record. Every failure is downgraded to a
// failed Result; SyncOne never returns an error because one record's trouble
// must not stop the batch.
func (s *Syncer) SyncOne(ctx context.Context, sourceID string) Result {
	s.log.Debugf("processing %s %s in %s mode", s.typ, sourceID, s.mode)

	record, err := s.source.GetByID(ctx, s.typ, sourceID)
	if err != nil {
		s.log.Warnf("fetching %s %s failed: %s", s.typ, sourceID, err)
		return Result{SourceID: sourceID, Status: StatusError, Error: err.Error()}
	}

	action, err := s.matcher.ResolveTarget(ctx, record, s.mode)
	if err != nil {
		if action != nil && action.Kind == ActionSkip {
			s.log.Warnf("skipping %s %s: %s", s.typ, sourceID, err)
			return Result{SourceID: sourceID, Status: StatusSkipped, Error: err.Error()}
		}

		s.log.Warnf("resolving target for %s %s failed: %s", s.typ, sourceID, err)
		return Result{SourceID: sourceID, Status: StatusError, Error: err.Error()}
	}

	projector := s.projector
	if action.Kind == ActionUpdate {
		if variantID, ok := mapping.Get(action.Existing, "variants[0].id"); ok {
			projector.ExistingVariantID = cast.ToInt64(variantID)
		}
	}

	mapped, err := projector.Project(record)
	if err != nil {
		s.log.Warnf("projecting %s %s failed: %s", s.typ, sourceID, err)
		s.recordEvent(s.newAuditEvent("transform_error", sourceID, err))
		return Result{SourceID: sourceID, Status: StatusError, Error: err.Error()}
	}

	switch action.Kind {
	case ActionCreate:
		targetID, err := s.target.Create(ctx, s.typ, mapped)
		if err != nil {
			s.log.Warnf("creating %s for source %s failed: %s", s.typ, sourceID, err)
			return Result{SourceID: sourceID, Status: StatusError, Error: err.Error()}
		}

		s.log.Debugf("created %s %d for source %s", s.typ, targetID, sourceID)
		return Result{SourceID: sourceID, Status: StatusCreated, Success: true, TargetID: targetID}

	case ActionUpdate:
		targetID, err := s.target.Update(ctx, s.typ, action.TargetID, mapped)
		if err != nil {
			s.log.Warnf("updating %s %d for source %s failed: %s", s.typ, action.TargetID, sourceID, err)
			return Result{SourceID: sourceID, Status: StatusError, Error: err.Error()}
		}

		s.log.Debugf("updated %s %d for source %s", s.typ, targetID, sourceID)
		return Result{SourceID: sourceID, Status: StatusUpdated, Success: true, TargetID: targetID}
	}

	return Result{SourceID: sourceID, Status: StatusSkipped, Error: "no action resolved"}
}

// SyncMany migrates the ids in input order; results keep that order.
func (s *Syncer) SyncMany(ctx context.Context, sourceIDs []string) *Aggregate {
	agg := &Aggregate{}

	s.recordEvent(s.newAuditEvent("sync_start", "", nil))

	for index, sourceID := range sourceIDs {
		s.log.Debugf("progress: %d/%d", index+1, len(sourceIDs))
		agg.add(s.SyncOne(ctx, sourceID))
	}

	s.recordEvent(s.newAuditEvent("sync_end", "", nil))

	s.log.Debugf(
		"sync finished: total %d, successful %d, failed %d",
		agg.Total,
		agg.Successful,
		agg.Failed,
	)

	return agg
}

// Preview projects one source record without writing anything to the
// target. It works for any entity type, including read-only ones, which is
// why it does not go through New's mode check.
func Preview(
	ctx context.Context,
	i *interop.Interop,
	source provider.Source,
	target provider.Target,
	typ entity.Type,
	mappings []mapping.FieldMapping,
	sourceID string,
) (provider.Record, error) {
	record, err := source.GetByID(ctx, typ, sourceID)
	if err != nil {
		return nil, err
	}

	projector := mapping.Projector{Mappings: mappings, Log: i.Logger}

	if typ == entity.Articles {
		if typer, ok := target.(metafieldTyper); ok {
			types, err := typer.MetafieldTypes(ctx)
			if err != nil {
				i.Logger.Warnf("failed to fetch metafield types, using defaults: %s", err)
			} else {
				projector.MetafieldTypes = types
			}
		}
	}

	return projector.Project(record)
}

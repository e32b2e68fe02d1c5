package sync

import (
	"context"

	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
	"github.com/shopmigrate/sw5-shopify-sync/internal/mapping"
	"github.com/shopmigrate/sw5-shopify-sync/internal/provider"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
	ActionSkip   ActionKind = "skip"
)

// Action is the matcher's verdict for one source record: what to do on the
// target, and for updates, which existing record to address.
type Action struct {
	Kind     ActionKind
	TargetID int64

	// Existing is the full target record found by the natural-key lookup,
	// kept so updates can preserve ids inside it (the first variant id).
	Existing provider.Record
}

// Matcher decides create vs update for one source record by resolving the
// entity type's natural key against the target system.
type Matcher struct {
	Target provider.Target
	Type   entity.Type
	Log    *log.Logger
}

// ResolveTarget performs at most one natural-key lookup. In update mode a
// miss is a skip carrying the not-found error; in upsert mode only a true
// miss falls through to create, transport failures surface as errors.
func (m *Matcher) ResolveTarget(
	ctx context.Context,
	source provider.Record,
	mode entity.Mode,
) (*Action, error) {
	if mode == entity.ModeCreate {
		// Duplicate natural keys are the target system's call to reject.
		return &Action{Kind: ActionCreate}, nil
	}

	desc := m.Type.Describe()

	keyValue, _ := mapping.Get(source, desc.NaturalKeyPath)
	key := cast.ToString(keyValue)

	if key == "" {
		err := &provider.NotFoundError{Entity: m.Type, Key: desc.NaturalKeyPath + " is empty"}
		if mode == entity.ModeUpsert {
			m.Log.Debugf(
				"source record has no %s at %s, treating as new",
				desc.NaturalKeyName,
				desc.NaturalKeyPath,
			)
			return &Action{Kind: ActionCreate}, nil
		}
		return &Action{Kind: ActionSkip}, err
	}

	m.Log.Debugf("searching target for existing %s with %s %s", m.Type, desc.NaturalKeyName, key)

	existing, err := m.Target.FindByNaturalKey(ctx, m.Type, key)
	if err != nil {
		if !provider.IsNotFound(err) {
			return nil, err
		}

		if mode == entity.ModeUpsert {
			m.Log.Debugf("no existing %s with %s %s, will create", m.Type, desc.NaturalKeyName, key)
			return &Action{Kind: ActionCreate}, nil
		}

		return &Action{Kind: ActionSkip}, err
	}

	id := cast.ToInt64(existing["id"])
	m.Log.Debugf("found existing %s %d for %s %s", m.Type, id, desc.NaturalKeyName, key)

	return &Action{Kind: ActionUpdate, TargetID: id, Existing: existing}, nil
}

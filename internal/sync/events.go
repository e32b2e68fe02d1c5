package sync

import (
	"github.com/spf13/viper"
)

type auditEvent map[string]interface{}

type eventsConfig struct {
	Enabled   bool
	EventType string
}

func loadEventsConfig() eventsConfig {
	config := eventsConfig{
		Enabled:   viper.GetBool("events.enabled"),
		EventType: viper.GetString("events.eventType"),
	}

	if config.EventType == "" {
		config.EventType = "ShopifySyncEvent"
	}

	return config
}

func (s *Syncer) newAuditEvent(action string, sourceID string, err error) auditEvent {
	event := auditEvent{}

	event["id"] = s.runID.String()
	event["action"] = action
	event["entityType"] = s.typ.String()
	event["mode"] = string(s.mode)
	event["error"] = err != nil
	if err != nil {
		event["errorMessage"] = err.Error()
	}
	if sourceID != "" {
		event["sourceId"] = sourceID
	}

	return event
}

// recordEvent reports the audit event through the New Relic agent. A
// disabled agent drops events silently, so this is safe to call always.
func (s *Syncer) recordEvent(event auditEvent) {
	if !s.eventsConfig.Enabled {
		return
	}

	s.i.App.RecordCustomEvent(s.eventsConfig.EventType, event)
}

// Package scheduler publishes execution requests for active flows whose
// trigger node carries a cron schedule. It is an optional component; flows
// without a schedule are only ever started through the API.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fluxohq/fluxo/pkg/eventbus"
	"github.com/fluxohq/fluxo/pkg/events"
	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/persistence"
)

// DefaultRefreshInterval is how often the scheduler re-scans flow
// definitions for schedule changes.
const DefaultRefreshInterval = time.Minute

type scheduleEntry struct {
	spec    string
	entryID cron.EntryID
}

type Scheduler struct {
	persistence persistence.Persistence
	bus         eventbus.EventPublisher
	logger      *slog.Logger
	cron        *cron.Cron
	refresh     time.Duration

	mu      sync.Mutex
	entries map[string]scheduleEntry
}

func NewScheduler(persistence persistence.Persistence, bus eventbus.EventPublisher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		persistence: persistence,
		bus:         bus,
		logger:      logger.With("module", "scheduler"),
		cron:        cron.New(),
		refresh:     DefaultRefreshInterval,
		entries:     make(map[string]scheduleEntry),
	}
}

// Start performs an initial scan, then keeps the cron table in sync with
// the stored flows until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return err
	}

	s.cron.Start()

	go func() {
		ticker := time.NewTicker(s.refresh)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.cron.Stop()

				return
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil {
					s.logger.ErrorContext(ctx, "Failed to refresh schedules", "error", err)
				}
			}
		}
	}()

	return nil
}

// Refresh reconciles the cron table against the currently active flows.
// Flows that lost their schedule or changed it are re-registered; removed
// flows are dropped.
func (s *Scheduler) Refresh(ctx context.Context) error {
	flows, err := s.persistence.FlowRepository().ListActiveFlows(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(flows))

	for _, flow := range flows {
		spec := scheduleSpec(flow)
		if spec == "" {
			continue
		}

		seen[flow.ID] = true

		existing, ok := s.entries[flow.ID]
		if ok && existing.spec == spec {
			continue
		}

		if ok {
			s.cron.Remove(existing.entryID)
		}

		entryID, err := s.cron.AddFunc(spec, s.dispatchFunc(flow.ID, flow.OrganizationID))
		if err != nil {
			s.logger.ErrorContext(ctx, "Invalid schedule expression, skipping flow",
				"flow_id", flow.ID, "schedule", spec, "error", err)

			continue
		}

		s.entries[flow.ID] = scheduleEntry{spec: spec, entryID: entryID}

		s.logger.InfoContext(ctx, "Flow scheduled", "flow_id", flow.ID, "schedule", spec)
	}

	for flowID, entry := range s.entries {
		if !seen[flowID] {
			s.cron.Remove(entry.entryID)
			delete(s.entries, flowID)

			s.logger.InfoContext(ctx, "Flow unscheduled", "flow_id", flowID)
		}
	}

	return nil
}

func (s *Scheduler) dispatchFunc(flowID, organizationID string) func() {
	return func() {
		ctx := context.Background()

		event := events.FlowExecutionRequested{
			BaseEvent: events.NewBaseEvent(events.FlowExecutionRequestedEvent, flowID, organizationID),
			Payload:   map[string]any{"triggeredBy": "schedule"},
		}

		if err := s.bus.Publish(ctx, flowID, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish scheduled execution", "flow_id", flowID, "error", err)
		}
	}
}

// ScheduledFlows returns the flow ids currently registered in the cron
// table.
func (s *Scheduler) ScheduledFlows() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}

	return ids
}

func scheduleSpec(flow *models.FlowDefinition) string {
	trigger := flow.TriggerNode()
	if trigger == nil {
		return ""
	}

	spec, _ := trigger.Config["schedule"].(string)

	return spec
}

// Package services holds the application facade consumed by the transport
// layer. EditorService routes every slide mutation through the owning
// deck's command history so it can be undone and redone.
package services

import (
	"context"
	"fmt"
	"time"

	"deckgen-backend/application/commands"
	"deckgen-backend/application/ports"
	"deckgen-backend/domain/core/entities"
	"deckgen-backend/domain/core/valueobjects"
	"deckgen-backend/domain/events"
	pkgerrors "deckgen-backend/pkg/errors"
	"deckgen-backend/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// EditResult is the outcome reported to the transport layer. A false
// Success with nil ResultingState means there was nothing to undo or redo;
// history step failures surface as errors instead.
type EditResult struct {
	Success        bool                   `json:"success"`
	Description    string                 `json:"description"`
	ResultingState map[string]interface{} `json:"resultingState"`
}

// HistoryState summarizes a deck's undo/redo position
type HistoryState struct {
	CanUndo      bool `json:"canUndo"`
	CanRedo      bool `json:"canRedo"`
	HistorySize  int  `json:"historySize"`
	CurrentIndex int  `json:"currentIndex"`
	MaxHistory   int  `json:"maxHistory"`
}

// EditorService owns the per-deck command histories and the command
// registry, and wraps every mutation in a reversible command.
type EditorService struct {
	repo      ports.SlideRepository
	histories *commands.HistoryManager
	registry  *commands.Registry
	store     ports.HistoryStore
	eventBus  ports.EventBus
	metrics   *observability.Collector
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewEditorService creates the editor facade. store may be nil when
// history persistence is not configured; metrics may be nil in tests.
func NewEditorService(
	repo ports.SlideRepository,
	histories *commands.HistoryManager,
	registry *commands.Registry,
	store ports.HistoryStore,
	eventBus ports.EventBus,
	metrics *observability.Collector,
	tracer trace.Tracer,
	logger *zap.Logger,
) *EditorService {
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("deckgen")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorService{
		repo:      repo,
		histories: histories,
		registry:  registry,
		store:     store,
		eventBus:  eventBus,
		metrics:   metrics,
		tracer:    tracer,
		logger:    logger,
	}
}

// Registry exposes the command registry so the surrounding platform can
// register additional command types.
func (s *EditorService) Registry() *commands.Registry { return s.registry }

// CreateSlide inserts a new slide through a reversible command. When the
// fields carry no explicit order the slide is appended at the end of the
// deck, so that a later redo re-creates it at the same position.
func (s *EditorService) CreateSlide(ctx context.Context, deckID valueobjects.DeckID, fields map[string]interface{}) (*EditResult, error) {
	ctx, span := s.tracer.Start(ctx, "EditorService.CreateSlide",
		trace.WithAttributes(attribute.String("deck.id", deckID.String())))
	defer span.End()

	if fields == nil {
		fields = map[string]interface{}{}
	}
	if _, ok := fields[entities.FieldOrder]; !ok {
		count, err := s.repo.CountByDeck(ctx, deckID)
		if err != nil {
			return nil, err
		}
		fields[entities.FieldOrder] = count
	}

	cmd, err := commands.NewCreateSlideCommand(deckID, fields)
	if err != nil {
		return nil, err
	}
	if err := s.execute(ctx, deckID, cmd); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewSlideCreated(cmd.CreatedSlideID(), deckID, orderFromFields(fields), time.Now()))
	return s.result(ctx, cmd)
}

// UpdateSlide applies a partial field update through a reversible command
func (s *EditorService) UpdateSlide(ctx context.Context, deckID valueobjects.DeckID, slideID valueobjects.SlideID, updates map[string]interface{}) (*EditResult, error) {
	ctx, span := s.tracer.Start(ctx, "EditorService.UpdateSlide",
		trace.WithAttributes(
			attribute.String("deck.id", deckID.String()),
			attribute.String("slide.id", slideID.String()),
		))
	defer span.End()

	cmd, err := commands.NewUpdateSlideCommand(slideID, updates)
	if err != nil {
		return nil, err
	}
	if err := s.execute(ctx, deckID, cmd); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewSlideUpdated(slideID, deckID, cmd.UpdatedFieldNames(), time.Now()))
	return s.result(ctx, cmd)
}

// DeleteSlide removes a slide through a reversible command
func (s *EditorService) DeleteSlide(ctx context.Context, deckID valueobjects.DeckID, slideID valueobjects.SlideID) (*EditResult, error) {
	ctx, span := s.tracer.Start(ctx, "EditorService.DeleteSlide",
		trace.WithAttributes(
			attribute.String("deck.id", deckID.String()),
			attribute.String("slide.id", slideID.String()),
		))
	defer span.End()

	cmd, err := commands.NewDeleteSlideCommand(slideID)
	if err != nil {
		return nil, err
	}
	if err := s.execute(ctx, deckID, cmd); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewSlideDeleted(slideID, deckID, time.Now()))
	return s.result(ctx, cmd)
}

// MoveSlide changes a slide's position through a reversible command
func (s *EditorService) MoveSlide(ctx context.Context, deckID valueobjects.DeckID, slideID valueobjects.SlideID, newOrder int) (*EditResult, error) {
	ctx, span := s.tracer.Start(ctx, "EditorService.MoveSlide",
		trace.WithAttributes(
			attribute.String("deck.id", deckID.String()),
			attribute.String("slide.id", slideID.String()),
			attribute.Int("slide.order", newOrder),
		))
	defer span.End()

	cmd, err := commands.NewMoveSlideCommand(slideID, newOrder)
	if err != nil {
		return nil, err
	}
	if err := s.execute(ctx, deckID, cmd); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewSlideMoved(slideID, deckID, cmd.PreviousOrder(), cmd.NewOrder(), time.Now()))
	return s.result(ctx, cmd)
}

// Undo reverses the deck's most recent applied command. A deck with
// nothing to undo yields Success=false with a nil resulting state, not an
// error.
func (s *EditorService) Undo(ctx context.Context, deckID valueobjects.DeckID) (*EditResult, error) {
	ctx, span := s.tracer.Start(ctx, "EditorService.Undo",
		trace.WithAttributes(attribute.String("deck.id", deckID.String())))
	defer span.End()

	var cmd commands.Command
	err := s.histories.WithHistory(deckID, func(h *commands.CommandHistory) error {
		var stepErr error
		cmd, stepErr = h.Undo(ctx, s.repo)
		return stepErr
	})
	s.observeStep(err, "undo")
	if err != nil {
		return nil, err
	}
	if cmd == nil {
		return &EditResult{Success: false, Description: "nothing to undo"}, nil
	}

	s.publish(ctx, events.NewEditReverted(deckID, cmd.CommandType(), "undo", time.Now()))
	state := s.resultingState(ctx, cmd)
	return &EditResult{
		Success:        true,
		Description:    fmt.Sprintf("undid %s", cmd.Description()),
		ResultingState: state,
	}, nil
}

// Redo replays the deck's most recently undone command. A deck with
// nothing to redo yields Success=false with a nil resulting state.
func (s *EditorService) Redo(ctx context.Context, deckID valueobjects.DeckID) (*EditResult, error) {
	ctx, span := s.tracer.Start(ctx, "EditorService.Redo",
		trace.WithAttributes(attribute.String("deck.id", deckID.String())))
	defer span.End()

	var cmd commands.Command
	err := s.histories.WithHistory(deckID, func(h *commands.CommandHistory) error {
		var stepErr error
		cmd, stepErr = h.Redo(ctx, s.repo)
		return stepErr
	})
	s.observeStep(err, "redo")
	if err != nil {
		return nil, err
	}
	if cmd == nil {
		return &EditResult{Success: false, Description: "nothing to redo"}, nil
	}

	s.publish(ctx, events.NewEditReverted(deckID, cmd.CommandType(), "redo", time.Now()))
	state := s.resultingState(ctx, cmd)
	return &EditResult{
		Success:        true,
		Description:    fmt.Sprintf("redid %s", cmd.Description()),
		ResultingState: state,
	}, nil
}

// UndoMany performs up to k undo steps, returning one result per step
// performed. Steps completed before a failure are kept; the error reports
// the failing step.
func (s *EditorService) UndoMany(ctx context.Context, deckID valueobjects.DeckID, k int) ([]EditResult, error) {
	ctx, span := s.tracer.Start(ctx, "EditorService.UndoMany",
		trace.WithAttributes(attribute.String("deck.id", deckID.String()), attribute.Int("steps", k)))
	defer span.End()

	var done []commands.Command
	err := s.histories.WithHistory(deckID, func(h *commands.CommandHistory) error {
		var stepErr error
		done, stepErr = h.UndoMany(ctx, s.repo, k)
		return stepErr
	})

	results := make([]EditResult, 0, len(done))
	for _, cmd := range done {
		s.observeStep(nil, "undo")
		results = append(results, EditResult{
			Success:     true,
			Description: fmt.Sprintf("undid %s", cmd.Description()),
		})
	}
	if err != nil {
		s.observeStep(err, "undo")
	}
	return results, err
}

// RedoMany performs up to k redo steps, returning one result per step
// performed.
func (s *EditorService) RedoMany(ctx context.Context, deckID valueobjects.DeckID, k int) ([]EditResult, error) {
	ctx, span := s.tracer.Start(ctx, "EditorService.RedoMany",
		trace.WithAttributes(attribute.String("deck.id", deckID.String()), attribute.Int("steps", k)))
	defer span.End()

	var done []commands.Command
	err := s.histories.WithHistory(deckID, func(h *commands.CommandHistory) error {
		var stepErr error
		done, stepErr = h.RedoMany(ctx, s.repo, k)
		return stepErr
	})

	results := make([]EditResult, 0, len(done))
	for _, cmd := range done {
		s.observeStep(nil, "redo")
		results = append(results, EditResult{
			Success:     true,
			Description: fmt.Sprintf("redid %s", cmd.Description()),
		})
	}
	if err != nil {
		s.observeStep(err, "redo")
	}
	return results, err
}

// History reports the deck's current undo/redo position
func (s *EditorService) History(deckID valueobjects.DeckID) HistoryState {
	var state HistoryState
	s.histories.WithHistory(deckID, func(h *commands.CommandHistory) error {
		state = HistoryState{
			CanUndo:      h.CanUndo(),
			CanRedo:      h.CanRedo(),
			HistorySize:  h.Size(),
			CurrentIndex: h.Cursor(),
			MaxHistory:   h.MaxHistory(),
		}
		return nil
	})
	return state
}

// ClearHistory discards the deck's history bookkeeping. Document state is
// untouched: pending commands are not undone.
func (s *EditorService) ClearHistory(deckID valueobjects.DeckID) {
	s.histories.WithHistory(deckID, func(h *commands.CommandHistory) error {
		h.Clear()
		return nil
	})
}

// ListSlides returns the deck's slides in presentation order
func (s *EditorService) ListSlides(ctx context.Context, deckID valueobjects.DeckID) ([]*entities.Slide, error) {
	return s.repo.ListByDeck(ctx, deckID)
}

// GetSlide returns a single slide
func (s *EditorService) GetSlide(ctx context.Context, slideID valueobjects.SlideID) (*entities.Slide, error) {
	return s.repo.GetByID(ctx, slideID)
}

// PersistHistory serializes the deck's history into the configured store
func (s *EditorService) PersistHistory(ctx context.Context, deckID valueobjects.DeckID) error {
	if s.store == nil {
		return pkgerrors.NewInternalError("no history store configured")
	}

	var snapshot *ports.HistorySnapshot
	err := s.histories.WithHistory(deckID, func(h *commands.CommandHistory) error {
		var serErr error
		snapshot, serErr = h.Serialize()
		return serErr
	})
	if err != nil {
		return err
	}
	return s.store.Save(ctx, deckID, snapshot)
}

// RestoreHistory loads the deck's persisted history, replacing whatever is
// currently tracked in memory. Commands with unregistered type tags are
// dropped during materialization.
func (s *EditorService) RestoreHistory(ctx context.Context, deckID valueobjects.DeckID) error {
	if s.store == nil {
		return pkgerrors.NewInternalError("no history store configured")
	}

	snapshot, err := s.store.Load(ctx, deckID)
	if err != nil {
		return err
	}
	history, err := commands.MaterializeHistory(snapshot, s.registry)
	if err != nil {
		return err
	}
	s.histories.Replace(deckID, history)
	return nil
}

// execute runs a command through the deck's history under the per-deck
// lock and records metrics.
func (s *EditorService) execute(ctx context.Context, deckID valueobjects.DeckID, cmd commands.Command) error {
	var depth int
	err := s.histories.WithHistory(deckID, func(h *commands.CommandHistory) error {
		execErr := h.Execute(ctx, s.repo, cmd)
		depth = h.Size()
		return execErr
	})

	if s.metrics != nil {
		s.metrics.ObserveCommand(cmd.CommandType(), err)
		if err == nil {
			s.metrics.HistoryDepth.Observe(float64(depth))
		}
	}
	if err != nil {
		s.logger.Warn("command execution failed",
			zap.String("deckID", deckID.String()),
			zap.String("commandType", cmd.CommandType()),
			zap.Error(err),
		)
		return err
	}

	s.logger.Debug("command executed",
		zap.String("deckID", deckID.String()),
		zap.String("commandType", cmd.CommandType()),
		zap.String("commandID", cmd.ID()),
	)
	return nil
}

// result builds the EditResult for a freshly executed mutation
func (s *EditorService) result(ctx context.Context, cmd commands.Command) (*EditResult, error) {
	return &EditResult{
		Success:        true,
		Description:    cmd.Description(),
		ResultingState: s.resultingState(ctx, cmd),
	}, nil
}

// resultingState resolves the current state of the slide a command
// touches. A slide that no longer exists (undone create, executed delete)
// yields nil.
func (s *EditorService) resultingState(ctx context.Context, cmd commands.Command) map[string]interface{} {
	slideID, ok := affectedSlideID(cmd)
	if !ok {
		return nil
	}
	slide, err := s.repo.GetByID(ctx, slideID)
	if err != nil {
		return nil
	}
	return SlideView(slide)
}

// SlideView flattens a slide entity into the transport representation
func SlideView(slide *entities.Slide) map[string]interface{} {
	return map[string]interface{}{
		"id":         slide.ID().String(),
		"deckId":     slide.DeckID().String(),
		"order":      slide.Order(),
		"title":      slide.Title(),
		"body":       slide.Body(),
		"layout":     string(slide.Layout()),
		"notes":      slide.Notes(),
		"background": slide.Background(),
		"version":    slide.Version(),
		"updatedAt":  slide.UpdatedAt(),
	}
}

// affectedSlideID extracts the slide identifier a command operates on
func affectedSlideID(cmd commands.Command) (valueobjects.SlideID, bool) {
	switch c := cmd.(type) {
	case *commands.CreateSlideCommand:
		return c.CreatedSlideID(), !c.CreatedSlideID().IsZero()
	case *commands.UpdateSlideCommand:
		return c.SlideID(), true
	case *commands.DeleteSlideCommand:
		return c.SlideID(), true
	case *commands.MoveSlideCommand:
		return c.SlideID(), true
	}
	return valueobjects.SlideID{}, false
}

// publish delivers a domain event; publishing failures are logged, never
// propagated to the editing path.
func (s *EditorService) publish(ctx context.Context, event events.DomainEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish domain event",
			zap.String("eventType", event.GetEventType()),
			zap.Error(err),
		)
	}
}

// observeStep records an undo/redo metric
func (s *EditorService) observeStep(err error, direction string) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	if direction == "undo" {
		s.metrics.UndoOperations.WithLabelValues(status).Inc()
	} else {
		s.metrics.RedoOperations.WithLabelValues(status).Inc()
	}
}

// orderFromFields reads the order index recorded in a create command's
// field map.
func orderFromFields(fields map[string]interface{}) int {
	if v, ok := fields[entities.FieldOrder]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return 0
}

// Package rotation provides the application layer for the menu rotation
// This implements the use cases defined in the inbound ports
package rotation

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/alchemorsel/kitchenops/internal/application/analysis"
	"github.com/alchemorsel/kitchenops/internal/application/demand"
	"github.com/alchemorsel/kitchenops/internal/application/optimization"
	"github.com/alchemorsel/kitchenops/internal/domain/composition"
	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/alchemorsel/kitchenops/internal/domain/scaling"
	"github.com/alchemorsel/kitchenops/internal/domain/shared"
	"github.com/alchemorsel/kitchenops/internal/ports/inbound"
	"github.com/alchemorsel/kitchenops/internal/ports/outbound"
	"github.com/alchemorsel/kitchenops/pkg/errors"
)

// Recorder receives business metrics
type Recorder interface {
	RecordSwapApplied()
	RecordStaleProposal()
	RecordCycleRejected()
	RecordProposal(source string)
	RecordAnalysis(templateID string, fill int, duration time.Duration)
	RecordCache(result string)
}

// Settings are the service-level knobs
type Settings struct {
	DefaultWeekCount int
	AnalysisTTL      time.Duration
}

// Dependencies groups everything the service needs
type Dependencies struct {
	Templates outbound.TemplateRepository
	Slots     outbound.SlotRepository
	Recipes   outbound.RecipeRepository
	Links     outbound.SubRecipeLinkRepository
	Cache     outbound.CacheRepository
	Events    outbound.EventPublisher

	Graph     *composition.Graph
	Analyzer  *analysis.Engine
	Optimizer *optimization.Engine
	Scaler    *scaling.Engine
	Demand    *demand.Aggregator

	Metrics Recorder
	Tracer  trace.Tracer
	Logger  *zap.Logger
}

// RotationService implements the rotation use cases
type RotationService struct {
	Dependencies
	settings Settings
	logger   *zap.Logger
}

// NewRotationService creates a new rotation service
func NewRotationService(deps Dependencies, settings Settings) *RotationService {
	if settings.DefaultWeekCount < 1 {
		settings.DefaultWeekCount = 6
	}
	return &RotationService{
		Dependencies: deps,
		settings:     settings,
		logger:       deps.Logger.Named("rotation-service"),
	}
}

var _ inbound.RotationService = (*RotationService)(nil)

// CreateTemplate creates a new rotation template
func (s *RotationService) CreateTemplate(ctx context.Context, cmd inbound.CreateTemplateCommand) (_ *inbound.TemplateDTO, err error) {
	ctx, span := s.start(ctx, "create_template")
	defer func() { s.end(span, err) }()

	weeks := cmd.WeekCount
	if weeks == 0 {
		weeks = s.settings.DefaultWeekCount
	}
	t, err := rotation.NewTemplate(cmd.Name, weeks, cmd.Locations...)
	if err != nil {
		return nil, s.translate(err, "create template")
	}
	if err := s.Templates.Create(ctx, t); err != nil {
		return nil, errors.NewDatabaseError("create template", err)
	}
	s.publish(ctx, t.Events()...)

	s.logger.Info("Rotation template created",
		zap.String("template_id", t.ID().String()),
		zap.Int("week_count", t.WeekCount()),
		zap.Int("locations", len(t.Locations())),
	)
	return inbound.NewTemplateDTO(t), nil
}

// GetTemplate returns a template
func (s *RotationService) GetTemplate(ctx context.Context, templateID uuid.UUID) (*inbound.TemplateDTO, error) {
	t, err := s.template(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return inbound.NewTemplateDTO(t), nil
}

// AddLocation activates a location on a template
func (s *RotationService) AddLocation(ctx context.Context, templateID, locationID uuid.UUID) (_ *inbound.TemplateDTO, err error) {
	ctx, span := s.start(ctx, "add_location", attribute.String("template.id", templateID.String()))
	defer func() { s.end(span, err) }()

	t, err := s.template(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if err := t.AddLocation(locationID); err != nil {
		return nil, s.translate(err, "add location")
	}
	if err := s.Templates.Update(ctx, t); err != nil {
		return nil, errors.NewDatabaseError("update template", err)
	}
	s.invalidate(ctx, templateID)
	s.publish(ctx, t.Events()...)
	return inbound.NewTemplateDTO(t), nil
}

// RemoveLocation deactivates a location that no slot references
func (s *RotationService) RemoveLocation(ctx context.Context, templateID, locationID uuid.UUID) (_ *inbound.TemplateDTO, err error) {
	ctx, span := s.start(ctx, "remove_location", attribute.String("template.id", templateID.String()))
	defer func() { s.end(span, err) }()

	t, err := s.template(ctx, templateID)
	if err != nil {
		return nil, err
	}
	inUse, err := s.Slots.CountByLocation(ctx, templateID, locationID)
	if err != nil {
		return nil, errors.NewDatabaseError("count slots", err)
	}
	if err := t.RemoveLocation(locationID, inUse); err != nil {
		return nil, s.translate(err, "remove location")
	}
	if err := s.Templates.Update(ctx, t); err != nil {
		return nil, errors.NewDatabaseError("update template", err)
	}
	s.invalidate(ctx, templateID)
	s.publish(ctx, t.Events()...)
	return inbound.NewTemplateDTO(t), nil
}

// RenderCalendarWeek projects the rotation week for an ISO week onto dates
func (s *RotationService) RenderCalendarWeek(ctx context.Context, templateID uuid.UUID, year, isoWeek int) (_ *inbound.CalendarWeekDTO, err error) {
	ctx, span := s.start(ctx, "render_calendar_week",
		attribute.String("template.id", templateID.String()),
		attribute.Int("calendar.year", year),
		attribute.Int("calendar.week", isoWeek),
	)
	defer func() { s.end(span, err) }()

	t, err := s.template(ctx, templateID)
	if err != nil {
		return nil, err
	}
	monday, sunday, err := rotation.WeekDateRange(year, isoWeek)
	if err != nil {
		return nil, s.translate(err, "resolve week")
	}
	weekNr, err := rotation.RotationWeekNr(isoWeek, t.WeekCount())
	if err != nil {
		return nil, s.translate(err, "resolve rotation week")
	}

	slots, err := s.Slots.ListByWeek(ctx, templateID, weekNr)
	if err != nil {
		return nil, errors.NewDatabaseError("list slots", err)
	}

	entries := make([]rotation.MenuPlanEntry, 0, len(slots))
	for _, slot := range slots {
		if !slot.Filled() {
			continue
		}
		entries = append(entries, rotation.MenuPlanEntry{
			Date:           rotation.DateForDayOfWeek(monday, slot.Key.Day),
			Meal:           slot.Key.Meal,
			Course:         slot.Key.Course,
			RecipeID:       slot.RecipeID,
			Portions:       slot.Portions,
			LocationID:     slot.Key.LocationID,
			RotationWeekNr: weekNr,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Meal != b.Meal {
			return a.Meal.Index() < b.Meal.Index()
		}
		if a.Course != b.Course {
			return a.Course.Index() < b.Course.Index()
		}
		return a.LocationID.String() < b.LocationID.String()
	})

	dto := &inbound.CalendarWeekDTO{
		Year:           year,
		Week:           isoWeek,
		RotationWeekNr: weekNr,
		Monday:         monday.Format(inbound.DateLayout),
		Sunday:         sunday.Format(inbound.DateLayout),
		Entries:        make([]inbound.MenuPlanEntryDTO, 0, len(entries)),
	}
	for _, e := range entries {
		dto.Entries = append(dto.Entries, inbound.MenuPlanEntryDTO{
			Date:           e.Date.Format(inbound.DateLayout),
			Meal:           e.Meal,
			Course:         e.Course,
			RecipeID:       int64(e.RecipeID),
			Portions:       e.Portions,
			LocationID:     e.LocationID,
			RotationWeekNr: e.RotationWeekNr,
		})
	}
	return dto, nil
}

// GetSlot returns one slot, unfilled slots included
func (s *RotationService) GetSlot(ctx context.Context, key rotation.SlotKey) (*inbound.SlotDTO, error) {
	t, err := s.template(ctx, key.TemplateID)
	if err != nil {
		return nil, err
	}
	if err := s.checkKey(t, key); err != nil {
		return nil, err
	}
	slot, err := s.Slots.Get(ctx, key)
	if err != nil {
		return nil, errors.NewDatabaseError("get slot", err)
	}
	return inbound.NewSlotDTO(key, slot), nil
}

// PutSlot assigns a recipe to a slot
func (s *RotationService) PutSlot(ctx context.Context, cmd inbound.PutSlotCommand) (_ *inbound.SlotDTO, err error) {
	ctx, span := s.start(ctx, "put_slot", attribute.String("slot", cmd.Key.String()))
	defer func() { s.end(span, err) }()

	if cmd.RecipeID == recipe.None {
		if err := s.ClearSlot(ctx, cmd.Key); err != nil {
			return nil, err
		}
		return inbound.NewSlotDTO(cmd.Key, nil), nil
	}

	t, err := s.template(ctx, cmd.Key.TemplateID)
	if err != nil {
		return nil, err
	}
	portions := cmd.Portions
	if portions == 0 {
		portions = 1
	}
	slot := rotation.Slot{Key: cmd.Key, RecipeID: cmd.RecipeID, Portions: portions}
	if err := slot.Validate(t.WeekCount()); err != nil {
		return nil, s.translate(err, "validate slot")
	}
	if err := s.checkKey(t, cmd.Key); err != nil {
		return nil, err
	}
	if _, err := s.Recipes.FindByID(ctx, cmd.RecipeID); err != nil {
		if stderrors.Is(err, recipe.ErrRecipeNotFound) {
			return nil, errors.NewRecipeNotFoundError(int64(cmd.RecipeID))
		}
		return nil, errors.NewDatabaseError("find recipe", err)
	}

	if err := s.Slots.Put(ctx, slot); err != nil {
		return nil, errors.NewDatabaseError("put slot", err)
	}
	s.invalidate(ctx, t.ID())
	s.publish(ctx, rotation.SlotAssignedEvent{Key: slot.Key, RecipeID: slot.RecipeID, Portions: slot.Portions, AssignedAt: time.Now()})
	return inbound.NewSlotDTO(slot.Key, &slot), nil
}

// ClearSlot removes the assignment of a slot
func (s *RotationService) ClearSlot(ctx context.Context, key rotation.SlotKey) error {
	t, err := s.template(ctx, key.TemplateID)
	if err != nil {
		return err
	}
	if err := s.checkKey(t, key); err != nil {
		return err
	}
	if err := s.Slots.Delete(ctx, key); err != nil {
		return errors.NewDatabaseError("delete slot", err)
	}
	s.invalidate(ctx, t.ID())
	s.publish(ctx, rotation.SlotAssignedEvent{Key: key, RecipeID: recipe.None, AssignedAt: time.Now()})
	return nil
}

// Analyze returns the analysis bundle, from cache when fresh
func (s *RotationService) Analyze(ctx context.Context, templateID uuid.UUID) (_ *analysis.Bundle, err error) {
	ctx, span := s.start(ctx, "analyze", attribute.String("template.id", templateID.String()))
	defer func() { s.end(span, err) }()

	key := analysisCacheKey(templateID)
	if data, err := s.Cache.Get(ctx, key); err == nil {
		var bundle analysis.Bundle
		if err := json.Unmarshal(data, &bundle); err == nil {
			s.Metrics.RecordCache("hit")
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &bundle, nil
		}
		s.Metrics.RecordCache("error")
	} else if stderrors.Is(err, outbound.ErrCacheMiss) {
		s.Metrics.RecordCache("miss")
	} else {
		s.Metrics.RecordCache("error")
		s.logger.Warn("Analysis cache unavailable", zap.Error(err))
	}

	t, err := s.template(ctx, templateID)
	if err != nil {
		return nil, err
	}
	slots, err := s.Slots.ListByTemplate(ctx, templateID)
	if err != nil {
		return nil, errors.NewDatabaseError("list slots", err)
	}
	recipes, err := s.Recipes.FindByIDs(ctx, distinctRecipes(slots))
	if err != nil {
		return nil, errors.NewDatabaseError("find recipes", err)
	}

	started := time.Now()
	bundle := s.Analyzer.Analyze(t, slots, recipes)
	s.Metrics.RecordAnalysis(templateID.String(), bundle.FillPercentage, time.Since(started))

	if data, err := json.Marshal(bundle); err == nil {
		if err := s.Cache.Set(ctx, key, data, s.settings.AnalysisTTL); err != nil {
			s.logger.Warn("Failed to cache analysis", zap.Error(err))
		}
	}
	return bundle, nil
}

// ProposeOptimization computes a ranked list of swaps without writing
func (s *RotationService) ProposeOptimization(ctx context.Context, cmd inbound.ProposeCommand) (_ *optimization.Proposal, err error) {
	ctx, span := s.start(ctx, "propose", attribute.String("template.id", cmd.TemplateID.String()))
	defer func() { s.end(span, err) }()

	t, err := s.template(ctx, cmd.TemplateID)
	if err != nil {
		return nil, err
	}
	proposal, err := s.Optimizer.Propose(ctx, t, cmd.Focus, cmd.Swaps)
	if err != nil {
		return nil, s.translate(err, "propose swaps")
	}

	source := "provider"
	if len(cmd.Swaps) > 0 {
		source = "external"
	}
	s.Metrics.RecordProposal(source)
	span.SetAttributes(attribute.Int("proposal.swaps", len(proposal.Swaps)))
	return proposal, nil
}

// ApplySwap applies a single swap with compare-and-swap semantics
func (s *RotationService) ApplySwap(ctx context.Context, templateID uuid.UUID, swap rotation.SuggestedSwap) (_ *optimization.AppliedSwap, err error) {
	ctx, span := s.start(ctx, "apply_swap",
		attribute.String("template.id", templateID.String()),
		attribute.String("swap", swap.String()),
	)
	defer func() { s.end(span, err) }()

	t, err := s.template(ctx, templateID)
	if err != nil {
		return nil, err
	}
	applied, err := s.Optimizer.Apply(ctx, t, swap)
	switch {
	case err == nil:
	case stderrors.Is(err, rotation.ErrStaleProposal):
		s.Metrics.RecordStaleProposal()
		return nil, errors.NewStaleProposalError(swap.String(), err)
	default:
		return nil, s.translate(err, "apply swap")
	}

	s.Metrics.RecordSwapApplied()
	s.invalidate(ctx, templateID)
	s.publish(ctx, rotation.SwapAppliedEvent{
		Key:          applied.Key,
		FromRecipeID: applied.FromRecipeID,
		ToRecipeID:   applied.ToRecipeID,
		Reason:       applied.Reason,
		AppliedAt:    applied.AppliedAt,
	})
	return applied, nil
}

// LinkSubRecipe stores a composition edge after the cycle check
func (s *RotationService) LinkSubRecipe(ctx context.Context, cmd inbound.LinkSubRecipeCommand) (err error) {
	ctx, span := s.start(ctx, "link_sub_recipe",
		attribute.Int64("recipe.parent", int64(cmd.ParentID)),
		attribute.Int64("recipe.child", int64(cmd.ChildID)),
	)
	defer func() { s.end(span, err) }()

	link := recipe.SubRecipeLink{ParentID: cmd.ParentID, ChildID: cmd.ChildID, PortionMultiplier: cmd.PortionMultiplier}
	if err := link.Validate(); err != nil {
		return s.translate(err, "validate link")
	}
	for _, id := range []recipe.ID{cmd.ParentID, cmd.ChildID} {
		if _, err := s.Recipes.FindByID(ctx, id); err != nil {
			if stderrors.Is(err, recipe.ErrRecipeNotFound) {
				return errors.NewRecipeNotFoundError(int64(id))
			}
			return errors.NewDatabaseError("find recipe", err)
		}
	}

	if err := s.Graph.ValidateLink(ctx, cmd.ParentID, cmd.ChildID); err != nil {
		if stderrors.Is(err, composition.ErrCycleRejected) {
			s.Metrics.RecordCycleRejected()
			return errors.NewCycleRejectedError(int64(cmd.ParentID), int64(cmd.ChildID), err)
		}
		return s.translate(err, "check composition")
	}
	if err := s.Links.Create(ctx, link); err != nil {
		return errors.NewDatabaseError("create sub-recipe link", err)
	}
	s.logger.Info("Sub-recipe linked",
		zap.Int64("parent_id", int64(cmd.ParentID)),
		zap.Int64("child_id", int64(cmd.ChildID)),
		zap.Float64("multiplier", cmd.PortionMultiplier),
	)
	return nil
}

// PreviewScaling scales a free-form ingredient without storing anything
func (s *RotationService) PreviewScaling(ctx context.Context, cmd inbound.PreviewScalingCommand) (*scaling.Result, error) {
	res, err := s.Scaler.Preview(cmd.Name, cmd.Quantity, cmd.Unit, cmd.FromPortions, cmd.ToPortions)
	if err != nil {
		return nil, s.translate(err, "scale")
	}
	return &res, nil
}

// WeeklyDemand totals the ingredients of the rotation week behind an ISO week
func (s *RotationService) WeeklyDemand(ctx context.Context, templateID uuid.UUID, year, isoWeek int) (_ *inbound.DemandDTO, err error) {
	ctx, span := s.start(ctx, "weekly_demand", attribute.String("template.id", templateID.String()))
	defer func() { s.end(span, err) }()

	t, err := s.template(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if _, _, err := rotation.WeekDateRange(year, isoWeek); err != nil {
		return nil, s.translate(err, "resolve week")
	}
	weekNr, err := rotation.RotationWeekNr(isoWeek, t.WeekCount())
	if err != nil {
		return nil, s.translate(err, "resolve rotation week")
	}
	slots, err := s.Slots.ListByWeek(ctx, templateID, weekNr)
	if err != nil {
		return nil, errors.NewDatabaseError("list slots", err)
	}
	lines, err := s.Demand.ForSlots(ctx, slots)
	if err != nil {
		return nil, s.translate(err, "aggregate demand")
	}
	return &inbound.DemandDTO{Year: year, Week: isoWeek, RotationWeekNr: weekNr, Lines: lines}, nil
}

func (s *RotationService) template(ctx context.Context, id uuid.UUID) (*rotation.Template, error) {
	t, err := s.Templates.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, rotation.ErrTemplateNotFound) {
			return nil, errors.NewTemplateNotFoundError(id.String())
		}
		return nil, errors.NewDatabaseError("find template", err)
	}
	return t, nil
}

func (s *RotationService) checkKey(t *rotation.Template, key rotation.SlotKey) error {
	if err := key.Validate(t.WeekCount()); err != nil {
		return s.translate(err, "validate slot key")
	}
	if !t.HasLocation(key.LocationID) {
		return s.translate(fmt.Errorf("%w: %s", rotation.ErrUnknownLocation, key.LocationID), "validate slot key")
	}
	return nil
}

func (s *RotationService) invalidate(ctx context.Context, templateID uuid.UUID) {
	if err := s.Cache.Delete(ctx, analysisCacheKey(templateID)); err != nil {
		s.logger.Warn("Failed to invalidate analysis cache",
			zap.String("template_id", templateID.String()),
			zap.Error(err),
		)
	}
}

func (s *RotationService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if len(events) == 0 || s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish events", zap.Int("count", len(events)), zap.Error(err))
	}
}

func (s *RotationService) start(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.Tracer.Start(ctx, "rotation."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

func (s *RotationService) end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// translate maps domain errors onto application error codes
func (s *RotationService) translate(err error, operation string) error {
	var appErr *errors.AppError
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, rotation.ErrTemplateNotFound):
		return errors.NewNotFoundError("Rotation template").WithCause(err)
	case stderrors.Is(err, recipe.ErrRecipeNotFound):
		return errors.NewNotFoundError("Recipe").WithCause(err)
	case stderrors.Is(err, rotation.ErrStaleProposal):
		return errors.NewAppError(errors.CodeStaleProposal, "Stale proposal", err.Error()).WithCause(err)
	case stderrors.Is(err, composition.ErrCycleRejected):
		s.Metrics.RecordCycleRejected()
		return errors.NewAppError(errors.CodeCycleRejected, "Cyclic recipe composition rejected", err.Error()).WithCause(err)
	case stderrors.Is(err, scaling.ErrNonPositivePortions):
		return errors.NewScalingDomainError(err)
	case rotation.IsValidation(err), isRecipeValidation(err),
		stderrors.Is(err, composition.ErrTraversalBudget):
		return errors.NewValidationError(err.Error()).WithCause(err)
	default:
		s.logger.Error("Operation failed", zap.String("operation", operation), zap.Error(err))
		return errors.NewDatabaseError(operation, err)
	}
}

func isRecipeValidation(err error) bool {
	for _, target := range []error{
		recipe.ErrInvalidRecipeID, recipe.ErrInvalidMultiplier, recipe.ErrInvalidPortions,
		recipe.ErrNameRequired, recipe.ErrInvalidSeason,
	} {
		if stderrors.Is(err, target) {
			return true
		}
	}
	return false
}

func analysisCacheKey(templateID uuid.UUID) string {
	return "analysis:" + templateID.String()
}

func distinctRecipes(slots []rotation.Slot) []recipe.ID {
	seen := map[recipe.ID]bool{}
	var ids []recipe.ID
	for _, s := range slots {
		if s.Filled() && !seen[s.RecipeID] {
			seen[s.RecipeID] = true
			ids = append(ids, s.RecipeID)
		}
	}
	return ids
}

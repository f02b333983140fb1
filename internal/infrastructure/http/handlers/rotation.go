package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alchemorsel/kitchenops/internal/application/optimization"
	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/alchemorsel/kitchenops/internal/ports/inbound"
	"github.com/alchemorsel/kitchenops/pkg/errors"
)

// RotationHandlers serves the rotation API
type RotationHandlers struct {
	service   inbound.RotationService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRotationHandlers creates the handlers
func NewRotationHandlers(service inbound.RotationService, logger *zap.Logger) *RotationHandlers {
	return &RotationHandlers{
		service:   service,
		validator: newValidator(),
		logger:    logger.Named("rotation-api"),
	}
}

// Routes mounts the handlers on r
func (h *RotationHandlers) Routes(r chi.Router) {
	r.Route("/templates", func(r chi.Router) {
		r.Post("/", h.CreateTemplate)
		r.Route("/{templateID}", func(r chi.Router) {
			r.Get("/", h.GetTemplate)
			r.Post("/locations", h.AddLocation)
			r.Delete("/locations/{locationID}", h.RemoveLocation)
			r.Get("/calendar/{year}/{week}", h.RenderCalendarWeek)
			r.Route("/slots/{week}/{day}/{meal}/{course}/{locationID}", func(r chi.Router) {
				r.Get("/", h.GetSlot)
				r.Put("/", h.PutSlot)
				r.Delete("/", h.ClearSlot)
			})
			r.Get("/analysis", h.Analyze)
			r.Post("/proposals", h.ProposeOptimization)
			r.Post("/swaps", h.ApplySwap)
			r.Get("/demand/{year}/{week}", h.WeeklyDemand)
		})
	})
	r.Post("/recipes/{recipeID}/sub-recipes", h.LinkSubRecipe)
	r.Post("/scaling/preview", h.PreviewScaling)
}

// Request bodies

type createTemplateRequest struct {
	Name      string   `json:"name" validate:"required,max=200"`
	WeekCount int      `json:"week_count" validate:"omitempty,min=1,max=52"`
	Locations []string `json:"locations" validate:"dive,uuid"`
}

type addLocationRequest struct {
	LocationID string `json:"location_id" validate:"required,uuid"`
}

type putSlotRequest struct {
	RecipeID int64 `json:"recipe_id" validate:"min=0"`
	Portions int   `json:"portions" validate:"min=0"`
}

// swapPayload is the wire form of a suggested swap, used both ways
type swapPayload struct {
	WeekNr            int        `json:"week_nr" validate:"min=1"`
	Day               int        `json:"day" validate:"min=0,max=6"`
	Meal              string     `json:"meal" validate:"required"`
	Course            string     `json:"course" validate:"required"`
	LocationID        *uuid.UUID `json:"location_id,omitempty"`
	CurrentRecipeID   int64      `json:"current_recipe_id" validate:"min=0"`
	SuggestedRecipeID int64      `json:"suggested_recipe_id" validate:"min=1"`
	Reason            string     `json:"reason,omitempty"`
	Score             float64    `json:"score"`
}

type proposeRequest struct {
	Focus optimization.Focus `json:"focus"`
	Swaps []swapPayload      `json:"swaps" validate:"dive"`
}

type linkSubRecipeRequest struct {
	ChildID           int64   `json:"child_id" validate:"required,min=1"`
	PortionMultiplier float64 `json:"portion_multiplier" validate:"required,gt=0"`
}

type previewScalingRequest struct {
	Name         string  `json:"name" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"gte=0"`
	Unit         string  `json:"unit"`
	FromPortions int     `json:"from_portions"`
	ToPortions   int     `json:"to_portions"`
}

// Responses that need a wire form of their own

type proposalResponse struct {
	Swaps    []swapPayload `json:"swaps"`
	Rejected int           `json:"rejected"`
	Summary  string        `json:"summary"`
	Before   interface{}   `json:"before"`
	After    interface{}   `json:"after"`
}

type appliedSwapResponse struct {
	Slot         *inbound.SlotDTO `json:"slot"`
	FromRecipeID recipe.ID        `json:"from_recipe_id"`
	ToRecipeID   recipe.ID        `json:"to_recipe_id"`
	Reason       string           `json:"reason"`
	AppliedAt    time.Time        `json:"applied_at"`
}

func (p swapPayload) toDomain() (rotation.SuggestedSwap, error) {
	meal, err := rotation.ParseMeal(p.Meal)
	if err != nil {
		return rotation.SuggestedSwap{}, err
	}
	course, err := rotation.ParseCourse(p.Course)
	if err != nil {
		return rotation.SuggestedSwap{}, err
	}
	swap := rotation.SuggestedSwap{
		WeekNr:            p.WeekNr,
		Day:               time.Weekday(p.Day),
		Meal:              meal,
		Course:            course,
		CurrentRecipeID:   recipe.ID(p.CurrentRecipeID),
		SuggestedRecipeID: recipe.ID(p.SuggestedRecipeID),
		Reason:            p.Reason,
		Score:             p.Score,
	}
	if p.LocationID != nil {
		swap.LocationID = *p.LocationID
	}
	return swap, nil
}

func swapToPayload(s rotation.SuggestedSwap) swapPayload {
	p := swapPayload{
		WeekNr:            s.WeekNr,
		Day:               int(s.Day),
		Meal:              string(s.Meal),
		Course:            string(s.Course),
		CurrentRecipeID:   int64(s.CurrentRecipeID),
		SuggestedRecipeID: int64(s.SuggestedRecipeID),
		Reason:            s.Reason,
		Score:             s.Score,
	}
	if s.LocationID != uuid.Nil {
		loc := s.LocationID
		p.LocationID = &loc
	}
	return p
}

// Template handlers

// CreateTemplate handles POST /api/v1/templates
func (h *RotationHandlers) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	locations := make([]uuid.UUID, 0, len(req.Locations))
	for _, s := range req.Locations {
		locations = append(locations, uuid.MustParse(s))
	}

	template, err := h.service.CreateTemplate(r.Context(), inbound.CreateTemplateCommand{
		Name:      req.Name,
		WeekCount: req.WeekCount,
		Locations: locations,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, template)
}

// GetTemplate handles GET /api/v1/templates/{templateID}
func (h *RotationHandlers) GetTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuidParam(r, "templateID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	template, err := h.service.GetTemplate(r.Context(), templateID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, template)
}

// AddLocation handles POST /api/v1/templates/{templateID}/locations
func (h *RotationHandlers) AddLocation(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuidParam(r, "templateID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req addLocationRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	template, err := h.service.AddLocation(r.Context(), templateID, uuid.MustParse(req.LocationID))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, template)
}

// RemoveLocation handles DELETE /api/v1/templates/{templateID}/locations/{locationID}
func (h *RotationHandlers) RemoveLocation(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuidParam(r, "templateID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	locationID, err := uuidParam(r, "locationID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	template, err := h.service.RemoveLocation(r.Context(), templateID, locationID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, template)
}

// RenderCalendarWeek handles GET /api/v1/templates/{templateID}/calendar/{year}/{week}
func (h *RotationHandlers) RenderCalendarWeek(w http.ResponseWriter, r *http.Request) {
	templateID, year, week, err := calendarParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	calendar, err := h.service.RenderCalendarWeek(r.Context(), templateID, year, week)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, calendar)
}

// Slot handlers

func slotKeyParams(r *http.Request) (rotation.SlotKey, error) {
	templateID, err := uuidParam(r, "templateID")
	if err != nil {
		return rotation.SlotKey{}, err
	}
	week, err := intParam(r, "week")
	if err != nil {
		return rotation.SlotKey{}, err
	}
	day, err := parseDay(chi.URLParam(r, "day"))
	if err != nil {
		return rotation.SlotKey{}, err
	}
	meal, err := rotation.ParseMeal(chi.URLParam(r, "meal"))
	if err != nil {
		return rotation.SlotKey{}, errors.NewValidationError(err.Error())
	}
	course, err := rotation.ParseCourse(chi.URLParam(r, "course"))
	if err != nil {
		return rotation.SlotKey{}, errors.NewValidationError(err.Error())
	}
	locationID, err := uuidParam(r, "locationID")
	if err != nil {
		return rotation.SlotKey{}, err
	}
	return rotation.SlotKey{
		TemplateID: templateID,
		WeekNr:     week,
		Day:        day,
		Meal:       meal,
		Course:     course,
		LocationID: locationID,
	}, nil
}

// GetSlot handles GET /api/v1/templates/{templateID}/slots/{week}/{day}/{meal}/{course}/{locationID}
func (h *RotationHandlers) GetSlot(w http.ResponseWriter, r *http.Request) {
	key, err := slotKeyParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	slot, err := h.service.GetSlot(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, slot)
}

// PutSlot handles PUT on a slot. recipe_id 0 clears it.
func (h *RotationHandlers) PutSlot(w http.ResponseWriter, r *http.Request) {
	key, err := slotKeyParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req putSlotRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	slot, err := h.service.PutSlot(r.Context(), inbound.PutSlotCommand{
		Key:      key,
		RecipeID: recipe.ID(req.RecipeID),
		Portions: req.Portions,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, slot)
}

// ClearSlot handles DELETE on a slot
func (h *RotationHandlers) ClearSlot(w http.ResponseWriter, r *http.Request) {
	key, err := slotKeyParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.ClearSlot(r.Context(), key); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Analysis and optimization handlers

// Analyze handles GET /api/v1/templates/{templateID}/analysis
func (h *RotationHandlers) Analyze(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuidParam(r, "templateID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	bundle, err := h.service.Analyze(r.Context(), templateID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, bundle)
}

// ProposeOptimization handles POST /api/v1/templates/{templateID}/proposals.
// The grid is never modified.
func (h *RotationHandlers) ProposeOptimization(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuidParam(r, "templateID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req proposeRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	cmd := inbound.ProposeCommand{TemplateID: templateID, Focus: req.Focus}
	for _, p := range req.Swaps {
		swap, err := p.toDomain()
		if err != nil {
			h.writeError(w, r, errors.NewValidationError(err.Error()))
			return
		}
		cmd.Swaps = append(cmd.Swaps, swap)
	}

	proposal, err := h.service.ProposeOptimization(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := proposalResponse{
		Swaps:    make([]swapPayload, 0, len(proposal.Swaps)),
		Rejected: proposal.Rejected,
		Summary:  proposal.Summary,
		Before:   proposal.Before,
		After:    proposal.After,
	}
	for _, s := range proposal.Swaps {
		resp.Swaps = append(resp.Swaps, swapToPayload(s))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ApplySwap handles POST /api/v1/templates/{templateID}/swaps
func (h *RotationHandlers) ApplySwap(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuidParam(r, "templateID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req swapPayload
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	swap, err := req.toDomain()
	if err != nil {
		h.writeError(w, r, errors.NewValidationError(err.Error()))
		return
	}

	applied, err := h.service.ApplySwap(r.Context(), templateID, swap)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	slot, err := h.service.GetSlot(r.Context(), applied.Key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, appliedSwapResponse{
		Slot:         slot,
		FromRecipeID: applied.FromRecipeID,
		ToRecipeID:   applied.ToRecipeID,
		Reason:       applied.Reason,
		AppliedAt:    applied.AppliedAt,
	})
}

// WeeklyDemand handles GET /api/v1/templates/{templateID}/demand/{year}/{week}
func (h *RotationHandlers) WeeklyDemand(w http.ResponseWriter, r *http.Request) {
	templateID, year, week, err := calendarParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	demand, err := h.service.WeeklyDemand(r.Context(), templateID, year, week)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, demand)
}

// Composition and scaling handlers

// LinkSubRecipe handles POST /api/v1/recipes/{recipeID}/sub-recipes
func (h *RotationHandlers) LinkSubRecipe(w http.ResponseWriter, r *http.Request) {
	parentID, err := intParam(r, "recipeID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req linkSubRecipeRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	err = h.service.LinkSubRecipe(r.Context(), inbound.LinkSubRecipeCommand{
		ParentID:          recipe.ID(parentID),
		ChildID:           recipe.ID(req.ChildID),
		PortionMultiplier: req.PortionMultiplier,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"parent_id":          parentID,
		"child_id":           req.ChildID,
		"portion_multiplier": req.PortionMultiplier,
	})
}

// PreviewScaling handles POST /api/v1/scaling/preview
func (h *RotationHandlers) PreviewScaling(w http.ResponseWriter, r *http.Request) {
	var req previewScalingRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.service.PreviewScaling(r.Context(), inbound.PreviewScalingCommand{
		Name:         req.Name,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		FromPortions: req.FromPortions,
		ToPortions:   req.ToPortions,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func calendarParams(r *http.Request) (templateID uuid.UUID, year, week int, err error) {
	if templateID, err = uuidParam(r, "templateID"); err != nil {
		return
	}
	if year, err = intParam(r, "year"); err != nil {
		return
	}
	week, err = intParam(r, "week")
	return
}

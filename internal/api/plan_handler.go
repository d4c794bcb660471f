package api

import (
	"fmt"
	"net/http"
	"time"

	"alcyxob/plan-tracker/internal/domain"
	"alcyxob/plan-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// dateLayout is the wire format of calendar dates.
const dateLayout = "2006-01-02"

type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- DTOs ---

// CreatePlanRequest creates a plan. Supplying both userId and startDate also assigns it.
type CreatePlanRequest struct {
	Kind          domain.PlanKind `json:"kind" binding:"required,oneof=diet workout"`
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	Content       []bson.M        `json:"content"`
	MonthsValid   int             `json:"monthsValid"`
	DaysPerWeek   int             `json:"daysPerWeek"`
	WorkoutType   string          `json:"workoutType"`
	IsPublic      bool            `json:"isPublic"`
	UserID        string          `json:"userId"`
	StartDate     string          `json:"startDate"` // YYYY-MM-DD
	TimeToWorkout string          `json:"timeToWorkout"`
}

// UpdatePlanRequest only changes the fields present in the body.
type UpdatePlanRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Content     *[]bson.M `json:"content"`
	MonthsValid *int      `json:"monthsValid"`
	DaysPerWeek *int      `json:"daysPerWeek"`
	WorkoutType *string   `json:"workoutType"`
	IsPublic    *bool     `json:"isPublic"`
}

func (r UpdatePlanRequest) patch() domain.PlanPatch {
	return domain.PlanPatch{
		Title:       r.Title,
		Description: r.Description,
		Content:     r.Content,
		MonthsValid: r.MonthsValid,
		DaysPerWeek: r.DaysPerWeek,
		WorkoutType: r.WorkoutType,
		IsPublic:    r.IsPublic,
	}
}

// parseDate accepts a bare calendar date only. A timestamp with an offset could name a
// different UTC day than the one the caller meant.
func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, value)
}

func queryKind(c *gin.Context) (domain.PlanKind, bool) {
	kind := domain.PlanKind(c.Query("kind"))
	if !kind.Valid() {
		abortWithError(c, http.StatusBadRequest, "Query parameter 'kind' must be 'diet' or 'workout'.")
		return "", false
	}
	return kind, true
}

// --- Handler Methods ---

// CreatePlan godoc
// @Summary Create a diet or workout plan
// @Description Creates a plan owned by the caller. When userId and startDate are both given the plan
// @Description is assigned to that user, replacing their current plan of the same kind.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body CreatePlanRequest true "Plan details"
// @Success 201 {object} service.CreatePlanResult
// @Failure 400 {object} gin.H "Invalid input or plan configuration"
// @Failure 403 {object} gin.H "User is not a client of the caller"
// @Router /plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	creatorID, ok := callerID(c)
	if !ok {
		return
	}

	input := service.CreatePlanInput{
		Kind:          req.Kind,
		Title:         req.Title,
		Description:   req.Description,
		Content:       req.Content,
		MonthsValid:   req.MonthsValid,
		DaysPerWeek:   req.DaysPerWeek,
		WorkoutType:   req.WorkoutType,
		IsPublic:      req.IsPublic,
		TimeToWorkout: req.TimeToWorkout,
	}
	if req.UserID != "" {
		userID, err := primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid userId format.")
			return
		}
		input.UserID = &userID
	}
	if req.StartDate != "" {
		startDate, err := parseDate(req.StartDate)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid startDate, expected %s.", dateLayout))
			return
		}
		input.StartDate = &startDate
	}

	result, err := h.planService.CreatePlan(c.Request.Context(), creatorID, input)
	if err != nil {
		abortWithServiceError(c, err, "Failed to create plan.")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetPlan godoc
// @Summary Get a plan by ID
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} domain.Plan
// @Failure 404 {object} gin.H "Plan not found or deleted"
// @Router /plans/{planId} [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	plan, err := h.planService.GetPlan(c.Request.Context(), planID)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve plan.")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// UpdatePlan godoc
// @Summary Update a plan
// @Description Only the fields present in the body change. Existing assignments keep their dates.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param plan body UpdatePlanRequest true "Fields to change"
// @Success 200 {object} domain.Plan
// @Failure 400 {object} gin.H "Empty patch or invalid configuration"
// @Failure 403 {object} gin.H "Caller did not create the plan"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /plans/{planId} [patch]
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), userID, planID, req.patch())
	if err != nil {
		abortWithServiceError(c, err, "Failed to update plan.")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// DeletePlan godoc
// @Summary Soft-delete a plan
// @Tags Plans
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 204
// @Failure 403 {object} gin.H "Caller did not create the plan"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /plans/{planId} [delete]
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}
	if err := h.planService.DeletePlan(c.Request.Context(), userID, planID); err != nil {
		abortWithServiceError(c, err, "Failed to delete plan.")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPublicPlans godoc
// @Summary List public plans of a kind
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param kind query string true "diet or workout"
// @Success 200 {array} domain.PublicPlan
// @Router /plans/public [get]
func (h *PlanHandler) GetPublicPlans(c *gin.Context) {
	kind, ok := queryKind(c)
	if !ok {
		return
	}
	plans, err := h.planService.ListPublic(c.Request.Context(), kind)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve public plans.")
		return
	}
	c.JSON(http.StatusOK, plans)
}

// CountPublicPlans godoc
// @Summary Count public plans of a kind
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param kind query string true "diet or workout"
// @Success 200 {object} gin.H "{\"count\": n}"
// @Router /plans/public/count [get]
func (h *PlanHandler) CountPublicPlans(c *gin.Context) {
	kind, ok := queryKind(c)
	if !ok {
		return
	}
	count, err := h.planService.CountPublic(c.Request.Context(), kind)
	if err != nil {
		abortWithServiceError(c, err, "Failed to count public plans.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// GetProfessionalPlans godoc
// @Summary List a professional's public plans
// @Description Defaults to the caller when professionalId is omitted.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param kind query string true "diet or workout"
// @Param professionalId query string false "Professional ID"
// @Success 200 {array} domain.Plan
// @Router /plans/by-professional [get]
func (h *PlanHandler) GetProfessionalPlans(c *gin.Context) {
	kind, ok := queryKind(c)
	if !ok {
		return
	}
	professionalID, ok := callerID(c)
	if !ok {
		return
	}
	if raw := c.Query("professionalId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid professionalId format.")
			return
		}
		professionalID = id
	}

	plans, err := h.planService.ListByProfessional(c.Request.Context(), professionalID, kind)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve plans.")
		return
	}
	c.JSON(http.StatusOK, plans)
}

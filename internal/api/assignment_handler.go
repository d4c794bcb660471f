package api

import (
	"net/http"
	"strconv"

	"alcyxob/plan-tracker/internal/domain"
	"alcyxob/plan-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentHandler serves the caller's assignment views and the two mutations
// (report a workout unit, complete a diet).
type AssignmentHandler struct {
	planService   service.PlanService
	expiryService service.ExpiryService
}

func NewAssignmentHandler(planService service.PlanService, expiryService service.ExpiryService) *AssignmentHandler {
	return &AssignmentHandler{
		planService:   planService,
		expiryService: expiryService,
	}
}

// kindAndCaller reads the :kind path parameter and the caller's ID.
func kindAndCaller(c *gin.Context) (domain.PlanKind, primitive.ObjectID, bool) {
	kind := domain.PlanKind(c.Param("kind"))
	if !kind.Valid() {
		abortWithError(c, http.StatusBadRequest, "Path parameter 'kind' must be 'diet' or 'workout'.")
		return "", primitive.NilObjectID, false
	}
	userID, ok := callerID(c)
	if !ok {
		return "", primitive.NilObjectID, false
	}
	return kind, userID, true
}

// GetCurrent godoc
// @Summary Get the caller's current assignment of a kind, with its plan
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param kind path string true "diet or workout"
// @Success 200 {object} domain.CurrentAssignment
// @Failure 404 {object} gin.H "No active assignment"
// @Router /assignments/{kind}/current [get]
func (h *AssignmentHandler) GetCurrent(c *gin.Context) {
	kind, userID, ok := kindAndCaller(c)
	if !ok {
		return
	}
	current, err := h.expiryService.Current(c.Request.Context(), userID, kind)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve current assignment.")
		return
	}
	c.JSON(http.StatusOK, current)
}

// GetActualPrevious godoc
// @Summary Get plan ID and dates of the caller's current assignment
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param kind path string true "diet or workout"
// @Success 200 {object} domain.AssignmentSummary
// @Failure 404 {object} gin.H "No active assignment"
// @Router /assignments/{kind}/actual-previous [get]
func (h *AssignmentHandler) GetActualPrevious(c *gin.Context) {
	kind, userID, ok := kindAndCaller(c)
	if !ok {
		return
	}
	summary, err := h.expiryService.ActualPrevious(c.Request.Context(), userID, kind)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve current assignment.")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetPeriod godoc
// @Summary Get the calendar period of the caller's current assignment
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param kind path string true "diet or workout"
// @Success 200 {object} domain.AssignmentPeriod
// @Failure 404 {object} gin.H "No active assignment"
// @Router /assignments/{kind}/period [get]
func (h *AssignmentHandler) GetPeriod(c *gin.Context) {
	kind, userID, ok := kindAndCaller(c)
	if !ok {
		return
	}
	period, err := h.expiryService.Period(c.Request.Context(), userID, kind)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve assignment period.")
		return
	}
	c.JSON(http.StatusOK, period)
}

// GetFinished godoc
// @Summary List the caller's finished assignments, latest first
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param kind path string true "diet or workout"
// @Success 200 {array} domain.FinishedAssignment
// @Router /assignments/{kind}/finished [get]
func (h *AssignmentHandler) GetFinished(c *gin.Context) {
	kind, userID, ok := kindAndCaller(c)
	if !ok {
		return
	}
	list, err := h.expiryService.Finished(c.Request.Context(), userID, kind)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve finished assignments.")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetLastFinished godoc
// @Summary Get the caller's most recently finished assignment
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param kind path string true "diet or workout"
// @Success 200 {object} domain.FinishedAssignment
// @Failure 404 {object} gin.H "Nothing finished yet"
// @Router /assignments/{kind}/last-finished [get]
func (h *AssignmentHandler) GetLastFinished(c *gin.Context) {
	kind, userID, ok := kindAndCaller(c)
	if !ok {
		return
	}
	last, err := h.expiryService.LastFinished(c.Request.Context(), userID, kind)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve last finished assignment.")
		return
	}
	c.JSON(http.StatusOK, last)
}

// GetExpiring godoc
// @Summary List clients' assignments ending within the configured window
// @Description Only assignments made from the caller's plans for the caller's clients.
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param kind path string true "diet or workout"
// @Success 200 {array} domain.ExpiringAssignment
// @Failure 403 {object} gin.H "Caller is not a professional"
// @Router /assignments/{kind}/expiring [get]
func (h *AssignmentHandler) GetExpiring(c *gin.Context) {
	kind, professionalID, ok := kindAndCaller(c)
	if !ok {
		return
	}
	list, err := h.expiryService.Expiring(c.Request.Context(), professionalID, kind)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve expiring assignments.")
		return
	}
	c.JSON(http.StatusOK, list)
}

// FinishDailyWorkout godoc
// @Summary Report one completed training day
// @Description Advances the caller's current workout assignment. The unit index is stored as given.
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param unit path int true "Index of the finished training day"
// @Success 200 {object} domain.Assignment
// @Failure 404 {object} gin.H "No active workout assignment"
// @Failure 409 {object} gin.H "Every scheduled day was already reported"
// @Router /assignments/workout/finish-daily/{unit} [patch]
func (h *AssignmentHandler) FinishDailyWorkout(c *gin.Context) {
	unit, err := strconv.Atoi(c.Param("unit"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Path parameter 'unit' must be an integer.")
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	assignment, err := h.planService.ReportCompletedUnit(c.Request.Context(), userID, unit)
	if err != nil {
		abortWithServiceError(c, err, "Failed to record training day.")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// CompleteDiet godoc
// @Summary Mark a diet assignment as finished
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param assignmentId path string true "Assignment ID"
// @Success 200 {object} domain.Assignment
// @Failure 403 {object} gin.H "Assignment belongs to someone else"
// @Failure 404 {object} gin.H "Assignment not found"
// @Failure 409 {object} gin.H "Assignment is not active"
// @Router /assignments/diet/{assignmentId}/complete [patch]
func (h *AssignmentHandler) CompleteDiet(c *gin.Context) {
	assignmentID, ok := pathObjectID(c, "assignmentId")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	assignment, err := h.planService.CompleteDietAssignment(c.Request.Context(), userID, assignmentID)
	if err != nil {
		abortWithServiceError(c, err, "Failed to complete diet assignment.")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

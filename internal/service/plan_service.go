package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"alcyxob/plan-tracker/internal/domain"
	"alcyxob/plan-tracker/internal/lifecycle"
	"alcyxob/plan-tracker/internal/metrics"
	"alcyxob/plan-tracker/internal/repository"
	"alcyxob/plan-tracker/internal/schedule"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound           = errors.New("plan not found")
	ErrPlanAccessDenied       = errors.New("access denied to this plan")
	ErrInvalidPlanKind        = errors.New("plan kind must be 'diet' or 'workout'")
	ErrPlanTitleRequired      = errors.New("plan title is required")
	ErrEmptyPatch             = errors.New("no fields to update")
	ErrAssignmentNotFound     = errors.New("assignment not found")
	ErrAssignmentAccessDenied = errors.New("access denied to this assignment")
	ErrWrongPlanKind          = errors.New("operation not supported for this plan kind")
	// ErrNoActiveAssignment also matches lifecycle.ErrInvalidState.
	ErrNoActiveAssignment = fmt.Errorf("no active assignment: %w", lifecycle.ErrInvalidState)
)

// CreatePlanInput is what a creator submits. When both UserID and StartDate are set,
// the new plan is assigned to that user straight away.
type CreatePlanInput struct {
	Kind          domain.PlanKind
	Title         string
	Description   string
	Content       []bson.M
	MonthsValid   int
	DaysPerWeek   int
	WorkoutType   string
	IsPublic      bool
	UserID        *primitive.ObjectID
	StartDate     *time.Time
	TimeToWorkout string
}

// CreatePlanResult carries the plan and, when one was made, its assignment.
type CreatePlanResult struct {
	Plan       *domain.Plan       `json:"plan"`
	Assignment *domain.Assignment `json:"assignment,omitempty"`
}

type PlanService interface {
	// Plan catalogue
	CreatePlan(ctx context.Context, creatorID primitive.ObjectID, input CreatePlanInput) (*CreatePlanResult, error)
	GetPlan(ctx context.Context, planID primitive.ObjectID) (*domain.Plan, error)
	UpdatePlan(ctx context.Context, callerID, planID primitive.ObjectID, patch domain.PlanPatch) (*domain.Plan, error)
	DeletePlan(ctx context.Context, callerID, planID primitive.ObjectID) error
	ListPublic(ctx context.Context, kind domain.PlanKind) ([]domain.PublicPlan, error)
	CountPublic(ctx context.Context, kind domain.PlanKind) (int64, error)
	ListByProfessional(ctx context.Context, professionalID primitive.ObjectID, kind domain.PlanKind) ([]domain.Plan, error)

	// Assignment lifecycle
	AssignPlanToUser(ctx context.Context, plan *domain.Plan, userID primitive.ObjectID, startDate time.Time, timeToWorkout string) (*domain.Assignment, error)
	ReportCompletedUnit(ctx context.Context, userID primitive.ObjectID, unitIndex int) (*domain.Assignment, error)
	CompleteDietAssignment(ctx context.Context, userID, assignmentID primitive.ObjectID) (*domain.Assignment, error)
}

// planService implements the PlanService interface.
type planService struct {
	planRepo       repository.PlanRepository
	assignmentRepo repository.AssignmentRepository
	userRepo       repository.UserRepository
	tx             repository.Transactor
	recorder       metrics.Recorder
	now            func() time.Time
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	planRepo repository.PlanRepository,
	assignmentRepo repository.AssignmentRepository,
	userRepo repository.UserRepository,
	tx repository.Transactor,
	recorder metrics.Recorder,
) PlanService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &planService{
		planRepo:       planRepo,
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
		tx:             tx,
		recorder:       recorder,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// === Plan catalogue ===

// CreatePlan stores the plan and, if the request names a user and a start date,
// assigns it to that user in the same transaction.
func (s *planService) CreatePlan(ctx context.Context, creatorID primitive.ObjectID, input CreatePlanInput) (*CreatePlanResult, error) {
	if creatorID == primitive.NilObjectID {
		return nil, errors.New("creator ID is required")
	}

	plan := &domain.Plan{
		Kind:        input.Kind,
		CreatorID:   creatorID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Content:     input.Content,
		MonthsValid: input.MonthsValid,
		IsPublic:    input.IsPublic,
	}
	if plan.Kind == domain.PlanKindWorkout {
		plan.DaysPerWeek = input.DaysPerWeek
		plan.WorkoutType = input.WorkoutType
		applyWorkoutDefaults(plan)
	}
	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	assign := input.UserID != nil && *input.UserID != primitive.NilObjectID && input.StartDate != nil
	if assign && *input.UserID != creatorID {
		if err := s.requireManagedClient(ctx, creatorID, *input.UserID); err != nil {
			return nil, err
		}
	}

	result := &CreatePlanResult{Plan: plan}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		planID, err := s.planRepo.Create(ctx, plan)
		if err != nil {
			return err
		}
		plan.ID = planID

		if !assign {
			return nil
		}
		assignment, err := s.AssignPlanToUser(ctx, plan, *input.UserID, *input.StartDate, input.TimeToWorkout)
		if err != nil {
			return err
		}
		result.Assignment = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func applyWorkoutDefaults(plan *domain.Plan) {
	if plan.MonthsValid == 0 {
		plan.MonthsValid = domain.DefaultWorkoutMonthsValid
	}
	if plan.DaysPerWeek == 0 {
		plan.DaysPerWeek = domain.DefaultDaysPerWeek
	}
	if plan.WorkoutType == "" {
		plan.WorkoutType = domain.DefaultWorkoutType
	}
}

// validatePlan rejects plans whose window could never be computed.
func validatePlan(plan *domain.Plan) error {
	if !plan.Kind.Valid() {
		return ErrInvalidPlanKind
	}
	if plan.Title == "" {
		return ErrPlanTitleRequired
	}
	if plan.MonthsValid < 0 {
		return &schedule.ConfigurationError{Field: "monthsValid", Value: plan.MonthsValid}
	}
	if plan.Kind == domain.PlanKindWorkout && plan.DaysPerWeek <= 0 {
		return &schedule.ConfigurationError{Field: "daysPerWeek", Value: plan.DaysPerWeek}
	}
	return nil
}

func (s *planService) requireManagedClient(ctx context.Context, professionalID, clientID primitive.ObjectID) error {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}
	if !client.ManagedBy(professionalID) {
		return ErrClientNotManaged
	}
	return nil
}

// GetPlan retrieves a plan that has not been deleted.
func (s *planService) GetPlan(ctx context.Context, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

func (s *planService) getOwnedPlan(ctx context.Context, callerID, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.CreatorID != callerID {
		return nil, ErrPlanAccessDenied
	}
	return plan, nil
}

// UpdatePlan applies the fields present in patch. Existing assignments keep the end date
// they were created with.
func (s *planService) UpdatePlan(ctx context.Context, callerID, planID primitive.ObjectID, patch domain.PlanPatch) (*domain.Plan, error) {
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		patch.Title = &trimmed
	}

	plan, err := s.getOwnedPlan(ctx, callerID, planID)
	if err != nil {
		return nil, err
	}

	updated := *plan
	patch.Apply(&updated)
	if err := validatePlan(&updated); err != nil {
		return nil, err
	}

	if err := s.planRepo.Update(ctx, planID, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	updated.UpdatedAt = s.now()
	return &updated, nil
}

// DeletePlan soft-deletes a plan. Assignments made from it are left as they are.
func (s *planService) DeletePlan(ctx context.Context, callerID, planID primitive.ObjectID) error {
	if _, err := s.getOwnedPlan(ctx, callerID, planID); err != nil {
		return err
	}
	if err := s.planRepo.SoftDelete(ctx, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	return nil
}

// ListPublic returns the public catalogue of a kind with each creator's name.
func (s *planService) ListPublic(ctx context.Context, kind domain.PlanKind) ([]domain.PublicPlan, error) {
	if !kind.Valid() {
		return nil, ErrInvalidPlanKind
	}
	plans, err := s.planRepo.ListPublic(ctx, kind)
	if err != nil {
		return nil, err
	}

	creatorIDs := make([]primitive.ObjectID, 0, len(plans))
	seen := make(map[primitive.ObjectID]bool)
	for _, p := range plans {
		if !seen[p.CreatorID] {
			seen[p.CreatorID] = true
			creatorIDs = append(creatorIDs, p.CreatorID)
		}
	}
	names := make(map[primitive.ObjectID]string, len(creatorIDs))
	if len(creatorIDs) > 0 {
		creators, err := s.userRepo.GetByIDs(ctx, creatorIDs)
		if err != nil {
			return nil, err
		}
		for _, u := range creators {
			names[u.ID] = u.Name
		}
	}

	out := make([]domain.PublicPlan, 0, len(plans))
	for _, p := range plans {
		out = append(out, domain.PublicPlan{
			ID:               p.ID,
			Kind:             p.Kind,
			Title:            p.Title,
			Description:      p.Description,
			ProfessionalName: names[p.CreatorID],
		})
	}
	return out, nil
}

func (s *planService) CountPublic(ctx context.Context, kind domain.PlanKind) (int64, error) {
	if !kind.Valid() {
		return 0, ErrInvalidPlanKind
	}
	return s.planRepo.CountPublic(ctx, kind)
}

// ListByProfessional returns the public plans of one creator.
func (s *planService) ListByProfessional(ctx context.Context, professionalID primitive.ObjectID, kind domain.PlanKind) ([]domain.Plan, error) {
	if !kind.Valid() {
		return nil, ErrInvalidPlanKind
	}
	plans, err := s.planRepo.ListPublicByCreator(ctx, professionalID, kind)
	if err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []domain.Plan{}
	}
	return plans, nil
}

// === Assignment lifecycle ===

// AssignPlanToUser retires the user's current assignment of the plan's kind, if any, and
// creates a new ACTIVE one whose end date is computed from startDate and the plan.
// Call it inside a transaction so both writes land together.
func (s *planService) AssignPlanToUser(ctx context.Context, plan *domain.Plan, userID primitive.ObjectID, startDate time.Time, timeToWorkout string) (*domain.Assignment, error) {
	if plan == nil || plan.ID == primitive.NilObjectID {
		return nil, ErrPlanNotFound
	}
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}

	start := schedule.Date(startDate)
	endDate, err := schedule.EndDate(start, plan)
	if err != nil {
		return nil, err
	}

	now := s.now()
	previous, err := s.assignmentRepo.GetActive(ctx, userID, plan.Kind)
	switch {
	case err == nil:
		if err := lifecycle.Supersede(previous, now); err != nil {
			return nil, err
		}
		if err := s.assignmentRepo.Save(ctx, previous); err != nil {
			return nil, err
		}
		s.recorder.AssignmentSuperseded(plan.Kind)
		log.Printf("INFO: %s assignment %s of user %s superseded by plan %s", plan.Kind, previous.ID.Hex(), userID.Hex(), plan.ID.Hex())
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, err
	}

	assignment := &domain.Assignment{
		Kind:           plan.Kind,
		UserID:         userID,
		PlanID:         plan.ID,
		ProfessionalID: plan.CreatorID,
		StartDate:      start,
		EndDate:        endDate,
	}
	if plan.Kind == domain.PlanKindWorkout {
		assignment.DaysPerWeek = plan.DaysPerWeek
		assignment.TimeToWorkout = timeToWorkout
		if assignment.TimeToWorkout == "" {
			assignment.TimeToWorkout = domain.DefaultTimeToWorkout
		}
	}
	lifecycle.Start(assignment, now)

	assignmentID, err := s.assignmentRepo.Create(ctx, assignment)
	if err != nil {
		return nil, err
	}
	assignment.ID = assignmentID
	s.recorder.AssignmentCreated(plan.Kind)
	return assignment, nil
}

// ReportCompletedUnit records one finished training day against the user's current workout
// assignment. unitIndex is stored as dailyTraining as given.
func (s *planService) ReportCompletedUnit(ctx context.Context, userID primitive.ObjectID, unitIndex int) (*domain.Assignment, error) {
	var assignment *domain.Assignment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := s.assignmentRepo.GetActive(ctx, userID, domain.PlanKindWorkout)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNoActiveAssignment
			}
			return err
		}

		daysPerWeek, err := s.reportCadence(ctx, a)
		if err != nil {
			return err
		}

		if err := lifecycle.Report(a, daysPerWeek, s.now()); err != nil {
			return err
		}
		a.DailyTraining = unitIndex

		if err := s.assignmentRepo.Save(ctx, a); err != nil {
			return err
		}
		assignment = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.UnitReported(domain.PlanKindWorkout)
	if assignment.IsCompleted {
		s.recorder.AssignmentCompleted(domain.PlanKindWorkout)
		log.Printf("INFO: workout assignment %s of user %s completed (progress %.2f)", assignment.ID.Hex(), userID.Hex(), assignment.Progress)
	}
	return assignment, nil
}

// reportCadence is the days-per-week an assignment is measured against. Assignments stored
// before the cadence was recorded on them fall back to the plan's current value.
func (s *planService) reportCadence(ctx context.Context, a *domain.Assignment) (int, error) {
	if a.DaysPerWeek > 0 {
		return a.DaysPerWeek, nil
	}
	plan, err := s.planForAssignment(ctx, a)
	if err != nil {
		return 0, err
	}
	return plan.DaysPerWeek, nil
}

// planForAssignment loads the plan behind an assignment, including soft-deleted plans,
// since deleting a plan does not end its assignments.
func (s *planService) planForAssignment(ctx context.Context, a *domain.Assignment) (*domain.Plan, error) {
	plans, err := s.planRepo.GetByIDs(ctx, []primitive.ObjectID{a.PlanID})
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, ErrPlanNotFound
	}
	return &plans[0], nil
}

// CompleteDietAssignment marks the user's diet assignment as finished.
func (s *planService) CompleteDietAssignment(ctx context.Context, userID, assignmentID primitive.ObjectID) (*domain.Assignment, error) {
	var assignment *domain.Assignment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := s.assignmentRepo.GetByID(ctx, assignmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAssignmentNotFound
			}
			return err
		}
		if a.UserID != userID {
			return ErrAssignmentAccessDenied
		}
		if a.Kind != domain.PlanKindDiet {
			return ErrWrongPlanKind
		}
		if err := lifecycle.Complete(a, s.now()); err != nil {
			return err
		}
		if err := s.assignmentRepo.Save(ctx, a); err != nil {
			return err
		}
		assignment = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recorder.AssignmentCompleted(domain.PlanKindDiet)
	log.Printf("INFO: diet assignment %s of user %s completed", assignment.ID.Hex(), userID.Hex())
	return assignment, nil
}

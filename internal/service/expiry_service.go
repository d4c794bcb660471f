package service

import (
	"context"
	"errors"
	"time"

	"alcyxob/plan-tracker/internal/domain"
	"alcyxob/plan-tracker/internal/repository"
	"alcyxob/plan-tracker/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNoFinishedAssignment = errors.New("no finished assignment")
	ErrNotProfessional      = errors.New("user is not a professional")
)

// DefaultExpiringWindowDays is used when the service is built with a non-positive window.
const DefaultExpiringWindowDays = 7

// ExpiryService answers the read-only assignment views: current, finished and expiring.
// It never writes.
type ExpiryService interface {
	Current(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind) (*domain.CurrentAssignment, error)
	ActualPrevious(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind) (*domain.AssignmentSummary, error)
	Period(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind) (*domain.AssignmentPeriod, error)
	Finished(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind) ([]domain.FinishedAssignment, error)
	LastFinished(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind) (*domain.FinishedAssignment, error)
	Expiring(ctx context.Context, professionalID primitive.ObjectID, kind domain.PlanKind) ([]domain.ExpiringAssignment, error)
}

type expiryService struct {
	assignmentRepo repository.AssignmentRepository
	planRepo       repository.PlanRepository
	userRepo       repository.UserRepository
	windowDays     int
	now            func() time.Time
}

// NewExpiryService creates a new instance of expiryService. windowDays is the look-ahead
// of the expiring view; today and the last day of the window are both included.
func NewExpiryService(
	assignmentRepo repository.AssignmentRepository,
	planRepo repository.PlanRepository,
	userRepo repository.UserRepository,
	windowDays int,
) ExpiryService {
	if windowDays <= 0 {
		windowDays = DefaultExpiringWindowDays
	}
	return &expiryService{
		assignmentRepo: assignmentRepo,
		planRepo:       planRepo,
		userRepo:       userRepo,
		windowDays:     windowDays,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *expiryService) active(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind) (*domain.Assignment, error) {
	if !kind.Valid() {
		return nil, ErrInvalidPlanKind
	}
	a, err := s.assignmentRepo.GetActive(ctx, userID, kind)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveAssignment
		}
		return nil, err
	}
	return a, nil
}

// plansByID loads plans for display. Deleted plans are included so old assignments keep their titles.
func (s *expiryService) plansByID(ctx context.Context, assignments []domain.Assignment) (map[primitive.ObjectID]domain.Plan, error) {
	plans := make(map[primitive.ObjectID]domain.Plan)
	if len(assignments) == 0 {
		return plans, nil
	}
	ids := make([]primitive.ObjectID, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.PlanID)
	}
	found, err := s.planRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range found {
		plans[p.ID] = p
	}
	return plans, nil
}

// Current returns the user's current assignment of a kind joined with its plan.
func (s *expiryService) Current(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind) (*domain.CurrentAssignment, error) {
	a, err := s.active(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	plans, err := s.plansByID(ctx, []domain.Assignment{*a})
	if err != nil {
		return nil, err
	}
	current := &domain.CurrentAssignment{Assignment: *a}
	if p, ok := plans[a.PlanID]; ok {
		current.Plan = &p
	}
	return current, nil
}

func (s *expiryService) ActualPrevious(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind) (*domain.AssignmentSummary, error) {
	a, err := s.active(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	return &domain.AssignmentSummary{PlanID: a.PlanID, StartDate: a.StartDate, EndDate: a.EndDate}, nil
}

// Period is the calendar view of the current assignment.
func (s *expiryService) Period(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind) (*domain.AssignmentPeriod, error) {
	a, err := s.active(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	period := &domain.AssignmentPeriod{
		PlanID:        a.PlanID,
		StartDate:     a.StartDate,
		EndDate:       a.EndDate,
		TimeToWorkout: a.TimeToWorkout,
	}
	period.DaysPerWeek = a.DaysPerWeek
	if kind == domain.PlanKindWorkout && period.DaysPerWeek == 0 {
		plans, err := s.plansByID(ctx, []domain.Assignment{*a})
		if err != nil {
			return nil, err
		}
		period.DaysPerWeek = plans[a.PlanID].DaysPerWeek
	}
	return period, nil
}

func (s *expiryService) finished(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind, limit int64) ([]domain.FinishedAssignment, error) {
	if !kind.Valid() {
		return nil, ErrInvalidPlanKind
	}
	assignments, err := s.assignmentRepo.ListFinished(ctx, userID, kind, limit)
	if err != nil {
		return nil, err
	}
	plans, err := s.plansByID(ctx, assignments)
	if err != nil {
		return nil, err
	}

	out := make([]domain.FinishedAssignment, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, domain.FinishedAssignment{
			AssignmentID: a.ID,
			PlanID:       a.PlanID,
			Title:        plans[a.PlanID].Title,
			StartDate:    a.StartDate,
			EndDate:      a.EndDate,
			Progress:     a.Progress,
		})
	}
	return out, nil
}

// Finished lists completed assignments, latest end date first.
func (s *expiryService) Finished(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind) ([]domain.FinishedAssignment, error) {
	return s.finished(ctx, userID, kind, 0)
}

func (s *expiryService) LastFinished(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind) (*domain.FinishedAssignment, error) {
	list, err := s.finished(ctx, userID, kind, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNoFinishedAssignment
	}
	return &list[0], nil
}

// Expiring lists unfinished assignments of the professional's clients, made from the
// professional's plans, that end between today and today+windowDays inclusive.
func (s *expiryService) Expiring(ctx context.Context, professionalID primitive.ObjectID, kind domain.PlanKind) ([]domain.ExpiringAssignment, error) {
	if !kind.Valid() {
		return nil, ErrInvalidPlanKind
	}
	professional, err := s.userRepo.GetByID(ctx, professionalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotProfessional
		}
		return nil, err
	}
	if !professional.IsProfessional() {
		return nil, ErrNotProfessional
	}

	out := []domain.ExpiringAssignment{}
	if len(professional.ClientIDs) == 0 {
		return out, nil
	}

	today := schedule.Date(s.now())
	until := today.AddDate(0, 0, s.windowDays+1)
	assignments, err := s.assignmentRepo.ListExpiring(ctx, professionalID, professional.ClientIDs, kind, today, until)
	if err != nil {
		return nil, err
	}
	plans, err := s.plansByID(ctx, assignments)
	if err != nil {
		return nil, err
	}

	for _, a := range assignments {
		// Nothing to renew once the plan itself was deleted.
		p, ok := plans[a.PlanID]
		if !ok || p.IsDeleted {
			continue
		}
		out = append(out, domain.ExpiringAssignment{
			AssignmentID:  a.ID,
			PlanID:        a.PlanID,
			UserID:        a.UserID,
			Title:         p.Title,
			Description:   p.Description,
			EndDate:       a.EndDate,
			DaysRemaining: schedule.DaysBetween(today, a.EndDate),
		})
	}
	return out, nil
}

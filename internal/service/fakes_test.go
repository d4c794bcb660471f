package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"alcyxob/plan-tracker/internal/domain"
	"alcyxob/plan-tracker/internal/repository"
	"alcyxob/plan-tracker/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories. Records are stored and returned by value so callers
// cannot mutate stored state without going through the repository.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]domain.User{}}
}

func (r *fakeUserRepo) add(u domain.User) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == primitive.NilObjectID {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	user.ID = primitive.NewObjectID()
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) AddClientToProfessional(_ context.Context, professionalID, clientID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.users[professionalID]
	if !ok {
		return repository.ErrNotFound
	}
	p.ClientIDs = append(p.ClientIDs, clientID)
	r.users[professionalID] = p
	return nil
}

func (r *fakeUserRepo) SetProfessionalForClient(_ context.Context, clientID, professionalID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.users[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	c.ProfessionalID = &professionalID
	r.users[clientID] = c
	return nil
}

func (r *fakeUserRepo) GetClientsByProfessionalID(_ context.Context, professionalID primitive.ObjectID) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.User{}
	for _, u := range r.users {
		if u.IsClient() && u.ManagedBy(professionalID) {
			u.PasswordHash = ""
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakePlanRepo struct {
	mu    sync.Mutex
	plans map[primitive.ObjectID]domain.Plan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: map[primitive.ObjectID]domain.Plan{}}
}

func (r *fakePlanRepo) add(p domain.Plan) domain.Plan {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == primitive.NilObjectID {
		p.ID = primitive.NewObjectID()
	}
	r.plans[p.ID] = p
	return p
}

func (r *fakePlanRepo) Create(_ context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = time.Now().UTC()
	plan.UpdatedAt = plan.CreatedAt
	r.plans[plan.ID] = *plan
	return plan.ID, nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok || p.IsDeleted {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *fakePlanRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Plan
	for _, id := range ids {
		if p, ok := r.plans[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) public(kind domain.PlanKind, creator *primitive.ObjectID) []domain.Plan {
	var out []domain.Plan
	for _, p := range r.plans {
		if p.Kind == kind && p.IsPublic && !p.IsDeleted && (creator == nil || p.CreatorID == *creator) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (r *fakePlanRepo) ListPublic(_ context.Context, kind domain.PlanKind) ([]domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.public(kind, nil), nil
}

func (r *fakePlanRepo) CountPublic(_ context.Context, kind domain.PlanKind) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.public(kind, nil))), nil
}

func (r *fakePlanRepo) ListPublicByCreator(_ context.Context, creatorID primitive.ObjectID, kind domain.PlanKind) ([]domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.public(kind, &creatorID), nil
}

func (r *fakePlanRepo) Update(_ context.Context, id primitive.ObjectID, patch domain.PlanPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok || p.IsDeleted {
		return repository.ErrNotFound
	}
	patch.Apply(&p)
	r.plans[id] = p
	return nil
}

func (r *fakePlanRepo) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok || p.IsDeleted {
		return repository.ErrNotFound
	}
	p.IsDeleted = true
	r.plans[id] = p
	return nil
}

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[primitive.ObjectID]domain.Assignment
	saves       int
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: map[primitive.ObjectID]domain.Assignment{}}
}

func (r *fakeAssignmentRepo) add(a domain.Assignment) domain.Assignment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == primitive.NilObjectID {
		a.ID = primitive.NewObjectID()
	}
	r.assignments[a.ID] = a
	return a
}

func (r *fakeAssignmentRepo) get(id primitive.ObjectID) domain.Assignment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.assignments[id]
}

func (r *fakeAssignmentRepo) byUser(userID primitive.ObjectID) []domain.Assignment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Assignment
	for _, a := range r.assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}

func (r *fakeAssignmentRepo) Create(_ context.Context, a *domain.Assignment) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = primitive.NewObjectID()
	a.CreatedAt = time.Now().UTC()
	r.assignments[a.ID] = *a
	return a.ID, nil
}

func (r *fakeAssignmentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *fakeAssignmentRepo) GetActive(_ context.Context, userID primitive.ObjectID, kind domain.PlanKind) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found *domain.Assignment
	for _, a := range r.assignments {
		if a.UserID != userID || a.Kind != kind || !a.IsActual || a.IsCompleted {
			continue
		}
		if found == nil || a.StartDate.After(found.StartDate) {
			a := a
			found = &a
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *fakeAssignmentRepo) ListFinished(_ context.Context, userID primitive.ObjectID, kind domain.PlanKind, limit int64) ([]domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Assignment
	for _, a := range r.assignments {
		if a.UserID == userID && a.Kind == kind && a.IsCompleted {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.After(out[j].EndDate) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeAssignmentRepo) ListExpiring(_ context.Context, professionalID primitive.ObjectID, userIDs []primitive.ObjectID, kind domain.PlanKind, from, to time.Time) ([]domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make(map[primitive.ObjectID]bool, len(userIDs))
	for _, id := range userIDs {
		users[id] = true
	}
	var out []domain.Assignment
	for _, a := range r.assignments {
		if a.ProfessionalID != professionalID || !users[a.UserID] || a.Kind != kind || a.IsCompleted {
			continue
		}
		if a.EndDate.Before(from) || !a.EndDate.Before(to) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

func (r *fakeAssignmentRepo) Save(_ context.Context, a *domain.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[a.ID]; !ok {
		return repository.ErrNotFound
	}
	r.assignments[a.ID] = *a
	r.saves++
	return nil
}

type fakeImageRepo struct {
	mu     sync.Mutex
	images map[primitive.ObjectID]domain.PlanImage
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{images: map[primitive.ObjectID]domain.PlanImage{}}
}

func (r *fakeImageRepo) Create(_ context.Context, image *domain.PlanImage) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.images {
		if img.S3ObjectKey == image.S3ObjectKey {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	image.ID = primitive.NewObjectID()
	image.UploadedAt = time.Now().UTC()
	r.images[image.ID] = *image
	return image.ID, nil
}

func (r *fakeImageRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.PlanImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &img, nil
}

func (r *fakeImageRepo) GetByPlanID(_ context.Context, planID primitive.ObjectID) ([]domain.PlanImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PlanImage
	for _, img := range r.images {
		if img.PlanID == planID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (r *fakeImageRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.images[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.images, id)
	return nil
}

// fakeTransactor runs fn directly and counts calls.
type fakeTransactor struct {
	calls int
}

func (t *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

// fakeStorage keeps uploaded objects in memory. Call put to simulate a client upload.
type fakeStorage struct {
	objects map[string]storage.ObjectInfo
	deleted []string
	fail    bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]storage.ObjectInfo{}}
}

func (s *fakeStorage) put(key, contentType string, size int64) {
	s.objects[key] = storage.ObjectInfo{Key: key, Size: size, ContentType: contentType}
}

func (s *fakeStorage) PresignPut(_ context.Context, key, contentType string) (string, error) {
	if s.fail {
		return "", errors.New("storage unavailable")
	}
	return "https://s3.test/upload/" + key + "?ct=" + contentType, nil
}

func (s *fakeStorage) PresignGet(_ context.Context, key string) (string, error) {
	if s.fail {
		return "", errors.New("storage unavailable")
	}
	return "https://s3.test/download/" + key, nil
}

func (s *fakeStorage) Stat(_ context.Context, key string) (*storage.ObjectInfo, error) {
	if s.fail {
		return nil, errors.New("storage unavailable")
	}
	info, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &info, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	if s.fail {
		return errors.New("storage unavailable")
	}
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

// countingRecorder tallies lifecycle events per kind.
type countingRecorder struct {
	created, superseded, completed, reported map[domain.PlanKind]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		created:    map[domain.PlanKind]int{},
		superseded: map[domain.PlanKind]int{},
		completed:  map[domain.PlanKind]int{},
		reported:   map[domain.PlanKind]int{},
	}
}

func (r *countingRecorder) AssignmentCreated(k domain.PlanKind)    { r.created[k]++ }
func (r *countingRecorder) AssignmentSuperseded(k domain.PlanKind) { r.superseded[k]++ }
func (r *countingRecorder) AssignmentCompleted(k domain.PlanKind)  { r.completed[k]++ }
func (r *countingRecorder) UnitReported(k domain.PlanKind)         { r.reported[k]++ }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

package patient

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/clinicq/clinicq/internal/domain/queue"
	"github.com/clinicq/clinicq/internal/platform/apperr"
	"github.com/clinicq/clinicq/pkg/refcode"
)

// -- Mock Repositories --

type mockRepo struct {
	store  map[int64]*Patient
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[int64]*Patient), nextID: 1}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = m.nextID
	m.nextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Patient, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "patient not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) GetByCode(_ context.Context, code string) (*Patient, error) {
	for _, p := range m.store {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "patient not found")
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.store[p.ID]; !ok {
		return apperr.New(apperr.NotFound, "patient not found")
	}
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.store[id]; !ok {
		return apperr.New(apperr.NotFound, "patient not found")
	}
	delete(m.store, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	var r []*Patient
	needle := strings.ToLower(search)
	for _, p := range m.store {
		if search == "" ||
			strings.Contains(strings.ToLower(p.FirstName), needle) ||
			strings.Contains(strings.ToLower(p.LastName), needle) ||
			strings.Contains(strings.ToLower(p.Code), needle) {
			r = append(r, p)
		}
	}
	return r, len(r), nil
}

func (m *mockRepo) EmailTaken(_ context.Context, email string, excludeID int64) (bool, error) {
	for _, p := range m.store {
		if p.ID != excludeID && p.Email != nil && *p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) CodeExists(_ context.Context, code string) (bool, error) {
	for _, p := range m.store {
		if p.Code == code {
			return true, nil
		}
	}
	return false, nil
}

// mockQueueRepo satisfies queue.EntryRepository so RegisterWithQueue can run
// against a real queue service.
type mockQueueRepo struct {
	store  map[int64]*queue.Entry
	nextID int64
}

func newMockQueueRepo() *mockQueueRepo {
	return &mockQueueRepo{store: make(map[int64]*queue.Entry), nextID: 1}
}

func (m *mockQueueRepo) Create(_ context.Context, e *queue.Entry) error {
	e.ID = m.nextID
	m.nextID++
	cp := *e
	m.store[e.ID] = &cp
	return nil
}

func (m *mockQueueRepo) GetByID(_ context.Context, id int64) (*queue.Entry, error) {
	e, ok := m.store[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "queue entry not found")
	}
	cp := *e
	return &cp, nil
}

func (m *mockQueueRepo) Update(_ context.Context, e *queue.Entry) error {
	cp := *e
	m.store[e.ID] = &cp
	return nil
}

func (m *mockQueueRepo) Delete(_ context.Context, id int64) error {
	delete(m.store, id)
	return nil
}

func (m *mockQueueRepo) List(_ context.Context, _ queue.ListFilter, _, _ int) ([]*queue.Entry, int, error) {
	return nil, 0, nil
}

func (m *mockQueueRepo) NextWaiting(_ context.Context) (*queue.Entry, error) {
	return nil, nil
}

func (m *mockQueueRepo) ActiveByPatient(_ context.Context, patientID int64) (*queue.Entry, error) {
	for _, e := range m.store {
		if e.PatientID == patientID && !e.Status.Terminal() {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockQueueRepo) CodeExists(_ context.Context, code string) (bool, error) {
	for _, e := range m.store {
		if e.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockQueueRepo) Stats(_ context.Context) (*queue.StatsRow, error) {
	return &queue.StatsRow{}, nil
}

type fixture struct {
	svc       *Service
	repo      *mockRepo
	queueRepo *mockQueueRepo
}

// snapshotTx emulates transactional rollback over the in-memory stores.
func (f *fixture) snapshotTx(ctx context.Context, fn func(ctx context.Context) error) error {
	patients := make(map[int64]*Patient, len(f.repo.store))
	for id, p := range f.repo.store {
		cp := *p
		patients[id] = &cp
	}
	entries := make(map[int64]*queue.Entry, len(f.queueRepo.store))
	for id, e := range f.queueRepo.store {
		cp := *e
		entries[id] = &cp
	}
	pNext, eNext := f.repo.nextID, f.queueRepo.nextID

	if err := fn(ctx); err != nil {
		f.repo.store = patients
		f.queueRepo.store = entries
		f.repo.nextID = pNext
		f.queueRepo.nextID = eNext
		return err
	}
	return nil
}

func newFixture() *fixture {
	f := &fixture{repo: newMockRepo(), queueRepo: newMockQueueRepo()}
	queueSvc := queue.NewService(f.queueRepo, refcode.New(queue.CodeLength))
	f.svc = NewService(f.repo, refcode.New(CodeLength), queueSvc, f.snapshotTx)
	return f
}

func validCreate() CreateInput {
	return CreateInput{
		FirstName:   "Ana",
		LastName:    "Lopez",
		DateOfBirth: "1990-05-01",
		Gender:      "female",
	}
}

func strPtr(s string) *string { return &s }

// -- Service Tests --

func TestCreate_Success(t *testing.T) {
	f := newFixture()
	p, err := f.svc.Create(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == 0 {
		t.Error("expected ID to be set")
	}
	if len(p.Code) != CodeLength {
		t.Errorf("expected %d-char code, got %q", CodeLength, p.Code)
	}
	if !p.DateOfBirth.Equal(time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date of birth: %v", p.DateOfBirth)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing first name", func(in *CreateInput) { in.FirstName = "" }},
		{"missing last name", func(in *CreateInput) { in.LastName = "" }},
		{"bad gender", func(in *CreateInput) { in.Gender = "unknown" }},
		{"bad date", func(in *CreateInput) { in.DateOfBirth = "01/05/1990" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreate()
			tt.mutate(&in)
			if _, err := f.svc.Create(context.Background(), in); apperr.KindOf(err) != apperr.Invalid {
				t.Errorf("expected Invalid, got %v", err)
			}
		})
	}
}

func TestCreate_EmailConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := validCreate()
	in.Email = strPtr("ana@example.com")
	if _, err := f.svc.Create(ctx, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := validCreate()
	dup.FirstName = "Maria"
	dup.Email = strPtr("ana@example.com")
	if _, err := f.svc.Create(ctx, dup); apperr.KindOf(err) != apperr.Conflict {
		t.Errorf("expected Conflict for duplicate email, got %v", err)
	}
}

func TestCreate_CodeCollisionRetries(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// shadow generator with the same seed predicts the first draw
	shadow := refcode.NewWithRand(CodeLength, rand.New(rand.NewSource(42)))
	first, err := shadow.Next(ctx, func(context.Context, string) (bool, error) { return false, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	queueSvc := queue.NewService(f.queueRepo, refcode.New(queue.CodeLength))
	f.svc = NewService(f.repo, refcode.NewWithRand(CodeLength, rand.New(rand.NewSource(42))), queueSvc, nil)

	taken := &Patient{Code: first, FirstName: "X", LastName: "Y", Gender: "other"}
	f.repo.Create(ctx, taken)

	p, err := f.svc.Create(ctx, validCreate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Code == first {
		t.Errorf("expected a fresh code after collision, got %q again", p.Code)
	}
	if len(p.Code) != CodeLength {
		t.Errorf("expected %d-char code, got %q", CodeLength, p.Code)
	}
}

func TestUpdate_PartialAndEmailUniqueness(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := validCreate()
	in.Email = strPtr("ana@example.com")
	ana, err := f.svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := validCreate()
	other.FirstName = "Maria"
	other.Email = strPtr("maria@example.com")
	maria, err := f.svc.Create(ctx, other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// keeping your own email is not a conflict
	p, err := f.svc.Update(ctx, ana.ID, UpdateInput{Email: strPtr("ana@example.com"), Phone: strPtr("555-0101")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Phone == nil || *p.Phone != "555-0101" {
		t.Errorf("expected phone to update, got %v", p.Phone)
	}
	if p.FirstName != "Ana" {
		t.Error("untouched fields must survive a partial update")
	}
	if p.Code != ana.Code {
		t.Error("patient code must never change")
	}

	// taking another patient's email is
	if _, err := f.svc.Update(ctx, maria.ID, UpdateInput{Email: strPtr("ana@example.com")}); apperr.KindOf(err) != apperr.Conflict {
		t.Errorf("expected Conflict, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Update(context.Background(), 99, UpdateInput{}); apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestDelete_ThenGet(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, err := f.svc.Create(ctx, validCreate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Get(ctx, p.ID); apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("expected NotFound after delete, got %v", err)
	}
}

func TestList_Search(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.svc.Create(ctx, CreateInput{FirstName: "Ana", LastName: "Lopez", DateOfBirth: "1990-05-01", Gender: "female"})
	f.svc.Create(ctx, CreateInput{FirstName: "Bruno", LastName: "Silva", DateOfBirth: "1985-01-15", Gender: "male"})

	items, total, err := f.svc.List(ctx, "lop", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].LastName != "Lopez" {
		t.Errorf("expected a single match on last name, got %d", total)
	}

	_, total, err = f.svc.List(ctx, "", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("expected all patients without a search term, got %d", total)
	}
}

func TestGetByCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, err := f.svc.Create(ctx, validCreate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := f.svc.GetByCode(ctx, p.Code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("expected patient %d, got %d", p.ID, got.ID)
	}
	if _, err := f.svc.GetByCode(ctx, "ZZZZZZ"); apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("expected NotFound for unknown code, got %v", err)
	}
}

// -- RegisterWithQueue --

func TestRegisterWithQueue_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, entry, err := f.svc.RegisterWithQueue(ctx, RegisterInput{
		CreateInput: validCreate(),
		CheckupType: "general",
		Priority:    queue.PriorityUrgent,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == 0 || entry.ID == 0 {
		t.Fatal("expected both patient and entry to be persisted")
	}
	if entry.PatientID != p.ID {
		t.Errorf("entry must reference the new patient, got %d", entry.PatientID)
	}
	if entry.Status != queue.StatusWaiting {
		t.Errorf("expected waiting entry, got %s", entry.Status)
	}
}

func TestRegisterWithQueue_RollbackOnQueueFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _, err := f.svc.RegisterWithQueue(ctx, RegisterInput{
		CreateInput: validCreate(),
		CheckupType: "x", // too short, enqueue fails after the patient insert
	})
	if apperr.KindOf(err) != apperr.Invalid {
		t.Fatalf("expected Invalid, got %v", err)
	}
	if len(f.repo.store) != 0 {
		t.Errorf("expected patient insert to roll back, %d patients remain", len(f.repo.store))
	}
	if len(f.queueRepo.store) != 0 {
		t.Errorf("expected no queue entries, %d remain", len(f.queueRepo.store))
	}
}

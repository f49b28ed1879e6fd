package patient

import (
	"context"
	"time"

	"github.com/clinicq/clinicq/internal/domain/queue"
	"github.com/clinicq/clinicq/internal/platform/apperr"
	"github.com/clinicq/clinicq/pkg/refcode"
)

// TxRunner executes fn atomically. The db package provides the production
// implementation; a nil runner degrades to calling fn directly.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	patients Repository
	codes    *refcode.Generator
	queue    *queue.Service
	runTx    TxRunner
}

func NewService(patients Repository, codes *refcode.Generator, queueSvc *queue.Service, runTx TxRunner) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Service{patients: patients, codes: codes, queue: queueSvc, runTx: runTx}
}

// CreateInput is the payload for registering a patient.
type CreateInput struct {
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	DateOfBirth      string  `json:"date_of_birth"`
	Gender           string  `json:"gender"`
	Phone            *string `json:"phone"`
	Email            *string `json:"email"`
	Address          *string `json:"address"`
	EmergencyContact *string `json:"emergency_contact"`
	MedicalHistory   *string `json:"medical_history"`
}

// UpdateInput is a partial update. Nil fields are left untouched.
type UpdateInput struct {
	FirstName        *string `json:"first_name"`
	LastName         *string `json:"last_name"`
	DateOfBirth      *string `json:"date_of_birth"`
	Gender           *string `json:"gender"`
	Phone            *string `json:"phone"`
	Email            *string `json:"email"`
	Address          *string `json:"address"`
	EmergencyContact *string `json:"emergency_contact"`
	MedicalHistory   *string `json:"medical_history"`
}

// RegisterInput registers a patient and checks them in as one operation.
type RegisterInput struct {
	CreateInput
	CheckupType   string  `json:"checkup_type"`
	Priority      int     `json:"priority"`
	QueueNotes    *string `json:"queue_notes"`
	EstimatedWait *int    `json:"estimated_wait_time"`
}

func parseDateOfBirth(s string) (time.Time, error) {
	dob, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperr.New(apperr.Invalid, "date_of_birth must be formatted as YYYY-MM-DD")
	}
	return dob, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	if in.FirstName == "" || in.LastName == "" {
		return nil, apperr.New(apperr.Invalid, "first_name and last_name are required")
	}
	if !ValidGender(in.Gender) {
		return nil, apperr.New(apperr.Invalid, "gender must be male, female or other")
	}
	dob, err := parseDateOfBirth(in.DateOfBirth)
	if err != nil {
		return nil, err
	}
	if in.Email != nil && *in.Email != "" {
		taken, err := s.patients.EmailTaken(ctx, *in.Email, 0)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.New(apperr.Conflict, "email already taken by another patient")
		}
	}

	code, err := s.codes.Next(ctx, s.patients.CodeExists)
	if err != nil {
		return nil, err
	}

	p := &Patient{
		Code:             code,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		DateOfBirth:      dob,
		Gender:           in.Gender,
		Phone:            in.Phone,
		Email:            in.Email,
		Address:          in.Address,
		EmergencyContact: in.EmergencyContact,
		MedicalHistory:   in.MedicalHistory,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Patient, error) {
	return s.patients.GetByCode(ctx, code)
}

// List searches by case-insensitive substring over first name, last name and
// code when search is non-empty.
func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, search, limit, offset)
}

// Update applies a partial update. The patient code is immutable.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		if *in.FirstName == "" {
			return nil, apperr.New(apperr.Invalid, "first_name must not be empty")
		}
		p.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		if *in.LastName == "" {
			return nil, apperr.New(apperr.Invalid, "last_name must not be empty")
		}
		p.LastName = *in.LastName
	}
	if in.DateOfBirth != nil {
		dob, err := parseDateOfBirth(*in.DateOfBirth)
		if err != nil {
			return nil, err
		}
		p.DateOfBirth = dob
	}
	if in.Gender != nil {
		if !ValidGender(*in.Gender) {
			return nil, apperr.New(apperr.Invalid, "gender must be male, female or other")
		}
		p.Gender = *in.Gender
	}
	if in.Email != nil {
		if *in.Email != "" {
			taken, err := s.patients.EmailTaken(ctx, *in.Email, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, apperr.New(apperr.Conflict, "email already taken by another patient")
			}
		}
		p.Email = in.Email
	}
	if in.Phone != nil {
		p.Phone = in.Phone
	}
	if in.Address != nil {
		p.Address = in.Address
	}
	if in.EmergencyContact != nil {
		p.EmergencyContact = in.EmergencyContact
	}
	if in.MedicalHistory != nil {
		p.MedicalHistory = in.MedicalHistory
	}

	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.patients.Delete(ctx, id)
}

// RegisterWithQueue creates the patient and their waiting queue entry in one
// transaction. A failure on either side leaves no partial writes.
func (s *Service) RegisterWithQueue(ctx context.Context, in RegisterInput) (*Patient, *queue.Entry, error) {
	var (
		p     *Patient
		entry *queue.Entry
	)
	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.Create(ctx, in.CreateInput)
		if err != nil {
			return err
		}
		entry, err = s.queue.Add(ctx, queue.AddInput{
			PatientID:     p.ID,
			CheckupType:   in.CheckupType,
			Priority:      in.Priority,
			Notes:         in.QueueNotes,
			EstimatedWait: in.EstimatedWait,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return p, entry, nil
}

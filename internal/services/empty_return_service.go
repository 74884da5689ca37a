package services

import (
	"context"
	"log"
	"strings"

	"camioBack/internal/models"
)

// Assigner is the manual commit path the empty-return consumption rides on.
type Assigner interface {
	AssignTransporterManually(ctx context.Context, requestID, transporterID int, amount, fee float64) (models.Request, error)
}

type EmptyReturnService struct {
	Repo        EmptyReturnStore
	RequestRepo RequestStore
	Assignments Assigner
}

func (s *EmptyReturnService) Create(ctx context.Context, input models.CreateEmptyReturnInput) (models.EmptyReturn, error) {
	input.FromCity = strings.TrimSpace(input.FromCity)
	input.ToCity = strings.TrimSpace(input.ToCity)
	if input.FromCity == "" || input.ToCity == "" {
		return models.EmptyReturn{}, models.ErrValidation
	}
	date, err := parseDay(input.ReturnDate)
	if err != nil {
		return models.EmptyReturn{}, models.ErrValidation
	}
	return s.Repo.CreateEmptyReturn(ctx, models.EmptyReturn{
		TransporterID: input.TransporterID,
		FromCity:      input.FromCity,
		ToCity:        input.ToCity,
		ReturnDate:    date,
	})
}

func (s *EmptyReturnService) ListByTransporter(ctx context.Context, transporterID int) ([]models.EmptyReturn, error) {
	return s.Repo.ListByTransporter(ctx, transporterID)
}

func (s *EmptyReturnService) ListOpenByRoute(ctx context.Context, fromCity, toCity string) ([]models.EmptyReturn, error) {
	return s.Repo.ListOpenByRoute(ctx, fromCity, toCity)
}

func (s *EmptyReturnService) Delete(ctx context.Context, id, transporterID int) error {
	return s.Repo.DeleteEmptyReturn(ctx, id, transporterID)
}

// Consume binds an empty return to a request: the admin pre-assigns the
// transporter using the request's existing pricing. A return is consumable at
// most once and the request must already be qualified.
func (s *EmptyReturnService) Consume(ctx context.Context, emptyReturnID, requestID int) (models.Request, error) {
	er, err := s.Repo.GetEmptyReturnByID(ctx, emptyReturnID)
	if err != nil {
		return models.Request{}, err
	}
	if er.ConsumedBy != nil {
		return models.Request{}, models.ErrEmptyReturnUsed
	}

	req, err := s.RequestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return models.Request{}, err
	}
	if req.QualifiedAt == nil {
		return models.Request{}, models.ErrPreconditionFailed
	}

	assigned, err := s.Assignments.AssignTransporterManually(ctx, requestID, er.TransporterID, req.TransporterAmount, req.PlatformFee)
	if err != nil {
		return models.Request{}, err
	}

	ok, err := s.Repo.Consume(ctx, emptyReturnID, requestID)
	if err != nil {
		log.Printf("empty return %d: consume: %v", emptyReturnID, err)
	} else if !ok {
		log.Printf("empty return %d: already consumed, assignment on request %d stands", emptyReturnID, requestID)
	}
	return assigned, nil
}

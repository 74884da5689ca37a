package services

import (
	"context"

	"camioBack/internal/fsm"
	"camioBack/internal/models"
)

type OfferService struct {
	OfferRepo   OfferStore
	RequestRepo RequestStore
	Notifier    Notifier
}

// CreateOffer places a priced bid against a request still open to matching.
func (s *OfferService) CreateOffer(ctx context.Context, input models.CreateOfferInput) (models.Offer, error) {
	if input.Amount <= 0 {
		return models.Offer{}, models.ErrValidation
	}
	if input.LoadType == "" {
		input.LoadType = models.LoadTypeShared
	}
	if input.LoadType != models.LoadTypeReturn && input.LoadType != models.LoadTypeShared {
		return models.Offer{}, models.ErrValidation
	}

	req, err := s.RequestRepo.GetRequestByID(ctx, input.RequestID)
	if err != nil {
		return models.Offer{}, err
	}
	if req.Status != fsm.StatusOpen && req.Status != fsm.StatusPublished {
		return models.Offer{}, models.ErrPreconditionFailed
	}

	declined, err := s.RequestRepo.IsDeclined(ctx, input.RequestID, input.TransporterID)
	if err != nil {
		return models.Offer{}, err
	}
	if declined {
		return models.Offer{}, models.ErrAlreadyDeclined
	}

	offer := models.Offer{
		RequestID:     input.RequestID,
		TransporterID: input.TransporterID,
		Amount:        input.Amount,
		LoadType:      input.LoadType,
		Status:        models.OfferPending,
	}
	if input.PickupDate != nil && *input.PickupDate != "" {
		d, err := parseDay(*input.PickupDate)
		if err != nil {
			return models.Offer{}, models.ErrValidation
		}
		offer.PickupDate = &d
	}

	created, err := s.OfferRepo.CreateOffer(ctx, offer)
	if err != nil {
		return models.Offer{}, err
	}

	if s.Notifier != nil {
		go s.Notifier.NotifyUser(context.Background(), req.ClientID,
			"New offer on your request",
			"A transporter priced "+req.ReferenceID,
			map[string]string{"request_id": req.ReferenceID})
	}
	return created, nil
}

func (s *OfferService) GetOffersByRequest(ctx context.Context, requestID int) ([]models.Offer, error) {
	return s.OfferRepo.GetOffersByRequest(ctx, requestID)
}

// RejectOffer declines a pending offer without touching the request.
func (s *OfferService) RejectOffer(ctx context.Context, offerID, clientID int) error {
	offer, err := s.OfferRepo.GetOfferByID(ctx, offerID)
	if err != nil {
		return err
	}
	req, err := s.RequestRepo.GetRequestByID(ctx, offer.RequestID)
	if err != nil {
		return err
	}
	if req.ClientID != clientID {
		return models.ErrForbidden
	}
	ok, err := s.OfferRepo.UpdateOfferStatus(ctx, offerID, models.OfferPending, models.OfferRejected)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrPreconditionFailed
	}
	return nil
}

package services

import (
	"context"
	"log"
	"time"

	"camioBack/internal/fsm"
	"camioBack/internal/models"
)

type OfferStore interface {
	CreateOffer(ctx context.Context, o models.Offer) (models.Offer, error)
	GetOfferByID(ctx context.Context, id int) (models.Offer, error)
	GetOffersByRequest(ctx context.Context, requestID int) ([]models.Offer, error)
	UpdateOfferStatus(ctx context.Context, id int, from, to string) (bool, error)
}

// AssignmentService commits a request to exactly one transporter. All three
// paths funnel through a compare-and-set on the request row, so concurrent
// selections resolve to a single winner no matter which path they took.
type AssignmentService struct {
	RequestRepo  RequestStore
	OfferRepo    OfferStore
	ContractRepo ContractStore
	Notifier     Notifier
	Events       EventPublisher
}

// ChooseTransporter commits the client's pick from the interest ledger.
func (s *AssignmentService) ChooseTransporter(ctx context.Context, requestID, transporterID, clientID int) (models.Request, error) {
	req, err := s.RequestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return models.Request{}, err
	}
	if req.ClientID != clientID {
		return models.Request{}, models.ErrForbidden
	}

	interested, err := s.RequestRepo.HasInterest(ctx, requestID, transporterID)
	if err != nil {
		return models.Request{}, err
	}
	if !interested {
		return models.Request{}, models.ErrPreconditionFailed
	}

	ok, err := s.RequestRepo.CommitChosenTransporter(ctx, requestID, transporterID)
	if err != nil {
		return models.Request{}, err
	}
	if !ok {
		return models.Request{}, models.ErrAlreadyAssigned
	}

	if err := s.openContract(ctx, models.Contract{
		RequestID:     requestID,
		ClientID:      req.ClientID,
		TransporterID: transporterID,
		Amount:        req.TransporterAmount,
	}); err != nil {
		log.Printf("request %d: open contract: %v", requestID, err)
	}

	s.announce(req, transporterID, requestID)
	return s.RequestRepo.GetRequestByID(ctx, requestID)
}

// AcceptOffer commits a pending offer. Sibling offers are left pending; they
// simply become unacceptable because the request guard no longer matches.
func (s *AssignmentService) AcceptOffer(ctx context.Context, offerID, clientID int) (models.Request, error) {
	offer, err := s.OfferRepo.GetOfferByID(ctx, offerID)
	if err != nil {
		return models.Request{}, err
	}
	if offer.Status != models.OfferPending {
		return models.Request{}, models.ErrPreconditionFailed
	}

	req, err := s.RequestRepo.GetRequestByID(ctx, offer.RequestID)
	if err != nil {
		return models.Request{}, err
	}
	if req.ClientID != clientID {
		return models.Request{}, models.ErrForbidden
	}

	ok, err := s.RequestRepo.CommitAcceptedOffer(ctx, offer.RequestID, offerID)
	if err != nil {
		return models.Request{}, err
	}
	if !ok {
		return models.Request{}, models.ErrAlreadyAssigned
	}

	if err := s.openContract(ctx, models.Contract{
		RequestID:     offer.RequestID,
		OfferID:       &offer.ID,
		ClientID:      req.ClientID,
		TransporterID: offer.TransporterID,
		Amount:        offer.Amount,
	}); err != nil {
		log.Printf("request %d: open contract: %v", offer.RequestID, err)
	}

	s.announce(req, offer.TransporterID, offer.RequestID)
	return s.RequestRepo.GetRequestByID(ctx, offer.RequestID)
}

// AssignTransporterManually is the admin override: pricing and transporter in
// one shot, no interest or offer required.
func (s *AssignmentService) AssignTransporterManually(ctx context.Context, requestID, transporterID int, amount, fee float64) (models.Request, error) {
	total, err := Qualify(amount, fee)
	if err != nil {
		return models.Request{}, err
	}

	req, err := s.RequestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return models.Request{}, err
	}

	ok, err := s.RequestRepo.CommitManualAssignment(ctx, requestID, transporterID, amount, fee, total)
	if err != nil {
		return models.Request{}, err
	}
	if !ok {
		return models.Request{}, models.ErrAlreadyAssigned
	}

	if err := s.openContract(ctx, models.Contract{
		RequestID:     requestID,
		ClientID:      req.ClientID,
		TransporterID: transporterID,
		Amount:        amount,
	}); err != nil {
		log.Printf("request %d: open contract: %v", requestID, err)
	}

	s.announce(req, transporterID, requestID)
	return s.RequestRepo.GetRequestByID(ctx, requestID)
}

func (s *AssignmentService) openContract(ctx context.Context, c models.Contract) error {
	c.Status = models.ContractInProgress
	_, err := s.ContractRepo.CreateContract(ctx, c)
	return err
}

func (s *AssignmentService) announce(req models.Request, transporterID, requestID int) {
	if s.Notifier != nil {
		go s.Notifier.NotifyUser(context.Background(), transporterID,
			"You were selected",
			"You are assigned to request "+req.ReferenceID,
			map[string]string{"request_id": req.ReferenceID})
	}
	if s.Events != nil {
		ev := models.RequestEvent{Type: "request_accepted", RequestID: requestID, Status: fsm.StatusAccepted}
		s.Events.PublishRequestEvent(req.ClientID, ev)
		s.Events.PublishRequestEvent(transporterID, ev)
	}
}

// parseDay parses a bare calendar date.
func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

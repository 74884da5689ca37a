package services

import (
	"context"
	"log"
	"strings"
	"time"

	"camioBack/internal/fsm"
	"camioBack/internal/models"

	"github.com/google/uuid"
)

// RequestStore is the persistence surface the lifecycle services need. All
// conditional updates are compare-and-set at the storage layer; a false return
// means the guard did not match and nothing was written.
type RequestStore interface {
	CreateRequest(ctx context.Context, req models.Request) (models.Request, error)
	GetRequestByID(ctx context.Context, id int) (models.Request, error)
	GetRequestsByStatus(ctx context.Context, status string, limit, offset int) ([]models.Request, error)
	GetRequestsByClient(ctx context.Context, clientID int) ([]models.Request, error)
	Qualify(ctx context.Context, id int, amount, fee, total float64) error
	UpdateStatus(ctx context.Context, id int, from, to string) (bool, error)
	Archive(ctx context.Context, id int, reason string) (bool, error)
	CommitChosenTransporter(ctx context.Context, requestID, transporterID int) (bool, error)
	CommitManualAssignment(ctx context.Context, requestID, transporterID int, amount, fee, total float64) (bool, error)
	CommitAcceptedOffer(ctx context.Context, requestID, offerID int) (bool, error)
	Republish(ctx context.Context, id int) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id int, from, to string, receipt *string) (bool, error)
	SetHidden(ctx context.Context, id int, hidden bool) error
	DeleteRequest(ctx context.Context, id int) error
	AddInterest(ctx context.Context, in models.Interest) error
	RemoveInterest(ctx context.Context, requestID, transporterID int) error
	HasInterest(ctx context.Context, requestID, transporterID int) (bool, error)
	ListInterests(ctx context.Context, requestID int) ([]models.Interest, error)
	AddDecline(ctx context.Context, requestID, transporterID int) error
	IsDeclined(ctx context.Context, requestID, transporterID int) (bool, error)
	MarkExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

type ContractStore interface {
	CreateContract(ctx context.Context, c models.Contract) (models.Contract, error)
	GetContractByRequest(ctx context.Context, requestID int) (models.Contract, error)
	UpdateContractStatus(ctx context.Context, id int, status string) error
}

type TransporterStore interface {
	GetUserByID(ctx context.Context, id int) (models.User, error)
	ListEligibleTransporters(ctx context.Context, requestID int) ([]models.TransporterSummary, error)
	ApplyRating(ctx context.Context, transporterID int, rating float64) error
	IncrementTrips(ctx context.Context, transporterID int) error
}

// Notifier delivers push notifications. Implementations must swallow their own
// failures; the state machine never waits on them.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int, title, body string, data map[string]string)
}

// EventPublisher pushes request events to connected clients.
type EventPublisher interface {
	PublishRequestEvent(userID int, event models.RequestEvent)
}

// Recommender triggers the one-time candidate fan-out after qualification.
type Recommender interface {
	NotifyTopCandidates(ctx context.Context, requestID int)
}

type RequestService struct {
	RequestRepo          RequestStore
	ContractRepo         ContractStore
	UserRepo             TransporterStore
	Notifier             Notifier
	Events               EventPublisher
	Recommender          Recommender
	CommissionPercentage float64
}

func newReferenceID() string {
	id := uuid.New().String()
	return "CM-" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:8])
}

func validateCreateInput(input models.CreateRequestInput) error {
	if strings.TrimSpace(input.FromCity) == "" || strings.TrimSpace(input.ToCity) == "" {
		return models.ErrValidation
	}
	if len(strings.TrimSpace(input.Description)) < 10 {
		return models.ErrValidation
	}
	if strings.TrimSpace(input.GoodsType) == "" {
		return models.ErrValidation
	}
	if input.HandlingRequired {
		if input.FromFloor == nil || input.ToFloor == nil || input.FromElevator == nil || input.ToElevator == nil {
			return models.ErrValidation
		}
		if *input.FromFloor < 0 || *input.ToFloor < 0 {
			return models.ErrValidation
		}
	}
	return nil
}

func (s *RequestService) CreateRequest(ctx context.Context, input models.CreateRequestInput) (models.Request, error) {
	if err := validateCreateInput(input); err != nil {
		return models.Request{}, err
	}

	req := models.Request{
		ReferenceID:      newReferenceID(),
		ClientID:         input.ClientID,
		FromCity:         strings.TrimSpace(input.FromCity),
		ToCity:           strings.TrimSpace(input.ToCity),
		FromAddress:      input.FromAddress,
		ToAddress:        input.ToAddress,
		GoodsType:        strings.TrimSpace(input.GoodsType),
		Description:      strings.TrimSpace(input.Description),
		Budget:           input.Budget,
		HandlingRequired: input.HandlingRequired,
	}
	if input.HandlingRequired {
		req.FromFloor = input.FromFloor
		req.ToFloor = input.ToFloor
		req.FromElevator = input.FromElevator
		req.ToElevator = input.ToElevator
	}
	if input.PickupDate != nil && *input.PickupDate != "" {
		d, err := time.Parse("2006-01-02", *input.PickupDate)
		if err != nil {
			return models.Request{}, models.ErrValidation
		}
		req.PickupDate = &d
	}

	return s.RequestRepo.CreateRequest(ctx, req)
}

func (s *RequestService) GetRequestByID(ctx context.Context, id int) (models.Request, error) {
	req, err := s.RequestRepo.GetRequestByID(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	req.CommissionAmount = CommissionAmount(req.TransporterAmount, s.CommissionPercentage)
	return req, nil
}

func (s *RequestService) GetRequestsByStatus(ctx context.Context, status string, limit, offset int) ([]models.Request, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.RequestRepo.GetRequestsByStatus(ctx, status, limit, offset)
}

func (s *RequestService) GetRequestsByClient(ctx context.Context, clientID int) ([]models.Request, error) {
	return s.RequestRepo.GetRequestsByClient(ctx, clientID)
}

// QualifyRequest prices the request. Idempotent: re-qualifying recomputes the
// amounts; qualified_at is stamped only on the first call and interests
// gathered after publication survive re-qualification untouched.
func (s *RequestService) QualifyRequest(ctx context.Context, id int, input models.QualifyRequestInput) (models.Request, error) {
	total, err := Qualify(input.TransporterAmount, input.PlatformFee)
	if err != nil {
		return models.Request{}, err
	}

	req, err := s.RequestRepo.GetRequestByID(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	firstQualification := req.QualifiedAt == nil

	if err := s.RequestRepo.Qualify(ctx, id, input.TransporterAmount, input.PlatformFee, total); err != nil {
		return models.Request{}, err
	}

	if firstQualification && s.Recommender != nil {
		// Fan-out commits after the transition; a notification failure must
		// never roll it back.
		go s.Recommender.NotifyTopCandidates(context.Background(), id)
	}

	return s.GetRequestByID(ctx, id)
}

// PublishForMatching makes a qualified request visible to transporters.
func (s *RequestService) PublishForMatching(ctx context.Context, id int) (models.Request, error) {
	req, err := s.RequestRepo.GetRequestByID(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	if req.QualifiedAt == nil {
		return models.Request{}, models.ErrPreconditionFailed
	}
	if req.Status == fsm.StatusPublished {
		return req, nil
	}
	if !fsm.CanTransition(req.Status, fsm.StatusPublished) || req.Status != fsm.StatusOpen {
		return models.Request{}, models.ErrPreconditionFailed
	}
	ok, err := s.RequestRepo.UpdateStatus(ctx, id, fsm.StatusOpen, fsm.StatusPublished)
	if err != nil {
		return models.Request{}, err
	}
	if !ok {
		return models.Request{}, models.ErrPreconditionFailed
	}
	s.publishEvent(req.ClientID, models.RequestEvent{Type: "request_published", RequestID: id, Status: fsm.StatusPublished})
	return s.GetRequestByID(ctx, id)
}

func (s *RequestService) ArchiveRequest(ctx context.Context, id int, reason string) (models.Request, error) {
	if !models.ValidArchiveReason(reason) {
		return models.Request{}, models.ErrValidation
	}
	ok, err := s.RequestRepo.Archive(ctx, id, reason)
	if err != nil {
		return models.Request{}, err
	}
	if !ok {
		// Distinguish a missing row from an illegal source state.
		if _, err := s.RequestRepo.GetRequestByID(ctx, id); err != nil {
			return models.Request{}, err
		}
		return models.Request{}, models.ErrPreconditionFailed
	}
	return s.GetRequestByID(ctx, id)
}

// StartRequest records pickup by the assigned transporter.
func (s *RequestService) StartRequest(ctx context.Context, id, transporterID int) (models.Request, error) {
	req, err := s.RequestRepo.GetRequestByID(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	committed := s.committedTransporter(ctx, req)
	if committed == 0 || committed != transporterID {
		return models.Request{}, models.ErrForbidden
	}
	ok, err := s.RequestRepo.UpdateStatus(ctx, id, fsm.StatusAccepted, fsm.StatusInProgress)
	if err != nil {
		return models.Request{}, err
	}
	if !ok {
		return models.Request{}, models.ErrPreconditionFailed
	}
	s.publishEvent(req.ClientID, models.RequestEvent{Type: "request_started", RequestID: id, Status: fsm.StatusInProgress})
	return s.GetRequestByID(ctx, id)
}

// CompleteRequest closes the execution phase. The optional rating feeds the
// transporter's running aggregate.
func (s *RequestService) CompleteRequest(ctx context.Context, id, clientID int, rating *float64) (models.Request, error) {
	req, err := s.RequestRepo.GetRequestByID(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	if req.ClientID != clientID {
		return models.Request{}, models.ErrForbidden
	}
	if req.Status != fsm.StatusAccepted && req.Status != fsm.StatusInProgress {
		return models.Request{}, models.ErrPreconditionFailed
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return models.Request{}, models.ErrValidation
	}

	ok, err := s.RequestRepo.UpdateStatus(ctx, id, req.Status, fsm.StatusCompleted)
	if err != nil {
		return models.Request{}, err
	}
	if !ok {
		return models.Request{}, models.ErrPreconditionFailed
	}

	// The payment obligation comes due once delivery is done.
	ok, err = s.RequestRepo.UpdatePaymentStatus(ctx, id, fsm.PaymentPending, fsm.PaymentAwaiting, nil)
	if err != nil {
		return models.Request{}, err
	}
	if !ok {
		cur, err := s.RequestRepo.GetRequestByID(ctx, id)
		if err != nil {
			return models.Request{}, err
		}
		// A republished request keeps the payment progress from its first run.
		if cur.PaymentStatus == fsm.PaymentNotRequired || cur.PaymentStatus == fsm.PaymentPending {
			return models.Request{}, models.ErrPreconditionFailed
		}
	}

	transporterID := s.committedTransporter(ctx, req)
	if transporterID != 0 {
		if rating != nil {
			if err := s.UserRepo.ApplyRating(ctx, transporterID, *rating); err != nil {
				log.Printf("request %d: apply rating: %v", id, err)
			}
		} else {
			if err := s.UserRepo.IncrementTrips(ctx, transporterID); err != nil {
				log.Printf("request %d: count trip: %v", id, err)
			}
		}
		s.notify(transporterID, "Delivery confirmed", "The client confirmed delivery for "+req.ReferenceID, map[string]string{"request_id": req.ReferenceID})
	}
	s.publishEvent(req.ClientID, models.RequestEvent{Type: "request_completed", RequestID: id, Status: fsm.StatusCompleted})
	return s.GetRequestByID(ctx, id)
}

// RepublishRequest returns a matched-but-unsatisfied request to matching,
// clearing the assignment fields.
func (s *RequestService) RepublishRequest(ctx context.Context, id int) (models.Request, error) {
	ok, err := s.RequestRepo.Republish(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	if !ok {
		if _, err := s.RequestRepo.GetRequestByID(ctx, id); err != nil {
			return models.Request{}, err
		}
		return models.Request{}, models.ErrPreconditionFailed
	}
	return s.GetRequestByID(ctx, id)
}

func (s *RequestService) ToggleHide(ctx context.Context, id int, hidden bool) error {
	return s.RequestRepo.SetHidden(ctx, id, hidden)
}

func (s *RequestService) DeleteRequest(ctx context.Context, id int) error {
	return s.RequestRepo.DeleteRequest(ctx, id)
}

// ExpireStale marks published requests untouched since the cutoff as expired.
func (s *RequestService) ExpireStale(ctx context.Context, olderThan time.Time) (int64, error) {
	return s.RequestRepo.MarkExpired(ctx, olderThan)
}

func (s *RequestService) committedTransporter(ctx context.Context, req models.Request) int {
	if req.AssignedTransporterID != nil {
		return *req.AssignedTransporterID
	}
	contract, err := s.ContractRepo.GetContractByRequest(ctx, req.ID)
	if err != nil {
		return 0
	}
	return contract.TransporterID
}

func (s *RequestService) notify(userID int, title, body string, data map[string]string) {
	if s.Notifier == nil {
		return
	}
	go s.Notifier.NotifyUser(context.Background(), userID, title, body, data)
}

func (s *RequestService) publishEvent(userID int, event models.RequestEvent) {
	if s.Events == nil {
		return
	}
	s.Events.PublishRequestEvent(userID, event)
}

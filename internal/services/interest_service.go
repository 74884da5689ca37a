package services

import (
	"context"
	"log"

	"camioBack/internal/fsm"
	"camioBack/internal/models"
)

// PresenceToucher refreshes a transporter's activity window.
type PresenceToucher interface {
	Touch(ctx context.Context, transporterID int) error
}

type InterestService struct {
	RequestRepo RequestStore
	Presence    PresenceToucher
	Notifier    Notifier
}

// ExpressInterest records a transporter's availability signal. Repeating the
// call is a no-op; the ledger holds at most one entry per pair.
func (s *InterestService) ExpressInterest(ctx context.Context, requestID, transporterID int, availability *string) error {
	req, err := s.RequestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != fsm.StatusPublished {
		return models.ErrPreconditionFailed
	}

	declined, err := s.RequestRepo.IsDeclined(ctx, requestID, transporterID)
	if err != nil {
		return err
	}
	if declined {
		return models.ErrAlreadyDeclined
	}

	in := models.Interest{RequestID: requestID, TransporterID: transporterID}
	if availability != nil && *availability != "" {
		d, err := parseDay(*availability)
		if err != nil {
			return models.ErrValidation
		}
		in.AvailabilityDate = &d
	}
	if err := s.RequestRepo.AddInterest(ctx, in); err != nil {
		return err
	}
	s.touch(transporterID)

	if s.Notifier != nil {
		go s.Notifier.NotifyUser(context.Background(), req.ClientID,
			"New interest on your request",
			"A transporter is available for "+req.ReferenceID,
			map[string]string{"request_id": req.ReferenceID})
	}
	return nil
}

// WithdrawInterest removes the transporter from the ledger. Withdrawing an
// interest that was never expressed is a no-op.
func (s *InterestService) WithdrawInterest(ctx context.Context, requestID, transporterID int) error {
	if err := s.RequestRepo.RemoveInterest(ctx, requestID, transporterID); err != nil {
		return err
	}
	s.touch(transporterID)
	return nil
}

// DeclineRequest permanently excludes the transporter from the request's
// candidate pool and drops any pending interest.
func (s *InterestService) DeclineRequest(ctx context.Context, requestID, transporterID int) error {
	if _, err := s.RequestRepo.GetRequestByID(ctx, requestID); err != nil {
		return err
	}
	if err := s.RequestRepo.AddDecline(ctx, requestID, transporterID); err != nil {
		return err
	}
	if err := s.RequestRepo.RemoveInterest(ctx, requestID, transporterID); err != nil {
		return err
	}
	s.touch(transporterID)
	return nil
}

func (s *InterestService) ListInterests(ctx context.Context, requestID int) ([]models.Interest, error) {
	return s.RequestRepo.ListInterests(ctx, requestID)
}

func (s *InterestService) touch(transporterID int) {
	if s.Presence == nil {
		return
	}
	if err := s.Presence.Touch(context.Background(), transporterID); err != nil {
		log.Printf("presence touch %d: %v", transporterID, err)
	}
}

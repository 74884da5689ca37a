package services

import (
	"context"
	"log"

	"camioBack/internal/fsm"
	"camioBack/internal/models"
)

// ReceiptUploader stores a payment receipt and returns its public reference.
type ReceiptUploader interface {
	UploadReceipt(file []byte, filename string) (string, error)
}

// PaymentService runs the offline payment validation loop. Money never moves
// here; the service only tracks receipt evidence and the admin verdict.
type PaymentService struct {
	RequestRepo  RequestStore
	ContractRepo ContractStore
	Uploader     ReceiptUploader
	Notifier     Notifier
	Events       EventPublisher
}

// MarkAsPaid attaches the client's receipt and moves the payment into admin
// validation. Accepts either an uploaded file or an already-hosted reference.
func (s *PaymentService) MarkAsPaid(ctx context.Context, requestID, clientID int, file []byte, filename, receiptRef string) (models.Request, error) {
	if len(file) == 0 && receiptRef == "" {
		return models.Request{}, models.ErrReceiptRequired
	}

	req, err := s.RequestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return models.Request{}, err
	}
	if req.ClientID != clientID {
		return models.Request{}, models.ErrForbidden
	}
	if !fsm.CanTransitionPayment(req.PaymentStatus, fsm.PaymentAdminValidation) {
		return models.Request{}, models.ErrPreconditionFailed
	}

	if len(file) > 0 {
		url, err := s.Uploader.UploadReceipt(file, filename)
		if err != nil {
			return models.Request{}, err
		}
		receiptRef = url
	}

	ok, err := s.RequestRepo.UpdatePaymentStatus(ctx, requestID, req.PaymentStatus, fsm.PaymentAdminValidation, &receiptRef)
	if err != nil {
		return models.Request{}, err
	}
	if !ok {
		return models.Request{}, models.ErrPreconditionFailed
	}

	s.markContract(ctx, requestID, models.ContractMarkedPaidClient)
	s.publish(req.ClientID, models.RequestEvent{Type: "payment_submitted", RequestID: requestID, PaymentStatus: fsm.PaymentAdminValidation})
	return s.RequestRepo.GetRequestByID(ctx, requestID)
}

// ValidatePayment is the admin accepting the receipt. Paid is terminal.
func (s *PaymentService) ValidatePayment(ctx context.Context, requestID int) (models.Request, error) {
	req, err := s.RequestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return models.Request{}, err
	}

	ok, err := s.RequestRepo.UpdatePaymentStatus(ctx, requestID, fsm.PaymentAdminValidation, fsm.PaymentPaid, nil)
	if err != nil {
		return models.Request{}, err
	}
	if !ok {
		return models.Request{}, models.ErrPreconditionFailed
	}

	s.markContract(ctx, requestID, models.ContractCompleted)
	s.notifyBoth(ctx, req, "Payment confirmed", "Payment for "+req.ReferenceID+" was validated")
	s.publish(req.ClientID, models.RequestEvent{Type: "payment_validated", RequestID: requestID, PaymentStatus: fsm.PaymentPaid})
	return s.RequestRepo.GetRequestByID(ctx, requestID)
}

// RejectReceipt sends the payment back to the client for a new receipt.
func (s *PaymentService) RejectReceipt(ctx context.Context, requestID int) (models.Request, error) {
	req, err := s.RequestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return models.Request{}, err
	}

	ok, err := s.RequestRepo.UpdatePaymentStatus(ctx, requestID, fsm.PaymentAdminValidation, fsm.PaymentAwaiting, nil)
	if err != nil {
		return models.Request{}, err
	}
	if !ok {
		return models.Request{}, models.ErrPreconditionFailed
	}

	if s.Notifier != nil {
		go s.Notifier.NotifyUser(context.Background(), req.ClientID,
			"Receipt rejected",
			"Please upload a new receipt for "+req.ReferenceID,
			map[string]string{"request_id": req.ReferenceID})
	}
	s.publish(req.ClientID, models.RequestEvent{Type: "receipt_rejected", RequestID: requestID, PaymentStatus: fsm.PaymentAwaiting})
	return s.RequestRepo.GetRequestByID(ctx, requestID)
}

func (s *PaymentService) markContract(ctx context.Context, requestID int, status string) {
	contract, err := s.ContractRepo.GetContractByRequest(ctx, requestID)
	if err != nil {
		return
	}
	if err := s.ContractRepo.UpdateContractStatus(ctx, contract.ID, status); err != nil {
		log.Printf("request %d: contract status: %v", requestID, err)
	}
}

func (s *PaymentService) notifyBoth(ctx context.Context, req models.Request, title, body string) {
	if s.Notifier == nil {
		return
	}
	data := map[string]string{"request_id": req.ReferenceID}
	go s.Notifier.NotifyUser(context.Background(), req.ClientID, title, body, data)
	if contract, err := s.ContractRepo.GetContractByRequest(ctx, req.ID); err == nil {
		go s.Notifier.NotifyUser(context.Background(), contract.TransporterID, title, body, data)
	}
}

func (s *PaymentService) publish(userID int, event models.RequestEvent) {
	if s.Events == nil {
		return
	}
	s.Events.PublishRequestEvent(userID, event)
}

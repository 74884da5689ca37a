package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"camioBack/internal/fsm"
	"camioBack/internal/models"
)

func newAssignmentService(reqs *fakeRequestStore) (*AssignmentService, *fakeOfferStore, *fakeContractStore) {
	offers := newFakeOfferStore()
	reqs.offers = offers
	contracts := newFakeContractStore()
	return &AssignmentService{RequestRepo: reqs, OfferRepo: offers, ContractRepo: contracts}, offers, contracts
}

func TestChooseTransporterRequiresInterest(t *testing.T) {
	reqs := newFakeRequestStore()
	svc, _, _ := newAssignmentService(reqs)
	ctx := context.Background()

	id := reqs.seed(models.Request{ClientID: 1, Status: fsm.StatusPublished, TransporterAmount: 500})

	if _, err := svc.ChooseTransporter(ctx, id, 7, 1); !errors.Is(err, models.ErrPreconditionFailed) {
		t.Fatalf("expected precondition failure, got %v", err)
	}

	if err := reqs.AddInterest(ctx, models.Interest{RequestID: id, TransporterID: 7}); err != nil {
		t.Fatalf("add interest: %v", err)
	}
	if _, err := svc.ChooseTransporter(ctx, id, 7, 2); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	req, err := svc.ChooseTransporter(ctx, id, 7, 1)
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if req.Status != fsm.StatusAccepted || req.AssignedTransporterID == nil || *req.AssignedTransporterID != 7 {
		t.Fatalf("assignment not committed: %+v", req)
	}
	if req.PaymentStatus != fsm.PaymentPending {
		t.Fatalf("expected payment pending, got %s", req.PaymentStatus)
	}
}

func TestChooseTransporterConcurrent(t *testing.T) {
	reqs := newFakeRequestStore()
	svc, _, contracts := newAssignmentService(reqs)
	ctx := context.Background()

	id := reqs.seed(models.Request{ClientID: 1, Status: fsm.StatusPublished, TransporterAmount: 500})
	for _, tid := range []int{7, 8} {
		if err := reqs.AddInterest(ctx, models.Interest{RequestID: id, TransporterID: tid}); err != nil {
			t.Fatalf("add interest: %v", err)
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, tid := range []int{7, 8} {
		wg.Add(1)
		go func(i, tid int) {
			defer wg.Done()
			_, errs[i] = svc.ChooseTransporter(ctx, id, tid, 1)
		}(i, tid)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, models.ErrAlreadyAssigned):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("expected exactly one winner, got %d wins and %d losses", wins, losses)
	}

	contract, err := contracts.GetContractByRequest(ctx, id)
	if err != nil {
		t.Fatalf("contract missing after commit: %v", err)
	}
	req, _ := reqs.GetRequestByID(ctx, id)
	if req.AssignedTransporterID == nil || contract.TransporterID != *req.AssignedTransporterID {
		t.Fatalf("contract transporter %d does not match assignment %v", contract.TransporterID, req.AssignedTransporterID)
	}
}

func TestAcceptOfferLeavesSiblingsPending(t *testing.T) {
	reqs := newFakeRequestStore()
	svc, offers, contracts := newAssignmentService(reqs)
	ctx := context.Background()

	id := reqs.seed(models.Request{ClientID: 1, Status: fsm.StatusPublished})
	first, _ := offers.CreateOffer(ctx, models.Offer{RequestID: id, TransporterID: 7, Amount: 480, Status: models.OfferPending})
	second, _ := offers.CreateOffer(ctx, models.Offer{RequestID: id, TransporterID: 8, Amount: 520, Status: models.OfferPending})

	req, err := svc.AcceptOffer(ctx, first.ID, 1)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if req.AcceptedOfferID == nil || *req.AcceptedOfferID != first.ID {
		t.Fatalf("accepted offer not recorded: %+v", req)
	}

	// The sibling stays pending; the request guard makes it unacceptable.
	sibling, _ := offers.GetOfferByID(ctx, second.ID)
	if sibling.Status != models.OfferPending {
		t.Fatalf("sibling offer mutated: %s", sibling.Status)
	}
	if _, err := svc.AcceptOffer(ctx, second.ID, 1); !errors.Is(err, models.ErrAlreadyAssigned) {
		t.Fatalf("expected already assigned, got %v", err)
	}

	contract, err := contracts.GetContractByRequest(ctx, id)
	if err != nil {
		t.Fatalf("contract missing: %v", err)
	}
	if contract.OfferID == nil || *contract.OfferID != first.ID || contract.Amount != 480 {
		t.Fatalf("contract not tied to winning offer: %+v", contract)
	}
}

func TestAssignTransporterManually(t *testing.T) {
	reqs := newFakeRequestStore()
	svc, _, contracts := newAssignmentService(reqs)
	ctx := context.Background()

	// Manual assignment works straight from open, no interest or offer needed.
	id := reqs.seed(models.Request{ClientID: 1, Status: fsm.StatusOpen})

	if _, err := svc.AssignTransporterManually(ctx, id, 7, -5, 10); !errors.Is(err, models.ErrInvalidPricing) {
		t.Fatalf("expected invalid pricing, got %v", err)
	}

	req, err := svc.AssignTransporterManually(ctx, id, 7, 500, 50)
	if err != nil {
		t.Fatalf("manual assign: %v", err)
	}
	if req.Status != fsm.StatusAccepted || req.ClientTotal != 550 || req.QualifiedAt == nil {
		t.Fatalf("manual assignment incomplete: %+v", req)
	}
	// The commit itself opens the payment loop when pricing happened in-line.
	if req.PaymentStatus != fsm.PaymentPending {
		t.Fatalf("expected payment pending, got %s", req.PaymentStatus)
	}

	contract, err := contracts.GetContractByRequest(ctx, id)
	if err != nil {
		t.Fatalf("contract missing: %v", err)
	}
	if contract.OfferID != nil {
		t.Fatal("manual contract must not reference an offer")
	}

	// A second manual assignment loses the guard.
	if _, err := svc.AssignTransporterManually(ctx, id, 8, 500, 50); !errors.Is(err, models.ErrAlreadyAssigned) {
		t.Fatalf("expected already assigned, got %v", err)
	}
}

func TestAcceptOfferRejectedOffer(t *testing.T) {
	reqs := newFakeRequestStore()
	svc, offers, _ := newAssignmentService(reqs)
	ctx := context.Background()

	id := reqs.seed(models.Request{ClientID: 1, Status: fsm.StatusPublished})
	offer, _ := offers.CreateOffer(ctx, models.Offer{RequestID: id, TransporterID: 7, Amount: 480, Status: models.OfferRejected})

	if _, err := svc.AcceptOffer(ctx, offer.ID, 1); !errors.Is(err, models.ErrPreconditionFailed) {
		t.Fatalf("expected precondition failure, got %v", err)
	}
}

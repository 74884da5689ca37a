package services

import (
	"context"
	"errors"
	"testing"

	"camioBack/internal/fsm"
	"camioBack/internal/models"
)

func newRequestService(reqs *fakeRequestStore) (*RequestService, *fakeContractStore, *fakeUserStore) {
	contracts := newFakeContractStore()
	users := newFakeUserStore(reqs)
	svc := &RequestService{
		RequestRepo:          reqs,
		ContractRepo:         contracts,
		UserRepo:             users,
		CommissionPercentage: 10,
	}
	return svc, contracts, users
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func validInput() models.CreateRequestInput {
	return models.CreateRequestInput{
		ClientID:    1,
		FromCity:    "Casablanca",
		ToCity:      "Rabat",
		GoodsType:   "furniture",
		Description: "Three-room apartment move",
		Budget:      600,
	}
}

func TestCreateRequestValidation(t *testing.T) {
	svc, _, _ := newRequestService(newFakeRequestStore())
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*models.CreateRequestInput)
	}{
		{"missing origin", func(in *models.CreateRequestInput) { in.FromCity = "" }},
		{"missing destination", func(in *models.CreateRequestInput) { in.ToCity = " " }},
		{"short description", func(in *models.CreateRequestInput) { in.Description = "short" }},
		{"missing goods type", func(in *models.CreateRequestInput) { in.GoodsType = "" }},
		{"handling without floors", func(in *models.CreateRequestInput) { in.HandlingRequired = true }},
		{"bad pickup date", func(in *models.CreateRequestInput) { in.PickupDate = strPtr("tomorrow") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			if _, err := svc.CreateRequest(ctx, in); !errors.Is(err, models.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	in := validInput()
	in.HandlingRequired = true
	in.FromFloor = intPtr(3)
	in.ToFloor = intPtr(0)
	in.FromElevator = boolPtr(false)
	in.ToElevator = boolPtr(true)
	req, err := svc.CreateRequest(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Status != fsm.StatusOpen || req.PaymentStatus != fsm.PaymentNotRequired {
		t.Fatalf("fresh request in wrong state: %s / %s", req.Status, req.PaymentStatus)
	}
	if req.ReferenceID == "" {
		t.Fatal("reference id not assigned")
	}
}

func TestQualifyIdempotent(t *testing.T) {
	reqs := newFakeRequestStore()
	svc, _, _ := newRequestService(reqs)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := svc.QualifyRequest(ctx, created.ID, models.QualifyRequestInput{TransporterAmount: 500, PlatformFee: 50})
	if err != nil {
		t.Fatalf("qualify: %v", err)
	}
	if first.ClientTotal != 550 {
		t.Fatalf("expected total 550, got %v", first.ClientTotal)
	}
	if first.QualifiedAt == nil {
		t.Fatal("qualified_at not stamped")
	}

	// Interests gathered before re-qualification must survive it.
	if err := reqs.AddInterest(ctx, models.Interest{RequestID: created.ID, TransporterID: 7}); err != nil {
		t.Fatalf("add interest: %v", err)
	}

	second, err := svc.QualifyRequest(ctx, created.ID, models.QualifyRequestInput{TransporterAmount: 600, PlatformFee: 60})
	if err != nil {
		t.Fatalf("re-qualify: %v", err)
	}
	if second.ClientTotal != 660 {
		t.Fatalf("expected total 660, got %v", second.ClientTotal)
	}
	if !second.QualifiedAt.Equal(*first.QualifiedAt) {
		t.Fatal("qualified_at changed on re-qualification")
	}
	if len(second.TransporterInterests) != 1 || second.TransporterInterests[0] != 7 {
		t.Fatalf("interests lost on re-qualification: %v", second.TransporterInterests)
	}

	if _, err := svc.QualifyRequest(ctx, created.ID, models.QualifyRequestInput{TransporterAmount: 0, PlatformFee: 10}); !errors.Is(err, models.ErrInvalidPricing) {
		t.Fatalf("expected invalid pricing, got %v", err)
	}
}

func TestPublishRequiresQualification(t *testing.T) {
	reqs := newFakeRequestStore()
	svc, _, _ := newRequestService(reqs)
	ctx := context.Background()

	created, _ := svc.CreateRequest(ctx, validInput())
	if _, err := svc.PublishForMatching(ctx, created.ID); !errors.Is(err, models.ErrPreconditionFailed) {
		t.Fatalf("expected precondition failure, got %v", err)
	}

	if _, err := svc.QualifyRequest(ctx, created.ID, models.QualifyRequestInput{TransporterAmount: 500, PlatformFee: 50}); err != nil {
		t.Fatalf("qualify: %v", err)
	}
	published, err := svc.PublishForMatching(ctx, created.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.Status != fsm.StatusPublished {
		t.Fatalf("expected published, got %s", published.Status)
	}

	// Publishing twice is harmless.
	again, err := svc.PublishForMatching(ctx, created.ID)
	if err != nil {
		t.Fatalf("re-publish: %v", err)
	}
	if again.Status != fsm.StatusPublished {
		t.Fatalf("expected published, got %s", again.Status)
	}
}

func TestArchiveRequest(t *testing.T) {
	reqs := newFakeRequestStore()
	svc, _, _ := newRequestService(reqs)
	ctx := context.Background()

	created, _ := svc.CreateRequest(ctx, validInput())

	if _, err := svc.ArchiveRequest(ctx, created.ID, "because"); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error for unknown reason, got %v", err)
	}

	archived, err := svc.ArchiveRequest(ctx, created.ID, models.ArchiveReasonSpam)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if archived.Status != fsm.StatusArchived || archived.ArchiveReason == nil || *archived.ArchiveReason != models.ArchiveReasonSpam {
		t.Fatalf("archive not recorded: %+v", archived)
	}

	// Terminal states cannot be archived.
	if _, err := svc.ArchiveRequest(ctx, created.ID, models.ArchiveReasonOther); !errors.Is(err, models.ErrPreconditionFailed) {
		t.Fatalf("expected precondition failure, got %v", err)
	}
	if _, err := svc.ArchiveRequest(ctx, 9999, models.ArchiveReasonOther); !errors.Is(err, models.ErrNoRecord) {
		t.Fatalf("expected no record, got %v", err)
	}
}

func TestCompleteRequestAppliesRating(t *testing.T) {
	reqs := newFakeRequestStore()
	svc, contracts, users := newRequestService(reqs)
	ctx := context.Background()

	transporterID := 42
	id := reqs.seed(models.Request{ClientID: 1, Status: fsm.StatusAccepted, PaymentStatus: fsm.PaymentPending, AssignedTransporterID: &transporterID})
	if _, err := contracts.CreateContract(ctx, models.Contract{RequestID: id, ClientID: 1, TransporterID: transporterID, Status: models.ContractInProgress}); err != nil {
		t.Fatalf("seed contract: %v", err)
	}

	rating := 4.5
	if _, err := svc.CompleteRequest(ctx, id, 2, &rating); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected forbidden for foreign client, got %v", err)
	}

	done, err := svc.CompleteRequest(ctx, id, 1, &rating)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != fsm.StatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}
	if done.PaymentStatus != fsm.PaymentAwaiting {
		t.Fatalf("expected awaiting_payment, got %s", done.PaymentStatus)
	}
	if got := users.ratings[transporterID]; len(got) != 1 || got[0] != 4.5 {
		t.Fatalf("rating not applied: %v", got)
	}

	// Completing twice fails the guard.
	if _, err := svc.CompleteRequest(ctx, id, 1, nil); !errors.Is(err, models.ErrPreconditionFailed) {
		t.Fatalf("expected precondition failure, got %v", err)
	}
}

// Pricing is what creates the payment obligation: a fresh request owes
// nothing, a qualified one is pending until delivery opens the receipt loop.
func TestQualificationOpensPaymentLoop(t *testing.T) {
	reqs := newFakeRequestStore()
	svc, _, _ := newRequestService(reqs)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.PaymentStatus != fsm.PaymentNotRequired {
		t.Fatalf("fresh request must owe nothing, got %s", created.PaymentStatus)
	}

	qualified, err := svc.QualifyRequest(ctx, created.ID, models.QualifyRequestInput{TransporterAmount: 500, PlatformFee: 50})
	if err != nil {
		t.Fatalf("qualify: %v", err)
	}
	if qualified.PaymentStatus != fsm.PaymentPending {
		t.Fatalf("qualification must move payment to pending, got %s", qualified.PaymentStatus)
	}

	// Re-qualification never rewinds payment progress.
	if ok, _ := reqs.UpdatePaymentStatus(ctx, created.ID, fsm.PaymentPending, fsm.PaymentAwaiting, nil); !ok {
		t.Fatal("seed payment progress")
	}
	again, err := svc.QualifyRequest(ctx, created.ID, models.QualifyRequestInput{TransporterAmount: 600, PlatformFee: 60})
	if err != nil {
		t.Fatalf("re-qualify: %v", err)
	}
	if again.PaymentStatus != fsm.PaymentAwaiting {
		t.Fatalf("re-qualification rewound payment to %s", again.PaymentStatus)
	}
}

func TestCompleteRequestWithUnpricedPayment(t *testing.T) {
	reqs := newFakeRequestStore()
	svc, contracts, _ := newRequestService(reqs)
	ctx := context.Background()

	transporterID := 42
	id := reqs.seed(models.Request{ClientID: 1, Status: fsm.StatusAccepted, AssignedTransporterID: &transporterID})
	if _, err := contracts.CreateContract(ctx, models.Contract{RequestID: id, ClientID: 1, TransporterID: transporterID, Status: models.ContractInProgress}); err != nil {
		t.Fatalf("seed contract: %v", err)
	}

	// payment_status never left not_required, so the receipt loop cannot open.
	if _, err := svc.CompleteRequest(ctx, id, 1, nil); !errors.Is(err, models.ErrPreconditionFailed) {
		t.Fatalf("expected precondition failure, got %v", err)
	}
}

func TestStartRequestOnlyByCommittedTransporter(t *testing.T) {
	reqs := newFakeRequestStore()
	svc, contracts, _ := newRequestService(reqs)
	ctx := context.Background()

	// Matched through an offer: no assigned_transporter_id, only the contract
	// knows who won.
	offerID := 5
	id := reqs.seed(models.Request{ClientID: 1, Status: fsm.StatusAccepted, PaymentStatus: fsm.PaymentPending, AcceptedOfferID: &offerID})
	if _, err := contracts.CreateContract(ctx, models.Contract{RequestID: id, OfferID: &offerID, ClientID: 1, TransporterID: 7, Status: models.ContractInProgress}); err != nil {
		t.Fatalf("seed contract: %v", err)
	}

	if _, err := svc.StartRequest(ctx, id, 999); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected forbidden for a foreign transporter, got %v", err)
	}

	started, err := svc.StartRequest(ctx, id, 7)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != fsm.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", started.Status)
	}
}

func TestRepublishClearsAssignment(t *testing.T) {
	reqs := newFakeRequestStore()
	svc, _, _ := newRequestService(reqs)
	ctx := context.Background()

	transporterID := 9
	id := reqs.seed(models.Request{ClientID: 1, Status: fsm.StatusAccepted, AssignedTransporterID: &transporterID})

	back, err := svc.RepublishRequest(ctx, id)
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if back.Status != fsm.StatusPublished {
		t.Fatalf("expected published, got %s", back.Status)
	}
	if back.AssignedTransporterID != nil || back.AcceptedOfferID != nil {
		t.Fatal("assignment fields not cleared")
	}

	openID := reqs.seed(models.Request{ClientID: 1, Status: fsm.StatusOpen})
	if _, err := svc.RepublishRequest(ctx, openID); !errors.Is(err, models.ErrPreconditionFailed) {
		t.Fatalf("expected precondition failure, got %v", err)
	}
}

package services

import (
	"context"
	"sync"
	"time"

	"camioBack/internal/fsm"
	"camioBack/internal/models"
)

// In-memory stores mirroring the guarded-update semantics of the SQL layer.
// Every conditional write takes the lock, checks the guard and mutates only
// when it matches, so concurrent callers see the same single-winner behavior
// as the database.

type pair struct{ requestID, transporterID int }

type fakeRequestStore struct {
	mu        sync.Mutex
	nextID    int
	requests  map[int]*models.Request
	interests map[pair]models.Interest
	declines  map[pair]bool
	offers    *fakeOfferStore
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{
		nextID:    1,
		requests:  make(map[int]*models.Request),
		interests: make(map[pair]models.Interest),
		declines:  make(map[pair]bool),
	}
}

func (f *fakeRequestStore) seed(req models.Request) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	req.ID = f.nextID
	f.nextID++
	if req.Status == "" {
		req.Status = fsm.StatusOpen
	}
	if req.PaymentStatus == "" {
		req.PaymentStatus = fsm.PaymentNotRequired
	}
	req.CreatedAt = time.Now()
	f.requests[req.ID] = &req
	return req.ID
}

func (f *fakeRequestStore) CreateRequest(ctx context.Context, req models.Request) (models.Request, error) {
	id := f.seed(req)
	return f.GetRequestByID(ctx, id)
}

func (f *fakeRequestStore) GetRequestByID(ctx context.Context, id int) (models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return models.Request{}, models.ErrNoRecord
	}
	out := *req
	out.TransporterInterests = nil
	out.DeclinedBy = nil
	for p := range f.interests {
		if p.requestID == id {
			out.TransporterInterests = append(out.TransporterInterests, p.transporterID)
		}
	}
	for p := range f.declines {
		if p.requestID == id {
			out.DeclinedBy = append(out.DeclinedBy, p.transporterID)
		}
	}
	return out, nil
}

func (f *fakeRequestStore) GetRequestsByStatus(ctx context.Context, status string, limit, offset int) ([]models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Request
	for _, req := range f.requests {
		if req.Status == status {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequestStore) GetRequestsByClient(ctx context.Context, clientID int) ([]models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Request
	for _, req := range f.requests {
		if req.ClientID == clientID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequestStore) Qualify(ctx context.Context, id int, amount, fee, total float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return models.ErrNoRecord
	}
	req.TransporterAmount = amount
	req.PlatformFee = fee
	req.ClientTotal = total
	if req.QualifiedAt == nil {
		now := time.Now()
		req.QualifiedAt = &now
	}
	if req.PaymentStatus == fsm.PaymentNotRequired {
		req.PaymentStatus = fsm.PaymentPending
	}
	return nil
}

func (f *fakeRequestStore) UpdateStatus(ctx context.Context, id int, from, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	return true, nil
}

func (f *fakeRequestStore) Archive(ctx context.Context, id int, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok || (req.Status != fsm.StatusOpen && req.Status != fsm.StatusPublished) {
		return false, nil
	}
	req.Status = fsm.StatusArchived
	req.ArchiveReason = &reason
	return true, nil
}

func (f *fakeRequestStore) CommitChosenTransporter(ctx context.Context, requestID, transporterID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[requestID]
	if !ok || req.Status != fsm.StatusPublished {
		return false, nil
	}
	req.Status = fsm.StatusAccepted
	req.AssignedTransporterID = &transporterID
	req.AcceptedOfferID = nil
	if req.PaymentStatus == fsm.PaymentNotRequired {
		req.PaymentStatus = fsm.PaymentPending
	}
	return true, nil
}

func (f *fakeRequestStore) CommitManualAssignment(ctx context.Context, requestID, transporterID int, amount, fee, total float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[requestID]
	if !ok || (req.Status != fsm.StatusOpen && req.Status != fsm.StatusPublished) {
		return false, nil
	}
	req.Status = fsm.StatusAccepted
	req.AssignedTransporterID = &transporterID
	req.AcceptedOfferID = nil
	req.TransporterAmount = amount
	req.PlatformFee = fee
	req.ClientTotal = total
	if req.QualifiedAt == nil {
		now := time.Now()
		req.QualifiedAt = &now
	}
	if req.PaymentStatus == fsm.PaymentNotRequired {
		req.PaymentStatus = fsm.PaymentPending
	}
	return true, nil
}

func (f *fakeRequestStore) CommitAcceptedOffer(ctx context.Context, requestID, offerID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[requestID]
	if !ok || (req.Status != fsm.StatusOpen && req.Status != fsm.StatusPublished) {
		return false, nil
	}
	if f.offers != nil {
		if !f.offers.accept(offerID) {
			return false, nil
		}
	}
	req.Status = fsm.StatusAccepted
	req.AcceptedOfferID = &offerID
	req.AssignedTransporterID = nil
	if req.PaymentStatus == fsm.PaymentNotRequired {
		req.PaymentStatus = fsm.PaymentPending
	}
	return true, nil
}

func (f *fakeRequestStore) Republish(ctx context.Context, id int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok || (req.Status != fsm.StatusAccepted && req.Status != fsm.StatusCompleted) {
		return false, nil
	}
	req.Status = fsm.StatusPublished
	req.AssignedTransporterID = nil
	req.AcceptedOfferID = nil
	return true, nil
}

func (f *fakeRequestStore) UpdatePaymentStatus(ctx context.Context, id int, from, to string, receipt *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok || req.PaymentStatus != from {
		return false, nil
	}
	req.PaymentStatus = to
	if receipt != nil {
		req.PaymentReceipt = receipt
	}
	return true, nil
}

func (f *fakeRequestStore) SetHidden(ctx context.Context, id int, hidden bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return models.ErrNoRecord
	}
	req.Hidden = hidden
	return nil
}

func (f *fakeRequestStore) DeleteRequest(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.requests, id)
	return nil
}

func (f *fakeRequestStore) AddInterest(ctx context.Context, in models.Interest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pair{in.RequestID, in.TransporterID}
	if _, ok := f.interests[key]; ok {
		return nil
	}
	in.CreatedAt = time.Now()
	f.interests[key] = in
	return nil
}

func (f *fakeRequestStore) RemoveInterest(ctx context.Context, requestID, transporterID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.interests, pair{requestID, transporterID})
	return nil
}

func (f *fakeRequestStore) HasInterest(ctx context.Context, requestID, transporterID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.interests[pair{requestID, transporterID}]
	return ok, nil
}

func (f *fakeRequestStore) ListInterests(ctx context.Context, requestID int) ([]models.Interest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Interest
	for p, in := range f.interests {
		if p.requestID == requestID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (f *fakeRequestStore) AddDecline(ctx context.Context, requestID, transporterID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declines[pair{requestID, transporterID}] = true
	return nil
}

func (f *fakeRequestStore) IsDeclined(ctx context.Context, requestID, transporterID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.declines[pair{requestID, transporterID}], nil
}

func (f *fakeRequestStore) MarkExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, req := range f.requests {
		if req.Status == fsm.StatusPublished && req.CreatedAt.Before(olderThan) {
			req.Status = fsm.StatusExpired
			n++
		}
	}
	return n, nil
}

type fakeContractStore struct {
	mu        sync.Mutex
	nextID    int
	contracts map[int]*models.Contract // keyed by request id
}

func newFakeContractStore() *fakeContractStore {
	return &fakeContractStore{nextID: 1, contracts: make(map[int]*models.Contract)}
}

func (f *fakeContractStore) CreateContract(ctx context.Context, c models.Contract) (models.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.nextID
	f.nextID++
	c.CreatedAt = time.Now()
	f.contracts[c.RequestID] = &c
	return c, nil
}

func (f *fakeContractStore) GetContractByRequest(ctx context.Context, requestID int) (models.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[requestID]
	if !ok {
		return models.Contract{}, models.ErrNoRecord
	}
	return *c, nil
}

func (f *fakeContractStore) UpdateContractStatus(ctx context.Context, id int, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contracts {
		if c.ID == id {
			c.Status = status
			return nil
		}
	}
	return models.ErrNoRecord
}

type fakeOfferStore struct {
	mu     sync.Mutex
	nextID int
	offers map[int]*models.Offer
}

func newFakeOfferStore() *fakeOfferStore {
	return &fakeOfferStore{nextID: 1, offers: make(map[int]*models.Offer)}
}

func (f *fakeOfferStore) CreateOffer(ctx context.Context, o models.Offer) (models.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = f.nextID
	f.nextID++
	o.CreatedAt = time.Now()
	f.offers[o.ID] = &o
	return o, nil
}

func (f *fakeOfferStore) GetOfferByID(ctx context.Context, id int) (models.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[id]
	if !ok {
		return models.Offer{}, models.ErrNoRecord
	}
	return *o, nil
}

func (f *fakeOfferStore) GetOffersByRequest(ctx context.Context, requestID int) ([]models.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Offer
	for _, o := range f.offers {
		if o.RequestID == requestID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOfferStore) UpdateOfferStatus(ctx context.Context, id int, from, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

// accept is the in-transaction flip used by CommitAcceptedOffer.
func (f *fakeOfferStore) accept(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[id]
	if !ok || o.Status != models.OfferPending {
		return false
	}
	o.Status = models.OfferAccepted
	return true
}

type fakeUserStore struct {
	mu           sync.Mutex
	transporters []models.TransporterSummary
	ratings      map[int][]float64
	trips        map[int]int
	declines     *fakeRequestStore
}

func newFakeUserStore(reqs *fakeRequestStore) *fakeUserStore {
	return &fakeUserStore{ratings: make(map[int][]float64), trips: make(map[int]int), declines: reqs}
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, id int) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.transporters {
		if t.ID == id {
			return models.User{ID: t.ID, Name: t.Name, Role: models.RoleTransporter}, nil
		}
	}
	return models.User{}, models.ErrUserNotFound
}

func (f *fakeUserStore) ListEligibleTransporters(ctx context.Context, requestID int) ([]models.TransporterSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TransporterSummary
	for _, t := range f.transporters {
		if f.declines != nil {
			if declined, _ := f.declines.IsDeclined(ctx, requestID, t.ID); declined {
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeUserStore) ApplyRating(ctx context.Context, transporterID int, rating float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings[transporterID] = append(f.ratings[transporterID], rating)
	f.trips[transporterID]++
	return nil
}

func (f *fakeUserStore) IncrementTrips(ctx context.Context, transporterID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trips[transporterID]++
	return nil
}

type sentNote struct {
	userID int
	title  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNote
}

func (f *fakeNotifier) NotifyUser(ctx context.Context, userID int, title, body string, data map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNote{userID: userID, title: title})
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.RequestEvent
}

func (f *fakeEvents) PublishRequestEvent(userID int, event models.RequestEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

type fakePresence struct {
	mu     sync.Mutex
	active map[int]bool
}

func newFakePresence() *fakePresence {
	return &fakePresence{active: make(map[int]bool)}
}

func (f *fakePresence) Touch(ctx context.Context, transporterID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[transporterID] = true
	return nil
}

func (f *fakePresence) IsActive(ctx context.Context, transporterID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active[transporterID], nil
}

type fakeEmptyReturnStore struct {
	mu      sync.Mutex
	nextID  int
	returns map[int]*models.EmptyReturn
}

func newFakeEmptyReturnStore() *fakeEmptyReturnStore {
	return &fakeEmptyReturnStore{nextID: 1, returns: make(map[int]*models.EmptyReturn)}
}

func (f *fakeEmptyReturnStore) CreateEmptyReturn(ctx context.Context, er models.EmptyReturn) (models.EmptyReturn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	er.ID = f.nextID
	f.nextID++
	er.CreatedAt = time.Now()
	f.returns[er.ID] = &er
	return er, nil
}

func (f *fakeEmptyReturnStore) GetEmptyReturnByID(ctx context.Context, id int) (models.EmptyReturn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	er, ok := f.returns[id]
	if !ok {
		return models.EmptyReturn{}, models.ErrNoRecord
	}
	return *er, nil
}

func (f *fakeEmptyReturnStore) ListOpenByRoute(ctx context.Context, fromCity, toCity string) ([]models.EmptyReturn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.EmptyReturn
	for _, er := range f.returns {
		if er.ConsumedBy == nil && er.FromCity == fromCity && er.ToCity == toCity {
			out = append(out, *er)
		}
	}
	return out, nil
}

func (f *fakeEmptyReturnStore) ListByTransporter(ctx context.Context, transporterID int) ([]models.EmptyReturn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.EmptyReturn
	for _, er := range f.returns {
		if er.TransporterID == transporterID {
			out = append(out, *er)
		}
	}
	return out, nil
}

func (f *fakeEmptyReturnStore) Consume(ctx context.Context, id, requestID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	er, ok := f.returns[id]
	if !ok || er.ConsumedBy != nil {
		return false, nil
	}
	er.ConsumedBy = &requestID
	return true, nil
}

func (f *fakeEmptyReturnStore) DeleteEmptyReturn(ctx context.Context, id, transporterID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.returns, id)
	return nil
}

package services

import (
	"context"
	"log"
	"sort"

	"camioBack/internal/models"
)

// Ranking tiers, strongest first. A transporter lands in the highest tier it
// qualifies for; tiers never mix in the ordering.
const (
	TierEmptyReturn = "empty_return"
	TierActive      = "active"
	TierRating      = "rating"
)

var tierRank = map[string]int{
	TierEmptyReturn: 2,
	TierActive:      1,
	TierRating:      0,
}

type EmptyReturnStore interface {
	CreateEmptyReturn(ctx context.Context, er models.EmptyReturn) (models.EmptyReturn, error)
	GetEmptyReturnByID(ctx context.Context, id int) (models.EmptyReturn, error)
	ListOpenByRoute(ctx context.Context, fromCity, toCity string) ([]models.EmptyReturn, error)
	ListByTransporter(ctx context.Context, transporterID int) ([]models.EmptyReturn, error)
	Consume(ctx context.Context, id, requestID int) (bool, error)
	DeleteEmptyReturn(ctx context.Context, id, transporterID int) error
}

// PresenceChecker reports whether a transporter is inside its activity window.
type PresenceChecker interface {
	IsActive(ctx context.Context, transporterID int) (bool, error)
}

// RecommendationService ranks candidate transporters for a request. The
// ranking is advisory: it never blocks selection of an unranked transporter.
type RecommendationService struct {
	RequestRepo     RequestStore
	UserRepo        TransporterStore
	EmptyReturnRepo EmptyReturnStore
	Presence        PresenceChecker
	Notifier        Notifier
	NotifyLimit     int
}

// GetRecommendations returns eligible transporters ordered by tier, then
// rating desc, completed trips desc, id asc.
func (s *RecommendationService) GetRecommendations(ctx context.Context, requestID int) ([]models.TransporterSummary, error) {
	req, err := s.RequestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.UserRepo.ListEligibleTransporters(ctx, requestID)
	if err != nil {
		return nil, err
	}

	returnsByTransporter := s.routeReturns(ctx, req)

	for i := range candidates {
		candidates[i].Tier = s.tierFor(ctx, candidates[i].ID, returnsByTransporter)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if tierRank[a.Tier] != tierRank[b.Tier] {
			return tierRank[a.Tier] > tierRank[b.Tier]
		}
		if a.ReviewRating != b.ReviewRating {
			return a.ReviewRating > b.ReviewRating
		}
		if a.TripsCount != b.TripsCount {
			return a.TripsCount > b.TripsCount
		}
		return a.ID < b.ID
	})

	return candidates, nil
}

// NotifyTopCandidates pushes a one-time heads-up to the best-ranked
// transporters. Called once per request, right after first qualification.
func (s *RecommendationService) NotifyTopCandidates(ctx context.Context, requestID int) {
	if s.Notifier == nil {
		return
	}
	ranked, err := s.GetRecommendations(ctx, requestID)
	if err != nil {
		log.Printf("request %d: rank candidates: %v", requestID, err)
		return
	}
	req, err := s.RequestRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return
	}

	limit := s.NotifyLimit
	if limit <= 0 {
		limit = 10
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for _, c := range ranked {
		s.Notifier.NotifyUser(ctx, c.ID,
			"New request on your route",
			req.FromCity+" to "+req.ToCity+", "+req.ReferenceID,
			map[string]string{"request_id": req.ReferenceID})
	}
}

// routeReturns maps transporter id to its open empty returns matching the
// request's route and pickup day. A request without a pickup date matches any
// return date on the route.
func (s *RecommendationService) routeReturns(ctx context.Context, req models.Request) map[int]bool {
	matched := make(map[int]bool)
	if s.EmptyReturnRepo == nil {
		return matched
	}
	returns, err := s.EmptyReturnRepo.ListOpenByRoute(ctx, req.FromCity, req.ToCity)
	if err != nil {
		log.Printf("request %d: list empty returns: %v", req.ID, err)
		return matched
	}
	for _, er := range returns {
		if req.PickupDate != nil && !models.SameCalendarDay(*req.PickupDate, er.ReturnDate) {
			continue
		}
		matched[er.TransporterID] = true
	}
	return matched
}

func (s *RecommendationService) tierFor(ctx context.Context, transporterID int, returns map[int]bool) string {
	if returns[transporterID] {
		return TierEmptyReturn
	}
	if s.Presence != nil {
		active, err := s.Presence.IsActive(ctx, transporterID)
		if err != nil {
			log.Printf("presence check %d: %v", transporterID, err)
		} else if active {
			return TierActive
		}
	}
	return TierRating
}

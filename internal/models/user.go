package models

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

// Roles known to the platform. Admin covers coordinator actions.
const (
	RoleClient      = "client"
	RoleTransporter = "transporter"
	RoleAdmin       = "admin"
)

type User struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone,omitempty"`
	Email      string  `json:"email,omitempty"`
	Password   string  `json:"password,omitempty"`
	City       string  `json:"city"`
	Role       string  `json:"role"`
	DocOfProof *string `json:"doc_of_proof,omitempty"`

	// Transporter-only fields, used for matching eligibility and ranking.
	Validated    bool    `json:"validated"`
	Blocked      bool    `json:"blocked"`
	ReviewRating float64 `json:"review_rating"`
	ReviewsCount int     `json:"reviews_count"`
	TripsCount   int     `json:"trips_count"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TransporterSummary is the ranked candidate payload returned by
// recommendation queries.
type TransporterSummary struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	City         string  `json:"city"`
	ReviewRating float64 `json:"review_rating"`
	ReviewsCount int     `json:"reviews_count"`
	TripsCount   int     `json:"trips_count"`
	Tier         string  `json:"tier"`
}

type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

type Session struct {
	UserID       int       `json:"user_id"`
	Role         string    `json:"role"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type SignUpRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
	City     string `json:"city"`
	Role     string `json:"role"`
}

type SignInRequest struct {
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

package main

import (
	"database/sql"
	"log"
	"time"

	"camioBack/internal/config"
	"camioBack/internal/handlers"
	"camioBack/internal/presence"
	"camioBack/internal/repositories"
	"camioBack/internal/services"
	"camioBack/utils"

	"firebase.google.com/go/messaging"
	"github.com/redis/go-redis/v9"
)

type application struct {
	errorLog   *log.Logger
	infoLog    *log.Logger
	db         *sql.DB
	signingKey string

	wsManager *WebSocketManager
	presence  *presence.Tracker

	userRepo    *repositories.UserRepository
	requestRepo *repositories.RequestRepository

	requestService *services.RequestService

	userHandler           *handlers.UserHandler
	requestHandler        *handlers.RequestHandler
	interestHandler       *handlers.InterestHandler
	assignmentHandler     *handlers.AssignmentHandler
	offerHandler          *handlers.OfferHandler
	paymentHandler        *handlers.PaymentHandler
	recommendationHandler *handlers.RecommendationHandler
	emptyReturnHandler    *handlers.EmptyReturnHandler
	notificationHandler   *handlers.NotificationHandler
}

func initializeApp(db *sql.DB, rdb *redis.Client, fcmClient *messaging.Client, cfg config.Config, errorLog, infoLog *log.Logger) *application {
	// Repositories
	userRepo := repositories.UserRepository{DB: db}
	requestRepo := repositories.RequestRepository{DB: db}
	offerRepo := repositories.OfferRepository{DB: db}
	contractRepo := repositories.ContractRepository{DB: db}
	emptyReturnRepo := repositories.EmptyReturnRepository{DB: db}
	notifyTokenRepo := repositories.NotifyTokenRepository{DB: db}

	tracker := presence.NewTracker(rdb, time.Duration(cfg.Matching.PresenceWindowMinutes)*time.Minute)
	wsManager := NewWebSocketManager()

	tokenManager, err := utils.NewManager(cfg.Auth.SigningKey)
	if err != nil {
		errorLog.Fatal(err)
	}

	// Services
	fcmService := &services.FCMService{Client: fcmClient, Tokens: &notifyTokenRepo}
	recommendationService := &services.RecommendationService{
		RequestRepo:     &requestRepo,
		UserRepo:        &userRepo,
		EmptyReturnRepo: &emptyReturnRepo,
		Presence:        tracker,
		Notifier:        fcmService,
		NotifyLimit:     cfg.Matching.NotifyLimit,
	}
	requestService := &services.RequestService{
		RequestRepo:          &requestRepo,
		ContractRepo:         &contractRepo,
		UserRepo:             &userRepo,
		Notifier:             fcmService,
		Events:               wsManager,
		Recommender:          recommendationService,
		CommissionPercentage: cfg.Matching.CommissionPercentage,
	}
	interestService := &services.InterestService{
		RequestRepo: &requestRepo,
		Presence:    tracker,
		Notifier:    fcmService,
	}
	assignmentService := &services.AssignmentService{
		RequestRepo:  &requestRepo,
		OfferRepo:    &offerRepo,
		ContractRepo: &contractRepo,
		Notifier:     fcmService,
		Events:       wsManager,
	}
	offerService := &services.OfferService{
		OfferRepo:   &offerRepo,
		RequestRepo: &requestRepo,
		Notifier:    fcmService,
	}
	paymentService := &services.PaymentService{
		RequestRepo:  &requestRepo,
		ContractRepo: &contractRepo,
		Uploader:     utils.ReceiptStorage{Folder: "receipts"},
		Notifier:     fcmService,
		Events:       wsManager,
	}
	emptyReturnService := &services.EmptyReturnService{
		Repo:        &emptyReturnRepo,
		RequestRepo: &requestRepo,
		Assignments: assignmentService,
	}
	userService := &services.UserService{
		UserRepo:     &userRepo,
		TokenManager: tokenManager,
		SigningKey:   cfg.Auth.SigningKey,
		Presence:     tracker,
	}

	return &application{
		errorLog:              errorLog,
		infoLog:               infoLog,
		db:                    db,
		signingKey:            cfg.Auth.SigningKey,
		wsManager:             wsManager,
		presence:              tracker,
		userRepo:              &userRepo,
		requestRepo:           &requestRepo,
		requestService:        requestService,
		userHandler:           &handlers.UserHandler{Service: userService},
		requestHandler:        &handlers.RequestHandler{Service: requestService},
		interestHandler:       &handlers.InterestHandler{Service: interestService},
		assignmentHandler:     &handlers.AssignmentHandler{Service: assignmentService},
		offerHandler:          &handlers.OfferHandler{Service: offerService},
		paymentHandler:        &handlers.PaymentHandler{Service: paymentService},
		recommendationHandler: &handlers.RecommendationHandler{Service: recommendationService},
		emptyReturnHandler:    &handlers.EmptyReturnHandler{Service: emptyReturnService},
		notificationHandler:   &handlers.NotificationHandler{Service: fcmService},
	}
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Printf("Failed to open DB: %v", err)
		return nil, err
	}
	if err = db.Ping(); err != nil {
		log.Printf("Failed to ping DB: %v", err)
		return nil, err
	}
	return db, nil
}

package services

import (
	"context"
	"log"

	"firebase.google.com/go/messaging"
)

type TokenStore interface {
	InsertToken(ctx context.Context, userID int, token string) error
	DeleteToken(ctx context.Context, token string) error
	GetTokensByUserID(ctx context.Context, userID int) ([]string, error)
}

// FCMService fans push notifications out to all registered device tokens of a
// user. A nil client disables delivery without breaking callers.
type FCMService struct {
	Client *messaging.Client
	Tokens TokenStore
}

func (s *FCMService) SaveToken(ctx context.Context, userID int, token string) error {
	return s.Tokens.InsertToken(ctx, userID, token)
}

func (s *FCMService) RemoveToken(ctx context.Context, token string) error {
	return s.Tokens.DeleteToken(ctx, token)
}

func (s *FCMService) NotifyUser(ctx context.Context, userID int, title, body string, data map[string]string) {
	if s.Client == nil {
		log.Printf("fcm disabled, dropping notification for user %d", userID)
		return
	}
	tokens, err := s.Tokens.GetTokensByUserID(ctx, userID)
	if err != nil {
		log.Printf("fcm tokens for user %d: %v", userID, err)
		return
	}
	for _, token := range tokens {
		if err := s.send(ctx, token, title, body, data); err != nil {
			log.Printf("fcm send to user %d: %v", userID, err)
		}
	}
}

func (s *FCMService) send(ctx context.Context, token, title, body string, data map[string]string) error {
	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority": "10",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound: "default",
				},
			},
		},
	}
	_, err := s.Client.Send(ctx, message)
	return err
}

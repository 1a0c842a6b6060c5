package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"bodima-server/models"
	"bodima-server/storage"
)

const expoPushEndpoint = "https://exp.host/--/api/v2/push/send"

// NotificationService delivers Expo push notifications to users' registered
// devices.
type NotificationService struct {
	client *http.Client
}

func NewNotificationService() *NotificationService {
	return &NotificationService{client: &http.Client{Timeout: 10 * time.Second}}
}

// getUserPushTokens returns the user's tokens when notifications are enabled.
func (ns *NotificationService) getUserPushTokens(userID uint) ([]string, error) {
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %v", err)
	}

	if user.AllowsNotifications == nil || !*user.AllowsNotifications || user.PushTokens == nil {
		return nil, fmt.Errorf("user %d has notifications disabled or no tokens", userID)
	}

	var tokens []string
	if err := json.Unmarshal(user.PushTokens, &tokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal push tokens: %v", err)
	}
	return tokens, nil
}

// SendNotificationToUser fans the notification out to every registered token.
// Per-token failures are logged and skipped; the last error is returned.
func (ns *NotificationService) SendNotificationToUser(userID uint, title, body string, data map[string]string) error {
	tokens, err := ns.getUserPushTokens(userID)
	if err != nil {
		return err
	}

	var lastError error
	for _, token := range tokens {
		if err := ns.sendExpoPush(token, title, body, data); err != nil {
			log.Printf("failed to send notification to token %s: %v", token, err)
			lastError = err
		}
	}
	return lastError
}

// SendMessageNotification notifies the receiving participant about a new
// message in their thread.
func (ns *NotificationService) SendMessageNotification(receiverID, conversationID uint, senderName, preview string) error {
	title := "New message"
	body := fmt.Sprintf("%s: %s", senderName, preview)
	data := map[string]string{
		"type":           "message_received",
		"conversationId": fmt.Sprintf("%d", conversationID),
	}
	return ns.SendNotificationToUser(receiverID, title, body, data)
}

func (ns *NotificationService) sendExpoPush(token, title, body string, data map[string]string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"to":    token,
		"title": title,
		"body":  body,
		"sound": "default",
		"data":  data,
	})
	if err != nil {
		return err
	}

	res, err := ns.client.Post(expoPushEndpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return fmt.Errorf("expo push returned status %d", res.StatusCode)
	}
	return nil
}

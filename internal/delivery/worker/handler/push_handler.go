package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"eatsy/config"
	deliverycontext "eatsy/internal/delivery/context"
	"eatsy/internal/domain/constants"
	"eatsy/internal/domain/entity"
	"eatsy/internal/domain/repository"
	"eatsy/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// PubSubMessage represents the structure of a Pub/Sub push message
type PubSubMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// retryableError wraps an error to indicate it should trigger a Pub/Sub retry
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.err)
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// newRetryableError wraps an error as retryable
func newRetryableError(err error) error {
	return &retryableError{err: err}
}

// isRetryableError checks if an error is retryable
func isRetryableError(err error) bool {
	var re *retryableError

	return errors.As(err, &re)
}

// PushHandler handles Pub/Sub push messages carrying order lifecycle events.
type PushHandler struct {
	verifyPushAuth   bool
	logger           *slog.Logger
	notificationSvc  service.NotificationService
	refreshTokenRepo repository.RefreshTokenRepository
}

// PushHandlerParams holds dependencies for the PushHandler
type PushHandlerParams struct {
	fx.In

	Config           *config.Config
	Logger           *slog.Logger
	NotificationSvc  service.NotificationService
	RefreshTokenRepo repository.RefreshTokenRepository
}

// NewPushHandler creates a new Pub/Sub push handler
func NewPushHandler(params PushHandlerParams) *PushHandler {
	// Determine if we need to verify push auth based on config
	verifyPushAuth := params.Config.PubSub != nil &&
		params.Config.PubSub.Provider == constants.PubSubProviderGoogle &&
		params.Config.Env.Env != constants.EnvDevelop

	return &PushHandler{
		verifyPushAuth:   verifyPushAuth,
		logger:           params.Logger,
		notificationSvc:  params.NotificationSvc,
		refreshTokenRepo: params.RefreshTokenRepo,
	}
}

// HandlePush handles incoming Pub/Sub push messages
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	// Verify Pub/Sub token in production for Google provider
	if h.verifyPushAuth {
		if err := verifyPubSubToken(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	// Parse Pub/Sub message
	var pushMsg PubSubMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Decode base64 message data
	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("[Worker] Failed to decode message data", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Parse order event
	var event service.OrderEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Error("[Worker] Failed to parse order event", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Extract request_id for distributed tracing
	// Priority: message attributes > event field > existing context
	requestID := h.extractRequestID(ctx, &pushMsg, &event)

	// Create request-scoped logger with request_id
	reqLogger := h.logger.With(slog.String("request_id", requestID))

	// Update context with request_id and logger
	ctx = deliverycontext.WithRequestID(ctx, requestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	reqLogger.Info("[Worker] Processing order event",
		slog.String("order_id", event.OrderID),
		slog.String("status", event.Status),
		slog.Int("cook_count", len(event.CookIDs)),
	)

	// Process the order event
	if err := h.processOrderEvent(ctx, &event); err != nil {
		reqLogger.Error("[Worker] Failed to process order event",
			slog.String("order_id", event.OrderID),
			slog.Any("error", err),
			slog.Bool("retryable", isRetryableError(err)),
		)
		// Return 503 for retryable errors to trigger Pub/Sub retry
		// Return 200 for non-retryable errors to prevent infinite retries
		if isRetryableError(err) {
			return c.NoContent(http.StatusServiceUnavailable)
		}

		return c.NoContent(http.StatusOK)
	}

	reqLogger.Info("[Worker] Order event processed successfully",
		slog.String("order_id", event.OrderID),
	)

	return c.NoContent(http.StatusOK)
}

// extractRequestID extracts request_id from message attributes, event, or generates a new one
func (h *PushHandler) extractRequestID(ctx context.Context, pushMsg *PubSubMessage, event *service.OrderEvent) string {
	// 1. Try message attributes (from Pub/Sub)
	if requestID, ok := pushMsg.Message.Attributes["request_id"]; ok && requestID != "" {
		return requestID
	}

	// 2. Try event field (from JSON payload)
	if event.RequestID != "" {
		return event.RequestID
	}

	// 3. Try existing context (from RequestIDMiddleware via X-Request-Id header)
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	// 4. Generate new UUID as fallback
	return uuid.New().String()
}

// processOrderEvent fans the event out to the affected users' devices.
// A newly placed order notifies the cooks; every later transition
// notifies the customer instead.
func (h *PushHandler) processOrderEvent(ctx context.Context, event *service.OrderEvent) error {
	recipientIDs, err := h.resolveRecipients(event)
	if err != nil {
		return err
	}

	if len(recipientIDs) == 0 {
		h.logger.Info("[Worker] No recipients for order event",
			slog.String("order_id", event.OrderID),
		)

		return nil
	}

	tokens, err := h.collectDeviceTokens(ctx, recipientIDs)
	if err != nil {
		return err
	}

	if len(tokens) == 0 {
		h.logger.Info("[Worker] No device tokens for order event recipients",
			slog.String("order_id", event.OrderID),
		)

		return nil
	}

	title, body, data := h.prepareNotificationContent(event)

	successCount, failureCount, invalidTokens, sendErr := h.notificationSvc.SendBatchNotification(
		ctx, tokens, title, body, data,
	)
	if sendErr != nil {
		return errors.Wrap(sendErr, "failed to send order notifications")
	}

	h.logger.Info("[Worker] Order notification sending completed",
		slog.String("order_id", event.OrderID),
		slog.Int("total_sent", successCount),
		slog.Int("total_failed", failureCount),
		slog.Int("invalid_tokens", len(invalidTokens)),
	)

	return nil
}

// resolveRecipients picks the user IDs to notify for the given event.
func (h *PushHandler) resolveRecipients(event *service.OrderEvent) ([]uuid.UUID, error) {
	var rawIDs []string
	if event.Status == string(entity.OrderStatusPlaced) {
		rawIDs = event.CookIDs
	} else {
		rawIDs = []string{event.UserID}
	}

	recipientIDs := make([]uuid.UUID, 0, len(rawIDs))
	for _, idStr := range rawIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			h.logger.Warn("[Worker] Skipping malformed recipient ID",
				slog.String("order_id", event.OrderID),
				slog.String("recipient_id", idStr),
			)

			continue
		}
		recipientIDs = append(recipientIDs, id)
	}

	return recipientIDs, nil
}

// collectDeviceTokens gathers the FCM tokens registered by the recipients'
// active sessions, deduplicated across sessions.
func (h *PushHandler) collectDeviceTokens(ctx context.Context, userIDs []uuid.UUID) ([]string, error) {
	seen := make(map[string]struct{})
	tokens := make([]string, 0, len(userIDs))

	for _, userID := range userIDs {
		sessions, err := h.refreshTokenRepo.FindRefreshTokensByUserID(ctx, userID)
		if err != nil {
			return nil, newRetryableError(errors.WithStack(err))
		}

		for _, session := range sessions {
			if session.DeviceToken == "" {
				continue
			}
			if _, ok := seen[session.DeviceToken]; ok {
				continue
			}
			seen[session.DeviceToken] = struct{}{}
			tokens = append(tokens, session.DeviceToken)
		}
	}

	return tokens, nil
}

// prepareNotificationContent creates the notification title, body, and data
func (h *PushHandler) prepareNotificationContent(event *service.OrderEvent) (title, body string, data map[string]string) {
	switch entity.OrderStatus(event.Status) {
	case entity.OrderStatusPlaced:
		title = "您有新訂單"
		body = "有顧客剛下了一筆新訂單，請盡快確認。"
	case entity.OrderStatusAccepted:
		title = "訂單已接受"
		body = "廚師已接受您的訂單，正在為您準備餐點。"
	case entity.OrderStatusReady:
		title = "餐點已完成"
		body = "您的餐點已準備完成，請前往取餐。"
	case entity.OrderStatusCompleted:
		title = "訂單已完成"
		body = "您的訂單已取餐完成，感謝您的訂購。"
	case entity.OrderStatusCancelled:
		title = "訂單已取消"
		body = "您的訂單已被取消。"
	default:
		title = "訂單狀態更新"
		body = "您的訂單狀態已更新。"
	}

	data = map[string]string{
		"type":     "order_event",
		"order_id": event.OrderID,
		"status":   event.Status,
	}

	return title, body, data
}

// verifyPubSubToken verifies the JWT token from Google Pub/Sub push requests
// Reference: https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func verifyPubSubToken(req *http.Request) error {
	// Get the Authorization header
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		return errors.New("missing authorization header")
	}

	// Extract Bearer token
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return errors.New("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)

	// Construct the expected audience (the push endpoint URL)
	// The audience should be the URL of this endpoint
	scheme := "https"
	if req.TLS == nil {
		scheme = "http" // For local development
	}
	audience := fmt.Sprintf("%s://%s%s", scheme, req.Host, req.URL.Path)

	// Validate the token using Google's ID token validator
	ctx := req.Context()
	payload, err := idtoken.Validate(ctx, token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	// Verify the token is from Google Pub/Sub
	// The issuer should be accounts.google.com
	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	// Verify email is verified (if email claim exists)
	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}

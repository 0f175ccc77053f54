// Package notify delivers push notifications through OneSignal and exposes
// the outbox dispatcher that request handlers enqueue through.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dalemusser/helplink/internal/domain/models"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

var oneSignalEndpoint = "https://onesignal.com/api/v1/notifications"

// Pusher posts one notification to the push provider. The deliverer worker
// depends on this interface so tests can substitute a recorder.
type Pusher interface {
	Push(ctx context.Context, item *models.OutboxItem) error
}

// OneSignalClient posts notifications to the OneSignal REST API. Transient
// failures (429, 5xx, connection resets) are retried inside a single Push
// call; anything still failing after that is reported to the caller, which
// owns the longer outbox retry schedule.
type OneSignalClient struct {
	appID  string
	apiKey string
	http   *retryablehttp.Client
}

func NewOneSignalClient(appID, apiKey string, logger *zap.Logger) *OneSignalClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil
	return &OneSignalClient{appID: appID, apiKey: apiKey, http: rc}
}

type oneSignalRequest struct {
	AppID            string            `json:"app_id"`
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	Data             map[string]string `json:"data,omitempty"`
	IncludedSegments []string          `json:"included_segments,omitempty"`
	ExternalUserIDs  []string          `json:"include_external_user_ids,omitempty"`
}

// Push sends one outbox item. AudienceUser targets the single external user
// id; AudienceAllExcept broadcasts to the subscribed segment with the
// excluded uid carried in the payload so clients suppress their own events.
func (c *OneSignalClient) Push(ctx context.Context, item *models.OutboxItem) error {
	payload := oneSignalRequest{
		AppID:    c.appID,
		Headings: map[string]string{"en": item.Title},
		Contents: map[string]string{"en": item.Body},
		Data:     item.Data,
	}
	switch item.Audience.Kind {
	case models.AudienceUser:
		payload.ExternalUserIDs = []string{item.Audience.AuthUID}
	case models.AudienceAllExcept:
		payload.IncludedSegments = []string{"Subscribed Users"}
		if payload.Data == nil {
			payload.Data = map[string]string{}
		}
		payload.Data["exclude_uid"] = item.Audience.AuthUID
	default:
		return fmt.Errorf("unknown audience kind %q", item.Audience.Kind)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, oneSignalEndpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("onesignal returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

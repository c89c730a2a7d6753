// Package notify posts a short summary of a finished plan to Slack.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"mealbudget"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	webhookURL string
	httpClient doer
}

func NewClient(webhookURL string, httpClient doer) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}

// PlanSummary renders a one-message summary of the session outcome.
func PlanSummary(res mealbudget.PlanResult) string {
	var sb strings.Builder
	if res.WithinBudget {
		fmt.Fprintf(&sb, "Weekly meal plan ready: $%.2f total across %d items", res.TotalCost, len(res.List.Items))
	} else {
		fmt.Fprintf(&sb, "Weekly meal plan over budget after %d revisions: cheapest attempt $%.2f across %d items", res.Revisions, res.TotalCost, len(res.List.Items))
	}
	if res.List.Incomplete {
		sb.WriteString(" (some prices unavailable)")
	}
	return sb.String()
}

package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"mealbudget"
	"mealbudget/notify"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

type mockDoer struct {
	resp   *http.Response
	err    error
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	if m.doFunc != nil {
		return m.doFunc(req)
	}
	return m.resp, m.err
}

func TestNewClient(t *testing.T) {
	webhook := "http://slack.com/webhook"
	client := notify.NewClient(webhook, &mockDoer{})
	must.NotNil(t, client, "expected non-nil client")
}

func TestPostMessage(t *testing.T) {
	tests := []struct {
		name    string
		doFunc  func(req *http.Request) (*http.Response, error)
		wantErr error
	}{
		{
			name: "success",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
			},
			wantErr: nil,
		},
		{
			name: "failure status",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusBadRequest, Status: "400 Bad Request", Body: io.NopCloser(bytes.NewBufferString("bad request"))}, nil
			},
			wantErr: fmt.Errorf("failed to post message: 400 Bad Request"),
		},
		{
			name: "do error",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("network error")
			},
			wantErr: fmt.Errorf("network error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := notify.NewClient("http://example.com/webhook", &mockDoer{doFunc: tt.doFunc})
			err := client.PostMessage(context.Background(), "#meal-plans", "Plan ready")
			should.Equal(t, tt.wantErr, err)
		})
	}
}

func TestPostMessagePayload(t *testing.T) {
	var got map[string]any
	doFunc := func(req *http.Request) (*http.Response, error) {
		body, err := io.ReadAll(req.Body)
		must.NoError(t, err)
		must.NoError(t, json.Unmarshal(body, &got))
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
	}

	client := notify.NewClient("http://example.com/webhook", &mockDoer{doFunc: doFunc})
	must.NoError(t, client.PostMessage(context.Background(), "#meal-plans", "Plan ready"))

	should.Equal(t, "#meal-plans", got["channel"])
	should.Equal(t, "Plan ready", got["text"])
}

func TestPlanSummary(t *testing.T) {
	price := 3.5
	within := mealbudget.PlanResult{
		TotalCost:    42.50,
		WithinBudget: true,
		List: mealbudget.GroceryList{
			Items: []mealbudget.GroceryItem{{Name: "rice", Qty: 1, Unit: "bag", UnitPrice: &price}},
		},
	}
	should.Equal(t, "Weekly meal plan ready: $42.50 total across 1 items", notify.PlanSummary(within))

	over := mealbudget.PlanResult{
		TotalCost:    61.25,
		Revisions:    3,
		WithinBudget: false,
		List: mealbudget.GroceryList{
			Items:      []mealbudget.GroceryItem{{Name: "rice"}, {Name: "saffron"}},
			Incomplete: true,
		},
	}
	should.Equal(t,
		"Weekly meal plan over budget after 3 revisions: cheapest attempt $61.25 across 2 items (some prices unavailable)",
		notify.PlanSummary(over))
}

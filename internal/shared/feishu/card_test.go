package feishu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewQueueCard(t *testing.T) {
	card := NewQueueCard("New RFQ for pricing", "", []CardKV{
		{Label: "Reference", Value: "RFQ-2026-00042"},
		{Label: "Route", Value: ""},
	}, "Please prepare a quotation")

	if card.Header.Template != "blue" {
		t.Fatalf("expected default template blue, got %s", card.Header.Template)
	}
	if len(card.Elements) != 3 {
		t.Fatalf("expected div, hr and note elements, got %d", len(card.Elements))
	}
	fields := card.Elements[0].Fields
	if !strings.Contains(fields[0].Text.Content, "RFQ-2026-00042") {
		t.Errorf("reference missing from first field: %s", fields[0].Text.Content)
	}
	if !strings.HasSuffix(fields[1].Text.Content, "\n-") {
		t.Errorf("empty value should render as '-', got %q", fields[1].Text.Content)
	}
}

func TestSendCard(t *testing.T) {
	var gotChat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/open-apis/auth/v3/app_access_token/internal":
			w.Write([]byte(`{"code":0,"msg":"ok","app_access_token":"tok","expire":7200}`))
		case "/open-apis/im/v1/messages":
			if r.Header.Get("Authorization") != "Bearer tok" {
				t.Errorf("missing bearer token")
			}
			var req SendMessageRequest
			json.NewDecoder(r.Body).Decode(&req)
			gotChat = req.ReceiveID
			w.Write([]byte(`{"code":0,"msg":"ok","data":{"message_id":"om_1"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient("app", "secret")
	client.SetBaseURL(srv.URL)

	card := NewQueueCard("Booking confirmed", "green", []CardKV{{Label: "Tracking", Value: "TF-26-00001"}}, "")
	if err := client.SendCard(context.Background(), "oc_ops", card); err != nil {
		t.Fatalf("SendCard: %v", err)
	}
	if gotChat != "oc_ops" {
		t.Fatalf("expected chat oc_ops, got %s", gotChat)
	}
}

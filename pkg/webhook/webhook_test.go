package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harrisonrobin/grind/pkg/taskapi"
)

func TestNewPayload(t *testing.T) {
	task := taskapi.Task{Name: "Ship v2", Description: "Final QA pass", DueDate: "2024-05-01", OrgID: "org_1"}

	p := NewPayload(task, "Acme", "1h")
	if p.Name != "☕ Ship v2 (duration: 1h, due: 2024-05-01)" {
		t.Errorf("Unexpected name: %s", p.Name)
	}
	if p.Notes != "Final QA pass" {
		t.Errorf("Expected notes from description, got %s", p.Notes)
	}
	if p.Organization != "Acme" {
		t.Errorf("Expected organization Acme, got %s", p.Organization)
	}

	p = NewPayload(taskapi.Task{Name: "Loose end"}, "Acme", "")
	if p.Name != "☕ Loose end (duration: n/a, due: n/a)" {
		t.Errorf("Unexpected name for missing fields: %s", p.Name)
	}
}

func TestSend(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	want := Payload{Name: "☕ A (duration: 2h, due: n/a)", Notes: "n", Organization: "Acme"}
	if err := NewClient(srv.URL, srv.Client()).Send(context.Background(), want); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, srv.Client()).Send(context.Background(), Payload{}); err == nil {
		t.Error("Expected error for 410 response")
	}
}

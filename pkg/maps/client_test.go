package maps

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSuggestMapsPredictions(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/places:autocomplete" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Goog-Api-Key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["input"] != "12 MG Road" {
			t.Errorf("unexpected input %v", req["input"])
		}
		_, _ = w.Write([]byte(`{
			"suggestions": [
				{"placePrediction": {"placeId": "pl-1", "text": {"text": "12 MG Road, Bengaluru"}}},
				{"placePrediction": {"placeId": "pl-2", "text": {"text": "12 MG Road, Pune"}}}
			]
		}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	suggestions, err := client.Suggest(context.Background(), "12 MG Road")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
	}
	if suggestions[0].PlaceID != "pl-1" || suggestions[0].Description != "12 MG Road, Bengaluru" {
		t.Fatalf("unexpected first suggestion %+v", suggestions[0])
	}
}

func TestSuggestRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	client, err := NewClient("test-key")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Suggest(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestResolveExtractsAddressFields(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/places/pl-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"id": "pl-1",
			"formattedAddress": "12 MG Road, Bengaluru, Karnataka 560001, India",
			"location": {"latitude": 12.975, "longitude": 77.605},
			"addressComponents": [
				{"longText": "560001", "shortText": "560001", "types": ["postal_code"]},
				{"longText": "Bengaluru", "shortText": "Bengaluru", "types": ["locality", "political"]},
				{"longText": "Karnataka", "shortText": "KA", "types": ["administrative_area_level_1", "political"]}
			]
		}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	place, err := client.Resolve(context.Background(), "pl-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if place.Pincode != "560001" {
		t.Fatalf("expected pincode 560001, got %q", place.Pincode)
	}
	if place.City != "Bengaluru" || place.State != "Karnataka" {
		t.Fatalf("unexpected city/state %q/%q", place.City, place.State)
	}
	if place.Lat != 12.975 || place.Lng != 77.605 {
		t.Fatalf("unexpected coordinates %f/%f", place.Lat, place.Lng)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

package maps

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/southside-backend/pkg/errors"
)

func TestClientAutocompleteRequest(t *testing.T) {
	respBody := `{"suggestions":[
		{"placePrediction":{"placeId":"place_123","text":{"text":"12 Logan Rd, Underwood QLD"},
		 "structuredFormat":{"mainText":{"text":"12 Logan Rd"},"secondaryText":{"text":"Underwood QLD"}}}},
		{"queryPrediction":{"text":{"text":"logan"}}}]}`

	var (
		capturedURL     string
		capturedHeaders http.Header
		payload         map[string]any
	)
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()
		body, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		return jsonResponse(http.StatusOK, respBody), nil
	})

	client, err := NewClient("test-key", WithBaseURL("http://maps.test/v1/"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.Autocomplete(context.Background(), AutocompleteRequest{
		Input:               "12 logan rd",
		IncludedRegionCodes: []string{"AU"},
		SessionToken:        "sess-1",
	})
	if err != nil {
		t.Fatalf("autocomplete: %v", err)
	}
	if capturedURL != "http://maps.test/v1/places:autocomplete" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("X-Goog-Api-Key") != "test-key" {
		t.Fatal("api key header missing")
	}
	if capturedHeaders.Get("X-Goog-FieldMask") != autocompleteFieldMask {
		t.Fatalf("unexpected field mask %q", capturedHeaders.Get("X-Goog-FieldMask"))
	}
	if payload["input"] != "12 logan rd" || payload["sessionToken"] != "sess-1" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if len(result) != 1 || result[0].PlaceID != "place_123" || result[0].MainText != "12 Logan Rd" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestClientResolvePlaceRequest(t *testing.T) {
	respBody := `{"id":"place_123","formattedAddress":"12 Logan Rd, Underwood QLD 4119, Australia",
		"location":{"latitude":-27.61,"longitude":153.11},
		"addressComponents":[{"longText":"12","shortText":"12","types":["street_number"]},
		{"longText":"Queensland","shortText":"QLD","types":["administrative_area_level_1","political"]}]}`

	var capturedURL string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		if req.Header.Get("X-Goog-FieldMask") != placeResolveFieldMask {
			t.Fatalf("unexpected field mask %q", req.Header.Get("X-Goog-FieldMask"))
		}
		return jsonResponse(http.StatusOK, respBody), nil
	})

	client, err := NewClient("test-key", WithBaseURL("http://maps.test/v1"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	details, err := client.ResolvePlace(context.Background(), "place_123", "sess-1")
	if err != nil {
		t.Fatalf("resolve place: %v", err)
	}
	if capturedURL != "http://maps.test/v1/places/place_123?sessionToken=sess-1" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if details.Location == nil || details.Location.Latitude != -27.61 {
		t.Fatalf("unexpected location %+v", details.Location)
	}
	state, ok := details.Find("administrative_area_level_1")
	if !ok || state.ShortName != "QLD" {
		t.Fatalf("unexpected state component %+v", state)
	}
}

func TestClientSurfacesUpstreamFailureAsDependency(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusForbidden, `{"error":"denied"}`), nil
	})
	client, err := NewClient("test-key", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.ResolvePlace(context.Background(), "place_123", "")
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

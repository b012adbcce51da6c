package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/southside-backend/pkg/errors"
)

const (
	defaultBaseURL        = "https://places.googleapis.com/v1"
	autocompleteFieldMask = "suggestions.placePrediction.placeId,suggestions.placePrediction.text,suggestions.placePrediction.structuredFormat"
	placeResolveFieldMask = "id,formattedAddress,location,addressComponents"
	errorBodyReadLimit    = 1024
	defaultTimeout        = 10 * time.Second
)

var errAPIKeyRequired = errors.New("google maps api key is required")

// Client calls the Google Places (New) API for address autocomplete and
// place details.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Places base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, errAPIKeyRequired
	}
	client := &Client{
		apiKey:     key,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// AutocompleteRequest is the Places autocomplete payload.
type AutocompleteRequest struct {
	Input               string   `json:"input"`
	IncludedRegionCodes []string `json:"includedRegionCodes,omitempty"`
	LanguageCode        string   `json:"languageCode,omitempty"`
	SessionToken        string   `json:"sessionToken,omitempty"`
}

type AutocompleteSuggestion struct {
	PlaceID       string
	Description   string
	MainText      string
	SecondaryText string
}

// PlaceDetails is the normalized place-details response.
type PlaceDetails struct {
	PlaceID           string
	FormattedAddress  string
	Location          *LatLng
	AddressComponents []AddressComponent
}

type LatLng struct {
	Latitude  float64
	Longitude float64
}

type AddressComponent struct {
	LongName  string
	ShortName string
	Types     []string
}

// Find returns the first component tagged with kind.
func (d *PlaceDetails) Find(kind string) (AddressComponent, bool) {
	if d == nil {
		return AddressComponent{}, false
	}
	for _, comp := range d.AddressComponents {
		for _, typ := range comp.Types {
			if typ == kind {
				return comp, true
			}
		}
	}
	return AddressComponent{}, false
}

type textValue struct {
	Text string `json:"text"`
}

type autocompleteResponse struct {
	Suggestions []struct {
		Prediction struct {
			PlaceID          string    `json:"placeId"`
			Text             textValue `json:"text"`
			StructuredFormat struct {
				MainText      textValue `json:"mainText"`
				SecondaryText textValue `json:"secondaryText"`
			} `json:"structuredFormat"`
		} `json:"placePrediction"`
	} `json:"suggestions"`
}

type placeResponse struct {
	ID               string `json:"id"`
	FormattedAddress string `json:"formattedAddress"`
	Location         *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	AddressComponents []struct {
		LongText  string   `json:"longText"`
		ShortText string   `json:"shortText"`
		Types     []string `json:"types"`
	} `json:"addressComponents"`
}

// Autocomplete queries suggested places for partial input.
func (c *Client) Autocomplete(ctx context.Context, req AutocompleteRequest) ([]AutocompleteSuggestion, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}
	if strings.TrimSpace(req.Input) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "autocomplete input is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal autocomplete request")
	}

	var apiResp autocompleteResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/places:autocomplete", autocompleteFieldMask, payload, &apiResp); err != nil {
		return nil, err
	}

	suggestions := make([]AutocompleteSuggestion, 0, len(apiResp.Suggestions))
	for _, s := range apiResp.Suggestions {
		p := s.Prediction
		if p.PlaceID == "" {
			continue
		}
		suggestions = append(suggestions, AutocompleteSuggestion{
			PlaceID:       p.PlaceID,
			Description:   p.Text.Text,
			MainText:      p.StructuredFormat.MainText.Text,
			SecondaryText: p.StructuredFormat.SecondaryText.Text,
		})
	}
	return suggestions, nil
}

// ResolvePlace fetches the canonical place data for a place ID.
func (c *Client) ResolvePlace(ctx context.Context, placeID, sessionToken string) (*PlaceDetails, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}
	trimmed := strings.TrimSpace(placeID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "place ID is required")
	}

	endpoint := c.baseURL + "/places/" + url.PathEscape(trimmed)
	if sessionToken != "" {
		endpoint += "?sessionToken=" + url.QueryEscape(sessionToken)
	}

	var apiResp placeResponse
	if err := c.do(ctx, http.MethodGet, endpoint, placeResolveFieldMask, nil, &apiResp); err != nil {
		return nil, err
	}

	details := &PlaceDetails{
		PlaceID:           apiResp.ID,
		FormattedAddress:  apiResp.FormattedAddress,
		AddressComponents: make([]AddressComponent, 0, len(apiResp.AddressComponents)),
	}
	if apiResp.Location != nil {
		details.Location = &LatLng{Latitude: apiResp.Location.Latitude, Longitude: apiResp.Location.Longitude}
	}
	for _, comp := range apiResp.AddressComponents {
		details.AddressComponents = append(details.AddressComponents, AddressComponent{
			LongName:  comp.LongText,
			ShortName: comp.ShortText,
			Types:     comp.Types,
		})
	}
	return details, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, fieldMask string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build places request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute places request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"places request failed")
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode places response")
	}
	return nil
}

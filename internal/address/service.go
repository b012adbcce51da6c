package address

import (
	"context"
	"strings"

	"github.com/angelmondragon/southside-backend/pkg/errors"
	"github.com/angelmondragon/southside-backend/pkg/maps"
	"github.com/angelmondragon/southside-backend/pkg/types"
)

// Service backs the address widget. Booking creation never depends on it:
// whatever details the widget sends are stored verbatim.
type Service interface {
	Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error)
	Resolve(ctx context.Context, req ResolveRequest) (types.AddressDetails, error)
}

type placesClient interface {
	Autocomplete(ctx context.Context, req maps.AutocompleteRequest) ([]maps.AutocompleteSuggestion, error)
	ResolvePlace(ctx context.Context, placeID, sessionToken string) (*maps.PlaceDetails, error)
}

type service struct {
	places  placesClient
	country string
}

// NewService restricts suggestions to country (ISO 3166 alpha-2) unless a
// request names another region.
func NewService(client placesClient, country string) Service {
	return &service{places: client, country: strings.ToUpper(strings.TrimSpace(country))}
}

func (s *service) Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error) {
	if s == nil || s.places == nil {
		return nil, errors.New(errors.CodeDependency, "address lookup unavailable")
	}
	query := strings.TrimSpace(req.Query)
	if len(query) < 3 {
		return nil, errors.New(errors.CodeValidation, "query must be at least 3 characters")
	}

	payload := maps.AutocompleteRequest{
		Input:        query,
		LanguageCode: "en",
		SessionToken: strings.TrimSpace(req.SessionToken),
	}
	if country := strings.ToUpper(strings.TrimSpace(req.Country)); country != "" {
		payload.IncludedRegionCodes = []string{country}
	} else if s.country != "" {
		payload.IncludedRegionCodes = []string{s.country}
	}

	resp, err := s.places.Autocomplete(ctx, payload)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(resp))
	for _, item := range resp {
		suggestions = append(suggestions, Suggestion{
			PlaceID:       item.PlaceID,
			Description:   item.Description,
			MainText:      item.MainText,
			SecondaryText: item.SecondaryText,
		})
	}
	return suggestions, nil
}

func (s *service) Resolve(ctx context.Context, req ResolveRequest) (types.AddressDetails, error) {
	if s == nil || s.places == nil {
		return types.AddressDetails{}, errors.New(errors.CodeDependency, "address lookup unavailable")
	}
	if strings.TrimSpace(req.PlaceID) == "" {
		return types.AddressDetails{}, errors.New(errors.CodeValidation, "placeId is required")
	}

	details, err := s.places.ResolvePlace(ctx, req.PlaceID, strings.TrimSpace(req.SessionToken))
	if err != nil {
		return types.AddressDetails{}, err
	}
	return toAddressDetails(details)
}

func toAddressDetails(details *maps.PlaceDetails) (types.AddressDetails, error) {
	if details == nil {
		return types.AddressDetails{}, errors.New(errors.CodeDependency, "place details missing")
	}

	long := func(kind string) string {
		comp, _ := details.Find(kind)
		return comp.LongName
	}
	short := func(kind string) string {
		comp, _ := details.Find(kind)
		if comp.ShortName != "" {
			return comp.ShortName
		}
		return comp.LongName
	}

	locality := long("locality")
	if locality == "" {
		locality = long("postal_town")
	}
	if locality == "" {
		locality = long("administrative_area_level_2")
	}

	out := types.AddressDetails{
		PlaceID:          details.PlaceID,
		FormattedAddress: details.FormattedAddress,
		Components: types.AddressComponents{
			StreetNumber:       long("street_number"),
			Route:              long("route"),
			Locality:           locality,
			AdministrativeArea: short("administrative_area_level_1"),
			PostalCode:         long("postal_code"),
			Country:            short("country"),
		},
	}
	if details.Location != nil {
		lat, lng := details.Location.Latitude, details.Location.Longitude
		out.Latitude = &lat
		out.Longitude = &lng
	}
	if out.FormattedAddress == "" && out.Components.Route == "" {
		return types.AddressDetails{}, errors.New(errors.CodeDependency, "place has no street address")
	}
	return out, nil
}

type SuggestRequest struct {
	Query        string
	Country      string
	SessionToken string
}

type ResolveRequest struct {
	PlaceID      string
	SessionToken string
}

type Suggestion struct {
	PlaceID       string `json:"placeId"`
	Description   string `json:"description"`
	MainText      string `json:"mainText,omitempty"`
	SecondaryText string `json:"secondaryText,omitempty"`
}

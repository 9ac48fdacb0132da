// Package radio provides internet radio station search against the
// radio-browser directory, with mirror fallback and a JSON-file favorites
// store.
package radio

import "encoding/json"

// Station is one entry of the station directory.
type Station struct {
	UUID        string `json:"stationuuid"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Favicon     string `json:"favicon"`
	Tags        string `json:"tags"`
	Country     string `json:"country"`
	CountryCode string `json:"countrycode"`
	Bitrate     int    `json:"bitrate"`
	Codec       string `json:"codec"`
	Homepage    string `json:"homepage"`
	Votes       int    `json:"votes"`
	IsFavorite  bool   `json:"isFavorite"`
}

// UnmarshalJSON prefers the directory's resolved stream URL over the
// registered one. Saved favorites only carry "url".
func (s *Station) UnmarshalJSON(data []byte) error {
	type alias Station
	aux := struct {
		*alias
		URLResolved string `json:"url_resolved"`
	}{alias: (*alias)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.URLResolved != "" {
		s.URL = aux.URLResolved
	}
	return nil
}

// IsValid reports whether the record is playable.
func (s Station) IsValid() bool {
	return s.UUID != "" && s.Name != "" && s.URL != ""
}

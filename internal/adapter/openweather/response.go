package openweather

import (
	"fmt"

	"github.com/couchcryptid/city-weather-report/internal/domain"
)

// OpenWeatherMap API response types. Pointers distinguish an absent key from a
// zero value, so an incomplete payload can be rejected instead of recorded.

type response struct {
	Main    *mainGroup `json:"main"`
	Weather []struct {
		Description *string `json:"description"`
	} `json:"weather"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Clouds *struct {
		All *int `json:"all"`
	} `json:"clouds"`
}

type mainGroup struct {
	Temp     *float64 `json:"temp"`
	Humidity *int     `json:"humidity"`
	Pressure *int     `json:"pressure"`
}

// apiError is the body OpenWeatherMap sends with non-2xx statuses. cod is a
// number or a string depending on the endpoint.
type apiError struct {
	Cod     any    `json:"cod"`
	Message string `json:"message"`
}

// missingKeyError names the first absent key of a payload.
type missingKeyError string

func (e missingKeyError) Error() string {
	return fmt.Sprintf("missing key %q in response", string(e))
}

func (r response) toRecord(city string) (domain.WeatherRecord, error) {
	switch {
	case r.Main == nil:
		return domain.WeatherRecord{}, missingKeyError("main")
	case r.Main.Temp == nil:
		return domain.WeatherRecord{}, missingKeyError("main.temp")
	case r.Main.Humidity == nil:
		return domain.WeatherRecord{}, missingKeyError("main.humidity")
	case r.Main.Pressure == nil:
		return domain.WeatherRecord{}, missingKeyError("main.pressure")
	case r.Weather == nil:
		return domain.WeatherRecord{}, missingKeyError("weather")
	case len(r.Weather) == 0 || r.Weather[0].Description == nil:
		return domain.WeatherRecord{}, missingKeyError("weather[0].description")
	case r.Wind == nil:
		return domain.WeatherRecord{}, missingKeyError("wind")
	case r.Wind.Speed == nil:
		return domain.WeatherRecord{}, missingKeyError("wind.speed")
	case r.Clouds == nil:
		return domain.WeatherRecord{}, missingKeyError("clouds")
	case r.Clouds.All == nil:
		return domain.WeatherRecord{}, missingKeyError("clouds.all")
	}

	return domain.WeatherRecord{
		City:        city,
		Temperature: *r.Main.Temp,
		Humidity:    *r.Main.Humidity,
		Pressure:    *r.Main.Pressure,
		Weather:     *r.Weather[0].Description,
		WindSpeed:   *r.Wind.Speed,
		Cloudiness:  *r.Clouds.All,
	}, nil
}

package domain

// WeatherRecord is one city's normalized observation. Records are built once
// from a single API response and never mutated afterwards.
type WeatherRecord struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"` // °C
	Humidity    int     `json:"humidity"`    // %
	Pressure    int     `json:"pressure"`    // hPa
	Weather     string  `json:"weather"`
	WindSpeed   float64 `json:"wind_speed"` // m/s
	Cloudiness  int     `json:"cloudiness"` // %
}

// Columns is the fixed header of the dataset CSV.
var Columns = []string{"City", "Temperature", "Humidity", "Pressure", "Weather", "Wind Speed", "Cloudiness"}

// Field describes one numeric column of the dataset.
type Field struct {
	Name  string // column header, e.g. "Wind Speed"
	Unit  string // physical unit suffix, e.g. " m/s"
	Color string // plot color name
	Slug  string // file-name stem, e.g. "wind_speed"
	value func(WeatherRecord) float64
}

// Value extracts the field from a record as a float64.
func (f Field) Value(r WeatherRecord) float64 {
	return f.value(r)
}

// Values extracts the field from every record, preserving order.
func (f Field) Values(records []WeatherRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = f.value(r)
	}
	return out
}

// Fields lists the numeric columns in report order.
var Fields = []Field{
	{Name: "Temperature", Unit: "°C", Color: "blue", Slug: "temperature",
		value: func(r WeatherRecord) float64 { return r.Temperature }},
	{Name: "Humidity", Unit: "%", Color: "green", Slug: "humidity",
		value: func(r WeatherRecord) float64 { return float64(r.Humidity) }},
	{Name: "Pressure", Unit: " hPa", Color: "red", Slug: "pressure",
		value: func(r WeatherRecord) float64 { return float64(r.Pressure) }},
	{Name: "Wind Speed", Unit: " m/s", Color: "purple", Slug: "wind_speed",
		value: func(r WeatherRecord) float64 { return r.WindSpeed }},
	{Name: "Cloudiness", Unit: "%", Color: "orange", Slug: "cloudiness",
		value: func(r WeatherRecord) float64 { return float64(r.Cloudiness) }},
}

// FieldByName returns the numeric field with the given column header.
func FieldByName(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

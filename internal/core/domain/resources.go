package domain

// Records below mirror the backend's JSON shapes. The portal does not
// validate them; the backend reports field errors.

// Car is a company vehicle used for trip logging.
type Car struct {
	ID                 int64   `json:"id,omitempty"`
	Brand              string  `json:"brand"`
	Model              string  `json:"model"`
	RegistrationNumber string  `json:"registration_number"`
	VIN                string  `json:"vin,omitempty"`
	FuelType           string  `json:"fuel_type,omitempty"`
	FuelConsumption    float64 `json:"fuel_consumption,omitempty"`
	Mileage            int64   `json:"mileage,omitempty"`
	UserID             *int64  `json:"user_id,omitempty"`
}

// FuelPrice is a dated price per litre for one fuel type.
type FuelPrice struct {
	ID        int64   `json:"id,omitempty"`
	FuelType  string  `json:"fuel_type"`
	Price     float64 `json:"price"`
	ValidFrom string  `json:"valid_from"`
	ValidTo   string  `json:"valid_to,omitempty"`
}

// TravelPurposeDictionary is one entry of the trip purpose list.
type TravelPurposeDictionary struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UserID      *int64 `json:"user_id,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// Law is a legal document shown in the browser section.
type Law struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Location is a geographic point.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Address is a saved trip endpoint.
type Address struct {
	ID         int64     `json:"id,omitempty"`
	Name       string    `json:"name"`
	Street     string    `json:"street"`
	City       string    `json:"city"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country,omitempty"`
	Location   *Location `json:"location,omitempty"`
}

// Record is implemented by every backend record.
type Record interface {
	RecordID() int64
}

func (u User) RecordID() int64                    { return u.ID }
func (c Car) RecordID() int64                     { return c.ID }
func (f FuelPrice) RecordID() int64               { return f.ID }
func (t TravelPurposeDictionary) RecordID() int64 { return t.ID }
func (l Law) RecordID() int64                     { return l.ID }
func (a Address) RecordID() int64                 { return a.ID }

package models

// EnquiryForm is a buyer's question about a listing. It is mailed, never
// stored.
type EnquiryForm struct {
	FirstName          string   `json:"firstName" validate:"required"`
	LastName           string   `json:"lastName" validate:"required"`
	Email              string   `json:"email" validate:"required"`
	Telephone          string   `json:"telephone" validate:"required"`
	Message            string   `json:"message" validate:"required"`
	ContactPreferences []string `json:"contactPreferences" validate:"required"`
}

// SellForm is an offer to sell a car to the dealer. It is mailed, never
// stored.
type SellForm struct {
	Title        string   `json:"title" validate:"required"`
	FirstName    string   `json:"firstName" validate:"required"`
	LastName     string   `json:"lastName" validate:"required"`
	Email        string   `json:"email" validate:"required"`
	Telephone    string   `json:"telephone" validate:"required"`
	Manufacturer string   `json:"manufacturer" validate:"required"`
	Model        string   `json:"model" validate:"required"`
	Year         string   `json:"year" validate:"required"`
	Registration string   `json:"registration" validate:"required"`
	Mileage      string   `json:"mileage" validate:"required"`
	Comments     string   `json:"comments" validate:"required"`
	ContactPrefs []string `json:"contactPrefs" validate:"required"`
}

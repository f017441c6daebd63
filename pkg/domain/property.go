package domain

// PropertySummary is a listing as returned by the search backend.
type PropertySummary struct {
	ID        string   `json:"id" mapstructure:"id"`
	Title     string   `json:"title" mapstructure:"title"`
	Type      string   `json:"type" mapstructure:"type"`
	City      string   `json:"city" mapstructure:"city"`
	Price     int      `json:"price" mapstructure:"price"`
	Amenities []string `json:"amenities,omitempty" mapstructure:"amenities"`
}

// Ref returns the lightweight reference kept in events.
func (p PropertySummary) Ref() PropertyRef {
	return PropertyRef{ID: p.ID, Title: p.Title, Price: p.Price}
}

// PropertyRef identifies one match of a search.
type PropertyRef struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Price int    `json:"price,omitempty"`
}

// SearchRequest is the query sent to the search backend.
// Nil bounds and empty strings mean "no filter".
type SearchRequest struct {
	Type      string   `json:"type,omitempty"`
	City      string   `json:"city,omitempty"`
	PriceMin  *int     `json:"price_min,omitempty"`
	PriceMax  *int     `json:"price_max,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
}

// Ticket is a support request collected by the escalation flow.
type Ticket struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	LookingFor string `json:"looking_for"`
	Problem    string `json:"problem"`
}

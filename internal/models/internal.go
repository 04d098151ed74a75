package models

// Offer is one marketplace offer for a product. The source-assigned ID keys
// the offer inside the stored per-URL mapping and never leaves the service,
// so it is excluded from both wire formats.
type Offer struct {
	ID          string  `json:"-" bson:"-"`
	URL         string  `json:"url" bson:"url"`
	OriginalURL string  `json:"original_url" bson:"original_url"`
	Title       string  `json:"title" bson:"title"`
	Shop        string  `json:"shop" bson:"shop"`
	Price       float64 `json:"price" bson:"price"`
	IsUsed      bool    `json:"is_used" bson:"is_used"`
	ParsedAt    int64   `json:"parsed_at" bson:"parsed_at"`
}

// Comment is one customer review. Rating is always on the canonical 0-5
// scale; sources reporting 0-100 are converted during parsing.
type Comment struct {
	ID           string  `json:"-" bson:"-"`
	Rating       float64 `json:"rating" bson:"rating"`
	Advantages   string  `json:"advantages" bson:"advantages"`
	Shortcomings string  `json:"shortcomings" bson:"shortcomings"`
	Comment      string  `json:"comment" bson:"comment"`
	CreatedAt    int64   `json:"created_at" bson:"created_at"`
	ParsedAt     int64   `json:"parsed_at" bson:"parsed_at"`
}

// ProductData is the in-memory result of one acquisition run. Exactly one of
// Offers or Comments is populated depending on the source kind. Slices keep
// encounter order (or sorted order after the collector ran); the merge store
// re-keys them by record id.
type ProductData struct {
	URL      string
	Offers   []Offer
	Comments []Comment
}

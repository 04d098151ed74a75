package models

// ExternalOffer is the offer shape returned to API callers. Bookkeeping
// fields (record id, parsed_at) are stripped.
type ExternalOffer struct {
	URL         string  `json:"url"`
	OriginalURL string  `json:"original_url"`
	Title       string  `json:"title"`
	Shop        string  `json:"shop"`
	Price       float64 `json:"price"`
	IsUsed      bool    `json:"is_used"`
}

// ExternalComment is the review shape returned to API callers.
type ExternalComment struct {
	Rating       float64 `json:"rating"`
	Advantages   string  `json:"advantages"`
	Shortcomings string  `json:"shortcomings"`
	Comment      string  `json:"comment"`
}

// OffersResponse is the /product/offers payload.
type OffersResponse struct {
	URL    string          `json:"url"`
	Offers []ExternalOffer `json:"offers"`
}

// CommentsResponse is the /product/comments payload.
type CommentsResponse struct {
	URL      string            `json:"url"`
	Comments []ExternalComment `json:"comments"`
}

// ToOffersResponse projects the run result into the external offer shape,
// preserving the order the collector produced.
func (d *ProductData) ToOffersResponse() OffersResponse {
	offers := make([]ExternalOffer, 0, len(d.Offers))
	for _, offer := range d.Offers {
		offers = append(offers, ExternalOffer{
			URL:         offer.URL,
			OriginalURL: offer.OriginalURL,
			Title:       offer.Title,
			Shop:        offer.Shop,
			Price:       offer.Price,
			IsUsed:      offer.IsUsed,
		})
	}
	return OffersResponse{URL: d.URL, Offers: offers}
}

// ToCommentsResponse projects the run result into the external review shape.
func (d *ProductData) ToCommentsResponse() CommentsResponse {
	comments := make([]ExternalComment, 0, len(d.Comments))
	for _, comment := range d.Comments {
		comments = append(comments, ExternalComment{
			Rating:       comment.Rating,
			Advantages:   comment.Advantages,
			Shortcomings: comment.Shortcomings,
			Comment:      comment.Comment,
		})
	}
	return CommentsResponse{URL: d.URL, Comments: comments}
}

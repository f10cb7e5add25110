package dto

type CheckoutResponse struct {
	URL string `json:"url"`
}

type PlanResponse struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Credits    int    `json:"credits"`
	PriceCents int64  `json:"price_cents"`
}

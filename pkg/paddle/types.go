package paddle

// Customer is the subset of Paddle's customer entity this service reads.
type Customer struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Product is the subset of Paddle's catalog product entity this service
// reads.
type Product struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Subscription is the subset of Paddle's subscription entity this service
// reads from live API responses.
type Subscription struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	CustomerID   string  `json:"customer_id"`
	CurrencyCode string  `json:"currency_code"`
	NextBilledAt *string `json:"next_billed_at"`
	CreatedAt    *string `json:"created_at"`
	UpdatedAt    *string `json:"updated_at"`
}

package models

// Transaction is a single finance record owned by one user.
// ID is supplied by the client and is never generated by storage.
type Transaction struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	UserID      int     `json:"user_id"`
}

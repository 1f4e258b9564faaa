package model

// Transaction is a flattened reporting-API transaction.
// Fields are empty when the provider omitted them.
type Transaction struct {
	Date   string `json:"date"`
	Email  string `json:"email"`
	Amount string `json:"amount"`
}

package model

// Product is a stock-keeping unit: a product family (Name) in one variant (Model).
// Balance is stored redundantly and moves in lock-step with the movement logs.
type Product struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Model   string `json:"model"`
	Balance int    `json:"balance"`
}

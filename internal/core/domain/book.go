package domain

// Book is a catalog entry. Available is flipped only by borrow and return.
type Book struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Available bool   `json:"available"`
}

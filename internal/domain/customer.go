package domain

// Customer holds the display fields used when listing and searching return
// requests.
type Customer struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

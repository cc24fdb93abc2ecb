package models

type User struct {
	ID          int64  `json:"id" db:"id"`
	FullName    string `json:"fullName" db:"full_name"`
	PhoneNumber string `json:"phoneNumber" db:"phone_number"`

	// Email and Password back the login surface only; the profile path never reads them.
	Email    string `json:"email,omitempty" db:"email"`
	Password string `json:"password,omitempty" db:"password"`
}

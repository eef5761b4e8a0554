package domain

type User struct {
	ID    int64  `json:"id" yaml:"id" db:"id"`
	Name  string `json:"name" yaml:"name" db:"name"`
	Email string `json:"email" yaml:"email" db:"email"`
}

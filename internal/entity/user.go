package entity

// User represents one directory entry as served by the users endpoint.
type User struct {
	ID      int         `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Phone   string      `json:"phone"`
	Website string      `json:"website"`
	Address UserAddress `json:"address"`
	Company UserCompany `json:"company"`
}

// UserAddress holds the address group of a user record.
type UserAddress struct {
	City string `json:"city"`
}

// UserCompany holds the company group of a user record.
type UserCompany struct {
	Name string `json:"name"`
}

// City returns the city nested under the address group.
func (u User) City() string {
	return u.Address.City
}

// CompanyName returns the name nested under the company group.
func (u User) CompanyName() string {
	return u.Company.Name
}

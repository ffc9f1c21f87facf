package model

// Structure is the organisational unit an agent belongs to.
type Structure struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID ID     `json:"parentId"`
}

// UserProfile is returned by GET /users/{id}.
type UserProfile struct {
	ID          ID         `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	Contact     string     `json:"contact"`
	StructureID ID         `json:"structureId"`
	Structure   *Structure `json:"structure"`
	Roles       []string   `json:"roles"`
}

// PrimaryRole returns the first role or an empty string.
func (u UserProfile) PrimaryRole() string {
	if len(u.Roles) == 0 {
		return ""
	}
	return u.Roles[0]
}

// LoginResult is the data part of POST /auth/login.
type LoginResult struct {
	Token string `json:"token"`
	User  struct {
		ID ID `json:"id"`
	} `json:"user"`
}

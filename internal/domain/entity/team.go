package entity

// DirectoryTeam is one team/tower record from the organizational directory
// index. The directory is the source of truth for leads and contact data;
// this system never mutates it.
type DirectoryTeam struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Tower       string   `json:"tower"`
	Leader      string   `json:"leader"`
	LeaderEmail string   `json:"leader_email"`
	Skills      []string `json:"skills"`
	Description string   `json:"description"`
}

package entity

import "time"

// PIX key types
const (
	PixCPF    = "cpf"
	PixEmail  = "email"
	PixPhone  = "telefone"
	PixRandom = "aleatoria"
)

// Profile holds the identity and banking data of a portal user
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	CPF       string    `json:"cpf,omitempty"`
	Company   string    `json:"company,omitempty"`
	Bank      string    `json:"bank,omitempty"`
	Agency    string    `json:"agency,omitempty"`
	Account   string    `json:"account,omitempty"`
	PixType   string    `json:"pix_type,omitempty"`
	PixKey    string    `json:"pix_key,omitempty"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin reports whether the profile has the admin role
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// StatusLabel is the roster label for the active flag
func (p *Profile) StatusLabel() string {
	if p.Active {
		return "Ativo"
	}
	return "Inativo"
}

package models

import (
	"encoding/json"
	"strings"
)

// Contact is one company contact channel.
type Contact struct {
	ID    int    `json:"id" db:"id"`
	Type  string `json:"tipo" db:"tipo"`
	Place string `json:"local" db:"local"`
	Phone string `json:"telefone" db:"telefone"`
	Email string `json:"email" db:"email"`
}

// UnmarshalJSON accepts both the current field names and the "s"-prefixed
// ones older backends still emit.
func (c *Contact) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID        int    `json:"id"`
		Tipo      string `json:"tipo"`
		STipo     string `json:"stipo"`
		Local     string `json:"local"`
		SLocal    string `json:"slocal"`
		Telefone  string `json:"telefone"`
		STelefone string `json:"stelefone"`
		Email     string `json:"email"`
		SEmail    string `json:"semail"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*c = Contact{
		ID:    raw.ID,
		Type:  firstNonEmpty(raw.Tipo, raw.STipo),
		Place: firstNonEmpty(raw.Local, raw.SLocal),
		Phone: firstNonEmpty(raw.Telefone, raw.STelefone),
		Email: firstNonEmpty(raw.Email, raw.SEmail),
	}
	return nil
}

// SocialMedia is a company profile link.
type SocialMedia struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	URL  string `json:"url" db:"url"`
	Icon string `json:"icon" db:"icon"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

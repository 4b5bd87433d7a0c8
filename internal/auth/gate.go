// Package auth is the session gate: it maps a credential pair to an identity
// and decides which ledger operations that identity may perform.
package auth

import (
	"fmt"
	"strings"

	"github.com/luis-polezi/stock-control/internal/apierror"
	"github.com/luis-polezi/stock-control/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// DefaultUsers is the credential table used when none is configured.
const DefaultUsers = "admin:133712:admin,Gabriela:070315:admin,consulta:123456:viewer"

// Credential is one entry of the credential table.
type Credential struct {
	Username string
	Hash     []byte
	Role     model.Role
}

// ParseCredentials reads "user:secret:role" entries separated by commas.
// A secret starting with "$2" is taken as a bcrypt hash; anything else is
// hashed here with cost.
func ParseCredentials(table string, cost int) ([]Credential, error) {
	var out []Credential
	seen := make(map[string]bool)
	for n, entry := range strings.Split(table, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		first := strings.Index(entry, ":")
		last := strings.LastIndex(entry, ":")
		if first <= 0 || last == first {
			return nil, apierror.InvalidItem(n, "credential", "must be user:secret:role")
		}
		user, secret, role := entry[:first], entry[first+1:last], model.Role(entry[last+1:])
		if secret == "" {
			return nil, apierror.InvalidItem(n, "secret", "is required")
		}
		if !role.Valid() {
			return nil, apierror.InvalidItem(n, "role", "must be admin or viewer")
		}
		if seen[user] {
			return nil, apierror.InvalidItem(n, "username", "is duplicated")
		}
		seen[user] = true

		hash := []byte(secret)
		if !strings.HasPrefix(secret, "$2") {
			h, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
			if err != nil {
				return nil, fmt.Errorf("hash secret of %s: %w", user, err)
			}
			hash = h
		}
		out = append(out, Credential{Username: user, Hash: hash, Role: role})
	}
	if len(out) == 0 {
		return nil, apierror.Invalid("credentials", "table is empty")
	}
	return out, nil
}

// Gate authenticates against a fixed credential table.
type Gate struct {
	creds map[string]Credential
}

func NewGate(creds []Credential) *Gate {
	g := &Gate{creds: make(map[string]Credential, len(creds))}
	for _, c := range creds {
		g.creds[c.Username] = c
	}
	return g
}

// Authenticate returns the identity for an exact username/password match.
func (g *Gate) Authenticate(username, password string) (model.Identity, error) {
	c, ok := g.creds[username]
	if !ok {
		return model.Identity{}, apierror.ErrDenied
	}
	if err := bcrypt.CompareHashAndPassword(c.Hash, []byte(password)); err != nil {
		return model.Identity{}, apierror.ErrDenied
	}
	return model.Identity{Username: c.Username, Role: c.Role}, nil
}

package tinydi

import (
	"fmt"

	"github.com/google/uuid"
)

// Token is an opaque nominal service identifier. Two Tokens are never equal
// unless they are the same instance, which makes them collision-free keys
// where strings would clash.
type Token struct {
	name string
	id   string
}

// NewToken creates a unique Token. The name is only used in diagnostics.
func NewToken(name string) *Token {
	return &Token{name: name, id: uuid.NewString()}
}

func (t *Token) Name() string {
	return t.name
}

func (t *Token) String() string {
	if t.name == "" {
		return fmt.Sprintf("Token(%s)", t.id[:8])
	}

	return fmt.Sprintf("Token[%s](%s)", t.name, t.id[:8])
}

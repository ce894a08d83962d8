package inventory

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const codePrefix = "TCK-"

// newTicketCode returns a 128-bit random code. The tickets table holds
// a unique constraint on the code as a backstop; Purchase retries
// generation on a constraint hit.
func newTicketCode() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return codePrefix + strings.ToUpper(hex.EncodeToString(b[:]))
}

package types

import (
	"fmt"
	"strings"
)

// splitVariant parses the spec's "Name" / "Name(payload)" tagged-variant
// string form shared by TxType and ProposalType (§6.3).
func splitVariant(s string) (name string, payload string, hasPayload bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, "", false
	}
	if !strings.HasSuffix(s, ")") {
		return s, "", false
	}
	return s[:open], s[open+1 : len(s)-1], true
}

func formatVariant(name, payload string) string {
	if payload == "" {
		return name
	}
	return fmt.Sprintf("%s(%s)", name, payload)
}

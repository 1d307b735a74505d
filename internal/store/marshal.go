package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/eqsat/internal/ir"
)

// marshalTruncated converts the truncated-rule list to canonical JSON TEXT.
func marshalTruncated(rules []string) (string, error) {
	if rules == nil {
		rules = []string{}
	}
	data, err := ir.MarshalCanonical(rules)
	if err != nil {
		return "", fmt.Errorf("marshal truncated: %w", err)
	}
	return string(data), nil
}

// unmarshalTruncated parses the truncated-rule list. Empty lists read back
// as nil so that records round-trip unchanged.
func unmarshalTruncated(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var rules []string
	if err := json.Unmarshal([]byte(data), &rules); err != nil {
		return nil, fmt.Errorf("unmarshal truncated: %w", err)
	}
	return rules, nil
}

package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainTerm    = "eqsat/term/v1"
	DomainRule    = "eqsat/rule/v1"
	DomainRuleSet = "eqsat/ruleset/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TermHash computes the content-addressed identity of a term.
func TermHash(t Term) (string, error) {
	canonical, err := MarshalCanonical(t)
	if err != nil {
		return "", fmt.Errorf("TermHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTerm, canonical), nil
}

// RuleHash computes the identity of one rewrite rule from its name, its
// pattern texts and the number of guards attached to it. Guards are opaque
// callbacks, so only their presence is part of the identity.
func RuleHash(name, searcher, applier string, guards int) (string, error) {
	obj := map[string]any{
		"name":     name,
		"searcher": searcher,
		"applier":  applier,
		"guards":   guards,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RuleHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRule, canonical), nil
}

// RuleSetHash computes the identity of an ordered list of rule hashes.
func RuleSetHash(ruleHashes []string) (string, error) {
	canonical, err := MarshalCanonical(ruleHashes)
	if err != nil {
		return "", fmt.Errorf("RuleSetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRuleSet, canonical), nil
}

// MustTermHash is like TermHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTermHash(t Term) string {
	h, err := TermHash(t)
	if err != nil {
		panic(err)
	}
	return h
}

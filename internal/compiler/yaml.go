package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseYAML reads a rule-set document from YAML. Unknown fields are errors.
//
//	rules:
//	  - name: add-comm
//	    searcher: "(+ ?a ?b)"
//	    applier: "(+ ?b ?a)"
//	costs: {"*": 4}
//	limits: {iterations: 10}
func ParseYAML(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, &CompileError{Field: "yaml", Message: fmt.Sprintf("parse: %v", err)}
	}
	return &doc, nil
}

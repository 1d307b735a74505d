package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/eqsat/internal/compiler"
)

// LoadMode controls how errors are handled during rule-set loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all validation errors before returning.
	LoadModeCollectAll
)

// LoadResult contains a loaded rule-set document and, when it compiled,
// its program.
type LoadResult struct {
	Path     string
	Document *compiler.Document
	Program  *compiler.Program
}

// LoadError represents an error that occurred during rule-set loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadRules loads and compiles the rule set at path, which may be a CUE
// file, a YAML file, or a directory holding one CUE package.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, every validation error is returned.
func LoadRules(path string, mode LoadMode) (*LoadResult, []error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rules not found: %s", path)}}
		}
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing rules: %v", err)}}
	}

	doc, err := compiler.Load(path)
	if err != nil {
		return nil, []error{convertLoadError(err)}
	}
	result := &LoadResult{Path: path, Document: doc}

	if verrs := compiler.Validate(doc); len(verrs) > 0 {
		if mode == LoadModeFailFast {
			verrs = verrs[:1]
		}
		errs := make([]error, len(verrs))
		for i := range verrs {
			errs[i] = &verrs[i]
		}
		return result, errs
	}

	prog, err := doc.Compile()
	if err != nil {
		return result, []error{convertCompileError(err)}
	}
	result.Program = prog
	return result, nil
}

// convertLoadError converts a compiler load failure to a LoadError.
func convertLoadError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{Code: MapFieldToErrorCode(compileErr.Field), Message: compileErr.Message, Pos: compileErr.Pos}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	var ve *compiler.ValidationError
	if errors.As(err, &ve) {
		return &LoadError{Code: ve.Code, Message: fmt.Sprintf("%s: %s", ve.Field, ve.Message)}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
// Rule-set validation codes (E100-E199) come from the compiler.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No scenario files found
	ErrCodeLoadFailed  = "E004" // Rule-set file unreadable or malformed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	// Run errors
	ErrCodeParse       = "E201" // Input expression does not parse
	ErrCodeArity       = "E202" // Operator used with two arities
	ErrCodeCostModel   = "E203" // Unknown cost model
	ErrCodeMatchLimit  = "E204" // Search truncated under a strict match limit
	ErrCodeStoreFailed = "E205" // Run log unavailable
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "yaml":
		return ErrCodeLoadFailed
	case field == "cue":
		return ErrCodeBuildFailed
	case field == "rules":
		return compiler.ErrNoRules
	case field == "default_cost", strings.HasPrefix(field, "costs."):
		return compiler.ErrInvalidCost
	case strings.HasPrefix(field, "limits"):
		return compiler.ErrInvalidLimits
	case strings.HasSuffix(field, ".searcher"):
		return compiler.ErrInvalidSearcher
	case strings.HasSuffix(field, ".applier"):
		return compiler.ErrInvalidApplier
	case strings.Contains(field, ".when"):
		return compiler.ErrInvalidCondition
	case strings.HasSuffix(field, ".name"):
		return compiler.ErrEmptyRuleName
	default:
		return ErrCodeGeneric
	}
}

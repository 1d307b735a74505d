package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/eqsat/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// RuleSummary describes one compiled, directed rule.
type RuleSummary struct {
	Name     string `json:"name"`
	Searcher string `json:"searcher"`
	Applier  string `json:"applier"`
	Guarded  bool   `json:"guarded,omitempty"`
}

// CompilationResult holds a compiled rule set.
type CompilationResult struct {
	Path        string                   `json:"path"`
	RuleSetHash string                   `json:"ruleset_hash"`
	Rules       []RuleSummary            `json:"rules"`
	Costs       map[string]float64       `json:"costs,omitempty"`
	DefaultCost float64                  `json:"default_cost"`
	Limits      compiler.LimitsDecl      `json:"limits"`
	Warnings    []compiler.GrowthWarning `json:"warnings"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <rules>",
		Short: "Validate and compile a rule set",
		Long: `Validate a rule-set file (.cue, .yaml) or CUE package directory and
compile it to directed rewrite rules.

Every validation error is reported, not only the first. Rule cycles that
add operators on every firing are reported as growth warnings; they do not
fail the command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled rule set as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, loadErrors := LoadRules(path, LoadModeCollectAll)
	if loaded == nil && len(loadErrors) > 0 {
		code, message := parseCompileError(loadErrors[0])
		return formatter.fail(ExitCommandError, code, message, nil)
	}
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	prog := loaded.Program
	for _, r := range prog.Rules.Rules() {
		formatter.VerboseLog("Compiled rule: %s", r)
	}

	result, err := buildCompilationResult(path, prog)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if opts.Output != "" {
		if err := writeCompiledRules(result, opts.Output); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		formatter.VerboseLog("Wrote compiled rule set to %s", opts.Output)
	}

	return formatter.Success(result)
}

func buildCompilationResult(path string, prog *compiler.Program) (*CompilationResult, error) {
	hash, err := prog.Rules.Hash()
	if err != nil {
		return nil, fmt.Errorf("hash rule set: %w", err)
	}
	result := &CompilationResult{
		Path:        path,
		RuleSetHash: hash,
		Costs:       prog.Costs,
		DefaultCost: prog.DefaultCost,
		Limits:      prog.Limits,
		Warnings:    prog.Warnings,
	}
	for _, r := range prog.Rules.Rules() {
		result.Rules = append(result.Rules, RuleSummary{
			Name:     r.Name(),
			Searcher: r.Searcher().String(),
			Applier:  r.Applier().String(),
			Guarded:  r.Guarded(),
		})
	}
	return result, nil
}

// RenderText implements TextRenderer.
func (r *CompilationResult) RenderText(w io.Writer, verbose bool) error {
	fmt.Fprintf(w, "✓ Compiled %d rule(s) from %s\n\n", len(r.Rules), r.Path)

	fmt.Fprintln(w, "Rules:")
	for _, rule := range r.Rules {
		guard := ""
		if rule.Guarded {
			guard = " (guarded)"
		}
		fmt.Fprintf(w, "  %s: %s → %s%s\n", rule.Name, rule.Searcher, rule.Applier, guard)
	}
	fmt.Fprintln(w)

	if len(r.Costs) > 0 {
		ops := make([]string, 0, len(r.Costs))
		for op := range r.Costs {
			ops = append(ops, op)
		}
		sort.Strings(ops)
		fmt.Fprintf(w, "Costs (default %g):\n", r.DefaultCost)
		for _, op := range ops {
			fmt.Fprintf(w, "  %s: %g\n", op, r.Costs[op])
		}
		fmt.Fprintln(w)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  %s\n", warn.Message)
		}
		fmt.Fprintln(w)
	}

	if verbose {
		fmt.Fprintf(w, "Rule set hash: %s\n", r.RuleSetHash)
	}
	return nil
}

// outputCompileErrors outputs multiple validation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{
				Code:    code,
				Message: message,
			}
		}

		if err := formatter.encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// writeCompiledRules writes the compilation result to a file as indented JSON.
func writeCompiledRules(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling rule set: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}

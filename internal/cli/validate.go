package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/mytoken/internal/compiler"
)

// ABIValidation is the validation outcome of one ABI file.
type ABIValidation struct {
	File    string                     `json:"file"`
	Valid   bool                       `json:"valid"`
	Actions int                        `json:"actions,omitempty"`
	Tables  int                        `json:"tables,omitempty"`
	Errors  []compiler.ValidationError `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool            `json:"valid"`
	Files []ABIValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <abi>...",
		Short: "Validate contract ABI files",
		Long: `Compile and validate contract ABI files without deploying them.

ABI files may be JSON (.abi, .json) or CUE (.cue). All problems in a file
are reported, not just the first.

Examples:
  mytoken validate contracts/mytoken/*.abi
  mytoken validate token.cue --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	result := ValidationResult{Valid: true, Files: make([]ABIValidation, 0, len(files))}

	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		v := validateFile(file)
		if !v.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, v)
	}

	text := func(w io.Writer) {
		for _, v := range result.Files {
			if v.Valid {
				fmt.Fprintf(w, "✓ %s (%d actions, %d tables)\n", v.File, v.Actions, v.Tables)
				continue
			}
			fmt.Fprintf(w, "✗ %s\n", v.File)
			for _, e := range v.Errors {
				fmt.Fprintf(w, "  %s\n", e.Error())
			}
		}
	}
	if !result.Valid {
		return formatter.Failure(ExitFailure, ErrCodeInvalidABI, "ABI validation failed", result, text)
	}
	return formatter.Success(result, text)
}

// validateFile compiles file and collects its problems as validation
// errors. Read and syntax errors become a single E100 entry.
func validateFile(file string) ABIValidation {
	v := ABIValidation{File: file}

	abi, err := compiler.LoadABI(file)
	if err != nil {
		field := "file"
		var ce *compiler.CompileError
		if errors.As(err, &ce) && ce.Field != "" {
			field = ce.Field
		}
		v.Errors = []compiler.ValidationError{{Field: field, Code: compiler.ErrCompile, Message: err.Error()}}
		return v
	}

	v.Errors = compiler.ValidateABI(abi)
	v.Valid = len(v.Errors) == 0
	v.Actions = len(abi.Actions)
	v.Tables = len(abi.Tables)
	return v
}

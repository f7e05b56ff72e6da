package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/vk/keygrid/internal/app"
	"github.com/vk/keygrid/internal/diff"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const (
	exitFailure = 1
	exitUsage   = 2
)

func usageError(err error) error {
	return &ExitError{Code: exitUsage, Message: err.Error()}
}

// globalFlags are shared by every command.
type globalFlags struct {
	profiles  []string
	logLevel  string
	logFormat string
}

// Execute runs the command line in args. Command output goes to outW, logs
// and help for failed invocations to errW. Every error it returns is an
// *ExitError.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return &ExitError{Code: exitFailure, Message: err.Error()}
}

// NewRootCommand builds the keygrid command tree.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "keygrid",
		Short:         "Edit, validate, diff and compile keyboard layouts",
		Long:          "keygrid edits keymap layout documents with path queries, validates them against keyboard profiles and compiles them to devicetree keymap and Kconfig sources.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringSliceVar(&flags.profiles, "profiles", []string{app.DefaultProfilesPath}, "profile files or directories (repeatable)")
	pf.StringVar(&flags.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	pf.StringVar(&flags.logFormat, "log-format", "text", "log format: text|json")

	newApp := func() (*app.App, error) {
		cfg, err := app.NewConfig(app.Config{
			ProfilePaths: flags.profiles,
			LogLevel:     flags.logLevel,
			LogFormat:    flags.logFormat,
		})
		if err != nil {
			return nil, usageError(err)
		}
		return app.NewApp(outW, errW, cfg), nil
	}

	root.AddCommand(
		newEditCommand(newApp),
		newValidateCommand(newApp),
		newCompileCommand(newApp),
		newDiffCommand(newApp),
		newPatchCommand(newApp),
	)
	return root
}

type appFactory func() (*app.App, error)

// args wraps a positional argument validator so violations are usage
// errors.
func args(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := v(cmd, a); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func newEditCommand(newApp appFactory) *cobra.Command {
	req := app.EditRequest{}
	cmd := &cobra.Command{
		Use:   "edit FILE",
		Short: "Apply a batch of operations to a layout",
		Long: `Apply a batch of operations to a layout. The batch is atomic: either every
operation succeeds or the file is left untouched.

Operations:
  get QUERY                  print matches as JSON
  set QUERY=VALUE            set every match to a JSON value or plain text
  set QUERY=@SOURCE          set matches from a source query
  add-layer NAME[@POS][=SOURCE]
  remove-layer NAME
  move-layer NAME@POS
  copy-layer NAME=AS
  add-layers SOURCE
  remove-behavior NAME
  add-behaviors SOURCE

A SOURCE is PATH$QUERY, PATH:ALIAS such as other.json:Nav or other.json:behaviors,
or $QUERY against the document itself.`,
		Example: `  keygrid edit corne.json --op 'set $.layers.Base.bindings[0]=&kp Q'
  keygrid edit corne.json --op 'add-layer Nav@1=other.json:Nav'
  keygrid edit corne.json --get '$.layers[*].name'`,
		Args: args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			if len(req.Ops) == 0 && len(req.Gets) == 0 && req.BatchFile == "" {
				return usageError(errors.New("edit needs at least one --op, --get or a --batch file"))
			}
			application, err := newApp()
			if err != nil {
				return err
			}
			req.Path = a[0]
			return application.Edit(cmd.Context(), req)
		},
	}
	cmd.Flags().StringArrayVar(&req.Ops, "op", nil, "operation to apply (repeatable, applied in order)")
	cmd.Flags().StringArrayVar(&req.Gets, "get", nil, "query to print after the batch (repeatable)")
	cmd.Flags().StringVar(&req.BatchFile, "batch", "", "YAML or JSON file with a list of operations, applied before --op")
	cmd.Flags().StringVarP(&req.Output, "output", "o", "", "write the result here instead of FILE ('-' for stdout)")
	cmd.Flags().BoolVar(&req.DryRun, "dry-run", false, "apply and check the batch without writing the layout")
	return cmd
}

func newValidateCommand(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a layout against its keyboard profile",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}
			return application.Validate(cmd.Context(), a[0])
		},
	}
}

func newCompileCommand(newApp appFactory) *cobra.Command {
	req := app.CompileRequest{}
	cmd := &cobra.Command{
		Use:   "compile FILE",
		Short: "Generate devicetree keymap and Kconfig sources",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			if req.Firmware == "" {
				return usageError(errors.New("compile needs --firmware"))
			}
			application, err := newApp()
			if err != nil {
				return err
			}
			req.Path = a[0]
			return application.Compile(cmd.Context(), req)
		},
	}
	cmd.Flags().StringVar(&req.Firmware, "firmware", "", "firmware variant id from the keyboard profile")
	cmd.Flags().StringVar(&req.KeymapPath, "keymap", "", "keymap output path (default FILE with .keymap, '-' for stdout)")
	cmd.Flags().StringVar(&req.KconfigPath, "kconfig", "", "Kconfig output path (default FILE with .conf, '-' for stdout)")
	return cmd
}

func newDiffCommand(newApp appFactory) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "diff A B",
		Short: "Print the changes that turn layout A into layout B",
		Args:  args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, a []string) error {
			f, err := diff.ParseFormat(format)
			if err != nil {
				return usageError(err)
			}
			application, err := newApp()
			if err != nil {
				return err
			}
			return application.Diff(cmd.Context(), a[0], a[1], f)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(diff.FormatJSON), "change set format: json|yaml")
	return cmd
}

func newPatchCommand(newApp appFactory) *cobra.Command {
	req := app.PatchRequest{}
	cmd := &cobra.Command{
		Use:   "patch FILE PATCHFILE",
		Short: "Apply a change set produced by diff",
		Args:  args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, a []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}
			req.Path, req.PatchPath = a[0], a[1]
			return application.Patch(cmd.Context(), req)
		},
	}
	cmd.Flags().StringVarP(&req.Output, "output", "o", "", "write the result here instead of FILE ('-' for stdout)")
	return cmd
}

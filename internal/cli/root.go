package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/danieljhkim/panelock/internal/engine"
	"github.com/danieljhkim/panelock/internal/logging"
)

var (
	// Colors for help output sections
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// Action flags. Exactly one may be given per invocation.
const (
	flagList       = "list"
	flagLocked     = "locked"
	flagLock       = "lock"
	flagUnlock     = "unlock"
	flagUnlockAll  = "unlockall"
	flagRestore    = "restore"
	flagShowConfig = "show-config"
)

var actionFlags = []string{flagList, flagLocked, flagLock, flagUnlock, flagUnlockAll, flagRestore, flagShowConfig}

const usageSyntax = `Syntax:
    panelock --lock "com.apple.preference.spotlight, com.apple.prefs.backup"
    panelock --unlock "com.apple.preference.spotlight, com.apple.prefs.backup"
`

// rootOptions holds the parsed flags of one invocation.
type rootOptions struct {
	list       bool
	locked     bool
	lock       csvValue
	unlock     csvValue
	unlockAll  bool
	restore    bool
	showConfig bool

	output     string
	verbosity  int
	configPath string

	// action is the single action flag that was set, or "".
	action string
}

// rootCmd is the root command for panelock.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "panelock",
		Version: "dev",
		Short:   "Lock and unlock macOS preference panes",
		Long: `panelock locks and unlocks System Settings preference panes for every user of
this Mac. In addition to locking a pane, it also hides the pane from view.

Panes are named by their bundle identifier, found in the Info.plist of each
.prefPane bundle. Use --list to see them.`,
		Example: `  sudo panelock --list
  sudo panelock --lock "com.apple.preference.sound, com.apple.prefs.backup"
  sudo panelock --unlockall
  sudo panelock --restore`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			bindOutput(cmd)
			logging.SetupLogger(opts.verbosity)

			if err := validateOutput(opts.output); err != nil {
				return err
			}
			return opts.selectAction(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	cmd.SetHelpFunc(customHelpFunc)
	cmd.SetFlagErrorFunc(flagErrorFunc)

	flags := cmd.Flags()
	flags.BoolVar(&opts.list, flagList, false, "List available preference panes")
	flags.BoolVar(&opts.locked, flagLocked, false, "List currently locked preference panes")
	flags.Var(&opts.lock, flagLock, "Lock a comma-separated list of bundle identifiers")
	flags.Var(&opts.unlock, flagUnlock, "Unlock a comma-separated list of bundle identifiers")
	flags.BoolVar(&opts.unlockAll, flagUnlockAll, false, "Unlock all preference panes, saving a restore file")
	flags.BoolVar(&opts.restore, flagRestore, false, "Restore the panes locked before --unlockall")
	flags.BoolVar(&opts.showConfig, flagShowConfig, false, "Print the effective configuration as TOML")
	flags.StringVarP(&opts.output, "output", "o", outputText, "Output format: text, json or yaml")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "Increase log verbosity (-v, -vv, -vvv)")
	flags.StringVar(&opts.configPath, "config", "", "Path to a TOML config file")
	cmd.MarkFlagsMutuallyExclusive(actionFlags...)

	return cmd
}

// selectAction records which action flag was set. Giving more than one is an
// argument error.
func (o *rootOptions) selectAction(cmd *cobra.Command) error {
	var set []string
	for _, name := range actionFlags {
		if cmd.Flags().Changed(name) {
			set = append(set, "--"+name)
		}
	}
	if len(set) > 1 {
		return fmt.Errorf("%w: %s cannot be used together", engine.ErrArgument, strings.Join(set, ", "))
	}
	if len(set) == 1 {
		o.action = strings.TrimPrefix(set[0], "--")
	}
	return nil
}

// flagErrorFunc prints help for unknown flags and reports any other parse
// failure as an argument error.
func flagErrorFunc(cmd *cobra.Command, err error) error {
	var notExist *pflag.NotExistError
	if errors.As(err, &notExist) {
		return cmd.Help()
	}

	var valueRequired *pflag.ValueRequiredError
	if errors.As(err, &valueRequired) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), usageSyntax)
	}
	return fmt.Errorf("%w: %v", engine.ErrArgument, err)
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// customHelpFunc renders help with colored section titles
func customHelpFunc(cmd *cobra.Command, args []string) {
	var help strings.Builder

	if cmd.Long != "" {
		help.WriteString(cmd.Long)
		help.WriteString("\n\n")
	}

	help.WriteString(sectionTitleColor.Sprint("Usage:"))
	help.WriteString("\n")
	fmt.Fprintf(&help, "  %s [flags]\n\n", cmd.CommandPath())

	if cmd.Example != "" {
		help.WriteString(sectionTitleColor.Sprint("Examples:"))
		help.WriteString("\n")
		help.WriteString(cmd.Example)
		help.WriteString("\n\n")
	}

	if cmd.HasAvailableLocalFlags() {
		help.WriteString(sectionTitleColor.Sprint("Flags:"))
		help.WriteString("\n")
		help.WriteString(cmd.LocalFlags().FlagUsages())
		help.WriteString("\n")
	}

	help.WriteString("Every action except --help, --version and --show-config must run as root.\n")

	fmt.Fprint(cmd.OutOrStdout(), help.String())
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/panelock/internal/catalog"
	"github.com/danieljhkim/panelock/internal/config"
	"github.com/danieljhkim/panelock/internal/engine"
	"github.com/danieljhkim/panelock/internal/logging"
)

// run dispatches the selected action.
func run(cmd *cobra.Command, opts *rootOptions, args []string) error {
	logger := logging.GetLogger("cli")
	logging.LogCommand(logger, cmd.CommandPath(), args)

	switch opts.action {
	case "":
		return cmd.Help()
	case flagLock, flagUnlock:
		ids := opts.lock.ids
		if opts.action == flagUnlock {
			ids = opts.unlock.ids
		}
		if len(args) > 0 || len(ids) == 0 {
			_, _ = fmt.Fprint(cmd.ErrOrStderr(), usageSyntax)
			return fmt.Errorf("%w: --%s takes exactly one comma-separated list of bundle identifiers", engine.ErrArgument, opts.action)
		}
	default:
		if len(args) > 0 {
			logger.Warn().Strs("args", args).Msg("Ignoring extra arguments")
		}
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.action == flagShowConfig {
		return showConfig(cfg)
	}

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	if err := eng.RequireAdmin(); err != nil {
		return err
	}
	_, _ = logging.EnableFileLog()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch opts.action {
	case flagList:
		return runList(ctx, eng, opts.output)
	case flagLocked:
		return runLocked(ctx, eng, opts.output)
	case flagLock:
		return runLock(ctx, eng, opts.output, opts.lock.ids)
	case flagUnlock:
		return runUnlock(ctx, eng, opts.output, opts.unlock.ids)
	case flagUnlockAll:
		return runUnlockAll(ctx, eng, opts.output)
	case flagRestore:
		return runRestore(ctx, eng, opts.output)
	default:
		return fmt.Errorf("unknown action: %s", opts.action)
	}
}

func showConfig(cfg *config.Config) error {
	doc, err := cfg.TOML()
	if err != nil {
		return err
	}
	if cfg.Source != "" {
		PrintInfo(fmt.Sprintf("# loaded from %s", cfg.Source))
	} else {
		PrintInfo("# built-in defaults")
	}
	_, _ = fmt.Fprint(out, doc)
	return nil
}

func runList(ctx context.Context, eng *engine.Engine, format string) error {
	result, err := eng.List(ctx)
	if err != nil {
		return err
	}

	return render(format, result, func() {
		PrintSection("System Panes")
		printEntries(result.System, "No system panes found")

		PrintSection("Third-Party Panes")
		printEntries(result.ThirdParty, "No third-party panes installed")
	})
}

func printEntries(entries []catalog.Entry, empty string) {
	if len(entries) == 0 {
		PrintEmptyState(empty)
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Name, e.Identifier})
	}
	PrintTable([]string{"Pane", "Bundle Identifier"}, rows)
}

func runLocked(ctx context.Context, eng *engine.Engine, format string) error {
	result, err := eng.Locked(ctx)
	if err != nil {
		return err
	}

	return render(format, result, func() {
		PrintSection("Locked Preference Panes")
		PrintList(result.Locked, 1)
	})
}

func runLock(ctx context.Context, eng *engine.Engine, format string, ids []string) error {
	result, err := eng.Lock(ctx, &engine.LockRequest{Identifiers: ids})
	if err != nil {
		return err
	}

	return render(format, result, func() {
		for _, problem := range result.Problems() {
			PrintWarning(fmt.Sprintf("%v, skipping", problem))
		}
		for _, id := range result.AlreadyLocked {
			PrintInfo(fmt.Sprintf("%s is already locked, skipping", id))
		}
		for _, id := range result.Locked {
			PrintSuccess(fmt.Sprintf("Locked %s", id))
		}
		PrintInfo(fmt.Sprintf("%s now locked", PrintCount(len(result.Disabled), "pane", "panes")))
	})
}

func runUnlock(ctx context.Context, eng *engine.Engine, format string, ids []string) error {
	result, err := eng.Unlock(ctx, &engine.UnlockRequest{Identifiers: ids})
	if err != nil {
		return err
	}

	return render(format, result, func() {
		for _, problem := range result.Problems() {
			PrintWarning(fmt.Sprintf("%v, skipping", problem))
		}
		for _, id := range result.NotLocked {
			PrintInfo(fmt.Sprintf("%s is not locked, skipping", id))
		}
		for _, id := range result.Unlocked {
			PrintSuccess(fmt.Sprintf("Unlocked %s", id))
		}
		PrintInfo(fmt.Sprintf("%s still locked", PrintCount(len(result.Disabled), "pane", "panes")))
	})
}

func runUnlockAll(ctx context.Context, eng *engine.Engine, format string) error {
	result, err := eng.UnlockAll(ctx)
	if err != nil {
		return err
	}

	return render(format, result, func() {
		if result.Overwrote {
			PrintWarning(fmt.Sprintf("Replaced the previous restore file at '%s'", result.SnapshotPath))
		}
		PrintSuccess(fmt.Sprintf("All preference panes unlocked! Restore file is saved at '%s'. Use --restore to restore all previous locks.", result.SnapshotPath))
	})
}

func runRestore(ctx context.Context, eng *engine.Engine, format string) error {
	result, err := eng.Restore(ctx)
	if err != nil {
		return err
	}

	return render(format, result, func() {
		PrintSuccess(fmt.Sprintf("Preference pane locks restored from '%s'. Restore file has been deleted.", result.SnapshotPath))
		PrintList(result.Restored, 1)
	})
}

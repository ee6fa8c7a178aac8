package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gophervrp/bbcore/bbt"
	"github.com/gophervrp/bbcore/config"
	"github.com/gophervrp/bbcore/mlplugin"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root, exit := rootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}
	os.Exit(*exit)
}

// rootCommand builds the vrpsolve command tree: solve runs the search to
// completion or the time limit, tree renders the explored search tree from
// a completed run's checkpoint trail. The returned int pointer carries the
// process exit code out of whichever subcommand ran, since cobra itself has
// no notion of one.
func rootCommand() (*cobra.Command, *int) {
	exit := 0
	var opts runOptions
	var timeLimitSeconds int
	var modeFlag, mlFlag string
	var verbose bool

	root := &cobra.Command{
		Use:   "vrpsolve",
		Short: "Branch-and-bound search over a set-partitioning relaxation for CVRP/VRPTW",
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().IntVar(&timeLimitSeconds, "time-limit", 300, "search time limit in seconds")
	root.PersistentFlags().StringVar(&modeFlag, "mode", "cvrp", "problem family: cvrp or vrptw")
	root.PersistentFlags().StringVar(&mlFlag, "ml", "no-use", "ML plug-in mode: no-use, get-data-1, get-data-2, use-model")
	root.PersistentFlags().StringVar(&opts.dumpOut, "dump-out", "", "directory to write checkpoints to")
	root.PersistentFlags().StringVar(&opts.dumpIn, "dump-in", "", "directory (or run) to resume checkpoints from")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "TOML config file; flags override its values")
	root.PersistentFlags().StringVar(&opts.redisAddr, "redis-addr", "", "Redis address for checkpoint storage, in place of --dump-out/--dump-in")
	root.PersistentFlags().Float64Var(&opts.enumGap, "enum-gap", 0, "relative optimality gap at or below which a node switches to enumeration state (0 disables)")

	logger := log.New(os.Stderr)

	// A config file supplies defaults; any flag the user actually typed on
	// the command line overrides the corresponding config value.
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}

		opts.timeLimit = time.Duration(timeLimitSeconds) * time.Second
		opts.mode = config.Mode(modeFlag)
		mlMode, err := parseMLMode(mlFlag)
		if err != nil {
			return err
		}
		opts.mlMode = mlMode

		if opts.configPath == "" {
			return nil
		}
		cfg, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("time-limit") {
			opts.timeLimit = cfg.TimeLimit()
		}
		if !cmd.Flags().Changed("mode") {
			opts.mode = cfg.Mode
		}
		if !cmd.Flags().Changed("ml") {
			opts.mlMode = mlModeFromConfig(cfg.MLMode)
		}
		opts.phaseCounts = cfg.PhaseCounts
		opts.bkf = cfg.BKF
		if !cmd.Flags().Changed("enum-gap") {
			opts.enumGap = cfg.EnumGap
		}
		return nil
	}

	root.AddCommand(solveCommand(&opts, logger, &exit))
	root.AddCommand(treeCommand(&opts, logger))
	return root, &exit
}

func parseMLMode(s string) (mlplugin.Mode, error) {
	switch config.MLMode(s) {
	case config.MLNoUse:
		return mlplugin.NoUse, nil
	case config.MLGetData1:
		return mlplugin.GetData1, nil
	case config.MLGetData2:
		return mlplugin.GetData2, nil
	case config.MLUseModel:
		return mlplugin.UseModel, nil
	default:
		return 0, fmt.Errorf("vrpsolve: unknown --ml value %q", s)
	}
}

func mlModeFromConfig(m config.MLMode) mlplugin.Mode {
	mode, err := parseMLMode(string(m))
	if err != nil {
		return mlplugin.NoUse
	}
	return mode
}

func solveCommand(opts *runOptions, logger *log.Logger, exit *int) *cobra.Command {
	return &cobra.Command{
		Use:   "solve <instance-path>",
		Short: "Run the branch-and-bound search to optimality, a time limit, or infeasibility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.instancePath = args[0]
			rc, err := buildController(*opts)
			if err != nil {
				*exit = exitCode(bbt.ExitUnknown, err)
				return err
			}
			reason, err := runSearch(cmd.Context(), rc, logger)
			*exit = exitCode(reason, err)
			return err
		},
	}
}

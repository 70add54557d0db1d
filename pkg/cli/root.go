package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harrisonrobin/grind/pkg/config"
	"github.com/harrisonrobin/grind/pkg/console"
	"github.com/harrisonrobin/grind/pkg/logging"
	"github.com/harrisonrobin/grind/pkg/tracker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	cmdStart  = "start"
	cmdStop   = "stop"
	cmdStatus = "status"
	cmdAuth   = "auth"
)

// Tracker is what the command line drives.
type Tracker interface {
	Start(taskID string) error
	Stop(ctx context.Context) error
	UpdateStatus(ctx context.Context, taskID, code, duration string)
}

// Env is everything a command needs once flags and config are resolved.
type Env struct {
	Config *config.Config
	Out    *console.Printer
	Logger *zap.Logger
}

type Options struct {
	Out        io.Writer
	NewTracker func(ctx context.Context, env *Env) (Tracker, error)
	Authorize  func(ctx context.Context, env *Env) error
}

type invocation struct {
	taskID  string
	command string
	status  string
}

// parseArgs mirrors "grind [task_id] command [status]".
func parseArgs(args []string) (invocation, error) {
	var inv invocation
	switch len(args) {
	case 1:
		inv.command = args[0]
	case 2:
		inv.taskID, inv.command = args[0], args[1]
	case 3:
		inv.taskID, inv.command, inv.status = args[0], args[1], args[2]
	default:
		return inv, fmt.Errorf("expected 1 to 3 arguments, got %d", len(args))
	}

	switch inv.command {
	case cmdStart, cmdStop, cmdStatus, cmdAuth:
		return inv, nil
	}
	return inv, fmt.Errorf("invalid command %q (choose from %s, %s, %s, %s)", inv.command, cmdStart, cmdStop, cmdStatus, cmdAuth)
}

func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.NewTracker == nil {
		opts.NewTracker = newTracker
	}
	if opts.Authorize == nil {
		opts.Authorize = authorize
	}

	var (
		verbose     bool
		configPath  string
		duration    string
		setCalendar string
	)

	cmd := &cobra.Command{
		Use:   "grind [task_id] {start,stop,status,auth} [status]",
		Short: "Track time spent on tasks",
		Long: `grind times work on a task and reports it to the task API.

  grind <task_id> start                 start the timer for a task
  grind stop                            stop the timer and report time spent
  grind <task_id> status <code> [-d D]  update status (` + strings.Join(tracker.StatusCodes(), ", ") + `)
  grind auth                            authorize Google Calendar session logging
  grind --set-calendar NAME             save the calendar sessions are recorded on`,
		Args:          cobra.RangeArgs(0, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if setCalendar != "" && len(args) == 0 {
				if err := config.Update(configPath, func(c *config.Config) { c.Calendar = setCalendar }); err != nil {
					return fmt.Errorf("failed to save config: %w", err)
				}
				console.NewPrinter(opts.Out).Success("Default calendar set to: %s", setCalendar)
				return nil
			}

			inv, err := parseArgs(args)
			if err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := logging.New(verbose)
			defer logger.Sync()

			env := &Env{Config: cfg, Out: console.NewPrinter(opts.Out), Logger: logger}
			return run(cmd.Context(), opts, env, inv, duration)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/grind/config.yaml)")
	cmd.Flags().StringVarP(&duration, "duration", "d", "", "Duration to show in the approval notification, e.g. 1h30m")
	cmd.Flags().StringVar(&setCalendar, "set-calendar", "", "Set the default Google Calendar name")
	return cmd
}

func run(ctx context.Context, opts Options, env *Env, inv invocation, duration string) error {
	if inv.command == cmdAuth {
		if err := opts.Authorize(ctx, env); err != nil {
			return err
		}
		env.Out.Success("Authentication successful.")
		return nil
	}

	switch {
	case inv.command == cmdStart && inv.taskID == "":
		env.Out.Failure("Please provide a task ID to start tracking.")
		return nil
	case inv.command == cmdStatus && (inv.taskID == "" || inv.status == ""):
		env.Out.Failure("Please provide a task ID and a status to update.")
		return nil
	}

	t, err := opts.NewTracker(ctx, env)
	if err != nil {
		return err
	}

	switch inv.command {
	case cmdStart:
		return t.Start(inv.taskID)
	case cmdStop:
		return t.Stop(ctx)
	default:
		t.UpdateStatus(ctx, inv.taskID, inv.status, duration)
		return nil
	}
}

// Execute runs grind with the process arguments.
func Execute(ctx context.Context, version string) error {
	cmd := NewRootCommand(Options{})
	cmd.Version = version
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

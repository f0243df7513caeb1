// Command coinvest is the terminal front end of the investment app. Every
// screen is available as a subcommand printing JSON on stdout; toasts and
// logs go to stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/coinvest/coinvest/internal/apiclient"
	"github.com/coinvest/coinvest/internal/app"
	"github.com/coinvest/coinvest/internal/config"
	"github.com/coinvest/coinvest/internal/forms"
	"github.com/coinvest/coinvest/internal/logging"
	"github.com/coinvest/coinvest/internal/mining"
	"github.com/coinvest/coinvest/internal/notification"
	"github.com/coinvest/coinvest/internal/screens"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	os.Exit(run(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	logger := logging.NewText(stderr, cfg.LogLevel)
	out := &printer{w: stdout}
	stack, err := app.New(ctx, cfg, logger, app.Options{
		Notifier:       notification.NewWriterNotifier(stderr),
		OnMiningUpdate: out.miningLine,
	})
	if err != nil {
		fmt.Fprintf(stderr, "start: %v\n", err)
		return 1
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logger.Warn("close app", "error", err)
		}
	}()

	err = cmd.run(ctx, &env{app: stack, out: out, stderr: stderr}, args[1:])
	return report(stderr, err)
}

func report(stderr io.Writer, err error) int {
	var formErr *forms.ValidationError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	case errors.As(err, &formErr):
		fmt.Fprintln(stderr, formErr.Error())
	case screens.IsAuthError(err):
		fmt.Fprintln(stderr, "not logged in: run `coinvest login`")
	case errors.Is(err, mining.ErrUnknownStatus):
		fmt.Fprintln(stderr, "unexpected response from server")
	case apiclient.KindOf(err) != "":
		// the client already printed the toast
	case errors.Is(err, context.Canceled):
		return 130
	default:
		fmt.Fprintln(stderr, err)
	}
	return 1
}

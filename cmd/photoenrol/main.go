// Command photoenrol enrols a photo with iProov under a freshly generated
// username and, with --delete-user, removes that user again.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	_ "golang.org/x/crypto/x509roots/fallback"

	"photoenrol/internal/enrol"
	"photoenrol/internal/iproov"
	"photoenrol/internal/platform/config"
	"photoenrol/internal/platform/logger"
	"photoenrol/internal/platform/metrics"
	"photoenrol/internal/platform/tracer"
	"photoenrol/pkg/domain"
	dErrors "photoenrol/pkg/domain-errors"
)

const appName = "photoenrol"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// app carries the flag values and the logger used to report the final error.
// The logger starts as a bootstrap logger and is replaced once config is loaded.
type app struct {
	out        io.Writer
	log        *slog.Logger
	deleteUser bool
	envFile    string
}

// execute runs the command line and returns the process exit code. It is the
// only place an error is reported.
func execute(ctx context.Context, args []string, out io.Writer) int {
	bootstrap, _ := logger.New("info", out)
	a := &app{out: out, log: bootstrap}

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	if err := root.ExecuteContext(ctx); err != nil {
		a.report(err)
		return 1
	}
	return 0
}

func (a *app) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Enrol a photo with iProov under a generated username",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context())
		},
	}
	a.bindFlags(cmd.Flags())

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, version)
		},
	})
	return cmd
}

func (a *app) bindFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&a.deleteUser, "delete-user", "d", false, "delete the enrolled user after a successful enrolment")
	fs.StringVar(&a.envFile, "env-file", config.DefaultEnvFile, "env file loaded before reading the environment; ignored when absent")
}

func (a *app) run(ctx context.Context) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}

	runID := domain.NewRunID()
	log, ok := logger.New(cfg.LogLevel, a.out)
	log = log.With("run_id", runID.String())
	a.log = log
	if !ok {
		log.Warn("unknown log level, using info", "log_level", cfg.LogLevel)
	}

	m := metrics.New()
	if cfg.MetricsTextfile != "" {
		defer func() {
			if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
				log.Warn("failed to write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
			}
		}()
	}
	t := tracer.NewOTel()

	client := iproov.NewClient(iproov.Config{
		BaseURL:       cfg.BaseURL,
		APIKey:        cfg.SPKey,
		Secret:        cfg.SPSecret,
		OAuthUsername: cfg.OAuthUsername,
		OAuthPassword: cfg.OAuthPassword,
		Resource:      cfg.Resource,
		UserAgent:     appName + "/" + version,
		RunID:         runID,
		Timeout:       cfg.HTTPTimeout,
		Logger:        log,
		Tracer:        t,
		Metrics:       m,
	})

	svc, err := enrol.New(client,
		enrol.Config{ImagePath: cfg.ImagePath, ImageSource: cfg.ImageSource},
		enrol.WithLogger(log),
		enrol.WithTracer(t),
		enrol.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	log.Debug("configuration loaded",
		"region", cfg.Region,
		"base_url", cfg.BaseURL,
		"image_path", cfg.ImagePath,
		"image_source", cfg.ImageSource,
	)

	result, err := svc.Run(ctx, enrol.RunOptions{DeleteUser: a.deleteUser})
	if err != nil {
		if result != nil {
			a.log = log.With("username", result.Username.String(), "enrolled", result.Enrolled)
		}
		return err
	}

	log.Info("photo enrolment complete",
		"username", result.Username.String(),
		"deleted", result.Deleted,
	)
	return nil
}

// report logs the run's error once, with the fields needed to tell which
// step failed and how.
func (a *app) report(err error) {
	attrs := []any{
		"error", err.Error(),
		"code", string(dErrors.CodeOf(err)),
	}
	var statusErr *iproov.StatusError
	if errors.As(err, &statusErr) {
		attrs = append(attrs,
			"step", statusErr.Step,
			"status", statusErr.StatusCode,
			"class", string(statusErr.Class),
			"body", statusErr.ErrorBody(),
		)
	}
	a.log.Error("photo enrolment failed", attrs...)
}

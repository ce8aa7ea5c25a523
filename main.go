package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/carlmjohnson/versioninfo"
	"github.com/df-mc/atomic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/getsentry/sentry-go"
	_ "github.com/joho/godotenv/autoload"
	"github.com/schollz/progressbar/v3"
	cli "github.com/urfave/cli/v2"

	"github.com/sneknetwork/snek/snek"
	"github.com/sneknetwork/snek/snek/command"
	"github.com/sneknetwork/snek/snek/infraction"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:    "snek",
		Usage:   "discord moderation service keeping infractions in sync with the site api",
		Version: versioninfo.Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the TOML config file, created with defaults if missing",
				Value:   snek.DefaultConfigPath,
				EnvVars: []string{"SNEK_CONFIG"},
			},
		},
	}

	app.Commands = []*cli.Command{
		serveCmd,
		pardonCmd,
		sweepCmd,
		historyCmd,
	}
	return app.Run(args)
}

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "run the moderation HTTP service and the expiry scheduler",
	Action: func(cctx *cli.Context) error {
		s, log, done, err := load(cctx)
		if err != nil {
			return err
		}
		defer done()

		ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err = s.Start(ctx); err != nil {
			return err
		}
		log.Info("Snek stopped")
		return nil
	},
}

var pardonCmd = &cli.Command{
	Name:      "pardon",
	Usage:     "pardon the active infraction of a user",
	ArgsUsage: "<type>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "guild", Usage: "id of the guild", Required: true},
		&cli.StringFlag{Name: "user", Usage: "id of the user to pardon", Required: true},
		&cli.StringFlag{Name: "actor", Usage: "id of the moderator pardoning", Required: true},
		&cli.StringFlag{Name: "reason", Usage: "reason shown to the user"},
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(cctx *cli.Context) error {
		kind, err := infraction.ParseKind(cctx.Args().First())
		if err != nil {
			return err
		}
		ids, err := parseIDs(cctx, "guild", "user", "actor")
		if err != nil {
			return err
		}
		if !cctx.Bool("yes") {
			ok := false
			prompt := &survey.Confirm{
				Message: fmt.Sprintf("Pardon the %s of %s in guild %s?", kind.Label(), ids[1], ids[0]),
				Default: false,
			}
			if err = survey.AskOne(prompt, &ok); err != nil {
				return fmt.Errorf("prompt failed: %w", err)
			}
			if !ok {
				return nil
			}
		}

		s, _, done, err := load(cctx)
		if err != nil {
			return err
		}
		defer done()

		reply, err := s.Moderation().Pardon(cctx.Context, kind, command.Request{
			Guild:  ids[0],
			Target: ids[1],
			Actor:  ids[2],
			Reason: cctx.String("reason"),
		})
		fmt.Println(reply.Message)
		return err
	},
}

var sweepCmd = &cli.Command{
	Name:  "sweep",
	Usage: "pardon every active infraction whose expiry has passed",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(cctx *cli.Context) error {
		s, log, done, err := load(cctx)
		if err != nil {
			return err
		}
		defer done()

		mod := s.Moderation()
		expired, err := mod.Expired(cctx.Context)
		if err != nil {
			return err
		}
		if len(expired) == 0 {
			fmt.Println("No expired infractions.")
			return nil
		}
		if !cctx.Bool("yes") {
			ok := false
			prompt := &survey.Confirm{
				Message: fmt.Sprintf("Pardon %d expired infractions?", len(expired)),
				Default: true,
			}
			if err = survey.AskOne(prompt, &ok); err != nil {
				return fmt.Errorf("prompt failed: %w", err)
			}
			if !ok {
				return nil
			}
		}

		bar := progressbar.Default(int64(len(expired)), "Pardoning expired infractions")
		var failed atomic.Int32
		mod.Sweep(cctx.Context, expired, func(rec infraction.Record, err error) {
			if err != nil {
				failed.Inc()
				log.Error("failed to pardon expired infraction", "infraction", rec.ID, "error", err)
			}
			_ = bar.Add(1)
		})
		if n := failed.Load(); n > 0 {
			return fmt.Errorf("%d of %d expired infractions could not be pardoned", n, len(expired))
		}
		return nil
	},
}

var historyCmd = &cli.Command{
	Name:  "history",
	Usage: "list the infractions of a user",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "guild", Usage: "id of the guild", Required: true},
		&cli.StringFlag{Name: "user", Usage: "id of the user", Required: true},
	},
	Action: func(cctx *cli.Context) error {
		ids, err := parseIDs(cctx, "guild", "user")
		if err != nil {
			return err
		}
		s, _, done, err := load(cctx)
		if err != nil {
			return err
		}
		defer done()

		records, err := s.Moderation().History(cctx.Context, ids[0], ids[1])
		if err != nil {
			return err
		}
		for _, r := range records {
			state := "inactive"
			if r.Active {
				state = "active"
			}
			expires := "permanent"
			if at, ok := r.Expiry.Time(); ok {
				expires = at.Format(time.RFC3339)
			}
			fmt.Printf("#%d\t%s\t%s\t%s\t%s\n", r.ID, r.Kind, state, expires, r.Reason)
		}
		return nil
	},
}

// load reads the config and builds the service. done flushes sentry and closes the service.
func load(cctx *cli.Context) (*snek.Snek, *slog.Logger, func(), error) {
	conf, err := snek.ReadConfig(cctx.String("config"))
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := snek.NewLogger(os.Stderr, conf)
	if err != nil {
		return nil, nil, nil, err
	}
	slog.SetDefault(log)

	if conf.Snek.SentryDsn != "" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn:              conf.Snek.SentryDsn,
			Environment:      conf.Snek.Environment,
			Release:          versioninfo.Short(),
			AttachStacktrace: true,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("sentry: %w", err)
		}
	}

	s, err := snek.NewSnek(log, conf)
	if err != nil {
		sentry.Flush(5 * time.Second)
		return nil, nil, nil, err
	}
	return s, log, func() {
		s.Close()
		sentry.Flush(5 * time.Second)
	}, nil
}

// parseIDs parses the snowflake flags names, in order.
func parseIDs(cctx *cli.Context, names ...string) ([]snowflake.ID, error) {
	ids := make([]snowflake.ID, len(names))
	for i, name := range names {
		id, err := snowflake.Parse(cctx.String(name))
		if err != nil {
			return nil, fmt.Errorf("invalid --%s: %w", name, err)
		}
		ids[i] = id
	}
	return ids, nil
}

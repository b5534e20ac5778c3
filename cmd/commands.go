package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tbg-racing/rankingsaver/internal/adapters/chat"
	"github.com/tbg-racing/rankingsaver/internal/adapters/export"
	"github.com/tbg-racing/rankingsaver/internal/adapters/mq/queue"
	"github.com/tbg-racing/rankingsaver/internal/adapters/mq/worker"
	"github.com/tbg-racing/rankingsaver/internal/adapters/repository"
	service "github.com/tbg-racing/rankingsaver/internal/app"
	"github.com/tbg-racing/rankingsaver/internal/domain/model"
	"github.com/tbg-racing/rankingsaver/internal/domain/ranking"
	"github.com/tbg-racing/rankingsaver/internal/domain/types"
	"github.com/tbg-racing/rankingsaver/internal/testevents"
	"github.com/tbg-racing/rankingsaver/pkg/logger"
	"github.com/tbg-racing/rankingsaver/pkg/metrics"
	"github.com/urfave/cli/v2"
)

const (
	dayLayout     = "2006-01-02"
	maxEventLine  = 1 << 20
	drainDeadline = 30 * time.Second

	enqueueBackoff = 10 * time.Millisecond
)

// ErrDispatch reports that some replayed events could not be handled.
var ErrDispatch = errors.New("events failed")

func rankCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "rank",
		Usage:     "rank a JSON array of host players and print the result",
		ArgsUsage: "FILE|-",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "track", Usage: "map name, formatting codes allowed"},
			&cli.BoolFlag{Name: "save", Usage: "append the result to today's file"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			in, closeIn, err := openInput(c.Args().First())
			if err != nil {
				return err
			}
			defer closeIn()

			var players []model.HostPlayer
			if err := json.NewDecoder(in).Decode(&players); err != nil {
				return fmt.Errorf("decode players: %w", err)
			}
			participants, err := model.Participants(players)
			if err != nil {
				metrics.RecordValidationError()
				return err
			}

			round := ranking.Rank(participants, c.String("track"), time.Now().UTC().Format(types.TimestampLayout))
			metrics.RecordRoundRanked(len(participants), round.Finishers())

			enc := json.NewEncoder(e.out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(round); err != nil {
				return err
			}

			if c.Bool("save") {
				store := e.store()
				if err := store.EnsureDir(ctx); err != nil {
					return err
				}
				if err := store.Append(ctx, round); err != nil {
					return err
				}
				e.logger.Info(ctx, "round saved", logger.String("track", round.TrackName))
			}
			return e.flushMetrics()
		},
	}
}

func replayCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "feed JSON-lines host events through the tracker",
		ArgsUsage: "FILE|-",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "restart-delay", Usage: "override restart_delay", Value: -1},
			&cli.BoolFlag{Name: "quiet", Usage: "print a summary instead of chat lines"},
		},
		Action: func(c *cli.Context) error {
			in, closeIn, err := openInput(c.Args().First())
			if err != nil {
				return err
			}
			defer closeIn()

			events, err := readEvents(in)
			if err != nil {
				return err
			}
			_, err = e.replay(c.Context, events, c.Duration("restart-delay"), c.Bool("quiet"), nil)
			return err
		},
	}
}

func simulateCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "generate a synthetic session and replay it",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "rounds", Usage: "maps in the session", Value: testevents.DefaultMaps},
			&cli.IntFlag{Name: "racers", Usage: "racers on the server", Value: testevents.DefaultPlayers},
			&cli.Float64Flag{Name: "no-time", Usage: "share of racers without a time", Value: testevents.DefaultNoTimeRatio},
			&cli.Float64Flag{Name: "ties", Usage: "share of finishers tying the previous time", Value: testevents.DefaultTieRatio},
			&cli.Uint64Flag{Name: "seed", Usage: "generator seed, 0 for random"},
			&cli.StringFlag{Name: "write", Usage: "write the events to FILE instead of replaying them"},
			&cli.BoolFlag{Name: "quiet", Usage: "print a summary instead of chat lines"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			gen := testevents.Config{
				Maps:        c.Int("rounds"),
				Players:     c.Int("racers"),
				NoTimeRatio: c.Float64("no-time"),
				TieRatio:    c.Float64("ties"),
				Seed:        c.Uint64("seed"),
				Section:     e.cfg.EndSection,
			}

			if path := c.String("write"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				_, err = testevents.Run(ctx, gen, f)
				if cerr := f.Close(); err == nil {
					err = cerr
				}
				return err
			}

			events, _, err := testevents.Generate(ctx, gen)
			if err != nil {
				return err
			}
			var inconsistent []error
			verify := func(round types.RoundResult) {
				if err := testevents.Verify(round); err != nil {
					inconsistent = append(inconsistent, err)
				}
			}
			if _, err := e.replay(ctx, events, 0, c.Bool("quiet"), verify); err != nil {
				return err
			}
			return errors.Join(inconsistent...)
		},
	}
}

func showCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "print a day's rounds and winners",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "day", Usage: "UTC day as YYYY-MM-DD (default today)"},
			&cli.BoolFlag{Name: "list", Usage: "list the days that have results"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			store := e.store()

			if c.Bool("list") {
				days, err := store.Days(ctx)
				if err != nil {
					return err
				}
				for _, d := range days {
					_, _ = fmt.Fprintln(e.out, d.Format(dayLayout))
				}
				return nil
			}

			day, err := parseDay(c.String("day"))
			if err != nil {
				return err
			}
			results, err := store.Load(ctx, day)
			if err != nil {
				return err
			}
			printDay(e.out, day, results)
			return nil
		},
	}
}

func exportCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write a day's rounds to an XLSX workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "day", Usage: "UTC day as YYYY-MM-DD (default today)"},
			&cli.StringFlag{Name: "out", Usage: "output file (default matchresults_DAY.xlsx)"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			day, err := parseDay(c.String("day"))
			if err != nil {
				return err
			}
			results, err := e.store().Load(ctx, day)
			if err != nil {
				return err
			}

			path := c.String("out")
			if path == "" {
				path = "matchresults_" + day.Format(dayLayout) + ".xlsx"
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := export.WriteXLSX(f, results); err != nil {
				_ = f.Close()
				_ = os.Remove(path)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			e.logger.Info(ctx, "day exported",
				logger.String("day", day.Format(dayLayout)),
				logger.Int("rounds", len(results.RoundResults)),
				logger.String("path", path),
			)
			return nil
		},
	}
}

func (e *env) store() *repository.FileStore {
	return repository.NewFileStore(e.cfg.ResultsDir, repository.WithLogger(e.logger.Named("store")))
}

func (e *env) flushMetrics() error {
	if e.cfg.MetricsTextfile == "" {
		return nil
	}
	return metrics.WriteTextfile(e.cfg.MetricsTextfile)
}

// replay pushes events through queue, dispatcher and tracker, in order.
// A negative restartDelay keeps the configured one.
func (e *env) replay(ctx context.Context, events []queue.HostEvent, restartDelay time.Duration, quiet bool, onRound func(types.RoundResult)) ([]types.RoundResult, error) {
	if restartDelay < 0 {
		restartDelay = e.cfg.RestartDelay
	}

	recorder := &chat.Recorder{}
	var sink chat.Sink = recorder
	if !quiet {
		sink = chat.Multi{recorder, chat.NewWriterSink(e.out)}
	}

	host := newConsoleHost(e.logger)
	tracker := service.New(host, e.store(),
		service.WithLogger(e.logger.Named("tracker")),
		service.WithChat(sink),
		service.WithRestartDelay(restartDelay),
		service.WithPrefix(e.cfg.ChatPrefix),
		service.WithCongrats(e.cfg.CongratsMessages),
		service.WithEndSection(e.cfg.EndSection),
		service.WithMetricsTextfile(e.cfg.MetricsTextfile),
	)

	q := queue.NewInMemoryQueue(queue.WithCapacity(e.cfg.EventQueueSize))
	var (
		rounds []types.RoundResult
		failed []error
	)
	d := worker.NewDispatcher(q, tracker,
		worker.WithLogger(e.logger),
		worker.WithMapSetter(host),
		worker.WithErrorHandler(func(ev queue.HostEvent, err error) {
			failed = append(failed, fmt.Errorf("%s: %w", ev.Type, err))
		}),
		worker.WithRoundHandler(func(round types.RoundResult) {
			rounds = append(rounds, round)
			if onRound != nil {
				onRound(round)
			}
		}),
	)
	d.Start(ctx)

	for _, ev := range events {
		if err := enqueueWait(ctx, q, ev); err != nil {
			_ = q.Close()
			// The dispatcher may still be appending; hand nothing back.
			return nil, err
		}
	}
	_ = q.Close()

	waitCtx, cancel := context.WithTimeout(ctx, drainDeadline+time.Duration(len(events))*restartDelay)
	defer cancel()
	if err := d.Wait(waitCtx); err != nil {
		return nil, err
	}

	if quiet {
		_, _ = fmt.Fprintf(e.out, "%d events, %d rounds, %d chat lines, %d map restarts, final state %s\n",
			len(events), len(rounds), len(recorder.Messages()), host.Restarts(), tracker.State())
	}
	if len(failed) > 0 {
		return rounds, fmt.Errorf("%w: %d of %d: %w", ErrDispatch, len(failed), len(events), errors.Join(failed...))
	}
	return rounds, nil
}

// enqueueWait retries while the queue is full; the dispatcher is draining it.
func enqueueWait(ctx context.Context, q queue.Queue, ev queue.HostEvent) error {
	for {
		err := q.Enqueue(ctx, ev)
		if !errors.Is(err, queue.ErrQueueFull) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(enqueueBackoff):
		}
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// readEvents parses JSON lines; blank lines are skipped.
func readEvents(r io.Reader) ([]queue.HostEvent, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventLine)

	var events []queue.HostEvent
	for n := 1; sc.Scan(); n++ {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := queue.ParseHostEvent(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	day, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad --day %q: %w", s, err)
	}
	return day, nil
}

func printDay(w io.Writer, day time.Time, results types.DayResults) {
	_, _ = fmt.Fprintf(w, "%s: %d rounds\n", day.Format(dayLayout), len(results.RoundResults))
	for _, round := range results.RoundResults {
		line := fmt.Sprintf("  %s  %s  %d racers", round.RacedAtUtc, round.TrackName, len(round.RacerResults))
		if winner, ok := ranking.Winner(round); ok {
			line += fmt.Sprintf("  winner %s (%s)", winner.Nick, winner.BestTime)
		} else {
			line += "  no finishers"
		}
		_, _ = fmt.Fprintln(w, line)
	}
}


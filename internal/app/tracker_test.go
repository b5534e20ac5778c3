package service_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tbg-racing/rankingsaver/internal/adapters/chat"
	"github.com/tbg-racing/rankingsaver/internal/adapters/repository"
	service "github.com/tbg-racing/rankingsaver/internal/app"
	"github.com/tbg-racing/rankingsaver/internal/domain/model"
	"github.com/tbg-racing/rankingsaver/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeHost struct {
	mu         sync.Mutex
	mapName    string
	restarts   int
	restartErr error
}

func (h *fakeHost) CurrentMapName(context.Context) string { return h.mapName }

func (h *fakeHost) RestartMap(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.restarts++
	return h.restartErr
}

type failingStore struct {
	repository.Store
	err error
}

func (s failingStore) EnsureDir(context.Context) error { return nil }

func (s failingStore) Append(context.Context, types.RoundResult) error { return s.err }

func ms(v int64) *int64 { return &v }

func player(name string, t int64) model.HostPlayer {
	return model.HostPlayer{Nickname: name, BestRaceTime: ms(t)}
}

var raceDay = time.Date(2025, 3, 30, 21, 52, 51, 961133000, time.UTC)

func newTracker(host service.Host, store repository.Store, rec *chat.Recorder) *service.Tracker {
	return service.New(host, store,
		service.WithChat(rec),
		service.WithRestartDelay(0),
		service.WithClock(func() time.Time { return raceDay }),
		service.WithRandom(rand.New(rand.NewPCG(1, 2))),
	)
}

func TestTrackerStateMachine(t *testing.T) {
	Convey("Given an idle tracker", t, func() {
		ctx := context.Background()
		host := &fakeHost{mapName: "$o$f00Training - 01"}
		rec := &chat.Recorder{}
		store := repository.NewFileStore(filepath.Join(t.TempDir(), "matchresults"))
		tracker := newTracker(host, store, rec)

		So(tracker.State(), ShouldEqual, service.Idle)

		Convey("When stop is issued while idle", func() {
			tracker.Stop(ctx)

			Convey("Then nothing changes and nothing is said", func() {
				So(tracker.State(), ShouldEqual, service.Idle)
				So(rec.Messages(), ShouldBeEmpty)
			})
		})

		Convey("When a map ends while idle", func() {
			tracker.MapEnd(ctx)

			Convey("Then nothing changes", func() {
				So(tracker.State(), ShouldEqual, service.Idle)
				So(rec.Messages(), ShouldBeEmpty)
			})
		})

		Convey("When tracking is started", func() {
			err := tracker.Start(ctx)

			Convey("Then the tracker is tracking and the map was restarted", func() {
				So(err, ShouldBeNil)
				So(tracker.State(), ShouldEqual, service.Tracking)
				So(host.restarts, ShouldEqual, 1)
				So(rec.Last(), ShouldContainSubstring, "tracking will begin after map resets")
			})

			Convey("And a map ends without a stop", func() {
				tracker.MapEnd(ctx)

				Convey("Then tracking continues", func() {
					So(tracker.State(), ShouldEqual, service.Tracking)
				})
			})

			Convey("And stop is issued", func() {
				tracker.Stop(ctx)

				Convey("Then the tracker waits for the map to end", func() {
					So(tracker.State(), ShouldEqual, service.Stopping)
					So(rec.Last(), ShouldContainSubstring, "end at the conclusion of this map")
				})

				Convey("And stop is issued again", func() {
					count := len(rec.Messages())
					tracker.Stop(ctx)

					Convey("Then it is ignored", func() {
						So(tracker.State(), ShouldEqual, service.Stopping)
						So(rec.Messages(), ShouldHaveLength, count)
					})
				})

				Convey("And the map ends", func() {
					tracker.MapEnd(ctx)

					Convey("Then tracking concludes", func() {
						So(tracker.State(), ShouldEqual, service.Idle)
						So(rec.Last(), ShouldContainSubstring, "Tournament tracking concluded")
					})
				})

				Convey("And start is issued before the map ends", func() {
					So(tracker.Start(ctx), ShouldBeNil)

					Convey("Then tracking resumes", func() {
						So(tracker.State(), ShouldEqual, service.Tracking)
						So(host.restarts, ShouldEqual, 2)
					})
				})
			})
		})

		Convey("When the host cannot restart the map", func() {
			host.restartErr = errors.New("gbx down")
			err := tracker.Start(ctx)

			Convey("Then the error is returned but tracking is on", func() {
				So(errors.Is(err, service.ErrRestartMap), ShouldBeTrue)
				So(tracker.State(), ShouldEqual, service.Tracking)
			})
		})

		Convey("When start is cancelled during the restart delay", func() {
			slow := service.New(host, store, service.WithChat(rec), service.WithRestartDelay(time.Hour))
			cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			err := slow.Start(cctx)

			Convey("Then the map is not restarted", func() {
				So(errors.Is(err, service.ErrRestartMap), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(host.restarts, ShouldEqual, 0)
			})
		})
	})
}

func TestTrackerCommands(t *testing.T) {
	Convey("Given a tracker receiving chat commands", t, func() {
		ctx := context.Background()
		host := &fakeHost{mapName: "A"}
		rec := &chat.Recorder{}
		tracker := newTracker(host, repository.NewFileStore(t.TempDir()), rec)

		Convey("When the start aliases are used", func() {
			for _, cmd := range []string{"start", "//mstart", "tbg start", "/tbg START"} {
				So(tracker.HandleCommand(ctx, cmd), ShouldBeNil)
			}

			Convey("Then each one starts tracking", func() {
				So(host.restarts, ShouldEqual, 4)
				So(tracker.State(), ShouldEqual, service.Tracking)
			})
		})

		Convey("When the stop alias is used while tracking", func() {
			So(tracker.HandleCommand(ctx, "start"), ShouldBeNil)
			So(tracker.HandleCommand(ctx, "mstop"), ShouldBeNil)

			Convey("Then tracking is stopping", func() {
				So(tracker.State(), ShouldEqual, service.Stopping)
			})
		})

		Convey("When an unknown command arrives", func() {
			Convey("Then it is rejected", func() {
				for _, cmd := range []string{"", "restart", "other start", "tbg start now"} {
					So(errors.Is(tracker.HandleCommand(ctx, cmd), service.ErrUnknownCommand), ShouldBeTrue)
				}
				So(tracker.State(), ShouldEqual, service.Idle)
			})
		})
	})
}

func TestTrackerScores(t *testing.T) {
	Convey("Given a tracker and a finished map", t, func() {
		ctx := context.Background()
		host := &fakeHost{mapName: "$o$f00Training$z - 01"}
		rec := &chat.Recorder{}
		dir := filepath.Join(t.TempDir(), "matchresults")
		store := repository.NewFileStore(dir, repository.WithClock(func() time.Time { return raceDay }))
		tracker := newTracker(host, store, rec)

		players := []model.HostPlayer{
			player("Racer3", 100003),
			player("$f00Racer1", 100000),
			player("Racer4", -1),
			player("Racer2", 100000),
			player("Racer5", 0),
		}

		Convey("When scores arrive while idle", func() {
			_, ranked, err := tracker.Scores(ctx, "EndMap", players, nil)

			Convey("Then they are ignored", func() {
				So(err, ShouldBeNil)
				So(ranked, ShouldBeFalse)
				So(rec.Messages(), ShouldBeEmpty)
			})
		})

		Convey("When tracking", func() {
			So(tracker.Start(ctx), ShouldBeNil)

			Convey("And scores arrive for another section", func() {
				_, ranked, err := tracker.Scores(ctx, "EndRound", players, nil)

				Convey("Then they are ignored", func() {
					So(err, ShouldBeNil)
					So(ranked, ShouldBeFalse)
				})
			})

			Convey("And the end-of-map scores arrive", func() {
				round, ranked, err := tracker.Scores(ctx, "EndMap", players, []model.HostTeam{{Name: "Blue"}})

				Convey("Then the map is ranked with clean names", func() {
					So(err, ShouldBeNil)
					So(ranked, ShouldBeTrue)
					So(round.TrackName, ShouldEqual, "Training - 01")
					So(round.RacedAtUtc, ShouldEqual, "2025-03-30T21:52:51.961133")
					So(round.RacerResults, ShouldResemble, []types.RankedResult{
						{Nick: "Racer1", Rank: 1, BestTime: "0:1:40.0"},
						{Nick: "Racer2", Rank: 1, BestTime: "0:1:40.0"},
						{Nick: "Racer3", Rank: 3, BestTime: "0:1:40.3000"},
						{Nick: "Racer4", Rank: 4},
						{Nick: "Racer5", Rank: 5},
					})
				})

				Convey("Then the winner is congratulated and the save confirmed", func() {
					msgs := rec.Messages()
					So(len(msgs), ShouldBeGreaterThanOrEqualTo, 3)
					congrats := msgs[len(msgs)-2]
					So(congrats, ShouldStartWith, service.DefaultPrefix+"Congratulations to $zRacer1$fff! $i")
					matched := false
					for _, line := range service.DefaultCongrats {
						if strings.Contains(congrats, line) {
							matched = true
						}
					}
					So(matched, ShouldBeTrue)
					So(rec.Last(), ShouldEqual, service.DefaultPrefix+"Map scores saved successfully.$z")
				})

				Convey("Then the round is in today's file", func() {
					day, loadErr := store.Load(ctx, raceDay)
					So(loadErr, ShouldBeNil)
					So(day.RoundResults, ShouldHaveLength, 1)
					So(day.RoundResults[0], ShouldResemble, round)
				})
			})

			Convey("And nobody finished the map", func() {
				_, ranked, err := tracker.Scores(ctx, "EndMap", []model.HostPlayer{player("a", -1), player("b", 0)}, nil)

				Convey("Then the lack of a winner is announced", func() {
					So(err, ShouldBeNil)
					So(ranked, ShouldBeTrue)
					msgs := rec.Messages()
					So(msgs[len(msgs)-2], ShouldContainSubstring, "nobody completed the map")
				})
			})

			Convey("And a player has no time field", func() {
				bad := append([]model.HostPlayer{}, players...)
				bad = append(bad, model.HostPlayer{Nickname: "ghost"})
				_, ranked, err := tracker.Scores(ctx, "EndMap", bad, nil)

				Convey("Then a validation error is returned and nothing is saved", func() {
					So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
					So(ranked, ShouldBeFalse)
					day, _ := store.Load(ctx, raceDay)
					So(day.RoundResults, ShouldBeEmpty)
				})
			})

			Convey("And stop was requested before the map ended", func() {
				tracker.Stop(ctx)
				_, ranked, err := tracker.Scores(ctx, "EndMap", players, nil)

				Convey("Then the final map is still recorded", func() {
					So(err, ShouldBeNil)
					So(ranked, ShouldBeTrue)
				})
			})
		})
	})
}

func TestTrackerSaveFailure(t *testing.T) {
	Convey("Given a tracker whose store cannot write", t, func() {
		ctx := context.Background()
		rec := &chat.Recorder{}
		storeErr := errors.New("disk full")
		tracker := newTracker(&fakeHost{mapName: "A"}, failingStore{err: storeErr}, rec)
		So(tracker.Start(ctx), ShouldBeNil)

		Convey("When the end-of-map scores arrive", func() {
			round, ranked, err := tracker.Scores(ctx, "EndMap", []model.HostPlayer{player("a", 1000)}, nil)

			Convey("Then the failure is announced and returned", func() {
				So(errors.Is(err, storeErr), ShouldBeTrue)
				So(ranked, ShouldBeTrue)
				So(round.RacerResults, ShouldHaveLength, 1)
				So(rec.Last(), ShouldContainSubstring, "An error occurred saving the match results")
			})

			Convey("Then tracking stays on", func() {
				So(tracker.State(), ShouldEqual, service.Tracking)
			})
		})
	})
}

func TestTrackerOptions(t *testing.T) {
	Convey("Given a tracker with a custom prefix, congrats and end section", t, func() {
		ctx := context.Background()
		rec := &chat.Recorder{}
		tracker := service.New(&fakeHost{mapName: "A"}, repository.NewFileStore(t.TempDir()),
			service.WithChat(rec),
			service.WithRestartDelay(0),
			service.WithPrefix("[tbg] "),
			service.WithCongrats([]string{"Nice."}),
			service.WithEndSection("EndMatch"),
			service.WithMetricsTextfile(filepath.Join(t.TempDir(), "rankingsaver.prom")),
		)
		So(tracker.Start(ctx), ShouldBeNil)

		Convey("When the custom end section arrives", func() {
			_, ranked, err := tracker.Scores(ctx, "EndMatch", []model.HostPlayer{player("a", 1000)}, nil)

			Convey("Then the map is ranked and announced with the custom texts", func() {
				So(err, ShouldBeNil)
				So(ranked, ShouldBeTrue)
				msgs := rec.Messages()
				So(msgs[len(msgs)-2], ShouldEqual, "[tbg] Congratulations to $za$fff! $iNice.$z")
			})
		})

		Convey("When the default end section arrives", func() {
			_, ranked, _ := tracker.Scores(ctx, "EndMap", []model.HostPlayer{player("a", 1000)}, nil)

			Convey("Then it is ignored", func() {
				So(ranked, ShouldBeFalse)
			})
		})
	})
}

func TestStateString(t *testing.T) {
	Convey("Given tracking states", t, func() {
		So(service.Idle.String(), ShouldEqual, "idle")
		So(service.Tracking.String(), ShouldEqual, "tracking")
		So(service.Stopping.String(), ShouldEqual, "stopping")
		So(service.State(9).String(), ShouldEqual, "unknown")
		So(service.Idle.Recording(), ShouldBeFalse)
		So(service.Stopping.Recording(), ShouldBeTrue)
	})
}

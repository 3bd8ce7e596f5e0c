// Command boardctl is a terminal client for the schedule board: it signs in,
// pulls and edits the board, and can follow it live.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/board"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/client"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/events"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/planner"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/session"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/syncer"
	"github.com/antenickawest-png/Scheduling-Board-v5/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const usage = `usage: boardctl [-config file] <command> [args]

commands:
  pull                          print the current board as JSON
  add-site <name>               append a site column
  move <resource-id> <target> [column]
                                place a resource; target is board, permanent-<key> or location-<key>
  clear                         remove every site column
  snapshot [name]               save the current board as a schedule
  watch                         follow the board with auto-sync and live updates
`

// app is a signed-in client stack
type app struct {
	api     *client.Client
	gate    *session.Gate
	bus     *events.Bus
	engine  *syncer.Engine
	planner *planner.Planner
	log     zerolog.Logger
}

func main() {
	configPath := flag.String("config", "", "path to boardctl.yaml")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(viper.New(), *configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "boardctl:", err)
		os.Exit(1)
	}
	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel, true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := connect(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "boardctl:", err)
		os.Exit(1)
	}

	err = a.run(ctx, flag.Arg(0), flag.Args()[1:])
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "boardctl:", err)
		os.Exit(1)
	}
}

func connect(ctx context.Context, cfg *cliConfig, log zerolog.Logger) (*app, error) {
	a := &app{log: log, bus: events.NewBus()}
	a.api = client.New(cfg.ServerURL, client.WithTokenSource(func() string { return a.gate.AccessToken() }))
	a.gate = session.NewGate(a.api, log)
	a.engine = syncer.New(a.api, a.gate, a.bus, cfg.SyncInterval, log)
	a.planner = planner.New(a.gate, a.engine, a.api, a.bus, log)

	if err := a.gate.SignIn(ctx, cfg.Email, cfg.Password); err != nil {
		return nil, err
	}
	if err := a.engine.PullBoard(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	a.planner.Close()
	a.engine.Close()
	a.gate.SignOut(context.Background())
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "pull":
		return printJSON(a.planner.Board())
	case "add-site":
		if len(args) != 1 {
			return fmt.Errorf("add-site needs a name")
		}
		col, err := a.planner.AddSite(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("added %s (%s)\n", col.Name, col.ID)
		return nil
	case "move":
		return a.move(ctx, args)
	case "clear":
		return a.planner.ClearBoard(ctx)
	case "snapshot":
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		schedule, err := a.api.SaveSchedule(ctx, name)
		if err != nil {
			return err
		}
		fmt.Printf("saved %q (%s)\n", schedule.Name, schedule.ID)
		return nil
	case "watch":
		return a.watch(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) move(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("move needs a resource id and a target")
	}
	column := 0
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("bad column %q", args[2])
		}
		column = n
	}
	dest, err := board.ParseDestination(args[1], column)
	if err != nil {
		return err
	}

	if err := a.planner.LoadResources(ctx); err != nil {
		return err
	}
	res, ok := a.findResource(args[0])
	if !ok {
		return fmt.Errorf("resource %s: %w", args[0], models.ErrNotFound)
	}
	if err := a.planner.MoveItem(ctx, res, dest); err != nil {
		return err
	}
	fmt.Printf("moved %s to %s\n", res.Name, dest)
	return nil
}

func (a *app) findResource(id string) (models.Resource, bool) {
	for _, t := range models.ResourceTypes {
		for _, r := range a.planner.Pool(t) {
			if r.ID == id {
				return r, true
			}
		}
	}
	return models.Resource{}, false
}

// watch prints a summary line on every synced board. The auto-sync timer
// covers missed stream events.
func (a *app) watch(ctx context.Context) error {
	unsubscribe := a.bus.Subscribe(func(e events.Event) {
		if e.Type == events.BoardSynced {
			fmt.Printf("%d sites, version %d\n", len(e.Document.Columns), a.engine.Version())
		}
	})
	defer unsubscribe()

	a.engine.ToggleAutoSync()

	err := a.api.Watch(ctx, func(row *models.CurrentBoard) {
		if row.Version == a.engine.Version() {
			return
		}
		if err := a.engine.PullBoard(ctx); err != nil {
			a.log.Warn().Err(err).Msg("Pull after stream update failed")
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

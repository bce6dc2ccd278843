package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/wricardo/rps-game/account"
	"github.com/wricardo/rps-game/game/config"
	"github.com/wricardo/rps-game/game/service"
	"github.com/wricardo/rps-game/game/session"
	"github.com/wricardo/rps-game/storage"
)

// snapshot is everything inspect prints
type snapshot struct {
	Owner     account.ID        `json:"owner"`
	Admin     *account.ID       `json:"admin"`
	Blacklist []account.ID      `json:"blacklist"`
	Games     []session.Session `json:"games"`
}

func takeSnapshot(ctx context.Context, store storage.Store) (*snapshot, error) {
	q := service.NewContract(store).Queries()

	var snap snapshot
	err := store.View(ctx, func(r storage.Reader) error {
		var err error
		if snap.Owner, err = q.Owner(r); err != nil {
			return err
		}
		if snap.Admin, err = q.Admin(r); err != nil {
			return err
		}
		if snap.Blacklist, err = q.Blacklist(r); err != nil {
			return err
		}
		snap.Games, err = q.AllGames(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// runInspect prints the state of the store named by cfg without modifying it.
func runInspect(ctx context.Context, cfg *config.Config, w io.Writer, asJSON bool) error {
	if cfg.StorageDriver == config.DriverMemory {
		return fmt.Errorf("%w: inspect needs the bolt or sqlite driver", config.ErrInvalidConfig)
	}

	store, err := openStore(cfg, true)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StorageDriver, err)
	}
	defer store.Close()

	snap, err := takeSnapshot(ctx, store)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	return printSnapshot(w, snap)
}

func printSnapshot(w io.Writer, snap *snapshot) error {
	admin := "(none)"
	if snap.Admin != nil {
		admin = snap.Admin.String()
	}
	fmt.Fprintf(w, "Owner:     %s\n", snap.Owner)
	fmt.Fprintf(w, "Admin:     %s\n", admin)
	fmt.Fprintf(w, "Blacklist: %d\n", len(snap.Blacklist))
	for _, id := range snap.Blacklist {
		fmt.Fprintf(w, "  - %s\n", id)
	}
	fmt.Fprintf(w, "Games:     %d\n", len(snap.Games))
	if len(snap.Games) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  HOST\tOPPONENT\tHOST MOVE")
	for _, g := range snap.Games {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", g.Host, g.Opponent, g.HostMove)
	}
	return tw.Flush()
}

package sync

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/racewatch/regbot/internal/catalog"
	"github.com/racewatch/regbot/internal/conf"
	"github.com/racewatch/regbot/internal/datastore"
	"github.com/racewatch/regbot/internal/iracing"
)

// Command creates the command that runs a one-shot catalog sync.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the series catalog once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), settings)
		},
	}
}

func runSync(ctx context.Context, settings *conf.Settings) error {
	if ctx == nil {
		ctx = context.Background()
	}

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database backend enabled")
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client, err := iracing.NewClient(settings)
	if err != nil {
		return err
	}
	defer client.Close()

	svc := catalog.NewService(client, store, catalog.NewState())
	active, err := svc.Sync(ctx)
	if err != nil {
		return err
	}

	series := make([]catalog.SeriesInfo, 0, len(active))
	for _, info := range active {
		series = append(series, info)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Name < series[j].Name })

	fmt.Printf("synced %d active series\n", len(series))
	for i := range series {
		s := &series[i]
		fmt.Printf("  %6d  %-50s official %3d  split %3d  week %2d  %s\n",
			s.SeriesID, s.Name, s.RegOfficial, s.RegSplit, s.RaceWeek, s.TrackName)
	}
	return nil
}

package watches

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/racewatch/regbot/internal/catalog"
	"github.com/racewatch/regbot/internal/conf"
	"github.com/racewatch/regbot/internal/datastore"
)

// Command creates the watch management command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watches",
		Short: "Manage registration watches",
	}
	cmd.AddCommand(
		listCommand(settings),
		addCommand(settings),
		deleteCommand(settings),
	)
	return cmd
}

func openStore(settings *conf.Settings) (datastore.Interface, error) {
	store := datastore.New(settings)
	if store == nil {
		return nil, fmt.Errorf("no database backend enabled")
	}
	if err := store.Open(); err != nil {
		return nil, err
	}
	return store, nil
}

func listCommand(settings *conf.Settings) *cobra.Command {
	var destinationID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List watches for a destination",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			watches, err := store.WatchesForDestination(destinationID)
			if err != nil {
				return err
			}
			if len(watches) == 0 {
				fmt.Printf("no watches for destination %s\n", destinationID)
				return nil
			}
			for i := range watches {
				fmt.Println(watches[i].Describe())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&destinationID, "destination", "", "Destination id to list watches for")
	_ = cmd.MarkFlagRequired("destination")
	return cmd
}

func addCommand(settings *conf.Settings) *cobra.Command {
	var (
		destinationID string
		groupID       string
		seriesID      int64
		minReg        int64
		maxReg        int64
		notifyOpen    bool
		notifyClose   bool
		createdBy     string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create or replace a watch for a destination and series",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			active, err := store.GetActiveSeries()
			if err != nil {
				return err
			}
			series, ok := active[seriesID]
			if !ok {
				return fmt.Errorf("series %d is not in the active catalog, run sync first", seriesID)
			}

			// Omitted bounds fall back to defaults derived from the
			// series thresholds.
			info := catalog.FromRecord(&series)
			defMin, defMax := info.DefaultBounds()
			if !cmd.Flags().Changed("min") {
				minReg = defMin
			}
			if !cmd.Flags().Changed("max") {
				maxReg = defMax
			}

			watch := &datastore.Watch{
				DestinationID: destinationID,
				GroupID:       groupID,
				SeriesID:      seriesID,
				MinReg:        minReg,
				MaxReg:        maxReg,
				NotifyOnOpen:  notifyOpen,
				NotifyOnClose: notifyClose,
				CreatedBy:     createdBy,
			}
			if err := store.UpsertWatch(watch); err != nil {
				return err
			}
			watch.SeriesName = series.Name
			fmt.Printf("watching %s\n", watch.Describe())
			return nil
		},
	}
	cmd.Flags().StringVar(&destinationID, "destination", "", "Destination id to notify")
	cmd.Flags().StringVar(&groupID, "group", "", "Optional parent group id")
	cmd.Flags().Int64Var(&seriesID, "series", 0, "Series id to watch")
	cmd.Flags().Int64Var(&minReg, "min", 0, "Lower bound of the entry count band")
	cmd.Flags().Int64Var(&maxReg, "max", 0, "Upper bound of the entry count band")
	cmd.Flags().BoolVar(&notifyOpen, "on-open", false, "Announce registration open")
	cmd.Flags().BoolVar(&notifyClose, "on-close", false, "Announce registration close")
	cmd.Flags().StringVar(&createdBy, "created-by", "", "Audit tag for who created the watch")
	_ = cmd.MarkFlagRequired("destination")
	_ = cmd.MarkFlagRequired("series")
	return cmd
}

func deleteCommand(settings *conf.Settings) *cobra.Command {
	var (
		destinationID string
		groupID       string
		seriesID      int64
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a watch, all watches for a destination, or a whole group",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			switch {
			case groupID != "":
				return store.DeleteGroup(groupID)
			case destinationID != "" && cmd.Flags().Changed("series"):
				return store.DeleteWatch(destinationID, seriesID)
			case destinationID != "":
				return store.DeleteDestination(destinationID)
			}
			return fmt.Errorf("specify --group, or --destination with an optional --series")
		},
	}
	cmd.Flags().StringVar(&destinationID, "destination", "", "Destination id to delete watches for")
	cmd.Flags().StringVar(&groupID, "group", "", "Delete every watch under this group id")
	cmd.Flags().Int64Var(&seriesID, "series", 0, "Series id of the single watch to delete")
	return cmd
}

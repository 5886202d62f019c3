package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chargehub/internal/admin"
	"chargehub/internal/cli"
	"chargehub/libs/logging"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger, err := logging.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	env, err := cli.NewEnv(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, env, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, env *cli.Env, command string, args []string) error {
	switch command {
	case "station-add":
		return runStationAdd(ctx, env, args)
	case "slot-add":
		return runSlotAdd(ctx, env, args)
	case "slot-status":
		return runSlotStatus(ctx, env, args)
	case "station-bookings":
		return runStationBookings(ctx, env, args)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: hubadmin <command> [flags]

  station-add      -name -address -lat -lng -price   register a station
  slot-add         -station -number -type -connector -power
  slot-status      -slot -status                     e.g. MAINTENANCE, AVAILABLE
  station-bookings -station                          list bookings for a station`)
}

func runStationAdd(ctx context.Context, env *cli.Env, args []string) error {
	fs := flag.NewFlagSet("station-add", flag.ExitOnError)
	name := fs.String("name", "", "station name")
	address := fs.String("address", "", "street address")
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	price := fs.Float64("price", 0, "price per kWh")
	fs.Parse(args)

	station, err := env.Admin.CreateStation(ctx, admin.CreateStationInput{
		Name:        *name,
		Address:     *address,
		Latitude:    *lat,
		Longitude:   *lng,
		PricePerKWh: *price,
	})
	if err != nil {
		return err
	}
	fmt.Printf("station #%d %s\n", station.ID, station.Name)
	return nil
}

func runSlotAdd(ctx context.Context, env *cli.Env, args []string) error {
	fs := flag.NewFlagSet("slot-add", flag.ExitOnError)
	stationID := fs.Int64("station", 0, "station id")
	number := fs.Int("number", 0, "slot number within the station")
	slotType := fs.String("type", "AC", "AC or DC")
	connector := fs.String("connector", "", "connector type, e.g. CCS2")
	power := fs.Float64("power", 0, "power rating in kW")
	fs.Parse(args)

	slot, err := env.Admin.AddSlot(ctx, *stationID, admin.AddSlotInput{
		SlotNumber:    *number,
		Type:          *slotType,
		ConnectorType: *connector,
		PowerKW:       *power,
	})
	if err != nil {
		return err
	}
	fmt.Printf("slot #%d (%d) %s %s %.1f kW\n", slot.ID, slot.SlotNumber, slot.Type, slot.ConnectorType, slot.PowerKW)
	return nil
}

func runSlotStatus(ctx context.Context, env *cli.Env, args []string) error {
	fs := flag.NewFlagSet("slot-status", flag.ExitOnError)
	slotID := fs.Int64("slot", 0, "slot id")
	status := fs.String("status", "", "new status")
	fs.Parse(args)

	slot, err := env.Admin.SetSlotStatus(ctx, *slotID, *status)
	if err != nil {
		return err
	}
	fmt.Printf("slot #%d now %s\n", slot.ID, slot.Status)
	return nil
}

func runStationBookings(ctx context.Context, env *cli.Env, args []string) error {
	fs := flag.NewFlagSet("station-bookings", flag.ExitOnError)
	stationID := fs.Int64("station", 0, "station id")
	fs.Parse(args)

	bookings, err := env.Admin.StationBookings(ctx, *stationID)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		fmt.Printf("booking #%d  slot #%d  user #%d  %s  %s - %s\n",
			b.ID, b.SlotID, b.UserID, b.Status,
			b.StartTime.Format(time.RFC3339), b.EndTime.Format(time.RFC3339))
	}
	return nil
}

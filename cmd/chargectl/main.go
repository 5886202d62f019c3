package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"chargehub/internal/charging"
	"chargehub/internal/cli"
	"chargehub/internal/models"
	"chargehub/internal/stations"
	"chargehub/libs/logging"
)

const bookTimeLayout = "2006-01-02T15:04"

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
	case "signup":
		return runCredentials(ctx, args, "signup", env.Auth.Signup)
	case "login":
		return runCredentials(ctx, args, "login", env.Auth.Login)
	case "logout":
		if err := env.Auth.Logout(); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil
	case "stations":
		return runStations(ctx, env, args)
	case "station":
		return runStation(ctx, env, args)
	case "book":
		return runBook(ctx, env, args)
	case "bookings":
		return runBookings(ctx, env)
	case "cancel":
		return runCancel(ctx, env, args)
	case "start":
		return runStart(ctx, env, args)
	case "stop":
		return runStop(ctx, env, args)
	case "status":
		return runStatus(ctx, env, args)
	case "watch":
		return runWatch(ctx, env, args)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: chargectl <command> [flags]

  signup    -email -password        register a new account
  login     -email -password        log in and store the token
  logout                            drop the stored token
  stations  [-lat -lng]             list stations, optionally sorted by distance
  station   -id                     show one station with its slots
  book      -slot -start -end       book a slot (times as 2006-01-02T15:04, local)
  bookings                          list my bookings
  cancel    -id                     cancel a booking
  start     -booking                start charging for a booking
  stop      -session                stop a charging session
  status    -session | -booking     show the current session state
  watch     -session [-power]       follow a session with live estimates`)
}

func runCredentials(ctx context.Context, args []string, name string, call func(context.Context, string, string) error) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		return fmt.Errorf("%s: -email and -password are required", name)
	}
	if err := call(ctx, *email, *password); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func runStations(ctx context.Context, env *cli.Env, args []string) error {
	fs := flag.NewFlagSet("stations", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "latitude for distance sorting")
	lng := fs.Float64("lng", 0, "longitude for distance sorting")
	fs.Parse(args)

	list, err := env.Stations.List(ctx)
	if err != nil {
		return err
	}

	byDistance := *lat != 0 || *lng != 0
	if byDistance {
		stations.SortByDistance(list, *lat, *lng)
	}

	for _, s := range list {
		line := fmt.Sprintf("#%d  %-24s  %.2f/kWh  score %.2f", s.ID, s.Name, s.PricePerKWh, s.Score)
		if byDistance {
			line += fmt.Sprintf("  %.1f km", s.DistanceKm)
		}
		fmt.Println(line)
	}
	return nil
}

func runStation(ctx context.Context, env *cli.Env, args []string) error {
	fs := flag.NewFlagSet("station", flag.ExitOnError)
	id := fs.Int64("id", 0, "station id")
	fs.Parse(args)

	station, err := env.Stations.Get(ctx, *id)
	if err != nil {
		return err
	}

	fmt.Printf("#%d %s\n%s\n%.2f/kWh\n", station.ID, station.Name, station.Address, station.PricePerKWh)
	for _, slot := range station.Slots {
		fmt.Printf("  slot %d (#%d)  %s %s  %.1f kW  %s\n",
			slot.SlotNumber, slot.ID, slot.Type, slot.ConnectorType, slot.PowerKW, slot.Status)
	}
	return nil
}

func runBook(ctx context.Context, env *cli.Env, args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	slot := fs.Int64("slot", 0, "slot id")
	start := fs.String("start", "", "start time, "+bookTimeLayout)
	end := fs.String("end", "", "end time, "+bookTimeLayout)
	fs.Parse(args)

	startAt, err := time.ParseInLocation(bookTimeLayout, *start, time.Local)
	if err != nil {
		return fmt.Errorf("book: bad -start: %w", err)
	}
	endAt, err := time.ParseInLocation(bookTimeLayout, *end, time.Local)
	if err != nil {
		return fmt.Errorf("book: bad -end: %w", err)
	}

	b, err := env.Bookings.Create(ctx, *slot, startAt, endAt)
	if err != nil {
		return err
	}
	printBooking(b)
	return nil
}

func runBookings(ctx context.Context, env *cli.Env) error {
	list, err := env.Bookings.ListMine(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		printBooking(&list[i])
	}
	return nil
}

func runCancel(ctx context.Context, env *cli.Env, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	id := fs.Int64("id", 0, "booking id")
	fs.Parse(args)

	b, err := env.Bookings.Cancel(ctx, *id)
	if err != nil {
		return err
	}
	printBooking(b)
	return nil
}

func runStart(ctx context.Context, env *cli.Env, args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	bookingID := fs.Int64("booking", 0, "booking id")
	fs.Parse(args)

	if err := env.Lifecycle.Start(ctx, *bookingID); err != nil {
		return err
	}
	return reportOutcome(env.Lifecycle.State())
}

func runStop(ctx context.Context, env *cli.Env, args []string) error {
	fs := flag.NewFlagSet("stop", flag.ExitOnError)
	sessionID := fs.Int64("session", 0, "session id")
	fs.Parse(args)

	// Stop needs an observed Active state first.
	if err := env.Lifecycle.Load(ctx, *sessionID); err != nil {
		return err
	}
	if state := env.Lifecycle.State(); state.Phase != charging.PhaseActive {
		return reportOutcome(state)
	}
	if err := env.Lifecycle.Stop(ctx, *sessionID); err != nil {
		return err
	}
	return reportOutcome(env.Lifecycle.State())
}

func runStatus(ctx context.Context, env *cli.Env, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	sessionID := fs.Int64("session", 0, "session id")
	bookingID := fs.Int64("booking", 0, "booking id")
	fs.Parse(args)

	var err error
	switch {
	case *sessionID > 0:
		err = env.Lifecycle.Load(ctx, *sessionID)
	case *bookingID > 0:
		err = env.Lifecycle.LoadByBooking(ctx, *bookingID)
	default:
		return fmt.Errorf("status: -session or -booking is required")
	}
	if err != nil {
		return err
	}
	return reportOutcome(env.Lifecycle.State())
}

func runWatch(ctx context.Context, env *cli.Env, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	sessionID := fs.Int64("session", 0, "session id")
	power := fs.Float64("power", env.Config.Display.DefaultPowerKW, "charger power in kW")
	fs.Parse(args)

	if err := env.Lifecycle.Load(ctx, *sessionID); err != nil {
		return err
	}
	state := env.Lifecycle.State()
	if state.Phase != charging.PhaseActive {
		return reportOutcome(state)
	}

	// Rate is unknown client-side without the station; estimates print energy
	// only unless the station lookup succeeds.
	rate := 0.0
	if station := stationForSession(ctx, env, state.Session); station != nil {
		rate = station.PricePerKWh
	}

	watcher := charging.NewWatcher(env.Lifecycle, env.Config.Display.PollInterval, *power, rate, func(e charging.Estimate) {
		line := fmt.Sprintf("%s elapsed  ~%.2f kWh", e.Elapsed.Round(time.Second), e.EnergyKWh)
		if rate > 0 {
			line += fmt.Sprintf("  ~%.2f", e.Cost)
		}
		fmt.Println(line)
	})
	watcher.Run(ctx)
	return reportOutcome(env.Lifecycle.State())
}

// stationForSession walks session -> booking -> slot -> station to find the
// tariff. Any failure along the way just disables the cost column.
func stationForSession(ctx context.Context, env *cli.Env, session *models.ChargingSession) *models.Station {
	if session == nil {
		return nil
	}
	b, err := env.Bookings.Get(ctx, session.BookingID)
	if err != nil {
		return nil
	}
	list, err := env.Stations.List(ctx)
	if err != nil {
		return nil
	}
	for i := range list {
		station, err := env.Stations.Get(ctx, list[i].ID)
		if err != nil {
			continue
		}
		for _, slot := range station.Slots {
			if slot.ID == b.SlotID {
				return station
			}
		}
	}
	return nil
}

func reportOutcome(state charging.State) error {
	switch state.Phase {
	case charging.PhaseFailed:
		return fmt.Errorf("%s", state.Reason)
	case charging.PhaseCompleted:
		fmt.Println("session completed")
	}
	printSession(state.Session)
	return nil
}

func printSession(s *models.ChargingSession) {
	if s == nil {
		return
	}
	fmt.Printf("session #%d  booking #%d  started %s\n", s.ID, s.BookingID, s.StartTime.Format(time.RFC3339))
	if s.EndTime != nil && !s.EndTime.IsZero() {
		fmt.Printf("  ended %s\n", s.EndTime.Format(time.RFC3339))
	}
	if s.EnergyConsumed != nil {
		fmt.Printf("  energy %.2f kWh\n", *s.EnergyConsumed)
	}
	if s.Cost != nil {
		fmt.Printf("  cost %.2f\n", *s.Cost)
	}
}

func printBooking(b *models.Booking) {
	line := fmt.Sprintf("booking #%d  slot #%d  %s  %s - %s  %.2f",
		b.ID, b.SlotID, b.Status,
		b.StartTime.Format(bookTimeLayout), b.EndTime.Format(bookTimeLayout),
		b.PriceEstimate)
	if remaining, ok := b.TimeUntilExpiry(time.Now()); ok && b.Status == models.BookingStatusConfirmed {
		line += "  expires in " + strconv.FormatInt(int64(remaining/time.Second), 10) + "s"
	}
	fmt.Println(line)
}

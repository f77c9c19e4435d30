package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Overland-East-Bay/ridebook/internal/app/booking"
	"github.com/Overland-East-Bay/ridebook/internal/app/planner"
	"github.com/Overland-East-Bay/ridebook/internal/app/route"
	"github.com/Overland-East-Bay/ridebook/internal/app/session"
	"github.com/Overland-East-Bay/ridebook/internal/cli/output"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
)

// reported is returned when the failure already reached the user as a notification.
var reported = &output.CLIError{Summary: "request failed", Reported: true}

func newRouteCmd(rt *runtime) *cobra.Command {
	var pickup, dropoff string
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Resolve two addresses and preview the route between them",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&pickup, "pickup", "", "pickup address")
	cmd.Flags().StringVar(&dropoff, "dropoff", "", "dropoff address")
	_ = cmd.MarkFlagRequired("pickup")
	_ = cmd.MarkFlagRequired("dropoff")

	cmd.RunE = rt.run(func(cmd *cobra.Command, _ []string) error {
		p := rt.app.Planner()
		defer p.Close()

		preview, err := previewRoute(cmd, p, pickup, dropoff)
		if err != nil {
			return err
		}
		if preview == nil {
			return reported
		}
		rt.printPreview(p, preview)
		return nil
	})
	return cmd
}

func newBookCmd(rt *runtime) *cobra.Command {
	var pickup, dropoff string
	var yes bool
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a ride between two addresses",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&pickup, "pickup", "", "pickup address")
	cmd.Flags().StringVar(&dropoff, "dropoff", "", "dropoff address")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "book without asking for confirmation")
	_ = cmd.MarkFlagRequired("pickup")
	_ = cmd.MarkFlagRequired("dropoff")

	cmd.RunE = rt.run(func(cmd *cobra.Command, _ []string) error {
		if !rt.app.Session.IsAuthenticated() {
			return errNotLoggedIn()
		}
		p := rt.app.Planner()
		defer p.Close()

		preview, err := previewRoute(cmd, p, pickup, dropoff)
		if err != nil {
			return err
		}
		// A missing route does not block booking once both addresses resolve.
		rt.printPreview(p, preview)

		if !yes && !confirm(cmd, "Book this ride? [y/N] ") {
			rt.printer.Info("Booking cancelled")
			return nil
		}

		ride, err := p.Submit(cmd.Context())
		if err != nil {
			return submitFailure(err)
		}
		rt.printer.Print("ride:    %s", ride.ID)
		rt.printer.Print("status:  %s", rt.printer.StatusBadge(string(ride.Status)))
		return nil
	})
	return cmd
}

func newRidesCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "rides",
		Short: "List your booked rides, newest first",
		Args:  cobra.NoArgs,
		RunE: rt.run(func(cmd *cobra.Command, _ []string) error {
			rides, err := rt.app.History().List(cmd.Context())
			if err != nil {
				if errors.Is(err, session.ErrNotAuthenticated) {
					return errNotLoggedIn()
				}
				return reported
			}
			if len(rides) == 0 {
				rt.printer.Info("No rides booked yet")
				return nil
			}
			tbl := output.NewTable(rt.printer.Out(), []string{"ID", "Pickup", "Drop", "When", "Status"})
			for _, r := range rides {
				tbl.AddRow(string(r.ID), r.PickupLocation, r.DropLocation, formatWhen(r.DateTime), rt.printer.StatusBadge(string(r.Status)))
			}
			return tbl.Render()
		}),
	}
}

// previewRoute resolves both sides and waits for the route. Lookup failures
// are notified by the planner and surface here as reported errors. A failed
// route computation is notified too but leaves the preview nil.
func previewRoute(cmd *cobra.Command, p *planner.Planner, pickup, dropoff string) (*route.Preview, error) {
	p.SetPickup(pickup)
	p.SetDropoff(dropoff)
	if err := p.ResolveBoth(cmd.Context()); err != nil {
		if ge := (*gateway.Error)(nil); errors.As(err, &ge) {
			return nil, reported
		}
		return nil, fmt.Errorf("resolve addresses: %w", err)
	}
	p.WaitRoute()
	return p.Preview(), nil
}

func (rt *runtime) printPreview(p *planner.Planner, preview *route.Preview) {
	if preview == nil {
		rt.printer.Print("pickup:  %s", p.Pickup().Text)
		rt.printer.Print("dropoff: %s", p.Dropoff().Text)
		rt.printer.Print("route:   unavailable")
		return
	}
	rt.printer.Print("pickup:  %s  (%s)", p.Pickup().Text, preview.Pickup)
	rt.printer.Print("dropoff: %s  (%s)", p.Dropoff().Text, preview.Dropoff)
	rt.printer.Print("route:   %d points", len(preview.Path))
}

func submitFailure(err error) error {
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return errNotLoggedIn()
	case errors.Is(err, booking.ErrSubmitInFlight):
		return &output.CLIError{Summary: "a booking is already being submitted"}
	}
	// Validation and remote failures were already notified.
	return reported
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

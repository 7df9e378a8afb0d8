package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ms-tryon/internal/auth"
	"ms-tryon/internal/config"
	"ms-tryon/internal/models"
	"ms-tryon/internal/tryon"
	"ms-tryon/internal/tryon/qr"
)

type storeOpener func(ctx context.Context) (*tryon.Store, func(), error)

// cli carries the store opened for the running command.
type cli struct {
	cfg     *config.Config
	open    storeOpener
	store   *tryon.Store
	closeFn func()
	asJSON  bool
}

// newRootCmd returns the command tree and a func releasing whatever store
// the executed command opened.
func newRootCmd(cfg *config.Config, open storeOpener) (*cobra.Command, func()) {
	c := &cli{cfg: cfg, open: open}

	root := &cobra.Command{
		Use:           "tryon-admin",
		Short:         "Operate festival try-on reservations from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print results as JSON")

	root.AddCommand(
		c.festivalsCmd(),
		c.listCmd(),
		c.lookupCmd(),
		c.transitionCmd("confirm", "Confirm a pending reservation", (*tryon.Store).Confirm),
		c.transitionCmd("checkin", "Check a customer in at the booth", (*tryon.Store).CheckIn),
		c.transitionCmd("pickup", "Hand over paid pieces", (*tryon.Store).MarkPickedUp),
		c.transitionCmd("cancel", "Cancel a reservation", (*tryon.Store).CancelReservation),
		c.payCmd(),
		c.noteCmd(),
		c.qrCmd(),
		c.tokenCmd(),
	)
	return root, func() {
		if c.closeFn != nil {
			c.closeFn()
		}
	}
}

func (c *cli) ensureStore(cmd *cobra.Command) (*tryon.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	store, closeFn, err := c.open(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	c.store, c.closeFn = store, closeFn
	return store, nil
}

// finish prints res. A change that was applied but not persisted is
// reported on stderr without failing the command.
func (c *cli) finish(cmd *cobra.Command, res models.Reservation, err error) error {
	if err != nil && !errors.Is(err, tryon.ErrNotPersisted) {
		return err
	}
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
	}
	return c.printReservations(cmd.OutOrStdout(), []models.Reservation{res})
}

func (c *cli) printReservations(out io.Writer, rs []models.Reservation) error {
	if c.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rs)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tQR\tCUSTOMER\tFESTIVAL\tSTATUS\tPAYMENT\tPIECES")
	for _, r := range rs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.QRCode, r.UserEmail, r.PrimaryFestival, r.Status, r.PaymentStatus, strings.Join(r.Pieces, ","))
	}
	return tw.Flush()
}

func (c *cli) festivalsCmd() *cobra.Command {
	var available bool
	cmd := &cobra.Command{
		Use:   "festivals",
		Short: "List the festival catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.ensureStore(cmd)
			if err != nil {
				return err
			}
			festivals := store.Festivals()
			if available {
				festivals = store.GetAvailableFestivals()
			}
			if c.asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(festivals)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDATES\tCITY\tOPEN")
			for _, f := range festivals {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", f.ID, f.Name, f.Dates, f.City, f.Available)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&available, "available", false, "only festivals open for reservations")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var festival, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reservations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := tryon.ReservationFilter{FestivalID: festival}
			if status != "" {
				st, err := models.ParseStatus(status)
				if err != nil {
					return err
				}
				filter.Status = st
			}
			store, err := c.ensureStore(cmd)
			if err != nil {
				return err
			}
			return c.printReservations(cmd.OutOrStdout(), store.ListReservations(filter))
		},
	}
	cmd.Flags().StringVar(&festival, "festival", "", "festival id")
	cmd.Flags().StringVar(&status, "status", "", "reservation status")
	return cmd
}

func (c *cli) lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <code-or-url>",
		Short: "Find a reservation by scanned QR code or pickup URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.ensureStore(cmd)
			if err != nil {
				return err
			}
			res, ok := store.LookupScanned(args[0])
			if !ok {
				return fmt.Errorf("%w: no reservation for %q", tryon.ErrNotFound, args[0])
			}
			return c.printReservations(cmd.OutOrStdout(), []models.Reservation{res})
		},
	}
}

type transition func(*tryon.Store, context.Context, string) (models.Reservation, error)

func (c *cli) transitionCmd(use, short string, fn transition) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <reservation-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.ensureStore(cmd)
			if err != nil {
				return err
			}
			res, err := fn(store, cmd.Context(), args[0])
			return c.finish(cmd, res, err)
		},
	}
}

func (c *cli) payCmd() *cobra.Command {
	var (
		amount   float64
		selected []string
	)
	cmd := &cobra.Command{
		Use:   "pay <reservation-id>",
		Short: "Record payment for the pieces the customer keeps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.ensureStore(cmd)
			if err != nil {
				return err
			}
			res, err := store.ProcessPayment(cmd.Context(), args[0], amount, selected)
			return c.finish(cmd, res, err)
		},
	}
	cmd.Flags().Float64Var(&amount, "amount", 0, "amount paid")
	cmd.Flags().StringSliceVar(&selected, "select", nil, "piece ids bought, comma separated")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("select")
	return cmd
}

func (c *cli) noteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note <reservation-id> <text...>",
		Short: "Append a timestamped staff note",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.ensureStore(cmd)
			if err != nil {
				return err
			}
			res, err := store.AddNote(cmd.Context(), args[0], strings.Join(args[1:], " "))
			return c.finish(cmd, res, err)
		},
	}
}

func (c *cli) qrCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "qr <reservation-id>",
		Short: "Write the reservation's pickup QR code as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.ensureStore(cmd)
			if err != nil {
				return err
			}
			res, ok := store.GetReservation(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", tryon.ErrNotFound, args[0])
			}
			codes := qr.NewGenerator(c.cfg.QR.Prefix, c.cfg.QR.SiteDomain, c.cfg.QR.ImageSize)
			png, err := codes.PNG(res.QRCode)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = res.QRCode + ".png"
			}
			if err := os.WriteFile(outPath, png, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", codes.PickupURL(res.QRCode), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <code>.png)")
	return cmd
}

// tokenCmd mints an HS256 token for local testing of the HTTP API.
func (c *cli) tokenCmd() *cobra.Command {
	var (
		id  auth.Identity
		ttl time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Auth.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			tok, err := auth.NewHMACVerifier(c.cfg.Auth.JWTSecret, c.cfg.Auth.AdminRole).Sign(id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&id.UserID, "sub", "", "subject (user id)")
	cmd.Flags().StringVar(&id.Email, "email", "", "email claim")
	cmd.Flags().StringVar(&id.Name, "name", "", "name claim")
	cmd.Flags().StringVar(&id.Role, "role", "customer", "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/logging"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/sqlite"
	"github.com/example/room-booking/internal/scheduler"
)

// withStorage loads configuration, opens and migrates the database and runs fn.
func withStorage(ctx context.Context, migrate bool, fn func(ctx context.Context, cfg config.Config, storage *sqlite.Storage) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	storage, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer storage.Close()

	if migrate {
		if err := storage.Migrate(ctx); err != nil {
			return err
		}
	}
	return fn(logging.ContextWithLogger(ctx, logger), cfg, storage)
}

func newMigrateCmd() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd.Context(), !statusOnly, func(ctx context.Context, _ config.Config, storage *sqlite.Storage) error {
				status, err := storage.MigrationStatus(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				current := status.CurrentVersion
				if current == "" {
					current = "none"
				}
				fmt.Fprintf(out, "current version: %s (%d pending)\n", current, status.PendingCount)
				for _, m := range status.AppliedMigrations {
					fmt.Fprintf(out, "  applied  %s  %s\n", m.Version, m.AppliedAt.Format(time.RFC3339))
				}
				for _, m := range status.PendingMigrations {
					fmt.Fprintf(out, "  pending  %s  %s\n", m.Version, m.Description)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "Only report migration status")
	return cmd
}

// defaultCatalog is the office room catalog installed by seed.
func defaultCatalog() []persistence.Room {
	all := scheduler.NewEquipmentSet(scheduler.AllEquipment()...).Strings()
	codes := func(items ...scheduler.Equipment) []string {
		return scheduler.NewEquipmentSet(items...).Strings()
	}
	return []persistence.Room{
		{ID: "room-1", Name: "회의실 A", Floor: 1, Capacity: 4, Equipment: codes(scheduler.EquipmentTV, scheduler.EquipmentWhiteboard)},
		{ID: "room-2", Name: "회의실 B", Floor: 1, Capacity: 8, Equipment: codes(scheduler.EquipmentTV, scheduler.EquipmentWhiteboard, scheduler.EquipmentVideo)},
		{ID: "room-3", Name: "대회의실", Floor: 2, Capacity: 20, Equipment: all},
		{ID: "room-4", Name: "소회의실", Floor: 2, Capacity: 3, Equipment: codes(scheduler.EquipmentWhiteboard)},
		{ID: "room-5", Name: "미팅룸 C", Floor: 3, Capacity: 6, Equipment: codes(scheduler.EquipmentTV, scheduler.EquipmentVideo)},
		{ID: "room-6", Name: "세미나실", Floor: 3, Capacity: 15, Equipment: all},
	}
}

// seedRooms inserts the default catalog, leaving rooms that already exist untouched.
func seedRooms(ctx context.Context, repo persistence.RoomRepository, now time.Time) (int, error) {
	created := 0
	for _, room := range defaultCatalog() {
		room.CreatedAt = now
		room.UpdatedAt = now
		err := repo.CreateRoom(ctx, room)
		switch {
		case err == nil:
			created++
		case errors.Is(err, persistence.ErrDuplicate):
		default:
			return created, fmt.Errorf("seed room %s: %w", room.ID, err)
		}
	}
	return created, nil
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the default room catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd.Context(), true, func(ctx context.Context, _ config.Config, storage *sqlite.Storage) error {
				created, err := seedRooms(ctx, storage, time.Now().UTC())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d rooms\n", created)
				return nil
			})
		},
	}
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserAddCmd())
	cmd.AddCommand(newUserListCmd())
	return cmd
}

// operator is the principal used by local administrative commands.
var operator = application.Principal{UserID: "cli", IsAdmin: true}

func newUserAddCmd() *cobra.Command {
	var (
		email    string
		name     string
		password string
		admin    bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				value, err := prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Email: ")
				if err != nil {
					return err
				}
				email = value
			}
			if password == "" {
				value, err := readPassword(cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
				password = value
			}
			if name == "" {
				name = strings.SplitN(email, "@", 2)[0]
			}

			return withStorage(cmd.Context(), true, func(ctx context.Context, cfg config.Config, storage *sqlite.Storage) error {
				svc := newServices(storage, cfg, logging.FromContext(ctx))
				user, err := svc.users.CreateUser(ctx, application.CreateUserParams{
					Principal: operator,
					Input: application.UserInput{
						Email:       email,
						DisplayName: name,
						Password:    password,
						IsAdmin:     admin,
					},
				})
				if err != nil {
					return describeServiceError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", user.Email, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&name, "name", "", "Display name (default: email local part)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant administrator rights")
	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd.Context(), true, func(ctx context.Context, cfg config.Config, storage *sqlite.Storage) error {
				svc := newServices(storage, cfg, logging.FromContext(ctx))
				users, err := svc.users.ListUsers(ctx, operator)
				if err != nil {
					return err
				}
				w := newTable(cmd.OutOrStdout())
				fmt.Fprintln(w, "ID\tEMAIL\tNAME\tADMIN")
				for _, u := range users {
					fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", u.ID, u.Email, u.DisplayName, u.IsAdmin)
				}
				return w.Flush()
			})
		},
	}
}

// describeServiceError flattens validation failures into one line per field.
func describeServiceError(err error) error {
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		return err
	}
	var b strings.Builder
	b.WriteString(vErr.Error())
	for _, field := range sortedKeys(vErr.FieldErrors) {
		fmt.Fprintf(&b, "\n  %s: %s", field, vErr.FieldErrors[field])
	}
	return errors.New(b.String())
}

func prompt(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	value, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func readPassword(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Password: ")
		bytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(bytes), nil
	}
	return prompt(in, out, "Password: ")
}

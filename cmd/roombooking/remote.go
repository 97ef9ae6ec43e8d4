package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/example/room-booking/internal/client"
	"github.com/example/room-booking/internal/scheduler"
)

// session resolves the API endpoint and saved token for client commands.
type session struct {
	api   *client.Client
	login *savedLogin
}

func openSession(opts *rootOptions, requireLogin bool) (*session, error) {
	login, err := loadLogin()
	if err != nil {
		return nil, err
	}

	server := opts.server
	if server == "" && login != nil {
		server = login.Server
	}
	api := client.NewClient(server)

	if login != nil && login.Token != "" && (opts.server == "" || opts.server == login.Server) {
		api.Token = login.Token
	}
	if requireLogin {
		if api.Token == "" {
			return nil, errors.New("not logged in. Run 'roombooking login' first")
		}
		if login.Expired(time.Now()) {
			return nil, errors.New("session expired. Run 'roombooking login' to sign in again")
		}
	}
	return &session{api: api, login: login}, nil
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session token",
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
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}

			s, err := openSession(opts, false)
			if err != nil {
				return err
			}
			result, err := s.api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := saveLogin(&savedLogin{
				Server:    s.api.BaseURL,
				Token:     result.Token,
				ExpiresAt: result.ExpiresAt,
				Email:     result.User.Email,
			}); err != nil {
				return err
			}
			if opts.outputJSON {
				return writeJSON(cmd.OutOrStdout(), result.User)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s(으)로 로그인했습니다\n", result.User.DisplayName)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts, false)
			if err != nil {
				return err
			}
			if s.api.Token != "" {
				// An already invalid session is still cleared locally.
				if err := s.api.Logout(cmd.Context()); err != nil && !client.IsCode(err, client.CodeUnauthorized) {
					return err
				}
			}
			if err := clearLogin(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "로그아웃했습니다")
			return nil
		},
	}
}

// searchFlags binds the availability filter shared by rooms and book.
type searchFlags struct {
	date      string
	start     string
	end       string
	attendees int
	equipment []string
	floor     int
}

func (f *searchFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "Date (YYYY-MM-DD, today or tomorrow)")
	cmd.Flags().StringVar(&f.start, "start", "", "Start time HH:MM")
	cmd.Flags().StringVar(&f.end, "end", "", "End time HH:MM")
	cmd.Flags().IntVar(&f.attendees, "attendees", 0, "Number of attendees")
	cmd.Flags().StringSliceVar(&f.equipment, "equipment", nil, "Required equipment (tv,whiteboard,video)")
	cmd.Flags().IntVar(&f.floor, "floor", 0, "Preferred floor")
	for _, name := range []string{"start", "end"} {
		_ = cmd.RegisterFlagCompletionFunc(name, completeTimeSlots)
	}
}

// narrowed reports whether a filter other than the time window was given.
func (f *searchFlags) narrowed(cmd *cobra.Command) bool {
	for _, name := range []string{"date", "attendees", "equipment", "floor"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// completeTimeSlots offers the 30-minute booking grid for time flags.
func completeTimeSlots(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, slot := range scheduler.TimeSlots() {
		if strings.HasPrefix(slot, toComplete) {
			out = append(out, slot)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func (f *searchFlags) preferredFloor(cmd *cobra.Command) *int {
	if !cmd.Flags().Changed("floor") {
		return nil
	}
	floor := f.floor
	return &floor
}

func newRoomsCmd(opts *rootOptions) *cobra.Command {
	var filter searchFlags

	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List rooms, or those free for a window when --start and --end are set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filter.start == "" && filter.end == "" && filter.narrowed(cmd) {
				return errors.New("--start and --end are required to filter rooms")
			}
			s, err := openSession(opts, true)
			if err != nil {
				return err
			}

			var rooms []client.Room
			if filter.start == "" && filter.end == "" {
				rooms, err = s.api.ListRooms(cmd.Context())
			} else {
				date, derr := parseDateInput(filter.date, time.Now())
				if derr != nil {
					return derr
				}
				rooms, err = s.api.SearchRooms(cmd.Context(), client.SearchQuery{
					Date:      date,
					Start:     filter.start,
					End:       filter.end,
					Attendees: filter.attendees,
					Equipment: filter.equipment,
					Floor:     filter.preferredFloor(cmd),
				})
			}
			if err != nil {
				return err
			}
			if opts.outputJSON {
				return writeJSON(cmd.OutOrStdout(), rooms)
			}
			return printRooms(cmd.OutOrStdout(), rooms)
		},
	}
	filter.bind(cmd)
	return cmd
}

func newReservationsCmd(opts *rootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "reservations",
		Short: "Show every room's bookings on a date as a timeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDateInput(date, time.Now())
			if err != nil {
				return err
			}
			s, err := openSession(opts, true)
			if err != nil {
				return err
			}
			reservations, err := s.api.ListReservations(cmd.Context(), day)
			if err != nil {
				return err
			}
			if opts.outputJSON {
				return writeJSON(cmd.OutOrStdout(), reservations)
			}
			rooms, err := s.api.ListRooms(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), day)
			printTimeline(cmd.OutOrStdout(), rooms, reservations)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "today", "Date (YYYY-MM-DD, today or tomorrow)")
	return cmd
}

func newMineCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your reservations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts, true)
			if err != nil {
				return err
			}
			reservations, err := s.api.MyReservations(cmd.Context())
			if err != nil {
				return err
			}
			if opts.outputJSON {
				return writeJSON(cmd.OutOrStdout(), reservations)
			}
			return printReservations(cmd.OutOrStdout(), reservations)
		},
	}
}

func newCancelCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <reservation-id>",
		Short: "Cancel a reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts, true)
			if err != nil {
				return err
			}
			if err := s.api.CancelReservation(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "예약 %s 을(를) 취소했습니다\n", args[0])
			return nil
		},
	}
}

func newBookCmd(opts *rootOptions) *cobra.Command {
	var (
		form     searchFlags
		roomID   string
		pickSlot int
		pickRoom string
	)

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a room, offering alternatives when the window is taken",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateInput(form.date, time.Now())
			if err != nil {
				return err
			}
			s, err := openSession(opts, true)
			if err != nil {
				return err
			}

			attempt := client.NewAttempt(s.api, client.Form{
				RoomID:         roomID,
				Date:           date,
				Start:          form.start,
				End:            form.end,
				Attendees:      form.attendees,
				Equipment:      form.equipment,
				PreferredFloor: form.preferredFloor(cmd),
			})

			chooser := flagChooser(pickSlot, pickRoom)
			if pickSlot == 0 && pickRoom == "" && isTerminal(cmd.InOrStdin()) {
				chooser = promptChooser(cmd.InOrStdin(), cmd.OutOrStdout())
			}

			reservation, err := runBooking(cmd.Context(), attempt, cmd.OutOrStdout(), chooser)
			if err != nil {
				return err
			}
			if opts.outputJSON {
				return writeJSON(cmd.OutOrStdout(), reservation)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "예약되었습니다: %s %s %s-%s (%s)\n",
				reservation.RoomID, reservation.Date, reservation.Start, reservation.End, reservation.ID)
			return nil
		},
	}
	form.bind(cmd)
	cmd.Flags().StringVar(&roomID, "room", "", "Room ID")
	cmd.Flags().IntVar(&pickSlot, "pick-slot", 0, "On conflict, take the Nth alternative time slot")
	cmd.Flags().StringVar(&pickRoom, "pick-room", "", "On conflict, move to this alternative room")
	return cmd
}

// chooser picks a recovery from the alternatives menu. ok=false aborts.
type chooser func(alt client.Alternatives) (slot *client.Slot, roomID string, ok bool)

// runBooking submits the attempt and, after a conflict, lets choose pick one
// alternative before submitting exactly once more.
func runBooking(ctx context.Context, attempt *client.Attempt, out io.Writer, choose chooser) (client.Reservation, error) {
	reservation, err := attempt.Submit(ctx)
	if err == nil {
		return reservation, nil
	}
	if attempt.State() != client.StateConflict {
		return client.Reservation{}, err
	}

	fmt.Fprintln(out, err.Error())
	alt := attempt.Alternatives()
	printAlternatives(out, alt)
	if alt.Empty() || choose == nil {
		return client.Reservation{}, err
	}

	slot, roomID, ok := choose(alt)
	if !ok {
		return client.Reservation{}, err
	}
	switch {
	case slot != nil:
		attempt.SelectSlot(*slot)
	case roomID != "":
		attempt.SelectRoom(roomID)
	}
	return attempt.Submit(ctx)
}

func flagChooser(pickSlot int, pickRoom string) chooser {
	if pickSlot == 0 && pickRoom == "" {
		return nil
	}
	return func(alt client.Alternatives) (*client.Slot, string, bool) {
		if pickSlot > 0 {
			if pickSlot > len(alt.Slots) {
				return nil, "", false
			}
			slot := alt.Slots[pickSlot-1]
			return &slot, "", true
		}
		for _, room := range alt.Rooms {
			if room.ID == pickRoom {
				return nil, room.ID, true
			}
		}
		return nil, "", false
	}
}

func promptChooser(in io.Reader, out io.Writer) chooser {
	return func(alt client.Alternatives) (*client.Slot, string, bool) {
		answer, err := prompt(in, out, "번호 또는 회의실 ID를 입력하세요 (취소: Enter): ")
		if err != nil || answer == "" {
			return nil, "", false
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(alt.Slots) {
			slot := alt.Slots[n-1]
			return &slot, "", true
		}
		for _, room := range alt.Rooms {
			if strings.EqualFold(room.ID, answer) {
				return nil, room.ID, true
			}
		}
		return nil, "", false
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

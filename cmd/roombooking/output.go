package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/example/room-booking/internal/client"
	"github.com/example/room-booking/internal/scheduler"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseDateInput accepts today, tomorrow or YYYY-MM-DD.
func parseDateInput(input string, now time.Time) (string, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "today":
		return now.Format("2006-01-02"), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format("2006-01-02"), nil
	}
	parsed, err := time.Parse("2006-01-02", input)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD, today or tomorrow)", input)
	}
	return parsed.Format("2006-01-02"), nil
}

func printRooms(w io.Writer, rooms []client.Room) error {
	t := newTable(w)
	fmt.Fprintln(t, "ID\tNAME\tFLOOR\tCAPACITY\tEQUIPMENT")
	for _, r := range rooms {
		fmt.Fprintf(t, "%s\t%s\t%d\t%d\t%s\n", r.ID, r.Name, r.Floor, r.Capacity, strings.Join(r.Equipment, ","))
	}
	return t.Flush()
}

func printReservations(w io.Writer, reservations []client.Reservation) error {
	if len(reservations) == 0 {
		fmt.Fprintln(w, "예약이 없습니다")
		return nil
	}
	t := newTable(w)
	fmt.Fprintln(t, "ID\tROOM\tDATE\tTIME\tATTENDEES\tUSER")
	for _, r := range reservations {
		fmt.Fprintf(t, "%s\t%s\t%s\t%s-%s\t%d\t%s\n", r.ID, r.RoomID, r.Date, r.Start, r.End, r.Attendees, r.UserID)
	}
	return t.Flush()
}

// printTimeline renders one block per room for a single day: the booked
// windows and a bar over the 30-minute grid, or "예약 없음".
func printTimeline(w io.Writer, rooms []client.Room, reservations []client.Reservation) {
	byRoom := make(map[string][]client.Reservation)
	for _, r := range reservations {
		byRoom[r.RoomID] = append(byRoom[r.RoomID], r)
	}
	known := make(map[string]bool, len(rooms))
	for _, room := range rooms {
		known[room.ID] = true
	}
	for _, r := range reservations {
		if !known[r.RoomID] {
			known[r.RoomID] = true
			rooms = append(rooms, client.Room{ID: r.RoomID, Name: r.RoomID})
		}
	}

	for _, room := range rooms {
		booked := byRoom[room.ID]
		sort.SliceStable(booked, func(i, j int) bool { return booked[i].Start < booked[j].Start })

		fmt.Fprintf(w, "%s (%s)\n", room.Name, room.ID)
		if len(booked) == 0 {
			fmt.Fprintln(w, "  예약 없음")
			continue
		}
		fmt.Fprintf(w, "  %s\n", timelineBar(booked))
		for _, r := range booked {
			fmt.Fprintf(w, "  %s-%s  %s  %d명\n", r.Start, r.End, r.UserID, r.Attendees)
		}
	}
	fmt.Fprintln(w, "# 예약됨")
}

// timelineBar marks each grid cell between consecutive TimeSlots entries
// with '#' when a reservation overlaps it and '.' otherwise.
func timelineBar(reservations []client.Reservation) string {
	var windows []scheduler.Interval
	for _, r := range reservations {
		if window, err := scheduler.ParseInterval(r.Start, r.End); err == nil {
			windows = append(windows, window)
		}
	}

	slots := scheduler.TimeSlots()
	var b strings.Builder
	b.WriteString(slots[0] + " |")
	for i := 0; i+1 < len(slots); i++ {
		cell, _ := scheduler.ParseInterval(slots[i], slots[i+1])
		mark := byte('.')
		for _, window := range windows {
			if window.Overlaps(cell) {
				mark = '#'
				break
			}
		}
		b.WriteByte(mark)
	}
	b.WriteString("| " + slots[len(slots)-1])
	return b.String()
}

func printAlternatives(w io.Writer, alt client.Alternatives) {
	if alt.Empty() {
		fmt.Fprintln(w, "대체 가능한 시간이나 회의실이 없습니다")
		return
	}
	if len(alt.Slots) > 0 {
		fmt.Fprintln(w, "같은 회의실의 다른 시간:")
		for i, slot := range alt.Slots {
			fmt.Fprintf(w, "  [%d] %s-%s\n", i+1, slot.Start, slot.End)
		}
	}
	if len(alt.Rooms) > 0 {
		fmt.Fprintln(w, "같은 시간의 다른 회의실:")
		for _, room := range alt.Rooms {
			fmt.Fprintf(w, "  %s %s (%d층, %d명)\n", room.ID, room.Name, room.Floor, room.Capacity)
		}
	}
}

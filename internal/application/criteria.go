package application

import (
	"strings"
	"time"

	"github.com/example/room-booking/internal/scheduler"
)

const dateLayout = "2006-01-02"

const (
	msgRoomRequired      = "회의실을 선택해주세요"
	msgRoomUnknown       = "존재하지 않는 회의실입니다"
	msgDateInvalid       = "날짜는 YYYY-MM-DD 형식이어야 합니다"
	msgTimeInvalid       = "시간은 HH:MM 형식이어야 합니다"
	msgEndBeforeStart    = "종료 시간은 시작 시간보다 늦어야 합니다"
	msgOutsideWindow     = "예약 가능 시간은 09:00부터 20:00까지입니다"
	msgAttendeesTooFew   = "참석 인원은 1명 이상이어야 합니다"
	msgAttendeesNegative = "참석 인원은 0명 이상이어야 합니다"
	msgCapacityExceeded  = "회의실 수용 인원을 초과했습니다"
	msgEquipmentUnknown  = "알 수 없는 장비가 포함되어 있습니다"
	msgEquipmentMissing  = "회의실에 필요한 장비가 없습니다"
	msgRoomNameRequired  = "회의실 이름을 입력해주세요"
	msgCapacityInvalid   = "수용 인원은 1명 이상이어야 합니다"
)

// ValidDate reports whether value is a calendar date in YYYY-MM-DD form.
func ValidDate(value string) bool {
	_, err := time.Parse(dateLayout, value)
	return err == nil
}

// buildCriteria validates a search request and converts it into scheduler criteria
// with canonical HH:MM times. minAttendees is the smallest acceptable head count.
func buildCriteria(params SearchParams, minAttendees int) (scheduler.Criteria, *ValidationError) {
	vErr := &ValidationError{}

	date := strings.TrimSpace(params.Date)
	if !ValidDate(date) {
		vErr.add("date", msgDateInvalid)
	}

	start, startErr := scheduler.NormalizeTime(params.Start)
	if startErr != nil {
		vErr.add("start", msgTimeInvalid)
	}
	end, endErr := scheduler.NormalizeTime(params.End)
	if endErr != nil {
		vErr.add("end", msgTimeInvalid)
	}
	if startErr == nil && endErr == nil {
		window, _ := scheduler.ParseInterval(start, end)
		switch {
		case window.End <= window.Start:
			vErr.add("end", msgEndBeforeStart)
		case window.Start < scheduler.DayStart || window.End > scheduler.DayEnd:
			vErr.add("start", msgOutsideWindow)
		}
	}

	if params.Attendees < minAttendees {
		if minAttendees > 0 {
			vErr.add("attendees", msgAttendeesTooFew)
		} else {
			vErr.add("attendees", msgAttendeesNegative)
		}
	}

	equipment, err := scheduler.ParseEquipmentList(params.Equipment)
	if err != nil {
		vErr.add("equipment", msgEquipmentUnknown)
	}

	return scheduler.Criteria{
		Date:           date,
		Start:          start,
		End:            end,
		Attendees:      params.Attendees,
		Equipment:      equipment,
		PreferredFloor: params.PreferredFloor,
	}, vErr
}

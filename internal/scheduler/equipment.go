package scheduler

import (
	"fmt"
	"sort"
	"strings"
)

// Equipment is a kind of meeting room equipment.
type Equipment string

const (
	EquipmentTV         Equipment = "tv"
	EquipmentWhiteboard Equipment = "whiteboard"
	EquipmentVideo      Equipment = "video"
	EquipmentSpeaker    Equipment = "speaker"
)

var equipmentLabels = map[Equipment]string{
	EquipmentTV:         "TV",
	EquipmentWhiteboard: "화이트보드",
	EquipmentVideo:      "화상회의",
	EquipmentSpeaker:    "스피커",
}

// AllEquipment lists every known equipment kind in display order.
func AllEquipment() []Equipment {
	return []Equipment{EquipmentTV, EquipmentWhiteboard, EquipmentVideo, EquipmentSpeaker}
}

// Valid reports whether e is a known equipment kind.
func (e Equipment) Valid() bool {
	_, ok := equipmentLabels[e]
	return ok
}

// Label returns the display label for e, or the raw value when unknown.
func (e Equipment) Label() string {
	if label, ok := equipmentLabels[e]; ok {
		return label
	}
	return string(e)
}

// ParseEquipment converts a raw value into a known Equipment.
func ParseEquipment(value string) (Equipment, error) {
	e := Equipment(strings.ToLower(strings.TrimSpace(value)))
	if !e.Valid() {
		return "", fmt.Errorf("unknown equipment %q", value)
	}
	return e, nil
}

// EquipmentSet is an unordered set of equipment kinds.
type EquipmentSet map[Equipment]struct{}

// NewEquipmentSet builds a set from the given kinds, dropping duplicates.
func NewEquipmentSet(items ...Equipment) EquipmentSet {
	set := make(EquipmentSet, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// ParseEquipmentList parses raw values into a set, failing on the first unknown kind.
func ParseEquipmentList(values []string) (EquipmentSet, error) {
	set := make(EquipmentSet, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		e, err := ParseEquipment(value)
		if err != nil {
			return nil, err
		}
		set[e] = struct{}{}
	}
	return set, nil
}

// Has reports whether e is in the set.
func (s EquipmentSet) Has(e Equipment) bool {
	_, ok := s[e]
	return ok
}

// Contains reports whether every element of required is present in s.
func (s EquipmentSet) Contains(required EquipmentSet) bool {
	for e := range required {
		if !s.Has(e) {
			return false
		}
	}
	return true
}

// Slice returns the set members sorted by their canonical order.
func (s EquipmentSet) Slice() []Equipment {
	out := make([]Equipment, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	order := make(map[Equipment]int, len(equipmentLabels))
	for i, e := range AllEquipment() {
		order[e] = i
	}
	sort.Slice(out, func(i, j int) bool {
		oi, iok := order[out[i]]
		oj, jok := order[out[j]]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return out[i] < out[j]
	})
	return out
}

// Strings returns the set members as raw values in canonical order.
func (s EquipmentSet) Strings() []string {
	items := s.Slice()
	out := make([]string, len(items))
	for i, e := range items {
		out[i] = string(e)
	}
	return out
}

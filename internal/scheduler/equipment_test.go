package scheduler

import "testing"

func TestParseEquipmentList(t *testing.T) {
	set, err := ParseEquipmentList([]string{"Video", " tv ", "tv", ""})
	if err != nil {
		t.Fatalf("ParseEquipmentList error = %v", err)
	}
	got := set.Strings()
	if len(got) != 2 || got[0] != "tv" || got[1] != "video" {
		t.Fatalf("unexpected set: %v", got)
	}

	if _, err := ParseEquipmentList([]string{"projector"}); err == nil {
		t.Fatal("expected error for unknown equipment")
	}
}

func TestEquipmentLabels(t *testing.T) {
	want := map[Equipment]string{
		EquipmentTV:         "TV",
		EquipmentWhiteboard: "화이트보드",
		EquipmentVideo:      "화상회의",
		EquipmentSpeaker:    "스피커",
	}
	for e, label := range want {
		if e.Label() != label {
			t.Fatalf("%s label = %q, want %q", e, e.Label(), label)
		}
	}
	if Equipment("laser").Label() != "laser" {
		t.Fatal("unknown equipment should fall back to its raw value")
	}
}

func TestEquipmentSetContains(t *testing.T) {
	room := NewEquipmentSet(EquipmentTV, EquipmentWhiteboard)
	if !room.Contains(nil) {
		t.Fatal("every set contains the empty requirement")
	}
	if !room.Contains(NewEquipmentSet(EquipmentTV)) {
		t.Fatal("expected subset to be contained")
	}
	if room.Contains(NewEquipmentSet(EquipmentTV, EquipmentSpeaker)) {
		t.Fatal("expected missing speaker to fail containment")
	}
}

package models

import (
	"testing"
)

func TestMinPointsFor(t *testing.T) {
	tests := []struct {
		level   Level
		want    int64
		wantErr bool
	}{
		{level: LevelA, want: 2000},
		{level: LevelB, want: 1500},
		{level: LevelC, want: 800},
		{level: LevelD, want: 0},
		{level: Level("E"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			got, err := MinPointsFor(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MinPointsFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("MinPointsFor(%s) = %d, want %d", tt.level, got, tt.want)
			}
		})
	}
}

func TestLevelPolicyMatchesMinPointsFor(t *testing.T) {
	for _, l := range Levels() {
		threshold, err := MinPointsFor(l)
		if err != nil {
			t.Fatalf("MinPointsFor(%s) error = %v", l, err)
		}
		if l.Policy().MinPoints != threshold {
			t.Errorf("Policy().MinPoints = %d, MinPointsFor = %d for level %s", l.Policy().MinPoints, threshold, l)
		}
		if l.Policy().Label == "" {
			t.Errorf("level %s has no label", l)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{input: "A", want: LevelA},
		{input: " c ", want: LevelC},
		{input: "d", want: LevelD},
		{input: "ALL", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTerrain(t *testing.T) {
	tests := []struct {
		input   string
		want    Terrain
		wantErr bool
	}{
		{input: "Mountains", want: TerrainMountains},
		{input: "beach", want: TerrainBeach},
		{input: " URBAN ", want: TerrainUrban},
		{input: "Desert", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTerrain(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTerrain(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTerrain(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	if len(Terrains()) != 5 {
		t.Errorf("len(Terrains()) = %d, want 5", len(Terrains()))
	}
}

func TestRide_Capacity(t *testing.T) {
	tests := []struct {
		name      string
		ride      Ride
		wantFull  bool
		wantSpots int
	}{
		{name: "Room left", ride: Ride{MaxRiders: 10, CurrentRiders: 8}, wantFull: false, wantSpots: 2},
		{name: "Exactly full", ride: Ride{MaxRiders: 10, CurrentRiders: 10}, wantFull: true, wantSpots: 0},
		{name: "Over capacity", ride: Ride{MaxRiders: 10, CurrentRiders: 12}, wantFull: true, wantSpots: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ride.IsFull(); got != tt.wantFull {
				t.Errorf("IsFull() = %v, want %v", got, tt.wantFull)
			}
			if got := tt.ride.SpotsLeft(); got != tt.wantSpots {
				t.Errorf("SpotsLeft() = %d, want %d", got, tt.wantSpots)
			}
		})
	}
}

func TestRide_BeforeSave(t *testing.T) {
	valid := Ride{Level: LevelC, Terrain: TerrainBeach, MaxRiders: 30, CurrentRiders: 22}

	tests := []struct {
		name    string
		mutate  func(r *Ride)
		wantErr bool
	}{
		{name: "Valid", mutate: func(r *Ride) {}, wantErr: false},
		{name: "Unknown level", mutate: func(r *Ride) { r.Level = "Z" }, wantErr: true},
		{name: "Unknown terrain", mutate: func(r *Ride) { r.Terrain = "Desert" }, wantErr: true},
		{name: "No capacity", mutate: func(r *Ride) { r.MaxRiders = 0; r.CurrentRiders = 0 }, wantErr: true},
		{name: "Negative riders", mutate: func(r *Ride) { r.CurrentRiders = -1 }, wantErr: true},
		{name: "Over capacity", mutate: func(r *Ride) { r.CurrentRiders = 31 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ride := valid
			tt.mutate(&ride)
			err := ride.BeforeSave(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("BeforeSave() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGroup_BeforeSave(t *testing.T) {
	tests := []struct {
		name    string
		group   Group
		wantErr bool
	}{
		{name: "Valid", group: Group{Name: "SoCal Canyons", Code: "CANYON", MemberCount: 142}, wantErr: false},
		{name: "Lowercase code", group: Group{Name: "SoCal Canyons", Code: "canyon"}, wantErr: true},
		{name: "Missing code", group: Group{Name: "SoCal Canyons"}, wantErr: true},
		{name: "Negative members", group: Group{Name: "X", Code: "X1", MemberCount: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.group.BeforeSave(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("BeforeSave() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

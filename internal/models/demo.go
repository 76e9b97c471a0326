package models

// Demo club used when SEED_DEMO_DATA is on. The admins are placeholder
// accounts that no Telegram user maps to.

func DemoGroups() []Group {
	return []Group{
		{
			ID:          "g1",
			Name:        "SoCal Canyons",
			Description: "Dedicated to the twistiest roads in Southern California. Sport bikes preferred.",
			Image:       "https://images.unsplash.com/photo-1558981806-ec527fa84c3d?q=80&w=800&auto=format&fit=crop",
			Code:        "CANYON",
			IsPrivate:   false,
			MemberCount: 142,
			AdminID:     "admin1",
		},
		{
			ID:          "g2",
			Name:        "Midnight Runners",
			Description: "Late night highway runs. Fast pace. Private group only.",
			Image:       "https://images.unsplash.com/photo-1625043484555-47841a75023e?q=80&w=800&auto=format&fit=crop",
			Code:        "NIGHT1",
			IsPrivate:   true,
			MemberCount: 24,
			AdminID:     "admin2",
		},
		{
			ID:          "g3",
			Name:        "Weekend Cruisers",
			Description: "Chill rides, coffee stops, good vibes. All skill levels welcome.",
			Image:       "https://images.unsplash.com/photo-1558980664-2506fca6bfc2?q=80&w=800&auto=format&fit=crop",
			Code:        "COFFEE",
			IsPrivate:   false,
			MemberCount: 350,
			AdminID:     "admin3",
		},
	}
}

// DemoRides returns the demo schedule. Thresholds come from the level policy.
func DemoRides() []Ride {
	rides := []Ride{
		{
			ID:            "r1",
			GroupID:       "g1",
			Title:         "Mulholland Snake",
			Description:   "Aggressive sport ride through the twisties. Full leathers required.",
			Date:          "2023-11-15",
			Time:          "07:00",
			Distance:      45,
			Elevation:     4500,
			Level:         LevelA,
			Terrain:       TerrainMountains,
			MaxRiders:     10,
			CurrentRiders: 8,
			LeaderName:    "Sarah Speed",
			MarshallName:  "Dave Ducati",
			TailName:      "Ben BMW",
		},
		{
			ID:            "r2",
			GroupID:       "g3",
			Title:         "PCH Breakfast Run",
			Description:   "Relaxed scenic ride along the coast. Open to all bike types.",
			Date:          "2023-11-18",
			Time:          "09:00",
			Distance:      60,
			Elevation:     500,
			Level:         LevelC,
			Terrain:       TerrainBeach,
			MaxRiders:     30,
			CurrentRiders: 22,
			LeaderName:    "Mike Harley",
			TailName:      "Lucy Lane",
		},
		{
			ID:            "r3",
			GroupID:       "g2",
			Title:         "Loop 405 Express",
			Description:   "Fast paced highway run. Stagger formation strict.",
			Date:          "2023-11-22",
			Time:          "23:30",
			Distance:      60,
			Elevation:     200,
			Level:         LevelA,
			Terrain:       TerrainHighway,
			MaxRiders:     15,
			CurrentRiders: 12,
			LeaderName:    "Tom Turbo",
		},
	}
	for i := range rides {
		rides[i].MinPoints, _ = MinPointsFor(rides[i].Level)
		rides[i].RouteImage = "https://picsum.photos/seed/" + rides[i].ID + "/800/300"
	}
	return rides
}

package tryon

import "ms-tryon/internal/models"

// DefaultCatalog is the festival reference data seeded when the durable
// store holds no snapshot yet.
func DefaultCatalog() []models.Festival {
	return []models.Festival{
		{
			ID:              "bangkok-kiz-2024",
			Name:            "Bangkok Kiz Festival 2024",
			Dates:           "15-17 Nov 2024",
			Location:        "Centara Grand at CentralWorld",
			City:            "Bangkok",
			Country:         "Thailand",
			Available:       true,
			PiecesAvailable: 24,
			Description:     "Three nights of kizomba and urban kiz. Try-on booth next to the main ballroom.",
		},
		{
			ID:              "saigon-urban-kiz-2025",
			Name:            "Saigon Urban Kiz Weekend 2025",
			Dates:           "21-23 Feb 2025",
			Location:        "Rex Hotel",
			City:            "Ho Chi Minh City",
			Country:         "Vietnam",
			Available:       true,
			PiecesAvailable: 18,
		},
		{
			ID:              "singapore-kizomba-2025",
			Name:            "Singapore Kizomba Congress 2025",
			Dates:           "9-11 May 2025",
			Location:        "Marina Bay Sands Expo",
			City:            "Singapore",
			Country:         "Singapore",
			Available:       true,
			PiecesAvailable: 30,
			Description:     "Pickup desk opens one hour before the first workshop.",
		},
		{
			ID:              "tokyo-kiz-2024",
			Name:            "Tokyo Kiz Marathon 2024",
			Dates:           "6-8 Sep 2024",
			Location:        "Shibuya Stream Hall",
			City:            "Tokyo",
			Country:         "Japan",
			Available:       false,
			PiecesAvailable: 0,
		},
	}
}

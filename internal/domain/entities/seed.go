package entities

// Seed data written to the data directory the first time a file is read.
// Each function returns a fresh copy so callers may mutate the result.

func price(v float64) *float64 { return &v }

func SeedArtworks() []Artwork {
	return []Artwork{
		{
			ID:       "w001",
			Title:    "The Light is Gold",
			Price:    23500,
			Size:     "80 × 80 cm",
			Medium:   "Acrylic with gold leaf on canvas",
			Status:   ArtworkStatusAvailable,
			Category: "Paintings",
			Images:   []string{"/images/WhatsApp Image 2025-07-15 at 13.38.43 (1).jpeg"},
		},
		{
			ID:            "w002",
			Title:         "Quiet Strength",
			Price:         17000,
			Size:          "75 × 60 cm",
			Medium:        "Oil on canvas",
			Status:        ArtworkStatusSold,
			Category:      "Paintings",
			Images:        []string{"/images/WhatsApp Image 2025-07-15 at 13.41.05.jpeg"},
			SoldDate:      "2024-12-15",
			SoldPrice:     price(17000),
			CustomerName:  "John Smith",
			CustomerEmail: "john.smith@email.com",
			SaleNotes:     "Purchased with premium frame",
		},
		{
			ID:            "w003",
			Title:         "Ocean Dreams",
			Price:         19500,
			Size:          "90 × 70 cm",
			Medium:        "Mixed media on canvas",
			Status:        ArtworkStatusSold,
			Category:      "Mixed Media",
			Images:        []string{"/images/WhatsApp Image 2025-07-15 at 13.43.37.jpeg"},
			SoldDate:      "2024-11-28",
			SoldPrice:     price(20500),
			CustomerName:  "Sarah Johnson",
			CustomerEmail: "sarah.j@gmail.com",
			SaleNotes:     "Commissioned piece, includes custom frame",
		},
	}
}

func SeedSales() []Sale {
	return []Sale{
		{
			ID:             "sale001",
			ArtworkID:      "w002",
			ArtworkTitle:   "Quiet Strength",
			SaleDate:       "2024-12-15",
			OriginalPrice:  17000,
			SalePrice:      17000,
			CustomerName:   "John Smith",
			CustomerEmail:  "john.smith@email.com",
			CustomerPhone:  "+27 11 123 4567",
			PaymentMethod:  "Bank Transfer",
			DeliveryMethod: "Collection",
			Notes:          "Purchased with premium frame",
			Status:         SaleStatusCompleted,
		},
		{
			ID:             "sale002",
			ArtworkID:      "w003",
			ArtworkTitle:   "Ocean Dreams",
			SaleDate:       "2024-11-28",
			OriginalPrice:  19500,
			SalePrice:      20500,
			CustomerName:   "Sarah Johnson",
			CustomerEmail:  "sarah.j@gmail.com",
			CustomerPhone:  "+27 82 987 6543",
			PaymentMethod:  "Card Payment",
			DeliveryMethod: "Delivery",
			Notes:          "Commissioned piece, includes custom frame",
			Status:         SaleStatusCompleted,
		},
	}
}

func SeedContacts() []ContactMessage {
	return []ContactMessage{
		{
			ID:        "contact001",
			Type:      ContactTypeGeneral,
			Name:      "Emma Wilson",
			Email:     "emma.wilson@email.com",
			Phone:     "+27 11 555 0123",
			Message:   "I'm interested in learning more about your artistic process and upcoming exhibitions.",
			Timestamp: "2024-12-10T14:30:00Z",
			Status:    ContactStatusNew,
		},
		{
			ID:                 "contact002",
			Type:               ContactTypePurchaseInquiry,
			Name:               "Michael Chen",
			Email:              "m.chen@gmail.com",
			Phone:              "+27 82 456 7890",
			Message:            "I'm interested in purchasing 'The Light is Gold'. Could you provide more details about framing options?",
			Timestamp:          "2024-12-08T09:15:00Z",
			Status:             ContactStatusRead,
			ArtworkIDs:         []string{"w001"},
			TotalAmount:        price(23500),
			DeliveryPreference: "Collection",
			SpecialRequests:    "Would like to see it in person first",
		},
	}
}

func SeedHeroSlides() []HeroSlide {
	return []HeroSlide{
		{
			ID:       "h1",
			Image:    "/images/WhatsApp Image 2025-07-15 at 13.38.43 (1).jpeg",
			Headline: "Bekker Fine Art",
			Sub:      "Contemporary abstract works & pottery — crafted with heart.",
			CTA:      "View Gallery",
			CTALink:  "#gallery",
		},
		{
			ID:       "h2",
			Image:    "/images/WhatsApp Image 2025-07-15 at 13.38.18.jpeg",
			Headline: "Original Artwork",
			Sub:      "Each piece is a meditation on transformation and truth.",
			CTA:      "Explore Originals",
			CTALink:  "#gallery",
		},
	}
}

func SeedContent() Content {
	return Content{
		Gallery: GallerySection{
			Title:       "Gallery",
			Description: "Mixed order of sold & available works as requested. Use the filters to browse.",
		},
		About: AboutSection{
			Title:    "Stefan Bekker",
			Subtitle: "Meet the Artist",
			Description: "Award-winning chef Stefan Bekker escapes career stress through emotional art that speaks to our internal selves.\n\n" +
				"With years of experience crafting edible art, Stefan brings the same passion and attention to detail to his abstract works. " +
				"Each piece is a meditation on transformation and the courage to start again.\n\n" +
				"From the kitchen to the canvas, every creation tells a story of resilience, beauty, and the endless pursuit of authentic expression.",
			ArtistImage: "/images/stefan.jpeg",
		},
		Contact: ContactSection{
			Title:       "Get in touch",
			Description: "For commissions, studio visits, or purchase enquiries, send a message. We aim to respond within 24 hours.",
			Phone:       "+27 11 083 9898",
			Email:       "info@bekkerfineart.co.za",
			Instagram:   "@bekkerfineart",
		},
	}
}

func SeedCollage() Collage {
	return Collage{
		Title:       "A glance at the work",
		Description: "A mosaic of recent paintings and ceramic pieces. Each work tells a story, arranged as a living collage.",
		Images: []string{
			"/images/WhatsApp Image 2025-07-15 at 13.38.18.jpeg",
			"/images/WhatsApp Image 2025-07-15 at 13.38.43 (1).jpeg",
			"/images/WhatsApp Image 2025-07-15 at 13.41.05.jpeg",
			"/images/WhatsApp Image 2025-07-15 at 13.43.37.jpeg",
			"/images/WhatsApp Image 2025-07-15 at 13.53.01.jpeg",
			"/images/WhatsApp Image 2025-07-15 at 13.53.02.jpeg",
		},
	}
}

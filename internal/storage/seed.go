package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Humphrey-He/prodcat/internal/model"
)

// SeedProducts is the starter catalog written into an empty store.
func SeedProducts() []model.Product {
	item := func(name, description, price string, inventory int, category string) model.Product {
		return model.Product{
			Name:        name,
			Description: description,
			Price:       decimal.RequireFromString(price),
			Inventory:   inventory,
			Category:    category,
			Active:      true,
		}
	}
	return []model.Product{
		item("Widget", "Nice widget", "19.99", 100, "Gadgets"),
		item("Cable", "Cat6 ethernet cable 2m", "5.00", 250, "Networking"),
		item("Mouse", "Ergonomic optical mouse", "14.50", 80, "Peripherals"),
		item("Keyboard", "Compact mechanical keyboard", "59.00", 40, "Peripherals"),
		item("Monitor", "24-inch IPS monitor", "129.99", 15, "Displays"),
		item("USB Hub", "4-port USB 3.0 hub", "17.95", 60, "Peripherals"),
		item("SSD", "512GB SATA SSD", "49.99", 35, "Storage"),
		item("HDMI Cable", "High-speed HDMI cable 1.5m", "6.50", 120, "Cables"),
		item("Webcam", "1080p USB webcam", "39.00", 25, "Peripherals"),
		item("Headset", "Stereo headset with mic", "29.90", 30, "Audio"),
	}
}

// Seed writes SeedProducts into s unless it already holds products.
func Seed(ctx context.Context, s ProductStore) error {
	existing, err := s.List(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, p := range SeedProducts() {
		if _, err := s.Create(ctx, p); err != nil {
			return fmt.Errorf("seed %q: %w", p.Name, err)
		}
	}
	return nil
}

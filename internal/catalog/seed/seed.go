// Package seed loads the catalog and user seed file.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type File struct {
	Products []Product `yaml:"products"`
	Users    []User    `yaml:"users"`
}

type Product struct {
	SKU           string `yaml:"sku"`
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	Category      string `yaml:"category"`
	PriceCents    int64  `yaml:"price_cents"`
	StockQuantity int    `yaml:"stock_quantity"`
	// Inactive products are kept for history but never matched.
	Inactive bool `yaml:"inactive"`
}

type User struct {
	PhoneNumber string `yaml:"phone_number"`
	Name        string `yaml:"name"`
	Email       string `yaml:"email"`
	Role        string `yaml:"role"`
	Department  string `yaml:"department"`
	Inactive    bool   `yaml:"inactive"`
}

// Default returns the embedded seed.
func Default() (File, error) {
	return Parse(defaultSeed)
}

// Load reads a seed file from disk. An empty path loads the embedded default.
func Load(path string) (File, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates seed YAML.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("decode seed: %w", err)
	}

	skus := make(map[string]struct{}, len(f.Products))
	for i, p := range f.Products {
		if strings.TrimSpace(p.SKU) == "" || strings.TrimSpace(p.Name) == "" {
			return File{}, fmt.Errorf("product %d: sku and name are required", i)
		}
		if p.PriceCents < 0 || p.StockQuantity < 0 {
			return File{}, fmt.Errorf("product %s: price and stock must not be negative", p.SKU)
		}
		if _, dup := skus[p.SKU]; dup {
			return File{}, fmt.Errorf("product %s: duplicate sku", p.SKU)
		}
		skus[p.SKU] = struct{}{}
	}
	for i, u := range f.Users {
		if strings.TrimSpace(u.PhoneNumber) == "" || strings.TrimSpace(u.Name) == "" {
			return File{}, fmt.Errorf("user %d: phone_number and name are required", i)
		}
	}
	return f, nil
}

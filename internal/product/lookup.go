package product

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const cacheTTL = 24 * time.Hour

// Info describes a product found by barcode.
type Info struct {
	Barcode  string `json:"barcode"`
	Name     string `json:"name"`
	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`
	Image    string `json:"image,omitempty"`
	Found    bool   `json:"found"`
}

type cacheEntry struct {
	info    Info
	fetched time.Time
}

// Service looks products up in Open Food Facts and falls back to the UPC
// item database.
type Service struct {
	client  *http.Client
	offURL  string
	upcURL  string
	logger  *slog.Logger
	enabled bool

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

func NewService(enabled bool, logger *slog.Logger) *Service {
	return &Service{
		client:  &http.Client{Timeout: 10 * time.Second},
		offURL:  "https://world.openfoodfacts.org/api/v0/product",
		upcURL:  "https://api.upcitemdb.com/prod/trial/lookup",
		logger:  logger.With("component", "product"),
		enabled: enabled,
		cache:   make(map[string]cacheEntry),
	}
}

// Lookup never fails: an unknown barcode yields "Unknown Product (<code>)"
// and a transport or decode error yields "Product <code>", both with
// Found=false. Only found products are cached.
func (s *Service) Lookup(ctx context.Context, barcode string) Info {
	barcode = strings.TrimSpace(barcode)
	if !s.enabled {
		return Info{Barcode: barcode, Name: fmt.Sprintf("Product %s", barcode)}
	}

	s.mu.RLock()
	entry, ok := s.cache[barcode]
	s.mu.RUnlock()
	if ok && time.Since(entry.fetched) < cacheTTL {
		return entry.info
	}

	info, err := s.fetch(ctx, barcode)
	if err != nil {
		s.logger.Warn("product lookup failed", "barcode", barcode, "error", err)
		return Info{Barcode: barcode, Name: fmt.Sprintf("Product %s", barcode)}
	}

	if info.Found {
		s.mu.Lock()
		s.cache[barcode] = cacheEntry{info: info, fetched: time.Now()}
		s.mu.Unlock()
	}
	return info
}

type offResponse struct {
	Status  int `json:"status"`
	Product *struct {
		ProductName   string   `json:"product_name"`
		ProductNameEn string   `json:"product_name_en"`
		Brands        string   `json:"brands"`
		CategoriesTag []string `json:"categories_tags"`
		ImageURL      string   `json:"image_url"`
	} `json:"product"`
}

type upcResponse struct {
	Code  string `json:"code"`
	Items []struct {
		Title    string   `json:"title"`
		Brand    string   `json:"brand"`
		Category string   `json:"category"`
		Images   []string `json:"images"`
	} `json:"items"`
}

func (s *Service) fetch(ctx context.Context, barcode string) (Info, error) {
	var off offResponse
	if err := s.getJSON(ctx, fmt.Sprintf("%s/%s.json", s.offURL, url.PathEscape(barcode)), &off); err != nil {
		return Info{}, fmt.Errorf("open food facts: %w", err)
	}
	if off.Status == 1 && off.Product != nil {
		p := off.Product
		info := Info{
			Barcode: barcode,
			Name:    firstNonEmpty(p.ProductName, p.ProductNameEn, fmt.Sprintf("Product %s", barcode)),
			Brand:   p.Brands,
			Image:   p.ImageURL,
			Found:   true,
		}
		if len(p.CategoriesTag) > 0 {
			info.Category = strings.TrimPrefix(p.CategoriesTag[0], "en:")
		}
		return info, nil
	}

	var upc upcResponse
	if err := s.getJSON(ctx, s.upcURL+"?upc="+url.QueryEscape(barcode), &upc); err != nil {
		return Info{}, fmt.Errorf("upc item db: %w", err)
	}
	if upc.Code == "OK" && len(upc.Items) > 0 {
		item := upc.Items[0]
		info := Info{
			Barcode:  barcode,
			Name:     firstNonEmpty(item.Title, fmt.Sprintf("Product %s", barcode)),
			Brand:    item.Brand,
			Category: item.Category,
			Found:    true,
		}
		if len(item.Images) > 0 {
			info.Image = item.Images[0]
		}
		return info, nil
	}

	return Info{Barcode: barcode, Name: fmt.Sprintf("Unknown Product (%s)", barcode)}, nil
}

// getJSON decodes the body regardless of status code; both APIs report
// misses in the body.
func (s *Service) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dheerajsingh9334/mern-Blog/internal/domain/model"
)

type catalogFile struct {
	Plans []catalogEntry `yaml:"plans"`
}

type catalogEntry struct {
	PlanID          string `yaml:"plan_id"`
	AuthorID        string `yaml:"author_id"`
	Name            string `yaml:"name"`
	Price           int64  `yaml:"price"`
	Currency        string `yaml:"currency"`
	Interval        string `yaml:"interval"`
	RevenueShare    string `yaml:"revenue_share"`
	ProviderPriceID string `yaml:"provider_price_id"`
}

// loadCatalog reads plan specs from a YAML catalog. Currency falls back to
// defaultCurrency. Range checks are left to the plan service.
func loadCatalog(path, defaultCurrency string) ([]model.PlanSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	return parseCatalog(data, defaultCurrency)
}

func parseCatalog(data []byte, defaultCurrency string) ([]model.PlanSpec, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal plan catalog: %w", err)
	}

	specs := make([]model.PlanSpec, 0, len(file.Plans))
	for i, entry := range file.Plans {
		if entry.AuthorID == "" {
			return nil, fmt.Errorf("plans[%d]: author_id is required", i)
		}
		if entry.Name == "" {
			return nil, fmt.Errorf("plans[%d]: name is required", i)
		}
		if entry.RevenueShare == "" {
			return nil, fmt.Errorf("plans[%d]: revenue_share is required", i)
		}

		share, err := decimal.NewFromString(entry.RevenueShare)
		if err != nil {
			return nil, fmt.Errorf("plans[%d]: revenue_share %q: %w", i, entry.RevenueShare, err)
		}

		currency := strings.ToLower(strings.TrimSpace(entry.Currency))
		if currency == "" {
			currency = strings.ToLower(defaultCurrency)
		}

		spec := model.PlanSpec{
			AuthorID:     entry.AuthorID,
			Name:         entry.Name,
			Price:        entry.Price,
			Currency:     currency,
			Interval:     model.BillingInterval(strings.ToLower(entry.Interval)),
			RevenueShare: share,
		}
		if entry.PlanID != "" {
			id, err := uuid.Parse(entry.PlanID)
			if err != nil {
				return nil, fmt.Errorf("plans[%d]: plan_id %q: %w", i, entry.PlanID, err)
			}
			spec.PlanID = &id
		}
		if entry.ProviderPriceID != "" {
			priceID := entry.ProviderPriceID
			spec.ProviderPriceID = &priceID
		}

		specs = append(specs, spec)
	}

	return specs, nil
}

// alreadySeeded reports whether an active plan carries the spec's provider
// price. Entries without a provider price are always created.
func alreadySeeded(spec model.PlanSpec, active []*model.Plan) bool {
	if spec.ProviderPriceID == nil {
		return false
	}
	for _, plan := range active {
		if plan.ProviderPriceID != nil && *plan.ProviderPriceID == *spec.ProviderPriceID {
			return true
		}
	}
	return false
}

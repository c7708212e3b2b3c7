package webull

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// GetQuote returns a level-one quote for a single symbol. An empty category
// defaults to US stocks.
func (c *Client) GetQuote(ctx context.Context, symbol string, category Category) (*Quote, error) {
	if symbol == "" {
		return nil, &ValidationError{Field: "symbol", Message: "must not be empty"}
	}
	if category == "" {
		category = USStock
	}

	raw, err := c.getJSON(ctx, EndpointQuote, map[string]string{
		"symbol":   symbol,
		"category": string(category),
	})
	if err != nil {
		return nil, err
	}

	var quote Quote
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, fmt.Errorf("webull: parsing quote: %w", err)
	}
	return &quote, nil
}

// GetSnapshots returns market snapshots for up to 100 symbols per call.
func (c *Client) GetSnapshots(ctx context.Context, symbols []string, category Category) ([]Snapshot, error) {
	if len(symbols) == 0 {
		return nil, &ValidationError{Field: "symbols", Message: "must not be empty"}
	}
	if category == "" {
		category = USStock
	}

	raw, err := c.getJSON(ctx, EndpointSnapshot, map[string]string{
		"symbols":  strings.Join(symbols, ","),
		"category": string(category),
	})
	if err != nil {
		return nil, err
	}

	var snapshots []Snapshot
	if err := json.Unmarshal(raw, &snapshots); err != nil {
		return nil, fmt.Errorf("webull: parsing snapshots: %w", err)
	}
	return snapshots, nil
}

// GetInstruments resolves symbols to instrument descriptors.
func (c *Client) GetInstruments(ctx context.Context, symbols []string, category Category) ([]Instrument, error) {
	if len(symbols) == 0 {
		return nil, &ValidationError{Field: "symbols", Message: "must not be empty"}
	}
	if category == "" {
		category = USStock
	}

	raw, err := c.getJSON(ctx, EndpointInstruments, map[string]string{
		"symbols":  strings.Join(symbols, ","),
		"category": string(category),
	})
	if err != nil {
		return nil, err
	}

	var instruments []Instrument
	if err := json.Unmarshal(raw, &instruments); err != nil {
		return nil, fmt.Errorf("webull: parsing instruments: %w", err)
	}
	return instruments, nil
}

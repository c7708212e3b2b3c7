package webull

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetAccounts returns the brokerage accounts reachable with the app key.
func (c *Client) GetAccounts(ctx context.Context) ([]Account, error) {
	raw, err := c.getJSON(ctx, EndpointAccounts, nil)
	if err != nil {
		return nil, err
	}

	var accounts []Account
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("webull: parsing accounts: %w", err)
	}
	return accounts, nil
}

// GetBalance returns the asset summary for an account.
func (c *Client) GetBalance(ctx context.Context, accountID string) (*Balance, error) {
	if accountID == "" {
		return nil, &ValidationError{Field: "account_id", Message: "must not be empty"}
	}

	raw, err := c.getJSON(ctx, EndpointBalance, map[string]string{"account_id": accountID})
	if err != nil {
		return nil, err
	}

	var balance Balance
	if err := json.Unmarshal(raw, &balance); err != nil {
		return nil, fmt.Errorf("webull: parsing balance: %w", err)
	}
	return &balance, nil
}

// GetPositions returns the open positions for an account.
func (c *Client) GetPositions(ctx context.Context, accountID string) ([]Position, error) {
	if accountID == "" {
		return nil, &ValidationError{Field: "account_id", Message: "must not be empty"}
	}

	raw, err := c.getJSON(ctx, EndpointPositions, map[string]string{"account_id": accountID})
	if err != nil {
		return nil, err
	}

	var positions []Position
	if err := json.Unmarshal(raw, &positions); err != nil {
		return nil, fmt.Errorf("webull: parsing positions: %w", err)
	}
	return positions, nil
}

package webull

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strconv"
)

// PlaceOrder validates the order arguments, signs the request body, and
// submits it. A ClientOrderID is generated when the caller does not supply
// one so that every order is individually cancellable.
func (c *Client) PlaceOrder(ctx context.Context, args PlaceOrderArgs) (*PlaceOrderAck, error) {
	if args.AccountID == "" {
		return nil, &ValidationError{Field: "account_id", Message: "must not be empty"}
	}
	if args.InstrumentID == "" {
		return nil, &ValidationError{Field: "instrument_id", Message: "must not be empty"}
	}
	if args.Side != Buy && args.Side != Sell {
		return nil, &ValidationError{Field: "side", Message: fmt.Sprintf("unknown side %q", args.Side)}
	}
	if !args.Quantity.IsPositive() {
		return nil, &ValidationError{Field: "qty", Message: "must be positive"}
	}

	req := placeOrderRequest{
		AccountID:     args.AccountID,
		ClientOrderID: args.ClientOrderID,
		InstrumentID:  args.InstrumentID,
		Side:          args.Side,
		OrderType:     args.OrderType,
		TimeInForce:   args.TimeInForce,
		Quantity:      args.Quantity.String(),
		ExtendedHours: args.ExtendedHours,
	}
	if req.ClientOrderID == "" {
		req.ClientOrderID = newNonce()
	}
	if req.TimeInForce == "" {
		req.TimeInForce = Day
	}

	switch args.OrderType {
	case Limit, StopLossLimit:
		if !args.LimitPrice.IsPositive() {
			return nil, &ValidationError{Field: "limit_price", Message: "required for limit orders"}
		}
		req.LimitPrice = args.LimitPrice.String()
	case Market:
		// No price fields.
	case StopLoss:
	default:
		return nil, &ValidationError{Field: "order_type", Message: fmt.Sprintf("unknown order type %q", args.OrderType)}
	}
	if args.OrderType == StopLoss || args.OrderType == StopLossLimit {
		if !args.StopPrice.IsPositive() {
			return nil, &ValidationError{Field: "stop_price", Message: "required for stop orders"}
		}
		req.StopPrice = args.StopPrice.String()
	}

	raw, err := c.postJSON(ctx, EndpointPlaceOrder, req)
	if err != nil {
		return nil, err
	}

	var ack PlaceOrderAck
	if err := json.Unmarshal(raw, &ack); err != nil {
		return nil, fmt.Errorf("webull: parsing place order response: %w", err)
	}
	return &ack, nil
}

// CancelOrder cancels a working order by its client order ID.
func (c *Client) CancelOrder(ctx context.Context, accountID, clientOrderID string) error {
	if accountID == "" {
		return &ValidationError{Field: "account_id", Message: "must not be empty"}
	}
	if clientOrderID == "" {
		return &ValidationError{Field: "client_order_id", Message: "must not be empty"}
	}

	_, err := c.postJSON(ctx, EndpointCancelOrder, cancelOrderRequest{
		AccountID:     accountID,
		ClientOrderID: clientOrderID,
	})
	return err
}

// ListOpenOrders returns all working orders for an account.
func (c *Client) ListOpenOrders(ctx context.Context, accountID string) ([]Order, error) {
	if accountID == "" {
		return nil, &ValidationError{Field: "account_id", Message: "must not be empty"}
	}

	raw, err := c.getJSON(ctx, EndpointOpenOrders, map[string]string{"account_id": accountID})
	if err != nil {
		return nil, err
	}

	var orders []Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, fmt.Errorf("webull: parsing open orders: %w", err)
	}
	return orders, nil
}

// GetOrders returns an iterator over historical orders with auto-pagination.
func (c *Client) GetOrders(ctx context.Context, params OrderParams) iter.Seq2[Order, error] {
	return paginate[Order](ctx, func(cursor string) (PaginatedResponse[Order], error) {
		return c.GetOrdersPaginated(ctx, params, cursor)
	})
}

// GetOrdersPaginated returns one page of historical orders and the cursor
// for the next page.
func (c *Client) GetOrdersPaginated(ctx context.Context, params OrderParams, cursor string) (PaginatedResponse[Order], error) {
	if params.AccountID == "" {
		return PaginatedResponse[Order]{}, &ValidationError{Field: "account_id", Message: "must not be empty"}
	}

	query := map[string]string{"account_id": params.AccountID}
	if params.Status != "" {
		query["status"] = params.Status
	}
	if params.StartDate != "" {
		query["start_date"] = params.StartDate
	}
	if params.EndDate != "" {
		query["end_date"] = params.EndDate
	}
	if params.PageSize > 0 {
		query["page_size"] = strconv.Itoa(params.PageSize)
	}
	if cursor != "" {
		query["next_cursor"] = cursor
	}

	raw, err := c.getJSON(ctx, EndpointOrders, query)
	if err != nil {
		return PaginatedResponse[Order]{}, err
	}

	var page PaginatedResponse[Order]
	if err := json.Unmarshal(raw, &page); err != nil {
		return PaginatedResponse[Order]{}, fmt.Errorf("webull: parsing orders page: %w", err)
	}
	return page, nil
}

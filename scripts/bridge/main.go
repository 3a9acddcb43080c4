package main

// bridge/main.go
//
// Maps positional command-line arguments onto the Robinhood client and
// prints the JSON result on stdout, so process supervisors can shell out
// instead of speaking HTTP. Failures print {"error": ...} and exit 1.
//
// Usage:
//
//	go run ./scripts/bridge <module> <function> [args...]
//
//	auth        check_auth_status
//	auth        make_api_request <method> <path> [body] [params-json]
//	account     get_account
//	account     get_holdings [asset-codes-json]
//	market_data get_best_bid_ask [symbols-json]
//	market_data get_estimated_price <symbol> <side> <quantity>
//	trading     get_trading_pairs [symbols-json]
//	trading     place_order <symbol> <side> <quantity> [type] [price] [time-in-force] [stop-price]
//	trading     get_orders [status]
//	trading     get_order <order-id>
//	trading     cancel_order <order-id>
//
// List arguments are JSON arrays, e.g. '["BTC-USD","ETH-USD"]'.
// Credentials come from the same environment the server uses
// (ROBINHOOD_API_KEY / ROBINHOOD_PRIVATE_KEY).

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"crypto-bridge/pkg/config"
	"crypto-bridge/pkg/robinhood"
)

func main() {
	if len(os.Args) < 3 {
		fail(errors.New("invalid arguments"))
	}
	module := os.Args[1]
	function := os.Args[2]
	args := os.Args[3:]

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	client, err := robinhood.New(robinhood.Config{
		APIKey:     cfg.APIKey,
		PrivateKey: cfg.PrivateKey,
		BaseURL:    cfg.BaseURL,
	})
	if err != nil {
		fail(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := dispatch(ctx, client, module, function, args)
	if err != nil {
		fail(err)
	}
	fmt.Println(string(result))
}

func dispatch(ctx context.Context, client *robinhood.Client, module, function string, args []string) (json.RawMessage, error) {
	switch module {
	case "auth":
		return dispatchAuth(ctx, client, function, args)
	case "account":
		return dispatchAccount(ctx, client, function, args)
	case "market_data":
		return dispatchMarketData(ctx, client, function, args)
	case "trading":
		return dispatchTrading(ctx, client, function, args)
	}
	return nil, fmt.Errorf("unknown module: %s", module)
}

func dispatchAuth(ctx context.Context, client *robinhood.Client, function string, args []string) (json.RawMessage, error) {
	switch function {
	case "check_auth_status":
		return json.Marshal(client.CheckAuth(ctx))
	case "make_api_request":
		if len(args) < 2 {
			return nil, errors.New("invalid arguments for make_api_request")
		}
		params, err := jsonParams(argAt(args, 3))
		if err != nil {
			return nil, err
		}
		return client.Do(ctx, args[0], args[1], params, argAt(args, 2))
	}
	return nil, fmt.Errorf("unknown auth function: %s", function)
}

func dispatchAccount(ctx context.Context, client *robinhood.Client, function string, args []string) (json.RawMessage, error) {
	switch function {
	case "get_account":
		return client.GetAccount(ctx)
	case "get_holdings":
		codes, err := jsonList(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		return client.GetHoldings(ctx, codes)
	}
	return nil, fmt.Errorf("unknown account function: %s", function)
}

func dispatchMarketData(ctx context.Context, client *robinhood.Client, function string, args []string) (json.RawMessage, error) {
	switch function {
	case "get_best_bid_ask":
		symbols, err := jsonList(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		return client.GetBestBidAsk(ctx, symbols)
	case "get_estimated_price":
		if len(args) < 3 {
			return nil, errors.New("invalid arguments for get_estimated_price")
		}
		return client.GetEstimatedPrice(ctx, args[0], args[1], args[2])
	}
	return nil, fmt.Errorf("unknown market_data function: %s", function)
}

func dispatchTrading(ctx context.Context, client *robinhood.Client, function string, args []string) (json.RawMessage, error) {
	switch function {
	case "get_trading_pairs":
		symbols, err := jsonList(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		return client.GetTradingPairs(ctx, symbols)
	case "place_order":
		if len(args) < 3 {
			return nil, errors.New("invalid arguments for place_order")
		}
		return client.PlaceOrder(ctx, robinhood.OrderRequest{
			Symbol:      args[0],
			Side:        args[1],
			Quantity:    args[2],
			Type:        argAt(args, 3),
			Price:       argAt(args, 4),
			TimeInForce: argAt(args, 5),
			StopPrice:   argAt(args, 6),
		})
	case "get_orders":
		return client.Orders(ctx, argAt(args, 0))
	case "get_order":
		if len(args) < 1 {
			return nil, errors.New("invalid arguments for get_order")
		}
		return client.GetOrder(ctx, args[0])
	case "cancel_order":
		if len(args) < 1 {
			return nil, errors.New("invalid arguments for cancel_order")
		}
		return client.CancelOrder(ctx, args[0])
	}
	return nil, fmt.Errorf("unknown trading function: %s", function)
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func jsonList(arg string) ([]string, error) {
	if arg == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(arg), &out); err != nil {
		return nil, fmt.Errorf("parse list argument: %w", err)
	}
	return out, nil
}

func jsonParams(arg string) (url.Values, error) {
	if arg == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(arg), &m); err != nil {
		return nil, fmt.Errorf("parse params argument: %w", err)
	}
	params := url.Values{}
	for k, v := range m {
		params.Set(k, v)
	}
	return params, nil
}

func fail(err error) {
	out, _ := json.Marshal(map[string]string{"error": err.Error()})
	fmt.Println(string(out))
	os.Exit(1)
}

// ABOUTME: Inventory tool definitions served over MCP
// ABOUTME: Each tool decodes JSON arguments and calls one inventory operation

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/2389/store-inventory/internal/contract"
	"github.com/2389/store-inventory/internal/inventory"
	"github.com/2389/store-inventory/internal/store"
)

// errInvalidArguments marks tool arguments that could not be decoded.
var errInvalidArguments = errors.New("invalid arguments")

// tool is one callable inventory operation.
type tool struct {
	name        string
	description string
	inputSchema string
	capability  string
	call        func(ctx context.Context, args json.RawMessage) (any, error)
}

// itemResult is the JSON form of an item in tool output.
type itemResult struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	Price       int64  `json:"price"`
}

func toItemResult(item *store.Item) itemResult {
	return itemResult{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.DisplayDescription(),
		Quantity:    item.Quantity,
		Price:       item.Price,
	}
}

type listArgs struct {
	Name        string `json:"name"`
	MinQuantity *int64 `json:"min_quantity"`
	Order       string `json:"order"`
	Limit       int    `json:"limit"`
}

type idArgs struct {
	ID *int64 `json:"id"`
}

type itemArgs struct {
	ID          *int64  `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Quantity    *int64  `json:"quantity"`
	Price       *int64  `json:"price"`
}

func (a itemArgs) values() inventory.Values {
	v := inventory.Values{Quantity: a.Quantity, Price: a.Price}
	if a.Name != nil {
		v.Name = store.String(strings.TrimSpace(*a.Name))
	}
	if a.Description != nil {
		v.Description = store.String(strings.TrimSpace(*a.Description))
	}
	return v
}

// decodeArgs strictly decodes tool arguments into v.
func decodeArgs(args json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArguments, err)
	}
	return nil
}

func requireID(id *int64) (int64, error) {
	if id == nil {
		return 0, fmt.Errorf("%w: id is required", errInvalidArguments)
	}
	if *id < 0 {
		return 0, fmt.Errorf("%w: id must not be negative", errInvalidArguments)
	}
	return *id, nil
}

// orderColumns maps order argument names to columns.
var orderColumns = map[string]string{
	"id":          contract.ColumnID,
	"name":        contract.ColumnName,
	"description": contract.ColumnDescription,
	"quantity":    contract.ColumnQuantity,
	"price":       contract.ColumnPrice,
}

const idSchema = `{"type":"object","properties":{"id":{"type":"integer","minimum":0}},"required":["id"],"additionalProperties":false}`

// inventoryTools returns the tool table in listing order.
func inventoryTools(inv *inventory.Store) []*tool {
	return []*tool{
		{
			name:        "list_items",
			description: "List inventory items, optionally filtered by name substring or minimum quantity.",
			inputSchema: `{"type":"object","properties":{` +
				`"name":{"type":"string","description":"Substring the item name must contain"},` +
				`"min_quantity":{"type":"integer"},` +
				`"order":{"type":"string","description":"Field to order by, prefix with - for descending"},` +
				`"limit":{"type":"integer","minimum":1}},"additionalProperties":false}`,
			capability: CapRead,
			call: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args listArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}

				var q inventory.Query
				if args.Name != "" {
					q.Filter = append(q.Filter, store.Where(contract.ColumnName, store.OpLike, "%"+args.Name+"%"))
				}
				if args.MinQuantity != nil {
					q.Filter = append(q.Filter, store.Where(contract.ColumnQuantity, store.OpGe, *args.MinQuantity))
				}
				if args.Order != "" {
					column, ok := orderColumns[strings.TrimPrefix(args.Order, "-")]
					if !ok {
						return nil, fmt.Errorf("%w: unknown order field %q", errInvalidArguments, args.Order)
					}
					q.Order = []store.Order{{Column: column, Desc: strings.HasPrefix(args.Order, "-")}}
				}
				if args.Limit < 0 {
					return nil, fmt.Errorf("%w: limit must not be negative", errInvalidArguments)
				}
				q.Limit = args.Limit

				rows, err := inv.List(ctx, contract.Collection(), q)
				if err != nil {
					return nil, err
				}
				items := make([]itemResult, len(rows))
				for i, row := range rows {
					items[i] = toItemResult(row.Item())
				}
				return map[string]any{"items": items}, nil
			},
		},
		{
			name:        "get_item",
			description: "Get one inventory item by id.",
			inputSchema: idSchema,
			capability:  CapRead,
			call: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args idArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}
				id, err := requireID(args.ID)
				if err != nil {
					return nil, err
				}
				item, err := inv.Get(ctx, id)
				if err != nil {
					return nil, err
				}
				return toItemResult(item), nil
			},
		},
		{
			name:        "add_item",
			description: "Add an item. Quantity and price default to 0 and must not be negative.",
			inputSchema: `{"type":"object","properties":{` +
				`"name":{"type":"string"},` +
				`"description":{"type":"string"},` +
				`"quantity":{"type":"integer","minimum":0},` +
				`"price":{"type":"integer","minimum":0}},"required":["name"],"additionalProperties":false}`,
			capability: CapWrite,
			call: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args itemArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}
				if args.ID != nil {
					return nil, fmt.Errorf("%w: id is assigned by the store", errInvalidArguments)
				}
				id, err := inv.Insert(ctx, contract.Collection(), args.values())
				if err != nil {
					return nil, err
				}
				return map[string]int64{"id": id}, nil
			},
		},
		{
			name:        "update_item",
			description: "Change the given fields of one item.",
			inputSchema: `{"type":"object","properties":{` +
				`"id":{"type":"integer","minimum":0},` +
				`"name":{"type":"string"},` +
				`"description":{"type":"string"},` +
				`"quantity":{"type":"integer","minimum":0},` +
				`"price":{"type":"integer","minimum":0}},"required":["id"],"additionalProperties":false}`,
			capability: CapWrite,
			call: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args itemArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}
				id, err := requireID(args.ID)
				if err != nil {
					return nil, err
				}
				values := args.values()
				if values.Empty() {
					return nil, fmt.Errorf("%w: no fields to update", errInvalidArguments)
				}
				n, err := inv.Update(ctx, contract.Item(id), values, nil)
				if err != nil {
					return nil, err
				}
				if n == 0 {
					return nil, inventory.ErrNotFound
				}
				return map[string]int64{"updated": n}, nil
			},
		},
		{
			name:        "sell_item",
			description: "Sell one unit of an item, lowering its quantity by one.",
			inputSchema: idSchema,
			capability:  CapWrite,
			call: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args idArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}
				id, err := requireID(args.ID)
				if err != nil {
					return nil, err
				}
				item, err := inv.Sell(ctx, id)
				if err != nil {
					return nil, err
				}
				return toItemResult(item), nil
			},
		},
		{
			name:        "delete_item",
			description: "Delete one item by id.",
			inputSchema: idSchema,
			capability:  CapWrite,
			call: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args idArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}
				id, err := requireID(args.ID)
				if err != nil {
					return nil, err
				}
				n, err := inv.Delete(ctx, contract.Item(id), nil)
				if err != nil {
					return nil, err
				}
				if n == 0 {
					return nil, inventory.ErrNotFound
				}
				return map[string]int64{"deleted": n}, nil
			},
		},
	}
}

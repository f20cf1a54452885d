// ABOUTME: Item subcommands working directly against the local database
// ABOUTME: list, show, add, update, sell, delete and clear

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/store-inventory/internal/contract"
	"github.com/2389/store-inventory/internal/inventory"
	"github.com/2389/store-inventory/internal/store"
)

// itemFlags maps item flags to form keys understood by inventory.ParseValues.
var itemFlags = map[string]string{
	"--name":        contract.ColumnName,
	"-n":            contract.ColumnName,
	"--desc":        "description",
	"--description": "description",
	"-d":            "description",
	"--quantity":    contract.ColumnQuantity,
	"-q":            contract.ColumnQuantity,
	"--price":       contract.ColumnPrice,
	"-p":            contract.ColumnPrice,
}

// parseItemArgs splits args into item form values and positional
// arguments. Both "--flag value" and "--flag=value" are accepted.
func parseItemArgs(args []string) (map[string]string, []string, error) {
	form := make(map[string]string)
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positional = append(positional, arg)
			continue
		}

		flag, value, hasValue := strings.Cut(arg, "=")
		key, ok := itemFlags[flag]
		if !ok {
			return nil, nil, fmt.Errorf("unknown flag: %s", flag)
		}
		if !hasValue {
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("%s requires a value", flag)
			}
			value = args[i+1]
			i++
		}
		form[key] = value
	}

	return form, positional, nil
}

// parseIDArg parses the single positional item id.
func parseIDArg(positional []string, usage string) (int64, error) {
	if len(positional) != 1 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	id, err := strconv.ParseInt(positional[0], 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid item id %q", positional[0])
	}
	return id, nil
}

// withInventory loads config, opens the inventory and runs fn.
func withInventory(fn func(inv *inventory.Store) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	inv, closeStore, err := openInventory(cfg, commandLogger(cfg.Logging))
	if err != nil {
		return err
	}
	defer closeStore()

	return fn(inv)
}

// parseListArgs builds a list query from list flags.
func parseListArgs(args []string) (inventory.Query, error) {
	var q inventory.Query

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--name", "-n":
			if i+1 >= len(args) {
				return q, fmt.Errorf("--name requires a value")
			}
			q.Filter = append(q.Filter, store.Where(contract.ColumnName, store.OpLike, "%"+args[i+1]+"%"))
			i++
		case "--in-stock":
			q.Filter = append(q.Filter, store.Where(contract.ColumnQuantity, store.OpGt, 0))
		case "--order", "-o":
			if i+1 >= len(args) {
				return q, fmt.Errorf("--order requires a value")
			}
			field := args[i+1]
			desc := strings.HasPrefix(field, "-")
			field = strings.TrimPrefix(field, "-")
			if field == "description" {
				field = contract.ColumnDescription
			}
			if field == "id" {
				field = contract.ColumnID
			}
			if !contract.IsColumn(field) {
				return q, fmt.Errorf("unknown order field %q", args[i+1])
			}
			q.Order = append(q.Order, store.Order{Column: field, Desc: desc})
			i++
		default:
			return q, fmt.Errorf("usage: list [--name <text>] [--in-stock] [--order <field>|-<field>]")
		}
	}

	return q, nil
}

func runList(ctx context.Context, args []string) error {
	q, err := parseListArgs(args)
	if err != nil {
		return err
	}

	return withInventory(func(inv *inventory.Store) error {
		rows, err := inv.List(ctx, contract.Collection(), q)
		if err != nil {
			return err
		}
		printItems(os.Stdout, rows)
		return nil
	})
}

// printItems writes rows as a table. An empty description is shown as the
// placeholder.
func printItems(out io.Writer, rows []inventory.Row) {
	cyan := color.New(color.FgCyan)
	fmt.Fprintln(out)
	cyan.Fprintln(out, "  Inventory")
	cyan.Fprintln(out, "  ---------")

	if len(rows) == 0 {
		fmt.Fprintln(out, "  (no items)")
		fmt.Fprintln(out)
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tQUANTITY\tPRICE\tDESCRIPTION")
	fmt.Fprintln(w, "  --\t----\t--------\t-----\t-----------")
	for _, row := range rows {
		item := row.Item()
		fmt.Fprintf(w, "  %d\t%s\t%d\t%d\t%s\n",
			item.ID, item.Name, item.Quantity, item.Price, truncate(item.DisplayDescription(), 40))
	}
	w.Flush()
	fmt.Fprintln(out)
}

// printItem writes one item as a detail block.
func printItem(out io.Writer, item *store.Item) {
	cyan := color.New(color.FgCyan)
	fmt.Fprintln(out)
	cyan.Fprintf(out, "  %s\n", item.Name)
	cyan.Fprintln(out, "  "+strings.Repeat("-", len(item.Name)))
	fmt.Fprintf(out, "  ID:          %d\n", item.ID)
	fmt.Fprintf(out, "  Quantity:    %d\n", item.Quantity)
	fmt.Fprintf(out, "  Price:       %d\n", item.Price)
	fmt.Fprintf(out, "  Description: %s\n", item.DisplayDescription())
	fmt.Fprintln(out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func runShow(ctx context.Context, args []string) error {
	id, err := parseIDArg(args, "show <id>")
	if err != nil {
		return err
	}

	return withInventory(func(inv *inventory.Store) error {
		item, err := inv.Get(ctx, id)
		if err != nil {
			return describe(err, id)
		}
		printItem(os.Stdout, item)
		return nil
	})
}

func runAdd(ctx context.Context, args []string) error {
	form, positional, err := parseItemArgs(args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("unexpected argument: %s", positional[0])
	}

	return withInventory(func(inv *inventory.Store) error {
		id, err := inv.Insert(ctx, contract.Collection(), inventory.ParseValues(form))
		if err != nil {
			return describe(err, 0)
		}
		color.New(color.FgGreen).Printf("  ✓ Added item %d\n", id)
		return nil
	})
}

func runUpdate(ctx context.Context, args []string) error {
	form, positional, err := parseItemArgs(args)
	if err != nil {
		return err
	}
	id, err := parseIDArg(positional, "update <id> [--name N] [--desc D] [--quantity Q] [--price P]")
	if err != nil {
		return err
	}
	if len(form) == 0 {
		return fmt.Errorf("nothing to update")
	}

	return withInventory(func(inv *inventory.Store) error {
		n, err := inv.Update(ctx, contract.Item(id), inventory.ParseValues(form), nil)
		if err != nil {
			return describe(err, id)
		}
		if n == 0 {
			return describe(inventory.ErrNotFound, id)
		}
		color.New(color.FgGreen).Printf("  ✓ Updated item %d\n", id)
		return nil
	})
}

func runSell(ctx context.Context, args []string) error {
	id, err := parseIDArg(args, "sell <id>")
	if err != nil {
		return err
	}

	return withInventory(func(inv *inventory.Store) error {
		item, err := inv.Sell(ctx, id)
		if err != nil {
			return describe(err, id)
		}
		color.New(color.FgGreen).Printf("  ✓ Sold one %s, %d left\n", item.Name, item.Quantity)
		return nil
	})
}

func runDelete(ctx context.Context, args []string) error {
	id, err := parseIDArg(args, "delete <id>")
	if err != nil {
		return err
	}

	return withInventory(func(inv *inventory.Store) error {
		n, err := inv.Delete(ctx, contract.Item(id), nil)
		if err != nil {
			return describe(err, id)
		}
		if n == 0 {
			return describe(inventory.ErrNotFound, id)
		}
		color.New(color.FgGreen).Printf("  ✓ Deleted item %d\n", id)
		return nil
	})
}

func runClear(ctx context.Context, args []string) error {
	if len(args) != 1 || (args[0] != "--yes" && args[0] != "-y") {
		return fmt.Errorf("clear deletes every item; rerun with --yes to confirm")
	}

	return withInventory(func(inv *inventory.Store) error {
		n, err := inv.Delete(ctx, contract.Collection(), nil)
		if err != nil {
			return describe(err, 0)
		}
		color.New(color.FgGreen).Printf("  ✓ Deleted %d item(s)\n", n)
		return nil
	})
}

// describe turns inventory errors into messages for the terminal.
func describe(err error, id int64) error {
	var verr *inventory.ValidationError
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		return fmt.Errorf("item %d not found", id)
	case errors.As(err, &verr):
		return fmt.Errorf("%s", verr.Message)
	default:
		return err
	}
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"balancoffee/pos/internal/catalog"
	"balancoffee/pos/internal/currency"
	"balancoffee/pos/internal/domain"
	"balancoffee/pos/internal/insights"
	"balancoffee/pos/internal/render"
)

func sessionCommand() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "interactive terminal session",
		Action: func(c *cli.Context) error {
			e, err := openEnv(c.Context)
			if err != nil {
				return err
			}
			defer e.close(context.Background())
			return runSession(c.Context, e, os.Stdin)
		},
	}
}

// registerSurfaces wires the terminal views to the render scheduler so
// every engine mutation repaints the affected views once per window.
func registerSurfaces(e *env) {
	e.syncer.Register(render.SurfaceInvoiceList, func() error {
		invoices := e.engine.Invoices()
		selected := e.engine.SelectedInvoiceID()
		fmt.Println("--- invoices ---")
		if len(invoices) == 0 {
			fmt.Println("(none)")
			return nil
		}
		for _, inv := range invoices {
			marker := " "
			if inv.ID == selected {
				marker = ">"
			}
			fmt.Printf("%s %-20s %-8s %10s  %d items\n",
				marker, inv.ID, inv.Status, currency.Format(inv.Total), len(inv.Items))
		}
		return nil
	})
	e.syncer.Register(render.SurfaceInvoiceCounter, func() error {
		pending, total := e.engine.Counts()
		fmt.Printf("--- %d pending / %d total ---\n", pending, total)
		return nil
	})

	// The menu grid only changes with the category filter or the
	// selection, so it repaints behind an equality guard.
	guard := &render.MenuGridGuard{}
	e.syncer.Register(render.SurfaceMenuGrid, func() error {
		view := render.MenuGridView{
			Category:          catalog.CategoryAll,
			SelectedInvoiceID: e.engine.SelectedInvoiceID(),
			ItemCount:         e.menu.Len(),
		}
		if !guard.ShouldRebuild(view) {
			return nil
		}
		if view.SelectedInvoiceID == "" {
			fmt.Println("--- no invoice selected ---")
			return nil
		}
		fmt.Printf("--- ordering onto %s ---\n", view.SelectedInvoiceID)
		for _, line := range e.engine.CurrentDraftItems() {
			fmt.Printf("  %-28s x%-3d %12s\n", line.Name, line.Quantity, currency.Format(line.LineTotal()))
		}
		return nil
	})
}

func runSession(ctx context.Context, e *env, in *os.File) error {
	registerSurfaces(e)
	fmt.Println("BalanCoffee session. Type 'help' for commands, 'quit' to exit.")
	e.syncer.Invalidate(render.SurfaceInvoiceList, render.SurfaceInvoiceCounter, render.SurfaceMenuGrid)

	scanner := bufio.NewScanner(in)
	for {
		e.syncer.FlushNow()
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]
		if cmd == "quit" || cmd == "exit" {
			break
		}
		if err := e.dispatch(ctx, cmd, args); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
	e.syncer.FlushNow()
	return scanner.Err()
}

func (e *env) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		printSessionHelp()
		return nil
	case "menu":
		category := catalog.CategoryAll
		if len(args) > 0 {
			category = args[0]
		}
		items := e.menu.ByCategory(category)
		if len(items) == 0 {
			return fmt.Errorf("no items in category %q", category)
		}
		for _, item := range items {
			fmt.Printf("%3d  %-28s %10s\n", item.ID, item.Name, currency.Format(item.Price))
		}
		return nil
	case "categories":
		counts := e.menu.CategoryCounts()
		for _, cat := range e.menu.Categories() {
			fmt.Printf("%-16s %d items\n", cat, counts[cat])
		}
		return nil
	case "new":
		var initial *domain.MenuItem
		if len(args) > 0 {
			item, err := e.menuItem(args[0])
			if err != nil {
				return err
			}
			initial = &item
		}
		inv, err := e.engine.CreateInvoice(initial)
		if err != nil {
			return err
		}
		fmt.Printf("created %s\n", inv.ID)
		return nil
	case "select":
		if len(args) < 1 {
			return fmt.Errorf("usage: select <invoice-id>")
		}
		return e.engine.SelectInvoice(args[0])
	case "add":
		if len(args) < 1 {
			return fmt.Errorf("usage: add <menu-item-id>")
		}
		item, err := e.menuItem(args[0])
		if err != nil {
			return err
		}
		inv, err := e.selectedOrErr()
		if err != nil {
			return err
		}
		return e.engine.AddItem(inv.ID, item)
	case "qty":
		if len(args) < 2 {
			return fmt.Errorf("usage: qty <line-id> <delta>")
		}
		lineID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("line id must be a number: %w", err)
		}
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("delta must be a number: %w", err)
		}
		inv, err := e.selectedOrErr()
		if err != nil {
			return err
		}
		return e.engine.AdjustItemQuantity(inv.ID, lineID, delta)
	case "remove":
		if len(args) < 1 {
			return fmt.Errorf("usage: remove <line-id>")
		}
		lineID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("line id must be a number: %w", err)
		}
		inv, err := e.selectedOrErr()
		if err != nil {
			return err
		}
		return e.engine.RemoveItem(inv.ID, lineID)
	case "discount":
		if len(args) < 1 {
			return fmt.Errorf("usage: discount <value> [percent|fixed]")
		}
		value, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("discount must be a number: %w", err)
		}
		discountType := domain.DiscountPercent
		if len(args) > 1 {
			discountType = args[1]
		}
		inv, err := e.selectedOrErr()
		if err != nil {
			return err
		}
		return e.engine.ApplyDiscount(inv.ID, value, discountType)
	case "pay":
		inv, err := e.selectedOrErr()
		if err != nil {
			return err
		}
		return e.engine.MarkPaid(inv.ID)
	case "delete":
		if len(args) < 1 {
			return fmt.Errorf("usage: delete <invoice-id>")
		}
		return e.engine.DeleteInvoice(args[0])
	case "show":
		inv, err := e.selectedOrErr()
		if err != nil {
			return err
		}
		current, err := e.engine.Invoice(inv.ID)
		if err != nil {
			return err
		}
		printInvoice(current)
		return nil
	case "history":
		for _, rec := range e.engine.History() {
			fmt.Printf("%-20s %s  %10s\n", rec.ID, rec.Timestamp.Format("15:04"), currency.Format(rec.Total))
		}
		return nil
	case "stats":
		history := e.engine.ShiftOrders()
		s := e.engine.Summary(e.engine.ShiftStart(), time.Time{})
		fmt.Printf("this shift: %d orders, %d items, %s\n", s.Orders, s.ItemsSold, currency.Format(s.Revenue))
		if best, ok := insights.BestSeller(history); ok {
			fmt.Printf("best seller: %s (%d)\n", best.Name, best.Quantity)
		}
		for _, pair := range insights.Pairings(history, 3) {
			fmt.Printf("often together: %s + %s (%d)\n", pair.A, pair.B, pair.Count)
		}
		return nil
	case "shift":
		archive, err := e.engine.StartNewShift(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("shift closed: %d orders, %s\n",
			archive.Info.TotalOrders, currency.Format(archive.Info.TotalRevenue))
		return nil
	case "save":
		return e.engine.FlushPending(ctx)
	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
}

func (e *env) menuItem(raw string) (domain.MenuItem, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return domain.MenuItem{}, fmt.Errorf("menu item id must be a number: %w", err)
	}
	item, ok := e.menu.ByID(id)
	if !ok {
		return domain.MenuItem{}, fmt.Errorf("unknown menu item %d", id)
	}
	return item, nil
}

func (e *env) selectedOrErr() (domain.Invoice, error) {
	if inv := e.engine.SelectedInvoice(); inv != nil {
		return *inv, nil
	}
	return domain.Invoice{}, fmt.Errorf("no invoice selected; use 'select <id>' or 'new'")
}

func printSessionHelp() {
	fmt.Print(`menu [category]        list menu items
categories             list categories
new [item-id]          open an invoice, optionally with a first item
select <invoice-id>    select or deselect an invoice
add <item-id>          add one unit to the selected invoice
qty <line> <delta>     change a line quantity (reaching 0 removes)
remove <line>          remove a line
discount <v> [type]    apply percent (default) or fixed discount
pay                    confirm payment of the selected invoice
delete <invoice-id>    delete an invoice
show                   print the selected invoice
history                orders of the running shift
stats                  shift totals and best sellers
shift                  close the shift and archive it
save                   force a save now
quit                   exit
`)
}

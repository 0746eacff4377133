package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"balancoffee/pos/internal/catalog"
	"balancoffee/pos/internal/config"
	"balancoffee/pos/internal/currency"
	"balancoffee/pos/internal/domain"
	"balancoffee/pos/internal/insights"
	"balancoffee/pos/internal/invoice"
	"balancoffee/pos/internal/render"
	"balancoffee/pos/internal/store"
	"balancoffee/pos/internal/store/memory"
	pgstore "balancoffee/pos/internal/store/postgres"
	redistore "balancoffee/pos/internal/store/redis"
)

func main() {
	app := &cli.App{
		Name:  "pos",
		Usage: "BalanCoffee point-of-sale terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "invoice",
				Usage: "target invoice id (defaults to the most recent pending invoice)",
			},
		},
		Commands: []*cli.Command{
			menuCommand(),
			createCommand(),
			listCommand(),
			showCommand(),
			addCommand(),
			quantityCommand(),
			removeCommand(),
			discountCommand(),
			payCommand(),
			deleteCommand(),
			historyCommand(),
			reportCommand(),
			shiftCommand(),
			sessionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("[pos] %v", err)
	}
}

// terminalNotifier prints engine notifications to the operator.
type terminalNotifier struct{}

func (terminalNotifier) Notify(kind, message string) {
	fmt.Printf("[%s] %s\n", kind, message)
}

// env bundles the loaded engine and its collaborators for one command.
type env struct {
	cfg     config.Config
	menu    *catalog.Provider
	engine  *invoice.Engine
	syncer  *render.Syncer
	closers []func() error
}

// openEnv builds the repository the way the server process picks its
// backend: postgres when DATABASE_URL is set, redis when REDIS_ADDR is
// reachable, in-memory otherwise.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	e := &env{cfg: cfg, menu: catalog.Default()}

	var repo store.Repository
	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgstore.New(ctx, cfg.DatabaseURL, cfg.Namespace)
		if err != nil {
			return nil, fmt.Errorf("postgres unavailable (%w) and DATABASE_URL is set; refusing in-memory fallback", err)
		}
		repo = pg
		e.closers = append(e.closers, pg.Close)
		log.Println("[pos] repository: postgres")
	case cfg.RedisAddr != "":
		rd := redistore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.Namespace)
		if err := rd.Ping(ctx); err != nil {
			log.Printf("[pos] redis unavailable (%v), using in-memory store", err)
			repo = memory.New()
		} else {
			repo = rd
			e.closers = append(e.closers, rd.Close)
			log.Println("[pos] repository: redis")
		}
	default:
		repo = memory.New()
		log.Println("[pos] repository: in-memory")
	}

	e.syncer = render.NewSyncer(cfg.RenderWindow())
	e.engine = invoice.New(repo, e.syncer, terminalNotifier{}, cfg.SaveDelay())
	if err := e.engine.Load(ctx); err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return e, nil
}

func (e *env) close(ctx context.Context) {
	e.syncer.Stop()
	if err := e.engine.Close(ctx); err != nil {
		log.Printf("[pos] flush: %v", err)
	}
	for _, closeFn := range e.closers {
		if err := closeFn(); err != nil {
			log.Printf("[pos] close: %v", err)
		}
	}
}

// withEnv runs fn against a loaded environment and flushes afterwards.
func withEnv(c *cli.Context, fn func(ctx context.Context, e *env) error) error {
	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close(ctx)
	return fn(ctx, e)
}

// targetInvoice resolves the invoice a command operates on: the
// --invoice flag when given, otherwise the most recently created
// pending invoice.
func targetInvoice(c *cli.Context, e *env) (domain.Invoice, error) {
	if id := c.String("invoice"); id != "" {
		return e.engine.Invoice(id)
	}
	invoices := e.engine.Invoices()
	for i := len(invoices) - 1; i >= 0; i-- {
		if invoices[i].Status == domain.StatusPending {
			return invoices[i], nil
		}
	}
	return domain.Invoice{}, fmt.Errorf("no pending invoice; create one with 'pos create'")
}

func menuCommand() *cli.Command {
	return &cli.Command{
		Name:  "menu",
		Usage: "list the menu, optionally one category",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Value: catalog.CategoryAll},
		},
		Action: func(c *cli.Context) error {
			menu := catalog.Default()
			category := c.String("category")
			items := menu.ByCategory(category)
			if len(items) == 0 {
				return fmt.Errorf("no items in category %q", category)
			}
			for _, item := range items {
				fmt.Printf("%3d  %-28s %10s  %s\n", item.ID, item.Name, currency.Format(item.Price), item.Category)
			}
			return nil
		},
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "open a new invoice, optionally with a first item",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "item", Usage: "menu item id for the first line"},
		},
		Action: func(c *cli.Context) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				var initial *domain.MenuItem
				if id := c.Int("item"); id != 0 {
					item, ok := e.menu.ByID(id)
					if !ok {
						return fmt.Errorf("unknown menu item %d", id)
					}
					initial = &item
				}
				inv, err := e.engine.CreateInvoice(initial)
				if err != nil {
					return err
				}
				fmt.Printf("created %s (%s)\n", inv.ID, currency.Format(inv.Total))
				return nil
			})
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list live invoices",
		Action: func(c *cli.Context) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				invoices := e.engine.Invoices()
				if len(invoices) == 0 {
					fmt.Println("no invoices")
					return nil
				}
				for _, inv := range invoices {
					printInvoiceLine(inv)
				}
				pending, total := e.engine.Counts()
				fmt.Printf("%d pending / %d total\n", pending, total)
				return nil
			})
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "print one invoice in full",
		ArgsUsage: "[invoice-id]",
		Action: func(c *cli.Context) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				var inv domain.Invoice
				var err error
				if c.Args().Present() {
					inv, err = e.engine.Invoice(c.Args().First())
				} else {
					inv, err = targetInvoice(c, e)
				}
				if err != nil {
					return err
				}
				printInvoice(inv)
				return nil
			})
		},
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "add one unit of a menu item to the invoice",
		ArgsUsage: "<menu-item-id>",
		Action: func(c *cli.Context) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				if !c.Args().Present() {
					return fmt.Errorf("menu item id required")
				}
				itemID, err := strconv.Atoi(c.Args().First())
				if err != nil {
					return fmt.Errorf("menu item id must be a number: %w", err)
				}
				item, ok := e.menu.ByID(itemID)
				if !ok {
					return fmt.Errorf("unknown menu item %d", itemID)
				}
				inv, err := targetInvoice(c, e)
				if err != nil {
					return err
				}
				if err := e.engine.AddItem(inv.ID, item); err != nil {
					return err
				}
				updated, err := e.engine.Invoice(inv.ID)
				if err != nil {
					return err
				}
				printInvoice(updated)
				return nil
			})
		},
	}
}

func quantityCommand() *cli.Command {
	return &cli.Command{
		Name:      "qty",
		Usage:     "change a line quantity by a delta (reaching 0 removes it)",
		ArgsUsage: "<line-id> <delta>",
		Action: func(c *cli.Context) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				if c.Args().Len() < 2 {
					return fmt.Errorf("usage: pos qty <line-id> <delta>")
				}
				lineID, err := strconv.Atoi(c.Args().First())
				if err != nil {
					return fmt.Errorf("line id must be a number: %w", err)
				}
				delta, err := strconv.Atoi(c.Args().Get(1))
				if err != nil {
					return fmt.Errorf("delta must be a number: %w", err)
				}
				inv, err := targetInvoice(c, e)
				if err != nil {
					return err
				}
				return e.engine.AdjustItemQuantity(inv.ID, lineID, delta)
			})
		},
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "remove a line from the invoice",
		ArgsUsage: "<line-id>",
		Action: func(c *cli.Context) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				if !c.Args().Present() {
					return fmt.Errorf("line id required")
				}
				lineID, err := strconv.Atoi(c.Args().First())
				if err != nil {
					return fmt.Errorf("line id must be a number: %w", err)
				}
				inv, err := targetInvoice(c, e)
				if err != nil {
					return err
				}
				return e.engine.RemoveItem(inv.ID, lineID)
			})
		},
	}
}

func discountCommand() *cli.Command {
	return &cli.Command{
		Name:      "discount",
		Usage:     "apply a discount to the invoice (0 clears it)",
		ArgsUsage: "<value>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Value: domain.DiscountPercent, Usage: "percent or fixed"},
		},
		Action: func(c *cli.Context) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				if !c.Args().Present() {
					return fmt.Errorf("discount value required")
				}
				value, err := strconv.ParseFloat(c.Args().First(), 64)
				if err != nil {
					return fmt.Errorf("discount must be a number: %w", err)
				}
				inv, err := targetInvoice(c, e)
				if err != nil {
					return err
				}
				if err := e.engine.ApplyDiscount(inv.ID, value, c.String("type")); err != nil {
					return err
				}
				updated, err := e.engine.Invoice(inv.ID)
				if err != nil {
					return err
				}
				printInvoice(updated)
				return nil
			})
		},
	}
}

func payCommand() *cli.Command {
	return &cli.Command{
		Name:      "pay",
		Usage:     "confirm payment of an invoice",
		ArgsUsage: "[invoice-id]",
		Action: func(c *cli.Context) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				var inv domain.Invoice
				var err error
				if c.Args().Present() {
					inv, err = e.engine.Invoice(c.Args().First())
				} else {
					inv, err = targetInvoice(c, e)
				}
				if err != nil {
					return err
				}
				if err := e.engine.MarkPaid(inv.ID); err != nil {
					return err
				}
				paid, err := e.engine.Invoice(inv.ID)
				if err != nil {
					return err
				}
				fmt.Printf("paid %s: %s\n", paid.ID, currency.Format(paid.Total))
				return nil
			})
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "delete an invoice (paid ones drop their history record too)",
		ArgsUsage: "<invoice-id>",
		Action: func(c *cli.Context) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				if !c.Args().Present() {
					return fmt.Errorf("invoice id required")
				}
				return e.engine.DeleteInvoice(c.Args().First())
			})
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list the order history of the running shift",
		Action: func(c *cli.Context) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				history := e.engine.History()
				if len(history) == 0 {
					fmt.Println("no orders this shift")
					return nil
				}
				for _, rec := range history {
					fmt.Printf("%-20s %s  %10s  %d items\n",
						rec.ID, rec.Timestamp.Format("2006-01-02 15:04"), currency.Format(rec.Total), len(rec.Items))
				}
				return nil
			})
		},
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "sales summary for one day (default today)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Usage: "day as 2006-01-02"},
			&cli.IntFlag{Name: "top", Usage: "also list the N best-selling items"},
		},
		Action: func(c *cli.Context) error {
			return withEnv(c, func(ctx context.Context, e *env) error {
				day := time.Now()
				if raw := c.String("date"); raw != "" {
					parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
					if err != nil {
						return fmt.Errorf("bad date %q: %w", raw, err)
					}
					day = parsed
				}
				s := e.engine.DailySummary(day)
				fmt.Printf("%s: %d orders, %d items, %s revenue\n",
					day.Format("2006-01-02"), s.Orders, s.ItemsSold, currency.Format(s.Revenue))
				if n := c.Int("top"); n > 0 {
					for _, stat := range insights.TopSellers(e.engine.History(), n) {
						fmt.Printf("  %-28s x%-4d %12s\n", stat.Name, stat.Quantity, currency.Format(stat.Revenue))
					}
				}
				return nil
			})
		},
	}
}

func shiftCommand() *cli.Command {
	return &cli.Command{
		Name:  "shift",
		Usage: "shift rotation and archives",
		Subcommands: []*cli.Command{
			{
				Name:  "end",
				Usage: "archive the running shift and start a new one",
				Action: func(c *cli.Context) error {
					return withEnv(c, func(ctx context.Context, e *env) error {
						archive, err := e.engine.StartNewShift(ctx)
						if err != nil {
							return err
						}
						fmt.Printf("shift closed: %d orders, %s revenue\n",
							archive.Info.TotalOrders, currency.Format(archive.Info.TotalRevenue))
						if best, ok := insights.BestSeller(archive.Orders); ok {
							fmt.Printf("best seller: %s (%d)\n", best.Name, best.Quantity)
						}
						return nil
					})
				},
			},
			{
				Name:  "archives",
				Usage: "list archived shifts",
				Action: func(c *cli.Context) error {
					return withEnv(c, func(ctx context.Context, e *env) error {
						archives, err := e.engine.ShiftArchives(ctx)
						if err != nil {
							return err
						}
						if len(archives) == 0 {
							fmt.Println("no archived shifts")
							return nil
						}
						for _, a := range archives {
							fmt.Printf("%s .. %s  %d orders  %s\n",
								a.Info.StartTime.Format("2006-01-02 15:04"),
								a.Info.EndTime.Format("2006-01-02 15:04"),
								a.Info.TotalOrders, currency.Format(a.Info.TotalRevenue))
						}
						return nil
					})
				},
			},
		},
	}
}

func printInvoiceLine(inv domain.Invoice) {
	marker := " "
	if inv.Status == domain.StatusPaid {
		marker = "*"
	}
	fmt.Printf("%s %-20s %-8s %10s  %d items\n",
		marker, inv.ID, inv.Status, currency.Format(inv.Total), len(inv.Items))
}

func printInvoice(inv domain.Invoice) {
	fmt.Printf("%s [%s]\n", inv.ID, inv.Status)
	for _, line := range inv.Items {
		fmt.Printf("  %-28s x%-3d %12s\n", line.Name, line.Quantity, currency.Format(line.LineTotal()))
	}
	fmt.Printf("  subtotal %s\n", currency.Format(inv.Subtotal))
	if inv.Discount > 0 {
		if inv.DiscountType == domain.DiscountPercent {
			fmt.Printf("  discount %.0f%%\n", inv.Discount)
		} else {
			fmt.Printf("  discount %s\n", currency.Format(int64(inv.Discount)))
		}
	}
	fmt.Printf("  total    %s\n", currency.Format(inv.Total))
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/umg/product-catalog/internal/model"
	"github.com/umg/product-catalog/internal/product"
	"github.com/umg/product-catalog/internal/product/handler"
	"github.com/umg/product-catalog/internal/server"
)

const shutdownTimeout = 10 * time.Second

// productFlags builds the add and update flags. Updates have no status
// default: an absent --active keeps the stored status.
func productFlags(update bool) []cli.Flag {
	active := &cli.StringFlag{Name: "active", Usage: `"Y" or "N"`, Value: string(model.StatusActive)}
	if update {
		active = &cli.StringFlag{Name: "active", Usage: `"Y" or "N", unchanged when omitted`}
	}
	return []cli.Flag{
		&cli.StringFlag{Name: "id", Usage: "product id", Required: update},
		&cli.StringFlag{Name: "name", Usage: "product name", Required: true},
		&cli.StringFlag{Name: "price", Usage: "unit price", Required: true},
		active,
	}
}

func (a *application) commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "list",
			Usage:  "list every product ordered by id",
			Action: a.action(a.list),
		},
		{
			Name:      "search",
			Usage:     "find products whose name or id contains the term",
			ArgsUsage: "<term>",
			Action:    a.action(a.search),
		},
		{
			Name:      "exists",
			Usage:     "report whether a product id is taken",
			ArgsUsage: "<id>",
			Action:    a.action(a.exists),
		},
		{
			Name:   "add",
			Usage:  "add a product, using the next free id when --id is omitted",
			Flags:  productFlags(false),
			Action: a.action(a.add),
		},
		{
			Name:   "update",
			Usage:  "replace name, price and status of a product",
			Flags:  productFlags(true),
			Action: a.action(a.update),
		},
		{
			Name:      "delete",
			Usage:     "delete a product",
			ArgsUsage: "<id>",
			Action:    a.action(a.delete),
		},
		{
			Name:   "next-id",
			Usage:  "print the suggested id for a new product",
			Action: a.action(a.nextID),
		},
		{
			Name:   "check",
			Usage:  "check that the store is reachable and the table exists",
			Action: a.action(a.check),
		},
		{
			Name:   "serve",
			Usage:  "serve the catalog over HTTP",
			Action: a.action(a.serve),
		},
	}
}

// action turns the error taxonomy into the messages users see.
func (a *application) action(fn cli.ActionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		return describe(fn(c))
	}
}

func (a *application) list(c *cli.Context) error {
	products, err := a.uc.ListAll(c.Context)
	if err != nil {
		return err
	}
	return printProducts(a.out, products)
}

func (a *application) search(c *cli.Context) error {
	products, err := a.uc.Search(c.Context, strings.Join(c.Args().Slice(), " "))
	if err != nil {
		return err
	}
	return printProducts(a.out, products)
}

func (a *application) exists(c *cli.Context) error {
	id, err := parseID(c.Args().First())
	if err != nil {
		return err
	}
	ok, err := a.uc.Exists(c.Context, id)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(a.out, "product %d exists\n", id)
	} else {
		fmt.Fprintf(a.out, "product %d does not exist\n", id)
	}
	return nil
}

func (a *application) add(c *cli.Context) error {
	ctx := c.Context

	idText := c.String("id")
	if strings.TrimSpace(idText) == "" {
		next, err := a.uc.NextID(ctx)
		if err != nil {
			return err
		}
		idText = strconv.FormatInt(next, 10)
	}

	p, err := model.ParseProduct(idText, c.String("name"), c.String("price"), c.String("active"))
	if err != nil {
		return err
	}

	exists, err := a.uc.Exists(ctx, p.ID())
	if err != nil {
		return err
	}
	if exists {
		return &product.DuplicateKeyError{ID: p.ID(), Err: product.ErrDuplicateKey}
	}

	if _, err := a.uc.Insert(ctx, p); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "product %d added\n", p.ID())
	return nil
}

func (a *application) update(c *cli.Context) error {
	active := c.String("active")
	if !c.IsSet("active") {
		id, err := parseID(c.String("id"))
		if err != nil {
			return err
		}
		current, err := a.find(c.Context, id)
		if err != nil {
			return err
		}
		if current == nil {
			return errors.Errorf("product %d not found", id)
		}
		active = string(current.Active())
	}

	p, err := model.ParseProduct(c.String("id"), c.String("name"), c.String("price"), active)
	if err != nil {
		return err
	}
	ok, err := a.uc.Update(c.Context, p)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("product %d not found", p.ID())
	}
	fmt.Fprintf(a.out, "product %d updated\n", p.ID())
	return nil
}

func (a *application) delete(c *cli.Context) error {
	id, err := parseID(c.Args().First())
	if err != nil {
		return err
	}
	ok, err := a.uc.Delete(c.Context, id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("product %d not found", id)
	}
	fmt.Fprintf(a.out, "product %d deleted\n", id)
	return nil
}

func (a *application) nextID(c *cli.Context) error {
	next, err := a.uc.NextID(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, next)
	return nil
}

func (a *application) check(c *cli.Context) error {
	if err := a.uc.CheckStore(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "store OK")
	return nil
}

func (a *application) serve(c *cli.Context) error {
	// The table check happens once at startup; a failing store still lets
	// the server come up so /health can report it.
	if err := a.uc.CheckStore(c.Context); err != nil {
		a.logger.Warn("Product store check failed", zap.Error(err))
	}

	h := handler.NewProductHandler(a.uc, a.logger)
	srv := server.NewServer(&a.cfg.HTTP, h, a.registry, a.logger)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	a.logger.Info("Server stopped")
	return nil
}

// find returns the product stored under id, or nil. Search matches ids as
// text, so the exact id is picked from its results.
func (a *application) find(ctx context.Context, id int64) (*model.Product, error) {
	products, err := a.uc.Search(ctx, strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.ID() == id {
			return p, nil
		}
	}
	return nil, nil
}

func parseID(text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, &model.ValidationError{Field: model.FieldID, Reason: "is required"}
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, &model.ValidationError{Field: model.FieldID, Reason: "must be an integer"}
	}
	return id, nil
}

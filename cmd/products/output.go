package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/umg/product-catalog/internal/model"
	"github.com/umg/product-catalog/internal/product"
)

const (
	msgDuplicate   = "a product with this ID already exists"
	msgPersistence = "database connection error"
)

func printProducts(out io.Writer, products []*model.Product) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTATUS")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\n", p.ID(), p.Name(), p.Price(), p.FormattedStatus())
	}
	return tw.Flush()
}

// describe rewrites errors into user facing messages. Persistence comes
// before validation because an invalid stored row is a store failure.
func describe(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, product.ErrDuplicateKey):
		return errors.New(msgDuplicate)
	case product.IsPersistenceError(err):
		return errors.Wrap(err, msgPersistence)
	}
	return err
}

// Command productctl is a terminal client for the product catalog API.
//
//	productctl [-server URL] [-token TOKEN] <command> [flags]
//
// Commands: register, login, logout, me, categories, list, show, create,
// update, delete. The token printed by login can be passed back with -token
// or the PRODUCT_API_TOKEN environment variable.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/catalog"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/money"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/productapi"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/productstore"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/tableview"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		var apiErr *productapi.APIError
		if errors.As(err, &apiErr) {
			for field, msgs := range apiErr.Fields {
				for _, m := range msgs {
					fmt.Fprintf(os.Stderr, "  %s: %s\n", field, m)
				}
			}
		}
		fmt.Fprintf(os.Stderr, "productctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("productctl", flag.ContinueOnError)
	server := global.String("server", envOr("PRODUCT_API_URL", "http://localhost:8080"), "API server base URL")
	token := global.String("token", os.Getenv("PRODUCT_API_TOKEN"), "bearer token")
	debug := global.Bool("debug", false, "log HTTP requests")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		return errors.New("missing command (register, login, logout, me, categories, list, show, create, update, delete)")
	}

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	client := productapi.NewClient(*server)
	client.SetDebug(*debug)
	client.SetToken(*token)

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "register":
		return runRegister(ctx, client, rest, out)
	case "login":
		return runLogin(ctx, client, rest, out)
	case "logout":
		if err := client.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Logged out.")
		return nil
	case "me":
		u, err := client.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d\t%s\t%s\n", u.ID, u.Name, u.Email)
		return nil
	case "categories":
		return runCategories(ctx, client, out)
	case "list":
		return runList(ctx, client, rest, out)
	case "show":
		return runShow(ctx, client, rest, out)
	case "create":
		return runCreate(ctx, client, rest, out)
	case "update":
		return runUpdate(ctx, client, rest, out)
	case "delete":
		return runDelete(ctx, client, rest, out)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runRegister(ctx context.Context, client *productapi.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (8-72 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := client.Register(ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, res.Token)
	return nil
}

func runLogin(ctx context.Context, client *productapi.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, res.Token)
	return nil
}

func runCategories(ctx context.Context, client *productapi.Client, out io.Writer) error {
	categories, err := client.Categories(ctx)
	if err != nil {
		return err
	}
	for _, e := range categories.Entries() {
		fmt.Fprintf(out, "%s\t%s\n", e.Key, e.Label)
	}
	return nil
}

func runList(ctx context.Context, client *productapi.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	page := fs.Int("page", 1, "page number")
	perPage := fs.Int("per-page", 0, "items per page (server default when 0)")
	name := fs.String("name", "", "name contains")
	brand := fs.String("brand", "", "brand contains")
	category := fs.String("category", "", "category key")
	sort := fs.String("sort", "", "stock_quantity, price or updated_at; prefix - for descending")
	if err := fs.Parse(args); err != nil {
		return err
	}

	view, err := newView(ctx, client, productapi.ListParams{
		PerPage: *perPage, Name: *name, Brand: *brand, Category: *category, Sort: *sort,
	})
	if err != nil {
		return err
	}
	if err := view.GoToPage(ctx, *page); err != nil {
		return err
	}
	return view.Render(out)
}

func runShow(ctx context.Context, client *productapi.Client, args []string, out io.Writer) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	p, err := client.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	categories, err := client.Categories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	return renderOne(out, p, categories)
}

func runCreate(ctx context.Context, client *productapi.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	in, err := inputFlags(fs, args, true)
	if err != nil {
		return err
	}
	view, err := newView(ctx, client, productapi.ListParams{})
	if err != nil {
		return err
	}
	if _, err := view.Create(ctx, in); err != nil {
		return err
	}
	fmt.Fprintln(out, "Product stored successfully.")
	return view.Render(out)
}

func runUpdate(ctx context.Context, client *productapi.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	id := fs.Int64("id", 0, "product id")
	in, err := inputFlags(fs, args, false)
	if err != nil {
		return err
	}
	if *id < 1 {
		return errors.New("update needs -id")
	}
	view, err := newView(ctx, client, productapi.ListParams{})
	if err != nil {
		return err
	}
	p, err := view.Update(ctx, *id, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Product updated successfully.")
	return renderOne(out, p, view.Categories())
}

func runDelete(ctx context.Context, client *productapi.Client, args []string, out io.Writer) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	view, err := newView(ctx, client, productapi.ListParams{})
	if err != nil {
		return err
	}
	if err := view.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(out, "Product deleted successfully.")
	return nil
}

func newView(ctx context.Context, client *productapi.Client, query productapi.ListParams) (*tableview.View, error) {
	categories, err := client.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return tableview.New(productstore.NewStore(client, query), client, categories), nil
}

func renderOne(out io.Writer, p *productapi.Product, categories *catalog.Catalog) error {
	st := productstore.Reduce(productstore.State{}, productstore.ProductAdded{Product: *p})
	return tableview.RenderState(out, st, categories)
}

// inputFlags parses product fields. Unset flags stay nil so updates only
// send what was given.
func inputFlags(fs *flag.FlagSet, args []string, create bool) (productapi.ProductInput, error) {
	var in productapi.ProductInput
	fs.Func("name", "product name", func(v string) error { in.Name = &v; return nil })
	fs.Func("brand", "brand", func(v string) error { in.Brand = &v; return nil })
	fs.Func("category", "category key", func(v string) error { in.Category = &v; return nil })
	fs.Func("price", "price, at most two decimals", func(v string) error {
		p, err := money.NewPrice(v)
		if err != nil {
			return err
		}
		in.Price = &p
		return nil
	})
	fs.Func("stock", "stock quantity", func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		in.StockQuantity = &n
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return in, err
	}
	if create && (in.Name == nil || in.Brand == nil || in.Category == nil || in.Price == nil || in.StockQuantity == nil) {
		return in, errors.New("create needs -name, -brand, -category, -price and -stock")
	}
	return in, nil
}

func idArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected a single product id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid product id %q", args[0])
	}
	return id, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/vncsmyrnk/fintrack/internal/client"
)

const usage = `usage: fintrack [flags] COMMAND [ARGS...]

Commands:
  register NAME              create an account for -email
  summary                    print balance, income and expense
  transactions               list transactions, newest first
  categories                 list categories
  payment-methods            list payment methods
  add DESC AMOUNT DATE CATEGORY_ID PAYMENT_METHOD_ID
                             record a transaction (negative AMOUNT is an expense)

Flags:`

type environment struct {
	out       io.Writer
	errOut    io.Writer
	password  func() ([]byte, error)
	transport http.RoundTripper
}

func run(ctx context.Context, args []string, env environment) error {
	fs := flag.NewFlagSet("fintrack", flag.ContinueOnError)
	fs.SetOutput(env.errOut)
	apiURL := fs.String("api", envOr("FINTRACK_API", "http://localhost:3333"), "API base URL")
	email := fs.String("email", os.Getenv("FINTRACK_EMAIL"), "account email")
	fs.Usage = func() {
		fmt.Fprintln(env.errOut, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}
	if *email == "" {
		return errors.New("-email is required")
	}

	opts := []client.Option{client.WithSessionExpired(func() {
		fmt.Fprintln(env.errOut, "session expired, log in again")
	})}
	if env.transport != nil {
		opts = append(opts, client.WithBaseTransport(env.transport))
	}
	c, err := client.New(*apiURL, opts...)
	if err != nil {
		return err
	}

	password, err := env.password()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd == "register" {
		if len(rest) != 1 {
			return errors.New("usage: register NAME")
		}
		user, err := c.Register(ctx, rest[0], *email, string(password))
		if err != nil {
			return err
		}
		fmt.Fprintf(env.out, "registered %s (id %d)\n", user.Email, user.ID)
		return nil
	}

	if _, err := c.Login(ctx, *email, string(password), false); err != nil {
		return err
	}
	defer func() { _ = c.Logout(context.WithoutCancel(ctx)) }()

	switch cmd {
	case "summary":
		return printSummary(ctx, c, env.out)
	case "transactions":
		return printTransactions(ctx, c, env.out)
	case "categories":
		return printCategories(ctx, c, env.out)
	case "payment-methods":
		return printPaymentMethods(ctx, c, env.out)
	case "add":
		return addTransaction(ctx, c, env.out, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printSummary(ctx context.Context, c *client.Client, out io.Writer) error {
	s, err := c.Summary(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Balance\t%.2f\n", s.Balance)
	fmt.Fprintf(w, "Income\t%.2f\n", s.Income)
	fmt.Fprintf(w, "Expense\t%.2f\n", s.Expense)
	fmt.Fprintf(w, "Transactions\t%d\n", s.Count)
	return w.Flush()
}

func printTransactions(ctx context.Context, c *client.Client, out io.Writer) error {
	txs, err := c.Transactions(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tAMOUNT\tCATEGORY\tPAYMENT METHOD")
	for _, tx := range txs {
		var category, method string
		if tx.Category != nil {
			category = tx.Category.Name
		}
		if tx.PaymentMethod != nil {
			method = tx.PaymentMethod.Name
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\t%s\n",
			tx.ID, tx.Date.Format("2006-01-02"), tx.Description, tx.Amount, category, method)
	}
	return w.Flush()
}

func printCategories(ctx context.Context, c *client.Client, out io.Writer) error {
	categories, err := c.Categories(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOLOR")
	for _, cat := range categories {
		fmt.Fprintf(w, "%d\t%s\t%s\n", cat.ID, cat.Name, cat.Color)
	}
	return w.Flush()
}

func printPaymentMethods(ctx context.Context, c *client.Client, out io.Writer) error {
	methods, err := c.PaymentMethods(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, m := range methods {
		fmt.Fprintf(w, "%d\t%s\n", m.ID, m.Name)
	}
	return w.Flush()
}

func addTransaction(ctx context.Context, c *client.Client, out io.Writer, args []string) error {
	if len(args) != 5 {
		return errors.New("usage: add DESC AMOUNT DATE CATEGORY_ID PAYMENT_METHOD_ID")
	}
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[1])
	}
	categoryID, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid category id %q", args[3])
	}
	methodID, err := strconv.ParseInt(args[4], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid payment method id %q", args[4])
	}

	tx, err := c.CreateTransaction(ctx, client.NewTransaction{
		Description:     args[0],
		Amount:          amount,
		Date:            args[2],
		CategoryID:      categoryID,
		PaymentMethodID: methodID,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "added transaction %d\n", tx.ID)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

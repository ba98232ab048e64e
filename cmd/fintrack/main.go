// Command fintrack is a terminal client for the fintrack API.
//
//	fintrack [-api URL] -email EMAIL COMMAND
//
// The password is read from FINTRACK_PASSWORD or prompted for without echo.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env := environment{
		out:      os.Stdout,
		errOut:   os.Stderr,
		password: readPassword,
	}
	if err := run(ctx, os.Args[1:], env); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func readPassword() ([]byte, error) {
	if pw := os.Getenv("FINTRACK_PASSWORD"); pw != "" {
		return []byte(pw), nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	return pw, err
}

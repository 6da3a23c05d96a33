package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/polkiloo/atelier/internal/pkg/auth"
)

// runTool executes an operator subcommand when args name one.
// It reports false when args are meant for the server.
func runTool(args []string, stdout, stderr io.Writer) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}

	var err error
	switch args[0] {
	case "hash-admin-key":
		err = hashAdminKey(args[1:], stdout)
	case "issue-token":
		err = issueToken(args[1:], stdout)
	default:
		return 0, false
	}
	if err != nil {
		fmt.Fprintf(stderr, "atelier %s: %v\n", args[0], err)
		return 2, true
	}
	return 0, true
}

// hashAdminKey prints the bcrypt hash to put into ADMIN_KEY_HASH.
func hashAdminKey(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("hash-admin-key", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cost := fs.Int("cost", 0, "bcrypt cost, 0 for the library default")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || fs.Arg(0) == "" {
		return errors.New("usage: hash-admin-key [-cost N] <key>")
	}

	hash, err := auth.NewBcryptHasher(*cost).Hash(fs.Arg(0))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, hash)
	return err
}

// issueToken prints a signed holder token, mostly for staging and support sessions.
func issueToken(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	secret := fs.String("jwt-secret", os.Getenv("JWT_SECRET"), "secret shared with the server")
	ttl := fs.Duration("ttl", 0, "token lifetime, 0 for the default")
	issuer := fs.String("issuer", "", "issuer claim")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: issue-token [-jwt-secret S] [-ttl D] <holder-id>")
	}
	if *secret == "" {
		return errors.New("jwt secret is required")
	}

	token, err := auth.NewJWTStrategy(*secret, auth.Options{TTL: *ttl, Issuer: *issuer}).IssueToken(fs.Arg(0))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, token)
	return err
}

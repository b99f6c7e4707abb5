// Command vaultctl holds operator tasks for the vault: generating a cipher key
// and bootstrapping the first administrator.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/cipher"
)

const usage = `usage: vaultctl <command> [flags]

commands:
  keygen        print a random base64 key for CIPHER_KEY
  create-admin  create an ADMIN user (-username, -email, -phone; password is prompted)
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "vaultctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "keygen":
		key, err := cipher.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, key)
		return nil
	case "create-admin":
		return runCreateAdmin(ctx, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}

	fmt.Fprint(stderr, usage)
	return fmt.Errorf("unknown command %q", args[0])
}

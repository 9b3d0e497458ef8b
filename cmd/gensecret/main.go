// gensecret prints a random device key, or a signed device token when --device is given.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/nkiryanov/cardpay/internal/service/deviceauth"
)

const SecretKeyBytesLen = 32

func run(args []string, out io.Writer, now func() time.Time) error {
	var (
		device string
		secret string
		ttl    time.Duration
	)

	fs := pflag.NewFlagSet("gensecret", pflag.ContinueOnError)
	fs.StringVarP(&device, "device", "n", "", "Card reader name to issue token for")
	fs.StringVarP(&secret, "secret", "s", "", "Device key tokens are signed with (DEVICE_KEY of the server)")
	fs.DurationVarP(&ttl, "ttl", "t", 0, "Token lifetime, server default if not set")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if device == "" {
		b := make([]byte, SecretKeyBytesLen)
		if _, err := rand.Read(b); err != nil {
			return fmt.Errorf("error while generating secret key: %w", err)
		}
		_, err := fmt.Fprintln(out, hex.EncodeToString(b))
		return err
	}

	if secret == "" {
		return errors.New("--secret is required to issue device token")
	}

	m, err := deviceauth.NewToken(deviceauth.Config{SecretKey: secret, TTL: ttl})
	if err != nil {
		return err
	}

	token, expiresAt, err := m.Issue(device, now())
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "%s\n# expires at %s\n", token, expiresAt.Format(time.RFC3339))
	return err
}

func main() {
	if err := run(os.Args[1:], os.Stdout, time.Now); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/fleetdesk/portal/internal/backend"
	"github.com/fleetdesk/portal/internal/core/ports"
	"github.com/fleetdesk/portal/internal/pkg/config"
)

var resourceNames = []string{"users", "cars", "fuel-prices", "travel-purpose-dictionaries", "laws", "addresses"}

var fetchOpts struct {
	identifier string
	password   string
	query      ports.ListQuery
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <resource>",
	Short: "Log in to the backend and print one resource list as JSON",
	Long: `fetch performs the backend login handshake, lists one resource and
prints it as JSON. No portal session is created.

Resources: ` + strings.Join(resourceNames, ", ") + `

The password is read from PORTAL_PASSWORD when --password is not given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		var bc config.BackendConfig
		if err := envconfig.Process(ctx, &bc); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		password := fetchOpts.password
		if password == "" {
			password = os.Getenv("PORTAL_PASSWORD")
		}

		client := backend.NewClient(backend.Config{
			BaseURL:       bc.BaseURL,
			Timeout:       bc.Timeout,
			SessionCookie: bc.SessionCookie,
			XSRFCookie:    bc.XSRFCookie,
			HealthPath:    bc.HealthPath,
		}, zerolog.Nop())
		return runFetch(ctx, cmd.OutOrStdout(), client, args[0], fetchOpts.identifier, password, fetchOpts.query)
	},
}

func init() {
	f := fetchCmd.Flags()
	f.StringVarP(&fetchOpts.identifier, "identifier", "u", "", "login identifier (email)")
	f.StringVarP(&fetchOpts.password, "password", "p", "", "login password")
	f.IntVar(&fetchOpts.query.Page, "page", 0, "page number")
	f.IntVar(&fetchOpts.query.PerPage, "per-page", 0, "page size")
	f.StringVar(&fetchOpts.query.Search, "search", "", "search term")
	f.StringVar(&fetchOpts.query.Sort, "sort", "", "sort field")
	_ = fetchCmd.MarkFlagRequired("identifier")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(ctx context.Context, w io.Writer, client *backend.Client, resource, identifier, password string, q ports.ListQuery) error {
	if !validResource(resource) {
		return fmt.Errorf("unknown resource %q (want one of %s)", resource, strings.Join(resourceNames, ", "))
	}
	if identifier == "" || password == "" {
		return errors.New("identifier and password are required")
	}

	creds, err := client.Exchange(ctx, identifier, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer func() { _ = client.Logout(context.WithoutCancel(ctx), creds.Token) }()

	items, err := list(ctx, client, resource, creds.Token, q)
	if err != nil {
		return fmt.Errorf("list %s: %w", resource, err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func list(ctx context.Context, c *backend.Client, resource, token string, q ports.ListQuery) (any, error) {
	switch resource {
	case "users":
		return c.Users().List(ctx, token, q)
	case "cars":
		return c.Cars().List(ctx, token, q)
	case "fuel-prices":
		return c.FuelPrices().List(ctx, token, q)
	case "travel-purpose-dictionaries":
		return c.TravelPurposes().List(ctx, token, q)
	case "laws":
		return c.Laws().List(ctx, token, q)
	default:
		return c.Addresses().List(ctx, token, q)
	}
}

func validResource(name string) bool {
	for _, r := range resourceNames {
		if r == name {
			return true
		}
	}
	return false
}

// Command estoque is the terminal client of the stock ledger. It keeps the
// ledger in a local state directory and replicates every change to the
// server in the background; without a server it works offline.
//
//	estoque -u admin -p 133712 register "Blanket 01" Grey 100
//	estoque -u admin -p 133712 move F100 1=-30
//	estoque -u consulta -p 123456 list -sort balance -desc
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/luis-polezi/stock-control/internal/apierror"
	"github.com/luis-polezi/stock-control/internal/auth"
	"github.com/luis-polezi/stock-control/internal/config"
	"github.com/luis-polezi/stock-control/internal/infra"
	"github.com/luis-polezi/stock-control/internal/ledger"
	"github.com/luis-polezi/stock-control/internal/model"
	"github.com/luis-polezi/stock-control/internal/repository"
	"github.com/luis-polezi/stock-control/internal/service"
	"github.com/luis-polezi/stock-control/internal/syncclient"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const usage = `usage: estoque [flags] <command> [args]

commands:
  list [-search term] [-sort id|name|model|balance] [-desc]
  register <name> <model> <initial balance>
  edit <id> <name> <model>
  delete <id>
  move <ficha> <id>=<delta> [<id>=<delta> ...]
  logs [-date YYYY-MM-DD] [-ficha text] [-product text]
  audit
  import <file.json|file.csv>
  export json|csv|pdf [-dir path]
  backup
  restore
  backups
  delete-backup <file name>
  clear-local -yes

flags:
`

// app is one authenticated session.
type app struct {
	svc    service.InventoryService
	who    model.Identity
	client *syncclient.Client // nil when offline-only
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}
	infra.ConfigureLogger(cfg.Env, cfg.LogLevel)

	fs := flag.NewFlagSet("estoque", flag.ContinueOnError)
	user := fs.String("u", os.Getenv("ESTOQUE_USER"), "username (or ESTOQUE_USER)")
	pass := fs.String("p", os.Getenv("ESTOQUE_PASSWORD"), "password (or ESTOQUE_PASSWORD)")
	server := fs.String("server", cfg.APIBaseURL, "server base URL, empty to work offline")
	stateDir := fs.String("state", cfg.ClientStateDir, "local state directory")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := repository.NewFileKV(*stateDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "state:", err)
		return 1
	}
	creds, err := auth.ParseCredentials(credentialTable(cfg), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "credentials:", err)
		return 1
	}

	a := &app{}
	var remote service.Remote
	if strings.TrimSpace(*server) != "" {
		a.client = syncclient.New(syncclient.Config{BaseURL: *server, Timeout: cfg.HTTPTimeout})
		remote = a.client
	}
	a.svc = service.NewInventoryService(ctx, ledger.New(), repository.NewLedgerRepository(kv), auth.NewGate(creds), remote)
	defer a.svc.Close()

	a.who, err = a.svc.Login(*user, *pass)
	if err != nil {
		fmt.Fprintln(os.Stderr, "login failed: invalid username or password")
		return 1
	}
	if _, err := a.svc.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("local state ignored")
	}
	if a.client != nil && cfg.AuthEnabled {
		if _, err := a.client.Login(ctx, *user, *pass); err != nil {
			log.Warn().Err(err).Msg("server login failed, continuing offline")
		}
	}

	err = a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
	a.svc.Close()
	if a.client != nil && a.client.Offline() {
		fmt.Fprintln(os.Stderr, "offline mode: changes are saved locally only")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

func credentialTable(cfg *config.Config) string {
	if cfg.AuthUsers != "" {
		return cfg.AuthUsers
	}
	return auth.DefaultUsers
}

// describe turns an error kind into a message for the operator.
func describe(err error) string {
	switch {
	case errors.Is(err, apierror.ErrForbidden):
		return "permission denied: your profile may only view data"
	case errors.Is(err, apierror.ErrStorageFailure):
		return "change applied but not saved locally: " + err.Error()
	case errors.Is(err, apierror.ErrRemoteUnavailable):
		return "server unavailable: " + err.Error()
	}
	return err.Error()
}

package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/bricks-admin/dashboard/internal/client"
	"github.com/bricks-admin/dashboard/internal/config"
	"github.com/bricks-admin/dashboard/internal/session"
	"github.com/bricks-admin/dashboard/internal/storage"
	"github.com/bricks-admin/dashboard/internal/store"
	"github.com/bricks-admin/dashboard/internal/utils"
)

// app is what every subcommand runs against
type app struct {
	store *store.Store
	prefs storage.Store
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":          {"login -email E -password P", runLogin},
	"logout":         {"logout", runLogout},
	"users":          {"users [-q text]", runUsers},
	"user-add":       {"user-add -name N -email E -password P [-role user]", runUserAdd},
	"tokens":         {"tokens [-user id] [-q text] [-sort col] [-page n] [-size n] [-pending]", runTokens},
	"token-create":   {"token-create -user id -customer C -material flyash|bedash", runTokenCreate},
	"token-update":   {"token-update -token id -user id -truck T -weight W [-commission C]", runTokenUpdate},
	"token-confirm":  {"token-confirm -token id -user id -paid P", runTokenConfirm},
	"token-delete":   {"token-delete -token id -user id", runTokenDelete},
	"balance":        {"balance [-user id] [-sort col]", runBalance},
	"balance-add":    {"balance-add -user id -flyash A -bedash A -mode cash|online [-bank B] [-holder H] [-ref R]", runBalanceAdd},
	"balance-delete": {"balance-delete -user id -tx id", runBalanceDelete},
	"bedash":         {"bedash", runBedash},
	"bedash-add":     {"bedash-add -user id -amount A -custom YYYY-MM-DD -target YYYY-MM-DD [-material bedash]", runBedashAdd},
	"bedash-confirm": {"bedash-confirm -id id", runBedashConfirm},
	"export":         {"export -what tokens|transactions [-user id] -o file.xlsx", runExport},
	"theme":          {"theme", runTheme},
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(os.Stderr, "usage: dashboard <command> [flags]")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	logger := utils.NewLogger(cfg.Log.Level)

	prefs, err := storage.OpenFileStore(cfg.Client.StatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	sess := session.New(prefs)

	var st *store.Store
	api := client.New(cfg.Client.BaseURL, sess,
		client.WithTimeout(cfg.Client.Timeout),
		client.WithUnauthorizedHandler(func() {
			st.ForceLogout()
			fmt.Fprintf(os.Stderr, "Session expired, redirecting to %s\n", store.RouteLogin)
		}),
	)
	st = store.New(api, sess, prefs, store.WithLogger(logger))
	st.Restore()

	a := &app{store: st, prefs: prefs}
	if err := cmd.run(context.Background(), a, os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if n := st.Snapshot().Notification; !n.Empty() {
		fmt.Printf("[%s] %s\n", n.Type, n.Message)
	}
}

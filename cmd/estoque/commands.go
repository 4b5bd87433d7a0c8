package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/luis-polezi/stock-control/internal/apierror"
	"github.com/luis-polezi/stock-control/internal/exchange"
	"github.com/luis-polezi/stock-control/internal/ledger"
	"github.com/luis-polezi/stock-control/internal/model"
	"github.com/luis-polezi/stock-control/internal/service"
)

var errUsage = errors.New("invalid arguments, run estoque -h for usage")

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "list":
		return a.list(args)
	case "register":
		return a.register(ctx, args)
	case "edit":
		return a.edit(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "move":
		return a.move(ctx, args)
	case "logs":
		return a.logs(args)
	case "audit":
		return a.audit()
	case "import":
		return a.importFile(ctx, args)
	case "export":
		return a.export(args)
	case "backup":
		return a.backup(ctx)
	case "restore":
		return a.restore(ctx)
	case "backups":
		return a.backups(ctx)
	case "delete-backup":
		return a.deleteBackup(ctx, args)
	case "clear-local":
		return a.clearLocal(ctx, args)
	}
	return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
}

func (a *app) list(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	search := fs.String("search", "", "filter by name or model")
	sortBy := fs.String("sort", "name", "sort column")
	desc := fs.Bool("desc", false, "descending order")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	col, err := ledger.ParseColumn(*sortBy)
	if err != nil {
		return err
	}
	dir := ledger.Asc
	if *desc {
		dir = ledger.Desc
	}

	products, err := a.svc.Products(a.who, *search, col, dir)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRODUCT\tMODEL\tBALANCE")
	total := 0
	for _, p := range products {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", p.ID, p.Name, p.Model, p.Balance)
		total += p.Balance
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d products, %d items in stock\n", len(products), total)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	balance, err := strconv.Atoi(args[2])
	if err != nil {
		return apierror.Invalid("initialBalance", "must be an integer")
	}
	p, err := a.svc.RegisterProduct(ctx, a.who, args[0], args[1], balance)
	if p.ID != 0 {
		fmt.Printf("registered #%d %s (%s) with balance %d\n", p.ID, p.Name, p.Model, p.Balance)
	}
	return err
}

func (a *app) edit(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	p, err := a.svc.EditProduct(ctx, a.who, id, args[1], args[2])
	if p.ID != 0 {
		fmt.Printf("updated #%d %s (%s)\n", p.ID, p.Name, p.Model)
	}
	return err
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.svc.DeleteProduct(ctx, a.who, id); err != nil {
		return err
	}
	fmt.Printf("deleted #%d and its movements\n", id)
	return nil
}

func (a *app) move(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	deltas, err := parseDeltas(args[1:])
	if err != nil {
		return err
	}
	entries, err := a.svc.ApplyMovements(ctx, a.who, deltas, args[0])
	for _, e := range entries {
		fmt.Printf("%s %d on #%d (ficha %s)\n", e.Type.Label(), e.Quantity, e.ProductID, e.Ficha)
	}
	return err
}

func (a *app) logs(args []string) error {
	fs := flag.NewFlagSet("logs", flag.ContinueOnError)
	date := fs.String("date", "", "date prefix, e.g. 2024-03-09")
	ficha := fs.String("ficha", "", "ficha contains")
	product := fs.String("product", "", "product name or model contains")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	entries, err := a.svc.Logs(a.who, ledger.LogFilter{DatePrefix: *date, Ficha: *ficha, Product: *product})
	if err != nil {
		return err
	}
	products, err := a.svc.Products(a.who, "", ledger.ColumnID, ledger.Asc)
	if err != nil {
		return err
	}
	byID := make(map[int]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tFICHA\tUSER\tPRODUCT\tMOVEMENT\tQTY")
	for _, e := range entries {
		name := "?"
		if p, ok := byID[e.ProductID]; ok {
			name = p.Name + " (" + p.Model + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", e.Date, e.Ficha, e.User, name, e.Type.Label(), e.Quantity)
	}
	return w.Flush()
}

func (a *app) audit() error {
	drift, err := a.svc.Audit(a.who)
	if err != nil {
		return err
	}
	if len(drift) == 0 {
		fmt.Println("all balances match their movement history")
		return nil
	}
	for _, d := range drift {
		fmt.Printf("#%d %s: stored %d, movements add up to %d\n", d.Product.ID, d.Product.Name, d.Product.Balance, d.Replayed)
	}
	return nil
}

func (a *app) importFile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	totals, err := a.svc.Import(ctx, a.who, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d products and %d movements\n", totals.Products, totals.Logs)
	return nil
}

func (a *app) export(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	kind := args[0]
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	dir := fs.String("dir", ".", "output directory")
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}

	now := time.Now()
	var files map[string]service.ExportFormat
	switch kind {
	case "json":
		files = map[string]service.ExportFormat{exchange.FileName(now, "json"): service.ExportJSON}
	case "pdf":
		files = map[string]service.ExportFormat{exchange.FileName(now, "pdf"): service.ExportPDF}
	case "csv":
		products, logs := exchange.CSVFileNames(now)
		files = map[string]service.ExportFormat{products: service.ExportProductsCSV, logs: service.ExportLogsCSV}
	default:
		return fmt.Errorf("unknown export format %q: %w", kind, errUsage)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(*dir, name)
		if err := writeFile(path, func(w io.Writer) error { return a.svc.Export(a.who, files[name], w) }); err != nil {
			return err
		}
		fmt.Println("wrote", path)
	}
	return nil
}

func (a *app) backup(ctx context.Context) error {
	resp, err := a.svc.Backup(ctx, a.who)
	if err != nil {
		return err
	}
	fmt.Printf("backup %s stored: %d products, %d movements\n%s\n",
		resp.Details.FileName, resp.Details.Products, resp.Details.Logs, resp.DownloadURL)
	return nil
}

func (a *app) restore(ctx context.Context) error {
	ok, err := a.svc.RestoreLatest(ctx, a.who)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("no backup restored: server unavailable or no backups stored")
		return nil
	}
	fmt.Println("local ledger replaced by the latest backup")
	return nil
}

func (a *app) backups(ctx context.Context) error {
	list, err := a.svc.ListBackups(ctx, a.who)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BACKUP\tSIZE\tCREATED")
	for _, b := range list {
		fmt.Fprintf(w, "%s\t%d\t%s\n", b.Name, b.Size, b.CreatedAt.Local().Format(model.DateLayout))
	}
	return w.Flush()
}

func (a *app) deleteBackup(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := a.svc.DeleteBackup(ctx, a.who, args[0]); err != nil {
		return err
	}
	fmt.Println("deleted", args[0])
	return nil
}

func (a *app) clearLocal(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("clear-local", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "confirm")
	if err := fs.Parse(args); err != nil || !*yes {
		return errUsage
	}
	if err := a.svc.ClearLocal(ctx, a.who); err != nil {
		return err
	}
	fmt.Println("local ledger cleared; run restore to fetch the latest backup")
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, apierror.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

// parseDeltas reads id=delta pairs. Repeated ids add up.
func parseDeltas(args []string) (map[int]int, error) {
	out := make(map[int]int, len(args))
	for _, arg := range args {
		idStr, deltaStr, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, apierror.Invalid("movement", fmt.Sprintf("%q is not id=delta", arg))
		}
		id, err := parseID(idStr)
		if err != nil {
			return nil, err
		}
		delta, err := strconv.Atoi(strings.TrimPrefix(deltaStr, "+"))
		if err != nil {
			return nil, apierror.Invalid("movement", fmt.Sprintf("%q: delta must be an integer", arg))
		}
		out[id] += delta
	}
	return out, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bricks-admin/dashboard/internal/export"
	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/bricks-admin/dashboard/internal/rules"
	"github.com/bricks-admin/dashboard/internal/storage"
	"github.com/shopspring/decimal"
)

var (
	errNotLoggedIn      = errors.New("not logged in, run: dashboard login")
	errBalanceNotLoaded = errors.New("balance was not loaded, try again")
)

// decimalFlag parses a money or weight flag
type decimalFlag struct{ v decimal.Decimal }

func (d *decimalFlag) String() string { return d.v.String() }

func (d *decimalFlag) Set(s string) error {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	d.v = v
	return nil
}

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func table() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func (a *app) requireLogin() (models.Identity, error) {
	st := a.store.Snapshot()
	if st.Auth.Token == "" {
		return models.Identity{}, errNotLoggedIn
	}
	return st.Auth.User, nil
}

// owner resolves the -user flag: a user always works on their own data
func owner(me models.Identity, userID int64) int64 {
	if userID == 0 || !me.Role.IsStaff() {
		return me.ID
	}
	return userID
}

// loadBalance fetches the balance of userID; a fetch that settles without
// writing the slice leaves no summary to show
func (a *app) loadBalance(ctx context.Context, userID int64) (*models.BalanceSummary, error) {
	if err := a.store.FetchBalance(ctx, userID); err != nil {
		return nil, err
	}
	summary := a.store.Snapshot().Balance.Summary
	if summary == nil {
		return nil, errBalanceNotLoaded
	}
	return summary, nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.store.Login(ctx, *email, *password); err != nil {
		return err
	}
	me := a.store.Snapshot().Auth.User
	fmt.Printf("Logged in as %s (%s), go to %s\n", me.Name, me.Role, a.store.Snapshot().Route)
	return nil
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	if _, err := a.requireLogin(); err != nil {
		return err
	}
	a.store.Logout(ctx)
	fmt.Printf("Logged out, go to %s\n", a.store.Snapshot().Route)
	return nil
}

func runUsers(ctx context.Context, a *app, args []string) error {
	fs := newFlags("users")
	query := fs.String("q", "", "search text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	me, err := a.requireLogin()
	if err != nil {
		return err
	}
	if !rules.CanSeeUsersTab(me.Role) {
		return fmt.Errorf("the users page is for admins")
	}
	if err := a.store.FetchUsers(ctx); err != nil {
		return err
	}

	w := table()
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tACTIVE\tEDIT\tDELETE")
	for _, u := range rules.Search(a.store.VisibleUsers(), *query, rules.UserFields) {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%t\t%t\n",
			u.ID, u.Name, u.Email, u.Role, u.IsActive, rules.CanEdit(me, u), rules.CanDelete(me, u))
	}
	return w.Flush()
}

func runUserAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("user-add")
	var form rules.UserForm
	fs.StringVar(&form.Name, "name", "", "display name")
	fs.StringVar(&form.Email, "email", "", "login email")
	fs.StringVar(&form.Password, "password", "", "initial password")
	role := fs.String("role", string(models.RoleUser), "user, admin or superadmin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireLogin(); err != nil {
		return err
	}
	form.Role = models.Role(*role)
	return a.store.AddUser(ctx, form)
}

func runTokens(ctx context.Context, a *app, args []string) error {
	fs := newFlags("tokens")
	userID := fs.Int64("user", 0, "owner id; staff default to every token")
	query := fs.String("q", "", "search text")
	column := fs.String("sort", "", "sort column: weight, totalAmount, paidAmount, carryForward")
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", rules.PageSizes[0], "page size")
	pendingOnly := fs.Bool("pending", false, "hide tokens confirmed more than 15 days ago")
	if err := fs.Parse(args); err != nil {
		return err
	}
	me, err := a.requireLogin()
	if err != nil {
		return err
	}

	var tokens []models.Token
	if me.Role.IsStaff() && *userID == 0 {
		if err := a.store.FetchAllTokens(ctx); err != nil {
			return err
		}
		tokens = a.store.Snapshot().AdminTokens.Items
	} else {
		if err := a.store.FetchTokens(ctx, owner(me, *userID)); err != nil {
			return err
		}
		tokens = a.store.Snapshot().Tokens.Items
	}
	if *pendingOnly {
		tokens = rules.FilterTokens(tokens, nil, time.Now())
	}

	sortState := rules.SortState{}
	if *column != "" {
		sortState.Toggle(*column)
	}
	pager := rules.NewPager()
	pager.SetSize(*size)
	pager.SetPage(*page - 1)
	rows, total := rules.Paginate(rules.SortRows(rules.Search(tokens, *query, rules.TokenFields), sortState, rules.TokenDate, rules.TokenColumns), pager)

	w := table()
	fmt.Fprintln(w, "ID\tCUSTOMER\tTRUCK\tMATERIAL\tWEIGHT\tTOTAL\tPAID\tCARRY\tSTATUS\tCREATED")
	for _, t := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.CustomerName, t.TruckNumber, t.MaterialType, t.Weight, t.TotalAmount,
			t.PaidAmount, t.CarryForward, t.Status, t.CreatedAt.Format(time.DateOnly))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d of %d tokens\n", len(rows), total)
	return nil
}

func runTokenCreate(ctx context.Context, a *app, args []string) error {
	fs := newFlags("token-create")
	var form rules.TokenForm
	fs.Int64Var(&form.UserID, "user", 0, "owner id")
	fs.StringVar(&form.CustomerName, "customer", "", "customer name")
	material := fs.String("material", string(models.MaterialFlyash), "flyash or bedash")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireLogin(); err != nil {
		return err
	}
	form.MaterialType = models.MaterialType(*material)

	// the estimate needs the balance report and the owner's pending tokens
	if err := a.store.FetchAdminBalance(ctx); err == nil {
		if err := a.store.FetchTokens(ctx, form.UserID); err == nil {
			fmt.Printf("Possible tokens before this one: %d\n", a.store.PossibleTokensFor(form.UserID))
			if owed := a.store.NegativeCarryFor(form.CustomerName); owed.Sign() < 0 {
				fmt.Printf("Customer %q carries %s\n", form.CustomerName, owed)
			}
		}
	}
	return a.store.CreateToken(ctx, form)
}

func runTokenUpdate(ctx context.Context, a *app, args []string) error {
	fs := newFlags("token-update")
	var req models.UpdateTokenRequest
	var weight, commission decimalFlag
	fs.Int64Var(&req.TokenID, "token", 0, "token id")
	fs.Int64Var(&req.UserID, "user", 0, "owner id, to refresh their list")
	fs.StringVar(&req.TruckNumber, "truck", "", "truck number")
	fs.Var(&weight, "weight", "weight in tons")
	fs.Var(&commission, "commission", "commission")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireLogin(); err != nil {
		return err
	}
	req.Weight, req.Commission = weight.v, commission.v
	fmt.Printf("Total: %s\n", rules.TokenTotal(req.Weight, req.Commission))
	return a.store.UpdateToken(ctx, req)
}

func runTokenConfirm(ctx context.Context, a *app, args []string) error {
	fs := newFlags("token-confirm")
	var req models.ConfirmTokenRequest
	var paid decimalFlag
	userID := fs.Int64("user", 0, "owner id, to refresh their list")
	fs.Int64Var(&req.TokenID, "token", 0, "token id")
	fs.Var(&paid, "paid", "amount paid")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireLogin(); err != nil {
		return err
	}
	req.PaidAmount = paid.v
	return a.store.ConfirmToken(ctx, *userID, req)
}

func runTokenDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlags("token-delete")
	tokenID := fs.Int64("token", 0, "token id")
	userID := fs.Int64("user", 0, "owner id, to refresh their list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireLogin(); err != nil {
		return err
	}
	return a.store.DeleteToken(ctx, *userID, *tokenID)
}

func runBalance(ctx context.Context, a *app, args []string) error {
	fs := newFlags("balance")
	userID := fs.Int64("user", 0, "account id; staff default to the report of every account")
	column := fs.String("sort", "", "sort column: flyashAmount, bedashAmount, totalAmount, flyashTons, bedashTons")
	if err := fs.Parse(args); err != nil {
		return err
	}
	me, err := a.requireLogin()
	if err != nil {
		return err
	}

	w := table()
	if me.Role.IsStaff() && *userID == 0 {
		if err := a.store.FetchAdminBalance(ctx); err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tNAME\tFLYASH LEFT\tBEDASH LEFT\tTOTAL TONS")
		for _, row := range a.store.Snapshot().AdminBalance.Items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				row.User.ID, row.User.Name, row.Flyash.Remaining, row.Bedash.Remaining, row.TotalTons)
		}
		return w.Flush()
	}

	id := owner(me, *userID)
	a.store.SelectUser(id)
	summary, err := a.loadBalance(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("%s\nflyash: %s total, %s used, %s left\nbedash: %s total, %s used, %s left\n",
		summary.User.Name,
		summary.Flyash.Total, summary.Flyash.Used, summary.Flyash.Remaining,
		summary.Bedash.Total, summary.Bedash.Used, summary.Bedash.Remaining)

	sortState := rules.SortState{}
	if *column != "" {
		sortState.Toggle(*column)
	}
	fmt.Fprintln(w, "ID\tDATE\tFLYASH\tBEDASH\tTOTAL\tFLYASH TONS\tBEDASH TONS\tMODE")
	for _, tx := range rules.SortRows(summary.Transactions, sortState, rules.TransactionDate, rules.TransactionColumns) {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date.Format(time.DateOnly), tx.FlyashAmount, tx.BedashAmount, tx.TotalAmount,
			tx.FlyashTons, tx.BedashTons, tx.PaymentMode)
	}
	return w.Flush()
}

func runBalanceAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("balance-add")
	var form rules.BalanceForm
	var flyash, bedash decimalFlag
	fs.Int64Var(&form.UserID, "user", 0, "account id")
	fs.Var(&flyash, "flyash", "flyash amount")
	fs.Var(&bedash, "bedash", "bedash amount")
	mode := fs.String("mode", "", "cash or online")
	fs.StringVar(&form.BankName, "bank", "", "bank name, for cash")
	fs.StringVar(&form.AccountHolder, "holder", "", "account holder, for online")
	fs.StringVar(&form.ReferenceNumber, "ref", "", "reference number, for online")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireLogin(); err != nil {
		return err
	}
	form.FlyashAmount, form.BedashAmount = flyash.v, bedash.v
	form.PaymentMode = models.PaymentMode(*mode)
	fmt.Printf("Adds %s tons\n", rules.TotalTons(form.FlyashAmount, form.BedashAmount))
	return a.store.AddBalance(ctx, form)
}

func runBalanceDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlags("balance-delete")
	userID := fs.Int64("user", 0, "account id")
	txID := fs.Int64("tx", 0, "transaction id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireLogin(); err != nil {
		return err
	}
	return a.store.DeleteBalance(ctx, *userID, *txID)
}

func runBedash(ctx context.Context, a *app, _ []string) error {
	if _, err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.store.FetchBedash(ctx); err != nil {
		return err
	}

	now := time.Now()
	times := storage.ConfirmTimes(a.prefs)
	w := table()
	fmt.Fprintln(w, "ID\tUSER\tMATERIAL\tAMOUNT\tTONS LEFT\tTARGET\tSTATUS")
	for _, item := range a.store.PendingBedash(now) {
		status := string(item.Status)
		if item.Status == models.BedashCompleted {
			at, ok := times[item.ID]
			if !ok && item.ConfirmedAt != nil {
				at = *item.ConfirmedAt
			}
			status = rules.Countdown(at, rules.BedashWindow, now)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			item.ID, item.UserName, item.MaterialType, item.Amount, item.RemainingTons,
			item.TargetDate.Format(time.DateOnly), status)
	}
	return w.Flush()
}

func runBedashAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("bedash-add")
	var form rules.BedashForm
	var amount decimalFlag
	fs.Int64Var(&form.UserID, "user", 0, "account id")
	fs.Var(&amount, "amount", "amount")
	fs.StringVar(&form.CustomDate, "custom", "", "custom date, YYYY-MM-DD")
	fs.StringVar(&form.TargetDate, "target", "", "target date, YYYY-MM-DD")
	material := fs.String("material", string(models.MaterialBedash), "flyash or bedash")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireLogin(); err != nil {
		return err
	}
	form.Amount = amount.v
	form.MaterialType = models.MaterialType(*material)
	return a.store.AddBedash(ctx, form)
}

func runBedashConfirm(ctx context.Context, a *app, args []string) error {
	fs := newFlags("bedash-confirm")
	id := fs.Int64("id", 0, "message id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireLogin(); err != nil {
		return err
	}
	return a.store.ConfirmBedash(ctx, *id)
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := newFlags("export")
	what := fs.String("what", "tokens", "tokens or transactions")
	userID := fs.Int64("user", 0, "account id")
	out := fs.String("o", "", "output .xlsx file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("-o is required")
	}
	me, err := a.requireLogin()
	if err != nil {
		return err
	}
	id := owner(me, *userID)

	var write func(io.Writer) error
	switch *what {
	case "tokens":
		if err := a.store.FetchTokens(ctx, id); err != nil {
			return err
		}
		tokens := a.store.Snapshot().Tokens.Items
		write = func(w io.Writer) error { return export.Tokens(w, tokens) }
	case "transactions":
		summary, err := a.loadBalance(ctx, id)
		if err != nil {
			return err
		}
		txs := summary.Transactions
		write = func(w io.Writer) error { return export.Transactions(w, txs) }
	default:
		return fmt.Errorf("unknown export %q", *what)
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", *out)
	return nil
}

func runTheme(_ context.Context, a *app, _ []string) error {
	mode, err := a.store.ToggleTheme()
	if err != nil {
		return err
	}
	fmt.Printf("Theme: %s\n", mode)
	return nil
}

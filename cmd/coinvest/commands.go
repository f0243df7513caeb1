package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/coinvest/coinvest/internal/app"
	"github.com/coinvest/coinvest/internal/forms"
	"github.com/coinvest/coinvest/internal/format"
	"github.com/coinvest/coinvest/internal/mining"
)

var errUsage = errors.New("usage")

type env struct {
	app    *app.App
	out    *printer
	stderr io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"login":           {"sign in (-email, -password, -otp)", runLogin},
	"register":        {"create an account (-name, -email, -password, -referral)", runRegister},
	"logout":          {"sign out and wipe local data", runLogout},
	"forgot-password": {"email a reset code (-email)", runForgotPassword},
	"reset-password":  {"set a new password (-email, -otp, -password)", runResetPassword},
	"profile":         {"show the profile, or update it with -name/-phone", runProfile},
	"dashboard":       {"balances, mining and loyalty", screen(func(ctx context.Context, e *env) (any, error) { return e.app.Screens.Dashboard(ctx) })},
	"plans":           {"available investment plans", screen(func(ctx context.Context, e *env) (any, error) { return e.app.Screens.Plans(ctx) })},
	"investments":     {"your investments", screen(func(ctx context.Context, e *env) (any, error) { return e.app.Screens.Investments(ctx) })},
	"deposits":        {"deposit history and chains", screen(func(ctx context.Context, e *env) (any, error) { return e.app.Screens.Deposits(ctx) })},
	"withdrawals":     {"withdrawal history and chains", screen(func(ctx context.Context, e *env) (any, error) { return e.app.Screens.Withdrawals(ctx) })},
	"chains":          {"active deposit chains", screen(func(ctx context.Context, e *env) (any, error) { return e.app.Screens.Chains(ctx) })},
	"kyc":             {"verification status", screen(func(ctx context.Context, e *env) (any, error) { return e.app.Screens.KYC(ctx), nil })},
	"loyalty":         {"loyalty tier progress", screen(func(ctx context.Context, e *env) (any, error) { return e.app.Screens.Loyalty(ctx) })},
	"referrals":       {"referral summary and network", screen(func(ctx context.Context, e *env) (any, error) { return e.app.Screens.Referrals(ctx) })},
	"about":           {"about the platform", screen(func(ctx context.Context, e *env) (any, error) { return e.app.Screens.About(ctx) })},
	"transactions":    {"transaction history (-type, -id)", runTransactions},
	"invest":          {"invest in a plan (-plan, -amount)", runInvest},
	"deposit":         {"record a deposit (-amount, -chain, -tx)", runDeposit},
	"withdraw-otp":    {"email a withdrawal code", runWithdrawOTP},
	"withdraw":        {"request a withdrawal (-amount, -chain, -address, -otp)", runWithdraw},
	"kyc-upload":      {"upload a document (-type, -file)", runKYCUpload},
	"mining":          {"status | start | stop | claim | watch", runMining},
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: coinvest <command> [flags]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %s\n", name, commands[name].summary)
	}
}

func newFlags(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func screen(load func(ctx context.Context, e *env) (any, error)) func(context.Context, *env, []string) error {
	return func(ctx context.Context, e *env, _ []string) error {
		view, err := load(ctx, e)
		if err != nil {
			return err
		}
		return e.out.json(view)
	}
}

func runLogin(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	otp := fs.String("otp", "", "verification code, when asked for one")
	if err := parse(fs, args); err != nil {
		return err
	}
	res, err := e.app.Auth.Login(ctx, forms.Login{Email: *email, Password: *password}, *otp)
	if err != nil {
		return err
	}
	if res.OTPRequired {
		fmt.Fprintln(e.stderr, "a verification code was sent; run login again with -otp")
		return e.out.json(map[string]bool{"otp_required": true})
	}
	return e.out.json(res.User)
}

func runRegister(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "register")
	var form forms.Signup
	fs.StringVar(&form.Name, "name", "", "full name")
	fs.StringVar(&form.Email, "email", "", "email")
	fs.StringVar(&form.Password, "password", "", "password")
	fs.StringVar(&form.ReferralCode, "referral", "", "referral code")
	if err := parse(fs, args); err != nil {
		return err
	}
	form.PasswordConfirmation = form.Password
	res, err := e.app.Auth.Register(ctx, form)
	if err != nil {
		return err
	}
	return e.out.json(res.User)
}

func runLogout(ctx context.Context, e *env, _ []string) error {
	if err := e.app.Auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.stderr, "logged out")
	return nil
}

func runForgotPassword(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "forgot-password")
	var form forms.ForgotPassword
	fs.StringVar(&form.Email, "email", "", "account email")
	if err := parse(fs, args); err != nil {
		return err
	}
	return e.app.Auth.ForgotPassword(ctx, form)
}

func runResetPassword(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "reset-password")
	var form forms.ResetPassword
	fs.StringVar(&form.Email, "email", "", "account email")
	fs.StringVar(&form.OTP, "otp", "", "emailed code")
	fs.StringVar(&form.Password, "password", "", "new password")
	if err := parse(fs, args); err != nil {
		return err
	}
	form.PasswordConfirmation = form.Password
	return e.app.Auth.ResetPassword(ctx, form)
}

func runProfile(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "profile")
	var form forms.Profile
	fs.StringVar(&form.Name, "name", "", "new display name")
	fs.StringVar(&form.Phone, "phone", "", "new phone number")
	if err := parse(fs, args); err != nil {
		return err
	}
	if form.Name == "" && form.Phone == "" {
		view, err := e.app.Screens.Profile(ctx)
		if err != nil {
			return err
		}
		return e.out.json(view)
	}
	user, err := e.app.Auth.UpdateProfile(ctx, form)
	if err != nil {
		return err
	}
	return e.out.json(user)
}

func runTransactions(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "transactions")
	kind := fs.String("type", "", "only this transaction type")
	id := fs.Int64("id", 0, "show a single transaction")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id > 0 {
		row, err := e.app.Screens.Transaction(ctx, *id)
		if err != nil {
			return err
		}
		return e.out.json(row)
	}
	rows, err := e.app.Screens.Transactions(ctx, *kind)
	if err != nil {
		return err
	}
	return e.out.json(rows)
}

func runInvest(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "invest")
	var form forms.Invest
	fs.Int64Var(&form.PlanID, "plan", 0, "plan id")
	fs.StringVar(&form.Amount, "amount", "", "amount in USD")
	if err := parse(fs, args); err != nil {
		return err
	}
	inv, err := e.app.Investment.Invest(ctx, form)
	if err != nil {
		return err
	}
	return e.out.json(inv)
}

func runDeposit(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "deposit")
	var form forms.Deposit
	fs.StringVar(&form.Amount, "amount", "", "amount in USD")
	fs.Int64Var(&form.ChainID, "chain", 0, "chain id")
	fs.StringVar(&form.TxHash, "tx", "", "transaction hash")
	if err := parse(fs, args); err != nil {
		return err
	}
	dep, err := e.app.Funding.CreateDeposit(ctx, form)
	if err != nil {
		return err
	}
	return e.out.json(dep)
}

func runWithdrawOTP(ctx context.Context, e *env, _ []string) error {
	return e.app.Funding.RequestWithdrawalOTP(ctx)
}

func runWithdraw(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "withdraw")
	var form forms.Withdraw
	fs.StringVar(&form.Amount, "amount", "", "amount in USD")
	fs.Int64Var(&form.ChainID, "chain", 0, "chain id")
	fs.StringVar(&form.WalletAddress, "address", "", "destination wallet")
	fs.StringVar(&form.OTP, "otp", "", "emailed code")
	if err := parse(fs, args); err != nil {
		return err
	}
	wd, err := e.app.Funding.Withdraw(ctx, form)
	if err != nil {
		return err
	}
	return e.out.json(wd)
}

func runKYCUpload(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "kyc-upload")
	docType := fs.String("type", "", "document type")
	path := fs.String("file", "", "document image or PDF")
	if err := parse(fs, args); err != nil {
		return err
	}
	f, err := os.Open(*path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat document: %w", err)
	}
	doc, err := e.app.KYC.Upload(ctx, *docType, filepath.Base(*path), info.Size(), f)
	if err != nil {
		return err
	}
	return e.out.json(doc)
}

func runMining(ctx context.Context, e *env, args []string) error {
	action := "status"
	if len(args) > 0 {
		action = args[0]
	}
	var (
		st  mining.State
		err error
	)
	switch action {
	case "status":
		st, err = e.app.Mining.Status(ctx)
	case "start":
		st, err = e.app.Mining.Start(ctx)
	case "stop":
		st, err = e.app.Mining.Stop(ctx)
	case "claim":
		st, err = e.app.Mining.ClaimRewards(ctx)
	case "watch":
		return watchMining(ctx, e)
	default:
		fmt.Fprintf(e.stderr, "unknown mining action %q\n", action)
		return errUsage
	}
	if err != nil {
		return err
	}
	return e.out.json(st)
}

// watchMining prints the countdown until interrupted.
func watchMining(ctx context.Context, e *env) error {
	e.out.watch(true)
	defer e.out.watch(false)
	if err := e.app.Live.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	e.app.Live.Stop()
	return nil
}

type printer struct {
	mu       sync.Mutex
	w        io.Writer
	watching bool
}

func (p *printer) json(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) watch(on bool) {
	p.mu.Lock()
	p.watching = on
	p.mu.Unlock()
}

func (p *printer) miningLine(st mining.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.watching {
		return
	}
	line := fmt.Sprintf("%-8s %5s  %s  reward %s", st.Phase, format.Percent(st.Progress), format.Duration(st.RemainingSeconds), format.USD(st.Reward))
	if st.Stale {
		line += "  (offline)"
	}
	fmt.Fprintln(p.w, line)
}

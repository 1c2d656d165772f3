package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/subcommands"

	"budget/internal/core"
	"budget/internal/services"
)

// opener hydrates a ledger; the returned func releases its backend.
type opener func(ctx context.Context) (*services.LedgerService, func(), error)

// app carries the collaborators shared by every subcommand.
type app struct {
	open   opener
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
}

// errUsage marks bad arguments; it maps to ExitUsageError.
var errUsage = errors.New("usage")

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// Register the subcommands.
func register(c *subcommands.Commander, a *app) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&incomeCmd{app: a}, "ledger")
	c.Register(&expenseCmd{app: a}, "ledger")
	c.Register(&rmExpenseCmd{app: a}, "ledger")
	c.Register(&subscriptionCmd{app: a}, "ledger")
	c.Register(&goalCmd{app: a}, "ledger")
	c.Register(&balanceCmd{app: a}, "ledger")

	c.Register(&statsCmd{app: a}, "reports")
	c.Register(&streakCmd{app: a}, "reports")

	c.Register(&exportCmd{app: a}, "transfer")
	c.Register(&importCmd{app: a}, "transfer")
}

// run opens the ledger, calls fn and turns its error into an exit status.
func (a *app) run(ctx context.Context, fn func(context.Context, *services.LedgerService) error) subcommands.ExitStatus {
	svc, closeFn, err := a.open(ctx)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	if err := fn(ctx, svc); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (a *app) usage(err error) subcommands.ExitStatus {
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	return subcommands.ExitUsageError
}

func parseAmount(s string) (core.Money, error) {
	m, err := core.ParseMoney(s)
	if err != nil {
		return core.Money{}, usageErr("%q is not an amount", s)
	}
	return m, nil
}

// --- incomeCmd ---

type incomeCmd struct{ *app }

func (*incomeCmd) Name() string     { return "income" }
func (*incomeCmd) Synopsis() string { return "record an income and add it to the balance" }
func (*incomeCmd) Usage() string {
	return `budgetctl income <amount>

  Records an income dated now.
`
}
func (*incomeCmd) SetFlags(*flag.FlagSet) {}

func (c *incomeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return c.usage(usageErr("income takes exactly one amount"))
	}
	amount, err := parseAmount(f.Arg(0))
	if err != nil {
		return c.usage(err)
	}
	return c.run(ctx, func(ctx context.Context, svc *services.LedgerService) error {
		in, err := svc.AddIncome(ctx, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Income %d: %s, balance %s\n",
			in.ID, in.Amount.Display(svc.Currency()), svc.State().Balance.Display(svc.Currency()))
		return nil
	})
}

// --- expenseCmd ---

type expenseCmd struct {
	*app
	category string
	note     string
}

func (*expenseCmd) Name() string     { return "expense" }
func (*expenseCmd) Synopsis() string { return "record an expense and deduct it from the balance" }
func (*expenseCmd) Usage() string {
	return `budgetctl expense [-category <category>] [-note <text>] <name> <amount>

  Records an expense dated now. Categories: General, Food, Transport,
  Shopping, Bills, Fun, Other.
`
}

func (c *expenseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.category, "category", string(core.CategoryGeneral), "expense category")
	f.StringVar(&c.note, "note", "", "optional note")
}

func (c *expenseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return c.usage(usageErr("expense takes a name and an amount"))
	}
	amt, err := parseAmount(f.Arg(1))
	if err != nil {
		return c.usage(err)
	}
	return c.run(ctx, func(ctx context.Context, svc *services.LedgerService) error {
		e, err := svc.AddExpense(ctx, f.Arg(0), amt, core.Category(c.category), c.note)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Expense %d: %s %s (%s), balance %s\n",
			e.ID, e.Name, e.Amt.Display(svc.Currency()), e.Category, svc.State().Balance.Display(svc.Currency()))
		return nil
	})
}

// --- rmExpenseCmd ---

type rmExpenseCmd struct{ *app }

func (*rmExpenseCmd) Name() string     { return "rm-expense" }
func (*rmExpenseCmd) Synopsis() string { return "delete an expense and refund its amount" }
func (*rmExpenseCmd) Usage() string {
	return `budgetctl rm-expense <id>
`
}
func (*rmExpenseCmd) SetFlags(*flag.FlagSet) {}

func (c *rmExpenseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return c.usage(usageErr("rm-expense takes exactly one id"))
	}
	id, err := strconv.ParseInt(f.Arg(0), 10, 64)
	if err != nil {
		return c.usage(usageErr("%q is not an id", f.Arg(0)))
	}
	return c.run(ctx, func(ctx context.Context, svc *services.LedgerService) error {
		e, err := svc.DeleteExpense(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Deleted expense %d: %s %s, balance %s\n",
			e.ID, e.Name, e.Amt.Display(svc.Currency()), svc.State().Balance.Display(svc.Currency()))
		return nil
	})
}

// --- subscriptionCmd ---

type subscriptionCmd struct{ *app }

func (*subscriptionCmd) Name() string     { return "subscription" }
func (*subscriptionCmd) Synopsis() string { return "add a monthly subscription" }
func (*subscriptionCmd) Usage() string {
	return `budgetctl subscription <name> <amount>

  Subscriptions are informational and never change the balance.
`
}
func (*subscriptionCmd) SetFlags(*flag.FlagSet) {}

func (c *subscriptionCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return c.usage(usageErr("subscription takes a name and an amount"))
	}
	amt, err := parseAmount(f.Arg(1))
	if err != nil {
		return c.usage(err)
	}
	return c.run(ctx, func(ctx context.Context, svc *services.LedgerService) error {
		sub, err := svc.AddSubscription(ctx, f.Arg(0), amt)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Subscription %d: %s %s\n", sub.ID, sub.Name, sub.Amt.Display(svc.Currency()))
		return nil
	})
}

// --- goalCmd ---

type goalCmd struct {
	*app
	label string
	color string
}

func (*goalCmd) Name() string     { return "goal" }
func (*goalCmd) Synopsis() string { return "add a target balance to the balance chart" }
func (*goalCmd) Usage() string {
	return `budgetctl goal [-label <label>] [-color <#rrggbb>] <value>
`
}

func (c *goalCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.label, "label", core.DefaultGoalLabel, "goal label")
	f.StringVar(&c.color, "color", "", "line colour, defaults to green")
}

func (c *goalCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return c.usage(usageErr("goal takes exactly one value"))
	}
	value, err := parseAmount(f.Arg(0))
	if err != nil {
		return c.usage(err)
	}
	return c.run(ctx, func(ctx context.Context, svc *services.LedgerService) error {
		g, err := svc.AddGoal(ctx, c.label, value, c.color)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Goal %d: %s %s\n", g.ID, g.Label, g.Value.Display(svc.Currency()))
		return nil
	})
}

// --- balanceCmd ---

type balanceCmd struct{ *app }

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "show the balance, or override it" }
func (*balanceCmd) Usage() string {
	return `budgetctl balance [<amount>]

  Without an argument prints the balance. With one, replaces it; negative
  values are accepted.
`
}
func (*balanceCmd) SetFlags(*flag.FlagSet) {}

func (c *balanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		return c.usage(usageErr("balance takes at most one amount"))
	}
	var (
		value core.Money
		set   = f.NArg() == 1
	)
	if set {
		v, err := parseAmount(f.Arg(0))
		if err != nil {
			return c.usage(err)
		}
		value = v
	}
	return c.run(ctx, func(ctx context.Context, svc *services.LedgerService) error {
		if set {
			if err := svc.SetBalance(ctx, value); err != nil {
				return err
			}
		}
		fmt.Fprintln(c.stdout, svc.State().Balance.Display(svc.Currency()))
		return nil
	})
}

// --- statsCmd ---

type statsCmd struct{ *app }

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "print balance, monthly and all-time totals" }
func (*statsCmd) Usage() string {
	return `budgetctl stats
`
}
func (*statsCmd) SetFlags(*flag.FlagSet) {}

func (c *statsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, func(ctx context.Context, svc *services.LedgerService) error {
		st := svc.Stats()
		cur := svc.Currency()
		w := c.stdout
		fmt.Fprintf(w, "Balance:        %s\n", st.Balance.Display(cur))
		fmt.Fprintf(w, "This month:     +%s  -%s  net %s\n",
			st.Month.Income.Display(cur), st.Month.Expenses.Display(cur), st.Month.Net.Display(cur))
		fmt.Fprintf(w, "All time:       +%s  -%s  net %s\n",
			st.AllTime.Income.Display(cur), st.AllTime.Expenses.Display(cur), st.AllTime.Net.Display(cur))
		fmt.Fprintf(w, "Subscriptions:  %s / month\n", st.AllTime.Subscriptions.Display(cur))
		fmt.Fprintf(w, "Streak:         %d (best %d)\n", st.Streak.Current, st.Streak.Max)
		if len(st.Achievements) > 0 {
			fmt.Fprintf(w, "Achievements:   %s\n", strings.Join(st.Achievements, ", "))
		}
		return nil
	})
}

// --- streakCmd ---

type streakCmd struct{ *app }

func (*streakCmd) Name() string     { return "streak" }
func (*streakCmd) Synopsis() string { return "print the current and best activity streak" }
func (*streakCmd) Usage() string {
	return `budgetctl streak
`
}
func (*streakCmd) SetFlags(*flag.FlagSet) {}

func (c *streakCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, func(ctx context.Context, svc *services.LedgerService) error {
		s := svc.Streak()
		fmt.Fprintf(c.stdout, "current %d, best %d\n", s.Current, s.Max)
		return nil
	})
}

// --- exportCmd ---

type exportCmd struct {
	*app
	out string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the ledger as a JSON document" }
func (*exportCmd) Usage() string {
	return `budgetctl export [-o <file>]

  Writes to stdout unless -o is given.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "output file")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, func(ctx context.Context, svc *services.LedgerService) error {
		data, err := svc.Export(ctx)
		if err != nil {
			return err
		}
		if c.out == "" {
			_, err = c.stdout.Write(data)
			return err
		}
		if err := os.WriteFile(c.out, data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", c.out, err)
		}
		fmt.Fprintf(c.stdout, "Exported to %s\n", c.out)
		return nil
	})
}

// --- importCmd ---

type importCmd struct {
	*app
	limit int64
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the ledger with an exported document" }
func (*importCmd) Usage() string {
	return `budgetctl import [-limit <bytes>] <file|->

  Reads stdin when the file is "-". A rejected document leaves the ledger
  unchanged.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.limit, "limit", 5<<20, "maximum document size in bytes")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return c.usage(usageErr("import takes exactly one file"))
	}
	var r io.Reader = c.stdin
	if name := f.Arg(0); name != "-" {
		file, err := os.Open(name)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		r = file
	}
	return c.run(ctx, func(ctx context.Context, svc *services.LedgerService) error {
		if err := svc.Import(ctx, r, c.limit); err != nil {
			return err
		}
		st := svc.State()
		fmt.Fprintf(c.stdout, "Imported %d expenses, %d subscriptions; balance %s\n",
			len(st.Expenses), len(st.Subscriptions), st.Balance.Display(svc.Currency()))
		return nil
	})
}

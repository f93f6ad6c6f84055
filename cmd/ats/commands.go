package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/ats-client/auth"
	"github.com/jrsteele09/ats-client/internal/utils"
	"github.com/jrsteele09/ats-client/resources"
	"github.com/jrsteele09/ats-client/users"
	"github.com/pkg/errors"
)

type command struct {
	summary string
	banner  bool
	run     func(ctx context.Context, e *env, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"login":       {summary: "sign in and store the session", banner: true, run: withApp(loginCmd)},
		"logout":      {summary: "end the session", run: withApp(logoutCmd)},
		"whoami":      {summary: "show the signed-in user", run: withApp(whoamiCmd)},
		"users":       {summary: "list, create, update or delete users (admin)", run: withApp(usersCmd)},
		"tests":       {summary: "list, create, update or delete lab tests", run: withApp(testsCmd)},
		"dashboard":   {summary: "show an athlete's profile and coach", run: withApp(dashboardCmd)},
		"results":     {summary: "show an athlete's test results", run: withApp(resultsCmd)},
		"mock-server": {summary: "run a local mock of the ATS backend", banner: true, run: mockServerCmd},
	}
}

func withApp(fn func(ctx context.Context, e *env, a *app, args []string) error) func(context.Context, *env, []string) error {
	return func(ctx context.Context, e *env, args []string) error {
		a, err := e.open(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, e, a, args)
	}
}

func loginCmd(ctx context.Context, e *env, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (prompted for when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reader := bufio.NewReader(e.in)
	if *username == "" {
		*username = prompt(e, reader, "Username: ")
	}
	if *password == "" {
		*password = prompt(e, reader, "Password: ")
	}

	user, err := a.auth.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Logged in as %s (%s). Home: %s\n", user.Username, user.Role, user.Role.HomeView())
	return nil
}

func prompt(e *env, reader *bufio.Reader, label string) string {
	fmt.Fprint(e.out, label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func logoutCmd(ctx context.Context, e *env, a *app, _ []string) error {
	a.auth.Logout(ctx)
	fmt.Fprintln(e.out, "Logged out.")
	return nil
}

func whoamiCmd(ctx context.Context, e *env, a *app, _ []string) error {
	s := a.auth.Session(ctx)
	if !s.IsAuthenticated() {
		return auth.NotAuthenticatedErr
	}

	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Username\t%s\n", s.User.Username)
	fmt.Fprintf(w, "ID\t%s\n", s.User.ID)
	fmt.Fprintf(w, "Role\t%s\n", s.User.Role)
	fmt.Fprintf(w, "Email\t%s\n", utils.Value(s.User.Email))
	fmt.Fprintf(w, "Discipline\t%s\n", utils.Value(s.User.Discipline))
	if !s.Expiry.IsZero() {
		fmt.Fprintf(w, "Access expires\t%s\n", s.Expiry.Local().Format(time.DateTime))
	}
	fmt.Fprintf(w, "Refreshable\t%t\n", s.RefreshToken != "")
	if a.store.Degraded() {
		fmt.Fprintf(w, "Storage\tmemory only\n")
	}
	return nil
}

func usersCmd(ctx context.Context, e *env, a *app, args []string) error {
	if _, err := a.auth.RequireRole(ctx, users.RoleAdmin); err != nil {
		return err
	}
	sub, rest := subcommand(args, "list")

	switch sub {
	case "list", "coaches":
		list := a.resources.ListUsers
		if sub == "coaches" {
			list = a.resources.Coaches
		}
		accounts, err := list(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tEMAIL\tDISCIPLINE\tACTIVE")
		for _, acc := range accounts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n", acc.ID, acc.Username, acc.Role,
				utils.Value(acc.Email), utils.Value(acc.Discipline), acc.IsActive())
		}
		return nil

	case "create":
		fs := flag.NewFlagSet("users create", flag.ContinueOnError)
		flags := bindAccountFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		in := resources.AccountInput{Active: true}
		flags.apply(fs, &in)
		if err := a.resources.CreateUser(ctx, in); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Created %s (%s).\n", in.Username, in.Role)
		return nil

	case "update":
		id, rest, err := idArg(rest, "users update")
		if err != nil {
			return err
		}
		fs := flag.NewFlagSet("users update", flag.ContinueOnError)
		flags := bindAccountFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		in, err := currentAccount(ctx, a, id)
		if err != nil {
			return err
		}
		flags.apply(fs, in)
		if err := a.resources.UpdateUser(ctx, id, *in); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Updated %s.\n", in.Username)
		return nil

	case "delete":
		id, _, err := idArg(rest, "users delete")
		if err != nil {
			return err
		}
		if err := a.resources.DeleteUser(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Deleted user %s.\n", id)
		return nil
	}
	return errors.Errorf("unknown users subcommand %q", sub)
}

// currentAccount starts an update from the account's present values, so flags only
// need to name what changes.
func currentAccount(ctx context.Context, a *app, id string) (*resources.AccountInput, error) {
	accounts, err := a.resources.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, acc := range accounts {
		if acc.ID == id {
			return &resources.AccountInput{
				Username:    acc.Username,
				Email:       utils.Value(acc.Email),
				Role:        acc.Role,
				Discipline:  utils.Value(acc.Discipline),
				DateOfBirth: utils.Value(acc.DateOfBirth),
				PhoneNumber: utils.Value(acc.PhoneNumber),
				Active:      acc.IsActive(),
				Coach:       utils.Value(acc.Coach),
			}, nil
		}
	}
	return nil, errors.Wrapf(resources.NotFoundErr, "user %s", id)
}

type accountFlags struct {
	username, email, password, role, discipline, dob, phone, coach *string
	active                                                         *bool
}

func bindAccountFlags(fs *flag.FlagSet) *accountFlags {
	return &accountFlags{
		username:   fs.String("username", "", "username"),
		email:      fs.String("email", "", "email address"),
		password:   fs.String("password", "", "password (blank keeps the current one on update)"),
		role:       fs.String("role", "", "admin, coach or athlete"),
		discipline: fs.String("discipline", "", "sport discipline"),
		dob:        fs.String("dob", "", "date of birth, YYYY-MM-DD"),
		phone:      fs.String("phone", "", "phone number"),
		coach:      fs.String("coach", "", "coach id (athletes only)"),
		active:     fs.Bool("active", true, "account is active"),
	}
}

// apply copies the flags that were given on the command line onto in.
func (f *accountFlags) apply(fs *flag.FlagSet, in *resources.AccountInput) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "username":
			in.Username = *f.username
		case "email":
			in.Email = *f.email
		case "password":
			in.Password = *f.password
		case "role":
			in.Role = users.RoleType(*f.role)
		case "discipline":
			in.Discipline = *f.discipline
		case "dob":
			in.DateOfBirth = *f.dob
		case "phone":
			in.PhoneNumber = *f.phone
		case "coach":
			in.Coach = *f.coach
		case "active":
			in.Active = *f.active
		}
	})
}

func testsCmd(ctx context.Context, e *env, a *app, args []string) error {
	sub, rest := subcommand(args, "list")
	if sub == "list" {
		if _, err := a.auth.RequireRole(ctx, users.Roles...); err != nil {
			return err
		}
		tests, err := a.resources.ListTests(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tUNIT\tHIGHER IS BETTER")
		for _, t := range tests {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", t.ID, t.Name, t.Category, t.Unit, t.HigherIsBetter)
		}
		return nil
	}

	if _, err := a.auth.RequireRole(ctx, users.RoleAdmin); err != nil {
		return err
	}
	switch sub {
	case "create", "update":
		id := ""
		if sub == "update" {
			var err error
			if id, rest, err = idArg(rest, "tests update"); err != nil {
				return err
			}
		}
		fs := flag.NewFlagSet("tests "+sub, flag.ContinueOnError)
		name := fs.String("name", "", "test name")
		category := fs.String("category", "", "strength, endurance, speed, flexibility, agility, balance or coordination")
		unit := fs.String("unit", "", "seconds, minutes, meters, centimeters, kilograms, repetitions or score")
		description := fs.String("description", "", "description")
		higher := fs.Bool("higher-is-better", false, "a larger value is a better result")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		test := resources.LabTest{
			Name:           *name,
			Category:       resources.Category(*category),
			Unit:           resources.Unit(*unit),
			Description:    *description,
			HigherIsBetter: *higher,
		}
		if sub == "create" {
			if err := a.resources.CreateTest(ctx, test); err != nil {
				return err
			}
		} else if err := a.resources.UpdateTest(ctx, id, test); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Saved test %s.\n", test.Name)
		return nil

	case "delete":
		id, _, err := idArg(rest, "tests delete")
		if err != nil {
			return err
		}
		if err := a.resources.DeleteTest(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Deleted test %s.\n", id)
		return nil
	}
	return errors.Errorf("unknown tests subcommand %q", sub)
}

func dashboardCmd(ctx context.Context, e *env, a *app, args []string) error {
	id, err := athleteID(ctx, a, args)
	if err != nil {
		return err
	}
	d, err := a.resources.AthleteDashboard(ctx, id)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Athlete\t%s\n", d.Username)
	fmt.Fprintf(w, "Email\t%s\n", utils.Value(d.Email))
	fmt.Fprintf(w, "Discipline\t%s\n", utils.Value(d.Discipline))
	fmt.Fprintf(w, "Date of birth\t%s\n", utils.Value(d.DateOfBirth))
	fmt.Fprintf(w, "Coach\t%s\n", d.CoachName())
	if d.CoachDetails != nil {
		fmt.Fprintf(w, "Coach email\t%s\n", utils.Value(d.CoachDetails.Email))
		fmt.Fprintf(w, "Coach phone\t%s\n", utils.Value(d.CoachDetails.PhoneNumber))
	}
	return nil
}

func resultsCmd(ctx context.Context, e *env, a *app, args []string) error {
	id, err := athleteID(ctx, a, args)
	if err != nil {
		return err
	}
	results, err := a.resources.TestResults(ctx, id)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(e.out, "No test results recorded.")
		return nil
	}

	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "DATE\tTEST\tCATEGORY\tVALUE\tNOTES")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g %s\t%s\n", r.DateRecorded, r.TestName, r.TestCategory, r.NumericValue, r.TestUnit, r.Notes)
	}
	return nil
}

// athleteID picks whose dashboard to show. Athletes always see their own; coaches and
// admins name the athlete.
func athleteID(ctx context.Context, a *app, args []string) (string, error) {
	user, err := a.auth.RequireRole(ctx, users.Roles...)
	if err != nil {
		return "", err
	}
	if user.Role == users.RoleAthlete {
		return user.ID, nil
	}
	id, _, err := idArg(args, "athlete id")
	return id, err
}

func subcommand(args []string, fallback string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return fallback, args
	}
	return args[0], args[1:]
}

func idArg(args []string, what string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", args, errors.Wrapf(resources.InvalidInputErr, "%s: an id is required", what)
	}
	return args[0], args[1:], nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/ats-client/auth"
	"github.com/jrsteele09/ats-client/gateway"
	"github.com/jrsteele09/ats-client/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, describe(err))
		}
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	fs := flag.NewFlagSet("ats", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	quiet := fs.Bool("quiet", false, "do not print the banner")
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(fs.Output(), "unknown command %q\n\n", name)
		fs.Usage()
		return errUsage
	}

	c, err := config.New(*configPath)
	if err != nil {
		return err
	}
	setupLogger(c.GetLogLevel())
	if !*quiet && cmd.banner {
		displayAppname(out, c.GetAppName())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cmd.run(ctx, &env{config: c, in: in, out: out}, rest)
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}

func displayAppname(out io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(out, myFigure.String())
}

// describe turns the errors a user can act on into a one-line instruction.
func describe(err error) string {
	switch {
	case gateway.SessionEnded(err):
		return "Your session has expired. Run `ats login` to sign in again."
	case errors.Is(err, auth.NotAuthenticatedErr):
		return "You are not logged in. Run `ats login` first."
	case errors.Is(err, auth.ForbiddenRoleErr):
		return "Your role does not allow this: " + err.Error()
	case gateway.KindOf(err) == gateway.KindTransport:
		return "Could not reach the ATS server: " + err.Error()
	}
	return "Error: " + err.Error()
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintln(w, "Usage: ats [-config file] [-quiet] <command> [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-12s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, config.Usage())
}

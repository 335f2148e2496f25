// Command recordkit is the operator CLI: offline record validation and CRUD
// against the admin API.
//
//	recordkit resources
//	recordkit validate -r above_ground_tests -f report.json
//	recordkit list -r work_orders --search "Central City"
//	recordkit get -r customers 41
//	recordkit create -r service_tickets -f ticket.json
//	recordkit update -r work_orders 7 -f patch.json
//	recordkit delete -r work_orders 7
//
// Configuration resolves flags over RECORDKIT_* environment variables over
// an optional config file (--config). Exit codes: 0 success, 1 validation
// issues or request failure, 2 usage error.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	recordkit "github.com/emberwatch/recordkit"
	"github.com/emberwatch/recordkit/i18n"
	"github.com/emberwatch/recordkit/records"
	"github.com/emberwatch/recordkit/rest"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

var log = logrus.New()

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitUsage
	}
	sub, tail := args[0], args[1:]
	switch sub {
	case "resources":
		return resourcesCmd()
	case "validate":
		return validateCmd(tail)
	case "list":
		return listCmd(tail)
	case "get":
		return getCmd(tail)
	case "create":
		return createCmd(tail)
	case "update":
		return updateCmd(tail)
	case "delete":
		return deleteCmd(tail)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", sub)
		usage()
		return exitUsage
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `recordkit: validated-record CRUD for the admin API

Commands:
  resources                        list known record types
  validate -r NAME -f FILE         validate a record offline
  list     -r NAME [filters]      list records
  get      -r NAME ID              fetch one record
  create   -r NAME -f FILE         create a record
  update   -r NAME ID -f FILE      patch a record
  delete   -r NAME ID              delete a record

Environment: RECORDKIT_BASE_URL, RECORDKIT_TOKEN, RECORDKIT_LANG, RECORDKIT_VERBOSE
`)
}

// newFlags builds a pflag set wired into viper the usual way: flags beat
// env (RECORDKIT_ prefix) beat config file.
func newFlags(name string) (*pflag.FlagSet, *viper.Viper) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringP("resource", "r", "", "record type (see: recordkit resources)")
	fs.String("base-url", "", "admin API root URL")
	fs.String("token", "", "bearer token")
	fs.String("lang", "en", "issue message language (en/es)")
	fs.String("config", "", "config file path")
	fs.BoolP("verbose", "v", false, "debug logging")

	v := viper.New()
	v.SetEnvPrefix("RECORDKIT")
	v.AutomaticEnv()
	return fs, v
}

func settle(fs *pflag.FlagSet, v *viper.Viper, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := v.BindPFlag("base_url", fs.Lookup("base-url")); err != nil {
		return err
	}
	for _, key := range []string{"resource", "token", "lang", "verbose", "config"} {
		if err := v.BindPFlag(key, fs.Lookup(key)); err != nil {
			return err
		}
	}
	if cfg := v.GetString("config"); cfg != "" {
		v.SetConfigFile(cfg)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}
	if v.GetBool("verbose") {
		log.SetLevel(logrus.DebugLevel)
	}
	i18n.SetLanguage(v.GetString("lang"))
	return nil
}

func lookupResource(v *viper.Viper) (records.Entry, bool) {
	name := v.GetString("resource")
	if name == "" {
		fmt.Fprintln(os.Stderr, "missing -r/--resource")
		return records.Entry{}, false
	}
	e, ok := records.Lookup(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown resource %q; run: recordkit resources\n", name)
	}
	return e, ok
}

func newClient(v *viper.Viper) (*rest.Client, bool) {
	base := v.GetString("base_url")
	if base == "" {
		fmt.Fprintln(os.Stderr, "missing --base-url (or RECORDKIT_BASE_URL)")
		return nil, false
	}
	store := rest.NewMemoryStore()
	if tok := v.GetString("token"); tok != "" {
		store.Set(rest.Session{Token: tok})
	}
	return rest.NewClient(rest.Config{
		BaseURL: base,
		Logger:  log,
		Session: store,
		OnAuthExpired: func() {
			fmt.Fprintln(os.Stderr, "session expired; sign in again")
		},
	}), true
}

func readRecordFile(path string) (map[string]any, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	var rec map[string]any
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// printIssues writes one line per path, first message wins, in the order
// the engine reported them.
func printIssues(iss recordkit.Issues) {
	paths := iss.ByPath()
	seen := map[string]bool{}
	for _, it := range iss {
		if seen[it.Path] {
			continue
		}
		seen[it.Path] = true
		fmt.Fprintf(os.Stderr, "  %s: %s\n", it.Path, paths[it.Path])
	}
}

func resourcesCmd() int {
	for _, name := range records.Names() {
		e, _ := records.Lookup(name)
		fmt.Printf("%-28s %s\n", name, e.Label)
	}
	return exitOK
}

func validateCmd(args []string) int {
	fs, v := newFlags("validate")
	fs.StringP("file", "f", "", "record JSON file (- for stdin)")
	if err := settle(fs, v, args); err != nil {
		return exitUsage
	}
	e, ok := lookupResource(v)
	if !ok {
		return exitUsage
	}
	path, _ := fs.GetString("file")
	if path == "" {
		fmt.Fprintln(os.Stderr, "missing -f/--file")
		return exitUsage
	}
	rec, err := readRecordFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}

	norm, err := e.Schema.Validate(context.Background(), rec)
	if err != nil {
		if iss, ok := recordkit.AsIssues(err); ok {
			fmt.Fprintf(os.Stderr, "%s: %d issue(s)\n", e.Name, len(iss))
			printIssues(iss)
			return exitFail
		}
		fmt.Fprintln(os.Stderr, err)
		return exitFail
	}
	printJSON(norm)
	return exitOK
}

func listCmd(args []string) int {
	fs, v := newFlags("list")
	fs.String("search", "", "free-text search")
	fs.String("from", "", "date range start (yyyy-MM-dd)")
	fs.String("to", "", "date range end (yyyy-MM-dd)")
	fs.Int("page", 0, "page number")
	fs.Int("limit", 0, "page size")
	if err := settle(fs, v, args); err != nil {
		return exitUsage
	}
	e, ok := lookupResource(v)
	if !ok {
		return exitUsage
	}
	c, ok := newClient(v)
	if !ok {
		return exitUsage
	}

	search, _ := fs.GetString("search")
	from, _ := fs.GetString("from")
	to, _ := fs.GetString("to")
	page, _ := fs.GetInt("page")
	limit, _ := fs.GetInt("limit")

	p, err := c.Resource(e.Name, e.Schema).List(context.Background(), rest.Filter{
		Search: search, From: from, To: to, Page: page, Limit: limit,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFail
	}
	printJSON(p)
	return exitOK
}

func getCmd(args []string) int {
	fs, v := newFlags("get")
	if err := settle(fs, v, args); err != nil {
		return exitUsage
	}
	e, ok := lookupResource(v)
	if !ok {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: recordkit get -r NAME ID")
		return exitUsage
	}
	c, ok := newClient(v)
	if !ok {
		return exitUsage
	}
	rec, err := c.Resource(e.Name, e.Schema).Get(context.Background(), fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFail
	}
	printJSON(rec)
	return exitOK
}

func createCmd(args []string) int {
	fs, v := newFlags("create")
	fs.StringP("file", "f", "", "record JSON file")
	if err := settle(fs, v, args); err != nil {
		return exitUsage
	}
	e, ok := lookupResource(v)
	if !ok {
		return exitUsage
	}
	path, _ := fs.GetString("file")
	if path == "" {
		fmt.Fprintln(os.Stderr, "missing -f/--file")
		return exitUsage
	}
	rec, err := readRecordFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	c, ok := newClient(v)
	if !ok {
		return exitUsage
	}
	out, err := c.Resource(e.Name, e.Schema).Create(context.Background(), rec)
	if err != nil {
		if iss, isIss := recordkit.AsIssues(err); isIss {
			fmt.Fprintf(os.Stderr, "%s: %d issue(s)\n", e.Name, len(iss))
			printIssues(iss)
			return exitFail
		}
		fmt.Fprintln(os.Stderr, err)
		return exitFail
	}
	printJSON(out)
	return exitOK
}

func updateCmd(args []string) int {
	fs, v := newFlags("update")
	fs.StringP("file", "f", "", "partial record JSON file")
	if err := settle(fs, v, args); err != nil {
		return exitUsage
	}
	e, ok := lookupResource(v)
	if !ok {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: recordkit update -r NAME ID -f FILE")
		return exitUsage
	}
	path, _ := fs.GetString("file")
	if path == "" {
		fmt.Fprintln(os.Stderr, "missing -f/--file")
		return exitUsage
	}
	partial, err := readRecordFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	c, ok := newClient(v)
	if !ok {
		return exitUsage
	}
	out, err := c.Resource(e.Name, e.Schema).Update(context.Background(), fs.Arg(0), partial)
	if err != nil {
		if iss, isIss := recordkit.AsIssues(err); isIss {
			fmt.Fprintf(os.Stderr, "%s: %d issue(s)\n", e.Name, len(iss))
			printIssues(iss)
			return exitFail
		}
		fmt.Fprintln(os.Stderr, err)
		return exitFail
	}
	printJSON(out)
	return exitOK
}

func deleteCmd(args []string) int {
	fs, v := newFlags("delete")
	if err := settle(fs, v, args); err != nil {
		return exitUsage
	}
	e, ok := lookupResource(v)
	if !ok {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: recordkit delete -r NAME ID")
		return exitUsage
	}
	c, ok := newClient(v)
	if !ok {
		return exitUsage
	}
	if err := c.Resource(e.Name, e.Schema).Delete(context.Background(), fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFail
	}
	log.WithFields(logrus.Fields{"resource": e.Name, "id": fs.Arg(0)}).Info("deleted")
	return exitOK
}

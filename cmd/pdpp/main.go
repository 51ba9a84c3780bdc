package main

import (
	goflag "flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/binex-dsk/libpassman/crypt"
	"github.com/binex-dsk/libpassman/database"
	"github.com/binex-dsk/libpassman/sqlstore"
	"github.com/binex-dsk/libpassman/util"
	"github.com/howeyc/gopass"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"github.com/ugorji/go/codec"
	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"
)

func usage() {
	fmt.Fprint(os.Stderr, "pdpp manages passman++ password databases.\n\n")
	fmt.Fprint(os.Stderr, "Usage:\n\n\tpdpp [FLAGS] [DATABASE FILE] [COMMAND] [ARGS...]\n\n")
	fmt.Fprint(os.Stderr, `The commands are:

new     create an empty database, using the settings from --config.
list    print the names of every entry.
show    print the fields of an entry. Requires 1 argument: [NAME].
add     add or replace an entry. Requires [NAME], then any number of
        FIELD=VALUE pairs.
remove  remove an entry. Requires 1 argument: [NAME].
migrate convert a database from the pre-2.0 format.
bench   print the hash iterations that take about --target with the
        settings from --config.
export  print every entry as JSON. Passwords are included.

The flags are:
`)
	flag.PrintDefaults()
	os.Exit(1)
}

// Command line flags.
var (
	configPath = flag.String("config", "", "YAML file with the settings of a new database")
	keyFile    = flag.String("keyfile", "", "keyfile of a keyfile-protected database")
	reveal     = flag.Bool("reveal", false, "show passwords instead of hiding them")
	target     = flag.Duration("target", time.Second, "how long key derivation should take, for bench")
)

func fatal(err error) {
	klog.Errorf("%v", err)
	klog.Flush()
	os.Exit(1)
}

func readPassword(prompt string) string {
	fmt.Print(prompt)
	password, err := gopass.GetPasswd()
	if err != nil {
		fatal(errors.Wrap(err, "cannot read password"))
	}
	return string(password)
}

// Reads the settings of a new database, starting from the defaults.
func loadConfig(path string) (database.Config, error) {
	cfg := database.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "cannot read config %q", path)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "cannot parse config %q", path)
	}
	return cfg, nil
}

func newStore() *sqlstore.Store {
	store, err := sqlstore.OpenMemory()
	if err != nil {
		fatal(err)
	}
	return store
}

// Opens the database at path, migrating it first if it's in the old format.
// Returns the password so changes can be saved under a fresh key.
func open(path string) (*database.Database, string) {
	cfg := database.DefaultConfig()
	cfg.Path = path

	d, err := database.New(cfg, newStore())
	if err != nil {
		fatal(err)
	}

	password := readPassword("Password: ")
	result, err := d.Open(password, *keyFile)
	if err != nil {
		fatal(err)
	}

	switch result {
	case database.OpenOK:
	case database.OpenNeedsMigration:
		klog.Infof("%s is in the old format, migrating it", path)
		ok, err := d.Migrate(password)
		if err != nil {
			fatal(err)
		}
		if !ok {
			fatal(errors.New("incorrect password"))
		}
	default:
		fatal(errors.New("incorrect password or keyfile"))
	}
	return d, password
}

// Saves under a fresh IV, so no nonce is ever used twice with the same key.
func save(d *database.Database, password string) {
	if err := d.Rekey(password); err != nil {
		fatal(err)
	}
	if err := d.Save(); err != nil {
		fatal(err)
	}
}

func create(path string) {
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if *keyFile != "" {
		cfg.KeyFile = *keyFile
	}

	d, err := database.New(cfg, newStore())
	if err != nil {
		fatal(err)
	}

	password := readPassword("New password: ")
	if readPassword("Confirm password: ") != password {
		fatal(errors.New("passwords don't match"))
	}
	if err := d.SetPassword(password); err != nil {
		fatal(err)
	}

	switch result, err := d.SaveAs(path); result {
	case database.SaveOK:
		kdf, _ := d.KDF()
		fmt.Printf("created %s (%s)\n", path, kdf)
	default:
		fatal(errors.Wrapf(err, "save failed with code %d", result))
	}
}

func list(d *database.Database) {
	names := util.NewSortedStringSet()
	for _, e := range d.Entries() {
		names.Add(e.Name())
	}
	for _, name := range names.Values() {
		fmt.Println(name)
	}
}

func show(d *database.Database, name string) {
	e, ok := d.EntryNamed(name)
	if !ok {
		fatal(errors.Errorf("no entry named %q", name))
	}

	for _, f := range e.Fields() {
		value := f.String()
		if (f.IsPassword() || f.IsOTP()) && !*reveal {
			value = strings.Repeat("*", 8)
		}
		if f.IsMultiline() {
			value = strings.ReplaceAll(value, "\n", "\n\t")
		}
		fmt.Printf("%s:\t%s\n", f.Name, value)
	}

	if *reveal {
		fmt.Printf("\nclear copied secrets after %s\n", d.ClearAfter())
	}
}

// Converts text from the command line into a value for a field's type.
func parseValue(t database.FieldType, s string) (database.Value, error) {
	switch t {
	case database.Number:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return database.Value{}, errors.Errorf("%q is not a number", s)
		}
		return database.NumberValue(f), nil
	case database.Boolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return database.Value{}, errors.Errorf("%q is not a boolean", s)
		}
		return database.BoolValue(b), nil
	case database.Multiline:
		return database.BytesValue([]byte(strings.ReplaceAll(s, `\n`, "\n"))), nil
	default:
		return database.TextValue(s), nil
	}
}

func add(d *database.Database, name string, assignments []string) {
	if existing, ok := d.EntryNamed(name); ok {
		d.RemoveEntry(existing)
	}

	e := database.NewEntry()
	e.FieldNamed("name").Value = database.TextValue(name)

	for _, assignment := range assignments {
		parts := strings.SplitN(assignment, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			fatal(errors.Errorf("%q is not FIELD=VALUE", assignment))
		}

		if !e.HasField(parts[0]) {
			e.AddField(database.TextField(parts[0], ""))
		}
		f := e.FieldNamed(parts[0])

		value, err := parseValue(f.Type, parts[1])
		if err != nil {
			fatal(errors.Wrapf(err, "field %q", f.Name))
		}
		f.Value = value
	}

	d.AddEntry(e)
}

func remove(d *database.Database, name string) {
	e, ok := d.EntryNamed(name)
	if !ok {
		fatal(errors.Errorf("no entry named %q", name))
	}
	d.RemoveEntry(e)
}

// The JSON form of an entry.
type exportedField struct {
	Name  string `codec:"name"`
	Type  string `codec:"type"`
	Value string `codec:"value"`
}

type exportedEntry struct {
	Name   string          `codec:"name"`
	Fields []exportedField `codec:"fields"`
}

func export(d *database.Database) {
	entries := make([]exportedEntry, 0, d.Len())
	for _, e := range d.Entries() {
		exported := exportedEntry{Name: e.Name()}
		for _, f := range e.Fields() {
			exported.Fields = append(exported.Fields, exportedField{
				Name:  f.Name,
				Type:  f.Type.String(),
				Value: f.String(),
			})
		}
		entries = append(entries, exported)
	}

	h := &codec.JsonHandle{Indent: 2}
	if err := codec.NewEncoder(os.Stdout, h).Encode(entries); err != nil {
		fatal(errors.Wrap(err, "cannot export entries"))
	}
	fmt.Println()
}

func bench(d *database.Database) {
	rounds, err := d.Benchmark(*target)
	if err != nil {
		fatal(err)
	}

	name, _ := crypt.HashName(d.Hash)
	fmt.Printf("%s: %d iterations take about %s\n", name, rounds, *target)
}

func main() {
	klogFlags := goflag.NewFlagSet("klog", goflag.ExitOnError)
	klog.InitFlags(klogFlags)
	flag.CommandLine.AddGoFlagSet(klogFlags)
	flag.Usage = usage
	flag.Parse()
	defer klog.Flush()

	if flag.NArg() < 2 {
		usage()
	}
	path, cmd, args := flag.Arg(0), flag.Arg(1), flag.Args()[2:]

	switch cmd {
	case "new":
		create(path)
	case "bench":
		cfg, err := loadConfig(*configPath)
		if err != nil {
			fatal(err)
		}
		d, err := database.New(cfg, newStore())
		if err != nil {
			fatal(err)
		}
		bench(d)
	case "list", "show", "add", "remove", "migrate", "export":
		d, password := open(path)
		defer d.Wipe()

		switch cmd {
		case "list":
			list(d)
		case "show":
			if len(args) != 1 {
				fatal(errors.New("show requires a name"))
			}
			show(d, args[0])
		case "add":
			if len(args) < 1 {
				fatal(errors.New("add requires a name"))
			}
			add(d, args[0], args[1:])
			save(d, password)
		case "remove":
			if len(args) != 1 {
				fatal(errors.New("remove requires a name"))
			}
			remove(d, args[0])
			save(d, password)
		case "migrate":
			fmt.Printf("%s is at format version %d\n", path, d.Version)
		case "export":
			export(d)
		}
	default:
		fatal(errors.Errorf("unknown command %q", cmd))
	}
}

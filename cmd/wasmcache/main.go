// Command wasmcache manages the durable module store of a cache directory:
// it validates and saves bytecode, lists stored checksums and removes
// artifacts. It operates on raw bytecode only; compiled tiers exist inside
// the hosting process, not on disk.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/skipor/wasmcache/checksum"
	"github.com/skipor/wasmcache/cmd/wasmcache/config"
	"github.com/skipor/wasmcache/log"
	"github.com/skipor/wasmcache/store"
	"github.com/skipor/wasmcache/wasm"
)

const usage = `Usage: wasmcache [options] <command> [args]
Commands:
  save <file>...   validate modules and save them; print checksums
  ls               list stored checksums
  rm <checksum>    remove a stored artifact
Config values merge rules:
1) config file value overrides default
2) command line value overrides any
Options:
`

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s", usage)
		flag.PrintDefaults()
	}
}

func main() {
	conf, args := parseConfig()
	l := log.NewLogger(conf.LogLevel, conf.LogDestination)
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	s, err := store.Open(l, conf.Dir)
	if err != nil {
		l.Fatalf("Store open error: %v", err)
	}
	t := &tool{
		log:   l,
		store: s,
		caps:  wasm.NewCapabilitySet(conf.Capabilities...),
		conf:  conf,
	}
	switch cmd, rest := args[0], args[1:]; cmd {
	case "save":
		err = t.save(rest)
	case "ls":
		err = t.ls(rest)
	case "rm":
		err = t.rm(rest)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		l.Fatalf("%v", err)
	}
}

func parseConfig() (config.Parsed, []string) {
	fileConf := flag.String("config", "", "JSON config file path")
	flagConf := &config.Config{}
	flag.StringVar(&flagConf.Dir, "dir", "", "base storage location")
	flag.StringVar(&flagConf.LogDestination, "log-destination", "", "stdout, stderr or filepath")
	flag.StringVar(&flagConf.LogLevel, "log-level", "", "debug, info, warn or error")
	flag.StringVar(&flagConf.Capabilities, "capabilities", "", "comma-delimited host capabilities")
	flag.StringVar(&flagConf.MaxModuleSize, "max-module-size", "", "module size limit, like 3m")
	flag.Parse()

	conf := config.Default()
	if *fileConf != "" {
		loaded, err := config.Load(*fileConf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Config file error: %v\n", err)
			os.Exit(2)
		}
		if err := config.Merge(conf, loaded); err != nil {
			fmt.Fprintf(os.Stderr, "Config merge error: %v\n", err)
			os.Exit(2)
		}
		conf = loaded
	}
	if err := config.Merge(conf, flagConf); err != nil {
		fmt.Fprintf(os.Stderr, "Config merge error: %v\n", err)
		os.Exit(2)
	}
	parsed, err := config.Parse(*flagConf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(2)
	}
	return parsed, flag.Args()
}

type tool struct {
	log   log.Logger
	store *store.Store
	caps  wasm.CapabilitySet
	conf  config.Parsed
}

func (t *tool) save(files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("save: no files given")
	}
	for _, name := range files {
		code, err := os.ReadFile(name)
		if err != nil {
			return err
		}
		if int64(len(code)) > t.conf.MaxModuleSize {
			return fmt.Errorf("%s: module size %v over limit %v", name, len(code), t.conf.MaxModuleSize)
		}
		if err := wasm.Validate(code, t.caps); err != nil {
			return fmt.Errorf("%s: %v", name, err)
		}
		cs, err := t.store.Save(code)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", cs.Digest(), name)
	}
	return nil
}

func (t *tool) ls(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("ls: takes no arguments")
	}
	sums, err := t.store.List()
	if err != nil {
		return err
	}
	for _, cs := range sums {
		fmt.Println(cs.Digest())
	}
	return nil
}

func (t *tool) rm(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("rm: takes exactly one checksum")
	}
	cs, err := checksum.FromHex(args[0])
	if err != nil {
		return fmt.Errorf("rm: %v", err)
	}
	return t.store.Remove(cs)
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/elliotnunn/unice/internal/packice"
	"github.com/spf13/afero"
	"golang.org/x/term"
)

type options struct {
	cacheDir string
	serve    string
	outDir   string
	bitwise  bool
	dump     bool
	verbose  bool
}

func main() {
	var o options
	flag.StringVar(&o.cacheDir, "cache", "", "keep decoded files in a database under `dir`")
	flag.StringVar(&o.serve, "serve", "", "serve ROOT, with packed files browsable, over HTTP at `addr`")
	flag.StringVar(&o.outDir, "o", "", "write decoded files under `dir`")
	flag.BoolVar(&o.bitwise, "bitwise", false, "decode bit by bit instead of with lookup tables")
	flag.BoolVar(&o.dump, "dump", false, "print a report on each packed file")
	flag.BoolVar(&o.verbose, "v", false, "log decoder detail")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: unice [flags] ROOT [PATTERN...]\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "ROOT is a directory or a single file. PATTERNs select files under it (default **).\n")
		fmt.Fprintf(flag.CommandLine.Output(), "Memory use is bounded by the UNICEGB environment variable (default 1).\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if o.verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if err := run(o, flag.Arg(0), flag.Args()[1:]); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(o options, rootArg string, patterns []string) error {
	rootDir, single := rootArg, false
	if s, err := os.Stat(rootArg); err != nil {
		return err
	} else if s.Mode().IsRegular() {
		rootDir, single = filepath.Dir(rootArg), true
		patterns = []string{filepath.ToSlash(filepath.Base(rootArg))}
	}
	if len(patterns) == 0 {
		patterns = []string{"**"}
	}

	dec := &packice.Decoder{Logger: slog.Default()}
	if o.bitwise {
		dec.Strategy = packice.StrategyBitwise
	}
	cache, err := newDecodeCache(dec, o.cacheDir)
	if err != nil {
		return err
	}
	defer cache.Close()

	root := os.DirFS(rootDir)
	fsys := Wrapper(root, cache)

	names, err := selectFiles(root, patterns)
	if err != nil {
		return err
	}
	found := findPacked(fsys, names)
	slog.Debug("selected", "files", len(names), "packed", len(found))

	acted := false
	if o.dump {
		dumpPacked(os.Stdout, fsys, found)
		acted = true
	}
	if o.outDir != "" {
		if err := extract(afero.NewBasePathFs(afero.NewOsFs(), o.outDir), fsys, found); err != nil {
			return err
		}
		acted = true
	}
	if o.serve != "" {
		slog.Info("serving", "addr", o.serve, "root", rootDir)
		return http.ListenAndServe(o.serve, http.FileServerFS(fsys))
	}
	if acted {
		return nil
	}

	if single {
		if len(found) == 0 {
			return fmt.Errorf("%s: not a Pack-Ice file", rootArg)
		}
		return writeDecoded(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())), fsys, found[0])
	}
	for _, p := range found {
		m, _ := fsys.getMount(p)
		fmt.Printf("%s\t%s\n", p, p+Special+"/"+m.pk.inner)
	}
	return nil
}

// selectFiles returns the regular files matching any of the patterns,
// sorted and without duplicates.
func selectFiles(root fs.FS, patterns []string) ([]string, error) {
	var names []string
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("bad pattern %q", pat)
		}
		m, err := doublestar.Glob(root, pat, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		names = append(names, m...)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// extract writes the decoded form of each packed file beside where the
// packed file sits, relative to out.
func extract(out afero.Fs, fsys *FS, names []string) error {
	var errs []error
	for _, p := range names {
		m, ok := fsys.getMount(p)
		if !ok {
			continue
		}
		data, err := fs.ReadFile(fsys, p+Special+"/"+m.pk.inner)
		if err != nil {
			slog.Warn("extractError", "path", p, "err", err)
			errs = append(errs, err)
			continue
		}
		target := path.Join(path.Dir(p), m.pk.inner)
		if err := out.MkdirAll(path.Dir(target), 0o755); err != nil {
			return err
		}
		if err := afero.WriteFile(out, target, data, 0o644); err != nil {
			return err
		}
		slog.Info("extracted", "path", p, "to", target, "size", len(data))
	}
	return errors.Join(errs...)
}

var errTerminal = errors.New("refusing to write binary data to a terminal, use -o")

func writeDecoded(w io.Writer, isTerminal bool, fsys *FS, name string) error {
	if isTerminal {
		return errTerminal
	}
	m, ok := fsys.getMount(name)
	if !ok {
		return fmt.Errorf("%s: not a Pack-Ice file", name)
	}
	f, err := fsys.Open(name + Special + "/" + m.pk.inner)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

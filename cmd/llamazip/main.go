// Command llamazip is the CLI front end for the llamazip core (spec.md §6):
// one positional model_path, mutually exclusive compress/decompress/
// interactive modes, and the window-overlap/backend-sizing flags.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/kylelemons/godebug/pretty"
	"github.com/pkg/errors"

	"github.com/raffaeleberzoini/llamazip"
	"github.com/raffaeleberzoini/llamazip/internal/config"
	"github.com/raffaeleberzoini/llamazip/internal/pack"
	"github.com/raffaeleberzoini/llamazip/internal/session"
	"github.com/raffaeleberzoini/llamazip/model"
)

func main() {
	defaults := loadConfigDefaults()

	var (
		compress      bool
		decompress    bool
		interactive   bool
		windowOverlap string
		nCtx          int
		nGPULayers    int
		useMlock      bool
		verbose       bool
		debugTrace    bool
	)
	flag.BoolVar(&compress, "c", false, "compress text (reads stdin if no text arguments are given)")
	flag.BoolVar(&compress, "compress", false, "compress text (reads stdin if no text arguments are given)")
	flag.BoolVar(&decompress, "d", false, "decompress ciphertext (reads stdin if no argument is given)")
	flag.BoolVar(&decompress, "decompress", false, "decompress ciphertext (reads stdin if no argument is given)")
	flag.BoolVar(&interactive, "i", false, "interactive REPL: each line is auto-detected as ciphertext or plaintext")
	flag.BoolVar(&interactive, "interactive", false, "interactive REPL: each line is auto-detected as ciphertext or plaintext")
	flag.StringVar(&windowOverlap, "w", defaultOr(defaults.WindowOverlap, "0"), "window overlap: integer token count, negative to wrap, or \"NN%\"")
	flag.StringVar(&windowOverlap, "window-overlap", defaultOr(defaults.WindowOverlap, "0"), "window overlap: integer token count, negative to wrap, or \"NN%\"")
	flag.IntVar(&nCtx, "n-ctx", intDefaultOr(defaults.ContextLength, 2048), "model context length forwarded to the backend")
	flag.IntVar(&nGPULayers, "n-gpu-layers", defaults.GPULayers, "number of layers to offload to GPU, forwarded to the backend")
	flag.BoolVar(&useMlock, "use-mlock", defaults.UseMlock, "lock the model in memory, forwarded to the backend")
	flag.BoolVar(&verbose, "verbose", true, "print progress and loading diagnostics")
	flag.BoolVar(&debugTrace, "debug-trace", false, "pretty-print the resolved run parameters (model path, context length, flags)")
	flag.Parse()

	if err := run(runConfig{
		modelPath:     flag.Arg(0),
		textArgs:      flag.Args()[min(1, flag.NArg()):],
		compress:      compress,
		decompress:    decompress,
		interactive:   interactive,
		windowOverlap: windowOverlap,
		nCtx:          nCtx,
		nGPULayers:    nGPULayers,
		useMlock:      useMlock,
		verbose:       verbose,
		debugTrace:    debugTrace,
	}); err != nil {
		log.Fatalf("%+v", err)
	}
}

func loadConfigDefaults() config.Defaults {
	path, err := config.DefaultPath()
	if err != nil {
		return config.Defaults{}
	}
	d, err := config.Load(path)
	if err != nil {
		return config.Defaults{}
	}
	return d
}

func defaultOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func intDefaultOr(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

type runConfig struct {
	modelPath     string
	textArgs      []string
	compress      bool
	decompress    bool
	interactive   bool
	windowOverlap string
	nCtx          int
	nGPULayers    int
	useMlock      bool
	verbose       bool
	debugTrace    bool
}

func run(cfg runConfig) error {
	if cfg.modelPath == "" {
		return errors.New("usage: llamazip [flags] model_path [text...]")
	}
	modeCount := boolCount(cfg.compress, cfg.decompress, cfg.interactive)
	if modeCount != 1 {
		return errors.New("exactly one of -c/--compress, -d/--decompress, -i/--interactive is required")
	}

	sid := session.New()
	if cfg.verbose {
		log.Printf("[%s] loading model %q (n_ctx=%d, n_gpu_layers=%d, use_mlock=%v)", sid, cfg.modelPath, cfg.nCtx, cfg.nGPULayers, cfg.useMlock)
	}
	if cfg.debugTrace {
		log.Print(debugTraceLine(fmt.Sprintf("[%s] run parameters", sid), cfg))
	}

	// A real GGUF-loading llama.cpp backend is explicitly out of scope for
	// this module (spec.md §1); model.Fixture stands in as the runnable
	// backend for this CLI. The fixture does not read the model path, so
	// every path yields the same predictions.
	m := model.NewFixture(cfg.nCtx)
	c := llamazip.New(m)

	progress := func(done, total int) {}
	if cfg.verbose {
		progress = func(done, total int) {
			if done%64 == 0 || done == total {
				log.Printf("[%s] coded %d/%d tokens", sid, done, total)
			}
		}
	}

	switch {
	case cfg.compress:
		return runCompress(c, cfg, progress, os.Stdout)
	case cfg.decompress:
		return runDecompress(c, cfg, os.Stdout)
	default:
		return runInteractive(c, cfg, os.Stdin, os.Stdout)
	}
}

func runCompress(c *llamazip.Compressor, cfg runConfig, progress llamazip.ProgressFunc, w io.Writer) error {
	text, err := compressInput(cfg.textArgs, os.Stdin)
	if err != nil {
		return errors.WithStack(err)
	}
	ciphertext, err := c.Compress(context.Background(), text, cfg.windowOverlap, progress)
	if err != nil {
		return errors.WithStack(err)
	}
	fmt.Fprintln(w, ciphertext)
	return nil
}

func runDecompress(c *llamazip.Compressor, cfg runConfig, w io.Writer) error {
	ciphertext, err := decompressInput(cfg.textArgs, os.Stdin)
	if err != nil {
		return errors.WithStack(err)
	}
	var onToken llamazip.TokenFunc
	if cfg.verbose {
		onToken = func(b []byte) { fmt.Fprint(w, string(b)) }
	}
	text, err := c.Decompress(context.Background(), ciphertext, cfg.windowOverlap, onToken)
	if err != nil {
		return errors.WithStack(err)
	}
	if !cfg.verbose {
		fmt.Fprintln(w, text)
	} else {
		fmt.Fprintln(w)
	}
	return nil
}

func runInteractive(c *llamazip.Compressor, cfg runConfig, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if isCiphertext(line) {
			text, err := c.Decompress(context.Background(), line, cfg.windowOverlap, nil)
			if err != nil {
				fmt.Fprintln(w, "error:", err)
				continue
			}
			fmt.Fprintln(w, text)
			continue
		}
		ciphertext, err := c.Compress(context.Background(), line, cfg.windowOverlap, nil)
		if err != nil {
			fmt.Fprintln(w, "error:", err)
			continue
		}
		fmt.Fprintln(w, ciphertext)
	}
	return errors.WithStack(scanner.Err())
}

func compressInput(textArgs []string, stdin io.Reader) (string, error) {
	if len(textArgs) > 0 {
		return strings.Join(textArgs, " "), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decompressInput(textArgs []string, stdin io.Reader) (string, error) {
	if len(textArgs) > 0 {
		return textArgs[0], nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// isCiphertext implements the original's interactive-mode dispatch rule:
// a line is treated as ciphertext when every character belongs to the
// packing alphabet.
func isCiphertext(line string) bool {
	if line == "" {
		return false
	}
	for i := 0; i < len(line); i++ {
		if strings.IndexByte(pack.Alphabet, line[i]) < 0 {
			return false
		}
	}
	return true
}

func boolCount(bs ...bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

func debugTraceLine(label string, v interface{}) string {
	return label + ": " + pretty.Sprint(v)
}

// Package commands implements the requester command-line tools. Each tool
// parses its own flags and writes console output to Env.Stdout.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"mturk-tools/internal/bootstrap"
	"mturk-tools/internal/requester"
	"mturk-tools/internal/results"
	"mturk-tools/internal/shared/config"
)

// Env carries process-level dependencies so tools can run under test.
type Env struct {
	Config config.Config
	Stdout io.Writer
	Stderr io.Writer
	Now    func() time.Time

	NewClient func(ctx context.Context, opts requester.Options) (*requester.Client, error)
	Build     func(ctx context.Context, cfg config.Config, mode bootstrap.Mode) (*bootstrap.App, error)
}

// DefaultEnv wires the real MTurk client and storage.
func DefaultEnv(cfg config.Config) Env {
	return Env{
		Config:    cfg,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Now:       time.Now,
		NewClient: requester.New,
		Build:     bootstrap.Build,
	}
}

func (e Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// marketFlags are shared by every tool that talks to MTurk.
type marketFlags struct {
	sandbox bool
	profile string
}

func (m *marketFlags) register(fs *flag.FlagSet, cfg config.Config) {
	fs.BoolVar(&m.sandbox, "sandbox", cfg.Sandbox, "use the MTurk sandbox")
	fs.StringVar(&m.profile, "profile", cfg.AWSProfile, "shared AWS credentials profile")
}

func (e Env) client(ctx context.Context, m marketFlags) (*requester.Client, error) {
	return e.NewClient(ctx, requester.Options{Sandbox: m.sandbox, Profile: m.profile})
}

func newFlagSet(name string, e Env) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.Stderr)
	return fs
}

// stringList collects a repeated flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// int32Value is an integer flag limited to the int32 range.
type int32Value int32

func (v *int32Value) String() string { return strconv.FormatInt(int64(*v), 10) }

func (v *int32Value) Set(s string) error {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return fmt.Errorf("must be an integer between %d and %d", math.MinInt32, math.MaxInt32)
	}
	*v = int32Value(n)
	return nil
}

// requireFlags reports every named flag whose value is empty.
func requireFlags(tool string, values map[string]string, order ...string) error {
	var missing []string
	for _, name := range order {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, "-"+name)
		}
	}
	if len(missing) > 0 {
		return &results.MissingFieldsError{Source: tool, Fields: missing}
	}
	return nil
}

func readDescriptorFile(path string) ([]results.BatchEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch descriptor: %w", err)
	}
	defer f.Close()
	return results.ReadDescriptor(f)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Tool is the entry point of one command.
type Tool func(ctx context.Context, e Env, args []string) error

// Main runs tool with process configuration and exits non-zero on error.
func Main(name string, tool Tool) {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := tool(ctx, DefaultEnv(cfg), os.Args[1:])
	stop()
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	default:
		log.Printf("%s: %v", name, err)
		os.Exit(1)
	}
}

// stackvm CLI - assembles, runs and inspects stack machine programs
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("stackvm.cli")

// command is one stackvm subcommand.
type command struct {
	name    string
	summary string
	run     func(args []string, stdout io.Writer) error
}

var commands = []command{
	{"assemble", "assemble a source file into a binary program", runAssemble},
	{"run", "execute a binary or source program", runRun},
	{"disasm", "print a listing of a binary program", runDisasm},
	{"pipeline", "assemble and run the program described by stackvm.toml", runPipeline},
	{"init", "write a sample stackvm.toml and program", runInit},
	{"serve", "start the Connect (HTTP/JSON) server", runServe},
	{"lsp", "start the language server on stdio", runLSP},
	{"history", "list recorded runs", runHistory},
}

// verbosity is a repeatable -v flag.
type verbosity int

func (v *verbosity) String() string   { return strconv.Itoa(int(*v)) }
func (v *verbosity) IsBoolFlag() bool { return true }

func (v *verbosity) Set(s string) error {
	if s == "true" {
		*v++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*v = verbosity(n)
	return nil
}

func main() {
	var verbose verbosity
	flag.Var(&verbose, "v", "Verbose output (repeat for more)")
	logFile := flag.String("log-file", "", "Write log messages to this file instead of stderr")

	flag.Usage = usage
	flag.Parse()

	var logPath *string
	if *logFile != "" {
		logPath = logFile
	}
	commonlog.Configure(int(verbose), logPath)

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	name := flag.Arg(0)
	for _, c := range commands {
		if c.name == name {
			if err := c.run(flag.Args()[1:], os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: stackvm [options] <command> [arguments]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  stackvm assemble -o vector.bin vector.asm\n")
	fmt.Fprintf(os.Stderr, "  stackvm run -mem 1000=95 -mem 2000=90,95,100 -range 3000:3005 vector.bin\n")
	fmt.Fprintf(os.Stderr, "  stackvm -v pipeline ./examples/vector\n")
	fmt.Fprintf(os.Stderr, "  stackvm serve -addr :4680 -db runs.db\n")
}

// newFlagSet creates a subcommand flag set that reports errors instead of
// exiting.
func newFlagSet(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: stackvm %s [options] %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

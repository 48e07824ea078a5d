package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cowgolc/pkg/ast"
	"cowgolc/pkg/codegen"
	"cowgolc/pkg/lexer"
	"cowgolc/pkg/parser"
	"cowgolc/pkg/version"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	outputFile      string
	includePaths    []string
	dumpTokens      bool
	dumpAST         bool
	backendName     string
	listBackends    bool
	showVersion     bool
	showVersionFull bool
)

var rootCmd = &cobra.Command{
	Use:   "cowgolc [source file]",
	Short: "Cowgol compiler " + version.GetVersion(),
	Long: `cowgolc - Cowgol to Intel 8080 code generator

Given a Cowgol source file, cowgolc lexes, parses, and lowers it to a
single 8080 assembly listing suitable for a downstream macro
assembler. Lexing and parsing here are deliberately minimal; the code
generator is the part of this repository that matters.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.GetVersion())
			return
		}
		if showVersionFull {
			fmt.Println(version.GetFullVersion())
			return
		}
		if listBackends {
			fmt.Println("Available backends:")
			for _, b := range codegen.ListBackends() {
				fmt.Printf("  - %s\n", b)
			}
			return
		}
		if len(args) == 0 {
			cmd.Help()
			os.Exit(0)
		}
		if err := run(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "cowgolc: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: input base name with .asm)")
	rootCmd.Flags().StringArrayVarP(&includePaths, "include", "I", nil, "add a directory to the include search path (repeatable)")
	rootCmd.Flags().BoolVar(&dumpTokens, "tokens", false, "dump the token stream and exit")
	rootCmd.Flags().BoolVar(&dumpAST, "ast", false, "dump the parsed program and exit")
	rootCmd.Flags().StringVarP(&backendName, "backend", "b", "i8080", "target backend")
	rootCmd.Flags().BoolVar(&listBackends, "list-backends", false, "list available backends")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show version")
	rootCmd.Flags().BoolVar(&showVersionFull, "version-full", false, "show full version info")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cowgolc: %v\n", err)
		os.Exit(1)
	}
}

func run(sourceFile string) error {
	src, err := os.ReadFile(sourceFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", sourceFile, err)
	}

	// -I is accepted for ucow/Cowgol compatibility; this front end does
	// not implement include expansion, so the paths go unused beyond
	// being validated as real directories.
	for _, dir := range includePaths {
		if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
			return fmt.Errorf("include path %s: not a directory", dir)
		}
	}

	if dumpTokens {
		return runDumpTokens(string(src))
	}

	program, table, err := parser.Parse(string(src))
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	if dumpAST {
		dumpProgram(program)
		return nil
	}

	backend := codegen.GetBackend(backendName)
	if backend == nil {
		return fmt.Errorf("unknown backend: %s", backendName)
	}

	asm, err := backend.Generate(program, table)
	if err != nil {
		return fmt.Errorf("code generation error: %w", err)
	}

	out := outputFile
	if out == "" {
		base := filepath.Base(sourceFile)
		ext := filepath.Ext(base)
		out = base[:len(base)-len(ext)] + backend.GetFileExtension()
	}
	if err := os.WriteFile(out, []byte(asm), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}

func runDumpTokens(src string) error {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return fmt.Errorf("lex error: %w", err)
	}
	heading := "TOKENS"
	if term.IsTerminal(int(os.Stdout.Fd())) {
		heading = "== " + heading + " =="
	}
	fmt.Println(heading)
	for _, t := range toks {
		fmt.Println(t.String())
	}
	return nil
}

// dumpProgram prints a shallow, line-per-declaration view of the
// parsed program. It is a debugging aid, not a serialization format.
func dumpProgram(program *ast.Program) {
	fmt.Printf("Globals: %d\n", len(program.Globals))
	for _, g := range program.Globals {
		fmt.Printf("  %s\n", describeStmt(g))
	}
	fmt.Printf("Subroutines: %d\n", len(program.Subroutines))
	for _, s := range program.Subroutines {
		kind := "defined"
		if s.Body == nil {
			kind = "forward"
		}
		fmt.Printf("  %s (%s, %d params, %d returns)\n", s.Name, kind, len(s.Params), len(s.Returns))
	}
	fmt.Printf("TopLevel: %d statements\n", len(program.TopLevel))
	for _, s := range program.TopLevel {
		fmt.Printf("  %s\n", describeStmt(s))
	}
}

func describeStmt(s ast.Stmt) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", s), "*ast.")
}

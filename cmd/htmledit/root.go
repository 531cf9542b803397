package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/boxesandglue/htmledit"
	"github.com/boxesandglue/htmledit/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes.
const (
	exitOK      = 0
	exitRun     = 1 // input, parse or command failure
	exitGrammar = 2 // the command string is invalid
	exitOutput  = 3 // writing or flushing the output failed
)

// exitError carries the exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "htmledit [flags] COMMAND",
		Short: "Edit HTML with CSS selectors",
		Long: `htmledit reads an HTML document, runs a pipeline of selector based
commands on it and writes the resulting elements.

Example:
  htmledit -i page.html 'ONLY{#first-para} | SET-ATTR{id ↤ "new-id"}'
  htmledit 'ONLY{ul} | FOR-EACH{li ↦ SET-ATTR{data-test ↤ "x"}}' < list.html
  htmledit --explain 'WITHOUT{script, style} | ADD-COMMENT{"cleaned"}'`,
		Version:       "0.1.0",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadConfig(cmd)
			if err != nil {
				return withCode(exitRun, err)
			}
			return run(cmd, v, args[0])
		},
	}
	addFlags(cmd)
	return cmd
}

// execute runs the command line and returns the exit code.
func execute(args []string) int {
	return executeCmd(newRootCmd(), args)
}

func executeCmd(cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitRun
}

func run(cmd *cobra.Command, v *viper.Viper, command string) error {
	pipeline, err := htmledit.ParsePipeline(command)
	if err != nil {
		return withCode(exitGrammar, err)
	}
	if v.GetBool(keyExplain) {
		fmt.Fprint(cmd.OutOrStdout(), pipeline.Explain())
		return nil
	}

	log, err := logger.New(logger.Config{
		Level:       v.GetString(keyLogLevel),
		Development: v.GetBool(keyLogDevelopment),
	})
	if err != nil {
		return withCode(exitRun, err)
	}
	defer func() { _ = log.Sync() }()

	idx, root, err := readInput(cmd, v.GetString(keyInput))
	if err != nil {
		return withCode(exitRun, err)
	}
	env := htmledit.NewEnv(idx,
		htmledit.WithLogger(log),
		htmledit.WithLoader(htmledit.FileLoader{Dir: v.GetString(keyBaseDir)}),
	)
	log.Debug("running pipeline", zap.String("pipeline", pipeline.String()), zap.Int("commands", len(pipeline)))
	result, err := pipeline.Run(env, []htmledit.NodeID{root})
	if err != nil {
		var ce *htmledit.CommandError
		if errors.As(err, &ce) {
			log.Error("pipeline failed", zap.String("path", ce.PathString()), zap.Error(err))
		}
		return withCode(exitRun, err)
	}
	return withCode(exitOutput, writeOutput(cmd, v.GetString(keyOutput), idx, result))
}

func readInput(cmd *cobra.Command, input string) (*htmledit.Index, htmledit.NodeID, error) {
	if input == "-" || input == "" {
		return htmledit.ParseHTML(cmd.InOrStdin())
	}
	r, err := os.Open(input)
	if err != nil {
		return nil, htmledit.NoNode, err
	}
	defer r.Close()
	return htmledit.ParseHTML(r)
}

// writeOutput writes the outer HTML of every result node, one per line.
func writeOutput(cmd *cobra.Command, output string, idx *htmledit.Index, result []htmledit.NodeID) error {
	var w io.Writer = cmd.OutOrStdout()
	var f *os.File
	if output != "-" && output != "" {
		var err error
		if f, err = os.Create(output); err != nil {
			return err
		}
		w = f
	}
	bw := bufio.NewWriter(w)
	for i, id := range result {
		if i > 0 {
			bw.WriteString("\n")
		}
		bw.WriteString(idx.OuterHTML(id))
	}
	bw.WriteString("\n")
	if err := bw.Flush(); err != nil {
		if f != nil {
			f.Close()
		}
		return fmt.Errorf("flush output: %w", err)
	}
	if f != nil {
		return f.Close()
	}
	return nil
}

// Command symexdemo feeds a handful of canned instructions through
// session.Build and prints the resulting expressions, flags, and path
// constraints. It is a smoke-test harness for the core, not a disassembler
// or emulator: it hand-builds arch.Instruction values the way the test
// suite does, since this module has no decoder of its own (§1).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lookbusy1344/x86-symex/arch"
	"github.com/lookbusy1344/x86-symex/config"
	"github.com/lookbusy1344/x86-symex/session"
)

func main() {
	var configPath string
	var scenario string
	var verboseTrace bool

	rootCmd := &cobra.Command{
		Use:   "symexdemo",
		Short: "Run a canned instruction sequence through the symbolic execution core",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			seq, ok := scenarios[scenario]
			if !ok {
				return fmt.Errorf("unknown scenario %q (known: %s)", scenario, scenarioNames())
			}

			concrete := session.NewConcreteState(cfg.CPU.BitSize)
			sess := session.New(cfg, concrete)
			if verboseTrace {
				sess.Trace().Enable()
			}

			for _, inst := range seq {
				if err := sess.Build(inst); err != nil {
					return fmt.Errorf("building %s: %w", inst.Mnemonic, err)
				}
			}

			printSummary(sess)
			return nil
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a TOML session config (default: built-in defaults)")
	rootCmd.Flags().StringVar(&scenario, "scenario", "add-overflow", "canned instruction sequence to run: "+scenarioNames())
	rootCmd.Flags().BoolVarP(&verboseTrace, "trace", "t", false, "enable and print the expression trace")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printSummary(sess *session.Session) {
	fmt.Println("Registers:")
	for _, reg := range []arch.RegisterID{arch.RegRAX, arch.RegRBX, arch.RegRSP, arch.RegRIP} {
		if expr := sess.State().CurrentRegister(reg); expr != nil {
			fmt.Printf("  %-4v expr#%d (width %d, tainted=%v): %s\n", reg, expr.ID, expr.Width(), expr.Tainted(), expr.Node)
		}
	}

	fmt.Println("Flags:")
	for _, f := range []arch.FlagID{arch.FlagCF, arch.FlagPF, arch.FlagAF, arch.FlagZF, arch.FlagSF, arch.FlagOF} {
		if expr := sess.State().CurrentFlag(f); expr != nil {
			fmt.Printf("  %-3v expr#%d: %s\n", f, expr.ID, expr.Node)
		}
	}

	constraints := sess.State().PathConstraints()
	fmt.Printf("Path constraints: %d\n", len(constraints))
	for _, c := range constraints {
		fmt.Printf("  expr#%d (%s): %s\n", c.ID, c.Comment, c.Node)
	}

	if sess.Trace().Enabled {
		fmt.Println()
		fmt.Print(sess.Trace().String())
	}
}

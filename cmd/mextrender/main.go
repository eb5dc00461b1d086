// Command mextrender renders a Mext template file against zero or more
// parameter files, per spec.md §6's CLI external interface.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mextlang/mext"
	"github.com/mextlang/mext/mextcfg"
)

func main() {
	os.Exit(run())
}

func run() int {
	var output string
	var paramFiles []string

	cmd := &cobra.Command{
		Use:           "mextrender TEMPLATE_FILE",
		Short:         "Render a Mext template",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(args[0], output, paramFiles)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "", "write rendered output to this file instead of stdout")
	flags.StringArrayVarP(&paramFiles, "params", "p", nil, "a YAML or JSON file of params, merged left-to-right (repeatable)")
	flags.SortFlags = false

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mextrender:", err)
		var notFound *mext.FileNotFoundError
		if errors.As(err, &notFound) {
			return 2
		}
		var syntaxErr *mext.SyntaxError
		if errors.As(err, &syntaxErr) {
			return 3
		}
		var runtimeErr *mext.RuntimeError
		if errors.As(err, &runtimeErr) {
			return 4
		}
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}
	return 0
}

func render(templateFile, output string, paramFiles []string) error {
	params := map[string]*mext.Value{}
	for _, pf := range paramFiles {
		loaded, err := mextcfg.Load(pf)
		if err != nil {
			return fmt.Errorf("loading params %q: %w", pf, err)
		}
		if loaded.Kind() != mext.KindMap {
			return fmt.Errorf("params file %q must contain a mapping at its root", pf)
		}
		for _, k := range loaded.Map().Keys() {
			v, _ := loaded.Map().Get(k)
			params[k] = v
		}
	}

	out, err := mext.RenderFile(templateFile, params)
	if err != nil {
		return err
	}

	if output == "" {
		_, err := fmt.Println(out)
		return err
	}
	return os.WriteFile(output, []byte(out+"\n"), 0o644)
}

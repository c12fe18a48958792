package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gbrlfaria/chaseconv/internal/convert"
	"github.com/gbrlfaria/chaseconv/internal/errors"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input>...",
	Short: "Convert the given model and animation files to the target format",
	Long: `Convert decodes every input file, checks that they describe one
coherent character, and writes the target format's files into the
output directory. Outputs are written all-or-nothing; a failed
conversion leaves no partial files behind.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringP("to", "t", "gltf", "target format: gltf, game")
	convertCmd.Flags().StringP("out", "o", ".", "output directory")
	viper.BindPFlag("target", convertCmd.Flags().Lookup("to"))
	viper.BindPFlag("out", convertCmd.Flags().Lookup("out"))

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	outDir := viper.GetString("out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(errors.Mark(err, errors.ErrIO), "creating output directory")
	}

	conv := convert.New(slog.Default())
	report, err := conv.Convert(args, viper.GetString("target"), outDir)
	if err != nil {
		return err
	}

	printReport(cmd.OutOrStdout(), report)
	return nil
}

func printReport(w io.Writer, report *convert.Report) {
	success := color.New(color.FgGreen, color.Bold)
	warning := color.New(color.FgYellow)

	for _, path := range report.Outputs {
		success.Fprint(w, "wrote ")
		fmt.Fprintln(w, path)
	}
	for _, warn := range report.Warnings {
		warning.Fprintf(w, "warning: %s\n", warn)
	}
}

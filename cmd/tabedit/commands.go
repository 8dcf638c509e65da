package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabedit/internal/app"
	"github.com/JonMunkholm/tabedit/internal/config"
	"github.com/JonMunkholm/tabedit/internal/core"
	"github.com/JonMunkholm/tabedit/internal/logging"
	"github.com/JonMunkholm/tabedit/internal/tabfile"
)

// opFlags are shared by apply and preview.
type opFlags struct {
	in         string
	out        string
	charset    string
	column     string
	op         string
	delimiter  string
	expression string
	limit      int
}

func (f *opFlags) operation() (core.Operation, error) {
	kind, err := core.ParseOpKind(f.op)
	if err != nil {
		return core.Operation{}, err
	}
	return core.Operation{Kind: kind, Delimiter: f.delimiter, Expression: f.expression}, nil
}

func (f *opFlags) read() (*core.Table, error) {
	return tabfile.ReadFile(f.in, core.DecodeOptions{Charset: f.charset})
}

func addInputFlags(cmd *cobra.Command, f *opFlags) {
	cmd.Flags().StringVarP(&f.in, "in", "i", "", "Input file (.csv, .xlsx or .xls)")
	cmd.Flags().StringVar(&f.charset, "charset", "", "CSV character set (utf-8, windows-1252, latin1)")
	_ = cmd.MarkFlagRequired("in")
}

func addOperationFlags(cmd *cobra.Command, f *opFlags) {
	cmd.Flags().StringVarP(&f.column, "column", "c", "", "Column to transform")
	cmd.Flags().StringVar(&f.op, "op", "", "Operation: removeSpaces, removeSpecial, splitByChar, customExpression")
	cmd.Flags().StringVarP(&f.delimiter, "delimiter", "d", "", "Delimiter for splitByChar")
	cmd.Flags().StringVarP(&f.expression, "expr", "e", "", "Expression for customExpression")
	_ = cmd.MarkFlagRequired("column")
	_ = cmd.MarkFlagRequired("op")
}

var (
	applyFlags   opFlags
	recipeFlags  opFlags
	recipePath   string
	previewFlags opFlags
	profileFlags opFlags
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply one operation to a column and write the result",
	Example: `  tabedit apply --in people.csv --column email --op splitByChar -d @ --out out.xlsx
  tabedit apply -i in.xlsx -c name --op customExpression -e 'value.toUpperCase()' --out out.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &applyFlags
		op, err := f.operation()
		if err != nil {
			return err
		}
		t, err := f.read()
		if err != nil {
			return err
		}
		result, err := core.Apply(t, f.column, op)
		if err != nil {
			return err
		}
		if err := tabfile.WriteFile(f.out, result); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s on %q: %d of %d rows changed, wrote %s\n",
			op.Kind.Label(), f.column, core.ChangedRows(t, result), result.Len(), f.out)
		return nil
	},
}

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Apply a YAML recipe of operations; nothing is written if a step fails",
	Example: `  tabedit recipe --in people.csv --recipe clean.yaml --out out.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &recipeFlags
		rf, err := os.Open(recipePath)
		if err != nil {
			return fmt.Errorf("open recipe: %w", err)
		}
		defer rf.Close()

		recipe, err := core.LoadRecipe(rf)
		if err != nil {
			return err
		}
		t, err := f.read()
		if err != nil {
			return err
		}
		result, err := core.ApplyRecipe(t, recipe)
		if err != nil {
			return err
		}
		if err := tabfile.WriteFile(f.out, result); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d steps: %d of %d rows changed, wrote %s\n",
			len(recipe.Steps), core.ChangedRows(t, result), result.Len(), f.out)
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the first rows an operation would produce as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &previewFlags
		op, err := f.operation()
		if err != nil {
			return err
		}
		t, err := f.read()
		if err != nil {
			return err
		}
		p, err := core.BuildPreview(t, f.column, op, f.limit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), p)
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Print summary statistics of a column as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &profileFlags
		t, err := f.read()
		if err != nil {
			return err
		}
		p, err := core.BuildProfile(t, f.column)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), p)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web editor",
	Long:  "Run the web editor. Settings come from the environment and an optional .env file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Overload()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return app.Run(ctx, cfg)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, appVersion)
	},
}

func init() {
	addInputFlags(applyCmd, &applyFlags)
	addOperationFlags(applyCmd, &applyFlags)
	applyCmd.Flags().StringVarP(&applyFlags.out, "out", "o", "", "Output file (.xlsx or .csv)")
	_ = applyCmd.MarkFlagRequired("out")

	addInputFlags(recipeCmd, &recipeFlags)
	recipeCmd.Flags().StringVarP(&recipePath, "recipe", "r", "", "Recipe YAML file")
	recipeCmd.Flags().StringVarP(&recipeFlags.out, "out", "o", "", "Output file (.xlsx or .csv)")
	_ = recipeCmd.MarkFlagRequired("recipe")
	_ = recipeCmd.MarkFlagRequired("out")

	addInputFlags(previewCmd, &previewFlags)
	addOperationFlags(previewCmd, &previewFlags)
	previewCmd.Flags().IntVarP(&previewFlags.limit, "limit", "n", core.DefaultPreviewLimit, "Number of rows to show")

	addInputFlags(profileCmd, &profileFlags)
	profileCmd.Flags().StringVarP(&profileFlags.column, "column", "c", "", "Column to profile")
	_ = profileCmd.MarkFlagRequired("column")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

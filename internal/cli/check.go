package cli

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aqasim81/graph-migration-engine/internal/dataset"
	"github.com/aqasim81/graph-migration-engine/internal/migration"
)

// errCheckFailed is returned when check finds errors, or warnings with --strict.
var errCheckFailed = errors.New("migration check failed")

// Problem severities reported by check.
const (
	severityError   = "ERROR"
	severityWarning = "WARN"
)

var checkCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "check [migration-dir]",
	Short: "Validate migration files without touching the store",
	Long: `Parse every migration file and report problems apply would hit:
datasets that are not valid Turtle, graph files that do not name an absolute
IRI, empty statement files and filenames shared by several migrations.`,
	RunE: runCheck,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	checkCmd.Flags().Bool("strict", false, "exit with non-zero code on warnings too")
	rootCmd.AddCommand(checkCmd)
}

// problem is one finding about a migration file.
type problem struct {
	Severity string
	Path     string
	Message  string
}

func runCheck(cmd *cobra.Command, args []string) error {
	dir := AppConfig.MigrationsDir
	if len(args) > 0 {
		dir = args[0]
	}

	out := cmd.OutOrStdout()

	migrations, err := loadMigrations(dir, out)
	if err != nil || migrations == nil {
		return err
	}

	problems := checkMigrations(migrations)
	errs, warnings := printProblems(out, problems, len(migrations))

	strict, _ := cmd.Flags().GetBool("strict")
	if errs > 0 || (strict && warnings > 0) {
		return errCheckFailed
	}

	return nil
}

// checkMigrations inspects each migration the way apply would read it.
func checkMigrations(migrations []migration.Migration) []problem {
	var problems []problem

	for i := range migrations {
		m := &migrations[i]

		switch m.Kind {
		case migration.KindStatement:
			problems = append(problems, checkStatement(m)...)
		case migration.KindDataset:
			problems = append(problems, checkDataset(m)...)
		case migration.KindUnsupported:
			problems = append(problems, problem{severityWarning, m.Path, "unsupported file type, would be recorded without being applied"})
		}
	}

	dups := migration.Duplicates(migrations)

	names := make([]string, 0, len(dups))
	for name := range dups {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		problems = append(problems, problem{
			Severity: severityWarning,
			Path:     strings.Join(dups[name], ", "),
			Message:  fmt.Sprintf("filename %s is used %d times; only one can be recorded", name, len(dups[name])),
		})
	}

	return problems
}

func checkStatement(m *migration.Migration) []problem {
	content, err := m.Content()
	if err != nil {
		return []problem{{severityError, m.Path, err.Error()}}
	}

	if strings.TrimSpace(content) == "" {
		return []problem{{severityWarning, m.Path, "statement file is empty"}}
	}

	return nil
}

func checkDataset(m *migration.Migration) []problem {
	var problems []problem

	ds, err := dataset.Load(m.Path)

	switch {
	case err != nil:
		problems = append(problems, problem{severityError, m.Path, err.Error()})
	case ds.Len() == 0:
		problems = append(problems, problem{severityWarning, m.Path, "dataset contains no triples"})
	}

	graph, err := m.TargetGraph("")
	if err != nil {
		return append(problems, problem{severityError, m.SidecarPath(), err.Error()})
	}

	if graph != "" && !isAbsoluteIRI(graph) {
		problems = append(problems, problem{
			Severity: severityError,
			Path:     m.SidecarPath(),
			Message:  fmt.Sprintf("graph %q is not an absolute IRI", graph),
		})
	}

	return problems
}

func isAbsoluteIRI(s string) bool {
	u, err := url.Parse(s)

	return err == nil && u.Scheme != "" && !strings.ContainsAny(s, " <>\"{}|\\^`")
}

func printProblems(out io.Writer, problems []problem, total int) (int, int) {
	errs, warnings := 0, 0

	for _, p := range problems {
		fmt.Fprintf(out, "  [%s] %s\n", p.Severity, p.Path)
		fmt.Fprintf(out, "    %s\n", p.Message)

		if p.Severity == severityError {
			errs++
		} else {
			warnings++
		}
	}

	if len(problems) == 0 {
		fmt.Fprintf(out, "All %d migration(s) look valid.\n", total)
	} else {
		fmt.Fprintf(out, "\nFound %d error(s) and %d warning(s) across %d migration(s).\n", errs, warnings, total)
	}

	return errs, warnings
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parikshasetu/exam-platform/internal/app"
	"github.com/parikshasetu/exam-platform/internal/models"
	"github.com/parikshasetu/exam-platform/internal/repository"
	"github.com/parikshasetu/exam-platform/internal/service"
	"github.com/parikshasetu/exam-platform/internal/spreadsheet"
	"github.com/parikshasetu/exam-platform/pkg/config"
	"github.com/parikshasetu/exam-platform/pkg/database"
	"github.com/parikshasetu/exam-platform/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "examctl",
		Short:         "Operate the Pariksha exam platform services",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(serveCmd(), migrateCmd(), templateCmd(), parseCmd(), gradeCmd(), createAdminCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "serve <service>",
		Short:     "Run one service (course, exam, result, user)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: app.Services(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), args[0])
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [service...]",
		Short: "Apply service schemas (all services when none given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			services := args
			if len(services) == 0 {
				services = app.Services()
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.NewPostgres(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			for _, svc := range services {
				if err := database.Migrate(cmd.Context(), db, svc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", svc)
			}
			return nil
		},
	}
}

func templateCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:       "template <students|questions>",
		Short:     "Write a blank import workbook",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"students", "questions"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			switch args[0] {
			case "students":
				data, err = spreadsheet.StudentTemplate(true)
			case "questions":
				data, err = spreadsheet.QuestionTemplate()
			default:
				return fmt.Errorf("unknown template %q", args[0])
			}
			if err != nil {
				return err
			}
			if output == "" {
				output = args[0] + "_template.xlsx"
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path")
	return cmd
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <students|questions> <file.xlsx>",
		Short: "Print the rows an import would read, as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			var rows interface{}
			switch args[0] {
			case "students":
				rows, err = spreadsheet.ReadStudents(f, spreadsheet.DefaultStudentLayout)
			case "questions":
				rows, err = spreadsheet.ParseQuestions(f, spreadsheet.DefaultQuestionLayout)
			default:
				return fmt.Errorf("unknown sheet kind %q", args[0])
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}
}

func gradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grade <score> <total-marks>",
		Short: "Show the grade band for a score",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("score: %w", err)
			}
			total, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("total marks: %w", err)
			}
			grade, err := service.Grade(score, total)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), grade)
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var email, name, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an approved ADMIN account in the user service database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logr, err := logger.New(cfg, "examctl")
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			db, err := database.NewPostgres(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db, database.ServiceUser); err != nil {
				return err
			}

			tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
			auth := service.NewAuthService(repository.NewUserRepository(db), tokens, nil, logr)
			res, err := auth.Register(cmd.Context(), models.RegisterRequest{
				FullName: name,
				Email:    email,
				Password: password,
				Role:     models.RoleAdmin,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", email, res.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&email, "email", "", "Admin email (required)")
	f.StringVar(&name, "name", "Administrator", "Full name")
	f.StringVar(&password, "password", "", "Password, at least 6 characters (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

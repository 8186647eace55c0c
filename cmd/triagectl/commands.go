package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/synaptica-ai/medtriage/pkg/app"
	"github.com/synaptica-ai/medtriage/pkg/common/config"
	"github.com/synaptica-ai/medtriage/pkg/common/database"
	"github.com/synaptica-ai/medtriage/pkg/common/models"
	"github.com/synaptica-ai/medtriage/pkg/identity"
	"github.com/synaptica-ai/medtriage/pkg/patient"
	"github.com/synaptica-ai/medtriage/pkg/serving"
	"github.com/synaptica-ai/medtriage/pkg/serving/predictor"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func classifyCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify one set of vitals without touching storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			age, _ := cmd.Flags().GetInt("age")
			dob, _ := cmd.Flags().GetString("dob")
			gender, _ := cmd.Flags().GetString("gender")
			condition, _ := cmd.Flags().GetString("condition")
			bp, _ := cmd.Flags().GetInt("bp")
			hr, _ := cmd.Flags().GetInt("hr")
			temp, _ := cmd.Flags().GetFloat64("temp")

			if dob != "" {
				born, err := patient.ParseDOB(dob)
				if err != nil {
					return fmt.Errorf("--dob must be YYYY-MM-DD: %w", err)
				}
				age = patient.AgeOn(born, time.Now())
			}
			if bp <= 0 || hr <= 0 || temp <= 0 {
				return errors.New("--bp, --hr and --temp must be positive")
			}

			engine, _, err := app.LoadEngine(cfg)
			if err != nil {
				return err
			}
			assessment, err := engine.Assess(models.Vitals{
				Age:           age,
				Gender:        gender,
				Condition:     condition,
				BloodPressure: bp,
				HeartRate:     hr,
				Temperature:   patient.NormalizeTemperature(temp),
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), assessment)
		},
	}
	cmd.Flags().Int("age", 0, "Age in years")
	cmd.Flags().String("dob", "", "Date of birth (YYYY-MM-DD), overrides --age")
	cmd.Flags().String("gender", "", "Gender label")
	cmd.Flags().String("condition", "None", "Pre-existing condition")
	cmd.Flags().Int("bp", 0, "Systolic blood pressure (mmHg)")
	cmd.Flags().Int("hr", 0, "Heart rate (bpm)")
	cmd.Flags().Float64("temp", 0, "Temperature; values above 45 are read as Fahrenheit")
	return cmd
}

func modelCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect the model artifact",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "inspect",
		Short: "Print artifact metadata and vocabularies",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := predictor.Load(cfg.ModelArtifactPath)
			if err != nil {
				return err
			}
			enc := model.Encoders()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:      %s\n", model.Name())
			fmt.Fprintf(out, "version:   %s\n", model.Version())
			fmt.Fprintf(out, "features:  %s\n", strings.Join(model.FeatureNames(), ", "))
			fmt.Fprintf(out, "gender:    %s\n", strings.Join(enc.Gender, ", "))
			fmt.Fprintf(out, "condition: %s\n", strings.Join(enc.Condition, ", "))
			fmt.Fprintf(out, "risk:      %s\n", strings.Join(enc.Risk, ", "))
			return nil
		},
	})
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.GetPostgres()
			if err != nil {
				return err
			}
			defer database.ClosePostgres()

			migrations := map[string]func() error{
				"patients":      patient.NewRepository(db).AutoMigrate,
				"clinicians":    identity.NewRepository(db).AutoMigrate,
				"analysis_logs": serving.NewRepository(db, "", "").AutoMigrate,
			}
			for _, table := range []string{"patients", "clinicians", "analysis_logs"} {
				if err := migrations[table](); err != nil {
					return fmt.Errorf("migrating %s: %w", table, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", table)
			}
			return nil
		},
	}
}

func clinicianCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clinician",
		Short: "Manage clinician accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a clinician account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			displayName, _ := cmd.Flags().GetString("display-name")
			email, _ := cmd.Flags().GetString("email")

			db, err := database.GetPostgres()
			if err != nil {
				return err
			}
			defer database.ClosePostgres()

			repo := identity.NewRepository(db)
			if err := repo.AutoMigrate(); err != nil {
				return err
			}
			clinician, err := identity.NewService(repo).CreateClinician(cmd.Context(), identity.CreateClinicianRequest{
				Username:    username,
				Password:    password,
				DisplayName: displayName,
				Email:       email,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), clinician)
		},
	}
	createCmd.Flags().String("username", "", "Login name")
	createCmd.Flags().String("password", "", "Password (at least 8 characters)")
	createCmd.Flags().String("display-name", "", "Name shown in reports")
	createCmd.Flags().String("email", "", "Contact email")
	_ = createCmd.MarkFlagRequired("username")
	_ = createCmd.MarkFlagRequired("password")
	cmd.AddCommand(createCmd)

	return cmd
}

func analysesCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyses",
		Short: "Query the analysis log",
	}

	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recent analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			patientID, _ := cmd.Flags().GetString("patient")
			limit, _ := cmd.Flags().GetInt("limit")

			db, err := database.GetPostgres()
			if err != nil {
				return err
			}
			defer database.ClosePostgres()

			logs, err := serving.NewRepository(db, "", "").Recent(cmd.Context(), patientID, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, l := range logs {
				fmt.Fprintf(out, "%s\t%s\t%s\t%.2f\t%s@%s\n",
					l.AnalyzedAt.Format(time.RFC3339), l.PatientID, l.Risk, l.Confidence, l.ModelName, l.ModelVersion)
			}
			return nil
		},
	}
	recentCmd.Flags().String("patient", "", "Only show analyses for this patient")
	recentCmd.Flags().Int("limit", 20, "Maximum number of rows")
	cmd.AddCommand(recentCmd)

	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ats-scoring/internal/common/validation"
	"ats-scoring/pkg/registry"
)

var (
	criteriaFile  string
	registryPath  string
	exportOutPath string
)

var validateCriteriaCmd = &cobra.Command{
	Use:   "validate-criteria",
	Short: "Validate a requisition criteria JSON file",
	Long:  "Checks a JSON array of criteria against the same schema the replace-requisition-criteria worker enforces.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		content, err := os.ReadFile(criteriaFile)
		if err != nil {
			return fmt.Errorf("failed to read criteria file: %w", err)
		}
		return validateCriteriaDocument(cmd.OutOrStdout(), content)
	},
}

// validateCriteriaDocument reports every violation found in a raw criteria document.
func validateCriteriaDocument(w io.Writer, content []byte) error {
	var document interface{}
	if err := json.Unmarshal(content, &document); err != nil {
		return fmt.Errorf("failed to unmarshal criteria JSON: %w", err)
	}

	result, err := validation.ValidateAgainstSchema(validation.CriteriaListSchema(), document)
	if err != nil {
		return err
	}
	if result.Valid {
		fmt.Fprintln(w, "criteria valid")
		return nil
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Code, e.Field, e.Message)
	}
	return fmt.Errorf("%d criteria violation(s)", len(result.Errors))
}

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "List the task types served by the worker manager",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg := registry.Default()
		if registryPath != "" {
			loaded, err := registry.LoadRegistry(registryPath)
			if err != nil {
				return err
			}
			reg = loaded
		}

		for _, taskType := range reg.TaskTypes() {
			activity, _ := reg.Lookup(taskType)
			fmt.Fprintf(cmd.OutOrStdout(), "%-30s %-8s %s\n", activity.TaskType, activity.Timeout, activity.Description)
		}
		return nil
	},
}

var exportActivitiesCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the built-in activity registry as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if exportOutPath == "" {
			return printJSON(cmd.OutOrStdout(), registry.Default())
		}
		f, err := os.Create(exportOutPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOutPath, err)
		}
		defer f.Close()
		return printJSON(f, registry.Default())
	},
}

func init() {
	validateCriteriaCmd.Flags().StringVarP(&criteriaFile, "in", "i", "", "Path to criteria JSON file (required)")
	if err := validateCriteriaCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	activitiesCmd.Flags().StringVar(&registryPath, "registry", "", "Path to an activity registry JSON file (default: built-in)")
	exportActivitiesCmd.Flags().StringVarP(&exportOutPath, "out", "o", "", "Output path (default: stdout)")
	activitiesCmd.AddCommand(exportActivitiesCmd)

	rootCmd.AddCommand(validateCriteriaCmd, activitiesCmd)
}

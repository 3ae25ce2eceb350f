package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackmigrate/stackmigrate/pkg/engine"
	"github.com/stackmigrate/stackmigrate/pkg/telemetry"
	"github.com/stackmigrate/stackmigrate/pkg/template"
)

func newAnalyzeCommand() *cobra.Command {
	var (
		stackName     string
		relationships bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <template>",
		Short: "Analyze a template's resource graph",
		Long: `Analyze an existing infrastructure template.

This command:
  - Loads and validates the template document
  - Extracts resources in dependency order
  - Reports detected dependency cycles
  - Optionally infers implicit relationships between resources`,
		Example: `  # Analyze a template
  stackmigrate analyze stack.template.json --stack OrdersStack

  # Include inferred relationships
  stackmigrate analyze stack.template.json --stack OrdersStack --relationships

  # Machine-readable output
  stackmigrate analyze stack.template.json --stack OrdersStack --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tel, err := newTelemetry(cmd.Root().Version)
			if err != nil {
				return err
			}
			defer tel.Shutdown(cmd.Context())

			tpl, err := template.NewLoader().Load(args[0])
			if err != nil {
				return err
			}

			if stackName == "" {
				stackName = args[0]
			}

			_, span := tel.Tracer.StartAnalysisSpan(cmd.Context(), stackName)
			defer span.End()

			extractor := engine.NewExtractor(tel.Logger, tel.Metrics)
			result, err := extractor.Analyze(stackName, tpl)
			if err != nil {
				telemetry.RecordError(span, err)
				return err
			}
			telemetry.RecordSuccess(span)

			var rels []engine.RelationshipRecord
			if relationships {
				analyzer := engine.NewRelationshipAnalyzer(tel.Logger, tel.Metrics)
				rels = analyzer.Analyze(result)
			}

			if jsonOutput {
				out := struct {
					*engine.StackAnalysisResult
					Relationships []engine.RelationshipRecord `json:"relationships,omitempty"`
				}{result, rels}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Printf("Stack: %s (%d resources)\n", result.StackName, len(result.Resources))
			for i, res := range result.Resources {
				fmt.Printf("  %3d. %-40s %s\n", i+1, res.LogicalID, res.Type)
			}
			if len(result.CycleEdges) > 0 {
				fmt.Printf("Dependency cycles (%d edges):\n", len(result.CycleEdges))
				for _, edge := range result.CycleEdges {
					fmt.Printf("  %s -> %s\n", edge.From, edge.To)
				}
			}
			if relationships {
				fmt.Printf("Relationships (%d):\n", len(rels))
				for _, rel := range rels {
					fmt.Printf("  %-20s %s -> %s\n", rel.Kind, rel.Source, rel.Target)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&stackName, "stack", "s", "", "stack name (defaults to the template path)")
	cmd.Flags().BoolVarP(&relationships, "relationships", "r", false, "infer implicit relationships")

	return cmd
}

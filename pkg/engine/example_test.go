package engine_test

import (
	"fmt"

	"github.com/stackmigrate/stackmigrate/pkg/engine"
	"github.com/stackmigrate/stackmigrate/pkg/telemetry"
	"github.com/stackmigrate/stackmigrate/pkg/template"
)

func ExampleExtractor_Analyze() {
	tpl, _ := template.NewLoader().Parse([]byte(`{
		"Resources": {
			"Table": {"Type": "AWS::DynamoDB::Table"},
			"App": {"Type": "AWS::Lambda::Function", "DependsOn": "Table"}
		}
	}`))

	extractor := engine.NewExtractor(telemetry.NewNopLogger(), nil)
	result, _ := extractor.Analyze("OrdersStack", tpl)

	for _, res := range result.Resources {
		fmt.Println(res.LogicalID)
	}
	// Output:
	// Table
	// App
}

func ExampleClassifier_Classify() {
	original, _ := template.NewLoader().Parse([]byte(`{
		"Resources": {
			"Bucket": {
				"Type": "AWS::S3::Bucket",
				"Metadata": {"Description": "original"}
			}
		}
	}`))
	migrated, _ := template.NewLoader().Parse([]byte(`{
		"Resources": {
			"Bucket": {
				"Type": "AWS::S3::Bucket",
				"Metadata": {"Description": "regenerated"}
			}
		}
	}`))

	comparison := engine.NewComparer().Compare(original, migrated)

	classifier, _ := engine.NewClassifier(engine.ClassifierConfig{})
	fmt.Println(classifier.Classify(comparison, nil))
	// Output: NO_CHANGES
}

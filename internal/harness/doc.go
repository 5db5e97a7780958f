// Package harness runs end-to-end comparison scenarios.
//
// A scenario names two reference dumps, the options to compare them with
// and what the report must contain. The harness loads both dumps, runs the
// diff and checks the report against the expectations and, optionally,
// against a golden copy of the canonical report.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: record_add_field
//	description: "Adding a field to a referenced record breaks the ABI"
//	old: dumps/hello_v1.json
//	new: dumps/hello_v2.json
//	options:
//	  check_all_apis: false
//	expect:
//	  status: INCOMPATIBLE
//	  breaking: true
//	  record_type_diffs: [Hello]
//	  functions_removed: []
//
// Dump paths are relative to the scenario file. Every expect key is
// optional; an omitted list is not checked while an empty list demands
// that the report list is empty too.
//
// # Golden Reports
//
// The golden report of a scenario loaded from dir/name.yaml is
// dir/golden/name.golden and holds the canonical JSON of the report.
// Reports contain no timestamps or run ids, so they are byte-identical
// across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/record_add_field.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness

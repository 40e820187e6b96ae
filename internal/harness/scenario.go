package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario defines a pipeline scenario: steps to execute against one
// collection and assertions on the resulting trace and state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Collection is the collection every step operates on.
	// Defaults to DefaultCollection.
	Collection string `yaml:"collection,omitempty"`

	// IDPrefix prefixes generated collection and document ids.
	// Defaults to "id", giving "id-1", "id-2", ...
	IDPrefix string `yaml:"id_prefix,omitempty"`

	// Setup steps must succeed; any failure aborts the run.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow contains the steps under test.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// DefaultCollection is the collection name used when a scenario names none.
const DefaultCollection = "scenario"

// Step is a single pipeline operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Args holds the operation arguments.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect validates the step outcome. If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Error is the expected error code (e.g. "INVALID_DOCUMENT").
	Error string `yaml:"error,omitempty"`

	// Result is compared exactly against the step's result.
	Result any `yaml:"result,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Op is the operation counted by op_count.
	Op string `yaml:"op,omitempty"`

	// Count is the expected number of occurrences (op_count).
	Count int `yaml:"count,omitempty"`

	// Query and Params drive the search in search_order.
	Query  string         `yaml:"query,omitempty"`
	Params map[string]any `yaml:"params,omitempty"`

	// Documents lists the expected leading document ids (search_order).
	Documents []string `yaml:"documents,omitempty"`

	// Collections is the expected list of active collections.
	Collections []string `yaml:"collections,omitempty"`

	// ID selects the document for a document assertion.
	ID string `yaml:"id,omitempty"`

	// Expect contains expected field values (sync_status, document).
	// Subset match: only the listed fields are compared.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Operation names.
const (
	OpUpsert             = "upsert"
	OpGetDocuments       = "get_documents"
	OpRegisterSplitter   = "register_text_splitter"
	OpGenerateChunks     = "generate_chunks"
	OpRegisterModel      = "register_model"
	OpGenerateEmbeddings = "generate_embeddings"
	OpVectorSearch       = "vector_search"
	OpSyncData           = "sync_data"
	OpArchive            = "archive"
)

var validOps = []string{
	OpUpsert, OpGetDocuments, OpRegisterSplitter, OpGenerateChunks,
	OpRegisterModel, OpGenerateEmbeddings, OpVectorSearch, OpSyncData, OpArchive,
}

// Assertion type constants.
const (
	AssertSyncStatus  = "sync_status"
	AssertSearchOrder = "search_order"
	AssertOpCount     = "op_count"
	AssertCollections = "collections"
	AssertDocument    = "document"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep("setup", i, &step); err != nil {
			return err
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep("flow", i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(section string, index int, step *Step) error {
	if step.Op == "" {
		return fmt.Errorf("%s[%d]: op is required", section, index)
	}
	if !slices.Contains(validOps, step.Op) {
		return fmt.Errorf("%s[%d]: unknown op %q", section, index, step.Op)
	}
	switch step.Op {
	case OpUpsert:
		if _, ok := step.Args["documents"]; !ok {
			return fmt.Errorf("%s[%d]: documents is required for upsert", section, index)
		}
	case OpVectorSearch:
		if _, ok := step.Args["query"]; !ok {
			return fmt.Errorf("%s[%d]: query is required for vector_search", section, index)
		}
	}
	if step.Expect != nil && step.Expect.Error != "" && step.Expect.Result != nil {
		return fmt.Errorf("%s[%d].expect: error and result are mutually exclusive", section, index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSyncStatus:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for sync_status", index)
		}
	case AssertSearchOrder:
		if a.Query == "" {
			return fmt.Errorf("assertions[%d]: query is required for search_order", index)
		}
		if len(a.Documents) == 0 {
			return fmt.Errorf("assertions[%d]: documents list is required for search_order", index)
		}
	case AssertOpCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for op_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for op_count", index)
		}
	case AssertCollections:
		// An empty list asserts no active collections.
	case AssertDocument:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for document", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for document", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

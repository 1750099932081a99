package replication

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/0chain/s3replicate/model"
	"github.com/0chain/s3replicate/util"
	zerrors "github.com/0chain/s3replicate/zErrors"
	"github.com/go-yaml/yaml"
)

// planFile mirrors the plan file; Buckets is a pointer so a missing key can be
// told apart from an empty list.
type planFile struct {
	Buckets *[]model.ReplicationMapping `yaml:"buckets"`
}

// LoadPlan reads and validates the replication plan at path.
func LoadPlan(path string) (*model.ReplicationPlan, error) {
	expanded, err := util.ExpandPath(path)
	if err != nil {
		return nil, zerrors.New(zerrors.BadConfigErrCode, fmt.Sprintf("invalid configuration path %v: %v", path, err))
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, zerrors.New(zerrors.MissingConfigErrCode, fmt.Sprintf("configuration file %v not found", expanded))
		}
		return nil, zerrors.New(zerrors.BadConfigErrCode, fmt.Sprintf("error loading configuration: %v", err))
	}

	return ParsePlan(data)
}

// ParsePlan decodes plan file contents. Unknown keys are rejected.
func ParsePlan(data []byte) (*model.ReplicationPlan, error) {
	var raw planFile
	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return nil, zerrors.New(zerrors.BadConfigErrCode, fmt.Sprintf("error parsing YAML file: %v", err))
	}

	if raw.Buckets == nil {
		return nil, zerrors.New(zerrors.BadConfigErrCode, "invalid configuration: 'buckets' key not found")
	}

	plan := &model.ReplicationPlan{Buckets: *raw.Buckets}
	for i := range plan.Buckets {
		m := &plan.Buckets[i]
		m.Source = strings.TrimSpace(m.Source)
		for j := range m.Destinations {
			m.Destinations[j] = strings.TrimSpace(m.Destinations[j])
		}
	}

	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func validatePlan(plan *model.ReplicationPlan) error {
	var problems []string
	for i, mapping := range plan.Buckets {
		problems = append(problems, validateMapping(i, mapping)...)
	}

	if len(problems) > 0 {
		return zerrors.New(zerrors.BadConfigErrCode, "invalid configuration: "+strings.Join(problems, "; "))
	}
	return nil
}

func validateMapping(i int, mapping model.ReplicationMapping) (problems []string) {
	if mapping.Source == "" {
		problems = append(problems, fmt.Sprintf("entry %d: source_bucket is empty", i))
	}

	if len(mapping.Destinations) == 0 {
		problems = append(problems, fmt.Sprintf("entry %d: destination_buckets is empty", i))
	}

	seen := make(map[string]struct{}, len(mapping.Destinations))
	for j, dest := range mapping.Destinations {
		switch {
		case dest == "":
			problems = append(problems, fmt.Sprintf("entry %d: destination %d is empty", i, j))
			continue
		case dest == mapping.Source:
			problems = append(problems, fmt.Sprintf("entry %d: destination %q is the source bucket", i, dest))
		}

		if _, ok := seen[dest]; ok {
			problems = append(problems, fmt.Sprintf("entry %d: destination %q listed twice", i, dest))
		}
		seen[dest] = struct{}{}
	}
	return problems
}

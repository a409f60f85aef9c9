// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"distrocheck-cli/internal/findings"
)

//go:embed schema.json
var manifestSchema string

// compiledSchema is built once at init; the embedded schema is trusted input
// and a compile failure is a programming error.
var compiledSchema = jsonschema.MustCompileString("manifest-schema.json", manifestSchema)

// ValidateSchema checks raw manifest JSON against the closed catalog schema
// and reports every violation (unknown keys, wrong types, missing required
// fields) as an error finding attributed to the flavor and entry it occurred
// in. The manifest m is only used to map instance locations back to entry
// names.
func ValidateSchema(data []byte, m *Manifest, report *findings.Collector) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		report.Errorf("", "", "manifest is not valid JSON: %v", err)
		return
	}

	err := compiledSchema.Validate(doc)
	if err == nil {
		return
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		report.Errorf("", "", "manifest schema validation failed: %v", err)
		return
	}
	for _, leaf := range leafCauses(verr) {
		flavor, distro := locate(m, leaf.InstanceLocation)
		report.Errorf(flavor, distro, "manifest schema violation at %s: %s", leaf.InstanceLocation, leaf.Message)
	}
}

// leafCauses flattens a validation error tree into its leaf causes, which
// carry the actionable messages.
func leafCauses(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var leaves []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		leaves = append(leaves, leafCauses(cause)...)
	}
	return leaves
}

// locate maps a JSON instance location like
// "/ModernDistributions/Ubuntu/0/Extra" back to the flavor and entry name it
// belongs to.
func locate(m *Manifest, instanceLocation string) (flavor, distro string) {
	segments := strings.Split(strings.TrimPrefix(instanceLocation, "/"), "/")
	if len(segments) < 2 || segments[0] != "ModernDistributions" {
		return "", ""
	}
	flavor = segments[1]
	if len(segments) < 3 || m == nil {
		return flavor, ""
	}
	idx, err := strconv.Atoi(segments[2])
	if err != nil {
		return flavor, ""
	}
	entries := m.ModernDistributions[flavor]
	if idx < 0 || idx >= len(entries) {
		return flavor, ""
	}
	return flavor, entries[idx].Name
}

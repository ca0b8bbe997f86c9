package model

import "encoding/json"

// CodeEntry is one extracted piece of code evidence. Name and File together
// form the deduplication key: no (name, file) pair appears twice across the
// four bundle groups.
type CodeEntry struct {
	Name    string
	File    string
	Purpose string
	Code    string
}

// ContextBundle is the final output of a research run: ranked, deduplicated
// code evidence grouped for a downstream prompt builder.
type ContextBundle struct {
	Summary        string
	MainComponents []CodeEntry
	Utilities      []CodeEntry
	UsageExamples  []CodeEntry
	Configuration  []CodeEntry
}

// Entries returns all entries across the four groups, main components first.
func (b ContextBundle) Entries() []CodeEntry {
	out := make([]CodeEntry, 0, len(b.MainComponents)+len(b.Utilities)+len(b.UsageExamples)+len(b.Configuration))
	out = append(out, b.MainComponents...)
	out = append(out, b.Utilities...)
	out = append(out, b.UsageExamples...)
	out = append(out, b.Configuration...)
	return out
}

// Wire shapes for the bundle JSON schema. Each group exposes a different
// field subset, so marshaling goes through per-group structs rather than
// a shared tag set.

type mainComponentJSON struct {
	Name    string `json:"name"`
	File    string `json:"file"`
	Purpose string `json:"purpose"`
	Code    string `json:"code"`
}

type utilityJSON struct {
	Name string `json:"name"`
	File string `json:"file"`
	Code string `json:"code"`
}

type usageExampleJSON struct {
	Description string `json:"description"`
	Code        string `json:"code"`
}

type configurationJSON struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

type bundleJSON struct {
	Summary        string              `json:"summary"`
	MainComponents []mainComponentJSON `json:"main_components"`
	Utilities      []utilityJSON       `json:"utilities"`
	UsageExamples  []usageExampleJSON  `json:"usage_examples"`
	Configuration  []configurationJSON `json:"configuration"`
}

// MarshalJSON renders the bundle in the schema consumed by prompt builders:
// utilities drop the purpose field, usage examples collapse to a description,
// configuration entries collapse to a type.
func (b ContextBundle) MarshalJSON() ([]byte, error) {
	out := bundleJSON{
		Summary:        b.Summary,
		MainComponents: make([]mainComponentJSON, 0, len(b.MainComponents)),
		Utilities:      make([]utilityJSON, 0, len(b.Utilities)),
		UsageExamples:  make([]usageExampleJSON, 0, len(b.UsageExamples)),
		Configuration:  make([]configurationJSON, 0, len(b.Configuration)),
	}

	for _, e := range b.MainComponents {
		out.MainComponents = append(out.MainComponents, mainComponentJSON{
			Name: e.Name, File: e.File, Purpose: e.Purpose, Code: e.Code,
		})
	}
	for _, e := range b.Utilities {
		out.Utilities = append(out.Utilities, utilityJSON{Name: e.Name, File: e.File, Code: e.Code})
	}
	for _, e := range b.UsageExamples {
		desc := e.Purpose
		if desc == "" {
			desc = e.Name
		}
		out.UsageExamples = append(out.UsageExamples, usageExampleJSON{Description: desc, Code: e.Code})
	}
	for _, e := range b.Configuration {
		out.Configuration = append(out.Configuration, configurationJSON{Type: e.Name, Code: e.Code})
	}

	return json.Marshal(out)
}

// UnmarshalJSON restores a bundle from its wire schema. Usage examples come
// back with the description as both name and purpose; configuration entries
// come back with the type as the name. File and purpose fields absent from
// the wire schema stay empty.
func (b *ContextBundle) UnmarshalJSON(data []byte) error {
	var in bundleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*b = ContextBundle{Summary: in.Summary}
	for _, e := range in.MainComponents {
		b.MainComponents = append(b.MainComponents, CodeEntry{
			Name: e.Name, File: e.File, Purpose: e.Purpose, Code: e.Code,
		})
	}
	for _, e := range in.Utilities {
		b.Utilities = append(b.Utilities, CodeEntry{Name: e.Name, File: e.File, Code: e.Code})
	}
	for _, e := range in.UsageExamples {
		b.UsageExamples = append(b.UsageExamples, CodeEntry{
			Name: e.Description, Purpose: e.Description, Code: e.Code,
		})
	}
	for _, e := range in.Configuration {
		b.Configuration = append(b.Configuration, CodeEntry{Name: e.Type, Code: e.Code})
	}
	return nil
}

// ErrorBundle is returned instead of a ContextBundle when a research run
// fails unrecoverably. Callers never see a raw error.
type ErrorBundle struct {
	Query        string `json:"query"`
	FileHint     string `json:"file_hint"`
	ErrorMessage string `json:"error"`
}

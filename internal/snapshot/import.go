package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/visionrag/ragview/internal/dataset"
	"github.com/visionrag/ragview/internal/models"
)

//go:embed snapshot.schema.json
var schemaJSON []byte

var schemaPrinter = message.NewPrinter(language.English)

// compiled JSON Schema for snapshot files.
var snapshotSchema *jsonschema.Schema

func init() {
	var doc any
	if err := json.Unmarshal(schemaJSON, &doc); err != nil {
		panic(fmt.Sprintf("parsing embedded snapshot schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("snapshot.schema.json", doc); err != nil {
		panic(fmt.Sprintf("adding snapshot schema resource: %v", err))
	}
	sch, err := compiler.Compile("snapshot.schema.json")
	if err != nil {
		panic(fmt.Sprintf("compiling snapshot schema: %v", err))
	}
	snapshotSchema = sch
}

// ImportResult is the outcome of reading an uploaded file: the replacement
// record set and the scoring state to rebuild the store from. Warnings
// carry non-fatal findings (unknown versions, skipped entries) for display.
type ImportResult struct {
	Records     []*models.RawRecord
	Evaluations map[string]models.Category
	Warnings    []string
}

// Read parses an uploaded file, which may be either a newline-delimited
// collection of raw records (fresh load, no scoring state) or an export
// snapshot. Any parse failure rejects the whole file; callers keep their
// existing state on error.
func Read(data []byte) (*ImportResult, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("snapshot: file is empty")
	}

	// A snapshot is a single JSON object carrying a data array. Anything
	// else is treated as JSONL: a one-line record file also parses as a
	// single JSON object, so the absence of a data field falls through to
	// the record parser instead of erroring.
	var doc map[string]any
	if err := json.Unmarshal(trimmed, &doc); err == nil {
		if _, ok := doc["data"]; ok {
			return readSnapshot(doc)
		}
	}

	records, err := dataset.Parse(bytes.NewReader(trimmed))
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return &ImportResult{
		Records:     records,
		Evaluations: map[string]models.Category{},
	}, nil
}

// readSnapshot validates and decodes a parsed snapshot document. Unknown
// version tags are read best-effort: schema validation downgrades to a
// warning since the known variants are forward-compatible supersets.
func readSnapshot(doc map[string]any) (*ImportResult, error) {
	res := &ImportResult{Evaluations: map[string]models.Category{}}

	version, _ := doc["version"].(string)
	known := version == Version || version == VersionLegacy

	if err := snapshotSchema.Validate(doc); err != nil {
		msg := schemaErrorString(err)
		if known {
			return nil, fmt.Errorf("snapshot: invalid export file: %s", msg)
		}
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("unrecognized snapshot version %q, loading best-effort: %s", version, msg))
	} else if !known {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("unrecognized snapshot version %q, loading known fields only", version))
	}

	var snap Snapshot
	if err := decodeLoose(doc, &snap); err != nil {
		return nil, fmt.Errorf("snapshot: decoding export file: %w", err)
	}

	embedded := make(map[string]models.Category)
	for i := range snap.Data {
		entry := &snap.Data[i]
		rec := entry.RawRecord
		res.Records = append(res.Records, &rec)

		if entry.Evaluation == nil {
			continue
		}
		category, ok := models.CategoryFromPoints(*entry.Evaluation)
		if !ok {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("record %s: evaluation value %d has no category, skipped", rec.ItemID, *entry.Evaluation))
			continue
		}
		embedded[models.EvaluationKey(rec.ItemID, rec.ModelName, rec.EmbeddingProvider, rec.Mode())] = category
	}

	// Embedded per-record state wins over the legacy flat map.
	if len(embedded) > 0 {
		res.Evaluations = embedded
		return res, nil
	}
	for key, val := range snap.Evaluations {
		category, ok := parseLegacyEvaluation(val)
		if !ok {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("evaluation %s: unknown value %q, skipped", key, val))
			continue
		}
		res.Evaluations[key] = category
	}
	return res, nil
}

// decodeLoose maps the generic document onto the snapshot struct using the
// json field names, tolerating type looseness (legacy files store numbers
// where strings are expected and vice versa).
func decodeLoose(doc map[string]any, snap *Snapshot) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           snap,
		TagName:          "json",
		WeaklyTypedInput: true,
		Squash:           true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	return dec.Decode(doc)
}

// parseLegacyEvaluation accepts both category names and numeric point
// values, which different legacy exports used interchangeably.
func parseLegacyEvaluation(val string) (models.Category, bool) {
	c := models.Category(val)
	if c.Valid() {
		return c, true
	}
	if points, err := strconv.Atoi(val); err == nil {
		return models.CategoryFromPoints(points)
	}
	return "", false
}

// schemaErrorString flattens a jsonschema validation error into one line.
func schemaErrorString(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var msgs []string
	collectSchemaErrors(ve, &msgs)
	if len(msgs) == 0 {
		return ve.Error()
	}
	out := msgs[0]
	if len(msgs) > 1 {
		out = fmt.Sprintf("%s (and %d more)", out, len(msgs)-1)
	}
	return out
}

func collectSchemaErrors(ve *jsonschema.ValidationError, msgs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			for _, part := range ve.InstanceLocation {
				loc += part + "/"
			}
		}
		*msgs = append(*msgs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(schemaPrinter)))
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaErrors(cause, msgs)
	}
}

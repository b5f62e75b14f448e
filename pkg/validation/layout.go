package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/signalflow/signalflow/internal/core/graph"
	"github.com/signalflow/signalflow/internal/core/layout"
)

// Validate is the shared validator instance with the layout-specific
// validations registered.
var Validate *validator.Validate

// flowIDPattern matches node and instance ids: a kind prefix followed by
// dash-separated numeric suffixes ("channel-0", "plot-0-1"), or a bare
// type-level kind id ("bandpower").
var flowIDPattern = regexp.MustCompile(`^[a-z]+(-\d+)*$`)

func init() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("flow_id", validateFlowID)
	_ = Validate.RegisterValidation("node_kind", validateNodeKind)

	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

func validateFlowID(fl validator.FieldLevel) bool {
	return flowIDPattern.MatchString(fl.Field().String())
}

func validateNodeKind(fl validator.FieldLevel) bool {
	return graph.NodeKind(fl.Field().String()).Valid()
}

// ImportReport counts the entries an import skipped. A non-zero report is
// not an error: valid entries were applied.
type ImportReport struct {
	SkippedNodes     int      `json:"skipped_nodes"`
	SkippedEdges     int      `json:"skipped_edges"`
	SkippedPositions int      `json:"skipped_positions"`
	Reasons          []string `json:"reasons,omitempty"`
}

// Total returns the overall number of skipped entries.
func (r ImportReport) Total() int {
	return r.SkippedNodes + r.SkippedEdges + r.SkippedPositions
}

// Skip records one skipped entry with its reason.
func (r *ImportReport) Skip(counter *int, reason string) {
	*counter++
	r.Reasons = append(r.Reasons, reason)
}

// Node validates one persisted node entry.
func Node(doc layout.NodeDocument) error {
	if err := Validate.Struct(doc); err != nil {
		return asValidationErrors(err)
	}
	return nil
}

// Connection validates one persisted edge entry.
func Connection(conn layout.Connection) error {
	if err := Validate.Struct(conn); err != nil {
		return asValidationErrors(err)
	}
	return nil
}

// Position validates one persisted position entry.
func Position(pos layout.Position) error {
	if err := Validate.Struct(pos); err != nil {
		return asValidationErrors(err)
	}
	return nil
}

// Grid validates the persisted grid settings.
func Grid(settings layout.GridSettings) error {
	if err := Validate.Struct(settings); err != nil {
		return asValidationErrors(err)
	}
	return nil
}

// asValidationErrors converts validator/v10 errors into the local format.
func asValidationErrors(err error) error {
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Message: messageFor(fe),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "flow_id":
		return "must be a node or instance id"
	case "node_kind":
		return "unknown node kind"
	case "min":
		return "value below minimum " + fe.Param()
	case "max":
		return "value above maximum " + fe.Param()
	default:
		return "failed validation: " + fe.Tag()
	}
}

package conversion

import (
	"errors"

	"github.com/vyrodovalexey/avarest/internal/service"
	"github.com/vyrodovalexey/avarest/internal/util"
)

// ArgumentResult is the outcome of converting one matched argument.
type ArgumentResult struct {
	Name  string
	Raw   string
	Value any
	Err   error
}

// ConvertArgument converts one raw argument to the value type declared by
// the method signature. Names the method does not declare stay strings.
func ConvertArgument(m *service.Method, name, raw string) ArgumentResult {
	res := ArgumentResult{Name: name, Raw: raw}

	el, ok := m.Argument(name)
	if !ok {
		res.Value = raw
		return res
	}

	v, err := el.ValueType().Convert(raw)
	if err != nil {
		res.Err = util.NewArgumentError(name, raw, el.ValueType().String(), err)
		return res
	}
	res.Value = v
	return res
}

// ConvertArguments converts every matched argument to its declared type.
// All failures are reported together; the joined error matches
// util.ErrBadRequest. The values map is nil on failure.
func ConvertArguments(m *service.Method, args map[string]string) (map[string]any, error) {
	values := make(map[string]any, len(args))
	var errs []error

	for _, el := range m.Arguments() {
		raw, ok := args[el.Name()]
		if !ok {
			continue
		}
		res := ConvertArgument(m, el.Name(), raw)
		if res.Err != nil {
			errs = append(errs, res.Err)
			continue
		}
		values[el.Name()] = res.Value
	}

	if len(errs) > 0 {
		getConversionMetrics().recordArgumentFailures(len(errs))
		return nil, errors.Join(errs...)
	}
	return values, nil
}

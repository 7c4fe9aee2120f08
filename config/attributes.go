package config

import (
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/depthcapture/utils"
)

// AttributeMap is a convenience wrapper for pulling out typed information from a map of
// driver attributes.
type AttributeMap map[string]interface{}

// Has returns whether or not the given name is in the map.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// Bool attempts to return a boolean present in the map with the given name; returns the
// given default otherwise.
func (am AttributeMap) Bool(name string, def bool) bool {
	if v, ok := am[name].(bool); ok {
		return v
	}
	return def
}

// TransformAttributeMapToStruct uses an attribute map to transform attributes to the prescribed
// format. `to` is either a pointer to a struct or a struct value; the decoded result is returned
// as the same kind.
func TransformAttributeMapToStruct(to interface{}, attributes AttributeMap) (interface{}, error) {
	if to == nil {
		return nil, errors.New("cannot transform attributes into nil")
	}
	var out interface{}
	toT := reflect.TypeOf(to)
	isPtr := toT.Kind() == reflect.Ptr
	if isPtr {
		toT = toT.Elem()
	}
	if toT.Kind() != reflect.Struct {
		return nil, utils.NewUnexpectedTypeError[struct{}](to)
	}
	out = reflect.New(toT).Interface()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]interface{}(attributes)); err != nil {
		return nil, errors.Wrap(err, "cannot convert attributes")
	}
	if isPtr {
		return out, nil
	}
	return reflect.ValueOf(out).Elem().Interface(), nil
}

// DecodeAttributes decodes attributes into a new T.
func DecodeAttributes[T any](attributes AttributeMap) (*T, error) {
	var zero T
	decoded, err := TransformAttributeMapToStruct(&zero, attributes)
	if err != nil {
		return nil, err
	}
	return utils.AssertType[*T](decoded)
}

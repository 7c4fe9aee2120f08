package utils

import (
	"context"
	"reflect"
)

// Closer is closable type in a TryClose.
type Closer interface {
	Close(context.Context) error
}

// TryClose closes the given value if it implements Closer, and is a no-op for nil.
func TryClose(ctx context.Context, v interface{}) error {
	if v == nil {
		return nil
	}
	closer, ok := v.(Closer)
	if !ok {
		return nil
	}
	if rv := reflect.ValueOf(closer); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil
	}
	return closer.Close(ctx)
}

// TypeName returns the printable name of the type parameter, including for interface types.
func TypeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

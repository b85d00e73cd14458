// Package appcontext carries request-scoped identifiers between the intake
// layer and the resolution core.
package appcontext

import "context"

type ContextKey string

var (
	RequestIDKey = ContextKey("X-Request-Id")
	NamespaceKey = ContextKey("X-Namespace")
	SourceKey    = ContextKey("X-Source")
)

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	value, ok := ctx.Value(RequestIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetNamespace(ctx context.Context, namespace string) context.Context {
	return context.WithValue(ctx, NamespaceKey, namespace)
}

func GetNamespace(ctx context.Context) string {
	value, ok := ctx.Value(NamespaceKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, SourceKey, source)
}

func GetSource(ctx context.Context) string {
	value, ok := ctx.Value(SourceKey).(string)
	if !ok {
		return ""
	}
	return value
}
